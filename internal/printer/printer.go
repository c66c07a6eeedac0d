// Package printer provides terminal output formatting with ANSI colors for chat messages.
package printer

import (
	"fmt"
	"io"

	"gptkit/internal/openai"
)

// ANSI escape codes for terminal output
const (
	ColorReset = "\033[0m"
	ColorDim   = "\033[2m" // Dim/faint intensity
	ColorGreen = "\033[32m"
	ColorBlue  = "\033[34m"
)

// FprintMessage outputs a chat message with formatting based on role and history status.
// isHistory dims messages loaded from a transcript.
func FprintMessage(w io.Writer, role openai.Role, message string, isHistory bool) {
	color := ColorGreen
	if role == openai.RoleAssistant {
		color = ColorBlue
	}

	dim := ""
	if isHistory {
		dim = ColorDim
	}

	fmt.Fprintf(w, "%s%s%s%s: %s%s%s\n", dim, color, role, ColorReset, dim, message, ColorReset)
}

// FprintCompletion outputs a prompt followed by its generated continuation.
func FprintCompletion(w io.Writer, prompt, text string) {
	fmt.Fprintf(w, "%s%s%s%s%s%s\n", ColorGreen, prompt, ColorReset, ColorBlue, text, ColorReset)
}

// FprintUsage outputs token counters in dim intensity.
func FprintUsage(w io.Writer, usage openai.Usage, finishReason string) {
	fmt.Fprintf(w, "%s[tokens: prompt=%d completion=%d total=%d finish=%s]%s\n",
		ColorDim, usage.PromptTokens, usage.CompletionTokens, usage.TotalTokens, finishReason, ColorReset)
}
