package printer

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"gptkit/internal/openai"
)

func TestFprintMessage(t *testing.T) {
	tests := []struct {
		name      string
		role      openai.Role
		isHistory bool
		wantColor string
		wantDim   bool
	}{
		{name: "user", role: openai.RoleUser, wantColor: ColorGreen},
		{name: "assistant", role: openai.RoleAssistant, wantColor: ColorBlue},
		{name: "history", role: openai.RoleAssistant, isHistory: true, wantColor: ColorBlue, wantDim: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			FprintMessage(&buf, tt.role, "hello", tt.isHistory)

			out := buf.String()
			require.Contains(t, out, tt.wantColor+string(tt.role))
			require.Contains(t, out, "hello")
			require.Equal(t, tt.wantDim, strings.HasPrefix(out, ColorDim))
		})
	}
}

func TestFprintUsage(t *testing.T) {
	var buf bytes.Buffer
	FprintUsage(&buf, openai.Usage{PromptTokens: 1, CompletionTokens: 5, TotalTokens: 6}, "length")
	require.Contains(t, buf.String(), "prompt=1 completion=5 total=6 finish=length")
}
