package chat

import (
	"fmt"
	"strings"

	"gptkit/internal/history"
	"gptkit/internal/printer"
)

// handleCommand processes slash commands. It returns errQuit for /exit.
func (l *Loop) handleCommand(input string) error {
	cmdLine := strings.TrimPrefix(input, "/")
	parts := strings.SplitN(cmdLine, " ", 2)
	cmd := strings.ToLower(parts[0])

	switch cmd {
	case "exit", "quit":
		return errQuit
	case "reset":
		l.handleReset()
	case "history":
		l.handleHistory()
	case "save":
		l.handleSave()
	case "help":
		l.handleHelp()
	default:
		fmt.Fprintf(l.out, "Unknown command: %s (type /help for available commands)\n", input)
	}
	return nil
}

// handleReset starts a new conversation with the same system prompt.
func (l *Loop) handleReset() {
	l.conv = history.New(l.opts.SystemPrompt)
	fmt.Fprintf(l.out, "Started conversation %s\n", l.conv.ID)
}

// handleHistory reprints the conversation so far.
func (l *Loop) handleHistory() {
	if l.conv.Len() == 0 {
		fmt.Fprintln(l.out, "No messages yet.")
		return
	}
	for _, msg := range l.conv.Messages {
		printer.FprintMessage(l.out, msg.Role, msg.Content, true)
	}
}

// handleSave writes the transcript now.
func (l *Loop) handleSave() {
	if l.opts.TranscriptDir == "" {
		fmt.Fprintln(l.out, "Transcripts are disabled (set history.transcript_dir).")
		return
	}
	path, err := l.conv.Save(l.opts.TranscriptDir)
	if err != nil {
		fmt.Fprintf(l.errOut, "Error saving transcript: %v\n", err)
		return
	}
	fmt.Fprintf(l.out, "Saved %s\n", path)
}

// handleHelp shows available commands.
func (l *Loop) handleHelp() {
	fmt.Fprintln(l.out, "\n=== Available Commands ===")
	fmt.Fprintln(l.out, "/history        - Show the conversation so far")
	fmt.Fprintln(l.out, "/reset          - Start a new conversation")
	fmt.Fprintln(l.out, "/save           - Save the transcript now")
	fmt.Fprintln(l.out, "/exit           - End the session")
	fmt.Fprintln(l.out, "/help           - Show this help message")
	fmt.Fprintln(l.out)
}
