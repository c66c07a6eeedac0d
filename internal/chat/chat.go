// Package chat provides the interactive chat loop.
package chat

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"gptkit/internal/history"
	"gptkit/internal/openai"
	"gptkit/internal/printer"
)

// Options configures a Loop.
type Options struct {
	SystemPrompt string
	Model        string
	MaxTokens    int
	Temperature  *float64

	// TranscriptDir, when set, receives a JSON transcript after every completed turn.
	TranscriptDir string
}

// Loop reads user turns, sends the accumulated conversation to the chat
// endpoint and prints each reply.
type Loop struct {
	client  *openai.Client
	opts    Options
	conv    *history.Conversation
	scanner *bufio.Scanner
	out     io.Writer
	errOut  io.Writer
}

// errQuit ends the loop from a slash command.
var errQuit = errors.New("quit")

// NewLoop creates a chat loop reading from in and writing replies to out and
// errors to errOut.
func NewLoop(client *openai.Client, opts Options, in io.Reader, out, errOut io.Writer) *Loop {
	return &Loop{
		client:  client,
		opts:    opts,
		conv:    history.New(opts.SystemPrompt),
		scanner: bufio.NewScanner(in),
		out:     out,
		errOut:  errOut,
	}
}

// Resume replaces the current conversation and prints its messages dimmed.
func (l *Loop) Resume(conv *history.Conversation) {
	l.conv = conv
	for _, msg := range conv.Messages {
		printer.FprintMessage(l.out, msg.Role, msg.Content, true)
	}
}

// Conversation returns the conversation held by the loop.
func (l *Loop) Conversation() *history.Conversation {
	return l.conv
}

// Run reads input until EOF, /exit or ctx cancellation.
// A failed call is reported and its user turn rolled back; the loop continues.
func (l *Loop) Run(ctx context.Context) error {
	for {
		fmt.Fprintf(l.out, "%suser:%s ", printer.ColorGreen, printer.ColorReset)

		// Ctrl+D ends the input stream
		if !l.scanner.Scan() {
			fmt.Fprintln(l.out)
			return l.scanner.Err()
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		input := strings.TrimSpace(l.scanner.Text())
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			if err := l.handleCommand(input); errors.Is(err, errQuit) {
				return nil
			}
			continue
		}

		if err := l.turn(ctx, input); err != nil {
			fmt.Fprintf(l.errOut, "Error: %v\n", err)
			if ctx.Err() != nil {
				return ctx.Err()
			}
		}
	}
}

// turn sends one user message and records the reply.
func (l *Loop) turn(ctx context.Context, input string) error {
	l.conv.Append(openai.RoleUser, input)

	req := openai.ChatRequest{
		Model:    l.opts.Model,
		Messages: l.conv.ChatMessages(),
	}
	if l.opts.MaxTokens > 0 {
		req.MaxTokens = openai.Int(l.opts.MaxTokens)
	}
	if l.opts.Temperature != nil {
		req.Temperature = openai.Float(*l.opts.Temperature)
	}

	resp, err := l.client.Chat(ctx, req)
	if err == nil && len(resp.Choices) == 0 {
		err = openai.ErrEmptyResponse
	}
	if err != nil {
		l.conv.Rollback()
		return err
	}

	reply := history.MessageFromOpenAI(resp.Choices[0].Message)
	l.conv.AppendMessage(reply)
	printer.FprintMessage(l.out, reply.Role, reply.Content, false)
	fmt.Fprintln(l.out)

	if l.opts.TranscriptDir != "" {
		if _, err := l.conv.Save(l.opts.TranscriptDir); err != nil {
			fmt.Fprintf(l.errOut, "Error saving transcript: %v\n", err)
		}
	}
	return nil
}
