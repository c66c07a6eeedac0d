// Package main provides the gptkit command line client for the OpenAI
// completion and chat endpoints.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/sync/errgroup"

	"gptkit/internal/chat"
	"gptkit/internal/config"
	"gptkit/internal/history"
	"gptkit/internal/mcp"
	_ "gptkit/internal/mcp/builtin"
	"gptkit/internal/openai"
	"gptkit/internal/printer"
	"gptkit/internal/signal"
	"gptkit/internal/telemetry"
)

// Exit codes.
const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

const usage = `Usage: gptkit <command> [flags]

Commands:
  complete   Continue one or more prompts using the completions endpoint
  chat       Start an interactive chat session
  serve-mcp  Serve the complete and chat tools over MCP stdio

Run "gptkit <command> -h" for command flags.
`

func main() {
	os.Exit(signal.RunWithContext(func(ctx context.Context) int {
		return run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	}))
}

// run dispatches a subcommand and returns the process exit code.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return exitUsage
	}

	switch args[0] {
	case "complete":
		return runComplete(ctx, args[1:], stdout, stderr)
	case "chat":
		return runChat(ctx, args[1:], stdin, stdout, stderr)
	case "serve-mcp":
		return runServeMCP(ctx, args[1:], stderr)
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
		return exitOK
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", args[0], usage)
		return exitUsage
	}
}

// stringList is a flag.Value collecting every occurrence of a repeated flag.
type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ", ") }

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

// app holds the configuration and services shared by every subcommand.
type app struct {
	cfg     *config.Config
	client  *openai.Client
	logger  *slog.Logger
	cleanup func()
}

// setup loads configuration, starts telemetry and builds the API client.
func setup(ctx context.Context, configPath string) (*app, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, err
	}

	logger, logCloser, err := telemetry.InitLogger(cfg.Log)
	if err != nil {
		return nil, err
	}

	tracer, traceCleanup, err := telemetry.InitTracer(ctx, cfg.Trace)
	if err != nil {
		logCloser.Close()
		return nil, err
	}

	meter, meterCleanup, err := telemetry.InitMeter(ctx, cfg.Metrics)
	if err != nil {
		traceCleanup()
		logCloser.Close()
		return nil, err
	}

	cleanup := func() {
		meterCleanup()
		traceCleanup()
		logCloser.Close()
	}

	client, err := openai.NewClientFromConfig(cfg,
		openai.WithLogger(logger),
		openai.WithTracer(tracer),
		openai.WithMeter(meter),
	)
	if err != nil {
		cleanup()
		return nil, err
	}

	logger.Debug("client ready", "client", client)

	return &app{
		cfg:     cfg,
		client:  client,
		logger:  logger,
		cleanup: cleanup,
	}, nil
}

// loadConfig loads .env and then the configuration at path.
func loadConfig(path string) (*config.Config, error) {
	if path == config.DefaultConfigPath {
		return config.LoadDefault()
	}
	if err := config.LoadEnv(".env"); err != nil {
		return nil, err
	}
	return config.Load(path)
}

// newFlagSet creates a flag set that reports errors instead of exiting
// and registers the shared -config flag.
func newFlagSet(name string, stderr io.Writer, configPath *string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(configPath, "config", config.DefaultConfigPath, "path to the configuration file")
	return fs
}

// parseFlags maps flag parsing results to an exit code, or -1 to continue.
func parseFlags(fs *flag.FlagSet, args []string) int {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}
	return -1
}

func runComplete(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	var (
		configPath string
		prompts    stringList
		model      string
		maxTokens  int
		showUsage  bool
	)
	fs := newFlagSet("complete", stderr, &configPath)
	fs.Var(&prompts, "p", "prompt to complete (repeatable)")
	fs.StringVar(&model, "m", "", "completion model (default from config)")
	fs.IntVar(&maxTokens, "n", 0, "maximum tokens to generate (default from config)")
	fs.BoolVar(&showUsage, "usage", false, "print token usage after each completion")
	if code := parseFlags(fs, args); code >= 0 {
		return code
	}
	prompts = append(prompts, fs.Args()...)
	if len(prompts) == 0 {
		fmt.Fprintln(stderr, "complete: at least one prompt is required (-p)")
		return exitUsage
	}
	if maxTokens < 0 {
		fmt.Fprintln(stderr, "complete: -n must not be negative")
		return exitUsage
	}

	a, err := setup(ctx, configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitError
	}
	defer a.cleanup()

	if maxTokens == 0 {
		maxTokens = a.cfg.OpenAI.MaxTokens
	}

	results, err := completeAll(ctx, a.client, prompts, openai.CompletionRequest{
		Model:       model,
		MaxTokens:   openai.Int(maxTokens),
		Temperature: a.cfg.OpenAI.Temperature,
	})
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitError
	}

	for i, resp := range results {
		printer.FprintCompletion(stdout, prompts[i], resp.Choices[0].Text)
		if showUsage {
			printer.FprintUsage(stdout, resp.Usage, resp.Choices[0].FinishReason)
		}
	}
	return exitOK
}

// completeAll issues one completion per prompt concurrently and returns the
// responses in prompt order. The first failure cancels the remaining calls.
func completeAll(ctx context.Context, client *openai.Client, prompts []string, template openai.CompletionRequest) ([]*openai.CompletionResponse, error) {
	results := make([]*openai.CompletionResponse, len(prompts))

	g, ctx := errgroup.WithContext(ctx)
	for i, prompt := range prompts {
		g.Go(func() error {
			req := template
			req.Prompt = prompt
			resp, err := client.Complete(ctx, req)
			if err != nil {
				return fmt.Errorf("prompt %d: %w", i+1, err)
			}
			if len(resp.Choices) == 0 {
				return fmt.Errorf("prompt %d: %w", i+1, openai.ErrEmptyResponse)
			}
			results[i] = resp
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func runChat(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var (
		configPath string
		system     string
		model      string
		resume     string
	)
	fs := newFlagSet("chat", stderr, &configPath)
	fs.StringVar(&system, "s", "", "system prompt")
	fs.StringVar(&model, "m", "", "chat model (default from config)")
	fs.StringVar(&resume, "resume", "", "ID of a saved transcript to continue")
	if code := parseFlags(fs, args); code >= 0 {
		return code
	}

	a, err := setup(ctx, configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitError
	}
	defer a.cleanup()

	loop := chat.NewLoop(a.client, chat.Options{
		SystemPrompt:  system,
		Model:         model,
		MaxTokens:     a.cfg.OpenAI.MaxTokens,
		Temperature:   a.cfg.OpenAI.Temperature,
		TranscriptDir: a.cfg.History.TranscriptDir,
	}, stdin, stdout, stderr)

	if resume != "" {
		if a.cfg.History.TranscriptDir == "" {
			fmt.Fprintln(stderr, "chat: -resume requires history.transcript_dir")
			return exitUsage
		}
		conv, err := history.LoadByID(a.cfg.History.TranscriptDir, resume)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return exitError
		}
		loop.Resume(conv)
	}

	fmt.Fprintln(stdout, "Press Ctrl+D to end the session. Type /help for commands.")
	if err := loop.Run(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return signal.ExitInterrupted
		}
		fmt.Fprintf(stderr, "Error reading input: %v\n", err)
		return exitError
	}
	return exitOK
}

func runServeMCP(ctx context.Context, args []string, stderr io.Writer) int {
	var configPath string
	fs := newFlagSet("serve-mcp", stderr, &configPath)
	if code := parseFlags(fs, args); code >= 0 {
		return code
	}

	a, err := setup(ctx, configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitError
	}
	defer a.cleanup()

	a.logger.Info("serving MCP tools over stdio", "tools", mcp.DefaultToolRegistry.Count())
	if err := mcp.Serve(ctx, a.client); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitError
	}
	return exitOK
}
