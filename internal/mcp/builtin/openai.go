package builtin

import (
	"context"
	"fmt"

	mcplib "github.com/mark3labs/mcp-go/mcp"

	"gptkit/internal/mcp"
	"gptkit/internal/openai"
)

func init() {
	mcp.DefaultToolRegistry.Register(completeTool(), completeHandler)
	mcp.DefaultToolRegistry.Register(chatTool(), chatHandler)
}

func completeTool() mcplib.Tool {
	return mcplib.NewTool("complete",
		mcplib.WithDescription("Continue a text prompt using the completions endpoint."),
		mcplib.WithString("prompt",
			mcplib.Required(),
			mcplib.Description("The text to continue."),
		),
		mcplib.WithString("model",
			mcplib.Description("Completion model to use. Defaults to the configured completion model."),
		),
		mcplib.WithNumber("max_tokens",
			mcplib.Description("Maximum number of tokens to generate."),
		),
	)
}

func chatTool() mcplib.Tool {
	return mcplib.NewTool("chat",
		mcplib.WithDescription("Send a single message to the chat completions endpoint and return the reply."),
		mcplib.WithString("message",
			mcplib.Required(),
			mcplib.Description("The user message."),
		),
		mcplib.WithString("system",
			mcplib.Description("Optional system prompt sent before the message."),
		),
		mcplib.WithString("model",
			mcplib.Description("Chat model to use. Defaults to the configured chat model."),
		),
	)
}

func completeHandler(client *openai.Client) mcp.ToolHandler {
	return func(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
		args, err := GetArgs(req)
		if err != nil {
			return nil, err
		}
		prompt, err := GetStringArg(args, "prompt")
		if err != nil {
			return nil, err
		}
		maxTokens, ok, err := GetOptionalIntArg(args, "max_tokens")
		if err != nil {
			return nil, err
		}

		if client == nil {
			return mcplib.NewToolResultError("no API client configured"), nil
		}

		completion := openai.CompletionRequest{
			Model:  GetOptionalStringArg(args, "model", ""),
			Prompt: prompt,
		}
		if ok {
			completion.MaxTokens = openai.Int(maxTokens)
		}

		text, err := client.CompleteText(ctx, completion)
		if err != nil {
			return mcplib.NewToolResultError(fmt.Sprintf("completion failed: %v", err)), nil
		}
		return mcplib.NewToolResultText(text), nil
	}
}

func chatHandler(client *openai.Client) mcp.ToolHandler {
	return func(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
		args, err := GetArgs(req)
		if err != nil {
			return nil, err
		}
		message, err := GetStringArg(args, "message")
		if err != nil {
			return nil, err
		}

		if client == nil {
			return mcplib.NewToolResultError("no API client configured"), nil
		}

		var messages []openai.ChatMessage
		if system := GetOptionalStringArg(args, "system", ""); system != "" {
			messages = append(messages, openai.ChatMessage{Role: openai.RoleSystem, Content: system})
		}
		messages = append(messages, openai.ChatMessage{Role: openai.RoleUser, Content: message})

		reply, err := client.ChatText(ctx, openai.ChatRequest{
			Model:    GetOptionalStringArg(args, "model", ""),
			Messages: messages,
		})
		if err != nil {
			return mcplib.NewToolResultError(fmt.Sprintf("chat failed: %v", err)), nil
		}
		return mcplib.NewToolResultText(reply), nil
	}
}
