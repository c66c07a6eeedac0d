// Package mcp exposes the completion and chat endpoints as Model Context Protocol tools.
package mcp

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"gptkit/internal/openai"
)

// ToolHandler is the function signature for MCP tool handlers.
type ToolHandler func(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error)

// ToolHandlerFactory creates a tool handler with access to the API client.
// This allows tools to be registered at init time, before a client exists.
type ToolHandlerFactory func(client *openai.Client) ToolHandler

// ToolRegistration holds a tool definition and its handler factory.
type ToolRegistration struct {
	Tool           mcplib.Tool
	HandlerFactory ToolHandlerFactory
}

// ToolRegistry holds all available tools.
type ToolRegistry struct {
	mu    sync.RWMutex
	tools map[string]ToolRegistration
}

// NewToolRegistry creates a new empty tool registry.
func NewToolRegistry() *ToolRegistry {
	return &ToolRegistry{
		tools: make(map[string]ToolRegistration),
	}
}

// Register adds a tool to the registry, replacing any tool with the same name.
func (r *ToolRegistry) Register(tool mcplib.Tool, handlerFactory ToolHandlerFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[tool.Name] = ToolRegistration{
		Tool:           tool,
		HandlerFactory: handlerFactory,
	}
}

// Get returns a tool registration by name.
func (r *ToolRegistry) Get(name string) (ToolRegistration, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reg, ok := r.tools[name]
	return reg, ok
}

// All returns all registered tools sorted by name.
func (r *ToolRegistry) All() []ToolRegistration {
	r.mu.RLock()
	defer r.mu.RUnlock()

	regs := make([]ToolRegistration, 0, len(r.tools))
	for _, reg := range r.tools {
		regs = append(regs, reg)
	}
	sort.Slice(regs, func(i, j int) bool {
		return regs[i].Tool.Name < regs[j].Tool.Name
	})
	return regs
}

// Count returns the number of registered tools.
func (r *ToolRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// DefaultToolRegistry is the global tool registry instance.
// Tools register themselves here using init() functions.
var DefaultToolRegistry = NewToolRegistry()

// Server identity reported during the MCP handshake.
const (
	ServerName    = "gptkit"
	ServerVersion = "0.1.0"
)

// NewServer creates an MCP server hosting every tool in registry, each bound to client.
func NewServer(registry *ToolRegistry, client *openai.Client) *server.MCPServer {
	srv := server.NewMCPServer(ServerName, ServerVersion,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)

	for _, reg := range registry.All() {
		srv.AddTool(reg.Tool, server.ToolHandlerFunc(reg.HandlerFactory(client)))
	}
	return srv
}

// Serve runs the tools in DefaultToolRegistry over stdio until ctx is cancelled
// or stdin is closed.
func Serve(ctx context.Context, client *openai.Client) error {
	if DefaultToolRegistry.Count() == 0 {
		return fmt.Errorf("no MCP tools registered")
	}

	stdio := server.NewStdioServer(NewServer(DefaultToolRegistry, client))
	return stdio.Listen(ctx, os.Stdin, os.Stdout)
}
