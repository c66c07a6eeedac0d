// Package builtin provides the MCP tools served by gptkit.
// Each tool registers itself with mcp.DefaultToolRegistry from an init function,
// so importing this package for side effects is enough to expose them.
package builtin

import (
	"fmt"
	"math"

	mcplib "github.com/mark3labs/mcp-go/mcp"
)

// GetArgs extracts the arguments map from a CallToolRequest.
func GetArgs(req mcplib.CallToolRequest) (map[string]any, error) {
	args, ok := req.Params.Arguments.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("invalid arguments format")
	}
	return args, nil
}

// GetStringArg extracts a required, non-empty string argument.
func GetStringArg(args map[string]any, name string) (string, error) {
	val, ok := args[name].(string)
	if !ok || val == "" {
		return "", fmt.Errorf("%s argument is required and must be a non-empty string", name)
	}
	return val, nil
}

// GetOptionalStringArg returns defaultVal when the argument is missing, empty or not a string.
func GetOptionalStringArg(args map[string]any, name string, defaultVal string) string {
	if val, ok := args[name].(string); ok && val != "" {
		return val
	}
	return defaultVal
}

// GetOptionalIntArg extracts an optional whole-number argument.
// JSON numbers arrive as float64, so fractional values are rejected rather than truncated.
// The second return value is false when the argument is absent.
func GetOptionalIntArg(args map[string]any, name string) (int, bool, error) {
	raw, ok := args[name]
	if !ok || raw == nil {
		return 0, false, nil
	}

	switch v := raw.(type) {
	case int:
		return v, true, nil
	case float64:
		if v != math.Trunc(v) || v < math.MinInt32 || v > math.MaxInt32 {
			return 0, false, fmt.Errorf("%s argument must be a whole number", name)
		}
		return int(v), true, nil
	default:
		return 0, false, fmt.Errorf("%s argument must be a number", name)
	}
}
