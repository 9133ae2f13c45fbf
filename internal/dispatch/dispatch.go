// Package dispatch routes normalized tool calls to the right server session
// and canonicalizes the heterogeneous result shapes into plain text.
package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/dslh/mcp-agent/internal/logging"
)

// Caller is the session registry the dispatcher resolves servers against.
// Implemented by remote.Manager; narrowed here for easier testing.
type Caller interface {
	Has(server string) bool
	CallTool(ctx context.Context, server, tool string, arguments map[string]any) (*mcp.CallToolResult, error)
}

// Call is a normalized tool call ready for dispatch. Arguments only contain
// keys the normalizer produced; empty values are already filtered.
type Call struct {
	Server    string
	Tool      string
	Arguments map[string]any
}

// Dispatcher resolves (server, tool) pairs to live sessions and executes
// tool calls.
type Dispatcher struct {
	caller Caller
}

// New creates a Dispatcher backed by the given session registry.
func New(caller Caller) *Dispatcher {
	return &Dispatcher{caller: caller}
}

// Dispatch executes a tool call and returns the canonical text form of its
// result. It fails with *UnknownServerError when the server has no session,
// and wraps every remote failure in *ToolExecutionError.
func (d *Dispatcher) Dispatch(ctx context.Context, call Call) (string, error) {
	if !d.caller.Has(call.Server) {
		return "", &UnknownServerError{Server: call.Server}
	}

	logging.Info().
		Str("server", call.Server).
		Str("tool", call.Tool).
		Int("args", len(call.Arguments)).
		Msg("dispatching tool call")

	result, err := d.caller.CallTool(ctx, call.Server, call.Tool, call.Arguments)
	if err != nil {
		return "", &ToolExecutionError{Server: call.Server, Tool: call.Tool, Err: err}
	}

	if result.IsError {
		return "", &ToolExecutionError{
			Server: call.Server,
			Tool:   call.Tool,
			Err:    errors.New(errorText(result)),
		}
	}

	return Render(result), nil
}

// Render converts a tool result into its canonical string form. The shapes
// are resolved in order: first textual content, then structured content,
// then the whole content list stringified.
func Render(result *mcp.CallToolResult) string {
	if result == nil {
		return ""
	}

	for _, content := range result.Content {
		if text, ok := content.(*mcp.TextContent); ok {
			return text.Text
		}
	}

	if result.StructuredContent != nil {
		if data, err := json.Marshal(result.StructuredContent); err == nil {
			return string(data)
		}
	}

	if len(result.Content) > 0 {
		if data, err := json.Marshal(result.Content); err == nil {
			return string(data)
		}
		return fmt.Sprintf("%v", result.Content)
	}

	return ""
}

// errorText extracts a failure description from an error-shaped result.
func errorText(result *mcp.CallToolResult) string {
	if text := Render(result); text != "" {
		return text
	}
	return "tool execution failed"
}
