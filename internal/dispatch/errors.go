package dispatch

import "fmt"

// UnknownServerError reports a tool call addressed to a server that is not
// in the session registry.
type UnknownServerError struct {
	Server string
}

func (e *UnknownServerError) Error() string {
	return fmt.Sprintf("unknown server: %s", e.Server)
}

// ToolExecutionError wraps a failed remote tool call with the tool and
// server it was addressed to. Remote failures are never propagated raw; the
// conversation must continue regardless.
type ToolExecutionError struct {
	Server string
	Tool   string
	Err    error
}

func (e *ToolExecutionError) Error() string {
	return fmt.Sprintf("tool %s.%s failed: %v", e.Server, e.Tool, e.Err)
}

func (e *ToolExecutionError) Unwrap() error {
	return e.Err
}
