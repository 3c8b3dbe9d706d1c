package agent

import (
	"errors"
	"fmt"
)

// ErrRetryLimitExceeded ends a task whose model kept answering without a
// usable directive.
var ErrRetryLimitExceeded = errors.New("retry limit exceeded")

// ParseError reports a malformed action. The loop turns it into a retry
// prompt; it does not escape Run.
type ParseError struct {
	Input  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error: %s: %q", e.Reason, e.Input)
}

// APIError wraps a failure of the model transport.
type APIError struct {
	Err error
}

func (e *APIError) Error() string { return "model API error: " + e.Err.Error() }
func (e *APIError) Unwrap() error { return e.Err }

// ToolError wraps a tool that failed while executing.
type ToolError struct {
	Tool string
	Err  error
}

func (e *ToolError) Error() string { return fmt.Sprintf("tool %s failed: %v", e.Tool, e.Err) }
func (e *ToolError) Unwrap() error { return e.Err }

// EnvironmentError reports that the runtime environment is unusable, such
// as a project directory that disappeared.
type EnvironmentError struct {
	Err error
}

func (e *EnvironmentError) Error() string { return "environment error: " + e.Err.Error() }
func (e *EnvironmentError) Unwrap() error { return e.Err }
