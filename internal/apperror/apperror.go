// Package apperror defines the error taxonomy shared by the execution
// bridge and the tool handlers. Every failure a tool can surface to a
// caller is one of the sentinel kinds below, wrapped in a ToolError that
// carries the user-visible message.
package apperror

import (
	"errors"
	"fmt"
)

var (
	// ErrMisconfigured means no execution target (container name or image)
	// could be resolved for the call.
	ErrMisconfigured = errors.New("misconfigured target")
	// ErrStartFailed means the pre-flight start of a persistent container
	// exited nonzero or did not finish in time.
	ErrStartFailed = errors.New("container start failed")
	// ErrExecution means the main command ran and exited nonzero.
	ErrExecution = errors.New("execution failed")
	// ErrTimeout means the main command exceeded its deadline.
	ErrTimeout = errors.New("execution timed out")
	// ErrNotFound means every discovery candidate failed.
	ErrNotFound = errors.New("not found")
)

// ToolError is the error type returned across the bridge boundary.
// Err is one of the sentinel errors above so callers can dispatch with
// errors.Is; Message is what the calling agent sees.
type ToolError struct {
	Err     error
	Message string
}

func (e *ToolError) Error() string {
	return e.Message
}

func (e *ToolError) Unwrap() error {
	return e.Err
}

// Misconfigured reports that neither a container name nor an image was
// available at execution time.
func Misconfigured() *ToolError {
	return &ToolError{
		Err:     ErrMisconfigured,
		Message: "must set up an image or container",
	}
}

// StartFailed wraps the stderr of a failed pre-flight start. An empty
// stderr gets a generic message so the caller never sees a blank error.
func StartFailed(stderr string) *ToolError {
	if stderr == "" {
		stderr = "failed to start container"
	}
	return &ToolError{
		Err:     ErrStartFailed,
		Message: stderr,
	}
}

// Execution wraps the stderr of a command that exited nonzero.
func Execution(stderr string) *ToolError {
	return &ToolError{
		Err:     ErrExecution,
		Message: stderr,
	}
}

// Timeout reports that the main command exceeded its deadline. The
// message is fixed so agents can match on it.
func Timeout() *ToolError {
	return &ToolError{
		Err:     ErrTimeout,
		Message: "TimeoutError",
	}
}

// NotFound reports that no discovery candidate produced a usable result.
func NotFound(what string) *ToolError {
	return &ToolError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found", what),
	}
}
