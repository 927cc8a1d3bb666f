// Package executor contains the command execution bridge: it resolves a
// logical execution target into a concrete container-runtime invocation,
// runs it with a deadline, and maps the raw process result into either
// captured stdout text or a typed apperror failure.
package executor

import (
	"context"
	"time"
)

// Target is a logical execution target. Exactly one field is set: Name
// selects a persistent container that is (re)started before each call,
// Image selects a throwaway container created per call. Both-set is
// resolved at configuration time in favor of Name.
type Target struct {
	Name  string
	Image string
}

// IsZero reports whether no target is configured.
func (t Target) IsZero() bool {
	return t.Name == "" && t.Image == ""
}

// Request describes one command execution. Argv[0] is the interpreter or
// shell to run inside the container; Env is injected via --env flags.
type Request struct {
	Argv    []string
	Env     map[string]string
	Timeout time.Duration
	// Target is only consulted when no startup target was configured;
	// the startup configuration is authoritative once set.
	Target Target
}

// Executor is the contract the tool handlers program against.
type Executor interface {
	Execute(ctx context.Context, req Request) (string, error)
}

// Outcome is the raw result of one process invocation: the exit status
// and the fully drained output streams.
type Outcome struct {
	ExitCode int
	Stdout   []byte
	Stderr   []byte
}

// Runner runs a single external command vector with a deadline. env is
// the full process environment for the child (nil inherits the parent's).
// A deadline hit surfaces as context.DeadlineExceeded after the process
// has been killed; a nonzero exit is not an error at this level.
type Runner interface {
	Run(ctx context.Context, argv []string, env []string, timeout time.Duration) (Outcome, error)
}
