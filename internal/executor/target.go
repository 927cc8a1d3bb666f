package executor

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/codr/codr-runner/internal/apperror"
)

// startTimeout bounds the pre-flight `start` of a persistent container.
// It is deliberately short and independent of the caller's timeout.
const startTimeout = 10 * time.Second

// Resolver rewrites a user command into the concrete container-runtime
// invocation for a target, issuing the pre-flight start for persistent
// containers.
type Resolver struct {
	runtime string // runtime CLI binary, e.g. "docker" or "podman"
	env     []string
	runner  Runner
	logger  *slog.Logger
}

// NewResolver creates a Resolver that shells out to the given runtime
// binary. env is the full process environment used for every runtime
// invocation (nil inherits the parent's).
func NewResolver(runtime string, env []string, runner Runner, logger *slog.Logger) *Resolver {
	return &Resolver{
		runtime: runtime,
		env:     env,
		runner:  runner,
		logger:  logger,
	}
}

// Resolve returns the concrete argv for running baseArgv against target.
//
// For an image target the runtime creates and discards the container
// itself, so no pre-flight is needed. For a named container the container
// is started first with a short fixed timeout; starting an already-running
// container is a no-op for the runtime, so the resolver never checks
// running state itself. A nonzero start exit prevents any exec from being
// issued.
func (r *Resolver) Resolve(ctx context.Context, target Target, baseArgv []string, env map[string]string) ([]string, error) {
	flags := envFlags(env)

	if target.Name == "" {
		argv := append([]string{r.runtime, "run"}, flags...)
		argv = append(argv, "--rm", target.Image)
		return append(argv, baseArgv...), nil
	}

	if err := r.preflight(ctx, target.Name); err != nil {
		return nil, err
	}

	argv := append([]string{r.runtime, "exec"}, flags...)
	argv = append(argv, target.Name)
	return append(argv, baseArgv...), nil
}

// preflight ensures the named container is running. A deadline hit here
// maps to StartFailed, not Timeout: only the main command's deadline is a
// caller-visible timeout.
func (r *Resolver) preflight(ctx context.Context, name string) error {
	r.logger.Debug("starting container", slog.String("container", name))

	outcome, err := r.runner.Run(ctx, []string{r.runtime, "start", name}, r.env, startTimeout)
	if err != nil {
		return apperror.StartFailed(err.Error())
	}
	if outcome.ExitCode != 0 {
		return apperror.StartFailed(string(outcome.Stderr))
	}
	return nil
}

// envFlags renders env as alternating --env, k=v pairs. Keys are sorted
// so the produced argv is deterministic.
func envFlags(env map[string]string) []string {
	if len(env) == 0 {
		return nil
	}

	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	flags := make([]string, 0, 2*len(keys))
	for _, k := range keys {
		flags = append(flags, "--env", fmt.Sprintf("%s=%s", k, env[k]))
	}
	return flags
}
