package executor

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"

	"github.com/rs/xid"

	"github.com/codr/codr-runner/internal/apperror"
)

// Bridge composes the target resolver and the process runner into the
// Executor the tool handlers use. It holds the process-wide default
// target established at startup, which is read-only after construction.
type Bridge struct {
	target   Target
	resolver *Resolver
	runner   Runner
	env      []string
	logger   *slog.Logger
}

// Options configures a Bridge.
type Options struct {
	// Target is the startup-configured execution target. It wins over any
	// per-request target; requests only fall back to their own target when
	// this is zero.
	Target Target
	// Runtime is the container runtime CLI binary. Defaults to "docker".
	Runtime string
	// Host, when set, is exported as DOCKER_HOST to every runtime
	// invocation.
	Host string
}

// NewBridge wires a Bridge from options. runner may be nil, in which case
// the default process runner is used.
func NewBridge(opts Options, runner Runner, logger *slog.Logger) *Bridge {
	if opts.Runtime == "" {
		opts.Runtime = "docker"
	}
	if runner == nil {
		runner = NewProcessRunner(logger)
	}

	var env []string
	if opts.Host != "" {
		env = append(os.Environ(), "DOCKER_HOST="+opts.Host)
	}

	return &Bridge{
		target:   opts.Target,
		resolver: NewResolver(opts.Runtime, env, runner, logger),
		runner:   runner,
		env:      env,
		logger:   logger,
	}
}

// Execute resolves the target, runs the command, and maps the raw outcome
// into stdout text or a typed failure:
//
//	exit 0      -> stdout, decoded permissively
//	exit != 0   -> apperror.ErrExecution carrying stderr
//	deadline    -> apperror.ErrTimeout
//	no target   -> apperror.ErrMisconfigured, before any process is spawned
func (b *Bridge) Execute(ctx context.Context, req Request) (string, error) {
	target := b.target
	if target.IsZero() {
		target = req.Target
	}
	if target.IsZero() {
		return "", apperror.Misconfigured()
	}

	id := xid.New().String()
	b.logger.Debug("executing command",
		slog.String("invocation", id),
		slog.String("command", strings.Join(req.Argv, " ")),
		slog.Duration("timeout", req.Timeout),
	)

	argv, err := b.resolver.Resolve(ctx, target, req.Argv, req.Env)
	if err != nil {
		return "", err
	}

	outcome, err := b.runner.Run(ctx, argv, b.env, req.Timeout)
	if errors.Is(err, context.DeadlineExceeded) {
		return "", apperror.Timeout()
	}
	if err != nil {
		return "", apperror.Execution(err.Error())
	}
	if outcome.ExitCode != 0 {
		b.logger.Debug("command exited nonzero",
			slog.String("invocation", id),
			slog.Int("exitCode", outcome.ExitCode),
		)
		return "", apperror.Execution(decode(outcome.Stderr))
	}

	return decode(outcome.Stdout), nil
}

// decode converts captured bytes to text, replacing invalid UTF-8
// sequences rather than failing.
func decode(b []byte) string {
	return strings.ToValidUTF8(string(b), "�")
}
