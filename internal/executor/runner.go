package executor

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os/exec"
	"time"
)

// processRunner runs commands via os/exec. Stdout and stderr are captured
// into independent buffers; exec.Cmd drains both concurrently with the
// wait, so a blocked pipe cannot deadlock the child.
type processRunner struct {
	logger *slog.Logger
}

// NewProcessRunner creates the default Runner backed by os/exec.
func NewProcessRunner(logger *slog.Logger) Runner {
	return &processRunner{logger: logger}
}

// Run starts argv[0] with the remaining elements as arguments and waits
// for it to exit or for the timeout to elapse. On timeout the child is
// killed before context.DeadlineExceeded is returned, so no process
// outlives the call.
func (r *processRunner) Run(ctx context.Context, argv []string, env []string, timeout time.Duration) (Outcome, error) {
	if len(argv) == 0 {
		return Outcome{}, errors.New("executor: empty argv")
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Env = env

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	outcome := Outcome{
		Stdout: stdout.Bytes(),
		Stderr: stderr.Bytes(),
	}

	// The deadline check comes first: a killed process also reports an
	// ExitError, which would otherwise mask the timeout.
	if ctxErr := ctx.Err(); errors.Is(ctxErr, context.DeadlineExceeded) {
		r.logger.Debug("command timed out",
			slog.String("command", argv[0]),
			slog.Duration("timeout", timeout),
		)
		return outcome, context.DeadlineExceeded
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			outcome.ExitCode = exitErr.ExitCode()
			return outcome, nil
		}
		// Spawn failure: runtime binary missing, permission denied, etc.
		return outcome, err
	}

	r.logger.Debug("command completed",
		slog.String("command", argv[0]),
		slog.Duration("duration", time.Since(start)),
	)
	return outcome, nil
}
