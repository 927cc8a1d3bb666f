// Package tools implements the three tool surfaces exposed over MCP:
// python_execute, bash_execute, and get_python_modules. Each handler
// builds a language-specific command vector and delegates to the
// execution bridge; get_python_modules additionally post-processes the
// output into a package-name list.
package tools

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/codr/codr-runner/internal/apperror"
	"github.com/codr/codr-runner/internal/executor"
)

// Handler holds the tool call sites. It is safe for concurrent use; each
// invocation runs its own independent subprocess.
type Handler struct {
	exec           executor.Executor
	candidates     [][]string
	execTimeout    time.Duration
	modulesTimeout time.Duration
	logger         *slog.Logger
}

// Options configures a Handler.
type Options struct {
	// ExecTimeout is the default deadline for code execution when the
	// caller supplies none.
	ExecTimeout time.Duration
	// ModulesTimeout is the default per-candidate deadline for module
	// discovery.
	ModulesTimeout time.Duration
	// Candidates are the package-listing argvs tried in order by
	// PythonModules.
	Candidates [][]string
}

// NewHandler creates a Handler delegating to exec.
func NewHandler(exec executor.Executor, opts Options, logger *slog.Logger) *Handler {
	if opts.ExecTimeout <= 0 {
		opts.ExecTimeout = 300 * time.Second
	}
	if opts.ModulesTimeout <= 0 {
		opts.ModulesTimeout = 15 * time.Second
	}
	if len(opts.Candidates) == 0 {
		opts.Candidates = [][]string{
			{"apt-mark", "showmanual", "python3-*"},
			{"pacman", "-Qe"},
		}
	}
	return &Handler{
		exec:           exec,
		candidates:     opts.Candidates,
		execTimeout:    opts.ExecTimeout,
		modulesTimeout: opts.ModulesTimeout,
		logger:         logger,
	}
}

// ExecutePython runs code with an isolated interpreter invocation: quiet,
// unbuffered, and -I so ambient interpreter configuration in the
// container cannot alter behavior.
func (h *Handler) ExecutePython(ctx context.Context, code string, env map[string]string, timeout time.Duration) (string, error) {
	if timeout <= 0 {
		timeout = h.execTimeout
	}
	return h.exec.Execute(ctx, executor.Request{
		Argv:    []string{"python", "-q", "-u", "-I", "-c", code},
		Env:     env,
		Timeout: timeout,
	})
}

// ExecuteBash runs code through bash -c.
func (h *Handler) ExecuteBash(ctx context.Context, code string, env map[string]string, timeout time.Duration) (string, error) {
	if timeout <= 0 {
		timeout = h.execTimeout
	}
	return h.exec.Execute(ctx, executor.Request{
		Argv:    []string{"bash", "-c", code},
		Env:     env,
		Timeout: timeout,
	})
}

// moduleLine matches one line of package-manager output and captures the
// bare package name, e.g. "python3-requests 1.0" -> "requests".
var moduleLine = regexp.MustCompile(`(?i)^python3?-(\S+)\s*.*$`)

// PythonModules tries the discovery candidates in order and parses the
// first successful output into package names. This is a best-effort
// heuristic list driven by whichever package manager answers, not an
// exhaustive inventory of importable modules.
//
// Execution-level failures (nonzero exit, failed container start) make
// the loop fall through to the next candidate; a timeout or a
// misconfigured target aborts immediately. Exhausting every candidate
// yields ErrNotFound.
func (h *Handler) PythonModules(ctx context.Context, timeout time.Duration) ([]string, error) {
	if timeout <= 0 {
		timeout = h.modulesTimeout
	}

	for _, argv := range h.candidates {
		out, err := h.exec.Execute(ctx, executor.Request{
			Argv:    argv,
			Timeout: timeout,
		})
		if err != nil {
			if errors.Is(err, apperror.ErrExecution) || errors.Is(err, apperror.ErrStartFailed) {
				h.logger.Debug("discovery candidate failed",
					slog.String("command", strings.Join(argv, " ")),
					slog.String("error", err.Error()),
				)
				continue
			}
			return nil, err
		}
		return parseModules(out), nil
	}

	return nil, apperror.NotFound("python modules")
}

// parseModules extracts package names from listing output, discarding
// lines that do not carry the python prefix.
func parseModules(out string) []string {
	names := []string{}
	for _, line := range strings.Split(out, "\n") {
		if m := moduleLine.FindStringSubmatch(line); m != nil {
			names = append(names, m[1])
		}
	}
	return names
}
