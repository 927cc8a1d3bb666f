package tools_test

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codr/codr-runner/internal/apperror"
	"github.com/codr/codr-runner/internal/executor"
	"github.com/codr/codr-runner/internal/tools"
)

// scriptedExecutor replays canned results per call and records the
// requests it saw.
type scriptedExecutor struct {
	requests []executor.Request
	results  []scriptedResult
}

type scriptedResult struct {
	out string
	err error
}

func (s *scriptedExecutor) Execute(ctx context.Context, req executor.Request) (string, error) {
	s.requests = append(s.requests, req)
	if len(s.results) == 0 {
		return "", nil
	}
	r := s.results[0]
	s.results = s.results[1:]
	return r.out, r.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newHandler(exec executor.Executor) *tools.Handler {
	return tools.NewHandler(exec, tools.Options{}, testLogger())
}

func TestExecutePython(t *testing.T) {
	t.Run("builds isolated interpreter argv", func(t *testing.T) {
		exec := &scriptedExecutor{results: []scriptedResult{{out: "2\n"}}}
		h := newHandler(exec)

		out, err := h.ExecutePython(context.Background(), "print(1+1)", nil, 16*time.Second)
		require.NoError(t, err)
		assert.Equal(t, "2\n", out)

		require.Len(t, exec.requests, 1)
		assert.Equal(t,
			[]string{"python", "-q", "-u", "-I", "-c", "print(1+1)"},
			exec.requests[0].Argv,
		)
		assert.Equal(t, 16*time.Second, exec.requests[0].Timeout)
	})

	t.Run("zero timeout falls back to default", func(t *testing.T) {
		exec := &scriptedExecutor{}
		h := newHandler(exec)

		_, err := h.ExecutePython(context.Background(), "print(1)", nil, 0)
		require.NoError(t, err)
		assert.Equal(t, 300*time.Second, exec.requests[0].Timeout)
	})

	t.Run("env is passed through", func(t *testing.T) {
		exec := &scriptedExecutor{}
		h := newHandler(exec)

		env := map[string]string{"API_KEY": "k"}
		_, err := h.ExecutePython(context.Background(), "print(1)", env, time.Second)
		require.NoError(t, err)
		assert.Equal(t, env, exec.requests[0].Env)
	})

	t.Run("bridge errors pass through verbatim", func(t *testing.T) {
		exec := &scriptedExecutor{results: []scriptedResult{{err: apperror.Timeout()}}}
		h := newHandler(exec)

		_, err := h.ExecutePython(context.Background(), "while True: pass", nil, time.Second)
		assert.ErrorIs(t, err, apperror.ErrTimeout)
	})
}

func TestExecuteBash(t *testing.T) {
	exec := &scriptedExecutor{results: []scriptedResult{{out: "hi\n"}}}
	h := newHandler(exec)

	out, err := h.ExecuteBash(context.Background(), "echo hi", nil, 16*time.Second)
	require.NoError(t, err)
	assert.Equal(t, "hi\n", out)
	assert.Equal(t, []string{"bash", "-c", "echo hi"}, exec.requests[0].Argv)
}

func TestPythonModules(t *testing.T) {
	t.Run("parses names in original order and drops non-matching lines", func(t *testing.T) {
		exec := &scriptedExecutor{results: []scriptedResult{
			{out: "python3-requests 1.0\nlibc6 2.3\npython3-numpy 1.2\n"},
		}}
		h := newHandler(exec)

		modules, err := h.PythonModules(context.Background(), 15*time.Second)
		require.NoError(t, err)
		assert.Equal(t, []string{"requests", "numpy"}, modules)
	})

	t.Run("python- prefix without 3 also matches", func(t *testing.T) {
		exec := &scriptedExecutor{results: []scriptedResult{
			{out: "python-yaml 6.0\nPYTHON3-FLASK 2.0\n"},
		}}
		h := newHandler(exec)

		modules, err := h.PythonModules(context.Background(), time.Second)
		require.NoError(t, err)
		assert.Equal(t, []string{"yaml", "FLASK"}, modules)
	})

	t.Run("falls through to next candidate on execution error", func(t *testing.T) {
		exec := &scriptedExecutor{results: []scriptedResult{
			{err: apperror.Execution("apt-mark: command not found")},
			{out: "python3-flask 2.0\n"},
		}}
		h := newHandler(exec)

		modules, err := h.PythonModules(context.Background(), time.Second)
		require.NoError(t, err)
		assert.Equal(t, []string{"flask"}, modules)

		require.Len(t, exec.requests, 2)
		assert.Equal(t, []string{"apt-mark", "showmanual", "python3-*"}, exec.requests[0].Argv)
		assert.Equal(t, []string{"pacman", "-Qe"}, exec.requests[1].Argv)
	})

	t.Run("exhausting all candidates yields not found", func(t *testing.T) {
		exec := &scriptedExecutor{results: []scriptedResult{
			{err: apperror.Execution("nope")},
			{err: apperror.StartFailed("no such container")},
		}}
		h := newHandler(exec)

		_, err := h.PythonModules(context.Background(), time.Second)
		assert.ErrorIs(t, err, apperror.ErrNotFound)
	})

	t.Run("timeout aborts the candidate loop", func(t *testing.T) {
		exec := &scriptedExecutor{results: []scriptedResult{
			{err: apperror.Timeout()},
		}}
		h := newHandler(exec)

		_, err := h.PythonModules(context.Background(), time.Second)
		assert.ErrorIs(t, err, apperror.ErrTimeout)
		assert.Len(t, exec.requests, 1)
	})

	t.Run("misconfigured target aborts the candidate loop", func(t *testing.T) {
		exec := &scriptedExecutor{results: []scriptedResult{
			{err: apperror.Misconfigured()},
		}}
		h := newHandler(exec)

		_, err := h.PythonModules(context.Background(), time.Second)
		assert.ErrorIs(t, err, apperror.ErrMisconfigured)
	})

	t.Run("successful candidate with no matching lines returns empty list", func(t *testing.T) {
		exec := &scriptedExecutor{results: []scriptedResult{
			{out: "libc6 2.3\nzlib1g 1.2\n"},
		}}
		h := newHandler(exec)

		modules, err := h.PythonModules(context.Background(), time.Second)
		require.NoError(t, err)
		assert.Empty(t, modules)
		assert.Len(t, exec.requests, 1, "a successful candidate ends the loop even with zero matches")
	})

	t.Run("custom candidates from options", func(t *testing.T) {
		exec := &scriptedExecutor{results: []scriptedResult{{out: ""}}}
		h := tools.NewHandler(exec, tools.Options{
			Candidates: [][]string{{"apk", "info"}},
		}, testLogger())

		_, err := h.PythonModules(context.Background(), time.Second)
		require.NoError(t, err)
		assert.Equal(t, []string{"apk", "info"}, exec.requests[0].Argv)
	})
}
