// Package server wires the execution bridge and tool handlers into an
// MCP server and runs it over stdio or streamable HTTP. This is the
// composition root: main only builds a config and calls New/Run.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/codr/codr-runner/internal/auth"
	"github.com/codr/codr-runner/internal/config"
	"github.com/codr/codr-runner/internal/executor"
	"github.com/codr/codr-runner/internal/middleware"
	"github.com/codr/codr-runner/internal/tools"
)

// Version is the server version reported during the MCP handshake.
const Version = "0.2.0"

// Server hosts the MCP tool surface.
type Server struct {
	cfg    config.Config
	mcp    *mcp.Server
	tokens *auth.TokenService
	logger *slog.Logger
}

// New assembles the dependency chain: bridge, tool handlers, MCP server,
// and (for the HTTP transport) the token service. cfg must already be
// validated.
func New(cfg config.Config, logger *slog.Logger) (*Server, error) {
	candidates, err := cfg.Candidates()
	if err != nil {
		return nil, err
	}

	bridge := executor.NewBridge(executor.Options{
		Target: executor.Target{
			Name:  cfg.ContainerName,
			Image: cfg.Image,
		},
		Runtime: cfg.Runtime,
		Host:    cfg.Host,
	}, nil, logger)

	handler := tools.NewHandler(bridge, tools.Options{
		ExecTimeout:    cfg.ExecTimeout,
		ModulesTimeout: cfg.ModulesTimeout,
		Candidates:     candidates,
	}, logger)

	s := &Server{
		cfg:    cfg,
		mcp:    newMCPServer(handler),
		logger: logger,
	}

	if cfg.HTTPAddr != "" && cfg.AuthSecret != "" {
		tokens, err := auth.NewTokenService(cfg.AuthSecret)
		if err != nil {
			return nil, err
		}
		s.tokens = tokens
	}

	return s, nil
}

// newMCPServer registers the three tools. Descriptions are part of the
// agent-facing contract: get_python_modules is documented as a
// best-effort heuristic so callers do not treat it as exhaustive.
func newMCPServer(handler *tools.Handler) *mcp.Server {
	srv := mcp.NewServer(&mcp.Implementation{
		Name:    "codr-runner",
		Version: Version,
	}, nil)

	mcp.AddTool(srv, &mcp.Tool{
		Name: "python_execute",
		Description: "Execute Python code in a container environment. " +
			"You will get results from stdout. " +
			"Supports most Python standard library and scientific packages.",
	}, handler.PythonExecuteTool)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "bash_execute",
		Description: "Execute bash code in a container environment.",
	}, handler.BashExecuteTool)

	mcp.AddTool(srv, &mcp.Tool{
		Name: "get_python_modules",
		Description: "List the available third-party Python modules. " +
			"Best-effort: names come from the container's package manager, " +
			"not from an exhaustive import scan.",
	}, handler.PythonModulesTool)

	return srv
}

// MintToken creates a bearer token for the HTTP transport. Used by the
// token subcommand so operators can hand credentials to callers.
func MintToken(secret, subject string, ttl time.Duration) (string, error) {
	tokens, err := auth.NewTokenService(secret)
	if err != nil {
		return "", err
	}
	return tokens.Generate(subject, ttl)
}

// Run serves MCP until ctx is canceled: over streamable HTTP when an
// address is configured, over stdio otherwise.
func (s *Server) Run(ctx context.Context) error {
	if s.cfg.HTTPAddr != "" {
		return s.runHTTP(ctx)
	}

	s.logger.Info("serving MCP over stdio")
	return s.mcp.Run(ctx, &mcp.StdioTransport{})
}

// Router builds the HTTP transport router. Exposed for tests.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.Logger(s.logger))

	streamable := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.mcp
	}, nil)

	if s.tokens != nil {
		r.With(auth.RequireAuth(s.tokens)).Handle("/mcp", streamable)
	} else {
		r.Handle("/mcp", streamable)
	}
	return r
}

func (s *Server) runHTTP(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.HTTPAddr,
		Handler: s.Router(),
		// No write timeout: a tool call legitimately holds the response
		// open for up to the exec timeout.
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("serving MCP over HTTP",
			slog.String("addr", s.cfg.HTTPAddr),
			slog.Bool("auth", s.tokens != nil),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil

	case <-ctx.Done():
		s.logger.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
		return nil
	}
}
