// Command codr-runner serves code-execution tools over MCP, backed by a
// container runtime. The actual logic lives in the internal packages;
// main only merges configuration and starts the server.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/codr/codr-runner/internal/config"
	"github.com/codr/codr-runner/internal/doctor"
	"github.com/codr/codr-runner/internal/server"
)

var (
	flagImage      string
	flagName       string
	flagHost       string
	flagRuntime    string
	flagHTTPAddr   string
	flagAuthSecret string
	flagConfig     string
	flagVerbose    bool

	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "codr-runner",
	Short: "Codr Runner MCP server",
	Long: `codr-runner exposes remote code-execution tools (run Python, run shell
commands, list installed packages) over the Model Context Protocol,
backed by an isolated container: either a long-lived container started
on demand (--name) or a throwaway container launched per call from an
image (--rm semantics, --image).`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if flagVerbose {
			level = slog.LevelDebug
		}
		// MCP over stdio owns stdout, so logs go to stderr.
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := mergedConfig(cmd)
		if err != nil {
			return err
		}

		srv, err := server.New(cfg, logger)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return srv.Run(ctx)
	},
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check that the configured execution target is usable",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := mergedConfig(cmd)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		failed := 0
		for _, check := range doctor.Run(ctx, cfg, logger) {
			if check.OK() {
				fmt.Fprintf(cmd.OutOrStdout(), "ok   %s: %s\n", check.Name, check.Detail)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "FAIL %s: %v\n", check.Name, check.Err)
				failed++
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d check(s) failed", failed)
		}
		return nil
	},
}

var (
	flagTokenSubject string
	flagTokenTTL     time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a bearer token for the HTTP transport",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadWithFlags(cmd)
		if err != nil {
			return err
		}
		if cfg.AuthSecret == "" {
			return fmt.Errorf("an auth secret is required (--auth-secret or config file)")
		}

		token, err := server.MintToken(cfg.AuthSecret, flagTokenSubject, flagTokenTTL)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the server version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), server.Version)
	},
}

// loadWithFlags reads the optional config file and overlays every flag
// that was explicitly set.
func loadWithFlags(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return cfg, err
	}

	if cmd.Flags().Changed("image") {
		cfg.Image = flagImage
	}
	if cmd.Flags().Changed("name") {
		cfg.ContainerName = flagName
	}
	if cmd.Flags().Changed("host") {
		cfg.Host = flagHost
	}
	if cmd.Flags().Changed("runtime") {
		cfg.Runtime = flagRuntime
	}
	if cmd.Flags().Changed("http") {
		cfg.HTTPAddr = flagHTTPAddr
	}
	if cmd.Flags().Changed("auth-secret") {
		cfg.AuthSecret = flagAuthSecret
	}
	return cfg, nil
}

// mergedConfig is loadWithFlags plus validation, for the commands that
// need a usable execution target.
func mergedConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := loadWithFlags(cmd)
	if err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flagImage, "image", "i", "", "image name for an ephemeral per-call container")
	pf.StringVarP(&flagName, "name", "n", "", "name of a persistent container to exec into")
	pf.StringVar(&flagHost, "host", "", "container runtime host (exported as DOCKER_HOST)")
	pf.StringVar(&flagRuntime, "runtime", "docker", "container runtime CLI binary")
	pf.StringVar(&flagHTTPAddr, "http", "", "serve MCP over HTTP on this address instead of stdio")
	pf.StringVar(&flagAuthSecret, "auth-secret", "", "HMAC secret enabling bearer auth on the HTTP transport")
	pf.StringVar(&flagConfig, "config", "", "path to a YAML config file")
	pf.BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")

	rootCmd.MarkFlagsMutuallyExclusive("image", "name")

	tokenCmd.Flags().StringVar(&flagTokenSubject, "subject", "agent", "token subject")
	tokenCmd.Flags().DurationVar(&flagTokenTTL, "ttl", 24*time.Hour, "token lifetime")

	rootCmd.AddCommand(doctorCmd, tokenCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
