// Package doctor runs pre-serve diagnostics against the container
// runtime. It talks to the Docker API directly rather than shelling out,
// so it can report daemon reachability separately from target existence.
// It never creates, pulls, or starts anything.
package doctor

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/docker/docker/client"

	"github.com/codr/codr-runner/internal/config"
)

// Check is the outcome of one diagnostic.
type Check struct {
	Name   string
	Detail string
	Err    error
}

// OK reports whether the check passed.
func (c Check) OK() bool {
	return c.Err == nil
}

// Run executes the diagnostics appropriate for cfg: daemon ping, then
// container inspection for a persistent target or image inspection for an
// ephemeral one. The returned slice is in execution order; a failed ping
// short-circuits the rest.
func Run(ctx context.Context, cfg config.Config, logger *slog.Logger) []Check {
	opts := []client.Opt{client.FromEnv, client.WithAPIVersionNegotiation()}
	if cfg.Host != "" {
		opts = append(opts, client.WithHost(cfg.Host))
	}

	cli, err := client.NewClientWithOpts(opts...)
	if err != nil {
		return []Check{{Name: "client", Err: fmt.Errorf("creating docker client: %w", err)}}
	}
	defer cli.Close()

	checks := []Check{pingCheck(ctx, cli)}
	if !checks[0].OK() {
		return checks
	}

	if cfg.ContainerName != "" {
		checks = append(checks, containerCheck(ctx, cli, cfg.ContainerName))
	} else if cfg.Image != "" {
		checks = append(checks, imageCheck(ctx, cli, cfg.Image))
	}

	for _, c := range checks {
		if c.OK() {
			logger.Debug("check passed", slog.String("check", c.Name), slog.String("detail", c.Detail))
		} else {
			logger.Warn("check failed", slog.String("check", c.Name), slog.String("error", c.Err.Error()))
		}
	}
	return checks
}

func pingCheck(ctx context.Context, cli *client.Client) Check {
	ping, err := cli.Ping(ctx)
	if err != nil {
		return Check{Name: "daemon", Err: fmt.Errorf("pinging daemon: %w", err)}
	}
	return Check{Name: "daemon", Detail: fmt.Sprintf("API version %s", ping.APIVersion)}
}

func containerCheck(ctx context.Context, cli *client.Client, name string) Check {
	inspect, err := cli.ContainerInspect(ctx, name)
	if err != nil {
		return Check{Name: "container", Err: fmt.Errorf("inspecting container %q: %w", name, err)}
	}

	detail := "exists, stopped (will be started on first call)"
	if inspect.State != nil && inspect.State.Running {
		detail = "exists, running"
	}
	return Check{Name: "container", Detail: detail}
}

func imageCheck(ctx context.Context, cli *client.Client, name string) Check {
	if _, err := cli.ImageInspect(ctx, name); err != nil {
		return Check{Name: "image", Err: fmt.Errorf("inspecting image %q: %w", name, err)}
	}
	return Check{Name: "image", Detail: "present locally"}
}
