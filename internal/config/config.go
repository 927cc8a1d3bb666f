// Package config holds the process-wide startup configuration. It is
// assembled once in main from defaults, an optional YAML file, and CLI
// flags, then passed by value into the components that need it; nothing
// mutates it after startup.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/shlex"
	"gopkg.in/yaml.v3"
)

// Config is the startup configuration for the server.
type Config struct {
	// ContainerName selects a persistent container target. Mutually
	// exclusive with Image; ContainerName wins if both are supplied.
	ContainerName string `yaml:"container"`
	// Image selects an ephemeral per-call container target.
	Image string `yaml:"image"`
	// Runtime is the container runtime CLI binary.
	Runtime string `yaml:"runtime"`
	// Host overrides DOCKER_HOST for every runtime invocation.
	Host string `yaml:"host"`
	// HTTPAddr, when set, serves MCP over streamable HTTP instead of
	// stdio. Example: ":8080".
	HTTPAddr string `yaml:"http_addr"`
	// AuthSecret enables bearer-token auth on the HTTP transport. It is
	// the HMAC secret used to sign and verify tokens.
	AuthSecret string `yaml:"auth_secret"`
	// ExecTimeout is the default deadline for python_execute and
	// bash_execute when the caller does not supply one.
	ExecTimeout time.Duration `yaml:"exec_timeout"`
	// ModulesTimeout is the default per-candidate deadline for
	// get_python_modules.
	ModulesTimeout time.Duration `yaml:"modules_timeout"`
	// DiscoveryCommands are the package-listing commands tried in order
	// by get_python_modules, as shell-style strings.
	DiscoveryCommands []string `yaml:"discovery_commands"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Runtime:        "docker",
		ExecTimeout:    300 * time.Second,
		ModulesTimeout: 15 * time.Second,
		DiscoveryCommands: []string{
			"apt-mark showmanual python3-*",
			"pacman -Qe",
		},
	}
}

// Load reads a YAML config file over the defaults. An empty path returns
// the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the merged configuration and normalizes the target
// selection: a container name takes precedence over an image when both
// are present, and at least one of them must be set.
func (c *Config) Validate() error {
	if c.ContainerName == "" && c.Image == "" {
		return errors.New("config: must set up an image or container")
	}
	if c.ContainerName != "" {
		c.Image = ""
	}
	if c.Runtime == "" {
		c.Runtime = "docker"
	}
	if c.ExecTimeout <= 0 {
		return errors.New("config: exec_timeout must be positive")
	}
	if c.ModulesTimeout <= 0 {
		return errors.New("config: modules_timeout must be positive")
	}
	return nil
}

// Candidates parses DiscoveryCommands into argv vectors with shell-style
// word splitting, so config files can carry quoted arguments.
func (c *Config) Candidates() ([][]string, error) {
	candidates := make([][]string, 0, len(c.DiscoveryCommands))
	for _, raw := range c.DiscoveryCommands {
		argv, err := shlex.Split(raw)
		if err != nil {
			return nil, fmt.Errorf("config: parsing discovery command %q: %w", raw, err)
		}
		if len(argv) == 0 {
			continue
		}
		candidates = append(candidates, argv)
	}
	if len(candidates) == 0 {
		return nil, errors.New("config: no discovery commands configured")
	}
	return candidates, nil
}
