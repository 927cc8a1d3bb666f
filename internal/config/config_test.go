package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codr/codr-runner/internal/config"
)

func TestDefault(t *testing.T) {
	cfg := config.Default()
	assert.Equal(t, "docker", cfg.Runtime)
	assert.Equal(t, 300*time.Second, cfg.ExecTimeout)
	assert.Equal(t, 15*time.Second, cfg.ModulesTimeout)
	assert.NotEmpty(t, cfg.DiscoveryCommands)
}

func TestLoad(t *testing.T) {
	t.Run("empty path returns defaults", func(t *testing.T) {
		cfg, err := config.Load("")
		require.NoError(t, err)
		assert.Equal(t, config.Default(), cfg)
	})

	t.Run("file overlays defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "codr.yaml")
		data := "image: kali-code-runner\nruntime: podman\nexec_timeout: 60s\n"
		require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

		cfg, err := config.Load(path)
		require.NoError(t, err)
		assert.Equal(t, "kali-code-runner", cfg.Image)
		assert.Equal(t, "podman", cfg.Runtime)
		assert.Equal(t, 60*time.Second, cfg.ExecTimeout)
		// Untouched fields keep their defaults.
		assert.Equal(t, 15*time.Second, cfg.ModulesTimeout)
	})

	t.Run("missing file is an error", func(t *testing.T) {
		_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	t.Run("neither name nor image", func(t *testing.T) {
		cfg := config.Default()
		err := cfg.Validate()
		assert.ErrorContains(t, err, "image or container")
	})

	t.Run("name wins over image when both set", func(t *testing.T) {
		cfg := config.Default()
		cfg.ContainerName = "abc123"
		cfg.Image = "py"
		require.NoError(t, cfg.Validate())
		assert.Equal(t, "abc123", cfg.ContainerName)
		assert.Empty(t, cfg.Image)
	})

	t.Run("image alone is valid", func(t *testing.T) {
		cfg := config.Default()
		cfg.Image = "py"
		assert.NoError(t, cfg.Validate())
	})

	t.Run("nonpositive timeouts rejected", func(t *testing.T) {
		cfg := config.Default()
		cfg.Image = "py"
		cfg.ExecTimeout = 0
		assert.Error(t, cfg.Validate())
	})
}

func TestCandidates(t *testing.T) {
	t.Run("splits shell-style words", func(t *testing.T) {
		cfg := config.Default()
		got, err := cfg.Candidates()
		require.NoError(t, err)
		assert.Equal(t, [][]string{
			{"apt-mark", "showmanual", "python3-*"},
			{"pacman", "-Qe"},
		}, got)
	})

	t.Run("quoted arguments survive splitting", func(t *testing.T) {
		cfg := config.Default()
		cfg.DiscoveryCommands = []string{`sh -c "pip list --format=freeze"`}
		got, err := cfg.Candidates()
		require.NoError(t, err)
		assert.Equal(t, [][]string{{"sh", "-c", "pip list --format=freeze"}}, got)
	})

	t.Run("unterminated quote is an error", func(t *testing.T) {
		cfg := config.Default()
		cfg.DiscoveryCommands = []string{`pacman "-Qe`}
		_, err := cfg.Candidates()
		assert.Error(t, err)
	})
}
