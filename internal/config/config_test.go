package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rileyhilliard/tmuxmon/internal/actions"
	"github.com/rileyhilliard/tmuxmon/internal/errors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, CurrentConfigVersion, cfg.Version)
	assert.Equal(t, 2.0, cfg.RefreshRate)
	assert.Equal(t, 2*time.Second, cfg.Interval())
	assert.Equal(t, "per-core", cfg.CPUMode)
	assert.False(t, cfg.ConfirmKill)
	assert.Empty(t, cfg.WindowFilter)
	assert.Equal(t, "80%", cfg.Popup.Width)
	assert.Equal(t, "40%", cfg.Popup.Height)
	assert.Equal(t, actions.DefaultBackendNames, cfg.Clipboard.Backends)
	assert.NoError(t, Validate(cfg))
}

func TestLoad_NoFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
version: 1
refresh_rate: 0.5
window_filter: editor
cpu_mode: aggregate
confirm_kill: true
action_timeout: 5s
popup:
  width: "120"
clipboard:
  backends: [osc52, xclip]
  timeout: 250ms
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 500*time.Millisecond, cfg.Interval())
	assert.Equal(t, "editor", cfg.WindowFilter)
	assert.Equal(t, "aggregate", cfg.CPUMode)
	assert.True(t, cfg.ConfirmKill)
	assert.Equal(t, 5*time.Second, cfg.ActionTimeout)
	assert.Equal(t, "120", cfg.Popup.Width)
	assert.Equal(t, "40%", cfg.Popup.Height, "unset keys keep their default")
	assert.Equal(t, []string{"osc52", "xclip"}, cfg.Clipboard.Backends)
	assert.Equal(t, 250*time.Millisecond, cfg.Clipboard.Timeout)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrConfig))
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "refresh_rate: [1, 2\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrConfig))
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "refresh_rate: 5\ncpu_mode: aggregate\n")
	t.Setenv("TMUXMON_REFRESH_RATE", "1.5")
	t.Setenv("TMUXMON_CLIPBOARD_TIMEOUT", "3s")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 1.5, cfg.RefreshRate)
	assert.Equal(t, 3*time.Second, cfg.Clipboard.Timeout)
	assert.Equal(t, "aggregate", cfg.CPUMode)
}

func TestLoad_TmuxOptions(t *testing.T) {
	options := map[string]string{
		"tmux_resource_monitor_refresh_rate":  "3",
		"tmux_resource_monitor_window_filter": "logs",
		"tmux_resource_monitor_width":         "90%",
	}
	lookup := func(name string) string { return options[name] }

	t.Run("apply over defaults", func(t *testing.T) {
		cfg, err := Load("", WithTmuxOptions(lookup))
		require.NoError(t, err)
		assert.Equal(t, 3.0, cfg.RefreshRate)
		assert.Equal(t, "logs", cfg.WindowFilter)
		assert.Equal(t, "90%", cfg.Popup.Width)
		assert.Equal(t, "40%", cfg.Popup.Height)
	})

	t.Run("file wins", func(t *testing.T) {
		path := writeConfig(t, "refresh_rate: 1\n")
		cfg, err := Load(path, WithTmuxOptions(lookup))
		require.NoError(t, err)
		assert.Equal(t, 1.0, cfg.RefreshRate)
		assert.Equal(t, "logs", cfg.WindowFilter)
	})

	t.Run("unparseable rate ignored", func(t *testing.T) {
		bad := func(name string) string {
			if name == "tmux_resource_monitor_refresh_rate" {
				return "fast"
			}
			return ""
		}
		cfg, err := Load("", WithTmuxOptions(bad))
		require.NoError(t, err)
		assert.Equal(t, 2.0, cfg.RefreshRate)
	})
}

func TestFind(t *testing.T) {
	t.Run("explicit path", func(t *testing.T) {
		path := writeConfig(t, "version: 1\n")
		found, err := Find(path)
		require.NoError(t, err)
		assert.Equal(t, path, found)
	})

	t.Run("explicit path missing", func(t *testing.T) {
		_, err := Find(filepath.Join(t.TempDir(), "missing.yaml"))
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.ErrConfig))
	})

	t.Run("xdg config home", func(t *testing.T) {
		xdg := t.TempDir()
		t.Setenv("XDG_CONFIG_HOME", xdg)
		want := filepath.Join(xdg, ConfigDirName, ConfigFileName)
		require.NoError(t, os.MkdirAll(filepath.Dir(want), 0o755))
		require.NoError(t, os.WriteFile(want, []byte("version: 1\n"), 0o644))

		found, err := Find("")
		require.NoError(t, err)
		assert.Equal(t, want, found)
		assert.Equal(t, want, DefaultPath())
	})

	t.Run("nothing found", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", t.TempDir())
		t.Setenv("HOME", t.TempDir())
		found, err := Find("")
		require.NoError(t, err)
		assert.Empty(t, found)
	})
}
