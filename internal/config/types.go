package config

import (
	"time"

	"github.com/rileyhilliard/tmuxmon/internal/actions"
	"github.com/rileyhilliard/tmuxmon/internal/proctree"
)

// CurrentConfigVersion is the schema version for the config file.
// Increment when making breaking changes to the config structure.
const CurrentConfigVersion = 1

// MinRefreshRate is the shortest refresh interval accepted, in seconds.
const MinRefreshRate = 0.1

// Config represents the complete tmuxmon configuration.
type Config struct {
	Version int `yaml:"version" mapstructure:"version"`

	// RefreshRate is the sampling interval in seconds.
	RefreshRate float64 `yaml:"refresh_rate" mapstructure:"refresh_rate"`

	// WindowFilter picks the window shown first, by name or index.
	WindowFilter string `yaml:"window_filter" mapstructure:"window_filter"`

	// CPUMode is "per-core" (100% per busy core) or "aggregate" (100% is the machine).
	CPUMode string `yaml:"cpu_mode" mapstructure:"cpu_mode"`

	// ConfirmKill asks before x sends SIGTERM.
	ConfirmKill bool `yaml:"confirm_kill" mapstructure:"confirm_kill"`

	// ActionTimeout bounds signal delivery and clipboard copies.
	ActionTimeout time.Duration `yaml:"action_timeout" mapstructure:"action_timeout"`

	Popup     PopupConfig     `yaml:"popup" mapstructure:"popup"`
	Clipboard ClipboardConfig `yaml:"clipboard" mapstructure:"clipboard"`
}

// PopupConfig sizes the tmux popup the monitor is usually launched in.
// tmuxmon itself only carries these values for the key binding that opens it.
type PopupConfig struct {
	Width  string `yaml:"width" mapstructure:"width"`
	Height string `yaml:"height" mapstructure:"height"`
}

// ClipboardConfig controls how y and Y copy text.
type ClipboardConfig struct {
	// Backends are tried in order; the first one that works wins.
	Backends []string      `yaml:"backends" mapstructure:"backends"`
	Timeout  time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Version:       CurrentConfigVersion,
		RefreshRate:   2.0,
		CPUMode:       string(proctree.CPUPerCore),
		ActionTimeout: 2 * time.Second,
		Popup: PopupConfig{
			Width:  "80%",
			Height: "40%",
		},
		Clipboard: ClipboardConfig{
			Backends: append([]string(nil), actions.DefaultBackendNames...),
			Timeout:  actions.DefaultClipboardTimeout,
		},
	}
}

// Interval returns RefreshRate as a duration.
func (c *Config) Interval() time.Duration {
	return time.Duration(c.RefreshRate * float64(time.Second))
}
