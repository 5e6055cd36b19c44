package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"

	"github.com/rileyhilliard/tmuxmon/internal/errors"
)

const (
	// ConfigDirName is the directory under the XDG config home.
	ConfigDirName = "tmuxmon"
	// ConfigFileName is the config file name.
	ConfigFileName = "config.yaml"
	// EnvPrefix prefixes environment overrides, e.g. TMUXMON_REFRESH_RATE.
	EnvPrefix = "TMUXMON"
)

// WindowFilterOption is the sticky tmux option pinning the window to open.
const WindowFilterOption = "tmux_resource_monitor_window_filter"

// TmuxOptions maps tmux user options (without the leading @) to config keys.
// They are read from the running server and sit below the config file and
// environment in precedence.
var TmuxOptions = map[string]string{
	"tmux_resource_monitor_refresh_rate": "refresh_rate",
	WindowFilterOption:                   "window_filter",
	"tmux_resource_monitor_width":        "popup.width",
	"tmux_resource_monitor_height":       "popup.height",
}

// OptionLookup returns the value of a tmux user option, or "" when unset.
type OptionLookup func(name string) string

// LoadOption customizes Load.
type LoadOption func(*loadContext)

type loadContext struct {
	tmux OptionLookup
}

// WithTmuxOptions reads TmuxOptions through lookup.
func WithTmuxOptions(lookup OptionLookup) LoadOption {
	return func(c *loadContext) {
		c.tmux = lookup
	}
}

// Load builds the config from defaults, tmux options, the file at path and
// TMUXMON_* environment variables, in increasing precedence. An empty path
// skips the file.
func Load(path string, opts ...LoadOption) (*Config, error) {
	lc := &loadContext{}
	for _, opt := range opts {
		opt(lc)
	}

	v := viper.New()
	setDefaults(v)
	if lc.tmux != nil {
		applyTmuxOptions(v, lc.tmux)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			if os.IsNotExist(err) {
				return nil, errors.WrapWithCode(err, errors.ErrConfig,
					"Config file not found",
					"Run 'tmuxmon config path' to see where tmuxmon looks, or specify one with --config")
			}
			return nil, errors.WrapWithCode(err, errors.ErrConfig,
				"Failed to read config file",
				"Check the file exists and is valid YAML")
		}
	}

	return parseConfig(v, path)
}

// Find locates the config file using the search order:
// 1. Explicit path (from --config flag)
// 2. $XDG_CONFIG_HOME/tmuxmon/config.yaml
// 3. ~/.config/tmuxmon/config.yaml
//
// Returns the path to the config file, or empty string if not found.
func Find(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			if os.IsNotExist(err) {
				return "", errors.WrapWithCode(err, errors.ErrConfig,
					"Specified config file not found: "+explicit,
					"Check the path is correct")
			}
			return "", errors.WrapWithCode(err, errors.ErrConfig,
				"Cannot access config file: "+explicit,
				"Check file permissions")
		}
		return explicit, nil
	}

	for _, candidate := range searchPaths() {
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", nil
}

// DefaultPath is where a new config file is written.
func DefaultPath() string {
	paths := searchPaths()
	if len(paths) == 0 {
		return ConfigFileName
	}
	return paths[0]
}

func searchPaths() []string {
	var paths []string
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		paths = append(paths, filepath.Join(xdg, ConfigDirName, ConfigFileName))
	}
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		p := filepath.Join(home, ".config", ConfigDirName, ConfigFileName)
		if len(paths) == 0 || paths[0] != p {
			paths = append(paths, p)
		}
	}
	return paths
}

// parseConfig converts viper config to our Config struct with defaults merged in.
func parseConfig(v *viper.Viper, path string) (*Config, error) {
	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		where := "your environment"
		if path != "" {
			where = path
		}
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Invalid config format",
			"Check the values in "+where)
	}
	return cfg, nil
}

// setDefaults registers every key so environment overrides are picked up
// by Unmarshal.
func setDefaults(v *viper.Viper) {
	def := DefaultConfig()
	v.SetDefault("version", def.Version)
	v.SetDefault("refresh_rate", def.RefreshRate)
	v.SetDefault("window_filter", def.WindowFilter)
	v.SetDefault("cpu_mode", def.CPUMode)
	v.SetDefault("confirm_kill", def.ConfirmKill)
	v.SetDefault("action_timeout", def.ActionTimeout)
	v.SetDefault("popup.width", def.Popup.Width)
	v.SetDefault("popup.height", def.Popup.Height)
	v.SetDefault("clipboard.backends", def.Clipboard.Backends)
	v.SetDefault("clipboard.timeout", def.Clipboard.Timeout)
}

// applyTmuxOptions replaces defaults with values set as tmux user options.
// Unparseable refresh rates are ignored.
func applyTmuxOptions(v *viper.Viper, lookup OptionLookup) {
	for option, key := range TmuxOptions {
		value := strings.TrimSpace(lookup(option))
		if value == "" {
			continue
		}
		if key == "refresh_rate" {
			rate, err := strconv.ParseFloat(value, 64)
			if err != nil {
				continue
			}
			v.SetDefault(key, rate)
			continue
		}
		v.SetDefault(key, value)
	}
}
