package config

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/rileyhilliard/tmuxmon/internal/actions"
	"github.com/rileyhilliard/tmuxmon/internal/errors"
	"github.com/rileyhilliard/tmuxmon/internal/proctree"
)

// Validate checks the config for errors and returns structured error messages.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New(errors.ErrConfig,
			"Config is nil",
			"This is unexpected - try reloading the configuration.")
	}

	if cfg.Version > CurrentConfigVersion {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("This config is from the future (version %d, but tmuxmon only knows up to %d)", cfg.Version, CurrentConfigVersion),
			"Upgrade tmuxmon or remove the version key.")
	}

	if math.IsNaN(cfg.RefreshRate) || math.IsInf(cfg.RefreshRate, 0) {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("refresh_rate must be a number of seconds (got %g)", cfg.RefreshRate),
			"Set refresh_rate to something like 1 or 2.")
	}

	if cfg.RefreshRate < MinRefreshRate {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("refresh_rate must be at least %.1f seconds (got %g)", MinRefreshRate, cfg.RefreshRate),
			"Set refresh_rate to something like 1 or 2.")
	}

	if err := validateCPUMode(cfg.CPUMode); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, err.Error(), "Use 'per-core' or 'aggregate'.")
	}

	if cfg.ActionTimeout <= 0 {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("action_timeout must be positive (got %s)", cfg.ActionTimeout),
			"Use a duration like '2s'.")
	}

	if err := validateClipboard(cfg.Clipboard); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, err.Error(), "Check the 'clipboard' section in your config.")
	}

	if err := validatePopup(cfg.Popup); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, err.Error(), "Use a cell count like '120' or a percentage like '80%'.")
	}

	return nil
}

func validateCPUMode(mode string) error {
	switch proctree.CPUMode(mode) {
	case proctree.CPUPerCore, proctree.CPUAggregate:
		return nil
	}
	return fmt.Errorf("cpu_mode '%s' isn't valid", mode)
}

func validateClipboard(c ClipboardConfig) error {
	if c.Timeout <= 0 {
		return fmt.Errorf("clipboard.timeout must be positive (got %s)", c.Timeout)
	}
	if len(c.Backends) == 0 {
		return fmt.Errorf("clipboard.backends is empty")
	}
	if _, err := actions.BackendsByName(c.Backends); err != nil {
		return err
	}
	return nil
}

func validatePopup(p PopupConfig) error {
	for _, dim := range []struct{ name, value string }{
		{"popup.width", p.Width},
		{"popup.height", p.Height},
	} {
		if err := validateDimension(dim.value); err != nil {
			return fmt.Errorf("%s: %w", dim.name, err)
		}
	}
	return nil
}

// validateDimension accepts what tmux display-popup accepts: a cell count
// or a percentage.
func validateDimension(s string) error {
	if s == "" {
		return nil
	}
	num := strings.TrimSuffix(s, "%")
	n, err := strconv.Atoi(num)
	if err != nil || n <= 0 {
		return fmt.Errorf("'%s' isn't a size", s)
	}
	if num != s && n > 100 {
		return fmt.Errorf("'%s' is more than 100%%", s)
	}
	return nil
}
