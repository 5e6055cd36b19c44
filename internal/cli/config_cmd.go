package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/rileyhilliard/tmuxmon/internal/config"
	"github.com/rileyhilliard/tmuxmon/internal/errors"
	"github.com/rileyhilliard/tmuxmon/internal/tmux"
	"github.com/rileyhilliard/tmuxmon/internal/ui"
)

var configInitForce bool

// configCmd prints the effective configuration
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	Long: `Print the configuration tmuxmon would run with: defaults, tmux options
(@tmux_resource_monitor_*), the config file and TMUXMON_* environment
variables, merged in that order.

Examples:
  tmuxmon config
  tmuxmon config path
  tmuxmon config set refresh_rate 1
  TMUXMON_CPU_MODE=aggregate tmuxmon config`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd.Context(), tmux.New())
		if err != nil {
			return err
		}
		return showConfig(cmd.OutOrStdout(), cfg)
	},
}

// configPathCmd prints where the config file is (or would be)
var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file location",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return configPath(cmd.OutOrStdout())
	},
}

// configSetCmd updates one key in the config file
var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a value in the config file",
	Long: `Write one setting to the config file, creating it if needed. Comments
and other keys are kept. Nested keys use dots; lists are comma separated.

Keys: ` + strings.Join(config.Keys(), ", ") + `

Examples:
  tmuxmon config set refresh_rate 0.5
  tmuxmon config set popup.width 90%
  tmuxmon config set clipboard.backends osc52,xclip`,
	Args: cobra.ExactArgs(2),
	ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) == 0 {
			return config.Keys(), cobra.ShellCompDirectiveNoFileComp
		}
		return nil, cobra.ShellCompDirectiveNoFileComp
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return configSet(cmd.OutOrStdout(), args[0], args[1])
	},
}

// configInitCmd writes a config file with the defaults
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with the defaults",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		interactive := term.IsTerminal(int(os.Stdin.Fd()))
		return configInit(cmd.OutOrStdout(), configInitForce, interactive)
	},
}

func init() {
	configInitCmd.Flags().BoolVarP(&configInitForce, "force", "f", false, "overwrite an existing config file")

	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}

func showConfig(w io.Writer, cfg *config.Config) error {
	data, err := config.Marshal(cfg)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, "Failed to render config", "")
	}
	_, err = w.Write(data)
	return err
}

// targetPath is the file config set and config init write to.
func targetPath() (string, error) {
	if cfgFile != "" {
		return cfgFile, nil
	}
	path, err := config.Find("")
	if err != nil {
		return "", err
	}
	if path == "" {
		path = config.DefaultPath()
	}
	return path, nil
}

func configPath(w io.Writer) error {
	path, err := config.Find(cfgFile)
	if err != nil {
		return err
	}
	if path == "" {
		fmt.Fprintf(w, "%s (not created yet)\n", config.DefaultPath())
		return nil
	}
	fmt.Fprintln(w, path)
	return nil
}

func configSet(w io.Writer, key, value string) error {
	path, err := targetPath()
	if err != nil {
		return err
	}
	if err := config.SetValue(path, key, value); err != nil {
		if errors.IsCode(err, errors.ErrConfig) {
			return err
		}
		return errors.WrapWithCode(err, errors.ErrConfig,
			fmt.Sprintf("Cannot set %s", key),
			"Valid keys: "+strings.Join(config.Keys(), ", "))
	}
	fmt.Fprintln(w, ui.Success(fmt.Sprintf("Set %s = %s in %s", key, value, path)))
	return nil
}

// confirmOverwrite asks before replacing an existing file. Replaced in tests.
var confirmOverwrite = func(path string) (bool, error) {
	var overwrite bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Config file '%s' already exists. Overwrite?", path)).
				Value(&overwrite),
		),
	)
	if err := form.Run(); err != nil {
		return false, err
	}
	return overwrite, nil
}

func configInit(w io.Writer, force, interactive bool) error {
	path, err := targetPath()
	if err != nil {
		return err
	}

	if _, err := os.Stat(path); err == nil && !force {
		if !interactive {
			return errors.New(errors.ErrConfig,
				fmt.Sprintf("Config file already exists: %s", path),
				"Use --force to overwrite")
		}
		overwrite, err := confirmOverwrite(path)
		if err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				"Failed to get user input",
				"Try running with --force to overwrite")
		}
		if !overwrite {
			fmt.Fprintln(w, "Cancelled.")
			return nil
		}
	}

	data, err := config.Marshal(config.DefaultConfig())
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, "Failed to render config", "")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, "Cannot create config directory", "Check permissions on "+filepath.Dir(path))
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, "Cannot write "+path, "Check file permissions")
	}
	fmt.Fprintln(w, ui.Success("Wrote "+path))
	return nil
}
