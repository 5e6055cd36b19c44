package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/rileyhilliard/tmuxmon/internal/config"
	tmerrors "github.com/rileyhilliard/tmuxmon/internal/errors"
	"github.com/rileyhilliard/tmuxmon/internal/tmux"
	"github.com/rileyhilliard/tmuxmon/internal/ui"
)

// Root command flags
var (
	cfgFile          string
	windowFlag       string
	refreshRateFlag  float64
	overviewFlag     bool
	listSessionsFlag bool
)

var rootCmd = &cobra.Command{
	Use:   "tmuxmon [session]",
	Short: "CPU and memory of tmux process trees",
	Long: `Watch the CPU and memory used by every process running under a tmux
session, window by window, or compare all sessions against the machine.

The session is taken from the argument, then TMUX_SESSION_NAME, then the
session tmuxmon runs inside. Outside tmux with several sessions running,
a picker is shown.

Examples:
  tmuxmon                  # the current session
  tmuxmon work -w editor   # session "work", starting on window "editor"
  tmuxmon --overview       # all sessions
  tmuxmon --list-sessions  # print a table and exit`,
	Args:              cobra.MaximumNArgs(1),
	ValidArgsFunction: completeSessions,
	SilenceUsage:      true,
	SilenceErrors:     true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return rootCommand(ctx, cmd, args)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default $XDG_CONFIG_HOME/tmuxmon/config.yaml)")

	rootCmd.Flags().StringVarP(&windowFlag, "window", "w", "", "window to show first, by name or index")
	rootCmd.Flags().Float64VarP(&refreshRateFlag, "refresh-rate", "r", 0, "seconds between samples (default 2)")
	rootCmd.Flags().BoolVar(&overviewFlag, "overview", false, "start in the all-sessions overview")
	rootCmd.Flags().BoolVar(&listSessionsFlag, "list-sessions", false, "print sessions with their usage and exit")
	rootCmd.MarkFlagsMutuallyExclusive("overview", "list-sessions")
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, formatError(err))
		os.Exit(1)
	}
}

// formatError renders structured errors as-is and marks anything else with
// the failure symbol.
func formatError(err error) string {
	var tmErr *tmerrors.Error
	if errors.As(err, &tmErr) {
		return tmErr.Error()
	}
	return ui.SymbolFail + " " + err.Error()
}

func rootCommand(ctx context.Context, cmd *cobra.Command, args []string) error {
	client := tmux.New()

	cfg, err := loadConfig(ctx, client)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("refresh-rate") {
		cfg.RefreshRate = refreshRateFlag
	}
	if cmd.Flags().Changed("window") {
		applyWindowFlag(cfg, windowFlag, client.ShowOption(ctx, config.WindowFilterOption))
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}

	deps := newMonitorDeps(cfg, client)

	if listSessionsFlag {
		return listSessions(ctx, cmd.OutOrStdout(), deps)
	}

	session := ""
	if !overviewFlag {
		interactive := term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
		session, err = resolveSession(ctx, sessionArg(args), deps, interactive)
		if err != nil {
			return err
		}
		if session == "" {
			// picker cancelled
			return nil
		}
	}

	return runMonitor(ctx, cfg, deps, session)
}

// loadConfig finds and loads the config file with tmux user options
// underneath it.
func loadConfig(ctx context.Context, client *tmux.Client) (*config.Config, error) {
	path, err := config.Find(cfgFile)
	if err != nil {
		return nil, err
	}
	return config.Load(path, config.WithTmuxOptions(func(name string) string {
		return client.ShowOption(ctx, name)
	}))
}

// applyWindowFlag sets the -w window unless one is pinned with the sticky
// tmux option, which wins.
func applyWindowFlag(cfg *config.Config, flag, sticky string) {
	if sticky != "" {
		return
	}
	cfg.WindowFilter = flag
}

func sessionArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return ""
}

// completeSessions offers running session names for the positional argument.
func completeSessions(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	names, err := tmux.New().ListSessions(cmd.Context())
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}
