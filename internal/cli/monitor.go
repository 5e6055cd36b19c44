package cli

import (
	"context"
	"io"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/rileyhilliard/tmuxmon/internal/actions"
	"github.com/rileyhilliard/tmuxmon/internal/aggregate"
	"github.com/rileyhilliard/tmuxmon/internal/config"
	"github.com/rileyhilliard/tmuxmon/internal/errors"
	"github.com/rileyhilliard/tmuxmon/internal/logger"
	"github.com/rileyhilliard/tmuxmon/internal/monitor"
	"github.com/rileyhilliard/tmuxmon/internal/proctree"
	"github.com/rileyhilliard/tmuxmon/internal/tmux"
	"github.com/rileyhilliard/tmuxmon/internal/ui"
)

// sessionSource is the part of the tmux client the CLI needs.
type sessionSource interface {
	tmux.Resolver
	CurrentSession(ctx context.Context) (string, error)
}

// monitorDeps are the collaborators wired from config.
type monitorDeps struct {
	tmux       sessionSource
	aggregator *aggregate.Aggregator
	executor   monitor.Executor
	log        logger.Logger
	// out is the terminal shared by the renderer and OSC 52 copies.
	out        *ui.SyncOutput
}

func newMonitorDeps(cfg *config.Config, client sessionSource) monitorDeps {
	sampler := proctree.NewSampler(proctree.NewSystemSource(),
		proctree.WithCPUMode(proctree.CPUMode(cfg.CPUMode)),
		proctree.WithLogger(logger.NewEnvLogger("[sampler]")),
	)
	agg := aggregate.New(sampler,
		aggregate.WithSystemSource(aggregate.NewHostSource()),
		aggregate.WithLogger(logger.NewEnvLogger("[aggregate]")),
	)

	out := ui.NewSyncOutput(os.Stdout)

	// Names were checked by config.Validate.
	backends, _ := actions.BackendsForTerminal(cfg.Clipboard.Backends, out)
	exec := actions.NewExecutor(
		actions.WithBackends(backends...),
		actions.WithClipboardTimeout(cfg.Clipboard.Timeout),
		actions.WithLogger(logger.NewEnvLogger("[actions]")),
	)

	return monitorDeps{
		tmux:       client,
		aggregator: agg,
		executor:   exec,
		log:        logger.Default(),
		out:        out,
	}
}

// runMonitor runs the dashboard until the user quits or ctx is cancelled.
// An empty session opens the all-sessions overview.
func runMonitor(ctx context.Context, cfg *config.Config, deps monitorDeps, session string) error {
	if logger.DebugEnabled() {
		f, err := tea.LogToFile(logger.DebugLogFile, "tmuxmon")
		if err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				"Cannot open debug log "+logger.DebugLogFile,
				"Run from a writable directory or unset "+logger.DebugEnv)
		}
		defer f.Close()
	} else {
		// The screen belongs to Bubble Tea.
		log.SetOutput(io.Discard)
	}

	model := monitor.NewModel(monitor.Deps{
		Resolver:   deps.tmux,
		Aggregator: deps.aggregator,
		Executor:   deps.executor,
		Logger:     logger.NewEnvLogger("[monitor]"),
	}, monitor.Options{
		Session:       session,
		Interval:      cfg.Interval(),
		ConfirmKill:   cfg.ConfirmKill,
		WindowFilter:  cfg.WindowFilter,
		ActionTimeout: cfg.ActionTimeout,
	})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go model.Scheduler().Run(ctx)

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx), tea.WithOutput(deps.out))
	_, err := p.Run()
	if err != nil && ctx.Err() != nil {
		// Interrupted by a signal; not a failure.
		return nil
	}
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrExec, "Monitor stopped unexpectedly", "Run with "+logger.DebugEnv+"=1 and check "+logger.DebugLogFile)
	}
	return nil
}
