package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rileyhilliard/tmuxmon/internal/aggregate"
	"github.com/rileyhilliard/tmuxmon/internal/errors"
	"github.com/rileyhilliard/tmuxmon/internal/ui"
	"github.com/rileyhilliard/tmuxmon/internal/util"
)

// SessionEnv names a session to monitor when no argument is given.
const SessionEnv = "TMUX_SESSION_NAME"

// listSampleGap separates the two samples --list-sessions takes so CPU has
// something to measure against.
var listSampleGap = 500 * time.Millisecond

// pickSession shows the interactive picker. Replaced in tests.
var pickSession = ui.PickSession

// resolveSession picks the session to monitor: arg, then TMUX_SESSION_NAME,
// then the session we are running inside. Failing those, a lone session is
// used as-is and several are offered in the picker when interactive is set.
// An empty result with a nil error means the picker was cancelled.
func resolveSession(ctx context.Context, arg string, deps monitorDeps, interactive bool) (string, error) {
	groups, err := deps.tmux.Sessions(ctx)
	if err != nil {
		return "", err
	}
	names := make([]string, len(groups))
	for i, g := range groups {
		names[i] = g.ID
	}
	if len(names) == 0 {
		return "", errors.New(errors.ErrTmux,
			"No tmux sessions are running",
			"Start one with 'tmux new -s work' and run tmuxmon again.")
	}

	requested := arg
	if requested == "" {
		requested = os.Getenv(SessionEnv)
	}
	if requested == "" {
		current, err := deps.tmux.CurrentSession(ctx)
		if err != nil {
			deps.log.Debug("current session: %v", err)
		}
		requested = current
	}

	if requested != "" {
		for _, name := range names {
			if name == requested {
				return name, nil
			}
		}
		return "", errors.New(errors.ErrTmux,
			fmt.Sprintf("Session '%s' not found", requested),
			"Running sessions: "+util.JoinOrNone(names))
	}

	if len(names) == 1 {
		return names[0], nil
	}
	if !interactive {
		return "", errors.New(errors.ErrTmux,
			fmt.Sprintf("Not inside tmux and %d sessions are running", len(names)),
			"Name one: tmuxmon <session>. Running sessions: "+util.JoinOrNone(names))
	}

	infos, err := sessionInfos(ctx, deps, groups, 1)
	if err != nil {
		return "", err
	}
	picked, err := pickSession(infos)
	if err != nil || picked == nil {
		return "", err
	}
	return picked.Name, nil
}

// sessionInfos samples groups and describes each session. With more than
// one sample the CPU figures cover the gap between the last two.
func sessionInfos(ctx context.Context, deps monitorDeps, groups []aggregate.Group, samples int) ([]ui.SessionInfo, error) {
	overview := aggregate.NewOverview(deps.aggregator)

	var snap *aggregate.Snapshot
	for i := 0; i < samples; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(listSampleGap):
			}
		}
		var err error
		snap, err = overview.Aggregate(ctx, groups)
		if err != nil {
			return nil, err
		}
	}

	current, _ := deps.tmux.CurrentSession(ctx)

	infos := make([]ui.SessionInfo, 0, len(snap.Groups))
	for _, g := range snap.Groups {
		infos = append(infos, ui.SessionInfo{
			Name:        g.ID,
			Windows:     g.Windows,
			Processes:   g.Totals.Processes,
			CPUPercent:  g.Totals.CPUPercent,
			MemoryBytes: g.Totals.MemoryBytes,
			Attached:    g.ID == current,
		})
	}
	return infos, nil
}

// listSessions prints every session with its usage.
func listSessions(ctx context.Context, w io.Writer, deps monitorDeps) error {
	groups, err := deps.tmux.Sessions(ctx)
	if err != nil {
		return err
	}
	infos, err := sessionInfos(ctx, deps, groups, 2)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, ui.RenderSessionTable(infos))
	return nil
}
