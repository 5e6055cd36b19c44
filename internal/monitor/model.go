package monitor

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/rileyhilliard/tmuxmon/internal/aggregate"
	tmerrors "github.com/rileyhilliard/tmuxmon/internal/errors"
	"github.com/rileyhilliard/tmuxmon/internal/logger"
	"github.com/rileyhilliard/tmuxmon/internal/tmux"
)

// Defaults for Options.
const (
	DefaultInterval      = 2 * time.Second
	DefaultActionTimeout = 2 * time.Second
	DefaultStatusTimeout = 3 * time.Second
)

// Executor performs user-triggered side effects. *actions.Executor implements it.
type Executor interface {
	SendSignal(ctx context.Context, pid int32, signum int) error
	CopyToClipboard(ctx context.Context, text string) (string, error)
}

// Deps are the collaborators a Model drives.
type Deps struct {
	Resolver   tmux.Resolver
	Aggregator *aggregate.Aggregator
	Executor   Executor
	Logger     logger.Logger
}

// Options configure a Model.
type Options struct {
	// Session to open. Empty starts in the all-sessions overview.
	Session       string
	Interval      time.Duration
	ConfirmKill   bool
	WindowFilter  string
	ActionTimeout time.Duration
	StatusTimeout time.Duration
}

// Model is the Bubble Tea model tying the scheduler, the controllers and
// the executor together.
type Model struct {
	deps     Deps
	opts     Options
	overview *aggregate.OverviewAggregator
	sched    *Scheduler
	history  *History
	log      logger.Logger

	mode    aggregate.Mode
	session string
	ctrl    *Controller
	ovr     *OverviewController

	snap      *aggregate.Snapshot
	lastErr   error
	status    string
	statusErr bool
	statusID  int

	width    int
	height   int
	quitting bool
}

// updateMsg carries a scheduler update into the event loop.
type updateMsg Update

// actionDoneMsg reports the outcome of a signal or copy.
type actionDoneMsg struct {
	status string
	err    error
}

// clearStatusMsg expires the status line set with the same id.
type clearStatusMsg struct{ id int }

// NewModel creates the model and its scheduler. The caller runs
// Scheduler().Run alongside the Bubble Tea program.
func NewModel(deps Deps, opts Options) Model {
	if deps.Logger == nil {
		deps.Logger = logger.Noop()
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.ActionTimeout <= 0 {
		opts.ActionTimeout = DefaultActionTimeout
	}
	if opts.StatusTimeout <= 0 {
		opts.StatusTimeout = DefaultStatusTimeout
	}

	m := Model{
		deps:     deps,
		opts:     opts,
		overview: aggregate.NewOverview(deps.Aggregator),
		history:  NewHistory(DefaultHistorySize),
		log:      deps.Logger,
		session:  opts.Session,
	}

	if opts.Session == "" {
		m.mode = aggregate.ModeSessions
		m.ovr = NewOverviewController("")
	} else {
		m.mode = aggregate.ModeWindows
		m.ctrl = NewController(ControllerOptions{
			ConfirmKill:  opts.ConfirmKill,
			WindowFilter: opts.WindowFilter,
		})
	}
	m.sched = NewScheduler(m.cycle(), opts.Interval, deps.Logger)
	return m
}

// Scheduler returns the scheduler feeding this model.
func (m Model) Scheduler() *Scheduler {
	return m.sched
}

// Mode reports which view is active.
func (m Model) Mode() aggregate.Mode {
	return m.mode
}

// Session returns the session being shown, empty in the overview.
func (m Model) Session() string {
	if m.mode == aggregate.ModeSessions {
		return ""
	}
	return m.session
}

// Selection returns the active controller's selection.
func (m Model) Selection() SelectionState {
	if m.mode == aggregate.ModeSessions {
		return m.ovr.Selection()
	}
	return m.ctrl.Selection()
}

// Status returns the transient status line and whether it reports a failure.
func (m Model) Status() (string, bool) {
	return m.status, m.statusErr
}

func (m Model) cycle() CycleFunc {
	if m.mode == aggregate.ModeSessions {
		return SessionsCycle(m.deps.Resolver, m.overview)
	}
	return WindowsCycle(m.deps.Resolver, m.deps.Aggregator, m.session)
}

// Init starts listening for scheduler updates.
func (m Model) Init() tea.Cmd {
	return waitForUpdate(m.sched.Updates())
}

func waitForUpdate(updates <-chan Update) tea.Cmd {
	return func() tea.Msg {
		u, ok := <-updates
		if !ok {
			return nil
		}
		return updateMsg(u)
	}
}

// Update handles messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case updateMsg:
		m.applyUpdate(Update(msg))
		return m, waitForUpdate(m.sched.Updates())

	case actionDoneMsg:
		m.sched.Trigger()
		return m, m.setStatus(msg.status, msg.err != nil)

	case clearStatusMsg:
		if msg.id == m.statusID {
			m.status = ""
			m.statusErr = false
		}
	}
	return m, nil
}

// applyUpdate installs a snapshot unless it belongs to a view the user has
// already left.
func (m *Model) applyUpdate(u Update) {
	if u.Err != nil {
		m.lastErr = u.Err
		return
	}
	snap := u.Snapshot
	if snap == nil || snap.Mode != m.mode {
		return
	}
	if m.mode == aggregate.ModeWindows && snap.Session != m.session {
		return
	}

	m.snap = snap
	m.lastErr = nil
	m.history.Push(snap)
	if m.mode == aggregate.ModeSessions {
		m.ovr.Apply(snap)
	} else {
		m.ctrl.Apply(snap)
	}
}

func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Pasted text arrives as one message; feed it through one rune at a time.
	if msg.Type == tea.KeyRunes && (msg.Paste || len(msg.Runes) > 1) {
		var cmds []tea.Cmd
		for _, r := range msg.Runes {
			cmds = append(cmds, m.handleKey(string(r)))
		}
		return m, tea.Batch(cmds...)
	}
	return m, m.handleKey(msg.String())
}

func (m *Model) handleKey(key string) tea.Cmd {
	var a Action
	if m.mode == aggregate.ModeSessions {
		a = m.ovr.HandleKey(key)
	} else {
		a = m.ctrl.HandleKey(key)
	}
	return m.perform(a)
}

// perform executes an action returned by a controller.
func (m *Model) perform(a Action) tea.Cmd {
	switch a.Kind {
	case ActionQuit:
		m.quitting = true
		return tea.Quit

	case ActionRefresh:
		m.sched.Trigger()

	case ActionSignal:
		return m.signalCmd(a.PID, a.Signal)

	case ActionCopy:
		return m.copyCmd(a.Text, a.What)

	case ActionStatus:
		return m.setStatus(tmerrors.Short(a.Err), true)

	case ActionOverview:
		m.log.Debug("switching to overview from %s", m.session)
		m.mode = aggregate.ModeSessions
		m.ovr = NewOverviewController(m.session)
		m.snap = nil
		m.lastErr = nil
		m.sched.SetCycle(m.cycle())

	case ActionDrill:
		m.log.Debug("opening session %s", a.Session)
		m.mode = aggregate.ModeWindows
		m.session = a.Session
		m.ctrl = NewController(ControllerOptions{ConfirmKill: m.opts.ConfirmKill})
		m.snap = nil
		m.lastErr = nil
		m.sched.SetCycle(m.cycle())
	}
	return nil
}

func (m *Model) signalCmd(pid int32, signum int) tea.Cmd {
	exec, timeout := m.deps.Executor, m.opts.ActionTimeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if err := exec.SendSignal(ctx, pid, signum); err != nil {
			return actionDoneMsg{
				status: fmt.Sprintf("Signal %d to PID %d failed: %s", signum, pid, tmerrors.Short(err)),
				err:    err,
			}
		}
		return actionDoneMsg{status: fmt.Sprintf("Sent signal %d to PID %d", signum, pid)}
	}
}

func (m *Model) copyCmd(text, what string) tea.Cmd {
	exec, timeout := m.deps.Executor, m.opts.ActionTimeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		backend, err := exec.CopyToClipboard(ctx, text)
		if err != nil {
			return actionDoneMsg{status: "Copy failed: " + tmerrors.Short(err), err: err}
		}
		return actionDoneMsg{status: fmt.Sprintf("Copied %s to clipboard (%s)", what, backend)}
	}
}

func (m *Model) setStatus(text string, isErr bool) tea.Cmd {
	m.statusID++
	m.status = text
	m.statusErr = isErr
	id := m.statusID
	return tea.Tick(m.opts.StatusTimeout, func(time.Time) tea.Msg {
		return clearStatusMsg{id: id}
	})
}
