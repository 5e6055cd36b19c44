package monitor

import (
	"strconv"
	"unicode"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	"github.com/rileyhilliard/tmuxmon/internal/actions"
	"github.com/rileyhilliard/tmuxmon/internal/aggregate"
	"github.com/rileyhilliard/tmuxmon/internal/proctree"
)

// Controller tuning.
const (
	ScrollStep     = 10
	DefaultSignal  = 15 // SIGTERM
	maxSignalInput = 2  // digits
)

// ControllerOptions configures a session Controller.
type ControllerOptions struct {
	// ConfirmKill asks for y/enter before x sends SIGTERM.
	ConfirmKill bool
	// WindowFilter picks the initial window by label, then by id.
	WindowFilter string
}

// Controller is the session-view state machine: window tabs, a cursor over
// the flattened process forest, and pending signal/filter input. It is
// driven by key strings and snapshots and returns actions; it performs no I/O.
type Controller struct {
	opts ControllerOptions
	sel  SelectionState
	snap *aggregate.Snapshot
	rows []proctree.Row

	groupID     string // id of the active group, for re-finding it
	selectedPID int32  // pid under the cursor, 0 when none
	filterUsed  bool   // WindowFilter consumed
}

// NewController creates a controller with no snapshot.
func NewController(opts ControllerOptions) *Controller {
	return &Controller{
		opts: opts,
		sel:  SelectionState{Cursor: NoRow},
	}
}

// Selection returns a copy of the current selection state.
func (c *Controller) Selection() SelectionState {
	return c.sel
}

// State returns the current interaction state.
func (c *Controller) State() State {
	return c.sel.State
}

// Rows returns the visible rows of the active group.
func (c *Controller) Rows() []proctree.Row {
	return c.rows
}

// ActiveGroup returns the group being shown.
func (c *Controller) ActiveGroup() (aggregate.GroupView, bool) {
	if c.snap == nil || c.sel.ActiveGroup >= len(c.snap.Groups) {
		return aggregate.GroupView{}, false
	}
	return c.snap.Groups[c.sel.ActiveGroup], true
}

// Selected returns the process under the cursor.
func (c *Controller) Selected() (proctree.ProcessInfo, bool) {
	if c.sel.Cursor == NoRow || c.sel.Cursor >= len(c.rows) {
		return proctree.ProcessInfo{}, false
	}
	return c.rows[c.sel.Cursor].Node.ProcessInfo, true
}

// Apply installs a new snapshot, keeping the active group by id and the
// cursor on the same pid when both still exist.
func (c *Controller) Apply(snap *aggregate.Snapshot) {
	c.snap = snap
	if snap == nil || len(snap.Groups) == 0 {
		c.sel.ActiveGroup = 0
		c.groupID = ""
		c.refreshRows()
		return
	}

	switch {
	case !c.filterUsed && c.opts.WindowFilter != "":
		c.filterUsed = true
		c.sel.ActiveGroup = initialGroup(snap.Groups, c.opts.WindowFilter)
	case c.groupID != "":
		if i, ok := snap.Group(c.groupID); ok {
			c.sel.ActiveGroup = i
		} else {
			c.sel.ActiveGroup = clamp(c.sel.ActiveGroup, 0, len(snap.Groups)-1)
			c.selectedPID = 0
		}
	default:
		c.filterUsed = true
		c.sel.ActiveGroup = clamp(c.sel.ActiveGroup, 0, len(snap.Groups)-1)
	}
	c.groupID = snap.Groups[c.sel.ActiveGroup].ID
	c.refreshRows()
}

// initialGroup finds filter among labels, then ids, defaulting to the first group.
func initialGroup(groups []aggregate.GroupView, filter string) int {
	for i, g := range groups {
		if g.Label == filter {
			return i
		}
	}
	for i, g := range groups {
		if g.ID == filter {
			return i
		}
	}
	return 0
}

// refreshRows rebuilds the visible rows and re-clamps cursor and scroll.
func (c *Controller) refreshRows() {
	g, ok := c.ActiveGroup()
	if !ok {
		c.rows = nil
	} else {
		c.rows = VisibleRows(g, c.sel.EffectiveFilter())
	}

	if len(c.rows) == 0 {
		c.sel.Cursor = NoRow
	} else {
		if c.selectedPID != 0 {
			if i := proctree.IndexOf(c.rows, c.selectedPID); i >= 0 {
				c.sel.Cursor = i
			}
		}
		if c.sel.Cursor == NoRow {
			c.sel.Cursor = 0
		}
		c.sel.Cursor = clamp(c.sel.Cursor, 0, len(c.rows)-1)
	}

	c.syncSelected()
	c.sel.ScrollOffset = clamp(c.sel.ScrollOffset, 0, maxScroll(c.rows))
}

func (c *Controller) syncSelected() {
	if p, ok := c.Selected(); ok {
		c.selectedPID = p.PID
	} else {
		c.selectedPID = 0
	}
}

// HandleKey advances the state machine by one key press.
func (c *Controller) HandleKey(key string) Action {
	if key == KeyQuitAlt {
		c.sel.State = StateQuitting
		return Action{Kind: ActionQuit}
	}

	switch c.sel.State {
	case StateHelp:
		c.sel.State = StateBrowsing
		return None
	case StateSignalInput:
		return c.handleSignalInput(key)
	case StateConfirmKill:
		return c.handleConfirmKill(key)
	case StateFilter:
		return c.handleFilterInput(key)
	case StateQuitting:
		return Action{Kind: ActionQuit}
	}
	return c.handleBrowsing(key)
}

func (c *Controller) handleBrowsing(key string) Action {
	switch key {
	case KeyQuit, KeyQuitShift:
		c.sel.State = StateQuitting
		return Action{Kind: ActionQuit}

	case KeyToggleHelp:
		c.sel.State = StateHelp

	case KeyGroupPrev, KeyGroupPrevH:
		c.switchGroup(-1)

	case KeyGroupNext, KeyGroupNextL:
		c.switchGroup(1)

	case KeySelectPrev, KeySelectPrevK:
		c.moveCursor(-1)

	case KeySelectNext, KeySelectNextJ:
		c.moveCursor(1)

	case KeySelectFirst, KeyFirstG:
		if c.sel.Cursor != NoRow {
			c.sel.Cursor = 0
			c.syncSelected()
		}

	case KeySelectLast, KeyLastG:
		if c.sel.Cursor != NoRow {
			c.sel.Cursor = len(c.rows) - 1
			c.syncSelected()
		}

	case KeyScrollLeft, KeyScrollLeftA:
		c.sel.ScrollOffset = clamp(c.sel.ScrollOffset-ScrollStep, 0, maxScroll(c.rows))

	case KeyScrollRight, KeyScrollRtA:
		c.sel.ScrollOffset = clamp(c.sel.ScrollOffset+ScrollStep, 0, maxScroll(c.rows))

	case KeyKill:
		p, ok := c.Selected()
		if !ok {
			return None
		}
		if c.opts.ConfirmKill {
			c.sel.State = StateConfirmKill
			c.sel.TargetPID = p.PID
			return None
		}
		return Action{Kind: ActionSignal, PID: p.PID, Signal: DefaultSignal}

	case KeySignal:
		p, ok := c.Selected()
		if !ok {
			return None
		}
		c.sel.State = StateSignalInput
		c.sel.TargetPID = p.PID
		c.sel.Input = ""

	case KeyCopyCommand:
		if p, ok := c.Selected(); ok {
			return Action{Kind: ActionCopy, Text: p.Command, What: "command"}
		}

	case KeyCopyPID:
		if p, ok := c.Selected(); ok {
			return Action{Kind: ActionCopy, Text: strconv.Itoa(int(p.PID)), What: "PID"}
		}

	case KeyFilter:
		c.sel.State = StateFilter
		c.sel.Input = c.sel.Filter

	case KeyRefresh:
		return Action{Kind: ActionRefresh}

	case KeyOverview, KeyEscape:
		if c.sel.Filter != "" && key == KeyEscape {
			c.sel.Filter = ""
			c.refreshRows()
			return None
		}
		return Action{Kind: ActionOverview}
	}
	return None
}

func (c *Controller) handleSignalInput(key string) Action {
	switch {
	case key == KeyEscape:
		c.resetInput()

	case key == KeyBackspace:
		if n := len(c.sel.Input); n > 0 {
			c.sel.Input = c.sel.Input[:n-1]
		}

	case key == KeyEnter:
		pid := c.sel.TargetPID
		signum, err := strconv.Atoi(c.sel.Input)
		c.resetInput()
		if err != nil || signum < actions.MinSignal || signum > actions.MaxSignal {
			return Action{Kind: ActionStatus, Err: actions.ErrInvalidSignal}
		}
		return Action{Kind: ActionSignal, PID: pid, Signal: signum}

	case len(key) == 1 && key[0] >= '0' && key[0] <= '9':
		if len(c.sel.Input) < maxSignalInput {
			c.sel.Input += key
		}
	}
	return None
}

func (c *Controller) handleConfirmKill(key string) Action {
	pid := c.sel.TargetPID
	c.resetInput()
	if key == "y" || key == KeyEnter {
		return Action{Kind: ActionSignal, PID: pid, Signal: DefaultSignal}
	}
	return None
}

func (c *Controller) handleFilterInput(key string) Action {
	switch key {
	case KeyEnter:
		c.sel.Filter = c.sel.Input
		c.sel.Input = ""
		c.sel.State = StateBrowsing
	case KeyEscape:
		c.sel.Filter = ""
		c.sel.Input = ""
		c.sel.State = StateBrowsing
	case KeyBackspace:
		if c.sel.Input != "" {
			_, size := utf8.DecodeLastRuneInString(c.sel.Input)
			c.sel.Input = c.sel.Input[:len(c.sel.Input)-size]
		}
	case KeyClearInput:
		c.sel.Input = ""
	case "space":
		c.sel.Input += " "
	default:
		if !isText(key) {
			return None
		}
		c.sel.Input += key
	}
	c.refreshRows()
	return None
}

func (c *Controller) resetInput() {
	c.sel.State = StateBrowsing
	c.sel.Input = ""
	c.sel.TargetPID = 0
}

func (c *Controller) switchGroup(delta int) {
	if c.snap == nil || len(c.snap.Groups) == 0 {
		return
	}
	next := clamp(c.sel.ActiveGroup+delta, 0, len(c.snap.Groups)-1)
	if next == c.sel.ActiveGroup {
		return
	}
	c.sel.ActiveGroup = next
	c.groupID = c.snap.Groups[next].ID
	c.sel.Cursor = NoRow
	c.sel.ScrollOffset = 0
	c.selectedPID = 0
	c.refreshRows()
}

func (c *Controller) moveCursor(delta int) {
	if c.sel.Cursor == NoRow {
		return
	}
	c.sel.Cursor = clamp(c.sel.Cursor+delta, 0, len(c.rows)-1)
	c.syncSelected()
}

// VisibleRows flattens a group's forest and keeps rows whose command
// fuzzy-matches filter, in tree order.
func VisibleRows(g aggregate.GroupView, filter string) []proctree.Row {
	rows := g.Rows()
	if filter == "" || len(rows) == 0 {
		return rows
	}
	matches := fuzzy.FindFrom(filter, rowSource(rows))
	keep := make([]bool, len(rows))
	for _, m := range matches {
		keep[m.Index] = true
	}
	filtered := make([]proctree.Row, 0, len(matches))
	for i, r := range rows {
		if keep[i] {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

// rowSource adapts rows to fuzzy.Source.
type rowSource []proctree.Row

func (s rowSource) String(i int) string { return s[i].Node.Command }
func (s rowSource) Len() int            { return len(s) }

// maxScroll is the widest command among rows, the furthest the command
// column can be scrolled.
func maxScroll(rows []proctree.Row) int {
	widest := 0
	for _, r := range rows {
		if w := lipgloss.Width(r.Node.Command); w > widest {
			widest = w
		}
	}
	return widest
}

// isText reports whether key is a single printable character.
func isText(key string) bool {
	r, size := utf8.DecodeRuneInString(key)
	return size == len(key) && r != utf8.RuneError && unicode.IsPrint(r)
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
