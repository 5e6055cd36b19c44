package monitor

import "github.com/rileyhilliard/tmuxmon/internal/aggregate"

// OverviewController is the state machine for the all-sessions screen.
type OverviewController struct {
	sel       SelectionState
	snap      *aggregate.Snapshot
	sessionID string
}

// NewOverviewController creates an overview controller. preselect, when not
// empty, is the session the cursor starts on.
func NewOverviewController(preselect string) *OverviewController {
	return &OverviewController{
		sel:       SelectionState{Cursor: NoRow},
		sessionID: preselect,
	}
}

// Selection returns the current selection; Cursor indexes Snapshot.Groups.
func (o *OverviewController) Selection() SelectionState {
	return o.sel
}

// State returns the current interaction state.
func (o *OverviewController) State() State {
	return o.sel.State
}

// Selected returns the id of the session under the cursor.
func (o *OverviewController) Selected() (string, bool) {
	if o.snap == nil || o.sel.Cursor == NoRow || o.sel.Cursor >= len(o.snap.Groups) {
		return "", false
	}
	return o.snap.Groups[o.sel.Cursor].ID, true
}

// Apply installs a snapshot, keeping the cursor on the same session.
func (o *OverviewController) Apply(snap *aggregate.Snapshot) {
	o.snap = snap
	if snap == nil || len(snap.Groups) == 0 {
		o.sel.Cursor = NoRow
		return
	}
	if i, ok := snap.Group(o.sessionID); ok {
		o.sel.Cursor = i
	} else if o.sel.Cursor == NoRow {
		o.sel.Cursor = 0
	} else {
		o.sel.Cursor = clamp(o.sel.Cursor, 0, len(snap.Groups)-1)
	}
	o.sessionID = snap.Groups[o.sel.Cursor].ID
}

// HandleKey advances the state machine by one key press.
func (o *OverviewController) HandleKey(key string) Action {
	if key == KeyQuitAlt {
		o.sel.State = StateQuitting
		return Action{Kind: ActionQuit}
	}
	if o.sel.State == StateHelp {
		o.sel.State = StateBrowsing
		return None
	}
	if o.sel.State == StateQuitting {
		return Action{Kind: ActionQuit}
	}

	switch key {
	case KeyQuit, KeyQuitShift:
		o.sel.State = StateQuitting
		return Action{Kind: ActionQuit}
	case KeyToggleHelp:
		o.sel.State = StateHelp
	case KeyRefresh:
		return Action{Kind: ActionRefresh}
	case KeySelectPrev, KeySelectPrevK:
		o.move(o.sel.Cursor - 1)
	case KeySelectNext, KeySelectNextJ:
		o.move(o.sel.Cursor + 1)
	case KeySelectFirst, KeyFirstG:
		o.move(0)
	case KeySelectLast, KeyLastG:
		if o.snap != nil {
			o.move(len(o.snap.Groups) - 1)
		}
	case KeyEnter, KeyGroupNextL, KeyGroupNext:
		if id, ok := o.Selected(); ok {
			return Action{Kind: ActionDrill, Session: id}
		}
	}
	return None
}

func (o *OverviewController) move(to int) {
	if o.sel.Cursor == NoRow || o.snap == nil {
		return
	}
	o.sel.Cursor = clamp(to, 0, len(o.snap.Groups)-1)
	o.sessionID = o.snap.Groups[o.sel.Cursor].ID
}
