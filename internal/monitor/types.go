package monitor

// State is the interaction mode of a controller.
type State int

const (
	StateBrowsing State = iota
	StateSignalInput
	StateConfirmKill
	StateFilter
	StateHelp
	StateQuitting
)

// String returns a human-readable label for the state.
func (s State) String() string {
	switch s {
	case StateBrowsing:
		return "browsing"
	case StateSignalInput:
		return "signal"
	case StateConfirmKill:
		return "confirm"
	case StateFilter:
		return "filter"
	case StateHelp:
		return "help"
	case StateQuitting:
		return "quitting"
	default:
		return "unknown"
	}
}

// NoRow is the cursor value when the active group has no visible rows.
const NoRow = -1

// SelectionState is everything the renderer needs to know about the
// operator's position in a snapshot.
type SelectionState struct {
	State        State
	ActiveGroup  int    // index into Snapshot.Groups
	Cursor       int    // index into the visible rows, or NoRow
	ScrollOffset int    // horizontal command scroll, in cells
	Input        string // signal digits or filter text being typed
	Filter       string // committed filter
	TargetPID    int32  // process a pending signal or kill applies to
}

// EffectiveFilter is the filter applied to rows right now: the text being
// typed while filtering, otherwise the committed filter.
func (s SelectionState) EffectiveFilter() string {
	if s.State == StateFilter {
		return s.Input
	}
	return s.Filter
}

// ActionKind identifies a side effect requested by a controller.
type ActionKind int

const (
	ActionNone ActionKind = iota
	ActionQuit
	ActionSignal
	ActionCopy
	ActionRefresh
	ActionOverview
	ActionDrill
	ActionStatus
)

// String returns a human-readable label for the action kind.
func (k ActionKind) String() string {
	switch k {
	case ActionNone:
		return "none"
	case ActionQuit:
		return "quit"
	case ActionSignal:
		return "signal"
	case ActionCopy:
		return "copy"
	case ActionRefresh:
		return "refresh"
	case ActionOverview:
		return "overview"
	case ActionDrill:
		return "drill"
	case ActionStatus:
		return "status"
	default:
		return "unknown"
	}
}

// Action is returned by a controller key handler. Controllers never perform
// side effects; the model executes actions.
type Action struct {
	Kind    ActionKind
	PID     int32  // ActionSignal
	Signal  int    // ActionSignal
	Text    string // ActionCopy payload
	What    string // ActionCopy: "command" or "PID"
	Session string // ActionDrill
	Err     error  // ActionStatus
}

// None is the zero action.
var None = Action{Kind: ActionNone}
