package monitor

import "github.com/charmbracelet/bubbles/key"

// Key bindings as constants for consistency.
const (
	KeyQuit        = "q"
	KeyQuitShift   = "Q"
	KeyQuitAlt     = "ctrl+c"
	KeyRefresh     = "r"
	KeyGroupPrev   = "left"
	KeyGroupPrevH  = "h"
	KeyGroupNext   = "right"
	KeyGroupNextL  = "l"
	KeySelectPrev  = "up"
	KeySelectPrevK = "k"
	KeySelectNext  = "down"
	KeySelectNextJ = "j"
	KeySelectFirst = "home"
	KeyFirstG      = "g"
	KeySelectLast  = "end"
	KeyLastG       = "G"
	KeyScrollLeft  = "alt+h"
	KeyScrollLeftA = "alt+left"
	KeyScrollRight = "alt+l"
	KeyScrollRtA   = "alt+right"
	KeyKill        = "x"
	KeySignal      = "s"
	KeyCopyCommand = "y"
	KeyCopyPID     = "Y"
	KeyFilter      = "/"
	KeyOverview    = "o"
	KeyEnter       = "enter"
	KeyEscape      = "esc"
	KeyBackspace   = "backspace"
	KeyClearInput  = "ctrl+u"
	KeyToggleHelp  = "?"
)

// keyMap groups bindings for the footer and the help overlay.
type keyMap struct {
	Groups   key.Binding
	Move     key.Binding
	Jump     key.Binding
	Scroll   key.Binding
	Kill     key.Binding
	Signal   key.Binding
	Copy     key.Binding
	CopyPID  key.Binding
	Filter   key.Binding
	Refresh  key.Binding
	Overview key.Binding
	Help     key.Binding
	Quit     key.Binding
}

// sessionKeys are active while browsing one session's windows.
var sessionKeys = keyMap{
	Groups:   key.NewBinding(key.WithKeys(KeyGroupPrevH, KeyGroupNextL, KeyGroupPrev, KeyGroupNext), key.WithHelp("h/l", "window")),
	Move:     key.NewBinding(key.WithKeys(KeySelectNextJ, KeySelectPrevK, KeySelectNext, KeySelectPrev), key.WithHelp("j/k", "process")),
	Jump:     key.NewBinding(key.WithKeys(KeyFirstG, KeyLastG, KeySelectFirst, KeySelectLast), key.WithHelp("g/G", "first/last")),
	Scroll:   key.NewBinding(key.WithKeys(KeyScrollLeft, KeyScrollRight, KeyScrollLeftA, KeyScrollRtA), key.WithHelp("alt+h/l", "scroll command")),
	Kill:     key.NewBinding(key.WithKeys(KeyKill), key.WithHelp("x", "SIGTERM")),
	Signal:   key.NewBinding(key.WithKeys(KeySignal), key.WithHelp("s", "send signal")),
	Copy:     key.NewBinding(key.WithKeys(KeyCopyCommand), key.WithHelp("y", "copy command")),
	CopyPID:  key.NewBinding(key.WithKeys(KeyCopyPID), key.WithHelp("Y", "copy PID")),
	Filter:   key.NewBinding(key.WithKeys(KeyFilter), key.WithHelp("/", "filter")),
	Refresh:  key.NewBinding(key.WithKeys(KeyRefresh), key.WithHelp("r", "refresh")),
	Overview: key.NewBinding(key.WithKeys(KeyOverview, KeyEscape), key.WithHelp("o/esc", "overview")),
	Help:     key.NewBinding(key.WithKeys(KeyToggleHelp), key.WithHelp("?", "help")),
	Quit:     key.NewBinding(key.WithKeys(KeyQuit, KeyQuitShift, KeyQuitAlt), key.WithHelp("q", "quit")),
}

// overviewKeys are active on the all-sessions screen.
var overviewKeys = keyMap{
	Move:     key.NewBinding(key.WithKeys(KeySelectNextJ, KeySelectPrevK, KeySelectNext, KeySelectPrev), key.WithHelp("j/k", "session")),
	Jump:     key.NewBinding(key.WithKeys(KeyFirstG, KeyLastG, KeySelectFirst, KeySelectLast), key.WithHelp("g/G", "first/last")),
	Overview: key.NewBinding(key.WithKeys(KeyEnter), key.WithHelp("enter", "open session")),
	Refresh:  key.NewBinding(key.WithKeys(KeyRefresh), key.WithHelp("r", "refresh")),
	Help:     key.NewBinding(key.WithKeys(KeyToggleHelp), key.WithHelp("?", "help")),
	Quit:     key.NewBinding(key.WithKeys(KeyQuit, KeyQuitShift, KeyQuitAlt), key.WithHelp("q", "quit")),
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return enabled(k.Groups, k.Move, k.Kill, k.Signal, k.Copy, k.Filter, k.Overview, k.Help, k.Quit)
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		enabled(k.Groups, k.Move, k.Jump, k.Scroll),
		enabled(k.Kill, k.Signal, k.Copy, k.CopyPID, k.Filter),
		enabled(k.Refresh, k.Overview, k.Help, k.Quit),
	}
}

// enabled drops zero-value bindings so one keyMap type serves both screens.
func enabled(bindings ...key.Binding) []key.Binding {
	out := make([]key.Binding, 0, len(bindings))
	for _, b := range bindings {
		if len(b.Keys()) > 0 {
			out = append(out, b)
		}
	}
	return out
}
