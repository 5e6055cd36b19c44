package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/rileyhilliard/tmuxmon/internal/errors"
	"github.com/rileyhilliard/tmuxmon/internal/util"
)

// SessionInfo describes a tmux session for the picker and the session table.
type SessionInfo struct {
	Name        string
	Windows     int
	Processes   int
	CPUPercent  float64
	MemoryBytes uint64
	Attached    bool // the session tmuxmon was started from
}

// sessionItem implements list.Item for the Bubbles list component.
type sessionItem struct {
	session SessionInfo
}

func (i sessionItem) Title() string {
	if i.session.Attached {
		return i.session.Name + " " + SymbolCurrent
	}
	return i.session.Name
}

func (i sessionItem) Description() string {
	s := i.session
	parts := []string{
		fmt.Sprintf("%d %s", s.Windows, util.Pluralize(s.Windows, "window", "windows")),
		fmt.Sprintf("%d %s", s.Processes, util.Pluralize(s.Processes, "process", "processes")),
	}
	if s.CPUPercent > 0 {
		parts = append(parts, fmt.Sprintf("CPU %.1f%%", s.CPUPercent))
	}
	if s.MemoryBytes > 0 {
		parts = append(parts, humanize.IBytes(s.MemoryBytes))
	}
	return strings.Join(parts, " | ")
}

func (i sessionItem) FilterValue() string {
	return i.session.Name
}

// SessionPickerModel is a Bubble Tea model for choosing a session.
type SessionPickerModel struct {
	list     list.Model
	sessions []SessionInfo
	selected *SessionInfo
	quitting bool
}

type sessionPickerKeyMap struct {
	Enter key.Binding
	Quit  key.Binding
}

var sessionPickerKeys = sessionPickerKeyMap{
	Enter: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "monitor"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "esc", "ctrl+c"),
		key.WithHelp("q/esc", "cancel"),
	),
}

// NewSessionPickerModel creates a picker listing sessions in the given order.
func NewSessionPickerModel(sessions []SessionInfo) SessionPickerModel {
	items := make([]list.Item, len(sessions))
	for i, s := range sessions {
		items[i] = sessionItem{session: s}
	}

	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.
		Foreground(ColorPrimary).
		BorderForeground(ColorSecondary)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.
		Foreground(ColorMuted)

	l := list.New(items, delegate, 80, 15)
	l.Title = "Select a tmux session"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.Styles.Title = lipgloss.NewStyle().
		Foreground(ColorPrimary).
		Bold(true).
		Padding(0, 0, 1, 0)
	l.Styles.HelpStyle = lipgloss.NewStyle().Foreground(ColorMuted)

	return SessionPickerModel{
		list:     l,
		sessions: sessions,
	}
}

// Init implements tea.Model.
func (m SessionPickerModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m SessionPickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		// While the filter prompt is open, enter and esc belong to the list.
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch {
		case key.Matches(msg, sessionPickerKeys.Enter):
			if item, ok := m.list.SelectedItem().(sessionItem); ok {
				s := item.session
				m.selected = &s
			}
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, sessionPickerKeys.Quit):
			m.quitting = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.list.SetSize(msg.Width, msg.Height-2)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m SessionPickerModel) View() string {
	if m.quitting {
		return ""
	}
	return m.list.View()
}

// Selected returns the chosen session, or nil if the picker was cancelled.
func (m SessionPickerModel) Selected() *SessionInfo {
	return m.selected
}

// PickSession shows the picker on the terminal. It returns nil when the
// user cancels.
func PickSession(sessions []SessionInfo) (*SessionInfo, error) {
	return PickSessionWithOutput(sessions, os.Stdout, os.Stdin)
}

// PickSessionWithOutput shows the picker using custom I/O.
func PickSessionWithOutput(sessions []SessionInfo, output io.Writer, input io.Reader) (*SessionInfo, error) {
	if len(sessions) == 0 {
		return nil, errors.New(errors.ErrTmux, "No tmux sessions to pick from", "Start one with 'tmux new -s work'.")
	}
	if len(sessions) == 1 {
		return &sessions[0], nil
	}

	p := tea.NewProgram(
		NewSessionPickerModel(sessions),
		tea.WithOutput(output),
		tea.WithInput(input),
	)

	finalModel, err := p.Run()
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrTmux, "Session picker failed", "Pass the session name as an argument instead.")
	}

	if m, ok := finalModel.(SessionPickerModel); ok {
		return m.Selected(), nil
	}
	return nil, nil
}
