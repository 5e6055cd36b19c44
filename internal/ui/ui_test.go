package ui

import (
	"os"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rileyhilliard/tmuxmon/internal/errors"
)

func TestMain(m *testing.M) {
	lipgloss.SetColorProfile(termenv.Ascii)
	os.Exit(m.Run())
}

func TestSessionItem(t *testing.T) {
	item := sessionItem{session: SessionInfo{
		Name:        "work",
		Windows:     3,
		Processes:   1,
		CPUPercent:  12.5,
		MemoryBytes: 3 << 20,
		Attached:    true,
	}}

	assert.Equal(t, "work "+SymbolCurrent, item.Title())
	assert.Equal(t, "work", item.FilterValue())

	desc := item.Description()
	assert.Contains(t, desc, "3 windows")
	assert.Contains(t, desc, "1 process")
	assert.Contains(t, desc, "CPU 12.5%")
	assert.Contains(t, desc, "3.0 MiB")
}

func TestSessionItemWithoutUsage(t *testing.T) {
	item := sessionItem{session: SessionInfo{Name: "idle", Windows: 1}}

	assert.Equal(t, "idle", item.Title())
	assert.Equal(t, "1 window | 0 processes", item.Description())
}

func TestSessionPicker(t *testing.T) {
	sessions := []SessionInfo{{Name: "alpha"}, {Name: "beta"}}
	m := NewSessionPickerModel(sessions)
	assert.Nil(t, m.Selected())

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyDown})
	next, cmd := next.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)

	picked := next.(SessionPickerModel).Selected()
	require.NotNil(t, picked)
	assert.Equal(t, "beta", picked.Name)
	assert.Empty(t, next.View())
}

func TestSessionPickerCancel(t *testing.T) {
	m := NewSessionPickerModel([]SessionInfo{{Name: "alpha"}, {Name: "beta"}})

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.Nil(t, next.(SessionPickerModel).Selected())
}

func TestPickSessionShortcuts(t *testing.T) {
	_, err := PickSessionWithOutput(nil, nil, nil)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrTmux))

	only := []SessionInfo{{Name: "solo"}}
	picked, err := PickSessionWithOutput(only, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "solo", picked.Name)
}

func TestRenderSessionTable(t *testing.T) {
	out := RenderSessionTable([]SessionInfo{
		{Name: "work", Windows: 2, Processes: 5, CPUPercent: 3.25, MemoryBytes: 2 << 30, Attached: true},
		{Name: "play", Windows: 1, Processes: 1},
	})

	lines := strings.Split(out, "\n")
	require.GreaterOrEqual(t, len(lines), 4)
	assert.Contains(t, lines[0], "SESSION")
	assert.Contains(t, lines[0], "MEM")
	assert.Contains(t, out, SymbolCurrent+" work")
	assert.Contains(t, out, SymbolOther+" play")
	assert.Contains(t, out, "2.0 GiB")
	assert.Contains(t, out, "3.2")

	assert.Equal(t, "No tmux sessions", RenderSessionTable(nil))
}

func TestStatusText(t *testing.T) {
	assert.Equal(t, SymbolSuccess+" saved", Success("saved"))
	assert.Equal(t, SymbolFail+" broken", Fail("broken"))
}
