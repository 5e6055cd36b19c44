package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

// TableColumn defines a table column with name and width.
type TableColumn struct {
	Title string
	Width int
}

// NewTable creates a non-interactive Bubbles table with default styling.
func NewTable(columns []TableColumn, rows []table.Row) table.Model {
	cols := make([]table.Column, len(columns))
	for i, c := range columns {
		cols[i] = table.Column{
			Title: c.Title,
			Width: c.Width,
		}
	}

	t := table.New(
		table.WithColumns(cols),
		table.WithRows(rows),
		table.WithFocused(false),
		table.WithHeight(len(rows)+1), // +1 for header
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(ColorMuted).
		BorderBottom(true).
		Bold(true).
		Foreground(ColorPrimary)
	s.Cell = s.Cell.
		Foreground(ColorPrimary)
	// Nothing is selectable; the cursor row looks like any other.
	s.Selected = s.Cell

	t.SetStyles(s)
	return t
}

// RenderSimpleTable renders a table string for plain CLI output.
func RenderSimpleTable(columns []TableColumn, rows [][]string) string {
	if len(rows) == 0 {
		return ""
	}

	tableRows := make([]table.Row, len(rows))
	for i, row := range rows {
		tableRows[i] = table.Row(row)
	}

	return NewTable(columns, tableRows).View()
}

// RenderSessionTable renders the output of --list-sessions.
func RenderSessionTable(sessions []SessionInfo) string {
	if len(sessions) == 0 {
		return "No tmux sessions"
	}

	nameWidth := len("SESSION")
	for _, s := range sessions {
		if n := lipgloss.Width(s.Name) + 2; n > nameWidth {
			nameWidth = n
		}
	}

	columns := []TableColumn{
		{Title: "SESSION", Width: nameWidth},
		{Title: "WINS", Width: 5},
		{Title: "PROCS", Width: 6},
		{Title: "CPU%", Width: 7},
		{Title: "MEM", Width: 10},
	}

	rows := make([][]string, len(sessions))
	for i, s := range sessions {
		marker := SymbolOther
		if s.Attached {
			marker = SymbolCurrent
		}
		rows[i] = []string{
			marker + " " + s.Name,
			fmt.Sprintf("%d", s.Windows),
			fmt.Sprintf("%d", s.Processes),
			fmt.Sprintf("%.1f", s.CPUPercent),
			humanize.IBytes(s.MemoryBytes),
		}
	}
	return RenderSimpleTable(columns, rows)
}
