package monitor

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/rileyhilliard/tmuxmon/internal/aggregate"
	tmerrors "github.com/rileyhilliard/tmuxmon/internal/errors"
	"github.com/rileyhilliard/tmuxmon/internal/proctree"
	"github.com/rileyhilliard/tmuxmon/internal/util"
)

// RenderOptions carries everything Render needs that is not in the snapshot
// or the selection.
type RenderOptions struct {
	Width  int // 0 means unconstrained
	Height int // 0 means unconstrained
	// Session names the session being loaded before its first snapshot.
	Session string
	// Status is a transient message from the last action.
	Status    string
	StatusErr bool
	// Err is the error from the last refresh cycle, shown as a banner.
	Err error
	// History supplies CPU trend sparklines; nil hides them.
	History *History
}

// Column widths of the process and session tables.
const (
	colPID     = 7
	colCPU     = 6
	colMem     = 10
	colSession = 18
	colProcs   = 6
	colWins    = 5
	fixedCols  = colPID + 1 + colCPU + 1 + colMem + 2
	barWidth   = 20
	trendWidth = 12
	minCommand = 8
)

// Render draws one frame. It reads nothing but its arguments.
func Render(snap *aggregate.Snapshot, sel SelectionState, opts RenderOptions) string {
	if sel.State == StateQuitting {
		return ""
	}

	if sel.State == StateHelp {
		keys := sessionKeys
		if snap != nil && snap.Mode == aggregate.ModeSessions {
			keys = overviewKeys
		}
		return renderHelpOverlay(keys, opts.Width, opts.Height)
	}

	switch {
	case snap == nil:
		return renderLoading(opts)
	case snap.Mode == aggregate.ModeSessions:
		return renderOverview(snap, sel, opts)
	default:
		return renderSession(snap, sel, opts)
	}
}

func renderLoading(opts RenderOptions) string {
	lines := []string{TitleStyle.Render("tmuxmon")}
	if opts.Session != "" {
		lines = append(lines, MutedStyle.Render(fmt.Sprintf("Sampling session %s...", opts.Session)))
	} else {
		lines = append(lines, MutedStyle.Render("Sampling sessions..."))
	}
	lines = append(lines, statusLines(opts)...)
	return strings.Join(lines, "\n")
}

func renderSession(snap *aggregate.Snapshot, sel SelectionState, opts RenderOptions) string {
	var header, body, footer []string

	title := TitleStyle.Render("Session: "+snap.Session) +
		MutedStyle.Render("  "+snap.Timestamp.Format("15:04:05"))
	header = append(header, title)

	total := snap.Totals()
	header = append(header, summaryLine(snap, len(snap.Groups), total))

	if len(snap.Groups) == 0 {
		header = append(header, "", MutedStyle.Render("No windows in this session"))
		footer = append(footer, statusLines(opts)...)
		footer = append(footer, renderFooter(sessionKeys, opts.Width))
		return joinSections(header, nil, footer)
	}

	active := clamp(sel.ActiveGroup, 0, len(snap.Groups)-1)
	g := snap.Groups[active]

	header = append(header, clip(renderTabs(snap.Groups, active), opts.Width), "")
	windowLine := LabelStyle.Render(fmt.Sprintf("Window: %s (%s) - %d %s",
		g.Label, g.ID, g.Panes, util.Pluralize(g.Panes, "pane", "panes")))
	if trend := opts.History.CPU(snap, g.ID, trendWidth); len(trend) > 1 {
		windowLine += "  " + Sparkline(trend, trendWidth)
	}
	header = append(header, windowLine)
	header = append(header, TableHeaderStyle.Render(fmt.Sprintf("%*s %*s %*s  %s",
		colPID, "PID", colCPU, "CPU%", colMem, "MEM", "COMMAND")))

	rows := VisibleRows(g, sel.EffectiveFilter())

	footer = append(footer, TotalStyle.Render(fmt.Sprintf("%*s %*.1f %*s  %d %s",
		colPID, "TOTAL", colCPU, g.Totals.CPUPercent, colMem, humanize.IBytes(g.Totals.MemoryBytes),
		g.Totals.Processes, util.Pluralize(g.Totals.Processes, "process", "processes"))))
	footer = append(footer, promptLines(sel)...)
	footer = append(footer, statusLines(opts)...)
	footer = append(footer, renderFooter(sessionKeys, opts.Width))

	switch {
	case len(rows) == 0 && sel.EffectiveFilter() != "":
		body = append(body, MutedStyle.Render(fmt.Sprintf("No processes match %q", sel.EffectiveFilter())))
	case len(rows) == 0:
		body = append(body, MutedStyle.Render("Window is empty"))
	default:
		start, end := visibleRange(len(rows), sel.Cursor, bodyHeight(opts.Height, len(header)+len(footer)))
		cmdWidth := 0
		if opts.Width > 0 {
			cmdWidth = opts.Width - fixedCols
			if cmdWidth < minCommand {
				cmdWidth = minCommand
			}
		}
		for i := start; i < end; i++ {
			body = append(body, renderProcessRow(rows[i], i == sel.Cursor, sel.ScrollOffset, cmdWidth))
		}
	}

	return joinSections(header, body, footer)
}

// summaryLine is the one-line resource summary under the title.
func summaryLine(snap *aggregate.Snapshot, windows int, total aggregate.Totals) string {
	mem := humanize.IBytes(total.MemoryBytes)
	if snap.MemoryTotal > 0 {
		mem += fmt.Sprintf(" (%.1f%%)", snap.MemoryShare(total.MemoryBytes))
	}
	parts := []string{
		fmt.Sprintf("%d %s", windows, util.Pluralize(windows, "window", "windows")),
		"CPU " + ValueStyle.Render(fmt.Sprintf("%.1f%%", total.CPUPercent)),
		"MEM " + ValueStyle.Render(mem),
		fmt.Sprintf("%d %s", total.Processes, util.Pluralize(total.Processes, "process", "processes")),
	}
	return LabelStyle.Render(strings.Join(parts, " │ "))
}

func renderTabs(groups []aggregate.GroupView, active int) string {
	tabs := make([]string, 0, len(groups)+1)
	for i, g := range groups {
		label := g.ID + ":" + g.Label
		if i == active {
			tabs = append(tabs, ActiveTabStyle.Render(label))
		} else {
			tabs = append(tabs, TabStyle.Render(label))
		}
	}
	tabs = append(tabs, MutedStyle.Render(fmt.Sprintf(" (%d/%d)", active+1, len(groups))))
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

// renderProcessRow draws one process line. cmdWidth <= 0 leaves the command
// column unclipped.
func renderProcessRow(r proctree.Row, selected bool, offset, cmdWidth int) string {
	cols := fmt.Sprintf("%*d %*.1f %*s  ",
		colPID, r.Node.PID, colCPU, r.Node.CPUPercent, colMem, humanize.IBytes(r.Node.MemoryBytes))

	avail := cmdWidth
	if avail > 0 {
		avail -= lipgloss.Width(r.Prefix)
		if avail < 1 {
			avail = 1
		}
	}
	command := util.Window(r.Node.Command, offset, avail)

	if selected {
		return CursorRowStyle.Render(cols + r.Prefix + command)
	}
	if r.Node.CPUPercent > HotProcessThreshold {
		return HotRowStyle.Render(cols) + TreeStyle.Render(r.Prefix) + HotRowStyle.Render(command)
	}
	return ValueStyle.Render(cols) + TreeStyle.Render(r.Prefix) + ValueStyle.Render(command)
}

func renderOverview(snap *aggregate.Snapshot, sel SelectionState, opts RenderOptions) string {
	var header, body, footer []string

	header = append(header, TitleStyle.Render("tmuxmon: all sessions")+
		MutedStyle.Render("  "+snap.Timestamp.Format("15:04:05")))

	total := snap.Totals()
	if sys := snap.System; sys != nil {
		header = append(header,
			meterLine("System CPU", sys.CPUPercent,
				fmt.Sprintf("%5.1f%%  %d %s", sys.CPUPercent, sys.CPUs, util.Pluralize(sys.CPUs, "core", "cores"))),
			meterLine("System MEM", sys.MemoryPercent,
				fmt.Sprintf("%5.1f%%  %s / %s", sys.MemoryPercent,
					humanize.IBytes(sys.MemoryUsedBytes), humanize.IBytes(sys.MemoryTotalBytes))),
		)
	} else {
		header = append(header, MutedStyle.Render("System totals unavailable"))
	}

	cpuShare := snap.CPUShare(total.CPUPercent)
	memShare := snap.MemoryShare(total.MemoryBytes)
	header = append(header,
		meterLine("tmux   CPU", cpuShare, fmt.Sprintf("%5.1f%%  of machine", cpuShare)),
		meterLine("tmux   MEM", memShare, fmt.Sprintf("%5.1f%%  %s", memShare, humanize.IBytes(total.MemoryBytes))),
		"",
		TableHeaderStyle.Render(fmt.Sprintf("%-*s %*s %*s %*s %*s  %s",
			colSession, "SESSION", colCPU, "CPU%", colMem, "MEM", colProcs, "PROCS", colWins, "WINS", "TREND")),
	)

	footer = append(footer, TotalStyle.Render(fmt.Sprintf("%-*s %*.1f %*s %*d %*s",
		colSession, "TOTAL", colCPU, total.CPUPercent, colMem, humanize.IBytes(total.MemoryBytes),
		colProcs, total.Processes, colWins, "")))
	footer = append(footer, statusLines(opts)...)
	footer = append(footer, renderFooter(overviewKeys, opts.Width))

	if len(snap.Groups) == 0 {
		body = append(body, MutedStyle.Render("No tmux sessions"))
		return joinSections(header, body, footer)
	}

	start, end := visibleRange(len(snap.Groups), sel.Cursor, bodyHeight(opts.Height, len(header)+len(footer)))
	for i := start; i < end; i++ {
		g := snap.Groups[i]
		line := fmt.Sprintf("%-*s %*.1f %*s %*d %*d",
			colSession, util.Truncate(g.Label, colSession), colCPU, g.Totals.CPUPercent,
			colMem, humanize.IBytes(g.Totals.MemoryBytes), colProcs, g.Totals.Processes, colWins, g.Windows)
		if i == sel.Cursor {
			line = CursorRowStyle.Render(line)
		} else {
			line = ValueStyle.Render(line)
		}
		if trend := opts.History.CPU(snap, g.ID, trendWidth); len(trend) > 1 {
			line += "  " + Sparkline(trend, trendWidth)
		}
		body = append(body, line)
	}
	return joinSections(header, body, footer)
}

func meterLine(label string, percent float64, detail string) string {
	return LabelStyle.Render(fmt.Sprintf("%-11s", label)) + " " +
		ThinProgressBar(barWidth, percent) + " " + MetricStyle(percent).Render(detail)
}

// promptLines returns the input line for the pending interaction, if any.
func promptLines(sel SelectionState) []string {
	switch sel.State {
	case StateSignalInput:
		return []string{PromptStyle.Render(fmt.Sprintf("Send signal to PID %d: [ %-2s ]", sel.TargetPID, sel.Input)) +
			MutedStyle.Render("  enter send, esc cancel")}
	case StateConfirmKill:
		return []string{PromptStyle.Render(fmt.Sprintf("Send SIGTERM to PID %d? (y/N)", sel.TargetPID))}
	case StateFilter:
		return []string{PromptStyle.Render("/"+sel.Input+"█") +
			MutedStyle.Render("  enter keep, esc clear")}
	}
	if sel.Filter != "" {
		return []string{MutedStyle.Render(fmt.Sprintf("filter: %s (esc clears)", sel.Filter))}
	}
	return nil
}

func statusLines(opts RenderOptions) []string {
	var lines []string
	if opts.Err != nil {
		lines = append(lines, ErrorStyle.Render("✗ "+tmerrors.Short(opts.Err)))
	}
	if opts.Status != "" {
		if opts.StatusErr {
			lines = append(lines, ErrorStyle.Render(opts.Status))
		} else {
			lines = append(lines, StatusStyle.Render(opts.Status))
		}
	}
	return lines
}

func renderFooter(keys keyMap, width int) string {
	h := help.New()
	h.Width = width
	h.Styles.ShortKey = HeaderStyle
	h.Styles.ShortDesc = FooterStyle
	h.Styles.ShortSeparator = FooterStyle
	return h.ShortHelpView(keys.ShortHelp())
}

// bodyHeight is how many table rows fit below used lines of chrome.
// It returns 0 when the height is unconstrained.
func bodyHeight(height, used int) int {
	if height <= 0 {
		return 0
	}
	if n := height - used; n > 1 {
		return n
	}
	return 1
}

// visibleRange picks the slice of n rows to draw so that cursor stays
// visible, keeping it near the middle while scrolling.
func visibleRange(n, cursor, height int) (int, int) {
	if height <= 0 || n <= height {
		return 0, n
	}
	if cursor < 0 {
		return 0, height
	}
	start := clamp(cursor-height/2, 0, n-height)
	return start, start + height
}

func clip(s string, width int) string {
	if width <= 0 {
		return s
	}
	return lipgloss.NewStyle().MaxWidth(width).Render(s)
}

func joinSections(sections ...[]string) string {
	var lines []string
	for _, s := range sections {
		lines = append(lines, s...)
	}
	return strings.Join(lines, "\n")
}
