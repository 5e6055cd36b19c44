package monitor

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Color palette
const (
	ColorDarkBg    = lipgloss.Color("#0A0A0F")
	ColorSurfaceBg = lipgloss.Color("#12121A")
	ColorBorder    = lipgloss.Color("#2A2A4A")

	ColorHealthy  = lipgloss.Color("#39FF14")
	ColorWarning  = lipgloss.Color("#FFAA00")
	ColorCritical = lipgloss.Color("#FF0055")

	ColorTextPrimary   = lipgloss.Color("#FFFFFF")
	ColorTextSecondary = lipgloss.Color("#B4B4D0")
	ColorTextMuted     = lipgloss.Color("#6B6B8D")

	ColorAccent    = lipgloss.Color("#FF2E97")
	ColorAccentDim = lipgloss.Color("#BF40FF")
	ColorCyan      = lipgloss.Color("#00FFFF")
)

// Thresholds for machine-wide metric severity.
const (
	WarningThreshold  = 70.0
	CriticalThreshold = 90.0
)

// HotProcessThreshold is the CPU% above which a process row is highlighted.
const HotProcessThreshold = 10.0

var (
	TitleStyle = lipgloss.NewStyle().
			Foreground(ColorAccent).
			Bold(true)

	// HeaderStyle and FooterStyle color the key and description halves of
	// the short help line.
	HeaderStyle = lipgloss.NewStyle().
			Foreground(ColorTextPrimary).
			Bold(true)

	FooterStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted)

	LabelStyle = lipgloss.NewStyle().
			Foreground(ColorTextSecondary)

	ValueStyle = lipgloss.NewStyle().
			Foreground(ColorTextPrimary)

	TabStyle = lipgloss.NewStyle().
			Foreground(ColorTextSecondary).
			Padding(0, 1)

	ActiveTabStyle = TabStyle.
			Foreground(ColorDarkBg).
			Background(ColorAccent).
			Bold(true)

	TableHeaderStyle = lipgloss.NewStyle().
				Foreground(ColorCyan).
				Bold(true)

	TreeStyle = lipgloss.NewStyle().
			Foreground(ColorBorder)

	CursorRowStyle = lipgloss.NewStyle().
			Background(ColorAccentDim).
			Foreground(ColorTextPrimary)

	HotRowStyle = lipgloss.NewStyle().
			Foreground(ColorWarning)

	TotalStyle = lipgloss.NewStyle().
			Foreground(ColorTextPrimary).
			Bold(true)

	PromptStyle = lipgloss.NewStyle().
			Foreground(ColorCyan).
			Bold(true)

	StatusStyle = lipgloss.NewStyle().
			Foreground(ColorHealthy)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorCritical).
			Bold(true)

	MutedStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted)
)

// MetricColor returns green below 70%, amber to 90%, red above.
func MetricColor(percent float64) lipgloss.Color {
	switch {
	case percent >= CriticalThreshold:
		return ColorCritical
	case percent >= WarningThreshold:
		return ColorWarning
	default:
		return ColorHealthy
	}
}

// MetricStyle returns a style colored for percent.
func MetricStyle(percent float64) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(MetricColor(percent))
}

// ThinProgressBar renders a bar of ━ (filled) and ─ (empty) segments.
func ThinProgressBar(width int, percent float64) string {
	if width < 1 {
		width = 1
	}
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}

	filled := int(percent / 100.0 * float64(width))
	if filled > width {
		filled = width
	}

	bar := strings.Repeat("━", filled) + strings.Repeat("─", width-filled)
	return MetricStyle(percent).Render(bar)
}
