package ui

import "github.com/charmbracelet/lipgloss"

// Semantic colors as ANSI codes so plain CLI output follows the terminal theme.
const (
	ColorSuccess lipgloss.Color = "2" // Green
	ColorError   lipgloss.Color = "1" // Red
	ColorWarning lipgloss.Color = "3" // Yellow
	ColorInfo    lipgloss.Color = "6" // Cyan
)

// Text colors for content hierarchy
const (
	ColorPrimary   lipgloss.Color = "7" // White/default
	ColorSecondary lipgloss.Color = "4" // Blue
	ColorMuted     lipgloss.Color = "8" // Gray (bright black)
)

func SuccessStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(ColorSuccess)
}

func ErrorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(ColorError)
}

func MutedStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(ColorMuted)
}

// Success returns msg prefixed with the success symbol.
func Success(msg string) string {
	return SuccessStyle().Render(SymbolSuccess) + " " + msg
}

// Fail returns msg prefixed with the failure symbol.
func Fail(msg string) string {
	return ErrorStyle().Render(SymbolFail) + " " + msg
}
