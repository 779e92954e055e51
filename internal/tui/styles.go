package tui

import (
	"github.com/bluess1/Troulette/internal/roulette"
	"github.com/charmbracelet/lipgloss"
)

// Static styles for content elements
var (
	HeaderStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Bold(true)

	RoundInfoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#96CEB4")).
			Bold(true)

	RedPocketStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B")).
			Bold(true)

	BlackPocketStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#BBBBBB")).
				Bold(true)

	GreenPocketStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#04B575")).
				Bold(true)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#96CEB4")).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B")).
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFEAA7")).
			Bold(true)

	InfoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262"))
)

// pocketStyle colors a winning number like its pocket.
func pocketStyle(c roulette.Color) lipgloss.Style {
	switch c {
	case roulette.Red:
		return RedPocketStyle
	case roulette.Black:
		return BlackPocketStyle
	default:
		return GreenPocketStyle
	}
}
