package monitor

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/rileyhilliard/dockstat/internal/stats"
	"github.com/rileyhilliard/dockstat/internal/ui"
)

// Dashboard color palette
const (
	ColorSurfaceBg = lipgloss.Color("#12121A")
	ColorBorder    = lipgloss.Color("#2A2A4A")

	ColorHealthy  = lipgloss.Color("#39FF14") // Neon green
	ColorWarning  = lipgloss.Color("#FFAA00") // Electric amber
	ColorCritical = lipgloss.Color("#FF0055") // Hot red-pink

	ColorTextPrimary   = lipgloss.Color("#FFFFFF")
	ColorTextSecondary = lipgloss.Color("#B4B4D0")
	ColorTextMuted     = lipgloss.Color("#6B6B8D")

	ColorAccent = lipgloss.Color("#FF2E97") // Neon pink
	ColorGraph  = lipgloss.Color("#00FFFF") // Neon cyan
)

var (
	HeaderStyle = lipgloss.NewStyle().
			Foreground(ColorTextPrimary).
			Background(ColorSurfaceBg).
			Bold(true).
			Padding(0, 1)

	TitleStyle = lipgloss.NewStyle().
			Foreground(ColorAccent).
			Bold(true)

	FooterStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted).
			Padding(0, 1)

	ColumnHeaderStyle = lipgloss.NewStyle().
				Foreground(ColorTextSecondary).
				Bold(true)

	RowStyle = lipgloss.NewStyle().
			Foreground(ColorTextPrimary)

	RowSelectedStyle = lipgloss.NewStyle().
				Foreground(ColorAccent).
				Bold(true)

	LabelStyle = lipgloss.NewStyle().
			Foreground(ColorTextSecondary)

	MutedStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted)

	RunningStyle = lipgloss.NewStyle().
			Foreground(ColorHealthy)

	StoppedStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted)

	StaleStyle = lipgloss.NewStyle().
			Foreground(ColorWarning)

	ErrorTextStyle = lipgloss.NewStyle().
			Foreground(ColorCritical)

	HelpBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1)
)

// loadStyle colors a percentage by severity.
func loadStyle(percent float64) lipgloss.Style {
	switch {
	case percent >= ui.CriticalThreshold:
		return lipgloss.NewStyle().Foreground(ColorCritical)
	case percent >= ui.WarningThreshold:
		return lipgloss.NewStyle().Foreground(ColorWarning)
	default:
		return lipgloss.NewStyle().Foreground(ColorHealthy)
	}
}

// noticeStyle returns the glyph and style for a notification severity.
func noticeStyle(s stats.Severity) (string, lipgloss.Style) {
	switch s {
	case stats.SeveritySuccess:
		return ui.SymbolSuccess, lipgloss.NewStyle().Foreground(ColorHealthy)
	case stats.SeverityWarning:
		return ui.SymbolWarning, lipgloss.NewStyle().Foreground(ColorWarning)
	case stats.SeverityError:
		return ui.SymbolFail, lipgloss.NewStyle().Foreground(ColorCritical)
	default:
		return ui.SymbolInfo, lipgloss.NewStyle().Foreground(ColorGraph)
	}
}
