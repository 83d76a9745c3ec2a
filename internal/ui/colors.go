package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Semantic colors for status indication
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

// Load thresholds shared by sparklines and table cells.
const (
	WarningThreshold  = 60.0
	CriticalThreshold = 80.0
)

// Color modes accepted by ConfigureColors.
const (
	ColorModeAuto   = "auto"
	ColorModeAlways = "always"
	ColorModeNever  = "never"
)

// ThresholdColor returns a color based on percentage thresholds.
//   - below 60%: green
//   - 60-80%: yellow
//   - 80% and above: red
func ThresholdColor(percent float64) lipgloss.Color {
	switch {
	case percent >= CriticalThreshold:
		return ColorError
	case percent >= WarningThreshold:
		return ColorWarning
	default:
		return ColorSuccess
	}
}

// ThresholdStyle returns a foreground style colored by ThresholdColor.
func ThresholdStyle(percent float64) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(ThresholdColor(percent))
}

// SuccessStyle returns the style for successful outcomes.
func SuccessStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(ColorSuccess)
}

// ErrorStyle returns the style for failures.
func ErrorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(ColorError)
}

// WarningStyle returns the style for warnings and stale values.
func WarningStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(ColorWarning)
}

// InfoStyle returns the style for informational text.
func InfoStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(ColorInfo)
}

// MutedStyle returns the style for secondary text.
func MutedStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(ColorMuted)
}

// DisableColors switches lipgloss to monochrome output.
func DisableColors() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

// ConfigureColors applies a color mode. noColor forces monochrome regardless
// of mode, as does the NO_COLOR environment convention in auto mode.
func ConfigureColors(mode string, noColor bool) {
	switch {
	case noColor || mode == ColorModeNever:
		DisableColors()
	case mode == ColorModeAlways:
		lipgloss.SetColorProfile(termenv.ANSI256)
	case termenv.EnvNoColor():
		DisableColors()
	}
}
