// Package ui provides terminal output helpers shared by dockstat's commands.
//
// It holds the color palette, status symbols, the standalone spinner used by
// headless commands, sparklines for CPU history, and the formatters that turn
// raw stats into display strings.
//
// # Color Scheme
//
// Colors are ANSI codes for broad terminal compatibility:
//
//	ColorSuccess   (green)  - Healthy values, completed refreshes
//	ColorError     (red)    - Failures and critical load
//	ColorWarning   (yellow) - Stale data and elevated load
//	ColorInfo      (cyan)   - Informational messages
//	ColorMuted     (gray)   - Secondary text, timing info
//	ColorSecondary (blue)   - In-progress indicators
//
// ConfigureColors applies the output.color setting and the NO_COLOR
// convention through termenv. DisableColors forces monochrome output.
//
// # Spinner Usage
//
//	s := ui.NewSpinner(os.Stderr, "Refreshing container stats")
//	s.Start()
//	// ... wait for the refresh ...
//	s.Success("12 containers")
//
// # Formatting
//
// FormatMemory, FormatPercent and FormatAge wrap go-humanize so the TUI and
// the one-shot commands print identical values.
package ui
