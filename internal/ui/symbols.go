package ui

// Unicode symbols for status indicators.
const (
	SymbolSuccess    = "✓"
	SymbolFail       = "✗"
	SymbolWarning    = "⚠"
	SymbolInfo       = "ℹ"
	SymbolRunning    = "●" // Container is up
	SymbolStopped    = "○" // Container exited or paused
	SymbolStale      = "◌" // Value is cached from an earlier fetch
	SymbolRefreshing = "◐"
)

// StatusSymbol picks the glyph for a container status string as reported by
// the stats server ("running", "exited", "paused", ...).
func StatusSymbol(status string) string {
	if status == "running" {
		return SymbolRunning
	}
	return SymbolStopped
}
