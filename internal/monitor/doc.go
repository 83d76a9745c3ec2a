// Package monitor implements the live container stats dashboard.
//
// The dashboard is a Bubble Tea program that renders whatever the stats
// Controller publishes. It never fetches anything itself.
//
// # Architecture
//
// The stats engine runs on its own event loop and talks to a Surface and a
// Notifier. Bridge implements both and forwards every call into the Bubble
// Tea program as a message, copying entity data on the way so the program
// never reads memory the loop is still mutating:
//
//	stats.Controller -> Bridge -> tea.Program.Send -> Model.Update -> View
//
// User input flows the other way through the Controller interface (Refresh,
// Reload, RestartPulse), which only posts work onto the engine's loop.
//
// # Display
//
// Rows appear in the order the engine publishes them. Sorting by CPU or
// memory reorders the rendered rows only. Each row shows a CPU sparkline fed
// by History, a ring buffer per container.
//
// # Keyboard Shortcuts
//
//	q, Ctrl+C   - Quit
//	r           - Refresh stats on the server (disabled while refreshing)
//	R           - Reload the cached snapshot
//	p           - Resume system metrics after the session expired
//	s           - Cycle sort order (server/name/CPU/memory)
//	j/k, ↑/↓    - Move selection
//	?           - Toggle help
//
// LineSurface is the non-interactive alternative used when stdout is not a
// terminal: it prints one line per event.
package monitor
