package stats

import (
	"context"
	"time"
)

// SnapshotSource is the container half of the stats server.
type SnapshotSource interface {
	Snapshot(ctx context.Context) (Snapshot, error)
	TriggerRefresh(ctx context.Context) error
}

// SystemSource is the host metrics half of the stats server.
type SystemSource interface {
	System(ctx context.Context) (SystemMetric, error)
}

// Source is everything the Controller needs from the server.
type Source interface {
	SnapshotSource
	SystemSource
}

// Surface renders state. Implementations must be idempotent: applying the
// same state twice must produce the same visible result.
type Surface interface {
	// Apply shows the full entity list in display order. diff describes what
	// changed since the previous call.
	Apply(entities []*Entity, diff Diff)
	ApplyCountdowns(countdowns []Countdown)
	ApplySystem(status SystemStatus)
	// SetRefreshing toggles the refresh affordance. While true, the surface
	// must not offer a way to start another refresh.
	SetRefreshing(active bool)
}

// Notifier reports user-visible events.
type Notifier interface {
	Notify(message string, severity Severity)
}

// Severity of a notification.
type Severity int

const (
	SeverityInfo Severity = iota
	SeveritySuccess
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeveritySuccess:
		return "success"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// Countdown is the time left before an entity is due for a refresh.
type Countdown struct {
	ID        string
	Remaining time.Duration
}

// Label formats the remaining time as mm:ss.
func (c Countdown) Label() string {
	return FormatCountdown(c.Remaining)
}

// SystemStatus is what the surface should show for host metrics.
type SystemStatus struct {
	// Metric is the metric to display, or nil when there is none.
	Metric *SystemMetric

	// Stale is set when Metric is a cached value shown in place of a failed fetch.
	Stale bool

	// Err is the most recent fetch error, if the last fetch failed.
	Err error

	// SessionExpired is set once the server rejects the session. Polling is
	// stopped until the pulse is restarted.
	SessionExpired bool

	// Restarting is set while the poller waits out its restart delay.
	Restarting bool
}

// NopSurface discards everything.
type NopSurface struct{}

func (NopSurface) Apply([]*Entity, Diff)       {}
func (NopSurface) ApplyCountdowns([]Countdown) {}
func (NopSurface) ApplySystem(SystemStatus)    {}
func (NopSurface) SetRefreshing(bool)          {}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(message string, severity Severity)

func (f NotifierFunc) Notify(message string, severity Severity) {
	f(message, severity)
}
