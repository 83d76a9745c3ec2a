package doctor

import (
	"context"
	"fmt"
	"time"

	"github.com/rileyhilliard/dockstat/internal/errors"
	"github.com/rileyhilliard/dockstat/internal/stats"
	"github.com/rileyhilliard/dockstat/internal/ui"
)

// SnapshotCheck fetches the cached snapshot and judges its age against the
// countdown window.
type SnapshotCheck struct {
	Server string
	Source stats.SnapshotSource
	Window time.Duration
	Now    func() time.Time
}

func (c *SnapshotCheck) Name() string     { return "server_snapshot" }
func (c *SnapshotCheck) Category() string { return "SERVER" }

func (c *SnapshotCheck) Run(ctx context.Context) CheckResult {
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}

	start := now()
	snap, err := c.Source.Snapshot(ctx)
	latency := now().Sub(start)
	if err != nil {
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusFail,
			Message:    errors.Describe(err),
			Suggestion: suggestionFor(err, c.Server),
		}
	}

	msg := fmt.Sprintf("%s containers from %s (%s)", ui.FormatCount(len(snap.Entities)), c.Server, ui.FormatElapsed(latency))
	if snap.Error != "" {
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusWarn,
			Message:    msg + ", server reported: " + snap.Error,
			Suggestion: "Check the stats server's logs",
		}
	}

	if c.Window > 0 && !snap.CacheTimestamp.IsZero() && now().Sub(snap.CacheTimestamp) > c.Window {
		return CheckResult{
			Name:   c.Name(),
			Status: StatusWarn,
			Message: fmt.Sprintf("%s, but the cache was built %s", msg,
				ui.FormatAge(snap.CacheTimestamp, now())),
			Suggestion: "The server isn't re-measuring on its own; 'dockstat refresh' forces a pass",
		}
	}

	return CheckResult{Name: c.Name(), Status: StatusPass, Message: msg}
}

// SystemCheck fetches host metrics. The dashboard works without them, so a
// failure is only a warning.
type SystemCheck struct {
	Server string
	Source stats.SystemSource
}

func (c *SystemCheck) Name() string     { return "server_system" }
func (c *SystemCheck) Category() string { return "SERVER" }

func (c *SystemCheck) Run(ctx context.Context) CheckResult {
	m, err := c.Source.System(ctx)
	if err != nil {
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusWarn,
			Message:    "Host metrics unavailable: " + errors.Describe(err),
			Suggestion: suggestionFor(err, c.Server),
		}
	}

	msg := fmt.Sprintf("Host metrics ok, cpu %s", ui.FormatPercent(m.CPUPercent))
	if m.VersionLabel != "" {
		msg += ", " + m.VersionLabel
	}
	return CheckResult{Name: c.Name(), Status: StatusPass, Message: msg}
}

// NewServerChecks creates the checks that talk to the stats server.
func NewServerChecks(server string, source stats.Source, window time.Duration) []Check {
	return []Check{
		&SnapshotCheck{Server: server, Source: source, Window: window},
		&SystemCheck{Server: server, Source: source},
	}
}

// suggestionFor maps an error code to a next step.
func suggestionFor(err error, server string) string {
	switch errors.CodeOf(err) {
	case errors.ErrNetwork:
		return fmt.Sprintf("Is the stats server running at %s? Set server.url or pass --server", server)
	case errors.ErrTimeout:
		return "Raise server.request_timeout, or check the server isn't overloaded"
	case errors.ErrUnauthorized:
		return "Check server.token (or DOCKSTAT_SERVER_TOKEN)"
	case errors.ErrMalformed:
		return "The server's response format doesn't match this dockstat version"
	case errors.ErrRateLimited:
		return "The server is busy; try again in a few seconds"
	default:
		return "Check the stats server's logs"
	}
}
