package monitor

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/rileyhilliard/dockstat/internal/errors"
	"github.com/rileyhilliard/dockstat/internal/stats"
	"github.com/rileyhilliard/dockstat/internal/ui"
)

// LineSurface prints one line per state change. Used when stdout is not a
// terminal. Countdown ticks are not printed.
type LineSurface struct {
	mu  sync.Mutex
	w   io.Writer
	now func() time.Time

	lastSystem string
}

// NewLineSurface returns a LineSurface writing to w.
func NewLineSurface(w io.Writer) *LineSurface {
	return &LineSurface{w: w, now: time.Now}
}

func (l *LineSurface) printf(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.w, "%s "+format+"\n", append([]any{l.now().Format("15:04:05")}, args...)...)
}

// Apply prints a summary of the change followed by one line per container
// that was added or updated.
func (l *LineSurface) Apply(entities []*stats.Entity, diff stats.Diff) {
	if diff.Full {
		l.printf("loaded %d containers", len(entities))
	} else {
		l.printf("%d containers (+%d ~%d -%d)", len(entities), len(diff.Added), len(diff.Updated), len(diff.Removed))
	}

	changed := make(map[string]bool, len(diff.Added)+len(diff.Updated))
	for _, id := range diff.Added {
		changed[id] = true
	}
	for _, id := range diff.Updated {
		changed[id] = true
	}
	for _, e := range entities {
		if diff.Full || changed[e.ID] {
			l.printf("  %s %-24s cpu %-7s mem %s", ui.StatusSymbol(e.Status), e.Name,
				ui.FormatPercent(e.CPUPercent), ui.FormatMemory(e.MemoryUsedMB, e.MemoryTotalMB))
		}
	}
	for _, id := range diff.Removed {
		l.printf("  - %s", id)
	}
}

func (l *LineSurface) ApplyCountdowns([]stats.Countdown) {}

// ApplySystem prints host metrics when the rendered line differs from the last one.
func (l *LineSurface) ApplySystem(s stats.SystemStatus) {
	var line string
	switch {
	case s.Restarting:
		line = "host metrics reconnecting"
	case s.SessionExpired:
		line = "host metrics stopped: session expired"
	case s.Metric == nil:
		line = "host metrics unavailable: " + errors.Describe(s.Err)
	default:
		line = fmt.Sprintf("host cpu %s mem %s", ui.FormatPercent(s.Metric.CPUPercent),
			ui.FormatMemory(s.Metric.MemoryUsedMB, s.Metric.MemoryTotalMB))
		if s.Stale {
			line += " (stale)"
		}
	}

	l.mu.Lock()
	same := line == l.lastSystem
	l.lastSystem = line
	l.mu.Unlock()
	if !same {
		l.printf("%s", line)
	}
}

func (l *LineSurface) SetRefreshing(active bool) {
	if active {
		l.printf("refresh started")
	}
}

func (l *LineSurface) Notify(message string, severity stats.Severity) {
	l.printf("[%s] %s", severity, message)
}
