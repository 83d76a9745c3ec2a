package stats

import (
	"fmt"
	"time"

	"github.com/rileyhilliard/dockstat/internal/errors"
	"github.com/rileyhilliard/dockstat/internal/logger"
	"github.com/rileyhilliard/dockstat/internal/sched"
)

// Remaining returns how long until an entity refreshed at refreshed is due,
// never less than zero.
func Remaining(window time.Duration, now, refreshed time.Time) time.Duration {
	left := window - now.Sub(refreshed)
	if left < 0 {
		return 0
	}
	return left
}

// FormatCountdown renders d as mm:ss, truncating to whole seconds.
func FormatCountdown(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int(d / time.Second)
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}

// CountdownOptions configures a CountdownScheduler.
type CountdownOptions struct {
	Tick   time.Duration
	Window time.Duration

	// Busy reports whether another component owns snapshot loading right now.
	// The opportunistic check is skipped while it returns true.
	Busy func() bool
}

// CountdownScheduler publishes per-entity countdowns every tick and, when any
// entity is due, checks the server for a newer snapshot. At most one check
// runs per tick no matter how many entities are due.
type CountdownScheduler struct {
	sched    sched.Scheduler
	cache    *CacheClient
	state    *State
	surface  Surface
	notifier Notifier
	log      logger.Logger
	opts     CountdownOptions

	task     *sched.Task
	checking bool

	// lastReported suppresses repeat notifications for the same failure.
	lastReported string
}

// NewCountdownScheduler creates a countdown scheduler. Call Start to begin ticking.
func NewCountdownScheduler(s sched.Scheduler, cache *CacheClient, state *State, surface Surface, notifier Notifier, log logger.Logger, opts CountdownOptions) *CountdownScheduler {
	if log == nil {
		log = logger.NewEnvLogger("[countdown]")
	}
	return &CountdownScheduler{
		sched:    s,
		cache:    cache,
		state:    state,
		surface:  surface,
		notifier: notifier,
		log:      log,
		opts:     opts,
	}
}

// Start begins ticking. Calling Start twice has no effect.
func (c *CountdownScheduler) Start() {
	if c.task != nil && !c.task.Stopped() {
		return
	}
	c.task = c.sched.Every(c.opts.Tick, c.Tick)
}

// Stop halts ticking. A check already in flight still completes.
func (c *CountdownScheduler) Stop() {
	c.task.Stop()
}

// Countdowns computes the current countdown for every displayed entity.
func (c *CountdownScheduler) Countdowns() []Countdown {
	now := c.sched.Now()
	entities := c.state.Entities.Entities()
	out := make([]Countdown, 0, len(entities))
	for _, e := range entities {
		out = append(out, Countdown{
			ID:        e.ID,
			Remaining: Remaining(c.opts.Window, now, e.RefreshTimestamp),
		})
	}
	return out
}

// Tick publishes countdowns and starts a check if anything is due.
func (c *CountdownScheduler) Tick() {
	countdowns := c.Countdowns()
	c.surface.ApplyCountdowns(countdowns)

	due := !c.state.Loaded()
	for _, cd := range countdowns {
		if cd.Remaining == 0 {
			due = true
			break
		}
	}
	if due {
		c.check()
	}
}

func (c *CountdownScheduler) check() {
	if c.checking {
		c.log.Debug("check skipped: previous check still running")
		return
	}
	if c.opts.Busy != nil && c.opts.Busy() {
		c.log.Debug("check skipped: refresh in progress")
		return
	}

	c.checking = true
	c.cache.Load(func(res LoadResult) {
		c.checking = false
		c.handle(res)
	})
}

func (c *CountdownScheduler) handle(res LoadResult) {
	if res.Err != nil {
		code := errors.CodeOf(res.Err)
		switch {
		case code == errors.ErrCancelled:
			c.log.Debug("check superseded")
		case !errors.IsTransient(res.Err):
			c.log.Error("check failed: %s", errors.Describe(res.Err))
			if c.lastReported != code {
				c.notifier.Notify(errors.Describe(res.Err), SeverityError)
			}
			c.lastReported = code
		default:
			c.log.Warn("check failed, will retry next tick: %s", errors.Describe(res.Err))
		}
		return
	}
	c.lastReported = ""

	if c.state.Loaded() && res.Snapshot.CacheTimestamp.Equal(c.state.CacheTimestamp) {
		c.log.Debug("server snapshot unchanged (%s)", res.Snapshot.CacheTimestamp.Format(time.RFC3339))
		return
	}

	full := !c.state.Loaded()
	diff, ok := c.state.Apply(res, full)
	if !ok {
		return
	}
	c.log.Debug("applied snapshot %s: +%d ~%d -%d",
		res.Snapshot.CacheTimestamp.Format(time.RFC3339), len(diff.Added), len(diff.Updated), len(diff.Removed))
	publish(c.surface, c.state, diff)
	c.surface.ApplyCountdowns(c.Countdowns())
}
