package stats

import (
	"sync/atomic"
	"time"

	"github.com/rileyhilliard/dockstat/internal/errors"
	"github.com/rileyhilliard/dockstat/internal/logger"
	"github.com/rileyhilliard/dockstat/internal/sched"
)

// Config holds the timing knobs for every component.
type Config struct {
	Tick            time.Duration
	CountdownWindow time.Duration
	PollInterval    time.Duration
	PollAttempts    int
	Pulse           PulseOptions
}

// DefaultConfig returns the standard timings.
func DefaultConfig() Config {
	return Config{
		Tick:            time.Second,
		CountdownWindow: 5 * time.Minute,
		PollInterval:    2 * time.Second,
		PollAttempts:    60,
		Pulse: PulseOptions{
			Interval:         5 * time.Second,
			RequestTimeout:   10 * time.Second,
			FallbackLimit:    5,
			RestartThreshold: 10,
			RestartDelay:     5 * time.Second,
		},
	}
}

// withDefaults fills every zero field from DefaultConfig.
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.Tick <= 0 {
		c.Tick = def.Tick
	}
	if c.CountdownWindow <= 0 {
		c.CountdownWindow = def.CountdownWindow
	}
	if c.PollInterval <= 0 {
		c.PollInterval = def.PollInterval
	}
	if c.PollAttempts <= 0 {
		c.PollAttempts = def.PollAttempts
	}
	p := &c.Pulse
	if p.Interval <= 0 {
		p.Interval = def.Pulse.Interval
	}
	if p.RequestTimeout <= 0 {
		p.RequestTimeout = def.Pulse.RequestTimeout
	}
	if p.FallbackLimit <= 0 {
		p.FallbackLimit = def.Pulse.FallbackLimit
	}
	if p.RestartThreshold <= 0 {
		p.RestartThreshold = def.Pulse.RestartThreshold
	}
	if p.RestartDelay <= 0 {
		p.RestartDelay = def.Pulse.RestartDelay
	}
	return c
}

// Options configures a Controller.
type Options struct {
	Scheduler sched.Scheduler
	Source    Source
	Surface   Surface
	Notifier  Notifier

	// Config zero fields take their DefaultConfig values.
	Config Config

	// Logger is shared by every component. When nil each component logs
	// through its own prefixed env logger.
	Logger logger.Logger

	// DisablePulse skips system metrics polling.
	DisablePulse bool
}

// Controller owns the display state and every component that touches it.
// Its exported methods are safe to call from any goroutine; the work itself
// runs on the scheduler's loop.
type Controller struct {
	sched    sched.Scheduler
	state    *State
	surface  Surface
	notifier Notifier
	log      logger.Logger
	noPulse  bool

	cache     *CacheClient
	countdown *CountdownScheduler
	refresh   *RefreshCoordinator
	pulse     *SystemPulse

	// pendingLoad is the token of the Controller's own load in flight, or 0.
	// The countdown skips its check while it is set.
	pendingLoad uint64

	refreshPending atomic.Bool
	refreshOut     chan RefreshOutcome
	stopped        atomic.Bool
}

// NewController wires the components together.
func NewController(opts Options) *Controller {
	surface := opts.Surface
	if surface == nil {
		surface = NopSurface{}
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = NotifierFunc(func(string, Severity) {})
	}
	named := func(prefix string) logger.Logger {
		if opts.Logger != nil {
			return opts.Logger
		}
		return logger.NewEnvLogger(prefix)
	}

	c := &Controller{
		sched:    opts.Scheduler,
		state:    NewState(),
		surface:  surface,
		notifier: notifier,
		log:      named("[stats]"),
		noPulse:  opts.DisablePulse,
	}
	cfg := opts.Config.withDefaults()

	c.cache = NewCacheClient(c.sched, opts.Source, c.state, named("[cache]"))
	c.refresh = NewRefreshCoordinator(c.sched, opts.Source, c.cache, c.state, surface, notifier, named("[refresh]"),
		RefreshOptions{
			PollInterval: cfg.PollInterval,
			MaxAttempts:  cfg.PollAttempts,
			OnDone:       c.refreshDone,
		})
	c.countdown = NewCountdownScheduler(c.sched, c.cache, c.state, surface, notifier, named("[countdown]"),
		CountdownOptions{
			Tick:   cfg.Tick,
			Window: cfg.CountdownWindow,
			Busy:   c.busy,
		})
	c.pulse = NewSystemPulse(c.sched, opts.Source, surface, notifier, named("[pulse]"), cfg.Pulse)
	return c
}

// State returns the display state. Only read it on the loop.
func (c *Controller) State() *State {
	return c.state
}

// Pulse returns the system metrics poller. Only use it on the loop.
func (c *Controller) Pulse() *SystemPulse {
	return c.pulse
}

// Start performs the initial cache-first load and starts the countdown and
// system pulse.
func (c *Controller) Start() {
	c.sched.Post(func() {
		if c.stopped.Load() {
			return
		}
		c.load(true, "initial load")
		c.countdown.Start()
		if !c.noPulse {
			c.pulse.Start()
		}
	})
}

// Reload fetches the cached snapshot and rebuilds the display from it.
// Ignored while a refresh is running.
func (c *Controller) Reload() {
	c.sched.Post(func() {
		if c.stopped.Load() {
			return
		}
		if c.refresh.Active() {
			c.notifier.Notify("Refresh in progress", SeverityInfo)
			return
		}
		c.load(true, "reload")
	})
}

// Refresh starts a refresh cycle. The channel receives one outcome and is
// then closed. Returns ErrRefreshActive if a cycle is already running.
func (c *Controller) Refresh() (<-chan RefreshOutcome, error) {
	if c.stopped.Load() {
		return nil, errors.New(errors.ErrCancelled, "Stats engine stopped", "")
	}
	if !c.refreshPending.CompareAndSwap(false, true) {
		return nil, ErrRefreshActive
	}

	out := make(chan RefreshOutcome, 1)
	c.sched.Post(func() {
		if c.stopped.Load() {
			c.refreshPending.Store(false)
			out <- RefreshOutcome{Result: RefreshFailed, Err: errors.New(errors.ErrCancelled, "Stats engine stopped", "")}
			close(out)
			return
		}
		c.refreshOut = out
		if _, err := c.refresh.Trigger(); err != nil {
			c.refreshOut = nil
			c.refreshPending.Store(false)
			out <- RefreshOutcome{Result: RefreshFailed, Err: err}
			close(out)
		}
	})
	return out, nil
}

// RefreshActive reports whether a refresh has been requested and not finished.
func (c *Controller) RefreshActive() bool {
	return c.refreshPending.Load()
}

// RestartPulse resumes system polling after the session was renewed.
func (c *Controller) RestartPulse() {
	c.sched.Post(func() {
		if c.stopped.Load() || c.noPulse {
			return
		}
		c.pulse.Start()
	})
}

// Stop tears down every timer. The returned channel is closed once teardown
// has run on the loop.
func (c *Controller) Stop() <-chan struct{} {
	done := make(chan struct{})
	if !c.stopped.CompareAndSwap(false, true) {
		close(done)
		return done
	}
	c.sched.Post(func() {
		c.countdown.Stop()
		c.refresh.Stop()
		c.pulse.Stop()
		c.log.Debug("stopped")
		close(done)
	})
	return done
}

// busy reports whether a refresh cycle or a Controller load owns loading.
func (c *Controller) busy() bool {
	return c.refresh.Active() || c.pendingLoad != 0
}

func (c *Controller) refreshDone(outcome RefreshOutcome) {
	if c.refreshOut != nil {
		c.refreshOut <- outcome
		close(c.refreshOut)
		c.refreshOut = nil
	}
	c.refreshPending.Store(false)
}

// load fetches a snapshot and applies it, rebuilding when full is set.
func (c *Controller) load(full bool, why string) {
	c.pendingLoad = c.cache.Load(func(res LoadResult) {
		if c.pendingLoad == res.Token {
			c.pendingLoad = 0
		}
		if res.Err != nil {
			switch errors.CodeOf(res.Err) {
			case errors.ErrCancelled:
				c.log.Debug("%s superseded", why)
			case errors.ErrRateLimited:
				c.log.Info("%s rate limited, the countdown will retry", why)
			default:
				c.log.Error("%s failed: %s", why, errors.Describe(res.Err))
				c.notifier.Notify(errors.Describe(res.Err), SeverityError)
			}
			return
		}

		diff, ok := c.state.Apply(res, full)
		if !ok {
			return
		}
		c.log.Debug("%s applied %d containers", why, c.state.Entities.Len())
		publish(c.surface, c.state, diff)
		c.surface.ApplyCountdowns(c.countdown.Countdowns())
		if res.Snapshot.Error != "" {
			c.notifier.Notify(res.Snapshot.Error, SeverityWarning)
		}
	})
}
