package stats

import (
	"context"
	"time"

	"github.com/looplab/fsm"

	"github.com/rileyhilliard/dockstat/internal/errors"
	"github.com/rileyhilliard/dockstat/internal/logger"
	"github.com/rileyhilliard/dockstat/internal/sched"
)

// SystemPulse states.
const (
	PulseIdle       = "idle"
	PulsePolling    = "polling"
	PulseRestarting = "restarting"
	PulseStopped    = "stopped"
)

// SystemPulse events.
const (
	pulseEventStart   = "start"
	pulseEventRestart = "restart"
	pulseEventResume  = "resume"
	pulseEventExpire  = "expire"
	pulseEventHalt    = "halt"
)

// PulseOptions configures a SystemPulse.
type PulseOptions struct {
	Interval       time.Duration
	RequestTimeout time.Duration

	// FallbackLimit is the number of consecutive failures for which the last
	// good metric is still shown, marked stale.
	FallbackLimit int

	// RestartThreshold is the number of consecutive failures that triggers a
	// restart.
	RestartThreshold int
	RestartDelay     time.Duration
}

// SystemPulse polls host metrics independently of the container snapshot.
//
// Consecutive failures fall back to the cached metric, then to an error, and
// after RestartThreshold failures the poller pauses for RestartDelay and
// starts over. A 401 stops polling until Start is called again.
type SystemPulse struct {
	sched    sched.Scheduler
	source   SystemSource
	surface  Surface
	notifier Notifier
	log      logger.Logger
	opts     PulseOptions

	machine *fsm.FSM
	ticker  *sched.Task
	resume  *sched.Task

	failures int
	cached   *SystemMetric

	// epoch changes whenever polling stops or restarts, so fetches started
	// before the change are ignored.
	epoch uint64
	// issued and applied are request sequence numbers; a response older than
	// the newest applied one is dropped.
	issued  uint64
	applied uint64
}

// NewSystemPulse creates a pulse in the idle state.
func NewSystemPulse(s sched.Scheduler, source SystemSource, surface Surface, notifier Notifier, log logger.Logger, opts PulseOptions) *SystemPulse {
	if log == nil {
		log = logger.NewEnvLogger("[pulse]")
	}
	p := &SystemPulse{
		sched:    s,
		source:   source,
		surface:  surface,
		notifier: notifier,
		log:      log,
		opts:     opts,
	}

	p.machine = fsm.NewFSM(
		PulseIdle,
		fsm.Events{
			{Name: pulseEventStart, Src: []string{PulseIdle, PulseStopped}, Dst: PulsePolling},
			{Name: pulseEventRestart, Src: []string{PulsePolling}, Dst: PulseRestarting},
			{Name: pulseEventResume, Src: []string{PulseRestarting}, Dst: PulsePolling},
			{Name: pulseEventExpire, Src: []string{PulsePolling}, Dst: PulseStopped},
			{Name: pulseEventHalt, Src: []string{PulsePolling, PulseRestarting, PulseStopped}, Dst: PulseIdle},
		},
		fsm.Callbacks{
			"enter_state": func(_ context.Context, e *fsm.Event) {
				p.log.Debug("%s -> %s (%s)", e.Src, e.Dst, e.Event)
			},
		},
	)
	return p
}

// State returns the current state name.
func (p *SystemPulse) State() string {
	return p.machine.Current()
}

// Failures returns the consecutive failure count.
func (p *SystemPulse) Failures() int {
	return p.failures
}

// Start begins polling from idle, or resumes after a session expiry.
func (p *SystemPulse) Start() {
	if !p.fire(pulseEventStart) {
		return
	}
	p.failures = 0
	p.beginPolling()
}

// Stop halts polling and returns to idle.
func (p *SystemPulse) Stop() {
	p.cancelTimers()
	p.epoch++
	p.fire(pulseEventHalt)
}

func (p *SystemPulse) fire(event string) bool {
	if !p.machine.Can(event) {
		p.log.Debug("ignoring %s in state %s", event, p.machine.Current())
		return false
	}
	if err := p.machine.Event(context.Background(), event); err != nil {
		p.log.Warn("transition %s failed: %v", event, err)
		return false
	}
	return true
}

func (p *SystemPulse) cancelTimers() {
	p.ticker.Stop()
	p.ticker = nil
	p.resume.Stop()
	p.resume = nil
}

func (p *SystemPulse) beginPolling() {
	p.epoch++
	p.fetch()
	p.ticker = p.sched.Every(p.opts.Interval, p.fetch)
}

func (p *SystemPulse) fetch() {
	if p.machine.Current() != PulsePolling {
		return
	}

	p.issued++
	seq, epoch := p.issued, p.epoch
	timeout := p.opts.RequestTimeout

	p.sched.Go(func(ctx context.Context) func() {
		reqCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		metric, err := p.source.System(reqCtx)
		return func() { p.handle(seq, epoch, metric, err) }
	})
}

func (p *SystemPulse) handle(seq, epoch uint64, metric SystemMetric, err error) {
	if epoch != p.epoch || p.machine.Current() != PulsePolling {
		p.log.Debug("dropping fetch #%d from a previous polling run", seq)
		return
	}
	if seq < p.applied {
		p.log.Debug("dropping fetch #%d, #%d already applied", seq, p.applied)
		return
	}
	p.applied = seq

	if err == nil {
		p.failures = 0
		p.cached = &metric
		p.surface.ApplySystem(SystemStatus{Metric: p.cached})
		return
	}

	if errors.IsCode(err, errors.ErrUnauthorized) {
		p.expire(err)
		return
	}

	p.failures++
	p.log.Warn("system fetch failed (%d in a row): %s", p.failures, errors.Describe(err))

	if p.failures >= p.opts.RestartThreshold {
		p.restart(err)
		return
	}

	if p.failures < p.opts.FallbackLimit && p.cached != nil {
		p.surface.ApplySystem(SystemStatus{Metric: p.cached, Stale: true, Err: err})
		return
	}
	p.surface.ApplySystem(SystemStatus{Err: err})
}

func (p *SystemPulse) expire(err error) {
	p.cancelTimers()
	p.epoch++
	if !p.fire(pulseEventExpire) {
		return
	}
	p.log.Error("session expired, system polling stopped")
	p.surface.ApplySystem(SystemStatus{Metric: p.cached, Stale: p.cached != nil, Err: err, SessionExpired: true})
	p.notifier.Notify(errors.Describe(err), SeverityError)
}

func (p *SystemPulse) restart(err error) {
	p.cancelTimers()
	p.epoch++
	p.failures = 0
	if !p.fire(pulseEventRestart) {
		return
	}
	p.log.Warn("restarting system polling in %s", p.opts.RestartDelay)
	p.surface.ApplySystem(SystemStatus{Err: err, Restarting: true})

	p.resume = p.sched.After(p.opts.RestartDelay, func() {
		p.resume = nil
		if p.fire(pulseEventResume) {
			p.beginPolling()
		}
	})
}
