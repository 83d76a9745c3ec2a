package stats

import (
	"context"
	"fmt"
	"time"

	"github.com/rileyhilliard/dockstat/internal/errors"
	"github.com/rileyhilliard/dockstat/internal/logger"
	"github.com/rileyhilliard/dockstat/internal/sched"
)

// ErrRefreshActive is returned when a refresh is requested while one is
// already running.
var ErrRefreshActive = errors.New(errors.ErrRefresh,
	"A refresh is already running",
	"Wait for the current refresh to finish")

// RefreshResult is how a refresh cycle ended.
type RefreshResult int

const (
	// RefreshSuccess means a new snapshot was applied.
	RefreshSuccess RefreshResult = iota + 1
	// RefreshTimeout means every poll returned the old snapshot.
	RefreshTimeout
	// RefreshFailed means the cycle hit an error it cannot recover from.
	RefreshFailed
)

func (r RefreshResult) String() string {
	switch r {
	case RefreshSuccess:
		return "success"
	case RefreshTimeout:
		return "timeout"
	case RefreshFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// RefreshOutcome reports the end of a refresh cycle.
type RefreshOutcome struct {
	Result RefreshResult

	// Attempts is the number of polls issued.
	Attempts int

	// Err is set for RefreshFailed and RefreshTimeout.
	Err error
}

// RefreshOptions configures a RefreshCoordinator.
type RefreshOptions struct {
	PollInterval time.Duration
	MaxAttempts  int

	// OnDone, if set, is called on the loop when a cycle ends.
	OnDone func(RefreshOutcome)
}

// RefreshCoordinator runs user-requested refresh cycles: ask the server to
// recompute, then poll the cache until the snapshot timestamp changes or the
// attempt bound is reached. Only one cycle runs at a time.
type RefreshCoordinator struct {
	sched    sched.Scheduler
	source   SnapshotSource
	cache    *CacheClient
	state    *State
	surface  Surface
	notifier Notifier
	log      logger.Logger
	opts     RefreshOptions

	cycle *refreshCycle
}

type refreshCycle struct {
	baseline time.Time
	attempts int
	polling  bool
	task     *sched.Task
	out      chan RefreshOutcome
}

// NewRefreshCoordinator creates a coordinator.
func NewRefreshCoordinator(s sched.Scheduler, source SnapshotSource, cache *CacheClient, state *State, surface Surface, notifier Notifier, log logger.Logger, opts RefreshOptions) *RefreshCoordinator {
	if log == nil {
		log = logger.NewEnvLogger("[refresh]")
	}
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}
	return &RefreshCoordinator{
		sched:    s,
		source:   source,
		cache:    cache,
		state:    state,
		surface:  surface,
		notifier: notifier,
		log:      log,
		opts:     opts,
	}
}

// Active reports whether a cycle is running.
func (r *RefreshCoordinator) Active() bool {
	return r.cycle != nil
}

// Trigger starts a refresh cycle. The returned channel receives exactly one
// outcome and is then closed. Returns ErrRefreshActive if a cycle is running.
func (r *RefreshCoordinator) Trigger() (<-chan RefreshOutcome, error) {
	if r.cycle != nil {
		return nil, ErrRefreshActive
	}

	cyc := &refreshCycle{out: make(chan RefreshOutcome, 1)}
	r.cycle = cyc
	r.surface.SetRefreshing(true)

	if r.state.Loaded() {
		r.post(cyc, r.state.CacheTimestamp)
		return cyc.out, nil
	}

	// Nothing shown yet, so there is no baseline to compare against. Load the
	// current snapshot first and use its timestamp.
	r.log.Debug("no snapshot applied yet, loading baseline")
	r.cache.Load(func(res LoadResult) {
		if r.cycle != cyc {
			return
		}
		if res.Err != nil {
			r.fail(cyc, res.Err)
			return
		}
		if diff, ok := r.state.Apply(res, true); ok {
			publish(r.surface, r.state, diff)
		}
		r.post(cyc, res.Snapshot.CacheTimestamp)
	})
	return cyc.out, nil
}

// post asks the server to recompute, then starts polling.
func (r *RefreshCoordinator) post(cyc *refreshCycle, baseline time.Time) {
	cyc.baseline = baseline
	r.log.Info("requesting recompute (baseline %s)", baseline.Format(time.RFC3339))

	r.sched.Go(func(ctx context.Context) func() {
		err := r.source.TriggerRefresh(ctx)
		return func() {
			if r.cycle != cyc {
				return
			}
			if err != nil {
				if errors.IsCode(err, errors.ErrRateLimited) {
					// The server is already recomputing; poll for that result.
					r.log.Info("recompute request rate limited, polling anyway")
				} else {
					r.fail(cyc, err)
					return
				}
			}
			r.poll(cyc)
			if r.cycle == cyc {
				cyc.task = r.sched.Every(r.opts.PollInterval, func() { r.poll(cyc) })
			}
		}
	})
}

func (r *RefreshCoordinator) poll(cyc *refreshCycle) {
	if r.cycle != cyc || cyc.polling || cyc.attempts >= r.opts.MaxAttempts {
		return
	}

	cyc.attempts++
	attempt := cyc.attempts
	cyc.polling = true
	r.cache.Load(func(res LoadResult) {
		cyc.polling = false
		if r.cycle != cyc {
			return
		}
		r.handlePoll(cyc, attempt, res)
	})
}

func (r *RefreshCoordinator) handlePoll(cyc *refreshCycle, attempt int, res LoadResult) {
	if res.Err == nil {
		if !res.Snapshot.CacheTimestamp.Equal(cyc.baseline) {
			diff, ok := r.state.Apply(res, true)
			if ok {
				publish(r.surface, r.state, diff)
				r.log.Info("new snapshot after %d poll(s)", attempt)
				r.notifier.Notify(fmt.Sprintf("Stats refreshed (%d containers)", r.state.Entities.Len()), SeveritySuccess)
				r.finish(cyc, RefreshOutcome{Result: RefreshSuccess, Attempts: attempt})
				return
			}
		}
		r.log.Debug("poll %d/%d: snapshot unchanged", attempt, r.opts.MaxAttempts)
	} else {
		switch {
		case !errors.IsTransient(res.Err):
			r.fail(cyc, res.Err)
			return
		case errors.IsCode(res.Err, errors.ErrRateLimited):
			r.log.Debug("poll %d/%d: rate limited", attempt, r.opts.MaxAttempts)
		default:
			r.log.Warn("poll %d/%d failed: %s", attempt, r.opts.MaxAttempts, errors.Describe(res.Err))
		}
	}

	if attempt >= r.opts.MaxAttempts {
		err := errors.New(errors.ErrRefresh,
			fmt.Sprintf("Server did not produce new stats after %d checks", attempt),
			"The server may still be recomputing. Try again shortly.")
		r.log.Warn("giving up after %d polls", attempt)
		r.notifier.Notify(err.Message, SeverityWarning)
		r.finish(cyc, RefreshOutcome{Result: RefreshTimeout, Attempts: attempt, Err: err})
	}
}

func (r *RefreshCoordinator) fail(cyc *refreshCycle, err error) {
	r.log.Error("refresh failed: %s", errors.Describe(err))
	r.notifier.Notify(errors.Describe(err), SeverityError)
	r.finish(cyc, RefreshOutcome{Result: RefreshFailed, Attempts: cyc.attempts, Err: err})
}

func (r *RefreshCoordinator) finish(cyc *refreshCycle, outcome RefreshOutcome) {
	cyc.task.Stop()
	r.cycle = nil
	r.surface.SetRefreshing(false)

	cyc.out <- outcome
	close(cyc.out)
	if r.opts.OnDone != nil {
		r.opts.OnDone(outcome)
	}
}

// Stop abandons a running cycle. Its outcome is RefreshFailed with a
// CANCELLED error.
func (r *RefreshCoordinator) Stop() {
	if r.cycle == nil {
		return
	}
	r.log.Debug("refresh cancelled")
	r.finish(r.cycle, RefreshOutcome{
		Result:   RefreshFailed,
		Attempts: r.cycle.attempts,
		Err:      errors.New(errors.ErrCancelled, "Refresh cancelled", ""),
	})
}
