package sched

import (
	"context"
	"sort"
	"time"
)

// Manual is a Scheduler driven by a virtual clock. Nothing happens until the
// test calls Advance or Flush, and everything runs on the calling goroutine.
//
// Go runs its work inline and queues the continuation, so a fake backend that
// returns immediately behaves like a request that completes between two
// timer firings.
type Manual struct {
	now     time.Time
	seq     int
	timers  []*manualTimer
	pending []func()
	ctx     context.Context
	cancel  context.CancelFunc
}

type manualTimer struct {
	due    time.Time
	period time.Duration
	seq    int
	fn     func()
	task   *Task
}

// NewManual creates a virtual scheduler starting at start.
func NewManual(start time.Time) *Manual {
	ctx, cancel := context.WithCancel(context.Background())
	return &Manual{now: start, ctx: ctx, cancel: cancel}
}

// Now returns the virtual time.
func (m *Manual) Now() time.Time {
	return m.now
}

// Every schedules fn every d of virtual time.
func (m *Manual) Every(d time.Duration, fn func()) *Task {
	return m.add(d, d, fn)
}

// After schedules fn once after d of virtual time.
func (m *Manual) After(d time.Duration, fn func()) *Task {
	return m.add(d, 0, fn)
}

// Post queues fn; it runs on the next Flush or Advance.
func (m *Manual) Post(fn func()) {
	m.pending = append(m.pending, fn)
}

// Go runs work immediately and queues its continuation.
func (m *Manual) Go(work func(ctx context.Context) func()) {
	if cont := work(m.ctx); cont != nil {
		m.pending = append(m.pending, cont)
	}
}

// Flush runs queued callbacks, including any they queue, at the current time.
func (m *Manual) Flush() {
	for len(m.pending) > 0 {
		fn := m.pending[0]
		m.pending = m.pending[1:]
		fn()
	}
}

// Advance moves the clock forward by d, firing due timers in order and
// flushing queued callbacks after each one.
func (m *Manual) Advance(d time.Duration) {
	m.Flush()
	target := m.now.Add(d)

	for {
		t := m.popDue(target)
		if t == nil {
			break
		}
		m.now = t.due
		if t.period > 0 {
			t.due = t.due.Add(t.period)
			m.insert(t)
		}
		t.fn()
		m.Flush()
	}

	m.now = target
	m.Flush()
}

// ActiveTasks returns the number of timers that are still scheduled.
func (m *Manual) ActiveTasks() int {
	n := 0
	for _, t := range m.timers {
		if !t.task.Stopped() {
			n++
		}
	}
	return n
}

// Close stops all timers, drops queued callbacks, and cancels the context
// handed to Go work.
func (m *Manual) Close() {
	for _, t := range m.timers {
		t.task.Stop()
	}
	m.timers = nil
	m.pending = nil
	m.cancel()
}

func (m *Manual) add(d, period time.Duration, fn func()) *Task {
	m.seq++
	t := &manualTimer{
		due:    m.now.Add(d),
		period: period,
		seq:    m.seq,
		fn:     fn,
		task:   &Task{},
	}
	m.insert(t)
	return t.task
}

func (m *Manual) insert(t *manualTimer) {
	i := sort.Search(len(m.timers), func(i int) bool {
		o := m.timers[i]
		if o.due.Equal(t.due) {
			return o.seq > t.seq
		}
		return o.due.After(t.due)
	})
	m.timers = append(m.timers, nil)
	copy(m.timers[i+1:], m.timers[i:])
	m.timers[i] = t
}

// popDue removes and returns the earliest live timer due at or before target.
func (m *Manual) popDue(target time.Time) *manualTimer {
	for len(m.timers) > 0 {
		t := m.timers[0]
		if t.task.Stopped() {
			m.timers = m.timers[1:]
			continue
		}
		if t.due.After(target) {
			return nil
		}
		m.timers = m.timers[1:]
		return t
	}
	return nil
}
