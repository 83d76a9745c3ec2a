// Package sched provides the single event loop that every stats component runs on.
//
// All state mutation happens inside callbacks executed one at a time by a
// Scheduler, so components never need locks. Blocking work (HTTP calls) runs
// through Go, off the loop, and only its returned continuation touches state.
//
// Two implementations exist:
//
//	Loop   - real clock, one goroutine, used by the CLI
//	Manual - virtual clock advanced explicitly, used by tests
package sched

import (
	"context"
	"sync/atomic"
	"time"
)

// Scheduler issues periodic and one-shot callbacks and serializes them with
// posted work and async continuations.
type Scheduler interface {
	// Now returns the scheduler's current time.
	Now() time.Time

	// Every runs fn every d, first after d, until the task is stopped.
	Every(d time.Duration, fn func()) *Task

	// After runs fn once after d unless the task is stopped first.
	After(d time.Duration, fn func()) *Task

	// Post runs fn on the loop as soon as possible.
	Post(fn func())

	// Go runs work off the loop. The continuation it returns (if non-nil)
	// runs on the loop. The context is cancelled when the scheduler closes.
	Go(work func(ctx context.Context) func())
}

// Task is a handle to a scheduled callback.
type Task struct {
	stopped atomic.Bool
	onStop  func()
}

// Stop cancels the task. A callback already queued on the loop will not run.
// Safe to call more than once and on a nil task.
func (t *Task) Stop() {
	if t == nil {
		return
	}
	if t.stopped.CompareAndSwap(false, true) && t.onStop != nil {
		t.onStop()
	}
}

// Stopped reports whether Stop has been called.
func (t *Task) Stopped() bool {
	return t != nil && t.stopped.Load()
}
