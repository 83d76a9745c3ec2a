package sched

import (
	"context"
	"sync"
	"time"
)

// Loop is the real-time Scheduler. Callbacks run on the goroutine calling Run.
type Loop struct {
	mu      sync.Mutex
	pending []func()
	tasks   map[*Task]struct{}
	closed  bool

	wake    chan struct{}
	closing chan struct{}
	exited  chan struct{}
	running bool

	ctx    context.Context
	cancel context.CancelFunc
	work   sync.WaitGroup
}

// NewLoop creates a loop. Call Run (or Start) to begin processing callbacks.
func NewLoop() *Loop {
	ctx, cancel := context.WithCancel(context.Background())
	return &Loop{
		tasks:   make(map[*Task]struct{}),
		wake:    make(chan struct{}, 1),
		closing: make(chan struct{}),
		exited:  make(chan struct{}),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Now returns the wall clock time.
func (l *Loop) Now() time.Time {
	return time.Now()
}

// Start runs the loop in a background goroutine.
func (l *Loop) Start() {
	go func() { _ = l.Run(context.Background()) }()
}

// Run processes callbacks until ctx is done or Close is called.
func (l *Loop) Run(ctx context.Context) error {
	l.mu.Lock()
	if l.running || l.closed {
		l.mu.Unlock()
		return nil
	}
	l.running = true
	l.mu.Unlock()
	defer close(l.exited)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.closing:
			return nil
		case <-l.wake:
		}

		l.mu.Lock()
		batch := l.pending
		l.pending = nil
		l.mu.Unlock()

		for _, fn := range batch {
			select {
			case <-l.closing:
				return nil
			default:
			}
			fn()
		}
	}
}

// Post queues fn to run on the loop. Posts after Close are dropped.
func (l *Loop) Post(fn func()) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.pending = append(l.pending, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Every runs fn on the loop every d.
func (l *Loop) Every(d time.Duration, fn func()) *Task {
	t := &Task{}
	stopCh := make(chan struct{})
	t.onStop = func() {
		close(stopCh)
		l.forget(t)
	}
	if !l.track(t) {
		return t
	}

	ticker := time.NewTicker(d)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				l.Post(func() {
					if !t.Stopped() {
						fn()
					}
				})
			case <-stopCh:
				return
			case <-l.closing:
				return
			}
		}
	}()
	return t
}

// After runs fn on the loop once after d.
func (l *Loop) After(d time.Duration, fn func()) *Task {
	t := &Task{}
	timer := time.AfterFunc(d, func() {
		l.Post(func() {
			if t.Stopped() {
				return
			}
			l.forget(t)
			fn()
		})
	})
	t.onStop = func() {
		timer.Stop()
		l.forget(t)
	}
	if !l.track(t) {
		timer.Stop()
	}
	return t
}

// Go runs work in its own goroutine and posts the continuation.
func (l *Loop) Go(work func(ctx context.Context) func()) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.work.Add(1)
	l.mu.Unlock()

	go func() {
		defer l.work.Done()
		if cont := work(l.ctx); cont != nil {
			l.Post(cont)
		}
	}()
}

// ActiveTasks returns the number of tasks that have not stopped or fired.
func (l *Loop) ActiveTasks() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.tasks)
}

// Close stops every task, cancels in-flight work, and waits for the loop and
// all work goroutines to exit. Safe to call more than once.
func (l *Loop) Close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	running := l.running
	tasks := make([]*Task, 0, len(l.tasks))
	for t := range l.tasks {
		tasks = append(tasks, t)
	}
	l.pending = nil
	l.mu.Unlock()

	for _, t := range tasks {
		t.Stop()
	}
	l.cancel()
	close(l.closing)

	if running {
		<-l.exited
	}
	l.work.Wait()
}

func (l *Loop) track(t *Task) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		t.stopped.Store(true)
		return false
	}
	l.tasks[t] = struct{}{}
	return true
}

func (l *Loop) forget(t *Task) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.tasks, t)
}
