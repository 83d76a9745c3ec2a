package stats

import (
	"context"
	"sync"
	"time"

	"github.com/rileyhilliard/dockstat/internal/errors"
	"github.com/rileyhilliard/dockstat/internal/logger"
	"github.com/rileyhilliard/dockstat/internal/sched"
)

var t0 = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func ent(id string, cpu float64, refreshed time.Time) Entity {
	return Entity{ID: id, Name: "c-" + id, Status: "running", CPUPercent: cpu, RefreshTimestamp: refreshed}
}

func snap(ts time.Time, entities ...Entity) Snapshot {
	if entities == nil {
		entities = []Entity{}
	}
	return Snapshot{Entities: entities, CacheTimestamp: ts}
}

func errCode(code string) error {
	return errors.New(code, "fake "+code, "")
}

type snapshotReply struct {
	snap Snapshot
	err  error
}

type systemReply struct {
	metric SystemMetric
	err    error
}

// fakeSource replays scripted replies in order. The last reply repeats once
// the script runs out.
type fakeSource struct {
	mu sync.Mutex

	snapshots     []snapshotReply
	snapshotCalls int

	refreshErr   error
	refreshCalls int

	systems     []systemReply
	systemCalls int
}

func (f *fakeSource) queueSnapshots(replies ...snapshotReply) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snapshots = append(f.snapshots, replies...)
}

func (f *fakeSource) queueSystems(replies ...systemReply) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.systems = append(f.systems, replies...)
}

func (f *fakeSource) Snapshot(ctx context.Context) (Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snapshotCalls++
	if len(f.snapshots) == 0 {
		return Snapshot{}, errCode(errors.ErrNetwork)
	}
	r := f.snapshots[0]
	if len(f.snapshots) > 1 {
		f.snapshots = f.snapshots[1:]
	}
	return r.snap, r.err
}

func (f *fakeSource) TriggerRefresh(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshCalls++
	return f.refreshErr
}

func (f *fakeSource) System(ctx context.Context) (SystemMetric, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.systemCalls++
	if len(f.systems) == 0 {
		return SystemMetric{}, errCode(errors.ErrNetwork)
	}
	r := f.systems[0]
	if len(f.systems) > 1 {
		f.systems = f.systems[1:]
	}
	return r.metric, r.err
}

func (f *fakeSource) calls() (snapshot, refresh, system int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshotCalls, f.refreshCalls, f.systemCalls
}

type applyCall struct {
	ids  []string
	cpu  map[string]float64
	diff Diff
}

// recordingSurface keeps everything it is shown.
type recordingSurface struct {
	mu         sync.Mutex
	applies    []applyCall
	countdowns [][]Countdown
	systems    []SystemStatus
	refreshing []bool
}

func (s *recordingSurface) Apply(entities []*Entity, diff Diff) {
	s.mu.Lock()
	defer s.mu.Unlock()
	call := applyCall{cpu: make(map[string]float64), diff: diff}
	for _, e := range entities {
		call.ids = append(call.ids, e.ID)
		call.cpu[e.ID] = e.CPUPercent
	}
	s.applies = append(s.applies, call)
}

func (s *recordingSurface) ApplyCountdowns(c []Countdown) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.countdowns = append(s.countdowns, c)
}

func (s *recordingSurface) ApplySystem(status SystemStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.systems = append(s.systems, status)
}

func (s *recordingSurface) SetRefreshing(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshing = append(s.refreshing, active)
}

func (s *recordingSurface) lastApply() applyCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.applies) == 0 {
		return applyCall{}
	}
	return s.applies[len(s.applies)-1]
}

func (s *recordingSurface) lastSystem() SystemStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.systems) == 0 {
		return SystemStatus{}
	}
	return s.systems[len(s.systems)-1]
}

func (s *recordingSurface) lastCountdowns() []Countdown {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.countdowns) == 0 {
		return nil
	}
	return s.countdowns[len(s.countdowns)-1]
}

type notification struct {
	message  string
	severity Severity
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []notification
}

func (n *recordingNotifier) Notify(message string, severity Severity) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, notification{message: message, severity: severity})
}

func (n *recordingNotifier) count(severity Severity) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	c := 0
	for _, s := range n.sent {
		if s.severity == severity {
			c++
		}
	}
	return c
}

// harness bundles the collaborators most tests need.
type harness struct {
	clock    *sched.Manual
	source   *fakeSource
	state    *State
	surface  *recordingSurface
	notifier *recordingNotifier
	log      *logger.BufferLogger
	cache    *CacheClient
}

func newHarness() *harness {
	h := &harness{
		clock:    sched.NewManual(t0),
		source:   &fakeSource{},
		state:    NewState(),
		surface:  &recordingSurface{},
		notifier: &recordingNotifier{},
		log:      logger.NewBufferLogger(),
	}
	h.cache = NewCacheClient(h.clock, h.source, h.state, h.log)
	return h
}

// seed applies s as if it were the first load.
func (h *harness) seed(s Snapshot) {
	token := h.state.nextGeneration()
	h.state.Apply(LoadResult{Token: token, Snapshot: s}, true)
}
