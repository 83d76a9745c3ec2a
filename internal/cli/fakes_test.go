package cli

import (
	"context"
	"sync"
	"time"

	"github.com/rileyhilliard/dockstat/internal/stats"
)

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

// fakeSource serves a fixed snapshot. TriggerRefresh swaps in next, if set.
type fakeSource struct {
	mu sync.Mutex

	snapshot stats.Snapshot
	snapErr  error
	next     *stats.Snapshot

	system stats.SystemMetric
	sysErr error

	triggerErr error
	triggers   int
}

func (f *fakeSource) Snapshot(ctx context.Context) (stats.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.snapErr != nil {
		return stats.Snapshot{}, f.snapErr
	}
	return f.snapshot, nil
}

func (f *fakeSource) TriggerRefresh(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.triggers++
	if f.triggerErr != nil {
		return f.triggerErr
	}
	if f.next != nil {
		f.snapshot = *f.next
		f.next = nil
	}
	return nil
}

func (f *fakeSource) System(ctx context.Context) (stats.SystemMetric, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.system, f.sysErr
}

func (f *fakeSource) triggerCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.triggers
}

func entity(id, name string, cpu float64) stats.Entity {
	return stats.Entity{
		ID:               id,
		Name:             name,
		Image:            name + ":latest",
		Status:           "running",
		CPUPercent:       cpu,
		MemoryUsedMB:     128,
		MemoryTotalMB:    1024,
		MemoryPercent:    12.5,
		NetworkIO:        "1.2kB / 3.4kB",
		BlockIO:          "0B / 0B",
		RefreshTimestamp: t0.Add(-time.Minute),
	}
}

// withMachineMode sets machineMode for the duration of a test.
func withMachineMode(t interface{ Cleanup(func()) }, on bool) {
	old := machineMode
	machineMode = on
	t.Cleanup(func() { machineMode = old })
}
