package stats

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rileyhilliard/dockstat/internal/errors"
)

func TestFormatCountdown(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{5 * time.Minute, "05:00"},
		{4*time.Minute + 59*time.Second + 900*time.Millisecond, "04:59"},
		{61 * time.Second, "01:01"},
		{9 * time.Second, "00:09"},
		{0, "00:00"},
		{-3 * time.Second, "00:00"},
		{75 * time.Minute, "75:00"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatCountdown(tt.in))
		})
	}
	assert.Equal(t, "00:30", Countdown{Remaining: 30 * time.Second}.Label())
}

func TestRemaining(t *testing.T) {
	window := 5 * time.Minute
	assert.Equal(t, window, Remaining(window, t0, t0))
	assert.Equal(t, 4*time.Minute, Remaining(window, t0.Add(time.Minute), t0))
	assert.Equal(t, time.Duration(0), Remaining(window, t0.Add(5*time.Minute), t0))
	assert.Equal(t, time.Duration(0), Remaining(window, t0.Add(time.Hour), t0))
}

func newCountdown(h *harness, window time.Duration, busy func() bool) *CountdownScheduler {
	return NewCountdownScheduler(h.clock, h.cache, h.state, h.surface, h.notifier, h.log, CountdownOptions{
		Tick:   time.Second,
		Window: window,
		Busy:   busy,
	})
}

func TestCountdown_MonotonicThenResets(t *testing.T) {
	h := newHarness()
	window := 5 * time.Second
	h.seed(snap(t0, ent("1", 10, t0)))

	// At expiry the server has a newer snapshot in which the entity was re-measured.
	refreshedAt := t0.Add(5 * time.Second)
	h.source.queueSnapshots(snapshotReply{snap: snap(t0.Add(5*time.Second), ent("1", 12, refreshedAt))})

	c := newCountdown(h, window, nil)
	c.Start()

	var seen []time.Duration
	for i := 0; i < 4; i++ {
		h.clock.Advance(time.Second)
		cds := h.surface.lastCountdowns()
		require.Len(t, cds, 1)
		seen = append(seen, cds[0].Remaining)
	}
	for i := 1; i < len(seen); i++ {
		assert.LessOrEqual(t, seen[i], seen[i-1], "countdown must not increase between refreshes")
	}
	snapshots, _, _ := h.source.calls()
	assert.Equal(t, 0, snapshots, "nothing is due yet")

	h.clock.Advance(time.Second)

	snapshots, _, _ = h.source.calls()
	assert.Equal(t, 1, snapshots)
	cds := h.surface.lastCountdowns()
	require.Len(t, cds, 1)
	assert.Equal(t, window, cds[0].Remaining, "countdown resets to the full window after the entity is refreshed")

	e, _ := h.state.Entities.Get("1")
	assert.Equal(t, refreshedAt, e.RefreshTimestamp)
	assert.False(t, h.surface.lastApply().diff.Full, "opportunistic check reconciles incrementally")
}

func TestCountdown_NeverMutatesRefreshTimestamp(t *testing.T) {
	h := newHarness()
	h.seed(snap(t0, ent("1", 10, t0)))
	c := newCountdown(h, time.Minute, nil)
	c.Start()

	h.clock.Advance(30 * time.Second)

	e, _ := h.state.Entities.Get("1")
	assert.Equal(t, t0, e.RefreshTimestamp)
}

func TestCountdown_AtMostOneCheckPerTick(t *testing.T) {
	h := newHarness()
	var entities []Entity
	for i := 0; i < 20; i++ {
		entities = append(entities, ent(fmt.Sprintf("c%d", i), 1, t0))
	}
	h.seed(snap(t0, entities...))
	h.source.queueSnapshots(snapshotReply{snap: snap(t0, entities...)})

	c := newCountdown(h, time.Second, nil)
	c.Start()
	h.clock.Advance(5 * time.Second)

	snapshots, _, _ := h.source.calls()
	assert.Equal(t, 5, snapshots, "one check per tick however many entities are due")
	assert.Empty(t, h.surface.applies, "unchanged cache timestamp is not applied")
}

func TestCountdown_SkipsWhileBusy(t *testing.T) {
	h := newHarness()
	h.seed(snap(t0, ent("1", 1, t0)))
	busy := true

	c := newCountdown(h, time.Second, func() bool { return busy })
	c.Start()
	h.clock.Advance(3 * time.Second)

	snapshots, _, _ := h.source.calls()
	assert.Equal(t, 0, snapshots)
	assert.Len(t, h.surface.countdowns, 3, "countdowns still tick while busy")

	busy = false
	h.source.queueSnapshots(snapshotReply{snap: snap(t0)})
	h.clock.Advance(time.Second)
	snapshots, _, _ = h.source.calls()
	assert.Equal(t, 1, snapshots)
}

func TestCountdown_SkipsWhileCheckInFlight(t *testing.T) {
	h := newHarness()
	h.seed(snap(t0, ent("1", 1, t0)))
	c := newCountdown(h, time.Second, nil)

	c.checking = true
	c.Tick()

	snapshots, _, _ := h.source.calls()
	assert.Equal(t, 0, snapshots)
	assert.True(t, h.log.Contains("debug", "previous check still running"))
}

func TestCountdown_RetriesUntilFirstLoad(t *testing.T) {
	h := newHarness()
	h.source.queueSnapshots(
		snapshotReply{err: errCode(errors.ErrNetwork)},
		snapshotReply{snap: snap(t0, ent("a", 1, t0), ent("b", 2, t0))},
	)
	c := newCountdown(h, time.Minute, nil)
	c.Start()

	h.clock.Advance(time.Second)
	assert.False(t, h.state.Loaded())
	assert.True(t, h.log.HasLevel("warn"))

	h.clock.Advance(time.Second)
	require.True(t, h.state.Loaded())
	assert.True(t, h.surface.lastApply().diff.Full, "first successful load rebuilds")
	assert.Equal(t, []string{"a", "b"}, h.surface.lastApply().ids)
}

func TestCountdown_FatalErrorsNotifiedOnce(t *testing.T) {
	h := newHarness()
	h.seed(snap(t0, ent("1", 1, t0)))
	h.source.queueSnapshots(
		snapshotReply{err: errCode(errors.ErrMalformed)},
		snapshotReply{err: errCode(errors.ErrMalformed)},
		snapshotReply{err: errCode(errors.ErrMalformed)},
		snapshotReply{snap: snap(t0.Add(time.Minute), ent("1", 2, t0))},
		snapshotReply{err: errCode(errors.ErrUnauthorized)},
	)
	c := newCountdown(h, time.Second, nil)
	c.Start()

	h.clock.Advance(3 * time.Second)
	assert.Equal(t, 1, h.notifier.count(SeverityError))

	h.clock.Advance(time.Second)
	assert.Equal(t, 1, h.notifier.count(SeverityError))
	assert.Equal(t, t0.Add(time.Minute), h.state.CacheTimestamp)

	h.clock.Advance(time.Second)
	assert.Equal(t, 2, h.notifier.count(SeverityError))
	assert.Contains(t, h.notifier.sent[1].message, "Session expired")
}

func TestCountdown_StopHaltsTicks(t *testing.T) {
	h := newHarness()
	c := newCountdown(h, time.Minute, nil)
	c.Start()
	c.Start()
	assert.Equal(t, 1, h.clock.ActiveTasks())

	c.Stop()
	h.clock.Advance(10 * time.Second)

	assert.Empty(t, h.surface.countdowns)
	assert.Equal(t, 0, h.clock.ActiveTasks())
}
