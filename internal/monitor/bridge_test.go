package monitor

import (
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rileyhilliard/dockstat/internal/stats"
)

type recordingSender struct {
	mu   sync.Mutex
	msgs []tea.Msg
}

func (r *recordingSender) Send(msg tea.Msg) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
}

func TestBridge_DropsUntilAttached(t *testing.T) {
	b := NewBridge()
	b.SetRefreshing(true)

	s := &recordingSender{}
	b.Attach(s)
	b.SetRefreshing(false)

	require.Len(t, s.msgs, 1)
	assert.Equal(t, refreshingMsg(false), s.msgs[0])
}

func TestBridge_ApplyCopiesEntities(t *testing.T) {
	b := NewBridge()
	s := &recordingSender{}
	b.Attach(s)

	e := &stats.Entity{ID: "1", Name: "web", CPUPercent: 10}
	diff := stats.Diff{Added: []string{"1"}}
	b.Apply([]*stats.Entity{e}, diff)
	e.CPUPercent = 99

	require.Len(t, s.msgs, 1)
	msg, ok := s.msgs[0].(entitiesMsg)
	require.True(t, ok)
	assert.InDelta(t, 10.0, msg.rows[0].CPUPercent, 0.001, "later mutation on the loop is not visible")
	assert.Equal(t, diff, msg.diff)
}

func TestBridge_ApplySystemCopiesMetric(t *testing.T) {
	b := NewBridge()
	s := &recordingSender{}
	b.Attach(s)

	metric := &stats.SystemMetric{CPUPercent: 5}
	b.ApplySystem(stats.SystemStatus{Metric: metric, Stale: true})
	metric.CPUPercent = 50

	msg := s.msgs[0].(systemMsg)
	assert.InDelta(t, 5.0, msg.Metric.CPUPercent, 0.001)
	assert.True(t, msg.Stale)
}

func TestBridge_CountdownsAndNotify(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	b := NewBridge()
	b.now = func() time.Time { return at }
	s := &recordingSender{}
	b.Attach(s)

	cds := []stats.Countdown{{ID: "1", Remaining: time.Minute}}
	b.ApplyCountdowns(cds)
	cds[0].Remaining = 0
	b.Notify("Stats refreshed (2 containers)", stats.SeveritySuccess)

	require.Len(t, s.msgs, 2)
	assert.Equal(t, time.Minute, s.msgs[0].(countdownsMsg)[0].Remaining)
	assert.Equal(t, notifyMsg{text: "Stats refreshed (2 containers)", severity: stats.SeveritySuccess, at: at}, s.msgs[1])
}

func TestBridge_ImplementsSurface(t *testing.T) {
	var _ stats.Surface = NewBridge()
	var _ stats.Notifier = NewBridge()
	var _ stats.Surface = NewLineSurface(nil)
	var _ stats.Notifier = NewLineSurface(nil)
}
