package monitor

import (
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/rileyhilliard/dockstat/internal/stats"
)

// Sender delivers messages into a running Bubble Tea program. *tea.Program
// satisfies it.
type Sender interface {
	Send(msg tea.Msg)
}

// entitiesMsg carries a copy of the display state.
type entitiesMsg struct {
	rows []stats.Entity
	diff stats.Diff
}

type countdownsMsg []stats.Countdown

type systemMsg stats.SystemStatus

type refreshingMsg bool

type notifyMsg struct {
	text     string
	severity stats.Severity
	at       time.Time
}

// Bridge implements stats.Surface and stats.Notifier by forwarding into a
// Bubble Tea program. Calls made before Attach are dropped.
type Bridge struct {
	mu     sync.RWMutex
	sender Sender
	now    func() time.Time
}

// NewBridge returns an unattached bridge.
func NewBridge() *Bridge {
	return &Bridge{now: time.Now}
}

// Attach sets the program that receives messages.
func (b *Bridge) Attach(s Sender) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sender = s
}

func (b *Bridge) send(msg tea.Msg) {
	b.mu.RLock()
	s := b.sender
	b.mu.RUnlock()
	if s != nil {
		s.Send(msg)
	}
}

// Apply copies the entities so the program never shares memory with the loop.
func (b *Bridge) Apply(entities []*stats.Entity, diff stats.Diff) {
	rows := make([]stats.Entity, len(entities))
	for i, e := range entities {
		rows[i] = *e
	}
	b.send(entitiesMsg{rows: rows, diff: diff})
}

func (b *Bridge) ApplyCountdowns(countdowns []stats.Countdown) {
	b.send(countdownsMsg(append([]stats.Countdown(nil), countdowns...)))
}

func (b *Bridge) ApplySystem(status stats.SystemStatus) {
	if status.Metric != nil {
		m := *status.Metric
		status.Metric = &m
	}
	b.send(systemMsg(status))
}

func (b *Bridge) SetRefreshing(active bool) {
	b.send(refreshingMsg(active))
}

func (b *Bridge) Notify(message string, severity stats.Severity) {
	b.send(notifyMsg{text: message, severity: severity, at: b.now()})
}
