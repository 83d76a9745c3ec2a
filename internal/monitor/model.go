package monitor

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/rileyhilliard/dockstat/internal/errors"
	"github.com/rileyhilliard/dockstat/internal/stats"
	"github.com/rileyhilliard/dockstat/internal/ui"
)

// Controller is the part of the stats engine the dashboard drives.
// *stats.Controller satisfies it.
type Controller interface {
	Start()
	Refresh() (<-chan stats.RefreshOutcome, error)
	Reload()
	RestartPulse()
}

// Options configures a Model.
type Options struct {
	Controller Controller

	// Server is shown in the header.
	Server string

	HistorySize int

	// NoticeTTL is how long non-error notifications stay on screen.
	NoticeTTL time.Duration

	Now func() time.Time
}

const defaultNoticeTTL = 5 * time.Second

// notice is the most recent notification shown in the footer.
type notice struct {
	text     string
	severity stats.Severity
	seq      int
}

// refreshDoneMsg carries the outcome of a refresh started from the keyboard.
type refreshDoneMsg stats.RefreshOutcome

// clearNoticeMsg expires the notice with the matching sequence number.
type clearNoticeMsg int

// Model is the Bubble Tea model for the container dashboard.
type Model struct {
	ctrl      Controller
	server    string
	now       func() time.Time
	noticeTTL time.Duration

	rows       []stats.Entity // display state order
	countdowns map[string]time.Duration
	system     stats.SystemStatus
	hasSystem  bool
	loaded     bool
	lastUpdate time.Time
	history    *History

	refreshing  bool
	lastOutcome *stats.RefreshOutcome
	spinner     spinner.Model

	notice    *notice
	noticeSeq int

	sortOrder SortOrder
	selected  int
	width     int
	height    int
	showHelp  bool
	quitting  bool
}

// NewModel creates a dashboard model driving ctrl.
func NewModel(opts Options) Model {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	ttl := opts.NoticeTTL
	if ttl <= 0 {
		ttl = defaultNoticeTTL
	}
	return Model{
		ctrl:       opts.Controller,
		server:     opts.Server,
		now:        now,
		noticeTTL:  ttl,
		countdowns: make(map[string]time.Duration),
		history:    NewHistory(opts.HistorySize),
		spinner:    ui.NewBubblesSpinner(),
	}
}

// Init starts the stats engine. Everything after that arrives through the Bridge.
func (m Model) Init() tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		ctrl.Start()
		return nil
	}
}

// Update handles messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if handled, cmd := m.HandleKeyMsg(msg); handled {
			return m, cmd
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case entitiesMsg:
		m.applyEntities(msg)

	case countdownsMsg:
		m.countdowns = make(map[string]time.Duration, len(msg))
		for _, c := range msg {
			m.countdowns[c.ID] = c.Remaining
		}

	case systemMsg:
		m.system = stats.SystemStatus(msg)
		m.hasSystem = true

	case refreshingMsg:
		was := m.refreshing
		m.refreshing = bool(msg)
		if m.refreshing && !was {
			return m, m.spinner.Tick
		}

	case spinner.TickMsg:
		if !m.refreshing {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case notifyMsg:
		return m, m.setNotice(msg.text, msg.severity)

	case clearNoticeMsg:
		if m.notice != nil && m.notice.seq == int(msg) {
			m.notice = nil
		}

	case refreshDoneMsg:
		outcome := stats.RefreshOutcome(msg)
		m.lastOutcome = &outcome
		m.refreshing = false
	}

	return m, nil
}

// View renders the dashboard.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	return m.renderDashboard()
}

// applyEntities replaces the rows and feeds History with every reading the
// diff reports as new.
func (m *Model) applyEntities(msg entitiesMsg) {
	m.rows = msg.rows
	m.loaded = true
	m.lastUpdate = m.now()

	if msg.diff.Full {
		ids := make([]string, len(m.rows))
		for i, e := range m.rows {
			ids[i] = e.ID
			m.history.Push(e.ID, e.CPUPercent)
		}
		m.history.Retain(ids)
	} else {
		m.history.Remove(msg.diff.Removed...)
		changed := make(map[string]struct{}, len(msg.diff.Added)+len(msg.diff.Updated))
		for _, id := range msg.diff.Added {
			changed[id] = struct{}{}
		}
		for _, id := range msg.diff.Updated {
			changed[id] = struct{}{}
		}
		for _, e := range m.rows {
			if _, ok := changed[e.ID]; ok {
				m.history.Push(e.ID, e.CPUPercent)
			}
		}
	}

	if m.selected >= len(m.rows) {
		m.selected = max(0, len(m.rows)-1)
	}
}

// startRefresh asks the engine for a refresh unless one is already running.
func (m *Model) startRefresh() tea.Cmd {
	if m.refreshing {
		return nil
	}
	ch, err := m.ctrl.Refresh()
	if err != nil {
		return m.setNotice(errors.Describe(err), stats.SeverityWarning)
	}
	m.refreshing = true
	return tea.Batch(waitForOutcome(ch), m.spinner.Tick)
}

func waitForOutcome(ch <-chan stats.RefreshOutcome) tea.Cmd {
	return func() tea.Msg {
		outcome, ok := <-ch
		if !ok {
			return nil
		}
		return refreshDoneMsg(outcome)
	}
}

// setNotice shows text in the footer. Errors stay until replaced; anything
// else expires after the notice TTL.
func (m *Model) setNotice(text string, severity stats.Severity) tea.Cmd {
	m.noticeSeq++
	seq := m.noticeSeq
	m.notice = &notice{text: text, severity: severity, seq: seq}
	if severity == stats.SeverityError {
		return nil
	}
	return tea.Tick(m.noticeTTL, func(time.Time) tea.Msg {
		return clearNoticeMsg(seq)
	})
}

// VisibleRows returns the rows in on-screen order.
func (m Model) VisibleRows() []stats.Entity {
	rows := slices.Clone(m.rows)
	switch m.sortOrder {
	case SortByName:
		slices.SortStableFunc(rows, func(a, b stats.Entity) int {
			return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
		})
	case SortByCPU:
		slices.SortStableFunc(rows, func(a, b stats.Entity) int {
			return cmp.Compare(b.CPUPercent, a.CPUPercent)
		})
	case SortByMemory:
		slices.SortStableFunc(rows, func(a, b stats.Entity) int {
			return cmp.Compare(b.MemoryUsedMB, a.MemoryUsedMB)
		})
	}
	return rows
}

// Refreshing reports whether a refresh is running.
func (m Model) Refreshing() bool {
	return m.refreshing
}

// Notice returns the footer notification text, if any.
func (m Model) Notice() string {
	if m.notice == nil {
		return ""
	}
	return m.notice.text
}

// Sort returns the current sort order.
func (m Model) Sort() SortOrder {
	return m.sortOrder
}

// History returns the CPU history store.
func (m Model) History() *History {
	return m.history
}
