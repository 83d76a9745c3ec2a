package monitor

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rileyhilliard/dockstat/internal/errors"
	"github.com/rileyhilliard/dockstat/internal/stats"
	"github.com/rileyhilliard/dockstat/internal/ui"
)

// Width below which the image and I/O columns are hidden.
const BreakpointWide = 110

// sparklineWidth is the number of CPU samples drawn per row.
const sparklineWidth = 12

type column struct {
	title string
	width int
	wide  bool // only shown on wide terminals
}

var columns = []column{
	{title: "", width: 2},
	{title: "NAME", width: 22},
	{title: "IMAGE", width: 24, wide: true},
	{title: "CPU", width: 8},
	{title: "HISTORY", width: sparklineWidth + 1},
	{title: "MEMORY", width: 22},
	{title: "NET I/O", width: 18, wide: true},
	{title: "BLOCK I/O", width: 18, wide: true},
	{title: "NEXT", width: 5},
}

// renderDashboard renders the complete dashboard view.
func (m Model) renderDashboard() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderSystem())
	b.WriteString("\n\n")

	if m.showHelp {
		b.WriteString(renderHelp())
	} else {
		b.WriteString(m.renderTable())
	}

	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

// renderHeader renders the title bar with summary stats.
func (m Model) renderHeader() string {
	title := TitleStyle.Render("dockstat")

	parts := []string{}
	if m.server != "" {
		parts = append(parts, m.server)
	}
	if m.loaded {
		parts = append(parts, fmt.Sprintf("%s containers", ui.FormatCount(len(m.rows))))
		parts = append(parts, "updated "+ui.FormatAge(m.lastUpdate, m.now()))
	} else {
		parts = append(parts, "loading...")
	}

	line := title
	if len(parts) > 0 {
		line += LabelStyle.Render(" | " + strings.Join(parts, " | "))
	}
	if m.refreshing {
		line += "  " + m.spinner.View() + LabelStyle.Render(" refreshing")
	}
	return HeaderStyle.Render(line)
}

// renderSystem renders the host metrics line.
func (m Model) renderSystem() string {
	label := LabelStyle.Render("Host ")
	s := m.system

	switch {
	case !m.hasSystem:
		return label + MutedStyle.Render("waiting for metrics...")
	case s.Restarting:
		return label + StaleStyle.Render("reconnecting...")
	case s.SessionExpired:
		return label + ErrorTextStyle.Render("session expired, press p to resume")
	case s.Metric == nil:
		return label + ErrorTextStyle.Render(errors.Describe(s.Err))
	}

	mt := s.Metric
	line := label +
		LabelStyle.Render("CPU ") + loadStyle(mt.CPUPercent).Render(ui.FormatPercent(mt.CPUPercent)) +
		MutedStyle.Render(fmt.Sprintf(" of %d cores", mt.CPUCount)) +
		LabelStyle.Render("  MEM ") + ui.FormatMemory(mt.MemoryUsedMB, mt.MemoryTotalMB) +
		" " + loadStyle(mt.MemoryPercent).Render("("+ui.FormatPercent(mt.MemoryPercent)+")")
	if mt.VersionLabel != "" {
		line += MutedStyle.Render("  " + mt.VersionLabel)
	}
	if s.Stale {
		line += "  " + StaleStyle.Render(ui.SymbolStale+" stale")
	}
	return line
}

// visibleColumns returns the columns that fit the terminal width.
func (m Model) visibleColumns() []column {
	if m.width == 0 || m.width >= BreakpointWide {
		return columns
	}
	var cols []column
	for _, c := range columns {
		if !c.wide {
			cols = append(cols, c)
		}
	}
	return cols
}

// renderTable renders the container rows.
func (m Model) renderTable() string {
	if !m.loaded {
		return MutedStyle.Render("  Loading container stats...")
	}
	if len(m.rows) == 0 {
		return MutedStyle.Render("  No containers reported")
	}

	cols := m.visibleColumns()
	var b strings.Builder

	header := make([]string, len(cols))
	for i, c := range cols {
		header[i] = cell(ColumnHeaderStyle, c.title, c.width)
	}
	b.WriteString(strings.Join(header, " "))
	b.WriteString("\n")

	for i, e := range m.VisibleRows() {
		cells := make([]string, len(cols))
		for j, c := range cols {
			cells[j] = m.renderCell(c.title, e, i == m.selected, c.width)
		}
		b.WriteString(strings.Join(cells, " "))
		b.WriteString("\n")
	}
	return b.String()
}

// renderCell renders one column of a container row.
func (m Model) renderCell(title string, e stats.Entity, selected bool, width int) string {
	text := RowStyle
	if selected {
		text = RowSelectedStyle
	}

	switch title {
	case "":
		marker := " "
		if selected {
			marker = "›"
		}
		status := RunningStyle.Render(ui.StatusSymbol(e.Status))
		if e.Status != "running" {
			status = StoppedStyle.Render(ui.StatusSymbol(e.Status))
		}
		return cell(text, marker, 1) + status
	case "NAME":
		return cell(text, e.Name, width)
	case "IMAGE":
		return cell(MutedStyle, e.Image, width)
	case "CPU":
		return cell(loadStyle(e.CPUPercent), ui.FormatPercent(e.CPUPercent), width)
	case "HISTORY":
		spark := ui.RenderSparkline(m.history.CPU(e.ID, sparklineWidth), sparklineWidth, 100)
		return cell(lipgloss.NewStyle(), spark, width)
	case "MEMORY":
		return cell(text, ui.FormatMemory(e.MemoryUsedMB, e.MemoryTotalMB), width)
	case "NET I/O":
		return cell(MutedStyle, e.NetworkIO, width)
	case "BLOCK I/O":
		return cell(MutedStyle, e.BlockIO, width)
	case "NEXT":
		remaining, ok := m.countdowns[e.ID]
		if !ok {
			return cell(MutedStyle, "--:--", width)
		}
		style := MutedStyle
		if remaining <= 0 {
			style = StaleStyle
		}
		return cell(style, stats.FormatCountdown(remaining), width)
	}
	return cell(text, "", width)
}

// renderFooter renders the latest notification and the keyboard hints.
func (m Model) renderFooter() string {
	var b strings.Builder
	if m.notice != nil {
		glyph, style := noticeStyle(m.notice.severity)
		b.WriteString(" " + style.Render(glyph+" "+m.notice.text))
		b.WriteString("\n")
	}

	refresh := "r refresh"
	if m.refreshing {
		refresh = "r refreshing"
	}
	hints := []string{"q quit", refresh, "R reload", "s sort: " + m.sortOrder.String()}
	if m.system.SessionExpired {
		hints = append(hints, "p resume")
	}
	hints = append(hints, "? help")

	b.WriteString(FooterStyle.Render(strings.Join(hints, " | ")))
	return b.String()
}

func renderHelp() string {
	keys := []ui.KeyValue{
		{Key: "q, ctrl+c", Value: "quit"},
		{Key: "r", Value: "refresh stats on the server"},
		{Key: "R", Value: "reload the cached snapshot"},
		{Key: "p", Value: "resume host metrics after the session expired"},
		{Key: "s", Value: "cycle sort order"},
		{Key: "j/k, ↑/↓", Value: "move selection"},
		{Key: "?, esc", Value: "close help"},
	}
	return HelpBoxStyle.Render(strings.TrimRight(ui.RenderKeyValues(keys), "\n"))
}

// cell truncates s to width and pads it.
func cell(style lipgloss.Style, s string, width int) string {
	return style.Width(width).MaxWidth(width).Render(truncate(s, width))
}

// truncate shortens s to at most width runes, marking the cut with an ellipsis.
func truncate(s string, width int) string {
	if lipgloss.Width(s) <= width {
		return s
	}
	if width <= 1 {
		return string([]rune(s)[:width])
	}
	r := []rune(s)
	return string(r[:width-1]) + "…"
}
