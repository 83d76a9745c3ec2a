package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Sparkline block characters representing 8 vertical levels (lowest to highest).
var sparklineBlocks = []rune("▁▂▃▄▅▆▇█")

// SparklineBlocks returns the glyphs for data without styling. With a
// positive ceiling values are scaled against [0, ceiling] and clamped, so a
// flat 5% line stays low. Otherwise the min/max of the window is used.
func SparklineBlocks(data []float64, width int, ceiling float64) string {
	if len(data) == 0 || width <= 0 {
		return ""
	}
	if len(data) > width {
		data = data[len(data)-width:]
	}

	lo, hi := 0.0, ceiling
	if ceiling <= 0 {
		lo, hi = data[0], data[0]
		for _, v := range data {
			lo = min(lo, v)
			hi = max(hi, v)
		}
	}

	top := len(sparklineBlocks) - 1
	var sb strings.Builder
	sb.Grow(len(data) * 3)
	for _, v := range data {
		level := top / 2
		if span := hi - lo; span > 0 {
			level = int((v - lo) / span * float64(top))
			level = max(0, min(top, level))
		}
		sb.WriteRune(sparklineBlocks[level])
	}
	return sb.String()
}

// RenderSparkline renders the most recent width points of data colored by
// the last value's load level. See SparklineBlocks for scaling.
func RenderSparkline(data []float64, width int, ceiling float64) string {
	blocks := SparklineBlocks(data, width, ceiling)
	if blocks == "" {
		return ""
	}

	last := data[len(data)-1]
	if ceiling > 0 {
		last = last / ceiling * 100
	}
	return lipgloss.NewStyle().Foreground(ThresholdColor(last)).Render(blocks)
}
