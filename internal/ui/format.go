package ui

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
)

const bytesPerMB = 1024 * 1024

// FormatMB renders a megabyte count the way the stats server reports it
// (binary units), e.g. 512 -> "512 MiB", 2048 -> "2.0 GiB".
func FormatMB(mb float64) string {
	if mb <= 0 {
		return "0 B"
	}
	return humanize.IBytes(uint64(mb * bytesPerMB))
}

// FormatMemory renders "used / total". Total is omitted when unknown.
func FormatMemory(usedMB, totalMB float64) string {
	if totalMB <= 0 {
		return FormatMB(usedMB)
	}
	return FormatMB(usedMB) + " / " + FormatMB(totalMB)
}

// FormatPercent renders a percentage with one decimal place.
func FormatPercent(p float64) string {
	return fmt.Sprintf("%.1f%%", p)
}

// FormatAge describes how long ago t was relative to now, e.g. "2 minutes ago".
// The zero time renders as "never".
func FormatAge(t, now time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return humanize.RelTime(t, now, "ago", "from now")
}

// FormatElapsed formats a short duration for display (e.g., "0.30s", "1.2s").
func FormatElapsed(d time.Duration) string {
	secs := d.Seconds()
	if secs < 0.1 {
		return fmt.Sprintf("%.2fs", secs)
	}
	return fmt.Sprintf("%.1fs", secs)
}

// FormatCount renders n with thousands separators.
func FormatCount(n int) string {
	return humanize.Comma(int64(n))
}
