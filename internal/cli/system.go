package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/rileyhilliard/dockstat/internal/stats"
	"github.com/rileyhilliard/dockstat/internal/ui"
)

var systemCmd = &cobra.Command{
	Use:   "system",
	Short: "Print host metrics once",
	Long: `Fetch the server's host-level CPU and memory figures and print them.

Examples:
  dockstat system
  dockstat system --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		return runSystem(ctx, newClient(cfg), os.Stdout, time.Now())
	},
}

func init() {
	rootCmd.AddCommand(systemCmd)
}

func runSystem(ctx context.Context, source stats.SystemSource, w io.Writer, now time.Time) error {
	m, err := source.System(ctx)
	if err != nil {
		return err
	}
	if machineMode {
		return WriteJSONSuccess(w, toSystemJSON(m))
	}
	fmt.Fprint(w, ui.RenderKeyValues(systemPairs(m, now)))
	return nil
}

func systemPairs(m stats.SystemMetric, now time.Time) []ui.KeyValue {
	cpu := ui.ThresholdStyle(m.CPUPercent).Render(ui.FormatPercent(m.CPUPercent))
	if m.CPUCount > 0 {
		cpu += fmt.Sprintf(" of %d cores", m.CPUCount)
	}
	pairs := []ui.KeyValue{
		{Key: "CPU", Value: cpu},
		{Key: "Memory", Value: fmt.Sprintf("%s (%s)",
			ui.FormatMemory(m.MemoryUsedMB, m.MemoryTotalMB),
			ui.ThresholdStyle(m.MemoryPercent).Render(ui.FormatPercent(m.MemoryPercent)))},
	}
	if m.VersionLabel != "" {
		pairs = append(pairs, ui.KeyValue{Key: "Server", Value: m.VersionLabel})
	}
	pairs = append(pairs, ui.KeyValue{Key: "Captured", Value: ui.FormatAge(m.CapturedAt, now)})
	return pairs
}
