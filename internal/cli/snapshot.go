package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/rileyhilliard/dockstat/internal/errors"
	"github.com/rileyhilliard/dockstat/internal/stats"
	"github.com/rileyhilliard/dockstat/internal/ui"
)

var snapshotNoSystem bool

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Print the cached container stats once",
	Long: `Fetch the server's cached snapshot and print it as a table.

This never asks the server to re-measure; use 'dockstat refresh' for that.
Host metrics are fetched alongside and shown above the table. If they can't
be fetched the containers are still printed.

Examples:
  dockstat snapshot
  dockstat snapshot --json | jq '.data.containers[].name'`,
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
		return runSnapshot(ctx, newClient(cfg), os.Stdout, os.Stderr, time.Now())
	},
}

func init() {
	rootCmd.AddCommand(snapshotCmd)
	snapshotCmd.Flags().BoolVar(&snapshotNoSystem, "no-system", false, "skip host metrics")
}

// containerJSON is the --json form of a container.
type containerJSON struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Image            string    `json:"image"`
	Status           string    `json:"status"`
	CPUPercent       float64   `json:"cpu_percent"`
	MemoryUsedMB     float64   `json:"memory_used_mb"`
	MemoryTotalMB    float64   `json:"memory_total_mb"`
	MemoryPercent    float64   `json:"memory_percent"`
	NetworkIO        string    `json:"network_io"`
	BlockIO          string    `json:"block_io"`
	RefreshTimestamp time.Time `json:"refresh_timestamp"`
}

// systemJSON is the --json form of the host metrics.
type systemJSON struct {
	CPUPercent    float64   `json:"cpu_percent"`
	CPUCount      int       `json:"cpu_count"`
	MemoryUsedMB  float64   `json:"memory_used_mb"`
	MemoryTotalMB float64   `json:"memory_total_mb"`
	MemoryPercent float64   `json:"memory_percent"`
	VersionLabel  string    `json:"version_label,omitempty"`
	CapturedAt    time.Time `json:"captured_at"`
}

// SnapshotOutput is the data payload of 'dockstat snapshot --json'.
type SnapshotOutput struct {
	CacheTimestamp time.Time       `json:"cache_timestamp"`
	Containers     []containerJSON `json:"containers"`
	System         *systemJSON     `json:"system,omitempty"`
	Warnings       []string        `json:"warnings,omitempty"`
}

func toContainerJSON(e stats.Entity) containerJSON {
	return containerJSON{
		ID:               e.ID,
		Name:             e.Name,
		Image:            e.Image,
		Status:           e.Status,
		CPUPercent:       e.CPUPercent,
		MemoryUsedMB:     e.MemoryUsedMB,
		MemoryTotalMB:    e.MemoryTotalMB,
		MemoryPercent:    e.MemoryPercent,
		NetworkIO:        e.NetworkIO,
		BlockIO:          e.BlockIO,
		RefreshTimestamp: e.RefreshTimestamp,
	}
}

func toSystemJSON(m stats.SystemMetric) *systemJSON {
	return &systemJSON{
		CPUPercent:    m.CPUPercent,
		CPUCount:      m.CPUCount,
		MemoryUsedMB:  m.MemoryUsedMB,
		MemoryTotalMB: m.MemoryTotalMB,
		MemoryPercent: m.MemoryPercent,
		VersionLabel:  m.VersionLabel,
		CapturedAt:    m.CapturedAt,
	}
}

// fetchSnapshot gets the snapshot and, unless skipped, the host metrics in
// parallel. A host metrics failure is returned as sysErr and does not fail
// the fetch.
func fetchSnapshot(ctx context.Context, source stats.Source, withSystem bool) (snap stats.Snapshot, sys *stats.SystemMetric, sysErr error, err error) {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		snap, err = source.Snapshot(gctx)
		return err
	})
	if withSystem {
		g.Go(func() error {
			m, err := source.System(gctx)
			if err != nil {
				sysErr = err
				return nil
			}
			sys = &m
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return stats.Snapshot{}, nil, nil, err
	}
	return snap, sys, sysErr, nil
}

func runSnapshot(ctx context.Context, source stats.Source, stdout, stderr io.Writer, now time.Time) error {
	snap, sys, sysErr, err := fetchSnapshot(ctx, source, !snapshotNoSystem)
	if err != nil {
		return err
	}

	if machineMode {
		out := SnapshotOutput{
			CacheTimestamp: snap.CacheTimestamp,
			Containers:     make([]containerJSON, 0, len(snap.Entities)),
		}
		for _, e := range snap.Entities {
			out.Containers = append(out.Containers, toContainerJSON(e))
		}
		if sys != nil {
			out.System = toSystemJSON(*sys)
		}
		if snap.Error != "" {
			out.Warnings = append(out.Warnings, snap.Error)
		}
		if sysErr != nil {
			out.Warnings = append(out.Warnings, errors.Describe(sysErr))
		}
		return WriteJSONSuccess(stdout, out)
	}

	if sys != nil {
		fmt.Fprintln(stdout, formatSystemLine(*sys))
	}
	if sysErr != nil {
		ui.PrintWarning(stderr, errors.Describe(sysErr))
	}
	if snap.Error != "" {
		ui.PrintWarning(stderr, "Server reported: "+snap.Error)
	}

	if len(snap.Entities) == 0 {
		fmt.Fprintln(stdout, ui.MutedStyle().Render("No containers reported"))
		return nil
	}
	fmt.Fprintln(stdout, renderSnapshotTable(snap.Entities, now))
	fmt.Fprintf(stdout, "%s containers, cached %s\n",
		ui.FormatCount(len(snap.Entities)), ui.FormatAge(snap.CacheTimestamp, now))
	return nil
}

var snapshotColumns = []ui.TableColumn{
	{Title: "", Width: 1},
	{Title: "NAME", Width: 22},
	{Title: "IMAGE", Width: 24},
	{Title: "CPU", Width: 7},
	{Title: "MEMORY", Width: 22},
	{Title: "NET I/O", Width: 18},
	{Title: "BLOCK I/O", Width: 18},
	{Title: "MEASURED", Width: 16},
}

func renderSnapshotTable(entities []stats.Entity, now time.Time) string {
	rows := make([][]string, 0, len(entities))
	for _, e := range entities {
		rows = append(rows, []string{
			ui.StatusSymbol(e.Status),
			e.Name,
			e.Image,
			ui.FormatPercent(e.CPUPercent),
			ui.FormatMemory(e.MemoryUsedMB, e.MemoryTotalMB),
			e.NetworkIO,
			e.BlockIO,
			ui.FormatAge(e.RefreshTimestamp, now),
		})
	}
	return ui.RenderSimpleTable(snapshotColumns, rows)
}

// formatSystemLine is the one-line host summary printed above the table.
func formatSystemLine(m stats.SystemMetric) string {
	cpu := ui.FormatPercent(m.CPUPercent)
	if m.CPUCount > 0 {
		cpu += fmt.Sprintf(" of %d cores", m.CPUCount)
	}
	return fmt.Sprintf("host  cpu %s  mem %s (%s)",
		cpu, ui.FormatMemory(m.MemoryUsedMB, m.MemoryTotalMB), ui.FormatPercent(m.MemoryPercent))
}
