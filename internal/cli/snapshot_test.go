package cli

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rileyhilliard/dockstat/internal/errors"
	"github.com/rileyhilliard/dockstat/internal/stats"
	"github.com/rileyhilliard/dockstat/internal/ui"
)

func snapshotSource() *fakeSource {
	return &fakeSource{
		snapshot: stats.Snapshot{
			Entities: []stats.Entity{
				entity("a1", "web", 12.5),
				entity("b2", "db", 71),
			},
			CacheTimestamp: t0.Add(-30 * time.Second),
		},
		system: stats.SystemMetric{
			CPUPercent: 23.4, CPUCount: 8,
			MemoryUsedMB: 4096, MemoryTotalMB: 16384, MemoryPercent: 25,
			VersionLabel: "dockstat-server 1.4.0",
			CapturedAt:   t0,
		},
	}
}

func TestRunSnapshot_Table(t *testing.T) {
	withMachineMode(t, false)
	ui.DisableColors()

	var stdout, stderr bytes.Buffer
	err := runSnapshot(context.Background(), snapshotSource(), &stdout, &stderr, t0)
	require.NoError(t, err)

	out := stdout.String()
	assert.Contains(t, out, "host  cpu 23.4% of 8 cores")
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "web")
	assert.Contains(t, out, "db")
	assert.Contains(t, out, "71.0%")
	assert.Contains(t, out, "2 containers, cached 30 seconds ago")
	assert.Empty(t, stderr.String())
}

func TestRunSnapshot_SystemFailureIsAWarning(t *testing.T) {
	withMachineMode(t, false)
	ui.DisableColors()

	src := snapshotSource()
	src.sysErr = errors.New(errors.ErrTimeout, "System metrics timed out", "")

	var stdout, stderr bytes.Buffer
	require.NoError(t, runSnapshot(context.Background(), src, &stdout, &stderr, t0))

	assert.NotContains(t, stdout.String(), "host  cpu")
	assert.Contains(t, stdout.String(), "web")
	assert.Contains(t, stderr.String(), "Stats server took too long to answer")
}

func TestRunSnapshot_SnapshotFailureFails(t *testing.T) {
	withMachineMode(t, false)

	src := snapshotSource()
	src.snapErr = errors.New(errors.ErrUnauthorized, "Server rejected the token", "")

	var stdout, stderr bytes.Buffer
	err := runSnapshot(context.Background(), src, &stdout, &stderr, t0)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrUnauthorized))
	assert.Empty(t, stdout.String())
}

func TestRunSnapshot_Empty(t *testing.T) {
	withMachineMode(t, false)
	ui.DisableColors()

	src := &fakeSource{snapshot: stats.Snapshot{Entities: []stats.Entity{}, CacheTimestamp: t0}}
	var stdout, stderr bytes.Buffer
	require.NoError(t, runSnapshot(context.Background(), src, &stdout, &stderr, t0))
	assert.Contains(t, stdout.String(), "No containers reported")
}

func TestRunSnapshot_JSON(t *testing.T) {
	withMachineMode(t, true)

	src := snapshotSource()
	src.snapshot.Error = "docker daemon slow"

	var stdout, stderr bytes.Buffer
	require.NoError(t, runSnapshot(context.Background(), src, &stdout, &stderr, t0))

	var env struct {
		Success bool           `json:"success"`
		Data    SnapshotOutput `json:"data"`
	}
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &env))
	assert.True(t, env.Success)
	require.Len(t, env.Data.Containers, 2)
	assert.Equal(t, "a1", env.Data.Containers[0].ID)
	assert.Equal(t, 71.0, env.Data.Containers[1].CPUPercent)
	require.NotNil(t, env.Data.System)
	assert.Equal(t, 8, env.Data.System.CPUCount)
	assert.Equal(t, []string{"docker daemon slow"}, env.Data.Warnings)
	assert.True(t, env.Data.CacheTimestamp.Equal(src.snapshot.CacheTimestamp))
}

func TestRunSnapshot_NoSystemSkipsFetch(t *testing.T) {
	withMachineMode(t, true)
	old := snapshotNoSystem
	snapshotNoSystem = true
	t.Cleanup(func() { snapshotNoSystem = old })

	src := snapshotSource()
	src.sysErr = errors.New(errors.ErrNetwork, "would fail", "")

	var stdout, stderr bytes.Buffer
	require.NoError(t, runSnapshot(context.Background(), src, &stdout, &stderr, t0))
	assert.NotContains(t, stdout.String(), `"system"`)
	assert.NotContains(t, stdout.String(), `"warnings"`)
}
