package api

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/rileyhilliard/dockstat/internal/errors"
	"github.com/rileyhilliard/dockstat/internal/stats"
)

// snapshotWire is the JSON body of GET /metrics/snapshot. Entities and
// CacheTimestamp are pointers so a missing field can be told apart from a
// zero value.
type snapshotWire struct {
	Entities       *[]entityWire `json:"entities"`
	CacheTimestamp *time.Time    `json:"cacheTimestamp"`
	Error          string        `json:"error,omitempty"`
}

type entityWire struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Image            string    `json:"image"`
	Status           string    `json:"status"`
	CPUPercent       float64   `json:"cpuPercent"`
	MemoryUsedMB     float64   `json:"memoryUsedMb"`
	MemoryTotalMB    float64   `json:"memoryTotalMb"`
	MemoryPercent    float64   `json:"memoryPercent"`
	NetworkIO        string    `json:"networkIo"`
	BlockIO          string    `json:"blockIo"`
	RefreshTimestamp time.Time `json:"refreshTimestamp"`
}

type systemWire struct {
	CPUPercent    *float64 `json:"cpuPercent"`
	CPUCount      int      `json:"cpuCount"`
	MemoryUsedMB  float64  `json:"memoryUsedMb"`
	MemoryTotalMB float64  `json:"memoryTotalMb"`
	MemoryPercent float64  `json:"memoryPercent"`
	VersionLabel  string   `json:"versionLabel"`
}

func malformed(err error, what string) *errors.Error {
	return errors.WrapWithCode(err, errors.ErrMalformed,
		fmt.Sprintf("Unexpected %s response from stats server", what),
		"The server and dockstat versions may not match")
}

func decodeSnapshot(body []byte) (stats.Snapshot, error) {
	var w snapshotWire
	if err := json.Unmarshal(body, &w); err != nil {
		return stats.Snapshot{}, malformed(err, "snapshot")
	}

	if w.Entities == nil {
		if w.Error != "" {
			// A 200 that only carries an error is a server-side failure.
			return stats.Snapshot{}, errors.New(errors.ErrServer,
				"Stats server could not build a snapshot", "").WithDetail(w.Error)
		}
		return stats.Snapshot{}, malformed(nil, "snapshot").WithDetail("missing entities field")
	}
	if w.CacheTimestamp == nil || w.CacheTimestamp.IsZero() {
		return stats.Snapshot{}, malformed(nil, "snapshot").WithDetail("missing cacheTimestamp field")
	}

	entities := make([]stats.Entity, 0, len(*w.Entities))
	for i, e := range *w.Entities {
		if e.ID == "" {
			return stats.Snapshot{}, malformed(nil, "snapshot").
				WithDetail(fmt.Sprintf("entity %d has no id", i))
		}
		entities = append(entities, stats.Entity{
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
		})
	}

	return stats.Snapshot{
		Entities:       entities,
		CacheTimestamp: *w.CacheTimestamp,
		Error:          w.Error,
	}, nil
}

func decodeSystem(body []byte) (stats.SystemMetric, error) {
	var w systemWire
	if err := json.Unmarshal(body, &w); err != nil {
		return stats.SystemMetric{}, malformed(err, "system")
	}
	if w.CPUPercent == nil {
		return stats.SystemMetric{}, malformed(nil, "system").WithDetail("missing cpuPercent field")
	}
	return stats.SystemMetric{
		CPUPercent:    *w.CPUPercent,
		CPUCount:      w.CPUCount,
		MemoryUsedMB:  w.MemoryUsedMB,
		MemoryTotalMB: w.MemoryTotalMB,
		MemoryPercent: w.MemoryPercent,
		VersionLabel:  w.VersionLabel,
	}, nil
}
