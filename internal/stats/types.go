package stats

import "time"

// Snapshot is one complete, timestamped set of container metrics as produced
// by the stats server. It is never modified after it is received.
type Snapshot struct {
	Entities       []Entity
	CacheTimestamp time.Time

	// Error is a non-fatal message the server attached to an otherwise
	// usable snapshot.
	Error string
}

// Entity is a tracked container and its latest metrics.
type Entity struct {
	ID     string
	Name   string
	Image  string
	Status string

	CPUPercent    float64
	MemoryUsedMB  float64
	MemoryTotalMB float64
	MemoryPercent float64
	NetworkIO     string
	BlockIO       string

	// RefreshTimestamp is when the server last measured this container.
	RefreshTimestamp time.Time
}

// SystemMetric is the aggregate host record reported by the system endpoint.
type SystemMetric struct {
	CPUPercent    float64
	CPUCount      int
	MemoryUsedMB  float64
	MemoryTotalMB float64
	MemoryPercent float64
	VersionLabel  string
	CapturedAt    time.Time
}
