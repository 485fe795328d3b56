package metrics

import (
	"context"
	"time"
)

// Metrics represents the current state of the backup store.
type Metrics struct {
	// PendingByForm maps form_type to the number of submissions still awaiting delivery
	PendingByForm map[string]int64 `json:"pending_by_form"`

	// StatusCounts maps status name to count of submissions in that status
	StatusCounts map[string]int64 `json:"status_counts"`

	// Throughput represents submissions delivered per time window
	Throughput ThroughputMetrics `json:"throughput"`

	// Jobs lists the last run of every scheduled job
	Jobs []JobInfo `json:"jobs"`

	// Timestamp when metrics were collected
	Timestamp time.Time `json:"timestamp"`
}

// ThroughputMetrics represents submissions delivered over different time windows.
type ThroughputMetrics struct {
	LastFifteenMinutes int64 `json:"last_fifteen_minutes"`
	LastHour           int64 `json:"last_hour"`
	LastDay            int64 `json:"last_day"`
}

// JobInfo represents the last run of a scheduled job.
type JobInfo struct {
	Job      string        `json:"job"`
	Status   string        `json:"status"` // "ok", "error"
	LastRun  time.Time     `json:"last_run"`
	Duration time.Duration `json:"duration"`
}

// Collector defines the interface for collecting metrics from the backup store.
type Collector interface {
	// Collect gathers current metrics from the system
	Collect(ctx context.Context) (Metrics, error)

	// GetPendingByForm returns the number of pending submissions per form type
	GetPendingByForm(ctx context.Context) (map[string]int64, error)

	// GetStatusCounts returns the count of submissions by status
	GetStatusCounts(ctx context.Context) (map[string]int64, error)

	// GetThroughput returns submissions delivered over time windows
	GetThroughput(ctx context.Context) (ThroughputMetrics, error)

	// GetJobRuns returns the last run of each scheduled job
	GetJobRuns(ctx context.Context) ([]JobInfo, error)
}
