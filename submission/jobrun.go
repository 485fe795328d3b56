package submission

import "time"

// JobRun is the last recorded outcome of a scheduled job
type JobRun struct {
	Job      string        `json:"job"`
	Status   string        `json:"status"` // "ok", "error"
	Detail   string        `json:"detail,omitempty"`
	Duration time.Duration `json:"duration"`
	RanAt    time.Time     `json:"ran_at"`
}
