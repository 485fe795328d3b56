package formqueue

import (
	"fmt"
	"time"
)

/* Status represents the resubmission state of a queued form
 * Lifecycle: Pending -> Retrying* -> Succeeded | Failed
 */
type Status int

const (
	Pending Status = iota + 1
	Retrying
	Failed
	Succeeded
)

// String returns the string representation of the status
func (s Status) String() string {
	switch s {
	case Pending:
		return "pending"
	case Retrying:
		return "retrying"
	case Failed:
		return "failed"
	case Succeeded:
		return "succeeded"
	default:
		return "unknown"
	}
}

// NewStatus creates a Status from a string
func NewStatus(str string) Status {
	switch str {
	case "retrying":
		return Retrying
	case "failed":
		return Failed
	case "succeeded":
		return Succeeded
	default:
		return Pending
	}
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(b []byte) error {
	switch string(b) {
	case "pending", "retrying", "failed", "succeeded":
		*s = NewStatus(string(b))
		return nil
	}
	return fmt.Errorf("invalid queue status: %q", string(b))
}

// Entry is a form submission waiting to reach the server
type Entry struct {
	ID          string         `json:"id"`
	Timestamp   time.Time      `json:"timestamp"`
	FormData    map[string]any `json:"formData"`
	Attempts    int            `json:"attempts"`
	Status      Status         `json:"status"`
	NextRetryAt time.Time      `json:"nextRetryAt,omitzero"`
	CompletedAt time.Time      `json:"completedAt,omitzero"`
	LastError   string         `json:"lastError,omitempty"`
}

// Due reports whether the entry should be submitted at now
func (e Entry) Due(now time.Time) bool {
	if e.Status != Pending && e.Status != Retrying {
		return false
	}
	return !e.NextRetryAt.After(now)
}
