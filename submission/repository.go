package submission

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when no submission exists for an id.
var ErrNotFound = errors.New("submission not found")

// Attempt describes one delivery attempt to be recorded on a submission.
type Attempt struct {
	Status      Status
	Error       string
	At          time.Time
	NextRetryAt time.Time
}

// Reader provides read operations for submissions
type Reader interface {
	Get(ctx context.Context, id string) (Submission, error)
	// ListDay returns the submissions created on the given UTC day, oldest first
	ListDay(ctx context.Context, day time.Time) ([]Submission, error)
	// Days returns every day that holds at least one submission
	Days(ctx context.Context) ([]time.Time, error)
}

// Writer provides write operations for submissions
type Writer interface {
	Store(ctx context.Context, s Submission) (string, error)
	/* RecordAttempt atomically increments attempts and applies the attempt's
	 * status and error. Returns ErrNotFound for unknown ids.
	 * A Pending attempt never moves a final record back to Pending.
	 */
	RecordAttempt(ctx context.Context, id string, a Attempt) (Submission, error)
	// SetStatus overwrites the status without counting an attempt (administrative use)
	SetStatus(ctx context.Context, id string, status Status) error
	// DeleteDay removes every submission of a day and returns how many were removed
	DeleteDay(ctx context.Context, day time.Time) (int, error)
}

type Repository interface {
	Reader
	Writer
	Close(ctx context.Context) error
}
