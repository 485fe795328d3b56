package submission

import "time"

/* Submission is the backup record of a lead form POST
 * Uses value semantics as it represents data, not behavior
 */
type Submission struct {
	ID            string
	Timestamp     time.Time
	FormType      string
	FormData      map[string]any
	WebhookStatus Status
	Attempts      int
	LastAttemptAt time.Time
	Error         string
	Metadata      map[string]string
	NextRetryAt   time.Time
}

// Day returns the UTC calendar day the submission belongs to.
func (s Submission) Day() time.Time {
	return DayOf(s.Timestamp)
}

// Retryable reports whether a scheduler may attempt delivery again.
func (s Submission) Retryable(maxAttempts int) bool {
	switch s.WebhookStatus {
	case Pending:
		return true
	case Failed:
		return s.Attempts < maxAttempts
	default:
		return false
	}
}

// DayOf truncates t to its UTC calendar day.
func DayOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DayKey formats a day as YYYY-MM-DD.
func DayKey(t time.Time) string {
	return DayOf(t).Format(time.DateOnly)
}
