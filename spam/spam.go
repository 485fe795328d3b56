// Package spam holds the cheap heuristics run before a lead is accepted:
// a honeypot field, a minimum fill time and a per-IP rate limit.
//
// A positive verdict never surfaces as an error to the caller. Handlers answer
// with an ordinary success and drop the submission.
package spam

import (
	"time"

	"github.com/marcelsud/lead-relay/internal/clock"
)

// DefaultMinElapsed is the minimum time a human needs to fill a form.
const DefaultMinElapsed = 3 * time.Second

// ValidateHoneypot reports whether the hidden honeypot field was filled in.
// Only a non-empty string counts; nil, empty strings and other JSON types do not.
func ValidateHoneypot(value any) bool {
	s, ok := value.(string)
	return ok && s != ""
}

// Guard evaluates timing heuristics against a clock.
type Guard struct {
	clock      clock.Clock
	minElapsed time.Duration
}

// NewGuard creates a Guard. A non-positive minElapsed falls back to DefaultMinElapsed.
func NewGuard(c clock.Clock, minElapsed time.Duration) *Guard {
	if minElapsed <= 0 {
		minElapsed = DefaultMinElapsed
	}
	return &Guard{clock: c, minElapsed: minElapsed}
}

// ValidateSubmissionTime reports whether a form rendered at renderedAtMillis
// (Unix milliseconds) was submitted too quickly, or claims to be rendered in
// the future.
func (g *Guard) ValidateSubmissionTime(renderedAtMillis int64) bool {
	now := g.clock.Now().UnixMilli()
	if renderedAtMillis > now {
		return true
	}
	return now-renderedAtMillis < g.minElapsed.Milliseconds()
}
