package forms

import "fmt"

/* Policy decides how a form's webhook is delivered
 * Retry: up to MaxAttempts with backoff, email only when delivery is exhausted
 * Single: one attempt, the sales notification is always sent
 */
type Policy int

const (
	Retry Policy = iota + 1
	Single
)

// String returns the string representation of the policy
func (p Policy) String() string {
	switch p {
	case Retry:
		return "retry"
	case Single:
		return "single"
	default:
		return "unknown"
	}
}

// NewPolicy creates a Policy from a string, defaulting to Retry
func NewPolicy(s string) Policy {
	switch s {
	case "single":
		return Single
	case "retry", "":
		return Retry
	default:
		return Policy(0)
	}
}

// Validate checks if the policy is valid
func (p Policy) Validate() error {
	if p != Retry && p != Single {
		return fmt.Errorf("invalid policy: %d", p)
	}
	return nil
}
