package submission

import "fmt"

/* Status is where a submission stands with the CRM webhook
 * pending -> delivered | failed; only an operator reset moves it back to pending
 */
type Status int

const (
	Pending Status = iota + 1
	Delivered
	Failed
)

var statusNames = map[Status]string{
	Pending:   "pending",
	Delivered: "delivered",
	Failed:    "failed",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "unknown"
}

// NewStatus parses a stored status; anything unrecognised reads as Pending
func NewStatus(str string) Status {
	if s, ok := parseStatus(str); ok {
		return s
	}
	return Pending
}

func parseStatus(str string) (Status, bool) {
	for s, name := range statusNames {
		if name == str {
			return s, true
		}
	}
	return 0, false
}

func (s Status) Validate() error {
	if _, ok := statusNames[s]; !ok {
		return fmt.Errorf("invalid status: %d", s)
	}
	return nil
}

// IsFinal reports whether the webhook is done with the submission
func (s Status) IsFinal() bool {
	return s == Delivered || s == Failed
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(b []byte) error {
	parsed, ok := parseStatus(string(b))
	if !ok {
		return fmt.Errorf("invalid status: %q", string(b))
	}
	*s = parsed
	return nil
}
