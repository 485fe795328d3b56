package delivery

import (
	"encoding/json"
	"fmt"
	"regexp"
	"time"
)

// eventTypePattern validates event types: hierarchical, full-stop delimited, [a-zA-Z0-9_.]
var eventTypePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+(\.[a-zA-Z0-9_]+)*$`)

// Source identifies this service in every payload it sends
const Source = "lead-relay"

// Payload is the lead document POSTed to a CRM webhook
type Payload struct {
	// Type is "lead." followed by the form type, e.g. "lead.contact"
	Type         string            `json:"type"`
	Timestamp    time.Time         `json:"timestamp"`
	SubmissionID string            `json:"submissionId"`
	Source       string            `json:"source"`
	Data         map[string]any    `json:"data"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// NewPayload builds a validated payload for a submission
func NewPayload(formType, submissionID string, data map[string]any, metadata map[string]string, at time.Time) (Payload, error) {
	p := Payload{
		Type:         "lead." + formType,
		Timestamp:    at.UTC(),
		SubmissionID: submissionID,
		Source:       Source,
		Data:         data,
		Metadata:     metadata,
	}
	if err := p.Validate(); err != nil {
		return Payload{}, fmt.Errorf("validating payload: %w", err)
	}
	return p, nil
}

// Validate checks the payload is something a CRM can ingest
func (p Payload) Validate() error {
	if p.Type == "" {
		return fmt.Errorf("type is required")
	}
	if !eventTypePattern.MatchString(p.Type) {
		return fmt.Errorf("type must be hierarchical and contain only [a-zA-Z0-9_.]: %s", p.Type)
	}
	if p.SubmissionID == "" {
		return fmt.Errorf("submission id is required")
	}
	if p.Timestamp.IsZero() {
		return fmt.Errorf("timestamp is required")
	}
	if p.Data == nil {
		return fmt.Errorf("data is required")
	}
	return nil
}

// Bytes returns the minified JSON encoding
func (p Payload) Bytes() ([]byte, error) {
	return json.Marshal(p)
}
