// Package events publishes lead lifecycle events for downstream consumers
// (CRM sync jobs, analytics). Publishing is best effort: a failed publish is
// logged by the caller and never affects the request.
package events

import (
	"context"
	"encoding/json"
	"time"
)

type Type string

const (
	LeadReceived  Type = "lead.received"
	LeadDelivered Type = "lead.delivered"
	LeadFailed    Type = "lead.failed"
	CircuitOpened Type = "lead.circuit_opened"
)

// Event is one lifecycle step of a submission
type Event struct {
	Type         Type      `json:"type"`
	SubmissionID string    `json:"submissionId"`
	FormType     string    `json:"formType"`
	Attempts     int       `json:"attempts,omitempty"`
	Error        string    `json:"error,omitempty"`
	OccurredAt   time.Time `json:"occurredAt"`
}

// Bytes returns the JSON encoding of the event
func (e Event) Bytes() ([]byte, error) {
	return json.Marshal(e)
}

// Publisher sends events to a broker
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// Noop discards every event; used when no broker is configured
type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }
func (Noop) Close() error                         { return nil }
