package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessage(t *testing.T) {
	at := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)
	e := Event{
		Type:         LeadFailed,
		SubmissionID: "sub-1",
		FormType:     "contact",
		Attempts:     5,
		Error:        "HTTP 502",
		OccurredAt:   at,
	}

	msg, err := message(e)

	require.NoError(t, err)
	assert.Equal(t, []byte("sub-1"), msg.Key)
	assert.Equal(t, at, msg.Time)
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, HeaderEventType, msg.Headers[0].Key)
	assert.Equal(t, "lead.failed", string(msg.Headers[0].Value))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, "lead.failed", decoded["type"])
	assert.Equal(t, "sub-1", decoded["submissionId"])
	assert.Equal(t, float64(5), decoded["attempts"])
}

func TestEventOmitsEmptyFields(t *testing.T) {
	b, err := Event{Type: LeadReceived, SubmissionID: "sub-2", FormType: "brochure"}.Bytes()

	require.NoError(t, err)
	assert.NotContains(t, string(b), "attempts")
	assert.NotContains(t, string(b), "error")
}

func TestNoop(t *testing.T) {
	var p Publisher = Noop{}

	assert.NoError(t, p.Publish(context.Background(), Event{Type: LeadReceived}))
	assert.NoError(t, p.Close())
}
