package submission_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/marcelsud/lead-relay/submission"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus(t *testing.T) {
	t.Run("string round trip", func(t *testing.T) {
		for _, s := range []submission.Status{submission.Pending, submission.Delivered, submission.Failed} {
			assert.Equal(t, s, submission.NewStatus(s.String()))
			assert.NoError(t, s.Validate())
		}
	})

	t.Run("unknown strings default to pending", func(t *testing.T) {
		assert.Equal(t, submission.Pending, submission.NewStatus("bogus"))
	})

	t.Run("out of range is invalid", func(t *testing.T) {
		assert.Error(t, submission.Status(0).Validate())
		assert.Error(t, submission.Status(4).Validate())
		assert.Equal(t, "unknown", submission.Status(9).String())
	})

	t.Run("final states", func(t *testing.T) {
		assert.False(t, submission.Pending.IsFinal())
		assert.True(t, submission.Delivered.IsFinal())
		assert.True(t, submission.Failed.IsFinal())
	})

	t.Run("json uses the string form", func(t *testing.T) {
		b, err := json.Marshal(map[string]submission.Status{"webhookStatus": submission.Failed})
		require.NoError(t, err)
		assert.JSONEq(t, `{"webhookStatus":"failed"}`, string(b))

		var s submission.Status
		require.NoError(t, json.Unmarshal([]byte(`"delivered"`), &s))
		assert.Equal(t, submission.Delivered, s)
		assert.Error(t, json.Unmarshal([]byte(`"archived"`), &s))
	})
}

func TestRetryable(t *testing.T) {
	tests := []struct {
		name string
		sub  submission.Submission
		want bool
	}{
		{"pending", submission.Submission{WebhookStatus: submission.Pending}, true},
		{"failed below cap", submission.Submission{WebhookStatus: submission.Failed, Attempts: 4}, true},
		{"failed at cap", submission.Submission{WebhookStatus: submission.Failed, Attempts: 5}, false},
		{"delivered", submission.Submission{WebhookStatus: submission.Delivered, Attempts: 1}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.sub.Retryable(5))
		})
	}
}

func TestDayOf(t *testing.T) {
	loc := time.FixedZone("BRT", -3*60*60)
	late := time.Date(2025, 3, 14, 23, 30, 0, 0, loc)

	assert.Equal(t, time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC), submission.DayOf(late))
	assert.Equal(t, "2025-03-15", submission.DayKey(late))
	assert.Equal(t, "2025-03-15", submission.DayKey(submission.Submission{Timestamp: late}.Day()))
}
