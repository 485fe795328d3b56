package chi

import (
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/marcelsud/lead-relay/delivery"
	"github.com/marcelsud/lead-relay/forms"
	"github.com/marcelsud/lead-relay/submission"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func sampleSubmission() submission.Submission {
	return submission.Submission{
		ID:            "sub-1",
		Timestamp:     now.Add(-time.Hour),
		FormType:      forms.Contact,
		FormData:      map[string]any{"name": "Ana", "email": "ana@example.com"},
		WebhookStatus: submission.Failed,
		Attempts:      5,
		LastAttemptAt: now.Add(-50 * time.Minute),
		Error:         "webhook responded with HTTP 502",
	}
}

func TestGetExport(t *testing.T) {
	t.Run("json by default", func(t *testing.T) {
		api := newTestAPI(t, forms.Settings{}, Options{})
		api.backup.On("GetAllSubmissions", mock.Anything, 7).Return([]submission.Submission{sampleSubmission()}, nil).Once()

		w := api.do(t, http.MethodGet, "/api/contact/export", "")

		require.Equal(t, http.StatusOK, w.Code)
		body := decode(t, w)
		assert.Equal(t, true, body["success"])
		assert.Equal(t, 1.0, body["count"])
		subs := body["submissions"].([]any)
		require.Len(t, subs, 1)
		first := subs[0].(map[string]any)
		assert.Equal(t, "sub-1", first["id"])
		assert.Equal(t, "failed", first["webhookStatus"])
		assert.NotContains(t, first, "nextRetryAt")
	})

	t.Run("csv attachment", func(t *testing.T) {
		api := newTestAPI(t, forms.Settings{}, Options{})
		api.backup.On("ExportCSV", mock.Anything, 30, mock.Anything).
			Run(func(args mock.Arguments) {
				io.WriteString(args.Get(2).(io.Writer), "id,timestamp\nsub-1,2025-03-14T14:00:00Z\n")
			}).
			Return(nil).Once()

		w := api.do(t, http.MethodGet, "/api/contact/export?format=csv&days=30", "")

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
		assert.Equal(t, `attachment; filename="submissions-2025-03-14.csv"`, w.Header().Get("Content-Disposition"))
		assert.Contains(t, w.Body.String(), "sub-1")
	})

	t.Run("csv failure", func(t *testing.T) {
		api := newTestAPI(t, forms.Settings{}, Options{})
		api.backup.On("ExportCSV", mock.Anything, 7, mock.Anything).Return(assert.AnError).Once()

		w := api.do(t, http.MethodGet, "/api/contact/export?format=csv", "")

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})

	for _, q := range []string{"days=0", "days=91", "days=abc", "format=xml"} {
		t.Run("bad query "+q, func(t *testing.T) {
			api := newTestAPI(t, forms.Settings{}, Options{})

			w := api.do(t, http.MethodGet, "/api/contact/export?"+q, "")

			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestExportAPIKey(t *testing.T) {
	api := newTestAPI(t, forms.Settings{}, Options{ExportAPIKey: "s3cret"})
	api.backup.On("GetAllSubmissions", mock.Anything, 7).Return(nil, nil).Once()

	w := api.do(t, http.MethodGet, "/api/contact/export", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = api.do(t, http.MethodGet, "/api/contact/export", "", "Authorization", "Bearer wrong")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = api.do(t, http.MethodPost, "/api/contact/export", `{"action":"get_details","submissionId":"sub-1"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = api.do(t, http.MethodGet, "/api/contact/export", "", "Authorization", "Bearer s3cret")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0.0, decode(t, w)["count"])
}

func TestPostExport(t *testing.T) {
	t.Run("get details", func(t *testing.T) {
		api := newTestAPI(t, forms.Settings{}, Options{})
		api.backup.On("Get", mock.Anything, "sub-1").Return(sampleSubmission(), nil).Once()

		w := api.do(t, http.MethodPost, "/api/contact/export", `{"action":"get_details","submissionId":"sub-1"}`)

		require.Equal(t, http.StatusOK, w.Code)
		body := decode(t, w)
		assert.Equal(t, "get_details", body["action"])
		assert.Equal(t, "sub-1", body["submission"].(map[string]any)["id"])
	})

	t.Run("not found", func(t *testing.T) {
		api := newTestAPI(t, forms.Settings{}, Options{})
		api.backup.On("Get", mock.Anything, "missing").Return(submission.Submission{}, submission.ErrNotFound).Once()

		w := api.do(t, http.MethodPost, "/api/contact/export", `{"action":"get_details","submissionId":"missing"}`)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "Submission not found", decode(t, w)["error"])
	})

	t.Run("mark delivered", func(t *testing.T) {
		api := newTestAPI(t, forms.Settings{}, Options{})
		api.backup.On("MarkDelivered", mock.Anything, "sub-1").Return(nil).Once()

		w := api.do(t, http.MethodPost, "/api/contact/export", `{"action":"mark_delivered","submissionId":"sub-1"}`)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Submission marked as delivered", decode(t, w)["message"])
	})

	t.Run("mark delivered storage error", func(t *testing.T) {
		api := newTestAPI(t, forms.Settings{}, Options{})
		api.backup.On("MarkDelivered", mock.Anything, "sub-1").Return(assert.AnError).Once()

		w := api.do(t, http.MethodPost, "/api/contact/export", `{"action":"mark_delivered","submissionId":"sub-1"}`)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})

	t.Run("retry delivers", func(t *testing.T) {
		api := newTestAPI(t, forms.Settings{}, Options{})
		reset := sampleSubmission()
		reset.WebhookStatus = submission.Pending
		reset.Attempts = 0
		api.backup.On("ResetForRetry", mock.Anything, "sub-1").Return(nil).Once()
		api.backup.On("Get", mock.Anything, "sub-1").Return(reset, nil).Once()
		api.leads.On("Redeliver", mock.Anything, reset).Return(true, nil).Once()

		w := api.do(t, http.MethodPost, "/api/contact/export", `{"action":"retry","submissionId":"sub-1"}`)

		require.Equal(t, http.StatusOK, w.Code)
		body := decode(t, w)
		assert.Equal(t, true, body["webhookDelivered"])
		assert.Equal(t, "Submission delivered", body["message"])
	})

	t.Run("retry without webhook", func(t *testing.T) {
		api := newTestAPI(t, forms.Settings{}, Options{})
		api.backup.On("ResetForRetry", mock.Anything, "sub-1").Return(nil).Once()
		api.backup.On("Get", mock.Anything, "sub-1").Return(sampleSubmission(), nil).Once()
		api.leads.On("Redeliver", mock.Anything, mock.Anything).Return(false, delivery.ErrNoURL).Once()

		w := api.do(t, http.MethodPost, "/api/contact/export", `{"action":"retry","submissionId":"sub-1"}`)

		require.Equal(t, http.StatusOK, w.Code)
		body := decode(t, w)
		assert.Equal(t, false, body["webhookDelivered"])
		assert.Contains(t, body["message"], delivery.ErrNoURL.Error())
	})

	t.Run("retry unknown submission", func(t *testing.T) {
		api := newTestAPI(t, forms.Settings{}, Options{})
		api.backup.On("ResetForRetry", mock.Anything, "nope").Return(submission.ErrNotFound).Once()

		w := api.do(t, http.MethodPost, "/api/contact/export", `{"action":"retry","submissionId":"nope"}`)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	tests := []struct {
		name string
		body string
		want string
	}{
		{"unknown action", `{"action":"delete","submissionId":"sub-1"}`, "Invalid action"},
		{"missing id", `{"action":"retry"}`, "submissionId is required"},
		{"malformed", `{"action":`, "Invalid request body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newTestAPI(t, forms.Settings{}, Options{})

			w := api.do(t, http.MethodPost, "/api/contact/export", tt.body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.want, decode(t, w)["error"])
		})
	}
}
