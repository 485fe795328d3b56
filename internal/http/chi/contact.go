package chi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/httplog"
	"github.com/google/uuid"
	"github.com/marcelsud/lead-relay/forms"
	"github.com/marcelsud/lead-relay/lead"
)

const contactAccepted = "Thank you! We'll be in touch soon."

// contactResponse is the 200 answer of POST /api/contact
type contactResponse struct {
	Success          bool   `json:"success"`
	SubmissionID     string `json:"submissionId"`
	Message          string `json:"message"`
	WebhookDelivered bool   `json:"webhookDelivered"`
	// Queued is set when delivery continues after the response
	Queued         bool  `json:"queued,omitempty"`
	ProcessingTime int64 `json:"processingTime"` // milliseconds
}

// postContact handles POST /api/contact. The body is either the flat form
// ({name,email,phone,message,...}) or {formData,metadata}.
func postContact(s Services) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := s.Clock.Now()
		ctx := r.Context()
		log := httplog.LogEntry(ctx)

		var raw map[string]any
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&raw); err != nil {
			log.Error().Err(err).Msg("decoding contact form")
			writeError(w, http.StatusInternalServerError, "Failed to process contact form", err.Error())
			return
		}

		data, meta := splitBody(raw)

		if reason := spamReason(s.Guard, data, meta); reason != "" {
			s.Metrics.SpamBlocked(ctx, reason)
			log.Warn().Str("reason", reason).Msg("spam submission dropped")
			writeJSON(w, http.StatusOK, contactResponse{
				Success:        true,
				SubmissionID:   uuid.New().String(),
				Message:        contactAccepted,
				ProcessingTime: s.Clock.Since(start).Milliseconds(),
			})
			return
		}

		if !allow(w, r, s) {
			return
		}

		err := validate.Struct(contactFields{
			Name:    text(data, "name"),
			Email:   text(data, "email"),
			Phone:   text(data, "phone"),
			Message: text(data, "message"),
		})
		if err != nil {
			if missingRequired(err) {
				writeError(w, http.StatusBadRequest, "All fields are required", "")
				return
			}
			writeError(w, http.StatusBadRequest, "Invalid email format", "")
			return
		}

		res, err := s.Leads.Process(ctx, lead.Request{
			FormType: forms.Contact,
			FormData: formFields(data),
			Metadata: requestMetadata(r, meta),
		})
		if err != nil {
			log.Error().Err(err).Msg("processing contact form")
			writeError(w, http.StatusInternalServerError, "Failed to process contact form", err.Error())
			return
		}
		logOutcome(ctx, res)

		writeJSON(w, http.StatusOK, contactResponse{
			Success:          true,
			SubmissionID:     res.SubmissionID,
			Message:          contactAccepted,
			WebhookDelivered: res.WebhookDelivered,
			Queued:           res.Queued,
			ProcessingTime:   s.Clock.Since(start).Milliseconds(),
		})
	})
}

// logOutcome adds what the pipeline did to the request's access log line
func logOutcome(ctx context.Context, res lead.Result) {
	httplog.LogEntrySetFields(ctx, map[string]interface{}{
		"submission_id":     res.SubmissionID,
		"webhook_delivered": res.WebhookDelivered,
		"attempts":          res.Attempts,
		"backed_up":         res.BackedUp,
		"circuit_open":      res.CircuitOpen,
		"queued":            res.Queued,
	})
}

// splitBody separates form fields from client metadata in either body shape
func splitBody(raw map[string]any) (map[string]any, map[string]any) {
	meta, _ := raw["metadata"].(map[string]any)
	if data, ok := raw["formData"].(map[string]any); ok {
		return data, meta
	}

	data := make(map[string]any, len(raw))
	for k, v := range raw {
		if k != "metadata" {
			data[k] = v
		}
	}
	return data, meta
}
