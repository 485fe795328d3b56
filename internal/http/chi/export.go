package chi

import (
	"bytes"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/httplog"
	"github.com/marcelsud/lead-relay/internal/clock"
	"github.com/marcelsud/lead-relay/lead"
	"github.com/marcelsud/lead-relay/submission"
)

const (
	defaultExportDays = 7
	maxExportDays     = 90
)

// submissionResponse represents a backup record in the API
type submissionResponse struct {
	ID            string            `json:"id"`
	Timestamp     time.Time         `json:"timestamp"`
	FormType      string            `json:"formType"`
	FormData      map[string]any    `json:"formData"`
	WebhookStatus string            `json:"webhookStatus"`
	Attempts      int               `json:"attempts"`
	LastAttemptAt *time.Time        `json:"lastAttemptAt,omitempty"`
	Error         string            `json:"error,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
	NextRetryAt   *time.Time        `json:"nextRetryAt,omitempty"`
}

type exportResponse struct {
	Success     bool                 `json:"success"`
	Days        int                  `json:"days"`
	Count       int                  `json:"count"`
	Submissions []submissionResponse `json:"submissions"`
}

type actionResponse struct {
	Success          bool                `json:"success"`
	Action           string              `json:"action"`
	SubmissionID     string              `json:"submissionId"`
	Message          string              `json:"message,omitempty"`
	WebhookDelivered *bool               `json:"webhookDelivered,omitempty"`
	Submission       *submissionResponse `json:"submission,omitempty"`
}

// requireAPIKey guards the export endpoints with a bearer key; an empty key leaves them open
func requireAPIKey(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if key == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
			if subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
				writeError(w, http.StatusUnauthorized, "Unauthorized", "")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// getExport handles GET /api/contact/export?format=csv|json&days=N
func getExport(backup submission.UseCase, c clock.Clock) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		days := defaultExportDays
		if raw := r.URL.Query().Get("days"); raw != "" {
			d, err := strconv.Atoi(raw)
			if err != nil || d < 1 || d > maxExportDays {
				writeError(w, http.StatusBadRequest, fmt.Sprintf("days must be between 1 and %d", maxExportDays), "")
				return
			}
			days = d
		}

		switch format := r.URL.Query().Get("format"); format {
		case "csv":
			var buf bytes.Buffer
			if err := backup.ExportCSV(r.Context(), days, &buf); err != nil {
				log := httplog.LogEntry(r.Context())
				log.Error().Err(err).Msg("exporting csv")
				writeError(w, http.StatusInternalServerError, "Failed to export submissions", err.Error())
				return
			}
			filename := fmt.Sprintf("submissions-%s.csv", c.Now().UTC().Format(time.DateOnly))
			w.Header().Set("Content-Type", "text/csv; charset=utf-8")
			w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
			w.WriteHeader(http.StatusOK)
			w.Write(buf.Bytes())
		case "", "json":
			subs, err := backup.GetAllSubmissions(r.Context(), days)
			if err != nil {
				log := httplog.LogEntry(r.Context())
				log.Error().Err(err).Msg("exporting json")
				writeError(w, http.StatusInternalServerError, "Failed to export submissions", err.Error())
				return
			}
			resp := exportResponse{Success: true, Days: days, Count: len(subs), Submissions: make([]submissionResponse, 0, len(subs))}
			for _, s := range subs {
				resp.Submissions = append(resp.Submissions, toSubmissionResponse(s))
			}
			writeJSON(w, http.StatusOK, resp)
		default:
			writeError(w, http.StatusBadRequest, "format must be csv or json", format)
		}
	})
}

// postExport handles the manual recovery actions on a single submission
func postExport(backup submission.UseCase, leads lead.UseCase) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		log := httplog.LogEntry(ctx)

		var req exportAction
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body", err.Error())
			return
		}
		if err := validate.Struct(req); err != nil {
			if req.SubmissionID == "" {
				writeError(w, http.StatusBadRequest, "submissionId is required", "")
				return
			}
			writeError(w, http.StatusBadRequest, "Invalid action", "expected retry, mark_delivered or get_details")
			return
		}

		resp := actionResponse{Success: true, Action: req.Action, SubmissionID: req.SubmissionID}

		switch req.Action {
		case "get_details":
			sub, err := backup.Get(ctx, req.SubmissionID)
			if err != nil {
				writeLookupError(w, err)
				return
			}
			sr := toSubmissionResponse(sub)
			resp.Submission = &sr

		case "mark_delivered":
			if err := backup.MarkDelivered(ctx, req.SubmissionID); err != nil {
				writeLookupError(w, err)
				return
			}
			log.Info().Str("submission_id", req.SubmissionID).Msg("submission marked delivered by operator")
			resp.Message = "Submission marked as delivered"

		case "retry":
			if err := backup.ResetForRetry(ctx, req.SubmissionID); err != nil {
				writeLookupError(w, err)
				return
			}
			sub, err := backup.Get(ctx, req.SubmissionID)
			if err != nil {
				writeLookupError(w, err)
				return
			}
			delivered, err := leads.Redeliver(ctx, sub)
			resp.WebhookDelivered = &delivered
			switch {
			case err != nil:
				resp.Message = "Submission reset to pending; " + err.Error()
			case delivered:
				resp.Message = "Submission delivered"
			default:
				resp.Message = "Delivery failed"
			}
			log.Info().Str("submission_id", req.SubmissionID).Bool("delivered", delivered).Msg("manual retry")
		}

		writeJSON(w, http.StatusOK, resp)
	})
}

func writeLookupError(w http.ResponseWriter, err error) {
	if errors.Is(err, submission.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Submission not found", "")
		return
	}
	writeError(w, http.StatusInternalServerError, "Failed to update submission", err.Error())
}

func toSubmissionResponse(s submission.Submission) submissionResponse {
	return submissionResponse{
		ID:            s.ID,
		Timestamp:     s.Timestamp,
		FormType:      s.FormType,
		FormData:      s.FormData,
		WebhookStatus: s.WebhookStatus.String(),
		Attempts:      s.Attempts,
		LastAttemptAt: timePtr(s.LastAttemptAt),
		Error:         s.Error,
		Metadata:      s.Metadata,
		NextRetryAt:   timePtr(s.NextRetryAt),
	}
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
