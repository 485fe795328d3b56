package chi

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/httplog"
	"github.com/marcelsud/lead-relay/forms"
	"github.com/marcelsud/lead-relay/internal/clock"
	"github.com/marcelsud/lead-relay/submission"
)

// statusResponse is the operational summary of lead delivery
type statusResponse struct {
	Status            string             `json:"status"` // "healthy" or "degraded"
	SuccessRate       float64            `json:"successRate"`
	Threshold         float64            `json:"threshold"`
	WebhookConfigured bool               `json:"webhookConfigured"`
	Alerts            []string           `json:"alerts"`
	Summary           submission.Summary `json:"summary"`
	CheckedAt         time.Time          `json:"checkedAt"`
}

// getStatus handles GET and HEAD /api/contact/status. Both answer 503 when
// the success rate drops below the threshold; HEAD carries no body.
func getStatus(backup submission.UseCase, catalogue *forms.Catalogue, c clock.Clock, opts Options) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		days := opts.StatusDays
		if d, err := strconv.Atoi(r.URL.Query().Get("days")); err == nil && d > 0 && d <= 90 {
			days = d
		}

		summary, err := backup.GetBackupSummary(r.Context(), days)
		if err != nil {
			log := httplog.LogEntry(r.Context())
			log.Error().Err(err).Msg("building status summary")
			if r.Method == http.MethodHead {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			writeError(w, http.StatusInternalServerError, "Failed to read backup status", err.Error())
			return
		}

		resp := statusResponse{
			Status:      "healthy",
			SuccessRate: summary.SuccessRate,
			Threshold:   opts.SuccessThreshold,
			Alerts:      []string{},
			Summary:     summary,
			CheckedAt:   c.Now().UTC(),
		}
		if contact, err := catalogue.Get(forms.Contact); err == nil {
			resp.WebhookConfigured = catalogue.WebhookURL(contact) != ""
		}
		if !resp.WebhookConfigured {
			resp.Alerts = append(resp.Alerts, "Contact webhook URL is not configured")
		}
		if summary.RecentFailures > 0 {
			resp.Alerts = append(resp.Alerts, fmt.Sprintf("%d webhook deliveries failed in the last 24 hours", summary.RecentFailures))
		}
		if summary.Pending > 0 {
			resp.Alerts = append(resp.Alerts, fmt.Sprintf("%d submissions are waiting for delivery", summary.Pending))
		}

		code := http.StatusOK
		if summary.SuccessRate < opts.SuccessThreshold {
			code = http.StatusServiceUnavailable
			resp.Status = "degraded"
			resp.Alerts = append(resp.Alerts, fmt.Sprintf("Success rate %.1f%% is below %.1f%%", summary.SuccessRate, opts.SuccessThreshold))
		}

		if r.Method == http.MethodHead {
			w.WriteHeader(code)
			return
		}
		writeJSON(w, code, resp)
	})
}
