package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/httplog"
	"github.com/google/uuid"
	"github.com/marcelsud/lead-relay/forms"
	"github.com/marcelsud/lead-relay/lead"
)

// formRequest is the {formData,metadata} body of the lead forms
type formRequest struct {
	FormData  map[string]any `json:"formData"`
	Metadata  map[string]any `json:"metadata"`
	EventMeta *eventMeta     `json:"eventMeta,omitempty"`
	SourceURL string         `json:"sourceUrl,omitempty"`
}

// eventMeta identifies the open house a sign-in or feedback belongs to
type eventMeta struct {
	FormType  string `json:"formType"`
	EventType string `json:"eventType"`
	EventID   string `json:"eventId"`
}

// formResponse is the 200 answer of the lead forms
type formResponse struct {
	Success          bool   `json:"success"`
	Message          string `json:"message"`
	SubmissionID     string `json:"submissionId"`
	WebhookDelivered *bool  `json:"webhookDelivered,omitempty"`
}

// catalogueResponse represents a form in the catalogue listing
type catalogueResponse struct {
	FormType       string   `json:"form_type"`
	Policy         string   `json:"policy"`
	MaxAttempts    int      `json:"max_attempts"`
	WebhookURLSet  bool     `json:"webhook_configured"`
	Document       string   `json:"document,omitempty"`
	RequiredFields []string `json:"required_fields"`
}

var errMissingFormData = errors.New("request body must contain formData")

// postDocumentForm handles the brochure and floor plans downloads
func postDocumentForm(s Services, formType, accepted, failure string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req, ok := decodeForm(w, r, failure)
		if !ok {
			return
		}
		handleForm(w, r, s, formType, req, accepted, failure, false)
	})
}

// postOpenHouse handles open house sign-ins and feedback. The form type comes
// from eventMeta.formType when it names an open house form, or is derived
// from eventMeta.eventType.
func postOpenHouse(s Services, feedback bool) http.Handler {
	failure := "Failed to process open house sign-in"
	accepted := "Thanks for signing in!"
	if feedback {
		failure = "Failed to process open house feedback"
		accepted = "Thanks for your feedback!"
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req, ok := decodeForm(w, r, failure)
		if !ok {
			return
		}

		var formType string
		if req.EventMeta != nil {
			formType = req.EventMeta.FormType
			if !forms.IsOpenHouse(formType) || !s.Forms.Exists(formType) {
				formType = forms.OpenHouseFormType(req.EventMeta.EventType, feedback)
			}
			if req.Metadata == nil {
				req.Metadata = map[string]any{}
			}
			if req.EventMeta.EventID != "" {
				req.Metadata["eventId"] = req.EventMeta.EventID
			}
		} else {
			formType = forms.OpenHouseFormType("", feedback)
		}
		if req.SourceURL != "" {
			if req.Metadata == nil {
				req.Metadata = map[string]any{}
			}
			req.Metadata["sourceUrl"] = req.SourceURL
		}

		handleForm(w, r, s, formType, req, accepted, failure, true)
	})
}

func decodeForm(w http.ResponseWriter, r *http.Request, failure string) (formRequest, bool) {
	var req formRequest
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req)
	if err == nil && req.FormData == nil {
		err = errMissingFormData
	}
	if err != nil {
		log := httplog.LogEntry(r.Context())
		log.Error().Err(err).Msg("decoding form")
		writeError(w, http.StatusInternalServerError, failure, err.Error())
		return formRequest{}, false
	}
	return req, true
}

// handleForm runs the shared spam, rate limit and validation steps before the pipeline
func handleForm(w http.ResponseWriter, r *http.Request, s Services, formType string, req formRequest, accepted, failure string, reportDelivery bool) {
	ctx := r.Context()
	log := httplog.LogEntry(ctx)

	if reason := spamReason(s.Guard, req.FormData, req.Metadata); reason != "" {
		s.Metrics.SpamBlocked(ctx, reason)
		log.Warn().Str("reason", reason).Str("form_type", formType).Msg("spam submission dropped")
		writeJSON(w, http.StatusOK, formResponse{Success: true, Message: accepted, SubmissionID: uuid.New().String()})
		return
	}

	if !allow(w, r, s) {
		return
	}

	form, err := s.Forms.Get(formType)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Unknown form type", formType)
		return
	}
	for _, field := range form.RequiredFields {
		if text(req.FormData, field) == "" {
			writeError(w, http.StatusBadRequest, "Missing required fields", "")
			return
		}
	}
	if email := text(req.FormData, "email"); email != "" && !validEmail(email) {
		writeError(w, http.StatusBadRequest, "Invalid email format", "")
		return
	}

	res, err := s.Leads.Process(ctx, lead.Request{
		FormType: formType,
		FormData: formFields(req.FormData),
		Metadata: requestMetadata(r, req.Metadata),
	})
	if err != nil {
		log.Error().Err(err).Str("form_type", formType).Msg("processing form")
		writeError(w, http.StatusInternalServerError, failure, err.Error())
		return
	}
	logOutcome(ctx, res)

	resp := formResponse{Success: true, Message: accepted, SubmissionID: res.SubmissionID}
	if reportDelivery {
		resp.WebhookDelivered = &res.WebhookDelivered
	}
	writeJSON(w, http.StatusOK, resp)
}

// getForms handles GET /api/forms
func getForms(catalogue *forms.Catalogue) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		all := catalogue.List()

		responses := make([]catalogueResponse, 0, len(all))
		for _, f := range all {
			responses = append(responses, catalogueResponse{
				FormType:       f.FormType,
				Policy:         f.Policy.String(),
				MaxAttempts:    f.Attempts(),
				WebhookURLSet:  catalogue.WebhookURL(f) != "",
				Document:       f.Document,
				RequiredFields: f.RequiredFields,
			})
		}

		writeJSON(w, http.StatusOK, responses)
	})
}
