package chi

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/httplog"
	"github.com/marcelsud/lead-relay/spam"
)

// Hidden form fields used by the spam checks; they are never forwarded
const (
	honeypotField   = "website"
	renderedAtField = "formRenderedAt"
)

// spamReason returns why a submission looks automated, or "" when it does not.
// The fields are looked up in the form data first, then in the metadata.
func spamReason(g *spam.Guard, data, meta map[string]any) string {
	if spam.ValidateHoneypot(lookup(honeypotField, data, meta)) {
		return "honeypot"
	}
	if g != nil {
		if ms, ok := millis(lookup(renderedAtField, data, meta)); ok && g.ValidateSubmissionTime(ms) {
			return "timing"
		}
	}
	return ""
}

// allow applies the per-IP rate limit, answering 429 when it is exceeded
func allow(w http.ResponseWriter, r *http.Request, s Services) bool {
	if s.Limiter == nil {
		return true
	}
	d := s.Limiter.Check(spam.ClientIP(r))

	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(d.ResetAt.Unix(), 10))
	if d.Allowed {
		return true
	}

	retryAfter := int(d.ResetAt.Sub(s.Clock.Now()).Seconds())
	if retryAfter < 1 {
		retryAfter = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	s.Metrics.RateLimited(r.Context())
	log := httplog.LogEntry(r.Context())
	log.Warn().Msg("rate limit exceeded")
	writeError(w, http.StatusTooManyRequests, "Too many requests. Please try again later.", "")
	return false
}

// formFields strips the spam check fields from the data forwarded downstream
func formFields(data map[string]any) map[string]any {
	out := make(map[string]any, len(data))
	for k, v := range data {
		if k == honeypotField || k == renderedAtField {
			continue
		}
		out[k] = v
	}
	return out
}

// requestMetadata flattens client metadata and adds the anonymized client IP
func requestMetadata(r *http.Request, meta map[string]any) map[string]string {
	out := make(map[string]string, len(meta)+2)
	for k, v := range meta {
		if v == nil || k == honeypotField || k == renderedAtField {
			continue
		}
		out[k] = fmt.Sprint(v)
	}
	out["ip"] = spam.AnonymizeIP(spam.ClientIP(r))
	if ua := r.UserAgent(); ua != "" {
		out["userAgent"] = ua
	}
	return out
}

func lookup(key string, maps ...map[string]any) any {
	for _, m := range maps {
		if v, ok := m[key]; ok {
			return v
		}
	}
	return nil
}

func millis(v any) (int64, bool) {
	switch t := v.(type) {
	case float64:
		return int64(t), true
	case string:
		n, err := strconv.ParseInt(t, 10, 64)
		return n, err == nil
	default:
		return 0, false
	}
}
