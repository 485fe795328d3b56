package chi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog"
	"github.com/marcelsud/lead-relay/forms"
	"github.com/marcelsud/lead-relay/internal/clock"
	"github.com/marcelsud/lead-relay/lead"
	"github.com/marcelsud/lead-relay/metrics"
	"github.com/marcelsud/lead-relay/spam"
	"github.com/marcelsud/lead-relay/submission"
	"github.com/rs/zerolog"
)

// maxBodyBytes bounds every form POST
const maxBodyBytes = 64 << 10

// Services are the dependencies of the lead API
type Services struct {
	Leads   lead.UseCase
	Backup  submission.UseCase
	Forms   *forms.Catalogue
	Limiter *spam.RateLimiter
	Guard   *spam.Guard
	Metrics *metrics.Recorder
	// MetricsHandler serves /metrics; nil disables the endpoint
	MetricsHandler http.Handler
	Clock          clock.Clock
}

// Options tune the HTTP layer
type Options struct {
	ExportAPIKey string
	// SuccessThreshold is the delivery success rate, in percent, below which
	// the status endpoint answers 503
	SuccessThreshold float64
	// RequestTimeout must outlast a full synchronous retry loop
	RequestTimeout time.Duration
	StatusDays     int
}

// Handlers sets up the lead API routes
func Handlers(ctx context.Context, logger zerolog.Logger, s Services, opts Options) *chi.Mux {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 2 * time.Minute
	}
	if opts.StatusDays <= 0 {
		opts.StatusDays = 7
	}
	if s.Clock == nil {
		s.Clock = clock.NewReal()
	}

	r := chi.NewRouter()
	r.Use(httplog.RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(opts.RequestTimeout))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})
	if s.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", s.MetricsHandler)
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/forms", getForms(s.Forms).ServeHTTP)

		r.Post("/contact", postContact(s).ServeHTTP)
		r.Post("/brochure-download", postDocumentForm(s, forms.Brochure, "Brochure sent! Check your email.", "Failed to process brochure request").ServeHTTP)
		r.Post("/floor-plans", postDocumentForm(s, forms.FloorPlans, "Floor plans sent! Check your email.", "Failed to process floor plans request").ServeHTTP)
		r.Post("/open-house/sign-in", postOpenHouse(s, false).ServeHTTP)
		r.Post("/open-house/feedback", postOpenHouse(s, true).ServeHTTP)

		status := getStatus(s.Backup, s.Forms, s.Clock, opts)
		r.Get("/contact/status", status.ServeHTTP)
		r.Head("/contact/status", status.ServeHTTP)

		r.Group(func(r chi.Router) {
			r.Use(requireAPIKey(opts.ExportAPIKey))
			r.Get("/contact/export", getExport(s.Backup, s.Clock).ServeHTTP)
			r.Post("/contact/export", postExport(s.Backup, s.Leads).ServeHTTP)
		})
	})

	return r
}
