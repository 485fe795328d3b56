package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

/* Recorder counts request-path events
 * A nil *Recorder is valid and records nothing, so callers never need a guard
 */
type Recorder struct {
	received    metric.Int64Counter
	spam        metric.Int64Counter
	rateLimited metric.Int64Counter
	attempts    metric.Int64Counter
	circuitOpen metric.Int64Counter
	emails      metric.Int64Counter
}

// NewRecorder creates the counters on the given meter
func NewRecorder(meter metric.Meter) (*Recorder, error) {
	var (
		r   Recorder
		err error
	)

	if r.received, err = meter.Int64Counter("leads.received",
		metric.WithDescription("Form submissions accepted for processing"),
		metric.WithUnit("{submissions}")); err != nil {
		return nil, fmt.Errorf("creating received counter: %w", err)
	}
	if r.spam, err = meter.Int64Counter("leads.spam.blocked",
		metric.WithDescription("Submissions silently dropped by spam checks"),
		metric.WithUnit("{submissions}")); err != nil {
		return nil, fmt.Errorf("creating spam counter: %w", err)
	}
	if r.rateLimited, err = meter.Int64Counter("leads.rate_limited",
		metric.WithDescription("Requests rejected by the per-IP rate limit"),
		metric.WithUnit("{requests}")); err != nil {
		return nil, fmt.Errorf("creating rate limit counter: %w", err)
	}
	if r.attempts, err = meter.Int64Counter("leads.webhook.attempts",
		metric.WithDescription("Webhook delivery attempts by outcome"),
		metric.WithUnit("{attempts}")); err != nil {
		return nil, fmt.Errorf("creating attempts counter: %w", err)
	}
	if r.circuitOpen, err = meter.Int64Counter("leads.circuit.opened",
		metric.WithDescription("Submissions that skipped the webhook because of recent failures"),
		metric.WithUnit("{submissions}")); err != nil {
		return nil, fmt.Errorf("creating circuit counter: %w", err)
	}
	if r.emails, err = meter.Int64Counter("leads.emails",
		metric.WithDescription("Notification emails by template and outcome"),
		metric.WithUnit("{emails}")); err != nil {
		return nil, fmt.Errorf("creating email counter: %w", err)
	}

	return &r, nil
}

func (r *Recorder) Received(ctx context.Context, formType string) {
	if r == nil {
		return
	}
	r.received.Add(ctx, 1, metric.WithAttributes(attribute.String("form.type", formType)))
}

func (r *Recorder) SpamBlocked(ctx context.Context, reason string) {
	if r == nil {
		return
	}
	r.spam.Add(ctx, 1, metric.WithAttributes(attribute.String("spam.reason", reason)))
}

func (r *Recorder) RateLimited(ctx context.Context) {
	if r == nil {
		return
	}
	r.rateLimited.Add(ctx, 1)
}

func (r *Recorder) WebhookAttempt(ctx context.Context, formType string, ok bool) {
	if r == nil {
		return
	}
	r.attempts.Add(ctx, 1, metric.WithAttributes(
		attribute.String("form.type", formType),
		attribute.String("outcome", outcome(ok)),
	))
}

func (r *Recorder) CircuitOpened(ctx context.Context) {
	if r == nil {
		return
	}
	r.circuitOpen.Add(ctx, 1)
}

func (r *Recorder) Email(ctx context.Context, template string, ok bool) {
	if r == nil {
		return
	}
	r.emails.Add(ctx, 1, metric.WithAttributes(
		attribute.String("email.template", template),
		attribute.String("outcome", outcome(ok)),
	))
}

func outcome(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}
