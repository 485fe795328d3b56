package lead

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/marcelsud/lead-relay/delivery"
	"github.com/marcelsud/lead-relay/email"
	"github.com/marcelsud/lead-relay/events"
	"github.com/marcelsud/lead-relay/forms"
	"github.com/marcelsud/lead-relay/internal/clock"
	"github.com/marcelsud/lead-relay/metrics"
	"github.com/marcelsud/lead-relay/submission"
	"github.com/rs/zerolog"
)

const (
	// DefaultCircuitThreshold is the number of failures in CircuitWindow above
	// which new submissions skip the webhook.
	DefaultCircuitThreshold = 10
	CircuitWindow           = 24 * time.Hour
)

var ErrUnknownForm = errors.New("unknown form type")

/* Pipeline represents the lead processing layer
 * Uses pointer semantics as it's an API, not data
 */

// UseCase defines the operations the HTTP layer and scheduler run on leads
type UseCase interface {
	Process(ctx context.Context, req Request) (Result, error)
	Redeliver(ctx context.Context, sub submission.Submission) (bool, error)
	RetryPending(ctx context.Context, maxAge time.Duration) (RetryReport, error)
}

// Deliverer posts payloads to a CRM webhook
type Deliverer interface {
	Send(ctx context.Context, url string, p delivery.Payload, attempt int) error
	Deliver(ctx context.Context, url string, p delivery.Payload, maxAttempts int, onAttempt func(delivery.Attempt)) delivery.Outcome
}

// Notifier sends the email fallback
type Notifier interface {
	IsConfigured() bool
	SendWebhookFailure(ctx context.Context, f email.Failure) bool
	SendLeadNotification(ctx context.Context, l email.Lead) bool
	SendDocument(ctx context.Context, d email.Document) bool
}

// Request is a validated, spam-checked submission
type Request struct {
	SubmissionID string // optional, generated when empty
	FormType     string
	FormData     map[string]any
	Metadata     map[string]string
}

// Result is what the caller reports back to the browser
type Result struct {
	SubmissionID     string
	WebhookDelivered bool
	Attempts         int
	Queued           bool // delivery continues in the background
	CircuitOpen      bool
	BackedUp         bool
}

// RetryReport summarizes a scheduler sweep
type RetryReport struct {
	Checked   int `json:"checked"`
	Delivered int `json:"delivered"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
}

type Pipeline struct {
	Backup  submission.UseCase
	Webhook Deliverer
	Email   Notifier
	Forms   *forms.Catalogue
	Events  events.Publisher
	Metrics *metrics.Recorder

	CircuitThreshold int
	// MaxAttempts caps the sweep's redeliveries of a retry form
	MaxAttempts int
	// Async runs retrying deliveries after the response has been sent
	Async bool
	// MinAge keeps a sweep away from submissions an in-flight request may still be retrying
	MinAge  time.Duration
	Backoff func(attempt int) time.Duration

	wg     sync.WaitGroup
	logger zerolog.Logger
	clock  clock.Clock
}

// NewPipeline wires a pipeline with no events and the default circuit threshold
func NewPipeline(backup submission.UseCase, webhook Deliverer, notifier Notifier, catalogue *forms.Catalogue, logger zerolog.Logger, c clock.Clock) *Pipeline {
	return &Pipeline{
		Backup:           backup,
		Webhook:          webhook,
		Email:            notifier,
		Forms:            catalogue,
		Events:           events.Noop{},
		CircuitThreshold: DefaultCircuitThreshold,
		MaxAttempts:      submission.DefaultMaxAttempts,
		MinAge:           5 * time.Minute,
		Backoff:          delivery.ExponentialBackoff,
		logger:           logger.With().Str("component", "pipeline").Logger(),
		clock:            c,
	}
}

// Process backs up a submission and relays it according to its form's policy
func (p *Pipeline) Process(ctx context.Context, req Request) (Result, error) {
	form, err := p.Forms.Get(req.FormType)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %s", ErrUnknownForm, req.FormType)
	}

	id := req.SubmissionID
	if id == "" {
		id = uuid.New().String()
	}
	receivedAt := p.clock.Now()

	// Backup and email writes outlive a cancelled request.
	bg := context.WithoutCancel(ctx)

	res := Result{SubmissionID: id}
	res.BackedUp = p.Backup.StoreSubmission(bg, id, form.FormType, req.FormData, submission.Pending, req.Metadata)
	p.Metrics.Received(ctx, form.FormType)
	p.publish(bg, events.Event{Type: events.LeadReceived, SubmissionID: id, FormType: form.FormType})

	payload, err := delivery.NewPayload(form.FormType, id, req.FormData, req.Metadata, receivedAt)
	if err != nil {
		return Result{}, fmt.Errorf("building payload: %w", err)
	}
	l := email.Lead{SubmissionID: id, FormType: form.FormType, FormData: req.FormData, ReceivedAt: receivedAt}
	url := p.Forms.WebhookURL(form)

	switch form.Policy {
	case forms.Single:
		p.deliverOnce(ctx, form, url, payload, l, &res)
	default:
		p.deliverWithRetry(ctx, form, url, payload, l, &res)
	}
	return res, nil
}

func (p *Pipeline) deliverWithRetry(ctx context.Context, form *forms.Form, url string, payload delivery.Payload, l email.Lead, res *Result) {
	bg := context.WithoutCancel(ctx)
	log := p.logger.With().Str("submission_id", l.SubmissionID).Str("form_type", form.FormType).Logger()

	if url == "" {
		log.Warn().Msg("webhook url not configured, using email fallback")
		p.notifySales(bg, l)
		return
	}

	if failures, open := p.circuitOpen(bg); open {
		res.CircuitOpen = true
		log.Warn().Int("failures", failures).Dur("window", CircuitWindow).Msg("circuit breaker open, skipping webhook")
		p.Metrics.CircuitOpened(ctx)
		p.publish(bg, events.Event{Type: events.CircuitOpened, SubmissionID: l.SubmissionID, FormType: form.FormType})
		p.escalate(bg, email.Failure{
			Lead:  l,
			Error: fmt.Sprintf("circuit breaker open: %d webhook failures in the last %s", failures, CircuitWindow),
		})
		return
	}

	if p.Async {
		res.Queued = true
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			p.retryLoop(bg, form, url, payload, l)
		}()
		return
	}

	// Only the per-attempt timeout bounds the loop; a dropped client does not.
	out := p.retryLoop(bg, form, url, payload, l)
	res.WebhookDelivered = out.Delivered
	res.Attempts = out.Attempts
}

// retryLoop runs the bounded delivery and records every attempt on the backup
func (p *Pipeline) retryLoop(ctx context.Context, form *forms.Form, url string, payload delivery.Payload, l email.Lead) delivery.Outcome {
	bg := context.WithoutCancel(ctx)

	out := p.Webhook.Deliver(ctx, url, payload, form.Attempts(), func(a delivery.Attempt) {
		p.Metrics.WebhookAttempt(bg, form.FormType, a.Err == nil)
		p.Backup.RecordAttempt(bg, l.SubmissionID, attemptRecord(a))
	})

	if out.Delivered {
		p.logger.Info().Str("submission_id", l.SubmissionID).Int("attempts", out.Attempts).Msg("webhook delivered")
		p.publish(bg, events.Event{Type: events.LeadDelivered, SubmissionID: l.SubmissionID, FormType: form.FormType, Attempts: out.Attempts})
		return out
	}

	p.logger.Error().Err(out.Err).Str("submission_id", l.SubmissionID).Int("attempts", out.Attempts).Msg("webhook delivery failed")
	p.publish(bg, events.Event{Type: events.LeadFailed, SubmissionID: l.SubmissionID, FormType: form.FormType, Attempts: out.Attempts, Error: errString(out.Err)})
	p.escalate(bg, email.Failure{Lead: l, Attempts: out.Attempts, Error: errString(out.Err)})
	return out
}

// deliverOnce makes a single attempt. Forms with AlwaysNotify email sales
// regardless; others only when the webhook did not take the lead.
func (p *Pipeline) deliverOnce(ctx context.Context, form *forms.Form, url string, payload delivery.Payload, l email.Lead, res *Result) {
	bg := context.WithoutCancel(ctx)

	var sendErr error
	if url == "" {
		p.logger.Warn().Str("submission_id", l.SubmissionID).Str("form_type", form.FormType).Msg("webhook url not configured")
	} else {
		sendErr = p.Webhook.Send(bg, url, payload, 1)
		res.Attempts = 1
		res.WebhookDelivered = sendErr == nil
		p.Metrics.WebhookAttempt(bg, form.FormType, sendErr == nil)

		status := submission.Delivered
		if sendErr != nil {
			status = submission.Failed
		}
		p.Backup.UpdateWebhookStatus(bg, l.SubmissionID, status, errString(sendErr))

		if sendErr == nil {
			p.publish(bg, events.Event{Type: events.LeadDelivered, SubmissionID: l.SubmissionID, FormType: form.FormType, Attempts: 1})
		} else {
			p.logger.Error().Err(sendErr).Str("submission_id", l.SubmissionID).Msg("webhook delivery failed")
			p.publish(bg, events.Event{Type: events.LeadFailed, SubmissionID: l.SubmissionID, FormType: form.FormType, Attempts: 1, Error: sendErr.Error()})
		}
	}

	l.WebhookDelivered = res.WebhookDelivered
	if form.AlwaysNotify || !res.WebhookDelivered {
		p.notifySales(bg, l)
	}
	if form.HasDocument() {
		p.sendDocument(bg, form, l)
	}
	if sendErr != nil {
		p.alertTech(bg, email.Failure{Lead: l, Attempts: 1, Error: sendErr.Error()})
	}
}

// Redeliver makes one more attempt for a stored submission
func (p *Pipeline) Redeliver(ctx context.Context, sub submission.Submission) (bool, error) {
	form, err := p.Forms.Get(sub.FormType)
	if err != nil {
		return false, fmt.Errorf("%w: %s", ErrUnknownForm, sub.FormType)
	}
	url := p.Forms.WebhookURL(form)
	if url == "" {
		return false, delivery.ErrNoURL
	}

	payload, err := delivery.NewPayload(form.FormType, sub.ID, sub.FormData, sub.Metadata, sub.Timestamp)
	if err != nil {
		return false, fmt.Errorf("building payload: %w", err)
	}

	attempt := sub.Attempts + 1
	sendErr := p.Webhook.Send(ctx, url, payload, attempt)
	p.Metrics.WebhookAttempt(ctx, form.FormType, sendErr == nil)

	if sendErr == nil {
		p.Backup.RecordAttempt(ctx, sub.ID, submission.Attempt{Status: submission.Delivered})
		p.publish(ctx, events.Event{Type: events.LeadDelivered, SubmissionID: sub.ID, FormType: form.FormType, Attempts: attempt})
		return true, nil
	}

	if attempt >= p.maxAttempts(form) {
		p.Backup.RecordAttempt(ctx, sub.ID, submission.Attempt{Status: submission.Failed, Error: sendErr.Error()})
		p.publish(ctx, events.Event{Type: events.LeadFailed, SubmissionID: sub.ID, FormType: form.FormType, Attempts: attempt, Error: sendErr.Error()})
		if sub.WebhookStatus == submission.Pending {
			p.escalate(ctx, email.Failure{
				Lead:     email.Lead{SubmissionID: sub.ID, FormType: sub.FormType, FormData: sub.FormData, ReceivedAt: sub.Timestamp},
				Attempts: attempt,
				Error:    sendErr.Error(),
			})
		}
		return false, nil
	}

	p.Backup.RecordAttempt(ctx, sub.ID, submission.Attempt{
		Status:      submission.Pending,
		Error:       sendErr.Error(),
		NextRetryAt: p.clock.Now().Add(p.Backoff(attempt)),
	})
	return false, nil
}

// RetryPending re-delivers retryable submissions created within maxAge.
// Submissions younger than MinAge or not yet due are skipped.
func (p *Pipeline) RetryPending(ctx context.Context, maxAge time.Duration) (RetryReport, error) {
	subs, err := p.Backup.GetPendingWebhooks(ctx, maxAge)
	if err != nil {
		return RetryReport{}, fmt.Errorf("getting pending webhooks: %w", err)
	}

	now := p.clock.Now()
	var report RetryReport
	for _, sub := range subs {
		if ctx.Err() != nil {
			break
		}
		report.Checked++

		if now.Sub(sub.Timestamp) < p.MinAge || sub.NextRetryAt.After(now) {
			report.Skipped++
			continue
		}

		delivered, err := p.Redeliver(ctx, sub)
		switch {
		case err != nil:
			report.Skipped++
			p.logger.Debug().Err(err).Str("submission_id", sub.ID).Msg("submission not redelivered")
		case delivered:
			report.Delivered++
		default:
			report.Failed++
		}
	}

	p.logger.Info().
		Int("checked", report.Checked).
		Int("delivered", report.Delivered).
		Int("failed", report.Failed).
		Int("skipped", report.Skipped).
		Msg("retry sweep finished")
	return report, nil
}

// Wait blocks until background deliveries finish or ctx is done
func (p *Pipeline) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for background deliveries: %w", ctx.Err())
	}
}

// circuitOpen reports whether recent failures exceed the threshold. A store
// error leaves the circuit closed.
// maxAttempts is the form's own cap for retry forms and MaxAttempts otherwise
func (p *Pipeline) maxAttempts(f *forms.Form) int {
	if f.Policy == forms.Retry && f.MaxAttempts > 0 {
		return f.MaxAttempts
	}
	if p.MaxAttempts > 0 {
		return p.MaxAttempts
	}
	return submission.DefaultMaxAttempts
}

func (p *Pipeline) circuitOpen(ctx context.Context) (int, bool) {
	if p.CircuitThreshold <= 0 {
		return 0, false
	}
	failures, err := p.Backup.RecentFailures(ctx, CircuitWindow)
	if err != nil {
		p.logger.Error().Err(err).Msg("counting recent webhook failures")
		return 0, false
	}
	return failures, failures > p.CircuitThreshold
}

// escalate alerts the technical list and forwards the lead to sales
func (p *Pipeline) escalate(ctx context.Context, f email.Failure) {
	p.alertTech(ctx, f)
	p.notifySales(ctx, f.Lead)
}

func (p *Pipeline) alertTech(ctx context.Context, f email.Failure) {
	if !p.Email.IsConfigured() {
		return
	}
	p.Metrics.Email(ctx, "webhook_failure", p.Email.SendWebhookFailure(ctx, f))
}

func (p *Pipeline) notifySales(ctx context.Context, l email.Lead) {
	if !p.Email.IsConfigured() {
		p.logger.Warn().Str("submission_id", l.SubmissionID).Msg("email not configured, lead kept in backup only")
		return
	}
	p.Metrics.Email(ctx, "lead", p.Email.SendLeadNotification(ctx, l))
}

func (p *Pipeline) sendDocument(ctx context.Context, form *forms.Form, l email.Lead) {
	if !p.Email.IsConfigured() {
		return
	}
	d := email.Document{
		To:       stringField(l.FormData, "email"),
		Name:     stringField(l.FormData, "name"),
		Document: form.Document,
		URL:      form.DocumentURL,
	}
	p.Metrics.Email(ctx, "document", p.Email.SendDocument(ctx, d))
}

func (p *Pipeline) publish(ctx context.Context, e events.Event) {
	if p.Events == nil {
		return
	}
	e.OccurredAt = p.clock.Now()
	if err := p.Events.Publish(ctx, e); err != nil {
		p.logger.Warn().Err(err).Str("event", string(e.Type)).Str("submission_id", e.SubmissionID).Msg("publishing event")
	}
}

// attemptRecord maps a client attempt to the backup's view of it. A failure
// followed by another attempt stays pending.
func attemptRecord(a delivery.Attempt) submission.Attempt {
	switch {
	case a.Err == nil:
		return submission.Attempt{Status: submission.Delivered}
	case !a.NextRetryAt.IsZero():
		return submission.Attempt{Status: submission.Pending, Error: a.Err.Error(), NextRetryAt: a.NextRetryAt}
	default:
		return submission.Attempt{Status: submission.Failed, Error: a.Err.Error()}
	}
}

func stringField(data map[string]any, key string) string {
	s, _ := data[key].(string)
	return s
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
