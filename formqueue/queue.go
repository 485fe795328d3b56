// Package formqueue is the client side of lead capture: submissions that could
// not reach the server are kept in a local file and resubmitted with
// exponential backoff once the client is back online.
package formqueue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/marcelsud/lead-relay/internal/clock"
	"github.com/rs/zerolog"
)

const (
	DefaultMaxAttempts = 5
	DefaultBaseDelay   = time.Second
	DefaultInterval    = 30 * time.Second
	DefaultSuccessTTL  = 5 * time.Second
	DefaultMaxAge      = 24 * time.Hour
)

// Report summarizes one processing pass
type Report struct {
	Submitted int `json:"submitted"`
	Retrying  int `json:"retrying"`
	Failed    int `json:"failed"`
	Pruned    int `json:"pruned"`
}

type Queue struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Interval    time.Duration
	SuccessTTL  time.Duration
	MaxAge      time.Duration

	mu        sync.Mutex
	store     Store
	submitter Submitter
	online    chan struct{}
	clock     clock.Clock
	logger    zerolog.Logger
}

// New creates a queue with the default retry policy
func New(store Store, submitter Submitter, logger zerolog.Logger, c clock.Clock) *Queue {
	return &Queue{
		MaxAttempts: DefaultMaxAttempts,
		BaseDelay:   DefaultBaseDelay,
		Interval:    DefaultInterval,
		SuccessTTL:  DefaultSuccessTTL,
		MaxAge:      DefaultMaxAge,
		store:       store,
		submitter:   submitter,
		online:      make(chan struct{}, 1),
		clock:       c,
		logger:      logger.With().Str("component", "formqueue").Logger(),
	}
}

// Add queues a submission for the next processing pass
func (q *Queue) Add(formData map[string]any) (Entry, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	entries, err := q.store.Load()
	if err != nil {
		return Entry{}, fmt.Errorf("loading queue: %w", err)
	}

	e := Entry{
		ID:        uuid.New().String(),
		Timestamp: q.clock.Now(),
		FormData:  formData,
		Status:    Pending,
	}
	entries = append(entries, e)
	if err := q.store.Save(entries); err != nil {
		return Entry{}, fmt.Errorf("saving queue: %w", err)
	}

	q.logger.Info().Str("queue_id", e.ID).Msg("submission queued")
	return e, nil
}

// Entries returns the current queue
func (q *Queue) Entries() ([]Entry, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	entries, err := q.store.Load()
	if err != nil {
		return nil, fmt.Errorf("loading queue: %w", err)
	}
	return entries, nil
}

// Process submits every due entry once and prunes finished ones
func (q *Queue) Process(ctx context.Context) (Report, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	entries, err := q.store.Load()
	if err != nil {
		return Report{}, fmt.Errorf("loading queue: %w", err)
	}

	var report Report
	entries, report.Pruned = q.prune(entries)

	for i := range entries {
		if ctx.Err() != nil {
			break
		}
		e := &entries[i]
		if !e.Due(q.clock.Now()) {
			continue
		}

		e.Attempts++
		err := q.submitter.Submit(ctx, *e)
		now := q.clock.Now()

		switch {
		case err == nil:
			e.Status = Succeeded
			e.CompletedAt = now
			e.NextRetryAt = time.Time{}
			e.LastError = ""
			report.Submitted++
			q.logger.Info().Str("queue_id", e.ID).Int("attempts", e.Attempts).Msg("queued submission delivered")
		case errors.Is(err, ErrRejected) || e.Attempts >= q.MaxAttempts:
			e.Status = Failed
			e.CompletedAt = now
			e.LastError = err.Error()
			report.Failed++
			q.logger.Error().Err(err).Str("queue_id", e.ID).Int("attempts", e.Attempts).Msg("queued submission failed")
		default:
			e.Status = Retrying
			e.NextRetryAt = now.Add(q.Backoff(e.Attempts))
			e.LastError = err.Error()
			report.Retrying++
			q.logger.Warn().Err(err).Str("queue_id", e.ID).Time("next_retry_at", e.NextRetryAt).Msg("queued submission will be retried")
		}
	}

	if err := q.store.Save(entries); err != nil {
		return report, fmt.Errorf("saving queue: %w", err)
	}
	return report, nil
}

// Backoff is BaseDelay doubled for every failed attempt after the first
func (q *Queue) Backoff(attempts int) time.Duration {
	if attempts < 1 {
		attempts = 1
	}
	return q.BaseDelay << (attempts - 1)
}

// Online wakes Run for an immediate pass
func (q *Queue) Online() {
	select {
	case q.online <- struct{}{}:
	default:
	}
}

// Run processes the queue now, on every Interval tick and on every Online
// signal until ctx is done
func (q *Queue) Run(ctx context.Context) error {
	ticker := time.NewTicker(q.Interval)
	defer ticker.Stop()

	for {
		if _, err := q.Process(ctx); err != nil {
			q.logger.Error().Err(err).Msg("processing queue")
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		case <-q.online:
		}
	}
}

// prune drops succeeded entries past SuccessTTL and anything older than MaxAge
func (q *Queue) prune(entries []Entry) ([]Entry, int) {
	now := q.clock.Now()
	kept := entries[:0]
	for _, e := range entries {
		if e.Status == Succeeded && now.Sub(e.CompletedAt) >= q.SuccessTTL {
			continue
		}
		if now.Sub(e.Timestamp) > q.MaxAge {
			continue
		}
		kept = append(kept, e)
	}
	return kept, len(entries) - len(kept)
}
