package submission

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/marcelsud/lead-relay/internal/clock"
	"github.com/rs/zerolog"
)

// DefaultMaxAttempts caps delivery attempts before a submission stops being retried.
const DefaultMaxAttempts = 5

/* Archiver copies a day of submissions somewhere durable before retention deletes it
 * Optional: a nil Archiver means days are deleted without a copy
 */
type Archiver interface {
	Archive(ctx context.Context, day time.Time, csv []byte) error
}

// UseCase defines the backup store operations used by the lead pipeline and operators
type UseCase interface {
	StoreSubmission(ctx context.Context, id, formType string, formData map[string]any, status Status, metadata map[string]string) bool
	UpdateWebhookStatus(ctx context.Context, id string, status Status, errMsg string) bool
	RecordAttempt(ctx context.Context, id string, a Attempt) bool
	Get(ctx context.Context, id string) (Submission, error)
	GetPendingWebhooks(ctx context.Context, maxAge time.Duration) ([]Submission, error)
	GetBackupSummary(ctx context.Context, days int) (Summary, error)
	GetAllSubmissions(ctx context.Context, days int) ([]Submission, error)
	ExportCSV(ctx context.Context, days int, w io.Writer) error
	CleanupOldBackups(ctx context.Context, retentionDays int) (int, error)
	RecentFailures(ctx context.Context, window time.Duration) (int, error)
	MarkDelivered(ctx context.Context, id string) error
	ResetForRetry(ctx context.Context, id string) error
}

// Summary aggregates submissions over the last N days.
type Summary struct {
	Days           int          `json:"days"`
	Total          int          `json:"total"`
	Delivered      int          `json:"delivered"`
	Pending        int          `json:"pending"`
	Failed         int          `json:"failed"`
	SuccessRate    float64      `json:"successRate"`
	RecentFailures int          `json:"recentFailures"`
	ByDay          []DaySummary `json:"byDay"`
}

// DaySummary holds the counters of a single day.
type DaySummary struct {
	Day       string `json:"day"`
	Total     int    `json:"total"`
	Delivered int    `json:"delivered"`
	Pending   int    `json:"pending"`
	Failed    int    `json:"failed"`
}

type Service struct {
	Repo        Repository
	Archiver    Archiver
	MaxAttempts int
	logger      zerolog.Logger
	clock       clock.Clock
}

// NewService creates a new submission service with dependency injection
func NewService(repo Repository, logger zerolog.Logger, c clock.Clock) *Service {
	return &Service{
		Repo:        repo,
		MaxAttempts: DefaultMaxAttempts,
		logger:      logger.With().Str("component", "backup").Logger(),
		clock:       c,
	}
}

// StoreSubmission persists a new record. Failures are logged and reported as
// false; the caller carries on without a backup.
func (s *Service) StoreSubmission(ctx context.Context, id, formType string, formData map[string]any, status Status, metadata map[string]string) bool {
	if id == "" {
		id = uuid.New().String()
	}
	if err := status.Validate(); err != nil {
		s.logger.Error().Err(err).Str("submission_id", id).Msg("refusing to store submission")
		return false
	}

	sub := Submission{
		ID:            id,
		Timestamp:     s.clock.Now(),
		FormType:      formType,
		FormData:      formData,
		WebhookStatus: status,
		Metadata:      metadata,
	}
	if _, err := s.Repo.Store(ctx, sub); err != nil {
		s.logger.Error().Err(err).Str("submission_id", id).Msg("storing submission backup")
		return false
	}
	s.logger.Debug().Str("submission_id", id).Str("form_type", formType).Msg("submission backed up")
	return true
}

// UpdateWebhookStatus records a delivery attempt with the given outcome.
func (s *Service) UpdateWebhookStatus(ctx context.Context, id string, status Status, errMsg string) bool {
	return s.RecordAttempt(ctx, id, Attempt{Status: status, Error: errMsg})
}

// RecordAttempt records a delivery attempt. Unknown ids are a warning, not an error.
func (s *Service) RecordAttempt(ctx context.Context, id string, a Attempt) bool {
	if err := a.Status.Validate(); err != nil {
		s.logger.Error().Err(err).Str("submission_id", id).Msg("refusing to record attempt")
		return false
	}
	if a.At.IsZero() {
		a.At = s.clock.Now()
	}

	updated, err := s.Repo.RecordAttempt(ctx, id, a)
	if errors.Is(err, ErrNotFound) {
		s.logger.Warn().Str("submission_id", id).Msg("submission not found for status update")
		return false
	}
	if err != nil {
		s.logger.Error().Err(err).Str("submission_id", id).Msg("updating webhook status")
		return false
	}
	s.logger.Debug().
		Str("submission_id", id).
		Str("status", updated.WebhookStatus.String()).
		Int("attempts", updated.Attempts).
		Msg("webhook status updated")
	return true
}

// Get returns a single submission
func (s *Service) Get(ctx context.Context, id string) (Submission, error) {
	sub, err := s.Repo.Get(ctx, id)
	if err != nil {
		return Submission{}, fmt.Errorf("getting submission: %w", err)
	}
	return sub, nil
}

// GetPendingWebhooks returns submissions a retry job may pick up: pending ones
// and failed ones below the attempt cap, created within maxAge.
func (s *Service) GetPendingWebhooks(ctx context.Context, maxAge time.Duration) ([]Submission, error) {
	now := s.clock.Now()
	cutoff := now.Add(-maxAge)

	var pending []Submission
	for day := DayOf(cutoff); !day.After(now); day = day.AddDate(0, 0, 1) {
		subs, err := s.Repo.ListDay(ctx, day)
		if err != nil {
			return nil, fmt.Errorf("listing submissions for %s: %w", DayKey(day), err)
		}
		for _, sub := range subs {
			if sub.Timestamp.Before(cutoff) {
				continue
			}
			if sub.Retryable(s.MaxAttempts) {
				pending = append(pending, sub)
			}
		}
	}
	return pending, nil
}

// GetAllSubmissions returns every submission of the last days days, newest first.
func (s *Service) GetAllSubmissions(ctx context.Context, days int) ([]Submission, error) {
	if days < 1 {
		days = 1
	}
	today := DayOf(s.clock.Now())

	var all []Submission
	for i := 0; i < days; i++ {
		day := today.AddDate(0, 0, -i)
		subs, err := s.Repo.ListDay(ctx, day)
		if err != nil {
			return nil, fmt.Errorf("listing submissions for %s: %w", DayKey(day), err)
		}
		all = append(all, subs...)
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Timestamp.After(all[j].Timestamp)
	})
	return all, nil
}

// GetBackupSummary counts submissions by status over the last days days.
func (s *Service) GetBackupSummary(ctx context.Context, days int) (Summary, error) {
	if days < 1 {
		days = 1
	}
	today := DayOf(s.clock.Now())

	summary := Summary{Days: days}
	for i := 0; i < days; i++ {
		day := today.AddDate(0, 0, -i)
		subs, err := s.Repo.ListDay(ctx, day)
		if err != nil {
			return Summary{}, fmt.Errorf("listing submissions for %s: %w", DayKey(day), err)
		}
		ds := DaySummary{Day: DayKey(day), Total: len(subs)}
		for _, sub := range subs {
			switch sub.WebhookStatus {
			case Delivered:
				ds.Delivered++
			case Failed:
				ds.Failed++
			default:
				ds.Pending++
			}
		}
		summary.Total += ds.Total
		summary.Delivered += ds.Delivered
		summary.Pending += ds.Pending
		summary.Failed += ds.Failed
		summary.ByDay = append(summary.ByDay, ds)
	}

	recent, err := s.RecentFailures(ctx, 24*time.Hour)
	if err != nil {
		return Summary{}, err
	}
	summary.RecentFailures = recent
	summary.SuccessRate = successRate(summary.Delivered, summary.Failed)
	return summary, nil
}

// RecentFailures counts failed submissions created within window.
func (s *Service) RecentFailures(ctx context.Context, window time.Duration) (int, error) {
	now := s.clock.Now()
	cutoff := now.Add(-window)

	count := 0
	for day := DayOf(cutoff); !day.After(now); day = day.AddDate(0, 0, 1) {
		subs, err := s.Repo.ListDay(ctx, day)
		if err != nil {
			return 0, fmt.Errorf("listing submissions for %s: %w", DayKey(day), err)
		}
		for _, sub := range subs {
			if sub.WebhookStatus == Failed && !sub.Timestamp.Before(cutoff) {
				count++
			}
		}
	}
	return count, nil
}

// ExportCSV writes the submissions of the last days days as CSV.
func (s *Service) ExportCSV(ctx context.Context, days int, w io.Writer) error {
	all, err := s.GetAllSubmissions(ctx, days)
	if err != nil {
		return err
	}
	if err := WriteCSV(w, all); err != nil {
		return fmt.Errorf("writing csv: %w", err)
	}
	return nil
}

// CleanupOldBackups deletes days older than retentionDays. A day that cannot
// be archived is kept for the next run.
func (s *Service) CleanupOldBackups(ctx context.Context, retentionDays int) (int, error) {
	if retentionDays < 1 {
		return 0, fmt.Errorf("retention must be at least one day, got %d", retentionDays)
	}
	cutoff := DayOf(s.clock.Now()).AddDate(0, 0, -retentionDays)

	days, err := s.Repo.Days(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing backup days: %w", err)
	}

	removed := 0
	for _, day := range days {
		if !day.Before(cutoff) {
			continue
		}
		if s.Archiver != nil {
			if err := s.archiveDay(ctx, day); err != nil {
				s.logger.Error().Err(err).Str("day", DayKey(day)).Msg("archiving backup day, keeping it")
				continue
			}
		}
		n, err := s.Repo.DeleteDay(ctx, day)
		if err != nil {
			return removed, fmt.Errorf("deleting backup day %s: %w", DayKey(day), err)
		}
		s.logger.Info().Str("day", DayKey(day)).Int("submissions", n).Msg("old backup day removed")
		removed++
	}
	return removed, nil
}

func (s *Service) archiveDay(ctx context.Context, day time.Time) error {
	subs, err := s.Repo.ListDay(ctx, day)
	if err != nil {
		return fmt.Errorf("listing submissions: %w", err)
	}
	var buf bytes.Buffer
	if err := WriteCSV(&buf, subs); err != nil {
		return fmt.Errorf("writing csv: %w", err)
	}
	return s.Archiver.Archive(ctx, day, buf.Bytes())
}

// MarkDelivered flags a submission as delivered by hand, e.g. after it was
// keyed into the CRM manually.
func (s *Service) MarkDelivered(ctx context.Context, id string) error {
	if err := s.Repo.SetStatus(ctx, id, Delivered); err != nil {
		return fmt.Errorf("marking submission delivered: %w", err)
	}
	return nil
}

// ResetForRetry moves a submission back to pending so the retry job picks it up.
func (s *Service) ResetForRetry(ctx context.Context, id string) error {
	if err := s.Repo.SetStatus(ctx, id, Pending); err != nil {
		return fmt.Errorf("resetting submission: %w", err)
	}
	return nil
}

func successRate(delivered, failed int) float64 {
	completed := delivered + failed
	if completed == 0 {
		return 100
	}
	return float64(delivered) * 100 / float64(completed)
}
