package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/marcelsud/lead-relay/internal/clock"
	"github.com/marcelsud/lead-relay/lead"
	"github.com/marcelsud/lead-relay/submission"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Job names as recorded in the job run store
const (
	JobRetry   = "retry_pending"
	JobCleanup = "backup_cleanup"
)

const (
	DefaultRetrySpec   = "*/5 * * * *"
	DefaultCleanupSpec = "30 3 * * *"
)

// RunRecorder stores the outcome of each job run
type RunRecorder interface {
	RecordJobRun(ctx context.Context, run submission.JobRun) error
}

// Config holds the cron specs and job parameters
type Config struct {
	RetrySpec     string
	CleanupSpec   string
	RetryMaxAge   time.Duration
	RetentionDays int
}

// Scheduler runs the periodic redelivery and retention jobs
type Scheduler struct {
	cron     *cron.Cron
	cfg      Config
	pipeline lead.UseCase
	backup   submission.UseCase
	runs     RunRecorder
	ctx      context.Context
	cancel   context.CancelFunc
	mu       sync.Mutex
	running  bool
	logger   zerolog.Logger
	clock    clock.Clock
}

// New creates a scheduler. runs may be nil.
func New(cfg Config, pipeline lead.UseCase, backup submission.UseCase, runs RunRecorder, logger zerolog.Logger, c clock.Clock) *Scheduler {
	if cfg.RetrySpec == "" {
		cfg.RetrySpec = DefaultRetrySpec
	}
	if cfg.CleanupSpec == "" {
		cfg.CleanupSpec = DefaultCleanupSpec
	}
	if cfg.RetryMaxAge <= 0 {
		cfg.RetryMaxAge = 24 * time.Hour
	}

	logger = logger.With().Str("component", "scheduler").Logger()
	cronLogger := cron.PrintfLogger(&logger)
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
		),
		cfg:      cfg,
		pipeline: pipeline,
		backup:   backup,
		runs:     runs,
		ctx:      ctx,
		cancel:   cancel,
		logger:   logger,
		clock:    c,
	}
}

// Start registers the jobs and starts the cron loop
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler is already running")
	}

	if _, err := s.cron.AddFunc(s.cfg.RetrySpec, func() { s.RunRetry(s.ctx) }); err != nil {
		return fmt.Errorf("adding retry job: %w", err)
	}
	if s.cfg.RetentionDays > 0 {
		if _, err := s.cron.AddFunc(s.cfg.CleanupSpec, func() { s.RunCleanup(s.ctx) }); err != nil {
			return fmt.Errorf("adding cleanup job: %w", err)
		}
	}

	s.cron.Start()
	s.running = true
	s.logger.Info().
		Str("retry", s.cfg.RetrySpec).
		Str("cleanup", s.cfg.CleanupSpec).
		Int("retention_days", s.cfg.RetentionDays).
		Msg("scheduler started")
	return nil
}

// Stop cancels running jobs and waits for them until ctx is done
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	s.running = false
	s.cancel()

	select {
	case <-s.cron.Stop().Done():
		s.logger.Info().Msg("scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("stopping scheduler: %w", ctx.Err())
	}
}

// RunRetry re-delivers pending submissions once
func (s *Scheduler) RunRetry(ctx context.Context) {
	start := s.clock.Now()
	report, err := s.pipeline.RetryPending(ctx, s.cfg.RetryMaxAge)
	detail := fmt.Sprintf("checked=%d delivered=%d failed=%d skipped=%d",
		report.Checked, report.Delivered, report.Failed, report.Skipped)
	s.record(ctx, JobRetry, start, detail, err)
}

// RunCleanup deletes backup days older than the retention window
func (s *Scheduler) RunCleanup(ctx context.Context) {
	start := s.clock.Now()
	removed, err := s.backup.CleanupOldBackups(ctx, s.cfg.RetentionDays)
	s.record(ctx, JobCleanup, start, fmt.Sprintf("removed=%d", removed), err)
}

func (s *Scheduler) record(ctx context.Context, job string, start time.Time, detail string, err error) {
	run := submission.JobRun{
		Job:      job,
		Status:   "ok",
		Detail:   detail,
		Duration: s.clock.Since(start),
		RanAt:    start,
	}
	if err != nil {
		run.Status = "error"
		run.Detail = err.Error()
		s.logger.Error().Err(err).Str("job", job).Msg("job failed")
	} else {
		s.logger.Info().Str("job", job).Str("detail", detail).Dur("duration", run.Duration).Msg("job finished")
	}

	if s.runs == nil {
		return
	}
	if err := s.runs.RecordJobRun(context.WithoutCancel(ctx), run); err != nil {
		s.logger.Warn().Err(err).Str("job", job).Msg("recording job run")
	}
}
