package scheduler_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/marcelsud/lead-relay/internal/clock"
	"github.com/marcelsud/lead-relay/lead"
	leadmocks "github.com/marcelsud/lead-relay/lead/mocks"
	"github.com/marcelsud/lead-relay/scheduler"
	"github.com/marcelsud/lead-relay/submission"
	submocks "github.com/marcelsud/lead-relay/submission/mocks"
	subredis "github.com/marcelsud/lead-relay/submission/redis"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// The Redis backup store records job runs for the API binary
var _ scheduler.RunRecorder = (*subredis.Repository)(nil)

type runLog struct {
	mu   sync.Mutex
	runs []submission.JobRun
	err  error
}

func (l *runLog) RecordJobRun(_ context.Context, run submission.JobRun) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.runs = append(l.runs, run)
	return l.err
}

var start = time.Date(2025, 3, 14, 3, 30, 0, 0, time.UTC)

func TestRunRetry(t *testing.T) {
	ctx := context.Background()

	t.Run("records the sweep report", func(t *testing.T) {
		pipeline := leadmocks.NewUseCase(t)
		runs := &runLog{}
		s := scheduler.New(scheduler.Config{RetryMaxAge: 12 * time.Hour}, pipeline, submocks.NewUseCase(t), runs, zerolog.Nop(), clock.NewManual(start))

		pipeline.On("RetryPending", mock.Anything, 12*time.Hour).
			Return(lead.RetryReport{Checked: 3, Delivered: 2, Failed: 1}, nil).Once()

		s.RunRetry(ctx)

		require.Len(t, runs.runs, 1)
		assert.Equal(t, scheduler.JobRetry, runs.runs[0].Job)
		assert.Equal(t, "ok", runs.runs[0].Status)
		assert.Equal(t, "checked=3 delivered=2 failed=1 skipped=0", runs.runs[0].Detail)
		assert.Equal(t, start, runs.runs[0].RanAt)
	})

	t.Run("records errors", func(t *testing.T) {
		pipeline := leadmocks.NewUseCase(t)
		runs := &runLog{}
		s := scheduler.New(scheduler.Config{}, pipeline, submocks.NewUseCase(t), runs, zerolog.Nop(), clock.NewManual(start))

		pipeline.On("RetryPending", mock.Anything, 24*time.Hour).
			Return(lead.RetryReport{}, errors.New("redis down")).Once()

		s.RunRetry(ctx)

		require.Len(t, runs.runs, 1)
		assert.Equal(t, "error", runs.runs[0].Status)
		assert.Equal(t, "redis down", runs.runs[0].Detail)
	})

	t.Run("recorder failure is ignored", func(t *testing.T) {
		pipeline := leadmocks.NewUseCase(t)
		runs := &runLog{err: errors.New("redis down")}
		s := scheduler.New(scheduler.Config{}, pipeline, submocks.NewUseCase(t), runs, zerolog.Nop(), clock.NewManual(start))

		pipeline.On("RetryPending", mock.Anything, mock.Anything).Return(lead.RetryReport{}, nil).Once()

		assert.NotPanics(t, func() { s.RunRetry(ctx) })
	})
}

func TestRunCleanup(t *testing.T) {
	backup := submocks.NewUseCase(t)
	runs := &runLog{}
	s := scheduler.New(scheduler.Config{RetentionDays: 90}, leadmocks.NewUseCase(t), backup, runs, zerolog.Nop(), clock.NewManual(start))

	backup.On("CleanupOldBackups", mock.Anything, 90).Return(4, nil).Once()

	s.RunCleanup(context.Background())

	require.Len(t, runs.runs, 1)
	assert.Equal(t, scheduler.JobCleanup, runs.runs[0].Job)
	assert.Equal(t, "removed=4", runs.runs[0].Detail)
}

func TestStartStop(t *testing.T) {
	t.Run("invalid cron expression", func(t *testing.T) {
		s := scheduler.New(scheduler.Config{RetrySpec: "every now and then"}, leadmocks.NewUseCase(t), submocks.NewUseCase(t), nil, zerolog.Nop(), clock.NewReal())

		err := s.Start()

		assert.ErrorContains(t, err, "adding retry job")
	})

	t.Run("start twice", func(t *testing.T) {
		s := scheduler.New(scheduler.Config{RetentionDays: 30}, leadmocks.NewUseCase(t), submocks.NewUseCase(t), nil, zerolog.Nop(), clock.NewReal())

		require.NoError(t, s.Start())
		assert.Error(t, s.Start())

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		assert.NoError(t, s.Stop(ctx))
		assert.NoError(t, s.Stop(ctx))
	})
}
