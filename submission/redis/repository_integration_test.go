//go:build integration

package redis_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/marcelsud/lead-relay/forms"
	"github.com/marcelsud/lead-relay/submission"
	"github.com/marcelsud/lead-relay/submission/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSubmission(id string, ts time.Time) submission.Submission {
	return submission.Submission{
		ID:        id,
		Timestamp: ts,
		FormType:  forms.Contact,
		FormData: map[string]any{
			"name":     "Ana",
			"email":    "ana@example.com",
			"isBroker": false,
		},
		WebhookStatus: submission.Pending,
		Metadata:      map[string]string{"ip": "203.0.113.0"},
	}
}

func TestRepository_StoreAndGet_Integration(t *testing.T) {
	ctx := context.Background()
	backend := newTestBackend(t)
	repo := backend.repo

	ts := time.Date(2025, 3, 14, 12, 30, 0, 0, time.UTC)
	sub := newSubmission(uniqueID(1), ts)

	id, err := repo.Store(ctx, sub)
	require.NoError(t, err)
	assert.Equal(t, sub.ID, id)

	got, err := repo.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, sub.ID, got.ID)
	assert.True(t, ts.Equal(got.Timestamp))
	assert.Equal(t, forms.Contact, got.FormType)
	assert.Equal(t, "Ana", got.FormData["name"])
	assert.Equal(t, false, got.FormData["isBroker"])
	assert.Equal(t, submission.Pending, got.WebhookStatus)
	assert.Zero(t, got.Attempts)
	assert.True(t, got.LastAttemptAt.IsZero())
	assert.Equal(t, "203.0.113.0", got.Metadata["ip"])

	assert.True(t, backend.exists(t, "submissions:day:2025-03-14"))

	_, err = repo.Get(ctx, "does-not-exist")
	assert.ErrorIs(t, err, submission.ErrNotFound)
}

func TestRepository_RecordAttempt_Integration(t *testing.T) {
	ctx := context.Background()
	backend := newTestBackend(t)
	repo := backend.repo

	t.Run("pending then delivered counts one attempt", func(t *testing.T) {
		sub := newSubmission(uniqueID(1), time.Now())
		_, err := repo.Store(ctx, sub)
		require.NoError(t, err)

		at := time.Now().Truncate(time.Millisecond)
		updated, err := repo.RecordAttempt(ctx, sub.ID, submission.Attempt{Status: submission.Delivered, At: at})

		require.NoError(t, err)
		assert.Equal(t, submission.Delivered, updated.WebhookStatus)
		assert.Equal(t, 1, updated.Attempts)
		assert.True(t, at.Equal(updated.LastAttemptAt))
		assert.Empty(t, updated.Error)
	})

	t.Run("unknown id creates nothing", func(t *testing.T) {
		_, err := repo.RecordAttempt(ctx, "missing-id", submission.Attempt{Status: submission.Failed, Error: "boom", At: time.Now()})

		assert.ErrorIs(t, err, submission.ErrNotFound)
		assert.False(t, backend.exists(t, "submission:missing-id"))
	})

	t.Run("pending attempt keeps a failed record failed", func(t *testing.T) {
		sub := newSubmission(uniqueID(2), time.Now())
		sub.WebhookStatus = submission.Failed
		sub.Attempts = 5
		_, err := repo.Store(ctx, sub)
		require.NoError(t, err)

		updated, err := repo.RecordAttempt(ctx, sub.ID, submission.Attempt{Status: submission.Pending, Error: "HTTP 503", At: time.Now()})

		require.NoError(t, err)
		assert.Equal(t, submission.Failed, updated.WebhookStatus)
		assert.Equal(t, 6, updated.Attempts)
		assert.Equal(t, "HTTP 503", updated.Error)
	})

	t.Run("delivered is terminal", func(t *testing.T) {
		sub := newSubmission(uniqueID(3), time.Now())
		sub.WebhookStatus = submission.Delivered
		sub.Attempts = 1
		_, err := repo.Store(ctx, sub)
		require.NoError(t, err)

		updated, err := repo.RecordAttempt(ctx, sub.ID, submission.Attempt{Status: submission.Failed, Error: "late", At: time.Now()})

		require.NoError(t, err)
		assert.Equal(t, submission.Delivered, updated.WebhookStatus)
	})

	t.Run("concurrent attempts are all counted", func(t *testing.T) {
		sub := newSubmission(uniqueID(4), time.Now())
		_, err := repo.Store(ctx, sub)
		require.NoError(t, err)

		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := repo.RecordAttempt(ctx, sub.ID, submission.Attempt{Status: submission.Pending, Error: "retry", At: time.Now()})
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		got, err := repo.Get(ctx, sub.ID)
		require.NoError(t, err)
		assert.Equal(t, 20, got.Attempts)
	})
}

func TestRepository_Days_Integration(t *testing.T) {
	ctx := context.Background()
	backend := newTestBackend(t)
	repo := backend.repo

	day1 := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	day2 := time.Date(2025, 1, 11, 0, 0, 0, 0, time.UTC)

	late := newSubmission(uniqueID(1), day1.Add(20*time.Hour))
	early := newSubmission(uniqueID(2), day1.Add(8*time.Hour))
	other := newSubmission(uniqueID(3), day2.Add(time.Hour))
	for _, s := range []submission.Submission{late, early, other} {
		_, err := repo.Store(ctx, s)
		require.NoError(t, err)
	}

	days, err := repo.Days(ctx)
	require.NoError(t, err)
	assert.Equal(t, []time.Time{day1, day2}, days)

	subs, err := repo.ListDay(ctx, day1)
	require.NoError(t, err)
	require.Len(t, subs, 2)
	assert.Equal(t, early.ID, subs[0].ID)
	assert.Equal(t, late.ID, subs[1].ID)

	removed, err := repo.DeleteDay(ctx, day1)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	subs, err = repo.ListDay(ctx, day1)
	require.NoError(t, err)
	assert.Empty(t, subs)

	days, err = repo.Days(ctx)
	require.NoError(t, err)
	assert.Equal(t, []time.Time{day2}, days)
	assert.False(t, backend.exists(t, "submission:"+late.ID))
}

func TestRepository_SetStatus_Integration(t *testing.T) {
	ctx := context.Background()
	backend := newTestBackend(t)
	repo := backend.repo

	sub := newSubmission(uniqueID(1), time.Now())
	sub.WebhookStatus = submission.Failed
	sub.Attempts = 5
	_, err := repo.Store(ctx, sub)
	require.NoError(t, err)

	require.NoError(t, repo.SetStatus(ctx, sub.ID, submission.Pending))

	got, err := repo.Get(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, submission.Pending, got.WebhookStatus)
	assert.Equal(t, 5, got.Attempts)

	assert.ErrorIs(t, repo.SetStatus(ctx, "missing", submission.Delivered), submission.ErrNotFound)
}

func TestRepository_JobRuns_Integration(t *testing.T) {
	ctx := context.Background()
	backend := newTestBackend(t)
	repo := backend.repo

	require.NoError(t, repo.RecordJobRun(ctx, submission.JobRun{Job: "retry", Status: "ok", RanAt: time.Now()}))
	require.NoError(t, repo.RecordJobRun(ctx, submission.JobRun{Job: "cleanup", Status: "error", Detail: "boom", RanAt: time.Now()}))

	runs, err := repo.JobRuns(ctx)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}
