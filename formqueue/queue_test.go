package formqueue_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/marcelsud/lead-relay/formqueue"
	"github.com/marcelsud/lead-relay/internal/clock"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var start = time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)

type fakeSubmitter struct {
	mu    sync.Mutex
	err   error
	calls []formqueue.Entry
}

func (s *fakeSubmitter) Submit(_ context.Context, e formqueue.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, e)
	return s.err
}

func (s *fakeSubmitter) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func newQueue(t *testing.T, sub formqueue.Submitter) (*formqueue.Queue, *clock.Manual, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "queue.json")
	clk := clock.NewManual(start)
	return formqueue.New(formqueue.NewFileStore(path), sub, zerolog.Nop(), clk), clk, path
}

func lead() map[string]any {
	return map[string]any{"name": "Ana", "email": "ana@example.com", "phone": "555", "message": "hi"}
}

func TestQueue_AddPersists(t *testing.T) {
	q, _, path := newQueue(t, &fakeSubmitter{})

	e, err := q.Add(lead())
	require.NoError(t, err)
	assert.Len(t, e.ID, 36)
	assert.Equal(t, formqueue.Pending, e.Status)

	reopened, err := formqueue.NewFileStore(path).Load()
	require.NoError(t, err)
	require.Len(t, reopened, 1)
	assert.Equal(t, e.ID, reopened[0].ID)
	assert.Equal(t, formqueue.Pending, reopened[0].Status)
	assert.Equal(t, "ana@example.com", reopened[0].FormData["email"])
}

func TestQueue_ProcessSuccess(t *testing.T) {
	sub := &fakeSubmitter{}
	q, clk, _ := newQueue(t, sub)
	ctx := context.Background()

	_, err := q.Add(lead())
	require.NoError(t, err)

	report, err := q.Process(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Submitted)

	entries, err := q.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, formqueue.Succeeded, entries[0].Status)
	assert.Equal(t, 1, entries[0].Attempts)

	clk.Advance(4 * time.Second)
	_, err = q.Process(ctx)
	require.NoError(t, err)
	entries, _ = q.Entries()
	assert.Len(t, entries, 1, "kept until the success TTL elapses")

	clk.Advance(time.Second)
	report, err = q.Process(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Pruned)
	entries, _ = q.Entries()
	assert.Empty(t, entries)
	assert.Equal(t, 1, sub.count())
}

func TestQueue_BackoffUntilFailed(t *testing.T) {
	sub := &fakeSubmitter{err: errors.New("network unreachable")}
	q, clk, _ := newQueue(t, sub)
	ctx := context.Background()

	_, err := q.Add(lead())
	require.NoError(t, err)

	waits := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second}
	for i, wait := range waits {
		_, err := q.Process(ctx)
		require.NoError(t, err)

		entries, _ := q.Entries()
		require.Len(t, entries, 1)
		assert.Equal(t, formqueue.Retrying, entries[0].Status)
		assert.Equal(t, i+1, entries[0].Attempts)
		assert.Equal(t, clk.Now().Add(wait), entries[0].NextRetryAt)

		// Not due yet
		_, err = q.Process(ctx)
		require.NoError(t, err)
		assert.Equal(t, i+1, sub.count())

		clk.Advance(wait)
	}

	report, err := q.Process(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Failed)

	entries, _ := q.Entries()
	assert.Equal(t, formqueue.Failed, entries[0].Status)
	assert.Equal(t, "network unreachable", entries[0].LastError)
	assert.Equal(t, 5, sub.count())

	_, err = q.Process(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, sub.count(), "failed entries are not retried")
}

func TestQueue_RejectedIsNotRetried(t *testing.T) {
	sub := &fakeSubmitter{err: formqueue.ErrRejected}
	q, _, _ := newQueue(t, sub)

	_, err := q.Add(lead())
	require.NoError(t, err)

	report, err := q.Process(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 1, sub.count())
}

func TestQueue_PrunesOldEntries(t *testing.T) {
	sub := &fakeSubmitter{err: formqueue.ErrRejected}
	q, clk, _ := newQueue(t, sub)

	_, err := q.Add(lead())
	require.NoError(t, err)
	_, err = q.Process(context.Background())
	require.NoError(t, err)

	clk.Advance(24*time.Hour + time.Minute)
	report, err := q.Process(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Pruned)

	entries, _ := q.Entries()
	assert.Empty(t, entries)
}

func TestQueue_RunOnlineSignal(t *testing.T) {
	sub := &fakeSubmitter{}
	q, _, _ := newQueue(t, sub)
	q.Interval = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- q.Run(ctx) }()

	_, err := q.Add(lead())
	require.NoError(t, err)
	q.Online()

	assert.Eventually(t, func() bool { return sub.count() == 1 }, 2*time.Second, 10*time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-errCh, context.Canceled)
}

func TestFileStore(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file is empty", func(t *testing.T) {
		entries, err := formqueue.NewFileStore(filepath.Join(dir, "none.json")).Load()
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("corrupt file", func(t *testing.T) {
		path := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

		_, err := formqueue.NewFileStore(path).Load()
		assert.ErrorContains(t, err, "parsing queue file")
	})

	t.Run("status stored as text", func(t *testing.T) {
		path := filepath.Join(dir, "nested", "queue.json")
		store := formqueue.NewFileStore(path)
		require.NoError(t, store.Save([]formqueue.Entry{{ID: "a", Status: formqueue.Retrying}}))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"status": "retrying"`)
	})
}

func TestHTTPSubmitter(t *testing.T) {
	var got map[string]any
	status := http.StatusOK
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/contact", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(status)
		w.Write([]byte(`{"success":false,"error":"All fields are required"}`))
	}))
	defer srv.Close()

	s := formqueue.NewHTTPSubmitter(srv.URL + "/")
	e := formqueue.Entry{ID: "q-1", Timestamp: start, FormData: lead()}
	ctx := context.Background()

	require.NoError(t, s.Submit(ctx, e))
	assert.Equal(t, "ana@example.com", got["formData"].(map[string]any)["email"])
	assert.Equal(t, "q-1", got["metadata"].(map[string]any)["queueId"])

	status = http.StatusBadRequest
	assert.ErrorIs(t, s.Submit(ctx, e), formqueue.ErrRejected)

	status = http.StatusServiceUnavailable
	err := s.Submit(ctx, e)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, formqueue.ErrRejected)
}
