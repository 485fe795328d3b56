package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestQueueCommands(t *testing.T) {
	file := filepath.Join(t.TempDir(), "queue.json")

	out, err := execute(t, "queue", "list", "--file", file)
	require.NoError(t, err)
	assert.Contains(t, out, "queue is empty")

	out, err = execute(t, "queue", "add", "--file", file, "--data", `{"name":"Ana","email":"ana@example.com","phone":"555","message":"hi"}`)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "queued "))

	out, err = execute(t, "queue", "list", "--file", file)
	require.NoError(t, err)
	assert.Contains(t, out, "pending")
	assert.Contains(t, out, "attempts=0")

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, "/api/contact", r.URL.Path)
		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Ana", body["formData"].(map[string]any)["name"])
		w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	out, err = execute(t, "queue", "run", "--file", file, "--server", srv.URL, "--once")
	require.NoError(t, err)
	assert.Contains(t, out, "submitted=1 retrying=0 failed=0")
	assert.Equal(t, int32(1), hits.Load())

	out, err = execute(t, "queue", "list", "--file", file)
	require.NoError(t, err)
	assert.Contains(t, out, "succeeded")
}

func TestQueueRunRetriesOnServerError(t *testing.T) {
	file := filepath.Join(t.TempDir(), "queue.json")
	_, err := execute(t, "queue", "add", "--file", file, "--data", `{"name":"Ana"}`)
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	out, err := execute(t, "queue", "run", "--file", file, "--server", srv.URL, "--once")
	require.NoError(t, err)
	assert.Contains(t, out, "retrying=1")

	out, err = execute(t, "queue", "list", "--file", file)
	require.NoError(t, err)
	assert.Contains(t, out, "retrying")
	assert.Contains(t, out, "next=")
	assert.Contains(t, out, "HTTP 502")
}

func TestQueueFlagErrors(t *testing.T) {
	file := filepath.Join(t.TempDir(), "queue.json")

	_, err := execute(t, "queue", "add", "--file", file)
	assert.ErrorContains(t, err, "--data is required")

	_, err = execute(t, "queue", "add", "--file", file, "--data", `[1,2]`)
	assert.ErrorContains(t, err, "parsing --data")

	_, err = execute(t, "queue", "run", "--file", file, "--once")
	assert.ErrorContains(t, err, "--server is required")

	_, err = execute(t, "export", "--format", "xml")
	assert.ErrorContains(t, err, "--format must be csv or json")
}

type fakeMarker map[string]error

func (f fakeMarker) MarkDelivered(_ context.Context, id string) error {
	return f[id]
}

func TestMarkDelivered(t *testing.T) {
	var out bytes.Buffer
	backup := fakeMarker{"missing": errors.New("submission not found")}

	err := markDelivered(context.Background(), backup, &out, []string{"sub-1", "missing", "sub-2"})

	assert.EqualError(t, err, "could not mark missing")
	assert.Equal(t, "sub-1: delivered\nmissing: submission not found\nsub-2: delivered\n", out.String())
}
