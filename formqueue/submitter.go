package formqueue

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrRejected marks a submission the server refused as invalid; it is not retried
var ErrRejected = errors.New("submission rejected")

// Submitter delivers one queued entry to the server
type Submitter interface {
	Submit(ctx context.Context, e Entry) error
}

// HTTPSubmitter POSTs entries to the contact endpoint
type HTTPSubmitter struct {
	BaseURL string
	HTTP    *http.Client
}

func NewHTTPSubmitter(baseURL string) *HTTPSubmitter {
	return &HTTPSubmitter{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: 30 * time.Second},
	}
}

type submitRequest struct {
	FormData map[string]any    `json:"formData"`
	Metadata map[string]string `json:"metadata"`
}

func (s *HTTPSubmitter) Submit(ctx context.Context, e Entry) error {
	body, err := json.Marshal(submitRequest{
		FormData: e.FormData,
		Metadata: map[string]string{
			"source":   "formqueue",
			"queueId":  e.ID,
			"queuedAt": e.Timestamp.UTC().Format(time.RFC3339),
		},
	})
	if err != nil {
		return fmt.Errorf("encoding submission: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.BaseURL+"/api/contact", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("posting submission: %w", err)
	}
	defer resp.Body.Close()

	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusBadRequest:
		return fmt.Errorf("%w: %s", ErrRejected, strings.TrimSpace(string(snippet)))
	default:
		return fmt.Errorf("server responded with HTTP %d", resp.StatusCode)
	}
}
