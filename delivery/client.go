package delivery

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"strconv"
	"time"

	"github.com/marcelsud/lead-relay/internal/clock"
	"github.com/rs/zerolog"
)

const (
	DefaultTimeout     = 15 * time.Second
	DefaultMaxAttempts = 5
)

// Identifying headers sent with every attempt
const (
	HeaderSubmissionID  = "X-Submission-ID"
	HeaderAttemptNumber = "X-Attempt-Number"
)

// ErrNoURL is returned when a delivery is requested without a webhook URL
var ErrNoURL = errors.New("webhook url not configured")

// StatusError is returned for a non-2xx webhook response
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("webhook responded with HTTP %d", e.Code)
	}
	return fmt.Sprintf("webhook responded with HTTP %d: %s", e.Code, e.Body)
}

// Doer is the subset of *http.Client used for delivery
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Attempt describes the outcome of one POST, reported after each try
type Attempt struct {
	Number      int
	Err         error
	NextRetryAt time.Time // zero when no further attempt follows
}

// Outcome summarizes a whole delivery
type Outcome struct {
	Delivered bool
	Attempts  int
	Err       error
}

type Client struct {
	HTTP        Doer
	Timeout     time.Duration
	MaxAttempts int
	Signer      *Signer
	// Backoff returns the wait after the given failed attempt (1-based)
	Backoff func(attempt int) time.Duration
	// Sleep waits for d or until ctx is done
	Sleep  func(ctx context.Context, d time.Duration) error
	clock  clock.Clock
	logger zerolog.Logger
}

// NewClient creates a webhook client with the default retry policy
func NewClient(logger zerolog.Logger, c clock.Clock) *Client {
	return &Client{
		HTTP:        &http.Client{},
		Timeout:     DefaultTimeout,
		MaxAttempts: DefaultMaxAttempts,
		Backoff:     ExponentialBackoff,
		Sleep:       sleep,
		clock:       c,
		logger:      logger.With().Str("component", "webhook").Logger(),
	}
}

// ExponentialBackoff waits 2^attempt seconds plus up to one second of jitter
func ExponentialBackoff(attempt int) time.Duration {
	base := time.Duration(1<<attempt) * time.Second
	return base + time.Duration(rand.Int64N(int64(time.Second)))
}

// Send performs a single POST of the payload
func (c *Client) Send(ctx context.Context, url string, p Payload, attempt int) error {
	if url == "" {
		return ErrNoURL
	}
	body, err := p.Bytes()
	if err != nil {
		return fmt.Errorf("encoding payload: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", Source)
	req.Header.Set(HeaderSubmissionID, p.SubmissionID)
	req.Header.Set(HeaderAttemptNumber, strconv.Itoa(attempt))

	if c.Signer != nil {
		now := c.clock.Now()
		msgID := fmt.Sprintf("%s-%d", p.SubmissionID, attempt)
		sig, err := c.Signer.Sign(msgID, now, body)
		if err != nil {
			return fmt.Errorf("signing payload: %w", err)
		}
		req.Header.Set(HeaderWebhookID, msgID)
		req.Header.Set(HeaderWebhookTimestamp, strconv.FormatInt(now.Unix(), 10))
		req.Header.Set(HeaderWebhookSignature, sig)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("posting webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{Code: resp.StatusCode, Body: string(snippet)}
	}
	io.Copy(io.Discard, resp.Body)
	return nil
}

// Deliver sends the payload until it succeeds or maxAttempts is reached;
// zero uses the client's MaxAttempts. onAttempt, when set, is called after
// every attempt and the caller records it.
func (c *Client) Deliver(ctx context.Context, url string, p Payload, maxAttempts int, onAttempt func(Attempt)) Outcome {
	if maxAttempts == 0 {
		maxAttempts = c.MaxAttempts
	}
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var out Outcome
	for n := 1; n <= maxAttempts; n++ {
		out.Attempts = n
		err := c.Send(ctx, url, p, n)

		a := Attempt{Number: n, Err: err}
		retry := err != nil && n < maxAttempts && ctx.Err() == nil && !errors.Is(err, ErrNoURL)
		var wait time.Duration
		if retry {
			wait = c.Backoff(n)
			a.NextRetryAt = c.clock.Now().Add(wait)
		}
		if onAttempt != nil {
			onAttempt(a)
		}

		if err == nil {
			out.Delivered = true
			out.Err = nil
			return out
		}
		out.Err = err
		c.logger.Warn().
			Err(err).
			Str("submission_id", p.SubmissionID).
			Int("attempt", n).
			Int("max_attempts", maxAttempts).
			Msg("webhook attempt failed")

		if !retry {
			break
		}
		if err := c.Sleep(ctx, wait); err != nil {
			out.Err = fmt.Errorf("waiting for retry: %w", err)
			break
		}
	}
	return out
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
