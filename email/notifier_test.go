package email_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/marcelsud/lead-relay/email"
	"github.com/marcelsud/lead-relay/internal/clock"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sent struct {
	from string
	to   []string
	msg  []byte
}

type fakeSender struct {
	sent []sent
	err  error
}

func (f *fakeSender) Send(_ context.Context, from string, to []string, msg []byte) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sent{from: from, to: to, msg: msg})
	return nil
}

var receivedAt = time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)

func testConfig() email.Config {
	return email.Config{
		Enabled:         true,
		Host:            "smtp.example.com",
		Port:            587,
		From:            "relay@example.com",
		TechRecipients:  []string{"tech@example.com"},
		SalesRecipients: []string{"sales@example.com", "broker@example.com"},
	}
}

func newNotifier(t *testing.T, cfg email.Config, sender email.Sender) *email.Notifier {
	t.Helper()
	n, err := email.NewNotifier(cfg, sender, zerolog.Nop(), clock.NewManual(receivedAt))
	require.NoError(t, err)
	return n
}

// parts reads a composed message back and returns subject plus body per content type
func parts(t *testing.T, raw []byte) (string, map[string]string) {
	t.Helper()
	mr, err := mail.CreateReader(bytes.NewReader(raw))
	require.NoError(t, err)

	subject, err := mr.Header.Subject()
	require.NoError(t, err)

	bodies := map[string]string{}
	for {
		p, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		h, ok := p.Header.(*mail.InlineHeader)
		require.True(t, ok)
		ct, _, err := h.ContentType()
		require.NoError(t, err)
		b, err := io.ReadAll(p.Body)
		require.NoError(t, err)
		bodies[ct] = string(b)
	}
	return subject, bodies
}

func TestSendLeadNotification(t *testing.T) {
	ctx := context.Background()
	sender := &fakeSender{}
	n := newNotifier(t, testConfig(), sender)

	ok := n.SendLeadNotification(ctx, email.Lead{
		SubmissionID: "sub-1",
		FormType:     "contact",
		FormData: map[string]any{
			"name":     "Ana <Souza>",
			"email":    "ana@example.com",
			"isBroker": true,
		},
		ReceivedAt: receivedAt,
	})

	require.True(t, ok)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "relay@example.com", sender.sent[0].from)
	assert.Equal(t, []string{"sales@example.com", "broker@example.com"}, sender.sent[0].to)

	subject, bodies := parts(t, sender.sent[0].msg)
	assert.Equal(t, "New contact lead: Ana <Souza>", subject)
	assert.Contains(t, bodies["text/plain"], "Name: Ana <Souza>")
	assert.Contains(t, bodies["text/plain"], "Is broker: Yes")
	assert.Contains(t, bodies["text/plain"], "has not reached the CRM")
	assert.Contains(t, bodies["text/html"], "Ana &lt;Souza&gt;")
}

func TestSendWebhookFailure(t *testing.T) {
	sender := &fakeSender{}
	n := newNotifier(t, testConfig(), sender)

	ok := n.SendWebhookFailure(context.Background(), email.Failure{
		Lead: email.Lead{
			SubmissionID: "sub-2",
			FormType:     "floor_plans",
			FormData:     map[string]any{"email": "bob@example.com"},
			ReceivedAt:   receivedAt,
		},
		Attempts: 5,
		Error:    "webhook responded with HTTP 502",
	})

	require.True(t, ok)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, []string{"tech@example.com"}, sender.sent[0].to)

	subject, bodies := parts(t, sender.sent[0].msg)
	assert.Equal(t, "[Lead Relay] Webhook delivery failed for floor plans sub-2", subject)
	assert.Contains(t, bodies["text/plain"], "after 5 attempt(s)")
	assert.Contains(t, bodies["text/plain"], "Last error: webhook responded with HTTP 502")
	assert.Contains(t, bodies["text/html"], "<strong>sub-2</strong>")
}

func TestSendDocument(t *testing.T) {
	ctx := context.Background()

	t.Run("sends the link to the lead", func(t *testing.T) {
		sender := &fakeSender{}
		n := newNotifier(t, testConfig(), sender)

		ok := n.SendDocument(ctx, email.Document{
			To:       "ana@example.com",
			Name:     "Ana",
			Document: "brochure",
			URL:      "https://example.com/brochure.pdf",
		})

		require.True(t, ok)
		assert.Equal(t, []string{"ana@example.com"}, sender.sent[0].to)
		subject, bodies := parts(t, sender.sent[0].msg)
		assert.Equal(t, "Your brochure is ready", subject)
		assert.Contains(t, bodies["text/plain"], "https://example.com/brochure.pdf")
		assert.Contains(t, bodies["text/html"], `href="https://example.com/brochure.pdf"`)
	})

	t.Run("missing link is skipped", func(t *testing.T) {
		sender := &fakeSender{}
		n := newNotifier(t, testConfig(), sender)

		assert.False(t, n.SendDocument(ctx, email.Document{To: "ana@example.com", Document: "brochure"}))
		assert.Empty(t, sender.sent)
	})
}

func TestNotifierFailures(t *testing.T) {
	ctx := context.Background()
	lead := email.Lead{SubmissionID: "sub-3", FormType: "contact", ReceivedAt: receivedAt}

	t.Run("unconfigured is a no-op", func(t *testing.T) {
		sender := &fakeSender{}
		cfg := testConfig()
		cfg.Enabled = false
		n := newNotifier(t, cfg, sender)

		assert.False(t, n.IsConfigured())
		assert.False(t, n.SendLeadNotification(ctx, lead))
		assert.Empty(t, sender.sent)
	})

	t.Run("no recipients", func(t *testing.T) {
		sender := &fakeSender{}
		cfg := testConfig()
		cfg.SalesRecipients = nil
		n := newNotifier(t, cfg, sender)

		assert.False(t, n.SendLeadNotification(ctx, lead))
	})

	t.Run("send errors are swallowed", func(t *testing.T) {
		n := newNotifier(t, testConfig(), &fakeSender{err: errors.New("535 authentication failed")})

		assert.NotPanics(t, func() {
			assert.False(t, n.SendLeadNotification(ctx, lead))
		})
	})
}

func TestFields(t *testing.T) {
	fields := email.Fields(map[string]any{
		"preferredFloor": "12",
		"message":        "Hello",
		"email":          "a@b.co",
		"name":           "Ana",
		"empty":          "",
		"budget_range":   "500k",
	})

	labels := make([]string, 0, len(fields))
	for _, f := range fields {
		labels = append(labels, f.Label)
	}
	assert.Equal(t, []string{"Name", "Email", "Message", "Budget range", "Preferred floor"}, labels)
}

func TestConfig(t *testing.T) {
	gmail := email.GmailConfig("sales@gmail.com", "app-pass")
	assert.True(t, gmail.IsConfigured())
	assert.Equal(t, "smtp.gmail.com:587", gmail.Addr())
	assert.Equal(t, "sales@gmail.com", gmail.From)

	assert.False(t, email.Config{}.IsConfigured())
	assert.Equal(t, []string{"a@b.co", "c@d.co"}, email.ParseRecipients(" a@b.co, ,c@d.co "))
	assert.Nil(t, email.ParseRecipients(""))
	assert.Equal(t, "floor plans", email.FormLabel("floor_plans"))
	assert.True(t, strings.HasPrefix(email.FormLabel(""), "web"))
}
