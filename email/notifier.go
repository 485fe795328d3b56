package email

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"sort"
	"strings"
	texttemplate "text/template"
	"time"

	"github.com/marcelsud/lead-relay/internal/clock"
	"github.com/rs/zerolog"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Lead is a submission as shown in notification emails
type Lead struct {
	SubmissionID     string
	FormType         string
	FormData         map[string]any
	ReceivedAt       time.Time
	WebhookDelivered bool
}

// Failure describes an exhausted webhook delivery
type Failure struct {
	Lead
	Attempts int
	Error    string
}

// Document is a brochure or floor plan download sent to the lead
type Document struct {
	To       string
	Name     string
	Document string // "brochure", "floor plans"
	URL      string
}

// Field is one labelled form value
type Field struct {
	Label string
	Value string
}

// fieldOrder puts the common lead fields first; the rest follow alphabetically
var fieldOrder = map[string]int{"name": 0, "email": 1, "phone": 2, "message": 3}

type Notifier struct {
	cfg    Config
	sender Sender
	html   *htmltemplate.Template
	text   *texttemplate.Template
	clock  clock.Clock
	logger zerolog.Logger
}

// NewNotifier parses the templates once; sends are no-ops unless cfg is configured
func NewNotifier(cfg Config, sender Sender, logger zerolog.Logger, c clock.Clock) (*Notifier, error) {
	html, err := htmltemplate.ParseFS(templateFS, "templates/*.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parsing html templates: %w", err)
	}
	text, err := texttemplate.ParseFS(templateFS, "templates/*.txt.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parsing text templates: %w", err)
	}

	return &Notifier{
		cfg:    cfg,
		sender: sender,
		html:   html,
		text:   text,
		clock:  c,
		logger: logger.With().Str("component", "email").Logger(),
	}, nil
}

// IsConfigured reports whether notifications are sent at all
func (n *Notifier) IsConfigured() bool {
	return n.cfg.IsConfigured() && n.sender != nil
}

// SendWebhookFailure alerts the technical list that a lead missed the CRM
func (n *Notifier) SendWebhookFailure(ctx context.Context, f Failure) bool {
	data := struct {
		leadView
		Attempts int
		Error    string
	}{newLeadView(f.Lead), f.Attempts, f.Error}

	subject := fmt.Sprintf("[Lead Relay] Webhook delivery failed for %s %s", data.FormLabel, f.SubmissionID)
	return n.send(ctx, n.cfg.TechRecipients, subject, "webhook_failure", data)
}

// SendLeadNotification forwards a lead to the sales list
func (n *Notifier) SendLeadNotification(ctx context.Context, l Lead) bool {
	view := newLeadView(l)
	subject := fmt.Sprintf("New %s lead", view.FormLabel)
	if name := fieldValue(l.FormData, "name"); name != "" {
		subject += ": " + name
	}
	return n.send(ctx, n.cfg.SalesRecipients, subject, "lead", view)
}

// SendDocument emails the requested download link to the lead
func (n *Notifier) SendDocument(ctx context.Context, d Document) bool {
	if d.To == "" || d.URL == "" {
		n.logger.Warn().Str("document", d.Document).Msg("document email skipped, missing recipient or link")
		return false
	}
	if d.Name == "" {
		d.Name = "there"
	}
	return n.send(ctx, []string{d.To}, fmt.Sprintf("Your %s is ready", d.Document), "document", d)
}

func (n *Notifier) send(ctx context.Context, to []string, subject, tmpl string, data any) bool {
	if !n.IsConfigured() {
		n.logger.Debug().Str("template", tmpl).Msg("email not configured, skipping")
		return false
	}
	if len(to) == 0 {
		n.logger.Warn().Str("template", tmpl).Msg("no recipients configured, skipping")
		return false
	}

	msg, err := n.render(to, subject, tmpl, data)
	if err != nil {
		n.logger.Error().Err(err).Str("template", tmpl).Msg("rendering email")
		return false
	}
	raw, err := msg.Bytes(n.clock.Now())
	if err != nil {
		n.logger.Error().Err(err).Str("template", tmpl).Msg("composing email")
		return false
	}
	if err := n.sender.Send(ctx, n.cfg.From, to, raw); err != nil {
		n.logger.Error().Err(err).Str("template", tmpl).Strs("to", to).Msg("sending email")
		return false
	}

	n.logger.Info().Str("template", tmpl).Int("recipients", len(to)).Msg("email sent")
	return true
}

func (n *Notifier) render(to []string, subject, tmpl string, data any) (Message, error) {
	var html, text bytes.Buffer
	if err := n.html.ExecuteTemplate(&html, tmpl+".html.tmpl", data); err != nil {
		return Message{}, fmt.Errorf("executing %s html: %w", tmpl, err)
	}
	if err := n.text.ExecuteTemplate(&text, tmpl+".txt.tmpl", data); err != nil {
		return Message{}, fmt.Errorf("executing %s text: %w", tmpl, err)
	}
	return Message{
		From:    n.cfg.From,
		To:      to,
		Subject: subject,
		HTML:    html.String(),
		Text:    text.String(),
	}, nil
}

type leadView struct {
	SubmissionID     string
	FormLabel        string
	ReceivedAt       string
	WebhookDelivered bool
	Fields           []Field
}

func newLeadView(l Lead) leadView {
	return leadView{
		SubmissionID:     l.SubmissionID,
		FormLabel:        FormLabel(l.FormType),
		ReceivedAt:       l.ReceivedAt.UTC().Format("2006-01-02 15:04 MST"),
		WebhookDelivered: l.WebhookDelivered,
		Fields:           Fields(l.FormData),
	}
}

// FormLabel turns a form type such as "floor_plans" into "floor plans"
func FormLabel(formType string) string {
	if formType == "" {
		return "website"
	}
	return strings.ReplaceAll(formType, "_", " ")
}

// Fields flattens form data into labelled rows, common lead fields first
func Fields(data map[string]any) []Field {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		oi, iok := fieldOrder[keys[i]]
		oj, jok := fieldOrder[keys[j]]
		switch {
		case iok && jok:
			return oi < oj
		case iok != jok:
			return iok
		default:
			return keys[i] < keys[j]
		}
	})

	fields := make([]Field, 0, len(keys))
	for _, k := range keys {
		v := fieldValue(data, k)
		if v == "" {
			continue
		}
		fields = append(fields, Field{Label: label(k), Value: v})
	}
	return fields
}

func fieldValue(data map[string]any, key string) string {
	v, ok := data[key]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case bool:
		if t {
			return "Yes"
		}
		return "No"
	default:
		return fmt.Sprint(v)
	}
}

// label converts camelCase and snake_case keys to "Title case" words
func label(key string) string {
	var b strings.Builder
	for i, r := range key {
		switch {
		case r == '_' || r == '-':
			b.WriteRune(' ')
			continue
		case i > 0 && r >= 'A' && r <= 'Z':
			b.WriteRune(' ')
			r = r + ('a' - 'A')
		}
		if b.Len() == 0 && r >= 'a' && r <= 'z' {
			r = r - ('a' - 'A')
		}
		b.WriteRune(r)
	}
	return b.String()
}
