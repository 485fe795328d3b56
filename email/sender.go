package email

import (
	"bytes"
	"context"
	"fmt"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
)

// Sender hands a composed message to a mail transport
type Sender interface {
	Send(ctx context.Context, from string, to []string, msg []byte) error
}

// SMTPSender delivers through an SMTP relay, upgrading with STARTTLS when offered.
// Port 465 uses implicit TLS.
type SMTPSender struct {
	cfg Config
}

// NewSMTPSender creates a sender for the configured relay
func NewSMTPSender(cfg Config) *SMTPSender {
	return &SMTPSender{cfg: cfg}
}

// Send delivers msg to every recipient
func (s *SMTPSender) Send(ctx context.Context, from string, to []string, msg []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var auth sasl.Client
	if s.cfg.Username != "" {
		auth = sasl.NewPlainClient("", s.cfg.Username, s.cfg.Password)
	}

	send := smtp.SendMail
	if s.cfg.Port == 465 {
		send = smtp.SendMailTLS
	}
	if err := send(s.cfg.Addr(), auth, from, to, bytes.NewReader(msg)); err != nil {
		return fmt.Errorf("sending mail via %s: %w", s.cfg.Addr(), err)
	}
	return nil
}
