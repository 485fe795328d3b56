package email

import (
	"net"
	"strconv"
	"strings"
)

const (
	gmailHost = "smtp.gmail.com"
	gmailPort = 587
)

// Config holds the SMTP settings and distribution lists
type Config struct {
	Enabled  bool
	Host     string
	Port     int
	Username string
	Password string
	From     string

	// TechRecipients receive webhook failure alerts
	TechRecipients []string
	// SalesRecipients receive lead notifications
	SalesRecipients []string
}

// GmailConfig builds a Config for a Gmail account with an app password
func GmailConfig(user, appPassword string) Config {
	return Config{
		Enabled:  true,
		Host:     gmailHost,
		Port:     gmailPort,
		Username: user,
		Password: appPassword,
		From:     user,
	}
}

// IsConfigured reports whether sends should be attempted at all
func (c Config) IsConfigured() bool {
	return c.Enabled && c.Host != "" && c.Port > 0 && c.From != ""
}

// Addr returns host:port
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// ParseRecipients splits a comma separated list, dropping blanks
func ParseRecipients(list string) []string {
	var out []string
	for _, r := range strings.Split(list, ",") {
		if r = strings.TrimSpace(r); r != "" {
			out = append(out, r)
		}
	}
	return out
}
