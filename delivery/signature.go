package delivery

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	// SecretPrefix is the prefix for Standard Webhooks symmetric secrets
	SecretPrefix = "whsec_"

	// SignatureVersion is the version identifier for symmetric signatures
	SignatureVersion = "v1"

	// MinSecretBytes is the minimum secret size accepted (192 bits)
	MinSecretBytes = 24
)

// Standard Webhooks headers set on signed requests
const (
	HeaderWebhookID        = "webhook-id"
	HeaderWebhookTimestamp = "webhook-timestamp"
	HeaderWebhookSignature = "webhook-signature"
)

// Signer signs outgoing payloads so the CRM can verify they came from us
type Signer struct {
	key []byte
}

// NewSigner parses a whsec_-prefixed base64 secret
func NewSigner(encoded string) (*Signer, error) {
	if !strings.HasPrefix(encoded, SecretPrefix) {
		return nil, fmt.Errorf("secret must start with %s prefix", SecretPrefix)
	}

	key, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(encoded, SecretPrefix))
	if err != nil {
		return nil, fmt.Errorf("decoding base64 secret: %w", err)
	}
	if len(key) < MinSecretBytes {
		return nil, fmt.Errorf("secret must be at least %d bytes", MinSecretBytes)
	}

	return &Signer{key: key}, nil
}

// Sign returns the webhook-signature header value for a message
// The signed content is: {msgID}.{timestamp}.{body}
func (s *Signer) Sign(msgID string, ts time.Time, body []byte) (string, error) {
	if strings.Contains(msgID, ".") {
		return "", fmt.Errorf("message ID must not contain '.'")
	}
	return SignatureVersion + "," + base64.StdEncoding.EncodeToString(s.mac(msgID, ts, body)), nil
}

// Verify reports whether any signature of a space-delimited header matches
func (s *Signer) Verify(header, msgID string, ts time.Time, body []byte) bool {
	expected := s.mac(msgID, ts, body)
	for _, part := range strings.Fields(header) {
		version, sig, ok := strings.Cut(part, ",")
		if !ok || version != SignatureVersion {
			continue
		}
		got, err := base64.StdEncoding.DecodeString(sig)
		if err != nil {
			continue
		}
		if subtle.ConstantTimeCompare(expected, got) == 1 {
			return true
		}
	}
	return false
}

func (s *Signer) mac(msgID string, ts time.Time, body []byte) []byte {
	m := hmac.New(sha256.New, s.key)
	fmt.Fprintf(m, "%s.%s.", msgID, strconv.FormatInt(ts.Unix(), 10))
	m.Write(body)
	return m.Sum(nil)
}
