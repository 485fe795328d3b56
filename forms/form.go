package forms

import (
	"fmt"
	"net/url"
	"regexp"
)

// Form types served by the relay
const (
	Contact                 = "contact"
	Brochure                = "brochure"
	FloorPlans              = "floor_plans"
	BrokerOpenHouseSignIn   = "broker_open_house_signin"
	PublicOpenHouseSignIn   = "public_open_house_signin"
	BrokerOpenHouseFeedback = "broker_open_house_feedback"
	PublicOpenHouseFeedback = "public_open_house_feedback"
)

var formTypePattern = regexp.MustCompile(`^[a-z0-9]+(_[a-z0-9]+)*$`)

/* Form maps a form type to its webhook destination and delivery policy
 * An empty WebhookURL falls back to the catalogue default
 */
type Form struct {
	FormType       string
	WebhookURL     string
	Policy         Policy
	MaxAttempts    int
	Document       string // Label of the download sent to the lead, e.g. "brochure"
	DocumentURL    string
	AlwaysNotify   bool // Email sales even when the webhook succeeded
	RequiredFields []string
}

// Validate checks if the form configuration is valid
func (f *Form) Validate() error {
	if f.FormType == "" {
		return fmt.Errorf("form_type cannot be empty")
	}
	if !formTypePattern.MatchString(f.FormType) {
		return fmt.Errorf("form_type must be lower snake case: %s", f.FormType)
	}
	if err := f.Policy.Validate(); err != nil {
		return fmt.Errorf("invalid policy for form %s: %w", f.FormType, err)
	}
	if f.Policy == Retry && f.MaxAttempts < 1 {
		return fmt.Errorf("max_attempts must be at least 1 for form %s", f.FormType)
	}
	if f.WebhookURL != "" {
		if err := validateURL(f.WebhookURL); err != nil {
			return fmt.Errorf("invalid webhook_url for form %s: %w", f.FormType, err)
		}
	}
	if f.DocumentURL != "" {
		if err := validateURL(f.DocumentURL); err != nil {
			return fmt.Errorf("invalid document_url for form %s: %w", f.FormType, err)
		}
		if f.Document == "" {
			return fmt.Errorf("document label required with document_url for form %s", f.FormType)
		}
	}
	return nil
}

// Attempts returns how many webhook attempts the form gets
func (f *Form) Attempts() int {
	if f.Policy == Single {
		return 1
	}
	return f.MaxAttempts
}

// HasDocument reports whether a download link is emailed to the lead
func (f *Form) HasDocument() bool {
	return f.Document != ""
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("host is required")
	}
	return nil
}

// IsOpenHouse reports whether formType is one of the open house forms
func IsOpenHouse(formType string) bool {
	switch formType {
	case BrokerOpenHouseSignIn, PublicOpenHouseSignIn, BrokerOpenHouseFeedback, PublicOpenHouseFeedback:
		return true
	}
	return false
}

// OpenHouseFormType derives the form type of an open house event.
// eventType is "broker" or "public" (or a full form type); anything else counts as public.
func OpenHouseFormType(eventType string, feedback bool) string {
	if IsOpenHouse(eventType) {
		return eventType
	}

	audience := "public"
	if eventType == "broker" || eventType == "broker_open_house" {
		audience = "broker"
	}
	if feedback {
		return audience + "_open_house_feedback"
	}
	return audience + "_open_house_signin"
}
