package forms

import (
	"fmt"
	"os"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

/* Catalogue holds the form configuration loaded from forms.yaml
 * Built-in forms are registered by Defaults; the YAML file overrides them by form_type
 */

// Config represents the structure of forms.yaml
type Config struct {
	Forms []FormConfig `yaml:"forms"`
}

// FormConfig represents a single form in the YAML file
type FormConfig struct {
	FormType       string   `yaml:"form_type"`
	WebhookURL     string   `yaml:"webhook_url"`
	Policy         string   `yaml:"policy"`       // "retry" (default) or "single"
	MaxAttempts    int      `yaml:"max_attempts"` // Default: 5 for retry forms
	Document       string   `yaml:"document"`
	DocumentURL    string   `yaml:"document_url"`
	AlwaysNotify   bool     `yaml:"always_notify"`
	RequiredFields []string `yaml:"required_fields"`
}

// Settings are the environment-provided values for the built-in forms
type Settings struct {
	WebhookURL       string
	MaxAttempts      int
	BrochurePDFURL   string
	FloorPlansPDFURL string
	OpenHouseWebhook string
}

type Catalogue struct {
	mu         sync.RWMutex
	forms      map[string]*Form
	defaultURL string
}

// NewCatalogue creates an empty catalogue
func NewCatalogue() *Catalogue {
	return &Catalogue{
		forms: make(map[string]*Form),
	}
}

// Defaults registers the built-in lead forms
func (c *Catalogue) Defaults(s Settings) error {
	if s.MaxAttempts < 1 {
		s.MaxAttempts = 5
	}

	builtins := []*Form{
		{FormType: Contact, Policy: Retry, MaxAttempts: s.MaxAttempts, RequiredFields: []string{"name", "email", "phone", "message"}},
		{FormType: Brochure, Policy: Single, Document: "brochure", DocumentURL: s.BrochurePDFURL, AlwaysNotify: true, RequiredFields: []string{"name", "email", "phone", "brochureInterest"}},
		{FormType: FloorPlans, Policy: Single, Document: "floor plans", DocumentURL: s.FloorPlansPDFURL, AlwaysNotify: true, RequiredFields: []string{"name", "email", "phone", "floorPlansInterest"}},
	}
	for _, ft := range []string{BrokerOpenHouseSignIn, PublicOpenHouseSignIn, BrokerOpenHouseFeedback, PublicOpenHouseFeedback} {
		builtins = append(builtins, &Form{FormType: ft, Policy: Single, WebhookURL: s.OpenHouseWebhook})
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.defaultURL = s.WebhookURL
	for _, f := range builtins {
		if f.Document != "" && f.DocumentURL == "" {
			// Without a link there is nothing to send to the lead
			f.Document = ""
		}
		if err := f.Validate(); err != nil {
			return fmt.Errorf("validating built-in form: %w", err)
		}
		c.forms[f.FormType] = f
	}
	return nil
}

// Load reads and parses a forms.yaml file
func (c *Catalogue) Load(filePath string) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("reading forms file: %w", err)
	}
	return c.Parse(data)
}

// Parse adds or replaces forms from YAML content
func (c *Catalogue) Parse(data []byte) error {
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return fmt.Errorf("parsing forms YAML: %w", err)
	}

	parsed := make([]*Form, 0, len(config.Forms))
	for _, fc := range config.Forms {
		policy := NewPolicy(fc.Policy)
		maxAttempts := fc.MaxAttempts
		if maxAttempts == 0 && policy == Retry {
			maxAttempts = 5
		}

		form := &Form{
			FormType:       fc.FormType,
			WebhookURL:     fc.WebhookURL,
			Policy:         policy,
			MaxAttempts:    maxAttempts,
			Document:       fc.Document,
			DocumentURL:    fc.DocumentURL,
			AlwaysNotify:   fc.AlwaysNotify,
			RequiredFields: fc.RequiredFields,
		}
		if err := form.Validate(); err != nil {
			return fmt.Errorf("validating form: %w", err)
		}
		parsed = append(parsed, form)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, f := range parsed {
		c.forms[f.FormType] = f
	}
	return nil
}

// Get retrieves a form by its type
func (c *Catalogue) Get(formType string) (*Form, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	form, exists := c.forms[formType]
	if !exists {
		return nil, fmt.Errorf("form not found: %s", formType)
	}
	return form, nil
}

// List returns all forms ordered by type
func (c *Catalogue) List() []*Form {
	c.mu.RLock()
	defer c.mu.RUnlock()

	forms := make([]*Form, 0, len(c.forms))
	for _, f := range c.forms {
		forms = append(forms, f)
	}
	sort.Slice(forms, func(i, j int) bool { return forms[i].FormType < forms[j].FormType })
	return forms
}

// Exists checks if a form type is known
func (c *Catalogue) Exists(formType string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	_, exists := c.forms[formType]
	return exists
}

// WebhookURL returns where a form's submissions are POSTed; empty means email only
func (c *Catalogue) WebhookURL(f *Form) string {
	if f.WebhookURL != "" {
		return f.WebhookURL
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.defaultURL
}
