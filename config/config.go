package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/marcelsud/lead-relay/email"
	"github.com/spf13/viper"
)

/* Config is read once at startup from an optional .env file and the environment
 * The environment wins over the file; every key has a default so a bare process starts
 */

type Config struct {
	Port        string `mapstructure:"PORT"`
	ServiceName string `mapstructure:"SERVICE_NAME"`
	LogLevel    string `mapstructure:"LOG_LEVEL"`

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	FormsFile string `mapstructure:"FORMS_FILE"`

	ContactWebhookURL       string `mapstructure:"CONTACT_WEBHOOK_URL"`
	ContactWebhookURLTest   string `mapstructure:"CONTACT_WEBHOOK_URL_TEST"`
	WebhookTestMode         bool   `mapstructure:"WEBHOOK_TEST_MODE"`
	OpenHouseWebhookURL     string `mapstructure:"OPEN_HOUSE_WEBHOOK_URL"`
	WebhookSecret           string `mapstructure:"WEBHOOK_SECRET"`
	WebhookMaxAttempts      int    `mapstructure:"WEBHOOK_MAX_ATTEMPTS"`
	WebhookTimeoutSeconds   int    `mapstructure:"WEBHOOK_TIMEOUT_SECONDS"`
	WebhookAsync            bool   `mapstructure:"WEBHOOK_ASYNC"`
	CircuitBreakerThreshold int    `mapstructure:"CIRCUIT_BREAKER_THRESHOLD"`

	GmailUser            string `mapstructure:"GMAIL_USER"`
	GmailAppPassword     string `mapstructure:"GMAIL_APP_PASSWORD"`
	SMTPHost             string `mapstructure:"SMTP_HOST"`
	SMTPPort             int    `mapstructure:"SMTP_PORT"`
	SMTPUser             string `mapstructure:"SMTP_USER"`
	SMTPPassword         string `mapstructure:"SMTP_PASSWORD"`
	SMTPFrom             string `mapstructure:"SMTP_FROM"`
	EmailFallbackEnabled bool   `mapstructure:"EMAIL_FALLBACK_ENABLED"`
	EmailRecipients      string `mapstructure:"EMAIL_RECIPIENTS"`
	EmailRecipientsSales string `mapstructure:"EMAIL_RECIPIENTS_SALES"`

	RateLimitMax           int `mapstructure:"RATE_LIMIT_MAX"`
	RateLimitWindowMinutes int `mapstructure:"RATE_LIMIT_WINDOW_MINUTES"`
	MinSubmitMillis        int `mapstructure:"MIN_SUBMIT_MILLIS"`

	BackupRetentionDays    int     `mapstructure:"BACKUP_RETENTION_DAYS"`
	RetrySchedule          string  `mapstructure:"RETRY_SCHEDULE"`
	CleanupSchedule        string  `mapstructure:"CLEANUP_SCHEDULE"`
	ExportAPIKey           string  `mapstructure:"EXPORT_API_KEY"`
	StatusSuccessThreshold float64 `mapstructure:"STATUS_SUCCESS_THRESHOLD"`

	BrochurePDFURL   string `mapstructure:"BROCHURE_PDF_URL"`
	FloorPlansPDFURL string `mapstructure:"FLOOR_PLANS_PDF_URL"`

	KafkaBrokers string `mapstructure:"KAFKA_BROKERS"`
	KafkaTopic   string `mapstructure:"KAFKA_TOPIC"`
	EventsStream string `mapstructure:"EVENTS_STREAM"`

	MinioEndpoint  string `mapstructure:"MINIO_ENDPOINT"`
	MinioAccessKey string `mapstructure:"MINIO_ACCESS_KEY"`
	MinioSecretKey string `mapstructure:"MINIO_SECRET_KEY"`
	MinioUseSSL    bool   `mapstructure:"MINIO_USE_SSL"`
	MinioBucket    string `mapstructure:"MINIO_BUCKET"`
	MinioBasePath  string `mapstructure:"MINIO_BASE_PATH"`
}

var defaults = map[string]any{
	"PORT":                      "8080",
	"SERVICE_NAME":              "lead-relay",
	"LOG_LEVEL":                 "info",
	"REDIS_ADDR":                "localhost:6379",
	"REDIS_PASSWORD":            "",
	"REDIS_DB":                  0,
	"FORMS_FILE":                "",
	"CONTACT_WEBHOOK_URL":       "",
	"CONTACT_WEBHOOK_URL_TEST":  "",
	"WEBHOOK_TEST_MODE":         false,
	"OPEN_HOUSE_WEBHOOK_URL":    "",
	"WEBHOOK_SECRET":            "",
	"WEBHOOK_MAX_ATTEMPTS":      5,
	"WEBHOOK_TIMEOUT_SECONDS":   15,
	"WEBHOOK_ASYNC":             false,
	"CIRCUIT_BREAKER_THRESHOLD": 10,
	"GMAIL_USER":                "",
	"GMAIL_APP_PASSWORD":        "",
	"SMTP_HOST":                 "",
	"SMTP_PORT":                 587,
	"SMTP_USER":                 "",
	"SMTP_PASSWORD":             "",
	"SMTP_FROM":                 "",
	"EMAIL_FALLBACK_ENABLED":    true,
	"EMAIL_RECIPIENTS":          "",
	"EMAIL_RECIPIENTS_SALES":    "",
	"RATE_LIMIT_MAX":            5,
	"RATE_LIMIT_WINDOW_MINUTES": 15,
	"MIN_SUBMIT_MILLIS":         3000,
	"BACKUP_RETENTION_DAYS":     90,
	"RETRY_SCHEDULE":            "*/5 * * * *",
	"CLEANUP_SCHEDULE":          "30 3 * * *",
	"EXPORT_API_KEY":            "",
	"STATUS_SUCCESS_THRESHOLD":  80.0,
	"BROCHURE_PDF_URL":          "",
	"FLOOR_PLANS_PDF_URL":       "",
	"KAFKA_BROKERS":             "",
	"KAFKA_TOPIC":               "lead-events",
	"EVENTS_STREAM":             "",
	"MINIO_ENDPOINT":            "",
	"MINIO_ACCESS_KEY":          "",
	"MINIO_SECRET_KEY":          "",
	"MINIO_USE_SSL":             false,
	"MINIO_BUCKET":              "lead-backups",
	"MINIO_BASE_PATH":           "submissions",
}

// GetConfig reads ./.env when present and the environment
func GetConfig() (*Config, error) {
	return Load("")
}

// Load reads the given dotenv file, or ./.env when file is empty. A missing
// file is not an error.
func Load(file string) (*Config, error) {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	v.SetConfigType("env")
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(".env")
		v.AddConfigPath(".")
	}
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || file != "" {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("parsing config data: %w", err)
	}
	return &config, nil
}

// WebhookURL returns the contact webhook, the test one in test mode
func (c *Config) WebhookURL() string {
	if c.WebhookTestMode && c.ContactWebhookURLTest != "" {
		return c.ContactWebhookURLTest
	}
	return c.ContactWebhookURL
}

// Email resolves the SMTP settings. Gmail credentials win over SMTP_*.
// Sales notifications go to the technical list when no sales list is set.
func (c *Config) Email() email.Config {
	var cfg email.Config
	if c.GmailUser != "" && c.GmailAppPassword != "" {
		cfg = email.GmailConfig(c.GmailUser, c.GmailAppPassword)
	} else {
		cfg = email.Config{
			Host:     c.SMTPHost,
			Port:     c.SMTPPort,
			Username: c.SMTPUser,
			Password: c.SMTPPassword,
			From:     c.SMTPUser,
		}
	}
	if c.SMTPFrom != "" {
		cfg.From = c.SMTPFrom
	}
	cfg.Enabled = c.EmailFallbackEnabled

	cfg.TechRecipients = email.ParseRecipients(c.EmailRecipients)
	cfg.SalesRecipients = email.ParseRecipients(c.EmailRecipientsSales)
	if len(cfg.SalesRecipients) == 0 {
		cfg.SalesRecipients = cfg.TechRecipients
	}
	return cfg
}

func (c *Config) WebhookTimeout() time.Duration {
	return time.Duration(c.WebhookTimeoutSeconds) * time.Second
}

// RequestTimeout covers a full synchronous retry loop: every attempt at its
// timeout plus the worst-case backoff between them.
func (c *Config) RequestTimeout() time.Duration {
	attempts := max(c.WebhookMaxAttempts, 1)
	d := time.Duration(attempts) * c.WebhookTimeout()
	for n := 1; n < attempts; n++ {
		d += time.Duration(1<<n)*time.Second + time.Second
	}
	return d + 10*time.Second
}

func (c *Config) RateLimitWindow() time.Duration {
	return time.Duration(c.RateLimitWindowMinutes) * time.Minute
}

func (c *Config) MinSubmitTime() time.Duration {
	return time.Duration(c.MinSubmitMillis) * time.Millisecond
}

// Brokers splits KAFKA_BROKERS; nil disables Kafka
func (c *Config) Brokers() []string {
	var out []string
	for _, b := range strings.Split(c.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}
