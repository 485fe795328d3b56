package cli

import (
	"context"
	"fmt"

	"github.com/marcelsud/lead-relay/config"
	"github.com/marcelsud/lead-relay/delivery"
	"github.com/marcelsud/lead-relay/email"
	"github.com/marcelsud/lead-relay/forms"
	"github.com/marcelsud/lead-relay/internal/clock"
	"github.com/marcelsud/lead-relay/lead"
	"github.com/marcelsud/lead-relay/submission"
	subredis "github.com/marcelsud/lead-relay/submission/redis"
	"github.com/rs/zerolog"
)

// app holds what the backup commands share
type app struct {
	cfg    *config.Config
	repo   *subredis.Repository
	backup *submission.Service
	logger zerolog.Logger
	clock  clock.Clock
}

func openApp(envFile string) (*app, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, err
	}
	repo, err := subredis.NewRepository(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return nil, err
	}

	logger := newLogger()
	clk := clock.NewReal()
	backup := submission.NewService(repo, logger, clk)
	backup.MaxAttempts = cfg.WebhookMaxAttempts
	return &app{
		cfg:    cfg,
		repo:   repo,
		backup: backup,
		logger: logger,
		clock:  clk,
	}, nil
}

func (a *app) Close() {
	a.repo.Close(context.Background())
}

// pipeline builds the delivery side the same way the API does
func (a *app) pipeline() (*lead.Pipeline, error) {
	catalogue := forms.NewCatalogue()
	err := catalogue.Defaults(forms.Settings{
		WebhookURL:       a.cfg.WebhookURL(),
		MaxAttempts:      a.cfg.WebhookMaxAttempts,
		BrochurePDFURL:   a.cfg.BrochurePDFURL,
		FloorPlansPDFURL: a.cfg.FloorPlansPDFURL,
		OpenHouseWebhook: a.cfg.OpenHouseWebhookURL,
	})
	if err != nil {
		return nil, err
	}
	if a.cfg.FormsFile != "" {
		if err := catalogue.Load(a.cfg.FormsFile); err != nil {
			return nil, err
		}
	}

	webhook := delivery.NewClient(a.logger, a.clock)
	webhook.Timeout = a.cfg.WebhookTimeout()
	webhook.MaxAttempts = a.cfg.WebhookMaxAttempts
	if a.cfg.WebhookSecret != "" {
		signer, err := delivery.NewSigner(a.cfg.WebhookSecret)
		if err != nil {
			return nil, fmt.Errorf("parsing WEBHOOK_SECRET: %w", err)
		}
		webhook.Signer = signer
	}

	emailCfg := a.cfg.Email()
	notifier, err := email.NewNotifier(emailCfg, email.NewSMTPSender(emailCfg), a.logger, a.clock)
	if err != nil {
		return nil, err
	}

	p := lead.NewPipeline(a.backup, webhook, notifier, catalogue, a.logger, a.clock)
	p.CircuitThreshold = a.cfg.CircuitBreakerThreshold
	p.MaxAttempts = a.cfg.WebhookMaxAttempts
	return p, nil
}
