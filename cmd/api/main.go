package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/httplog"
	"github.com/marcelsud/lead-relay/archive"
	"github.com/marcelsud/lead-relay/config"
	"github.com/marcelsud/lead-relay/delivery"
	"github.com/marcelsud/lead-relay/email"
	"github.com/marcelsud/lead-relay/events"
	"github.com/marcelsud/lead-relay/forms"
	"github.com/marcelsud/lead-relay/internal/clock"
	"github.com/marcelsud/lead-relay/internal/http/chi"
	"github.com/marcelsud/lead-relay/lead"
	"github.com/marcelsud/lead-relay/metrics"
	"github.com/marcelsud/lead-relay/scheduler"
	"github.com/marcelsud/lead-relay/spam"
	"github.com/marcelsud/lead-relay/submission"
	subredis "github.com/marcelsud/lead-relay/submission/redis"
	"github.com/rs/zerolog"
)

const TIMEOUT = 30 * time.Second

/*
 * main is where every package gets wired. Imports only go downwards:
 * the binary imports the business packages, which import the storage layer.
 */

func main() {
	cfg, err := config.GetConfig()
	if err != nil {
		fmt.Println(err)
		return
	}
	logger := httplog.NewLogger(cfg.ServiceName, httplog.Options{
		JSON:     true,
		LogLevel: cfg.LogLevel,
	})

	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT,
	)
	defer stop()
	clk := clock.NewReal()

	repo, err := subredis.NewRepository(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		logger.Error().Err(err).Msg("connecting to backup store")
		return
	}
	defer repo.Close(context.Background())

	backup := submission.NewService(repo, logger, clk)
	backup.MaxAttempts = cfg.WebhookMaxAttempts
	if cfg.MinioEndpoint != "" {
		a, err := archive.NewMinIO(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioUseSSL, cfg.MinioBucket, cfg.MinioBasePath)
		if err != nil {
			logger.Error().Err(err).Msg("creating archiver")
			return
		}
		if err := a.EnsureBucket(ctx); err != nil {
			logger.Error().Err(err).Msg("preparing archive bucket")
			return
		}
		backup.Archiver = a
	}

	catalogue := forms.NewCatalogue()
	err = catalogue.Defaults(forms.Settings{
		WebhookURL:       cfg.WebhookURL(),
		MaxAttempts:      cfg.WebhookMaxAttempts,
		BrochurePDFURL:   cfg.BrochurePDFURL,
		FloorPlansPDFURL: cfg.FloorPlansPDFURL,
		OpenHouseWebhook: cfg.OpenHouseWebhookURL,
	})
	if err != nil {
		logger.Error().Err(err).Msg("registering forms")
		return
	}
	if cfg.FormsFile != "" {
		if err := catalogue.Load(cfg.FormsFile); err != nil {
			logger.Error().Err(err).Str("file", cfg.FormsFile).Msg("loading forms")
			return
		}
	}
	if cfg.WebhookURL() == "" {
		logger.Warn().Msg("CONTACT_WEBHOOK_URL not set, leads go to email and backup only")
	}

	webhook := delivery.NewClient(logger, clk)
	webhook.Timeout = cfg.WebhookTimeout()
	webhook.MaxAttempts = cfg.WebhookMaxAttempts
	if cfg.WebhookSecret != "" {
		signer, err := delivery.NewSigner(cfg.WebhookSecret)
		if err != nil {
			logger.Error().Err(err).Msg("parsing WEBHOOK_SECRET")
			return
		}
		webhook.Signer = signer
	}

	emailCfg := cfg.Email()
	notifier, err := email.NewNotifier(emailCfg, email.NewSMTPSender(emailCfg), logger, clk)
	if err != nil {
		logger.Error().Err(err).Msg("creating email notifier")
		return
	}
	if !notifier.IsConfigured() {
		logger.Warn().Msg("email fallback not configured")
	}

	publisher := newPublisher(cfg, repo, logger)
	defer publisher.Close()

	exporter, err := metrics.NewOTelExporter(metrics.NewRedisCollector(repo.GetClient(), catalogue, repo, clk))
	if err != nil {
		logger.Error().Err(err).Msg("creating metrics exporter")
		return
	}
	defer exporter.Shutdown(context.Background())
	recorder, err := metrics.NewRecorder(exporter.Meter())
	if err != nil {
		logger.Error().Err(err).Msg("creating metrics recorder")
		return
	}

	pipeline := lead.NewPipeline(backup, webhook, notifier, catalogue, logger, clk)
	pipeline.Events = publisher
	pipeline.Metrics = recorder
	pipeline.MaxAttempts = cfg.WebhookMaxAttempts
	pipeline.Async = cfg.WebhookAsync
	pipeline.CircuitThreshold = cfg.CircuitBreakerThreshold

	jobs := scheduler.New(scheduler.Config{
		RetrySpec:     cfg.RetrySchedule,
		CleanupSpec:   cfg.CleanupSchedule,
		RetentionDays: cfg.BackupRetentionDays,
	}, pipeline, backup, repo, logger, clk)
	if err := jobs.Start(); err != nil {
		logger.Error().Err(err).Msg("starting scheduler")
		return
	}

	r := chi.Handlers(ctx, logger, chi.Services{
		Leads:          pipeline,
		Backup:         backup,
		Forms:          catalogue,
		Limiter:        spam.NewRateLimiter(cfg.RateLimitMax, cfg.RateLimitWindow(), clk),
		Guard:          spam.NewGuard(clk, cfg.MinSubmitTime()),
		Metrics:        recorder,
		MetricsHandler: exporter.Handler(),
		Clock:          clk,
	}, chi.Options{
		ExportAPIKey:     cfg.ExportAPIKey,
		SuccessThreshold: cfg.StatusSuccessThreshold,
		RequestTimeout:   cfg.RequestTimeout(),
	})
	http.Handle("/", r)
	srv := &http.Server{
		ReadTimeout: 30 * time.Second,
		// A synchronous contact request may run the whole retry loop
		WriteTimeout: cfg.RequestTimeout() + 30*time.Second,
		Addr:         ":" + cfg.Port,
		Handler:      http.DefaultServeMux,
	}

	errShutdown := make(chan error, 1)
	go shutdown(srv, ctx, errShutdown)
	logger.Info().Str("port", cfg.Port).Int("forms", len(catalogue.List())).Msg("listening")
	err = srv.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("serving")
		return
	}
	err = <-errShutdown
	if err != nil {
		logger.Error().Err(err).Msg("shutting down")
	}

	ctxDrain, cancel := context.WithTimeout(context.Background(), TIMEOUT)
	defer cancel()
	if err := jobs.Stop(ctxDrain); err != nil {
		logger.Error().Err(err).Msg("stopping scheduler")
	}
	if err := pipeline.Wait(ctxDrain); err != nil {
		logger.Error().Err(err).Msg("draining deliveries")
	}
}

// newPublisher prefers Kafka, then a Redis stream, and discards events otherwise
func newPublisher(cfg *config.Config, repo *subredis.Repository, logger zerolog.Logger) events.Publisher {
	if brokers := cfg.Brokers(); len(brokers) > 0 {
		logger.Info().Strs("brokers", brokers).Str("topic", cfg.KafkaTopic).Msg("publishing lead events to kafka")
		return events.NewKafkaPublisher(brokers, cfg.KafkaTopic, logger)
	}
	if cfg.EventsStream != "" {
		logger.Info().Str("stream", cfg.EventsStream).Msg("publishing lead events to redis stream")
		return events.NewStreamPublisher(repo.GetClient(), cfg.EventsStream)
	}
	return events.Noop{}
}

func shutdown(server *http.Server, ctxShutdown context.Context, errShutdown chan error) {
	<-ctxShutdown.Done()

	ctxTimeout, stop := context.WithTimeout(context.Background(), TIMEOUT)
	defer stop()

	err := server.Shutdown(ctxTimeout)
	switch err {
	case nil:
		errShutdown <- nil
	case context.DeadlineExceeded:
		errShutdown <- fmt.Errorf("forcing server close after %s", TIMEOUT)
	default:
		errShutdown <- fmt.Errorf("shutting down server: %w", err)
	}
}
