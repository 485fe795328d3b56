package metrics

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// OTelExporter exposes backup store gauges and lead counters in Prometheus format
type OTelExporter struct {
	meterProvider *sdkmetric.MeterProvider
	registry      *prometheus.Registry
	collector     Collector

	meter           metric.Meter
	pendingGauge    metric.Int64ObservableGauge
	statusGauge     metric.Int64ObservableGauge
	throughputGauge metric.Int64ObservableGauge
	jobRunGauge     metric.Int64ObservableGauge
}

// NewOTelExporter creates the meter provider backed by a dedicated Prometheus registry
func NewOTelExporter(collector Collector) (*OTelExporter, error) {
	registry := prometheus.NewRegistry()

	exporter, err := otelprom.New(otelprom.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("creating prometheus exporter: %w", err)
	}

	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
	)
	otel.SetMeterProvider(meterProvider)

	meter := meterProvider.Meter(
		"lead-relay",
		metric.WithInstrumentationVersion("1.0.0"),
	)

	oe := &OTelExporter{
		meterProvider: meterProvider,
		registry:      registry,
		collector:     collector,
		meter:         meter,
	}

	if collector != nil {
		if err := oe.registerInstruments(); err != nil {
			return nil, fmt.Errorf("registering instruments: %w", err)
		}
	}

	return oe, nil
}

// Meter returns the meter used for request-path counters
func (oe *OTelExporter) Meter() metric.Meter {
	return oe.meter
}

// registerInstruments creates the observable gauges fed by the collector
func (oe *OTelExporter) registerInstruments() error {
	var err error

	oe.pendingGauge, err = oe.meter.Int64ObservableGauge(
		"leads.pending",
		metric.WithDescription("Number of submissions awaiting webhook delivery per form type"),
		metric.WithUnit("{submissions}"),
		metric.WithInt64Callback(oe.observePending),
	)
	if err != nil {
		return fmt.Errorf("creating pending gauge: %w", err)
	}

	oe.statusGauge, err = oe.meter.Int64ObservableGauge(
		"leads.status.count",
		metric.WithDescription("Number of backed up submissions by webhook status"),
		metric.WithUnit("{submissions}"),
		metric.WithInt64Callback(oe.observeStatusCounts),
	)
	if err != nil {
		return fmt.Errorf("creating status count gauge: %w", err)
	}

	oe.throughputGauge, err = oe.meter.Int64ObservableGauge(
		"leads.delivered",
		metric.WithDescription("Number of submissions delivered over time window"),
		metric.WithUnit("{submissions}"),
		metric.WithInt64Callback(oe.observeThroughput),
	)
	if err != nil {
		return fmt.Errorf("creating throughput gauge: %w", err)
	}

	oe.jobRunGauge, err = oe.meter.Int64ObservableGauge(
		"scheduler.job.last_run",
		metric.WithDescription("Unix time of the last run of each scheduled job"),
		metric.WithUnit("s"),
		metric.WithInt64Callback(oe.observeJobRuns),
	)
	if err != nil {
		return fmt.Errorf("creating job run gauge: %w", err)
	}

	return nil
}

func (oe *OTelExporter) observePending(ctx context.Context, observer metric.Int64Observer) error {
	pending, err := oe.collector.GetPendingByForm(ctx)
	if err != nil {
		return err
	}

	for formType, count := range pending {
		observer.Observe(count, metric.WithAttributes(
			attribute.String("form.type", formType),
		))
	}

	return nil
}

func (oe *OTelExporter) observeStatusCounts(ctx context.Context, observer metric.Int64Observer) error {
	statusCounts, err := oe.collector.GetStatusCounts(ctx)
	if err != nil {
		return err
	}

	for status, count := range statusCounts {
		observer.Observe(count, metric.WithAttributes(
			attribute.String("webhook.status", status),
		))
	}

	return nil
}

func (oe *OTelExporter) observeThroughput(ctx context.Context, observer metric.Int64Observer) error {
	throughput, err := oe.collector.GetThroughput(ctx)
	if err != nil {
		return err
	}

	observer.Observe(throughput.LastFifteenMinutes, metric.WithAttributes(
		attribute.String("time.window", "15m"),
	))
	observer.Observe(throughput.LastHour, metric.WithAttributes(
		attribute.String("time.window", "1h"),
	))
	observer.Observe(throughput.LastDay, metric.WithAttributes(
		attribute.String("time.window", "24h"),
	))

	return nil
}

func (oe *OTelExporter) observeJobRuns(ctx context.Context, observer metric.Int64Observer) error {
	jobs, err := oe.collector.GetJobRuns(ctx)
	if err != nil {
		return err
	}

	for _, job := range jobs {
		observer.Observe(job.LastRun.Unix(), metric.WithAttributes(
			attribute.String("job.name", job.Job),
			attribute.String("job.status", job.Status),
		))
	}

	return nil
}

// Handler serves Prometheus-formatted metrics
func (oe *OTelExporter) Handler() http.Handler {
	return promhttp.HandlerFor(oe.registry, promhttp.HandlerOpts{})
}

// Shutdown gracefully shuts down the meter provider
func (oe *OTelExporter) Shutdown(ctx context.Context) error {
	if oe.meterProvider != nil {
		return oe.meterProvider.Shutdown(ctx)
	}
	return nil
}
