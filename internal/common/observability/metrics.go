package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/zap"
)

// Observability records per-job OTel instruments. The Prometheus exporter
// registers them on the default registry served at /metrics.
type Observability struct {
	meterProvider *metric.MeterProvider
	jobCounter    otelmetric.Int64Counter
	jobDuration   otelmetric.Float64Histogram
	log           *zap.Logger
}

// New builds the meter provider. When the exporter cannot be created the
// returned value is still usable and records nothing.
func New(serviceName string, log *zap.Logger) *Observability {
	if log == nil {
		log = zap.NewNop()
	}

	exporter, err := prometheus.New()
	if err != nil {
		log.Warn("prometheus exporter unavailable, job instruments disabled", zap.Error(err))
		return &Observability{log: log}
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter(serviceName)

	jobCounter, err := meter.Int64Counter(
		"bidbuddy.worker.jobs.handled",
		otelmetric.WithDescription("Number of Zeebe jobs handed to a BidBuddy worker"),
	)
	if err != nil {
		log.Warn("job counter unavailable", zap.Error(err))
	}

	jobDuration, err := meter.Float64Histogram(
		"bidbuddy.worker.jobs.duration",
		otelmetric.WithDescription("Wall time spent in a BidBuddy worker handler"),
		otelmetric.WithUnit("ms"),
	)
	if err != nil {
		log.Warn("job duration histogram unavailable", zap.Error(err))
	}

	return &Observability{
		meterProvider: provider,
		jobCounter:    jobCounter,
		jobDuration:   jobDuration,
		log:           log,
	}
}

func (o *Observability) RecordJobProcessed(ctx context.Context, taskType string) {
	if o.jobCounter != nil {
		o.jobCounter.Add(ctx, 1, otelmetric.WithAttributes(
			attribute.String("task_type", taskType),
		))
	}
}

func (o *Observability) RecordJobDuration(ctx context.Context, duration time.Duration, taskType string) {
	if o.jobDuration != nil {
		o.jobDuration.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
			attribute.String("task_type", taskType),
		))
	}
}

func (o *Observability) Shutdown() {
	if o.meterProvider == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := o.meterProvider.Shutdown(ctx); err != nil {
		o.log.Warn("meter provider shutdown failed", zap.Error(err))
	}
}
