package metrics

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
)

// PipelineMeter records pipeline runs through OpenTelemetry. The exporter
// publishes into the default Prometheus registry, so the values show up on
// the same /metrics endpoint as the promauto collectors.
//
// A nil *PipelineMeter is valid and records nothing.
type PipelineMeter struct {
	provider *metric.MeterProvider
	runs     otelmetric.Int64Counter
	duration otelmetric.Float64Histogram
}

func NewPipelineMeter(serviceName string) (*PipelineMeter, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, err
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter(serviceName)

	runs, err := meter.Int64Counter(
		"pipeline.runs",
		otelmetric.WithDescription("Number of pipeline runs"),
	)
	if err != nil {
		return nil, err
	}

	duration, err := meter.Float64Histogram(
		"pipeline.duration",
		otelmetric.WithDescription("Pipeline run duration"),
		otelmetric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &PipelineMeter{
		provider: provider,
		runs:     runs,
		duration: duration,
	}, nil
}

// RecordRun records one run of pipeline with the given outcome.
func (p *PipelineMeter) RecordRun(ctx context.Context, pipeline, status string, d time.Duration) {
	if p == nil {
		return
	}

	attrs := otelmetric.WithAttributes(
		attribute.String("pipeline", pipeline),
		attribute.String("status", status),
	)
	p.runs.Add(ctx, 1, attrs)
	p.duration.Record(ctx, float64(d.Milliseconds()), attrs)
}

func (p *PipelineMeter) Shutdown(ctx context.Context) error {
	if p == nil || p.provider == nil {
		return nil
	}
	return p.provider.Shutdown(ctx)
}
