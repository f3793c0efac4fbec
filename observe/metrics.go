package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric instrument names.
const (
	MetricRequestTotal    = "pipeline.request.total"
	MetricRequestErrors   = "pipeline.request.errors"
	MetricRequestDuration = "pipeline.request.duration_ms"
)

// Metrics records per-call request metrics.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordRequest records one call with its duration and outcome.
	RecordRequest(ctx context.Context, meta RequestMeta, duration time.Duration, err error)
}

type metricsImpl struct {
	totalCount   metric.Int64Counter
	errorCount   metric.Int64Counter
	durationHist metric.Float64Histogram
}

// NewMetrics creates the request instruments on meter.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	totalCount, err := meter.Int64Counter(
		MetricRequestTotal,
		metric.WithDescription("Total number of pipeline calls"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	errorCount, err := meter.Int64Counter(
		MetricRequestErrors,
		metric.WithDescription("Total number of pipeline calls that returned an error"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	durationHist, err := meter.Float64Histogram(
		MetricRequestDuration,
		metric.WithDescription("Pipeline call duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &metricsImpl{
		totalCount:   totalCount,
		errorCount:   errorCount,
		durationHist: durationHist,
	}, nil
}

// RecordRequest increments the total, and the error counter for any non-nil
// err, and records the duration. Every point carries the request name and
// the status.
func (m *metricsImpl) RecordRequest(ctx context.Context, meta RequestMeta, duration time.Duration, err error) {
	opt := metric.WithAttributes(
		attribute.String("pipeline.request", meta.Name),
		attribute.String("pipeline.status", StatusOf(err)),
	)

	// Recording must survive a canceled call context.
	ctx = context.WithoutCancel(ctx)

	m.totalCount.Add(ctx, 1, opt)
	if err != nil {
		m.errorCount.Add(ctx, 1, opt)
	}
	m.durationHist.Record(ctx, float64(duration)/float64(time.Millisecond), opt)
}

type noopMetrics struct{}

func (noopMetrics) RecordRequest(context.Context, RequestMeta, time.Duration, error) {}
