package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Tier labels for lookup metrics.
const (
	TierFast    = "fast"
	TierDurable = "durable"
)

// Variant labels for production metrics.
const (
	VariantReduced  = "reduced"
	VariantOriginal = "original"
)

// Metrics records cache activity.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: must return quickly; never block the caller.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordLookup records one tier lookup and whether it hit.
	RecordLookup(ctx context.Context, tier string, hit bool)

	// RecordProduction records one producer invocation with duration
	// and error status.
	RecordProduction(ctx context.Context, variant string, duration time.Duration, err error)

	// RecordWarmed records bytes accounted against the warm-up budget.
	RecordWarmed(ctx context.Context, bytes int64)
}

// metricsImpl is the concrete implementation of Metrics.
type metricsImpl struct {
	lookupCount  metric.Int64Counter
	prodCount    metric.Int64Counter
	prodErrors   metric.Int64Counter
	prodDuration metric.Float64Histogram
	warmedBytes  metric.Int64Counter
}

// NewMetrics creates a Metrics instance on the given meter.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	lookupCount, err := meter.Int64Counter(
		"imgcache.lookups.total",
		metric.WithDescription("Total number of tier lookups"),
		metric.WithUnit("{lookup}"),
	)
	if err != nil {
		return nil, err
	}

	prodCount, err := meter.Int64Counter(
		"imgcache.productions.total",
		metric.WithDescription("Total number of producer invocations"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	prodErrors, err := meter.Int64Counter(
		"imgcache.productions.errors",
		metric.WithDescription("Total number of failed producer invocations"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	prodDuration, err := meter.Float64Histogram(
		"imgcache.production.duration_ms",
		metric.WithDescription("Producer invocation duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	warmedBytes, err := meter.Int64Counter(
		"imgcache.warmed.bytes",
		metric.WithDescription("Bytes accounted against the warm-up budget"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	return &metricsImpl{
		lookupCount:  lookupCount,
		prodCount:    prodCount,
		prodErrors:   prodErrors,
		prodDuration: prodDuration,
		warmedBytes:  warmedBytes,
	}, nil
}

// RecordLookup records one tier lookup.
func (m *metricsImpl) RecordLookup(ctx context.Context, tier string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.lookupCount.Add(ctx, 1, metric.WithAttributes(
		attribute.String("tier", tier),
		attribute.String("result", result),
	))
}

// RecordProduction records one producer invocation.
func (m *metricsImpl) RecordProduction(ctx context.Context, variant string, duration time.Duration, err error) {
	opt := metric.WithAttributes(attribute.String("variant", variant))

	// Always increment total counter
	m.prodCount.Add(ctx, 1, opt)

	// Increment error counter on failure
	if err != nil {
		m.prodErrors.Add(ctx, 1, opt)
	}

	m.prodDuration.Record(ctx, float64(duration.Milliseconds()), opt)
}

// RecordWarmed records bytes accounted against the warm-up budget.
func (m *metricsImpl) RecordWarmed(ctx context.Context, bytes int64) {
	m.warmedBytes.Add(ctx, bytes)
}

// nopMetrics is a metrics implementation that does nothing.
type nopMetrics struct{}

// NopMetrics returns a Metrics that records nothing.
func NopMetrics() Metrics {
	return nopMetrics{}
}

func (nopMetrics) RecordLookup(context.Context, string, bool) {}

func (nopMetrics) RecordProduction(context.Context, string, time.Duration, error) {}

func (nopMetrics) RecordWarmed(context.Context, int64) {}
