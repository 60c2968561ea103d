// Package observe provides the OpenTelemetry metrics recorded by the
// detection service and the Prometheus bridge that exposes them.
//
// Tests should build [Metrics] with [NewMetrics] over their own
// [metric.MeterProvider] rather than use [DefaultMetrics].
package observe

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/nupi-ai/plugin-voiceguard-local"

// Metrics holds every instrument. All fields are safe for concurrent use.
type Metrics struct {
	// Decisions counts classifications by scorer and label.
	Decisions metric.Int64Counter

	// Fallbacks counts heuristic answers given in place of the model, by reason.
	Fallbacks metric.Int64Counter

	// Requests counts DetectVoice calls by gRPC status code.
	Requests metric.Int64Counter

	// ScoreDuration tracks end-to-end analysis latency per request.
	ScoreDuration metric.Float64Histogram

	// StageDuration tracks latency of the individual analysis stages. Use with
	// attribute.String("stage", "classify" | "continuity" | "langid").
	StageDuration metric.Float64Histogram
}

// latencyBuckets are in seconds. Whisper language detection dominates the
// upper range.
var latencyBuckets = []float64{
	0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10,
}

// NewMetrics creates all instruments on mp.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.Decisions, err = m.Int64Counter("voiceguard.decisions",
		metric.WithDescription("Classifications by scorer and label."),
	); err != nil {
		return nil, err
	}
	if met.Fallbacks, err = m.Int64Counter("voiceguard.fallbacks",
		metric.WithDescription("Heuristic answers given in place of the trained model, by reason."),
	); err != nil {
		return nil, err
	}
	if met.Requests, err = m.Int64Counter("voiceguard.requests",
		metric.WithDescription("DetectVoice requests by status code."),
	); err != nil {
		return nil, err
	}
	if met.ScoreDuration, err = m.Float64Histogram("voiceguard.score.duration",
		metric.WithDescription("Latency of a full voice analysis."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.StageDuration, err = m.Float64Histogram("voiceguard.stage.duration",
		metric.WithDescription("Latency of one analysis stage."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	return met, nil
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the process-wide instance built on the global
// meter provider. Panics if instrument creation fails.
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// RecordDecision counts one classification. A non-empty fallback reason is
// also counted as a fallback.
func (m *Metrics) RecordDecision(ctx context.Context, scorer, label, fallback string) {
	m.Decisions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("scorer", scorer),
		attribute.String("label", label),
	))
	if fallback != "" {
		m.Fallbacks.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", fallback)))
	}
}

// RecordRequest counts one request with its final status code.
func (m *Metrics) RecordRequest(ctx context.Context, code string) {
	m.Requests.Add(ctx, 1, metric.WithAttributes(attribute.String("code", code)))
}

// ObserveStage records how long stage took since start.
func (m *Metrics) ObserveStage(ctx context.Context, stage string, start time.Time) {
	m.StageDuration.Record(ctx, time.Since(start).Seconds(),
		metric.WithAttributes(attribute.String("stage", stage)))
}
