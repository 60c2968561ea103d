package observe

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestMetrics(t *testing.T) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	return m, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	return rm
}

func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

// counterValue sums data points of an Int64 sum whose attributes include kv.
func counterValue(t *testing.T, m *metricdata.Metrics, kv attribute.KeyValue) int64 {
	t.Helper()
	sum, ok := m.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("%s: data is %T, want Sum[int64]", m.Name, m.Data)
	}
	var total int64
	for _, dp := range sum.DataPoints {
		if v, ok := dp.Attributes.Value(kv.Key); ok && v == kv.Value {
			total += dp.Value
		}
	}
	return total
}

func TestRecordDecision(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordDecision(ctx, "model", "HUMAN", "")
	m.RecordDecision(ctx, "heuristic", "AI_GENERATED", "model_unavailable")
	m.RecordDecision(ctx, "heuristic", "HUMAN", "model_unavailable")

	rm := collect(t, reader)
	decisions := findMetric(rm, "voiceguard.decisions")
	if decisions == nil {
		t.Fatal("voiceguard.decisions not recorded")
	}
	if got := counterValue(t, decisions, attribute.String("scorer", "heuristic")); got != 2 {
		t.Errorf("heuristic decisions = %d, want 2", got)
	}
	if got := counterValue(t, decisions, attribute.String("label", "HUMAN")); got != 2 {
		t.Errorf("HUMAN decisions = %d, want 2", got)
	}

	fallbacks := findMetric(rm, "voiceguard.fallbacks")
	if fallbacks == nil {
		t.Fatal("voiceguard.fallbacks not recorded")
	}
	if got := counterValue(t, fallbacks, attribute.String("reason", "model_unavailable")); got != 2 {
		t.Errorf("fallbacks = %d, want 2", got)
	}
}

func TestRecordRequestAndStage(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordRequest(ctx, "OK")
	m.RecordRequest(ctx, "InvalidArgument")
	m.ObserveStage(ctx, "classify", time.Now().Add(-50*time.Millisecond))
	m.ScoreDuration.Record(ctx, 0.2)

	rm := collect(t, reader)
	if got := counterValue(t, findMetric(rm, "voiceguard.requests"), attribute.String("code", "OK")); got != 1 {
		t.Errorf("OK requests = %d, want 1", got)
	}

	stage := findMetric(rm, "voiceguard.stage.duration")
	if stage == nil {
		t.Fatal("voiceguard.stage.duration not recorded")
	}
	hist, ok := stage.Data.(metricdata.Histogram[float64])
	if !ok || len(hist.DataPoints) != 1 {
		t.Fatalf("stage data = %#v", stage.Data)
	}
	if dp := hist.DataPoints[0]; dp.Count != 1 || dp.Sum < 0.05 {
		t.Errorf("stage point = count %d sum %v", dp.Count, dp.Sum)
	}
	if findMetric(rm, "voiceguard.score.duration") == nil {
		t.Error("voiceguard.score.duration not recorded")
	}
}

func TestProviderServesPrometheus(t *testing.T) {
	ctx := context.Background()
	p, err := InitProvider(ctx, ProviderConfig{ServiceVersion: "test"})
	if err != nil {
		t.Fatalf("InitProvider: %v", err)
	}
	t.Cleanup(func() { _ = p.Shutdown(ctx) })

	m, err := NewMetrics(p.MeterProvider())
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	m.RecordDecision(ctx, "heuristic", "HUMAN", "")

	rec := httptest.NewRecorder()
	p.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "voiceguard_decisions") {
		t.Fatalf("metrics output missing voiceguard_decisions:\n%s", body)
	}
}
