package telemetry

import (
	"context"
	"slices"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// TestTelemetry provides in-memory telemetry for tests.
type TestTelemetry struct {
	*Telemetry

	SpanRecorder *tracetest.SpanRecorder
	MetricReader *sdkmetric.ManualReader
}

// NewTestTelemetry creates telemetry backed by a span recorder and a manual
// metric reader.
func NewTestTelemetry() *TestTelemetry {
	cfg := NewDefaultConfig()
	cfg.Enabled = true

	recorder := tracetest.NewSpanRecorder()
	reader := sdkmetric.NewManualReader()

	t := &Telemetry{
		config:         cfg,
		tracerProvider: trace.NewTracerProvider(trace.WithSpanProcessor(recorder)),
		meterProvider:  sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)),
	}

	return &TestTelemetry{
		Telemetry:    t,
		SpanRecorder: recorder,
		MetricReader: reader,
	}
}

// Spans returns all ended spans.
func (t *TestTelemetry) Spans() []trace.ReadOnlySpan {
	return t.SpanRecorder.Ended()
}

// SpanByName returns the first ended span named name, or nil.
func (t *TestTelemetry) SpanByName(name string) trace.ReadOnlySpan {
	if spans := t.SpansByName(name); len(spans) > 0 {
		return spans[0]
	}
	return nil
}

// SpansByName returns every ended span named name.
func (t *TestTelemetry) SpansByName(name string) []trace.ReadOnlySpan {
	return slices.DeleteFunc(t.Spans(), func(s trace.ReadOnlySpan) bool {
		return s.Name() != name
	})
}

// AssertSpanExists verifies a span with the given name was recorded.
func (t *TestTelemetry) AssertSpanExists(tb testing.TB, name string) {
	tb.Helper()
	if t.SpanByName(name) == nil {
		tb.Errorf("expected span %q not found, got: %v", name, t.spanNames())
	}
}

// AssertSpanAttribute verifies a span has the expected attribute.
func (t *TestTelemetry) AssertSpanAttribute(tb testing.TB, spanName, key string, expected any) {
	tb.Helper()
	span := t.SpanByName(spanName)
	if span == nil {
		tb.Fatalf("span %q not found", spanName)
	}
	i := slices.IndexFunc(span.Attributes(), func(kv attribute.KeyValue) bool {
		return string(kv.Key) == key
	})
	if i < 0 {
		tb.Errorf("span %q missing attribute %q", spanName, key)
		return
	}
	if w, ok := expected.(int); ok {
		expected = int64(w)
	}
	if got := attrValue(span.Attributes()[i].Value); got != expected {
		tb.Errorf("span %q attribute %q: got %v, want %v", spanName, key, got, expected)
	}
}

// CollectMetrics reads the current metric state.
func (t *TestTelemetry) CollectMetrics(ctx context.Context) (metricdata.ResourceMetrics, error) {
	var rm metricdata.ResourceMetrics
	err := t.MetricReader.Collect(ctx, &rm)
	return rm, err
}

func (t *TestTelemetry) spanNames() []string {
	var names []string
	for _, span := range t.Spans() {
		names = append(names, span.Name())
	}
	return names
}

func attrValue(v attribute.Value) any {
	switch v.Type() {
	case attribute.STRING:
		return v.AsString()
	case attribute.INT64:
		return v.AsInt64()
	case attribute.FLOAT64:
		return v.AsFloat64()
	case attribute.BOOL:
		return v.AsBool()
	default:
		return v.AsInterface()
	}
}
