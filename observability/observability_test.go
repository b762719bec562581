package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestMetrics(t *testing.T) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("NewMetrics() error = %v", err)
	}
	return m, reader
}

func counterTotal(t *testing.T, reader *sdkmetric.ManualReader, name string) int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				t.Fatalf("%s is %T, want Sum[int64]", name, m.Data)
			}
			var total int64
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
			return total
		}
	}
	return 0
}

func TestMetrics_Record(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordAttempt(ctx, "whisper", "success", 200*time.Millisecond)
	m.RecordAttempt(ctx, "openai", "skipped", 0)
	m.RecordExhausted(ctx)
	m.RecordDecision(ctx, "play_recording", "")
	m.RecordWindowDropped(ctx)
	m.RecordWindowDropped(ctx)
	m.RecordDelivery(ctx, "playback", false)

	tests := []struct {
		name string
		want int64
	}{
		{"transcription.attempts", 2},
		{"transcription.exhausted", 1},
		{"selector.decisions", 1},
		{"session.windows_dropped", 2},
		{"delivery.total", 1},
	}
	for _, tt := range tests {
		if got := counterTotal(t, reader, tt.name); got != tt.want {
			t.Errorf("%s = %d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	ctx := context.Background()
	m.RecordAttempt(ctx, "whisper", "success", time.Second)
	m.RecordExhausted(ctx)
	m.RecordDecision(ctx, "no_action", "empty_transcript")
	m.RecordHTTPRequest(ctx, "GET", "/health", 200, time.Millisecond)
	m.SessionStarted(ctx)
	m.SessionStopped(ctx)
}

func TestInit_Disabled(t *testing.T) {
	shutdown, err := Init(context.Background(), Config{}, "standin", "test")
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("shutdown() error = %v", err)
	}
}

func TestInit_Enabled(t *testing.T) {
	ctx := context.Background()
	shutdown, err := Init(ctx, Config{Enabled: true, Endpoint: "127.0.0.1:1", Insecure: true, SampleRate: 0.5}, "standin", "test")
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	ctx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancel()
	_ = shutdown(ctx)
}

func TestConfig(t *testing.T) {
	var c Config
	c.ApplyDefaults()
	if c.Endpoint != "localhost:4318" || c.SampleRate != 1 || c.MetricInterval != 15*time.Second {
		t.Errorf("defaults = %+v", c)
	}
	bad := Config{SampleRate: 2}
	if err := bad.Validate(); err == nil {
		t.Error("Validate() accepted sample_rate 2")
	}
}

func TestStartSpan(t *testing.T) {
	ctx, span := StartSpan(context.Background(), SpanAttempt)
	if ctx == nil || span == nil {
		t.Fatal("StartSpan returned nil")
	}
	EndSpan(span, errors.New("boom"))
}
