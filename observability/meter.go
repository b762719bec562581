package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

func initMeter(ctx context.Context, cfg Config, res *resource.Resource) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}
	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(cfg.MetricInterval))),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)
	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Metrics holds the pipeline's instruments. A nil *Metrics records nothing.
type Metrics struct {
	attempts       metric.Int64Counter
	attemptLatency metric.Float64Histogram
	exhausted      metric.Int64Counter
	decisions      metric.Int64Counter
	windowsDropped metric.Int64Counter
	deliveries     metric.Int64Counter
	httpRequests   metric.Int64Counter
	httpDuration   metric.Float64Histogram
	activeSessions metric.Int64UpDownCounter
}

// NewMetrics creates the instruments on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	var (
		m   Metrics
		err error
	)
	if m.attempts, err = meter.Int64Counter("transcription.attempts",
		metric.WithDescription("Provider calls by provider and outcome")); err != nil {
		return nil, fmt.Errorf("creating transcription.attempts counter: %w", err)
	}
	if m.attemptLatency, err = meter.Float64Histogram("transcription.latency",
		metric.WithDescription("Provider call latency"), metric.WithUnit("s")); err != nil {
		return nil, fmt.Errorf("creating transcription.latency histogram: %w", err)
	}
	if m.exhausted, err = meter.Int64Counter("transcription.exhausted",
		metric.WithDescription("Windows where every provider failed or was skipped")); err != nil {
		return nil, fmt.Errorf("creating transcription.exhausted counter: %w", err)
	}
	if m.decisions, err = meter.Int64Counter("selector.decisions",
		metric.WithDescription("Routing decisions by kind and reason")); err != nil {
		return nil, fmt.Errorf("creating selector.decisions counter: %w", err)
	}
	if m.windowsDropped, err = meter.Int64Counter("session.windows_dropped",
		metric.WithDescription("Audio windows dropped under backpressure")); err != nil {
		return nil, fmt.Errorf("creating session.windows_dropped counter: %w", err)
	}
	if m.deliveries, err = meter.Int64Counter("delivery.total",
		metric.WithDescription("Delivery attempts by kind and outcome")); err != nil {
		return nil, fmt.Errorf("creating delivery.total counter: %w", err)
	}
	if m.httpRequests, err = meter.Int64Counter("http.requests",
		metric.WithDescription("HTTP requests by route and status")); err != nil {
		return nil, fmt.Errorf("creating http.requests counter: %w", err)
	}
	if m.httpDuration, err = meter.Float64Histogram("http.duration",
		metric.WithDescription("HTTP request duration"), metric.WithUnit("s")); err != nil {
		return nil, fmt.Errorf("creating http.duration histogram: %w", err)
	}
	if m.activeSessions, err = meter.Int64UpDownCounter("session.active",
		metric.WithDescription("Running audio sessions")); err != nil {
		return nil, fmt.Errorf("creating session.active gauge: %w", err)
	}
	return &m, nil
}

// RecordAttempt records one provider call.
func (m *Metrics) RecordAttempt(ctx context.Context, provider, outcome string, latency time.Duration) {
	if m == nil {
		return
	}
	m.attempts.Add(ctx, 1, metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("outcome", outcome),
	))
	if outcome != "skipped" {
		m.attemptLatency.Record(ctx, latency.Seconds(), metric.WithAttributes(attribute.String("provider", provider)))
	}
}

// RecordExhausted counts a window with no successful provider.
func (m *Metrics) RecordExhausted(ctx context.Context) {
	if m == nil {
		return
	}
	m.exhausted.Add(ctx, 1)
}

// RecordDecision counts a routing decision.
func (m *Metrics) RecordDecision(ctx context.Context, kind, reason string) {
	if m == nil {
		return
	}
	m.decisions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("reason", reason),
	))
}

// RecordWindowDropped counts a window lost to backpressure.
func (m *Metrics) RecordWindowDropped(ctx context.Context) {
	if m == nil {
		return
	}
	m.windowsDropped.Add(ctx, 1)
}

// RecordDelivery counts a delivery attempt.
func (m *Metrics) RecordDelivery(ctx context.Context, kind string, ok bool) {
	if m == nil {
		return
	}
	outcome := "ok"
	if !ok {
		outcome = "failed"
	}
	m.deliveries.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("outcome", outcome),
	))
}

// RecordHTTPRequest records a completed HTTP request.
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.Add(ctx, 1, metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("route", route),
		attribute.Int("status", status),
	))
	m.httpDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("route", route),
	))
}

// SessionStarted and SessionStopped track running sessions.
func (m *Metrics) SessionStarted(ctx context.Context) {
	if m == nil {
		return
	}
	m.activeSessions.Add(ctx, 1)
}

func (m *Metrics) SessionStopped(ctx context.Context) {
	if m == nil {
		return
	}
	m.activeSessions.Add(ctx, -1)
}
