// Package observability wires OpenTelemetry tracing and metrics.
//
// Init installs OTLP/HTTP exporters when telemetry is enabled and leaves the
// global no-op providers in place otherwise, so instrumented code never has
// to check whether telemetry is on:
//
//	shutdown, err := observability.Init(ctx, cfg, "standin", version.Version)
//	defer shutdown(ctx)
//
//	metrics, err := observability.NewMetrics(observability.Meter("standin"))
//	metrics.RecordAttempt(ctx, "whisper", "success", latency)
package observability
