package app

import (
	"context"
	"fmt"

	"github.com/kbukum/standin/component"
	"github.com/kbukum/standin/observability"
)

// telemetry installs the OpenTelemetry providers on start and flushes them
// on stop. Instruments created earlier through the global meter are bound
// once the providers are installed.
type telemetry struct {
	cfg      observability.Config
	service  string
	version  string
	shutdown observability.Shutdown
}

func newTelemetry(cfg observability.Config, service, version string) *telemetry {
	return &telemetry{cfg: cfg, service: service, version: version}
}

func (t *telemetry) Name() string { return "telemetry" }

func (t *telemetry) Start(ctx context.Context) error {
	shutdown, err := observability.Init(ctx, t.cfg, t.service, t.version)
	if err != nil {
		return fmt.Errorf("telemetry init: %w", err)
	}
	t.shutdown = shutdown
	return nil
}

func (t *telemetry) Stop(ctx context.Context) error {
	if t.shutdown == nil {
		return nil
	}
	return t.shutdown(ctx)
}

func (t *telemetry) Health(context.Context) component.Health {
	if !t.cfg.Enabled {
		return component.Health{Name: t.Name(), Status: component.StatusHealthy, Message: "disabled"}
	}
	return component.Health{Name: t.Name(), Status: component.StatusHealthy}
}

func (t *telemetry) Describe() component.Description {
	details := "disabled"
	if t.cfg.Enabled {
		details = fmt.Sprintf("otlp=%s sample=%.2f", t.cfg.Endpoint, t.cfg.SampleRate)
	}
	return component.Description{Name: "Telemetry", Type: "observability", Details: details}
}
