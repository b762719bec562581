package storage

import (
	"context"
	"fmt"

	"github.com/kbukum/standin/component"
	"github.com/kbukum/standin/logger"
)

// Component wraps Storage for lifecycle management.
type Component struct {
	storage Storage
	cfg     Config
	log     *logger.Logger
}

var (
	_ component.Component   = (*Component)(nil)
	_ component.Describable = (*Component)(nil)
)

// NewComponent creates a storage component for the component registry.
func NewComponent(cfg Config, log *logger.Logger) *Component {
	cfg.ApplyDefaults()
	return &Component{cfg: cfg, log: log.WithComponent("storage")}
}

// Storage returns the backend, or nil when disabled or not started.
func (c *Component) Storage() Storage { return c.storage }

// Config returns the effective configuration.
func (c *Component) Config() Config { return c.cfg }

func (c *Component) Name() string { return "storage" }

// Open creates the backend ahead of Start so it can be handed to the
// packages that serve media. It returns nil when storage is disabled.
func (c *Component) Open() (Storage, error) {
	if !c.cfg.Enabled || c.storage != nil {
		return c.storage, nil
	}
	s, err := New(c.cfg, c.log)
	if err != nil {
		return nil, err
	}
	c.storage = s
	return s, nil
}

// Start initializes the storage backend unless Open already did.
func (c *Component) Start(context.Context) error {
	if !c.cfg.Enabled {
		c.log.Info("storage component is disabled")
		return nil
	}
	if _, err := c.Open(); err != nil {
		return fmt.Errorf("storage start: %w", err)
	}
	return nil
}

func (c *Component) Stop(context.Context) error { return nil }

// Health resolves a URL as a cheap probe of the backend.
func (c *Component) Health(ctx context.Context) component.Health {
	if !c.cfg.Enabled {
		return component.Health{Name: c.Name(), Status: component.StatusHealthy, Message: "disabled"}
	}
	if c.storage == nil {
		return component.Health{Name: c.Name(), Status: component.StatusUnhealthy, Message: "storage not initialized"}
	}
	if _, err := c.storage.URL(ctx, ".health"); err != nil {
		return component.Health{Name: c.Name(), Status: component.StatusUnhealthy, Message: fmt.Sprintf("health probe failed: %v", err)}
	}
	return component.Health{Name: c.Name(), Status: component.StatusHealthy}
}

func (c *Component) Describe() component.Description {
	details := "provider=" + c.cfg.Provider
	if c.cfg.Provider == ProviderS3 {
		details += " bucket=" + c.cfg.Bucket
	}
	return component.Description{Name: "Storage", Type: "storage", Details: details}
}
