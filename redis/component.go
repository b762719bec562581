package redis

import (
	"context"
	"fmt"

	"github.com/kbukum/standin/component"
	"github.com/kbukum/standin/logger"
)

var _ component.Component = (*Component)(nil)

// Component manages the client lifecycle.
type Component struct {
	client *Client
	cfg    Config
	log    *logger.Logger
}

// NewComponent creates a Redis component.
func NewComponent(cfg Config, log *logger.Logger) *Component {
	cfg.ApplyDefaults()
	return &Component{cfg: cfg, log: log.WithComponent("redis")}
}

// ForClient wraps an existing client so that other packages can hold it
// before the component starts. Start then only verifies connectivity.
func ForClient(client *Client) *Component {
	return &Component{client: client, cfg: client.cfg, log: client.log}
}

// Client returns the client, or nil before Start.
func (c *Component) Client() *Client { return c.client }

func (c *Component) Name() string { return "redis" }

// Start creates the client and verifies connectivity.
func (c *Component) Start(ctx context.Context) error {
	client := c.client
	if client == nil {
		var err error
		if client, err = New(c.cfg, c.log); err != nil {
			return fmt.Errorf("redis start: %w", err)
		}
	}
	if err := client.Ping(ctx); err != nil {
		_ = client.Close()
		return fmt.Errorf("redis start ping: %w", err)
	}
	c.client = client
	return nil
}

func (c *Component) Stop(context.Context) error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}

func (c *Component) Health(ctx context.Context) component.Health {
	if c.client == nil {
		return component.Health{Name: c.Name(), Status: component.StatusUnhealthy, Message: "redis not initialized"}
	}
	if err := c.client.Ping(ctx); err != nil {
		return component.Health{Name: c.Name(), Status: component.StatusDegraded, Message: fmt.Sprintf("ping failed: %v", err)}
	}
	return component.Health{Name: c.Name(), Status: component.StatusHealthy}
}

func (c *Component) Describe() component.Description {
	return component.Description{
		Name:    "Redis",
		Type:    "cache",
		Details: fmt.Sprintf("%s db=%d pool=%d", c.cfg.Addr, c.cfg.DB, c.cfg.PoolSize),
	}
}
