package database

import (
	"context"
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/kbukum/standin/component"
	"github.com/kbukum/standin/logger"
)

// DriverFunc builds a dialector from a DSN.
type DriverFunc func(dsn string) gorm.Dialector

// Component wraps DB for lifecycle management.
type Component struct {
	db     *DB
	cfg    Config
	log    *logger.Logger
	driver DriverFunc
	models []interface{}
}

var (
	_ component.Component   = (*Component)(nil)
	_ component.Describable = (*Component)(nil)
)

// NewComponent creates a database component using the SQLite driver.
func NewComponent(cfg Config, log *logger.Logger) *Component {
	cfg.ApplyDefaults()
	return &Component{
		cfg:    cfg,
		log:    log.WithComponent("database"),
		driver: sqlite.Open,
	}
}

// WithDriver replaces the SQLite driver.
func (c *Component) WithDriver(fn DriverFunc) *Component {
	c.driver = fn
	return c
}

// WithAutoMigrate registers models migrated on Start.
func (c *Component) WithAutoMigrate(models ...interface{}) *Component {
	c.models = append(c.models, models...)
	return c
}

// DB returns the connection, or nil if not started.
func (c *Component) DB() *DB { return c.db }

func (c *Component) Name() string { return "database" }

// Start connects and runs auto-migration.
func (c *Component) Start(ctx context.Context) error {
	if !c.cfg.Enabled {
		c.log.Info("database component is disabled")
		return nil
	}
	db, err := Open(ctx, c.driver(c.cfg.DSN), c.cfg, c.log)
	if err != nil {
		return fmt.Errorf("database start: %w", err)
	}
	c.db = db

	if c.cfg.AutoMigrate && len(c.models) > 0 {
		if err := c.db.AutoMigrate(c.models...); err != nil {
			return fmt.Errorf("database auto-migrate: %w", err)
		}
	}
	return nil
}

// Stop closes the connection.
func (c *Component) Stop(context.Context) error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

func (c *Component) Health(ctx context.Context) component.Health {
	if !c.cfg.Enabled {
		return component.Health{Name: c.Name(), Status: component.StatusHealthy, Message: "disabled"}
	}
	if c.db == nil {
		return component.Health{Name: c.Name(), Status: component.StatusUnhealthy, Message: "database not initialized"}
	}
	if err := c.db.PingContext(ctx); err != nil {
		return component.Health{Name: c.Name(), Status: component.StatusUnhealthy, Message: fmt.Sprintf("ping failed: %v", err)}
	}
	return component.Health{Name: c.Name(), Status: component.StatusHealthy}
}

func (c *Component) Describe() component.Description {
	details := fmt.Sprintf("dsn=%s pool=%d/%d", c.cfg.DSN, c.cfg.MaxOpenConns, c.cfg.MaxIdleConns)
	if c.cfg.AutoMigrate {
		details += " auto-migrate=on"
	}
	return component.Description{Name: "Database", Type: "sqlite", Details: details}
}
