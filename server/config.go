package server

import (
	"fmt"
	"time"

	"github.com/kbukum/standin/server/middleware"
	"github.com/kbukum/standin/util"
)

// Config holds HTTP server configuration.
type Config struct {
	Host            string                     `yaml:"host" mapstructure:"host"`
	Port            int                        `yaml:"port" mapstructure:"port"`
	ReadTimeout     time.Duration              `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout    time.Duration              `yaml:"write_timeout" mapstructure:"write_timeout"`
	IdleTimeout     time.Duration              `yaml:"idle_timeout" mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration              `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
	MaxBodySize     string                     `yaml:"max_body_size" mapstructure:"max_body_size"`
	CORS            middleware.CORSConfig      `yaml:"cors" mapstructure:"cors"`
	RateLimit       middleware.RateLimitConfig `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// ApplyDefaults sets default values for unset fields. WriteTimeout stays
// zero so event streams and live captures are not cut off.
func (c *Config) ApplyDefaults() {
	if c.Port == 0 {
		c.Port = 8080
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 30 * time.Second
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 60 * time.Second
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = 5 * time.Second
	}
	if c.MaxBodySize == "" {
		c.MaxBodySize = "25MB"
	}
	if c.RateLimit.RequestsPerMinute == 0 {
		c.RateLimit.RequestsPerMinute = 120
	}
	if len(c.CORS.AllowedOrigins) == 0 {
		c.CORS.AllowedOrigins = []string{"*"}
	}
	if len(c.CORS.AllowedMethods) == 0 {
		c.CORS.AllowedMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	}
	if len(c.CORS.AllowedHeaders) == 0 {
		c.CORS.AllowedHeaders = []string{"Origin", "Content-Type", "Accept", "X-Request-Id"}
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("server.port must be between 0 and 65535 (got: %d)", c.Port)
	}
	if c.ReadTimeout < 0 || c.WriteTimeout < 0 || c.IdleTimeout < 0 {
		return fmt.Errorf("server timeouts must be non-negative")
	}
	if c.MaxBodySize != "" {
		if _, err := util.ParseSize(c.MaxBodySize); err != nil {
			return fmt.Errorf("server.max_body_size: %w", err)
		}
	}
	if c.RateLimit.RequestsPerMinute < 0 {
		return fmt.Errorf("server.rate_limit.requests_per_minute must be non-negative (got: %d)", c.RateLimit.RequestsPerMinute)
	}
	return nil
}
