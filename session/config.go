package session

import (
	"fmt"
	"time"

	"github.com/kbukum/standin/audio"
)

// Config tunes live sessions.
type Config struct {
	// Format of the PCM pushed into a session.
	Format audio.Format `yaml:"format" mapstructure:"format"`

	// WindowDuration is the length of each transcribed window.
	WindowDuration time.Duration `yaml:"window_duration" mapstructure:"window_duration"`

	// QueueDepth is the number of completed windows waiting for the
	// consumer. When full the oldest waiting window is dropped.
	QueueDepth int `yaml:"queue_depth" mapstructure:"queue_depth"`

	// StopTimeout bounds a graceful stop issued by the manager.
	StopTimeout time.Duration `yaml:"stop_timeout" mapstructure:"stop_timeout"`

	// MaxSessions caps concurrent sessions. Zero means no limit.
	MaxSessions int `yaml:"max_sessions" mapstructure:"max_sessions"`
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	c.Format.ApplyDefaults()
	if c.WindowDuration <= 0 {
		c.WindowDuration = 10 * time.Second
	}
	if c.QueueDepth <= 0 {
		c.QueueDepth = 2
	}
	if c.StopTimeout <= 0 {
		c.StopTimeout = 30 * time.Second
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if err := c.Format.Validate(); err != nil {
		return fmt.Errorf("session: %w", err)
	}
	if c.WindowDuration < 500*time.Millisecond {
		return fmt.Errorf("session: window_duration must be at least 500ms, got %s", c.WindowDuration)
	}
	if c.MaxSessions < 0 {
		return fmt.Errorf("session: max_sessions must not be negative")
	}
	return nil
}
