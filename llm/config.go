package llm

import (
	"fmt"
	"time"
)

// Defaults for fallback answers: short and moderately varied.
const (
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 300
	DefaultTimeout     = 30 * time.Second
)

// Config holds configuration for creating an LLM adapter.
type Config struct {
	// Enabled turns on generated fallback answers.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`

	// Name identifies this adapter instance in logs.
	Name string `yaml:"name" mapstructure:"name"`

	// Dialect selects the provider mapping ("openai", "ollama").
	Dialect string `yaml:"dialect" mapstructure:"dialect"`

	// BaseURL overrides the dialect's default URL.
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`

	// APIKey is sent the way the dialect expects.
	APIKey string `yaml:"api_key" mapstructure:"api_key"`

	// Model is the default model.
	Model string `yaml:"model" mapstructure:"model"`

	Temperature float64       `yaml:"temperature" mapstructure:"temperature"`
	MaxTokens   int           `yaml:"max_tokens" mapstructure:"max_tokens"`
	Timeout     time.Duration `yaml:"timeout" mapstructure:"timeout"`

	// SystemPrompt frames every generated answer.
	SystemPrompt string `yaml:"system_prompt" mapstructure:"system_prompt"`
}

// ApplyDefaults sets default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.Dialect == "" {
		c.Dialect = "openai"
	}
	if c.Name == "" {
		c.Name = c.Dialect + "-llm"
	}
	if c.Temperature == 0 {
		c.Temperature = DefaultTemperature
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = DefaultMaxTokens
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("llm: temperature must be in [0, 2], got %v", c.Temperature)
	}
	return nil
}
