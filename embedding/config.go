package embedding

import (
	"fmt"
)

// Embedder providers.
const (
	ProviderHashing = "hashing"
	ProviderOpenAI  = "openai"
)

// Config selects the embedder used by the question index.
type Config struct {
	// Provider is "hashing" (local, default) or "openai".
	Provider string `yaml:"provider" mapstructure:"provider"`
	// Dimensions is the hashing bucket count.
	Dimensions int          `yaml:"dimensions" mapstructure:"dimensions"`
	OpenAI     OpenAIConfig `yaml:"openai" mapstructure:"openai"`
}

// ApplyDefaults selects the hashing embedder.
func (c *Config) ApplyDefaults() {
	if c.Provider == "" {
		c.Provider = ProviderHashing
	}
	if c.Dimensions <= 0 {
		c.Dimensions = DefaultHashingDimensions
	}
	if c.Provider == ProviderOpenAI {
		c.OpenAI.ApplyDefaults()
	}
}

// Validate checks the provider name and its settings.
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderHashing:
	case ProviderOpenAI:
		if c.OpenAI.APIKey == "" {
			return fmt.Errorf("embedding: openai.api_key is required")
		}
	default:
		return fmt.Errorf("embedding: unknown provider %q", c.Provider)
	}
	return nil
}

// New builds the configured embedder.
func New(cfg Config) (Embedder, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Provider == ProviderOpenAI {
		o, err := NewOpenAI(cfg.OpenAI)
		if err != nil {
			return nil, err
		}
		return o, nil
	}
	return NewHashing(cfg.Dimensions), nil
}
