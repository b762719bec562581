package transcription

import (
	"fmt"
	"os"
	"time"

	"github.com/kbukum/standin/httpclient"
	"github.com/kbukum/standin/provider"
)

// ProviderConfig configures one entry of the provider preference list.
type ProviderConfig struct {
	// Name is the provider id reported in results and health; defaults to Type.
	Name string `yaml:"name" mapstructure:"name"`
	// Type selects the backend: whisper, openai, deepgram, azure, gemini, assemblyai.
	Type string `yaml:"type" mapstructure:"type"`
	// URL overrides the vendor base URL.
	URL string `yaml:"url" mapstructure:"url"`
	// APIKey is the credential. APIKeyEnv names an environment variable to read it from.
	APIKey    string `yaml:"api_key" mapstructure:"api_key"`
	APIKeyEnv string `yaml:"api_key_env" mapstructure:"api_key_env"`
	Model     string `yaml:"model" mapstructure:"model"`
	Language  string `yaml:"language" mapstructure:"language"`
	// Region is the Azure Speech region.
	Region string `yaml:"region" mapstructure:"region"`
	// Timeout caps a single HTTP exchange; the router's per-call deadline usually wins.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
	// PollInterval is used by asynchronous vendors.
	PollInterval time.Duration `yaml:"poll_interval" mapstructure:"poll_interval"`
	Disabled     bool          `yaml:"disabled" mapstructure:"disabled"`
}

// ApplyDefaults fills in the name, timeout and API key.
func (c *ProviderConfig) ApplyDefaults() {
	if c.Name == "" {
		c.Name = c.Type
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.PollInterval <= 0 {
		c.PollInterval = time.Second
	}
	if c.APIKey == "" && c.APIKeyEnv != "" {
		c.APIKey = os.Getenv(c.APIKeyEnv)
	}
}

// Validate checks the fields every backend needs.
func (c *ProviderConfig) Validate() error {
	if c.Type == "" {
		return fmt.Errorf("transcription provider %q: type is required", c.Name)
	}
	return nil
}

// NewHTTPClient builds the vendor client with the configured URL or the
// backend default.
func (c ProviderConfig) NewHTTPClient(defaultURL string, auth *httpclient.AuthConfig) (*httpclient.Client, error) {
	base := c.URL
	if base == "" {
		base = defaultURL
	}
	return httpclient.New(httpclient.Config{BaseURL: base, Timeout: c.Timeout, Auth: auth})
}

// Registry builds adapters from ProviderConfig by backend type.
type Registry = provider.Registry[Adapter, ProviderConfig]

// NewRegistry creates an empty adapter registry.
func NewRegistry() *Registry {
	return provider.NewRegistry[Adapter, ProviderConfig]()
}

// Build creates the adapters for cfgs in order, skipping disabled entries.
// Names must be unique.
func Build(reg *Registry, cfgs []ProviderConfig) ([]Adapter, error) {
	adapters := make([]Adapter, 0, len(cfgs))
	seen := make(map[string]bool, len(cfgs))
	for _, cfg := range cfgs {
		if cfg.Disabled {
			continue
		}
		cfg.ApplyDefaults()
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		if seen[cfg.Name] {
			return nil, fmt.Errorf("transcription provider %q configured twice", cfg.Name)
		}
		seen[cfg.Name] = true

		a, err := reg.Create(cfg.Type, cfg)
		if err != nil {
			return nil, fmt.Errorf("transcription provider %q: %w", cfg.Name, err)
		}
		adapters = append(adapters, a)
	}
	return adapters, nil
}
