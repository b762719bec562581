package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/kbukum/standin/api"
	"github.com/kbukum/standin/config"
	"github.com/kbukum/standin/database"
	"github.com/kbukum/standin/delivery"
	"github.com/kbukum/standin/embedding"
	"github.com/kbukum/standin/health"
	"github.com/kbukum/standin/llm"
	"github.com/kbukum/standin/observability"
	"github.com/kbukum/standin/redis"
	"github.com/kbukum/standin/router"
	"github.com/kbukum/standin/selector"
	"github.com/kbukum/standin/server"
	"github.com/kbukum/standin/session"
	"github.com/kbukum/standin/storage"
	"github.com/kbukum/standin/transcription"
)

// RouterConfig tunes provider routing.
type RouterConfig struct {
	// CallTimeout caps a single provider call.
	CallTimeout time.Duration `yaml:"call_timeout" mapstructure:"call_timeout"`
	Health      health.Policy `yaml:"health" mapstructure:"health"`
}

// QuestionsConfig controls the question bank.
type QuestionsConfig struct {
	// Seed loads the default question set into an empty bank.
	Seed bool `yaml:"seed" mapstructure:"seed"`
}

// Config is the full service configuration, read from cmd/standin/config.yml.
type Config struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Server        server.Config                  `yaml:"server" mapstructure:"server"`
	Observability observability.Config           `yaml:"observability" mapstructure:"observability"`
	Database      database.Config                `yaml:"database" mapstructure:"database"`
	Redis         redis.Config                   `yaml:"redis" mapstructure:"redis"`
	Storage       storage.Config                 `yaml:"storage" mapstructure:"storage"`
	LLM           llm.Config                     `yaml:"llm" mapstructure:"llm"`
	Embedding     embedding.Config               `yaml:"embedding" mapstructure:"embedding"`
	Providers     []transcription.ProviderConfig `yaml:"providers" mapstructure:"providers"`
	Router        RouterConfig                   `yaml:"router" mapstructure:"router"`
	Questions     QuestionsConfig                `yaml:"questions" mapstructure:"questions"`
	Selector      selector.Config                `yaml:"selector" mapstructure:"selector"`
	Session       session.Config                 `yaml:"session" mapstructure:"session"`
	Delivery      delivery.Config                `yaml:"delivery" mapstructure:"delivery"`
	API           api.Config                     `yaml:"api" mapstructure:"api"`
}

// ApplyDefaults fills every section. Generated fallbacks are enabled exactly
// when an LLM is configured.
func (c *Config) ApplyDefaults() {
	c.ServiceConfig.ApplyDefaults()
	c.Server.ApplyDefaults()
	if c.Observability.Environment == "" {
		c.Observability.Environment = c.Environment
	}
	c.Observability.ApplyDefaults()
	// The question bank lives in the database.
	c.Database.Enabled = true
	c.Database.ApplyDefaults()
	c.Redis.ApplyDefaults()
	c.Storage.ApplyDefaults()
	c.LLM.ApplyDefaults()
	c.Embedding.ApplyDefaults()
	for i := range c.Providers {
		c.Providers[i].ApplyDefaults()
	}
	if c.Router.CallTimeout <= 0 {
		c.Router.CallTimeout = router.DefaultTimeout
	}
	c.Router.Health.ApplyDefaults()
	c.Selector.ApplyDefaults()
	c.Selector.FallbackEnabled = c.LLM.Enabled
	c.Session.ApplyDefaults()
	c.Delivery.ApplyDefaults()
	c.API.ApplyDefaults()
}

// Validate checks every section and the constraints between them.
func (c *Config) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	var errs []error
	for _, check := range []func() error{
		c.Server.Validate,
		c.Observability.Validate,
		c.Database.Validate,
		c.Redis.Validate,
		c.LLM.Validate,
		c.Embedding.Validate,
		c.Selector.Validate,
		c.Session.Validate,
		c.API.Validate,
	} {
		if err := check(); err != nil {
			errs = append(errs, err)
		}
	}
	if c.Storage.Enabled {
		if err := c.Storage.Validate(); err != nil {
			errs = append(errs, err)
		}
	}

	active := 0
	seen := make(map[string]bool, len(c.Providers))
	for i := range c.Providers {
		p := &c.Providers[i]
		if err := p.Validate(); err != nil {
			errs = append(errs, err)
			continue
		}
		if seen[p.Name] {
			errs = append(errs, fmt.Errorf("providers: duplicate name %q", p.Name))
		}
		seen[p.Name] = true
		if !p.Disabled {
			active++
		}
	}
	if active == 0 {
		errs = append(errs, errors.New("providers: at least one enabled transcription provider is required"))
	}

	// A provider needs longer than the audio it transcribes; a timeout at or
	// below the window length times out healthy providers.
	if c.Router.CallTimeout <= c.Session.WindowDuration {
		errs = append(errs, fmt.Errorf("router: call_timeout %s must exceed session.window_duration %s",
			c.Router.CallTimeout, c.Session.WindowDuration))
	}
	return errors.Join(errs...)
}
