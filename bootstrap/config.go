package bootstrap

import (
	"github.com/kbukum/standin/config"
)

// Config is satisfied by any struct embedding config.ServiceConfig:
//
//	type Config struct {
//	    config.ServiceConfig `yaml:",inline" mapstructure:",squash"`
//	    Router router.Config `yaml:"router" mapstructure:"router"`
//	}
type Config interface {
	GetServiceConfig() *config.ServiceConfig
	ApplyDefaults()
	Validate() error
}
