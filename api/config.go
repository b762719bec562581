package api

import (
	"fmt"
	"strings"
)

// Config controls request limits and where archived uploads go.
type Config struct {
	// MaxLiveSeconds caps POST /speech-to-text/live captures.
	MaxLiveSeconds int `yaml:"max_live_seconds" mapstructure:"max_live_seconds"`
	// MatchTopK is the default k of GET /questions/match.
	MatchTopK int `yaml:"match_top_k" mapstructure:"match_top_k"`
	// MaxMatchK bounds the k a caller may ask for.
	MaxMatchK int `yaml:"max_match_k" mapstructure:"max_match_k"`
	// ArchivePrefix is the storage folder for archived uploads.
	ArchivePrefix string `yaml:"archive_prefix" mapstructure:"archive_prefix"`
	// InteractionLimit is the default page size of the interaction log.
	InteractionLimit int `yaml:"interaction_limit" mapstructure:"interaction_limit"`
}

func (c *Config) ApplyDefaults() {
	if c.MaxLiveSeconds == 0 {
		c.MaxLiveSeconds = 60
	}
	if c.MatchTopK == 0 {
		c.MatchTopK = 5
	}
	if c.MaxMatchK == 0 {
		c.MaxMatchK = 50
	}
	if c.ArchivePrefix == "" {
		c.ArchivePrefix = "uploads"
	}
	c.ArchivePrefix = strings.Trim(c.ArchivePrefix, "/")
	if c.InteractionLimit == 0 {
		c.InteractionLimit = 100
	}
}

func (c *Config) Validate() error {
	if c.MaxLiveSeconds <= 0 {
		return fmt.Errorf("api.max_live_seconds must be positive (got: %d)", c.MaxLiveSeconds)
	}
	if c.MatchTopK <= 0 || c.MatchTopK > c.MaxMatchK {
		return fmt.Errorf("api.match_top_k must be between 1 and %d (got: %d)", c.MaxMatchK, c.MatchTopK)
	}
	if c.InteractionLimit <= 0 {
		return fmt.Errorf("api.interaction_limit must be positive (got: %d)", c.InteractionLimit)
	}
	return nil
}
