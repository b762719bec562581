package storage

import (
	"errors"
	"fmt"
	"time"
)

// Provider constants for supported storage backends.
const (
	ProviderLocal = "local"
	ProviderS3    = "s3"
)

// Default configuration values.
const (
	DefaultProvider        = ProviderLocal
	DefaultBasePath        = "./data/media"
	DefaultRegion          = "us-east-1"
	DefaultMaxFileSize     = int64(50 * 1024 * 1024)
	DefaultSignedURLExpiry = 15 * time.Minute
)

// Config holds storage configuration.
type Config struct {
	// Enabled controls whether the storage component is active.
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Provider selects the storage backend: "local" or "s3".
	Provider string `mapstructure:"provider" yaml:"provider"`

	// BasePath is the root directory for local storage.
	BasePath string `mapstructure:"base_path" yaml:"base_path"`

	// PublicURL is the HTTP prefix local files are served under. Empty
	// yields file:// URLs.
	PublicURL string `mapstructure:"public_url" yaml:"public_url"`

	// Bucket is the S3 bucket name.
	Bucket string `mapstructure:"bucket" yaml:"bucket"`

	// Region is the AWS region for S3.
	Region string `mapstructure:"region" yaml:"region"`

	// Endpoint is a custom S3-compatible endpoint (e.g. MinIO).
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`

	// AccessKey and SecretKey are static S3 credentials. When empty the
	// default AWS credential chain is used.
	AccessKey string `mapstructure:"access_key" yaml:"access_key"`
	SecretKey string `mapstructure:"secret_key" yaml:"secret_key"`

	// ForcePathStyle forces path-style URLs instead of virtual-hosted-style.
	ForcePathStyle bool `mapstructure:"force_path_style" yaml:"force_path_style"`

	// SignedURLExpiry bounds presigned playback URLs.
	SignedURLExpiry time.Duration `mapstructure:"signed_url_expiry" yaml:"signed_url_expiry"`

	// MaxFileSize is the maximum allowed upload size in bytes.
	MaxFileSize int64 `mapstructure:"max_file_size" yaml:"max_file_size"`

	// ArchiveUploads keeps a copy of every transcribed upload.
	ArchiveUploads bool `mapstructure:"archive_uploads" yaml:"archive_uploads"`
}

// ApplyDefaults fills in zero-valued fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Provider == "" {
		c.Provider = DefaultProvider
	}
	if c.BasePath == "" {
		c.BasePath = DefaultBasePath
	}
	if c.Region == "" {
		c.Region = DefaultRegion
	}
	if c.MaxFileSize <= 0 {
		c.MaxFileSize = DefaultMaxFileSize
	}
	if c.SignedURLExpiry <= 0 {
		c.SignedURLExpiry = DefaultSignedURLExpiry
	}
}

// Validate checks that the configuration is valid for the selected provider.
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderLocal:
		if c.BasePath == "" {
			return errors.New("storage: base_path is required for local provider")
		}
	case ProviderS3:
		var errs []error
		if c.Bucket == "" {
			errs = append(errs, errors.New("storage: bucket is required for s3 provider"))
		}
		if c.Region == "" {
			errs = append(errs, errors.New("storage: region is required for s3 provider"))
		}
		if (c.AccessKey == "") != (c.SecretKey == "") {
			errs = append(errs, errors.New("storage: access_key and secret_key must be set together"))
		}
		if len(errs) > 0 {
			return fmt.Errorf("storage: invalid s3 config: %w", errors.Join(errs...))
		}
	default:
		return fmt.Errorf("storage: unsupported provider %q", c.Provider)
	}
	return nil
}
