package provider

import "context"

// Provider is the base interface all pluggable backends implement.
type Provider interface {
	// Name returns the provider's unique name.
	Name() string
	// IsAvailable reports whether the provider is configured and ready.
	IsAvailable(ctx context.Context) bool
}

// Factory creates a provider instance from typed configuration.
type Factory[T Provider, C any] func(cfg C) (T, error)
