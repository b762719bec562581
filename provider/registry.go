package provider

import (
	"fmt"
	"sort"
	"sync"
)

// Registry maps backend type names to factories.
type Registry[T Provider, C any] struct {
	mu        sync.RWMutex
	factories map[string]Factory[T, C]
}

// NewRegistry creates a new empty Registry.
func NewRegistry[T Provider, C any]() *Registry[T, C] {
	return &Registry[T, C]{factories: make(map[string]Factory[T, C])}
}

// RegisterFactory registers a named factory, replacing any previous one.
func (r *Registry[T, C]) RegisterFactory(name string, factory Factory[T, C]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Create instantiates a provider using the named factory and config.
func (r *Registry[T, C]) Create(name string, cfg C) (T, error) {
	r.mu.RLock()
	factory, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		var zero T
		return zero, fmt.Errorf("provider factory %q not registered (known: %v)", name, r.List())
	}
	return factory(cfg)
}

// List returns sorted names of all registered factories.
func (r *Registry[T, C]) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
