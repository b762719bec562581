package llm

import (
	"fmt"
	"sort"
	"sync"

	"github.com/kbukum/standin/httpclient"
)

// Dialect maps universal LLM types to and from a provider's HTTP format.
type Dialect interface {
	// Name returns the dialect identifier (e.g. "openai", "ollama").
	Name() string

	// DefaultBaseURL is used when the config leaves BaseURL empty.
	DefaultBaseURL() string

	// ChatPath returns the chat completion endpoint path.
	ChatPath() string

	// HealthPath returns the health-check endpoint path. Empty means none.
	HealthPath() string

	// Auth builds request authentication from an API key. Nil means none.
	Auth(apiKey string) *httpclient.AuthConfig

	// BuildRequest maps a CompletionRequest to the provider's JSON body.
	BuildRequest(req CompletionRequest) (any, error)

	// ParseResponse maps the provider's JSON body to a CompletionResponse.
	ParseResponse(body []byte) (*CompletionResponse, error)
}

var (
	dialectsMu sync.RWMutex
	dialects   = map[string]Dialect{}
)

// RegisterDialect adds a dialect to the global registry. Dialect packages
// call it from init().
func RegisterDialect(name string, d Dialect) {
	dialectsMu.Lock()
	defer dialectsMu.Unlock()
	dialects[name] = d
}

// GetDialect retrieves a dialect by name.
func GetDialect(name string) (Dialect, error) {
	dialectsMu.RLock()
	defer dialectsMu.RUnlock()
	d, ok := dialects[name]
	if !ok {
		return nil, fmt.Errorf("llm: unknown dialect %q (forgot to import driver?)", name)
	}
	return d, nil
}

// Dialects returns the sorted names of all registered dialects.
func Dialects() []string {
	dialectsMu.RLock()
	defer dialectsMu.RUnlock()
	names := make([]string, 0, len(dialects))
	for name := range dialects {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
