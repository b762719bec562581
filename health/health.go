// Package health tracks the availability of transcription providers.
//
// A Registry owns one circuit breaker per provider. The router consults
// Eligible before calling a provider and reports every outcome back, so the
// registry is the single place where failure counters and cooldowns live.
package health

import (
	"sort"
	"sync"
	"time"

	apperrors "github.com/kbukum/standin/errors"
	"github.com/kbukum/standin/resilience"
)

// Policy controls when a provider is skipped.
type Policy struct {
	// FailureThreshold consecutive failures open the breaker.
	FailureThreshold int `yaml:"failure_threshold" mapstructure:"failure_threshold"`
	// FailureWindow bounds how far apart those failures may be.
	FailureWindow time.Duration `yaml:"failure_window" mapstructure:"failure_window"`
	// Cooldown is how long an open provider is skipped before a trial call.
	Cooldown time.Duration `yaml:"cooldown" mapstructure:"cooldown"`
}

// ApplyDefaults sets 3 failures within 60s and a 60s cooldown.
func (p *Policy) ApplyDefaults() {
	if p.FailureThreshold <= 0 {
		p.FailureThreshold = 3
	}
	if p.FailureWindow <= 0 {
		p.FailureWindow = 60 * time.Second
	}
	if p.Cooldown <= 0 {
		p.Cooldown = 60 * time.Second
	}
}

// Status is the externally visible state of one provider.
type Status struct {
	ProviderID          string     `json:"providerId"`
	Available           bool       `json:"available"`
	Breaker             string     `json:"breaker"`
	LastError           string     `json:"lastError,omitempty"`
	LastErrorKind       string     `json:"lastErrorKind,omitempty"`
	LastCheckedAt       *time.Time `json:"lastCheckedAt,omitempty"`
	ConsecutiveFailures int        `json:"consecutiveFailures"`
	LastLatencyMs       int64      `json:"lastLatencyMs,omitempty"`
	RetryAt             *time.Time `json:"retryAt,omitempty"`
}

type entry struct {
	breaker     *resilience.CircuitBreaker
	lastErr     error
	lastChecked time.Time
	lastLatency time.Duration
}

// Registry holds provider health. It is safe for concurrent use.
type Registry struct {
	policy Policy
	now    func() time.Time

	mu      sync.RWMutex
	entries map[string]*entry
}

// Option configures a Registry.
type Option func(*Registry)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

// NewRegistry creates an empty registry.
func NewRegistry(policy Policy, opts ...Option) *Registry {
	policy.ApplyDefaults()
	r := &Registry{policy: policy, now: time.Now, entries: make(map[string]*entry)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a provider. Registering an existing id is a no-op.
func (r *Registry) Register(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[id]; ok {
		return
	}
	r.entries[id] = &entry{breaker: resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		Name:             id,
		MaxFailures:      r.policy.FailureThreshold,
		FailureWindow:    r.policy.FailureWindow,
		Timeout:          r.policy.Cooldown,
		HalfOpenMaxCalls: 1,
		Now:              r.now,
	})}
}

func (r *Registry) get(id string) *entry {
	r.mu.RLock()
	e := r.entries[id]
	r.mu.RUnlock()
	if e != nil {
		return e
	}
	r.Register(id)
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.entries[id]
}

// Eligible reports whether id may be called now. A provider past its
// cooldown gets exactly one trial call; the caller must follow up with
// RecordSuccess, RecordFailure or Release.
func (r *Registry) Eligible(id string) bool {
	return r.get(id).breaker.Allow()
}

// Release gives back a trial call that was abandoned without an outcome,
// e.g. because the caller was cancelled.
func (r *Registry) Release(id string) {
	r.get(id).breaker.Release()
}

// RecordSuccess resets the failure count of id.
func (r *Registry) RecordSuccess(id string, latency time.Duration) {
	e := r.get(id)
	e.breaker.RecordSuccess()

	r.mu.Lock()
	e.lastChecked = r.now()
	e.lastLatency = latency
	e.lastErr = nil
	r.mu.Unlock()
}

// RecordFailure counts a failed call against id.
func (r *Registry) RecordFailure(id string, err error) {
	e := r.get(id)
	e.breaker.RecordFailure()

	r.mu.Lock()
	e.lastChecked = r.now()
	e.lastErr = err
	r.mu.Unlock()
}

// Status returns the state of id. Unknown ids report as available with no history.
func (r *Registry) Status(id string) Status {
	r.mu.RLock()
	e, ok := r.entries[id]
	r.mu.RUnlock()
	if !ok {
		return Status{ProviderID: id, Available: true, Breaker: resilience.StateClosed.String()}
	}
	return r.status(id, e)
}

// Snapshot returns the status of every registered provider.
func (r *Registry) Snapshot() map[string]Status {
	r.mu.RLock()
	ids := make([]string, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	r.mu.RUnlock()

	out := make(map[string]Status, len(ids))
	for _, id := range ids {
		out[id] = r.Status(id)
	}
	return out
}

// IDs returns registered provider ids in sorted order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (r *Registry) status(id string, e *entry) Status {
	state := e.breaker.State()
	s := Status{
		ProviderID:          id,
		Available:           state != resilience.StateOpen,
		Breaker:             state.String(),
		ConsecutiveFailures: e.breaker.Failures(),
	}
	if until := e.breaker.OpenUntil(); !until.IsZero() {
		s.RetryAt = &until
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if !e.lastChecked.IsZero() {
		checked := e.lastChecked
		s.LastCheckedAt = &checked
	}
	s.LastLatencyMs = e.lastLatency.Milliseconds()
	if e.lastErr != nil {
		s.LastError = e.lastErr.Error()
		s.LastErrorKind = string(apperrors.KindOf(e.lastErr))
	}
	return s
}
