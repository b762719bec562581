package resilience

import (
	"errors"
	"sync"
	"time"
)

// State represents the circuit breaker state.
type State int

const (
	// StateClosed allows requests to pass through.
	StateClosed State = iota
	// StateOpen blocks all requests until the cooldown elapses.
	StateOpen
	// StateHalfOpen allows a limited number of trial requests.
	StateHalfOpen
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// ErrCircuitOpen is returned by Execute while the breaker rejects calls.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// CircuitBreakerConfig configures a circuit breaker.
type CircuitBreakerConfig struct {
	// Name identifies this circuit breaker in logs and callbacks.
	Name string
	// MaxFailures is the number of consecutive failures that opens the circuit.
	MaxFailures int
	// FailureWindow bounds how far apart those failures may be. Failures older
	// than the window no longer count towards opening. Zero disables the window.
	FailureWindow time.Duration
	// Timeout is the cooldown before an open circuit admits a trial call.
	Timeout time.Duration
	// HalfOpenMaxCalls is the number of trial calls allowed in half-open state.
	HalfOpenMaxCalls int
	// OnStateChange is called with the lock held when the state changes.
	OnStateChange func(name string, from, to State)
	// Now overrides the clock.
	Now func() time.Time
}

// DefaultCircuitBreakerConfig returns the provider health defaults.
func DefaultCircuitBreakerConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:             name,
		MaxFailures:      3,
		FailureWindow:    60 * time.Second,
		Timeout:          60 * time.Second,
		HalfOpenMaxCalls: 1,
	}
}

// CircuitBreaker tracks consecutive failures of one dependency and fails fast
// while it is considered down.
//
//   - Closed: calls pass; MaxFailures consecutive failures inside
//     FailureWindow open the circuit.
//   - Open: calls are rejected until Timeout has elapsed since the last failure.
//   - Half-Open: HalfOpenMaxCalls trial calls pass; a success closes the
//     circuit and a failure re-opens it.
type CircuitBreaker struct {
	config CircuitBreakerConfig

	mu              sync.Mutex
	state           State
	failures        int
	recent          []time.Time
	successes       int
	lastFailureTime time.Time
	halfOpenCalls   int
}

// NewCircuitBreaker creates a new circuit breaker.
func NewCircuitBreaker(config CircuitBreakerConfig) *CircuitBreaker {
	if config.MaxFailures <= 0 {
		config.MaxFailures = 3
	}
	if config.Timeout <= 0 {
		config.Timeout = 60 * time.Second
	}
	if config.HalfOpenMaxCalls <= 0 {
		config.HalfOpenMaxCalls = 1
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	return &CircuitBreaker{config: config, state: StateClosed}
}

// Execute runs fn through the breaker. It returns ErrCircuitOpen without
// calling fn when the circuit rejects the call.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	if !cb.Allow() {
		return ErrCircuitOpen
	}
	err := fn()
	if err != nil {
		cb.RecordFailure()
	} else {
		cb.RecordSuccess()
	}
	return err
}

// Allow reports whether a call may proceed. In half-open state it reserves
// one of the trial slots; call Release if the call is abandoned unrecorded.
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.currentState() {
	case StateClosed:
		return true
	case StateHalfOpen:
		if cb.halfOpenCalls < cb.config.HalfOpenMaxCalls {
			cb.halfOpenCalls++
			return true
		}
		return false
	default:
		return false
	}
}

// Release returns a trial slot reserved by Allow without recording an outcome.
func (cb *CircuitBreaker) Release() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if cb.state == StateHalfOpen && cb.halfOpenCalls > 0 {
		cb.halfOpenCalls--
	}
}

// RecordSuccess records a successful call. A success observed while open
// (e.g. from a probe that bypassed Allow) closes the circuit.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.currentState() {
	case StateHalfOpen:
		cb.successes++
		if cb.successes >= cb.config.HalfOpenMaxCalls {
			cb.toState(StateClosed)
		}
	case StateOpen:
		cb.toState(StateClosed)
	default:
		cb.failures = 0
		cb.recent = cb.recent[:0]
	}
}

// RecordFailure records a failed call.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	now := cb.config.Now()
	cb.failures++
	cb.lastFailureTime = now
	cb.recent = append(cb.recent, now)
	if w := cb.config.FailureWindow; w > 0 {
		keep := cb.recent[:0]
		for _, ts := range cb.recent {
			if now.Sub(ts) < w {
				keep = append(keep, ts)
			}
		}
		cb.recent = keep
	}

	switch cb.currentState() {
	case StateClosed:
		if len(cb.recent) >= cb.config.MaxFailures {
			cb.toState(StateOpen)
		}
	case StateHalfOpen:
		cb.toState(StateOpen)
	}
}

// State returns the current circuit breaker state.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.currentState()
}

// Failures returns the number of failures since the last success.
func (cb *CircuitBreaker) Failures() int {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.failures
}

// OpenUntil returns when an open circuit will admit a trial call. It returns
// the zero time when the circuit is not open.
func (cb *CircuitBreaker) OpenUntil() time.Time {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if cb.currentState() != StateOpen {
		return time.Time{}
	}
	return cb.lastFailureTime.Add(cb.config.Timeout)
}

// currentState applies the open to half-open transition once the cooldown has passed.
func (cb *CircuitBreaker) currentState() State {
	if cb.state == StateOpen && cb.config.Now().Sub(cb.lastFailureTime) >= cb.config.Timeout {
		cb.toState(StateHalfOpen)
	}
	return cb.state
}

func (cb *CircuitBreaker) toState(to State) {
	if cb.state == to {
		return
	}
	from := cb.state
	cb.state = to
	cb.halfOpenCalls = 0
	cb.successes = 0
	if to == StateClosed {
		cb.failures = 0
		cb.recent = cb.recent[:0]
	}
	if cb.config.OnStateChange != nil {
		cb.config.OnStateChange(cb.config.Name, from, to)
	}
}
