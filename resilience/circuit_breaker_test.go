package resilience

import (
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestBreaker(clock *fakeClock) *CircuitBreaker {
	cfg := DefaultCircuitBreakerConfig("test")
	cfg.Now = clock.Now
	return NewCircuitBreaker(cfg)
}

func TestCircuitBreaker_StartsInClosedState(t *testing.T) {
	cb := NewCircuitBreaker(DefaultCircuitBreakerConfig("test"))
	if cb.State() != StateClosed {
		t.Errorf("expected StateClosed, got %s", cb.State())
	}
	if !cb.Allow() {
		t.Error("closed breaker should allow calls")
	}
}

func TestCircuitBreaker_OpensAfterMaxFailuresInWindow(t *testing.T) {
	clock := newFakeClock()
	cb := newTestBreaker(clock)

	for i := 0; i < 3; i++ {
		cb.RecordFailure()
		clock.Advance(10 * time.Second)
	}

	if cb.State() != StateOpen {
		t.Fatalf("expected StateOpen, got %s", cb.State())
	}
	if cb.Allow() {
		t.Error("open breaker should reject calls")
	}
	if cb.Failures() != 3 {
		t.Errorf("expected 3 failures, got %d", cb.Failures())
	}
}

func TestCircuitBreaker_FailuresOutsideWindowDoNotOpen(t *testing.T) {
	clock := newFakeClock()
	cb := newTestBreaker(clock)

	for i := 0; i < 3; i++ {
		cb.RecordFailure()
		clock.Advance(31 * time.Second)
	}

	if cb.State() != StateClosed {
		t.Errorf("failures spread over more than the window should not open, got %s", cb.State())
	}
	if cb.Failures() != 3 {
		t.Errorf("consecutive count should still be 3, got %d", cb.Failures())
	}
}

func TestCircuitBreaker_SuccessResetsFailures(t *testing.T) {
	cb := newTestBreaker(newFakeClock())
	cb.RecordFailure()
	cb.RecordFailure()
	cb.RecordSuccess()
	cb.RecordFailure()

	if cb.Failures() != 1 {
		t.Errorf("expected 1 failure after reset, got %d", cb.Failures())
	}
	if cb.State() != StateClosed {
		t.Errorf("expected StateClosed, got %s", cb.State())
	}
}

func TestCircuitBreaker_HalfOpenAfterCooldown(t *testing.T) {
	clock := newFakeClock()
	cb := newTestBreaker(clock)
	for i := 0; i < 3; i++ {
		cb.RecordFailure()
	}
	until := cb.OpenUntil()
	if !until.Equal(clock.Now().Add(60 * time.Second)) {
		t.Errorf("unexpected OpenUntil %v", until)
	}

	clock.Advance(59 * time.Second)
	if cb.State() != StateOpen {
		t.Fatalf("expected StateOpen before cooldown, got %s", cb.State())
	}

	clock.Advance(time.Second)
	if cb.State() != StateHalfOpen {
		t.Fatalf("expected StateHalfOpen after cooldown, got %s", cb.State())
	}
	if !cb.Allow() {
		t.Fatal("half-open breaker should allow one trial")
	}
	if cb.Allow() {
		t.Error("half-open breaker should allow only one trial")
	}

	cb.RecordSuccess()
	if cb.State() != StateClosed {
		t.Errorf("expected StateClosed after trial success, got %s", cb.State())
	}
	if cb.Failures() != 0 {
		t.Errorf("expected failures reset, got %d", cb.Failures())
	}
}

func TestCircuitBreaker_ReopensOnFailureInHalfOpen(t *testing.T) {
	clock := newFakeClock()
	cb := newTestBreaker(clock)
	for i := 0; i < 3; i++ {
		cb.RecordFailure()
	}
	clock.Advance(60 * time.Second)

	if !cb.Allow() {
		t.Fatal("expected trial call")
	}
	cb.RecordFailure()
	if cb.State() != StateOpen {
		t.Errorf("expected StateOpen after trial failure, got %s", cb.State())
	}
}

func TestCircuitBreaker_ReleaseReturnsTrialSlot(t *testing.T) {
	clock := newFakeClock()
	cb := newTestBreaker(clock)
	for i := 0; i < 3; i++ {
		cb.RecordFailure()
	}
	clock.Advance(time.Minute)

	if !cb.Allow() {
		t.Fatal("expected trial call")
	}
	cb.Release()
	if !cb.Allow() {
		t.Error("released slot should be available again")
	}
}

func TestCircuitBreaker_Execute(t *testing.T) {
	cfg := DefaultCircuitBreakerConfig("exec")
	cfg.MaxFailures = 1
	cb := NewCircuitBreaker(cfg)

	_ = cb.Execute(func() error { return errors.New("fail") })
	err := cb.Execute(func() error {
		t.Error("function should not have been called")
		return nil
	})
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("expected ErrCircuitOpen, got %v", err)
	}

	// A success recorded outside Execute, as a provider check does, closes the circuit.
	cb.RecordSuccess()
	if cb.State() != StateClosed {
		t.Errorf("state = %v, want closed", cb.State())
	}
	if err := cb.Execute(func() error { return nil }); err != nil {
		t.Errorf("expected success after recovery, got %v", err)
	}
}

func TestCircuitBreaker_StateChangeCallback(t *testing.T) {
	clock := newFakeClock()
	var transitions []string
	cfg := DefaultCircuitBreakerConfig("cb")
	cfg.Now = clock.Now
	cfg.OnStateChange = func(name string, from, to State) {
		transitions = append(transitions, from.String()+">"+to.String())
	}
	cb := NewCircuitBreaker(cfg)

	for i := 0; i < 3; i++ {
		cb.RecordFailure()
	}
	clock.Advance(time.Minute)
	cb.Allow()
	cb.RecordSuccess()

	want := []string{"closed>open", "open>half-open", "half-open>closed"}
	if len(transitions) != len(want) {
		t.Fatalf("expected %v, got %v", want, transitions)
	}
	for i := range want {
		if transitions[i] != want[i] {
			t.Errorf("transition %d: expected %s, got %s", i, want[i], transitions[i])
		}
	}
}

func TestCircuitBreaker_ConcurrentAccess(t *testing.T) {
	cb := NewCircuitBreaker(DefaultCircuitBreakerConfig("concurrent"))
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if cb.Allow() {
				if i%2 == 0 {
					cb.RecordSuccess()
				} else {
					cb.RecordFailure()
				}
			}
			_ = cb.State()
		}(i)
	}
	wg.Wait()
}

func TestState_String(t *testing.T) {
	tests := map[State]string{
		StateClosed:   "closed",
		StateOpen:     "open",
		StateHalfOpen: "half-open",
		State(9):      "unknown",
	}
	for s, want := range tests {
		if s.String() != want {
			t.Errorf("expected %s, got %s", want, s.String())
		}
	}
}

func TestCircuitBreaker_SuccessWhileOpenCloses(t *testing.T) {
	clock := newFakeClock()
	cfg := DefaultCircuitBreakerConfig("probe")
	cfg.Now = clock.Now
	cb := NewCircuitBreaker(cfg)

	for i := 0; i < 3; i++ {
		cb.RecordFailure()
	}
	if cb.State() != StateOpen {
		t.Fatalf("expected StateOpen, got %s", cb.State())
	}
	cb.RecordSuccess()
	if cb.State() != StateClosed || cb.Failures() != 0 {
		t.Errorf("expected closed with 0 failures, got %s/%d", cb.State(), cb.Failures())
	}
}
