package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	apperrors "github.com/kbukum/standin/errors"
)

func fastRetry(attempts int) RetryConfig {
	return RetryConfig{MaxAttempts: attempts, InitialBackoff: time.Millisecond, BackoffFactor: 2}
}

// pollUntil returns a poll function that reports "queued" until the
// given call and then the transcript.
func pollUntil(ready int, failure error) (func() (string, error), *int) {
	calls := 0
	return func() (string, error) {
		calls++
		if calls < ready {
			return "", failure
		}
		return "transcript", nil
	}, &calls
}

func TestRetry(t *testing.T) {
	queued := errors.New("job still queued")

	tests := []struct {
		name      string
		cfg       RetryConfig
		readyAt   int
		failure   error
		wantCalls int
		wantErr   error
	}{
		{"first poll completes", fastRetry(3), 1, queued, 1, nil},
		{"completes on third poll", fastRetry(3), 3, queued, 3, nil},
		{"gives up after max attempts", fastRetry(3), 10, queued, 3, queued},
		{"unavailable vendor is retried", fastRetry(4), 10, apperrors.Unavailable("assemblyai"), 4, nil},
		{"auth failure is not retried", fastRetry(5), 10, apperrors.AuthError("assemblyai"), 1, nil},
		{"custom filter rejects", RetryConfig{
			MaxAttempts: 5, InitialBackoff: time.Millisecond,
			RetryIf: func(err error) bool { return !errors.Is(err, queued) },
		}, 10, queued, 1, queued},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fn, calls := pollUntil(tt.readyAt, tt.failure)
			got, err := Retry(context.Background(), tt.cfg, fn)
			if *calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", *calls, tt.wantCalls)
			}
			if tt.readyAt <= tt.wantCalls {
				if err != nil || got != "transcript" {
					t.Errorf("Retry() = %q, %v", got, err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected an error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
			if !errors.Is(err, tt.failure) && apperrors.KindOf(err) != apperrors.KindOf(tt.failure) {
				t.Errorf("error = %v, want the last failure", err)
			}
		})
	}
}

func TestRetry_ContextDeadline(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	fn, calls := pollUntil(100, errors.New("queued"))
	_, err := Retry(ctx, RetryConfig{MaxAttempts: 10, InitialBackoff: 100 * time.Millisecond}, fn)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("error = %v, want DeadlineExceeded", err)
	}
	if *calls >= 10 {
		t.Errorf("calls = %d, the deadline should cut polling short", *calls)
	}
}

func TestRetry_OnRetrySeesEachBackoff(t *testing.T) {
	var attempts []int
	cfg := fastRetry(3)
	cfg.OnRetry = func(attempt int, _ error, backoff time.Duration) {
		if backoff <= 0 {
			t.Errorf("attempt %d: backoff = %v", attempt, backoff)
		}
		attempts = append(attempts, attempt)
	}
	fn, _ := pollUntil(10, errors.New("queued"))
	_, _ = Retry(context.Background(), cfg, fn)

	if len(attempts) != 2 || attempts[0] != 1 || attempts[1] != 2 {
		t.Errorf("OnRetry attempts = %v, want [1 2]", attempts)
	}
}

func TestBackoffFor(t *testing.T) {
	cfg := RetryConfig{InitialBackoff: 100 * time.Millisecond, MaxBackoff: time.Second, BackoffFactor: 2}
	want := []time.Duration{
		100 * time.Millisecond,
		200 * time.Millisecond,
		400 * time.Millisecond,
		800 * time.Millisecond,
		time.Second,
		time.Second,
	}
	for i, w := range want {
		if got := backoffFor(i+1, cfg); got != w {
			t.Errorf("attempt %d: backoff = %v, want %v", i+1, got, w)
		}
	}
}
