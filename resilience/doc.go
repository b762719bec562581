// Package resilience provides the circuit breaker that backs provider health
// tracking and a generic retry helper with exponential backoff.
//
//	cb := resilience.NewCircuitBreaker(resilience.DefaultCircuitBreakerConfig("deepgram"))
//	if cb.Allow() {
//	    if err := call(); err != nil {
//	        cb.RecordFailure()
//	    } else {
//	        cb.RecordSuccess()
//	    }
//	}
package resilience
