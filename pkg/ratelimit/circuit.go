package ratelimit

import (
	"sync"
	"time"
)

// CircuitState is the breaker's position.
type CircuitState int

const (
	CircuitClosed CircuitState = iota
	CircuitOpen
	CircuitHalfOpen
)

// String returns the lowercase wire form used by CircuitState() and Metrics().
func (s CircuitState) String() string {
	switch s {
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half-open"
	default:
		return "closed"
	}
}

// CircuitBreakerConfig configures breaker thresholds.
type CircuitBreakerConfig struct {
	// FailureThreshold is the number of cumulative failures that opens the
	// breaker while closed.
	FailureThreshold int
	// ResetTimeout is how long the breaker stays open before the next call
	// is let through as a half-open probe.
	ResetTimeout time.Duration
	// SuccessThreshold is the number of consecutive half-open probe
	// successes required to close the breaker again.
	SuccessThreshold int
}

func (c CircuitBreakerConfig) withDefaults() CircuitBreakerConfig {
	if c.FailureThreshold <= 0 {
		c.FailureThreshold = 5
	}
	if c.ResetTimeout <= 0 {
		c.ResetTimeout = 30 * time.Second
	}
	if c.SuccessThreshold <= 0 {
		c.SuccessThreshold = 2
	}
	return c
}

// CircuitStats is a point-in-time snapshot of breaker counters.
type CircuitStats struct {
	State        string
	FailureCount int
	SuccessCount int
	OpenedAt     time.Time
}

// circuitBreaker tracks remote-store health and gates remote attempts.
//
// All transitions are computed lazily from elapsed wall-clock time at call
// time; there is no background goroutine. While half-open, only one probe is
// allowed in flight at a time so a recovering store is not stampeded.
type circuitBreaker struct {
	mu       sync.Mutex
	cfg      CircuitBreakerConfig
	state    CircuitState
	failures int
	probeOK  int
	probing  bool
	openedAt time.Time
}

func newCircuitBreaker(cfg CircuitBreakerConfig) *circuitBreaker {
	return &circuitBreaker{cfg: cfg.withDefaults()}
}

// BeforeCall reports whether a remote attempt may proceed now. An OPEN
// breaker whose reset timeout has elapsed transitions to HALF_OPEN here and
// admits the caller as the probe.
func (cb *circuitBreaker) BeforeCall(now time.Time) bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	switch cb.state {
	case CircuitClosed:
		return true
	case CircuitOpen:
		if now.Sub(cb.openedAt) < cb.cfg.ResetTimeout {
			return false
		}
		cb.state = CircuitHalfOpen
		cb.probeOK = 0
		cb.probing = true
		return true
	default: // CircuitHalfOpen
		if cb.probing {
			return false
		}
		cb.probing = true
		return true
	}
}

// OnSuccess records a successful remote call.
func (cb *circuitBreaker) OnSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	switch cb.state {
	case CircuitHalfOpen:
		cb.probing = false
		cb.probeOK++
		if cb.probeOK >= cb.cfg.SuccessThreshold {
			cb.state = CircuitClosed
			cb.failures = 0
			cb.probeOK = 0
		}
	case CircuitClosed:
		cb.failures = 0
	}
}

// OnFailure records a failed remote call. Must only be called when an
// attempt was actually made.
func (cb *circuitBreaker) OnFailure(now time.Time) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	switch cb.state {
	case CircuitHalfOpen:
		cb.probing = false
		cb.probeOK = 0
		cb.state = CircuitOpen
		cb.openedAt = now
	case CircuitClosed:
		cb.failures++
		if cb.failures >= cb.cfg.FailureThreshold {
			cb.state = CircuitOpen
			cb.openedAt = now
		}
	}
}

// State returns the breaker's recorded position. An elapsed reset timeout is
// not reflected here; the OPEN to HALF_OPEN transition happens on the next
// call attempt, not by observation.
func (cb *circuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Stats returns a counter snapshot for operator observability.
func (cb *circuitBreaker) Stats() CircuitStats {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return CircuitStats{
		State:        cb.state.String(),
		FailureCount: cb.failures,
		SuccessCount: cb.probeOK,
		OpenedAt:     cb.openedAt,
	}
}
