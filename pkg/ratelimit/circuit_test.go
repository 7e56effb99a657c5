package ratelimit

import (
	"testing"
	"time"
)

func testBreaker(reset time.Duration) *circuitBreaker {
	return newCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 3,
		ResetTimeout:     reset,
		SuccessThreshold: 2,
	})
}

func TestCircuitBreaker_OpensAtThreshold(t *testing.T) {
	cb := testBreaker(time.Minute)
	now := time.Now()

	for i := 0; i < 2; i++ {
		if !cb.BeforeCall(now) {
			t.Fatalf("Call %d should be permitted while closed", i)
		}
		cb.OnFailure(now)
		if cb.State() != CircuitClosed {
			t.Fatalf("Breaker opened after %d failures, threshold is 3", i+1)
		}
	}

	cb.OnFailure(now)
	if cb.State() != CircuitOpen {
		t.Errorf("Expected open after 3 failures, got %v", cb.State())
	}
	if cb.BeforeCall(now) {
		t.Error("Open breaker should not permit calls before the reset timeout")
	}
}

func TestCircuitBreaker_SuccessResetsFailureCount(t *testing.T) {
	cb := testBreaker(time.Minute)
	now := time.Now()

	cb.OnFailure(now)
	cb.OnFailure(now)
	cb.OnSuccess()
	cb.OnFailure(now)
	cb.OnFailure(now)

	if cb.State() != CircuitClosed {
		t.Error("Non-consecutive failures below the threshold should not open the breaker")
	}
}

func TestCircuitBreaker_HalfOpenProbe(t *testing.T) {
	cb := testBreaker(20 * time.Millisecond)
	now := time.Now()

	for i := 0; i < 3; i++ {
		cb.OnFailure(now)
	}
	if cb.BeforeCall(now) {
		t.Fatal("Should stay open immediately after tripping")
	}

	later := now.Add(25 * time.Millisecond)
	if !cb.BeforeCall(later) {
		t.Fatal("Elapsed reset timeout should admit a probe")
	}
	if cb.State() != CircuitHalfOpen {
		t.Fatalf("Expected half-open during probe, got %v", cb.State())
	}

	// Only one probe in flight at a time.
	if cb.BeforeCall(later) {
		t.Error("Second concurrent probe should be rejected")
	}

	cb.OnSuccess()
	if cb.State() != CircuitHalfOpen {
		t.Fatal("One success should not close the breaker (threshold 2)")
	}
	if !cb.BeforeCall(later) {
		t.Fatal("Next probe should be admitted after the first reported")
	}
	cb.OnSuccess()
	if cb.State() != CircuitClosed {
		t.Errorf("Expected closed after 2 probe successes, got %v", cb.State())
	}

	stats := cb.Stats()
	if stats.FailureCount != 0 {
		t.Errorf("Closing should reset the failure count, got %d", stats.FailureCount)
	}
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	cb := testBreaker(20 * time.Millisecond)
	now := time.Now()

	for i := 0; i < 3; i++ {
		cb.OnFailure(now)
	}
	later := now.Add(25 * time.Millisecond)
	if !cb.BeforeCall(later) {
		t.Fatal("Expected probe admission")
	}
	cb.OnFailure(later)

	if cb.State() != CircuitOpen {
		t.Errorf("Probe failure should reopen, got %v", cb.State())
	}
	if cb.BeforeCall(later) {
		t.Error("Reopened breaker should block until a fresh reset timeout elapses")
	}
	if !cb.BeforeCall(later.Add(25 * time.Millisecond)) {
		t.Error("openedAt should have been re-recorded on the probe failure")
	}
}

func TestCircuitState_String(t *testing.T) {
	cases := map[CircuitState]string{
		CircuitClosed:   "closed",
		CircuitOpen:     "open",
		CircuitHalfOpen: "half-open",
	}
	for state, want := range cases {
		if got := state.String(); got != want {
			t.Errorf("State %d: expected %q, got %q", state, want, got)
		}
	}
}
