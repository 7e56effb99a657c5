package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrStoreUnavailable marks a remote store call that failed because the store
// was unreachable, timed out, or returned a server error. It feeds the circuit
// breaker and triggers local fallback; it is never returned to callers of
// Check, Status, or Reset.
var ErrStoreUnavailable = errors.New("rate limit store unavailable")

// ErrStoreProtocol marks a remote store response that could not be decoded.
// It is treated exactly like ErrStoreUnavailable for breaker and fallback
// purposes.
var ErrStoreProtocol = errors.New("rate limit store protocol error")

// Identity defines "who" is being rate-limited.
//
// Key is the identifier within the tier (user ID, API key, client IP).
// Scope optionally narrows the limit to one action or endpoint; distinct
// scopes for the same key get independent windows.
type Identity struct {
	Key   string
	Scope string
}

// Tier is an immutable rate-limit policy: at most MaxRequests+BurstAllowance
// accepted requests per rolling WindowSeconds interval.
type Tier struct {
	Name           string `yaml:"name"`
	MaxRequests    int    `yaml:"max_requests"`
	WindowSeconds  int    `yaml:"window_seconds"`
	BurstAllowance int    `yaml:"burst_allowance"`
}

// Limit is the effective ceiling for the tier, burst included.
func (t Tier) Limit() int { return t.MaxRequests + t.BurstAllowance }

// Window is the tier's rolling interval as a duration.
func (t Tier) Window() time.Duration { return time.Duration(t.WindowSeconds) * time.Second }

// Validate reports whether the tier definition is usable. Invalid tiers are
// rejected at construction or registration time; Check never sees one.
func (t Tier) Validate() error {
	if t.Name == "" {
		return errors.New("tier name must not be empty")
	}
	if t.MaxRequests <= 0 {
		return fmt.Errorf("tier %q: max_requests must be positive, got %d", t.Name, t.MaxRequests)
	}
	if t.WindowSeconds <= 0 {
		return fmt.Errorf("tier %q: window_seconds must be positive, got %d", t.Name, t.WindowSeconds)
	}
	if t.BurstAllowance < 0 {
		return fmt.Errorf("tier %q: burst_allowance must not be negative, got %d", t.Name, t.BurstAllowance)
	}
	return nil
}

// TierSpec selects the tier for a single call: either the name of a
// registered tier or an ad-hoc Tier honored verbatim.
type TierSpec struct {
	name string
	tier *Tier
}

// TierName selects a registered tier by name. Unknown names resolve to the
// limiter's default tier; no error is raised.
func TierName(name string) TierSpec { return TierSpec{name: name} }

// CustomTier supplies a tier definition directly, bypassing the registry.
func CustomTier(t Tier) TierSpec { return TierSpec{tier: &t} }

// Result is the outcome of a rate-limit decision.
//
// Remaining is always max(0, Limit-Current). Fallback reports that the
// decision came from the process-local window (or a fail-closed deny) because
// the shared store was skipped or failed.
type Result struct {
	Allowed    bool
	Current    int
	Limit      int
	Remaining  int
	ResetIn    time.Duration
	ResetAt    time.Time
	RetryAfter time.Duration
	Tier       string
	Fallback   bool
}

// StoreDecision is the raw outcome of a store-level window evaluation.
//
// For Evaluate, Current counts the evaluated request itself, so a denial
// reports one more than is stored. For Peek, Current is the stored count.
type StoreDecision struct {
	Allowed bool
	Current int
	ResetAt time.Time
}

// StoreClient is the capability set the limiter needs from a shared store.
//
// Evaluate must execute trim-count-conditionally-insert as one indivisible
// operation against the store (a transaction or server-side script); callers
// race across processes and a non-atomic implementation will overadmit.
// Peek counts the window without mutating stored state. Delete removes all
// recorded state for the key.
type StoreClient interface {
	Evaluate(ctx context.Context, key string, window time.Duration, limit int, now time.Time) (StoreDecision, error)
	Peek(ctx context.Context, key string, window time.Duration, limit int, now time.Time) (StoreDecision, error)
	Delete(ctx context.Context, key string) error
}
