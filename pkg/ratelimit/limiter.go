package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// RateLimiter enforces per-identity quotas against a shared store, with a
// circuit breaker guarding the store and a process-local window taking over
// while the store is out.
//
// Check, Status, and Reset never return an error to the caller and never
// block past the configured store timeout; remote failures are absorbed into
// degraded results and logged.
type RateLimiter struct {
	store        StoreClient
	fallback     *MemoryStore
	breaker      *circuitBreaker
	registry     *TierRegistry
	keys         KeyBuilder
	defaultTier  Tier
	failOpen     bool
	storeTimeout time.Duration
	logger       *zap.Logger
	recorder     MetricsRecorder
}

// Metrics is an observability snapshot of the limiter.
type Metrics struct {
	CircuitState    string
	CircuitStats    CircuitStats
	FallbackEntries int
}

// New constructs a RateLimiter over the given store. Tier-table problems
// (invalid definitions, a default tier that is not registered) are the only
// errors; they surface here and never from Check.
func New(store StoreClient, opts ...Option) (*RateLimiter, error) {
	if store == nil {
		return nil, errors.New("ratelimit: store must not be nil")
	}
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	registry, err := NewTierRegistry(cfg.tiers)
	if err != nil {
		return nil, err
	}
	def, ok := registry.Lookup(cfg.defaultTier)
	if !ok {
		return nil, fmt.Errorf("default tier %q is not registered", cfg.defaultTier)
	}

	return &RateLimiter{
		store:        store,
		fallback:     NewMemoryStore(),
		breaker:      newCircuitBreaker(cfg.breaker),
		registry:     registry,
		keys:         NewKeyBuilder(cfg.keyPrefix),
		defaultTier:  def,
		failOpen:     cfg.failOpen,
		storeTimeout: cfg.storeTimeout,
		logger:       cfg.logger,
		recorder:     cfg.recorder,
	}, nil
}

// Check decides whether the request identified by id may proceed under the
// given tier, recording it when admitted.
//
// The shared store is attempted only when the circuit breaker permits it.
// On a store failure, a timeout, or an open breaker the decision degrades:
// with fail-open the limit is enforced against the process-local window and
// the result carries Fallback=true; with fail-closed the request is denied
// immediately.
func (l *RateLimiter) Check(ctx context.Context, id Identity, tier TierSpec) Result {
	t := l.registry.Resolve(tier, l.defaultTier)
	key := l.keys.Build(id, t.Name)
	now := time.Now()

	if l.breaker.BeforeCall(now) {
		dec, err := l.storeCall(ctx, "evaluate", func(cctx context.Context) (StoreDecision, error) {
			return l.store.Evaluate(cctx, key, t.Window(), t.Limit(), now)
		})
		if err == nil {
			l.breaker.OnSuccess()
			res := l.resultFrom(dec, t, now, false)
			l.recordCheck(res)
			return res
		}
		l.breaker.OnFailure(time.Now())
		l.logger.Error("rate limit store evaluate failed, degrading",
			zap.String("key", key),
			zap.String("tier", t.Name),
			zap.Error(err))
	}

	res := l.degradedCheck(key, t, now)
	l.recordCheck(res)
	return res
}

// Status reports the current window state for id without recording a
// request. When the store is skipped or fails, the report is optimistic
// (zero usage) rather than the local window's view: no increment happened,
// so the local count has nothing authoritative to say.
func (l *RateLimiter) Status(ctx context.Context, id Identity, tier TierSpec) Result {
	t := l.registry.Resolve(tier, l.defaultTier)
	key := l.keys.Build(id, t.Name)
	now := time.Now()

	if l.breaker.BeforeCall(now) {
		dec, err := l.storeCall(ctx, "peek", func(cctx context.Context) (StoreDecision, error) {
			return l.store.Peek(cctx, key, t.Window(), t.Limit(), now)
		})
		if err == nil {
			l.breaker.OnSuccess()
			return l.resultFrom(dec, t, now, false)
		}
		l.breaker.OnFailure(time.Now())
		l.logger.Error("rate limit store peek failed, reporting optimistic status",
			zap.String("key", key),
			zap.String("tier", t.Name),
			zap.Error(err))
	}

	return l.resultFrom(StoreDecision{
		Allowed: true,
		Current: 0,
		ResetAt: now.Add(t.Window()),
	}, t, now, true)
}

// Reset deletes all recorded state for id under the given tier, remote and
// local. It returns false and logs when the remote delete fails; the local
// fallback entry is cleared regardless so both paths stay consistent.
func (l *RateLimiter) Reset(ctx context.Context, id Identity, tier TierSpec) bool {
	t := l.registry.Resolve(tier, l.defaultTier)
	key := l.keys.Build(id, t.Name)

	_ = l.fallback.Delete(ctx, key)

	cctx, cancel := context.WithTimeout(ctx, l.storeTimeout)
	defer cancel()
	if err := l.store.Delete(cctx, key); err != nil {
		l.recorder.Add(metricStoreError, 1, map[string]string{"op": "delete"})
		l.logger.Error("rate limit store delete failed",
			zap.String("key", key),
			zap.String("tier", t.Name),
			zap.Error(err))
		return false
	}
	return true
}

// CircuitState reports the breaker position: "closed", "open", or
// "half-open".
func (l *RateLimiter) CircuitState() string {
	return l.breaker.State().String()
}

// Metrics returns an observability snapshot.
func (l *RateLimiter) Metrics() Metrics {
	stats := l.breaker.Stats()
	return Metrics{
		CircuitState:    stats.State,
		CircuitStats:    stats,
		FallbackEntries: l.fallback.Len(),
	}
}

// Tiers exposes the registered tier names for diagnostics.
func (l *RateLimiter) Tiers() []string { return l.registry.Names() }

// storeCall runs one remote operation under the configured timeout and
// records latency and error metrics.
func (l *RateLimiter) storeCall(ctx context.Context, op string, call func(context.Context) (StoreDecision, error)) (StoreDecision, error) {
	cctx, cancel := context.WithTimeout(ctx, l.storeTimeout)
	defer cancel()

	start := time.Now()
	dec, err := call(cctx)
	l.recorder.Observe(metricStoreLatency, time.Since(start).Seconds(), map[string]string{"op": op})
	if err != nil {
		l.recorder.Add(metricStoreError, 1, map[string]string{"op": op})
	}
	return dec, err
}

// degradedCheck applies the configured failure policy when the store was
// skipped or failed.
func (l *RateLimiter) degradedCheck(key string, t Tier, now time.Time) Result {
	if !l.failOpen {
		return Result{
			Allowed:    false,
			Current:    0,
			Limit:      t.Limit(),
			Remaining:  0,
			ResetIn:    t.Window(),
			ResetAt:    now.Add(t.Window()),
			RetryAfter: t.Window(),
			Tier:       t.Name,
			Fallback:   true,
		}
	}
	dec, _ := l.fallback.Evaluate(context.Background(), key, t.Window(), t.Limit(), now)
	return l.resultFrom(dec, t, now, true)
}

// resultFrom shapes a store decision into the public result, enforcing the
// Remaining arithmetic invariant.
func (l *RateLimiter) resultFrom(dec StoreDecision, t Tier, now time.Time, fallback bool) Result {
	limit := t.Limit()
	remaining := limit - dec.Current
	if remaining < 0 {
		remaining = 0
	}
	resetIn := dec.ResetAt.Sub(now)
	if resetIn < 0 {
		resetIn = 0
	}
	var retryAfter time.Duration
	if !dec.Allowed {
		retryAfter = resetIn
	}
	return Result{
		Allowed:    dec.Allowed,
		Current:    dec.Current,
		Limit:      limit,
		Remaining:  remaining,
		ResetIn:    resetIn,
		ResetAt:    dec.ResetAt,
		RetryAfter: retryAfter,
		Tier:       t.Name,
		Fallback:   fallback,
	}
}

func (l *RateLimiter) recordCheck(res Result) {
	outcome := "denied"
	if res.Allowed {
		outcome = "allowed"
	}
	source := "store"
	if res.Fallback {
		source = "fallback"
	}
	l.recorder.Add(metricCheck, 1, map[string]string{
		"tier":    res.Tier,
		"outcome": outcome,
		"source":  source,
	})
}
