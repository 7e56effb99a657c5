// Package ratelimit provides distributed, tier-based rate limiting with a
// failure-isolating circuit breaker and local fallback accounting.
//
// The primary entry point is RateLimiter:
//
//	res := limiter.Check(ctx, ratelimit.Identity{Key: userID}, ratelimit.TierName("api"))
//
// The returned Result contains whether the request is allowed, the in-window
// count, the effective limit, and timing hints for callers that want to set
// rate-limit headers (for example, Retry-After).
//
// # Overview
//
// This package implements a sliding window log:
//
//   - Each identity has a log of admitted-request timestamps per tier.
//   - A request is admitted while fewer than limit entries fall inside the
//     trailing window; admission appends the current timestamp.
//   - Entries older than the window are discarded as a side effect of
//     evaluation.
//
// Unlike fixed aligned buckets, a trailing log has no reset spike: the count
// at any instant is exactly the number of admissions in the preceding window.
//
// # Core Types
//
// Tier defines the policy: MaxRequests per WindowSeconds plus an optional
// BurstAllowance; the effective ceiling is MaxRequests+BurstAllowance. Tiers
// come from a registry of named service classes ("free", "pro", "enterprise",
// "webhook", "api", "ai") or are supplied verbatim per call with CustomTier.
// Unknown names silently resolve to the configured default tier.
//
// Identity defines "who" is being limited: a Key (user ID, API key, IP) plus
// an optional Scope that gives one identity independent windows per endpoint
// or action.
//
// # Backends
//
// Two StoreClient implementations share the algorithm:
//
//   - RedisStore: the shared store. A Lua script executes trim-count-insert
//     as one atomic server-side step, so the limit holds across many
//     cooperating instances.
//
//   - MemoryStore: a process-local implementation. It backs unit tests and
//     single-instance deployments, and every RateLimiter carries a private
//     one as its degraded-mode fallback.
//
// # Failure Isolation
//
// All remote calls run under a bounded timeout and behind a circuit breaker.
// After FailureThreshold consecutive failures the breaker opens and remote
// calls are skipped entirely; after ResetTimeout the next call probes the
// store (one probe in flight at a time), and SuccessThreshold consecutive
// probe successes close the breaker. Timeouts and malformed responses count
// as failures. There are no inline retries: a failed attempt falls back
// immediately so tail latency stays bounded during an incident.
//
// While degraded, the configured posture decides the outcome. Fail-open (the
// default) enforces the tier against the local MemoryStore and tags results
// with Fallback=true; the limit still holds, just per-process and
// approximately. Fail-closed denies outright. Local and remote counts are
// deliberately not reconciled after an outage ends.
//
// Check, Status, and Reset never return an error: store failures are logged,
// fed to the breaker, and absorbed into degraded results. Reset reports
// failure through its boolean return.
//
// # Concurrency
//
// All state transitions are computed lazily from wall-clock time at call
// time; the package starts no goroutines. Any method may be called
// concurrently with any other, including for the same key: Redis serializes
// evaluations in the script, MemoryStore behind a mutex.
//
// # Configuration
//
// RateLimiter is configured with functional options:
//
//	limiter, err := ratelimit.New(ratelimit.NewRedisStore(client),
//		ratelimit.WithLogger(logger),
//		ratelimit.WithStoreTimeout(150*time.Millisecond),
//		ratelimit.WithCircuitBreaker(ratelimit.CircuitBreakerConfig{
//			FailureThreshold: 5,
//			ResetTimeout:     30 * time.Second,
//			SuccessThreshold: 2,
//		}),
//	)
//
// Supported options: WithLogger, WithRecorder, WithKeyPrefix, WithTiers,
// WithDefaultTier, WithFailOpen, WithStoreTimeout, WithCircuitBreaker. The
// tier table can be loaded from YAML with LoadTiersFile. Invalid tier
// definitions are construction-time errors and are never raised from Check.
//
// # Observability
//
// A MetricsRecorder receives decision counts, store latency, and store error
// counts; NewPrometheusRecorder adapts it onto a Prometheus registry, and
// the Metrics method exposes breaker state and counters for health endpoints.
//
// # Storage Details
//
// RedisStore keeps one ZSET per key under the configured prefix
// (default "ratelimit:"), scored by admission time in epoch milliseconds,
// with a member unique per admission. Keys expire one window after the last
// evaluation so idle identities do not leak. Status peeks with ZCOUNT and
// never mutates stored state.
package ratelimit
