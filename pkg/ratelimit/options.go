package ratelimit

import (
	"time"

	"go.uber.org/zap"
)

// DefaultStoreTimeout bounds each remote store call made by Check, Status,
// and Reset.
const DefaultStoreTimeout = 250 * time.Millisecond

// Option configures a RateLimiter.
type Option func(*config)

type config struct {
	logger       *zap.Logger
	recorder     MetricsRecorder
	keyPrefix    string
	tiers        []Tier
	defaultTier  string
	failOpen     bool
	storeTimeout time.Duration
	breaker      CircuitBreakerConfig
}

func defaultConfig() config {
	return config{
		logger:       zap.NewNop(),
		recorder:     NoOpMetricsRecorder{},
		keyPrefix:    DefaultKeyPrefix,
		tiers:        DefaultTiers(),
		defaultTier:  DefaultTierName,
		failOpen:     true,
		storeTimeout: DefaultStoreTimeout,
	}
}

// WithLogger sets the structured logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithRecorder injects a metrics backend such as NewPrometheusRecorder.
func WithRecorder(rec MetricsRecorder) Option {
	return func(c *config) {
		if rec != nil {
			c.recorder = rec
		}
	}
}

// WithKeyPrefix overrides the store key prefix (default "ratelimit:").
func WithKeyPrefix(prefix string) Option {
	return func(c *config) { c.keyPrefix = prefix }
}

// WithTiers replaces the built-in tier table.
func WithTiers(tiers []Tier) Option {
	return func(c *config) { c.tiers = tiers }
}

// WithDefaultTier names the tier used when a caller names an unknown one.
// The name must exist in the tier table or New returns an error.
func WithDefaultTier(name string) Option {
	return func(c *config) { c.defaultTier = name }
}

// WithFailOpen sets the degraded-mode posture. True (the default) enforces
// the limit against the process-local window when the store is out; false
// denies outright.
func WithFailOpen(failOpen bool) Option {
	return func(c *config) { c.failOpen = failOpen }
}

// WithStoreTimeout bounds each remote store call.
func WithStoreTimeout(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.storeTimeout = d
		}
	}
}

// WithCircuitBreaker overrides breaker thresholds. Zero fields keep their
// defaults.
func WithCircuitBreaker(cfg CircuitBreakerConfig) Option {
	return func(c *config) { c.breaker = cfg }
}
