package ratelimit

import (
	"context"
	_ "embed"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

//go:embed sliding_window.lua
var slidingWindowSrc string

// slidingWindowScript is loaded once per process; Run retries with EVAL when
// the server's script cache was flushed, so a Redis restart never surfaces a
// NOSCRIPT error to callers.
var slidingWindowScript = redis.NewScript(slidingWindowSrc)

// RedisStore is a StoreClient backed by Redis.
//
// Each key is a ZSET of request timestamps scored in epoch milliseconds.
// Evaluate runs the embedded Lua script so that trim, count, and conditional
// insert execute as one atomic server-side step; this is what makes the
// window correct under concurrent callers across instances. Keys expire one
// window after the last evaluate so idle identities do not leak memory.
//
// The constructor does not ping the server: an unreachable Redis is an
// operational state the limiter is designed to ride out, not a construction
// error.
type RedisStore struct {
	client redis.UniversalClient
}

// NewRedisStore wraps an existing go-redis client.
func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

// Evaluate atomically trims the window, counts it, and records the request
// when the count is below limit.
func (s *RedisStore) Evaluate(ctx context.Context, key string, window time.Duration, limit int, now time.Time) (StoreDecision, error) {
	nowMs := now.UnixMilli()
	windowMs := window.Milliseconds()
	member := strconv.FormatInt(nowMs, 10) + "-" + uuid.NewString()

	res, err := slidingWindowScript.Run(ctx, s.client, []string{key},
		nowMs-windowMs, // ARGV[1] window start
		nowMs,          // ARGV[2]
		limit,          // ARGV[3]
		member,         // ARGV[4]
		windowMs,       // ARGV[5]
	).Result()
	if err != nil {
		return StoreDecision{}, fmt.Errorf("%w: evaluate: %v", ErrStoreUnavailable, err)
	}

	values, ok := res.([]interface{})
	if !ok || len(values) != 3 {
		return StoreDecision{}, fmt.Errorf("%w: evaluate returned %T", ErrStoreProtocol, res)
	}
	allowed, okA := values[0].(int64)
	current, okC := values[1].(int64)
	reset, okR := values[2].(int64)
	if !okA || !okC || !okR {
		return StoreDecision{}, fmt.Errorf("%w: evaluate returned %v", ErrStoreProtocol, values)
	}
	return StoreDecision{
		Allowed: allowed == 1,
		Current: int(current),
		ResetAt: time.UnixMilli(reset),
	}, nil
}

// Peek counts the in-window entries without trimming or recording anything.
// It needs no atomicity: a read can race a concurrent evaluate and still
// return a count that was true at some instant.
func (s *RedisStore) Peek(ctx context.Context, key string, window time.Duration, limit int, now time.Time) (StoreDecision, error) {
	windowStart := strconv.FormatInt(now.Add(-window).UnixMilli(), 10)

	var countCmd *redis.IntCmd
	var oldestCmd *redis.ZSliceCmd
	_, err := s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		countCmd = pipe.ZCount(ctx, key, windowStart, "+inf")
		oldestCmd = pipe.ZRangeByScoreWithScores(ctx, key, &redis.ZRangeBy{
			Min: windowStart, Max: "+inf", Offset: 0, Count: 1,
		})
		return nil
	})
	if err != nil {
		return StoreDecision{}, fmt.Errorf("%w: peek: %v", ErrStoreUnavailable, err)
	}

	current := int(countCmd.Val())
	reset := now.Add(window)
	if oldest := oldestCmd.Val(); len(oldest) > 0 {
		reset = time.UnixMilli(int64(oldest[0].Score)).Add(window)
	}
	return StoreDecision{
		Allowed: current < limit,
		Current: current,
		ResetAt: reset,
	}, nil
}

// Delete removes all recorded state for key.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("%w: delete: %v", ErrStoreUnavailable, err)
	}
	return nil
}
