package ratelimit

import (
	"context"
	"sync"
	"time"
)

// defaultMaxMemoryKeys bounds the number of live keys a MemoryStore tracks.
const defaultMaxMemoryKeys = 100_000

// MemoryStore is an in-process sliding-window store.
//
// It implements the same trailing-log algorithm as the Redis adapter against
// a process-local map, so it can stand in for the shared store in tests and
// single-instance deployments. The RateLimiter also keeps a private instance
// as its degraded-mode fallback: state here is never reconciled with the
// shared store after an outage ends.
//
// It is safe for concurrent use by multiple goroutines. Its methods never
// return a non-nil error.
type MemoryStore struct {
	mu      sync.Mutex
	windows map[string][]time.Time
	maxKeys int
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		windows: make(map[string][]time.Time),
		maxKeys: defaultMaxMemoryKeys,
	}
}

// Evaluate trims entries older than the window, counts the remainder, and
// records the request at now when the count is below limit. A count at the
// limit denies; ties favor denial. Current always counts this request, so a
// denial reports one more than is stored; denied attempts are not recorded.
func (m *MemoryStore) Evaluate(_ context.Context, key string, window time.Duration, limit int, now time.Time) (StoreDecision, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entries := m.trimLocked(key, now.Add(-window))
	allowed := len(entries) < limit
	if allowed {
		if _, exists := m.windows[key]; !exists && len(m.windows) >= m.maxKeys {
			m.evictOneLocked(now.Add(-window))
		}
		entries = append(entries, now)
	}
	if len(entries) > 0 {
		m.windows[key] = entries
	}
	current := len(entries)
	if !allowed {
		current++
	}
	return StoreDecision{
		Allowed: allowed,
		Current: current,
		ResetAt: resetAt(entries, window, now),
	}, nil
}

// Peek reports the current in-window count without recording anything.
func (m *MemoryStore) Peek(_ context.Context, key string, window time.Duration, limit int, now time.Time) (StoreDecision, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entries := m.trimLocked(key, now.Add(-window))
	if len(entries) > 0 {
		m.windows[key] = entries
	}
	current := len(entries)
	return StoreDecision{
		Allowed: current < limit,
		Current: current,
		ResetAt: resetAt(entries, window, now),
	}, nil
}

// Delete drops all recorded state for key.
func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.windows, key)
	return nil
}

// Len reports the number of keys with live state, for observability.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.windows)
}

// trimLocked returns key's entries with everything before windowStart
// discarded, deleting the map entry when nothing survives. Entries are
// appended in time order, so the survivors are a suffix.
func (m *MemoryStore) trimLocked(key string, windowStart time.Time) []time.Time {
	entries := m.windows[key]
	keep := 0
	for keep < len(entries) && entries[keep].Before(windowStart) {
		keep++
	}
	if keep == len(entries) {
		delete(m.windows, key)
		return nil
	}
	return entries[keep:]
}

// evictOneLocked makes room for a new key: prefer a fully expired window,
// otherwise the key with the oldest first entry.
func (m *MemoryStore) evictOneLocked(windowStart time.Time) {
	var victim string
	var victimOldest time.Time
	for key, entries := range m.windows {
		if len(entries) == 0 || !entries[len(entries)-1].After(windowStart) {
			delete(m.windows, key)
			return
		}
		if victim == "" || entries[0].Before(victimOldest) {
			victim = key
			victimOldest = entries[0]
		}
	}
	if victim != "" {
		delete(m.windows, victim)
	}
}

// resetAt is when the window frees a slot: the oldest surviving entry plus
// the window length, or now plus the window length when the window is empty.
func resetAt(entries []time.Time, window time.Duration, now time.Time) time.Time {
	if len(entries) == 0 {
		return now.Add(window)
	}
	return entries[0].Add(window)
}
