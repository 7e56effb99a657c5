package ratelimit

import "strings"

// DefaultKeyPrefix namespaces all limiter keys in the shared store.
const DefaultKeyPrefix = "ratelimit:"

var keyEscaper = strings.NewReplacer("%", "%25", ":", "%3A")

// KeyBuilder derives the store key for an (identity, tier) pair.
//
// Keys are deterministic and collision-free: every component is escaped so
// that a ":" inside one can never collide with the separator, and distinct
// (key, tier, scope) triples always produce distinct keys.
type KeyBuilder struct {
	prefix string
}

// NewKeyBuilder constructs a builder with the given prefix, falling back to
// DefaultKeyPrefix when empty.
func NewKeyBuilder(prefix string) KeyBuilder {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return KeyBuilder{prefix: prefix}
}

// Build returns the canonical key for id under the named tier.
func (kb KeyBuilder) Build(id Identity, tierName string) string {
	var b strings.Builder
	b.Grow(len(kb.prefix) + len(tierName) + len(id.Key) + len(id.Scope) + 2)
	b.WriteString(kb.prefix)
	b.WriteString(keyEscaper.Replace(tierName))
	b.WriteByte(':')
	b.WriteString(keyEscaper.Replace(id.Key))
	if id.Scope != "" {
		b.WriteByte(':')
		b.WriteString(keyEscaper.Replace(id.Scope))
	}
	return b.String()
}
