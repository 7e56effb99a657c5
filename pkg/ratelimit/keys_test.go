package ratelimit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyBuilder_Deterministic(t *testing.T) {
	kb := NewKeyBuilder("")
	id := Identity{Key: "user-1", Scope: "export"}

	assert.Equal(t, kb.Build(id, "api"), kb.Build(id, "api"))
	assert.Equal(t, "ratelimit:api:user-1:export", kb.Build(id, "api"))
}

func TestKeyBuilder_CustomPrefix(t *testing.T) {
	kb := NewKeyBuilder("crm:rl:")
	assert.Equal(t, "crm:rl:free:user-1", kb.Build(Identity{Key: "user-1"}, "free"))
}

func TestKeyBuilder_DistinctTriplesDistinctKeys(t *testing.T) {
	kb := NewKeyBuilder("")

	keys := []string{
		kb.Build(Identity{Key: "user-1"}, "api"),
		kb.Build(Identity{Key: "user-1"}, "free"),
		kb.Build(Identity{Key: "user-1", Scope: "export"}, "api"),
		kb.Build(Identity{Key: "user-1", Scope: "search"}, "api"),
		kb.Build(Identity{Key: "user-2"}, "api"),
		// Separator injection: these must not collide with each other or
		// with the scoped forms above.
		kb.Build(Identity{Key: "user-1:export"}, "api"),
		kb.Build(Identity{Key: "user-1", Scope: "ex:port"}, "api"),
		kb.Build(Identity{Key: "user-1%3Aexport"}, "api"),
	}

	seen := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		_, dup := seen[k]
		assert.False(t, dup, "duplicate key %q", k)
		seen[k] = struct{}{}
	}
}
