package ratelimit

import "fmt"

// DefaultTierName is the tier used when a caller names an unknown tier or
// names none at all.
const DefaultTierName = "free"

// DefaultTiers returns the built-in tier table for common service classes.
//
// MaxRequests increases strictly from the lowest tier to the highest. The
// "ai" tier is deliberately depressed: AI-backed endpoints are an order of
// magnitude more expensive per call than plain CRUD. The exact quotas are
// operator configuration, not contract; override them with WithTiers or
// LoadTiersFile.
func DefaultTiers() []Tier {
	return []Tier{
		{Name: "ai", MaxRequests: 20, WindowSeconds: 60, BurstAllowance: 5},
		{Name: "free", MaxRequests: 60, WindowSeconds: 60, BurstAllowance: 10},
		{Name: "webhook", MaxRequests: 120, WindowSeconds: 60, BurstAllowance: 20},
		{Name: "api", MaxRequests: 300, WindowSeconds: 60, BurstAllowance: 50},
		{Name: "pro", MaxRequests: 600, WindowSeconds: 60, BurstAllowance: 100},
		{Name: "enterprise", MaxRequests: 6000, WindowSeconds: 60, BurstAllowance: 500},
	}
}

// TierRegistry holds the named tier table. It is built once at startup and
// never mutated afterwards, so lookups need no locking.
type TierRegistry struct {
	tiers map[string]Tier
}

// NewTierRegistry validates and indexes the given tiers. Duplicate names and
// invalid definitions are construction-time errors.
func NewTierRegistry(tiers []Tier) (*TierRegistry, error) {
	byName := make(map[string]Tier, len(tiers))
	for _, t := range tiers {
		if err := t.Validate(); err != nil {
			return nil, err
		}
		if _, dup := byName[t.Name]; dup {
			return nil, fmt.Errorf("duplicate tier %q", t.Name)
		}
		byName[t.Name] = t
	}
	return &TierRegistry{tiers: byName}, nil
}

// Lookup returns the registered tier for name.
func (r *TierRegistry) Lookup(name string) (Tier, bool) {
	t, ok := r.tiers[name]
	return t, ok
}

// Names returns the registered tier names in no particular order.
func (r *TierRegistry) Names() []string {
	names := make([]string, 0, len(r.tiers))
	for name := range r.tiers {
		names = append(names, name)
	}
	return names
}

// Resolve maps a TierSpec to a concrete tier. Ad-hoc tiers are returned
// verbatim. Unknown names silently resolve to def: an unrecognized tier must
// degrade a caller to the default quota, not fail the request.
func (r *TierRegistry) Resolve(spec TierSpec, def Tier) Tier {
	if spec.tier != nil {
		return *spec.tier
	}
	if spec.name != "" {
		if t, ok := r.tiers[spec.name]; ok {
			return t
		}
	}
	return def
}
