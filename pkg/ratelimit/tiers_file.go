package ratelimit

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// tiersFile is the on-disk shape for an operator-supplied tier table:
//
//	tiers:
//	  - name: free
//	    max_requests: 60
//	    window_seconds: 60
//	    burst_allowance: 10
type tiersFile struct {
	Tiers []Tier `yaml:"tiers"`
}

// LoadTiersFile reads a YAML tier table for use with WithTiers. Omitted
// burst_allowance fields unmarshal to 0, the documented default; every entry
// is validated here so a bad file fails at startup, not per request.
func LoadTiersFile(path string) ([]Tier, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tiers file: %w", err)
	}
	var f tiersFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse tiers file %s: %w", path, err)
	}
	if len(f.Tiers) == 0 {
		return nil, fmt.Errorf("tiers file %s defines no tiers", path)
	}
	for _, t := range f.Tiers {
		if err := t.Validate(); err != nil {
			return nil, fmt.Errorf("tiers file %s: %w", path, err)
		}
	}
	return f.Tiers, nil
}
