package ratelimit_test

import (
	"context"
	"fmt"

	"github.com/MEDICALCOR/medicalcor-core-sub003/pkg/ratelimit"
)

func ExampleRateLimiter() {
	// MemoryStore stands in for Redis in tests and single-instance setups.
	limiter, err := ratelimit.New(ratelimit.NewMemoryStore())
	if err != nil {
		panic(err)
	}

	id := ratelimit.Identity{Key: "user-123", Scope: "export"}
	res := limiter.Check(context.Background(), id, ratelimit.TierName("api"))

	fmt.Println(res.Allowed, res.Tier, res.Current)
	// Output:
	// true api 1
}
