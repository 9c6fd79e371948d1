// Package sampler draws weighted diversity items from a bank.
package sampler

import (
	"fmt"
	"math/rand/v2"

	"promptsmith/internal/domain"
)

// NewRand returns a deterministic random source for the given seed.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Sample returns k distinct entries of a pool, drawn without replacement with
// probability proportional to weight. The pool is not modified.
func Sample(pool []domain.Entry, category string, k int, rng *rand.Rand) ([]domain.Entry, error) {
	if k <= 0 {
		return nil, nil
	}
	if len(pool) < k {
		return nil, domain.NewConfigError("bank."+category, fmt.Sprintf("needs at least %d entries, has %d", k, len(pool)))
	}
	remaining := make([]domain.Entry, len(pool))
	copy(remaining, pool)
	total := 0.0
	for _, e := range remaining {
		total += e.EffectiveWeight()
	}
	out := make([]domain.Entry, 0, k)
	for len(out) < k {
		target := rng.Float64() * total
		idx := len(remaining) - 1
		for i, e := range remaining {
			target -= e.EffectiveWeight()
			if target < 0 {
				idx = i
				break
			}
		}
		picked := remaining[idx]
		out = append(out, picked)
		total -= picked.EffectiveWeight()
		remaining = append(remaining[:idx], remaining[idx+1:]...)
	}
	return out, nil
}

// SampleCategory samples from a named bank category.
func SampleCategory(bank *domain.DiversityBank, category string, k int, rng *rand.Rand) ([]domain.Entry, error) {
	return Sample(bank.Pool(category, ""), category, k, rng)
}
