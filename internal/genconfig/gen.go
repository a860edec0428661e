package genconfig

import (
	"github.com/leanovate/gopter"
)

// ServiceGen adapts DrawService to a gopter generator so property tests can
// drive draws through gopter's own seeded random source.
func ServiceGen() gopter.Gen {
	return func(params *gopter.GenParameters) *gopter.GenResult {
		cfg := DrawService(params.Rng)
		return gopter.NewGenResult(cfg, gopter.NoShrinker)
	}
}

// NetworkGen adapts DrawNetwork to a gopter generator.
func NetworkGen() gopter.Gen {
	return func(params *gopter.GenParameters) *gopter.GenResult {
		cfg := DrawNetwork(params.Rng)
		return gopter.NewGenResult(cfg, gopter.NoShrinker)
	}
}
