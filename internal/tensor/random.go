package tensor

import (
	"math/rand/v2"
)

// NewRand returns the generator used for weight initialization.
//
// A nil seed gives a process-seeded generator, so two runs produce different
// values. A non-nil seed makes every draw reproducible.
func NewRand(seed *uint64) *rand.Rand {
	if seed == nil {
		//nolint:gosec // Using math/rand for weight initialization (not security-critical)
		return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	//nolint:gosec // Using math/rand for weight initialization (not security-critical)
	return rand.New(rand.NewPCG(*seed, *seed))
}

// Randn returns n float32 samples from the standard normal distribution N(0, 1).
func Randn(n int, rng *rand.Rand) []float32 {
	data := make([]float32, n)
	for i := range data {
		data[i] = float32(rng.NormFloat64())
	}
	return data
}
