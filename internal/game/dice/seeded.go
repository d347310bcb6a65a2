package dice

import "math/rand/v2"

// SeededSource is a replayable Source: two SeededSources built from the same
// seed produce the same sequence of values.
//
// A SeededSource is not safe for concurrent use; give each battle its own.
type SeededSource struct {
	seed uint64
	rng  *rand.Rand
}

// NewSeededSource returns a SeededSource for seed.
func NewSeededSource(seed uint64) *SeededSource {
	return &SeededSource{
		seed: seed,
		rng:  rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// Seed returns the seed the source was built from.
func (s *SeededSource) Seed() uint64 { return s.seed }

// Intn returns a pseudo-random int in [0, n).
//
// Precondition: n > 0.
func (s *SeededSource) Intn(n int) int {
	if n <= 0 {
		panic("dice: Intn called with n <= 0")
	}
	return s.rng.IntN(n)
}

// IntRange returns a value in [lo, hi].
func (s *SeededSource) IntRange(lo, hi int) int {
	return Between(s, lo, hi)
}
