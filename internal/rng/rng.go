// Package rng owns the single seeded pseudo-random stream of a generation
// run. Every stage draws from the same Stream in a fixed order, which is what
// makes a run reproducible: identical (config, seed) pairs replay the exact
// same draw sequence. There is no global random state anywhere in the engine.
package rng

import (
	"golang.org/x/exp/rand"
)

// Stream is one run's pseudo-random source. Not safe for concurrent use;
// a run is single-threaded by contract.
type Stream struct {
	rnd *rand.Rand
}

// New creates a Stream seeded deterministically from seed.
func New(seed int64) *Stream {
	return &Stream{rnd: rand.New(rand.NewSource(uint64(seed)))}
}

// Source exposes the stream for gonum's distuv distributions, which draw
// through a rand.Source. Sharing the one source keeps all stages on the same
// deterministic sequence.
func (s *Stream) Source() rand.Source {
	return s.rnd
}

// Float64 draws a uniform value in [0, 1).
func (s *Stream) Float64() float64 {
	return s.rnd.Float64()
}

// Uniform draws a uniform value in [low, high).
func (s *Stream) Uniform(low, high float64) float64 {
	return low + (high-low)*s.rnd.Float64()
}

// Perm returns a deterministic pseudo-random permutation of [0, n).
func (s *Stream) Perm(n int) []int {
	return s.rnd.Perm(n)
}

// Pick returns count distinct indices in [0, n), chosen without replacement.
func (s *Stream) Pick(n, count int) []int {
	if count > n {
		count = n
	}
	return s.Perm(n)[:count]
}
