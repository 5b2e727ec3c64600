// internal/heuristic/random.go
package heuristic

import (
	"math/rand/v2"
	"sync"
)

// Randomizer supplies the draws behind cost magnitudes and reason choices.
// Implementations must be safe for concurrent use.
type Randomizer interface {
	// Between returns an integer in [lo, hi].
	Between(lo, hi int) int
	// Pick returns an index in [0, n).
	Pick(n int) int
}

// processRandomizer draws from the process-wide math/rand/v2 source.
type processRandomizer struct{}

// NewRandomizer returns the default Randomizer.
func NewRandomizer() Randomizer {
	return processRandomizer{}
}

func (processRandomizer) Between(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + rand.IntN(hi-lo+1)
}

func (processRandomizer) Pick(n int) int {
	if n <= 1 {
		return 0
	}
	return rand.IntN(n)
}

// seededRandomizer is a reproducible source, used by the CLI --seed flag
// and by tests.
type seededRandomizer struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSeededRandomizer returns a Randomizer whose sequence depends only on seed.
func NewSeededRandomizer(seed uint64) Randomizer {
	return &seededRandomizer{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (s *seededRandomizer) Between(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return lo + s.rng.IntN(hi-lo+1)
}

func (s *seededRandomizer) Pick(n int) int {
	if n <= 1 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.IntN(n)
}
