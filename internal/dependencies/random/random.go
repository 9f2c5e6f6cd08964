package random

import (
	"math/rand/v2"
	"sync"
)

// Random supplies the randomness used for target selection.
// Implementations must be safe for concurrent use.
type Random interface {
	// Intn returns a random int in [0, n); 0 when n <= 0
	Intn(n int) int
}

// Source draws from a math/rand/v2 generator guarded by a mutex
type Source struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// New returns a Source seeded from the runtime's entropy
func New() *Source {
	return &Source{rng: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))}
}

// NewSeeded returns a deterministic Source for reproducible runs
func NewSeeded(seed uint64) *Source {
	return &Source{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Intn returns a pseudo-random int in [0, n)
func (s *Source) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.IntN(n)
}
