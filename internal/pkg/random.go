package pkg

import (
	"math/rand/v2"
	"sync"
)

// Source is the randomness used for boards, tosses and room codes.
type Source interface {
	IntN(n int) int
}

type globalSource struct{}

func (globalSource) IntN(n int) int {
	return rand.IntN(n) //nolint: gosec // game randomness, not a secret
}

// DefaultSource - returns a goroutine-safe source backed by the global generator.
func DefaultSource() Source {
	return globalSource{}
}

type lockedSource struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewSource - returns a seeded source, safe for concurrent use. Same seed, same sequence.
func NewSource(seed uint64) Source {
	return &lockedSource{
		rnd: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)), //nolint: gosec // it's ok
	}
}

func (that *lockedSource) IntN(n int) int {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.rnd.IntN(n)
}
