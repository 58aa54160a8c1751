package game

import (
	"math/rand"
	"sync"
	"time"
)

// Rand is the randomness a variant draws from.
type Rand interface {
	// Intn returns a uniform value in [0, n). It panics if n <= 0.
	Intn(n int) int
}

// LockedRand is a Rand safe for concurrent use.
type LockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewRand returns a LockedRand seeded with seed.
func NewRand(seed int64) *LockedRand {
	return &LockedRand{r: rand.New(rand.NewSource(seed))}
}

// NewTimeSeededRand returns a LockedRand seeded from the clock.
func NewTimeSeededRand() *LockedRand {
	return NewRand(time.Now().UnixNano())
}

func (l *LockedRand) Intn(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Intn(n)
}

// Perm returns a uniform permutation of [0, n) drawn from rng.
func Perm(rng Rand, n int) []int {
	p := make([]int, n)
	for i := range p {
		p[i] = i
	}
	for i := n - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		p[i], p[j] = p[j], p[i]
	}
	return p
}
