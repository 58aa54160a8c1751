// Package gametest provides deterministic randomness for variant tests.
package gametest

import "sync"

// Script is a game.Rand that replays fixed values, each reduced modulo n.
// After the script runs out it returns 0.
type Script struct {
	mu   sync.Mutex
	vals []int
	pos  int
}

// NewScript returns a Script replaying vals in order.
func NewScript(vals ...int) *Script {
	return &Script{vals: vals}
}

func (s *Script) Intn(n int) int {
	if n <= 0 {
		panic("gametest: Intn argument must be positive")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pos >= len(s.vals) {
		return 0
	}
	v := s.vals[s.pos] % n
	s.pos++
	if v < 0 {
		v += n
	}
	return v
}

// Drawn reports how many values have been consumed.
func (s *Script) Drawn() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pos
}
