// Package timeout schedules per-account expiry callbacks for abandoned sessions.
package timeout

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// ExpireFunc is called once when an armed timer fires.
type ExpireFunc func(accountID, sessionID string)

type entry struct {
	timer     *time.Timer
	gen       uint64
	sessionID string
	deadline  time.Time
}

// Supervisor holds at most one timer per account.
type Supervisor struct {
	mu       sync.Mutex
	timers   map[string]*entry
	gen      uint64
	stopped  bool
	onExpire ExpireFunc
}

// New creates a supervisor that reports expiries to onExpire.
func New(onExpire ExpireFunc) *Supervisor {
	return &Supervisor{
		timers:   make(map[string]*entry),
		onExpire: onExpire,
	}
}

// Arm (re)schedules the account's timer to fire after d and returns the deadline.
// Any earlier timer for the account is cancelled.
func (s *Supervisor) Arm(accountID, sessionID string, d time.Duration) time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	deadline := time.Now().Add(d)
	if s.stopped {
		return deadline
	}
	if old, ok := s.timers[accountID]; ok {
		old.timer.Stop()
	}

	s.gen++
	gen := s.gen
	s.timers[accountID] = &entry{
		timer:     time.AfterFunc(d, func() { s.fire(accountID, gen) }),
		gen:       gen,
		sessionID: sessionID,
		deadline:  deadline,
	}
	return deadline
}

// Disarm cancels the account's timer. It reports whether one was pending.
func (s *Supervisor) Disarm(accountID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.timers[accountID]
	if !ok {
		return false
	}
	e.timer.Stop()
	delete(s.timers, accountID)
	return true
}

// Pending reports whether the account has an armed timer.
func (s *Supervisor) Pending(accountID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.timers[accountID]
	return ok
}

// Deadline returns when the account's timer fires.
func (s *Supervisor) Deadline(accountID string) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.timers[accountID]
	if !ok {
		return time.Time{}, false
	}
	return e.deadline, true
}

// Count returns the number of armed timers.
func (s *Supervisor) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Stop cancels every timer. Later Arm calls are ignored.
func (s *Supervisor) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopped = true
	for id, e := range s.timers {
		e.timer.Stop()
		delete(s.timers, id)
	}
}

// fire runs on the timer goroutine. A timer that was re-armed or disarmed
// after it started firing finds a different generation and does nothing.
func (s *Supervisor) fire(accountID string, gen uint64) {
	s.mu.Lock()
	e, ok := s.timers[accountID]
	if !ok || e.gen != gen {
		s.mu.Unlock()
		return
	}
	delete(s.timers, accountID)
	s.mu.Unlock()

	log.Debug().
		Str("account_id", accountID).
		Str("session_id", e.sessionID).
		Msg("Session timer fired")

	s.onExpire(accountID, e.sessionID)
}
