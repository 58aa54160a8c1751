// Package session tracks the single active game bound to each account.
package session

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"wager-bot/internal/game"
)

// ErrSessionAlreadyActive is returned when an account already has a session.
var ErrSessionAlreadyActive = errors.New("session already active")

// Session is one escrowed game. Its State is only touched under the account lock.
type Session struct {
	ID        string
	AccountID string
	Variant   string
	Bet       int64
	State     game.State
	CreatedAt time.Time

	// Pending holds a settlement whose credit has not landed yet.
	Pending *game.Settlement
}

// New creates a session with a fresh id.
func New(accountID, variant string, bet int64, state game.State, now time.Time) *Session {
	return &Session{
		ID:        uuid.NewString(),
		AccountID: accountID,
		Variant:   variant,
		Bet:       bet,
		State:     state,
		CreatedAt: now,
	}
}

// Registry holds at most one session per account.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// TryCreate registers s unless its account already has a session.
func (r *Registry) TryCreate(s *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[s.AccountID]; ok {
		return ErrSessionAlreadyActive
	}
	r.sessions[s.AccountID] = s
	return nil
}

func (r *Registry) Get(accountID string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[accountID]
	return s, ok
}

// Clear removes the account's session, if any.
func (r *Registry) Clear(accountID string) {
	r.mu.Lock()
	delete(r.sessions, accountID)
	r.mu.Unlock()
}

// ClearIf removes the account's session only if it is sessionID.
func (r *Registry) ClearIf(accountID, sessionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[accountID]
	if !ok || s.ID != sessionID {
		return false
	}
	delete(r.sessions, accountID)
	return true
}

// List returns the active sessions ordered by creation time.
func (r *Registry) List() []*Session {
	r.mu.RLock()
	out := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
