// Package lock provides per-account mutual exclusion for balance and session operations.
package lock

import (
	"context"
	"sync"
	"time"
)

// accountMutex is the mutex for one account id plus a count of current holders/waiters.
// A pruned mutex is marked dead and must not be entered again.
type accountMutex struct {
	mu      sync.Mutex
	hmu     sync.Mutex
	holders int32
	dead    bool
}

func (m *accountMutex) leave() {
	m.hmu.Lock()
	m.holders--
	m.hmu.Unlock()
}

// AccountLock serializes work per account id. Different accounts never block each other.
type AccountLock struct {
	locks sync.Map // map[string]*accountMutex
}

// NewAccountLock creates an empty lock table.
func NewAccountLock() *AccountLock {
	return &AccountLock{}
}

// enter returns the live mutex for accountID with its holder count already raised.
func (l *AccountLock) enter(accountID string) *accountMutex {
	for {
		v, ok := l.locks.Load(accountID)
		if !ok {
			v, _ = l.locks.LoadOrStore(accountID, &accountMutex{})
		}
		m := v.(*accountMutex)
		m.hmu.Lock()
		if !m.dead {
			m.holders++
			m.hmu.Unlock()
			return m
		}
		m.hmu.Unlock()
	}
}

// Lock blocks until the account's lock is held.
func (l *AccountLock) Lock(accountID string) {
	m := l.enter(accountID)
	m.mu.Lock()
}

// Unlock releases the account's lock. Unlocking an account that was never locked is a no-op.
func (l *AccountLock) Unlock(accountID string) {
	if v, ok := l.locks.Load(accountID); ok {
		m := v.(*accountMutex)
		m.mu.Unlock()
		m.leave()
	}
}

// TryLock acquires the lock only if it is free.
func (l *AccountLock) TryLock(accountID string) bool {
	m := l.enter(accountID)
	if m.mu.TryLock() {
		return true
	}
	m.leave()
	return false
}

// LockWithTimeout waits up to timeout (or until ctx is done) for the lock.
// It reports whether the lock was acquired.
func (l *AccountLock) LockWithTimeout(ctx context.Context, accountID string, timeout time.Duration) bool {
	m := l.enter(accountID)

	done := make(chan struct{})
	go func() {
		m.mu.Lock()
		close(done)
	}()

	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	select {
	case <-done:
		return true
	case <-timeoutCtx.Done():
		// The waiter goroutine still gets the mutex eventually; hand it straight back.
		go func() {
			<-done
			m.mu.Unlock()
			m.leave()
		}()
		return false
	}
}

// WithLockContext runs fn while holding the account's lock, waiting at most
// timeout (or until ctx is done) to acquire it.
func (l *AccountLock) WithLockContext(ctx context.Context, accountID string, timeout time.Duration, fn func() error) error {
	if !l.LockWithTimeout(ctx, accountID, timeout) {
		if err := ctx.Err(); err != nil {
			return err
		}
		return ErrLockTimeout
	}
	defer l.Unlock(accountID)

	if err := ctx.Err(); err != nil {
		return err
	}
	return fn()
}

// Prune drops idle mutexes so the table does not grow with every account ever seen.
// It returns how many entries were removed.
func (l *AccountLock) Prune() int {
	removed := 0
	l.locks.Range(func(key, value any) bool {
		m := value.(*accountMutex)
		m.hmu.Lock()
		if m.holders == 0 {
			m.dead = true
			l.locks.Delete(key)
			removed++
		}
		m.hmu.Unlock()
		return true
	})
	return removed
}
