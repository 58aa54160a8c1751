// Package ledger holds every account balance in memory and writes each change
// through to a durable Store before the change becomes visible.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"

	"wager-bot/internal/model"
	"wager-bot/internal/pkg/lock"
)

// Ledger errors.
var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrBalanceOverflow     = errors.New("balance overflow")
)

// Ledger owns every balance. Balances are never negative, and a mutation returns
// only after the store has accepted it.
type Ledger struct {
	store Store
	locks *lock.AccountLock

	mu       sync.RWMutex
	balances map[string]int64

	maxRetries      uint64
	initialInterval time.Duration
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithRetry sets how many times a failed store write is retried and the first backoff interval.
func WithRetry(maxRetries uint64, initialInterval time.Duration) Option {
	return func(l *Ledger) {
		l.maxRetries = maxRetries
		l.initialInterval = initialInterval
	}
}

// New creates a ledger over store. Call Load before serving traffic.
func New(store Store, opts ...Option) *Ledger {
	l := &Ledger{
		store:           store,
		locks:           lock.NewAccountLock(),
		balances:        make(map[string]int64),
		maxRetries:      5,
		initialInterval: 50 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load replaces the in-memory balances with the store's contents.
func (l *Ledger) Load(ctx context.Context) error {
	balances, err := l.store.LoadBalances(ctx)
	if err != nil {
		return fmt.Errorf("failed to load balances: %w", err)
	}
	for id, b := range balances {
		if b < 0 {
			return fmt.Errorf("stored balance for %q is negative (%d)", id, b)
		}
	}

	l.mu.Lock()
	l.balances = balances
	l.mu.Unlock()

	log.Info().Int("accounts", len(balances)).Msg("Balances loaded")
	return nil
}

// Balance returns the account's balance, 0 if it has never been touched.
func (l *Ledger) Balance(accountID string) int64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.balances[accountID]
}

// Exists reports whether the account has ever been persisted.
func (l *Ledger) Exists(accountID string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.balances[accountID]
	return ok
}

// Snapshot returns a copy of all balances.
func (l *Ledger) Snapshot() map[string]int64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make(map[string]int64, len(l.balances))
	for k, v := range l.balances {
		out[k] = v
	}
	return out
}

// Credit adds amount and returns the new balance.
func (l *Ledger) Credit(ctx context.Context, accountID string, amount int64, txType, desc string) (int64, error) {
	if amount <= 0 {
		return l.Balance(accountID), ErrInvalidAmount
	}
	return l.mutate(ctx, accountID, txType, desc, func(cur int64) (int64, error) {
		if cur > math.MaxInt64-amount {
			return cur, ErrBalanceOverflow
		}
		return cur + amount, nil
	})
}

// Debit removes amount, failing with ErrInsufficientBalance and no change if the balance is short.
func (l *Ledger) Debit(ctx context.Context, accountID string, amount int64, txType, desc string) (int64, error) {
	if amount <= 0 {
		return l.Balance(accountID), ErrInvalidAmount
	}
	return l.mutate(ctx, accountID, txType, desc, func(cur int64) (int64, error) {
		if amount > cur {
			return cur, ErrInsufficientBalance
		}
		return cur - amount, nil
	})
}

// SetAbsolute overwrites the balance. It is the admin override and skips the sufficiency check.
func (l *Ledger) SetAbsolute(ctx context.Context, accountID string, amount int64, desc string) (int64, error) {
	if amount < 0 {
		return l.Balance(accountID), ErrInvalidAmount
	}
	return l.mutate(ctx, accountID, model.TxTypeAdminSet, desc, func(int64) (int64, error) {
		return amount, nil
	})
}

// History returns the newest audit rows for the account, optionally of one type.
func (l *Ledger) History(ctx context.Context, accountID, txType string, limit int) ([]*model.Transaction, error) {
	txs, err := l.store.History(ctx, accountID, txType, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get history: %w", err)
	}
	return txs, nil
}

func (l *Ledger) mutate(ctx context.Context, accountID, txType, desc string, next func(int64) (int64, error)) (int64, error) {
	l.locks.Lock(accountID)
	defer l.locks.Unlock(accountID)

	cur := l.Balance(accountID)
	updated, err := next(cur)
	if err != nil {
		return cur, err
	}

	entry := Entry{
		AccountID:   accountID,
		Balance:     updated,
		Delta:       updated - cur,
		Type:        txType,
		Description: desc,
	}
	if err := l.persist(ctx, entry); err != nil {
		log.Error().
			Err(err).
			Str("account_id", accountID).
			Int64("balance", cur).
			Int64("delta", entry.Delta).
			Str("type", txType).
			Msg("Balance write failed, change discarded")
		return cur, fmt.Errorf("failed to persist balance: %w", err)
	}

	l.mu.Lock()
	l.balances[accountID] = updated
	l.mu.Unlock()
	return updated, nil
}

func (l *Ledger) persist(ctx context.Context, e Entry) error {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = l.initialInterval
	b := backoff.WithContext(backoff.WithMaxRetries(eb, l.maxRetries), ctx)

	return backoff.RetryNotify(func() error {
		return l.store.Apply(ctx, e)
	}, b, func(err error, wait time.Duration) {
		log.Warn().
			Err(err).
			Str("account_id", e.AccountID).
			Dur("retry_in", wait).
			Msg("Balance write failed, retrying")
	})
}
