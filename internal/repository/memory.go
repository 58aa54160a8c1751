package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"wager-bot/internal/ledger"
	"wager-bot/internal/model"
)

// MemoryStore is a non-durable ledger.Store for local runs and tests.
type MemoryStore struct {
	mu       sync.Mutex
	balances map[string]int64
	txs      map[string][]*model.Transaction
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		balances: make(map[string]int64),
		txs:      make(map[string][]*model.Transaction),
	}
}

// LoadBalances implements ledger.Store.
func (s *MemoryStore) LoadBalances(context.Context) (map[string]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int64, len(s.balances))
	for k, v := range s.balances {
		out[k] = v
	}
	return out, nil
}

// Apply implements ledger.Store.
func (s *MemoryStore) Apply(_ context.Context, e ledger.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balances[e.AccountID] = e.Balance
	s.txs[e.AccountID] = append(s.txs[e.AccountID], &model.Transaction{
		ID:          uuid.NewString(),
		AccountID:   e.AccountID,
		Amount:      e.Delta,
		Balance:     e.Balance,
		Type:        e.Type,
		Description: e.Description,
		CreatedAt:   time.Now(),
	})
	return nil
}

// History implements ledger.Store.
func (s *MemoryStore) History(_ context.Context, accountID, txType string, limit int) ([]*model.Transaction, error) {
	if limit <= 0 {
		return nil, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	all := s.txs[accountID]
	out := make([]*model.Transaction, 0, min(limit, len(all)))
	for i := len(all) - 1; i >= 0 && len(out) < limit; i-- {
		if txType != "" && all[i].Type != txType {
			continue
		}
		tx := *all[i]
		out = append(out, &tx)
	}
	return out, nil
}
