package ledger

import (
	"context"

	"wager-bot/internal/model"
)

// Entry is one write-through unit: the account's new balance plus the audit row explaining it.
// A Store must apply both or neither.
type Entry struct {
	AccountID   string
	Balance     int64
	Delta       int64
	Type        string
	Description string
}

// Store is the durable account-to-balance mapping behind the ledger.
type Store interface {
	// LoadBalances returns every persisted balance.
	LoadBalances(ctx context.Context) (map[string]int64, error)
	// Apply persists e atomically.
	Apply(ctx context.Context, e Entry) error
	// History returns the newest audit rows for an account, newest first.
	// An empty txType matches every type.
	History(ctx context.Context, accountID, txType string, limit int) ([]*model.Transaction, error)
}
