// Package repository provides the durable stores behind the balance ledger.
package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBTX is the subset of pgx shared by *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// AccountRepository handles account rows in PostgreSQL.
type AccountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository creates a new AccountRepository instance.
func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

// LoadAll returns every account's balance.
func (r *AccountRepository) LoadAll(ctx context.Context) (map[string]int64, error) {
	rows, err := r.pool.Query(ctx, `SELECT account_id, balance FROM accounts`)
	if err != nil {
		return nil, fmt.Errorf("failed to load accounts: %w", err)
	}
	defer rows.Close()

	balances := make(map[string]int64)
	for rows.Next() {
		var id string
		var balance int64
		if err := rows.Scan(&id, &balance); err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		balances[id] = balance
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating accounts: %w", err)
	}
	return balances, nil
}

// Upsert writes the balance for an account, creating the row on first use.
func (r *AccountRepository) Upsert(ctx context.Context, db DBTX, accountID string, balance int64) error {
	const query = `
		INSERT INTO accounts (account_id, balance, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (account_id) DO UPDATE
		SET balance = EXCLUDED.balance, updated_at = NOW()
	`
	if _, err := db.Exec(ctx, query, accountID, balance); err != nil {
		return fmt.Errorf("failed to upsert account: %w", err)
	}
	return nil
}
