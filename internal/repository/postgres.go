package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"wager-bot/internal/ledger"
	"wager-bot/internal/model"
)

// PostgresStore is the ledger.Store backed by PostgreSQL. Each Apply updates the
// account row and inserts its audit row in one transaction.
type PostgresStore struct {
	pool     *pgxpool.Pool
	accounts *AccountRepository
	txs      *TransactionRepository
}

// NewPostgresStore creates a store over pool. Run Migrate first.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{
		pool:     pool,
		accounts: NewAccountRepository(pool),
		txs:      NewTransactionRepository(pool),
	}
}

// LoadBalances implements ledger.Store.
func (s *PostgresStore) LoadBalances(ctx context.Context) (map[string]int64, error) {
	return s.accounts.LoadAll(ctx)
}

// Apply implements ledger.Store.
func (s *PostgresStore) Apply(ctx context.Context, e ledger.Entry) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if err := s.accounts.Upsert(ctx, tx, e.AccountID, e.Balance); err != nil {
			return err
		}
		return s.txs.Create(ctx, tx, &model.Transaction{
			ID:          uuid.NewString(),
			AccountID:   e.AccountID,
			Amount:      e.Delta,
			Balance:     e.Balance,
			Type:        e.Type,
			Description: e.Description,
		})
	})
}

// History implements ledger.Store.
func (s *PostgresStore) History(ctx context.Context, accountID, txType string, limit int) ([]*model.Transaction, error) {
	if txType != "" {
		return s.txs.GetByAccountIDAndType(ctx, accountID, txType, limit)
	}
	return s.txs.GetByAccountID(ctx, accountID, limit)
}

// Migrate creates the schema if it does not exist.
func Migrate(ctx context.Context, db DBTX) error {
	log.Info().Msg("Running database migrations...")

	_, err := db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS accounts (
			account_id TEXT PRIMARY KEY,
			balance BIGINT NOT NULL DEFAULT 0 CHECK (balance >= 0),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_accounts_balance ON accounts(balance DESC);
	`)
	if err != nil {
		return fmt.Errorf("failed to create accounts table: %w", err)
	}
	log.Info().Msg("Migration 1: accounts table created")

	_, err = db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS transactions (
			seq BIGSERIAL PRIMARY KEY,
			id TEXT NOT NULL UNIQUE,
			account_id TEXT NOT NULL REFERENCES accounts(account_id) ON DELETE CASCADE,
			amount BIGINT NOT NULL,
			balance BIGINT NOT NULL,
			type VARCHAR(50) NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_transactions_account_time ON transactions(account_id, created_at DESC);
	`)
	if err != nil {
		return fmt.Errorf("failed to create transactions table: %w", err)
	}
	log.Info().Msg("Migration 2: transactions table created")

	return nil
}
