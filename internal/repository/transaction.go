package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"wager-bot/internal/model"
)

// TransactionRepository handles the balance audit trail in PostgreSQL.
type TransactionRepository struct {
	pool *pgxpool.Pool
}

// NewTransactionRepository creates a new TransactionRepository instance.
func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{pool: pool}
}

// Create inserts an audit row using db, which may be a transaction.
func (r *TransactionRepository) Create(ctx context.Context, db DBTX, tx *model.Transaction) error {
	const query = `
		INSERT INTO transactions (id, account_id, amount, balance, type, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		RETURNING created_at
	`
	err := db.QueryRow(ctx, query,
		tx.ID, tx.AccountID, tx.Amount, tx.Balance, tx.Type, tx.Description,
	).Scan(&tx.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

// GetByAccountID retrieves an account's transactions, newest first.
func (r *TransactionRepository) GetByAccountID(ctx context.Context, accountID string, limit int) ([]*model.Transaction, error) {
	const query = `
		SELECT id, account_id, amount, balance, type, description, created_at
		FROM transactions
		WHERE account_id = $1
		ORDER BY created_at DESC, seq DESC
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get transactions: %w", err)
	}
	return scanTransactions(rows)
}

// GetByAccountIDAndType retrieves an account's transactions of one type, newest first.
func (r *TransactionRepository) GetByAccountIDAndType(ctx context.Context, accountID, txType string, limit int) ([]*model.Transaction, error) {
	const query = `
		SELECT id, account_id, amount, balance, type, description, created_at
		FROM transactions
		WHERE account_id = $1 AND type = $2
		ORDER BY created_at DESC, seq DESC
		LIMIT $3
	`
	rows, err := r.pool.Query(ctx, query, accountID, txType, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get transactions: %w", err)
	}
	return scanTransactions(rows)
}

func scanTransactions(rows pgx.Rows) ([]*model.Transaction, error) {
	defer rows.Close()

	var transactions []*model.Transaction
	for rows.Next() {
		var tx model.Transaction
		err := rows.Scan(
			&tx.ID,
			&tx.AccountID,
			&tx.Amount,
			&tx.Balance,
			&tx.Type,
			&tx.Description,
			&tx.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, &tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}
	return transactions, nil
}
