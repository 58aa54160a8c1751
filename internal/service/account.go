package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"wager-bot/internal/model"
)

// EnsureAccount grants the starting balance to an account seen for the first
// time. It returns the balance and whether the grant happened.
func (e *Engine) EnsureAccount(ctx context.Context, accountID string) (int64, bool, error) {
	var balance int64
	var created bool
	err := e.locks.WithLockContext(ctx, accountID, e.lockWait, func() error {
		balance = e.ledger.Balance(accountID)
		if e.ledger.Exists(accountID) || e.cfg.StartingBalance <= 0 {
			return nil
		}
		var err error
		balance, err = e.ledger.Credit(ctx, accountID, e.cfg.StartingBalance, model.TxTypeGrant, "starting balance")
		if err != nil {
			return fmt.Errorf("failed to grant starting balance: %w", err)
		}
		created = true
		return nil
	})
	if err != nil || !created {
		return balance, false, err
	}
	log.Info().
		Str("account_id", accountID).
		Int64("amount", e.cfg.StartingBalance).
		Msg("Starting balance granted")
	return balance, true, nil
}

// Balance returns the account's balance, zero for unknown accounts.
func (e *Engine) Balance(accountID string) int64 {
	return e.ledger.Balance(accountID)
}

// History returns the account's latest balance changes, newest first. A
// non-empty txType keeps only that type.
func (e *Engine) History(ctx context.Context, accountID, txType string, limit int) ([]*model.Transaction, error) {
	if txType != "" && !model.IsTxType(txType) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTxType, txType)
	}
	return e.ledger.History(ctx, accountID, txType, limit)
}

// AdminAdd credits amount to target.
func (e *Engine) AdminAdd(ctx context.Context, adminID int64, target string, amount int64) (int64, error) {
	return e.admin(ctx, adminID, target, model.TxTypeAdminAdd, amount, func() (int64, error) {
		return e.ledger.Credit(ctx, target, amount, model.TxTypeAdminAdd, adminNote(adminID))
	})
}

// AdminRemove debits amount from target. It fails rather than clamping when
// the balance is short.
func (e *Engine) AdminRemove(ctx context.Context, adminID int64, target string, amount int64) (int64, error) {
	return e.admin(ctx, adminID, target, model.TxTypeAdminSub, amount, func() (int64, error) {
		return e.ledger.Debit(ctx, target, amount, model.TxTypeAdminSub, adminNote(adminID))
	})
}

// AdminSet overwrites target's balance. Escrow held by an active session is
// not affected.
func (e *Engine) AdminSet(ctx context.Context, adminID int64, target string, amount int64) (int64, error) {
	return e.admin(ctx, adminID, target, model.TxTypeAdminSet, amount, func() (int64, error) {
		return e.ledger.SetAbsolute(ctx, target, amount, adminNote(adminID))
	})
}

func (e *Engine) admin(ctx context.Context, adminID int64, target, op string, amount int64, apply func() (int64, error)) (int64, error) {
	var balance int64
	err := e.locks.WithLockContext(ctx, target, e.lockWait, func() error {
		var err error
		balance, err = apply()
		return err
	})
	if err != nil {
		return balance, err
	}
	log.Info().
		Int64("admin_id", adminID).
		Str("account_id", target).
		Str("op", op).
		Int64("amount", amount).
		Int64("balance", balance).
		Msg("Admin balance change")
	return balance, nil
}

func adminNote(adminID int64) string {
	return fmt.Sprintf("by admin %d", adminID)
}
