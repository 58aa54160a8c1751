// Package model defines the persisted data shapes shared by the ledger and its stores.
package model

import "time"

// Transaction is one audited balance change. Amount is the signed delta and
// Balance the resulting balance.
type Transaction struct {
	ID          string    `db:"id" json:"id"`
	AccountID   string    `db:"account_id" json:"account_id"`
	Amount      int64     `db:"amount" json:"amount"`
	Balance     int64     `db:"balance" json:"balance"`
	Type        string    `db:"type" json:"type"`
	Description string    `db:"description" json:"description,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Transaction types.
const (
	TxTypeBet      = "bet"       // escrow taken at game start
	TxTypePayout   = "payout"    // settlement credit
	TxTypeRefund   = "refund"    // escrow returned on timeout or shutdown
	TxTypeGrant    = "grant"     // starting balance for a new account
	TxTypeAdminAdd = "admin_add" // admin added balance
	TxTypeAdminSub = "admin_sub" // admin removed balance
	TxTypeAdminSet = "admin_set" // admin overwrote balance
)

// IsTxType reports whether t names a transaction type.
func IsTxType(t string) bool {
	switch t {
	case TxTypeBet, TxTypePayout, TxTypeRefund, TxTypeGrant, TxTypeAdminAdd, TxTypeAdminSub, TxTypeAdminSet:
		return true
	}
	return false
}
