package service

import "sort"

// Holding is one leaderboard row.
type Holding struct {
	AccountID string `json:"account_id"`
	Balance   int64  `json:"balance"`
}

// Top returns the limit largest balances, ties broken by account id.
func (e *Engine) Top(limit int) []Holding {
	snap := e.ledger.Snapshot()
	rows := make([]Holding, 0, len(snap))
	for id, b := range snap {
		rows = append(rows, Holding{AccountID: id, Balance: b})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Balance != rows[j].Balance {
			return rows[i].Balance > rows[j].Balance
		}
		return rows[i].AccountID < rows[j].AccountID
	})
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows
}
