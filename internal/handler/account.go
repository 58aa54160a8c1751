package handler

import (
	"context"
	"fmt"
	"strings"

	tele "gopkg.in/telebot.v3"

	"wager-bot/internal/amount"
	"wager-bot/internal/service"
)

const (
	historyLimit = 10
	topLimit     = 10
)

// AccountHandler handles account-related commands.
type AccountHandler struct {
	engine *service.Engine
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(engine *service.Engine) *AccountHandler {
	return &AccountHandler{engine: engine}
}

// HandleStart handles /start. First-time accounts receive the starting balance.
func (h *AccountHandler) HandleStart(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	balance, created, err := h.engine.EnsureAccount(ctx, AccountID(sender))
	if err != nil {
		logUnexpected(err, AccountID(sender), "start")
		return c.Reply(genericError)
	}

	name := displayName(sender)
	var b strings.Builder
	if created {
		fmt.Fprintf(&b, "🎉 Welcome %s! You start with %s.\n\n", name, amount.Format(balance))
	} else {
		fmt.Fprintf(&b, "👋 Welcome back %s!\n💰 Balance: %s\n\n", name, amount.Format(balance))
	}
	b.WriteString("Games:\n")
	for _, g := range h.engine.Games().List() {
		fmt.Fprintf(&b, "/%s <amount> - %s\n", g.Command(), g.Name())
	}
	b.WriteString("\n/balance - Show balance\n/game - Show your running game\n/history - Recent activity\n/top - Leaderboard")
	return c.Reply(b.String())
}

// HandleBalance handles /balance.
func (h *AccountHandler) HandleBalance(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}
	balance := h.engine.Balance(AccountID(sender))
	return c.Reply(fmt.Sprintf("💰 Balance: %s (%d)", amount.Format(balance), balance))
}

// HandleHistory handles /history [type].
func (h *AccountHandler) HandleHistory(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	var txType string
	if args := c.Args(); len(args) > 0 {
		txType = strings.ToLower(args[0])
	}
	txs, err := h.engine.History(ctx, AccountID(sender), txType, historyLimit)
	if err != nil {
		return c.Reply(userMessage(err, h.engine.MinBet()))
	}
	if len(txs) == 0 {
		return c.Reply("📜 No activity yet")
	}

	var b strings.Builder
	b.WriteString("📜 Recent activity\n━━━━━━━━━━━━━━━\n")
	for _, tx := range txs {
		sign := "+"
		amt := tx.Amount
		if amt < 0 {
			sign, amt = "-", -amt
		}
		fmt.Fprintf(&b, "%s %s%s %s → %s\n",
			tx.CreatedAt.Format("01-02 15:04"), sign, amount.Format(amt), tx.Type, amount.Format(tx.Balance))
	}
	return c.Reply(strings.TrimRight(b.String(), "\n"))
}

// HandleTop handles /top.
func (h *AccountHandler) HandleTop(c tele.Context) error {
	rows := h.engine.Top(topLimit)
	if len(rows) == 0 {
		return c.Reply("🏆 Leaderboard is empty")
	}

	var b strings.Builder
	b.WriteString("🏆 Leaderboard\n━━━━━━━━━━━━━━━\n")
	for i, r := range rows {
		fmt.Fprintf(&b, "%d. %s - %s\n", i+1, r.AccountID, amount.Format(r.Balance))
	}
	return c.Reply(strings.TrimRight(b.String(), "\n"))
}

func displayName(u *tele.User) string {
	if u.Username != "" {
		return "@" + u.Username
	}
	if u.FirstName != "" {
		return u.FirstName
	}
	return AccountID(u)
}
