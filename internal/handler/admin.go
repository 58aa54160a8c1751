package handler

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	tele "gopkg.in/telebot.v3"

	"wager-bot/internal/amount"
	"wager-bot/internal/service"
)

var errAdminUsage = errors.New("❌ Usage: <command> <user_id> <amount>")

// AdminHandler handles admin balance commands.
type AdminHandler struct {
	engine *service.Engine
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(engine *service.Engine) *AdminHandler {
	return &AdminHandler{engine: engine}
}

type adminOp func(ctx context.Context, adminID int64, target string, amount int64) (int64, error)

// HandleAdminAdd handles /admin_add <user_id> <amount>.
func (h *AdminHandler) HandleAdminAdd(c tele.Context) error {
	return h.run(c, "➕ Added", h.engine.AdminAdd, false)
}

// HandleAdminSub handles /admin_sub <user_id> <amount>.
func (h *AdminHandler) HandleAdminSub(c tele.Context) error {
	return h.run(c, "➖ Removed", h.engine.AdminRemove, false)
}

// HandleAdminSet handles /admin_set <user_id> <amount>. Zero is allowed.
func (h *AdminHandler) HandleAdminSet(c tele.Context) error {
	return h.run(c, "✏️ Set to", h.engine.AdminSet, true)
}

func (h *AdminHandler) run(c tele.Context, verb string, op adminOp, allowZero bool) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	target, amt, err := parseAdminArgs(c.Args())
	if err != nil {
		return c.Reply(err.Error())
	}
	if amt == 0 && !allowZero {
		return c.Reply("❌ Amount must be positive")
	}

	balance, err := op(context.Background(), sender.ID, target, amt)
	if err != nil {
		return c.Reply(userMessage(err, h.engine.MinBet()))
	}
	return c.Reply(fmt.Sprintf(
		"✅ Done\n\n👤 User: %s\n%s: %s\n💰 Balance: %s",
		target, verb, amount.Format(amt), amount.Format(balance),
	))
}

// parseAdminArgs reads <user_id> <amount>.
func parseAdminArgs(args []string) (string, int64, error) {
	if len(args) != 2 {
		return "", 0, errAdminUsage
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id == 0 {
		return "", 0, fmt.Errorf("❌ Invalid user id: %s", args[0])
	}
	amt, err := amount.Parse(args[1])
	if err != nil {
		return "", 0, fmt.Errorf("❌ Invalid amount: %s", args[1])
	}
	return strconv.FormatInt(id, 10), amt, nil
}
