// Package handler turns Telegram commands and button presses into engine calls
// and renders the results.
package handler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"wager-bot/internal/amount"
	"wager-bot/internal/game"
	"wager-bot/internal/ledger"
	"wager-bot/internal/service"
)

// GameHandler handles game commands and buttons.
type GameHandler struct {
	engine *service.Engine
}

// NewGameHandler creates a new GameHandler.
func NewGameHandler(engine *service.Engine) *GameHandler {
	return &GameHandler{engine: engine}
}

// AccountID is the engine account for a Telegram user.
func AccountID(u *tele.User) string {
	return strconv.FormatInt(u.ID, 10)
}

// ParseBet parses a bet argument. "all" stakes the whole balance.
func ParseBet(arg string, balance int64) (int64, error) {
	if strings.EqualFold(strings.TrimSpace(arg), "all") {
		if balance <= 0 {
			return 0, ledger.ErrInsufficientBalance
		}
		return balance, nil
	}
	return amount.Parse(arg)
}

// parseOptions reads variant options after the bet argument.
func parseOptions(variant string, args []string) (game.Options, error) {
	var opts game.Options
	if variant == "mines" && len(args) > 1 {
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return opts, fmt.Errorf("%w: bombs must be a number", game.ErrInvalidOptions)
		}
		opts.Bombs = n
	}
	return opts, nil
}

// HandlePlay returns the handler for /<variant> <amount> [options].
func (h *GameHandler) HandlePlay(variant string) tele.HandlerFunc {
	return func(c tele.Context) error {
		ctx := context.Background()
		sender := c.Sender()
		if sender == nil {
			return nil
		}

		args := c.Args()
		if len(args) == 0 {
			return c.Reply(h.usage(variant))
		}

		accountID := AccountID(sender)
		bet, err := ParseBet(args[0], h.engine.Balance(accountID))
		if err != nil {
			return c.Reply(userMessage(err, h.engine.MinBet()))
		}
		opts, err := parseOptions(variant, args)
		if err != nil {
			return c.Reply(userMessage(err, h.engine.MinBet()))
		}

		res, err := h.engine.Start(ctx, accountID, variant, bet, opts)
		if err != nil {
			logUnexpected(err, accountID, "start")
			return c.Reply(userMessage(err, h.engine.MinBet()))
		}
		return h.reply(c, res)
	}
}

// HandleGame re-renders the sender's active session.
func (h *GameHandler) HandleGame(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	snap, err := h.engine.Snapshot(AccountID(sender))
	if err != nil {
		return c.Reply(userMessage(err, h.engine.MinBet()))
	}
	return c.Reply(RenderSnapshot(snap, time.Now()), Keyboard(snap))
}

// HandleCallback applies a game button press to the sender's session.
func (h *GameHandler) HandleCallback(c tele.Context) error {
	ctx := context.Background()
	cb := c.Callback()
	sender := c.Sender()
	if cb == nil || sender == nil {
		return nil
	}

	payload := callbackPayload(cb.Data)
	if payload == noopData {
		return c.Respond()
	}
	action, err := DecodeAction(payload)
	if err != nil {
		log.Debug().Str("data", cb.Data).Msg("Ignoring malformed callback")
		return c.Respond(&tele.CallbackResponse{Text: "❌ Unknown button"})
	}

	accountID := AccountID(sender)
	res, err := h.engine.StepSession(ctx, accountID, action.SessionID, action.Game())
	if errors.Is(err, service.ErrStaleSession) || errors.Is(err, service.ErrSessionNotFound) {
		return c.Respond(&tele.CallbackResponse{Text: gameOver})
	}
	if err != nil {
		logUnexpected(err, accountID, string(action.Kind))
		return c.Respond(&tele.CallbackResponse{Text: userMessage(err, h.engine.MinBet())})
	}

	_ = c.Respond()
	if res.Outcome != nil {
		return c.Edit(RenderOutcome(res.Outcome))
	}
	return c.Edit(RenderSnapshot(res.Snapshot, time.Now()), Keyboard(res.Snapshot))
}

func (h *GameHandler) reply(c tele.Context, res *service.Result) error {
	if res.Outcome != nil {
		return c.Reply(RenderOutcome(res.Outcome))
	}
	return c.Reply(RenderSnapshot(res.Snapshot, time.Now()), Keyboard(res.Snapshot))
}

func (h *GameHandler) usage(variant string) string {
	g, ok := h.engine.Games().Get(variant)
	if !ok {
		return "❌ Unknown game"
	}
	extra := ""
	if variant == "mines" {
		extra = " [5|7|12]"
	}
	return fmt.Sprintf("🎮 %s\n%s\n\nUsage: /%s <amount|all>%s\nMinimum bet: %s",
		g.Name(), g.Description(), variant, extra, amount.Format(h.engine.MinBet()))
}

// logUnexpected logs errors that are not ordinary player mistakes.
func logUnexpected(err error, accountID, op string) {
	if userMessage(err, 0) != genericError {
		return
	}
	log.Error().Err(err).Str("account_id", accountID).Str("op", op).Msg("Game operation failed")
}
