package handler

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"wager-bot/internal/amount"
	"wager-bot/internal/game"
	"wager-bot/internal/ledger"
	"wager-bot/internal/pkg/lock"
	"wager-bot/internal/service"
	"wager-bot/internal/session"
)

// RenderSnapshot describes a live session.
func RenderSnapshot(snap *service.Snapshot, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🎮 %s | Bet: %s\n", title(snap.Variant), amount.Format(snap.Bet))
	b.WriteString("━━━━━━━━━━━━━━━\n")
	writeDetails(&b, snap.Variant, snap.View)
	if snap.SettlementPending {
		b.WriteString("⏳ Payout pending, press any button to retry.\n")
	}
	if left := snap.Deadline.Sub(now).Round(time.Second); left > 0 {
		fmt.Fprintf(&b, "⏱ Expires in %s", left)
	}
	return strings.TrimRight(b.String(), "\n")
}

// RenderOutcome describes a finished session.
func RenderOutcome(out *service.Outcome) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🎮 %s | Bet: %s\n", title(out.Variant), amount.Format(out.Bet))
	b.WriteString("━━━━━━━━━━━━━━━\n")
	writeDetails(&b, out.Variant, out.View)
	if out.Settlement.Summary != "" {
		b.WriteString(out.Settlement.Summary + "\n")
	}

	switch {
	case out.Refunded:
		fmt.Fprintf(&b, "⌛ Timed out, %s refunded.\n", amount.Format(out.Bet))
	case out.Settlement.Outcome == game.OutcomePush:
		fmt.Fprintf(&b, "😐 Push, %s returned.\n", amount.Format(out.Settlement.Payout))
	case out.Settlement.Payout > 0:
		fmt.Fprintf(&b, "🎉 You won %s!\n", amount.Format(out.Settlement.Payout))
	default:
		fmt.Fprintf(&b, "😢 You lost %s.\n", amount.Format(out.Bet))
	}
	fmt.Fprintf(&b, "💰 Balance: %s", amount.Format(out.Balance))
	return b.String()
}

func writeDetails(b *strings.Builder, variant string, v game.View) {
	d := v.Details
	switch variant {
	case "blackjack":
		fmt.Fprintf(b, "You: %s (%v)\n", joinCards(d["player"]), d["player_value"])
		fmt.Fprintf(b, "Dealer: %s (%v)\n", joinCards(d["dealer"]), d["dealer_value"])
	case "mines":
		fmt.Fprintf(b, "💣 %v bombs | 💎 %d revealed | %sx\n", d["bombs"], v.Level, v.Multiplier.Truncate(2).StringFixed(2))
		if bombs, ok := d["bomb_cells"].([]int); ok {
			b.WriteString(minesGrid(d["revealed"], bombs) + "\n")
		}
	case "tower":
		fmt.Fprintf(b, "🗼 Level %d/%v | %sx\n", v.Level, d["levels"], v.Multiplier.StringFixed(2))
	case "higherlower":
		fmt.Fprintf(b, "Current number: %v\n", d["current"])
		if next, ok := d["next"]; ok {
			fmt.Fprintf(b, "Next number: %v\n", next)
		}
	case "coinflip":
		if side, ok := d["side"]; ok {
			fmt.Fprintf(b, "You called %v, the coin shows %v.\n", d["pick"], side)
		} else {
			b.WriteString("Call it: heads or tails?\n")
		}
	}
}

// minesGrid draws the finished board.
func minesGrid(revealed any, bombs []int) string {
	cells := make([]string, 25)
	for i := range cells {
		cells[i] = "⬜"
	}
	if r, ok := revealed.([]int); ok {
		for _, c := range r {
			cells[c] = "💎"
		}
	}
	for _, c := range bombs {
		cells[c] = "💣"
	}
	var rows []string
	for i := 0; i < len(cells); i += minesRowWidth {
		rows = append(rows, strings.Join(cells[i:i+minesRowWidth], ""))
	}
	return strings.Join(rows, "\n")
}

func joinCards(v any) string {
	cards, _ := v.([]string)
	return strings.Join(cards, " ")
}

func title(variant string) string {
	switch variant {
	case "higherlower":
		return "Higher or Lower"
	case "":
		return ""
	default:
		return strings.ToUpper(variant[:1]) + variant[1:]
	}
}

const (
	genericError = "❌ Something went wrong, please try again later"
	gameOver     = "❌ This game is over"
)

// userMessage maps engine errors to replies. Unknown errors get a generic reply.
func userMessage(err error, minBet int64) string {
	switch {
	case errors.Is(err, ledger.ErrInsufficientBalance):
		return "❌ Insufficient balance"
	case errors.Is(err, service.ErrBelowMinimumBet):
		return fmt.Sprintf("❌ Minimum bet is %s", amount.Format(minBet))
	case errors.Is(err, session.ErrSessionAlreadyActive):
		return "❌ You already have a game running. Use /game to see it."
	case errors.Is(err, service.ErrSessionNotFound):
		return "❌ No active game"
	case errors.Is(err, service.ErrStaleSession):
		return gameOver
	case errors.Is(err, service.ErrActionInProgress):
		return "⏳ Still processing your last move"
	case errors.Is(err, lock.ErrLockTimeout):
		return "⏳ Busy, try again in a moment"
	case errors.Is(err, game.ErrInvalidCellOrTile):
		return "❌ That cell or tile is not available"
	case errors.Is(err, game.ErrInvalidAction):
		return "❌ That move is not allowed right now"
	case errors.Is(err, game.ErrInvalidOptions):
		return "❌ " + err.Error()
	case errors.Is(err, amount.ErrMalformedAmount):
		return "❌ Invalid amount. Examples: 500, 2.5K, 1M, all"
	case errors.Is(err, game.ErrUnknownGame):
		return "❌ Unknown game"
	case errors.Is(err, ledger.ErrInvalidAmount):
		return "❌ Amount must be positive"
	case errors.Is(err, service.ErrUnknownTxType):
		return "❌ Unknown type. Use bet, payout, refund, grant, admin_add, admin_sub or admin_set"
	case errors.Is(err, ledger.ErrBalanceOverflow):
		return "❌ Balance limit reached"
	default:
		return genericError
	}
}
