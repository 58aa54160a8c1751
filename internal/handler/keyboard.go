package handler

import (
	"fmt"
	"strings"

	tele "gopkg.in/telebot.v3"

	"wager-bot/internal/game"
	"wager-bot/internal/game/mines"
	"wager-bot/internal/game/tower"
	"wager-bot/internal/service"
)

const minesRowWidth = 5

// Keyboard builds the inline keyboard for a live session.
func Keyboard(snap *service.Snapshot) *tele.ReplyMarkup {
	m := &tele.ReplyMarkup{}
	if snap == nil {
		return m
	}

	var rows []tele.Row
	switch snap.Variant {
	case "mines":
		rows = minesRows(m, snap)
	case "tower":
		rows = towerRows(m, snap)
	default:
		var row tele.Row
		for _, a := range snap.View.Actions {
			row = append(row, actionBtn(m, snap.SessionID, a))
		}
		rows = append(rows, row)
	}
	m.Inline(rows...)
	return m
}

// minesRows lays the board out as a 5x5 grid with revealed cells disabled.
func minesRows(m *tele.ReplyMarkup, snap *service.Snapshot) []tele.Row {
	revealed := make(map[int]bool)
	if cells, ok := snap.View.Details["revealed"].([]int); ok {
		for _, c := range cells {
			revealed[c] = true
		}
	}

	var rows []tele.Row
	var row tele.Row
	for i := 0; i < mines.Cells; i++ {
		if revealed[i] {
			row = append(row, m.Data("💎", callbackUnique, noopData))
		} else {
			row = append(row, actionBtn(m, snap.SessionID, game.Action{Kind: game.ActionReveal, Index: i}))
		}
		if len(row) == minesRowWidth {
			rows = append(rows, row)
			row = nil
		}
	}
	if hasAction(snap.View.Actions, game.ActionCashout) {
		rows = append(rows, m.Row(actionBtn(m, snap.SessionID, game.Action{Kind: game.ActionCashout})))
	}
	return rows
}

func towerRows(m *tele.ReplyMarkup, snap *service.Snapshot) []tele.Row {
	var tiles tele.Row
	for i := 0; i < tower.Tiles; i++ {
		tiles = append(tiles, actionBtn(m, snap.SessionID, game.Action{Kind: game.ActionChoose, Index: i}))
	}
	rows := []tele.Row{tiles}
	if hasAction(snap.View.Actions, game.ActionCashout) {
		rows = append(rows, m.Row(actionBtn(m, snap.SessionID, game.Action{Kind: game.ActionCashout})))
	}
	return rows
}

func actionBtn(m *tele.ReplyMarkup, sessionID string, a game.Action) tele.Btn {
	data := Action{Kind: a.Kind, SessionID: sessionID, Choice: a.Choice, Index: a.Index}.Encode()
	return m.Data(buttonLabel(a), callbackUnique, data)
}

func buttonLabel(a game.Action) string {
	switch a.Kind {
	case game.ActionPick, game.ActionGuess:
		return strings.ToUpper(a.Choice[:1]) + a.Choice[1:]
	case game.ActionHit:
		return "Hit"
	case game.ActionStand:
		return "Stand"
	case game.ActionReveal:
		return "⬜"
	case game.ActionChoose:
		return fmt.Sprintf("Tile %d", a.Index+1)
	case game.ActionCashout:
		return "💰 Cash out"
	default:
		return string(a.Kind)
	}
}

func hasAction(actions []game.Action, kind game.ActionKind) bool {
	for _, a := range actions {
		if a.Kind == kind {
			return true
		}
	}
	return false
}
