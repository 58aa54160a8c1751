package handler

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"wager-bot/internal/game"
)

// ErrBadCallback is returned for callback data that is not a valid Action.
var ErrBadCallback = errors.New("bad callback data")

// callbackUnique is the telebot route for game buttons.
const callbackUnique = "act"

// noopData marks buttons that only display state.
const noopData = "noop"

// maxIndex bounds cell and tile indexes accepted from callbacks.
const maxIndex = 99

var knownKinds = map[game.ActionKind]bool{
	game.ActionPick:    true,
	game.ActionHit:     true,
	game.ActionStand:   true,
	game.ActionReveal:  true,
	game.ActionGuess:   true,
	game.ActionChoose:  true,
	game.ActionCashout: true,
}

// Action is a game button press. SessionID pins the button to the session it
// was rendered for so a stale keyboard cannot drive a newer one. The account
// always comes from the sender, never from here.
type Action struct {
	Kind      game.ActionKind
	SessionID string
	Choice    string
	Index     int
}

// Encode renders a as callback data: kind|choice|index|session.
func (a Action) Encode() string {
	return strings.Join([]string{string(a.Kind), a.Choice, strconv.Itoa(a.Index), a.SessionID}, "|")
}

// Game returns the engine action.
func (a Action) Game() game.Action {
	return game.Action{Kind: a.Kind, Choice: a.Choice, Index: a.Index}
}

// DecodeAction parses and validates callback data produced by Encode.
func DecodeAction(data string) (Action, error) {
	parts := strings.Split(data, "|")
	if len(parts) != 4 {
		return Action{}, fmt.Errorf("%w: %q", ErrBadCallback, data)
	}

	a := Action{Kind: game.ActionKind(parts[0]), Choice: parts[1], SessionID: parts[3]}
	if !knownKinds[a.Kind] {
		return Action{}, fmt.Errorf("%w: %q", ErrBadCallback, data)
	}
	if _, err := uuid.Parse(a.SessionID); err != nil {
		return Action{}, fmt.Errorf("%w: session %q", ErrBadCallback, a.SessionID)
	}
	idx, err := strconv.Atoi(parts[2])
	if err != nil || idx < 0 || idx > maxIndex {
		return Action{}, fmt.Errorf("%w: index %q", ErrBadCallback, parts[2])
	}
	a.Index = idx
	return a, nil
}

// callbackPayload strips telebot's "\f<unique>|" prefix, if present.
func callbackPayload(data string) string {
	data = strings.TrimPrefix(data, "\f")
	return strings.TrimPrefix(data, callbackUnique+"|")
}
