// Package coinflip implements a single 50/50 call paying double on a match.
package coinflip

import (
	"fmt"

	"github.com/shopspring/decimal"

	"wager-bot/internal/game"
)

// Sides.
const (
	Heads = "heads"
	Tails = "tails"
)

const (
	phaseAwaiting = "awaiting_choice"
	phaseResolved = "resolved"
)

var winMultiplier = decimal.NewFromInt(2)

// Coinflip is the coinflip variant.
type Coinflip struct{}

// New creates the coinflip variant.
func New() *Coinflip {
	return &Coinflip{}
}

func (c *Coinflip) Name() string    { return "Coinflip" }
func (c *Coinflip) Command() string { return "coinflip" }
func (c *Coinflip) Description() string {
	return "Call heads or tails. A correct call pays 2x."
}

// Start opens a round awaiting the player's call.
func (c *Coinflip) Start(bet int64, _ game.Options, rng game.Rand) (game.State, error) {
	if bet <= 0 {
		return nil, game.ErrInvalidBet
	}
	return &State{bet: bet, rng: rng}, nil
}

// State is one coinflip round.
type State struct {
	bet    int64
	rng    game.Rand
	pick   string
	side   string
	result *game.Settlement
}

// Step resolves the round on a pick of heads or tails.
func (s *State) Step(a game.Action) (*game.Settlement, error) {
	if s.result != nil || a.Kind != game.ActionPick {
		return nil, game.ErrInvalidAction
	}
	if a.Choice != Heads && a.Choice != Tails {
		return nil, fmt.Errorf("%w: unknown side %q", game.ErrInvalidAction, a.Choice)
	}

	side := Heads
	if s.rng.Intn(2) == 1 {
		side = Tails
	}
	s.pick, s.side = a.Choice, side

	if side == a.Choice {
		s.result = &game.Settlement{
			Outcome: game.OutcomeWin,
			Payout:  game.Double(s.bet),
			Summary: fmt.Sprintf("The coin landed %s.", side),
		}
	} else {
		s.result = &game.Settlement{
			Outcome: game.OutcomeLose,
			Summary: fmt.Sprintf("The coin landed %s.", side),
		}
	}
	return s.result, nil
}

func (s *State) Result() *game.Settlement { return s.result }

func (s *State) View() game.View {
	if s.result != nil {
		return game.View{
			Phase:      phaseResolved,
			Multiplier: winMultiplier,
			Details:    map[string]any{"pick": s.pick, "side": s.side},
		}
	}
	return game.View{
		Phase:      phaseAwaiting,
		Multiplier: winMultiplier,
		Actions: []game.Action{
			{Kind: game.ActionPick, Choice: Heads},
			{Kind: game.ActionPick, Choice: Tails},
		},
	}
}
