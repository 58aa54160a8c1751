// Package higherlower implements a one-shot guess of whether the next number
// is higher or lower than the one shown. Ties lose.
package higherlower

import (
	"fmt"

	"github.com/shopspring/decimal"

	"wager-bot/internal/game"
)

// Guesses.
const (
	Higher = "higher"
	Lower  = "lower"
)

// Numbers are drawn uniformly from [MinNumber, MaxNumber].
const (
	MinNumber = 1
	MaxNumber = 100
)

const (
	phaseGuessing = "guessing"
	phaseResolved = "resolved"
)

var winMultiplier = decimal.NewFromInt(2)

// HigherLower is the higher/lower variant.
type HigherLower struct{}

// New creates the higher/lower variant.
func New() *HigherLower {
	return &HigherLower{}
}

func (h *HigherLower) Name() string    { return "Higher or Lower" }
func (h *HigherLower) Command() string { return "higherlower" }
func (h *HigherLower) Description() string {
	return fmt.Sprintf("Guess if the next number (%d-%d) is higher or lower. Ties lose, wins pay 2x.", MinNumber, MaxNumber)
}

// Start draws the number shown to the player.
func (h *HigherLower) Start(bet int64, _ game.Options, rng game.Rand) (game.State, error) {
	if bet <= 0 {
		return nil, game.ErrInvalidBet
	}
	return &State{bet: bet, rng: rng, current: drawNumber(rng)}, nil
}

func drawNumber(rng game.Rand) int {
	return MinNumber + rng.Intn(MaxNumber-MinNumber+1)
}

// State is one higher/lower round.
type State struct {
	bet     int64
	rng     game.Rand
	current int
	next    int
	guess   string
	result  *game.Settlement
}

// Step draws the comparison number and settles.
func (s *State) Step(a game.Action) (*game.Settlement, error) {
	if s.result != nil || a.Kind != game.ActionGuess {
		return nil, game.ErrInvalidAction
	}
	if a.Choice != Higher && a.Choice != Lower {
		return nil, fmt.Errorf("%w: unknown guess %q", game.ErrInvalidAction, a.Choice)
	}

	s.guess = a.Choice
	s.next = drawNumber(s.rng)
	won := (a.Choice == Higher && s.next > s.current) || (a.Choice == Lower && s.next < s.current)

	summary := fmt.Sprintf("%d then %d.", s.current, s.next)
	if won {
		s.result = &game.Settlement{Outcome: game.OutcomeWin, Payout: game.Double(s.bet), Summary: summary}
	} else {
		s.result = &game.Settlement{Outcome: game.OutcomeLose, Summary: summary}
	}
	return s.result, nil
}

func (s *State) Result() *game.Settlement { return s.result }

func (s *State) View() game.View {
	v := game.View{
		Phase:      phaseGuessing,
		Multiplier: winMultiplier,
		Details:    map[string]any{"current": s.current},
	}
	if s.result != nil {
		v.Phase = phaseResolved
		v.Details["next"] = s.next
		v.Details["guess"] = s.guess
		return v
	}
	v.Actions = []game.Action{
		{Kind: game.ActionGuess, Choice: Higher},
		{Kind: game.ActionGuess, Choice: Lower},
	}
	return v
}
