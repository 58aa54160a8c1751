// Package tower implements a ten-level climb with one safe tile out of three
// per level. Safe tiles are fixed when the round starts.
package tower

import (
	"fmt"

	"github.com/shopspring/decimal"

	"wager-bot/internal/game"
)

const (
	Levels = 10
	Tiles  = 3
)

const (
	phaseClimbing  = "climbing"
	phaseFailed    = "failed"
	phaseCompleted = "completed"
	phaseCashedOut = "cashed_out"
)

// schedule[level] is the cashout multiplier after clearing level rows.
var schedule = [Levels + 1]decimal.Decimal{
	decimal.RequireFromString("1.00"),
	decimal.RequireFromString("1.45"),
	decimal.RequireFromString("2.10"),
	decimal.RequireFromString("3.05"),
	decimal.RequireFromString("4.40"),
	decimal.RequireFromString("6.40"),
	decimal.RequireFromString("9.25"),
	decimal.RequireFromString("13.40"),
	decimal.RequireFromString("19.50"),
	decimal.RequireFromString("28.25"),
	decimal.RequireFromString("41.00"),
}

// Multiplier returns the schedule entry for level, which must be in [0, Levels].
func Multiplier(level int) decimal.Decimal {
	return schedule[level]
}

// Tower is the tower variant.
type Tower struct{}

// New creates the tower variant.
func New() *Tower {
	return &Tower{}
}

func (t *Tower) Name() string    { return "Tower" }
func (t *Tower) Command() string { return "tower" }
func (t *Tower) Description() string {
	return fmt.Sprintf("Pick the safe tile out of %d on each of %d levels. Cash out any time, the top pays %sx.",
		Tiles, Levels, schedule[Levels].StringFixed(2))
}

// Start picks the safe tile of every level.
func (t *Tower) Start(bet int64, _ game.Options, rng game.Rand) (game.State, error) {
	if bet <= 0 {
		return nil, game.ErrInvalidBet
	}
	s := &State{bet: bet, phase: phaseClimbing}
	for i := range s.safe {
		s.safe[i] = rng.Intn(Tiles)
	}
	return s, nil
}

// State is one climb.
type State struct {
	bet    int64
	safe   [Levels]int
	level  int
	picked int
	phase  string
	result *game.Settlement
}

// Step picks a tile on the current level or cashes out.
func (s *State) Step(a game.Action) (*game.Settlement, error) {
	if s.result != nil {
		return nil, game.ErrInvalidAction
	}

	switch a.Kind {
	case game.ActionChoose:
		if a.Index < 0 || a.Index >= Tiles {
			return nil, fmt.Errorf("%w: tile %d", game.ErrInvalidCellOrTile, a.Index)
		}
		if a.Index != s.safe[s.level] {
			s.picked = a.Index
			s.phase = phaseFailed
			s.result = &game.Settlement{
				Outcome: game.OutcomeLose,
				Summary: fmt.Sprintf("Fell at level %d of %d.", s.level+1, Levels),
			}
			return s.result, nil
		}
		s.level++
		if s.level == Levels {
			s.phase = phaseCompleted
			s.result = &game.Settlement{
				Outcome: game.OutcomeWin,
				Payout:  game.Scale(s.bet, schedule[Levels]),
				Summary: fmt.Sprintf("Reached the top at %sx.", schedule[Levels].StringFixed(2)),
			}
			return s.result, nil
		}
		return nil, nil
	case game.ActionCashout:
		if s.level == 0 {
			return nil, fmt.Errorf("%w: clear a level before cashing out", game.ErrInvalidAction)
		}
		s.phase = phaseCashedOut
		s.result = &game.Settlement{
			Outcome: game.OutcomeCashout,
			Payout:  game.Scale(s.bet, schedule[s.level]),
			Summary: fmt.Sprintf("Cashed out at level %d for %sx.", s.level, schedule[s.level].StringFixed(2)),
		}
		return s.result, nil
	default:
		return nil, game.ErrInvalidAction
	}
}

func (s *State) Result() *game.Settlement { return s.result }

// Level returns the number of levels cleared.
func (s *State) Level() int { return s.level }

func (s *State) View() game.View {
	v := game.View{
		Phase:      s.phase,
		Multiplier: schedule[s.level],
		Level:      s.level,
		Details:    map[string]any{"levels": Levels, "tiles": Tiles},
	}
	if s.result != nil {
		v.Details["safe"] = append([]int(nil), s.safe[:]...)
		if s.phase == phaseFailed {
			v.Details["picked"] = s.picked
		}
		return v
	}
	v.Details["next_multiplier"] = schedule[s.level+1]
	for i := 0; i < Tiles; i++ {
		v.Actions = append(v.Actions, game.Action{Kind: game.ActionChoose, Index: i})
	}
	if s.level > 0 {
		v.Actions = append(v.Actions, game.Action{Kind: game.ActionCashout})
	}
	return v
}
