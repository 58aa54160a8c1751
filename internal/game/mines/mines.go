// Package mines implements a 5x5 board where each safe reveal raises the
// cashout multiplier and a bomb loses the bet.
package mines

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"wager-bot/internal/game"
)

// Cells is the board size.
const Cells = 25

// DefaultBombs is used when no bomb count is given.
const DefaultBombs = 5

const (
	phaseInProgress = "in_progress"
	phaseBusted     = "busted"
	phaseCashedOut  = "cashed_out"
)

// maxMultipliers maps each allowed bomb count to the multiplier reached when
// every safe cell is revealed.
var maxMultipliers = map[int]decimal.Decimal{
	5:  decimal.RequireFromString("1.5"),
	7:  decimal.RequireFromString("2.0"),
	12: decimal.RequireFromString("3.0"),
}

// BombCounts returns the allowed bomb counts in ascending order.
func BombCounts() []int {
	counts := make([]int, 0, len(maxMultipliers))
	for n := range maxMultipliers {
		counts = append(counts, n)
	}
	sort.Ints(counts)
	return counts
}

// Mines is the mines variant.
type Mines struct{}

// New creates the mines variant.
func New() *Mines {
	return &Mines{}
}

func (m *Mines) Name() string    { return "Mines" }
func (m *Mines) Command() string { return "mines" }
func (m *Mines) Description() string {
	return "Reveal safe cells to grow the multiplier; cash out before hitting a bomb. 5, 7 or 12 bombs."
}

// Start places the bombs.
func (m *Mines) Start(bet int64, opts game.Options, rng game.Rand) (game.State, error) {
	if bet <= 0 {
		return nil, game.ErrInvalidBet
	}
	bombs := opts.Bombs
	if bombs == 0 {
		bombs = DefaultBombs
	}
	top, ok := maxMultipliers[bombs]
	if !ok {
		return nil, fmt.Errorf("%w: bombs must be one of %v", game.ErrInvalidOptions, BombCounts())
	}

	s := &State{
		bet:      bet,
		bombs:    bombs,
		top:      top,
		bomb:     make(map[int]bool, bombs),
		revealed: make(map[int]bool),
		phase:    phaseInProgress,
	}
	for _, cell := range game.Perm(rng, Cells)[:bombs] {
		s.bomb[cell] = true
	}
	return s, nil
}

// State is one mines board.
type State struct {
	bet      int64
	bombs    int
	top      decimal.Decimal
	bomb     map[int]bool
	revealed map[int]bool
	hit      int
	phase    string
	result   *game.Settlement
}

func (s *State) safeCells() int { return Cells - s.bombs }

// Multiplier is 1 + (max-1) × revealed / safeCells.
func (s *State) Multiplier() decimal.Decimal {
	safe := decimal.NewFromInt(int64(s.safeCells()))
	return s.scaled(decimal.NewFromInt(1)).Div(safe)
}

// scaled returns x × (safeCells + (max-1) × revealed), the multiplier numerator.
func (s *State) scaled(x decimal.Decimal) decimal.Decimal {
	safe := decimal.NewFromInt(int64(s.safeCells()))
	gained := s.top.Sub(decimal.NewFromInt(1)).Mul(decimal.NewFromInt(int64(len(s.revealed))))
	return x.Mul(safe.Add(gained))
}

// cashValue is floor(bet × multiplier), computed without rounding the multiplier.
func (s *State) cashValue() int64 {
	q, _ := s.scaled(decimal.NewFromInt(s.bet)).QuoRem(decimal.NewFromInt(int64(s.safeCells())), 0)
	return game.Scale(1, q)
}

// Step reveals a cell or cashes out.
func (s *State) Step(a game.Action) (*game.Settlement, error) {
	if s.result != nil {
		return nil, game.ErrInvalidAction
	}

	switch a.Kind {
	case game.ActionReveal:
		if a.Index < 0 || a.Index >= Cells || s.revealed[a.Index] {
			return nil, fmt.Errorf("%w: cell %d", game.ErrInvalidCellOrTile, a.Index)
		}
		if s.bomb[a.Index] {
			s.hit = a.Index
			s.phase = phaseBusted
			s.result = &game.Settlement{
				Outcome: game.OutcomeLose,
				Summary: fmt.Sprintf("Bomb at cell %d.", a.Index+1),
			}
			return s.result, nil
		}
		s.revealed[a.Index] = true
		if len(s.revealed) == s.safeCells() {
			s.phase = phaseCashedOut
			s.result = &game.Settlement{
				Outcome: game.OutcomeWin,
				Payout:  s.cashValue(),
				Summary: fmt.Sprintf("Board cleared at %sx.", s.top.StringFixed(2)),
			}
			return s.result, nil
		}
		return nil, nil
	case game.ActionCashout:
		if len(s.revealed) == 0 {
			return nil, fmt.Errorf("%w: reveal a cell before cashing out", game.ErrInvalidAction)
		}
		s.phase = phaseCashedOut
		s.result = &game.Settlement{
			Outcome: game.OutcomeCashout,
			Payout:  s.cashValue(),
			Summary: fmt.Sprintf("Cashed out at %sx.", s.Multiplier().Truncate(2).StringFixed(2)),
		}
		return s.result, nil
	default:
		return nil, game.ErrInvalidAction
	}
}

func (s *State) Result() *game.Settlement { return s.result }

// View lists revealed cells, and all bombs once the board is finished.
func (s *State) View() game.View {
	v := game.View{
		Phase:      s.phase,
		Multiplier: s.Multiplier(),
		Level:      len(s.revealed),
		Details: map[string]any{
			"cells":    Cells,
			"bombs":    s.bombs,
			"revealed": sortedKeys(s.revealed),
			"next":     s.cashValue(),
		},
	}
	if s.result != nil {
		v.Details["bomb_cells"] = sortedKeys(s.bomb)
		if s.phase == phaseBusted {
			v.Details["hit"] = s.hit
		}
		return v
	}
	for i := 0; i < Cells; i++ {
		if !s.revealed[i] {
			v.Actions = append(v.Actions, game.Action{Kind: game.ActionReveal, Index: i})
		}
	}
	if len(s.revealed) > 0 {
		v.Actions = append(v.Actions, game.Action{Kind: game.ActionCashout})
	}
	return v
}

func sortedKeys(m map[int]bool) []int {
	out := make([]int, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}
