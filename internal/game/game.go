// Package game defines the contract shared by every wagering variant and the
// registry the engine looks variants up in.
//
// A Game is stateless; Start produces a State that owns one round. States are
// not safe for concurrent use. The engine serializes access per account.
package game

import (
	"errors"
	"math"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidAction is returned for an action the current phase does not accept.
	ErrInvalidAction = errors.New("invalid action")
	// ErrInvalidCellOrTile is returned for an out-of-range or already used cell or tile.
	ErrInvalidCellOrTile = errors.New("invalid cell or tile")
	// ErrUnknownGame is returned when no variant is registered under a command.
	ErrUnknownGame = errors.New("unknown game")
	// ErrInvalidBet is returned by Start for a non-positive bet.
	ErrInvalidBet = errors.New("bet must be positive")
	// ErrInvalidOptions is returned by Start for options the variant cannot use.
	ErrInvalidOptions = errors.New("invalid game options")
)

// ActionKind names a player move.
type ActionKind string

const (
	ActionPick    ActionKind = "pick"    // coinflip side
	ActionHit     ActionKind = "hit"     // blackjack
	ActionStand   ActionKind = "stand"   // blackjack
	ActionReveal  ActionKind = "reveal"  // mines cell
	ActionGuess   ActionKind = "guess"   // higher/lower
	ActionChoose  ActionKind = "choose"  // tower tile
	ActionCashout ActionKind = "cashout" // mines, tower
)

// Action is one player move. Choice carries a named option ("heads", "higher"),
// Index a cell or tile.
type Action struct {
	Kind   ActionKind `json:"kind"`
	Choice string     `json:"choice,omitempty"`
	Index  int        `json:"index,omitempty"`
}

// Outcome classifies a settlement.
type Outcome string

const (
	OutcomeWin     Outcome = "win"
	OutcomeLose    Outcome = "lose"
	OutcomePush    Outcome = "push"
	OutcomeCashout Outcome = "cashout"
)

// Settlement is the terminal result of a round. Payout is the full amount to
// credit back, zero for a loss.
type Settlement struct {
	Outcome Outcome `json:"outcome"`
	Payout  int64   `json:"payout"`
	Summary string  `json:"summary"`
}

// View is a renderable snapshot of a round.
type View struct {
	Phase      string          `json:"phase"`
	Multiplier decimal.Decimal `json:"multiplier"`
	Level      int             `json:"level,omitempty"`
	Details    map[string]any  `json:"details,omitempty"`
	Actions    []Action        `json:"actions"`
}

// Options are variant-specific start parameters. Zero values select defaults.
type Options struct {
	Bombs int
}

// Game is a wagering variant.
type Game interface {
	// Name returns the display name.
	Name() string
	// Command returns the registry key and chat command.
	Command() string
	// Description returns a one-line rule summary.
	Description() string
	// Start deals a new round for bet. The returned state may already be terminal.
	Start(bet int64, opts Options, rng Rand) (State, error)
}

// State is one round in progress.
type State interface {
	// Step applies a. A non-nil settlement means the round just ended.
	// On error the state is unchanged.
	Step(a Action) (*Settlement, error)
	// Result returns the settlement once the round is terminal, nil before.
	Result() *Settlement
	// View renders the current state.
	View() View
}

// Scale returns floor(bet × m), saturating at math.MaxInt64.
func Scale(bet int64, m decimal.Decimal) int64 {
	v := decimal.NewFromInt(bet).Mul(m).Floor()
	if v.GreaterThan(decimal.NewFromInt(math.MaxInt64)) {
		return math.MaxInt64
	}
	return v.IntPart()
}

// Double returns 2×bet, saturating.
func Double(bet int64) int64 {
	if bet > math.MaxInt64/2 {
		return math.MaxInt64
	}
	return bet * 2
}
