// Package blackjack implements single-hand blackjack against a dealer who
// draws to 17.
package blackjack

import (
	"fmt"

	"github.com/shopspring/decimal"

	"wager-bot/internal/game"
)

const (
	phasePlayer   = "player_turn"
	phaseDealer   = "dealer_turn"
	phaseResolved = "resolved"

	dealerStandsOn = 17
	blackjack      = 21
)

var (
	winMultiplier     = decimal.NewFromInt(2)
	naturalMultiplier = decimal.RequireFromString("2.5")
)

// Blackjack is the blackjack variant.
type Blackjack struct{}

// New creates the blackjack variant.
func New() *Blackjack {
	return &Blackjack{}
}

func (b *Blackjack) Name() string    { return "Blackjack" }
func (b *Blackjack) Command() string { return "blackjack" }
func (b *Blackjack) Description() string {
	return "Beat the dealer without going over 21. Wins pay 2x, a natural pays 2.5x."
}

// Start shuffles a fresh deck and deals two cards each. A natural 21 for the
// player settles immediately.
func (b *Blackjack) Start(bet int64, _ game.Options, rng game.Rand) (game.State, error) {
	if bet <= 0 {
		return nil, game.ErrInvalidBet
	}
	return deal(bet, shuffledDeck(rng)), nil
}

// deal plays the opening from deck, which is consumed from the front.
func deal(bet int64, deck []Card) *State {
	s := &State{bet: bet, deck: deck, phase: phasePlayer}
	s.player = append(s.player, s.draw())
	s.dealer = append(s.dealer, s.draw())
	s.player = append(s.player, s.draw())
	s.dealer = append(s.dealer, s.draw())

	if HandValue(s.player) == blackjack {
		if HandValue(s.dealer) == blackjack {
			s.settle(game.OutcomePush, bet, "Both hold blackjack.")
		} else {
			s.settle(game.OutcomeWin, game.Scale(bet, naturalMultiplier), "Blackjack!")
		}
	}
	return s
}

// State is one blackjack hand.
type State struct {
	bet    int64
	deck   []Card
	player []Card
	dealer []Card
	phase  string
	result *game.Settlement
}

func (s *State) draw() Card {
	c := s.deck[0]
	s.deck = s.deck[1:]
	return c
}

// Step applies hit or stand.
func (s *State) Step(a game.Action) (*game.Settlement, error) {
	if s.phase != phasePlayer {
		return nil, game.ErrInvalidAction
	}

	switch a.Kind {
	case game.ActionHit:
		s.player = append(s.player, s.draw())
		switch v := HandValue(s.player); {
		case v > blackjack:
			s.settle(game.OutcomeLose, 0, fmt.Sprintf("Bust with %d.", v))
			return s.result, nil
		case v == blackjack:
			return s.stand(), nil
		}
		return nil, nil
	case game.ActionStand:
		return s.stand(), nil
	default:
		return nil, game.ErrInvalidAction
	}
}

// stand plays the dealer out and compares hands.
func (s *State) stand() *game.Settlement {
	s.phase = phaseDealer
	for HandValue(s.dealer) < dealerStandsOn {
		s.dealer = append(s.dealer, s.draw())
	}

	p, d := HandValue(s.player), HandValue(s.dealer)
	summary := fmt.Sprintf("You %d, dealer %d.", p, d)
	switch {
	case d > blackjack:
		s.settle(game.OutcomeWin, game.Scale(s.bet, winMultiplier), fmt.Sprintf("Dealer busts with %d.", d))
	case p > d:
		s.settle(game.OutcomeWin, game.Scale(s.bet, winMultiplier), summary)
	case p == d:
		s.settle(game.OutcomePush, s.bet, summary)
	default:
		s.settle(game.OutcomeLose, 0, summary)
	}
	return s.result
}

func (s *State) settle(outcome game.Outcome, payout int64, summary string) {
	s.phase = phaseResolved
	s.result = &game.Settlement{Outcome: outcome, Payout: payout, Summary: summary}
}

func (s *State) Result() *game.Settlement { return s.result }

// View hides the dealer's hole card until the hand is resolved.
func (s *State) View() game.View {
	v := game.View{
		Phase:      s.phase,
		Multiplier: winMultiplier,
		Details: map[string]any{
			"player":       cardStrings(s.player),
			"player_value": HandValue(s.player),
		},
	}
	if s.phase == phasePlayer {
		v.Details["dealer"] = []string{s.dealer[0].String(), "??"}
		v.Details["dealer_value"] = HandValue(s.dealer[:1])
		v.Actions = []game.Action{{Kind: game.ActionHit}, {Kind: game.ActionStand}}
	} else {
		v.Details["dealer"] = cardStrings(s.dealer)
		v.Details["dealer_value"] = HandValue(s.dealer)
	}
	return v
}
