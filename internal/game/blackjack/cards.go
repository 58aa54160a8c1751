package blackjack

import "wager-bot/internal/game"

// Card is a playing card.
type Card struct {
	Rank string `json:"rank"`
	Suit string `json:"suit"`
}

// String returns e.g. "♠A" or "♦10".
func (c Card) String() string {
	return c.Suit + c.Rank
}

var (
	suits = []string{"♦", "♥", "♠", "♣"}
	ranks = []string{"2", "3", "4", "5", "6", "7", "8", "9", "10", "J", "Q", "K", "A"}
)

// newDeck returns all 52 cards in rank-major order.
func newDeck() []Card {
	deck := make([]Card, 0, len(ranks)*len(suits))
	for _, r := range ranks {
		for _, s := range suits {
			deck = append(deck, Card{Rank: r, Suit: s})
		}
	}
	return deck
}

// shuffledDeck returns a uniformly shuffled 52-card deck.
func shuffledDeck(rng game.Rand) []Card {
	ordered := newDeck()
	perm := game.Perm(rng, len(ordered))
	deck := make([]Card, len(ordered))
	for i, p := range perm {
		deck[i] = ordered[p]
	}
	return deck
}

// cardValue counts an ace as 11.
func cardValue(rank string) int {
	switch rank {
	case "A":
		return 11
	case "J", "Q", "K", "10":
		return 10
	default:
		return int(rank[0] - '0')
	}
}

// HandValue sums a hand, demoting aces from 11 to 1 while the total exceeds 21.
func HandValue(cards []Card) int {
	total, aces := 0, 0
	for _, c := range cards {
		total += cardValue(c.Rank)
		if c.Rank == "A" {
			aces++
		}
	}
	for total > 21 && aces > 0 {
		total -= 10
		aces--
	}
	return total
}

func cardStrings(cards []Card) []string {
	out := make([]string, len(cards))
	for i, c := range cards {
		out[i] = c.String()
	}
	return out
}
