package mines

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"wager-bot/internal/game"
)

// board starts a round and moves the bombs onto cells.
func board(t require.TestingT, bet int64, bombs int, cells ...int) *State {
	st, err := New().Start(bet, game.Options{Bombs: bombs}, game.NewRand(1))
	require.NoError(t, err)
	s := st.(*State)
	s.bomb = make(map[int]bool, len(cells))
	for _, c := range cells {
		s.bomb[c] = true
	}
	return s
}

func reveal(i int) game.Action { return game.Action{Kind: game.ActionReveal, Index: i} }

func TestMines_StartOptions(t *testing.T) {
	for _, n := range []int{0, 5, 7, 12} {
		st, err := New().Start(100, game.Options{Bombs: n}, game.NewRand(3))
		require.NoError(t, err)
		want := n
		if n == 0 {
			want = DefaultBombs
		}
		assert.Len(t, st.(*State).bomb, want)
	}

	_, err := New().Start(100, game.Options{Bombs: 6}, game.NewRand(3))
	assert.ErrorIs(t, err, game.ErrInvalidOptions)
	_, err = New().Start(-1, game.Options{}, game.NewRand(3))
	assert.ErrorIs(t, err, game.ErrInvalidBet)
}

func TestMines_FullClearReachesMaximum(t *testing.T) {
	tests := []struct {
		bombs int
		max   string
	}{
		{5, "1.5"},
		{7, "2"},
		{12, "3"},
	}
	for _, tt := range tests {
		bombCells := make([]int, tt.bombs)
		for i := range bombCells {
			bombCells[i] = Cells - 1 - i
		}
		s := board(t, 1000, tt.bombs, bombCells...)

		var res *game.Settlement
		for i := 0; i < Cells-tt.bombs; i++ {
			var err error
			res, err = s.Step(reveal(i))
			require.NoError(t, err)
			if i < Cells-tt.bombs-1 {
				require.Nil(t, res)
			}
		}
		require.NotNil(t, res, "clearing the board settles")
		assert.True(t, decimal.RequireFromString(tt.max).Equal(s.Multiplier()), "bombs=%d multiplier=%s", tt.bombs, s.Multiplier())
		assert.Equal(t, decimal.RequireFromString(tt.max).Mul(decimal.NewFromInt(1000)).IntPart(), res.Payout)
	}
}

func TestMines_BombLoses(t *testing.T) {
	s := board(t, 500, 5, 3, 4, 5, 6, 7)
	res, err := s.Step(reveal(0))
	require.NoError(t, err)
	assert.Nil(t, res)

	res, err = s.Step(reveal(4))
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, game.OutcomeLose, res.Outcome)
	assert.Zero(t, res.Payout)
	assert.Equal(t, phaseBusted, s.View().Phase)
	assert.Equal(t, 4, s.View().Details["hit"])

	_, err = s.Step(reveal(1))
	assert.ErrorIs(t, err, game.ErrInvalidAction)
}

func TestMines_InvalidCells(t *testing.T) {
	s := board(t, 100, 5, 20, 21, 22, 23, 24)
	_, err := s.Step(reveal(2))
	require.NoError(t, err)
	before := s.Multiplier()

	for _, cell := range []int{-1, Cells, 2} {
		_, err := s.Step(reveal(cell))
		assert.ErrorIs(t, err, game.ErrInvalidCellOrTile, "cell %d", cell)
	}
	assert.True(t, before.Equal(s.Multiplier()), "rejected reveals leave the board unchanged")
	assert.Len(t, s.revealed, 1)
}

func TestMines_Cashout(t *testing.T) {
	s := board(t, 1000, 5, 20, 21, 22, 23, 24)

	_, err := s.Step(game.Action{Kind: game.ActionCashout})
	assert.ErrorIs(t, err, game.ErrInvalidAction, "cashout needs a revealed cell")

	for i := 0; i < 4; i++ {
		_, err := s.Step(reveal(i))
		require.NoError(t, err)
	}
	// 1 + 0.5 × 4/20 = 1.1
	assert.True(t, decimal.RequireFromString("1.1").Equal(s.Multiplier()))

	res, err := s.Step(game.Action{Kind: game.ActionCashout})
	require.NoError(t, err)
	assert.Equal(t, game.OutcomeCashout, res.Outcome)
	assert.Equal(t, int64(1100), res.Payout)
	assert.Empty(t, s.View().Actions)
}

func TestMines_CashoutFloors(t *testing.T) {
	// 7 bombs: 1 + 1 × 1/18, so 100 × 19/18 = 105.55...
	s := board(t, 100, 7, 18, 19, 20, 21, 22, 23, 24)
	_, err := s.Step(reveal(0))
	require.NoError(t, err)
	res, err := s.Step(game.Action{Kind: game.ActionCashout})
	require.NoError(t, err)
	assert.Equal(t, int64(105), res.Payout)
}

func TestMines_ViewActions(t *testing.T) {
	s := board(t, 100, 5, 20, 21, 22, 23, 24)
	assert.Len(t, s.View().Actions, Cells, "no cashout before the first reveal")

	_, err := s.Step(reveal(0))
	require.NoError(t, err)
	v := s.View()
	assert.Len(t, v.Actions, Cells)
	assert.Equal(t, game.ActionCashout, v.Actions[len(v.Actions)-1].Kind)
	assert.Equal(t, []int{0}, v.Details["revealed"])
}

// TestMines_MultiplierMonotonicProperty checks that the multiplier only grows,
// stays within [1, max] and that cashout never pays below the bet.
func TestMines_MultiplierMonotonicProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		bombs := rapid.SampledFrom(BombCounts()).Draw(t, "bombs")
		bet := rapid.Int64Range(1, 1<<40).Draw(t, "bet")
		seed := rapid.Int64().Draw(t, "seed")

		st, err := New().Start(bet, game.Options{Bombs: bombs}, game.NewRand(seed))
		if err != nil {
			t.Fatal(err)
		}
		s := st.(*State)
		prev := s.Multiplier()
		order := rapid.Permutation(cellRange()).Draw(t, "order")

		for _, cell := range order {
			res, err := s.Step(reveal(cell))
			if err != nil {
				t.Fatal(err)
			}
			m := s.Multiplier()
			if m.LessThan(prev) || m.GreaterThan(maxMultipliers[bombs]) {
				t.Fatalf("multiplier %s after %s", m, prev)
			}
			prev = m
			if res != nil {
				if s.bomb[cell] && res.Payout != 0 {
					t.Fatalf("bomb paid %d", res.Payout)
				}
				if !s.bomb[cell] && res.Payout < bet {
					t.Fatalf("clear paid %d for bet %d", res.Payout, bet)
				}
				return
			}
			if s.cashValue() < bet {
				t.Fatalf("cash value %d below bet %d", s.cashValue(), bet)
			}
		}
		t.Fatal("board never settled")
	})
}

func cellRange() []int {
	cells := make([]int, Cells)
	for i := range cells {
		cells[i] = i
	}
	return cells
}
