package session

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func newSession(account string) *Session {
	return New(account, "coinflip", 100, nil, time.Now())
}

func TestRegistry_TryCreate(t *testing.T) {
	r := NewRegistry()
	first := newSession("a")
	require.NoError(t, r.TryCreate(first))

	err := r.TryCreate(newSession("a"))
	assert.ErrorIs(t, err, ErrSessionAlreadyActive)

	got, ok := r.Get("a")
	require.True(t, ok)
	assert.Equal(t, first.ID, got.ID, "the original session is kept")

	require.NoError(t, r.TryCreate(newSession("b")))
	assert.Equal(t, 2, r.Count())
}

func TestRegistry_Clear(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.TryCreate(newSession("a")))

	r.Clear("a")
	r.Clear("a")
	_, ok := r.Get("a")
	assert.False(t, ok)
	assert.Zero(t, r.Count())
}

func TestRegistry_ClearIf(t *testing.T) {
	r := NewRegistry()
	old := newSession("a")
	require.NoError(t, r.TryCreate(old))
	r.Clear("a")

	current := newSession("a")
	require.NoError(t, r.TryCreate(current))

	assert.False(t, r.ClearIf("a", old.ID), "a stale id does not clear the new session")
	assert.True(t, r.ClearIf("a", current.ID))
	assert.False(t, r.ClearIf("a", current.ID))
}

func TestRegistry_List(t *testing.T) {
	r := NewRegistry()
	base := time.Now()
	for i, id := range []string{"c", "a", "b"} {
		s := New(id, "tower", 10, nil, base.Add(time.Duration(i)*time.Second))
		require.NoError(t, r.TryCreate(s))
	}
	list := r.List()
	require.Len(t, list, 3)
	assert.Equal(t, "c", list[0].AccountID)
	assert.Equal(t, "b", list[2].AccountID)
}

func TestNew(t *testing.T) {
	now := time.Now()
	s := New("a", "mines", 500, nil, now)
	assert.NotEmpty(t, s.ID)
	assert.Equal(t, now, s.CreatedAt)
	assert.NotEqual(t, s.ID, New("a", "mines", 500, nil, now).ID)
}

// TestRegistry_OneSessionProperty checks that concurrent creates for the same
// account admit exactly one winner.
func TestRegistry_OneSessionProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		accounts := rapid.IntRange(1, 5).Draw(t, "accounts")
		attempts := rapid.IntRange(2, 20).Draw(t, "attempts")

		r := NewRegistry()
		var wins atomic.Int32
		var wg sync.WaitGroup
		for a := 0; a < accounts; a++ {
			for i := 0; i < attempts; i++ {
				wg.Add(1)
				go func(id string) {
					defer wg.Done()
					if r.TryCreate(newSession(id)) == nil {
						wins.Add(1)
					}
				}(fmt.Sprintf("acct-%d", a))
			}
		}
		wg.Wait()

		if int(wins.Load()) != accounts || r.Count() != accounts {
			t.Fatalf("expected %d sessions, got %d wins and %d registered", accounts, wins.Load(), r.Count())
		}
	})
}
