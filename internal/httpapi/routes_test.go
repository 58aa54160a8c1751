package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wager-bot/internal/game"
	"wager-bot/internal/game/tower"
	"wager-bot/internal/ledger"
	"wager-bot/internal/model"
	"wager-bot/internal/repository"
	"wager-bot/internal/service"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) HealthCheck(ctx context.Context) error { return f(ctx) }

func newEngine(t *testing.T) *service.Engine {
	t.Helper()
	l := ledger.New(repository.NewMemoryStore())
	games, err := game.NewRegistry(tower.New())
	require.NoError(t, err)

	e := service.NewEngine(l, games, game.NewRand(1), service.Config{MinBet: 10, SessionTimeout: time.Minute})
	_, err = l.Credit(context.Background(), "alice", 1000, model.TxTypeGrant, "seed")
	require.NoError(t, err)
	_, err = l.Credit(context.Background(), "bob", 5000, model.TxTypeGrant, "seed")
	require.NoError(t, err)
	t.Cleanup(func() { _, _ = e.RefundAll(context.Background()) })
	return e
}

func get(t *testing.T, h http.Handler, path string, out any) int {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	if out != nil {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
	}
	return rec.Code
}

func TestHealthz(t *testing.T) {
	e := newEngine(t)

	var body map[string]string
	assert.Equal(t, http.StatusOK, get(t, NewRouter(e, nil), "/healthz", &body))
	assert.Equal(t, "ok", body["status"])

	down := pingFunc(func(context.Context) error { return errors.New("connection refused") })
	assert.Equal(t, http.StatusServiceUnavailable, get(t, NewRouter(e, down), "/healthz", &body))
	assert.Equal(t, "unhealthy", body["status"])
}

func TestAccountRoutes(t *testing.T) {
	e := newEngine(t)
	h := NewRouter(e, nil)

	var bal struct {
		AccountID string `json:"account_id"`
		Balance   int64  `json:"balance"`
	}
	assert.Equal(t, http.StatusOK, get(t, h, "/accounts/alice/balance", &bal))
	assert.Equal(t, "alice", bal.AccountID)
	assert.Equal(t, int64(1000), bal.Balance)

	var errBody map[string]string
	assert.Equal(t, http.StatusNotFound, get(t, h, "/accounts/alice/session", &errBody))
	assert.Equal(t, "no active session", errBody["error"])

	_, err := e.Start(context.Background(), "alice", "tower", 100, game.Options{})
	require.NoError(t, err)

	var snap service.Snapshot
	assert.Equal(t, http.StatusOK, get(t, h, "/accounts/alice/session", &snap))
	assert.Equal(t, "tower", snap.Variant)
	assert.Equal(t, int64(100), snap.Bet)
	assert.NotEmpty(t, snap.View.Actions)

	var txs []model.Transaction
	assert.Equal(t, http.StatusOK, get(t, h, "/accounts/alice/history?limit=5", &txs))
	require.Len(t, txs, 2)
	assert.Equal(t, model.TxTypeBet, txs[0].Type)
	assert.Equal(t, int64(-100), txs[0].Amount)

	assert.Equal(t, http.StatusOK, get(t, h, "/accounts/alice/history?type=grant", &txs))
	require.Len(t, txs, 1)
	assert.Equal(t, int64(1000), txs[0].Amount)

	assert.Equal(t, http.StatusBadRequest, get(t, h, "/accounts/alice/history?limit=0", &errBody))
	assert.Equal(t, http.StatusBadRequest, get(t, h, "/accounts/alice/history?type=jackpot", &errBody))
}

func TestStatsAndTop(t *testing.T) {
	e := newEngine(t)
	h := NewRouter(e, nil)

	_, err := e.Start(context.Background(), "bob", "tower", 100, game.Options{})
	require.NoError(t, err)

	var stats service.Stats
	assert.Equal(t, http.StatusOK, get(t, h, "/stats", &stats))
	assert.Equal(t, service.Stats{ActiveSessions: 1, ArmedTimers: 1, Accounts: 2}, stats)

	var top []service.Holding
	assert.Equal(t, http.StatusOK, get(t, h, "/top?limit=1", &top))
	require.Len(t, top, 1)
	assert.Equal(t, service.Holding{AccountID: "bob", Balance: 4900}, top[0])
}
