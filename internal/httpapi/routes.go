// Package httpapi serves a read-only JSON status API next to the bot.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"wager-bot/internal/model"
	"wager-bot/internal/service"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	HealthCheck(ctx context.Context) error
}

// Engine is the slice of the wagering engine the API reads.
type Engine interface {
	Balance(accountID string) int64
	Snapshot(accountID string) (*service.Snapshot, error)
	History(ctx context.Context, accountID, txType string, limit int) ([]*model.Transaction, error)
	Stats() service.Stats
	Top(limit int) []service.Holding
}

type api struct {
	engine Engine
	pinger Pinger
}

// NewRouter builds the API. pinger may be nil when the store has no health check.
func NewRouter(engine Engine, pinger Pinger) http.Handler {
	a := &api{engine: engine, pinger: pinger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Get("/healthz", a.healthz)
	r.Get("/stats", a.stats)
	r.Get("/top", a.top)
	r.Route("/accounts/{id}", func(r chi.Router) {
		r.Get("/balance", a.balance)
		r.Get("/session", a.session)
		r.Get("/history", a.history)
	})
	return r
}

func (a *api) healthz(w http.ResponseWriter, r *http.Request) {
	if a.pinger != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := a.pinger.HealthCheck(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy", "error": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *api) stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.engine.Stats())
}

func (a *api) top(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, a.engine.Top(limit))
}

func (a *api) balance(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	writeJSON(w, http.StatusOK, map[string]any{"account_id": id, "balance": a.engine.Balance(id)})
}

func (a *api) session(w http.ResponseWriter, r *http.Request) {
	snap, err := a.engine.Snapshot(chi.URLParam(r, "id"))
	if errors.Is(err, service.ErrSessionNotFound) {
		writeError(w, http.StatusNotFound, "no active session")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (a *api) history(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	id := chi.URLParam(r, "id")
	txs, err := a.engine.History(r.Context(), id, r.URL.Query().Get("type"), limit)
	if errors.Is(err, service.ErrUnknownTxType) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		log.Error().Err(err).Str("account_id", id).Msg("Failed to load history")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, txs)
}

func parseLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return defaultLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > maxLimit {
		return 0, errors.New("limit must be between 1 and 100")
	}
	return n, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("Failed to write response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// requestLogger logs each request at debug level.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
