// Package main is the entry point for the wagering bot.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"wager-bot/internal/bot"
	"wager-bot/internal/config"
	"wager-bot/internal/game"
	"wager-bot/internal/game/blackjack"
	"wager-bot/internal/game/coinflip"
	"wager-bot/internal/game/higherlower"
	"wager-bot/internal/game/mines"
	"wager-bot/internal/game/tower"
	"wager-bot/internal/httpapi"
	"wager-bot/internal/ledger"
	"wager-bot/internal/pkg/db"
	"wager-bot/internal/repository"
	"wager-bot/internal/service"
)

const (
	lockPruneInterval = 10 * time.Minute
	shutdownTimeout   = 30 * time.Second
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load("config")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	log.Info().Str("backend", cfg.Store.Backend).Msg("Configuration loaded successfully")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, pinger, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open store")
	}
	defer closeStore()

	l := ledger.New(store, ledger.WithRetry(cfg.Engine.PersistRetries, cfg.Engine.PersistBackoff))
	if err := l.Load(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to load balances")
	}

	games, err := game.NewRegistry(
		coinflip.New(),
		blackjack.New(),
		mines.New(),
		higherlower.New(),
		tower.New(),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to register games")
	}
	log.Info().
		Int("game_count", games.Count()).
		Strs("games", games.Commands()).
		Msg("Games registered")

	engine := service.NewEngine(l, games, game.NewTimeSeededRand(), service.Config{
		MinBet:          cfg.Engine.MinBet,
		SessionTimeout:  cfg.Engine.SessionTimeout,
		StartingBalance: cfg.Engine.StartingBalance,
	})
	go engine.Run(ctx, lockPruneInterval)

	telegramBot, err := bot.New(&bot.Dependencies{Config: cfg, Engine: engine})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create bot")
	}

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           httpapi.NewRouter(engine, pinger),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("Status API listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Status API stopped")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go telegramBot.Start()

	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")

	telegramBot.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	// Sessions live in memory only; return every open bet before exiting.
	n, err := engine.RefundAll(shutdownCtx)
	if err != nil {
		log.Error().Err(err).Int("reclaimed", n).Msg("Some sessions could not be refunded")
	} else {
		log.Info().Int("reclaimed", n).Msg("Active sessions reclaimed")
	}

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("Status API shutdown failed")
	}
	cancel()
	log.Info().Msg("Shutdown complete")
}

// openStore connects the configured backend. The returned pinger backs /healthz.
func openStore(ctx context.Context, cfg *config.Config) (ledger.Store, httpapi.Pinger, func(), error) {
	switch cfg.Store.Backend {
	case config.BackendPostgres:
		pool, err := db.NewPool(ctx, &cfg.Database)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := repository.Migrate(ctx, pool.Pool); err != nil {
			pool.Close()
			return nil, nil, nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		return repository.NewPostgresStore(pool.Pool), pool, pool.Close, nil

	case config.BackendRedis:
		client, err := repository.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, nil, nil, err
		}
		store := repository.NewRedisStore(client, cfg.Redis.HistoryCap)
		return store, store, func() { _ = client.Close() }, nil

	case config.BackendSQLite:
		store, err := repository.NewSQLiteStore(cfg.SQLite.Path)
		if err != nil {
			return nil, nil, nil, err
		}
		return store, store, func() { _ = store.Close() }, nil

	default:
		log.Warn().Msg("Using in-memory store; balances are lost on restart")
		return repository.NewMemoryStore(), nil, func() {}, nil
	}
}
