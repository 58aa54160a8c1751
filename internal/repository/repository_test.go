// Store tests. PostgreSQL and Redis run in testcontainers and are skipped without Docker;
// SQLite and the in-memory store always run.
package repository

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"wager-bot/internal/ledger"
	"wager-bot/internal/model"
)

// checkDockerAvailable checks if Docker is available and running
func checkDockerAvailable() bool {
	cmd := exec.Command("docker", "info")
	return cmd.Run() == nil
}

// setupTestDB creates a PostgreSQL container, migrates it and returns a pool.
func setupTestDB(t *testing.T) (*pgxpool.Pool, func()) {
	if !checkDockerAvailable() {
		t.Skip("Docker is not available, skipping integration test")
	}

	ctx := context.Background()
	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	require.NoError(t, Migrate(ctx, pool))

	cleanup := func() {
		pool.Close()
		_ = pgContainer.Terminate(ctx)
	}
	return pool, cleanup
}

// setupTestRedis starts a Redis container and returns a connected store.
func setupTestRedis(t *testing.T) (*RedisStore, func()) {
	if !checkDockerAvailable() {
		t.Skip("Docker is not available, skipping integration test")
	}

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379/tcp")
	require.NoError(t, err)

	client, err := NewRedisClient(ctx, fmt.Sprintf("%s:%s", host, port.Port()), "", 0)
	require.NoError(t, err)

	cleanup := func() {
		_ = client.Close()
		_ = container.Terminate(ctx)
	}
	return NewRedisStore(client, 5), cleanup
}

func setupTestSQLite(t *testing.T) *SQLiteStore {
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "wager.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// ============================================================================
// Store contract, shared by every backend
// ============================================================================

func testStoreContract(t *testing.T, store ledger.Store) {
	ctx := context.Background()

	t.Run("empty", func(t *testing.T) {
		balances, err := store.LoadBalances(ctx)
		require.NoError(t, err)
		assert.Empty(t, balances)

		txs, err := store.History(ctx, "nobody", "", 10)
		require.NoError(t, err)
		assert.Empty(t, txs)
	})

	t.Run("apply and load", func(t *testing.T) {
		require.NoError(t, store.Apply(ctx, ledger.Entry{AccountID: "alice", Balance: 1000, Delta: 1000, Type: model.TxTypeGrant}))
		require.NoError(t, store.Apply(ctx, ledger.Entry{AccountID: "alice", Balance: 500, Delta: -500, Type: model.TxTypeBet, Description: "coinflip"}))
		require.NoError(t, store.Apply(ctx, ledger.Entry{AccountID: "bob", Balance: 0, Delta: 0, Type: model.TxTypeAdminSet}))

		balances, err := store.LoadBalances(ctx)
		require.NoError(t, err)
		assert.Equal(t, map[string]int64{"alice": 500, "bob": 0}, balances)
	})

	t.Run("history newest first", func(t *testing.T) {
		txs, err := store.History(ctx, "alice", "", 10)
		require.NoError(t, err)
		require.Len(t, txs, 2)
		assert.Equal(t, model.TxTypeBet, txs[0].Type)
		assert.Equal(t, int64(-500), txs[0].Amount)
		assert.Equal(t, int64(500), txs[0].Balance)
		assert.Equal(t, "coinflip", txs[0].Description)
		assert.NotEmpty(t, txs[0].ID)
		assert.False(t, txs[0].CreatedAt.IsZero())
		assert.Equal(t, model.TxTypeGrant, txs[1].Type)
	})

	t.Run("history by type", func(t *testing.T) {
		txs, err := store.History(ctx, "alice", model.TxTypeGrant, 10)
		require.NoError(t, err)
		require.Len(t, txs, 1)
		assert.Equal(t, int64(1000), txs[0].Amount)

		txs, err = store.History(ctx, "alice", model.TxTypeRefund, 10)
		require.NoError(t, err)
		assert.Empty(t, txs)
	})

	t.Run("history limit", func(t *testing.T) {
		txs, err := store.History(ctx, "alice", "", 1)
		require.NoError(t, err)
		assert.Len(t, txs, 1)
	})

	t.Run("survives ledger restart", func(t *testing.T) {
		l := ledger.New(store)
		require.NoError(t, l.Load(ctx))
		_, err := l.Credit(ctx, "carol", 250, model.TxTypePayout, "")
		require.NoError(t, err)

		restarted := ledger.New(store)
		require.NoError(t, restarted.Load(ctx))
		assert.Equal(t, int64(250), restarted.Balance("carol"))
		assert.Equal(t, int64(500), restarted.Balance("alice"))
	})
}

func TestMemoryStore(t *testing.T) {
	testStoreContract(t, NewMemoryStore())
}

func TestSQLiteStore(t *testing.T) {
	testStoreContract(t, setupTestSQLite(t))
}

func TestSQLiteStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wager.db")
	ctx := context.Background()

	store, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Apply(ctx, ledger.Entry{AccountID: "a", Balance: 42, Delta: 42, Type: model.TxTypeGrant}))
	require.NoError(t, store.Close())

	store, err = NewSQLiteStore(path)
	require.NoError(t, err)
	defer store.Close()

	balances, err := store.LoadBalances(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(42), balances["a"])
}

func TestSQLiteStore_HealthCheck(t *testing.T) {
	store := setupTestSQLite(t)
	assert.NoError(t, store.HealthCheck(context.Background()))
}

func TestSQLiteStore_RejectsNegativeBalance(t *testing.T) {
	store := setupTestSQLite(t)
	err := store.Apply(context.Background(), ledger.Entry{AccountID: "a", Balance: -1, Delta: -1, Type: model.TxTypeBet})
	assert.Error(t, err)

	balances, err := store.LoadBalances(context.Background())
	require.NoError(t, err)
	assert.Empty(t, balances, "a failed apply must not leave a partial write")
}

// ============================================================================
// PostgreSQL
// ============================================================================

func TestPostgresStore(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()
	testStoreContract(t, NewPostgresStore(pool))
}

func TestPostgresStore_ApplyIsAtomic(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewPostgresStore(pool)
	ctx := context.Background()

	// The CHECK constraint rejects the balance, so the audit row must not land either.
	err := store.Apply(ctx, ledger.Entry{AccountID: "a", Balance: -5, Delta: -5, Type: model.TxTypeBet})
	require.Error(t, err)

	txs, err := store.History(ctx, "a", "", 10)
	require.NoError(t, err)
	assert.Empty(t, txs)
}

func TestPostgresStore_HistoryByType(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewPostgresStore(pool)
	ctx := context.Background()
	require.NoError(t, store.Apply(ctx, ledger.Entry{AccountID: "a", Balance: 100, Delta: 100, Type: model.TxTypeGrant}))
	require.NoError(t, store.Apply(ctx, ledger.Entry{AccountID: "a", Balance: 90, Delta: -10, Type: model.TxTypeBet}))
	require.NoError(t, store.Apply(ctx, ledger.Entry{AccountID: "a", Balance: 80, Delta: -10, Type: model.TxTypeBet}))

	bets, err := store.History(ctx, "a", model.TxTypeBet, 10)
	require.NoError(t, err)
	assert.Len(t, bets, 2)
	for _, tx := range bets {
		assert.Equal(t, model.TxTypeBet, tx.Type)
	}
}

// ============================================================================
// Redis
// ============================================================================

func TestRedisStore(t *testing.T) {
	store, cleanup := setupTestRedis(t)
	defer cleanup()
	testStoreContract(t, store)
	assert.NoError(t, store.HealthCheck(context.Background()))
}

func TestRedisStore_HistoryIsCapped(t *testing.T) {
	store, cleanup := setupTestRedis(t)
	defer cleanup()

	ctx := context.Background()
	for i := int64(1); i <= 8; i++ {
		require.NoError(t, store.Apply(ctx, ledger.Entry{AccountID: "a", Balance: i, Delta: 1, Type: model.TxTypePayout}))
	}

	txs, err := store.History(ctx, "a", "", 100)
	require.NoError(t, err)
	require.Len(t, txs, 5)
	assert.Equal(t, int64(8), txs[0].Balance)
}
