package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"wager-bot/internal/ledger"
	"wager-bot/internal/model"
)

// Redis key layout.
const (
	KeyBalances            = "wager:balances"                // hash: account id -> balance
	KeyAccountTransactions = "wager:account:%s:transactions" // zset scored by unix nanos
)

// RedisStore is the ledger.Store backed by Redis. Balances live in a single hash;
// each account's audit trail is a sorted set of JSON rows, capped at historyCap.
type RedisStore struct {
	client     redis.UniversalClient
	historyCap int64
}

// NewRedisStore creates a store over an existing client.
func NewRedisStore(client redis.UniversalClient, historyCap int64) *RedisStore {
	if historyCap <= 0 {
		historyCap = 1000
	}
	return &RedisStore{client: client, historyCap: historyCap}
}

// NewRedisClient dials Redis and verifies the connection.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

// HealthCheck pings the server.
func (s *RedisStore) HealthCheck(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// LoadBalances implements ledger.Store.
func (s *RedisStore) LoadBalances(ctx context.Context) (map[string]int64, error) {
	raw, err := s.client.HGetAll(ctx, KeyBalances).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load balances: %w", err)
	}
	balances := make(map[string]int64, len(raw))
	for id, v := range raw {
		b, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("corrupt balance for %q: %w", id, err)
		}
		balances[id] = b
	}
	return balances, nil
}

// Apply implements ledger.Store. The balance and audit row are written in one MULTI/EXEC.
func (s *RedisStore) Apply(ctx context.Context, e ledger.Entry) error {
	now := time.Now()
	row, err := json.Marshal(&model.Transaction{
		ID:          uuid.NewString(),
		AccountID:   e.AccountID,
		Amount:      e.Delta,
		Balance:     e.Balance,
		Type:        e.Type,
		Description: e.Description,
		CreatedAt:   now,
	})
	if err != nil {
		return fmt.Errorf("failed to encode transaction: %w", err)
	}

	txKey := fmt.Sprintf(KeyAccountTransactions, e.AccountID)
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, KeyBalances, e.AccountID, e.Balance)
		pipe.ZAdd(ctx, txKey, redis.Z{Score: float64(now.UnixNano()), Member: row})
		pipe.ZRemRangeByRank(ctx, txKey, 0, -s.historyCap-1)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to apply balance: %w", err)
	}
	return nil
}

// History implements ledger.Store.
// Rows are JSON, so a type filter scans the whole capped set.
func (s *RedisStore) History(ctx context.Context, accountID, txType string, limit int) ([]*model.Transaction, error) {
	if limit <= 0 {
		return nil, nil
	}
	stop := int64(limit - 1)
	if txType != "" {
		stop = -1
	}
	key := fmt.Sprintf(KeyAccountTransactions, accountID)
	rows, err := s.client.ZRevRange(ctx, key, 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get transactions: %w", err)
	}

	txs := make([]*model.Transaction, 0, min(limit, len(rows)))
	for _, row := range rows {
		var tx model.Transaction
		if err := json.Unmarshal([]byte(row), &tx); err != nil {
			return nil, fmt.Errorf("failed to decode transaction: %w", err)
		}
		if txType != "" && tx.Type != txType {
			continue
		}
		txs = append(txs, &tx)
		if len(txs) == limit {
			break
		}
	}
	return txs, nil
}
