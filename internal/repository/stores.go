package repository

import "wager-bot/internal/ledger"

var (
	_ ledger.Store = (*PostgresStore)(nil)
	_ ledger.Store = (*RedisStore)(nil)
	_ ledger.Store = (*SQLiteStore)(nil)
	_ ledger.Store = (*MemoryStore)(nil)
)
