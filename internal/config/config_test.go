package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, BackendPostgres, cfg.Store.Backend)
	assert.Equal(t, int64(100), cfg.Engine.MinBet)
	assert.Equal(t, 2*time.Minute, cfg.Engine.SessionTimeout)
	assert.Equal(t, 50*time.Millisecond, cfg.Engine.PersistBackoff)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	yaml := []byte(`
store:
  backend: sqlite
sqlite:
  path: /tmp/test.db
engine:
  min_bet: 250
  session_timeout: 45s
admin:
  ids: [1, 2]
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), yaml, 0o600))

	t.Setenv("ENGINE_MIN_BET", "500")
	t.Setenv("BOT_TOKEN", "secret")

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, BackendSQLite, cfg.Store.Backend)
	assert.Equal(t, "/tmp/test.db", cfg.SQLite.Path)
	assert.Equal(t, int64(500), cfg.Engine.MinBet, "environment overrides the file")
	assert.Equal(t, 45*time.Second, cfg.Engine.SessionTimeout)
	assert.Equal(t, "secret", cfg.Bot.Token)
	assert.True(t, cfg.IsAdmin(2))
	assert.False(t, cfg.IsAdmin(3))
}

func TestLoad_RejectsUnknownBackend(t *testing.T) {
	t.Setenv("STORE_BACKEND", "mongo")
	_, err := Load(t.TempDir())
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Store:  StoreConfig{Backend: BackendMemory},
			Engine: EngineConfig{MinBet: 1, SessionTimeout: time.Minute},
		}
	}
	require.NoError(t, valid().Validate())

	c := valid()
	c.Engine.MinBet = 0
	assert.Error(t, c.Validate())

	c = valid()
	c.Engine.SessionTimeout = 0
	assert.Error(t, c.Validate())

	c = valid()
	c.Engine.StartingBalance = -1
	assert.Error(t, c.Validate())
}

func TestDSN(t *testing.T) {
	d := DatabaseConfig{User: "u", Password: "p", Host: "h", Port: 5432, Name: "n"}
	assert.Equal(t, "postgres://u:p@h:5432/n?sslmode=disable", d.DSN())
}

// TestWhitelistProperty checks that an empty whitelist admits every chat and a
// non-empty one admits exactly its members.
func TestWhitelistProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		chats := rapid.SliceOfDistinct(rapid.Int64Range(-1e12, 1e12), func(v int64) int64 { return v }).Draw(t, "chats")
		chatID := rapid.Int64Range(-1e12, 1e12).Draw(t, "chatID")

		cfg := &Config{Whitelist: WhitelistConfig{Chats: chats}}
		expected := len(chats) == 0
		for _, id := range chats {
			if id == chatID {
				expected = true
			}
		}
		if got := cfg.IsChatAllowed(chatID); got != expected {
			t.Fatalf("IsChatAllowed(%d) with %v: expected %v, got %v", chatID, chats, expected, got)
		}
	})
}
