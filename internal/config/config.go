// Package config provides configuration management using viper.
// It supports loading from YAML files and environment variable overrides.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Store backends.
const (
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
	BackendSQLite   = "sqlite"
	BackendMemory   = "memory"
)

// Config holds all application configuration.
type Config struct {
	Bot       BotConfig       `mapstructure:"bot"`
	Store     StoreConfig     `mapstructure:"store"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	SQLite    SQLiteConfig    `mapstructure:"sqlite"`
	Admin     AdminConfig     `mapstructure:"admin"`
	Whitelist WhitelistConfig `mapstructure:"whitelist"`
	Engine    EngineConfig    `mapstructure:"engine"`
	HTTP      HTTPConfig      `mapstructure:"http"`
}

// BotConfig holds Telegram bot configuration.
type BotConfig struct {
	Token string `mapstructure:"token"`
}

// StoreConfig selects where balances are persisted.
type StoreConfig struct {
	Backend string `mapstructure:"backend"`
}

// DatabaseConfig holds PostgreSQL connection configuration.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	PoolSize        int           `mapstructure:"pool_size"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
}

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	Addr       string `mapstructure:"addr"`
	Password   string `mapstructure:"password"`
	DB         int    `mapstructure:"db"`
	HistoryCap int64  `mapstructure:"history_cap"`
}

// SQLiteConfig holds the embedded database location.
type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

// AdminConfig holds admin user configuration.
type AdminConfig struct {
	IDs []int64 `mapstructure:"ids"`
}

// WhitelistConfig holds chat whitelist configuration.
type WhitelistConfig struct {
	Chats []int64 `mapstructure:"chats"`
}

// EngineConfig holds wagering policy.
type EngineConfig struct {
	MinBet          int64         `mapstructure:"min_bet"`
	SessionTimeout  time.Duration `mapstructure:"session_timeout"`
	StartingBalance int64         `mapstructure:"starting_balance"`
	PersistRetries  uint64        `mapstructure:"persist_retries"`
	PersistBackoff  time.Duration `mapstructure:"persist_backoff"`
}

// HTTPConfig holds the status API listener.
type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

// DSN returns the PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name,
	)
}

// Load reads configuration from file and environment variables.
// A .env file in the working directory, if present, is loaded into the environment first.
// It looks for config.yaml in configPath, "." and "./config".
func Load(configPath string) (*Config, error) {
	// Missing .env is fine; real environment variables still apply.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// e.g. BOT_TOKEN, STORE_BACKEND, ENGINE_MIN_BET
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that defaults cannot fix.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case BackendPostgres, BackendRedis, BackendSQLite, BackendMemory:
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	if c.Engine.MinBet < 1 {
		return fmt.Errorf("engine.min_bet must be at least 1, got %d", c.Engine.MinBet)
	}
	if c.Engine.SessionTimeout <= 0 {
		return fmt.Errorf("engine.session_timeout must be positive")
	}
	if c.Engine.StartingBalance < 0 {
		return fmt.Errorf("engine.starting_balance must not be negative")
	}
	return nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Keys without a default are invisible to Unmarshal even when set in the environment.
	v.SetDefault("bot.token", "")
	v.SetDefault("admin.ids", []int64{})
	v.SetDefault("whitelist.chats", []int64{})

	v.SetDefault("store.backend", BackendPostgres)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "wager")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "wager")
	v.SetDefault("database.pool_size", 20)
	v.SetDefault("database.connect_timeout", "10s")
	v.SetDefault("database.max_conn_lifetime", "1h")
	v.SetDefault("database.max_conn_idle_time", "30m")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.history_cap", 1000)

	v.SetDefault("sqlite.path", "wager.db")

	v.SetDefault("engine.min_bet", 100)
	v.SetDefault("engine.session_timeout", "2m")
	v.SetDefault("engine.starting_balance", 0)
	v.SetDefault("engine.persist_retries", 5)
	v.SetDefault("engine.persist_backoff", "50ms")

	v.SetDefault("http.addr", ":8080")
}

// IsAdmin checks if a user ID is in the admin list.
func (c *Config) IsAdmin(userID int64) bool {
	for _, id := range c.Admin.IDs {
		if id == userID {
			return true
		}
	}
	return false
}

// IsChatAllowed checks if a chat ID is in the whitelist.
func (c *Config) IsChatAllowed(chatID int64) bool {
	// Empty whitelist means all chats are allowed
	if len(c.Whitelist.Chats) == 0 {
		return true
	}
	for _, id := range c.Whitelist.Chats {
		if id == chatID {
			return true
		}
	}
	return false
}
