package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"strconv"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Storage backends
const (
	StorageMemory = "memory"
	StorageRedis  = "redis"
	StorageSQLite = "sqlite"
)

// Config is the server configuration, read from DICEDUEL_* environment variables
type Config struct {
	Host string `env:"DICEDUEL_HOST" envDefault:"0.0.0.0"`
	Port int    `env:"DICEDUEL_PORT" envDefault:"8080"`

	Storage        string `env:"DICEDUEL_STORAGE" envDefault:"memory"`
	RedisURL       string `env:"DICEDUEL_REDIS_URL"`
	RedisKeyPrefix string `env:"DICEDUEL_REDIS_KEY_PREFIX" envDefault:"diceduel"`
	SQLitePath     string `env:"DICEDUEL_SQLITE_PATH" envDefault:"diceduel.db"`

	JWTSecret string `env:"DICEDUEL_JWT_SECRET"`
	// APIKeyHashes are comma separated bcrypt hashes. Quote them with single
	// quotes in a .env file so the "$" segments are not expanded.
	APIKeyHashes []string      `env:"DICEDUEL_API_KEY_HASHES" envSeparator:","`
	TokenTTL     time.Duration `env:"DICEDUEL_TOKEN_TTL" envDefault:"1h"`

	AdminWebhookURL string `env:"DICEDUEL_ADMIN_WEBHOOK_URL"`
	LogLevel        string `env:"DICEDUEL_LOG_LEVEL" envDefault:"info"`

	DefaultWinningRounds int `env:"DICEDUEL_DEFAULT_WINNING_ROUNDS" envDefault:"1"`
}

// Load reads dotenv files (".env" when none are given) into the process
// environment without overriding variables that are already set, then
// parses and validates the configuration.
func Load(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load dotenv: %w", err)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values env tags cannot express
func (c Config) Validate() error {
	switch c.Storage {
	case StorageMemory, StorageSQLite:
	case StorageRedis:
		if c.RedisURL == "" {
			return errors.New("DICEDUEL_REDIS_URL is required when DICEDUEL_STORAGE=redis")
		}
	default:
		return fmt.Errorf("invalid DICEDUEL_STORAGE %q: must be memory, redis or sqlite", c.Storage)
	}
	if c.Storage == StorageSQLite && c.SQLitePath == "" {
		return errors.New("DICEDUEL_SQLITE_PATH is required when DICEDUEL_STORAGE=sqlite")
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid DICEDUEL_PORT %d", c.Port)
	}
	if c.DefaultWinningRounds < 1 {
		return errors.New("DICEDUEL_DEFAULT_WINNING_ROUNDS must be at least 1")
	}
	if len(c.APIKeyHashes) > 0 && c.JWTSecret == "" {
		return errors.New("DICEDUEL_JWT_SECRET is required when DICEDUEL_API_KEY_HASHES is set")
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	return nil
}

// Addr returns the listen address
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// SlogLevel parses LogLevel (debug, info, warn, error)
func (c Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid DICEDUEL_LOG_LEVEL %q", c.LogLevel)
	}
	return level, nil
}
