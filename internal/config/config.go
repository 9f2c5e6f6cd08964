package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
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

// Config is the server configuration read from the environment
type Config struct {
	Host     string `env:"SEABATTLE_HOST"`
	Port     int    `env:"SEABATTLE_PORT" envDefault:"8181"`
	LogLevel string `env:"SEABATTLE_LOG_LEVEL" envDefault:"info"`

	Storage    string        `env:"SEABATTLE_STORAGE" envDefault:"memory"`
	RedisURL   string        `env:"SEABATTLE_REDIS_URL"`
	// RoomTTL of 0 keeps rooms forever
	RoomTTL    time.Duration `env:"SEABATTLE_ROOM_TTL"`
	SQLitePath string        `env:"SEABATTLE_SQLITE_PATH" envDefault:"seabattle.db"`

	// BcryptCost of 0 selects the library default
	BcryptCost int `env:"SEABATTLE_BCRYPT_COST"`

	ShutdownTimeout time.Duration `env:"SEABATTLE_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// Load reads .env files (missing files are skipped) and then parses the
// environment. Variables already set in the environment take precedence.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
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

// Validate checks settings that depend on each other
func (c Config) Validate() error {
	switch c.Storage {
	case StorageMemory:
	case StorageRedis:
		if c.RedisURL == "" {
			return errors.New("SEABATTLE_REDIS_URL required when SEABATTLE_STORAGE=redis")
		}
	case StorageSQLite:
		if c.SQLitePath == "" {
			return errors.New("SEABATTLE_SQLITE_PATH required when SEABATTLE_STORAGE=sqlite")
		}
	default:
		return fmt.Errorf("invalid SEABATTLE_STORAGE %q: must be memory, redis or sqlite", c.Storage)
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid SEABATTLE_PORT %d", c.Port)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// Level returns the configured log level
func (c Config) Level() slog.Level {
	level, _ := ParseLevel(c.LogLevel)
	return level
}

// ParseLevel maps debug, info, warn or error to a slog level
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid SEABATTLE_LOG_LEVEL %q", s)
	}
	return level, nil
}
