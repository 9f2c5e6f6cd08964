package factory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/mcoot/seabattle/internal/config"
	"github.com/mcoot/seabattle/internal/dependencies/clock"
	"github.com/mcoot/seabattle/internal/dependencies/keylock"
	"github.com/mcoot/seabattle/internal/dependencies/random"
	"github.com/mcoot/seabattle/internal/dispatch"
	"github.com/mcoot/seabattle/internal/model"
	"github.com/mcoot/seabattle/internal/services/auth"
	"github.com/mcoot/seabattle/internal/services/game"
	"github.com/mcoot/seabattle/internal/services/lobby"
	"github.com/mcoot/seabattle/internal/services/targeting"
	"github.com/mcoot/seabattle/internal/session"
	"github.com/mcoot/seabattle/internal/storage"
	"github.com/mcoot/seabattle/internal/storage/memory"
	redisstorage "github.com/mcoot/seabattle/internal/storage/redis"
	"github.com/mcoot/seabattle/internal/storage/sqlite"
	"github.com/mcoot/seabattle/internal/ws"
)

// Storage type constants
const (
	StorageTypeMemory = config.StorageMemory
	StorageTypeRedis  = config.StorageRedis
	StorageTypeSQLite = config.StorageSQLite
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Services
	AuthService     *auth.Service
	LobbyController *lobby.Controller
	GameController  *game.Controller

	// Connections
	Sessions    *session.Registry
	Broadcaster *dispatch.Broadcaster
	Dispatcher  *dispatch.Dispatcher
	Hub         *ws.Hub
}

// Config holds configuration for the application factory
type Config struct {
	// AuthConfig holds configuration for the auth service (optional)
	// If zero value, defaults to auth.DefaultConfig()
	AuthConfig auth.Config
	// WSConfig holds websocket settings (optional)
	// If zero value, defaults to ws.DefaultConfig()
	WSConfig ws.Config
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory", "redis" or "sqlite")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// SQLitePath is the database file (required if StorageType is "sqlite")
	SQLitePath string
}

// ConfigFromEnv maps the environment configuration onto a factory Config
func ConfigFromEnv(c config.Config, logger *slog.Logger) Config {
	cfg := Config{
		AuthConfig:  auth.Config{BcryptCost: c.BcryptCost},
		Logger:      logger,
		StorageType: c.Storage,
		SQLitePath:  c.SQLitePath,
	}
	if c.Storage == config.StorageRedis {
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = c.RedisURL
		redisCfg.RoomTTL = c.RoomTTL
		cfg.RedisConfig = &redisCfg
	}
	return cfg
}

// New creates a new application with all dependencies wired. Id sequences
// resume above whatever the store already holds.
func New(cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	// Create storage based on type
	var store storage.Storage
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		store = redisStore
	case StorageTypeSQLite:
		if cfg.SQLitePath == "" {
			return nil, errors.New("SQLitePath required when StorageType is sqlite")
		}
		sqliteStore, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		store = sqliteStore
	default:
		return nil, errors.New("invalid StorageType: must be 'memory', 'redis' or 'sqlite'")
	}

	// Create external dependencies
	clk := clock.New()
	rnd := random.New()

	// Use default auth config if not provided
	authCfg := cfg.AuthConfig
	if authCfg.BcryptCost == 0 {
		authCfg = auth.DefaultConfig()
	}
	wsCfg := cfg.WSConfig
	if wsCfg == (ws.Config{}) {
		wsCfg = ws.DefaultConfig()
	}

	app := newWithDependencies(store, clk, rnd, authCfg, wsCfg, logger)
	if err := app.ResumeIDs(context.Background()); err != nil {
		_ = app.Close()
		return nil, err
	}
	return app, nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(
	store storage.Storage,
	clk clock.Clock,
	rnd random.Random,
	authCfg auth.Config,
	wsCfg ws.Config,
	logger *slog.Logger,
) *App {
	// Fleet submission and attack resolution share one lock per game
	gameLocks := keylock.New[model.GameID]()

	authService := auth.New(store, clk, authCfg, logger)
	lobbyController := lobby.NewController(store, gameLocks, clk, logger)
	gameController := game.NewController(store, targeting.NewRandomStrategy(rnd), gameLocks, clk, logger)
	sessions := session.NewRegistry(lobbyController, logger)
	broadcaster := dispatch.NewBroadcaster(lobbyController, gameController, logger)
	dispatcher := dispatch.New(sessions, authService, lobbyController, gameController, broadcaster, logger)
	hub := ws.NewHub(wsCfg, dispatcher, logger)

	return &App{
		Storage:         store,
		Clock:           clk,
		Random:          rnd,
		AuthService:     authService,
		LobbyController: lobbyController,
		GameController:  gameController,
		Sessions:        sessions,
		Broadcaster:     broadcaster,
		Dispatcher:      dispatcher,
		Hub:             hub,
	}
}

// ResumeIDs moves every id sequence past the ids already persisted
func (a *App) ResumeIDs(ctx context.Context) error {
	if err := a.LobbyController.ResumeIDs(ctx); err != nil {
		return err
	}
	w, err := a.Storage.Watermarks(ctx)
	if err != nil {
		return fmt.Errorf("read watermarks: %w", err)
	}
	a.Sessions.ResumeAfter(w.PlayerID)
	return nil
}

// Close disconnects websocket clients and releases the storage backend
func (a *App) Close() error {
	a.Hub.Close()
	if closer, ok := a.Storage.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
