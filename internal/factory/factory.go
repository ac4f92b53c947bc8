package factory

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/mcoot/diceduel/internal/dependencies/clock"
	"github.com/mcoot/diceduel/internal/dependencies/dice"
	"github.com/mcoot/diceduel/internal/dependencies/ids"
	"github.com/mcoot/diceduel/internal/notify"
	"github.com/mcoot/diceduel/internal/services/auth"
	"github.com/mcoot/diceduel/internal/services/game"
	"github.com/mcoot/diceduel/internal/services/identity"
	"github.com/mcoot/diceduel/internal/services/scoring"
	"github.com/mcoot/diceduel/internal/sse"
	"github.com/mcoot/diceduel/internal/storage"
	"github.com/mcoot/diceduel/internal/storage/memory"
	redisstorage "github.com/mcoot/diceduel/internal/storage/redis"
	"github.com/mcoot/diceduel/internal/storage/sqlite"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
	StorageTypeSQLite = "sqlite"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	IDs    ids.Generator
	Roller dice.Roller

	// Services
	Resolver       *identity.Resolver
	ScoringService *scoring.Service
	Repository     *game.Repository
	GameController *game.Controller
	AuthService    *auth.Service
	HubManager     *sse.HubManager
	Alerts         *notify.Dispatcher
}

// Config holds configuration for the application factory
type Config struct {
	// AuthConfig holds configuration for the auth service (optional)
	// If zero value, the API runs open
	AuthConfig auth.Config
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
	// DefaultWinningRounds applies to challenges without an explicit target
	DefaultWinningRounds int
	// AdminWebhookURL receives admin alerts in addition to the log (optional)
	AdminWebhookURL string
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	store, err := openStorage(cfg)
	if err != nil {
		return nil, err
	}

	clk := clock.New()
	notifiers := []notify.Notifier{notify.NewLogNotifier(logger)}
	if cfg.AdminWebhookURL != "" {
		notifiers = append(notifiers, notify.NewWebhookNotifier(cfg.AdminWebhookURL, nil))
	}

	app, err := newWithDependencies(dependencies{
		store:                store,
		clock:                clk,
		ids:                  ids.New(clk),
		roller:               dice.New(),
		authConfig:           cfg.AuthConfig,
		defaultWinningRounds: cfg.DefaultWinningRounds,
		notifiers:            notifiers,
		logger:               logger,
	})
	if err != nil {
		if closer, ok := store.(io.Closer); ok {
			_ = closer.Close()
		}
		return nil, err
	}
	return app, nil
}

func openStorage(cfg Config) (storage.Storage, error) {
	switch cfg.StorageType {
	case "", StorageTypeMemory:
		return memory.New(), nil
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		store, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		return store, nil
	case StorageTypeSQLite:
		if cfg.SQLitePath == "" {
			return nil, errors.New("SQLitePath required when StorageType is sqlite")
		}
		store, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("invalid StorageType %q: must be 'memory', 'redis' or 'sqlite'", cfg.StorageType)
	}
}

type dependencies struct {
	store                storage.Storage
	clock                clock.Clock
	ids                  ids.Generator
	roller               dice.Roller
	authConfig           auth.Config
	defaultWinningRounds int
	notifiers            []notify.Notifier
	logger               *slog.Logger
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(deps dependencies) (*App, error) {
	authService, err := auth.New(deps.clock, deps.authConfig)
	if err != nil {
		return nil, err
	}

	hubManager := sse.NewHubManager(deps.logger)
	resolver := identity.New(deps.store, deps.logger)
	scoringService := scoring.New()
	repo := game.NewRepository(deps.store, deps.ids, deps.logger)
	gameController := game.NewController(
		repo,
		resolver,
		scoringService,
		deps.roller,
		deps.clock,
		sse.NewBroadcaster(hubManager, deps.logger),
		deps.logger,
		deps.defaultWinningRounds,
	)

	return &App{
		Storage:        deps.store,
		Clock:          deps.clock,
		IDs:            deps.ids,
		Roller:         deps.roller,
		Resolver:       resolver,
		ScoringService: scoringService,
		Repository:     repo,
		GameController: gameController,
		AuthService:    authService,
		HubManager:     hubManager,
		Alerts:         notify.NewDispatcher(deps.clock, deps.logger, deps.notifiers...),
	}, nil
}

// Close stops event streams and releases the storage backend
func (a *App) Close() error {
	a.HubManager.Close()
	if closer, ok := a.Storage.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
