package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mcoot/diceduel/internal/api"
	"github.com/mcoot/diceduel/internal/config"
	"github.com/mcoot/diceduel/internal/factory"
	"github.com/mcoot/diceduel/internal/services/auth"
	redisstorage "github.com/mcoot/diceduel/internal/storage/redis"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		return 1
	}
	level, _ := cfg.SlogLevel()

	// Set up logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	authConfig := auth.DefaultConfig()
	authConfig.Secret = cfg.JWTSecret
	authConfig.KeyHashes = cfg.APIKeyHashes
	authConfig.TokenTTL = cfg.TokenTTL

	factoryConfig := factory.Config{
		AuthConfig:           authConfig,
		Logger:               logger,
		StorageType:          cfg.Storage,
		SQLitePath:           cfg.SQLitePath,
		DefaultWinningRounds: cfg.DefaultWinningRounds,
		AdminWebhookURL:      cfg.AdminWebhookURL,
	}
	if cfg.Storage == config.StorageRedis {
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = cfg.RedisURL
		redisCfg.KeyPrefix = cfg.RedisKeyPrefix
		factoryConfig.RedisConfig = &redisCfg
	}

	// Create application factory
	app, err := factory.New(factoryConfig)
	if err != nil {
		logger.Error("failed to create application", slog.String("error", err.Error()))
		return 1
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Error("close error", slog.String("error", err.Error()))
		}
	}()

	if app.AuthService.Open() {
		logger.Warn("no API key hashes configured, API is open")
	}

	router := api.NewRouter(api.RouterConfig{
		Logger:         logger,
		AuthService:    app.AuthService,
		GameController: app.GameController,
		HubManager:     app.HubManager,
		Alerter:        app.Alerts,
	})

	serverConfig := api.DefaultServerConfig()
	serverConfig.Addr = cfg.Addr()
	server := api.NewServer(router, serverConfig, logger)

	// Handle graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	logger.Info("server started",
		slog.String("addr", server.Addr()),
		slog.String("storage", cfg.Storage),
	)

	// Wait for shutdown or error
	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", slog.String("error", err.Error()))
			return 1
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		if err := server.Shutdown(context.Background()); err != nil {
			logger.Error("shutdown error", slog.String("error", err.Error()))
			return 1
		}
	}

	logger.Info("server stopped")
	return 0
}
