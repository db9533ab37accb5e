package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/better-wallet/linewallet/internal/api"
	"github.com/better-wallet/linewallet/internal/app"
	"github.com/better-wallet/linewallet/internal/config"
	"github.com/better-wallet/linewallet/internal/kms"
	"github.com/better-wallet/linewallet/internal/logger"
	"github.com/better-wallet/linewallet/internal/metrics"
	"github.com/better-wallet/linewallet/internal/middleware"
	"github.com/better-wallet/linewallet/internal/storage"
	"github.com/better-wallet/linewallet/internal/validation"
	"github.com/better-wallet/linewallet/internal/wallet"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := logger.Init(cfg.Log.Format, cfg.Log.Level); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	ctx := context.Background()

	docs, err := openStore(ctx, &cfg.Store)
	if err != nil {
		slog.Error("failed to open document store", "backend", cfg.Store.Backend, "error", err)
		os.Exit(1)
	}
	defer docs.Close()

	slog.Info("opened document store", "backend", cfg.Store.Backend)

	sealer, err := kms.NewProvider(ctx, cfg.Seal.KMS())
	if err != nil {
		slog.Error("failed to initialize seal provider", "error", err)
		os.Exit(1)
	}

	slog.Info("initialized seal provider", "provider", sealer.Provider())

	generator, err := wallet.NewGenerator(cfg.Keystore.Strength)
	if err != nil {
		slog.Error("failed to initialize wallet generator", "error", err)
		os.Exit(1)
	}

	callerAuth, err := middleware.NewCallerAuth(cfg.Auth.CallerSecretHash)
	if err != nil {
		slog.Error("failed to initialize caller authentication", "error", err)
		os.Exit(1)
	}
	if !callerAuth.Enabled() {
		slog.Warn("caller authentication disabled; set AUTH_CALLER_SECRET_HASH outside development")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	custody := app.NewCustodyService(
		app.NewIdentityLinker(storage.NewIdentityLinkRepository(docs)),
		storage.NewWalletRepository(docs, sealer),
		generator,
		validation.PasscodePolicy{
			MinLength: cfg.Passcode.MinLength,
			MaxLength: cfg.Passcode.MaxLength,
		},
		metrics.New(reg, version),
	)

	server := api.NewServer(cfg.Server.Port, version, custody, docs, callerAuth, reg)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.Start()
	}()

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}

	case sig := <-shutdown:
		slog.Info("received shutdown signal", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			slog.Error("error during shutdown", "error", err)
			slog.Warn("forcing shutdown")
		}

		slog.Info("server stopped")
	}
}

func openStore(ctx context.Context, cfg *config.StoreConfig) (storage.DocumentStore, error) {
	switch cfg.Backend {
	case "postgres":
		store, err := storage.NewPostgresStore(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		return store, nil
	case "redis":
		client, err := storage.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, err
		}
		return storage.NewRedisStore(client), nil
	default:
		return storage.NewMemoryStore(), nil
	}
}
