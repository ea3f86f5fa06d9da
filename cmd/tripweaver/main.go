package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/tripweaver/tripweaver/internal/cache"
	"github.com/tripweaver/tripweaver/internal/config"
	"github.com/tripweaver/tripweaver/internal/dedup"
	"github.com/tripweaver/tripweaver/internal/engine"
	"github.com/tripweaver/tripweaver/internal/provider"
	"github.com/tripweaver/tripweaver/internal/provider/amadeus"
	"github.com/tripweaver/tripweaver/internal/provider/serpapi"
	"github.com/tripweaver/tripweaver/internal/provider/ticketmaster"
	"github.com/tripweaver/tripweaver/internal/ratelimit"
	"github.com/tripweaver/tripweaver/internal/server"
	"github.com/tripweaver/tripweaver/internal/storage"
	"github.com/tripweaver/tripweaver/internal/telemetry"
	"github.com/tripweaver/tripweaver/migrations"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	os.Exit(run0())
}

func run0() int {
	level := slog.LevelInfo
	if os.Getenv("TRIPWEAVER_LOG_LEVEL") == "debug" {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, logger); err != nil {
		slog.Error("fatal error", "error", err)
		return 1
	}
	return 0
}

func run(ctx context.Context, logger *slog.Logger) error {
	// Load .env file if present (non-fatal; production won't have one).
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	slog.Info("tripweaver starting", "version", version, "port", cfg.Port)

	// Initialize OpenTelemetry.
	otelShutdown, err := telemetry.Init(ctx, cfg.OTELEndpoint, cfg.ServiceName, version, true)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() { _ = otelShutdown(context.Background()) }()

	// Event store (optional). Without it ticket results are still served,
	// just never persisted, and the dedup job stays off.
	var db *storage.DB
	if cfg.DatabaseURL != "" {
		db, err = storage.New(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			return fmt.Errorf("storage: %w", err)
		}
		defer db.Close()

		if err := db.RunMigrations(ctx, migrations.FS); err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
	} else {
		slog.Info("event store disabled, DATABASE_URL not set")
	}

	// Cache store: Redis when configured, in-process otherwise.
	var store cache.Store
	if cfg.RedisURL != "" {
		redisStore, err := cache.NewRedisStore(ctx, cfg.RedisURL, logger)
		if err != nil {
			return fmt.Errorf("cache: %w", err)
		}
		store = redisStore
		slog.Info("cache backend: redis")
	} else {
		store = cache.NewMemoryStore()
		slog.Info("cache backend: memory")
	}
	defer store.Close()

	// Provider registry. Adapters with missing credentials still register so
	// they show up in discovery and health as unavailable.
	registry := provider.NewRegistry()
	adapters := []provider.Adapter{
		serpapi.New(serpapi.Config{
			APIKey:  cfg.SerpAPIKey,
			BaseURL: cfg.SerpAPIBaseURL,
			Scope:   cfg.CacheScope,
		}, store, logger),
		amadeus.New(amadeus.Config{
			ClientID:     cfg.AmadeusClientID,
			ClientSecret: cfg.AmadeusClientSecret,
			BaseURL:      cfg.AmadeusBaseURL,
			Scope:        cfg.CacheScope,
		}, store, logger),
		ticketmaster.New(ticketmaster.Config{
			APIKey:  cfg.TicketmasterAPIKey,
			BaseURL: cfg.TicketmasterBaseURL,
			Scope:   cfg.CacheScope,
		}, store, logger),
	}
	for _, a := range adapters {
		if err := registry.Register(a); err != nil {
			return fmt.Errorf("registry: %w", err)
		}
		slog.Info("provider registered", "name", a.Name(), "available", a.Available())
	}
	slog.Info("provider registry ready", "count", registry.Len())

	// Outbound throttle, shared across providers.
	limiter := ratelimit.NewMemoryLimiter(float64(cfg.RateLimitPerMinute)/60.0, cfg.RateLimitBurst)
	defer limiter.Close()

	var sink engine.EventSink
	if db != nil {
		sink = db
	}
	eng := engine.New(registry, store, limiter, sink, logger, engine.Options{
		Priorities:      cfg.Priorities,
		ProviderTimeout: cfg.ProviderTimeout,
		FanOutLimit:     cfg.FanOutLimit,
		MaxResults:      cfg.MaxResults,
		CacheScope:      cfg.CacheScope,
	})

	// Scheduled duplicate-event cleanup.
	if db != nil {
		go dedup.New(db, logger, cfg.DedupInterval).Start(ctx)
	}

	srv := server.New(server.ServerConfig{
		Engine:       eng,
		DB:           db,
		Logger:       logger,
		Port:         cfg.Port,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		Version:      version,
	})

	// Start HTTP server in background.
	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for shutdown signal or server error.
	select {
	case <-ctx.Done():
	case err := <-errCh:
		return err
	}

	// Graceful shutdown: stop accepting new requests and drain in-flight
	// searches before the cache and database close underneath them.
	slog.Info("tripweaver shutting down")

	httpCtx, httpCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := srv.Shutdown(httpCtx); err != nil {
		slog.Error("http shutdown error", "error", err)
	}
	httpCancel()

	slog.Info("tripweaver stopped")
	return nil
}
