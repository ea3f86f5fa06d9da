// Package tripweaver is the public API for embedding the TripWeaver
// aggregation server.
//
// Consumers import this package to construct and extend the server without
// forking it:
//
//	app, err := tripweaver.New(
//	    tripweaver.WithVersion(version),
//	    tripweaver.WithLogger(logger),
//	    tripweaver.WithAdapter(myProvider),
//	)
//	if err != nil { ... }
//	if err := app.Run(ctx); err != nil { ... }
//
// The import graph enforces a strict no-cycle rule: tripweaver (root) imports
// internal/*, but internal/* never imports tripweaver (root).
package tripweaver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
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

// Adapter is the provider surface custom integrations implement. It aliases
// the internal interface so embedders can register providers without
// importing internal packages.
type Adapter = provider.Adapter

// Option configures an App.
type Option func(*App)

// WithLogger sets the structured logger. Defaults to JSON on stdout.
func WithLogger(logger *slog.Logger) Option {
	return func(a *App) { a.logger = logger }
}

// WithVersion sets the version reported by /health.
func WithVersion(version string) Option {
	return func(a *App) { a.version = version }
}

// WithAdapter registers an additional provider adapter alongside the
// built-in ones. Call multiple times for multiple providers.
func WithAdapter(adapter Adapter) Option {
	return func(a *App) { a.extraAdapters = append(a.extraAdapters, adapter) }
}

// WithConfig supplies configuration directly instead of loading it from the
// environment.
func WithConfig(cfg config.Config) Option {
	return func(a *App) { a.cfg = &cfg }
}

// App is an embeddable TripWeaver server.
type App struct {
	logger        *slog.Logger
	version       string
	cfg           *config.Config
	extraAdapters []Adapter
}

// New creates an App with the given options.
func New(opts ...Option) (*App, error) {
	a := &App{version: "dev"}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = slog.New(slog.NewJSONHandler(os.Stdout, nil))
	}
	if a.cfg == nil {
		_ = godotenv.Load()
		cfg, err := config.Load()
		if err != nil {
			return nil, fmt.Errorf("tripweaver: load config: %w", err)
		}
		a.cfg = &cfg
	}
	return a, nil
}

// Run starts the server and blocks until ctx is canceled or a fatal error
// occurs. Shutdown is graceful: in-flight requests drain before resources
// close.
func (a *App) Run(ctx context.Context) error {
	cfg := *a.cfg
	logger := a.logger

	otelShutdown, err := telemetry.Init(ctx, cfg.OTELEndpoint, cfg.ServiceName, a.version, true)
	if err != nil {
		return fmt.Errorf("tripweaver: telemetry: %w", err)
	}
	defer func() { _ = otelShutdown(context.Background()) }()

	var db *storage.DB
	if cfg.DatabaseURL != "" {
		db, err = storage.New(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			return fmt.Errorf("tripweaver: storage: %w", err)
		}
		defer db.Close()
		if err := db.RunMigrations(ctx, migrations.FS); err != nil {
			return fmt.Errorf("tripweaver: migrations: %w", err)
		}
	}

	var store cache.Store
	if cfg.RedisURL != "" {
		redisStore, err := cache.NewRedisStore(ctx, cfg.RedisURL, logger)
		if err != nil {
			return fmt.Errorf("tripweaver: cache: %w", err)
		}
		store = redisStore
	} else {
		store = cache.NewMemoryStore()
	}
	defer store.Close()

	registry := provider.NewRegistry()
	builtin := []Adapter{
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
	for _, adapter := range append(builtin, a.extraAdapters...) {
		if err := registry.Register(adapter); err != nil {
			return fmt.Errorf("tripweaver: registry: %w", err)
		}
	}
	logger.Info("provider registry ready", "count", registry.Len())

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
		Version:      a.version,
	})

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
