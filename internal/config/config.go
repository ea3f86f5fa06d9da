// Package config loads and validates application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/tripweaver/tripweaver/internal/model"
)

// Config holds all application configuration.
type Config struct {
	// Server settings.
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// Database settings. Empty disables event persistence and the dedup job.
	DatabaseURL string

	// Redis settings. Empty falls back to the in-process cache.
	RedisURL string

	// Provider credentials. A provider with missing credentials registers as
	// unavailable and is skipped during searches.
	SerpAPIKey          string
	AmadeusClientID     string
	AmadeusClientSecret string
	AmadeusBaseURL      string // Override for the Amadeus test environment.
	TicketmasterAPIKey  string
	TicketmasterBaseURL string
	SerpAPIBaseURL      string

	// Orchestrator settings.
	Priorities      map[model.Capability][]string
	ProviderTimeout time.Duration
	FanOutLimit     int
	MaxResults      int
	CacheScope      string

	// Outbound rate limiting (per provider).
	RateLimitPerMinute int
	RateLimitBurst     int

	// Dedup job settings.
	DedupInterval time.Duration

	// OTEL settings.
	OTELEndpoint string
	ServiceName  string

	// Operational settings.
	LogLevel string
}

// defaultPriorities is the fallback order per capability when no override is
// configured. Car rental lists only Amadeus; SerpApi has no car engine.
func defaultPriorities() map[model.Capability][]string {
	return map[model.Capability][]string{
		model.CapabilityFlight:  {"serpapi", "amadeus"},
		model.CapabilityHotel:   {"serpapi", "amadeus"},
		model.CapabilityCar:     {"amadeus"},
		model.CapabilityTicket:  {"ticketmaster"},
		model.CapabilityAirport: {"serpapi"},
	}
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (Config, error) {
	cfg := Config{
		Port:                envInt("TRIPWEAVER_PORT", 8080),
		ReadTimeout:         envDuration("TRIPWEAVER_READ_TIMEOUT", 30*time.Second),
		WriteTimeout:        envDuration("TRIPWEAVER_WRITE_TIMEOUT", 30*time.Second),
		DatabaseURL:         envStr("DATABASE_URL", ""),
		RedisURL:            envStr("REDIS_URL", ""),
		SerpAPIKey:          envStr("SERPAPI_API_KEY", ""),
		SerpAPIBaseURL:      envStr("SERPAPI_BASE_URL", ""),
		AmadeusClientID:     envStr("AMADEUS_CLIENT_ID", ""),
		AmadeusClientSecret: envStr("AMADEUS_CLIENT_SECRET", ""),
		AmadeusBaseURL:      envStr("AMADEUS_BASE_URL", ""),
		TicketmasterAPIKey:  envStr("TICKETMASTER_API_KEY", ""),
		TicketmasterBaseURL: envStr("TICKETMASTER_BASE_URL", ""),
		ProviderTimeout:     envDuration("TRIPWEAVER_PROVIDER_TIMEOUT", 15*time.Second),
		FanOutLimit:         envInt("TRIPWEAVER_FANOUT_LIMIT", 3),
		MaxResults:          envInt("TRIPWEAVER_MAX_RESULTS", 50),
		CacheScope:          envStr("TRIPWEAVER_CACHE_SCOPE", "tripweaver"),
		RateLimitPerMinute:  envInt("TRIPWEAVER_RATE_LIMIT_PER_MINUTE", 60),
		RateLimitBurst:      envInt("TRIPWEAVER_RATE_LIMIT_BURST", 10),
		DedupInterval:       envDuration("TRIPWEAVER_DEDUP_INTERVAL", 24*time.Hour),
		OTELEndpoint:        envStr("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		ServiceName:         envStr("OTEL_SERVICE_NAME", "tripweaver"),
		LogLevel:            envStr("TRIPWEAVER_LOG_LEVEL", "info"),
	}

	cfg.Priorities = defaultPriorities()
	for capability := range cfg.Priorities {
		key := "TRIPWEAVER_PRIORITY_" + strings.ToUpper(string(capability))
		if order := envList(key); len(order) > 0 {
			cfg.Priorities[capability] = order
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that required configuration is present and coherent.
func (c Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("config: TRIPWEAVER_PORT must be in 1..65535")
	}
	if c.ProviderTimeout <= 0 {
		return fmt.Errorf("config: TRIPWEAVER_PROVIDER_TIMEOUT must be positive")
	}
	if c.FanOutLimit <= 0 {
		return fmt.Errorf("config: TRIPWEAVER_FANOUT_LIMIT must be positive")
	}
	if c.MaxResults <= 0 {
		return fmt.Errorf("config: TRIPWEAVER_MAX_RESULTS must be positive")
	}
	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("config: TRIPWEAVER_RATE_LIMIT_PER_MINUTE must be positive")
	}
	for capability, order := range c.Priorities {
		if len(order) == 0 {
			return fmt.Errorf("config: priority list for %s is empty", capability)
		}
	}
	return nil
}

func envStr(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}

// envList parses a comma-separated list, trimming blanks.
func envList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
