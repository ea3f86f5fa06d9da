package model

import "time"

// ProviderHealth is a point-in-time health snapshot for one provider.
// Recomputed on every health call, never cached.
type ProviderHealth struct {
	ProviderName string    `json:"provider_name"`
	Available    bool      `json:"available"`
	LastError    string    `json:"last_error,omitempty"`
	CheckedAt    time.Time `json:"checked_at"`
}

// SystemStatus is the aggregate health classification.
type SystemStatus string

const (
	StatusHealthy   SystemStatus = "healthy"
	StatusDegraded  SystemStatus = "degraded"
	StatusUnhealthy SystemStatus = "unhealthy"
)

// HealthSummary counts providers by outcome.
type HealthSummary struct {
	Total     int `json:"total"`
	Healthy   int `json:"healthy"`
	Unhealthy int `json:"unhealthy"`
}

// SystemHealth aggregates every registered provider's health into one report.
type SystemHealth struct {
	Status    SystemStatus     `json:"status"`
	CheckedAt time.Time        `json:"checked_at"`
	Providers []ProviderHealth `json:"providers"`
	Summary   HealthSummary    `json:"summary"`
}

// ProviderInfo describes a registered provider for discovery responses.
// Health is populated only by live-probing calls.
type ProviderInfo struct {
	Name         string          `json:"name"`
	Capabilities []Capability    `json:"capabilities"`
	Available    bool            `json:"available"`
	Health       *ProviderHealth `json:"health,omitempty"`
}
