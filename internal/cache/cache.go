// Package cache provides the key-value cache used cache-aside around provider
// calls and aggregated result sets.
//
// Two implementations ship: a Redis-backed store for deployments and an
// in-process store for tests and single-node dev. The Store interface is the
// contract. There is intentionally no stampede protection: concurrent
// identical misses each compute the same value and SET last-write-wins.
package cache

import (
	"context"
	"strings"
	"time"

	"github.com/tripweaver/tripweaver/internal/model"
)

// Default TTLs per the upstream contract.
const (
	SearchTTL  = 15 * time.Minute
	AirportTTL = time.Hour
)

// Store is a get/set-with-TTL key-value store.
// Implementations must be safe for concurrent use.
type Store interface {
	// Get returns the value for key, or ok=false on a miss.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)

	// Set stores value under key with the given TTL.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// DeleteByPattern removes every key matching a glob pattern
	// (e.g. "tripweaver_flight_*") and returns the number removed.
	DeleteByPattern(ctx context.Context, pattern string) (int, error)

	// Ping checks connectivity to the backing store.
	Ping(ctx context.Context) error

	// Close releases resources (connections, cleanup goroutines).
	Close() error
}

// TTLFor returns the TTL for a capability's cached results. Airport lookups
// change rarely and get the long TTL; everything else gets the search TTL.
func TTLFor(capability model.Capability) time.Duration {
	if capability == model.CapabilityAirport {
		return AirportTTL
	}
	return SearchTTL
}

// Key builds the deterministic cache key for a capability query:
//
//	{scope}_{capability}_{param1}_{param2}_..._{preferred|all}
//
// Params arrive pre-normalized in the fixed order the query type defines, so
// equal queries always hash to the same key. The preferred-provider selector
// is part of the key because results differ by selector.
func Key(scope string, capability model.Capability, params []string, preferred string) string {
	if preferred == "" {
		preferred = "all"
	}
	parts := make([]string, 0, len(params)+3)
	parts = append(parts, scope, string(capability))
	parts = append(parts, params...)
	parts = append(parts, strings.ToLower(preferred))
	return strings.ToLower(strings.Join(parts, "_"))
}

// ProviderKey builds a provider-scoped cache key so one provider's cache
// entries never collide with (or invalidate) a sibling's.
func ProviderKey(scope, provider string, capability model.Capability, params []string) string {
	return Key(scope+"_prov_"+strings.ToLower(provider), capability, params, "self")
}

// CapabilityPattern returns the glob matching every aggregate key for a
// capability, used by pattern-based cache invalidation.
func CapabilityPattern(scope string, capability model.Capability) string {
	return scope + "_" + string(capability) + "_*"
}

// ProviderPattern returns the glob matching every provider-scoped key for a
// capability, across all providers.
func ProviderPattern(scope string, capability model.Capability) string {
	return scope + "_prov_*_" + string(capability) + "_*"
}
