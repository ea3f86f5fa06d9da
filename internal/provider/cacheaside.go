package provider

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/tripweaver/tripweaver/internal/cache"
	"github.com/tripweaver/tripweaver/internal/model"
)

// Cached wraps an upstream fetch with cache-aside semantics on a
// provider-scoped key. Cache failures are fail-open: a broken cache degrades
// to calling the upstream, and a sibling provider's failure can never
// invalidate this provider's entries because the key is provider-scoped.
func Cached(
	ctx context.Context,
	store cache.Store,
	logger *slog.Logger,
	key string,
	ttl time.Duration,
	fetch func(ctx context.Context) ([]model.NormalizedResult, error),
) ([]model.NormalizedResult, error) {
	if store != nil {
		raw, ok, err := store.Get(ctx, key)
		if err != nil {
			logger.Warn("provider cache read failed", "key", key, "error", err)
		} else if ok {
			var cached []model.NormalizedResult
			if err := json.Unmarshal(raw, &cached); err != nil {
				logger.Warn("provider cache entry corrupt, refetching", "key", key, "error", err)
			} else {
				return cached, nil
			}
		}
	}

	results, err := fetch(ctx)
	if err != nil {
		return nil, err
	}

	if store != nil {
		raw, err := json.Marshal(results)
		if err != nil {
			logger.Warn("provider cache marshal failed", "key", key, "error", err)
			return results, nil
		}
		if err := store.Set(ctx, key, raw, ttl); err != nil {
			logger.Warn("provider cache write failed", "key", key, "error", err)
		}
	}
	return results, nil
}
