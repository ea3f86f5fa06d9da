package engine

import (
	"context"
	"sync"
	"time"

	"github.com/tripweaver/tripweaver/internal/model"
	"github.com/tripweaver/tripweaver/internal/provider"
)

// healthCheckTimeout bounds each provider's health probe independently of the
// search timeout; health checks are cheap calls and should fail fast.
const healthCheckTimeout = 5 * time.Second

// Health probes every registered provider concurrently and aggregates the
// results into a system status. An unconfigured provider counts as down but
// never errors the check; Health itself cannot fail.
func (e *Engine) Health(ctx context.Context) model.SystemHealth {
	names := e.registry.Names()
	providers := make([]model.ProviderHealth, len(names))

	var wg sync.WaitGroup
	for i, name := range names {
		a, ok := e.registry.Get(name)
		if !ok {
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			providers[i] = e.probe(ctx, a)
		}()
	}
	wg.Wait()

	healthy := 0
	for _, p := range providers {
		if p.Available {
			healthy++
		}
	}

	return model.SystemHealth{
		Status:    systemStatus(healthy, len(providers)),
		CheckedAt: time.Now().UTC(),
		Providers: providers,
		Summary: model.HealthSummary{
			Total:     len(providers),
			Healthy:   healthy,
			Unhealthy: len(providers) - healthy,
		},
	}
}

func (e *Engine) probe(ctx context.Context, a provider.Adapter) model.ProviderHealth {
	if !a.Available() {
		return model.ProviderHealth{
			ProviderName: a.Name(),
			Available:    false,
			LastError:    "not configured",
			CheckedAt:    time.Now().UTC(),
		}
	}
	probeCtx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()
	return a.HealthCheck(probeCtx)
}

// systemStatus maps the healthy fraction to an overall grade: all providers
// up is healthy, at least half up is degraded, anything less is unhealthy.
func systemStatus(healthy, total int) model.SystemStatus {
	switch {
	case total == 0 || healthy == total:
		return model.StatusHealthy
	case healthy*2 >= total:
		return model.StatusDegraded
	default:
		return model.StatusUnhealthy
	}
}

// Descriptors lists the registered providers with their capabilities and
// current availability, sorted by name. No upstream calls are made.
func (e *Engine) Descriptors() []model.ProviderInfo {
	descriptors := e.registry.Descriptors()
	infos := make([]model.ProviderInfo, 0, len(descriptors))
	for _, d := range descriptors {
		a, ok := e.registry.Get(d.Name)
		if !ok {
			continue
		}
		infos = append(infos, model.ProviderInfo{
			Name:         d.Name,
			Capabilities: d.Capabilities,
			Available:    a.Available(),
		})
	}
	return infos
}

// AvailableProviders is Descriptors plus a live health probe per provider.
func (e *Engine) AvailableProviders(ctx context.Context) []model.ProviderInfo {
	infos := e.Descriptors()

	var wg sync.WaitGroup
	for i := range infos {
		a, ok := e.registry.Get(infos[i].Name)
		if !ok {
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			h := e.probe(ctx, a)
			infos[i].Health = &h
		}()
	}
	wg.Wait()
	return infos
}
