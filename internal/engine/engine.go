// Package engine implements the multi-provider aggregation core: capability
// orchestration with priority fallback, cache-aside around aggregated result
// sets, result merging and price sorting, the system health aggregator, and
// capability-scoped cache invalidation.
//
// The engine is the boundary provider failures stop at. A single provider's
// error is recorded in the provider report and the search continues; callers
// only see an error for invalid input or a failed admin operation. An empty
// result set with a fully populated report is a valid, successful response.
package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"

	"github.com/tripweaver/tripweaver/internal/cache"
	"github.com/tripweaver/tripweaver/internal/faults"
	"github.com/tripweaver/tripweaver/internal/model"
	"github.com/tripweaver/tripweaver/internal/provider"
	"github.com/tripweaver/tripweaver/internal/ratelimit"
	"github.com/tripweaver/tripweaver/internal/telemetry"
)

// EventSink receives ticket results converted to event rows for later
// deduplication. Implemented by storage.DB; nil disables ingestion.
type EventSink interface {
	InsertEvents(ctx context.Context, events []model.EventRecord) (int64, error)
}

// Options tune the orchestrator.
type Options struct {
	// Priorities maps each capability to its provider fallback order.
	Priorities map[model.Capability][]string

	// ProviderTimeout bounds each individual provider call.
	ProviderTimeout time.Duration

	// FanOutLimit bounds how many providers run concurrently in fan-out
	// capabilities. 1 degrades to sequential execution.
	FanOutLimit int

	// MaxResults is the caller-facing result cap; merged sets are truncated
	// to twice this to leave room for client-side filtering.
	MaxResults int

	// CacheScope prefixes every cache key.
	CacheScope string
}

func (o *Options) applyDefaults() {
	if o.ProviderTimeout <= 0 {
		o.ProviderTimeout = 15 * time.Second
	}
	if o.FanOutLimit <= 0 {
		o.FanOutLimit = 3
	}
	if o.MaxResults <= 0 {
		o.MaxResults = 50
	}
	if o.CacheScope == "" {
		o.CacheScope = "tripweaver"
	}
}

// Engine is the aggregation core. Construct with New; safe for concurrent use.
type Engine struct {
	registry *provider.Registry
	store    cache.Store
	limiter  ratelimit.Limiter
	events   EventSink
	logger   *slog.Logger
	opts     Options

	searchDuration metric.Float64Histogram
	providerErrors metric.Int64Counter
}

// New creates an Engine. store and events may be nil (caching and event
// ingestion disabled); limiter may be nil (no outbound throttling).
func New(registry *provider.Registry, store cache.Store, limiter ratelimit.Limiter, events EventSink, logger *slog.Logger, opts Options) *Engine {
	opts.applyDefaults()
	if limiter == nil {
		limiter = ratelimit.NoopLimiter{}
	}

	meter := telemetry.Meter("tripweaver/engine")
	searchDur, _ := meter.Float64Histogram("tripweaver.search.duration",
		metric.WithDescription("Aggregated search duration (ms)"),
		metric.WithUnit("ms"),
	)
	provErrs, _ := meter.Int64Counter("tripweaver.provider.errors",
		metric.WithDescription("Provider call failures by provider name"),
	)

	return &Engine{
		registry:       registry,
		store:          store,
		limiter:        limiter,
		events:         events,
		logger:         logger,
		opts:           opts,
		searchDuration: searchDur,
		providerErrors: provErrs,
	}
}

// outcome is one provider's contribution to a search, positioned by priority
// index so the report order never depends on completion order.
type outcome struct {
	entry   model.ProviderReportEntry
	results []model.NormalizedResult
}

// Search runs a capability search across the candidate providers.
// preferred overrides the configured priority order with a single provider.
// Provider failures never fail the search; invalid queries and an unknown
// preferred provider do.
func (e *Engine) Search(ctx context.Context, q model.Query, preferred string) (model.SearchResponse, error) {
	start := time.Now()
	capability := q.Capability()

	if err := q.Validate(); err != nil {
		return model.SearchResponse{}, err
	}

	if preferred != "" {
		a, ok := e.registry.Get(preferred)
		if !ok {
			return model.SearchResponse{}, faults.New(faults.ValidationError, fmt.Sprintf("unknown provider %q", preferred))
		}
		if !provider.Supports(a, capability) {
			return model.SearchResponse{}, faults.New(faults.ValidationError,
				fmt.Sprintf("provider %q does not support %s search", preferred, capability))
		}
	}

	key := cache.Key(e.opts.CacheScope, capability, q.Params(), preferred)
	if resp, ok := e.cacheGet(ctx, key); ok {
		resp.CacheHit = true
		return resp, nil
	}

	candidates := e.candidates(capability, preferred)

	var outcomes []outcome
	if capability == model.CapabilityCar {
		outcomes = e.searchFirstSuccess(ctx, candidates, q)
	} else {
		outcomes = e.searchFanOut(ctx, candidates, q)
	}

	report := make([]model.ProviderReportEntry, 0, len(outcomes))
	lists := make([][]model.NormalizedResult, 0, len(outcomes))
	for _, o := range outcomes {
		report = append(report, o.entry)
		if len(o.results) > 0 {
			lists = append(lists, o.results)
		}
	}

	resp := model.SearchResponse{
		Results:        mergeAndSort(lists, e.opts.MaxResults),
		ProviderReport: report,
	}

	if capability == model.CapabilityTicket {
		e.ingestTicketEvents(ctx, resp.Results)
	}

	e.cacheSet(ctx, key, cache.TTLFor(capability), resp)

	e.searchDuration.Record(ctx, float64(time.Since(start).Milliseconds()),
		metric.WithAttributes(attribute.String("capability", string(capability))))
	return resp, nil
}

// candidates resolves the provider list for this search: the preferred
// provider alone, or the configured priority order for the capability.
func (e *Engine) candidates(capability model.Capability, preferred string) []string {
	if preferred != "" {
		return []string{preferred}
	}
	return e.opts.Priorities[capability]
}

// searchFanOut queries every candidate and combines all successes. Providers
// run concurrently under the fan-out limit, each bounded by the provider
// timeout; outcomes land at their priority index so the report preserves the
// configured order.
func (e *Engine) searchFanOut(ctx context.Context, candidates []string, q model.Query) []outcome {
	outcomes := make([]outcome, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.FanOutLimit)
	for i, name := range candidates {
		g.Go(func() error {
			outcomes[i] = e.callProvider(gctx, name, q)
			return nil
		})
	}
	_ = g.Wait() // workers never return errors; failures live in the outcomes

	return outcomes
}

// searchFirstSuccess tries candidates strictly in priority order and stops at
// the first provider returning a non-empty result list. Car rental coverage
// is sparse; mixing partial results from weak providers was judged low-value,
// so this capability deliberately short-circuits instead of fanning out.
func (e *Engine) searchFirstSuccess(ctx context.Context, candidates []string, q model.Query) []outcome {
	var outcomes []outcome
	for _, name := range candidates {
		o := e.callProvider(ctx, name, q)
		outcomes = append(outcomes, o)
		if o.entry.Status == model.ProviderSuccess && len(o.results) > 0 {
			break
		}
	}
	return outcomes
}

// callProvider runs one provider end to end: registration and availability
// checks, outbound rate limit, the capability call under its own timeout, and
// source tagging. Never panics the search; every failure becomes a report entry.
func (e *Engine) callProvider(ctx context.Context, name string, q model.Query) outcome {
	entry := model.ProviderReportEntry{Name: name}

	a, ok := e.registry.Get(name)
	if !ok {
		entry.Status = model.ProviderSkipped
		entry.Error = "not registered"
		return outcome{entry: entry}
	}
	if !provider.Supports(a, q.Capability()) {
		entry.Status = model.ProviderSkipped
		entry.Error = fmt.Sprintf("does not support %s search", q.Capability())
		return outcome{entry: entry}
	}
	if !a.Available() {
		entry.Status = model.ProviderSkipped
		return outcome{entry: entry}
	}

	if allowed, err := e.limiter.Allow(ctx, name); err != nil {
		// Limiter malfunction is fail-open.
		e.logger.Warn("rate limiter error, allowing call", "provider", name, "error", err)
	} else if !allowed {
		entry.Status = model.ProviderError
		entry.Error = string(faults.RateLimitExceeded) + ": outbound rate limit reached"
		return outcome{entry: entry}
	}

	callCtx, cancel := context.WithTimeout(ctx, e.opts.ProviderTimeout)
	defer cancel()

	results, err := dispatch(callCtx, a, q)
	if err != nil {
		e.logger.Warn("provider search failed", "provider", name, "capability", q.Capability(), "error", err)
		e.providerErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("provider", name)))
		entry.Status = model.ProviderError
		entry.Error = err.Error()
		return outcome{entry: entry}
	}

	// Invariant: every merged result carries its source provider.
	for i := range results {
		if results[i].SourceProvider == "" {
			results[i].SourceProvider = name
		}
	}

	entry.Status = model.ProviderSuccess
	entry.Count = len(results)
	return outcome{entry: entry, results: results}
}

// dispatch routes the query to the adapter's capability method. Supports was
// checked by the caller, so a failed assertion here is unreachable.
func dispatch(ctx context.Context, a provider.Adapter, q model.Query) ([]model.NormalizedResult, error) {
	switch query := q.(type) {
	case model.FlightQuery:
		return a.(provider.FlightSearcher).SearchFlights(ctx, query)
	case model.HotelQuery:
		return a.(provider.HotelSearcher).SearchHotels(ctx, query)
	case model.CarQuery:
		return a.(provider.CarSearcher).SearchCars(ctx, query)
	case model.TicketQuery:
		return a.(provider.TicketSearcher).SearchTickets(ctx, query)
	case model.AirportQuery:
		return a.(provider.AirportSearcher).SearchAirports(ctx, query)
	default:
		return nil, faults.New(faults.ValidationError, fmt.Sprintf("unsupported query type %T", q))
	}
}

// ingestTicketEvents converts ticket results to event rows for the dedup job.
// Ingestion failures never affect the search response.
func (e *Engine) ingestTicketEvents(ctx context.Context, results []model.NormalizedResult) {
	if e.events == nil {
		return
	}

	records := make([]model.EventRecord, 0, len(results))
	for _, r := range results {
		if r.Ticket == nil || r.Ticket.EventDate.IsZero() {
			continue
		}
		records = append(records, model.EventRecord{
			ExternalID:     r.ID,
			Name:           r.Ticket.EventName,
			Artist:         r.Ticket.Artist,
			VenueName:      r.Ticket.VenueName,
			VenueCity:      r.Ticket.VenueCity,
			EventDate:      r.Ticket.EventDate,
			SourceProvider: r.SourceProvider,
		})
	}
	if len(records) == 0 {
		return
	}

	if n, err := e.events.InsertEvents(ctx, records); err != nil {
		e.logger.Warn("event ingestion failed", "error", err)
	} else if n > 0 {
		e.logger.Debug("events ingested", "count", n)
	}
}

// cacheGet reads an aggregated response. All cache failures read as misses:
// a broken cache degrades search latency, never correctness.
func (e *Engine) cacheGet(ctx context.Context, key string) (model.SearchResponse, bool) {
	if e.store == nil {
		return model.SearchResponse{}, false
	}
	raw, ok, err := e.store.Get(ctx, key)
	if err != nil {
		e.logger.Warn("cache read failed", "key", key, "error", err)
		return model.SearchResponse{}, false
	}
	if !ok {
		return model.SearchResponse{}, false
	}
	var resp model.SearchResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		e.logger.Warn("cache entry corrupt", "key", key, "error", err)
		return model.SearchResponse{}, false
	}
	return resp, true
}

// cacheSet writes an aggregated response. Concurrent writers for the same key
// compute the same value, so last-write-wins needs no locking.
func (e *Engine) cacheSet(ctx context.Context, key string, ttl time.Duration, resp model.SearchResponse) {
	if e.store == nil {
		return
	}
	raw, err := json.Marshal(resp)
	if err != nil {
		e.logger.Warn("cache marshal failed", "key", key, "error", err)
		return
	}
	if err := e.store.Set(ctx, key, raw, ttl); err != nil {
		e.logger.Warn("cache write failed", "key", key, "error", err)
	}
}

// ClearCache invalidates every cached entry for a capability, both aggregated
// sets and provider-scoped entries. Returns the number of keys removed.
func (e *Engine) ClearCache(ctx context.Context, capability model.Capability) (int, error) {
	if e.store == nil {
		return 0, nil
	}

	total := 0
	for _, pattern := range []string{
		cache.CapabilityPattern(e.opts.CacheScope, capability),
		cache.ProviderPattern(e.opts.CacheScope, capability),
	} {
		n, err := e.store.DeleteByPattern(ctx, pattern)
		if err != nil {
			return total, faults.Wrap(faults.CacheError, "clear "+string(capability), err)
		}
		total += n
	}
	return total, nil
}
