// Package ticketmaster integrates the Ticketmaster Discovery API for event
// ticket search.
//
// Ticket results double as the ingestion input for the events table: the
// engine converts them to EventRecords after each successful search, and the
// scheduled dedup job collapses cross-source duplicates later.
package ticketmaster

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tripweaver/tripweaver/internal/cache"
	"github.com/tripweaver/tripweaver/internal/model"
	"github.com/tripweaver/tripweaver/internal/provider"
)

const (
	providerName   = "ticketmaster"
	defaultBaseURL = "https://app.ticketmaster.com"
	requestTimeout = 10 * time.Second
)

// Config holds the Ticketmaster adapter configuration.
type Config struct {
	APIKey  string
	BaseURL string // overridable for tests; defaults to the public API
	Scope   string // cache key scope prefix
}

// Client is the Ticketmaster adapter. Implements TicketSearcher.
type Client struct {
	cfg    Config
	http   *http.Client
	store  cache.Store
	logger *slog.Logger
}

// New creates a Ticketmaster adapter. store may be nil to disable the
// provider-scoped cache (tests).
func New(cfg Config, store cache.Store, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: requestTimeout},
		store:  store,
		logger: logger,
	}
}

func (c *Client) Name() string { return providerName }

// Available reports whether an API key is configured.
func (c *Client) Available() bool { return c.cfg.APIKey != "" }

// HealthCheck probes the Discovery API with a minimal query.
func (c *Client) HealthCheck(ctx context.Context) model.ProviderHealth {
	h := model.ProviderHealth{ProviderName: providerName, CheckedAt: time.Now().UTC()}
	if !c.Available() {
		h.LastError = "no API key configured"
		return h
	}

	params := url.Values{"apikey": {c.cfg.APIKey}, "size": {"1"}}
	var out eventsResponse
	if err := provider.GetJSON(ctx, c.http, providerName, c.cfg.BaseURL+"/discovery/v2/events.json", params, &out); err != nil {
		h.LastError = err.Error()
		return h
	}
	h.Available = true
	return h
}

// eventsResponse is the subset of the Discovery API payload we consume.
type eventsResponse struct {
	Embedded struct {
		Events []struct {
			ID    string `json:"id"`
			Name  string `json:"name"`
			URL   string `json:"url"`
			Dates struct {
				Start struct {
					DateTime string `json:"dateTime"`
				} `json:"start"`
			} `json:"dates"`
			PriceRanges []struct {
				Min      float64 `json:"min"`
				Currency string  `json:"currency"`
			} `json:"priceRanges"`
			Embedded struct {
				Venues []struct {
					Name string `json:"name"`
					City struct {
						Name string `json:"name"`
					} `json:"city"`
					State struct {
						StateCode string `json:"stateCode"`
					} `json:"state"`
				} `json:"venues"`
				Attractions []struct {
					Name string `json:"name"`
				} `json:"attractions"`
			} `json:"_embedded"`
		} `json:"events"`
	} `json:"_embedded"`
}

// SearchTickets queries the Discovery API.
func (c *Client) SearchTickets(ctx context.Context, q model.TicketQuery) ([]model.NormalizedResult, error) {
	key := cache.ProviderKey(c.cfg.Scope, providerName, q.Capability(), q.Params())
	return provider.Cached(ctx, c.store, c.logger, key, cache.SearchTTL, func(ctx context.Context) ([]model.NormalizedResult, error) {
		params := url.Values{
			"apikey": {c.cfg.APIKey},
			"size":   {"50"},
			"sort":   {"date,asc"},
		}
		if q.Keyword != "" {
			params.Set("keyword", q.Keyword)
		}
		if q.City != "" {
			params.Set("city", q.City)
		}
		if q.StartDate != "" {
			params.Set("startDateTime", q.StartDate+"T00:00:00Z")
		}
		if q.EndDate != "" {
			params.Set("endDateTime", q.EndDate+"T23:59:59Z")
		}

		var resp eventsResponse
		if err := provider.GetJSON(ctx, c.http, providerName, c.cfg.BaseURL+"/discovery/v2/events.json", params, &resp); err != nil {
			return nil, err
		}
		return c.normalizeEvents(resp), nil
	})
}

func (c *Client) normalizeEvents(resp eventsResponse) []model.NormalizedResult {
	results := make([]model.NormalizedResult, 0, len(resp.Embedded.Events))
	for _, ev := range resp.Embedded.Events {
		details := &model.TicketDetails{
			EventName: ev.Name,
			EventDate: parseEventTime(ev.Dates.Start.DateTime),
			URL:       ev.URL,
		}
		if len(ev.Embedded.Attractions) > 0 {
			details.Artist = ev.Embedded.Attractions[0].Name
		}
		if len(ev.Embedded.Venues) > 0 {
			details.VenueName = ev.Embedded.Venues[0].Name
			details.VenueCity = ev.Embedded.Venues[0].City.Name
		}

		// Some events publish no price range; those results carry a nil price
		// and sort to the front of the merged set.
		var price *model.Money
		if len(ev.PriceRanges) > 0 && ev.PriceRanges[0].Min >= 0 && ev.PriceRanges[0].Currency != "" {
			price = model.NewMoney(decimal.NewFromFloat(ev.PriceRanges[0].Min), ev.PriceRanges[0].Currency)
		}

		results = append(results, model.NormalizedResult{
			Kind:           model.CapabilityTicket,
			ID:             ev.ID,
			SourceProvider: providerName,
			Price:          price,
			Ticket:         details,
		})
	}
	return results
}

func parseEventTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
