// Package serpapi integrates SerpAPI's Google Flights and Google Hotels
// engines, plus its locations endpoint for airport lookups.
//
// Authentication is a single API key passed as a query parameter. All three
// capabilities share one HTTP client with a hard timeout; a slow SerpAPI call
// must not hold an aggregated search longer than that.
package serpapi

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tripweaver/tripweaver/internal/cache"
	"github.com/tripweaver/tripweaver/internal/model"
	"github.com/tripweaver/tripweaver/internal/provider"
)

const (
	providerName   = "serpapi"
	defaultBaseURL = "https://serpapi.com"
	requestTimeout = 10 * time.Second
)

// Config holds the SerpAPI adapter configuration.
type Config struct {
	APIKey  string
	BaseURL string // overridable for tests; defaults to the public API
	Scope   string // cache key scope prefix
}

// Client is the SerpAPI adapter. Implements FlightSearcher, HotelSearcher,
// and AirportSearcher.
type Client struct {
	cfg    Config
	http   *http.Client
	store  cache.Store
	logger *slog.Logger
}

// New creates a SerpAPI adapter. store may be nil to disable the
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

// Available reports whether an API key is configured. It does not call the
// upstream.
func (c *Client) Available() bool { return c.cfg.APIKey != "" }

// HealthCheck probes the account endpoint.
func (c *Client) HealthCheck(ctx context.Context) model.ProviderHealth {
	h := model.ProviderHealth{ProviderName: providerName, CheckedAt: time.Now().UTC()}
	if !c.Available() {
		h.LastError = "no API key configured"
		return h
	}

	params := url.Values{"api_key": {c.cfg.APIKey}}
	var out struct {
		AccountEmail string `json:"account_email"`
	}
	if err := provider.GetJSON(ctx, c.http, providerName, c.cfg.BaseURL+"/account.json", params, &out); err != nil {
		h.LastError = err.Error()
		return h
	}
	h.Available = true
	return h
}

// flightsResponse is the subset of the google_flights payload we consume.
type flightsResponse struct {
	BestFlights  []flightOption `json:"best_flights"`
	OtherFlights []flightOption `json:"other_flights"`
}

type flightOption struct {
	Flights []struct {
		DepartureAirport struct {
			ID   string `json:"id"`
			Time string `json:"time"`
		} `json:"departure_airport"`
		ArrivalAirport struct {
			ID   string `json:"id"`
			Time string `json:"time"`
		} `json:"arrival_airport"`
		Airline      string `json:"airline"`
		FlightNumber string `json:"flight_number"`
		TravelClass  string `json:"travel_class"`
	} `json:"flights"`
	Price float64 `json:"price"`
}

// SearchFlights queries the google_flights engine.
func (c *Client) SearchFlights(ctx context.Context, q model.FlightQuery) ([]model.NormalizedResult, error) {
	key := cache.ProviderKey(c.cfg.Scope, providerName, q.Capability(), q.Params())
	return provider.Cached(ctx, c.store, c.logger, key, cache.SearchTTL, func(ctx context.Context) ([]model.NormalizedResult, error) {
		params := url.Values{
			"engine":        {"google_flights"},
			"api_key":       {c.cfg.APIKey},
			"departure_id":  {q.Origin},
			"arrival_id":    {q.Destination},
			"outbound_date": {q.DepartureDate},
			"adults":        {strconv.Itoa(q.Passengers)},
		}
		if q.ReturnDate != "" {
			params.Set("return_date", q.ReturnDate)
		} else {
			params.Set("type", "2") // one-way
		}

		var resp flightsResponse
		if err := provider.GetJSON(ctx, c.http, providerName, c.cfg.BaseURL+"/search.json", params, &resp); err != nil {
			return nil, err
		}
		return c.normalizeFlights(resp), nil
	})
}

func (c *Client) normalizeFlights(resp flightsResponse) []model.NormalizedResult {
	options := append(resp.BestFlights, resp.OtherFlights...)
	results := make([]model.NormalizedResult, 0, len(options))
	for i, opt := range options {
		if len(opt.Flights) == 0 {
			continue
		}
		legs := make([]model.FlightLeg, 0, len(opt.Flights))
		for _, f := range opt.Flights {
			legs = append(legs, model.FlightLeg{
				Origin:       f.DepartureAirport.ID,
				Destination:  f.ArrivalAirport.ID,
				DepartureAt:  parseLocalTime(f.DepartureAirport.Time),
				ArrivalAt:    parseLocalTime(f.ArrivalAirport.Time),
				Carrier:      f.Airline,
				FlightNumber: f.FlightNumber,
			})
		}

		var price *model.Money
		if opt.Price > 0 {
			price = model.NewMoney(decimal.NewFromFloat(opt.Price), "USD")
		}

		results = append(results, model.NormalizedResult{
			Kind:           model.CapabilityFlight,
			ID:             fmt.Sprintf("%s-%s-%d", legs[0].Origin, legs[len(legs)-1].Destination, i),
			SourceProvider: providerName,
			Price:          price,
			Flight: &model.FlightDetails{
				Legs:       legs,
				Airline:    opt.Flights[0].Airline,
				CabinClass: opt.Flights[0].TravelClass,
				Stops:      len(legs) - 1,
			},
		})
	}
	return results
}

// hotelsResponse is the subset of the google_hotels payload we consume.
type hotelsResponse struct {
	Properties []struct {
		PropertyToken string  `json:"property_token"`
		Name          string  `json:"name"`
		OverallRating float64 `json:"overall_rating"`
		RatePerNight  struct {
			ExtractedLowest float64 `json:"extracted_lowest"`
		} `json:"rate_per_night"`
		TotalRate struct {
			ExtractedLowest float64 `json:"extracted_lowest"`
		} `json:"total_rate"`
	} `json:"properties"`
}

// SearchHotels queries the google_hotels engine.
func (c *Client) SearchHotels(ctx context.Context, q model.HotelQuery) ([]model.NormalizedResult, error) {
	key := cache.ProviderKey(c.cfg.Scope, providerName, q.Capability(), q.Params())
	return provider.Cached(ctx, c.store, c.logger, key, cache.SearchTTL, func(ctx context.Context) ([]model.NormalizedResult, error) {
		params := url.Values{
			"engine":         {"google_hotels"},
			"api_key":        {c.cfg.APIKey},
			"q":              {q.City},
			"check_in_date":  {q.CheckIn},
			"check_out_date": {q.CheckOut},
			"adults":         {strconv.Itoa(q.Adults)},
		}

		var resp hotelsResponse
		if err := provider.GetJSON(ctx, c.http, providerName, c.cfg.BaseURL+"/search.json", params, &resp); err != nil {
			return nil, err
		}

		results := make([]model.NormalizedResult, 0, len(resp.Properties))
		for _, p := range resp.Properties {
			var price *model.Money
			if p.TotalRate.ExtractedLowest > 0 {
				price = model.NewMoney(decimal.NewFromFloat(p.TotalRate.ExtractedLowest), "USD")
			}
			var rooms []model.RoomOffer
			if p.RatePerNight.ExtractedLowest > 0 {
				rooms = append(rooms, model.RoomOffer{
					Description: "lowest available rate",
					NightlyRate: model.NewMoney(decimal.NewFromFloat(p.RatePerNight.ExtractedLowest), "USD"),
				})
			}
			results = append(results, model.NormalizedResult{
				Kind:           model.CapabilityHotel,
				ID:             p.PropertyToken,
				SourceProvider: providerName,
				Price:          price,
				Hotel: &model.HotelDetails{
					Name:   p.Name,
					City:   q.City,
					Rating: p.OverallRating,
					Rooms:  rooms,
				},
			})
		}
		return results, nil
	})
}

// locationsResponse is the subset of the locations endpoint payload we consume.
type locationsResponse []struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	CanonicalName string `json:"canonical_name"`
	CountryCode   string `json:"country_code"`
}

// SearchAirports looks up airports/locations by keyword. Cached with the long
// airport TTL because locations change rarely.
func (c *Client) SearchAirports(ctx context.Context, q model.AirportQuery) ([]model.NormalizedResult, error) {
	key := cache.ProviderKey(c.cfg.Scope, providerName, q.Capability(), q.Params())
	return provider.Cached(ctx, c.store, c.logger, key, cache.AirportTTL, func(ctx context.Context) ([]model.NormalizedResult, error) {
		params := url.Values{
			"q":     {q.Keyword},
			"limit": {"10"},
		}

		var resp locationsResponse
		if err := provider.GetJSON(ctx, c.http, providerName, c.cfg.BaseURL+"/locations.json", params, &resp); err != nil {
			return nil, err
		}

		results := make([]model.NormalizedResult, 0, len(resp))
		for _, loc := range resp {
			results = append(results, model.NormalizedResult{
				Kind:           model.CapabilityAirport,
				ID:             loc.ID,
				SourceProvider: providerName,
				Airport: &model.AirportDetails{
					Code:    loc.ID,
					Name:    loc.Name,
					City:    loc.CanonicalName,
					Country: loc.CountryCode,
				},
			})
		}
		return results, nil
	})
}

// parseLocalTime parses SerpAPI's local timestamps ("2026-09-10 08:15").
// Zone information is not provided; the zero time marks an unparseable value.
func parseLocalTime(s string) time.Time {
	t, err := time.Parse("2006-01-02 15:04", s)
	if err != nil {
		return time.Time{}
	}
	return t
}
