// Package amadeus integrates the Amadeus Self-Service APIs for flight offers,
// hotel offers, and car transfer search.
//
// Amadeus authenticates with OAuth2 client credentials; the token source
// refreshes access tokens transparently and every request goes through the
// oauth2-wrapped HTTP client.
package amadeus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/tripweaver/tripweaver/internal/cache"
	"github.com/tripweaver/tripweaver/internal/faults"
	"github.com/tripweaver/tripweaver/internal/model"
	"github.com/tripweaver/tripweaver/internal/provider"
)

const (
	providerName   = "amadeus"
	defaultBaseURL = "https://test.api.amadeus.com"
	requestTimeout = 15 * time.Second
)

// Config holds the Amadeus adapter configuration.
type Config struct {
	ClientID     string
	ClientSecret string
	BaseURL      string // overridable for tests; defaults to the sandbox API
	Scope        string // cache key scope prefix
}

// Client is the Amadeus adapter. Implements FlightSearcher, HotelSearcher,
// and CarSearcher.
type Client struct {
	cfg    Config
	http   *http.Client
	tokens oauth2.TokenSource
	store  cache.Store
	logger *slog.Logger
}

// New creates an Amadeus adapter. store may be nil to disable the
// provider-scoped cache (tests).
func New(cfg Config, store cache.Store, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}

	cc := clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.BaseURL + "/v1/security/oauth2/token",
		AuthStyle:    oauth2.AuthStyleInParams,
	}

	// Give the oauth2 transport a base client with a hard timeout so token
	// refreshes and API calls both respect it.
	base := &http.Client{Timeout: requestTimeout}
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)

	return &Client{
		cfg:    cfg,
		http:   cc.Client(ctx),
		tokens: cc.TokenSource(ctx),
		store:  store,
		logger: logger,
	}
}

func (c *Client) Name() string { return providerName }

// Available reports whether client credentials are configured.
func (c *Client) Available() bool {
	return c.cfg.ClientID != "" && c.cfg.ClientSecret != ""
}

// HealthCheck verifies that a token can be obtained. A valid token means
// credentials and connectivity are both good.
func (c *Client) HealthCheck(ctx context.Context) model.ProviderHealth {
	h := model.ProviderHealth{ProviderName: providerName, CheckedAt: time.Now().UTC()}
	if !c.Available() {
		h.LastError = "no client credentials configured"
		return h
	}
	if _, err := c.tokens.Token(); err != nil {
		h.LastError = classifyOAuth(err).Error()
		return h
	}
	h.Available = true
	return h
}

// classifyOAuth maps token retrieval failures to taxonomy kinds: a rejected
// grant is an auth failure, anything else is a network problem.
func classifyOAuth(err error) error {
	var rerr *oauth2.RetrieveError
	if errors.As(err, &rerr) {
		return faults.Wrap(faults.AuthFailed, providerName+": token rejected", err)
	}
	return faults.Wrap(faults.NetworkError, providerName+": token fetch failed", err)
}

// wrapAuthErr converts oauth2 transport errors (which surface on client.Do)
// into taxonomy kinds before they propagate.
func wrapAuthErr(err error) error {
	if err == nil {
		return nil
	}
	var rerr *oauth2.RetrieveError
	if errors.As(err, &rerr) {
		return faults.Wrap(faults.AuthFailed, providerName+": token rejected", err)
	}
	return err
}

// flightOffersResponse is the subset of the flight-offers payload we consume.
type flightOffersResponse struct {
	Data []struct {
		ID    string `json:"id"`
		Price struct {
			Currency   string `json:"currency"`
			GrandTotal string `json:"grandTotal"`
		} `json:"price"`
		ValidatingAirlineCodes []string `json:"validatingAirlineCodes"`
		Itineraries            []struct {
			Segments []struct {
				Departure struct {
					IATACode string `json:"iataCode"`
					At       string `json:"at"`
				} `json:"departure"`
				Arrival struct {
					IATACode string `json:"iataCode"`
					At       string `json:"at"`
				} `json:"arrival"`
				CarrierCode string `json:"carrierCode"`
				Number      string `json:"number"`
			} `json:"segments"`
		} `json:"itineraries"`
	} `json:"data"`
}

// SearchFlights queries the Flight Offers Search API.
func (c *Client) SearchFlights(ctx context.Context, q model.FlightQuery) ([]model.NormalizedResult, error) {
	key := cache.ProviderKey(c.cfg.Scope, providerName, q.Capability(), q.Params())
	return provider.Cached(ctx, c.store, c.logger, key, cache.SearchTTL, func(ctx context.Context) ([]model.NormalizedResult, error) {
		params := url.Values{
			"originLocationCode":      {strings.ToUpper(q.Origin)},
			"destinationLocationCode": {strings.ToUpper(q.Destination)},
			"departureDate":           {q.DepartureDate},
			"adults":                  {strconv.Itoa(q.Passengers)},
			"max":                     {"50"},
		}
		if q.ReturnDate != "" {
			params.Set("returnDate", q.ReturnDate)
		}
		if q.CabinClass != "" {
			params.Set("travelClass", strings.ToUpper(q.CabinClass))
		}

		var resp flightOffersResponse
		if err := provider.GetJSON(ctx, c.http, providerName, c.cfg.BaseURL+"/v2/shopping/flight-offers", params, &resp); err != nil {
			return nil, wrapAuthErr(err)
		}
		return c.normalizeFlights(resp), nil
	})
}

func (c *Client) normalizeFlights(resp flightOffersResponse) []model.NormalizedResult {
	results := make([]model.NormalizedResult, 0, len(resp.Data))
	for _, offer := range resp.Data {
		var legs []model.FlightLeg
		for _, itin := range offer.Itineraries {
			for _, seg := range itin.Segments {
				legs = append(legs, model.FlightLeg{
					Origin:       seg.Departure.IATACode,
					Destination:  seg.Arrival.IATACode,
					DepartureAt:  parseISOTime(seg.Departure.At),
					ArrivalAt:    parseISOTime(seg.Arrival.At),
					Carrier:      seg.CarrierCode,
					FlightNumber: seg.CarrierCode + seg.Number,
				})
			}
		}
		if len(legs) == 0 {
			continue
		}

		price := parseMoney(offer.Price.GrandTotal, offer.Price.Currency)

		airline := ""
		if len(offer.ValidatingAirlineCodes) > 0 {
			airline = offer.ValidatingAirlineCodes[0]
		}

		results = append(results, model.NormalizedResult{
			Kind:           model.CapabilityFlight,
			ID:             fmt.Sprintf("%s-%s", providerName, offer.ID),
			SourceProvider: providerName,
			Price:          price,
			Flight: &model.FlightDetails{
				Legs:    legs,
				Airline: airline,
				Stops:   len(legs) - 1,
			},
		})
	}
	return results
}

// hotelOffersResponse is the subset of the hotel-offers payload we consume.
type hotelOffersResponse struct {
	Data []struct {
		Hotel struct {
			HotelID  string `json:"hotelId"`
			Name     string `json:"name"`
			CityCode string `json:"cityCode"`
			Rating   string `json:"rating"`
		} `json:"hotel"`
		Offers []struct {
			Price struct {
				Currency string `json:"currency"`
				Total    string `json:"total"`
			} `json:"price"`
			Room struct {
				Description struct {
					Text string `json:"text"`
				} `json:"description"`
				TypeEstimated struct {
					BedType string `json:"bedType"`
				} `json:"typeEstimated"`
			} `json:"room"`
		} `json:"offers"`
	} `json:"data"`
}

// SearchHotels queries the Hotel Search API.
func (c *Client) SearchHotels(ctx context.Context, q model.HotelQuery) ([]model.NormalizedResult, error) {
	key := cache.ProviderKey(c.cfg.Scope, providerName, q.Capability(), q.Params())
	return provider.Cached(ctx, c.store, c.logger, key, cache.SearchTTL, func(ctx context.Context) ([]model.NormalizedResult, error) {
		params := url.Values{
			"cityCode":     {strings.ToUpper(q.City)},
			"checkInDate":  {q.CheckIn},
			"checkOutDate": {q.CheckOut},
			"adults":       {strconv.Itoa(q.Adults)},
			"roomQuantity": {strconv.Itoa(q.Rooms)},
		}

		var resp hotelOffersResponse
		if err := provider.GetJSON(ctx, c.http, providerName, c.cfg.BaseURL+"/v3/shopping/hotel-offers", params, &resp); err != nil {
			return nil, wrapAuthErr(err)
		}

		results := make([]model.NormalizedResult, 0, len(resp.Data))
		for _, d := range resp.Data {
			var price *model.Money
			var rooms []model.RoomOffer
			for _, offer := range d.Offers {
				rate := parseMoney(offer.Price.Total, offer.Price.Currency)
				rooms = append(rooms, model.RoomOffer{
					Description: offer.Room.Description.Text,
					BedType:     offer.Room.TypeEstimated.BedType,
					NightlyRate: rate,
				})
				// The cheapest offer becomes the result's canonical price.
				if rate != nil && (price == nil || rate.Total.LessThan(price.Total)) {
					price = rate
				}
			}

			rating, _ := strconv.ParseFloat(d.Hotel.Rating, 64)
			results = append(results, model.NormalizedResult{
				Kind:           model.CapabilityHotel,
				ID:             fmt.Sprintf("%s-%s", providerName, d.Hotel.HotelID),
				SourceProvider: providerName,
				Price:          price,
				Hotel: &model.HotelDetails{
					Name:   d.Hotel.Name,
					City:   d.Hotel.CityCode,
					Rating: rating,
					Rooms:  rooms,
				},
			})
		}
		return results, nil
	})
}

// transferOffersResponse is the subset of the transfer-offers payload we consume.
type transferOffersResponse struct {
	Data []struct {
		ID      string `json:"id"`
		Vehicle struct {
			Code        string `json:"code"`
			Description string `json:"description"`
			Seats       []struct {
				Count int `json:"count"`
			} `json:"seats"`
		} `json:"vehicle"`
		ServiceProvider struct {
			Name string `json:"name"`
		} `json:"serviceProvider"`
		Quotation struct {
			MonetaryAmount string `json:"monetaryAmount"`
			CurrencyCode   string `json:"currencyCode"`
		} `json:"quotation"`
	} `json:"data"`
}

// SearchCars queries the Transfer Search API for ground vehicle offers.
func (c *Client) SearchCars(ctx context.Context, q model.CarQuery) ([]model.NormalizedResult, error) {
	key := cache.ProviderKey(c.cfg.Scope, providerName, q.Capability(), q.Params())
	return provider.Cached(ctx, c.store, c.logger, key, cache.SearchTTL, func(ctx context.Context) ([]model.NormalizedResult, error) {
		body := map[string]any{
			"startLocationCode": strings.ToUpper(q.PickupLocation),
			"endLocationCode":   strings.ToUpper(q.DropoffLocation),
			"startDateTime":     q.PickupDate + "T10:00:00",
			"passengers":        1,
		}

		var resp transferOffersResponse
		if err := provider.PostJSON(ctx, c.http, providerName, c.cfg.BaseURL+"/v1/shopping/transfer-offers", body, &resp); err != nil {
			return nil, wrapAuthErr(err)
		}

		results := make([]model.NormalizedResult, 0, len(resp.Data))
		for _, d := range resp.Data {
			seats := 0
			if len(d.Vehicle.Seats) > 0 {
				seats = d.Vehicle.Seats[0].Count
			}
			results = append(results, model.NormalizedResult{
				Kind:           model.CapabilityCar,
				ID:             fmt.Sprintf("%s-%s", providerName, d.ID),
				SourceProvider: providerName,
				Price:          parseMoney(d.Quotation.MonetaryAmount, d.Quotation.CurrencyCode),
				Car: &model.CarDetails{
					VehicleClass:    d.Vehicle.Description,
					Company:         d.ServiceProvider.Name,
					PickupLocation:  q.PickupLocation,
					DropoffLocation: q.DropoffLocation,
					Seats:           seats,
				},
			})
		}
		return results, nil
	})
}

// parseMoney converts an Amadeus decimal string into Money. Missing or
// negative amounts normalize to nil — "price unknown" rather than zero.
func parseMoney(amount, currency string) *model.Money {
	if amount == "" {
		return nil
	}
	d, err := decimal.NewFromString(amount)
	if err != nil || d.IsNegative() {
		return nil
	}
	return model.NewMoney(d, currency)
}

// parseISOTime parses Amadeus local timestamps ("2026-09-10T08:15:00").
func parseISOTime(s string) time.Time {
	t, err := time.Parse("2006-01-02T15:04:05", s)
	if err != nil {
		return time.Time{}
	}
	return t
}
