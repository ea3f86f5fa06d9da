package serpapi_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripweaver/tripweaver/internal/cache"
	"github.com/tripweaver/tripweaver/internal/faults"
	"github.com/tripweaver/tripweaver/internal/model"
	"github.com/tripweaver/tripweaver/internal/provider/serpapi"
	"github.com/tripweaver/tripweaver/internal/testutil"
)

const flightsFixture = `{
	"best_flights": [
		{
			"flights": [
				{
					"departure_airport": {"id": "JFK", "time": "2026-09-10 08:15"},
					"arrival_airport": {"id": "ORD", "time": "2026-09-10 10:05"},
					"airline": "United",
					"flight_number": "UA 512",
					"travel_class": "Economy"
				},
				{
					"departure_airport": {"id": "ORD", "time": "2026-09-10 11:30"},
					"arrival_airport": {"id": "LAX", "time": "2026-09-10 13:45"},
					"airline": "United",
					"flight_number": "UA 88",
					"travel_class": "Economy"
				}
			],
			"price": 324
		}
	],
	"other_flights": [
		{
			"flights": [
				{
					"departure_airport": {"id": "JFK", "time": "2026-09-10 09:00"},
					"arrival_airport": {"id": "LAX", "time": "2026-09-10 12:10"},
					"airline": "Delta",
					"flight_number": "DL 423",
					"travel_class": "Economy"
				}
			],
			"price": 389
		}
	]
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *serpapi.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return serpapi.New(serpapi.Config{APIKey: "test-key", BaseURL: srv.URL, Scope: "test"}, nil, testutil.TestLogger())
}

func TestSearchFlightsNormalization(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "google_flights", r.URL.Query().Get("engine"))
		assert.Equal(t, "test-key", r.URL.Query().Get("api_key"))
		assert.Equal(t, "JFK", r.URL.Query().Get("departure_id"))
		_, _ = w.Write([]byte(flightsFixture))
	})

	results, err := c.SearchFlights(context.Background(), model.FlightQuery{
		Origin: "JFK", Destination: "LAX", DepartureDate: "2026-09-10", Passengers: 1,
	})
	require.NoError(t, err)
	require.Len(t, results, 2)

	first := results[0]
	assert.Equal(t, model.CapabilityFlight, first.Kind)
	assert.Equal(t, "serpapi", first.SourceProvider)
	require.NotNil(t, first.Price)
	assert.Equal(t, "324", first.Price.Total.String())
	require.NotNil(t, first.Flight)
	assert.Len(t, first.Flight.Legs, 2)
	assert.Equal(t, 1, first.Flight.Stops)
	assert.Equal(t, "United", first.Flight.Airline)
	assert.Equal(t, "JFK", first.Flight.Legs[0].Origin)
	assert.Equal(t, "LAX", first.Flight.Legs[1].Destination)

	// Upstream shapes must not leak: only the normalized schema comes back.
	assert.Nil(t, first.Hotel)
	assert.Nil(t, first.Ticket)
}

func TestSearchFlightsEmptyIsSuccess(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"best_flights": [], "other_flights": []}`))
	})

	results, err := c.SearchFlights(context.Background(), model.FlightQuery{
		Origin: "JFK", Destination: "XXX", DepartureDate: "2026-09-10", Passengers: 1,
	})
	require.NoError(t, err, "no results is success, not an error")
	assert.Empty(t, results)
}

func TestSearchFlightsAuthFailure(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := c.SearchFlights(context.Background(), model.FlightQuery{
		Origin: "JFK", Destination: "LAX", DepartureDate: "2026-09-10", Passengers: 1,
	})
	require.Error(t, err)
	assert.Equal(t, faults.AuthFailed, faults.KindOf(err))
}

func TestSearchHotelsNormalization(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "google_hotels", r.URL.Query().Get("engine"))
		_, _ = w.Write([]byte(`{
			"properties": [
				{
					"property_token": "tok1",
					"name": "Hotel Uno",
					"overall_rating": 4.4,
					"rate_per_night": {"extracted_lowest": 120},
					"total_rate": {"extracted_lowest": 240}
				},
				{
					"property_token": "tok2",
					"name": "Hotel Dos",
					"overall_rating": 3.9,
					"rate_per_night": {},
					"total_rate": {}
				}
			]
		}`))
	})

	results, err := c.SearchHotels(context.Background(), model.HotelQuery{
		City: "Chicago", CheckIn: "2026-09-10", CheckOut: "2026-09-12", Adults: 2, Rooms: 1,
	})
	require.NoError(t, err)
	require.Len(t, results, 2)

	require.NotNil(t, results[0].Price)
	assert.Equal(t, "240", results[0].Price.Total.String())
	require.Len(t, results[0].Hotel.Rooms, 1)

	// Missing rate normalizes to nil price, not zero.
	assert.Nil(t, results[1].Price)
}

func TestSearchAirports(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/locations.json", r.URL.Path)
		_, _ = w.Write([]byte(`[
			{"id": "ord", "name": "Chicago O'Hare", "canonical_name": "Chicago,Illinois,United States", "country_code": "US"}
		]`))
	})

	results, err := c.SearchAirports(context.Background(), model.AirportQuery{Keyword: "chicago"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, model.CapabilityAirport, results[0].Kind)
	assert.Equal(t, "ord", results[0].Airport.Code)
	assert.Equal(t, "US", results[0].Airport.Country)
	assert.Nil(t, results[0].Price)
}

func TestProviderScopedCacheAside(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		_, _ = w.Write([]byte(flightsFixture))
	}))
	defer srv.Close()

	store := cache.NewMemoryStore()
	defer store.Close()
	c := serpapi.New(serpapi.Config{APIKey: "k", BaseURL: srv.URL, Scope: "test"}, store, testutil.TestLogger())

	q := model.FlightQuery{Origin: "JFK", Destination: "LAX", DepartureDate: "2026-09-10", Passengers: 1}
	first, err := c.SearchFlights(context.Background(), q)
	require.NoError(t, err)
	second, err := c.SearchFlights(context.Background(), q)
	require.NoError(t, err)

	assert.Equal(t, 1, calls, "second search must hit the provider-scoped cache")
	assert.Equal(t, first, second)
}

func TestAvailable(t *testing.T) {
	withKey := serpapi.New(serpapi.Config{APIKey: "k"}, nil, testutil.TestLogger())
	assert.True(t, withKey.Available())

	noKey := serpapi.New(serpapi.Config{}, nil, testutil.TestLogger())
	assert.False(t, noKey.Available())

	h := noKey.HealthCheck(context.Background())
	assert.False(t, h.Available)
	assert.NotEmpty(t, h.LastError)
}
