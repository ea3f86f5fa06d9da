package amadeus_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripweaver/tripweaver/internal/faults"
	"github.com/tripweaver/tripweaver/internal/model"
	"github.com/tripweaver/tripweaver/internal/provider/amadeus"
	"github.com/tripweaver/tripweaver/internal/testutil"
)

const tokenFixture = `{"access_token": "test-token", "token_type": "Bearer", "expires_in": 1799}`

const flightOffersFixture = `{
	"data": [
		{
			"id": "1",
			"price": {"currency": "EUR", "grandTotal": "412.37"},
			"validatingAirlineCodes": ["LH"],
			"itineraries": [
				{
					"segments": [
						{
							"departure": {"iataCode": "JFK", "at": "2026-09-10T18:05:00"},
							"arrival": {"iataCode": "FRA", "at": "2026-09-11T07:40:00"},
							"carrierCode": "LH",
							"number": "401"
						}
					]
				}
			]
		},
		{
			"id": "2",
			"price": {"currency": "EUR", "grandTotal": ""},
			"itineraries": [
				{
					"segments": [
						{
							"departure": {"iataCode": "JFK", "at": "2026-09-10T21:00:00"},
							"arrival": {"iataCode": "FRA", "at": "2026-09-11T10:55:00"},
							"carrierCode": "LH",
							"number": "405"
						}
					]
				}
			]
		}
	]
}`

// newTestClient stands up a fake Amadeus with a token endpoint plus the API
// handler under test.
func newTestClient(t *testing.T, handler http.HandlerFunc) *amadeus.Client {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/security/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(tokenFixture))
	})
	mux.HandleFunc("/", handler)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return amadeus.New(amadeus.Config{
		ClientID: "id", ClientSecret: "secret", BaseURL: srv.URL, Scope: "test",
	}, nil, testutil.TestLogger())
}

func TestSearchFlightsNormalization(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/shopping/flight-offers", r.URL.Path)
		assert.Equal(t, "JFK", r.URL.Query().Get("originLocationCode"))
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(flightOffersFixture))
	})

	results, err := c.SearchFlights(context.Background(), model.FlightQuery{
		Origin: "jfk", Destination: "fra", DepartureDate: "2026-09-10", Passengers: 1,
	})
	require.NoError(t, err)
	require.Len(t, results, 2)

	first := results[0]
	assert.Equal(t, "amadeus", first.SourceProvider)
	require.NotNil(t, first.Price)
	assert.Equal(t, "412.37", first.Price.Total.String())
	assert.Equal(t, "EUR", first.Price.Currency)
	require.NotNil(t, first.Flight)
	assert.Equal(t, "LH", first.Flight.Airline)
	assert.Equal(t, "LH401", first.Flight.Legs[0].FlightNumber)
	assert.Equal(t, 0, first.Flight.Stops)

	// Empty grandTotal normalizes to nil price.
	assert.Nil(t, results[1].Price)
}

func TestSearchHotelsPicksCheapestOffer(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v3/shopping/hotel-offers", r.URL.Path)
		_, _ = w.Write([]byte(`{
			"data": [
				{
					"hotel": {"hotelId": "HLNYC123", "name": "Grand Stay", "cityCode": "NYC", "rating": "4"},
					"offers": [
						{"price": {"currency": "USD", "total": "310.00"}, "room": {"description": {"text": "King room"}, "typeEstimated": {"bedType": "KING"}}},
						{"price": {"currency": "USD", "total": "285.00"}, "room": {"description": {"text": "Queen room"}, "typeEstimated": {"bedType": "QUEEN"}}}
					]
				}
			]
		}`))
	})

	results, err := c.SearchHotels(context.Background(), model.HotelQuery{
		City: "nyc", CheckIn: "2026-09-10", CheckOut: "2026-09-12", Adults: 2, Rooms: 1,
	})
	require.NoError(t, err)
	require.Len(t, results, 1)

	require.NotNil(t, results[0].Price)
	assert.Equal(t, "285", results[0].Price.Total.String())
	assert.Len(t, results[0].Hotel.Rooms, 2)
	assert.InEpsilon(t, 4.0, results[0].Hotel.Rating, 0.001)
}

func TestSearchCarsNormalization(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/shopping/transfer-offers", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		_, _ = w.Write([]byte(`{
			"data": [
				{
					"id": "tr-1",
					"vehicle": {"code": "SDN", "description": "Business sedan", "seats": [{"count": 3}]},
					"serviceProvider": {"name": "RideCo"},
					"quotation": {"monetaryAmount": "54.20", "currencyCode": "EUR"}
				}
			]
		}`))
	})

	results, err := c.SearchCars(context.Background(), model.CarQuery{
		PickupLocation: "cdg", DropoffLocation: "par", PickupDate: "2026-09-10",
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, model.CapabilityCar, results[0].Kind)
	assert.Equal(t, "Business sedan", results[0].Car.VehicleClass)
	assert.Equal(t, "RideCo", results[0].Car.Company)
	assert.Equal(t, 3, results[0].Car.Seats)
	assert.Equal(t, "54.2", results[0].Price.Total.String())
}

func TestUpstreamServiceUnavailable(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := c.SearchFlights(context.Background(), model.FlightQuery{
		Origin: "JFK", Destination: "FRA", DepartureDate: "2026-09-10", Passengers: 1,
	})
	require.Error(t, err)
	assert.Equal(t, faults.ServiceUnavailable, faults.KindOf(err))
	assert.True(t, faults.IsRetryable(err))
}

func TestAvailableRequiresBothCredentials(t *testing.T) {
	c := amadeus.New(amadeus.Config{ClientID: "id"}, nil, testutil.TestLogger())
	assert.False(t, c.Available())

	h := c.HealthCheck(context.Background())
	assert.False(t, h.Available)
	assert.NotEmpty(t, h.LastError)
}
