package model_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripweaver/tripweaver/internal/faults"
	"github.com/tripweaver/tripweaver/internal/model"
)

func TestFlightQueryParamsNormalized(t *testing.T) {
	q := model.FlightQuery{
		Origin:        " JFK ",
		Destination:   "lax",
		DepartureDate: "2026-09-10",
		Passengers:    2,
		CabinClass:    "Premium Economy",
	}
	assert.Equal(t, []string{"jfk", "lax", "2026-09-10", "", "2", "premium-economy"}, q.Params())
}

func TestFlightQueryValidate(t *testing.T) {
	valid := model.FlightQuery{
		Origin: "JFK", Destination: "LAX", DepartureDate: "2026-09-10", Passengers: 1,
	}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*model.FlightQuery)
		kind   faults.Kind
	}{
		{"missing origin", func(q *model.FlightQuery) { q.Origin = " " }, faults.InvalidLocation},
		{"bad departure date", func(q *model.FlightQuery) { q.DepartureDate = "09/10/2026" }, faults.InvalidDate},
		{"return before departure", func(q *model.FlightQuery) { q.ReturnDate = "2026-09-01" }, faults.InvalidDate},
		{"zero passengers", func(q *model.FlightQuery) { q.Passengers = 0 }, faults.ValidationError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := valid
			tt.mutate(&q)
			err := q.Validate()
			require.Error(t, err)
			assert.Equal(t, tt.kind, faults.KindOf(err))
		})
	}
}

func TestHotelQueryValidate(t *testing.T) {
	valid := model.HotelQuery{
		City: "Denver", CheckIn: "2026-09-10", CheckOut: "2026-09-12", Adults: 2, Rooms: 1,
	}
	require.NoError(t, valid.Validate())

	q := valid
	q.CheckOut = q.CheckIn
	err := q.Validate()
	require.Error(t, err)
	assert.Equal(t, faults.InvalidDate, faults.KindOf(err))
}

func TestTicketQueryRequiresKeywordOrCity(t *testing.T) {
	err := model.TicketQuery{}.Validate()
	require.Error(t, err)
	assert.Equal(t, faults.ValidationError, faults.KindOf(err))

	require.NoError(t, model.TicketQuery{City: "Austin"}.Validate())
	require.NoError(t, model.TicketQuery{Keyword: "jazz"}.Validate())
}

func TestCityParamsJoinWithHyphens(t *testing.T) {
	q := model.HotelQuery{
		City: "  New   York ", CheckIn: "2026-09-10", CheckOut: "2026-09-12", Adults: 1, Rooms: 1,
	}
	assert.Equal(t, "new-york", q.Params()[0])
}

func TestPriceTotalNilPriceIsZero(t *testing.T) {
	unpriced := model.NormalizedResult{Kind: model.CapabilityFlight, ID: "x"}
	assert.True(t, unpriced.PriceTotal().IsZero())

	priced := model.NormalizedResult{
		Kind:  model.CapabilityFlight,
		ID:    "y",
		Price: model.NewMoney(decimal.NewFromInt(120), "USD"),
	}
	assert.True(t, priced.PriceTotal().Equal(decimal.NewFromInt(120)))
}
