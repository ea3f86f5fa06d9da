package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Money is a canonical price. Total is always non-negative; adapters that
// cannot determine a price return a nil *Money rather than a zero value.
type Money struct {
	Total    decimal.Decimal `json:"total"`
	Currency string          `json:"currency"`
}

// NewMoney builds a Money value. Negative totals are clamped to nil by the
// normalization boundary, not here.
func NewMoney(total decimal.Decimal, currency string) *Money {
	return &Money{Total: total, Currency: currency}
}

// NormalizedResult is the shared result schema every adapter normalizes into.
// It is a tagged union: Kind selects which of the detail payloads is non-nil.
// SourceProvider is always set on results returned from the engine; Price may
// be nil when the upstream could not report one.
type NormalizedResult struct {
	Kind           Capability `json:"kind"`
	ID             string     `json:"id"`
	SourceProvider string     `json:"source_provider"`
	Price          *Money     `json:"price,omitempty"`

	Flight  *FlightDetails  `json:"flight,omitempty"`
	Hotel   *HotelDetails   `json:"hotel,omitempty"`
	Car     *CarDetails     `json:"car,omitempty"`
	Ticket  *TicketDetails  `json:"ticket,omitempty"`
	Airport *AirportDetails `json:"airport,omitempty"`
}

// PriceTotal returns the sort key for price ordering. A missing price sorts
// as zero, placing unpriced results first. This mirrors the historical
// behavior the UI depends on and is asserted in tests; do not "fix" it here.
func (r NormalizedResult) PriceTotal() decimal.Decimal {
	if r.Price == nil {
		return decimal.Zero
	}
	return r.Price.Total
}

// FlightLeg is one segment of an itinerary.
type FlightLeg struct {
	Origin       string    `json:"origin"`
	Destination  string    `json:"destination"`
	DepartureAt  time.Time `json:"departure_at"`
	ArrivalAt    time.Time `json:"arrival_at"`
	Carrier      string    `json:"carrier,omitempty"`
	FlightNumber string    `json:"flight_number,omitempty"`
}

// FlightDetails is the flight variant payload.
type FlightDetails struct {
	Legs       []FlightLeg `json:"legs"`
	Airline    string      `json:"airline,omitempty"`
	CabinClass string      `json:"cabin_class,omitempty"`
	Stops      int         `json:"stops"`
}

// RoomOffer is one bookable room within a hotel result.
type RoomOffer struct {
	Description string `json:"description"`
	BedType     string `json:"bed_type,omitempty"`
	NightlyRate *Money `json:"nightly_rate,omitempty"`
}

// HotelDetails is the hotel variant payload.
type HotelDetails struct {
	Name   string      `json:"name"`
	City   string      `json:"city"`
	Rating float64     `json:"rating,omitempty"`
	Rooms  []RoomOffer `json:"rooms,omitempty"`
}

// CarDetails is the car rental variant payload.
type CarDetails struct {
	VehicleClass    string `json:"vehicle_class"`
	Company         string `json:"company,omitempty"`
	PickupLocation  string `json:"pickup_location"`
	DropoffLocation string `json:"dropoff_location,omitempty"`
	Seats           int    `json:"seats,omitempty"`
}

// TicketDetails is the event ticket variant payload.
type TicketDetails struct {
	EventName string    `json:"event_name"`
	Artist    string    `json:"artist,omitempty"`
	VenueName string    `json:"venue_name,omitempty"`
	VenueCity string    `json:"venue_city,omitempty"`
	EventDate time.Time `json:"event_date"`
	Section   string    `json:"section,omitempty"`
	URL       string    `json:"url,omitempty"`
}

// AirportDetails is the airport lookup variant payload.
type AirportDetails struct {
	Code    string `json:"code"`
	Name    string `json:"name"`
	City    string `json:"city,omitempty"`
	Country string `json:"country,omitempty"`
}
