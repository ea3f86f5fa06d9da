package model

import (
	"strconv"
	"strings"
	"time"

	"github.com/tripweaver/tripweaver/internal/faults"
)

// dateLayout is the wire format for all query dates.
const dateLayout = "2006-01-02"

// Query is a capability-tagged search request. Each capability has its own
// concrete query type; Params returns the query's parameters in a fixed order
// so equal queries always produce equal cache keys regardless of how the
// query was constructed.
type Query interface {
	Capability() Capability
	Params() []string
	Validate() error
}

// normCode lowercases and trims a location/IATA code for cache keys and
// upstream calls. Codes are case-insensitive everywhere we send them.
func normCode(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// normText normalizes free-text params (city names, keywords) for cache keys:
// trimmed, lowercased, inner spaces collapsed to hyphens so the key stays a
// single underscore-delimited token stream.
func normText(s string) string {
	return strings.ReplaceAll(strings.Join(strings.Fields(strings.ToLower(s)), " "), " ", "-")
}

func parseDate(s string) (time.Time, error) {
	return time.Parse(dateLayout, s)
}

// FlightQuery describes a flight search.
type FlightQuery struct {
	Origin        string `json:"origin"`
	Destination   string `json:"destination"`
	DepartureDate string `json:"departure_date"`
	ReturnDate    string `json:"return_date,omitempty"`
	Passengers    int    `json:"passengers"`
	CabinClass    string `json:"cabin_class,omitempty"`
}

func (q FlightQuery) Capability() Capability { return CapabilityFlight }

func (q FlightQuery) Params() []string {
	return []string{
		normCode(q.Origin),
		normCode(q.Destination),
		q.DepartureDate,
		q.ReturnDate,
		strconv.Itoa(q.Passengers),
		normText(q.CabinClass),
	}
}

func (q FlightQuery) Validate() error {
	if strings.TrimSpace(q.Origin) == "" || strings.TrimSpace(q.Destination) == "" {
		return faults.New(faults.InvalidLocation, "origin and destination are required")
	}
	if _, err := parseDate(q.DepartureDate); err != nil {
		return faults.New(faults.InvalidDate, "departure_date must be YYYY-MM-DD")
	}
	if q.ReturnDate != "" {
		ret, err := parseDate(q.ReturnDate)
		if err != nil {
			return faults.New(faults.InvalidDate, "return_date must be YYYY-MM-DD")
		}
		dep, _ := parseDate(q.DepartureDate)
		if ret.Before(dep) {
			return faults.New(faults.InvalidDate, "return_date is before departure_date")
		}
	}
	if q.Passengers < 1 {
		return faults.New(faults.ValidationError, "passengers must be at least 1")
	}
	return nil
}

// HotelQuery describes a hotel search.
type HotelQuery struct {
	City     string `json:"city"`
	CheckIn  string `json:"check_in"`
	CheckOut string `json:"check_out"`
	Adults   int    `json:"adults"`
	Rooms    int    `json:"rooms"`
}

func (q HotelQuery) Capability() Capability { return CapabilityHotel }

func (q HotelQuery) Params() []string {
	return []string{
		normText(q.City),
		q.CheckIn,
		q.CheckOut,
		strconv.Itoa(q.Adults),
		strconv.Itoa(q.Rooms),
	}
}

func (q HotelQuery) Validate() error {
	if strings.TrimSpace(q.City) == "" {
		return faults.New(faults.InvalidLocation, "city is required")
	}
	in, err := parseDate(q.CheckIn)
	if err != nil {
		return faults.New(faults.InvalidDate, "check_in must be YYYY-MM-DD")
	}
	out, err := parseDate(q.CheckOut)
	if err != nil {
		return faults.New(faults.InvalidDate, "check_out must be YYYY-MM-DD")
	}
	if !out.After(in) {
		return faults.New(faults.InvalidDate, "check_out must be after check_in")
	}
	if q.Adults < 1 {
		return faults.New(faults.ValidationError, "adults must be at least 1")
	}
	if q.Rooms < 1 {
		return faults.New(faults.ValidationError, "rooms must be at least 1")
	}
	return nil
}

// CarQuery describes a car rental search.
type CarQuery struct {
	PickupLocation  string `json:"pickup_location"`
	DropoffLocation string `json:"dropoff_location"`
	PickupDate      string `json:"pickup_date"`
	DropoffDate     string `json:"dropoff_date"`
}

func (q CarQuery) Capability() Capability { return CapabilityCar }

func (q CarQuery) Params() []string {
	return []string{
		normCode(q.PickupLocation),
		normCode(q.DropoffLocation),
		q.PickupDate,
		q.DropoffDate,
	}
}

func (q CarQuery) Validate() error {
	if strings.TrimSpace(q.PickupLocation) == "" {
		return faults.New(faults.InvalidLocation, "pickup_location is required")
	}
	pick, err := parseDate(q.PickupDate)
	if err != nil {
		return faults.New(faults.InvalidDate, "pickup_date must be YYYY-MM-DD")
	}
	if q.DropoffDate != "" {
		drop, err := parseDate(q.DropoffDate)
		if err != nil {
			return faults.New(faults.InvalidDate, "dropoff_date must be YYYY-MM-DD")
		}
		if drop.Before(pick) {
			return faults.New(faults.InvalidDate, "dropoff_date is before pickup_date")
		}
	}
	return nil
}

// TicketQuery describes an event ticket search.
type TicketQuery struct {
	Keyword   string `json:"keyword"`
	City      string `json:"city,omitempty"`
	StartDate string `json:"start_date,omitempty"`
	EndDate   string `json:"end_date,omitempty"`
}

func (q TicketQuery) Capability() Capability { return CapabilityTicket }

func (q TicketQuery) Params() []string {
	return []string{
		normText(q.Keyword),
		normText(q.City),
		q.StartDate,
		q.EndDate,
	}
}

func (q TicketQuery) Validate() error {
	if strings.TrimSpace(q.Keyword) == "" && strings.TrimSpace(q.City) == "" {
		return faults.New(faults.ValidationError, "keyword or city is required")
	}
	for _, d := range []string{q.StartDate, q.EndDate} {
		if d == "" {
			continue
		}
		if _, err := parseDate(d); err != nil {
			return faults.New(faults.InvalidDate, "dates must be YYYY-MM-DD")
		}
	}
	return nil
}

// AirportQuery describes an airport/location lookup.
type AirportQuery struct {
	Keyword string `json:"keyword"`
}

func (q AirportQuery) Capability() Capability { return CapabilityAirport }

func (q AirportQuery) Params() []string {
	return []string{normText(q.Keyword)}
}

func (q AirportQuery) Validate() error {
	if strings.TrimSpace(q.Keyword) == "" {
		return faults.New(faults.ValidationError, "keyword is required")
	}
	return nil
}
