// Package provider defines the adapter contract every upstream integration
// implements, and the registry the orchestrator resolves providers from.
//
// Capability support is expressed through compile-time-checked interfaces:
// an adapter implements only the Search* interfaces for capabilities it
// supports, and the registry discovers support via type assertions. Adapters
// normalize upstream shapes into model.NormalizedResult at their own boundary;
// provider-specific response shapes never leak past the adapter.
package provider

import (
	"context"

	"github.com/tripweaver/tripweaver/internal/model"
)

// Adapter is the base contract for one upstream travel/ticketing source.
type Adapter interface {
	// Name returns the provider identifier (e.g. "serpapi", "amadeus").
	Name() string

	// Available reports whether the adapter is configured to run (credentials
	// present, config sane). It is a cheap local check, not a guarantee that
	// a live call will succeed.
	Available() bool

	// HealthCheck probes the upstream and returns a point-in-time snapshot.
	HealthCheck(ctx context.Context) model.ProviderHealth
}

// FlightSearcher is implemented by adapters that can search flights.
// Search methods return an empty slice for "no results" — that is success,
// not an error. Transport, auth, and rate-limit failures return kind-tagged
// errors (see the faults package).
type FlightSearcher interface {
	Adapter
	SearchFlights(ctx context.Context, q model.FlightQuery) ([]model.NormalizedResult, error)
}

// HotelSearcher is implemented by adapters that can search hotels.
type HotelSearcher interface {
	Adapter
	SearchHotels(ctx context.Context, q model.HotelQuery) ([]model.NormalizedResult, error)
}

// CarSearcher is implemented by adapters that can search car rentals.
type CarSearcher interface {
	Adapter
	SearchCars(ctx context.Context, q model.CarQuery) ([]model.NormalizedResult, error)
}

// TicketSearcher is implemented by adapters that can search event tickets.
type TicketSearcher interface {
	Adapter
	SearchTickets(ctx context.Context, q model.TicketQuery) ([]model.NormalizedResult, error)
}

// AirportSearcher is implemented by adapters that can look up airports.
type AirportSearcher interface {
	Adapter
	SearchAirports(ctx context.Context, q model.AirportQuery) ([]model.NormalizedResult, error)
}

// Supports reports whether the adapter implements the given capability.
func Supports(a Adapter, capability model.Capability) bool {
	switch capability {
	case model.CapabilityFlight:
		_, ok := a.(FlightSearcher)
		return ok
	case model.CapabilityHotel:
		_, ok := a.(HotelSearcher)
		return ok
	case model.CapabilityCar:
		_, ok := a.(CarSearcher)
		return ok
	case model.CapabilityTicket:
		_, ok := a.(TicketSearcher)
		return ok
	case model.CapabilityAirport:
		_, ok := a.(AirportSearcher)
		return ok
	}
	return false
}

// Describe builds a Descriptor for a registered adapter.
func Describe(a Adapter) Descriptor {
	d := Descriptor{Name: a.Name()}
	for _, c := range model.Capabilities {
		if Supports(a, c) {
			d.Capabilities = append(d.Capabilities, c)
		}
	}
	return d
}

// Descriptor summarizes one registered provider.
type Descriptor struct {
	Name         string             `json:"name"`
	Capabilities []model.Capability `json:"capabilities"`
}
