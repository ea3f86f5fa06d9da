package model

import "fmt"

// Capability identifies one kind of search the engine can perform.
type Capability string

const (
	CapabilityFlight  Capability = "flight"
	CapabilityHotel   Capability = "hotel"
	CapabilityCar     Capability = "car"
	CapabilityTicket  Capability = "ticket"
	CapabilityAirport Capability = "airport"
)

// Capabilities lists every capability in a fixed order.
// Used for registry introspection and cache invalidation.
var Capabilities = []Capability{
	CapabilityFlight,
	CapabilityHotel,
	CapabilityCar,
	CapabilityTicket,
	CapabilityAirport,
}

// ParseCapability converts a string (e.g. a URL path segment) into a Capability.
func ParseCapability(s string) (Capability, error) {
	c := Capability(s)
	for _, known := range Capabilities {
		if c == known {
			return c, nil
		}
	}
	return "", fmt.Errorf("model: unknown capability %q", s)
}
