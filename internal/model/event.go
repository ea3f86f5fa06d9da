package model

import "time"

// EventRecord is a persisted event row ingested from a ticketing source.
// Multiple sources can ingest the same real-world event; the deduplication
// job collapses rows sharing the identity tuple
// (name, artist, venue_name, venue_city, event_date) down to the lowest id.
type EventRecord struct {
	ID             int64     `json:"id"`
	ExternalID     string    `json:"external_id"`
	Name           string    `json:"name"`
	Artist         string    `json:"artist"`
	VenueName      string    `json:"venue_name"`
	VenueCity      string    `json:"venue_city"`
	VenueState     string    `json:"venue_state,omitempty"`
	EventDate      time.Time `json:"event_date"`
	SourceProvider string    `json:"source_provider"`
	CreatedAt      time.Time `json:"created_at"`
}
