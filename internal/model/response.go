package model

// ProviderStatus enumerates outcomes for a single provider within one search.
type ProviderStatus string

const (
	ProviderSuccess ProviderStatus = "success"
	ProviderError   ProviderStatus = "error"
	ProviderSkipped ProviderStatus = "skipped"
)

// ProviderReportEntry records how one provider fared during a search.
// Entries always appear in the configured priority order.
type ProviderReportEntry struct {
	Name   string         `json:"name"`
	Status ProviderStatus `json:"status"`
	Count  int            `json:"count"`
	Error  string         `json:"error,omitempty"`
}

// SearchResponse is the aggregated outcome of one capability search.
// Results is never nil; an empty slice with a fully populated report means
// every provider failed or was skipped — callers decide whether that is a
// user-facing failure.
type SearchResponse struct {
	Results        []NormalizedResult    `json:"results"`
	ProviderReport []ProviderReportEntry `json:"provider_report"`
	CacheHit       bool                  `json:"cache_hit"`
}
