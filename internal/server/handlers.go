package server

import (
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/tripweaver/tripweaver/internal/engine"
	"github.com/tripweaver/tripweaver/internal/faults"
	"github.com/tripweaver/tripweaver/internal/model"
	"github.com/tripweaver/tripweaver/internal/storage"
)

// Handlers holds dependencies for all HTTP handlers.
type Handlers struct {
	engine    *engine.Engine
	db        *storage.DB // nil when event persistence is disabled
	logger    *slog.Logger
	version   string
	startedAt time.Time
}

// HandlersDeps configures Handlers.
type HandlersDeps struct {
	Engine  *engine.Engine
	DB      *storage.DB
	Logger  *slog.Logger
	Version string
}

// NewHandlers creates the handler set.
func NewHandlers(deps HandlersDeps) *Handlers {
	return &Handlers{
		engine:    deps.Engine,
		db:        deps.DB,
		logger:    deps.Logger,
		version:   deps.Version,
		startedAt: time.Now(),
	}
}

// HandleSearch handles GET /v1/search/{capability}.
func (h *Handlers) HandleSearch(w http.ResponseWriter, r *http.Request) {
	capability, err := model.ParseCapability(r.PathValue("capability"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, err.Error())
		return
	}

	query, err := buildQuery(capability, r.URL.Query())
	if err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, err.Error())
		return
	}

	resp, err := h.engine.Search(r.Context(), query, r.URL.Query().Get("provider"))
	if err != nil {
		status, code := statusForKind(faults.KindOf(err))
		writeError(w, r, status, code, err.Error())
		return
	}

	writeJSON(w, r, http.StatusOK, resp)
}

// buildQuery maps URL query parameters onto the capability's query type.
// Validation happens inside the engine; this only shapes the input.
func buildQuery(capability model.Capability, params url.Values) (model.Query, error) {
	switch capability {
	case model.CapabilityFlight:
		return model.FlightQuery{
			Origin:        params.Get("origin"),
			Destination:   params.Get("destination"),
			DepartureDate: params.Get("departure_date"),
			ReturnDate:    params.Get("return_date"),
			Passengers:    intParam(params, "passengers", 1),
			CabinClass:    params.Get("cabin_class"),
		}, nil
	case model.CapabilityHotel:
		return model.HotelQuery{
			City:     params.Get("city"),
			CheckIn:  params.Get("check_in"),
			CheckOut: params.Get("check_out"),
			Adults:   intParam(params, "adults", 1),
			Rooms:    intParam(params, "rooms", 1),
		}, nil
	case model.CapabilityCar:
		return model.CarQuery{
			PickupLocation:  params.Get("pickup_location"),
			DropoffLocation: params.Get("dropoff_location"),
			PickupDate:      params.Get("pickup_date"),
			DropoffDate:     params.Get("dropoff_date"),
		}, nil
	case model.CapabilityTicket:
		return model.TicketQuery{
			Keyword:   params.Get("keyword"),
			City:      params.Get("city"),
			StartDate: params.Get("start_date"),
			EndDate:   params.Get("end_date"),
		}, nil
	case model.CapabilityAirport:
		return model.AirportQuery{Keyword: params.Get("keyword")}, nil
	default:
		return nil, faults.New(faults.ValidationError, "unsupported capability "+string(capability))
	}
}

func intParam(params url.Values, key string, defaultVal int) int {
	if v := params.Get(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}

// statusForKind maps a fault kind to an HTTP status and error code.
func statusForKind(kind faults.Kind) (int, string) {
	switch kind {
	case faults.InvalidDate, faults.InvalidLocation, faults.ValidationError:
		return http.StatusBadRequest, model.ErrCodeInvalidInput
	case faults.NoResults:
		return http.StatusNotFound, model.ErrCodeNotFound
	case faults.RateLimitExceeded:
		return http.StatusTooManyRequests, model.ErrCodeRateLimited
	default:
		return http.StatusInternalServerError, model.ErrCodeInternalError
	}
}

// HandleProviders handles GET /v1/providers. Each entry includes a live
// health probe alongside the static descriptor.
func (h *Handlers) HandleProviders(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, h.engine.AvailableProviders(r.Context()))
}

// HandleHealth handles GET /health. Unhealthy maps to 503 so load balancers
// can pull the instance; degraded still serves traffic.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	health := h.engine.Health(r.Context())

	status := http.StatusOK
	if health.Status == model.StatusUnhealthy {
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, r, status, struct {
		model.SystemHealth
		Version string `json:"version"`
		Uptime  int64  `json:"uptime_seconds"`
	}{
		SystemHealth: health,
		Version:      h.version,
		Uptime:       int64(time.Since(h.startedAt).Seconds()),
	})
}

// HandleClearCache handles DELETE /v1/cache/{capability}.
func (h *Handlers) HandleClearCache(w http.ResponseWriter, r *http.Request) {
	capability, err := model.ParseCapability(r.PathValue("capability"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, err.Error())
		return
	}

	n, err := h.engine.ClearCache(r.Context(), capability)
	if err != nil {
		h.logger.Error("cache clear failed", "capability", capability, "error", err)
		writeError(w, r, http.StatusInternalServerError, model.ErrCodeInternalError, "cache clear failed")
		return
	}

	writeJSON(w, r, http.StatusOK, map[string]any{
		"capability": capability,
		"cleared":    n,
	})
}

// HandleListEvents handles GET /v1/events. Admin tooling for inspecting the
// ingested event table.
func (h *Handlers) HandleListEvents(w http.ResponseWriter, r *http.Request) {
	if h.db == nil {
		writeError(w, r, http.StatusNotFound, model.ErrCodeNotFound, "event store is not configured")
		return
	}

	events, err := h.db.ListEvents(r.Context(), intParam(r.URL.Query(), "limit", 100))
	if err != nil {
		h.logger.Error("event listing failed", "error", err)
		writeError(w, r, http.StatusInternalServerError, model.ErrCodeInternalError, "event listing failed")
		return
	}

	writeJSON(w, r, http.StatusOK, events)
}
