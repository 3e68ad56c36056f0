// Package http exposes the route-planning API: city listing, route planning,
// on-demand weather sweeps, and health.
package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/nvuppala/route-planner-service/internal/health"
	"github.com/nvuppala/route-planner-service/internal/planner"
	"github.com/nvuppala/route-planner-service/internal/service"
	"github.com/nvuppala/route-planner-service/internal/weather"
)

// HealthConfig holds thresholds for the health handler.
type HealthConfig struct {
	// DegradedWindow and DegradedErrorPct decide when weather-provider
	// failures mark the service degraded.
	DegradedWindow   time.Duration
	DegradedErrorPct int
	// CachePing, when set, is called to check cache reachability. Used when backend is memcached.
	CachePing func() error
}

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	routing          *service.RoutingService
	ingestor         *weather.Ingestor
	tracker          *health.ProviderTracker
	healthConfig     *HealthConfig
	logger           *zap.Logger
	healthStatusMu   sync.Mutex
	healthStatusPrev string
}

// NewHandler returns a new Handler.
func NewHandler(
	routing *service.RoutingService,
	ingestor *weather.Ingestor,
	tracker *health.ProviderTracker,
	healthConfig *HealthConfig,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		routing:      routing,
		ingestor:     ingestor,
		tracker:      tracker,
		healthConfig: healthConfig,
		logger:       logger,
	}
}

// GetCities handles GET /api/cities. Returns the known city names as a
// sorted JSON array.
func (h *Handler) GetCities(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.routing.Cities())
}

// GetCityCoords handles GET /api/city_coords. Returns city coordinates for
// map rendering.
func (h *Handler) GetCityCoords(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.routing.CityCoordinates())
}

// routeRequest is the POST /api/route body.
type routeRequest struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// PlanRoute handles POST /api/route.
func (h *Handler) PlanRoute(w http.ResponseWriter, r *http.Request) {
	var req routeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		writeError(w, r, http.StatusBadRequest, "INVALID_BODY", "request body must be JSON")
		return
	}
	req.Start = strings.TrimSpace(req.Start)
	req.End = strings.TrimSpace(req.End)
	if req.Start == "" || req.End == "" {
		writeError(w, r, http.StatusBadRequest, "MISSING_PARAMETER", "start and end are required")
		return
	}

	result, err := h.routing.PlanRoute(r.Context(), req.Start, req.End)
	if err != nil {
		switch {
		case errors.Is(err, planner.ErrUnknownCity):
			writeError(w, r, http.StatusNotFound, "UNKNOWN_CITY", "unknown start or end city")
		case errors.Is(err, planner.ErrRouteNotFound):
			writeError(w, r, http.StatusNotFound, "ROUTE_NOT_FOUND", "no route between the given cities")
		default:
			writeError(w, r, http.StatusInternalServerError, "INTERNAL", "route planning failed")
			if logger := loggerFrom(r); logger != nil {
				logger.Error("route planning failed", zap.Error(err))
			}
		}
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// UpdateWeather handles POST /api/update_weather. Runs a full ingestion sweep
// and returns the per-city weather summary applied to the network.
func (h *Handler) UpdateWeather(w http.ResponseWriter, r *http.Request) {
	summary := h.ingestor.Sweep(r.Context())
	writeJSON(w, http.StatusOK, summary)
}

// healthResult holds the computed health status and metadata for logging.
type healthResult struct {
	status     string
	statusCode int
	reason     string
}

// GetHealth handles GET /health.
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	result := h.computeHealthStatus()

	h.healthStatusMu.Lock()
	prev := h.healthStatusPrev
	if prev != "" && prev != result.status {
		h.logger.Info("health status transition",
			zap.String("previous_status", prev),
			zap.String("current_status", result.status),
			zap.String("reason", result.reason))
	}
	h.healthStatusPrev = result.status
	h.healthStatusMu.Unlock()

	checks := make(map[string]string)
	if result.reason == "provider_error_rate" {
		checks["weatherProvider"] = "unhealthy"
	} else {
		checks["weatherProvider"] = "healthy"
	}
	if h.healthConfig != nil && h.healthConfig.CachePing != nil {
		if h.healthConfig.CachePing() == nil {
			checks["cache"] = "healthy"
		} else {
			checks["cache"] = "unhealthy"
		}
	}
	resp := map[string]interface{}{
		"status":    result.status,
		"service":   "route-planner-service",
		"version":   "dev",
		"checks":    checks,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(result.statusCode)
	_ = json.NewEncoder(w).Encode(resp)
}

// computeHealthStatus evaluates conditions in priority order:
// shutting-down > provider degraded > healthy. Route planning itself keeps
// working on the last applied weather, so provider trouble is degraded, not
// down.
func (h *Handler) computeHealthStatus() healthResult {
	if IsDraining() {
		return healthResult{"shutting-down", http.StatusServiceUnavailable, "signal"}
	}
	if h.tracker != nil && h.healthConfig != nil &&
		h.healthConfig.DegradedWindow > 0 && h.healthConfig.DegradedErrorPct > 0 {
		if h.tracker.Degraded(h.healthConfig.DegradedWindow, h.healthConfig.DegradedErrorPct) {
			return healthResult{"degraded", http.StatusServiceUnavailable, "provider_error_rate"}
		}
	}
	return healthResult{"healthy", http.StatusOK, ""}
}

// writeJSON writes a JSON response with the specified HTTP status code.
// Sets Content-Type header to application/json and encodes the provided value.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes an error response in the standard error format with code,
// message, and requestId (correlation ID) if available in request context.
func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	corrID := ""
	if v := r.Context().Value("correlation_id"); v != nil {
		corrID = v.(string)
	}
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]string{
			"code":      code,
			"message":   message,
			"requestId": corrID,
		},
	})
}

// loggerFrom extracts the request-scoped logger, or nil.
func loggerFrom(r *http.Request) *zap.Logger {
	if logger, ok := r.Context().Value("logger").(*zap.Logger); ok {
		return logger
	}
	return nil
}
