// Package handlers serves the interactions API over HTTP.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/alibahaloo/PharmaTrack-sub000/interactions"
	"github.com/alibahaloo/PharmaTrack-sub000/interfaces"
	"github.com/alibahaloo/PharmaTrack-sub000/logging"
	"github.com/go-chi/chi/v5"
)

// DefaultResolutionTimeout bounds a single resolution when none is configured
const DefaultResolutionTimeout = 10 * time.Second

// retryAfterSeconds is advertised when the reference store is unavailable
const retryAfterSeconds = "5"

// HTTPHandlerImpl implements the interfaces.HTTPHandler interface
type HTTPHandlerImpl struct {
	resolver  interfaces.InteractionResolver
	health    interfaces.HealthChecker
	validator interfaces.DataValidator
	timeout   time.Duration
	startTime time.Time
}

// NewHTTPHandler creates a new HTTP handler with injected dependencies.
// A non-positive timeout falls back to DefaultResolutionTimeout.
func NewHTTPHandler(
	resolver interfaces.InteractionResolver,
	health interfaces.HealthChecker,
	validator interfaces.DataValidator,
	timeout time.Duration,
) interfaces.HTTPHandler {
	if timeout <= 0 {
		timeout = DefaultResolutionTimeout
	}
	return &HTTPHandlerImpl{
		resolver:  resolver,
		health:    health,
		validator: validator,
		timeout:   timeout,
		startTime: time.Now(),
	}
}

// HealthResponse defines the structure for consistent JSON ordering
type HealthResponse struct {
	Status        string         `json:"status"`
	Uptime        string         `json:"uptime"`
	UptimeSeconds float64        `json:"uptime_seconds"`
	Data          map[string]any `json:"data"`
	System        map[string]any `json:"system"`
}

// errorResponse is the body of every non-2xx reply
type errorResponse struct {
	Error   string                   `json:"error"`
	Message string                   `json:"message"`
	Code    int                      `json:"code"`
	Details *interactions.InputError `json:"details,omitempty"`
}

// RespondWithJSON writes payload as JSON with the given status code
func (h *HTTPHandlerImpl) RespondWithJSON(w http.ResponseWriter, code int, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		logging.Error("Failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	w.Write(data)
}

// RespondWithError writes a JSON error response
func (h *HTTPHandlerImpl) RespondWithError(w http.ResponseWriter, code int, message string) {
	h.RespondWithJSON(w, code, errorResponse{
		Error:   http.StatusText(code),
		Message: message,
		Code:    code,
	})
}

// respondWithResolutionError maps a resolution error onto a status code.
// Invalid input carries the offending token back to the caller.
func (h *HTTPHandlerImpl) respondWithResolutionError(w http.ResponseWriter, r *http.Request, err error) {
	var inputErr *interactions.InputError

	switch {
	case errors.As(err, &inputErr):
		h.RespondWithJSON(w, http.StatusBadRequest, errorResponse{
			Error:   http.StatusText(http.StatusBadRequest),
			Message: inputErr.Error(),
			Code:    http.StatusBadRequest,
			Details: inputErr,
		})
	case errors.Is(err, interactions.ErrInvalidInput):
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, interactions.ErrDrugNotFound):
		h.RespondWithError(w, http.StatusNotFound, "Drug not found")
	case errors.Is(err, interactions.ErrCancelled) && errors.Is(err, context.DeadlineExceeded):
		logging.Warn("Resolution timed out", "path", r.URL.Path, "error", err)
		h.RespondWithError(w, http.StatusGatewayTimeout, "Resolution timed out")
	case errors.Is(err, interactions.ErrCancelled):
		logging.Debug("Resolution cancelled by client", "path", r.URL.Path)
		h.RespondWithError(w, http.StatusServiceUnavailable, "Request cancelled")
	case errors.Is(err, interactions.ErrDataAccess):
		logging.Error("Reference store unavailable", "path", r.URL.Path, "error", err)
		w.Header().Set("Retry-After", retryAfterSeconds)
		h.RespondWithError(w, http.StatusServiceUnavailable, "Reference data temporarily unavailable")
	default:
		logging.Error("Unexpected resolution failure", "path", r.URL.Path, "error", err)
		h.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// queryParam validates a required query parameter before it reaches the core
func (h *HTTPHandlerImpl) queryParam(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	if !r.URL.Query().Has(name) {
		h.RespondWithError(w, http.StatusBadRequest, fmt.Sprintf("Missing %s parameter", name))
		return "", false
	}

	value := r.URL.Query().Get(name)
	if err := h.validator.ValidateQuery(value); err != nil {
		logging.Warn("Unusual user input", name, value, "error", err)
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return "", false
	}
	return value, true
}

// formatUptimeHuman formats duration into a human-readable string
func (h *HTTPHandlerImpl) formatUptimeHuman(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	var parts []string
	if days > 0 {
		parts = append(parts, fmt.Sprintf("%dd", days))
	}
	if hours > 0 || days > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if minutes > 0 || hours > 0 || days > 0 {
		parts = append(parts, fmt.Sprintf("%dm", minutes))
	}
	parts = append(parts, fmt.Sprintf("%ds", seconds))

	return strings.Join(parts, " ")
}

// ResolveByDrugCodes serves GET /v1/interactions/drugs?codes=1,2,3
func (h *HTTPHandlerImpl) ResolveByDrugCodes(w http.ResponseWriter, r *http.Request) {
	codes, ok := h.queryParam(w, r, "codes")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	result, err := h.resolver.ResolveByDrugCodes(ctx, codes)
	if err != nil {
		h.respondWithResolutionError(w, r, err)
		return
	}
	h.RespondWithJSON(w, http.StatusOK, result)
}

// ResolveByIngredientNames serves GET /v1/interactions/ingredients?names=a,b
func (h *HTTPHandlerImpl) ResolveByIngredientNames(w http.ResponseWriter, r *http.Request) {
	names, ok := h.queryParam(w, r, "names")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	result, err := h.resolver.ResolveByIngredientNames(ctx, names)
	if err != nil {
		h.respondWithResolutionError(w, r, err)
		return
	}
	h.RespondWithJSON(w, http.StatusOK, result)
}

// FindDrugByCode serves GET /v1/drugs/{code}
func (h *HTTPHandlerImpl) FindDrugByCode(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "code")
	code, err := strconv.Atoi(raw)
	if err != nil || code <= 0 {
		logging.Warn("Unusual user input", "code", raw)
		h.RespondWithError(w, http.StatusBadRequest, "Invalid drug code")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	drug, err := h.resolver.LookupDrug(ctx, code)
	if err != nil {
		h.respondWithResolutionError(w, r, err)
		return
	}
	h.RespondWithJSON(w, http.StatusOK, drug)
}

// HealthCheck returns reference store health plus process information
func (h *HTTPHandlerImpl) HealthCheck(w http.ResponseWriter, r *http.Request) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	status, details, httpStatus := h.health.HealthCheck(r.Context())
	uptime := time.Since(h.startTime)

	response := HealthResponse{
		Status:        status,
		Uptime:        h.formatUptimeHuman(uptime),
		UptimeSeconds: uptime.Seconds(),
		Data:          details,
		System: map[string]any{
			"goroutines": runtime.NumGoroutine(),
			"memory": map[string]any{
				"alloc_mb":       int(m.Alloc / 1024 / 1024),
				"total_alloc_mb": int(m.TotalAlloc / 1024 / 1024),
				"sys_mb":         int(m.Sys / 1024 / 1024),
				"num_gc":         m.NumGC,
			},
		},
	}

	h.RespondWithJSON(w, httpStatus, response)
}
