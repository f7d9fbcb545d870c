package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"rackplan/internal/adapter"
	"rackplan/internal/domain"
	"rackplan/internal/service"
)

// Prober checks management reachability of relocated devices
type Prober interface {
	Probe(ctx context.Context, devices []domain.Device) (*adapter.ProbeReport, error)
}

// Handler serves the placement engine over HTTP
type Handler struct {
	planner *service.Planner
	prober  Prober
	logger  zerolog.Logger
}

// New creates a new handler
func New(planner *service.Planner, logger zerolog.Logger) *Handler {
	return &Handler{
		planner: planner,
		logger:  logger.With().Str("component", "http").Logger(),
	}
}

// SetProber enables POST /api/probe
func (h *Handler) SetProber(p Prober) {
	h.prober = p
}

// ErrorResponse is the body of every non-2xx JSON response
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// Router holds the optional collaborators of the application router
type Router struct {
	Events   http.Handler // SSE stream, mounted at /events
	Metrics  http.Handler // Prometheus exposition, mounted at /metrics
	Recorder RequestRecorder
}

// NewRouter builds the application router with the API under /api
func (h *Handler) NewRouter(opts Router) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(h.logger))
	r.Use(middleware.Recoverer)
	r.Use(CORS)
	if opts.Recorder != nil {
		r.Use(Instrument(opts.Recorder))
	}

	r.Get("/healthz", h.Health)
	if opts.Events != nil {
		r.Method(http.MethodGet, "/events", opts.Events)
	}
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics)
	}

	r.Route("/api", h.Mount)
	return r
}

// Mount registers the API routes on r
func (h *Handler) Mount(r chi.Router) {
	r.Get("/racks", h.ListRacks)
	r.Get("/racks/{id}", h.GetRack)
	r.Get("/racks/{id}/layout", h.GetLayout)

	r.Get("/devices", h.ListDevices)
	r.Post("/devices", h.CreateDevice)
	r.Get("/devices/{id}", h.GetDevice)
	r.Patch("/devices/{id}", h.UpdateDevice)
	r.Delete("/devices/{id}", h.DeleteDevice)
	r.Put("/devices/{id}/placement/{phase}", h.PlaceDevice)
	r.Delete("/devices/{id}/placement/{phase}", h.ClearPlacement)
	r.Put("/devices/{id}/status/{flag}", h.SetStatus)

	r.Get("/summary", h.GetSummary)
	r.Get("/snapshot", h.GetSnapshot)

	r.Get("/export/{format}", h.Export)
	r.Post("/import", h.Import)

	r.Post("/probe", h.Probe)
}

// Health reports liveness along with the current snapshot sequence
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	snap := h.planner.Snapshot()
	h.writeJSON(w, map[string]any{
		"status":  "ok",
		"seq":     snap.Seq,
		"devices": len(snap.Devices),
	}, http.StatusOK)
}

func (h *Handler) writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error().Err(err).Msg("failed to encode JSON")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, error, details string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(ErrorResponse{
		Error:   error,
		Details: details,
	}); err != nil {
		h.logger.Error().Err(err).Msg("failed to encode error response")
	}
}

// decodeJSON reads a JSON request body into v, rejecting unknown fields
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

const maxBodyBytes = 8 << 20

// placementStatus maps a placement outcome onto an HTTP status code
func placementStatus(res domain.PlaceResult) int {
	err := res.Err()
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, domain.ErrDeviceNotFound), errors.Is(err, domain.ErrRackNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrOutOfBounds):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrSlotConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrUnknownPhase):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
