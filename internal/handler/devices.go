package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"rackplan/internal/domain"
	"rackplan/internal/service"
)

// ListDevices returns all devices in insertion order, or only those without
// a placement when ?unplaced=before|after is given
func (h *Handler) ListDevices(w http.ResponseWriter, r *http.Request) {
	if raw := r.URL.Query().Get("unplaced"); raw != "" {
		phase, err := domain.ParsePhase(raw)
		if err != nil {
			h.writeError(w, "Invalid phase", err.Error(), http.StatusBadRequest)
			return
		}
		h.writeJSON(w, h.planner.Unplaced(phase), http.StatusOK)
		return
	}
	h.writeJSON(w, h.planner.Devices(), http.StatusOK)
}

// CreateDevice adds a device from a draft
func (h *Handler) CreateDevice(w http.ResponseWriter, r *http.Request) {
	var draft domain.DeviceDraft
	if err := decodeJSON(w, r, &draft); err != nil {
		h.writeError(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}

	d := h.planner.AddDevice(r.Context(), draft)
	w.Header().Set("Location", "/api/devices/"+d.ID)
	h.writeJSON(w, d, http.StatusCreated)
}

// GetDevice returns a single device
func (h *Handler) GetDevice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	d, ok := h.planner.Device(id)
	if !ok {
		h.writeError(w, "Not found", "device "+id+" not found", http.StatusNotFound)
		return
	}
	h.writeJSON(w, d, http.StatusOK)
}

// UpdateDevice merges the provided fields into a device. Unknown ids are a
// no-op answered with 204.
func (h *Handler) UpdateDevice(w http.ResponseWriter, r *http.Request) {
	var u domain.DeviceUpdate
	if err := decodeJSON(w, r, &u); err != nil {
		h.writeError(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}

	d, ok := h.planner.UpdateDevice(r.Context(), chi.URLParam(r, "id"), u)
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	h.writeJSON(w, d, http.StatusOK)
}

// DeleteDevice removes a device; unknown ids are a no-op
func (h *Handler) DeleteDevice(w http.ResponseWriter, r *http.Request) {
	h.planner.DeleteDevice(r.Context(), chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}

// PlaceRequest is the body of a placement request
type PlaceRequest struct {
	RackID string `json:"rack_id"`
	Start  int    `json:"start"`
}

// PlaceDevice places a device for a phase. The body is always the
// placement result; the status code reflects its kind.
func (h *Handler) PlaceDevice(w http.ResponseWriter, r *http.Request) {
	var req PlaceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}

	phase := domain.Phase(chi.URLParam(r, "phase"))
	res, err := h.planner.Place(r.Context(), phase, chi.URLParam(r, "id"), req.RackID, req.Start)
	if err != nil {
		h.writeError(w, "Invalid phase", err.Error(), http.StatusBadRequest)
		return
	}
	h.writeJSON(w, res, placementStatus(res))
}

// ClearPlacement removes a device's placement for a phase
func (h *Handler) ClearPlacement(w http.ResponseWriter, r *http.Request) {
	phase := domain.Phase(chi.URLParam(r, "phase"))
	if _, err := h.planner.ClearPlacement(r.Context(), phase, chi.URLParam(r, "id")); err != nil {
		h.writeError(w, "Invalid phase", err.Error(), http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// StatusRequest is the body of a status flag change
type StatusRequest struct {
	Value bool `json:"value"`
}

// SetStatus sets one migration flag and returns the updated device.
// Unknown devices are a no-op answered with 204.
func (h *Handler) SetStatus(w http.ResponseWriter, r *http.Request) {
	var req StatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}

	id := chi.URLParam(r, "id")
	ok, err := h.planner.SetFlag(r.Context(), id, domain.Flag(chi.URLParam(r, "flag")), req.Value)
	switch {
	case errors.Is(err, domain.ErrUnknownFlag):
		h.writeError(w, "Invalid flag", err.Error(), http.StatusBadRequest)
		return
	case errors.Is(err, service.ErrFlagsLocked):
		h.writeError(w, "Flags locked", "device "+id+" has no after placement", http.StatusConflict)
		return
	case err != nil:
		h.logger.Error().Err(err).Str("device_id", id).Msg("failed to set flag")
		h.writeError(w, "Failed to set flag", err.Error(), http.StatusInternalServerError)
		return
	case !ok:
		w.WriteHeader(http.StatusNoContent)
		return
	}

	d, _ := h.planner.Device(id)
	h.writeJSON(w, d, http.StatusOK)
}
