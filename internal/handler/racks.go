package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"rackplan/internal/domain"
)

// ListRacks returns the rack catalog
func (h *Handler) ListRacks(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, h.planner.Racks(), http.StatusOK)
}

// GetRack returns a single rack
func (h *Handler) GetRack(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rack, ok := h.planner.Rack(id)
	if !ok {
		h.writeError(w, "Not found", "rack "+id+" not found", http.StatusNotFound)
		return
	}
	h.writeJSON(w, rack, http.StatusOK)
}

// LayoutResponse is a rack elevation for one phase, top slot first
type LayoutResponse struct {
	Rack  domain.Rack      `json:"rack"`
	Phase domain.Phase     `json:"phase"`
	Rows  []domain.SlotRow `json:"rows"`
}

// GetLayout returns the rack elevation for ?phase= (default before)
func (h *Handler) GetLayout(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	raw := r.URL.Query().Get("phase")
	if raw == "" {
		raw = string(domain.PhaseBefore)
	}
	phase, err := domain.ParsePhase(raw)
	if err != nil {
		h.writeError(w, "Invalid phase", err.Error(), http.StatusBadRequest)
		return
	}

	rows, err := h.planner.Layout(id, phase)
	if errors.Is(err, domain.ErrRackNotFound) {
		h.writeError(w, "Not found", "rack "+id+" not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.writeError(w, "Failed to build layout", err.Error(), http.StatusInternalServerError)
		return
	}

	rack, _ := h.planner.Rack(id)
	h.writeJSON(w, LayoutResponse{Rack: rack, Phase: phase, Rows: rows}, http.StatusOK)
}

// GetSummary returns the dashboard counts
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, h.planner.Summary(), http.StatusOK)
}

// GetSnapshot returns the full current state
func (h *Handler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, h.planner.Snapshot(), http.StatusOK)
}
