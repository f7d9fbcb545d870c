package handler

import (
	"errors"
	"net/http"

	"rackplan/internal/adapter"
)

// Probe runs a reachability check over the management addresses of devices
// placed in the after phase. Results are advisory; no flags change.
func (h *Handler) Probe(w http.ResponseWriter, r *http.Request) {
	if h.prober == nil {
		h.writeError(w, "Probe disabled", "enable probe in the configuration", http.StatusServiceUnavailable)
		return
	}

	report, err := h.prober.Probe(r.Context(), h.planner.Devices())
	if errors.Is(err, adapter.ErrProbeUnavailable) {
		h.writeError(w, "Probe unavailable", err.Error(), http.StatusServiceUnavailable)
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Msg("probe failed")
		h.writeError(w, "Probe failed", err.Error(), http.StatusBadGateway)
		return
	}

	h.writeJSON(w, report, http.StatusOK)
}
