package handler

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"rackplan/internal/codec"
)

// Export writes the current state as csv, xlsx, json or yaml. The table
// formats carry the devices; json and yaml carry the full snapshot.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	format := chi.URLParam(r, "format")

	var (
		buf         bytes.Buffer
		contentType string
		err         error
	)
	if exporter, lookupErr := codec.ExporterFor(format); lookupErr == nil {
		contentType = exporter.ContentType()
		err = exporter.Export(&buf, h.planner.Devices())
	} else if c, lookupErr := codec.ForFormat(format); lookupErr == nil {
		contentType = c.ContentType()
		err = c.Encode(&buf, h.planner.Snapshot())
	} else {
		h.writeError(w, "Unknown export format", lookupErr.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Str("format", format).Msg("export failed")
		h.writeError(w, "Export failed", err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=rackplan.%s", format))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// Import replaces all devices with a JSON or YAML snapshot document. The
// format comes from ?format= or the Content-Type header, defaulting to JSON.
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	c := codec.ForContentType(r.Header.Get("Content-Type"))
	if format := r.URL.Query().Get("format"); format != "" {
		var err error
		if c, err = codec.ForFormat(format); err != nil {
			h.writeError(w, "Unknown import format", err.Error(), http.StatusBadRequest)
			return
		}
	}

	raw, err := c.Decode(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeError(w, "Request body too large", err.Error(), http.StatusRequestEntityTooLarge)
			return
		}
		h.writeError(w, "Invalid snapshot document", err.Error(), http.StatusBadRequest)
		return
	}

	report := h.planner.Import(r.Context(), *raw)
	h.writeJSON(w, report, http.StatusOK)
}
