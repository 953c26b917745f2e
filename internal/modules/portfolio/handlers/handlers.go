// Package handlers provides HTTP handlers for portfolio management.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/peatrack/peatrack/internal/modules/portfolio"
	"github.com/rs/zerolog"
)

// Handler handles portfolio HTTP requests
type Handler struct {
	service *portfolio.Service
	log     zerolog.Logger
}

// NewHandler creates a new portfolio handler
func NewHandler(service *portfolio.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "portfolio").Logger(),
	}
}

// HandleListPositions returns all positions in insertion order
func (h *Handler) HandleListPositions(w http.ResponseWriter, r *http.Request) {
	positions := h.service.Positions()
	if positions == nil {
		positions = []portfolio.Position{}
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"positions": positions,
		"count":     len(positions),
	})
}

// HandleGetPosition returns a single position by ticker
func (h *Handler) HandleGetPosition(w http.ResponseWriter, r *http.Request) {
	ticker := chi.URLParam(r, "ticker")
	pos := h.service.GetPosition(ticker)
	if pos == nil {
		h.writeError(w, http.StatusNotFound, "position not found: "+ticker)
		return
	}
	h.writeJSON(w, http.StatusOK, pos)
}

// HandleAddPosition adds a position, replacing any existing one with the
// same ticker
func (h *Handler) HandleAddPosition(w http.ResponseWriter, r *http.Request) {
	var pos portfolio.Position
	if err := json.NewDecoder(r.Body).Decode(&pos); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if err := h.service.AddPosition(pos); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.writeJSON(w, http.StatusCreated, pos)
}

// HandleUpdatePosition replaces the position identified by ticker
func (h *Handler) HandleUpdatePosition(w http.ResponseWriter, r *http.Request) {
	ticker := chi.URLParam(r, "ticker")

	var pos portfolio.Position
	if err := json.NewDecoder(r.Body).Decode(&pos); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if err := h.service.UpdatePosition(ticker, pos); err != nil {
		if h.service.GetPosition(ticker) == nil {
			h.writeError(w, http.StatusNotFound, err.Error())
			return
		}
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, pos)
}

// HandleRemovePosition removes a position by ticker
func (h *Handler) HandleRemovePosition(w http.ResponseWriter, r *http.Request) {
	ticker := chi.URLParam(r, "ticker")
	if err := h.service.RemovePosition(ticker); err != nil {
		h.writeError(w, http.StatusNotFound, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "removed", "ticker": ticker})
}

// HandleExportCSV streams the portfolio as a CSV attachment
func (h *Handler) HandleExportCSV(w http.ResponseWriter, r *http.Request) {
	data, err := h.service.ExportCSVBytes()
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="portfolio.csv"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to write CSV response")
	}
}

// HandleImportCSV replaces the portfolio with an uploaded CSV body.
// Invalid rows are skipped and reported in the response.
func (h *Handler) HandleImportCSV(w http.ResponseWriter, r *http.Request) {
	rowErrors, err := h.service.ImportCSVReader(r.Body)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if rowErrors == nil {
		rowErrors = []portfolio.RowError{}
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"imported": len(h.service.Positions()),
		"rejected": rowErrors,
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
