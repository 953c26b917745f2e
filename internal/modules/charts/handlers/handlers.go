// Package handlers serves rendered charts and their JSON specs.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/peatrack/peatrack/internal/modules/charts"
)

// Handler handles chart HTTP requests. Every endpoint returns PNG by
// default and the underlying chart spec with ?format=json.
type Handler struct {
	service *charts.Service
	log     zerolog.Logger
}

// NewHandler creates a new charts handler
func NewHandler(service *charts.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "charts").Logger(),
	}
}

// HandleValueChart serves the portfolio value line chart
func (h *Handler) HandleValueChart(w http.ResponseWriter, r *http.Request) {
	spec, err := h.service.ValueChart()
	if err != nil {
		h.writeError(w, http.StatusNotFound, err.Error())
		return
	}
	h.respond(w, r, spec, func() ([]byte, error) { return charts.RenderLine(spec) })
}

// HandleAllocationChart serves the allocation pie chart
func (h *Handler) HandleAllocationChart(w http.ResponseWriter, r *http.Request) {
	spec, err := h.service.AllocationChart()
	if err != nil {
		h.writeError(w, http.StatusNotFound, err.Error())
		return
	}
	h.respond(w, r, spec, func() ([]byte, error) { return charts.RenderPie(spec) })
}

// HandlePnLChart serves the per-position P&L bar chart
func (h *Handler) HandlePnLChart(w http.ResponseWriter, r *http.Request) {
	spec, err := h.service.PnLChart()
	if err != nil {
		h.writeError(w, http.StatusNotFound, err.Error())
		return
	}
	h.respond(w, r, spec, func() ([]byte, error) { return charts.RenderBar(spec) })
}

// HandleCorrelationChart serves the correlation grid
func (h *Handler) HandleCorrelationChart(w http.ResponseWriter, r *http.Request) {
	spec, err := h.service.CorrelationChart()
	if err != nil {
		h.writeError(w, http.StatusNotFound, err.Error())
		return
	}
	h.respond(w, r, spec, func() ([]byte, error) { return charts.RenderBar(spec) })
}

// HandlePriceChart serves one ticker's close series with an SMA overlay.
// ?sma= overrides the window.
func (h *Handler) HandlePriceChart(w http.ResponseWriter, r *http.Request) {
	ticker := chi.URLParam(r, "ticker")

	smaWindow := 0
	if raw := r.URL.Query().Get("sma"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			h.writeError(w, http.StatusBadRequest, "invalid sma window: "+raw)
			return
		}
		smaWindow = parsed
	}

	spec, err := h.service.PriceChart(ticker, smaWindow)
	if err != nil {
		h.writeError(w, http.StatusNotFound, err.Error())
		return
	}
	h.respond(w, r, spec, func() ([]byte, error) { return charts.RenderLine(spec) })
}

// RegisterRoutes registers all chart routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/charts", func(r chi.Router) {
		r.Get("/value", h.HandleValueChart)
		r.Get("/allocation", h.HandleAllocationChart)
		r.Get("/pnl", h.HandlePnLChart)
		r.Get("/correlation", h.HandleCorrelationChart)
		r.Get("/price/{ticker}", h.HandlePriceChart)
	})
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, spec interface{}, render func() ([]byte, error)) {
	if r.URL.Query().Get("format") == "json" {
		h.writeJSON(w, http.StatusOK, spec)
		return
	}

	png, err := render()
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(png); err != nil {
		h.log.Error().Err(err).Msg("Failed to write PNG response")
	}
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
