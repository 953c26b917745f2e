// Package handlers provides HTTP handlers for market data access.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/peatrack/peatrack/internal/modules/marketdata"
)

// Handler handles market data HTTP requests
type Handler struct {
	service *marketdata.Service
	tickers marketdata.TickerSource
	log     zerolog.Logger
}

// NewHandler creates a new market data handler
func NewHandler(service *marketdata.Service, tickers marketdata.TickerSource, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		tickers: tickers,
		log:     log.With().Str("handler", "marketdata").Logger(),
	}
}

// HandleGetPrices returns current prices for all held tickers
func (h *Handler) HandleGetPrices(w http.ResponseWriter, r *http.Request) {
	prices, err := h.service.CurrentPrices(h.tickers.Tickers())
	if err != nil {
		h.writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, prices)
}

// HandleGetPrice returns the current quote for one ticker, including
// whether it came from the stale cache
func (h *Handler) HandleGetPrice(w http.ResponseWriter, r *http.Request) {
	ticker := chi.URLParam(r, "ticker")
	quote, err := h.service.CurrentPrice(ticker)
	if err != nil {
		h.writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	if quote == nil {
		h.writeError(w, http.StatusNotFound, "no price available for "+ticker)
		return
	}
	h.writeJSON(w, http.StatusOK, quote)
}

// HandleGetHistory returns the daily close series for one ticker
func (h *Handler) HandleGetHistory(w http.ResponseWriter, r *http.Request) {
	ticker := chi.URLParam(r, "ticker")
	series, err := h.service.History(ticker)
	if err != nil {
		h.writeError(w, http.StatusNotFound, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"ticker": ticker,
		"series": series,
	})
}

// HandleRefresh force-refreshes prices and history for all held tickers
func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.RefreshAll(h.tickers.Tickers())
	if err != nil {
		h.writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

// RegisterRoutes registers all market data routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/market", func(r chi.Router) {
		r.Get("/prices", h.HandleGetPrices)
		r.Get("/prices/{ticker}", h.HandleGetPrice)
		r.Get("/history/{ticker}", h.HandleGetHistory)
		r.Post("/refresh", h.HandleRefresh)
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
