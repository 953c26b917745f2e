// Package handlers provides HTTP handlers for portfolio analytics.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/peatrack/peatrack/internal/modules/analytics"
	"github.com/rs/zerolog"
)

// Prefs supplies the user-configured defaults the analytics endpoints
// fall back to. The settings service implements it.
type Prefs interface {
	RiskFreeRate() float64
	Currency() string
}

// Handler handles analytics HTTP requests
type Handler struct {
	engine *analytics.Engine
	prefs  Prefs
	log    zerolog.Logger
}

// NewHandler creates a new analytics handler
func NewHandler(engine *analytics.Engine, prefs Prefs, log zerolog.Logger) *Handler {
	return &Handler{
		engine: engine,
		prefs:  prefs,
		log:    log.With().Str("handler", "analytics").Logger(),
	}
}

// HandleSummary returns portfolio value, invested amount and P&L
func (h *Handler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.engine.Summary()
	if err != nil {
		h.writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	summary.Currency = h.prefs.Currency()
	h.writeJSON(w, http.StatusOK, summary)
}

// HandlePositionValues returns the market value per ticker
func (h *Handler) HandlePositionValues(w http.ResponseWriter, r *http.Request) {
	prices, err := h.engine.CurrentPrices()
	if err != nil {
		h.writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, h.engine.PositionValues(prices))
}

// HandleAllocation returns each position's share of the portfolio in percent
func (h *Handler) HandleAllocation(w http.ResponseWriter, r *http.Request) {
	prices, err := h.engine.CurrentPrices()
	if err != nil {
		h.writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, h.engine.Allocation(prices))
}

// HandleReturns returns the portfolio return series at the requested period
func (h *Handler) HandleReturns(w http.ResponseWriter, r *http.Request) {
	period := queryPeriod(r)
	returns, err := h.engine.Returns(period)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"period":  period,
		"returns": returns,
	})
}

// HandleValueSeries returns the daily portfolio value series
func (h *Handler) HandleValueSeries(w http.ResponseWriter, r *http.Request) {
	series, err := h.engine.ValueSeries()
	if err != nil {
		h.writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"values": series})
}

// HandleVolatility returns annualized volatility at the requested period
func (h *Handler) HandleVolatility(w http.ResponseWriter, r *http.Request) {
	period := queryPeriod(r)
	vol, err := h.engine.Volatility(period)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"period":     period,
		"volatility": vol,
	})
}

// HandleSharpe returns the annualized Sharpe ratio. risk_free is an
// annual rate, defaulting to the configured risk_free_rate setting.
func (h *Handler) HandleSharpe(w http.ResponseWriter, r *http.Request) {
	period := queryPeriod(r)

	riskFree := h.prefs.RiskFreeRate()
	if raw := r.URL.Query().Get("risk_free"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "invalid risk_free: "+raw)
			return
		}
		riskFree = parsed
	}

	sharpe, err := h.engine.SharpeRatio(period, riskFree)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"period":       period,
		"risk_free":    riskFree,
		"sharpe_ratio": sharpe,
	})
}

// HandleMaxDrawdown returns the worst peak-to-trough decline as a
// negative fraction, alongside the drawdown the portfolio currently
// sits in.
func (h *Handler) HandleMaxDrawdown(w http.ResponseWriter, r *http.Request) {
	maxDD, err := h.engine.MaxDrawdown()
	if err != nil {
		h.writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	currentDD, err := h.engine.CurrentDrawdown()
	if err != nil {
		h.writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"max_drawdown":     maxDD,
		"current_drawdown": currentDD,
	})
}

// HandleCorrelation returns the pairwise correlation matrix of daily returns
func (h *Handler) HandleCorrelation(w http.ResponseWriter, r *http.Request) {
	matrix, err := h.engine.CorrelationMatrix()
	if err != nil {
		h.writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, matrix)
}

// RegisterRoutes registers all analytics routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/analytics", func(r chi.Router) {
		r.Get("/summary", h.HandleSummary)
		r.Get("/position-values", h.HandlePositionValues)
		r.Get("/allocation", h.HandleAllocation)
		r.Get("/returns", h.HandleReturns)
		r.Get("/value-series", h.HandleValueSeries)
		r.Get("/volatility", h.HandleVolatility)
		r.Get("/sharpe", h.HandleSharpe)
		r.Get("/max-drawdown", h.HandleMaxDrawdown)
		r.Get("/correlation", h.HandleCorrelation)
	})
}

func queryPeriod(r *http.Request) analytics.Period {
	if raw := r.URL.Query().Get("period"); raw != "" {
		return analytics.Period(raw)
	}
	return analytics.PeriodDaily
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
