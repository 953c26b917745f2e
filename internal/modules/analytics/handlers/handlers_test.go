package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peatrack/peatrack/internal/domain"
	"github.com/peatrack/peatrack/internal/modules/analytics"
	"github.com/peatrack/peatrack/internal/modules/portfolio"
)

type fakeProvider struct {
	prices    domain.PriceMap
	histories map[string]domain.HistoricalSeries
}

func (f *fakeProvider) CurrentPrices(tickers []string) (domain.PriceMap, error) {
	result := make(domain.PriceMap)
	for _, t := range tickers {
		if price, ok := f.prices[t]; ok {
			result[t] = price
		}
	}
	return result, nil
}

func (f *fakeProvider) History(ticker string) (domain.HistoricalSeries, error) {
	series, ok := f.histories[ticker]
	if !ok {
		return nil, fmt.Errorf("no history for %s", ticker)
	}
	return series, nil
}

type fakePrefs struct {
	riskFree float64
	currency string
}

func (f *fakePrefs) RiskFreeRate() float64 { return f.riskFree }
func (f *fakePrefs) Currency() string      { return f.currency }

func newTestRouter(t *testing.T) (chi.Router, *fakePrefs) {
	t.Helper()

	positions := []portfolio.Position{
		{Ticker: "EWLD.PA", Name: "Amundi MSCI World", Quantity: 100, BuyPrice: 28.50, BuyDate: "2023-01-10"},
	}
	store, err := portfolio.NewWithPositions(positions, zerolog.Nop())
	require.NoError(t, err)

	provider := &fakeProvider{
		prices: domain.PriceMap{"EWLD.PA": 29.35},
		histories: map[string]domain.HistoricalSeries{
			"EWLD.PA": {
				{Date: "2024-01-02", Close: 28.00},
				{Date: "2024-01-03", Close: 28.70},
				{Date: "2024-01-04", Close: 28.40},
				{Date: "2024-01-05", Close: 29.10},
			},
		},
	}

	engine := analytics.NewEngine(store, provider, zerolog.Nop())
	prefs := &fakePrefs{riskFree: 0.05, currency: "EUR"}
	handler := NewHandler(engine, prefs, zerolog.Nop())

	router := chi.NewRouter()
	handler.RegisterRoutes(router)
	return router, prefs
}

func doGet(t *testing.T, router chi.Router, path string) map[string]interface{} {
	t.Helper()
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHandleSharpe_DefaultsToConfiguredRiskFreeRate(t *testing.T) {
	router, _ := newTestRouter(t)

	body := doGet(t, router, "/analytics/sharpe")
	assert.InDelta(t, 0.05, body["risk_free"], 1e-9)
}

func TestHandleSharpe_QueryOverridesConfiguredRate(t *testing.T) {
	router, _ := newTestRouter(t)

	body := doGet(t, router, "/analytics/sharpe?risk_free=0.01")
	assert.InDelta(t, 0.01, body["risk_free"], 1e-9)
}

func TestHandleSharpe_RateChangesResult(t *testing.T) {
	router, prefs := newTestRouter(t)

	withRate := doGet(t, router, "/analytics/sharpe")["sharpe_ratio"].(float64)

	prefs.riskFree = 0
	withoutRate := doGet(t, router, "/analytics/sharpe")["sharpe_ratio"].(float64)

	assert.Less(t, withRate, withoutRate)
}

func TestHandleMaxDrawdown_IncludesCurrentDrawdown(t *testing.T) {
	router, _ := newTestRouter(t)

	body := doGet(t, router, "/analytics/max-drawdown")
	require.Contains(t, body, "max_drawdown")
	require.Contains(t, body, "current_drawdown")
	// History runs 28.00, 28.70, 28.40, 29.10: trough 28.40 against
	// the 28.70 peak, and the series closes at its high.
	assert.InDelta(t, (28.40-28.70)/28.70, body["max_drawdown"], 1e-9)
	assert.InDelta(t, 0.0, body["current_drawdown"], 1e-9)
}

func TestHandleSummary_IncludesCurrency(t *testing.T) {
	router, _ := newTestRouter(t)

	body := doGet(t, router, "/analytics/summary")
	assert.Equal(t, "EUR", body["currency"])
}
