// Package marketdata fetches ETF prices from Yahoo Finance with a
// persistent cache-first fallback, and keeps daily close history.
package marketdata

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/peatrack/peatrack/internal/domain"
)

const defaultBaseURL = "https://query1.finance.yahoo.com"

// HistoryRange is the lookback window requested for daily close series.
const HistoryRange = "1y"

// YahooClient talks to the Yahoo Finance v8 chart API.
type YahooClient struct {
	baseURL    string
	httpClient *http.Client
	log        zerolog.Logger
}

func NewYahooClient(log zerolog.Logger) *YahooClient {
	return &YahooClient{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		log:        log.With().Str("client", "yahoo").Logger(),
	}
}

// NewYahooClientWithBaseURL is used by tests to point at a local server.
func NewYahooClientWithBaseURL(baseURL string, log zerolog.Logger) *YahooClient {
	c := NewYahooClient(log)
	c.baseURL = baseURL
	return c
}

type yahooChartResp struct {
	Chart struct {
		Result []struct {
			Meta struct {
				RegularMarketPrice float64 `json:"regularMarketPrice"`
				Currency           string  `json:"currency"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error interface{} `json:"error"`
	} `json:"chart"`
}

func (c *YahooClient) fetchChart(ticker, rng, interval string) (*yahooChartResp, error) {
	reqURL := fmt.Sprintf("%s/v8/finance/chart/%s?range=%s&interval=%s",
		c.baseURL, url.PathEscape(ticker), rng, interval)

	req, err := http.NewRequest(http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", "curl/8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("chart request failed for %s: %w", ticker, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("chart request for %s returned status %d", ticker, resp.StatusCode)
	}

	var yc yahooChartResp
	if err := json.NewDecoder(resp.Body).Decode(&yc); err != nil {
		return nil, fmt.Errorf("failed to decode chart response for %s: %w", ticker, err)
	}
	if len(yc.Chart.Result) == 0 {
		return nil, fmt.Errorf("no chart data for %s", ticker)
	}
	return &yc, nil
}

// FetchCurrentPrice returns the regular market price for a ticker.
func (c *YahooClient) FetchCurrentPrice(ticker string) (float64, error) {
	yc, err := c.fetchChart(ticker, "1d", "1d")
	if err != nil {
		return 0, err
	}

	price := yc.Chart.Result[0].Meta.RegularMarketPrice
	if price <= 0 {
		return 0, fmt.Errorf("no market price for %s", ticker)
	}

	c.log.Debug().Str("ticker", ticker).Float64("price", price).Msg("Fetched current price")
	return price, nil
}

// FetchDailyHistory returns the daily close series for a ticker in
// ascending date order. Days without a close (nulls in the API response)
// are dropped.
func (c *YahooClient) FetchDailyHistory(ticker string) (domain.HistoricalSeries, error) {
	yc, err := c.fetchChart(ticker, HistoryRange, "1d")
	if err != nil {
		return nil, err
	}

	result := yc.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("no quote data for %s", ticker)
	}

	timestamps := result.Timestamp
	closes := result.Indicators.Quote[0].Close

	series := make(domain.HistoricalSeries, 0, len(timestamps))
	for i, ts := range timestamps {
		if i >= len(closes) || closes[i] <= 0 {
			continue
		}
		series = append(series, domain.PricePoint{
			Date:  time.Unix(ts, 0).UTC().Format(domain.DateFormat),
			Close: closes[i],
		})
	}
	if len(series) == 0 {
		return nil, fmt.Errorf("empty close series for %s", ticker)
	}

	c.log.Debug().Str("ticker", ticker).Int("points", len(series)).Msg("Fetched daily history")
	return series, nil
}
