// Package domain holds types shared across modules.
package domain

import "time"

// DateFormat is the ISO date layout used throughout price series and
// portfolio files.
const DateFormat = "2006-01-02"

// PriceMap maps tickers to their latest known price.
type PriceMap map[string]float64

// PricePoint is one daily close in a historical series.
type PricePoint struct {
	Date  string  `json:"date"`
	Close float64 `json:"close"`
}

// HistoricalSeries is a daily close series in ascending date order.
type HistoricalSeries []PricePoint

// Dates returns the series dates in order.
func (s HistoricalSeries) Dates() []string {
	dates := make([]string, len(s))
	for i, p := range s {
		dates[i] = p.Date
	}
	return dates
}

// Closes returns the series closes in order.
func (s HistoricalSeries) Closes() []float64 {
	closes := make([]float64, len(s))
	for i, p := range s {
		closes[i] = p.Close
	}
	return closes
}

// Quote is a resolved current price for a ticker.
type Quote struct {
	Ticker    string    `json:"ticker"`
	Price     float64   `json:"price"`
	Stale     bool      `json:"stale"`
	FetchedAt time.Time `json:"fetched_at"`
}

// MarketDataProvider supplies current and historical prices to the
// analytics engine.
type MarketDataProvider interface {
	// CurrentPrices returns the latest known price for each ticker it can
	// resolve. Unresolvable tickers are simply absent from the map.
	CurrentPrices(tickers []string) (PriceMap, error)

	// History returns the daily close series for a ticker in ascending
	// date order.
	History(ticker string) (HistoricalSeries, error)
}
