// Package portfolio manages the collection of ETF positions and its persistence.
package portfolio

import (
	"fmt"
	"time"

	"github.com/peatrack/peatrack/internal/domain"
)

// DateFormat is the ISO-8601 calendar date layout used everywhere a buy date
// or price date appears (JSON, CSV, API payloads).
const DateFormat = domain.DateFormat

// Position represents a single ETF holding.
//
// Ticker is the unique key within a portfolio. Quantity supports fractional
// shares. ManualPrice, when set, overrides any fetched price during valuation
// (used when the data source has no quote for an ETF).
type Position struct {
	Ticker      string   `json:"ticker"`
	Name        string   `json:"name"`
	Quantity    float64  `json:"quantity"`
	BuyPrice    float64  `json:"buy_price"`
	BuyDate     string   `json:"buy_date"` // YYYY-MM-DD
	ManualPrice *float64 `json:"manual_price,omitempty"`
}

// Validate checks the structural invariants of a position.
func (p Position) Validate() error {
	if p.Ticker == "" {
		return fmt.Errorf("ticker cannot be empty")
	}
	if p.Name == "" {
		return fmt.Errorf("name cannot be empty")
	}
	if p.Quantity <= 0 {
		return fmt.Errorf("quantity must be positive, got %v", p.Quantity)
	}
	if p.BuyPrice <= 0 {
		return fmt.Errorf("buy price must be positive, got %v", p.BuyPrice)
	}
	if _, err := time.Parse(DateFormat, p.BuyDate); err != nil {
		return fmt.Errorf("invalid buy date %q: %w", p.BuyDate, err)
	}
	if p.ManualPrice != nil && *p.ManualPrice <= 0 {
		return fmt.Errorf("manual price must be positive, got %v", *p.ManualPrice)
	}
	return nil
}

// EffectivePrice returns the price to use for valuing this position: the
// manual override when set, otherwise the fetched price from the map.
// The second return reports whether any price is available.
func (p Position) EffectivePrice(prices map[string]float64) (float64, bool) {
	if p.ManualPrice != nil {
		return *p.ManualPrice, true
	}
	price, ok := prices[p.Ticker]
	return price, ok
}
