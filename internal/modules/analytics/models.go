// Package analytics computes portfolio valuation and performance metrics.
package analytics

import (
	"encoding/json"
	"fmt"
	"math"
)

// Period selects the sampling frequency for return series and the
// annualization factor for volatility and Sharpe.
type Period string

const (
	PeriodDaily   Period = "daily"
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
)

// PeriodsPerYear returns the annualization factor for the period:
// 252 trading days, 52 weeks, 12 months.
func (p Period) PeriodsPerYear() (int, error) {
	switch p {
	case PeriodDaily:
		return 252, nil
	case PeriodWeekly:
		return 52, nil
	case PeriodMonthly:
		return 12, nil
	default:
		return 0, fmt.Errorf("unknown period %q (want daily, weekly or monthly)", p)
	}
}

func (p Period) Validate() error {
	_, err := p.PeriodsPerYear()
	return err
}

// ReturnPoint is one percentage-change observation in a return series.
// Date labels the end of the sampling bucket.
type ReturnPoint struct {
	Date   string  `json:"date"`
	Return float64 `json:"return"`
}

// ValuePoint is the portfolio's total value on one date.
type ValuePoint struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

// Summary bundles the headline valuation figures. Currency is the
// display currency and is filled in at the HTTP layer.
type Summary struct {
	Currency       string  `json:"currency,omitempty"`
	PortfolioValue float64 `json:"portfolio_value"`
	TotalInvested  float64 `json:"total_invested"`
	PnL            float64 `json:"pnl"`
	PnLPercent     float64 `json:"pnl_percent"`
	Positions      int     `json:"positions"`
	PricedTickers  int     `json:"priced_tickers"`
}

// CorrelationMatrix holds pairwise return correlations for the portfolio's
// tickers. Tickers are sorted alphabetically and index both matrix axes.
// Cells are NaN when two tickers share fewer than two return observations;
// NaN serializes as null in JSON payloads.
type CorrelationMatrix struct {
	Tickers []string    `json:"tickers"`
	Matrix  [][]float64 `json:"matrix"`
}

// MarshalJSON encodes NaN cells as null, which encoding/json cannot do for
// raw float64 values.
func (m CorrelationMatrix) MarshalJSON() ([]byte, error) {
	rows := make([][]*float64, len(m.Matrix))
	for i, row := range m.Matrix {
		rows[i] = make([]*float64, len(row))
		for j, cell := range row {
			if !math.IsNaN(cell) {
				v := cell
				rows[i][j] = &v
			}
		}
	}
	return json.Marshal(struct {
		Tickers []string     `json:"tickers"`
		Matrix  [][]*float64 `json:"matrix"`
	}{m.Tickers, rows})
}
