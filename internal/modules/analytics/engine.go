package analytics

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/peatrack/peatrack/internal/domain"
	"github.com/peatrack/peatrack/internal/modules/portfolio"
	"github.com/peatrack/peatrack/pkg/formulas"
)

// PositionSource supplies the current holdings to the engine.
type PositionSource interface {
	Positions() []portfolio.Position
	Tickers() []string
}

// Engine computes valuation and performance metrics over the current
// holdings. Prices come from the market data provider; positions whose
// price cannot be resolved are skipped from valuations with a warning.
type Engine struct {
	positions PositionSource
	provider  domain.MarketDataProvider
	log       zerolog.Logger
}

func NewEngine(positions PositionSource, provider domain.MarketDataProvider, log zerolog.Logger) *Engine {
	return &Engine{
		positions: positions,
		provider:  provider,
		log:       log.With().Str("service", "analytics").Logger(),
	}
}

// HeldPositions returns the current holdings.
func (e *Engine) HeldPositions() []portfolio.Position {
	return e.positions.Positions()
}

// TickerHistory returns the daily close series for one ticker.
func (e *Engine) TickerHistory(ticker string) (domain.HistoricalSeries, error) {
	return e.provider.History(ticker)
}

// CurrentPrices resolves the latest price for every held ticker.
func (e *Engine) CurrentPrices() (domain.PriceMap, error) {
	prices, err := e.provider.CurrentPrices(e.positions.Tickers())
	if err != nil {
		return nil, fmt.Errorf("failed to fetch current prices: %w", err)
	}
	return prices, nil
}

// PortfolioValue is the sum of quantity times current price over all
// positions with a resolvable price. Manual price overrides take
// precedence over fetched prices.
func (e *Engine) PortfolioValue(prices domain.PriceMap) float64 {
	total := 0.0
	for _, pos := range e.positions.Positions() {
		price, ok := pos.EffectivePrice(prices)
		if !ok {
			e.log.Warn().Str("ticker", pos.Ticker).Msg("No price available, position skipped from valuation")
			continue
		}
		total += pos.Quantity * price
	}
	return total
}

// TotalInvested is the sum of quantity times buy price over all positions.
// It needs no market data.
func (e *Engine) TotalInvested() float64 {
	total := 0.0
	for _, pos := range e.positions.Positions() {
		total += pos.Quantity * pos.BuyPrice
	}
	return total
}

// PnL is the unrealized profit or loss at current prices.
func (e *Engine) PnL(prices domain.PriceMap) float64 {
	return e.PortfolioValue(prices) - e.TotalInvested()
}

// PnLPercent is the unrealized gain as a percentage of the invested
// amount, 0 for an empty portfolio.
func (e *Engine) PnLPercent(prices domain.PriceMap) float64 {
	invested := e.TotalInvested()
	if invested == 0 {
		return 0
	}
	return (e.PortfolioValue(prices) - invested) / invested * 100
}

// PositionValues returns the current market value per ticker. Tickers
// without a resolvable price are absent.
func (e *Engine) PositionValues(prices domain.PriceMap) map[string]float64 {
	values := make(map[string]float64)
	for _, pos := range e.positions.Positions() {
		price, ok := pos.EffectivePrice(prices)
		if !ok {
			e.log.Warn().Str("ticker", pos.Ticker).Msg("No price available, position skipped from valuation")
			continue
		}
		values[pos.Ticker] = pos.Quantity * price
	}
	return values
}

// Allocation returns each position's share of the portfolio value in
// percent. Shares sum to 100 across priced positions. The map is empty
// when the portfolio has no priced value.
func (e *Engine) Allocation(prices domain.PriceMap) map[string]float64 {
	values := e.PositionValues(prices)
	total := 0.0
	for _, v := range values {
		total += v
	}

	allocation := make(map[string]float64)
	if total == 0 {
		return allocation
	}
	for ticker, v := range values {
		allocation[ticker] = v / total * 100
	}
	return allocation
}

// Summary computes the headline figures in one pass over fresh prices.
func (e *Engine) Summary() (Summary, error) {
	prices, err := e.CurrentPrices()
	if err != nil {
		return Summary{}, err
	}

	value := e.PortfolioValue(prices)
	invested := e.TotalInvested()
	pnl := value - invested
	pnlPct := 0.0
	if invested != 0 {
		pnlPct = pnl / invested * 100
	}

	return Summary{
		PortfolioValue: value,
		TotalInvested:  invested,
		PnL:            pnl,
		PnLPercent:     pnlPct,
		Positions:      len(e.positions.Positions()),
		PricedTickers:  len(e.PositionValues(prices)),
	}, nil
}

// Volatility is the annualized standard deviation of portfolio returns
// at the given sampling period.
func (e *Engine) Volatility(period Period) (float64, error) {
	periodsPerYear, err := period.PeriodsPerYear()
	if err != nil {
		return 0, err
	}
	returns, err := e.Returns(period)
	if err != nil {
		return 0, err
	}
	return formulas.AnnualizedVolatility(returnValues(returns), periodsPerYear), nil
}

// SharpeRatio is the annualized excess return per unit of volatility.
// riskFreeRate is an annual rate (0.02 for 2%); it is de-annualized to
// the sampling period before subtraction. Zero-volatility series yield 0.
func (e *Engine) SharpeRatio(period Period, riskFreeRate float64) (float64, error) {
	periodsPerYear, err := period.PeriodsPerYear()
	if err != nil {
		return 0, err
	}
	returns, err := e.Returns(period)
	if err != nil {
		return 0, err
	}
	perPeriodRate := riskFreeRate / float64(periodsPerYear)
	return formulas.SharpeRatio(returnValues(returns), perPeriodRate, periodsPerYear, true), nil
}

// MaxDrawdown is the largest peak-to-trough decline of the daily
// portfolio value series, as a fraction in [-1, 0].
func (e *Engine) MaxDrawdown() (float64, error) {
	series, err := e.ValueSeries()
	if err != nil {
		return 0, err
	}
	values := make([]float64, len(series))
	for i, p := range series {
		values[i] = p.Value
	}
	return formulas.MaxDrawdown(values), nil
}

// CurrentDrawdown is the decline of the latest portfolio value from the
// series peak, as a fraction in [-1, 0].
func (e *Engine) CurrentDrawdown() (float64, error) {
	series, err := e.ValueSeries()
	if err != nil {
		return 0, err
	}
	values := make([]float64, len(series))
	for i, p := range series {
		values[i] = p.Value
	}
	return formulas.CurrentDrawdown(values), nil
}

func returnValues(points []ReturnPoint) []float64 {
	values := make([]float64, len(points))
	for i, p := range points {
		values[i] = p.Return
	}
	return values
}
