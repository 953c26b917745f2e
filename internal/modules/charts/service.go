package charts

import (
	"fmt"
	"math"
	"sort"

	"github.com/rs/zerolog"

	"github.com/peatrack/peatrack/internal/modules/analytics"
	"github.com/peatrack/peatrack/pkg/formulas"
)

// DefaultSMAWindow is the moving-average window overlaid on price charts
// when the request does not choose one.
const DefaultSMAWindow = 20

// Prefs supplies display settings. Backed by the settings store.
type Prefs interface {
	ChartDimensions() (width, height int)
	ChartTheme() string
}

// Service builds chart specs from the analytics engine. Builders are
// pure given the engine's data; rendering happens in render.go.
type Service struct {
	engine *analytics.Engine
	prefs  Prefs
	log    zerolog.Logger
}

func NewService(engine *analytics.Engine, prefs Prefs, log zerolog.Logger) *Service {
	return &Service{
		engine: engine,
		prefs:  prefs,
		log:    log.With().Str("service", "charts").Logger(),
	}
}

func (s *Service) meta(title string) Meta {
	width, height := s.prefs.ChartDimensions()
	return Meta{Title: title, Width: width, Height: height, Theme: s.prefs.ChartTheme()}
}

// ValueChart builds the portfolio value line chart.
func (s *Service) ValueChart() (*LineSpec, error) {
	series, err := s.engine.ValueSeries()
	if err != nil {
		return nil, err
	}
	if len(series) == 0 {
		return nil, fmt.Errorf("no value series to chart")
	}

	labels := make([]string, len(series))
	values := make([]float64, len(series))
	for i, p := range series {
		labels[i] = p.Date
		values[i] = p.Value
	}

	return &LineSpec{
		Meta:        s.meta("Portfolio Value"),
		XLabels:     labels,
		SeriesNames: []string{"Value"},
		Series:      [][]float64{values},
	}, nil
}

// AllocationChart builds the allocation pie chart. Slice labels carry
// the percentage so the legend reads without hovering.
func (s *Service) AllocationChart() (*PieSpec, error) {
	prices, err := s.engine.CurrentPrices()
	if err != nil {
		return nil, err
	}
	allocation := s.engine.Allocation(prices)
	if len(allocation) == 0 {
		return nil, fmt.Errorf("no priced positions to chart")
	}

	tickers := make([]string, 0, len(allocation))
	for ticker := range allocation {
		tickers = append(tickers, ticker)
	}
	sort.Strings(tickers)

	labels := make([]string, len(tickers))
	values := make([]float64, len(tickers))
	for i, ticker := range tickers {
		labels[i] = fmt.Sprintf("%s (%.1f%%)", ticker, allocation[ticker])
		values[i] = allocation[ticker]
	}

	return &PieSpec{
		Meta:   s.meta("Portfolio Allocation"),
		Labels: labels,
		Values: values,
	}, nil
}

// PnLChart builds the per-position unrealized P&L bar chart.
func (s *Service) PnLChart() (*BarSpec, error) {
	prices, err := s.engine.CurrentPrices()
	if err != nil {
		return nil, err
	}
	values := s.engine.PositionValues(prices)
	if len(values) == 0 {
		return nil, fmt.Errorf("no priced positions to chart")
	}

	invested := make(map[string]float64)
	for _, pos := range s.engine.HeldPositions() {
		invested[pos.Ticker] = pos.Quantity * pos.BuyPrice
	}

	tickers := make([]string, 0, len(values))
	for ticker := range values {
		tickers = append(tickers, ticker)
	}
	sort.Strings(tickers)

	pnl := make([]float64, len(tickers))
	for i, ticker := range tickers {
		pnl[i] = values[ticker] - invested[ticker]
	}

	return &BarSpec{
		Meta:        s.meta("Unrealized P&L by Position"),
		XLabels:     tickers,
		SeriesNames: []string{"P&L"},
		Series:      [][]float64{pnl},
	}, nil
}

// CorrelationChart builds the correlation grid as grouped bars, one
// series per ticker. NaN cells (too little shared history) render as
// zero-height bars; the JSON spec keeps the NaN.
func (s *Service) CorrelationChart() (*BarSpec, error) {
	matrix, err := s.engine.CorrelationMatrix()
	if err != nil {
		return nil, err
	}
	if len(matrix.Tickers) < 2 {
		return nil, fmt.Errorf("need at least two tickers with history to chart correlations")
	}

	return &BarSpec{
		Meta:        s.meta("Daily Return Correlations"),
		XLabels:     matrix.Tickers,
		SeriesNames: matrix.Tickers,
		Series:      matrix.Matrix,
	}, nil
}

// PriceChart builds the close price line for one ticker with an SMA
// overlay. The overlay is dropped when the history is shorter than the
// window.
func (s *Service) PriceChart(ticker string, smaWindow int) (*LineSpec, error) {
	if smaWindow < 1 {
		smaWindow = DefaultSMAWindow
	}

	series, err := s.engine.TickerHistory(ticker)
	if err != nil {
		return nil, err
	}
	if len(series) == 0 {
		return nil, fmt.Errorf("no history for %s", ticker)
	}

	labels := series.Dates()
	closes := series.Closes()

	spec := &LineSpec{
		Meta:        s.meta(ticker),
		XLabels:     labels,
		SeriesNames: []string{"Close"},
		Series:      [][]float64{closes},
	}

	if sma := formulas.SMASeries(closes, smaWindow); sma != nil {
		spec.SeriesNames = append(spec.SeriesNames, fmt.Sprintf("SMA %d", smaWindow))
		spec.Series = append(spec.Series, sma)
	} else {
		s.log.Debug().Str("ticker", ticker).Int("window", smaWindow).Msg("History shorter than SMA window, overlay skipped")
	}

	return spec, nil
}

// sanitize replaces NaN with zero for the renderer, which cannot plot
// NaN values.
func sanitize(series [][]float64) [][]float64 {
	out := make([][]float64, len(series))
	for i, row := range series {
		out[i] = make([]float64, len(row))
		for j, v := range row {
			if math.IsNaN(v) {
				out[i][j] = 0
			} else {
				out[i][j] = v
			}
		}
	}
	return out
}
