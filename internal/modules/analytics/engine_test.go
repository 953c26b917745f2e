package analytics

import (
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peatrack/peatrack/internal/domain"
	"github.com/peatrack/peatrack/internal/modules/portfolio"
	"github.com/peatrack/peatrack/pkg/formulas"
)

// fakeProvider serves canned prices and histories.
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

func newTestEngine(t *testing.T, positions []portfolio.Position, provider *fakeProvider) *Engine {
	t.Helper()
	store, err := portfolio.NewWithPositions(positions, zerolog.Nop())
	require.NoError(t, err)
	return NewEngine(store, provider, zerolog.Nop())
}

func twoETFPositions() []portfolio.Position {
	return []portfolio.Position{
		{Ticker: "EWLD.PA", Name: "Amundi MSCI World", Quantity: 100, BuyPrice: 28.50, BuyDate: "2023-01-10"},
		{Ticker: "PE500.PA", Name: "Amundi PEA S&P 500", Quantity: 50, BuyPrice: 42.30, BuyDate: "2023-03-05"},
	}
}

func TestEngine_ValuationScenario(t *testing.T) {
	provider := &fakeProvider{prices: domain.PriceMap{"EWLD.PA": 29.35, "PE500.PA": 43.12}}
	engine := newTestEngine(t, twoETFPositions(), provider)

	prices, err := engine.CurrentPrices()
	require.NoError(t, err)

	assert.InDelta(t, 4965.0, engine.TotalInvested(), 1e-9)
	assert.InDelta(t, 5091.0, engine.PortfolioValue(prices), 1e-9)
	assert.InDelta(t, 126.0, engine.PnL(prices), 1e-9)
	assert.InDelta(t, 126.0/4965.0*100, engine.PnLPercent(prices), 1e-9)
}

func TestEngine_EmptyPortfolio(t *testing.T) {
	engine := newTestEngine(t, nil, &fakeProvider{prices: domain.PriceMap{}})

	prices, err := engine.CurrentPrices()
	require.NoError(t, err)

	assert.Equal(t, 0.0, engine.PortfolioValue(prices))
	assert.Equal(t, 0.0, engine.TotalInvested())
	assert.Equal(t, 0.0, engine.PnLPercent(prices))
	assert.Empty(t, engine.Allocation(prices))
}

func TestEngine_MissingPriceSkipsPosition(t *testing.T) {
	// Only EWLD.PA is priced; PE500.PA must not contribute to the value.
	provider := &fakeProvider{prices: domain.PriceMap{"EWLD.PA": 29.35}}
	engine := newTestEngine(t, twoETFPositions(), provider)

	prices, err := engine.CurrentPrices()
	require.NoError(t, err)

	assert.InDelta(t, 2935.0, engine.PortfolioValue(prices), 1e-9)

	values := engine.PositionValues(prices)
	assert.Contains(t, values, "EWLD.PA")
	assert.NotContains(t, values, "PE500.PA")
}

func TestEngine_ManualPriceOverride(t *testing.T) {
	positions := twoETFPositions()
	manual := 30.0
	positions[0].ManualPrice = &manual

	provider := &fakeProvider{prices: domain.PriceMap{"EWLD.PA": 29.35, "PE500.PA": 43.12}}
	engine := newTestEngine(t, positions, provider)

	prices, err := engine.CurrentPrices()
	require.NoError(t, err)

	assert.InDelta(t, 100*30.0+50*43.12, engine.PortfolioValue(prices), 1e-9)
}

func TestEngine_AllocationSumsTo100(t *testing.T) {
	provider := &fakeProvider{prices: domain.PriceMap{"EWLD.PA": 29.35, "PE500.PA": 43.12}}
	engine := newTestEngine(t, twoETFPositions(), provider)

	prices, err := engine.CurrentPrices()
	require.NoError(t, err)

	allocation := engine.Allocation(prices)
	require.Len(t, allocation, 2)

	sum := 0.0
	for _, pct := range allocation {
		sum += pct
	}
	assert.InDelta(t, 100.0, sum, 1e-6)
	assert.InDelta(t, 2935.0/5091.0*100, allocation["EWLD.PA"], 1e-9)
}

func flatHistory(dates []string, closes []float64) domain.HistoricalSeries {
	series := make(domain.HistoricalSeries, len(dates))
	for i := range dates {
		series[i] = domain.PricePoint{Date: dates[i], Close: closes[i]}
	}
	return series
}

func TestEngine_ValueSeriesInnerJoin(t *testing.T) {
	provider := &fakeProvider{
		histories: map[string]domain.HistoricalSeries{
			// EWLD.PA is missing 2024-01-03; that date must drop out.
			"EWLD.PA":  flatHistory([]string{"2024-01-02", "2024-01-04", "2024-01-05"}, []float64{10, 11, 12}),
			"PE500.PA": flatHistory([]string{"2024-01-02", "2024-01-03", "2024-01-04", "2024-01-05"}, []float64{20, 21, 22, 23}),
		},
	}
	positions := []portfolio.Position{
		{Ticker: "EWLD.PA", Name: "World", Quantity: 2, BuyPrice: 9, BuyDate: "2023-01-10"},
		{Ticker: "PE500.PA", Name: "S&P", Quantity: 1, BuyPrice: 19, BuyDate: "2023-01-10"},
	}
	engine := newTestEngine(t, positions, provider)

	series, err := engine.ValueSeries()
	require.NoError(t, err)

	require.Len(t, series, 3)
	assert.Equal(t, "2024-01-02", series[0].Date)
	assert.InDelta(t, 2*10+1*20.0, series[0].Value, 1e-9)
	assert.Equal(t, "2024-01-04", series[1].Date)
	assert.InDelta(t, 2*11+1*22.0, series[1].Value, 1e-9)
	assert.Equal(t, "2024-01-05", series[2].Date)
	assert.InDelta(t, 2*12+1*23.0, series[2].Value, 1e-9)
}

func TestEngine_DailyReturns(t *testing.T) {
	provider := &fakeProvider{
		histories: map[string]domain.HistoricalSeries{
			"EWLD.PA": flatHistory([]string{"2024-01-02", "2024-01-03", "2024-01-04"}, []float64{100, 110, 99}),
		},
	}
	positions := []portfolio.Position{
		{Ticker: "EWLD.PA", Name: "World", Quantity: 1, BuyPrice: 90, BuyDate: "2023-01-10"},
	}
	engine := newTestEngine(t, positions, provider)

	returns, err := engine.Returns(PeriodDaily)
	require.NoError(t, err)

	require.Len(t, returns, 2)
	assert.Equal(t, "2024-01-03", returns[0].Date)
	assert.InDelta(t, 0.10, returns[0].Return, 1e-9)
	assert.Equal(t, "2024-01-04", returns[1].Date)
	assert.InDelta(t, -0.10, returns[1].Return, 1e-9)
}

func TestEngine_WeeklyReturnsUseLastValueOfISOWeek(t *testing.T) {
	// 2024-01-05 is a Friday (week 1), 2024-01-08 a Monday (week 2).
	provider := &fakeProvider{
		histories: map[string]domain.HistoricalSeries{
			"EWLD.PA": flatHistory(
				[]string{"2024-01-02", "2024-01-05", "2024-01-08", "2024-01-12"},
				[]float64{100, 104, 104, 130},
			),
		},
	}
	positions := []portfolio.Position{
		{Ticker: "EWLD.PA", Name: "World", Quantity: 1, BuyPrice: 90, BuyDate: "2023-01-10"},
	}
	engine := newTestEngine(t, positions, provider)

	returns, err := engine.Returns(PeriodWeekly)
	require.NoError(t, err)

	// Week 1 runs from the window's opening 100 to its close of 104,
	// week 2 closes at 130.
	require.Len(t, returns, 2)
	assert.Equal(t, "2024-01-05", returns[0].Date)
	assert.InDelta(t, 0.04, returns[0].Return, 1e-9)
	assert.Equal(t, "2024-01-12", returns[1].Date)
	assert.InDelta(t, 0.25, returns[1].Return, 1e-9)
}

func TestEngine_MonthlyReturns(t *testing.T) {
	provider := &fakeProvider{
		histories: map[string]domain.HistoricalSeries{
			"EWLD.PA": flatHistory(
				[]string{"2024-01-15", "2024-01-31", "2024-02-14", "2024-02-28"},
				[]float64{100, 110, 105, 121},
			),
		},
	}
	positions := []portfolio.Position{
		{Ticker: "EWLD.PA", Name: "World", Quantity: 1, BuyPrice: 90, BuyDate: "2023-01-10"},
	}
	engine := newTestEngine(t, positions, provider)

	returns, err := engine.Returns(PeriodMonthly)
	require.NoError(t, err)

	require.Len(t, returns, 2)
	assert.Equal(t, "2024-01-31", returns[0].Date)
	assert.InDelta(t, 0.10, returns[0].Return, 1e-9)
	assert.Equal(t, "2024-02-28", returns[1].Date)
	assert.InDelta(t, 0.10, returns[1].Return, 1e-9)
}

func TestEngine_ReturnsUnknownPeriod(t *testing.T) {
	engine := newTestEngine(t, nil, &fakeProvider{})
	_, err := engine.Returns(Period("hourly"))
	assert.Error(t, err)
}

func TestEngine_VolatilityPermutationInvariant(t *testing.T) {
	// Volatility uses mean and standard deviation only, so shuffling the
	// return sequence must not change it.
	rng := rand.New(rand.NewSource(42))
	dates := make([]string, 40)
	closes := make([]float64, 40)
	price := 100.0
	for i := range dates {
		dates[i] = fmt.Sprintf("2024-%02d-%02d", i/28+3, i%28+1)
		price *= 1 + (rng.Float64()-0.5)*0.04
		closes[i] = price
	}

	provider := &fakeProvider{histories: map[string]domain.HistoricalSeries{
		"EWLD.PA": flatHistory(dates, closes),
	}}
	positions := []portfolio.Position{
		{Ticker: "EWLD.PA", Name: "World", Quantity: 1, BuyPrice: 90, BuyDate: "2023-01-10"},
	}
	engine := newTestEngine(t, positions, provider)

	returns, err := engine.Returns(PeriodDaily)
	require.NoError(t, err)
	require.Greater(t, len(returns), 2)

	values := make([]float64, len(returns))
	for i, r := range returns {
		values[i] = r.Return
	}
	shuffled := append([]float64(nil), values...)
	rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

	vol, err := engine.Volatility(PeriodDaily)
	require.NoError(t, err)
	assert.Greater(t, vol, 0.0)
	assert.InDelta(t, vol, formulas.AnnualizedVolatility(shuffled, 252), 1e-9)
}

func TestEngine_SharpeZeroVolatility(t *testing.T) {
	provider := &fakeProvider{
		histories: map[string]domain.HistoricalSeries{
			"EWLD.PA": flatHistory([]string{"2024-01-02", "2024-01-03", "2024-01-04"}, []float64{100, 100, 100}),
		},
	}
	positions := []portfolio.Position{
		{Ticker: "EWLD.PA", Name: "World", Quantity: 1, BuyPrice: 90, BuyDate: "2023-01-10"},
	}
	engine := newTestEngine(t, positions, provider)

	sharpe, err := engine.SharpeRatio(PeriodDaily, 0.02)
	require.NoError(t, err)
	assert.Equal(t, 0.0, sharpe)
}

func TestEngine_MaxDrawdown(t *testing.T) {
	provider := &fakeProvider{
		histories: map[string]domain.HistoricalSeries{
			"EWLD.PA": flatHistory(
				[]string{"2024-01-02", "2024-01-03", "2024-01-04", "2024-01-05"},
				[]float64{1000, 1200, 900, 1100},
			),
		},
	}
	positions := []portfolio.Position{
		{Ticker: "EWLD.PA", Name: "World", Quantity: 1, BuyPrice: 900, BuyDate: "2023-01-10"},
	}
	engine := newTestEngine(t, positions, provider)

	dd, err := engine.MaxDrawdown()
	require.NoError(t, err)
	assert.InDelta(t, -0.25, dd, 1e-9)

	// The series ends at 1100 against a 1200 peak.
	current, err := engine.CurrentDrawdown()
	require.NoError(t, err)
	assert.InDelta(t, -100.0/1200.0, current, 1e-9)
}

func TestEngine_CorrelationMatrix(t *testing.T) {
	provider := &fakeProvider{
		histories: map[string]domain.HistoricalSeries{
			// PE500.PA moves in lockstep with EWLD.PA, PAEEM.PA has a
			// single overlapping return with the others.
			"EWLD.PA":  flatHistory([]string{"2024-01-02", "2024-01-03", "2024-01-04", "2024-01-05"}, []float64{100, 110, 99, 105}),
			"PE500.PA": flatHistory([]string{"2024-01-02", "2024-01-03", "2024-01-04", "2024-01-05"}, []float64{50, 55, 49.5, 52.5}),
			"PAEEM.PA": flatHistory([]string{"2024-01-04", "2024-01-05"}, []float64{20, 21}),
		},
	}
	positions := []portfolio.Position{
		{Ticker: "PE500.PA", Name: "S&P", Quantity: 1, BuyPrice: 45, BuyDate: "2023-01-10"},
		{Ticker: "EWLD.PA", Name: "World", Quantity: 1, BuyPrice: 90, BuyDate: "2023-01-10"},
		{Ticker: "PAEEM.PA", Name: "Emerging", Quantity: 1, BuyPrice: 19, BuyDate: "2023-01-10"},
	}
	engine := newTestEngine(t, positions, provider)

	matrix, err := engine.CorrelationMatrix()
	require.NoError(t, err)

	// Sorted ticker order regardless of insertion order.
	assert.Equal(t, []string{"EWLD.PA", "PAEEM.PA", "PE500.PA"}, matrix.Tickers)

	for i := range matrix.Tickers {
		assert.Equal(t, 1.0, matrix.Matrix[i][i])
	}

	// EWLD vs PE500: identical return paths, correlation 1.
	assert.InDelta(t, 1.0, matrix.Matrix[0][2], 1e-9)
	assert.Equal(t, matrix.Matrix[0][2], matrix.Matrix[2][0])

	// PAEEM shares only one return date with the others, so NaN.
	assert.True(t, math.IsNaN(matrix.Matrix[0][1]))
	assert.True(t, math.IsNaN(matrix.Matrix[1][2]))
}

func TestEngine_CorrelationMatrixJSONEncodesNaNAsNull(t *testing.T) {
	matrix := CorrelationMatrix{
		Tickers: []string{"A", "B"},
		Matrix:  [][]float64{{1, math.NaN()}, {math.NaN(), 1}},
	}
	data, err := matrix.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"tickers":["A","B"],"matrix":[[1,null],[null,1]]}`, string(data))
}
