package charts

import (
	"encoding/json"
	"fmt"
	"math"
	"testing"

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

type fakePrefs struct{}

func (fakePrefs) ChartDimensions() (int, int) { return 800, 600 }
func (fakePrefs) ChartTheme() string          { return "light" }

func newTestService(t *testing.T, positions []portfolio.Position, provider *fakeProvider) *Service {
	t.Helper()
	store, err := portfolio.NewWithPositions(positions, zerolog.Nop())
	require.NoError(t, err)
	engine := analytics.NewEngine(store, provider, zerolog.Nop())
	return NewService(engine, fakePrefs{}, zerolog.Nop())
}

func history(dates []string, closes []float64) domain.HistoricalSeries {
	series := make(domain.HistoricalSeries, len(dates))
	for i := range dates {
		series[i] = domain.PricePoint{Date: dates[i], Close: closes[i]}
	}
	return series
}

func TestService_ValueChart(t *testing.T) {
	provider := &fakeProvider{
		histories: map[string]domain.HistoricalSeries{
			"EWLD.PA": history([]string{"2024-01-02", "2024-01-03"}, []float64{100, 110}),
		},
	}
	svc := newTestService(t, []portfolio.Position{
		{Ticker: "EWLD.PA", Name: "World", Quantity: 2, BuyPrice: 90, BuyDate: "2023-01-10"},
	}, provider)

	spec, err := svc.ValueChart()
	require.NoError(t, err)

	assert.Equal(t, "Portfolio Value", spec.Meta.Title)
	assert.Equal(t, 800, spec.Meta.Width)
	assert.Equal(t, []string{"2024-01-02", "2024-01-03"}, spec.XLabels)
	require.Len(t, spec.Series, 1)
	assert.Equal(t, []float64{200, 220}, spec.Series[0])
}

func TestService_ValueChartEmptyPortfolio(t *testing.T) {
	svc := newTestService(t, nil, &fakeProvider{})
	_, err := svc.ValueChart()
	assert.Error(t, err)
}

func TestService_AllocationChartLabels(t *testing.T) {
	provider := &fakeProvider{prices: domain.PriceMap{"EWLD.PA": 30, "PE500.PA": 40}}
	svc := newTestService(t, []portfolio.Position{
		{Ticker: "EWLD.PA", Name: "World", Quantity: 1, BuyPrice: 28, BuyDate: "2023-01-10"},
		{Ticker: "PE500.PA", Name: "S&P", Quantity: 1, BuyPrice: 38, BuyDate: "2023-01-10"},
	}, provider)

	spec, err := svc.AllocationChart()
	require.NoError(t, err)

	// 30/70 and 40/70 of the portfolio, labels carry the percentage.
	require.Len(t, spec.Labels, 2)
	assert.Equal(t, "EWLD.PA (42.9%)", spec.Labels[0])
	assert.Equal(t, "PE500.PA (57.1%)", spec.Labels[1])
}

func TestService_AllocationChartNoPrices(t *testing.T) {
	svc := newTestService(t, []portfolio.Position{
		{Ticker: "EWLD.PA", Name: "World", Quantity: 1, BuyPrice: 28, BuyDate: "2023-01-10"},
	}, &fakeProvider{prices: domain.PriceMap{}})

	_, err := svc.AllocationChart()
	assert.Error(t, err)
}

func TestService_PnLChart(t *testing.T) {
	provider := &fakeProvider{prices: domain.PriceMap{"EWLD.PA": 30, "PE500.PA": 35}}
	svc := newTestService(t, []portfolio.Position{
		{Ticker: "PE500.PA", Name: "S&P", Quantity: 2, BuyPrice: 38, BuyDate: "2023-01-10"},
		{Ticker: "EWLD.PA", Name: "World", Quantity: 10, BuyPrice: 28, BuyDate: "2023-01-10"},
	}, provider)

	spec, err := svc.PnLChart()
	require.NoError(t, err)

	assert.Equal(t, []string{"EWLD.PA", "PE500.PA"}, spec.XLabels)
	require.Len(t, spec.Series, 1)
	assert.InDelta(t, 20.0, spec.Series[0][0], 1e-9)
	assert.InDelta(t, -6.0, spec.Series[0][1], 1e-9)
}

func TestService_CorrelationChartNeedsTwoTickers(t *testing.T) {
	provider := &fakeProvider{
		histories: map[string]domain.HistoricalSeries{
			"EWLD.PA": history([]string{"2024-01-02", "2024-01-03"}, []float64{100, 110}),
		},
	}
	svc := newTestService(t, []portfolio.Position{
		{Ticker: "EWLD.PA", Name: "World", Quantity: 1, BuyPrice: 90, BuyDate: "2023-01-10"},
	}, provider)

	_, err := svc.CorrelationChart()
	assert.Error(t, err)
}

func TestService_PriceChartSMAOverlay(t *testing.T) {
	dates := make([]string, 30)
	closes := make([]float64, 30)
	for i := range dates {
		dates[i] = fmt.Sprintf("2024-01-%02d", i+1)
		closes[i] = 100 + float64(i)
	}
	provider := &fakeProvider{histories: map[string]domain.HistoricalSeries{
		"EWLD.PA": history(dates, closes),
	}}
	svc := newTestService(t, []portfolio.Position{
		{Ticker: "EWLD.PA", Name: "World", Quantity: 1, BuyPrice: 90, BuyDate: "2023-01-10"},
	}, provider)

	spec, err := svc.PriceChart("EWLD.PA", 20)
	require.NoError(t, err)

	require.Equal(t, []string{"Close", "SMA 20"}, spec.SeriesNames)
	require.Len(t, spec.Series, 2)
	assert.True(t, math.IsNaN(spec.Series[1][0]))
	// SMA of 100..119 at index 19.
	assert.InDelta(t, 109.5, spec.Series[1][19], 1e-9)
}

func TestService_PriceChartShortHistorySkipsOverlay(t *testing.T) {
	provider := &fakeProvider{histories: map[string]domain.HistoricalSeries{
		"EWLD.PA": history([]string{"2024-01-02", "2024-01-03"}, []float64{100, 110}),
	}}
	svc := newTestService(t, []portfolio.Position{
		{Ticker: "EWLD.PA", Name: "World", Quantity: 1, BuyPrice: 90, BuyDate: "2023-01-10"},
	}, provider)

	spec, err := svc.PriceChart("EWLD.PA", 20)
	require.NoError(t, err)
	assert.Equal(t, []string{"Close"}, spec.SeriesNames)
}

func TestLineSpec_MarshalNaNAsNull(t *testing.T) {
	spec := LineSpec{
		Meta:        Meta{Title: "t", Width: 10, Height: 10, Theme: "light"},
		XLabels:     []string{"a", "b"},
		SeriesNames: []string{"s"},
		Series:      [][]float64{{math.NaN(), 1}},
	}
	data, err := json.Marshal(spec)
	require.NoError(t, err)
	assert.Contains(t, string(data), `[null,1]`)
}

func TestRenderSmoke(t *testing.T) {
	line := &LineSpec{
		Meta:        Meta{Title: "Portfolio Value", Width: 400, Height: 300, Theme: "light"},
		XLabels:     []string{"2024-01-02", "2024-01-03", "2024-01-04"},
		SeriesNames: []string{"Value"},
		Series:      [][]float64{{100, 110, 105}},
	}
	png, err := RenderLine(line)
	require.NoError(t, err)
	assert.NotEmpty(t, png)

	pie := &PieSpec{
		Meta:   Meta{Title: "Allocation", Width: 400, Height: 300, Theme: "dark"},
		Labels: []string{"EWLD.PA (60.0%)", "PE500.PA (40.0%)"},
		Values: []float64{60, 40},
	}
	png, err = RenderPie(pie)
	require.NoError(t, err)
	assert.NotEmpty(t, png)

	bar := &BarSpec{
		Meta:        Meta{Title: "P&L", Width: 400, Height: 300, Theme: "light"},
		XLabels:     []string{"EWLD.PA", "PE500.PA"},
		SeriesNames: []string{"P&L"},
		Series:      [][]float64{{20, -6}},
	}
	png, err = RenderBar(bar)
	require.NoError(t, err)
	assert.NotEmpty(t, png)
}
