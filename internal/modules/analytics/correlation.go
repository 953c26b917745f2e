package analytics

import (
	"math"
	"sort"

	"github.com/peatrack/peatrack/internal/domain"
	"github.com/peatrack/peatrack/pkg/formulas"
)

// CorrelationMatrix computes pairwise correlations of daily returns
// between all held tickers. Each pair is aligned on its own shared
// dates, so two tickers with long common histories are not penalized by
// a third with a short one. Pairs with fewer than two shared return
// observations get NaN.
func (e *Engine) CorrelationMatrix() (CorrelationMatrix, error) {
	histories, err := e.histories()
	if err != nil {
		return CorrelationMatrix{}, err
	}

	tickers := make([]string, 0, len(histories))
	for ticker := range histories {
		tickers = append(tickers, ticker)
	}
	sort.Strings(tickers)

	returns := make(map[string]map[string]float64, len(tickers))
	for _, ticker := range tickers {
		returns[ticker] = dailyReturnsByDate(histories[ticker])
	}

	matrix := make([][]float64, len(tickers))
	for i := range tickers {
		matrix[i] = make([]float64, len(tickers))
		for j := range tickers {
			switch {
			case i == j:
				matrix[i][j] = 1
			case j < i:
				matrix[i][j] = matrix[j][i]
			default:
				matrix[i][j] = pairCorrelation(returns[tickers[i]], returns[tickers[j]])
			}
		}
	}

	return CorrelationMatrix{Tickers: tickers, Matrix: matrix}, nil
}

// dailyReturnsByDate maps each date to the return from the previous
// close in the series.
func dailyReturnsByDate(series domain.HistoricalSeries) map[string]float64 {
	returns := make(map[string]float64, len(series))
	for i := 1; i < len(series); i++ {
		if series[i-1].Close == 0 {
			continue
		}
		returns[series[i].Date] = series[i].Close/series[i-1].Close - 1
	}
	return returns
}

// pairCorrelation aligns two return maps on their shared dates and
// returns the Pearson correlation, NaN when fewer than two dates align.
func pairCorrelation(a, b map[string]float64) float64 {
	var dates []string
	for date := range a {
		if _, ok := b[date]; ok {
			dates = append(dates, date)
		}
	}
	if len(dates) < 2 {
		return math.NaN()
	}
	sort.Strings(dates)

	x := make([]float64, len(dates))
	y := make([]float64, len(dates))
	for i, date := range dates {
		x[i] = a[date]
		y[i] = b[date]
	}
	return formulas.Correlation(x, y)
}
