package formulas

import (
	"math"

	"github.com/markcheno/go-talib"
)

// SMASeries calculates the Simple Moving Average over a close series.
// The returned slice has the same length as the input; positions before
// the window fills are NaN. Returns nil when the series is shorter than
// the window.
func SMASeries(closes []float64, window int) []float64 {
	if window < 1 || len(closes) < window {
		return nil
	}

	sma := talib.Sma(closes, window)
	for i := 0; i < window-1 && i < len(sma); i++ {
		sma[i] = math.NaN()
	}
	return sma
}

// SMA returns the latest Simple Moving Average value, nil when the
// series is shorter than the window.
func SMA(closes []float64, window int) *float64 {
	series := SMASeries(closes, window)
	if len(series) == 0 {
		return nil
	}
	last := series[len(series)-1]
	if math.IsNaN(last) {
		return nil
	}
	return &last
}
