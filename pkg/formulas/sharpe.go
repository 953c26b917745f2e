package formulas

import (
	"math"
)

// SharpeRatio calculates the Sharpe ratio from periodic returns.
//
// Sharpe = (mean return - risk-free rate) / std dev of returns
// Annualized: Sharpe × sqrt(periods per year)
//
// riskFreeRate is expressed per period, consistent with the returns.
// Returns 0 when the series has fewer than 2 points or zero volatility;
// an infinite or NaN ratio would propagate silently into display layers,
// so the degenerate cases collapse to 0 instead.
func SharpeRatio(returns []float64, riskFreeRate float64, periodsPerYear int, annualize bool) float64 {
	if len(returns) < 2 {
		return 0
	}

	vol := StdDev(returns)
	if vol == 0 {
		return 0
	}

	sharpe := (Mean(returns) - riskFreeRate) / vol

	if annualize {
		sharpe *= math.Sqrt(float64(periodsPerYear))
	}

	return sharpe
}
