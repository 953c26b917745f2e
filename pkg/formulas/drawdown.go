package formulas

// MaxDrawdown calculates the maximum peak-to-trough decline of a value series.
//
// Drawdown at t = (value[t] - running max up to t) / running max
// Max drawdown = the most negative drawdown over the whole series.
//
// The result is a negative fraction (-0.25 = 25% decline from peak), or 0
// for a series that never declines or has fewer than 2 points.
func MaxDrawdown(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}

	maxDD := 0.0
	peak := values[0]

	for _, v := range values {
		if v > peak {
			peak = v
		}
		if peak > 0 {
			dd := (v - peak) / peak
			if dd < maxDD {
				maxDD = dd
			}
		}
	}

	return maxDD
}

// CurrentDrawdown calculates the decline of the last value from the series
// peak, as a negative fraction. 0 when the series is at its peak or empty.
func CurrentDrawdown(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	peak := values[0]
	for _, v := range values {
		if v > peak {
			peak = v
		}
	}

	if peak <= 0 {
		return 0
	}

	return (values[len(values)-1] - peak) / peak
}
