package formulas

import (
	"math"
	"testing"
)

func TestMaxDrawdown(t *testing.T) {
	tests := []struct {
		name      string
		values    []float64
		expected  float64
		tolerance float64
	}{
		{
			name:     "empty",
			values:   []float64{},
			expected: 0.0,
		},
		{
			name:     "single value",
			values:   []float64{100},
			expected: 0.0,
		},
		{
			name:     "strictly increasing",
			values:   []float64{100, 110, 120, 130},
			expected: 0.0,
		},
		{
			name:      "halving then recovery",
			values:    []float64{100, 50, 100},
			expected:  -0.5,
			tolerance: 1e-12,
		},
		{
			name:      "drop from interior peak",
			values:    []float64{1000, 1200, 900, 1100},
			expected:  -0.25, // (900-1200)/1200
			tolerance: 1e-12,
		},
		{
			name:      "deepest of several declines",
			values:    []float64{100, 95, 90, 70, 75, 80},
			expected:  -0.30,
			tolerance: 1e-12,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := MaxDrawdown(tt.values)
			if math.Abs(result-tt.expected) > tt.tolerance {
				t.Errorf("MaxDrawdown() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestCurrentDrawdown(t *testing.T) {
	// At peak: no drawdown
	if dd := CurrentDrawdown([]float64{100, 90, 110}); dd != 0 {
		t.Errorf("CurrentDrawdown at peak = %v, want 0", dd)
	}

	// Below peak
	dd := CurrentDrawdown([]float64{100, 120, 90})
	if math.Abs(dd-(-0.25)) > 1e-12 {
		t.Errorf("CurrentDrawdown = %v, want -0.25", dd)
	}
}

func TestSharpeRatio(t *testing.T) {
	// Zero volatility collapses to 0 rather than infinity
	if s := SharpeRatio([]float64{0.01, 0.01, 0.01}, 0, 252, true); s != 0 {
		t.Errorf("SharpeRatio with zero volatility = %v, want 0", s)
	}

	// Fewer than 2 points
	if s := SharpeRatio([]float64{0.01}, 0, 252, true); s != 0 {
		t.Errorf("SharpeRatio with 1 point = %v, want 0", s)
	}

	// Hand-computed case
	returns := []float64{0.01, 0.02, 0.015, 0.025, 0.018}
	expected := Mean(returns) / StdDev(returns) * math.Sqrt(252)
	if s := SharpeRatio(returns, 0, 252, true); math.Abs(s-expected) > 1e-9 {
		t.Errorf("SharpeRatio = %v, want %v", s, expected)
	}

	// Unannualized
	expectedRaw := Mean(returns) / StdDev(returns)
	if s := SharpeRatio(returns, 0, 252, false); math.Abs(s-expectedRaw) > 1e-9 {
		t.Errorf("unannualized SharpeRatio = %v, want %v", s, expectedRaw)
	}
}
