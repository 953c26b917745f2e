// Package settings manages runtime configuration stored as key-value
// pairs in config.db. Stored values take precedence over the compiled-in
// defaults, so behavior can change without a restart.
package settings

// Setting keys.
const (
	KeyCurrency               = "currency"
	KeyAutoRefreshEnabled     = "auto_refresh_enabled"
	KeyAutoRefreshIntervalMin = "auto_refresh_interval_min"
	KeyRiskFreeRate           = "risk_free_rate"
	KeyChartWidth             = "chart_width"
	KeyChartHeight            = "chart_height"
	KeyChartTheme             = "chart_theme"
)

// Defaults maps every known setting key to its default value. Keys not
// present in the database fall back to these.
var Defaults = map[string]string{
	KeyCurrency:               "EUR",
	KeyAutoRefreshEnabled:     "true",
	KeyAutoRefreshIntervalMin: "5",
	KeyRiskFreeRate:           "0.02",
	KeyChartWidth:             "800",
	KeyChartHeight:            "600",
	KeyChartTheme:             "light",
}

// DefaultETF is a PEA-eligible ETF suggested to new users, with a
// reference target weight.
type DefaultETF struct {
	Ticker string  `json:"ticker"`
	Name   string  `json:"name"`
	Weight float64 `json:"weight"`
}

// DefaultETFs lists PEA-eligible ETFs offered as a starting universe.
var DefaultETFs = []DefaultETF{
	{Ticker: "EWLD.PA", Name: "Amundi MSCI World UCITS ETF", Weight: 0.30},
	{Ticker: "PE500.PA", Name: "Amundi PEA S&P 500 UCITS ETF", Weight: 0.25},
	{Ticker: "PCEU.PA", Name: "Amundi PEA MSCI Europe UCITS ETF", Weight: 0.20},
	{Ticker: "PAEEM.PA", Name: "Amundi PEA MSCI Emerging Markets UCITS ETF", Weight: 0.15},
	{Ticker: "PSP5.PA", Name: "Amundi PEA S&P 500 Hedged UCITS ETF", Weight: 0.10},
}
