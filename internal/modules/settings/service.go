package settings

import (
	"fmt"

	"github.com/rs/zerolog"
)

// Service exposes typed accessors over the settings repository and is
// the toggle source for scheduled jobs.
type Service struct {
	repo *Repository
	log  zerolog.Logger
}

func NewService(repo *Repository, log zerolog.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log.With().Str("service", "settings").Logger(),
	}
}

// AutoRefreshEnabled reports whether scheduled market data refreshes run.
// Implements marketdata.RefreshToggle.
func (s *Service) AutoRefreshEnabled() bool {
	enabled, err := s.repo.GetBool(KeyAutoRefreshEnabled, Defaults[KeyAutoRefreshEnabled] == "true")
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to read auto refresh toggle, assuming enabled")
		return true
	}
	return enabled
}

// AutoRefreshIntervalMinutes returns the minutes between scheduled
// refresh runs.
func (s *Service) AutoRefreshIntervalMinutes() int {
	interval, err := s.repo.GetInt(KeyAutoRefreshIntervalMin, 5)
	if err != nil || interval < 1 {
		return 5
	}
	return interval
}

// RiskFreeRate returns the annual risk-free rate used for Sharpe when
// the request does not override it.
func (s *Service) RiskFreeRate() float64 {
	rate, err := s.repo.GetFloat(KeyRiskFreeRate, 0.02)
	if err != nil {
		return 0.02
	}
	return rate
}

// Currency returns the display currency code.
func (s *Service) Currency() string {
	currency, err := s.repo.GetString(KeyCurrency, Defaults[KeyCurrency])
	if err != nil {
		return Defaults[KeyCurrency]
	}
	return currency
}

// ChartDimensions returns the configured chart size in pixels.
func (s *Service) ChartDimensions() (width, height int) {
	width, _ = s.repo.GetInt(KeyChartWidth, 800)
	height, _ = s.repo.GetInt(KeyChartHeight, 600)
	return width, height
}

// ChartTheme returns the configured chart color scheme.
func (s *Service) ChartTheme() string {
	theme, err := s.repo.GetString(KeyChartTheme, Defaults[KeyChartTheme])
	if err != nil {
		return Defaults[KeyChartTheme]
	}
	return theme
}

// All returns every setting with defaults applied.
func (s *Service) All() (map[string]string, error) {
	return s.repo.GetAll()
}

// Update stores a setting. Unknown keys are rejected so typos don't
// silently create dead settings.
func (s *Service) Update(key, value string) error {
	if _, known := Defaults[key]; !known {
		return fmt.Errorf("unknown setting key %q", key)
	}
	if err := s.repo.Set(key, value); err != nil {
		return err
	}
	s.log.Info().Str("key", key).Str("value", value).Msg("Setting updated")
	return nil
}

// Reset removes the stored value for a key, restoring the default.
func (s *Service) Reset(key string) error {
	if _, known := Defaults[key]; !known {
		return fmt.Errorf("unknown setting key %q", key)
	}
	return s.repo.Delete(key)
}
