package marketdata

import (
	"github.com/rs/zerolog"
)

// TickerSource supplies the tickers a refresh run should cover.
type TickerSource interface {
	Tickers() []string
}

// RefreshToggle reports whether scheduled refreshes are enabled. Backed
// by the settings store so the toggle takes effect without a restart.
type RefreshToggle interface {
	AutoRefreshEnabled() bool
}

// RefreshJob periodically refreshes prices and history for all held
// tickers. Implements scheduler.Job.
type RefreshJob struct {
	service *Service
	tickers TickerSource
	toggle  RefreshToggle
	log     zerolog.Logger
}

func NewRefreshJob(service *Service, tickers TickerSource, toggle RefreshToggle, log zerolog.Logger) *RefreshJob {
	return &RefreshJob{
		service: service,
		tickers: tickers,
		toggle:  toggle,
		log:     log.With().Str("job", "market_refresh").Logger(),
	}
}

func (j *RefreshJob) Name() string {
	return "market_refresh"
}

func (j *RefreshJob) Run() error {
	if j.toggle != nil && !j.toggle.AutoRefreshEnabled() {
		j.log.Debug().Msg("Auto refresh disabled, skipping run")
		return nil
	}

	tickers := j.tickers.Tickers()
	if len(tickers) == 0 {
		j.log.Debug().Msg("No positions, nothing to refresh")
		return nil
	}

	_, err := j.service.RefreshAll(tickers)
	return err
}
