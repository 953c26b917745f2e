package analytics

import (
	"fmt"
	"sort"
	"time"

	"github.com/peatrack/peatrack/internal/domain"
)

// histories fetches the daily close series for every held ticker. Tickers
// with no usable history are skipped with a warning, matching the
// valuation policy for missing prices.
func (e *Engine) histories() (map[string]domain.HistoricalSeries, error) {
	result := make(map[string]domain.HistoricalSeries)
	for _, ticker := range e.positions.Tickers() {
		series, err := e.provider.History(ticker)
		if err != nil {
			e.log.Warn().Str("ticker", ticker).Err(err).Msg("No history available, ticker skipped from return series")
			continue
		}
		if len(series) == 0 {
			e.log.Warn().Str("ticker", ticker).Msg("Empty history, ticker skipped from return series")
			continue
		}
		result[ticker] = series
	}
	return result, nil
}

// ValueSeries builds the daily portfolio value series over the dates all
// held tickers share. Quantities are the current holdings, held constant
// over the window.
func (e *Engine) ValueSeries() ([]ValuePoint, error) {
	positions := e.positions.Positions()
	if len(positions) == 0 {
		return []ValuePoint{}, nil
	}

	histories, err := e.histories()
	if err != nil {
		return nil, err
	}
	if len(histories) == 0 {
		return []ValuePoint{}, nil
	}

	closes := make(map[string]map[string]float64, len(histories))
	for ticker, series := range histories {
		byDate := make(map[string]float64, len(series))
		for _, p := range series {
			byDate[p.Date] = p.Close
		}
		closes[ticker] = byDate
	}

	dates := alignDates(closes)
	if len(dates) == 0 {
		e.log.Warn().Msg("Held tickers share no common dates, value series is empty")
		return []ValuePoint{}, nil
	}

	quantities := make(map[string]float64, len(positions))
	for _, pos := range positions {
		quantities[pos.Ticker] = pos.Quantity
	}

	series := make([]ValuePoint, 0, len(dates))
	for _, date := range dates {
		total := 0.0
		for ticker, byDate := range closes {
			total += quantities[ticker] * byDate[date]
		}
		series = append(series, ValuePoint{Date: date, Value: total})
	}
	return series, nil
}

// Returns computes the portfolio percentage-change series at the given
// sampling period. Weekly and monthly series take the last portfolio
// value of each ISO week or calendar month before differencing; each
// point is labeled with the bucket's last trading date. The first,
// possibly partial bucket yields a return measured from the window's
// first daily value.
func (e *Engine) Returns(period Period) ([]ReturnPoint, error) {
	if err := period.Validate(); err != nil {
		return nil, err
	}

	values, err := e.ValueSeries()
	if err != nil {
		return nil, err
	}

	if period != PeriodDaily && len(values) > 0 {
		resampled, err := resampleLast(values, period)
		if err != nil {
			return nil, err
		}
		// Seed with the first daily value so the first bucket is
		// measured against where the window opened.
		values = append([]ValuePoint{values[0]}, resampled...)
	}

	return pctChange(values), nil
}

// alignDates returns the ascending intersection of dates across all series.
func alignDates(closes map[string]map[string]float64) []string {
	var first map[string]float64
	for _, byDate := range closes {
		first = byDate
		break
	}

	var dates []string
	for date := range first {
		shared := true
		for _, byDate := range closes {
			if _, ok := byDate[date]; !ok {
				shared = false
				break
			}
		}
		if shared {
			dates = append(dates, date)
		}
	}
	sort.Strings(dates)
	return dates
}

// resampleLast keeps the last value of each ISO-week or calendar-month
// bucket, labeled by the bucket's last date.
func resampleLast(values []ValuePoint, period Period) ([]ValuePoint, error) {
	var resampled []ValuePoint
	lastKey := ""
	for _, p := range values {
		key, err := bucketKey(p.Date, period)
		if err != nil {
			return nil, err
		}
		if key == lastKey && len(resampled) > 0 {
			resampled[len(resampled)-1] = p
		} else {
			resampled = append(resampled, p)
			lastKey = key
		}
	}
	return resampled, nil
}

func bucketKey(date string, period Period) (string, error) {
	t, err := time.Parse(domain.DateFormat, date)
	if err != nil {
		return "", fmt.Errorf("invalid date %q in value series: %w", date, err)
	}
	switch period {
	case PeriodWeekly:
		year, week := t.ISOWeek()
		return fmt.Sprintf("%d-W%02d", year, week), nil
	case PeriodMonthly:
		return t.Format("2006-01"), nil
	default:
		return date, nil
	}
}

// pctChange turns a value series into percentage changes, labeled by the
// later date of each pair. Zero previous values are skipped.
func pctChange(values []ValuePoint) []ReturnPoint {
	returns := make([]ReturnPoint, 0, len(values))
	for i := 1; i < len(values); i++ {
		if values[i-1].Value == 0 {
			continue
		}
		returns = append(returns, ReturnPoint{
			Date:   values[i].Date,
			Return: values[i].Value/values[i-1].Value - 1,
		})
	}
	return returns
}
