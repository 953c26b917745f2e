package marketdata

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/peatrack/peatrack/internal/clientdata"
	"github.com/peatrack/peatrack/internal/domain"
)

// Service resolves current and historical prices cache-first: a fresh
// cache row is served without a network call, a fetch failure falls back
// to the stale cache, and for history the persistent close store is the
// last resort. Implements domain.MarketDataProvider.
type Service struct {
	client  *YahooClient
	cache   *clientdata.Repository
	history *HistoryRepository
	log     zerolog.Logger
}

func NewService(client *YahooClient, cache *clientdata.Repository, history *HistoryRepository, log zerolog.Logger) *Service {
	return &Service{
		client:  client,
		cache:   cache,
		history: history,
		log:     log.With().Str("service", "marketdata").Logger(),
	}
}

// CurrentPrice resolves a single ticker's price. Returns nil when the
// price cannot be resolved from cache or network; that is not an error,
// callers skip the ticker.
func (s *Service) CurrentPrice(ticker string) (*domain.Quote, error) {
	if cached, err := s.cache.GetIfFresh(clientdata.TableCurrentPrices, ticker); err == nil && cached != nil {
		var quote domain.Quote
		if err := json.Unmarshal(cached, &quote); err == nil {
			return &quote, nil
		}
		s.log.Warn().Str("ticker", ticker).Msg("Corrupt cached quote, refetching")
	}

	price, fetchErr := s.client.FetchCurrentPrice(ticker)
	if fetchErr == nil {
		quote := &domain.Quote{
			Ticker:    ticker,
			Price:     price,
			FetchedAt: time.Now().UTC(),
		}
		s.cacheQuote(quote)
		return quote, nil
	}

	// Network failed, serve the stale cache if we have one.
	if cached, err := s.cache.Get(clientdata.TableCurrentPrices, ticker); err == nil && cached != nil {
		var quote domain.Quote
		if err := json.Unmarshal(cached, &quote); err == nil {
			quote.Stale = true
			s.log.Warn().Str("ticker", ticker).Err(fetchErr).
				Time("fetched_at", quote.FetchedAt).
				Msg("Price fetch failed, serving stale cached price")
			return &quote, nil
		}
	}

	s.log.Warn().Str("ticker", ticker).Err(fetchErr).Msg("No price available from network or cache")
	return nil, nil
}

func (s *Service) cacheQuote(quote *domain.Quote) {
	data, err := json.Marshal(quote)
	if err != nil {
		s.log.Error().Err(err).Str("ticker", quote.Ticker).Msg("Failed to encode quote for cache")
		return
	}
	if err := s.cache.Store(clientdata.TableCurrentPrices, quote.Ticker, data, clientdata.TTLCurrentPrice); err != nil {
		s.log.Error().Err(err).Str("ticker", quote.Ticker).Msg("Failed to cache quote")
	}
}

// CurrentPrices resolves prices for a set of tickers. Unresolvable
// tickers are absent from the returned map.
func (s *Service) CurrentPrices(tickers []string) (domain.PriceMap, error) {
	prices := make(domain.PriceMap, len(tickers))
	for _, ticker := range tickers {
		quote, err := s.CurrentPrice(ticker)
		if err != nil {
			return nil, err
		}
		if quote != nil {
			prices[ticker] = quote.Price
		}
	}
	return prices, nil
}

// History returns the daily close series for a ticker, cache-first with
// the persistent close store as final fallback.
func (s *Service) History(ticker string) (domain.HistoricalSeries, error) {
	if cached, err := s.cache.GetIfFresh(clientdata.TableHistoricalSeries, ticker); err == nil && cached != nil {
		var series domain.HistoricalSeries
		if err := msgpack.Unmarshal(cached, &series); err == nil {
			return series, nil
		}
		s.log.Warn().Str("ticker", ticker).Msg("Corrupt cached series, refetching")
	}

	series, fetchErr := s.client.FetchDailyHistory(ticker)
	if fetchErr == nil {
		s.storeSeries(ticker, series)
		return series, nil
	}

	if cached, err := s.cache.Get(clientdata.TableHistoricalSeries, ticker); err == nil && cached != nil {
		var series domain.HistoricalSeries
		if err := msgpack.Unmarshal(cached, &series); err == nil {
			s.log.Warn().Str("ticker", ticker).Err(fetchErr).Msg("History fetch failed, serving stale cached series")
			return series, nil
		}
	}

	stored, err := s.history.GetSeries(ticker)
	if err == nil && len(stored) > 0 {
		s.log.Warn().Str("ticker", ticker).Err(fetchErr).Msg("History fetch failed, serving persisted closes")
		return stored, nil
	}

	return nil, fmt.Errorf("no history available for %s: %w", ticker, fetchErr)
}

// storeSeries writes a fetched series to both the cache and the
// persistent close store.
func (s *Service) storeSeries(ticker string, series domain.HistoricalSeries) {
	data, err := msgpack.Marshal(series)
	if err != nil {
		s.log.Error().Err(err).Str("ticker", ticker).Msg("Failed to encode series for cache")
	} else if err := s.cache.Store(clientdata.TableHistoricalSeries, ticker, data, clientdata.TTLHistoricalSeries); err != nil {
		s.log.Error().Err(err).Str("ticker", ticker).Msg("Failed to cache series")
	}

	if err := s.history.Upsert(ticker, series); err != nil {
		s.log.Error().Err(err).Str("ticker", ticker).Msg("Failed to persist series")
	}
}

// RefreshResult summarizes one refresh run.
type RefreshResult struct {
	RunID     string           `json:"run_id"`
	Prices    domain.PriceMap  `json:"prices"`
	Failed    []string         `json:"failed"`
	StartedAt time.Time        `json:"started_at"`
	Duration  time.Duration    `json:"duration"`
}

// RefreshAll force-fetches current prices and daily history for every
// ticker, bypassing cache freshness. Tickers that fail on both paths are
// listed in the result; their last known prices stay in the cache.
func (s *Service) RefreshAll(tickers []string) (*RefreshResult, error) {
	result := &RefreshResult{
		RunID:     uuid.New().String(),
		Prices:    make(domain.PriceMap, len(tickers)),
		StartedAt: time.Now().UTC(),
	}

	log := s.log.With().Str("run_id", result.RunID).Logger()
	log.Info().Int("tickers", len(tickers)).Msg("Refreshing market data")

	for _, ticker := range tickers {
		price, err := s.client.FetchCurrentPrice(ticker)
		if err != nil {
			log.Warn().Str("ticker", ticker).Err(err).Msg("Price refresh failed")
			result.Failed = append(result.Failed, ticker)
		} else {
			quote := &domain.Quote{Ticker: ticker, Price: price, FetchedAt: time.Now().UTC()}
			s.cacheQuote(quote)
			result.Prices[ticker] = price
		}

		series, err := s.client.FetchDailyHistory(ticker)
		if err != nil {
			log.Warn().Str("ticker", ticker).Err(err).Msg("History refresh failed")
		} else {
			s.storeSeries(ticker, series)
		}
	}

	result.Duration = time.Since(result.StartedAt)
	log.Info().
		Int("refreshed", len(result.Prices)).
		Int("failed", len(result.Failed)).
		Dur("duration", result.Duration).
		Msg("Market data refresh complete")

	return result, nil
}
