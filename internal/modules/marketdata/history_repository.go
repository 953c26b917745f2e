package marketdata

import (
	"database/sql"
	"fmt"

	"github.com/peatrack/peatrack/internal/domain"
)

// HistoryRepository persists daily closes in the history database. Unlike
// the cache, rows here never expire; they are the long-term record the
// analytics engine falls back to when the network and cache both fail.
type HistoryRepository struct {
	db *sql.DB
}

func NewHistoryRepository(db *sql.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// InitHistorySchema creates the daily close table.
func InitHistorySchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS daily_prices (
			ticker TEXT NOT NULL,
			date TEXT NOT NULL,
			close REAL NOT NULL,
			PRIMARY KEY (ticker, date)
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create daily_prices table: %w", err)
	}
	return nil
}

// Upsert writes a close series for a ticker, replacing any rows that
// already exist for the same dates.
func (r *HistoryRepository) Upsert(ticker string, series domain.HistoricalSeries) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO daily_prices (ticker, date, close)
		VALUES (?, ?, ?)
		ON CONFLICT (ticker, date) DO UPDATE SET close = excluded.close
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, p := range series {
		if _, err := stmt.Exec(ticker, p.Date, p.Close); err != nil {
			return fmt.Errorf("failed to upsert close for %s on %s: %w", ticker, p.Date, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit history upsert: %w", err)
	}
	return nil
}

// GetSeries returns the stored close series for a ticker in ascending
// date order. An unknown ticker yields an empty series, not an error.
func (r *HistoryRepository) GetSeries(ticker string) (domain.HistoricalSeries, error) {
	rows, err := r.db.Query(`
		SELECT date, close FROM daily_prices
		WHERE ticker = ?
		ORDER BY date ASC
	`, ticker)
	if err != nil {
		return nil, fmt.Errorf("failed to query history for %s: %w", ticker, err)
	}
	defer rows.Close()

	var series domain.HistoricalSeries
	for rows.Next() {
		var p domain.PricePoint
		if err := rows.Scan(&p.Date, &p.Close); err != nil {
			return nil, fmt.Errorf("failed to scan close row: %w", err)
		}
		series = append(series, p)
	}
	return series, rows.Err()
}

// Tickers returns all tickers with stored history.
func (r *HistoryRepository) Tickers() ([]string, error) {
	rows, err := r.db.Query(`SELECT DISTINCT ticker FROM daily_prices ORDER BY ticker`)
	if err != nil {
		return nil, fmt.Errorf("failed to query history tickers: %w", err)
	}
	defer rows.Close()

	var tickers []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("failed to scan ticker: %w", err)
		}
		tickers = append(tickers, t)
	}
	return tickers, rows.Err()
}
