package portfolio

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
)

// Service owns the portfolio store and its JSON file on disk.
// Every mutation is written through to the configured path.
type Service struct {
	portfolio *Portfolio
	path      string
	log       zerolog.Logger
}

func NewService(path string, log zerolog.Logger) *Service {
	return &Service{
		portfolio: New(log),
		path:      path,
		log:       log.With().Str("service", "portfolio").Logger(),
	}
}

// Load reads the portfolio file if it exists. A missing file is not an
// error; the service starts empty and creates the file on first save.
func (s *Service) Load() error {
	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		s.log.Info().Str("path", s.path).Msg("No portfolio file found, starting empty")
		return nil
	}
	return s.portfolio.LoadJSON(s.path)
}

func (s *Service) save() error {
	return s.portfolio.SaveJSON(s.path)
}

// AddPosition validates and adds a position, replacing any existing
// position with the same ticker, then persists the portfolio.
func (s *Service) AddPosition(pos Position) error {
	if err := s.portfolio.Add(pos); err != nil {
		return err
	}
	return s.save()
}

func (s *Service) RemovePosition(ticker string) error {
	if err := s.portfolio.Remove(ticker); err != nil {
		return err
	}
	return s.save()
}

func (s *Service) UpdatePosition(ticker string, pos Position) error {
	if err := s.portfolio.Update(ticker, pos); err != nil {
		return err
	}
	return s.save()
}

func (s *Service) GetPosition(ticker string) *Position {
	return s.portfolio.Get(ticker)
}

func (s *Service) Positions() []Position {
	return s.portfolio.Positions()
}

func (s *Service) Tickers() []string {
	return s.portfolio.Tickers()
}

// Portfolio exposes the underlying store for the analytics engine.
func (s *Service) Portfolio() *Portfolio {
	return s.portfolio
}

// ExportCSV writes the current portfolio to the given CSV path.
func (s *Service) ExportCSV(path string) error {
	return s.portfolio.ExportCSV(path)
}

// ExportCSVBytes renders the current portfolio as CSV in memory.
func (s *Service) ExportCSVBytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := s.portfolio.WriteCSV(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ImportCSV replaces the portfolio with the contents of a CSV file and
// persists the result. Invalid rows are reported, not fatal.
func (s *Service) ImportCSV(path string) ([]RowError, error) {
	rowErrors, err := s.portfolio.ImportCSV(path)
	if err != nil {
		return rowErrors, err
	}
	if err := s.save(); err != nil {
		return rowErrors, fmt.Errorf("failed to persist imported portfolio: %w", err)
	}
	return rowErrors, nil
}

// ImportCSVReader replaces the portfolio with CSV read from in and persists
// the result.
func (s *Service) ImportCSVReader(in io.Reader) ([]RowError, error) {
	rowErrors, err := s.portfolio.ReadCSV(in)
	if err != nil {
		return rowErrors, err
	}
	if err := s.save(); err != nil {
		return rowErrors, fmt.Errorf("failed to persist imported portfolio: %w", err)
	}
	return rowErrors, nil
}
