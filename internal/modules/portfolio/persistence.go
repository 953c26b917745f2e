package portfolio

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
)

// csvHeader is the fixed five-column CSV layout. ManualPrice overrides are a
// runtime aid and are not part of the interchange format.
var csvHeader = []string{"Ticker", "Name", "Quantity", "BuyPrice", "BuyDate"}

// RowError reports a CSV row that failed validation during import.
// Row is the 1-based line number in the file (the header is line 1).
type RowError struct {
	Row int    `json:"row"`
	Err string `json:"error"`
}

type jsonDocument struct {
	Positions []Position `json:"positions"`
}

// SaveJSON writes the portfolio to a JSON file with ISO-8601 dates.
func (p *Portfolio) SaveJSON(path string) error {
	doc := jsonDocument{Positions: p.Positions()}
	if doc.Positions == nil {
		doc.Positions = []Position{}
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal portfolio: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write portfolio file: %w", err)
	}

	p.log.Info().Str("path", path).Int("positions", p.Len()).Msg("Portfolio saved")
	return nil
}

// LoadJSON replaces the portfolio contents with positions from a JSON file.
func (p *Portfolio) LoadJSON(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read portfolio file: %w", err)
	}

	var doc jsonDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to parse portfolio file: %w", err)
	}

	if err := p.Replace(doc.Positions); err != nil {
		return fmt.Errorf("invalid portfolio data in %s: %w", path, err)
	}

	p.log.Info().Str("path", path).Int("positions", p.Len()).Msg("Portfolio loaded")
	return nil
}

// ExportCSV writes the portfolio as CSV with the fixed header
// Ticker,Name,Quantity,BuyPrice,BuyDate.
func (p *Portfolio) ExportCSV(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer f.Close()

	if err := p.WriteCSV(f); err != nil {
		return err
	}

	p.log.Info().Str("path", path).Int("positions", p.Len()).Msg("Portfolio exported to CSV")
	return nil
}

// WriteCSV writes the portfolio as CSV to an arbitrary writer.
func (p *Portfolio) WriteCSV(out io.Writer) error {
	w := csv.NewWriter(out)
	if err := w.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, pos := range p.positions {
		record := []string{
			pos.Ticker,
			pos.Name,
			strconv.FormatFloat(pos.Quantity, 'f', -1, 64),
			strconv.FormatFloat(pos.BuyPrice, 'f', -1, 64),
			pos.BuyDate,
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}
	return nil
}

// ImportCSV replaces the portfolio contents with positions from a CSV file.
// Rows failing validation (empty ticker/name, non-positive quantity or price,
// malformed date) are skipped and reported; valid rows are still imported.
// A missing or wrong header is a hard error.
func (p *Portfolio) ImportCSV(path string) ([]RowError, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer f.Close()

	rowErrors, err := p.ReadCSV(f)
	if err != nil {
		return rowErrors, fmt.Errorf("invalid portfolio data in %s: %w", path, err)
	}

	p.log.Info().
		Str("path", path).
		Int("imported", p.Len()).
		Int("rejected", len(rowErrors)).
		Msg("Portfolio imported from CSV")

	return rowErrors, nil
}

// ReadCSV replaces the portfolio contents with positions read from in.
func (p *Portfolio) ReadCSV(in io.Reader) ([]RowError, error) {
	r := csv.NewReader(in)
	r.FieldsPerRecord = len(csvHeader)

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	for i, col := range csvHeader {
		if header[i] != col {
			return nil, fmt.Errorf("unexpected CSV header: got %v, want %v", header, csvHeader)
		}
	}

	var positions []Position
	var rowErrors []RowError

	for line := 2; ; line++ {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				rowErrors = append(rowErrors, RowError{Row: line, Err: err.Error()})
				continue
			}
			return rowErrors, fmt.Errorf("failed to read CSV: %w", err)
		}

		pos, err := parseCSVRecord(record)
		if err != nil {
			rowErrors = append(rowErrors, RowError{Row: line, Err: err.Error()})
			p.log.Warn().Int("row", line).Err(err).Msg("Skipped invalid CSV row")
			continue
		}
		positions = append(positions, pos)
	}

	if err := p.Replace(positions); err != nil {
		return rowErrors, err
	}
	return rowErrors, nil
}

func parseCSVRecord(record []string) (Position, error) {
	quantity, err := strconv.ParseFloat(record[2], 64)
	if err != nil {
		return Position{}, fmt.Errorf("invalid quantity %q: %w", record[2], err)
	}
	buyPrice, err := strconv.ParseFloat(record[3], 64)
	if err != nil {
		return Position{}, fmt.Errorf("invalid buy price %q: %w", record[3], err)
	}

	pos := Position{
		Ticker:   record[0],
		Name:     record[1],
		Quantity: quantity,
		BuyPrice: buyPrice,
		BuyDate:  record[4],
	}
	if err := pos.Validate(); err != nil {
		return Position{}, err
	}
	return pos, nil
}
