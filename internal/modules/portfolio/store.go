package portfolio

import (
	"fmt"

	"github.com/rs/zerolog"
)

// Portfolio is an ordered collection of positions. Order is insertion/load
// order; it carries no meaning but is preserved for deterministic display
// and export. Within one portfolio there is at most one position per ticker.
//
// The portfolio is mutated only between analytics calls, never concurrently
// with one, so no locking is needed.
type Portfolio struct {
	positions []Position
	log       zerolog.Logger
}

// New creates an empty portfolio.
func New(log zerolog.Logger) *Portfolio {
	return &Portfolio{
		log: log.With().Str("component", "portfolio").Logger(),
	}
}

// NewWithPositions creates a portfolio pre-loaded with positions.
// Later duplicates replace earlier ones, preserving the first position's slot.
func NewWithPositions(positions []Position, log zerolog.Logger) (*Portfolio, error) {
	p := New(log)
	for _, pos := range positions {
		if err := p.Add(pos); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Add inserts a position. If a position with the same ticker already exists
// it is replaced in place, keeping its original slot in the ordering.
func (p *Portfolio) Add(pos Position) error {
	if err := pos.Validate(); err != nil {
		return fmt.Errorf("invalid position: %w", err)
	}

	for i, existing := range p.positions {
		if existing.Ticker == pos.Ticker {
			p.positions[i] = pos
			p.log.Info().Str("ticker", pos.Ticker).Msg("Replaced position")
			return nil
		}
	}

	p.positions = append(p.positions, pos)
	p.log.Info().Str("ticker", pos.Ticker).Msg("Added position")
	return nil
}

// Remove deletes the position with the given ticker.
func (p *Portfolio) Remove(ticker string) error {
	for i, pos := range p.positions {
		if pos.Ticker == ticker {
			p.positions = append(p.positions[:i], p.positions[i+1:]...)
			p.log.Info().Str("ticker", ticker).Msg("Removed position")
			return nil
		}
	}
	return fmt.Errorf("ticker %s not found in portfolio", ticker)
}

// Update replaces the position identified by ticker with a whole new record.
// The new record may carry a different ticker; uniqueness is re-checked.
func (p *Portfolio) Update(ticker string, pos Position) error {
	if err := pos.Validate(); err != nil {
		return fmt.Errorf("invalid position: %w", err)
	}

	idx := -1
	for i, existing := range p.positions {
		if existing.Ticker == ticker {
			idx = i
			break
		}
	}
	if idx == -1 {
		return fmt.Errorf("ticker %s not found in portfolio", ticker)
	}

	// Renaming onto an existing ticker would violate uniqueness
	if pos.Ticker != ticker {
		for _, existing := range p.positions {
			if existing.Ticker == pos.Ticker {
				return fmt.Errorf("ticker %s already exists in portfolio", pos.Ticker)
			}
		}
	}

	p.positions[idx] = pos
	p.log.Info().Str("ticker", ticker).Msg("Updated position")
	return nil
}

// Get returns the position with the given ticker, or nil if absent.
func (p *Portfolio) Get(ticker string) *Position {
	for i := range p.positions {
		if p.positions[i].Ticker == ticker {
			pos := p.positions[i]
			return &pos
		}
	}
	return nil
}

// Positions returns a copy of all positions in insertion order.
func (p *Portfolio) Positions() []Position {
	out := make([]Position, len(p.positions))
	copy(out, p.positions)
	return out
}

// Tickers returns all tickers in insertion order.
func (p *Portfolio) Tickers() []string {
	out := make([]string, len(p.positions))
	for i, pos := range p.positions {
		out[i] = pos.Ticker
	}
	return out
}

// Len returns the number of positions.
func (p *Portfolio) Len() int {
	return len(p.positions)
}

// Replace swaps the entire position list, used by load operations.
func (p *Portfolio) Replace(positions []Position) error {
	fresh, err := NewWithPositions(positions, p.log)
	if err != nil {
		return err
	}
	p.positions = fresh.positions
	return nil
}
