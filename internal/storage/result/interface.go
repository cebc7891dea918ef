// Package result keeps the history of completed backtest runs.
package result

import (
	"context"
	"time"

	"github.com/newthinker/stratbench/internal/backtest"
)

// Store defines the interface for result persistence.
type Store interface {
	// Save persists a result, assigning an ID when it has none.
	Save(ctx context.Context, result *backtest.Result) error

	// GetByID retrieves a result by its ID.
	GetByID(ctx context.Context, id string) (*backtest.Result, error)

	// List retrieves results matching the filter, newest first.
	List(ctx context.Context, filter ListFilter) ([]*backtest.Result, error)

	// Count returns the number of results matching the filter.
	Count(ctx context.Context, filter ListFilter) (int, error)
}

// ListFilter defines criteria for listing results.
type ListFilter struct {
	Strategy   string
	Instrument string
	From       time.Time
	To         time.Time
	Limit      int
	Offset     int
}
