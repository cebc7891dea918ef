package result

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/newthinker/stratbench/internal/backtest"
	"github.com/newthinker/stratbench/internal/core"
)

// DefaultMaxSize bounds the history when no size is configured.
const DefaultMaxSize = 100

// MemoryStore is a bounded in-memory result store. The oldest results are
// dropped once the store is full.
type MemoryStore struct {
	results []*backtest.Result
	maxSize int
	mu      sync.RWMutex
}

// NewMemoryStore creates a new in-memory store with max capacity.
func NewMemoryStore(maxSize int) *MemoryStore {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &MemoryStore{
		results: make([]*backtest.Result, 0, maxSize),
		maxSize: maxSize,
	}
}

// Save adds a result to the store.
func (m *MemoryStore) Save(ctx context.Context, result *backtest.Result) error {
	if result == nil {
		return fmt.Errorf("nil result")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if result.ID == "" {
		result.ID = uuid.NewString()
	}
	m.results = append(m.results, result)

	// Trim if over capacity (remove oldest)
	if len(m.results) > m.maxSize {
		m.results = m.results[len(m.results)-m.maxSize:]
	}

	return nil
}

// GetByID retrieves a result by ID.
func (m *MemoryStore) GetByID(ctx context.Context, id string) (*backtest.Result, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, r := range m.results {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, core.WrapError(core.ErrNotFound, fmt.Errorf("backtest result %q", id))
}

// List returns results matching the filter, newest first.
func (m *MemoryStore) List(ctx context.Context, filter ListFilter) ([]*backtest.Result, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := []*backtest.Result{}
	for i := len(m.results) - 1; i >= 0; i-- {
		if matches(m.results[i], filter) {
			result = append(result, m.results[i])
		}
	}

	// Apply offset and limit
	if filter.Offset >= len(result) {
		return []*backtest.Result{}, nil
	}
	if filter.Offset > 0 {
		result = result[filter.Offset:]
	}

	if filter.Limit > 0 && filter.Limit < len(result) {
		result = result[:filter.Limit]
	}

	return result, nil
}

// Count returns the count of matching results.
func (m *MemoryStore) Count(ctx context.Context, filter ListFilter) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0
	for _, r := range m.results {
		if matches(r, filter) {
			count++
		}
	}
	return count, nil
}

func matches(r *backtest.Result, filter ListFilter) bool {
	if filter.Strategy != "" && r.Strategy != filter.Strategy {
		return false
	}
	if filter.Instrument != "" && r.Instrument != filter.Instrument {
		return false
	}
	if !filter.From.IsZero() && r.CreatedAt.Before(filter.From) {
		return false
	}
	if !filter.To.IsZero() && r.CreatedAt.After(filter.To) {
		return false
	}
	return true
}
