package strategy

import (
	"sync"

	"go.uber.org/zap"
)

// Entry pairs a strategy id with its configuration
type Entry struct {
	ID     string `json:"id"`
	Config Config `json:"config"`
}

// Registry maps strategy ids to signal generators.
// It keeps registration order so listings are stable.
type Registry struct {
	mu         sync.RWMutex
	strategies map[string]Strategy
	order      []string
	logger     *zap.Logger
}

// NewRegistry creates an empty strategy registry
func NewRegistry(logger ...*zap.Logger) *Registry {
	var l *zap.Logger
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0]
	} else {
		l = zap.NewNop()
	}
	return &Registry{
		strategies: make(map[string]Strategy),
		logger:     l,
	}
}

// Register adds a strategy, replacing any strategy with the same id
func (r *Registry) Register(s Strategy) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := s.ID()
	if _, exists := r.strategies[id]; !exists {
		r.order = append(r.order, id)
	}
	r.strategies[id] = s
	r.logger.Debug("registered strategy", zap.String("strategy", id))
}

// Get retrieves a strategy by id
func (r *Registry) Get(id string) (Strategy, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.strategies[id]
	return s, ok
}

// Has reports whether a strategy id is registered
func (r *Registry) Has(id string) bool {
	_, ok := r.Get(id)
	return ok
}

// GetAll returns all registered strategies in registration order
func (r *Registry) GetAll() []Strategy {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Strategy, 0, len(r.order))
	for _, id := range r.order {
		result = append(result, r.strategies[id])
	}
	return result
}

// List returns id and configuration of every registered strategy
func (r *Registry) List() []Entry {
	strategies := r.GetAll()
	entries := make([]Entry, 0, len(strategies))
	for _, s := range strategies {
		entries = append(entries, Entry{ID: s.ID(), Config: s.Config()})
	}
	return entries
}
