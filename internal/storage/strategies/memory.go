package strategies

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/newthinker/stratbench/internal/strategy/custom"
)

// MemoryStore keeps definitions in process memory.
type MemoryStore struct {
	mu   sync.RWMutex
	defs map[string]*custom.Strategy
	now  func() time.Time
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		defs: make(map[string]*custom.Strategy),
		now:  time.Now,
	}
}

func (m *MemoryStore) Get(ctx context.Context, id string) (*custom.Strategy, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	def, ok := m.defs[id]
	if !ok {
		return nil, notFound(id)
	}
	return clone(def), nil
}

func (m *MemoryStore) List(ctx context.Context) ([]*custom.Strategy, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*custom.Strategy, 0, len(m.defs))
	for _, def := range m.defs {
		out = append(out, clone(def))
	}
	sortByCreated(out)
	return out, nil
}

func (m *MemoryStore) Save(ctx context.Context, def *custom.Strategy) (*custom.Strategy, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var existing *custom.Strategy
	if def != nil {
		existing = m.defs[def.ID]
	}
	stored, err := stamp(def, existing, m.now())
	if err != nil {
		return nil, err
	}
	m.defs[stored.ID] = stored
	return clone(stored), nil
}

func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.defs[id]; !ok {
		return notFound(id)
	}
	delete(m.defs, id)
	return nil
}

func sortByCreated(defs []*custom.Strategy) {
	sort.SliceStable(defs, func(i, j int) bool {
		if defs[i].CreatedAt.Equal(defs[j].CreatedAt) {
			return defs[i].ID < defs[j].ID
		}
		return defs[i].CreatedAt.Before(defs[j].CreatedAt)
	})
}
