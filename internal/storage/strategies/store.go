// Package strategies persists user-defined rule strategies.
package strategies

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/newthinker/stratbench/internal/core"
	"github.com/newthinker/stratbench/internal/strategy/custom"
)

// Store persists custom strategy definitions.
type Store interface {
	// Get returns the definition with the given id or core.ErrNotFound.
	Get(ctx context.Context, id string) (*custom.Strategy, error)
	// List returns every definition ordered by creation time.
	List(ctx context.Context) ([]*custom.Strategy, error)
	// Save validates and stores def. A definition without a custom_ id is
	// assigned a new one; saving an existing id updates it in place.
	Save(ctx context.Context, def *custom.Strategy) (*custom.Strategy, error)
	// Delete removes the definition with the given id or returns core.ErrNotFound.
	Delete(ctx context.Context, id string) error
}

// NewID returns a fresh custom strategy id.
func NewID() string {
	return custom.IDPrefix + uuid.NewString()
}

// validID reports whether id is a custom_ id safe to use as an object name.
func validID(id string) bool {
	return custom.IsCustomID(id) && !strings.ContainsAny(id, "/\\ ")
}

func notFound(id string) error {
	return core.WrapError(core.ErrNotFound, fmt.Errorf("custom strategy %q", id))
}

// stamp validates def and returns the copy to store. existing is the stored
// version under the same id, if any.
func stamp(def *custom.Strategy, existing *custom.Strategy, now time.Time) (*custom.Strategy, error) {
	if def == nil {
		return nil, core.WrapError(core.ErrInvalidStrategy, fmt.Errorf("nil definition"))
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}

	out := clone(def)
	now = now.UTC()
	switch {
	case existing != nil:
		out.ID = existing.ID
		out.CreatedAt = existing.CreatedAt
	case validID(out.ID):
		if out.CreatedAt.IsZero() {
			out.CreatedAt = now
		}
	default:
		out.ID = NewID()
		out.CreatedAt = now
	}
	out.UpdatedAt = now
	return out, nil
}

// clone copies def deeply enough that callers cannot mutate stored rules.
func clone(def *custom.Strategy) *custom.Strategy {
	out := *def
	out.BuyRules = cloneRules(def.BuyRules)
	out.SellRules = cloneRules(def.SellRules)
	if def.Parameters != nil {
		out.Parameters = append(out.Parameters[:0:0], def.Parameters...)
	}
	return &out
}

func cloneRules(rules []custom.Rule) []custom.Rule {
	if rules == nil {
		return nil
	}
	out := make([]custom.Rule, len(rules))
	for i, r := range rules {
		out[i] = r
		out[i].Conditions = make([]custom.Condition, len(r.Conditions))
		for j, c := range r.Conditions {
			c.Indicator1.Params = cloneParams(c.Indicator1.Params)
			c.Indicator2.Params = cloneParams(c.Indicator2.Params)
			out[i].Conditions[j] = c
		}
	}
	return out
}

func cloneParams(p map[string]float64) map[string]float64 {
	if p == nil {
		return nil
	}
	out := make(map[string]float64, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Import saves every definition into store and returns the stored versions.
// Existing definitions are kept; imported ones with a known id replace them.
func Import(ctx context.Context, store Store, defs []*custom.Strategy) ([]*custom.Strategy, error) {
	for i, def := range defs {
		if err := def.Validate(); err != nil {
			return nil, fmt.Errorf("strategy %d (%s): %w", i, def.Name, err)
		}
	}

	saved := make([]*custom.Strategy, 0, len(defs))
	for _, def := range defs {
		s, err := store.Save(ctx, def)
		if err != nil {
			return saved, err
		}
		saved = append(saved, s)
	}
	return saved, nil
}
