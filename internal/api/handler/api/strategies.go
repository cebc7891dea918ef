package api

import (
	"net/http"

	"github.com/newthinker/stratbench/internal/api/response"
	"github.com/newthinker/stratbench/internal/storage/strategies"
	"github.com/newthinker/stratbench/internal/strategy"
)

// Strategy kinds in listings.
const (
	KindBuiltin = "builtin"
	KindCustom  = "custom"
)

// StrategySummary describes one runnable strategy.
type StrategySummary struct {
	ID          string               `json:"id"`
	Kind        string               `json:"kind"`
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Parameters  []strategy.Parameter `json:"parameters"`
}

// StrategiesHandler lists built-in and stored custom strategies.
type StrategiesHandler struct {
	registry *strategy.Registry
	customs  strategies.Store
}

// NewStrategiesHandler creates a new strategies handler. customs may be nil.
func NewStrategiesHandler(registry *strategy.Registry, customs strategies.Store) *StrategiesHandler {
	return &StrategiesHandler{registry: registry, customs: customs}
}

// List returns built-in strategies in registration order followed by
// custom strategies in creation order.
func (h *StrategiesHandler) List(w http.ResponseWriter, r *http.Request) {
	out := []StrategySummary{}
	for _, e := range h.registry.List() {
		out = append(out, StrategySummary{
			ID:          e.ID,
			Kind:        KindBuiltin,
			Name:        e.Config.Name,
			Description: e.Config.Description,
			Parameters:  nonNil(e.Config.Parameters),
		})
	}

	if h.customs != nil {
		defs, err := h.customs.List(r.Context())
		if err != nil {
			response.Fail(w, err)
			return
		}
		for _, def := range defs {
			out = append(out, StrategySummary{
				ID:          def.ID,
				Kind:        KindCustom,
				Name:        def.Name,
				Description: def.Description,
				Parameters:  nonNil(def.Parameters),
			})
		}
	}

	response.List(w, out, len(out))
}

func nonNil(p []strategy.Parameter) []strategy.Parameter {
	if p == nil {
		return []strategy.Parameter{}
	}
	return p
}
