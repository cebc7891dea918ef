package api

import (
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"

	"github.com/newthinker/stratbench/internal/api/response"
	"github.com/newthinker/stratbench/internal/core"
	"github.com/newthinker/stratbench/internal/storage/strategies"
	"github.com/newthinker/stratbench/internal/strategy/custom"
)

const maxImportBytes = 4 << 20

// CountGauge receives the number of stored custom strategies.
type CountGauge interface {
	SetCustomStrategies(count int)
}

// CustomStrategyHandler serves CRUD, import and export of custom strategies.
type CustomStrategyHandler struct {
	store  strategies.Store
	gauge  CountGauge
	logger *zap.Logger
}

// NewCustomStrategyHandler creates a new custom strategy handler.
func NewCustomStrategyHandler(store strategies.Store, logger *zap.Logger) *CustomStrategyHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CustomStrategyHandler{store: store, logger: logger}
}

// WithCountGauge reports the stored strategy count to g after every change.
func (h *CustomStrategyHandler) WithCountGauge(g CountGauge) *CustomStrategyHandler {
	h.gauge = g
	return h
}

// List returns every stored definition.
func (h *CustomStrategyHandler) List(w http.ResponseWriter, r *http.Request) {
	defs, err := h.store.List(r.Context())
	if err != nil {
		response.Fail(w, err)
		return
	}
	response.List(w, defs, len(defs))
}

// Get returns one definition.
func (h *CustomStrategyHandler) Get(w http.ResponseWriter, r *http.Request) {
	def, err := h.store.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		response.Fail(w, err)
		return
	}
	response.JSON(w, http.StatusOK, def)
}

// Create stores a new definition. Any id in the body is ignored.
func (h *CustomStrategyHandler) Create(w http.ResponseWriter, r *http.Request) {
	var def custom.Strategy
	if err := sonic.ConfigDefault.NewDecoder(r.Body).Decode(&def); err != nil {
		response.Fail(w, core.WrapError(core.ErrInvalidStrategy, err))
		return
	}
	def.ID = ""
	def.CreatedAt = time.Time{}

	saved, err := h.store.Save(r.Context(), &def)
	if err != nil {
		response.Fail(w, err)
		return
	}
	h.logger.Info("custom strategy created", zap.String("id", saved.ID), zap.String("name", saved.Name))
	h.reportCount(r)
	response.JSON(w, http.StatusCreated, saved)
}

// Update replaces an existing definition, keeping its id and creation time.
func (h *CustomStrategyHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := h.store.Get(r.Context(), id); err != nil {
		response.Fail(w, err)
		return
	}

	var def custom.Strategy
	if err := sonic.ConfigDefault.NewDecoder(r.Body).Decode(&def); err != nil {
		response.Fail(w, core.WrapError(core.ErrInvalidStrategy, err))
		return
	}
	def.ID = id

	saved, err := h.store.Save(r.Context(), &def)
	if err != nil {
		response.Fail(w, err)
		return
	}
	h.logger.Info("custom strategy updated", zap.String("id", saved.ID))
	response.JSON(w, http.StatusOK, saved)
}

// Delete removes a definition.
func (h *CustomStrategyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.store.Delete(r.Context(), id); err != nil {
		response.Fail(w, err)
		return
	}
	h.logger.Info("custom strategy deleted", zap.String("id", id))
	h.reportCount(r)
	response.JSON(w, http.StatusOK, map[string]any{
		"id":      id,
		"deleted": true,
	})
}

// Import saves every definition in the body, JSON by default or YAML when
// the format query parameter or content type says so.
func (h *CustomStrategyHandler) Import(w http.ResponseWriter, r *http.Request) {
	format, err := requestFormat(r)
	if err != nil {
		response.Fail(w, err)
		return
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, maxImportBytes))
	if err != nil {
		response.Fail(w, core.WrapError(core.ErrInvalidParams, err))
		return
	}
	defs, err := strategies.Decode(data, format)
	if err != nil {
		response.Fail(w, err)
		return
	}

	saved, err := strategies.Import(r.Context(), h.store, defs)
	if err != nil {
		response.Fail(w, err)
		return
	}
	h.logger.Info("custom strategies imported", zap.Int("count", len(saved)))
	h.reportCount(r)
	response.List(w, saved, len(saved))
}

// Export writes every stored definition as a downloadable file.
func (h *CustomStrategyHandler) Export(w http.ResponseWriter, r *http.Request) {
	format, err := requestFormat(r)
	if err != nil {
		response.Fail(w, err)
		return
	}

	defs, err := h.store.List(r.Context())
	if err != nil {
		response.Fail(w, err)
		return
	}
	data, err := strategies.Encode(defs, format)
	if err != nil {
		response.Fail(w, err)
		return
	}

	contentType := "application/json"
	if format == strategies.FormatYAML {
		contentType = "application/yaml"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="strategies_`+
		time.Now().UTC().Format("20060102T150405")+"."+string(format)+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func requestFormat(r *http.Request) (strategies.Format, error) {
	if f := r.URL.Query().Get("format"); f != "" {
		return strategies.ParseFormat(f)
	}
	if strings.Contains(r.Header.Get("Content-Type"), "yaml") {
		return strategies.FormatYAML, nil
	}
	return strategies.FormatJSON, nil
}

func (h *CustomStrategyHandler) reportCount(r *http.Request) {
	if h.gauge == nil {
		return
	}
	if defs, err := h.store.List(r.Context()); err == nil {
		h.gauge.SetCustomStrategies(len(defs))
	}
}
