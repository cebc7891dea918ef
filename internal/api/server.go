// internal/api/server.go
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	handler "github.com/newthinker/stratbench/internal/api/handler/api"
	"github.com/newthinker/stratbench/internal/api/job"
	"github.com/newthinker/stratbench/internal/api/middleware"
	"github.com/newthinker/stratbench/internal/api/response"
	"github.com/newthinker/stratbench/internal/backtest"
	"github.com/newthinker/stratbench/internal/metrics"
	"github.com/newthinker/stratbench/internal/storage/result"
	"github.com/newthinker/stratbench/internal/storage/strategies"
)

// Server represents the HTTP server for the backtesting API
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
	mux        *http.ServeMux
	backtests  *handler.BacktestHandler
}

// Config holds server configuration
type Config struct {
	Host        string
	Port        int
	APIKey      string
	MetricsPath string
	// WriteTimeout must outlast a synchronous backtest
	WriteTimeout time.Duration
}

// Dependencies are the collaborators the handlers need.
// Metrics may be nil to disable instrumentation.
type Dependencies struct {
	Backtester *backtest.Backtester
	Customs    strategies.Store
	History    result.Store
	Jobs       *job.Store
	Metrics    *metrics.Registry
	Defaults   handler.Defaults
	RunTimeout time.Duration
}

// NewServer creates a new HTTP server
func NewServer(cfg Config, deps Dependencies, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if deps.Backtester == nil {
		return nil, errors.New("backtester is required")
	}
	if deps.Jobs == nil {
		deps.Jobs = job.NewStore(100, 24*time.Hour)
	}
	if deps.History == nil {
		deps.History = result.NewMemoryStore(result.DefaultMaxSize)
	}
	if deps.Customs == nil {
		deps.Customs = strategies.NewMemoryStore()
	}
	writeTimeout := cfg.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = handler.DefaultTimeout + 30*time.Second
	}

	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: writeTimeout,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
		mux:    mux,
	}

	s.setupRoutes(cfg, deps)

	// Outermost first: logging sees the final status, auth runs last
	var h http.Handler = middleware.APIKeyAuth(cfg.APIKey, "/api/health", cfg.MetricsPath)(mux)
	if deps.Metrics != nil {
		h = metrics.HTTPMiddleware(deps.Metrics)(h)
	}
	h = metrics.LoggingMiddleware(logger)(h)
	s.httpServer.Handler = h

	return s, nil
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes(cfg Config, deps Dependencies) {
	s.backtests = handler.NewBacktestHandler(deps.Jobs, deps.Backtester, deps.History, deps.Defaults, s.logger).
		WithTimeout(deps.RunTimeout)
	customs := handler.NewCustomStrategyHandler(deps.Customs, s.logger)
	if deps.Metrics != nil {
		s.backtests.WithJobGauge(deps.Metrics)
		customs.WithCountGauge(deps.Metrics)
	}
	strats := handler.NewStrategiesHandler(deps.Backtester.Registry(), deps.Customs)

	s.mux.HandleFunc("GET /api/health", s.handleHealth)

	s.mux.HandleFunc("GET /api/v1/strategies", strats.List)

	s.mux.HandleFunc("POST /api/v1/backtest", s.backtests.Run)
	s.mux.HandleFunc("POST /api/v1/backtest/jobs", s.backtests.Create)
	s.mux.HandleFunc("GET /api/v1/backtest/jobs/{id}", s.backtests.GetStatus)
	s.mux.HandleFunc("GET /api/v1/backtests", s.backtests.History)
	s.mux.HandleFunc("GET /api/v1/backtests/{id}", s.backtests.GetResult)
	s.mux.HandleFunc("GET /api/v1/backtests/{id}/trades.csv", s.backtests.ExportTrades)

	s.mux.HandleFunc("GET /api/v1/custom-strategies", customs.List)
	s.mux.HandleFunc("POST /api/v1/custom-strategies", customs.Create)
	s.mux.HandleFunc("POST /api/v1/custom-strategies/import", customs.Import)
	s.mux.HandleFunc("GET /api/v1/custom-strategies/export", customs.Export)
	s.mux.HandleFunc("GET /api/v1/custom-strategies/{id}", customs.Get)
	s.mux.HandleFunc("PUT /api/v1/custom-strategies/{id}", customs.Update)
	s.mux.HandleFunc("DELETE /api/v1/custom-strategies/{id}", customs.Delete)

	if deps.Metrics != nil && cfg.MetricsPath != "" {
		s.mux.Handle("GET "+cfg.MetricsPath, promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{}))
	}
}

// Handler returns the fully wrapped root handler
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server and waits for running jobs
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	err := s.httpServer.Shutdown(ctx)

	done := make(chan struct{})
	go func() {
		s.backtests.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		s.logger.Warn("backtest jobs still running at shutdown")
	}
	return err
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
