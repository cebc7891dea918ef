// Package app wires configuration into the backtesting engine, its stores and the HTTP server.
package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/newthinker/stratbench/internal/api"
	handler "github.com/newthinker/stratbench/internal/api/handler/api"
	"github.com/newthinker/stratbench/internal/api/job"
	"github.com/newthinker/stratbench/internal/backtest"
	"github.com/newthinker/stratbench/internal/collector"
	"github.com/newthinker/stratbench/internal/collector/binance"
	"github.com/newthinker/stratbench/internal/collector/csvfile"
	"github.com/newthinker/stratbench/internal/collector/kite"
	"github.com/newthinker/stratbench/internal/collector/yahoo"
	"github.com/newthinker/stratbench/internal/config"
	"github.com/newthinker/stratbench/internal/core"
	"github.com/newthinker/stratbench/internal/metrics"
	"github.com/newthinker/stratbench/internal/storage/archive"
	"github.com/newthinker/stratbench/internal/storage/result"
	"github.com/newthinker/stratbench/internal/storage/strategies"
	"github.com/newthinker/stratbench/internal/strategy"
	"github.com/newthinker/stratbench/internal/strategy/builtin"
)

// Option customises App construction
type Option func(*options)

type options struct {
	sources []collector.CandleSource
}

// WithSources registers extra candle sources; a source named like a built-in one replaces it.
func WithSources(sources ...collector.CandleSource) Option {
	return func(o *options) {
		o.sources = append(o.sources, sources...)
	}
}

// App is the main application orchestrator
type App struct {
	cfg        *config.Config
	logger     *zap.Logger
	sources    *collector.Registry
	source     collector.CandleSource
	registry   *strategy.Registry
	customs    strategies.Store
	history    result.Store
	metrics    *metrics.Registry
	backtester *backtest.Backtester

	closeOnce sync.Once
	closers   []func()
}

// New builds every component the configuration selects
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts ...Option) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg == nil {
		cfg = config.Defaults()
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	a := &App{
		cfg:      cfg,
		logger:   logger,
		sources:  collector.NewRegistry(),
		registry: builtin.NewRegistry(logger),
		history:  result.NewMemoryStore(cfg.History.MaxResults),
	}

	a.sources.Register(yahoo.New())
	a.sources.Register(kite.New())
	a.sources.Register(csvfile.New(""))
	a.sources.Register(binance.New())
	for _, s := range o.sources {
		a.sources.Register(s)
	}

	if err := a.initSource(); err != nil {
		return nil, err
	}

	customs, err := a.openCustomStore(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.customs = customs

	a.backtester = backtest.New(a.source, a.registry, logger).WithCustomStore(customs)
	if cfg.Metrics.Enabled {
		a.metrics = metrics.NewRegistry()
		a.backtester.WithRecorder(a.metrics)
		if defs, err := customs.List(ctx); err == nil {
			a.metrics.SetCustomStrategies(len(defs))
		}
	}

	logger.Info("application initialized",
		zap.String("collector", a.source.Name()),
		zap.String("custom_storage", cfg.Storage.Custom),
		zap.Int("strategies", len(a.registry.List())),
	)

	return a, nil
}

func (a *App) initSource() error {
	name := a.cfg.Collector.Provider
	src, ok := a.sources.Get(name)
	if !ok {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("unknown collector %q (available: %v)", name, a.sources.Names()))
	}

	err := src.Init(collector.Config{
		BaseURL:     a.cfg.Collector.BaseURL,
		APIKey:      a.cfg.Collector.Kite.APIKey,
		AccessToken: a.cfg.Collector.Kite.AccessToken,
		Dir:         a.cfg.Collector.CSV.Dir,
		Timeout:     a.cfg.Collector.Timeout,
	})
	if err != nil {
		return fmt.Errorf("initializing collector %s: %w", name, err)
	}
	a.source = src
	return nil
}

func (a *App) openCustomStore(ctx context.Context) (strategies.Store, error) {
	sc := a.cfg.Storage
	switch sc.Custom {
	case "", config.BackendMemory:
		return strategies.NewMemoryStore(), nil

	case config.BackendArchive:
		storage, err := openArchive(sc.Archive)
		if err != nil {
			return nil, core.WrapError(core.ErrStorageFailed, err)
		}
		return strategies.NewArchiveStore(storage), nil

	case config.BackendPostgres:
		pool, err := strategies.NewPool(ctx, sc.Postgres.DSN)
		if err != nil {
			return nil, core.WrapError(core.ErrStorageFailed, err)
		}
		store, err := strategies.NewPostgresStore(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, err
		}
		a.closers = append(a.closers, store.Close)
		return store, nil
	}

	return nil, core.WrapError(core.ErrConfigInvalid,
		fmt.Errorf("unknown custom strategy storage %q", sc.Custom))
}

func openArchive(ac config.ArchiveConfig) (archive.Storage, error) {
	switch ac.Type {
	case "", config.ArchiveLocalFS:
		fs, err := archive.NewLocalFS(ac.Path)
		if err != nil {
			return nil, err
		}
		return fs, nil
	case config.ArchiveS3:
		s3, err := archive.NewS3(archive.S3Config{
			Bucket:    ac.S3.Bucket,
			Endpoint:  ac.S3.Endpoint,
			Region:    ac.S3.Region,
			AccessKey: ac.S3.AccessKeyID,
			SecretKey: ac.S3.SecretAccessKey,
			Prefix:    ac.S3.Prefix,
		})
		if err != nil {
			return nil, err
		}
		return s3, nil
	}
	return nil, fmt.Errorf("unknown archive type %q", ac.Type)
}

// Backtester returns the configured engine
func (a *App) Backtester() *backtest.Backtester {
	return a.backtester
}

// Customs returns the custom strategy store
func (a *App) Customs() strategies.Store {
	return a.customs
}

// History returns the result history
func (a *App) History() result.Store {
	return a.history
}

// Metrics returns the Prometheus registry, nil when metrics are disabled
func (a *App) Metrics() *metrics.Registry {
	return a.metrics
}

// Source returns the selected candle source
func (a *App) Source() collector.CandleSource {
	return a.source
}

// Simulation returns the configured simulation defaults
func (a *App) Simulation() backtest.SimulationConfig {
	return backtest.SimulationConfig{
		InitialCapital:  a.cfg.Backtest.InitialCapital,
		PositionSizePct: a.cfg.Backtest.PositionSizePct,
		FeePct:          a.cfg.Backtest.FeePct,
	}
}

// Server builds the HTTP API over the app's components
func (a *App) Server() (*api.Server, error) {
	sc := a.cfg.Server
	ttl := time.Duration(sc.JobTTLHours) * time.Hour

	cfg := api.Config{
		Host:   sc.Host,
		Port:   sc.Port,
		APIKey: sc.APIKey,
	}
	if a.metrics != nil {
		cfg.MetricsPath = a.cfg.Metrics.Path
	}
	if a.cfg.Backtest.Timeout > 0 {
		cfg.WriteTimeout = a.cfg.Backtest.Timeout + 30*time.Second
	}

	return api.NewServer(cfg, api.Dependencies{
		Backtester: a.backtester,
		Customs:    a.customs,
		History:    a.history,
		Jobs:       job.NewStore(sc.MaxJobs, ttl),
		Metrics:    a.metrics,
		Defaults: handler.Defaults{
			Interval:   a.cfg.Backtest.DefaultInterval,
			Simulation: a.Simulation(),
		},
		RunTimeout: a.cfg.Backtest.Timeout,
	}, a.logger)
}

// Close releases storage connections
func (a *App) Close() {
	a.closeOnce.Do(func() {
		for i := len(a.closers) - 1; i >= 0; i-- {
			a.closers[i]()
		}
	})
}
