package backtest

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/newthinker/stratbench/internal/core"
	"github.com/newthinker/stratbench/internal/strategy"
	"github.com/newthinker/stratbench/internal/strategy/custom"
)

// CandleSource defines the interface for fetching historical candles
type CandleSource interface {
	FetchCandles(ctx context.Context, instrument string, from, to time.Time, interval string) ([]core.Candle, error)
}

// CustomLookup resolves stored custom strategies by id
type CustomLookup interface {
	Get(ctx context.Context, id string) (*custom.Strategy, error)
}

// Recorder receives run level metrics
type Recorder interface {
	RecordBacktest(strategy, status string, duration time.Duration)
	RecordTrades(strategy string, trades int)
	RecordSkippedSignals(strategy string, skipped int)
}

// Request describes a single backtest run.
// Custom takes precedence over StrategyID when both are set.
type Request struct {
	Instrument string
	From       time.Time
	To         time.Time
	Interval   string
	StrategyID string
	Params     strategy.Params
	Custom     *custom.Strategy
	Simulation SimulationConfig
}

// Backtester runs strategy backtests against historical data
type Backtester struct {
	source   CandleSource
	registry *strategy.Registry
	customs  CustomLookup
	recorder Recorder
	logger   *zap.Logger
}

// New creates a new Backtester with the given candle source and strategy registry
func New(source CandleSource, registry *strategy.Registry, logger *zap.Logger) *Backtester {
	if logger == nil {
		logger = zap.NewNop()
	}
	if registry == nil {
		registry = strategy.NewRegistry(logger)
	}
	return &Backtester{
		source:   source,
		registry: registry,
		logger:   logger,
	}
}

// WithCustomStore lets the backtester resolve custom_ ids through store
func (b *Backtester) WithCustomStore(store CustomLookup) *Backtester {
	b.customs = store
	return b
}

// WithRecorder attaches a metrics recorder
func (b *Backtester) WithRecorder(rec Recorder) *Backtester {
	b.recorder = rec
	return b
}

// Registry returns the strategy registry used for id lookups
func (b *Backtester) Registry() *strategy.Registry {
	return b.registry
}

// Resolve finds the strategy a request refers to
func (b *Backtester) Resolve(ctx context.Context, req Request) (strategy.Strategy, error) {
	if req.Custom != nil {
		def := *req.Custom
		if def.ID == "" {
			def.ID = req.StrategyID
		}
		return custom.NewEvaluator(&def, b.logger)
	}

	if req.StrategyID == "" {
		return nil, core.WrapError(core.ErrStrategyNotFound, fmt.Errorf("no strategy id given"))
	}
	if s, ok := b.registry.Get(req.StrategyID); ok {
		return s, nil
	}

	if custom.IsCustomID(req.StrategyID) && b.customs != nil {
		def, err := b.customs.Get(ctx, req.StrategyID)
		if err != nil {
			return nil, core.WrapError(core.ErrStrategyNotFound, err)
		}
		return custom.NewEvaluator(def, b.logger)
	}

	return nil, core.WrapError(core.ErrStrategyNotFound, fmt.Errorf("unknown strategy %q", req.StrategyID))
}

// Run fetches candles, generates signals and simulates the portfolio
func (b *Backtester) Run(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	strategyID := req.StrategyID
	if req.Custom != nil && strategyID == "" {
		strategyID = "custom"
	}

	result, err := b.run(ctx, req)
	status := "success"
	if err != nil {
		status = "error"
	}
	if b.recorder != nil {
		b.recorder.RecordBacktest(strategyID, status, time.Since(start))
	}
	if err != nil {
		b.logger.Warn("backtest failed",
			zap.String("strategy", strategyID),
			zap.String("instrument", req.Instrument),
			zap.Error(err),
		)
		return nil, err
	}

	result.DurationMs = time.Since(start).Milliseconds()
	b.logger.Info("backtest complete",
		zap.String("id", result.ID),
		zap.String("strategy", result.Strategy),
		zap.String("instrument", result.Instrument),
		zap.Int("bars", result.Bars),
		zap.Int("trades", result.TotalTrades),
		zap.Float64("return_pct", result.ReturnPercentage),
		zap.Int64("duration_ms", result.DurationMs),
	)
	return result, nil
}

func (b *Backtester) run(ctx context.Context, req Request) (*Result, error) {
	strat, err := b.Resolve(ctx, req)
	if err != nil {
		return nil, err
	}
	if b.source == nil {
		return nil, core.WrapError(core.ErrCollectorFailed, fmt.Errorf("no candle source configured"))
	}

	b.logger.Info("backtest started",
		zap.String("strategy", strat.ID()),
		zap.String("instrument", req.Instrument),
		zap.Time("from", req.From),
		zap.Time("to", req.To),
		zap.String("interval", req.Interval),
	)

	candles, err := b.source.FetchCandles(ctx, req.Instrument, req.From, req.To, req.Interval)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, core.WrapError(core.ErrCollectorFailed, err)
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	result, err := Evaluate(strat, candles, req.Params, req.Simulation, b.logger)
	if err != nil {
		return nil, err
	}

	result.Instrument = req.Instrument
	result.Interval = req.Interval
	if !req.From.IsZero() {
		result.From = req.From
	}
	if !req.To.IsZero() {
		result.To = req.To
	}
	if b.recorder != nil {
		b.recorder.RecordTrades(result.Strategy, result.TotalTrades)
		b.recorder.RecordSkippedSignals(result.Strategy, result.SkippedSignals)
	}
	return result, nil
}

// Evaluate runs strat over already loaded candles and builds the result.
// An empty candle series fails with core.ErrNoData.
func Evaluate(strat strategy.Strategy, candles []core.Candle, params strategy.Params, cfg SimulationConfig, logger *zap.Logger) (*Result, error) {
	if len(candles) == 0 {
		return nil, core.ErrNoData
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	points, err := strat.GenerateSignals(candles, params)
	if err != nil {
		return nil, err
	}
	buys, sells := strategy.CountTransitions(points)
	logger.Debug("signals generated",
		zap.String("strategy", strat.ID()),
		zap.Int("points", len(points)),
		zap.Int("buys", buys),
		zap.Int("sells", sells),
	)

	sim := Simulate(points, cfg, logger)
	return NewResult(strat, candles, sim), nil
}

// NewResult assembles a Result from a finished simulation
func NewResult(strat strategy.Strategy, candles []core.Candle, sim *Simulation) *Result {
	initial := sim.Config.InitialCapital
	totalReturn := sim.FinalValue - initial

	r := &Result{
		ID:             uuid.NewString(),
		Strategy:       strat.ID(),
		StrategyName:   strat.Config().Name,
		Bars:           len(candles),
		InitialCapital: round2(initial),
		FinalValue:     round2(sim.FinalValue),
		TotalReturn:    round2(totalReturn),
		Stats:          CalculateStats(sim),
		SkippedSignals: sim.Skipped,
		Trades:         sim.Trades,
		EquityCurve:    sim.EquityCurve,
		CreatedAt:      time.Now().UTC(),
	}
	if initial > 0 {
		r.ReturnPercentage = round2(totalReturn / initial * 100)
	}
	if len(candles) > 0 {
		r.From = candles[0].Time
		r.To = candles[len(candles)-1].Time
	}
	return r
}
