package backtest

import (
	"math"

	"go.uber.org/zap"

	"github.com/newthinker/stratbench/internal/core"
)

// Simulation defaults, as offered by the dashboard
const (
	DefaultInitialCapital  = 100000.0
	DefaultPositionSizePct = 95.0
	DefaultFeePct          = 0.03
)

// SimulationConfig controls capital, sizing and fees of a simulation
type SimulationConfig struct {
	InitialCapital  float64 `json:"initial_capital" yaml:"initial_capital"`
	PositionSizePct float64 `json:"position_size_percentage" yaml:"position_size_percentage"`
	FeePct          float64 `json:"fee_percentage" yaml:"fee_percentage"`
}

// DefaultSimulationConfig returns 100000 capital, 95% sizing and a 0.03% fee
func DefaultSimulationConfig() SimulationConfig {
	return SimulationConfig{
		InitialCapital:  DefaultInitialCapital,
		PositionSizePct: DefaultPositionSizePct,
		FeePct:          DefaultFeePct,
	}
}

// normalized replaces unusable values. A zero fee is kept.
func (c SimulationConfig) normalized() SimulationConfig {
	if c.InitialCapital <= 0 {
		c.InitialCapital = DefaultInitialCapital
	}
	if c.PositionSizePct <= 0 {
		c.PositionSizePct = DefaultPositionSizePct
	}
	if c.PositionSizePct > 100 {
		c.PositionSizePct = 100
	}
	if c.FeePct < 0 {
		c.FeePct = 0
	}
	return c
}

// Simulation is the state of a portfolio after replaying a signal stream
type Simulation struct {
	Config      SimulationConfig
	Trades      []Trade
	EquityCurve []EquityPoint
	Cash        float64
	Holdings    int
	FinalValue  float64
	PeakValue   float64
	MaxDrawdown float64
	TotalFees   float64
	Skipped     int
}

// Simulate replays points against a single long-only position.
// A buy needs a flat book and enough cash for the whole fill plus fee;
// a sell liquidates the entire holding. Signals that cannot execute are skipped.
func Simulate(points []core.SignalPoint, cfg SimulationConfig, logger *zap.Logger) *Simulation {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg = cfg.normalized()

	sim := &Simulation{
		Config:      cfg,
		Cash:        cfg.InitialCapital,
		PeakValue:   cfg.InitialCapital,
		FinalValue:  cfg.InitialCapital,
		Trades:      make([]Trade, 0),
		EquityCurve: make([]EquityPoint, 0, len(points)),
	}

	for _, p := range points {
		switch {
		case p.IsBuy() && sim.Holdings == 0:
			sim.buy(p, logger)
		case p.IsBuy():
			sim.Skipped++
			logger.Debug("buy signal ignored, position already open",
				zap.Time("date", p.Date), zap.Int("holdings", sim.Holdings))
		case p.IsSell() && sim.Holdings > 0:
			sim.sell(p, logger)
		case p.IsSell():
			sim.Skipped++
			logger.Debug("sell signal ignored, no holdings", zap.Time("date", p.Date))
		}

		value := sim.Cash + float64(sim.Holdings)*p.Close
		sim.PeakValue = math.Max(sim.PeakValue, value)
		drawdown := sim.PeakValue - value
		sim.MaxDrawdown = math.Max(sim.MaxDrawdown, drawdown)
		sim.EquityCurve = append(sim.EquityCurve, EquityPoint{
			Date:     p.Date,
			Value:    value,
			Cash:     sim.Cash,
			Holdings: sim.Holdings,
			Drawdown: drawdown,
		})
	}

	if len(points) > 0 {
		sim.FinalValue = sim.Cash + float64(sim.Holdings)*points[len(points)-1].Close
	}
	return sim
}

func (sim *Simulation) buy(p core.SignalPoint, logger *zap.Logger) {
	if p.Close <= 0 {
		sim.Skipped++
		logger.Debug("buy skipped, non-positive price", zap.Time("date", p.Date), zap.Float64("price", p.Close))
		return
	}

	investable := sim.Cash * sim.Config.PositionSizePct / 100
	quantity := int(math.Floor(investable / p.Close))
	value := float64(quantity) * p.Close
	fee := value * sim.Config.FeePct / 100
	if quantity <= 0 || value+fee > sim.Cash {
		sim.Skipped++
		logger.Debug("buy skipped, insufficient cash",
			zap.Time("date", p.Date),
			zap.Float64("price", p.Close),
			zap.Int("quantity", quantity),
			zap.Float64("required", value+fee),
			zap.Float64("available", sim.Cash),
		)
		return
	}

	sim.Cash -= value + fee
	sim.Holdings += quantity
	sim.TotalFees += fee
	sim.record(p, ActionBuy, quantity, value, fee)
	logger.Debug("buy executed",
		zap.Time("date", p.Date),
		zap.Float64("price", p.Close),
		zap.Int("quantity", quantity),
		zap.Float64("fee", fee),
		zap.Float64("cash", sim.Cash),
	)
}

func (sim *Simulation) sell(p core.SignalPoint, logger *zap.Logger) {
	quantity := sim.Holdings
	value := float64(quantity) * p.Close
	fee := value * sim.Config.FeePct / 100

	sim.Cash += value - fee
	sim.Holdings = 0
	sim.TotalFees += fee
	sim.record(p, ActionSell, quantity, value, fee)
	logger.Debug("sell executed",
		zap.Time("date", p.Date),
		zap.Float64("price", p.Close),
		zap.Int("quantity", quantity),
		zap.Float64("fee", fee),
		zap.Float64("cash", sim.Cash),
	)
}

func (sim *Simulation) record(p core.SignalPoint, action Action, quantity int, value, fee float64) {
	sim.Trades = append(sim.Trades, Trade{
		Date:           p.Date,
		Action:         action,
		Price:          p.Close,
		Quantity:       quantity,
		Value:          value,
		Fee:            fee,
		CashAfter:      sim.Cash,
		HoldingsAfter:  sim.Holdings,
		PortfolioValue: sim.Cash + float64(sim.Holdings)*p.Close,
		Indicators:     p.Indicators,
	})
}
