package backtest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newthinker/stratbench/internal/core"
)

var day0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// points builds a signal stream from closes and their desired exposure
func points(closes []float64, signals []int) []core.SignalPoint {
	out := make([]core.SignalPoint, len(closes))
	for i := range closes {
		out[i] = core.SignalPoint{Date: day0.AddDate(0, 0, i), Close: closes[i], Signal: signals[i]}
		if i > 0 {
			out[i].Position = signals[i] - signals[i-1]
		}
	}
	return out
}

func TestSimulate_BuyThenSell(t *testing.T) {
	cfg := SimulationConfig{InitialCapital: 100000, PositionSizePct: 100, FeePct: 0}
	sim := Simulate(points([]float64{100, 100, 110}, []int{0, 1, 0}), cfg, nil)

	require.Len(t, sim.Trades, 2)
	buy, sell := sim.Trades[0], sim.Trades[1]

	assert.Equal(t, ActionBuy, buy.Action)
	assert.Equal(t, 1000, buy.Quantity)
	assert.Equal(t, 100000.0, buy.Value)
	assert.Equal(t, 0.0, buy.CashAfter)
	assert.Equal(t, 1000, buy.HoldingsAfter)

	assert.Equal(t, ActionSell, sell.Action)
	assert.Equal(t, 1000, sell.Quantity)
	assert.Equal(t, 110000.0, sell.CashAfter)
	assert.Equal(t, 0, sell.HoldingsAfter)

	assert.Equal(t, 110000.0, sim.FinalValue)
	assert.Equal(t, 0.0, sim.TotalFees)
	assert.Len(t, sim.EquityCurve, 3)
}

func TestSimulate_FeesAndSizing(t *testing.T) {
	cfg := SimulationConfig{InitialCapital: 10000, PositionSizePct: 50, FeePct: 1}
	sim := Simulate(points([]float64{10, 10, 20}, []int{0, 1, 0}), cfg, nil)

	require.Len(t, sim.Trades, 2)
	// 5000 investable buys 500 shares, 1% fee on 5000
	assert.Equal(t, 500, sim.Trades[0].Quantity)
	assert.InDelta(t, 50, sim.Trades[0].Fee, 1e-9)
	assert.InDelta(t, 4950, sim.Trades[0].CashAfter, 1e-9)
	// 10000 proceeds less 100 fee
	assert.InDelta(t, 100, sim.Trades[1].Fee, 1e-9)
	assert.InDelta(t, 14850, sim.Cash, 1e-9)
	assert.InDelta(t, 150, sim.TotalFees, 1e-9)
}

func TestSimulate_SkipsWhenFeeExceedsCash(t *testing.T) {
	// all-in sizing leaves nothing for the fee
	cfg := SimulationConfig{InitialCapital: 1000, PositionSizePct: 100, FeePct: 1}
	sim := Simulate(points([]float64{100, 100}, []int{0, 1}), cfg, nil)

	assert.Empty(t, sim.Trades)
	assert.Equal(t, 1, sim.Skipped)
	assert.Equal(t, 1000.0, sim.FinalValue)
}

func TestSimulate_SkipsWhenPriceTooHigh(t *testing.T) {
	cfg := SimulationConfig{InitialCapital: 50, PositionSizePct: 95, FeePct: 0}
	sim := Simulate(points([]float64{100, 100}, []int{0, 1}), cfg, nil)

	assert.Empty(t, sim.Trades)
	assert.Equal(t, 50.0, sim.Cash)
}

func TestSimulate_NoOps(t *testing.T) {
	// a sell while flat and a second buy while long are ignored
	stream := []core.SignalPoint{
		{Date: day0, Close: 10},
		{Date: day0.AddDate(0, 0, 1), Close: 10, Position: core.PositionSell},
		{Date: day0.AddDate(0, 0, 2), Close: 10, Signal: 1, Position: core.PositionBuy},
		{Date: day0.AddDate(0, 0, 3), Close: 12, Signal: 1, Position: core.PositionBuy},
	}
	sim := Simulate(stream, SimulationConfig{InitialCapital: 1000, PositionSizePct: 50}, nil)

	require.Len(t, sim.Trades, 1)
	assert.Equal(t, 2, sim.Skipped)
	assert.Equal(t, 50, sim.Holdings)
	assert.InDelta(t, 500+50*12, sim.FinalValue, 1e-9)
}

func TestSimulate_NeverNegative(t *testing.T) {
	closes := []float64{10, 12, 9, 15, 7, 13, 30, 4, 22, 18, 19, 5}
	signals := []int{0, 1, 0, 1, 0, 1, 0, 1, 1, 0, 1, 0}
	for _, fee := range []float64{0, 0.03, 2.5} {
		sim := Simulate(points(closes, signals), SimulationConfig{InitialCapital: 1000, PositionSizePct: 100, FeePct: fee}, nil)
		for _, tr := range sim.Trades {
			assert.GreaterOrEqual(t, tr.CashAfter, 0.0, "fee %v", fee)
			assert.GreaterOrEqual(t, tr.HoldingsAfter, 0, "fee %v", fee)
			assert.GreaterOrEqual(t, tr.Quantity, 1)
		}
		for i := 1; i < len(sim.Trades); i++ {
			assert.False(t, sim.Trades[i].Date.Before(sim.Trades[i-1].Date))
		}
	}
}

func TestSimulate_Drawdown(t *testing.T) {
	cfg := SimulationConfig{InitialCapital: 1000, PositionSizePct: 100, FeePct: 0}
	// 100 shares at 10, marked at 12 (peak 1200), then 9 (900)
	sim := Simulate(points([]float64{10, 10, 12, 9, 11}, []int{0, 1, 1, 1, 1}), cfg, nil)

	assert.Equal(t, 1200.0, sim.PeakValue)
	assert.Equal(t, 300.0, sim.MaxDrawdown)
	assert.Equal(t, 1100.0, sim.FinalValue)
	assert.Equal(t, 300.0, sim.EquityCurve[3].Drawdown)
}

func TestSimulate_Defaults(t *testing.T) {
	sim := Simulate(nil, SimulationConfig{}, nil)
	assert.Equal(t, DefaultInitialCapital, sim.FinalValue)
	assert.Equal(t, DefaultPositionSizePct, sim.Config.PositionSizePct)
	assert.Equal(t, 0.0, sim.Config.FeePct)

	assert.Equal(t, SimulationConfig{InitialCapital: 100000, PositionSizePct: 95, FeePct: 0.03}, DefaultSimulationConfig())
}
