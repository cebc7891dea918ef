package backtest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func pair(buyValue, sellValue float64) []Trade {
	return []Trade{
		{Action: ActionBuy, Value: buyValue},
		{Action: ActionSell, Value: sellValue},
	}
}

func simOf(trades ...[]Trade) *Simulation {
	sim := &Simulation{}
	for _, t := range trades {
		sim.Trades = append(sim.Trades, t...)
	}
	return sim
}

func TestCalculateStats_Empty(t *testing.T) {
	stats := CalculateStats(&Simulation{})
	assert.Equal(t, Stats{}, stats)
	assert.Equal(t, Stats{}, CalculateStats(nil))
}

func TestCalculateStats_WinRate(t *testing.T) {
	stats := CalculateStats(simOf(
		pair(1000, 1100),
		pair(1000, 1050),
		pair(1000, 970),
		pair(1000, 1000),
	))

	assert.Equal(t, 8, stats.TotalTrades)
	assert.Equal(t, 2, stats.WinningTrades)
	assert.Equal(t, 2, stats.LosingTrades, "zero P&L counts as a loss")
	assert.Equal(t, 50.0, stats.WinRate)
	assert.Equal(t, 30.0, stats.AvgTradeReturn)
	assert.Equal(t, 100.0, stats.BestTrade)
	assert.Equal(t, -30.0, stats.WorstTrade)
}

func TestCalculateStats_OnlyLosses(t *testing.T) {
	stats := CalculateStats(simOf(pair(1000, 900), pair(1000, 950)))

	assert.Equal(t, 0.0, stats.BestTrade)
	assert.Equal(t, -100.0, stats.WorstTrade)
	assert.Equal(t, 0.0, stats.WinRate)
}

func TestCalculateStats_OpenTradeIgnored(t *testing.T) {
	sim := simOf(pair(1000, 1200), []Trade{{Action: ActionBuy, Value: 500}})
	stats := CalculateStats(sim)

	assert.Equal(t, 3, stats.TotalTrades)
	assert.Equal(t, 1, stats.WinningTrades+stats.LosingTrades)
}

func TestCalculateStats_Sharpe(t *testing.T) {
	assert.Equal(t, 0.0, CalculateStats(simOf(pair(1000, 1500))).SharpeRatio, "single pair")
	assert.Equal(t, 0.0, CalculateStats(simOf(pair(1000, 1100), pair(2000, 2200))).SharpeRatio, "zero deviation")

	// returns 10% and 30%: mean 20, population stddev 10
	assert.Equal(t, 2.0, CalculateStats(simOf(pair(1000, 1100), pair(1000, 1300))).SharpeRatio)
}

func TestCalculateStats_Drawdown(t *testing.T) {
	stats := CalculateStats(&Simulation{PeakValue: 1200, MaxDrawdown: 300, TotalFees: 1.234})

	assert.Equal(t, 300.0, stats.MaxDrawdown)
	assert.Equal(t, 25.0, stats.MaxDrawdownPercentage)
	assert.Equal(t, 1.23, stats.TotalFees)

	assert.Equal(t, 0.0, CalculateStats(&Simulation{MaxDrawdown: 10}).MaxDrawdownPercentage)
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 1.24, round2(1.236))
	assert.Equal(t, -2.5, round2(-2.499))
	assert.Equal(t, 0.0, round2(0))
}
