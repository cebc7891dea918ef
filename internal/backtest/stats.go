package backtest

import (
	"math"
)

// CalculateStats computes performance statistics from the simulated trades.
// Trades are paired by position, 0 with 1, 2 with 3 and so on; a trailing
// open buy has no partner and is left out of the pair statistics.
// A pair with zero P&L counts as a loss. Best and worst trade start at 0.
func CalculateStats(sim *Simulation) Stats {
	if sim == nil {
		return Stats{}
	}

	stats := Stats{
		TotalTrades: len(sim.Trades),
		MaxDrawdown: round2(sim.MaxDrawdown),
		TotalFees:   round2(sim.TotalFees),
	}
	if sim.PeakValue > 0 {
		stats.MaxDrawdownPercentage = round2(sim.MaxDrawdown / sim.PeakValue * 100)
	}

	var totalPnL, best, worst float64
	var returns []float64
	for i := 0; i+1 < len(sim.Trades); i += 2 {
		buy, sell := sim.Trades[i], sim.Trades[i+1]
		pnl := sell.Value - buy.Value
		totalPnL += pnl

		if pnl > 0 {
			stats.WinningTrades++
		} else {
			stats.LosingTrades++
		}
		if pnl > best {
			best = pnl
		}
		if pnl < worst {
			worst = pnl
		}
		if buy.Value > 0 {
			returns = append(returns, pnl/buy.Value*100)
		}
	}

	pairs := stats.WinningTrades + stats.LosingTrades
	if pairs > 0 {
		stats.WinRate = round2(float64(stats.WinningTrades) / float64(pairs) * 100)
		stats.AvgTradeReturn = round2(totalPnL / float64(pairs))
	}
	stats.BestTrade = round2(best)
	stats.WorstTrade = round2(worst)
	stats.SharpeRatio = round2(calculateSharpeRatio(returns))

	return stats
}

// calculateSharpeRatio is the mean over the population standard deviation
// of per-trade percentage returns, without annualization or risk-free rate
func calculateSharpeRatio(returns []float64) float64 {
	if len(returns) < 2 {
		return 0
	}

	var sum float64
	for _, r := range returns {
		sum += r
	}
	mean := sum / float64(len(returns))

	var variance float64
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}
	stdDev := math.Sqrt(variance / float64(len(returns)))

	if stdDev == 0 {
		return 0
	}
	return mean / stdDev
}

func round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return math.Round(v*100) / 100
}
