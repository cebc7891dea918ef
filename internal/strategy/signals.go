package strategy

import (
	"github.com/newthinker/stratbench/internal/core"
)

// Positions converts a 0/1 exposure series into bar-to-bar changes.
// The first position is always 0.
func Positions(signals []int) []int {
	positions := make([]int, len(signals))
	for i := 1; i < len(signals); i++ {
		positions[i] = signals[i] - signals[i-1]
	}
	return positions
}

// BuildSignals zips candles, raw exposure and per-bar indicators into signal points.
// indicators may be nil.
func BuildSignals(candles []core.Candle, raw []int, indicators func(i int) map[string]float64) []core.SignalPoint {
	positions := Positions(raw)
	points := make([]core.SignalPoint, len(candles))
	for i, c := range candles {
		points[i] = core.SignalPoint{
			Date:     c.Time,
			Close:    c.Close,
			Signal:   raw[i],
			Position: positions[i],
		}
		if indicators != nil {
			points[i].Indicators = indicators(i)
		}
	}
	return points
}

// CountTransitions returns the number of buy and sell positions in points
func CountTransitions(points []core.SignalPoint) (buys, sells int) {
	for _, p := range points {
		switch p.Position {
		case core.PositionBuy:
			buys++
		case core.PositionSell:
			sells++
		}
	}
	return buys, sells
}
