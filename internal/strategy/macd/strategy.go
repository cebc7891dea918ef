package macd

import (
	"fmt"

	"github.com/newthinker/stratbench/internal/core"
	"github.com/newthinker/stratbench/internal/indicator"
	"github.com/newthinker/stratbench/internal/strategy"
)

// MACD holds long while the MACD line is above its signal line
type MACD struct {
	fastPeriod   int
	slowPeriod   int
	signalPeriod int
}

// New creates a MACD strategy with the classic 12/26/9 periods
func New() *MACD {
	return &MACD{
		fastPeriod:   12,
		slowPeriod:   26,
		signalPeriod: 9,
	}
}

func (m *MACD) ID() string {
	return "macd"
}

func (m *MACD) Config() strategy.Config {
	return strategy.Config{
		Name:        "MACD",
		Description: "Buy when MACD line crosses above signal line, sell when it crosses below",
		Parameters: []strategy.Parameter{
			strategy.NumberParam("fast_period", "Fast Period", float64(m.fastPeriod), 5, 20, 1, "Fast EMA period"),
			strategy.NumberParam("slow_period", "Slow Period", float64(m.slowPeriod), 20, 50, 1, "Slow EMA period"),
			strategy.NumberParam("signal_period", "Signal Period", float64(m.signalPeriod), 5, 20, 1, "Signal line EMA period"),
		},
	}
}

func (m *MACD) GenerateSignals(candles []core.Candle, params strategy.Params) ([]core.SignalPoint, error) {
	fast := params.Window("fast_period", m.fastPeriod)
	slow := params.Window("slow_period", m.slowPeriod)
	signalPeriod := params.Window("signal_period", m.signalPeriod)
	if fast >= slow {
		return nil, core.WrapError(core.ErrInvalidParams,
			fmt.Errorf("fast_period (%d) must be less than slow_period (%d)", fast, slow))
	}

	result := indicator.MACD(core.Closes(candles), fast, slow, signalPeriod)

	raw := make([]int, len(candles))
	for i := range candles {
		if i < slow || !indicator.IsDefined(result.MACD[i]) || !indicator.IsDefined(result.Signal[i]) {
			continue
		}
		if result.MACD[i] > result.Signal[i] {
			raw[i] = core.SignalLong
		}
	}

	return strategy.BuildSignals(candles, raw, func(i int) map[string]float64 {
		return map[string]float64{
			"macd":        result.MACD[i],
			"macd_signal": result.Signal[i],
			"histogram":   result.Histogram[i],
		}
	}), nil
}
