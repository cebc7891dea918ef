package sma_crossover

import (
	"fmt"

	"github.com/newthinker/stratbench/internal/core"
	"github.com/newthinker/stratbench/internal/indicator"
	"github.com/newthinker/stratbench/internal/strategy"
)

const (
	defaultShortWindow = 20
	defaultLongWindow  = 50
)

// SMACrossover holds long while the short SMA is above the long SMA
type SMACrossover struct {
	shortWindow int
	longWindow  int
}

// New creates a new SMA Crossover strategy with default windows.
// Non-positive windows fall back to 20/50.
func New(shortWindow, longWindow int) *SMACrossover {
	if shortWindow <= 0 {
		shortWindow = defaultShortWindow
	}
	if longWindow <= 0 {
		longWindow = defaultLongWindow
	}
	return &SMACrossover{
		shortWindow: shortWindow,
		longWindow:  longWindow,
	}
}

func (s *SMACrossover) ID() string {
	return "sma_crossover"
}

func (s *SMACrossover) Config() strategy.Config {
	return strategy.Config{
		Name:        "SMA Crossover",
		Description: "Buy when short-term SMA crosses above long-term SMA, sell when it crosses below",
		Parameters: []strategy.Parameter{
			strategy.NumberParam("short_window", "Short Window", float64(s.shortWindow), 5, 100, 1,
				"Period for short-term moving average"),
			strategy.NumberParam("long_window", "Long Window", float64(s.longWindow), 20, 200, 1,
				"Period for long-term moving average"),
		},
	}
}

func (s *SMACrossover) GenerateSignals(candles []core.Candle, params strategy.Params) ([]core.SignalPoint, error) {
	shortWindow := params.Window("short_window", s.shortWindow)
	longWindow := params.Window("long_window", s.longWindow)
	if shortWindow >= longWindow {
		return nil, core.WrapError(core.ErrInvalidParams,
			fmt.Errorf("short_window (%d) must be less than long_window (%d)", shortWindow, longWindow))
	}

	closes := core.Closes(candles)
	shortSMA := indicator.SMA(closes, shortWindow)
	longSMA := indicator.SMA(closes, longWindow)

	raw := make([]int, len(candles))
	for i := range candles {
		if i < longWindow-1 || !indicator.IsDefined(shortSMA[i]) || !indicator.IsDefined(longSMA[i]) {
			continue
		}
		if shortSMA[i] > longSMA[i] {
			raw[i] = core.SignalLong
		}
	}

	return strategy.BuildSignals(candles, raw, func(i int) map[string]float64 {
		return map[string]float64{
			"short_sma": shortSMA[i],
			"long_sma":  longSMA[i],
		}
	}), nil
}
