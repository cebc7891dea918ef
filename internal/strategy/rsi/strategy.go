package rsi

import (
	"fmt"

	"github.com/newthinker/stratbench/internal/core"
	"github.com/newthinker/stratbench/internal/indicator"
	"github.com/newthinker/stratbench/internal/strategy"
)

// RSI enters long when the oscillator is oversold and exits when it is overbought
type RSI struct {
	period     int
	oversold   float64
	overbought float64
}

// New creates an RSI strategy with the dashboard defaults 14/30/70
func New() *RSI {
	return &RSI{
		period:     indicator.DefaultRSIPeriod,
		oversold:   30,
		overbought: 70,
	}
}

func (r *RSI) ID() string {
	return "rsi"
}

func (r *RSI) Config() strategy.Config {
	return strategy.Config{
		Name:        "RSI",
		Description: "Buy when RSI crosses below oversold level, sell when it crosses above overbought level",
		Parameters: []strategy.Parameter{
			strategy.NumberParam("rsi_period", "RSI Period", float64(r.period), 5, 30, 1,
				"Period for RSI calculation"),
			strategy.NumberParam("oversold", "Oversold Level", r.oversold, 10, 40, 1,
				"RSI level considered oversold (buy signal)"),
			strategy.NumberParam("overbought", "Overbought Level", r.overbought, 60, 90, 1,
				"RSI level considered overbought (sell signal)"),
		},
	}
}

func (r *RSI) GenerateSignals(candles []core.Candle, params strategy.Params) ([]core.SignalPoint, error) {
	period := params.Window("rsi_period", r.period)
	oversold := params.Float("oversold", r.oversold)
	overbought := params.Float("overbought", r.overbought)
	if oversold >= overbought {
		return nil, core.WrapError(core.ErrInvalidParams,
			fmt.Errorf("oversold (%.2f) must be below overbought (%.2f)", oversold, overbought))
	}

	values := indicator.RSI(core.Closes(candles), period)

	raw := make([]int, len(candles))
	for i := range candles {
		if i < period || !indicator.IsDefined(values[i]) {
			continue
		}
		held := i > 0 && raw[i-1] == core.SignalLong
		switch {
		case values[i] < overbought && held:
			raw[i] = core.SignalLong
		case values[i] >= overbought:
			raw[i] = core.SignalFlat
		case values[i] <= oversold:
			raw[i] = core.SignalLong
		}
	}

	return strategy.BuildSignals(candles, raw, func(i int) map[string]float64 {
		return map[string]float64{
			"rsi":        values[i],
			"oversold":   oversold,
			"overbought": overbought,
		}
	}), nil
}
