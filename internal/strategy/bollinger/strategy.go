package bollinger

import (
	"fmt"

	"github.com/newthinker/stratbench/internal/core"
	"github.com/newthinker/stratbench/internal/indicator"
	"github.com/newthinker/stratbench/internal/strategy"
)

// Bollinger buys a touch of the lower band and sells a touch of the upper band
type Bollinger struct {
	period int
	stdDev float64
}

// New creates a Bollinger Bands strategy with period 15 and 1.8 deviations
func New() *Bollinger {
	return &Bollinger{
		period: 15,
		stdDev: 1.8,
	}
}

func (b *Bollinger) ID() string {
	return "bollinger_bands"
}

func (b *Bollinger) Config() strategy.Config {
	return strategy.Config{
		Name:        "Bollinger Bands",
		Description: "Buy when price touches lower band, sell when it touches upper band",
		Parameters: []strategy.Parameter{
			strategy.NumberParam("period", "Period", float64(b.period), 10, 50, 1,
				"Period for moving average and standard deviation"),
			strategy.NumberParam("std_dev", "Standard Deviation", b.stdDev, 1, 3, 0.1,
				"Number of standard deviations for bands"),
		},
	}
}

func (b *Bollinger) GenerateSignals(candles []core.Candle, params strategy.Params) ([]core.SignalPoint, error) {
	period := params.Window("period", b.period)
	stdDev := params.Float("std_dev", b.stdDev)
	if stdDev < 0 {
		return nil, core.WrapError(core.ErrInvalidParams,
			fmt.Errorf("std_dev must not be negative, got %.2f", stdDev))
	}

	closes := core.Closes(candles)
	bands := indicator.Bollinger(closes, period, stdDev)

	raw := make([]int, len(candles))
	for i := range candles {
		if i < period-1 || !indicator.IsDefined(bands.Lower[i]) || !indicator.IsDefined(bands.Upper[i]) {
			continue
		}
		switch {
		case closes[i] <= bands.Lower[i]:
			raw[i] = core.SignalLong
		case closes[i] >= bands.Upper[i]:
			raw[i] = core.SignalFlat
		case i > 0:
			raw[i] = raw[i-1]
		}
	}

	return strategy.BuildSignals(candles, raw, func(i int) map[string]float64 {
		return map[string]float64{
			"upper_band":  bands.Upper[i],
			"middle_band": bands.Middle[i],
			"lower_band":  bands.Lower[i],
		}
	}), nil
}
