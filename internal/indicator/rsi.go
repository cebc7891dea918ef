package indicator

// DefaultRSIPeriod is the lookback used when no period is given
const DefaultRSIPeriod = 14

// RSI calculates the Relative Strength Index using Wilder smoothing.
// Indices before period are NaN. The first value averages the first period
// gains and losses; later values smooth the previous averages.
func RSI(values []float64, period int) []float64 {
	if period <= 0 {
		period = DefaultRSIPeriod
	}
	result := nanSlice(len(values))
	if len(values) <= period {
		return result
	}

	var avgGain, avgLoss float64
	for i := 1; i < len(values); i++ {
		change := values[i] - values[i-1]
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else if change < 0 {
			loss = -change
		}

		switch {
		case i < period:
			avgGain += gain
			avgLoss += loss
			continue
		case i == period:
			avgGain = (avgGain + gain) / float64(period)
			avgLoss = (avgLoss + loss) / float64(period)
		default:
			avgGain = (avgGain*float64(period-1) + gain) / float64(period)
			avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
		}

		result[i] = rsiValue(avgGain, avgLoss)
	}

	return result
}

// rsiValue maps average gain/loss to the 0-100 scale.
// A zero loss caps relative strength at 100; no movement at all yields 50.
func rsiValue(avgGain, avgLoss float64) float64 {
	if avgGain == 0 && avgLoss == 0 {
		return 50
	}
	rs := 100.0
	if avgLoss != 0 {
		rs = avgGain / avgLoss
	}
	return 100 - 100/(1+rs)
}
