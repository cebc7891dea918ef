package indicator

// MACDResult holds the MACD line, its signal line and their difference
type MACDResult struct {
	MACD      []float64
	Signal    []float64
	Histogram []float64
}

// MACD calculates Moving Average Convergence Divergence.
// The signal line is an EMA of the MACD line itself.
func MACD(values []float64, fastPeriod, slowPeriod, signalPeriod int) MACDResult {
	fast := EMA(values, fastPeriod)
	slow := EMA(values, slowPeriod)

	line := make([]float64, len(values))
	for i := range values {
		line[i] = fast[i] - slow[i]
	}

	signal := EMA(line, signalPeriod)

	histogram := make([]float64, len(values))
	for i := range values {
		histogram[i] = line[i] - signal[i]
	}

	return MACDResult{
		MACD:      line,
		Signal:    signal,
		Histogram: histogram,
	}
}
