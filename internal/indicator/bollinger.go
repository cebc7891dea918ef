package indicator

import "math"

// Bands holds Bollinger Band series, each the same length as the input
type Bands struct {
	Upper  []float64
	Middle []float64
	Lower  []float64
}

// Bollinger calculates Bollinger Bands around an SMA of period values.
// The width uses the population standard deviation of the trailing window.
func Bollinger(values []float64, period int, stdDevMultiplier float64) Bands {
	bands := Bands{
		Upper:  nanSlice(len(values)),
		Middle: SMA(values, period),
		Lower:  nanSlice(len(values)),
	}
	if period <= 0 {
		return bands
	}

	for i := period - 1; i < len(values); i++ {
		mean := bands.Middle[i]
		var variance float64
		for _, v := range values[i-period+1 : i+1] {
			variance += (v - mean) * (v - mean)
		}
		sd := math.Sqrt(variance / float64(period))

		bands.Upper[i] = mean + stdDevMultiplier*sd
		bands.Lower[i] = mean - stdDevMultiplier*sd
	}

	return bands
}
