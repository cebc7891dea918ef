package indicator

import "math"

// SMA calculates Simple Moving Average.
// Returns a slice the same length as values; indices before window-1 are NaN.
func SMA(values []float64, window int) []float64 {
	result := nanSlice(len(values))
	if window <= 0 {
		return result
	}

	var sum float64
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}
		if i >= window-1 {
			result[i] = sum / float64(window)
		}
	}

	return result
}

// EMA calculates Exponential Moving Average.
// Index 0 is the raw value and indices 1..window-1 hold the running simple mean
// of the values seen so far; the exponential recurrence starts at index window.
func EMA(values []float64, window int) []float64 {
	result := nanSlice(len(values))
	if window <= 0 || len(values) == 0 {
		return result
	}

	multiplier := 2.0 / float64(window+1)

	var sum float64
	for i, v := range values {
		switch {
		case i == 0:
			sum = v
			result[i] = v
		case i < window:
			sum += v
			result[i] = sum / float64(i+1)
		default:
			prev := result[i-1]
			result[i] = prev + multiplier*(v-prev)
		}
	}

	return result
}

// IsDefined reports whether v is a usable indicator value
func IsDefined(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func nanSlice(n int) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = math.NaN()
	}
	return s
}
