package indicator

import "testing"

func TestMACD_ConstantSeries(t *testing.T) {
	prices := make([]float64, 40)
	for i := range prices {
		prices[i] = 10
	}

	m := MACD(prices, 12, 26, 9)

	for i := range prices {
		if !almostEqual(m.MACD[i], 0, 1e-9) || !almostEqual(m.Signal[i], 0, 1e-9) || !almostEqual(m.Histogram[i], 0, 1e-9) {
			t.Errorf("expected zero MACD at %d, got %f/%f/%f", i, m.MACD[i], m.Signal[i], m.Histogram[i])
		}
	}
}

func TestMACD_Composition(t *testing.T) {
	prices := []float64{10, 11, 12, 14, 13, 15, 17, 16, 18, 20, 19, 21}

	m := MACD(prices, 3, 6, 2)
	fast := EMA(prices, 3)
	slow := EMA(prices, 6)
	signal := EMA(m.MACD, 2)

	for i := range prices {
		if !almostEqual(m.MACD[i], fast[i]-slow[i], 1e-9) {
			t.Errorf("macd[%d] = %f, want %f", i, m.MACD[i], fast[i]-slow[i])
		}
		if !almostEqual(m.Signal[i], signal[i], 1e-9) {
			t.Errorf("signal[%d] = %f, want %f", i, m.Signal[i], signal[i])
		}
		if !almostEqual(m.Histogram[i], m.MACD[i]-m.Signal[i], 1e-9) {
			t.Errorf("histogram[%d] mismatch", i)
		}
	}
}

func TestMACD_UptrendIsPositive(t *testing.T) {
	prices := make([]float64, 60)
	for i := range prices {
		prices[i] = 100 + float64(i)
	}

	m := MACD(prices, 12, 26, 9)
	if m.MACD[len(prices)-1] <= 0 {
		t.Errorf("expected positive MACD in an uptrend, got %f", m.MACD[len(prices)-1])
	}
}
