package core

import "time"

// Candle represents one OHLCV price bar
type Candle struct {
	Time   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// Exposure levels carried by SignalPoint.Signal
const (
	SignalFlat = 0
	SignalLong = 1
)

// Bar-to-bar changes carried by SignalPoint.Position
const (
	PositionSell = -1
	PositionHold = 0
	PositionBuy  = 1
)

// SignalPoint is a strategy's output for a single bar.
// Signal is the desired exposure, Position the change against the previous bar.
type SignalPoint struct {
	Date       time.Time          `json:"date"`
	Close      float64            `json:"close"`
	Signal     int                `json:"signal"`
	Position   int                `json:"position"`
	Indicators map[string]float64 `json:"indicators,omitempty"`
}

// IsBuy reports whether the point asks to open a long position
func (p SignalPoint) IsBuy() bool {
	return p.Position == PositionBuy
}

// IsSell reports whether the point asks to close the long position
func (p SignalPoint) IsSell() bool {
	return p.Position == PositionSell
}

// Closes extracts the closing price series from candles
func Closes(candles []Candle) []float64 {
	closes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
	}
	return closes
}
