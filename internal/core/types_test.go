package core

import (
	"testing"
	"time"
)

func TestCloses(t *testing.T) {
	now := time.Now()
	candles := []Candle{
		{Time: now, Close: 100},
		{Time: now.Add(time.Hour), Close: 101.5},
		{Time: now.Add(2 * time.Hour), Close: 99},
	}

	got := Closes(candles)
	want := []float64{100, 101.5, 99}

	if len(got) != len(want) {
		t.Fatalf("expected %d closes, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("closes[%d] = %f, want %f", i, got[i], want[i])
		}
	}
}

func TestCloses_Empty(t *testing.T) {
	if got := Closes(nil); len(got) != 0 {
		t.Errorf("expected empty slice, got %d values", len(got))
	}
}

func TestSignalPoint_BuySell(t *testing.T) {
	tests := []struct {
		name     string
		point    SignalPoint
		wantBuy  bool
		wantSell bool
	}{
		{"buy", SignalPoint{Signal: SignalLong, Position: PositionBuy}, true, false},
		{"sell", SignalPoint{Signal: SignalFlat, Position: PositionSell}, false, true},
		{"hold long", SignalPoint{Signal: SignalLong, Position: PositionHold}, false, false},
		{"hold flat", SignalPoint{}, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.point.IsBuy(); got != tt.wantBuy {
				t.Errorf("IsBuy() = %v, want %v", got, tt.wantBuy)
			}
			if got := tt.point.IsSell(); got != tt.wantSell {
				t.Errorf("IsSell() = %v, want %v", got, tt.wantSell)
			}
		})
	}
}
