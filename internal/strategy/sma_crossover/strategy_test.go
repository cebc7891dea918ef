package sma_crossover

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/newthinker/stratbench/internal/core"
	"github.com/newthinker/stratbench/internal/strategy"
)

func TestSMACrossover_ImplementsStrategy(t *testing.T) {
	var _ strategy.Strategy = (*SMACrossover)(nil)
}

func TestSMACrossover_ID(t *testing.T) {
	s := New(5, 10)
	if s.ID() != "sma_crossover" {
		t.Errorf("expected 'sma_crossover', got '%s'", s.ID())
	}
}

func TestSMACrossover_Config(t *testing.T) {
	cfg := New(20, 50).Config()
	if cfg.Name != "SMA Crossover" {
		t.Errorf("unexpected name %q", cfg.Name)
	}
	if len(cfg.Parameters) != 2 {
		t.Fatalf("expected 2 parameters, got %d", len(cfg.Parameters))
	}
	if cfg.Parameters[0].Name != "short_window" || cfg.Parameters[0].Default != 20.0 {
		t.Errorf("unexpected short_window descriptor: %+v", cfg.Parameters[0])
	}
	if cfg.Parameters[1].Name != "long_window" || cfg.Parameters[1].Default != 50.0 {
		t.Errorf("unexpected long_window descriptor: %+v", cfg.Parameters[1])
	}
}

func sineCandles(n int) []core.Candle {
	base := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	candles := make([]core.Candle, n)
	for i := range candles {
		candles[i] = core.Candle{
			Time:   base.AddDate(0, 0, i),
			Open:   100,
			High:   110,
			Low:    90,
			Close:  100 + 10*math.Sin(0.1*float64(i)),
			Volume: 1000,
		}
	}
	return candles
}

func TestSMACrossover_SineWave(t *testing.T) {
	s := New(20, 50)

	signals, err := s.GenerateSignals(sineCandles(100), strategy.Params{
		"short_window": 5,
		"long_window":  20,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(signals) != 100 {
		t.Fatalf("expected 100 signals, got %d", len(signals))
	}

	buys, sells := strategy.CountTransitions(signals)
	if buys == 0 || sells == 0 {
		t.Errorf("expected at least one buy and one sell, got %d buys, %d sells", buys, sells)
	}
}

func TestSMACrossover_PositionIsSignalDiff(t *testing.T) {
	signals, err := New(5, 20).GenerateSignals(sineCandles(150), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if signals[0].Position != 0 {
		t.Errorf("position[0] = %d, want 0", signals[0].Position)
	}
	for i := 1; i < len(signals); i++ {
		if signals[i].Position != signals[i].Signal-signals[i-1].Signal {
			t.Fatalf("position[%d] = %d, want %d", i, signals[i].Position, signals[i].Signal-signals[i-1].Signal)
		}
	}
}

func TestSMACrossover_WarmUp(t *testing.T) {
	// Rising prices give short > long as soon as both are defined
	candles := make([]core.Candle, 30)
	for i := range candles {
		candles[i] = core.Candle{Close: float64(100 + i)}
	}

	signals, err := New(3, 10).GenerateSignals(candles, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i := 0; i < 9; i++ {
		if signals[i].Signal != 0 {
			t.Errorf("signal[%d] = %d during warm-up", i, signals[i].Signal)
		}
	}
	if signals[9].Signal != 1 || signals[9].Position != 1 {
		t.Errorf("expected entry at bar 9, got signal=%d position=%d", signals[9].Signal, signals[9].Position)
	}
	if _, ok := signals[9].Indicators["short_sma"]; !ok {
		t.Error("expected short_sma indicator")
	}
}

func TestSMACrossover_DecliningNeverBuys(t *testing.T) {
	candles := make([]core.Candle, 60)
	for i := range candles {
		candles[i] = core.Candle{Close: float64(200 - i)}
	}

	signals, err := New(5, 20).GenerateSignals(candles, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, p := range signals {
		if p.Signal != 0 || p.Position != 0 {
			t.Fatalf("unexpected exposure at %d: %+v", i, p)
		}
	}
}

func TestSMACrossover_InvalidWindows(t *testing.T) {
	_, err := New(20, 50).GenerateSignals(sineCandles(10), strategy.Params{
		"short_window": 30,
		"long_window":  10,
	})
	if !errors.Is(err, core.ErrInvalidParams) {
		t.Errorf("expected ErrInvalidParams, got %v", err)
	}
}

func TestSMACrossover_NotEnoughData(t *testing.T) {
	candles := make([]core.Candle, 10)
	for i := range candles {
		candles[i] = core.Candle{Close: float64(i)}
	}

	signals, err := New(5, 20).GenerateSignals(candles, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(signals) != 10 {
		t.Fatalf("expected 10 signals, got %d", len(signals))
	}
	for _, p := range signals {
		if p.Signal != 0 {
			t.Error("expected no exposure with insufficient data")
		}
	}
}
