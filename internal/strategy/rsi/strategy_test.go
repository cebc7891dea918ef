package rsi

import (
	"errors"
	"testing"
	"time"

	"github.com/newthinker/stratbench/internal/core"
	"github.com/newthinker/stratbench/internal/strategy"
)

func candlesFrom(closes []float64) []core.Candle {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	candles := make([]core.Candle, len(closes))
	for i, c := range closes {
		candles[i] = core.Candle{Time: base.AddDate(0, 0, i), Close: c}
	}
	return candles
}

func TestRSI_ImplementsStrategy(t *testing.T) {
	var _ strategy.Strategy = (*RSI)(nil)
}

func TestRSI_Config(t *testing.T) {
	cfg := New().Config()
	if cfg.Name != "RSI" {
		t.Errorf("unexpected name %q", cfg.Name)
	}
	names := []string{"rsi_period", "oversold", "overbought"}
	for i, name := range names {
		if cfg.Parameters[i].Name != name {
			t.Errorf("parameter %d = %q, want %q", i, cfg.Parameters[i].Name, name)
		}
	}
}

func TestRSI_EnterOversoldExitOverbought(t *testing.T) {
	// With period 2 the RSI sequence from bar 2 is 0, 0, 50, 75, 87.5, 93.75, ~46.9
	closes := []float64{10, 9, 8, 7, 8, 9, 10, 11, 10}

	signals, err := New().GenerateSignals(candlesFrom(closes), strategy.Params{
		"rsi_period": 2,
		"oversold":   30,
		"overbought": 70,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantSignal := []int{0, 0, 1, 1, 1, 0, 0, 0, 0}
	wantPosition := []int{0, 0, 1, 0, 0, -1, 0, 0, 0}
	for i := range closes {
		if signals[i].Signal != wantSignal[i] {
			t.Errorf("signal[%d] = %d, want %d (rsi %.2f)", i, signals[i].Signal, wantSignal[i], signals[i].Indicators["rsi"])
		}
		if signals[i].Position != wantPosition[i] {
			t.Errorf("position[%d] = %d, want %d", i, signals[i].Position, wantPosition[i])
		}
	}
	if signals[4].Indicators["overbought"] != 70 {
		t.Errorf("expected overbought indicator 70, got %v", signals[4].Indicators["overbought"])
	}
}

func TestRSI_FlatPricesStayFlat(t *testing.T) {
	closes := make([]float64, 40)
	for i := range closes {
		closes[i] = 100
	}

	signals, err := New().GenerateSignals(candlesFrom(closes), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, p := range signals {
		if p.Signal != 0 {
			t.Fatalf("signal[%d] = %d, want 0 for flat prices", i, p.Signal)
		}
	}
}

func TestRSI_InvalidLevels(t *testing.T) {
	_, err := New().GenerateSignals(candlesFrom([]float64{1, 2, 3}), strategy.Params{
		"oversold":   80,
		"overbought": 70,
	})
	if !errors.Is(err, core.ErrInvalidParams) {
		t.Errorf("expected ErrInvalidParams, got %v", err)
	}
}
