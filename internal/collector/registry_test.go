package collector

import (
	"context"
	"testing"
	"time"

	"github.com/newthinker/stratbench/internal/core"
)

// mockSource for testing
type mockSource struct {
	name string
}

func (m *mockSource) Name() string          { return m.name }
func (m *mockSource) Init(cfg Config) error { return nil }
func (m *mockSource) FetchCandles(ctx context.Context, instrument string, from, to time.Time, interval string) ([]core.Candle, error) {
	return nil, nil
}

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()
	r.Register(&mockSource{name: "mock"})

	s, ok := r.Get("mock")
	if !ok {
		t.Fatal("expected to find registered source")
	}
	if s.Name() != "mock" {
		t.Errorf("expected name 'mock', got '%s'", s.Name())
	}

	if _, ok := r.Get("missing"); ok {
		t.Error("expected missing source lookup to fail")
	}
}

func TestRegistry_Names(t *testing.T) {
	r := NewRegistry()
	r.Register(&mockSource{name: "yahoo"})
	r.Register(&mockSource{name: "csv"})
	r.Register(&mockSource{name: "kite"})

	names := r.Names()
	want := []string{"csv", "kite", "yahoo"}
	if len(names) != len(want) {
		t.Fatalf("expected %d names, got %d", len(want), len(names))
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("names[%d] = %s, want %s", i, names[i], want[i])
		}
	}
}

func TestNormalize(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2024, 3, d, 0, 0, 0, 0, time.UTC) }
	candles := []core.Candle{
		{Time: day(4), Close: 4},
		{Time: day(1), Close: 1},
		{Time: day(2), Close: 2},
		{Time: day(2), Close: 22},
		{Time: day(9), Close: 9},
	}

	got := Normalize(candles, day(2), day(5))
	if len(got) != 2 {
		t.Fatalf("expected 2 candles, got %d", len(got))
	}
	if got[0].Close != 22 || got[1].Close != 4 {
		t.Errorf("unexpected candles %+v", got)
	}

	if all := Normalize(candles, time.Time{}, time.Time{}); len(all) != 4 {
		t.Errorf("expected 4 candles with open bounds, got %d", len(all))
	}
}
