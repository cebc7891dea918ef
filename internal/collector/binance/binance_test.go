package binance

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newthinker/stratbench/internal/collector"
)

func TestBinance_ImplementsCandleSource(t *testing.T) {
	var _ collector.CandleSource = (*Binance)(nil)
}

func TestBinance_Name(t *testing.T) {
	b := New()
	if b.Name() != "binance" {
		t.Errorf("expected 'binance', got '%s'", b.Name())
	}
}

func TestBinance_ToInterval(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"1m", "1m"},
		{"5m", "5m"},
		{"15minute", "15m"},
		{"1h", "1h"},
		{"60minute", "1h"},
		{"4h", "4h"},
		{"day", "1d"},
		{"unknown", "1d"},
	}

	for _, tc := range tests {
		got := toInterval(tc.input)
		if got != tc.expected {
			t.Errorf("toInterval(%s) = %s, want %s", tc.input, got, tc.expected)
		}
	}
}

func TestBinance_FetchCandles(t *testing.T) {
	var symbols []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		symbols = append(symbols, r.URL.Query().Get("symbol"))
		w.Write([]byte(`[
			[1704153600000, "101.0", "103.0", "100.0", "102.5", "12.5", 1704239999999],
			[1704067200000, "100.0", "102.0", "99.0", "101.0", "10.0", 1704153599999]
		]`))
	}))
	defer srv.Close()

	b := New()
	require.NoError(t, b.Init(collector.Config{BaseURL: srv.URL}))

	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	candles, err := b.FetchCandles(context.Background(), "btcusdt", from, from.AddDate(0, 0, 2), "day")
	require.NoError(t, err)

	assert.Equal(t, []string{"BTCUSDT"}, symbols)
	require.Len(t, candles, 2)
	assert.Equal(t, from, candles[0].Time)
	assert.Equal(t, 101.0, candles[0].Close)
	assert.Equal(t, 12.5, candles[1].Volume)
}

func TestBinance_FetchCandles_Pages(t *testing.T) {
	from := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		startMs, _ := strconv.ParseInt(r.URL.Query().Get("startTime"), 10, 64)
		n := pageLimit
		if calls > 1 {
			n = 3
		}
		rows := make([]string, n)
		for i := range rows {
			open := startMs + int64(i)*60_000
			rows[i] = fmt.Sprintf(`[%d,"1","1","1","1","1",%d]`, open, open+59_999)
		}
		w.Write([]byte("[" + strings.Join(rows, ",") + "]"))
	}))
	defer srv.Close()

	b := New()
	require.NoError(t, b.Init(collector.Config{BaseURL: srv.URL}))

	candles, err := b.FetchCandles(context.Background(), "ETHUSDT", from, from.AddDate(0, 1, 0), "1m")
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Len(t, candles, pageLimit+3)
}

func TestBinance_FetchCandles_Status(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	b := New()
	require.NoError(t, b.Init(collector.Config{BaseURL: srv.URL}))

	_, err := b.FetchCandles(context.Background(), "BTCUSDT", time.Now().Add(-time.Hour), time.Now(), "1m")
	assert.ErrorContains(t, err, "400")
}

func TestParseKline(t *testing.T) {
	tests := []struct {
		name    string
		row     []any
		wantErr string
	}{
		{"valid", []any{1704067200000.0, "100.0", "102.0", "99.0", "101.0", "10.0"}, ""},
		{"short row", []any{1704067200000.0, "100.0"}, "expected 6 fields"},
		{"string open time", []any{"1704067200000", "100.0", "102.0", "99.0", "101.0", "10.0"}, "open time"},
		{"numeric price", []any{1704067200000.0, 100.0, "102.0", "99.0", "101.0", "10.0"}, "field 1"},
		{"bad decimal", []any{1704067200000.0, "100.0", "102.0", "99.0", "n/a", "10.0"}, "parsing field 4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := parseKline(tt.row)
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), c.Time)
			assert.Equal(t, 101.0, c.Close)
		})
	}
}

func TestBinance_FetchCandles_BadKline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			[1704067200000, "100.0", "102.0", "99.0", "101.0", "10.0", 1704153599999],
			[1704153600000, "101.0", "", "100.0", "102.5", "12.5", 1704239999999]
		]`))
	}))
	defer srv.Close()

	b := New()
	require.NoError(t, b.Init(collector.Config{BaseURL: srv.URL}))

	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	_, err := b.FetchCandles(context.Background(), "BTCUSDT", from, from.AddDate(0, 0, 2), "day")
	assert.ErrorContains(t, err, "binance: kline 1")
}
