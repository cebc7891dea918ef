package api

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/newthinker/stratbench/internal/backtest"
	"github.com/newthinker/stratbench/internal/core"
	"github.com/newthinker/stratbench/internal/strategy/builtin"
)

// stubSource serves a fixed candle series
type stubSource struct {
	candles []core.Candle
	err     error
}

func (s *stubSource) FetchCandles(ctx context.Context, instrument string, from, to time.Time, interval string) ([]core.Candle, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.candles, nil
}

func sineCandles(n int) []core.Candle {
	start := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	out := make([]core.Candle, n)
	for i := range out {
		c := 100 + 10*math.Sin(float64(i)/8)
		out[i] = core.Candle{Time: start.AddDate(0, 0, i), Open: c, High: c + 1, Low: c - 1, Close: c, Volume: 1000}
	}
	return out
}

func newBacktester(src backtest.CandleSource) *backtest.Backtester {
	return backtest.New(src, builtin.NewRegistry(nil), nil)
}

var testDefaults = Defaults{Interval: "day", Simulation: backtest.DefaultSimulationConfig()}

func do(t *testing.T, h http.HandlerFunc, method, target, body string, pathValues ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	for i := 0; i+1 < len(pathValues); i += 2 {
		req.SetPathValue(pathValues[i], pathValues[i+1])
	}
	w := httptest.NewRecorder()
	h(w, req)
	return w
}

// envelope mirrors response.SuccessResponse with raw data
type envelope struct {
	Data json.RawMessage `json:"data"`
	Meta struct {
		Count *int `json:"count"`
	} `json:"meta"`
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Cause   string `json:"cause"`
	} `json:"error"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder, data any) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	if data != nil {
		require.NoError(t, json.Unmarshal(env.Data, data), string(env.Data))
	}
	return env
}
