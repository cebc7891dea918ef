package kite

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newthinker/stratbench/internal/collector"
	"github.com/newthinker/stratbench/internal/core"
)

func TestKite_ImplementsCandleSource(t *testing.T) {
	var _ collector.CandleSource = (*Kite)(nil)
}

func TestKite_InitRequiresCredentials(t *testing.T) {
	err := New().Init(collector.Config{APIKey: "key"})
	assert.True(t, errors.Is(err, core.ErrConfigMissing))
}

func newTestKite(t *testing.T, handler http.HandlerFunc) *Kite {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	k := New()
	require.NoError(t, k.Init(collector.Config{BaseURL: srv.URL, APIKey: "key", AccessToken: "secret"}))
	return k
}

func TestKite_FetchCandles(t *testing.T) {
	var req *http.Request
	k := newTestKite(t, func(w http.ResponseWriter, r *http.Request) {
		req = r
		w.Write([]byte(`{"status":"success","data":{"candles":[
			["2024-01-02T09:15:00+0530", 100, 105, 99, 104, 1200],
			["2024-01-01T09:15:00+0530", 98.5, 101, 97, 100, 1000, 0]
		]}}`))
	})

	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	candles, err := k.FetchCandles(context.Background(), "256265", from, from.AddDate(0, 0, 3), "day")
	require.NoError(t, err)

	assert.Equal(t, "/instruments/historical/256265/day", req.URL.Path)
	assert.Equal(t, "2024-01-01 00:00:00", req.URL.Query().Get("from"))
	assert.Equal(t, "3", req.Header.Get("X-Kite-Version"))
	assert.Equal(t, "token key:secret", req.Header.Get("Authorization"))

	require.Len(t, candles, 2)
	assert.Equal(t, 100.0, candles[0].Close)
	assert.Equal(t, 104.0, candles[1].Close)
	assert.Equal(t, 1200.0, candles[1].Volume)
	assert.Equal(t, 9, candles[0].Time.In(time.FixedZone("IST", 19800)).Hour())
}

func TestKite_FetchCandles_APIError(t *testing.T) {
	k := newTestKite(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"status":"error","message":"Incorrect api_key or access_token.","error_type":"TokenException"}`))
	})

	_, err := k.FetchCandles(context.Background(), "256265", time.Now(), time.Now(), "day")
	assert.ErrorContains(t, err, "TokenException")
}

func TestKite_FetchCandles_BadInput(t *testing.T) {
	k := newTestKite(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})

	_, err := k.FetchCandles(context.Background(), "", time.Now(), time.Now(), "day")
	assert.Error(t, err)

	_, err = k.FetchCandles(context.Background(), "256265", time.Now(), time.Now(), "2hour")
	assert.ErrorContains(t, err, "unsupported interval")
}

func TestParseCandle(t *testing.T) {
	_, err := parseCandle([]any{"2024-01-01T09:15:00+0530", 1.0, 2.0})
	assert.Error(t, err)

	_, err = parseCandle([]any{"yesterday", 1.0, 2.0, 3.0, 4.0, 5.0})
	assert.Error(t, err)

	_, err = parseCandle([]any{"2024-01-01T09:15:00+0530", "1", 2.0, 3.0, 4.0, 5.0})
	assert.Error(t, err)

	c, err := parseCandle([]any{"2024-01-01T09:15:00Z", 1.0, 2.0, 0.5, 1.5, 10.0})
	require.NoError(t, err)
	assert.Equal(t, 1.5, c.Close)
}
