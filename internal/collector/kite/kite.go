// Package kite reads historical candles from the Kite Connect API.
package kite

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"

	"github.com/newthinker/stratbench/internal/collector"
	"github.com/newthinker/stratbench/internal/core"
)

const (
	defaultBaseURL = "https://api.kite.trade"
	apiVersion     = "3"

	queryTimeLayout  = "2006-01-02 15:04:05"
	candleTimeLayout = "2006-01-02T15:04:05-0700"
)

var intervals = map[string]bool{
	"minute":   true,
	"3minute":  true,
	"5minute":  true,
	"10minute": true,
	"15minute": true,
	"30minute": true,
	"60minute": true,
	"day":      true,
}

// Kite fetches candles by instrument token
type Kite struct {
	client      *http.Client
	baseURL     string
	apiKey      string
	accessToken string
}

// New creates a Kite source; Init must provide credentials before use
func New() *Kite {
	return &Kite{
		client:  &http.Client{Timeout: 15 * time.Second},
		baseURL: defaultBaseURL,
	}
}

func (k *Kite) Name() string {
	return "kite"
}

func (k *Kite) Init(cfg collector.Config) error {
	if cfg.APIKey == "" || cfg.AccessToken == "" {
		return core.WrapError(core.ErrConfigMissing, errors.New("kite: api_key and access_token are required"))
	}
	k.apiKey = cfg.APIKey
	k.accessToken = cfg.AccessToken
	if cfg.BaseURL != "" {
		k.baseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	if cfg.Timeout > 0 {
		k.client.Timeout = cfg.Timeout
	}
	return nil
}

type historicalResponse struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	ErrorType string `json:"error_type"`
	Data      struct {
		Candles [][]any `json:"candles"`
	} `json:"data"`
}

// FetchCandles calls GET /instruments/historical/{token}/{interval}
func (k *Kite) FetchCandles(ctx context.Context, token string, from, to time.Time, interval string) ([]core.Candle, error) {
	if token == "" {
		return nil, errors.New("kite: instrument token cannot be empty")
	}
	if interval == "" {
		interval = "day"
	}
	if !intervals[interval] {
		return nil, errors.Errorf("kite: unsupported interval %q", interval)
	}

	q := url.Values{}
	q.Set("from", from.Format(queryTimeLayout))
	q.Set("to", to.Format(queryTimeLayout))
	endpoint := fmt.Sprintf("%s/instruments/historical/%s/%s?%s",
		k.baseURL, url.PathEscape(token), interval, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errors.Wrap(err, "kite: new request")
	}
	req.Header.Set("X-Kite-Version", apiVersion)
	req.Header.Set("Authorization", fmt.Sprintf("token %s:%s", k.apiKey, k.accessToken))

	resp, err := k.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "kite: fetching historical data")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "kite: reading response")
	}

	var result historicalResponse
	if err := sonic.Unmarshal(body, &result); err != nil {
		return nil, errors.Wrapf(err, "kite: decoding response (status %d)", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK || result.Status != "success" {
		return nil, errors.Errorf("kite: %s %s (status %d)", result.ErrorType, result.Message, resp.StatusCode)
	}

	candles := make([]core.Candle, 0, len(result.Data.Candles))
	for i, row := range result.Data.Candles {
		c, err := parseCandle(row)
		if err != nil {
			return nil, errors.Wrapf(err, "kite: candle %d", i)
		}
		candles = append(candles, c)
	}
	return collector.Normalize(candles, time.Time{}, time.Time{}), nil
}

// parseCandle decodes [timestamp, open, high, low, close, volume(, oi)]
func parseCandle(row []any) (core.Candle, error) {
	if len(row) < 6 {
		return core.Candle{}, errors.Errorf("expected 6 fields, got %d", len(row))
	}
	ts, ok := row[0].(string)
	if !ok {
		return core.Candle{}, errors.Errorf("timestamp is %T", row[0])
	}
	t, err := time.Parse(candleTimeLayout, ts)
	if err != nil {
		if t, err = time.Parse(time.RFC3339, ts); err != nil {
			return core.Candle{}, errors.Wrap(err, "parsing timestamp")
		}
	}

	var values [5]float64
	for i := range values {
		v, ok := toFloat(row[i+1])
		if !ok {
			return core.Candle{}, errors.Errorf("field %d is %T", i+1, row[i+1])
		}
		values[i] = v
	}

	return core.Candle{
		Time:   t,
		Open:   values[0],
		High:   values[1],
		Low:    values[2],
		Close:  values[3],
		Volume: values[4],
	}, nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	}
	return 0, false
}
