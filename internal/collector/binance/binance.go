package binance

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"

	"github.com/newthinker/stratbench/internal/collector"
	"github.com/newthinker/stratbench/internal/core"
)

const (
	baseURL   = "https://api.binance.com"
	pageLimit = 1000
)

// Binance fetches spot klines for symbols like BTCUSDT
type Binance struct {
	client  *http.Client
	baseURL string
}

// New creates a new Binance source
func New() *Binance {
	return &Binance{
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL: baseURL,
	}
}

func (b *Binance) Name() string {
	return "binance"
}

func (b *Binance) Init(cfg collector.Config) error {
	if cfg.BaseURL != "" {
		b.baseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	if cfg.Timeout > 0 {
		b.client.Timeout = cfg.Timeout
	}
	return nil
}

// FetchCandles pages through /api/v3/klines until the range is covered
func (b *Binance) FetchCandles(ctx context.Context, symbol string, from, to time.Time, interval string) ([]core.Candle, error) {
	if symbol == "" {
		return nil, errors.New("binance: symbol cannot be empty")
	}
	symbol = strings.ToUpper(symbol)
	if to.IsZero() {
		to = time.Now()
	}

	var data []core.Candle
	start := from
	for {
		page, err := b.fetchPage(ctx, symbol, toInterval(interval), start, to)
		if err != nil {
			return nil, err
		}
		data = append(data, page...)
		if len(page) < pageLimit {
			break
		}
		start = page[len(page)-1].Time.Add(time.Millisecond)
		if !start.Before(to) {
			break
		}
	}

	return collector.Normalize(data, time.Time{}, time.Time{}), nil
}

func (b *Binance) fetchPage(ctx context.Context, symbol, interval string, start, end time.Time) ([]core.Candle, error) {
	url := fmt.Sprintf("%s/api/v3/klines?symbol=%s&interval=%s&startTime=%d&endTime=%d&limit=%d",
		b.baseURL, symbol, interval, start.UnixMilli(), end.UnixMilli(), pageLimit)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "binance: creating request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "binance: fetching klines")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("binance: unexpected status: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "binance: reading response")
	}

	var klines [][]any
	if err := sonic.Unmarshal(body, &klines); err != nil {
		return nil, errors.Wrap(err, "binance: decoding response")
	}

	data := make([]core.Candle, 0, len(klines))
	for i, k := range klines {
		c, err := parseKline(k)
		if err != nil {
			return nil, errors.Wrapf(err, "binance: kline %d", i)
		}
		data = append(data, c)
	}

	return data, nil
}

// parseKline decodes [openTime, open, high, low, close, volume, closeTime, ...].
// Prices and volume arrive as decimal strings.
func parseKline(k []any) (core.Candle, error) {
	if len(k) < 6 {
		return core.Candle{}, errors.Errorf("expected 6 fields, got %d", len(k))
	}
	openTime, ok := k[0].(float64)
	if !ok {
		return core.Candle{}, errors.Errorf("open time is %T", k[0])
	}

	var values [5]float64
	for i := range values {
		s, ok := k[i+1].(string)
		if !ok {
			return core.Candle{}, errors.Errorf("field %d is %T", i+1, k[i+1])
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return core.Candle{}, errors.Wrapf(err, "parsing field %d", i+1)
		}
		values[i] = v
	}

	return core.Candle{
		Time:   time.UnixMilli(int64(openTime)).UTC(),
		Open:   values[0],
		High:   values[1],
		Low:    values[2],
		Close:  values[3],
		Volume: values[4],
	}, nil
}

func toInterval(interval string) string {
	switch interval {
	case "1m", "5m", "15m", "30m":
		return interval
	case "minute":
		return "1m"
	case "5minute":
		return "5m"
	case "15minute":
		return "15m"
	case "30minute":
		return "30m"
	case "1h", "2h", "4h":
		return interval
	case "60minute":
		return "1h"
	case "1w", "week":
		return "1w"
	default:
		return "1d"
	}
}
