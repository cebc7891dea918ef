package yahoo

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"

	"github.com/newthinker/stratbench/internal/collector"
	"github.com/newthinker/stratbench/internal/core"
)

const (
	defaultBaseURL = "https://query1.finance.yahoo.com/v8/finance/chart"
)

// validSymbol matches stock symbols like AAPL, MSFT, 600519.SH, 0700.HK, ^NSEI
var validSymbol = regexp.MustCompile(`^\^?[A-Za-z0-9\-]{1,10}(\.[A-Za-z]{1,4})?$`)

// validateSymbol checks if a symbol has valid format
func validateSymbol(symbol string) error {
	if symbol == "" {
		return fmt.Errorf("symbol cannot be empty")
	}
	if len(symbol) > 20 {
		return fmt.Errorf("symbol too long: %s", symbol)
	}
	if !validSymbol.MatchString(symbol) {
		return fmt.Errorf("invalid symbol format: %s", symbol)
	}
	return nil
}

// Yahoo fetches candles from the Yahoo Finance chart API
type Yahoo struct {
	client  *http.Client
	baseURL string
}

// New creates a new Yahoo source
func New() *Yahoo {
	return &Yahoo{
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL: defaultBaseURL,
	}
}

func (y *Yahoo) Name() string {
	return "yahoo"
}

func (y *Yahoo) Init(cfg collector.Config) error {
	if cfg.BaseURL != "" {
		y.baseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	if cfg.Timeout > 0 {
		y.client.Timeout = cfg.Timeout
	}
	return nil
}

// toYahooSymbol converts internal symbol format to Yahoo format
func (y *Yahoo) toYahooSymbol(symbol string) string {
	// Shanghai stocks: 600519.SH -> 600519.SS
	if strings.HasSuffix(symbol, ".SH") {
		return strings.TrimSuffix(symbol, ".SH") + ".SS"
	}
	return symbol
}

// FetchCandles fetches historical OHLCV data
func (y *Yahoo) FetchCandles(ctx context.Context, symbol string, from, to time.Time, interval string) ([]core.Candle, error) {
	if err := validateSymbol(symbol); err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/%s?interval=%s&period1=%d&period2=%d",
		y.baseURL, y.toYahooSymbol(symbol), toYahooInterval(interval), from.Unix(), to.Unix())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "yahoo: new request")
	}

	resp, err := y.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "yahoo: fetching history")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("yahoo: unexpected status: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "yahoo: reading response")
	}

	var result chartResponse
	if err := sonic.Unmarshal(body, &result); err != nil {
		return nil, errors.Wrap(err, "yahoo: decoding response")
	}

	if result.Chart.Error != nil {
		return nil, errors.Errorf("yahoo error: %s", result.Chart.Error.Description)
	}

	if len(result.Chart.Result) == 0 || len(result.Chart.Result[0].Indicators.Quote) == 0 {
		return []core.Candle{}, nil
	}

	r := result.Chart.Result[0]
	quotes := r.Indicators.Quote[0]

	data := make([]core.Candle, 0, len(r.Timestamp))
	for i, ts := range r.Timestamp {
		if !quotes.complete(i) {
			continue // Skip missing data
		}
		var volume float64
		if i < len(quotes.Volume) && quotes.Volume[i] != nil {
			volume = *quotes.Volume[i]
		}
		data = append(data, core.Candle{
			Time:   time.Unix(ts, 0).UTC(),
			Open:   *quotes.Open[i],
			High:   *quotes.High[i],
			Low:    *quotes.Low[i],
			Close:  *quotes.Close[i],
			Volume: volume,
		})
	}

	return collector.Normalize(data, time.Time{}, time.Time{}), nil
}

// toYahooInterval maps both Kite style and short interval names
func toYahooInterval(interval string) string {
	switch interval {
	case "minute", "1m":
		return "1m"
	case "5minute", "5m":
		return "5m"
	case "15minute", "15m":
		return "15m"
	case "30minute", "30m":
		return "30m"
	case "60minute", "1h", "60m":
		return "60m"
	case "week", "1wk":
		return "1wk"
	default:
		return "1d"
	}
}

// Yahoo API response types
type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Timestamp  []int64    `json:"timestamp"`
	Indicators indicators `json:"indicators"`
}

type indicators struct {
	Quote []quoteIndicator `json:"quote"`
}

type quoteIndicator struct {
	Open   []*float64 `json:"open"`
	High   []*float64 `json:"high"`
	Low    []*float64 `json:"low"`
	Close  []*float64 `json:"close"`
	Volume []*float64 `json:"volume"`
}

func (q quoteIndicator) complete(i int) bool {
	for _, series := range [][]*float64{q.Open, q.High, q.Low, q.Close} {
		if i >= len(series) || series[i] == nil {
			return false
		}
	}
	return true
}
