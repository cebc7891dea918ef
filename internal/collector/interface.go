package collector

import (
	"context"
	"time"

	"github.com/newthinker/stratbench/internal/core"
)

// Config holds candle source configuration
type Config struct {
	BaseURL     string
	APIKey      string
	AccessToken string
	Dir         string
	Timeout     time.Duration
}

// CandleSource fetches historical OHLCV bars for one instrument.
// Candles come back ascending by time without duplicates; an empty slice is not an error.
type CandleSource interface {
	Name() string
	Init(cfg Config) error
	FetchCandles(ctx context.Context, instrument string, from, to time.Time, interval string) ([]core.Candle, error)
}
