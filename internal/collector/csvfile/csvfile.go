// Package csvfile serves candles from local CSV files named <instrument>.csv.
package csvfile

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/newthinker/stratbench/internal/collector"
	"github.com/newthinker/stratbench/internal/core"
)

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05-0700",
	"2006-01-02",
}

// Source reads <dir>/<instrument>_<interval>.csv, falling back to <dir>/<instrument>.csv
type Source struct {
	dir string
}

// New creates a CSV source rooted at dir
func New(dir string) *Source {
	return &Source{dir: dir}
}

func (s *Source) Name() string {
	return "csv"
}

func (s *Source) Init(cfg collector.Config) error {
	if cfg.Dir != "" {
		s.dir = cfg.Dir
	}
	if s.dir == "" {
		return core.WrapError(core.ErrConfigMissing, errors.New("csv: dir is required"))
	}
	return nil
}

func (s *Source) FetchCandles(ctx context.Context, instrument string, from, to time.Time, interval string) ([]core.Candle, error) {
	if instrument == "" || strings.ContainsAny(instrument, `/\`) || strings.Contains(instrument, "..") {
		return nil, errors.Errorf("csv: invalid instrument %q", instrument)
	}

	path, err := s.resolve(instrument, interval)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "csv: open")
	}
	defer f.Close()

	candles, err := Read(ctx, f)
	if err != nil {
		return nil, errors.Wrapf(err, "csv: %s", filepath.Base(path))
	}
	return collector.Normalize(candles, from, to), nil
}

func (s *Source) resolve(instrument, interval string) (string, error) {
	if interval != "" {
		p := filepath.Join(s.dir, instrument+"_"+interval+".csv")
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	p := filepath.Join(s.dir, instrument+".csv")
	if _, err := os.Stat(p); err != nil {
		if os.IsNotExist(err) {
			return "", core.WrapError(core.ErrNoData, errors.Errorf("csv: no file for %s", instrument))
		}
		return "", errors.Wrap(err, "csv: stat")
	}
	return p, nil
}

// Read parses rows of date,open,high,low,close[,volume].
// Column order follows the header row; header names are case-insensitive.
func Read(ctx context.Context, r io.Reader) ([]core.Candle, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, errors.Wrap(err, "reading header")
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, required := range []string{"date", "open", "high", "low", "close"} {
		if _, ok := cols[required]; !ok {
			return nil, errors.Errorf("missing column %q", required)
		}
	}

	var candles []core.Candle
	for line := 2; ; line++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", line)
		}

		c, err := parseRecord(record, cols)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", line)
		}
		candles = append(candles, c)
	}
	return candles, nil
}

func parseRecord(record []string, cols map[string]int) (core.Candle, error) {
	field := func(name string) string {
		i, ok := cols[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	t, err := parseTime(field("date"))
	if err != nil {
		return core.Candle{}, err
	}

	var c core.Candle
	c.Time = t
	for name, dst := range map[string]*float64{
		"open":  &c.Open,
		"high":  &c.High,
		"low":   &c.Low,
		"close": &c.Close,
	} {
		v, err := strconv.ParseFloat(field(name), 64)
		if err != nil {
			return core.Candle{}, errors.Wrapf(err, "column %s", name)
		}
		*dst = v
	}
	if v := field("volume"); v != "" {
		vol, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return core.Candle{}, errors.Wrap(err, "column volume")
		}
		c.Volume = vol
	}
	return c, nil
}

func parseTime(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.Errorf("unrecognised date %q", s)
}
