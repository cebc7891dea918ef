package collector

import (
	"sort"
	"time"

	"github.com/newthinker/stratbench/internal/core"
)

// Normalize sorts candles in place by time, drops duplicate timestamps (last one wins)
// and keeps only bars inside [from, to]. A zero bound is open.
func Normalize(candles []core.Candle, from, to time.Time) []core.Candle {
	sort.SliceStable(candles, func(i, j int) bool {
		return candles[i].Time.Before(candles[j].Time)
	})

	out := make([]core.Candle, 0, len(candles))
	for _, c := range candles {
		if !from.IsZero() && c.Time.Before(from) {
			continue
		}
		if !to.IsZero() && c.Time.After(to) {
			continue
		}
		if n := len(out); n > 0 && out[n-1].Time.Equal(c.Time) {
			out[n-1] = c
			continue
		}
		out = append(out, c)
	}
	return out
}
