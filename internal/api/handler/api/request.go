package api

import (
	"fmt"
	"strings"
	"time"

	"github.com/newthinker/stratbench/internal/backtest"
	"github.com/newthinker/stratbench/internal/core"
	"github.com/newthinker/stratbench/internal/strategy"
	"github.com/newthinker/stratbench/internal/strategy/custom"
)

// BacktestRequest is the request body for running a backtest.
// Field names follow the dashboard form.
type BacktestRequest struct {
	InstrumentToken        string           `json:"instrument_token"`
	FromDate               string           `json:"from_date"`
	ToDate                 string           `json:"to_date"`
	Interval               string           `json:"interval,omitempty"`
	StrategyID             string           `json:"strategy_id"`
	StrategyParams         map[string]any   `json:"strategy_params,omitempty"`
	InitialCapital         float64          `json:"initial_capital,omitempty"`
	PositionSizePercentage float64          `json:"position_size_percentage,omitempty"`
	FeePercentage          *float64         `json:"fee_percentage,omitempty"`
	CustomStrategy         *custom.Strategy `json:"custom_strategy,omitempty"`
}

// Defaults fill in what a request leaves out.
type Defaults struct {
	Interval   string
	Simulation backtest.SimulationConfig
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// parseDate accepts the layouts above. A bare date used as an upper bound
// covers the whole day.
func parseDate(s string, endOfDay bool) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		if endOfDay && layout == "2006-01-02" {
			t = t.Add(24*time.Hour - time.Second)
		}
		return t, nil
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}

func invalidParams(format string, args ...any) error {
	return core.WrapError(core.ErrInvalidParams, fmt.Errorf(format, args...))
}

// ToRequest validates the body and converts it into a backtest request.
func (b BacktestRequest) ToRequest(d Defaults) (backtest.Request, error) {
	if strings.TrimSpace(b.InstrumentToken) == "" {
		return backtest.Request{}, invalidParams("instrument_token is required")
	}
	if b.FromDate == "" || b.ToDate == "" {
		return backtest.Request{}, invalidParams("from_date and to_date are required")
	}
	if b.StrategyID == "" && b.CustomStrategy == nil {
		return backtest.Request{}, invalidParams("strategy_id is required")
	}

	from, err := parseDate(b.FromDate, false)
	if err != nil {
		return backtest.Request{}, invalidParams("from_date: %v", err)
	}
	to, err := parseDate(b.ToDate, true)
	if err != nil {
		return backtest.Request{}, invalidParams("to_date: %v", err)
	}
	if to.Before(from) {
		return backtest.Request{}, invalidParams("to_date %s is before from_date %s", b.ToDate, b.FromDate)
	}

	interval := b.Interval
	if interval == "" {
		interval = d.Interval
	}

	sim := d.Simulation
	if b.InitialCapital > 0 {
		sim.InitialCapital = b.InitialCapital
	}
	if b.PositionSizePercentage > 0 {
		sim.PositionSizePct = b.PositionSizePercentage
	}
	if b.FeePercentage != nil {
		sim.FeePct = *b.FeePercentage
	}

	return backtest.Request{
		Instrument: strings.TrimSpace(b.InstrumentToken),
		From:       from,
		To:         to,
		Interval:   interval,
		StrategyID: b.StrategyID,
		Params:     strategy.Params(b.StrategyParams),
		Custom:     b.CustomStrategy,
		Simulation: sim,
	}, nil
}
