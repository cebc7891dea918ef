package custom

import (
	"fmt"
	"strings"
	"time"

	"github.com/newthinker/stratbench/internal/strategy"
)

// IDPrefix marks identifiers of user-authored strategies
const IDPrefix = "custom_"

// Indicator types usable in conditions
const (
	IndicatorSMA       = "sma"
	IndicatorEMA       = "ema"
	IndicatorRSI       = "rsi"
	IndicatorMACD      = "macd"
	IndicatorBollinger = "bollinger"
	IndicatorPrice     = "price"
)

// Comparison operators
const (
	OpGreater        = ">"
	OpLess           = "<"
	OpGreaterOrEqual = ">="
	OpLessOrEqual    = "<="
	OpEqual          = "=="
	OpCrossesAbove   = "crosses_above"
	OpCrossesBelow   = "crosses_below"
)

// Rule logic and type values
const (
	LogicAnd = "and"
	LogicOr  = "or"

	RuleBuy  = "buy"
	RuleSell = "sell"
)

const (
	defaultMAPeriod        = 20
	defaultBollingerStdDev = 2.0
	defaultMACDFast        = 12
	defaultMACDSlow        = 26
	defaultMACDSignal      = 9
)

// IndicatorRef names an indicator series and its settings
type IndicatorRef struct {
	Type   string             `json:"type" yaml:"type"`
	Period int                `json:"period,omitempty" yaml:"period,omitempty"`
	Params map[string]float64 `json:"params,omitempty" yaml:"params,omitempty"`
}

// Condition compares two indicator values at a bar
type Condition struct {
	ID         string       `json:"id" yaml:"id"`
	Indicator1 IndicatorRef `json:"indicator1" yaml:"indicator1"`
	Operator   string       `json:"operator" yaml:"operator"`
	Indicator2 IndicatorRef `json:"indicator2" yaml:"indicator2"`
}

// Rule combines conditions with and/or logic
type Rule struct {
	Type       string      `json:"type" yaml:"type"`
	Conditions []Condition `json:"conditions" yaml:"conditions"`
	Logic      string      `json:"logic" yaml:"logic"`
}

// Strategy is a user-authored set of buy and sell rules
type Strategy struct {
	ID          string               `json:"id" yaml:"id"`
	Name        string               `json:"name" yaml:"name"`
	Description string               `json:"description" yaml:"description"`
	BuyRules    []Rule               `json:"buyRules" yaml:"buyRules"`
	SellRules   []Rule               `json:"sellRules" yaml:"sellRules"`
	Parameters  []strategy.Parameter `json:"parameters" yaml:"parameters"`
	CreatedAt   time.Time            `json:"createdAt" yaml:"createdAt"`
	UpdatedAt   time.Time            `json:"updatedAt" yaml:"updatedAt"`
}

// Kind returns the lower-cased indicator type
func (r IndicatorRef) Kind() string {
	return strings.ToLower(strings.TrimSpace(r.Type))
}

func (r IndicatorRef) param(name string, def float64) float64 {
	if v, ok := r.Params[name]; ok && v != 0 {
		return v
	}
	return def
}

func (r IndicatorRef) intParam(name string, def int) int {
	v := int(r.param(name, float64(def)))
	if v <= 0 {
		return def
	}
	return v
}

// Window returns the number of bars the indicator needs before it is defined.
// MACD is bounded by its slow period. Price waits only when given a period.
func (r IndicatorRef) Window() int {
	switch r.Kind() {
	case IndicatorPrice:
		return max(r.Period, 0)
	case IndicatorMACD:
		return r.intParam("slow", defaultMACDSlow)
	case IndicatorRSI:
		if r.Period > 0 {
			return r.Period
		}
		return 14
	default:
		if r.Period > 0 {
			return r.Period
		}
		return defaultMAPeriod
	}
}

// Label is a stable name for the indicator used in signal output
func (r IndicatorRef) Label() string {
	switch r.Kind() {
	case IndicatorPrice:
		if r.Period > 0 {
			return fmt.Sprintf("price_%d", r.Period)
		}
		return IndicatorPrice
	case IndicatorMACD:
		return fmt.Sprintf("macd_%d_%d_%d",
			r.intParam("fast", defaultMACDFast),
			r.intParam("slow", defaultMACDSlow),
			r.intParam("signal", defaultMACDSignal))
	case IndicatorBollinger:
		band := "middle"
		switch b := r.Params["band"]; {
		case b < 0:
			band = "lower"
		case b > 0:
			band = "upper"
		}
		return fmt.Sprintf("bollinger_%d_%g_%s", r.Window(), r.param("std_dev", defaultBollingerStdDev), band)
	default:
		return fmt.Sprintf("%s_%d", r.Kind(), r.Window())
	}
}

// MaxPeriod returns the longest window referenced by any buy or sell condition
func (s *Strategy) MaxPeriod() int {
	maxPeriod := 0
	for _, rules := range [][]Rule{s.BuyRules, s.SellRules} {
		for _, rule := range rules {
			for _, c := range rule.Conditions {
				maxPeriod = max(maxPeriod, c.Indicator1.Window(), c.Indicator2.Window())
			}
		}
	}
	return maxPeriod
}

// IsCustomID reports whether id names a user-authored strategy
func IsCustomID(id string) bool {
	return strings.HasPrefix(id, IDPrefix)
}
