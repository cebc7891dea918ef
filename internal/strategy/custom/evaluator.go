package custom

import (
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/newthinker/stratbench/internal/core"
	"github.com/newthinker/stratbench/internal/indicator"
	"github.com/newthinker/stratbench/internal/strategy"
)

const equalityTolerance = 0.01

// Evaluator runs a user-authored strategy as a strategy.Strategy
type Evaluator struct {
	def    *Strategy
	logger *zap.Logger
}

// NewEvaluator validates def and wraps it in an evaluator
func NewEvaluator(def *Strategy, logger *zap.Logger) (*Evaluator, error) {
	if def == nil {
		return nil, invalid("strategy definition is nil")
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Evaluator{def: def, logger: logger}, nil
}

func (e *Evaluator) ID() string {
	if e.def.ID == "" {
		return "custom"
	}
	return e.def.ID
}

func (e *Evaluator) Config() strategy.Config {
	return strategy.Config{
		Name:        e.def.Name,
		Description: e.def.Description,
		Parameters:  e.def.Parameters,
	}
}

// GenerateSignals walks the bars holding a single long/flat state.
// A buy rule opens a flat book, a sell rule closes a long one. params are unused,
// a custom strategy carries its settings in its indicator references.
func (e *Evaluator) GenerateSignals(candles []core.Candle, _ strategy.Params) ([]core.SignalPoint, error) {
	env := newEnvironment(candles)
	maxPeriod := e.def.MaxPeriod()

	raw := make([]int, len(candles))
	current := core.SignalFlat
	for i := range candles {
		if i < maxPeriod {
			continue
		}
		buy := env.anyRule(e.def.BuyRules, i)
		sell := env.anyRule(e.def.SellRules, i)

		switch {
		case buy && current == core.SignalFlat:
			current = core.SignalLong
			e.logger.Debug("custom buy signal", zap.String("strategy", e.ID()), zap.Int("bar", i))
		case sell && current == core.SignalLong:
			current = core.SignalFlat
			e.logger.Debug("custom sell signal", zap.String("strategy", e.ID()), zap.Int("bar", i))
		}
		raw[i] = current
	}

	refs := e.refs()
	points := strategy.BuildSignals(candles, raw, func(i int) map[string]float64 {
		values := make(map[string]float64, len(refs))
		for _, ref := range refs {
			if v, ok := env.value(ref, i); ok {
				values[ref.Label()] = v
			}
		}
		return values
	})

	buys, sells := strategy.CountTransitions(points)
	e.logger.Debug("custom signals generated",
		zap.String("strategy", e.ID()),
		zap.Int("buys", buys),
		zap.Int("sells", sells),
	)
	return points, nil
}

func (e *Evaluator) refs() []IndicatorRef {
	seen := make(map[string]bool)
	var refs []IndicatorRef
	for _, rules := range [][]Rule{e.def.BuyRules, e.def.SellRules} {
		for _, rule := range rules {
			for _, c := range rule.Conditions {
				for _, ref := range []IndicatorRef{c.Indicator1, c.Indicator2} {
					if label := ref.Label(); !seen[label] {
						seen[label] = true
						refs = append(refs, ref)
					}
				}
			}
		}
	}
	return refs
}

// environment resolves indicator values for one candle series.
// Every indicator here is causal, so the value at bar i equals the value
// computed over candles[0..i]; series are built once and cached by label.
type environment struct {
	closes []float64
	series map[string][]float64
}

func newEnvironment(candles []core.Candle) *environment {
	return &environment{
		closes: core.Closes(candles),
		series: make(map[string][]float64),
	}
}

func (env *environment) value(ref IndicatorRef, i int) (float64, bool) {
	if i < 0 || i >= len(env.closes) {
		return math.NaN(), false
	}
	if i < ref.Window()-1 {
		return math.NaN(), false
	}
	if ref.Kind() == IndicatorPrice {
		return env.closes[i], true
	}

	label := ref.Label()
	s, ok := env.series[label]
	if !ok {
		s = env.compute(ref)
		env.series[label] = s
	}
	v := s[i]
	return v, indicator.IsDefined(v)
}

func (env *environment) compute(ref IndicatorRef) []float64 {
	switch ref.Kind() {
	case IndicatorSMA:
		return indicator.SMA(env.closes, ref.Window())
	case IndicatorEMA:
		return indicator.EMA(env.closes, ref.Window())
	case IndicatorRSI:
		return indicator.RSI(env.closes, ref.Window())
	case IndicatorMACD:
		return indicator.MACD(env.closes,
			ref.intParam("fast", defaultMACDFast),
			ref.intParam("slow", defaultMACDSlow),
			ref.intParam("signal", defaultMACDSignal),
		).MACD
	case IndicatorBollinger:
		bands := indicator.Bollinger(env.closes, ref.Window(), ref.param("std_dev", defaultBollingerStdDev))
		switch b := ref.Params["band"]; {
		case b < 0:
			return bands.Lower
		case b > 0:
			return bands.Upper
		}
		return bands.Middle
	}

	unknown := make([]float64, len(env.closes))
	for i := range unknown {
		unknown[i] = math.NaN()
	}
	return unknown
}

// anyRule reports whether at least one rule fires at bar i
func (env *environment) anyRule(rules []Rule, i int) bool {
	for _, rule := range rules {
		if env.rule(rule, i) {
			return true
		}
	}
	return false
}

// rule combines conditions by the rule's logic, and by default.
// A rule without conditions never fires.
func (env *environment) rule(rule Rule, i int) bool {
	if len(rule.Conditions) == 0 {
		return false
	}
	if strings.EqualFold(rule.Logic, LogicOr) {
		for _, c := range rule.Conditions {
			if env.condition(c, i) {
				return true
			}
		}
		return false
	}
	for _, c := range rule.Conditions {
		if !env.condition(c, i) {
			return false
		}
	}
	return true
}

func (env *environment) condition(c Condition, i int) bool {
	v1, ok1 := env.value(c.Indicator1, i)
	v2, ok2 := env.value(c.Indicator2, i)
	if !ok1 || !ok2 {
		return false
	}

	switch c.Operator {
	case OpGreater:
		return v1 > v2
	case OpLess:
		return v1 < v2
	case OpGreaterOrEqual:
		return v1 >= v2
	case OpLessOrEqual:
		return v1 <= v2
	case OpEqual:
		return math.Abs(v1-v2) < equalityTolerance
	case OpCrossesAbove, OpCrossesBelow:
		if i == 0 {
			return false
		}
		p1, ok1 := env.value(c.Indicator1, i-1)
		p2, ok2 := env.value(c.Indicator2, i-1)
		if !ok1 || !ok2 {
			return false
		}
		if c.Operator == OpCrossesAbove {
			return p1 <= p2 && v1 > v2
		}
		return p1 >= p2 && v1 < v2
	}
	return false
}
