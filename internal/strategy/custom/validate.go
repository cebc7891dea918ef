package custom

import (
	"errors"
	"fmt"
	"strings"

	"github.com/newthinker/stratbench/internal/core"
)

var validIndicators = map[string]bool{
	IndicatorSMA:       true,
	IndicatorEMA:       true,
	IndicatorRSI:       true,
	IndicatorMACD:      true,
	IndicatorBollinger: true,
	IndicatorPrice:     true,
}

var validOperators = map[string]bool{
	OpGreater:        true,
	OpLess:           true,
	OpGreaterOrEqual: true,
	OpLessOrEqual:    true,
	OpEqual:          true,
	OpCrossesAbove:   true,
	OpCrossesBelow:   true,
}

// Validate checks that a strategy only uses known indicators, operators and logic.
// Errors match core.ErrInvalidStrategy.
func (s *Strategy) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return invalid("name is required")
	}
	if len(s.BuyRules) == 0 {
		return invalid("at least one buy rule is required")
	}

	for i, rule := range s.BuyRules {
		if err := validateRule(rule, RuleBuy); err != nil {
			return invalid(fmt.Sprintf("buy rule %d: %v", i, err))
		}
	}
	for i, rule := range s.SellRules {
		if err := validateRule(rule, RuleSell); err != nil {
			return invalid(fmt.Sprintf("sell rule %d: %v", i, err))
		}
	}
	return nil
}

func validateRule(rule Rule, side string) error {
	if rule.Type != "" && !strings.EqualFold(rule.Type, side) {
		return fmt.Errorf("type %q does not match %s", rule.Type, side)
	}
	switch strings.ToLower(rule.Logic) {
	case "", LogicAnd, LogicOr:
	default:
		return fmt.Errorf("unknown logic %q", rule.Logic)
	}

	for _, c := range rule.Conditions {
		if !validOperators[c.Operator] {
			return fmt.Errorf("condition %s: unknown operator %q", c.ID, c.Operator)
		}
		for _, ref := range []IndicatorRef{c.Indicator1, c.Indicator2} {
			if !validIndicators[ref.Kind()] {
				return fmt.Errorf("condition %s: unknown indicator %q", c.ID, ref.Type)
			}
			if ref.Period < 0 {
				return fmt.Errorf("condition %s: negative period %d", c.ID, ref.Period)
			}
		}
	}
	return nil
}

func invalid(msg string) error {
	return core.WrapError(core.ErrInvalidStrategy, errors.New(msg))
}
