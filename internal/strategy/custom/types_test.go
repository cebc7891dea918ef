package custom

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/newthinker/stratbench/internal/core"
)

func TestIndicatorRef_Window(t *testing.T) {
	tests := []struct {
		name string
		ref  IndicatorRef
		want int
	}{
		{"price", IndicatorRef{Type: "price"}, 0},
		{"price with period", IndicatorRef{Type: "price", Period: 50}, 50},
		{"sma explicit", IndicatorRef{Type: "sma", Period: 10}, 10},
		{"sma default", IndicatorRef{Type: "SMA"}, 20},
		{"rsi default", IndicatorRef{Type: "rsi"}, 14},
		{"macd slow", IndicatorRef{Type: "macd", Params: map[string]float64{"slow": 30}}, 30},
		{"macd default", IndicatorRef{Type: "macd"}, 26},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.ref.Window())
		})
	}
}

func TestIndicatorRef_Label(t *testing.T) {
	assert.Equal(t, "sma_20", IndicatorRef{Type: "SMA", Period: 20}.Label())
	assert.Equal(t, "price", IndicatorRef{Type: "Price"}.Label())
	assert.Equal(t, "price_50", IndicatorRef{Type: "price", Period: 50}.Label())
	assert.Equal(t, "macd_12_26_9", IndicatorRef{Type: "macd"}.Label())
	assert.Equal(t, "bollinger_20_2_upper",
		IndicatorRef{Type: "bollinger", Period: 20, Params: map[string]float64{"band": 1}}.Label())
}

func TestStrategy_MaxPeriod(t *testing.T) {
	s := &Strategy{
		BuyRules: []Rule{{Conditions: []Condition{
			{Indicator1: IndicatorRef{Type: "sma", Period: 10}, Operator: ">", Indicator2: IndicatorRef{Type: "price"}},
		}}},
		SellRules: []Rule{{Conditions: []Condition{
			{Indicator1: IndicatorRef{Type: "ema", Period: 50}, Operator: "<", Indicator2: IndicatorRef{Type: "rsi", Period: 14}},
		}}},
	}
	assert.Equal(t, 50, s.MaxPeriod())

	s.BuyRules[0].Conditions[0].Indicator2.Period = 60
	assert.Equal(t, 60, s.MaxPeriod())
}

func TestIsCustomID(t *testing.T) {
	assert.True(t, IsCustomID("custom_abc"))
	assert.False(t, IsCustomID("sma_crossover"))
}

func validStrategy() *Strategy {
	return &Strategy{
		Name: "price over sma",
		BuyRules: []Rule{{
			Type:  "buy",
			Logic: "and",
			Conditions: []Condition{{
				ID:         "c1",
				Indicator1: IndicatorRef{Type: "price"},
				Operator:   OpCrossesAbove,
				Indicator2: IndicatorRef{Type: "SMA", Period: 5},
			}},
		}},
		SellRules: []Rule{{
			Type:  "sell",
			Logic: "or",
			Conditions: []Condition{{
				ID:         "c2",
				Indicator1: IndicatorRef{Type: "price"},
				Operator:   OpCrossesBelow,
				Indicator2: IndicatorRef{Type: "sma", Period: 5},
			}},
		}},
	}
}

func TestValidate(t *testing.T) {
	assert.NoError(t, validStrategy().Validate())

	tests := []struct {
		name   string
		mutate func(s *Strategy)
	}{
		{"missing name", func(s *Strategy) { s.Name = " " }},
		{"no buy rules", func(s *Strategy) { s.BuyRules = nil }},
		{"unknown operator", func(s *Strategy) { s.BuyRules[0].Conditions[0].Operator = "!=" }},
		{"unknown indicator", func(s *Strategy) { s.SellRules[0].Conditions[0].Indicator2.Type = "vwap" }},
		{"unknown logic", func(s *Strategy) { s.BuyRules[0].Logic = "xor" }},
		{"mismatched rule type", func(s *Strategy) { s.SellRules[0].Type = "buy" }},
		{"negative period", func(s *Strategy) { s.BuyRules[0].Conditions[0].Indicator2.Period = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validStrategy()
			tt.mutate(s)
			err := s.Validate()
			assert.True(t, errors.Is(err, core.ErrInvalidStrategy), "got %v", err)
		})
	}
}
