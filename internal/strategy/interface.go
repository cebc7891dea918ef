package strategy

import (
	"github.com/newthinker/stratbench/internal/core"
)

// ParameterType describes how a parameter is rendered in forms
type ParameterType string

const (
	ParamNumber ParameterType = "number"
	ParamSelect ParameterType = "select"
)

// Option is one choice of a select parameter
type Option struct {
	Value any    `json:"value" yaml:"value"`
	Label string `json:"label" yaml:"label"`
}

// Parameter is a declarative descriptor of a tunable strategy input
type Parameter struct {
	Name        string        `json:"name" yaml:"name"`
	Label       string        `json:"label" yaml:"label"`
	Type        ParameterType `json:"type" yaml:"type"`
	Default     any           `json:"default" yaml:"default"`
	Min         *float64      `json:"min,omitempty" yaml:"min,omitempty"`
	Max         *float64      `json:"max,omitempty" yaml:"max,omitempty"`
	Step        *float64      `json:"step,omitempty" yaml:"step,omitempty"`
	Options     []Option      `json:"options,omitempty" yaml:"options,omitempty"`
	Description string        `json:"description,omitempty" yaml:"description,omitempty"`
}

// Config describes a strategy for UI population and introspection
type Config struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Parameters  []Parameter `json:"parameters"`
}

// Strategy defines the interface for signal generators
type Strategy interface {
	ID() string
	Config() Config
	GenerateSignals(candles []core.Candle, params Params) ([]core.SignalPoint, error)
}

// NumberParam builds a numeric parameter descriptor
func NumberParam(name, label string, def, min, max, step float64, description string) Parameter {
	return Parameter{
		Name:        name,
		Label:       label,
		Type:        ParamNumber,
		Default:     def,
		Min:         &min,
		Max:         &max,
		Step:        &step,
		Description: description,
	}
}
