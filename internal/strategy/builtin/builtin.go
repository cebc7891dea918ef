// Package builtin wires the bundled signal generators into a registry.
package builtin

import (
	"go.uber.org/zap"

	"github.com/newthinker/stratbench/internal/strategy"
	"github.com/newthinker/stratbench/internal/strategy/bollinger"
	"github.com/newthinker/stratbench/internal/strategy/macd"
	"github.com/newthinker/stratbench/internal/strategy/rsi"
	"github.com/newthinker/stratbench/internal/strategy/sma_crossover"
)

// Strategies returns a fresh instance of every built-in strategy in listing order
func Strategies() []strategy.Strategy {
	return []strategy.Strategy{
		sma_crossover.New(20, 50),
		rsi.New(),
		macd.New(),
		bollinger.New(),
	}
}

// NewRegistry returns a registry holding the built-in strategies
func NewRegistry(logger *zap.Logger) *strategy.Registry {
	reg := strategy.NewRegistry(logger)
	for _, s := range Strategies() {
		reg.Register(s)
	}
	return reg
}
