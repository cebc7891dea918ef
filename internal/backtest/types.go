package backtest

import (
	"fmt"
	"time"
)

// Action is the side of an executed trade
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
)

// Trade is one executed fill produced by the simulator
type Trade struct {
	Date           time.Time          `json:"date"`
	Action         Action             `json:"action"`
	Price          float64            `json:"price"`
	Quantity       int                `json:"quantity"`
	Value          float64            `json:"value"`
	Fee            float64            `json:"fee"`
	CashAfter      float64            `json:"cash_after"`
	HoldingsAfter  int                `json:"holdings_after"`
	PortfolioValue float64            `json:"portfolio_value"`
	Indicators     map[string]float64 `json:"indicators,omitempty"`
}

// EquityPoint is the marked-to-market portfolio at the close of one bar
type EquityPoint struct {
	Date     time.Time `json:"date"`
	Value    float64   `json:"value"`
	Cash     float64   `json:"cash"`
	Holdings int       `json:"holdings"`
	Drawdown float64   `json:"drawdown"`
}

// Stats holds trade statistics and risk metrics
type Stats struct {
	TotalTrades           int     `json:"total_trades"`
	WinningTrades         int     `json:"winning_trades"`
	LosingTrades          int     `json:"losing_trades"`
	WinRate               float64 `json:"win_rate"`
	MaxDrawdown           float64 `json:"max_drawdown"`
	MaxDrawdownPercentage float64 `json:"max_drawdown_percentage"`
	SharpeRatio           float64 `json:"sharpe_ratio"`
	TotalFees             float64 `json:"total_fees"`
	AvgTradeReturn        float64 `json:"avg_trade_return"`
	BestTrade             float64 `json:"best_trade"`
	WorstTrade            float64 `json:"worst_trade"`
}

// Result holds the complete backtest output
type Result struct {
	ID           string    `json:"id"`
	Strategy     string    `json:"strategy_id"`
	StrategyName string    `json:"strategy_name"`
	Instrument   string    `json:"instrument_token"`
	Interval     string    `json:"interval"`
	From         time.Time `json:"from_date"`
	To           time.Time `json:"to_date"`
	Bars         int       `json:"bars"`

	InitialCapital   float64 `json:"initial_capital"`
	FinalValue       float64 `json:"final_value"`
	TotalReturn      float64 `json:"total_return"`
	ReturnPercentage float64 `json:"return_percentage"`
	Stats
	SkippedSignals int `json:"skipped_signals"`

	Trades      []Trade       `json:"trades"`
	EquityCurve []EquityPoint `json:"equity_curve"`

	CreatedAt  time.Time `json:"created_at"`
	DurationMs int64     `json:"duration_ms"`
}

// CompletedPairs returns the number of buy/sell pairs used for statistics
func (r *Result) CompletedPairs() int {
	return r.WinningTrades + r.LosingTrades
}

// Summary renders the headline figures on one line
func (r *Result) Summary() string {
	return fmt.Sprintf("%s on %s: return %.2f%% (%.2f), trades %d (%d closed), win rate %.1f%% (%dW/%dL), max drawdown %.2f%%, sharpe %.2f, fees %.2f",
		r.StrategyName, r.Instrument,
		r.ReturnPercentage, r.TotalReturn,
		r.TotalTrades, r.CompletedPairs(), r.WinRate, r.WinningTrades, r.LosingTrades,
		r.MaxDrawdownPercentage, r.SharpeRatio, r.TotalFees,
	)
}
