package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	"github.com/newthinker/stratbench/internal/app"
	"github.com/newthinker/stratbench/internal/backtest"
	"github.com/newthinker/stratbench/internal/storage/strategies"
	"github.com/newthinker/stratbench/internal/strategy"
	"github.com/newthinker/stratbench/internal/strategy/custom"
)

const dateLayout = "2006-01-02"

var (
	backtestSymbol     string
	backtestFrom       string
	backtestTo         string
	backtestInterval   string
	backtestSource     string
	backtestCapital    float64
	backtestSize       float64
	backtestFee        float64
	backtestParams     []string
	backtestCustomFile string
	backtestTradesCSV  string
	backtestJSON       bool
)

var backtestCmd = &cobra.Command{
	Use:   "backtest [strategy]",
	Short: "Run backtest on a strategy",
	Long: `Run a strategy against historical data and show performance statistics.

The strategy is a built-in id (see "strategies list"), a stored custom_ id, or,
with --custom-file, the id or name of a definition in that file.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBacktest,
}

func init() {
	f := backtestCmd.Flags()
	f.StringVar(&backtestSymbol, "symbol", "", "Instrument to backtest (required)")
	f.StringVar(&backtestFrom, "from", "", "Start date YYYY-MM-DD (required)")
	f.StringVar(&backtestTo, "to", "", "End date YYYY-MM-DD, inclusive (required)")
	f.StringVar(&backtestInterval, "interval", "", "Candle interval (defaults to backtest.default_interval)")
	f.StringVar(&backtestSource, "source", "", "Candle source, overrides collector.provider")
	f.Float64Var(&backtestCapital, "capital", 0, "Initial capital (defaults to backtest.initial_capital)")
	f.Float64Var(&backtestSize, "size", 0, "Position size percentage (defaults to backtest.position_size_pct)")
	f.Float64Var(&backtestFee, "fee", 0, "Fee percentage per trade (defaults to backtest.fee_pct)")
	f.StringArrayVar(&backtestParams, "param", nil, "Strategy parameter name=value, repeatable")
	f.StringVar(&backtestCustomFile, "custom-file", "", "JSON or YAML file with custom strategy definitions")
	f.StringVar(&backtestTradesCSV, "trades-csv", "", "Write executed trades to this CSV file")
	f.BoolVar(&backtestJSON, "json", false, "Print the full result as JSON")

	backtestCmd.MarkFlagRequired("symbol")
	backtestCmd.MarkFlagRequired("from")
	backtestCmd.MarkFlagRequired("to")

	rootCmd.AddCommand(backtestCmd)
}

func runBacktest(cmd *cobra.Command, args []string) error {
	var strategyID string
	if len(args) > 0 {
		strategyID = args[0]
	}
	if strategyID == "" && backtestCustomFile == "" {
		return fmt.Errorf("a strategy id or --custom-file is required")
	}
	params, err := strategy.ParseParams(backtestParams)
	if err != nil {
		return err
	}

	// Parse from date
	fromDate, err := time.Parse(dateLayout, backtestFrom)
	if err != nil {
		return fmt.Errorf("invalid from date format (expected YYYY-MM-DD): %w", err)
	}

	// Parse to date; the whole day is included
	toDate, err := time.Parse(dateLayout, backtestTo)
	if err != nil {
		return fmt.Errorf("invalid to date format (expected YYYY-MM-DD): %w", err)
	}
	toDate = toDate.Add(24*time.Hour - time.Second)

	// Validate date range
	if toDate.Before(fromDate) {
		return fmt.Errorf("end date must be after start date")
	}

	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()
	if backtestSource != "" {
		cfg.Collector.Provider = backtestSource
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if cfg.Backtest.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Backtest.Timeout)
		defer cancel()
	}

	application, err := app.New(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("initializing app: %w", err)
	}
	defer application.Close()

	req := backtest.Request{
		Instrument: backtestSymbol,
		From:       fromDate,
		To:         toDate,
		Interval:   backtestInterval,
		StrategyID: strategyID,
		Params:     params,
		Simulation: application.Simulation(),
	}
	if req.Interval == "" {
		req.Interval = cfg.Backtest.DefaultInterval
	}
	if backtestCapital > 0 {
		req.Simulation.InitialCapital = backtestCapital
	}
	if backtestSize > 0 {
		req.Simulation.PositionSizePct = backtestSize
	}
	if cmd.Flags().Changed("fee") {
		req.Simulation.FeePct = backtestFee
	}

	if backtestCustomFile != "" {
		def, err := pickCustom(backtestCustomFile, strategyID)
		if err != nil {
			return err
		}
		req.Custom = def
		req.StrategyID = def.ID
	}

	result, err := application.Backtester().Run(ctx, req)
	if err != nil {
		return fmt.Errorf("backtest failed: %w", err)
	}

	if backtestTradesCSV != "" {
		if err := writeTrades(backtestTradesCSV, result.Trades); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	if backtestJSON {
		return printJSON(out, result)
	}
	printResult(out, result)
	return nil
}

// pickCustom selects a definition from a file by id or name, or the first one
func pickCustom(path, want string) (*custom.Strategy, error) {
	defs, err := strategies.ParseFile(path)
	if err != nil {
		return nil, err
	}
	if len(defs) == 0 {
		return nil, fmt.Errorf("%s contains no strategies", path)
	}
	if want == "" {
		return defs[0], nil
	}
	for _, def := range defs {
		if def.ID == want || def.Name == want {
			return def, nil
		}
	}
	return nil, fmt.Errorf("strategy %q not found in %s", want, path)
}

func writeTrades(path string, trades []backtest.Trade) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating trades file: %w", err)
	}
	if err := backtest.WriteTradesCSV(f, trades); err != nil {
		f.Close()
		return fmt.Errorf("writing trades: %w", err)
	}
	return f.Close()
}

func printJSON(w io.Writer, v any) error {
	data, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func printResult(w io.Writer, r *backtest.Result) {
	fmt.Fprintln(w, "=== stratbench Backtest ===")
	fmt.Fprintf(w, "Strategy: %s (%s)\n", r.StrategyName, r.Strategy)
	fmt.Fprintf(w, "Symbol:   %s\n", r.Instrument)
	fmt.Fprintf(w, "Period:   %s to %s (%d bars)\n", r.From.Format(dateLayout), r.To.Format(dateLayout), r.Bars)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Initial capital: %.2f\n", r.InitialCapital)
	fmt.Fprintf(w, "Final value:     %.2f\n", r.FinalValue)
	fmt.Fprintf(w, "Total return:    %.2f (%.2f%%)\n", r.TotalReturn, r.ReturnPercentage)
	fmt.Fprintf(w, "Trades:          %d (%d skipped signals)\n", r.TotalTrades, r.SkippedSignals)
	fmt.Fprintf(w, "Win rate:        %.1f%% (%dW/%dL)\n", r.WinRate, r.WinningTrades, r.LosingTrades)
	fmt.Fprintf(w, "Max drawdown:    %.2f%%\n", r.MaxDrawdownPercentage)
	fmt.Fprintf(w, "Sharpe ratio:    %.2f\n", r.SharpeRatio)
	fmt.Fprintf(w, "Fees:            %.2f\n", r.TotalFees)
	fmt.Fprintln(w)
	fmt.Fprintln(w, r.Summary())
}
