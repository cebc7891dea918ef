package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/newthinker/stratbench/internal/app"
	"github.com/newthinker/stratbench/internal/storage/strategies"
	"github.com/newthinker/stratbench/internal/strategy"
	"github.com/newthinker/stratbench/internal/strategy/custom"
)

var strategiesCmd = &cobra.Command{
	Use:   "strategies",
	Short: "Strategy operations",
	Long:  `Commands for listing built-in strategies and managing stored custom strategies.`,
}

var strategiesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List built-in and custom strategies",
	Args:  cobra.NoArgs,
	RunE:  runStrategiesList,
}

var strategiesShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a strategy's parameters or definition",
	Args:  cobra.ExactArgs(1),
	RunE:  runStrategiesShow,
}

var strategiesImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import custom strategies from a JSON or YAML file",
	Args:  cobra.ExactArgs(1),
	RunE:  runStrategiesImport,
}

var strategiesExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export all custom strategies",
	Args:  cobra.NoArgs,
	RunE:  runStrategiesExport,
}

var strategiesDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a custom strategy",
	Args:  cobra.ExactArgs(1),
	RunE:  runStrategiesDelete,
}

var (
	exportFormat string
	exportOutput string
)

func init() {
	rootCmd.AddCommand(strategiesCmd)
	strategiesCmd.AddCommand(strategiesListCmd)
	strategiesCmd.AddCommand(strategiesShowCmd)
	strategiesCmd.AddCommand(strategiesImportCmd)
	strategiesCmd.AddCommand(strategiesExportCmd)
	strategiesCmd.AddCommand(strategiesDeleteCmd)

	strategiesExportCmd.Flags().StringVar(&exportFormat, "format", "", "json or yaml (defaults from --output extension)")
	strategiesExportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file (defaults to stdout)")
}

// withApp handles common app setup and teardown.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App, log *zap.Logger) error) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("initializing app: %w", err)
	}
	defer a.Close()

	return fn(ctx, a, log)
}

func runStrategiesList(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, a *app.App, log *zap.Logger) error {
		defs, err := a.Customs().List(ctx)
		if err != nil {
			return fmt.Errorf("listing custom strategies: %w", err)
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tKIND\tNAME\tPARAMETERS")
		for _, e := range a.Backtester().Registry().List() {
			fmt.Fprintf(w, "%s\tbuiltin\t%s\t%d\n", e.ID, e.Config.Name, len(e.Config.Parameters))
		}
		for _, def := range defs {
			fmt.Fprintf(w, "%s\tcustom\t%s\t-\n", def.ID, def.Name)
		}
		return w.Flush()
	})
}

func runStrategiesShow(cmd *cobra.Command, args []string) error {
	id := args[0]
	return withApp(cmd, func(ctx context.Context, a *app.App, log *zap.Logger) error {
		out := cmd.OutOrStdout()
		if s, ok := a.Backtester().Registry().Get(id); ok {
			printStrategyConfig(out, id, s.Config())
			return nil
		}
		if !custom.IsCustomID(id) {
			return fmt.Errorf("unknown strategy %q", id)
		}

		def, err := a.Customs().Get(ctx, id)
		if err != nil {
			return err
		}
		data, err := strategies.Encode([]*custom.Strategy{def}, strategies.FormatYAML)
		if err != nil {
			return err
		}
		_, err = out.Write(data)
		return err
	})
}

func printStrategyConfig(w io.Writer, id string, cfg strategy.Config) {
	fmt.Fprintf(w, "%s (%s)\n", cfg.Name, id)
	if cfg.Description != "" {
		fmt.Fprintf(w, "  %s\n", cfg.Description)
	}
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PARAMETER\tDEFAULT\tRANGE\tDESCRIPTION")
	for _, p := range cfg.Parameters {
		rng := "-"
		if p.Min != nil && p.Max != nil {
			rng = fmt.Sprintf("%g..%g", *p.Min, *p.Max)
		}
		if len(p.Options) > 0 {
			rng = fmt.Sprintf("%d options", len(p.Options))
		}
		fmt.Fprintf(tw, "%s\t%v\t%s\t%s\n", p.Name, p.Default, rng, p.Description)
	}
	tw.Flush()
}

func runStrategiesImport(cmd *cobra.Command, args []string) error {
	path := args[0]
	return withApp(cmd, func(ctx context.Context, a *app.App, log *zap.Logger) error {
		defs, err := strategies.ParseFile(path)
		if err != nil {
			return err
		}

		saved, err := strategies.Import(ctx, a.Customs(), defs)
		if err != nil {
			return fmt.Errorf("importing %s: %w", path, err)
		}

		log.Info("imported custom strategies", zap.String("file", path), zap.Int("count", len(saved)))
		for _, def := range saved {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", def.ID, def.Name)
		}
		return nil
	})
}

func runStrategiesExport(cmd *cobra.Command, args []string) error {
	format := strategies.FormatFromPath(exportOutput)
	if exportFormat != "" {
		f, err := strategies.ParseFormat(exportFormat)
		if err != nil {
			return err
		}
		format = f
	}

	return withApp(cmd, func(ctx context.Context, a *app.App, log *zap.Logger) error {
		defs, err := a.Customs().List(ctx)
		if err != nil {
			return fmt.Errorf("listing custom strategies: %w", err)
		}
		data, err := strategies.Encode(defs, format)
		if err != nil {
			return err
		}

		if exportOutput == "" {
			_, err = cmd.OutOrStdout().Write(data)
			return err
		}
		if err := os.WriteFile(exportOutput, data, 0644); err != nil {
			return fmt.Errorf("writing %s: %w", exportOutput, err)
		}
		log.Info("exported custom strategies", zap.String("file", exportOutput), zap.Int("count", len(defs)))
		return nil
	})
}

func runStrategiesDelete(cmd *cobra.Command, args []string) error {
	id := args[0]
	return withApp(cmd, func(ctx context.Context, a *app.App, log *zap.Logger) error {
		if a.Backtester().Registry().Has(id) {
			return fmt.Errorf("%s is a built-in strategy and cannot be deleted", id)
		}
		if err := a.Customs().Delete(ctx, id); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", id)
		return nil
	})
}
