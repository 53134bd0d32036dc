package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"blackbox/internal/config"
	"blackbox/internal/engine"
	"blackbox/internal/features"
	"blackbox/internal/repository"
	"blackbox/models"
	"blackbox/types"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/olekukonko/tablewriter"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	configPath string
	outputDir  string
	verbose    bool
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Run a backtest from a YAML configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBacktest(cmd.Context())
	},
}

func init() {
	backtestCmd.Flags().StringVarP(&configPath, "config", "c", "config.yaml", "path to run configuration")
	backtestCmd.Flags().StringVarP(&outputDir, "output", "o", ".", "directory for CSV outputs")
	backtestCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

func runBacktest(ctx context.Context) error {
	// A missing .env is fine; the config file can carry the URL itself.
	_ = godotenv.Load()

	log, err := newLogger(verbose)
	if err != nil {
		return err
	}
	defer log.Sync()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	runID := cfg.Backtest.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	log.Info("loaded configuration",
		zap.String("run_id", runID),
		zap.String("config", configPath),
		zap.Strings("universe", cfg.Data.Universe))

	snapshots, window, err := loadData(ctx, cfg, log)
	if err != nil {
		return err
	}

	modelSet, err := models.Build(cfg.Models)
	if err != nil {
		return err
	}

	runCtx, err := engine.NewRunContext(runID, cfg.Backtest, modelSet, log)
	if err != nil {
		return err
	}

	result, err := engine.NewBacktester(runCtx, snapshots, window).Run()
	if err != nil {
		if errors.Is(err, engine.ErrNoDaysProcessed) {
			return fmt.Errorf("backtest produced no results: %w", err)
		}
		return err
	}

	summary := engine.Summarize(result.Logs, cfg.Backtest.RiskFreeRateDec())
	printSummary(runID, summary)

	if err := writeOutputs(runID, result); err != nil {
		return err
	}
	log.Info("outputs written", zap.String("dir", outputDir))
	return nil
}

func loadData(ctx context.Context, cfg *config.FileConfig, log *zap.Logger) ([]types.Snapshot, *features.Window, error) {
	dbURL, err := cfg.DatabaseURL()
	if err != nil {
		return nil, nil, err
	}
	start, _ := cfg.StartDate()
	end, _ := cfg.EndDate()

	db, err := repository.NewDatabase(ctx, dbURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect datasource: %w", err)
	}
	defer db.Close()

	snapshots, err := db.LoadDailySnapshots(ctx, cfg.Data.Universe, start, end)
	if err != nil {
		return nil, nil, err
	}
	log.Info("loaded market data", zap.Int("days", len(snapshots)))

	pipeline, err := features.NewPipeline(cfg.Features)
	if err != nil {
		return nil, nil, err
	}
	window, err := pipeline.Build(snapshots)
	if err != nil {
		return nil, nil, fmt.Errorf("build features: %w", err)
	}
	return snapshots, window, nil
}

func printSummary(runID string, s engine.Summary) {
	fmt.Printf("\nRun %s: %s to %s (%d trading days)\n\n",
		runID, s.StartDate.Format("2006-01-02"), s.EndDate.Format("2006-01-02"), s.Days)

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Metric", "Value"})
	table.Append([]string{"Total Return", percent(s.TotalReturn)})
	table.Append([]string{"Annualized Return", percent(s.AnnualizedReturn)})
	table.Append([]string{"Annualized Volatility", percent(s.AnnualizedVolatility)})
	table.Append([]string{"Sharpe", s.Sharpe.StringFixed(2)})
	table.Append([]string{"Sortino", s.Sortino.StringFixed(2)})
	table.Append([]string{"Calmar", s.Calmar.StringFixed(2)})
	table.Append([]string{"Max Drawdown", percent(s.MaxDrawdown)})
	table.Render()
}

func percent(d decimal.Decimal) string {
	return d.Mul(decimal.NewFromInt(100)).StringFixed(2) + "%"
}

func writeOutputs(runID string, result *engine.RunResult) error {
	ledgerPath := filepath.Join(outputDir, fmt.Sprintf("%s_ledger.csv", runID))
	if err := engine.WriteLedgerCSVFile(ledgerPath, result.Logs); err != nil {
		return err
	}
	tradesPath := filepath.Join(outputDir, fmt.Sprintf("%s_trades.csv", runID))
	return engine.WriteTradeHistoryCSVFile(tradesPath, result.Trades)
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
