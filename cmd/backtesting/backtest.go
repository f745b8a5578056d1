package main

import (
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/prabhatpushp/backtesting/internal/backtest"
	"github.com/prabhatpushp/backtesting/internal/dataset"
	"github.com/prabhatpushp/backtesting/internal/metrics"
)

var (
	backtestSymbol string
	backtestFile   string
)

var backtestCmd = &cobra.Command{
	Use:   "backtest [strategy]",
	Short: "Run a backtest on a single symbol",
	Long:  "Run a strategy against one symbol's historical data and show performance statistics",
	Args:  cobra.ExactArgs(1),
	RunE:  runBacktest,
}

func init() {
	backtestCmd.Flags().StringVar(&backtestSymbol, "symbol", "", "Symbol to backtest, resolved as <stocks_dir>/<symbol>.csv")
	backtestCmd.Flags().StringVar(&backtestFile, "file", "", "CSV file to backtest (overrides --symbol)")

	rootCmd.AddCommand(backtestCmd)
}

func runBacktest(cmd *cobra.Command, args []string) error {
	log, cfg, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	registry, err := buildRegistry(cfg)
	if err != nil {
		return err
	}
	strat, ok := registry.Get(args[0])
	if !ok {
		return fmt.Errorf("unknown strategy %q, try the strategies command", args[0])
	}

	path := backtestFile
	if path == "" {
		if backtestSymbol == "" {
			return fmt.Errorf("either --symbol or --file is required")
		}
		path = filepath.Join(cfg.Data.StocksDir, backtestSymbol+".csv")
	}

	loader := dataset.NewLoader(cfg.Data.Columns, log)
	series, err := loader.LoadFile(path)
	if err != nil {
		return fmt.Errorf("loading data: %w", err)
	}

	reg := metrics.NewRegistry()
	serveMetrics(cfg, reg, log)

	runner, err := backtest.NewRunner(cfg.Engine, log, reg, 1)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	res, err := runner.Run(ctx, series, strat)
	if err != nil {
		return fmt.Errorf("running backtest: %w", err)
	}

	fmt.Print(backtest.Summary(res))

	if cfg.Results.SaveTrades && len(res.Trades) > 0 {
		path, err := backtest.WriteTradesCSV(cfg.Results.Dir, res)
		if err != nil {
			return fmt.Errorf("saving trades: %w", err)
		}
		log.Info("trades saved", zap.String("path", path))
	}
	return nil
}
