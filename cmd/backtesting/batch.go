package main

import (
	"fmt"
	"math/rand"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/prabhatpushp/backtesting/internal/backtest"
	"github.com/prabhatpushp/backtesting/internal/core"
	"github.com/prabhatpushp/backtesting/internal/dataset"
	"github.com/prabhatpushp/backtesting/internal/metrics"
	"github.com/prabhatpushp/backtesting/internal/strategy"
)

var (
	batchCount int
	batchSeed  int64
)

var batchCmd = &cobra.Command{
	Use:   "batch [strategy...]",
	Short: "Run a backtest across a random universe of symbols",
	Long: `Sample symbols from the data directory and backtest one or more
strategies over each of them in parallel. The sample is seeded, so the same
seed always selects the same universe, making strategy runs comparable.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().IntVar(&batchCount, "count", 0, "number of symbols to sample (default from config)")
	batchCmd.Flags().Int64Var(&batchSeed, "seed", 0, "universe sampling seed (default from config)")

	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	log, cfg, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	registry, err := buildRegistry(cfg)
	if err != nil {
		return err
	}
	var strats []strategy.Strategy
	for _, name := range args {
		strat, ok := registry.Get(name)
		if !ok {
			return fmt.Errorf("unknown strategy %q, try the strategies command", name)
		}
		strats = append(strats, strat)
	}

	count := cfg.Randomizer.Count
	if batchCount > 0 {
		count = batchCount
	}
	seed := cfg.Randomizer.Seed
	if cmd.Flags().Changed("seed") {
		seed = batchSeed
	}

	files, err := dataset.ListFiles(cfg.Data.StocksDir)
	if err != nil {
		return fmt.Errorf("listing data files: %w", err)
	}
	if cfg.Randomizer.Enabled {
		files = dataset.Sample(files, count, rand.New(rand.NewSource(seed)))
	}
	if len(files) == 0 {
		return fmt.Errorf("no CSV files found in %s", cfg.Data.StocksDir)
	}
	log.Info("universe selected",
		zap.Int("symbols", len(files)),
		zap.Int64("seed", seed))

	loader := dataset.NewLoader(cfg.Data.Columns, log)
	var universe []*core.Series
	for _, path := range files {
		series, err := loader.LoadFile(path)
		if err != nil {
			log.Warn("skipping file", zap.String("path", path), zap.Error(err))
			continue
		}
		universe = append(universe, series)
	}
	if len(universe) == 0 {
		return fmt.Errorf("no loadable data in the selected universe")
	}

	reg := metrics.NewRegistry()
	serveMetrics(cfg, reg, log)

	parallel := cfg.Parallel
	if parallel < 1 {
		parallel = 1
	}
	runner, err := backtest.NewRunner(cfg.Engine, log, reg, parallel)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	for _, strat := range strats {
		results, err := runner.RunBatch(ctx, universe, strat)
		if err != nil {
			return fmt.Errorf("running batch for %s: %w", strat.Name(), err)
		}

		var totalTrades, bankrupt int
		var sumReturn float64
		for _, res := range results {
			fmt.Print(backtest.Summary(res))
			fmt.Println()

			totalTrades += res.Stats.TotalTrades
			sumReturn += res.Stats.TotalReturn
			if res.Bankrupt {
				bankrupt++
			}

			if cfg.Results.SaveTrades && len(res.Trades) > 0 {
				path, err := backtest.WriteTradesCSV(cfg.Results.Dir, res)
				if err != nil {
					return fmt.Errorf("saving trades: %w", err)
				}
				log.Debug("trades saved", zap.String("path", path))
			}
		}

		fmt.Printf("%s: %d symbols, %d trades, mean return %+.2f%%, %d bankrupt\n",
			strat.Name(), len(results), totalTrades, sumReturn/float64(len(results))*100, bankrupt)
	}
	return nil
}
