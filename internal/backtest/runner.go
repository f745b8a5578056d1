package backtest

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/prabhatpushp/backtesting/internal/core"
	"github.com/prabhatpushp/backtesting/internal/engine"
	"github.com/prabhatpushp/backtesting/internal/metrics"
	"github.com/prabhatpushp/backtesting/internal/strategy"
)

// Runner executes backtest runs and assembles Results. A single Runner may
// serve many runs; each run gets its own engine, so runs never share
// mutable state.
type Runner struct {
	cfg      engine.Config
	log      *zap.Logger
	metrics  *metrics.Registry
	parallel int
}

// NewRunner builds a Runner. The metrics registry may be nil, in which case
// no metrics are recorded. parallel bounds concurrent runs in RunBatch;
// values below 1 mean sequential execution.
func NewRunner(cfg engine.Config, log *zap.Logger, reg *metrics.Registry, parallel int) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	if parallel < 1 {
		parallel = 1
	}
	return &Runner{cfg: cfg, log: log, metrics: reg, parallel: parallel}, nil
}

// Run backtests one strategy over one series and derives its statistics.
func (r *Runner) Run(ctx context.Context, series *core.Series, strat strategy.Strategy) (*Result, error) {
	start := time.Now()

	eng, err := engine.New(r.cfg, series, strat, r.log)
	if err != nil {
		return nil, err
	}
	out, err := eng.Run(ctx)
	if err != nil {
		if r.metrics != nil {
			r.metrics.RecordRun(strat.Name(), "failed", time.Since(start).Seconds())
		}
		return nil, err
	}

	first, _ := series.At(0)
	last, _ := series.At(series.Len() - 1)

	res := &Result{
		RunID:       uuid.New(),
		Strategy:    strat.Name(),
		Symbol:      series.Symbol(),
		StartDate:   first.Time,
		EndDate:     last.Time,
		InitialCash: r.cfg.InitialCash,
		FinalEquity: out.FinalEquity,
		Bankrupt:    out.Bankrupt,
		Trades:      out.Trades,
		EquityCurve: out.EquityCurve,
		Stats:       CalculateStats(out, r.cfg.InitialCash, r.cfg.BarsPerYear),
	}

	if r.metrics != nil {
		r.metrics.RecordRun(res.Strategy, res.Status(), time.Since(start).Seconds())
		r.metrics.RecordTrades(res.Strategy, res.Stats.WinningTrades, res.Stats.LosingTrades)
		r.metrics.RecordOrders(res.Strategy, out.OrdersSubmitted, out.OrdersRejected, out.OrdersExpired)
		r.metrics.AddBarsProcessed(out.BarsProcessed)
	}

	r.log.Info("backtest completed",
		zap.String("run_id", res.RunID.String()),
		zap.String("strategy", res.Strategy),
		zap.String("symbol", res.Symbol),
		zap.Int("trades", res.Stats.TotalTrades),
		zap.Float64("final_equity", res.FinalEquity),
		zap.Float64("total_return", res.Stats.TotalReturn),
		zap.Bool("bankrupt", res.Bankrupt),
		zap.Duration("elapsed", time.Since(start)))

	return res, nil
}

// RunBatch backtests one strategy over many series concurrently, bounded by
// the runner's parallelism. Results keep the order of the input series.
// Decide must be a pure function of its context, so a single strategy value
// is safe to share across the batch.
func (r *Runner) RunBatch(ctx context.Context, series []*core.Series, strat strategy.Strategy) ([]*Result, error) {
	results := make([]*Result, len(series))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.parallel)
	for i, s := range series {
		i, s := i, s
		g.Go(func() error {
			if r.metrics != nil {
				r.metrics.BatchInc()
				defer r.metrics.BatchDec()
			}
			res, err := r.Run(gctx, s, strat)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
