package backtest

import (
	"math"

	"github.com/prabhatpushp/backtesting/internal/engine"
)

// Stats holds performance statistics derived from a run's ledgers. Ratios
// are fractions, not percentages: a WinRate of 0.75 means three winners in
// four trades, a MaxDrawdown of -0.2 a 20% peak-to-trough decline.
type Stats struct {
	TotalTrades   int
	WinningTrades int
	LosingTrades  int
	WinRate       float64
	// TotalReturn is final equity over initial cash, minus one.
	TotalReturn      float64
	AnnualizedReturn float64
	// MaxDrawdown is the largest peak-to-trough equity decline, zero or
	// negative.
	MaxDrawdown float64
	// SharpeRatio is the annualized mean-over-stddev of per-bar equity
	// returns, with a zero risk-free rate.
	SharpeRatio float64
	// ProfitFactor is gross profit over gross loss. It is +Inf for a run
	// with winners and no losers, and 0 for a run with no winners.
	ProfitFactor    float64
	AvgTradePnL     float64
	BestTradePnL    float64
	WorstTradePnL   float64
	TotalCommission float64
	// Exposure is the fraction of processed bars spent holding a position.
	Exposure float64
}

// CalculateStats derives performance statistics from an engine outcome.
// A run with no trades, or a single bar of history, yields zero-valued
// trade statistics rather than an error.
func CalculateStats(out *engine.Outcome, initialCash float64, barsPerYear int) Stats {
	s := Stats{
		TotalReturn: totalReturn(out.FinalEquity, initialCash),
		MaxDrawdown: maxDrawdown(out.EquityCurve),
		SharpeRatio: sharpeRatio(out.EquityCurve, barsPerYear),
	}
	s.AnnualizedReturn = annualize(s.TotalReturn, out.BarsProcessed, barsPerYear)

	var grossProfit, grossLoss, barsInPosition float64
	for _, t := range out.Trades {
		s.TotalTrades++
		s.TotalCommission += t.Commission
		s.AvgTradePnL += t.PnL
		barsInPosition += float64(t.Bars)

		if t.IsWin() {
			s.WinningTrades++
			grossProfit += t.PnL
		} else {
			s.LosingTrades++
			grossLoss += -t.PnL
		}
		if s.TotalTrades == 1 || t.PnL > s.BestTradePnL {
			s.BestTradePnL = t.PnL
		}
		if s.TotalTrades == 1 || t.PnL < s.WorstTradePnL {
			s.WorstTradePnL = t.PnL
		}
	}

	if s.TotalTrades > 0 {
		s.WinRate = float64(s.WinningTrades) / float64(s.TotalTrades)
		s.AvgTradePnL /= float64(s.TotalTrades)
	}
	switch {
	case grossLoss > 0:
		s.ProfitFactor = grossProfit / grossLoss
	case grossProfit > 0:
		s.ProfitFactor = math.Inf(1)
	}
	if out.BarsProcessed > 0 {
		s.Exposure = math.Min(barsInPosition/float64(out.BarsProcessed), 1)
	}
	return s
}

func totalReturn(finalEquity, initialCash float64) float64 {
	if initialCash <= 0 {
		return 0
	}
	return finalEquity/initialCash - 1
}

// annualize converts a total return over n bars to a per-year figure. Runs
// that lost everything annualize to -1.
func annualize(totalReturn float64, bars, barsPerYear int) float64 {
	if bars <= 0 || barsPerYear <= 0 {
		return 0
	}
	if totalReturn <= -1 {
		return -1
	}
	years := float64(bars) / float64(barsPerYear)
	if years == 0 {
		return 0
	}
	return math.Pow(1+totalReturn, 1/years) - 1
}

// maxDrawdown finds the largest peak-to-trough equity decline.
func maxDrawdown(curve []engine.EquityPoint) float64 {
	var maxDD float64
	peak := math.Inf(-1)

	for _, p := range curve {
		if p.Equity > peak {
			peak = p.Equity
		}
		if peak > 0 {
			dd := (p.Equity - peak) / peak
			if dd < maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD
}

// sharpeRatio computes the annualized risk-adjusted return from per-bar
// equity returns. Assumes a risk-free rate of 0.
func sharpeRatio(curve []engine.EquityPoint, barsPerYear int) float64 {
	var returns []float64
	for i := 1; i < len(curve); i++ {
		prev := curve[i-1].Equity
		if prev <= 0 {
			continue
		}
		returns = append(returns, curve[i].Equity/prev-1)
	}
	if len(returns) < 2 {
		return 0
	}

	var sum float64
	for _, r := range returns {
		sum += r
	}
	mean := sum / float64(len(returns))

	var variance float64
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}
	stdDev := math.Sqrt(variance / float64(len(returns)-1))
	if stdDev == 0 {
		return 0
	}

	return mean * float64(barsPerYear) / (stdDev * math.Sqrt(float64(barsPerYear)))
}
