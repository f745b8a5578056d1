// Package backtest turns raw engine outcomes into reported results:
// per-run identifiers, derived performance statistics and parallel
// multi-symbol execution.
package backtest

import (
	"time"

	"github.com/google/uuid"

	"github.com/prabhatpushp/backtesting/internal/engine"
)

// Result holds the complete output of one backtest run.
type Result struct {
	RunID       uuid.UUID
	Strategy    string
	Symbol      string
	StartDate   time.Time
	EndDate     time.Time
	InitialCash float64
	FinalEquity float64
	Bankrupt    bool
	Trades      []engine.Trade
	EquityCurve []engine.EquityPoint
	Stats       Stats
}

// Status returns the run's terminal status label as reported to metrics.
func (r *Result) Status() string {
	if r.Bankrupt {
		return "bankrupt"
	}
	return "completed"
}
