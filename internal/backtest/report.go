package backtest

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// WriteTradesCSV writes a run's trade ledger to <dir>/<runID>_trades.csv
// and returns the file path.
func WriteTradesCSV(dir string, res *Result) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating results directory: %w", err)
	}

	path := filepath.Join(dir, res.RunID.String()+"_trades.csv")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating trades file: %w", err)
	}

	w := csv.NewWriter(f)
	header := []string{
		"strategy", "symbol", "side", "size",
		"entry_time", "entry_price", "exit_time", "exit_price",
		"bars", "pnl", "commission", "reason",
	}
	if err := w.Write(header); err != nil {
		f.Close()
		return "", err
	}

	for _, t := range res.Trades {
		record := []string{
			res.Strategy,
			res.Symbol,
			string(t.Side),
			formatFloat(t.Size),
			t.EntryTime.Format(time.RFC3339),
			formatFloat(t.EntryPrice),
			t.ExitTime.Format(time.RFC3339),
			formatFloat(t.ExitPrice),
			strconv.Itoa(t.Bars),
			formatFloat(t.PnL),
			formatFloat(t.Commission),
			t.Reason,
		}
		if err := w.Write(record); err != nil {
			f.Close()
			return "", err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return "", err
	}
	return path, f.Close()
}

// Summary renders a compact human-readable report of one result.
func Summary(res *Result) string {
	s := res.Stats
	status := res.Status()

	out := fmt.Sprintf("%s on %s (%s to %s): %s\n",
		res.Strategy, res.Symbol,
		res.StartDate.Format("2006-01-02"), res.EndDate.Format("2006-01-02"),
		status)
	out += fmt.Sprintf("  equity        %12.2f -> %12.2f (%+.2f%%)\n",
		res.InitialCash, res.FinalEquity, s.TotalReturn*100)
	out += fmt.Sprintf("  annualized    %+.2f%%   max drawdown %.2f%%   sharpe %.2f\n",
		s.AnnualizedReturn*100, s.MaxDrawdown*100, s.SharpeRatio)
	out += fmt.Sprintf("  trades        %d (%d win / %d loss, %.0f%% win rate)\n",
		s.TotalTrades, s.WinningTrades, s.LosingTrades, s.WinRate*100)
	out += fmt.Sprintf("  avg trade     %+.2f   best %+.2f   worst %+.2f\n",
		s.AvgTradePnL, s.BestTradePnL, s.WorstTradePnL)
	out += fmt.Sprintf("  commission    %.2f   exposure %.0f%%\n",
		s.TotalCommission, s.Exposure*100)
	return out
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
