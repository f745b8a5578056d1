package macross_test

import (
	"testing"
	"time"

	"github.com/prabhatpushp/backtesting/internal/core"
	"github.com/prabhatpushp/backtesting/internal/strategy"
	"github.com/prabhatpushp/backtesting/internal/strategy/macross"
)

func decisionCtx(closes ...float64) strategy.DecisionContext {
	bars := make([]core.Bar, len(closes))
	for i, c := range closes {
		bars[i] = core.Bar{
			Time:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i),
			Open:   c,
			High:   c,
			Low:    c,
			Close:  c,
			Volume: 1000,
		}
	}
	return strategy.DecisionContext{
		Symbol: "TEST",
		Bars:   bars,
		Index:  len(bars) - 1,
		Cash:   10_000,
		Equity: 10_000,
	}
}

func TestMACross_GoldenCross(t *testing.T) {
	// MA2 vs MA3 over [10 9 8 7 8 12]:
	// previous bar: 7.5 vs 7.67 (fast below), last bar: 10 vs 9 (fast above).
	strat := macross.New(2, 3, 0.5)
	intents, err := strat.Decide(decisionCtx(10, 9, 8, 7, 8, 12))
	if err != nil {
		t.Fatalf("Decide failed: %v", err)
	}

	if len(intents) != 1 {
		t.Fatalf("expected 1 intent, got: %d", len(intents))
	}
	if intents[0].Type != strategy.IntentOpenLong {
		t.Errorf("expected OpenLong on a golden cross, got: %s", intents[0].Type)
	}
	if intents[0].SizePct != 0.5 {
		t.Errorf("expected size 0.5 of equity, got: %f", intents[0].SizePct)
	}
}

func TestMACross_DeathCross(t *testing.T) {
	// MA2 vs MA3 over [10 11 12 13 12 8]:
	// previous bar: 12.5 vs 12.33 (fast above), last bar: 10 vs 11 (fast below).
	closes := []float64{10, 11, 12, 13, 12, 8}

	t.Run("flat opens short", func(t *testing.T) {
		strat := macross.New(2, 3, 0.5)
		intents, err := strat.Decide(decisionCtx(closes...))
		if err != nil {
			t.Fatalf("Decide failed: %v", err)
		}
		if len(intents) != 1 || intents[0].Type != strategy.IntentOpenShort {
			t.Fatalf("expected OpenShort while flat, got: %+v", intents)
		}
	})

	t.Run("long closes", func(t *testing.T) {
		strat := macross.New(2, 3, 0.5)
		ctx := decisionCtx(closes...)
		ctx.Position = &strategy.PositionView{Side: core.SideLong, EntryPrice: 10, Size: 100}

		intents, err := strat.Decide(ctx)
		if err != nil {
			t.Fatalf("Decide failed: %v", err)
		}
		if len(intents) != 1 || intents[0].Type != strategy.IntentClose {
			t.Fatalf("expected Close while long, got: %+v", intents)
		}
		if intents[0].Fraction != 1 {
			t.Errorf("expected the whole position closed, got fraction: %f", intents[0].Fraction)
		}
	})

	t.Run("short holds", func(t *testing.T) {
		strat := macross.New(2, 3, 0.5)
		ctx := decisionCtx(closes...)
		ctx.Position = &strategy.PositionView{Side: core.SideShort, EntryPrice: 12, Size: 100}

		intents, err := strat.Decide(ctx)
		if err != nil {
			t.Fatalf("Decide failed: %v", err)
		}
		if len(intents) != 0 {
			t.Errorf("expected no intent while already short, got: %+v", intents)
		}
	})
}

func TestMACross_EqualAveragesNoCross(t *testing.T) {
	strat := macross.New(2, 3, 0.5)
	// A constant series keeps both averages equal: never a cross.
	intents, err := strat.Decide(decisionCtx(10, 10, 10, 10, 10, 10))
	if err != nil {
		t.Fatalf("Decide failed: %v", err)
	}
	if len(intents) != 0 {
		t.Errorf("expected no intents on equal averages, got: %+v", intents)
	}
}

func TestMACross_InsufficientHistory(t *testing.T) {
	strat := macross.New(2, 3, 0.5)
	intents, err := strat.Decide(decisionCtx(10, 11, 12))
	if err != nil {
		t.Fatalf("Decide failed: %v", err)
	}
	if len(intents) != 0 {
		t.Errorf("expected no intents below warmup history, got: %+v", intents)
	}
	if strat.WarmupBars() != 4 {
		t.Errorf("expected warmup of slow+1 = 4 bars, got: %d", strat.WarmupBars())
	}
}

func TestMACross_RSIFilterSuppressesOverboughtLong(t *testing.T) {
	closes := []float64{10, 9, 8, 7, 8, 12}

	// The rally into the cross pushes short-period RSI to the top of its
	// range; a 50 threshold therefore vetoes the long entry.
	filtered := macross.New(2, 3, 0.5).WithRSIFilter(2, 30, 50)
	intents, err := filtered.Decide(decisionCtx(closes...))
	if err != nil {
		t.Fatalf("Decide failed: %v", err)
	}
	if len(intents) != 0 {
		t.Errorf("expected the RSI filter to suppress the entry, got: %+v", intents)
	}

	// A permissive threshold lets the same cross through.
	permissive := macross.New(2, 3, 0.5).WithRSIFilter(2, 0, 101)
	intents, err = permissive.Decide(decisionCtx(closes...))
	if err != nil {
		t.Fatalf("Decide failed: %v", err)
	}
	if len(intents) != 1 || intents[0].Type != strategy.IntentOpenLong {
		t.Fatalf("expected the permissive filter to allow the entry, got: %+v", intents)
	}
}

func TestMACross_Init(t *testing.T) {
	strat := macross.New(macross.DefaultFastPeriod, macross.DefaultSlowPeriod, 0.2)
	err := strat.Init(strategy.Config{Params: map[string]any{
		"fast_period": 5,
		"slow_period": 15,
		"size_pct":    0.3,
	}})
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if strat.WarmupBars() != 16 {
		t.Errorf("expected warmup 16 after Init, got: %d", strat.WarmupBars())
	}

	bad := macross.New(0, 0, 0)
	err = bad.Init(strategy.Config{Params: map[string]any{
		"fast_period": 50,
		"slow_period": 20,
	}})
	if err == nil {
		t.Error("expected Init to reject fast >= slow")
	}
}
