// Package priceaction implements a dip-buying strategy driven purely by
// price levels, no indicators.
package priceaction

import (
	"fmt"

	"github.com/prabhatpushp/backtesting/internal/strategy"
)

// Default thresholds: buy a 10% dip, take profit at +20%.
const (
	DefaultDipPct    = 0.10
	DefaultProfitPct = 0.20
)

// PriceAction enters long on the first decidable bar, takes profit once the
// close is ProfitPct above entry, and re-enters whenever the close has
// fallen DipPct below the running peak close while flat.
type PriceAction struct {
	dipPct    float64
	profitPct float64
	sizePct   float64
}

// New creates a price action strategy with the given dip and profit
// thresholds, both as fractions.
func New(dipPct, profitPct, sizePct float64) *PriceAction {
	return &PriceAction{
		dipPct:    dipPct,
		profitPct: profitPct,
		sizePct:   sizePct,
	}
}

func (p *PriceAction) Name() string {
	return "price_action"
}

func (p *PriceAction) Description() string {
	return fmt.Sprintf("Buy %.0f%% dips, take profit at +%.0f%%", p.dipPct*100, p.profitPct*100)
}

func (p *PriceAction) WarmupBars() int {
	return 0
}

func (p *PriceAction) Init(cfg strategy.Config) error {
	if v, ok := cfg.Params["dip_pct"].(float64); ok {
		p.dipPct = v
	}
	if v, ok := cfg.Params["profit_pct"].(float64); ok {
		p.profitPct = v
	}
	if v, ok := cfg.Params["size_pct"].(float64); ok {
		p.sizePct = v
	}
	if p.dipPct <= 0 || p.dipPct >= 1 {
		return fmt.Errorf("priceaction: dip_pct %.4f must be in (0, 1)", p.dipPct)
	}
	if p.profitPct <= 0 {
		return fmt.Errorf("priceaction: profit_pct %.4f must be positive", p.profitPct)
	}
	if p.sizePct <= 0 {
		p.sizePct = 0.2
	}
	return nil
}

func (p *PriceAction) Decide(ctx strategy.DecisionContext) ([]strategy.Intent, error) {
	last := ctx.Last()

	if pos := ctx.Position; pos != nil {
		if last.Close >= pos.EntryPrice*(1+p.profitPct) {
			reason := fmt.Sprintf("take profit: close %.2f is +%.0f%% over entry %.2f", last.Close, p.profitPct*100, pos.EntryPrice)
			return []strategy.Intent{strategy.CloseAll(reason)}, nil
		}
		return nil, nil
	}

	// First decidable bar: establish the initial position.
	if len(ctx.Bars) == 1 {
		return []strategy.Intent{strategy.OpenLong(p.sizePct, "initial entry")}, nil
	}

	peak := ctx.Bars[0].Close
	for _, bar := range ctx.Bars[1:] {
		if bar.Close > peak {
			peak = bar.Close
		}
	}

	if last.Close <= peak*(1-p.dipPct) {
		reason := fmt.Sprintf("dip entry: close %.2f is %.0f%% below peak %.2f", last.Close, p.dipPct*100, peak)
		return []strategy.Intent{strategy.OpenLong(p.sizePct, reason)}, nil
	}

	return nil, nil
}
