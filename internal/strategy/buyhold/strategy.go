// Package buyhold implements the simplest possible benchmark strategy: buy
// on the first decidable bar and hold until the run force-closes at the end.
package buyhold

import (
	"github.com/prabhatpushp/backtesting/internal/strategy"
)

// BuyHold opens a single long position and never closes it.
type BuyHold struct {
	sizePct float64
}

// New creates a buy-and-hold strategy with the given entry size as a
// fraction of equity.
func New(sizePct float64) *BuyHold {
	return &BuyHold{sizePct: sizePct}
}

func (b *BuyHold) Name() string {
	return "buy_hold"
}

func (b *BuyHold) Description() string {
	return "Buy on the first bar and hold to the end"
}

func (b *BuyHold) WarmupBars() int {
	return 0
}

func (b *BuyHold) Init(cfg strategy.Config) error {
	if pct, ok := cfg.Params["size_pct"].(float64); ok {
		b.sizePct = pct
	}
	if b.sizePct <= 0 {
		b.sizePct = 1
	}
	return nil
}

func (b *BuyHold) Decide(ctx strategy.DecisionContext) ([]strategy.Intent, error) {
	if ctx.Position != nil {
		return nil, nil
	}
	return []strategy.Intent{strategy.OpenLong(b.sizePct, "initial buy and hold entry")}, nil
}
