// Package macross implements a moving average crossover strategy.
package macross

import (
	"fmt"

	"github.com/markcheno/go-talib"

	"github.com/prabhatpushp/backtesting/internal/core"
	"github.com/prabhatpushp/backtesting/internal/strategy"
)

// Defaults mirror the 20/50 crossover commonly used on daily bars.
const (
	DefaultFastPeriod = 20
	DefaultSlowPeriod = 50
)

// MACross emits OpenLong when the fast SMA crosses above the slow SMA and
// OpenShort (or Close, when already long) on the reverse cross. Exact
// equality of the averages is treated as no cross.
//
// An optional RSI filter suppresses entries when momentum disagrees: longs
// require RSI below the overbought level, shorts require RSI above the
// oversold level.
type MACross struct {
	fastPeriod int
	slowPeriod int
	sizePct    float64

	rsiPeriod     int // 0 disables the filter
	rsiOverbought float64
	rsiOversold   float64
}

// New creates a crossover strategy with the given periods and entry size as
// a fraction of equity.
func New(fastPeriod, slowPeriod int, sizePct float64) *MACross {
	return &MACross{
		fastPeriod: fastPeriod,
		slowPeriod: slowPeriod,
		sizePct:    sizePct,
	}
}

func (m *MACross) Name() string {
	return "ma_cross"
}

func (m *MACross) Description() string {
	return fmt.Sprintf("MA Crossover (%d/%d)", m.fastPeriod, m.slowPeriod)
}

// WarmupBars requires slow period plus one bar so both the current and the
// previous slow average exist.
func (m *MACross) WarmupBars() int {
	return m.slowPeriod + 1
}

func (m *MACross) Init(cfg strategy.Config) error {
	if fast, ok := cfg.Params["fast_period"].(int); ok {
		m.fastPeriod = fast
	}
	if slow, ok := cfg.Params["slow_period"].(int); ok {
		m.slowPeriod = slow
	}
	if pct, ok := cfg.Params["size_pct"].(float64); ok {
		m.sizePct = pct
	}
	if rsi, ok := cfg.Params["rsi_period"].(int); ok {
		m.rsiPeriod = rsi
		m.rsiOverbought = 70
		m.rsiOversold = 30
	}
	if v, ok := cfg.Params["rsi_overbought"].(float64); ok {
		m.rsiOverbought = v
	}
	if v, ok := cfg.Params["rsi_oversold"].(float64); ok {
		m.rsiOversold = v
	}
	if m.fastPeriod <= 0 || m.slowPeriod <= 0 || m.fastPeriod >= m.slowPeriod {
		return fmt.Errorf("macross: fast period %d must be positive and below slow period %d", m.fastPeriod, m.slowPeriod)
	}
	if m.sizePct <= 0 {
		m.sizePct = 0.2
	}
	return nil
}

// WithRSIFilter enables the RSI entry filter.
func (m *MACross) WithRSIFilter(period int, oversold, overbought float64) *MACross {
	m.rsiPeriod = period
	m.rsiOversold = oversold
	m.rsiOverbought = overbought
	return m
}

func (m *MACross) Decide(ctx strategy.DecisionContext) ([]strategy.Intent, error) {
	if len(ctx.Bars) < m.slowPeriod+1 {
		return nil, nil
	}

	closes := make([]float64, len(ctx.Bars))
	for i, bar := range ctx.Bars {
		closes[i] = bar.Close
	}

	fastMA := talib.Sma(closes, m.fastPeriod)
	slowMA := talib.Sma(closes, m.slowPeriod)

	n := len(closes)
	currFast, prevFast := fastMA[n-1], fastMA[n-2]
	currSlow, prevSlow := slowMA[n-1], slowMA[n-2]

	// Strict inequality on the current bar: equal averages are no cross.
	crossUp := prevFast <= prevSlow && currFast > currSlow
	crossDown := prevFast >= prevSlow && currFast < currSlow

	if !crossUp && !crossDown {
		return nil, nil
	}

	if m.rsiPeriod > 0 && n > m.rsiPeriod {
		rsi := talib.Rsi(closes, m.rsiPeriod)[n-1]
		if crossUp && rsi >= m.rsiOverbought {
			return nil, nil
		}
		if crossDown && rsi <= m.rsiOversold {
			return nil, nil
		}
	}

	if crossUp {
		reason := fmt.Sprintf("golden cross: MA%d %.2f above MA%d %.2f", m.fastPeriod, currFast, m.slowPeriod, currSlow)
		return []strategy.Intent{strategy.OpenLong(m.sizePct, reason)}, nil
	}

	reason := fmt.Sprintf("death cross: MA%d %.2f below MA%d %.2f", m.fastPeriod, currFast, m.slowPeriod, currSlow)
	if ctx.Position != nil {
		if ctx.Position.Side == core.SideLong {
			return []strategy.Intent{strategy.CloseAll(reason)}, nil
		}
		return nil, nil // already short
	}
	return []strategy.Intent{strategy.OpenShort(m.sizePct, reason)}, nil
}
