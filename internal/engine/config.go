package engine

import (
	"fmt"
	"math"

	"github.com/prabhatpushp/backtesting/internal/core"
)

// CommissionKind tags how commission is computed per fill.
type CommissionKind string

const (
	// CommissionFlat charges a fixed amount per fill.
	CommissionFlat CommissionKind = "flat"
	// CommissionRate charges a fraction of the fill notional.
	CommissionRate CommissionKind = "rate"
)

// Commission is a tagged commission model.
type Commission struct {
	Kind  CommissionKind `mapstructure:"kind"`
	Value float64        `mapstructure:"value"`
}

// Charge returns the commission for a fill of the given notional value.
func (c Commission) Charge(notional float64) float64 {
	switch c.Kind {
	case CommissionFlat:
		return c.Value
	case CommissionRate:
		return notional * c.Value
	default:
		return 0
	}
}

// Config holds the execution parameters of a single simulation run. The
// engine receives it fully resolved; no ambient configuration is consulted
// inside the loop.
type Config struct {
	// InitialCash is the starting account balance. Must be positive.
	InitialCash float64 `mapstructure:"initial_cash"`
	// Commission is charged on every fill.
	Commission Commission `mapstructure:"commission"`
	// SlippageFraction is the adverse price adjustment applied to market
	// and stop fills: buys fill higher, sells fill lower.
	SlippageFraction float64 `mapstructure:"slippage_fraction"`
	// WarmupPeriod is the number of leading bars during which the
	// strategy is not invoked.
	WarmupPeriod int `mapstructure:"warmup_period"`
	// MaxPendingBars is how many resolution attempts an unfilled order
	// survives before expiring.
	MaxPendingBars int `mapstructure:"max_pending_bars"`
	// BarsPerYear scales per-bar statistics to annualized figures.
	BarsPerYear int `mapstructure:"bars_per_year"`
}

// DefaultConfig mirrors the stock settings: 100k cash, 0.1% commission per
// fill, 252 trading days per year.
func DefaultConfig() Config {
	return Config{
		InitialCash:      100_000,
		Commission:       Commission{Kind: CommissionRate, Value: 0.001},
		SlippageFraction: 0,
		WarmupPeriod:     0,
		MaxPendingBars:   20,
		BarsPerYear:      252,
	}
}

// Validate checks the configuration against the documented constraints.
func (c Config) Validate() error {
	if !(c.InitialCash > 0) || math.IsInf(c.InitialCash, 0) {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("initial_cash must be a positive finite number, got %v", c.InitialCash))
	}
	if c.Commission.Kind != CommissionFlat && c.Commission.Kind != CommissionRate {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("commission kind must be %q or %q, got %q", CommissionFlat, CommissionRate, c.Commission.Kind))
	}
	if c.Commission.Value < 0 || math.IsNaN(c.Commission.Value) || math.IsInf(c.Commission.Value, 0) {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("commission value cannot be negative, got %v", c.Commission.Value))
	}
	if c.Commission.Kind == CommissionRate && c.Commission.Value >= 1 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("commission rate must be below 1, got %v", c.Commission.Value))
	}
	if c.SlippageFraction < 0 || c.SlippageFraction >= 1 || math.IsNaN(c.SlippageFraction) {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("slippage_fraction must be in [0, 1), got %v", c.SlippageFraction))
	}
	if c.WarmupPeriod < 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("warmup_period cannot be negative, got %d", c.WarmupPeriod))
	}
	if c.MaxPendingBars < 1 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("max_pending_bars must be at least 1, got %d", c.MaxPendingBars))
	}
	if c.BarsPerYear < 1 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("bars_per_year must be positive, got %d", c.BarsPerYear))
	}
	return nil
}
