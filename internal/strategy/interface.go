// Package strategy defines the decision contract trading strategies
// implement and the intents they emit to the simulation engine.
package strategy

import (
	"github.com/prabhatpushp/backtesting/internal/core"
)

// IntentType enumerates what a strategy wants the engine to do.
type IntentType string

const (
	IntentOpenLong  IntentType = "open_long"
	IntentOpenShort IntentType = "open_short"
	IntentClose     IntentType = "close"
	IntentSetStop   IntentType = "set_stop"
	IntentSetTarget IntentType = "set_target"
	IntentNoOp      IntentType = "noop"
)

// Intent is a single instruction emitted by Decide. The engine translates
// intents into orders that resolve against the next bar, never the bar that
// produced them.
type Intent struct {
	Type IntentType
	// Kind selects market/limit/stop execution for opening intents.
	Kind core.OrderKind
	// Size is the position size in units. When zero, SizePct applies.
	Size float64
	// SizePct sizes the order as a fraction of current equity, resolved
	// by the engine at submission.
	SizePct float64
	// Price is the trigger price for limit and stop opening intents.
	Price float64
	// Fraction is the portion of the open position to close, (0, 1].
	Fraction float64
	// Level carries the protective price for SetStop/SetTarget.
	Level float64
	// Reason is free-form context for logs and ledgers.
	Reason string
}

// OpenLong returns a market intent to open a long position sized as a
// fraction of equity.
func OpenLong(sizePct float64, reason string) Intent {
	return Intent{Type: IntentOpenLong, Kind: core.OrderMarket, SizePct: sizePct, Reason: reason}
}

// OpenShort returns a market intent to open a short position sized as a
// fraction of equity.
func OpenShort(sizePct float64, reason string) Intent {
	return Intent{Type: IntentOpenShort, Kind: core.OrderMarket, SizePct: sizePct, Reason: reason}
}

// Close returns an intent to close the given fraction of the open position.
func Close(fraction float64, reason string) Intent {
	return Intent{Type: IntentClose, Fraction: fraction, Reason: reason}
}

// CloseAll returns an intent to fully close the open position.
func CloseAll(reason string) Intent {
	return Close(1, reason)
}

// SetStop returns an intent to move the protective stop of the open position.
func SetStop(level float64) Intent {
	return Intent{Type: IntentSetStop, Level: level}
}

// SetTarget returns an intent to move the profit target of the open position.
func SetTarget(level float64) Intent {
	return Intent{Type: IntentSetTarget, Level: level}
}

// PositionView is the read-only snapshot of the open position handed to
// strategies. Nil means flat.
type PositionView struct {
	Side       core.Side
	EntryPrice float64
	Size       float64
	EntryIndex int
	Stop       float64 // 0 when unset
	Target     float64 // 0 when unset
	Unrealized float64
}

// DecisionContext provides everything a strategy may look at when deciding.
// Bars holds the visible history [0..Index]; the engine never exposes bars
// beyond Index, which is what keeps strategies free of look-ahead bias.
type DecisionContext struct {
	Symbol   string
	Bars     []core.Bar
	Index    int
	Position *PositionView
	Cash     float64
	Equity   float64
}

// Last returns the most recent visible bar.
func (d DecisionContext) Last() core.Bar {
	return d.Bars[len(d.Bars)-1]
}

// Config holds per-strategy configuration.
type Config struct {
	Enabled bool
	Params  map[string]any
}

// Strategy defines the interface for trading strategies. Decide must be a
// pure function of the decision context: no wall clock, no randomness, no
// state outside what the window and position provide.
type Strategy interface {
	Name() string
	Description() string
	// WarmupBars returns the minimum history length the strategy needs
	// before Decide is worth calling.
	WarmupBars() int
	Init(cfg Config) error
	Decide(ctx DecisionContext) ([]Intent, error)
}
