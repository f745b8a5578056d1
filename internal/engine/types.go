// Package engine simulates order execution bar-by-bar: it walks a price
// series in chronological order, feeds the visible history to a strategy,
// turns the strategy's intents into orders that resolve against the next
// bar, and maintains cash, position and ledger state across the run.
package engine

import (
	"time"

	"github.com/prabhatpushp/backtesting/internal/core"
)

// OrderStatus represents the lifecycle status of an order.
type OrderStatus string

const (
	// OrderPending indicates the order is awaiting resolution.
	OrderPending OrderStatus = "pending"
	// OrderFilled indicates the order executed.
	OrderFilled OrderStatus = "filled"
	// OrderCancelled indicates the order was withdrawn before filling.
	OrderCancelled OrderStatus = "cancelled"
	// OrderExpired indicates the order outlived its pending-bars budget.
	OrderExpired OrderStatus = "expired"
)

// Order is a pending or finalized instruction awaiting execution. Orders are
// created from strategy intents and mutated only by the engine.
type Order struct {
	ID   int
	Side core.Side
	Kind core.OrderKind
	// Reduce marks orders that close or shrink the existing position
	// rather than open a new one. Side then names the side being reduced.
	Reduce bool
	// Fraction is the portion of the position a reduce order closes.
	Fraction float64
	// Price is the trigger for limit and stop orders.
	Price float64
	// Size is the order size in units. Zero for reduce orders, whose
	// size is resolved against the position at fill time.
	Size float64
	// SubmittedAt is the index of the bar whose close produced the
	// originating intent. The order first resolves at SubmittedAt+1.
	SubmittedAt int
	Status      OrderStatus
	FillIndex   int
	FillPrice   float64
	Reason      string
}

// IsTerminal returns true once the order can no longer fill.
func (o *Order) IsTerminal() bool {
	return o.Status == OrderFilled || o.Status == OrderCancelled || o.Status == OrderExpired
}

// tradeSide is the direction of the actual market transaction: reduce
// orders trade against the position they shrink.
func (o *Order) tradeSide() core.Side {
	if o.Reduce {
		return o.Side.Opposite()
	}
	return o.Side
}

// Position is the single open holding of a run.
type Position struct {
	Side       core.Side
	EntryPrice float64
	Size       float64
	EntryIndex int
	EntryTime  time.Time
	// Stop and Target are protective exit levels; zero means unset.
	Stop   float64
	Target float64
	// entryCommission is the not-yet-allocated share of the commission
	// paid at entry, distributed pro rata across closes.
	entryCommission float64
}

// Unrealized returns mark-to-market profit at the given price.
func (p *Position) Unrealized(price float64) float64 {
	return (price - p.EntryPrice) * p.Size * p.Side.Sign()
}

// Notional returns the position's entry value.
func (p *Position) Notional() float64 {
	return p.EntryPrice * p.Size
}

// Trade is one immutable ledger entry, appended when a position (or a slice
// of it) closes.
type Trade struct {
	Side       core.Side
	Size       float64
	EntryIndex int
	ExitIndex  int
	EntryTime  time.Time
	ExitTime   time.Time
	EntryPrice float64
	ExitPrice  float64
	// PnL is realized profit net of the round-trip commissions below.
	PnL float64
	// Commission is the total commission allocated to this trade: the
	// exit fee plus this slice's share of the entry fee.
	Commission float64
	// Bars is the holding duration. Exits resolve strictly after
	// entries, except a bankruptcy liquidation on the entry bar itself.
	Bars   int
	Reason string
}

// IsWin returns true if the trade was profitable after costs.
func (t Trade) IsWin() bool {
	return t.PnL > 0
}

// EquityPoint is one mark-to-market observation, appended once per bar and
// never mutated retroactively.
type EquityPoint struct {
	Index  int
	Time   time.Time
	Cash   float64
	Equity float64
}
