package engine

import (
	"fmt"
	"math"

	"github.com/prabhatpushp/backtesting/internal/core"
)

// book holds the pending orders of a run in submission order. Resolution is
// strictly FIFO so that runs are reproducible when several orders could
// fill on the same bar.
type book struct {
	nextID  int
	pending []*Order
}

// submit validates the order and queues it for resolution on later bars.
func (b *book) submit(o *Order) error {
	if o.Reduce {
		if o.Fraction <= 0 || o.Fraction > 1 || math.IsNaN(o.Fraction) {
			return core.WrapError(core.ErrInvalidOrder,
				fmt.Errorf("close fraction %v outside (0, 1]", o.Fraction))
		}
	} else {
		if o.Size <= 0 || math.IsNaN(o.Size) || math.IsInf(o.Size, 0) {
			return core.WrapError(core.ErrInvalidOrder,
				fmt.Errorf("size %v must be a positive finite number", o.Size))
		}
	}
	if o.Kind == core.OrderLimit || o.Kind == core.OrderStop {
		if o.Price <= 0 || math.IsNaN(o.Price) || math.IsInf(o.Price, 0) {
			return core.WrapError(core.ErrInvalidOrder,
				fmt.Errorf("%s order needs a positive finite trigger price, got %v", o.Kind, o.Price))
		}
	}

	b.nextID++
	o.ID = b.nextID
	o.Status = OrderPending
	b.pending = append(b.pending, o)
	return nil
}

// fillPrice resolves whether the order executes within the given bar and at
// what price. Market orders take the open; limit orders need the trigger
// inside the bar's range and fill at the trigger, or at the open when the
// bar gaps through it favorably; stop orders fill at the trigger, or at the
// open when the bar opens beyond it. Slippage moves market and stop fills
// against the trader; a limit price is honored exactly.
func fillPrice(o *Order, bar core.Bar, slippage float64) (float64, bool) {
	buying := o.tradeSide() == core.SideLong

	switch o.Kind {
	case core.OrderMarket:
		return slip(bar.Open, buying, slippage), true

	case core.OrderLimit:
		if !bar.Touches(o.Price) {
			return 0, false
		}
		price := o.Price
		if buying && bar.Open < o.Price {
			price = bar.Open
		} else if !buying && bar.Open > o.Price {
			price = bar.Open
		}
		return price, true

	case core.OrderStop:
		// A buy stop triggers at or above the price, a sell stop at or
		// below; a bar that opens beyond the trigger fills at the open.
		breachedAtOpen := (buying && bar.Open >= o.Price) || (!buying && bar.Open <= o.Price)
		if breachedAtOpen {
			return slip(bar.Open, buying, slippage), true
		}
		if bar.Touches(o.Price) {
			return slip(o.Price, buying, slippage), true
		}
		return 0, false
	}

	return 0, false
}

// slip applies adverse slippage: buys pay more, sells receive less.
func slip(price float64, buying bool, fraction float64) float64 {
	if buying {
		return price * (1 + fraction)
	}
	return price * (1 - fraction)
}

// sweep removes terminal orders and expires those that have used up their
// pending-bars budget as of bar index i. Expired orders are returned for
// logging.
func (b *book) sweep(i, maxPendingBars int) []*Order {
	var expired []*Order
	kept := b.pending[:0]
	for _, o := range b.pending {
		if o.IsTerminal() {
			continue
		}
		if i-o.SubmittedAt >= maxPendingBars {
			o.Status = OrderExpired
			expired = append(expired, o)
			continue
		}
		kept = append(kept, o)
	}
	b.pending = kept
	return expired
}

// open returns the orders still eligible to fill at bar index i, in
// submission order.
func (b *book) open(i int) []*Order {
	eligible := make([]*Order, 0, len(b.pending))
	for _, o := range b.pending {
		if !o.IsTerminal() && o.SubmittedAt < i {
			eligible = append(eligible, o)
		}
	}
	return eligible
}

// cancelEntries marks pending non-reducing orders cancelled. Used on the
// final bar, where a fresh entry would be liquidated the moment it fills.
func (b *book) cancelEntries() {
	for _, o := range b.pending {
		if !o.IsTerminal() && !o.Reduce {
			o.Status = OrderCancelled
		}
	}
}

// cancelAll marks every remaining pending order cancelled.
func (b *book) cancelAll() {
	for _, o := range b.pending {
		if !o.IsTerminal() {
			o.Status = OrderCancelled
		}
	}
	b.pending = b.pending[:0]
}
