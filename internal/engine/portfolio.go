package engine

import (
	"fmt"
	"time"

	"github.com/prabhatpushp/backtesting/internal/core"
)

// portfolio tracks cash, the single open position and the trade ledger.
// Accounting is margin-style: opening a position charges only the entry
// commission; realized profit or loss settles into cash when the position
// (or a slice of it) closes. Equity is therefore cash plus unrealized P&L.
type portfolio struct {
	cash       float64
	commission Commission
	position   *Position
	trades     []Trade
}

func newPortfolio(initialCash float64, commission Commission) *portfolio {
	return &portfolio{
		cash:       initialCash,
		commission: commission,
	}
}

// equity marks the account to market at the given price.
func (p *portfolio) equity(price float64) float64 {
	if p.position == nil {
		return p.cash
	}
	return p.cash + p.position.Unrealized(price)
}

// open establishes a new position from an entry fill. It fails when the
// fill notional plus commission exceeds available cash; the caller treats
// that as a rejected fill.
func (p *portfolio) open(side core.Side, price, size float64, barIndex int, barTime time.Time) error {
	notional := price * size
	fee := p.commission.Charge(notional)
	if notional+fee > p.cash {
		return core.WrapError(core.ErrInvalidOrder,
			fmt.Errorf("insufficient cash: need %.2f plus %.2f commission, have %.2f", notional, fee, p.cash))
	}
	p.cash -= fee
	p.position = &Position{
		Side:            side,
		EntryPrice:      price,
		Size:            size,
		EntryIndex:      barIndex,
		EntryTime:       barTime,
		entryCommission: fee,
	}
	return nil
}

// close realizes the given fraction of the open position at price, appends
// the resulting Trade and settles P&L into cash. Fractions at or above 1,
// or leaving a dust residue, close the position entirely.
func (p *portfolio) close(fraction, price float64, barIndex int, barTime time.Time, reason string) Trade {
	pos := p.position
	if fraction > 1 {
		fraction = 1
	}
	size := pos.Size * fraction
	if pos.Size-size < 1e-9 {
		size = pos.Size
	}

	gross := (price - pos.EntryPrice) * size * pos.Side.Sign()
	exitFee := p.commission.Charge(price * size)
	entryShare := pos.entryCommission * (size / pos.Size)

	trade := Trade{
		Side:       pos.Side,
		Size:       size,
		EntryIndex: pos.EntryIndex,
		ExitIndex:  barIndex,
		EntryTime:  pos.EntryTime,
		ExitTime:   barTime,
		EntryPrice: pos.EntryPrice,
		ExitPrice:  price,
		PnL:        gross - exitFee - entryShare,
		Commission: exitFee + entryShare,
		Bars:       barIndex - pos.EntryIndex,
		Reason:     reason,
	}
	p.trades = append(p.trades, trade)

	// Entry fee was charged at entry, so only the gross P&L and exit fee
	// settle here.
	p.cash += gross - exitFee

	if size == pos.Size {
		p.position = nil
	} else {
		pos.Size -= size
		pos.entryCommission -= entryShare
	}
	return trade
}
