package core

import (
	"fmt"
	"math"
	"time"
)

// Side represents the direction of a position or order.
type Side string

const (
	SideLong  Side = "long"
	SideShort Side = "short"
)

// Sign returns +1 for long and -1 for short.
func (s Side) Sign() float64 {
	if s == SideShort {
		return -1
	}
	return 1
}

// Opposite returns the reverse direction.
func (s Side) Opposite() Side {
	if s == SideLong {
		return SideShort
	}
	return SideLong
}

// OrderKind represents how an order is priced when it executes.
type OrderKind string

const (
	// OrderMarket executes at the next bar's open.
	OrderMarket OrderKind = "market"
	// OrderLimit executes at the limit price or better.
	OrderLimit OrderKind = "limit"
	// OrderStop triggers when the stop price trades, then executes.
	OrderStop OrderKind = "stop"
)

// Bar represents a single OHLCV observation. Bars are value types and are
// never mutated after ingestion.
type Bar struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Validate checks the OHLCV invariants: low <= open,close <= high and all
// numerics finite and non-negative.
func (b Bar) Validate() error {
	for _, v := range [5]float64{b.Open, b.High, b.Low, b.Close, b.Volume} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return WrapError(ErrDataInvalid,
				fmt.Errorf("bar at %s has non-finite or negative field", b.Time.Format(time.RFC3339)))
		}
	}
	if b.Low > b.High {
		return WrapError(ErrDataInvalid,
			fmt.Errorf("bar at %s: low %.6f above high %.6f", b.Time.Format(time.RFC3339), b.Low, b.High))
	}
	if b.Open < b.Low || b.Open > b.High || b.Close < b.Low || b.Close > b.High {
		return WrapError(ErrDataInvalid,
			fmt.Errorf("bar at %s: open/close outside [low, high]", b.Time.Format(time.RFC3339)))
	}
	return nil
}

// Touches reports whether price traded within this bar's range.
func (b Bar) Touches(price float64) bool {
	return b.Low <= price && price <= b.High
}
