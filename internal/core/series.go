package core

import "fmt"

// Series is an ordered, immutable sequence of bars with strictly increasing
// timestamps. It is the only view of price history the simulation reads from.
type Series struct {
	symbol string
	bars   []Bar
}

// NewSeries validates the bars and wraps them in a read-only Series. The
// slice is copied so later mutation by the caller cannot leak into a run.
func NewSeries(symbol string, bars []Bar) (*Series, error) {
	if len(bars) == 0 {
		return nil, ErrNoData
	}
	for i, b := range bars {
		if err := b.Validate(); err != nil {
			return nil, err
		}
		if i > 0 && !bars[i-1].Time.Before(b.Time) {
			return nil, WrapError(ErrDataInvalid,
				fmt.Errorf("timestamps not strictly increasing at index %d", i))
		}
	}
	owned := make([]Bar, len(bars))
	copy(owned, bars)
	return &Series{symbol: symbol, bars: owned}, nil
}

// Symbol returns the instrument identifier the series belongs to.
func (s *Series) Symbol() string {
	return s.symbol
}

// Len returns the number of bars.
func (s *Series) Len() int {
	return len(s.bars)
}

// At returns the bar at index i.
func (s *Series) At(i int) (Bar, error) {
	if i < 0 || i >= len(s.bars) {
		return Bar{}, WrapError(ErrIndexRange, fmt.Errorf("index %d, length %d", i, len(s.bars)))
	}
	return s.bars[i], nil
}

// WindowUpTo returns bars [0..i] inclusive. The simulation loop hands this
// window to strategies so they can never observe bars beyond i.
func (s *Series) WindowUpTo(i int) ([]Bar, error) {
	if i < 0 || i >= len(s.bars) {
		return nil, WrapError(ErrIndexRange, fmt.Errorf("index %d, length %d", i, len(s.bars)))
	}
	return s.bars[:i+1], nil
}
