package core

import (
	"errors"
	"testing"
	"time"
)

func makeBars(n int) []Bar {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]Bar, n)
	for i := range bars {
		price := 100 + float64(i)
		bars[i] = Bar{
			Time:   base.AddDate(0, 0, i),
			Open:   price,
			High:   price + 1,
			Low:    price - 1,
			Close:  price + 0.5,
			Volume: 1000,
		}
	}
	return bars
}

func TestNewSeries(t *testing.T) {
	s, err := NewSeries("AAPL", makeBars(5))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Len() != 5 {
		t.Errorf("Len() = %d, want 5", s.Len())
	}
	if s.Symbol() != "AAPL" {
		t.Errorf("Symbol() = %s, want AAPL", s.Symbol())
	}
}

func TestNewSeries_Empty(t *testing.T) {
	if _, err := NewSeries("AAPL", nil); !errors.Is(err, ErrNoData) {
		t.Errorf("expected NO_DATA, got %v", err)
	}
}

func TestNewSeries_DuplicateTimestamp(t *testing.T) {
	bars := makeBars(3)
	bars[2].Time = bars[1].Time
	if _, err := NewSeries("AAPL", bars); !errors.Is(err, ErrDataInvalid) {
		t.Errorf("expected DATA_INVALID for duplicate timestamp, got %v", err)
	}
}

func TestNewSeries_OutOfOrder(t *testing.T) {
	bars := makeBars(3)
	bars[0], bars[2] = bars[2], bars[0]
	if _, err := NewSeries("AAPL", bars); !errors.Is(err, ErrDataInvalid) {
		t.Errorf("expected DATA_INVALID for out-of-order bars, got %v", err)
	}
}

func TestSeries_CopiesInput(t *testing.T) {
	bars := makeBars(3)
	s, err := NewSeries("AAPL", bars)
	if err != nil {
		t.Fatal(err)
	}
	bars[0].Close = 0.5 // will break OHLC invariant if it leaked through

	got, err := s.At(0)
	if err != nil {
		t.Fatal(err)
	}
	if got.Close == 0.5 {
		t.Error("series should own a private copy of the bars")
	}
}

func TestSeries_At_OutOfRange(t *testing.T) {
	s, _ := NewSeries("AAPL", makeBars(3))

	for _, i := range []int{-1, 3, 100} {
		if _, err := s.At(i); !errors.Is(err, ErrIndexRange) {
			t.Errorf("At(%d): expected INDEX_OUT_OF_RANGE, got %v", i, err)
		}
		if _, err := s.WindowUpTo(i); !errors.Is(err, ErrIndexRange) {
			t.Errorf("WindowUpTo(%d): expected INDEX_OUT_OF_RANGE, got %v", i, err)
		}
	}
}

func TestSeries_WindowUpTo(t *testing.T) {
	s, _ := NewSeries("AAPL", makeBars(5))

	window, err := s.WindowUpTo(2)
	if err != nil {
		t.Fatal(err)
	}
	if len(window) != 3 {
		t.Fatalf("window length = %d, want 3", len(window))
	}
	last, _ := s.At(2)
	if window[len(window)-1] != last {
		t.Error("window should end at the requested index")
	}
}
