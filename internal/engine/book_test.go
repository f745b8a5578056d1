package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/prabhatpushp/backtesting/internal/core"
)

func testBar(open, high, low, close float64) core.Bar {
	return core.Bar{
		Time:   time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		Open:   open,
		High:   high,
		Low:    low,
		Close:  close,
		Volume: 1000,
	}
}

func TestBook_Submit_Validation(t *testing.T) {
	cases := []struct {
		name  string
		order *Order
		ok    bool
	}{
		{"market entry", &Order{Side: core.SideLong, Kind: core.OrderMarket, Size: 10}, true},
		{"zero size entry", &Order{Side: core.SideLong, Kind: core.OrderMarket, Size: 0}, false},
		{"negative size entry", &Order{Side: core.SideLong, Kind: core.OrderMarket, Size: -5}, false},
		{"limit without price", &Order{Side: core.SideLong, Kind: core.OrderLimit, Size: 10}, false},
		{"limit with price", &Order{Side: core.SideLong, Kind: core.OrderLimit, Size: 10, Price: 9.5}, true},
		{"stop with negative price", &Order{Side: core.SideShort, Kind: core.OrderStop, Size: 10, Price: -1}, false},
		{"full close", &Order{Side: core.SideLong, Kind: core.OrderMarket, Reduce: true, Fraction: 1}, true},
		{"half close", &Order{Side: core.SideLong, Kind: core.OrderMarket, Reduce: true, Fraction: 0.5}, true},
		{"zero fraction close", &Order{Side: core.SideLong, Kind: core.OrderMarket, Reduce: true, Fraction: 0}, false},
		{"fraction above one", &Order{Side: core.SideLong, Kind: core.OrderMarket, Reduce: true, Fraction: 1.5}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := &book{}
			err := b.submit(tc.order)
			if tc.ok {
				if err != nil {
					t.Fatalf("expected submit to succeed, got: %v", err)
				}
				if tc.order.ID == 0 {
					t.Error("expected an order ID to be assigned")
				}
				if tc.order.Status != OrderPending {
					t.Errorf("expected status pending, got: %s", tc.order.Status)
				}
			} else {
				if err == nil {
					t.Fatal("expected submit to fail")
				}
				if !errors.Is(err, core.ErrInvalidOrder) {
					t.Errorf("expected ErrInvalidOrder, got: %v", err)
				}
			}
		})
	}
}

func TestBook_Open_SkipsSubmissionBar(t *testing.T) {
	b := &book{}
	o := &Order{Side: core.SideLong, Kind: core.OrderMarket, Size: 10, SubmittedAt: 3}
	if err := b.submit(o); err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	// An order never resolves against the bar it was decided on.
	if got := b.open(3); len(got) != 0 {
		t.Errorf("expected no eligible orders on submission bar, got: %d", len(got))
	}
	if got := b.open(4); len(got) != 1 {
		t.Errorf("expected 1 eligible order on next bar, got: %d", len(got))
	}
}

func TestBook_Open_FIFO(t *testing.T) {
	b := &book{}
	first := &Order{Side: core.SideLong, Kind: core.OrderLimit, Size: 10, Price: 9, SubmittedAt: 0}
	second := &Order{Side: core.SideShort, Kind: core.OrderLimit, Size: 5, Price: 11, SubmittedAt: 0}
	if err := b.submit(first); err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if err := b.submit(second); err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	got := b.open(1)
	if len(got) != 2 {
		t.Fatalf("expected 2 eligible orders, got: %d", len(got))
	}
	if got[0].ID != first.ID || got[1].ID != second.ID {
		t.Error("expected orders in submission order")
	}
}

func TestBook_Sweep_Expiry(t *testing.T) {
	b := &book{}
	o := &Order{Side: core.SideLong, Kind: core.OrderLimit, Size: 10, Price: 5, SubmittedAt: 0}
	if err := b.submit(o); err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	if expired := b.sweep(2, 3); len(expired) != 0 {
		t.Errorf("expected no expiry after 2 bars with budget 3, got: %d", len(expired))
	}
	expired := b.sweep(3, 3)
	if len(expired) != 1 {
		t.Fatalf("expected expiry after 3 bars with budget 3, got: %d", len(expired))
	}
	if expired[0].Status != OrderExpired {
		t.Errorf("expected status expired, got: %s", expired[0].Status)
	}
	if len(b.pending) != 0 {
		t.Errorf("expected expired order removed from book, got %d pending", len(b.pending))
	}
}

func TestBook_Sweep_DropsTerminal(t *testing.T) {
	b := &book{}
	filled := &Order{Side: core.SideLong, Kind: core.OrderMarket, Size: 10, SubmittedAt: 0}
	live := &Order{Side: core.SideLong, Kind: core.OrderLimit, Size: 10, Price: 5, SubmittedAt: 1}
	for _, o := range []*Order{filled, live} {
		if err := b.submit(o); err != nil {
			t.Fatalf("submit failed: %v", err)
		}
	}
	filled.Status = OrderFilled

	b.sweep(1, 20)
	if len(b.pending) != 1 || b.pending[0].ID != live.ID {
		t.Errorf("expected only the live order to remain, got %d pending", len(b.pending))
	}
}

func TestBook_CancelAll(t *testing.T) {
	b := &book{}
	o := &Order{Side: core.SideLong, Kind: core.OrderLimit, Size: 10, Price: 5, SubmittedAt: 0}
	if err := b.submit(o); err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	b.cancelAll()
	if o.Status != OrderCancelled {
		t.Errorf("expected status cancelled, got: %s", o.Status)
	}
	if len(b.pending) != 0 {
		t.Errorf("expected empty book, got %d pending", len(b.pending))
	}
}

func TestFillPrice_Market(t *testing.T) {
	bar := testBar(100, 105, 95, 102)

	buy := &Order{Side: core.SideLong, Kind: core.OrderMarket, Size: 1}
	price, ok := fillPrice(buy, bar, 0)
	if !ok || price != 100 {
		t.Errorf("expected buy fill at open 100, got: %f (ok=%v)", price, ok)
	}

	// 0.1% slippage: buy fills at 100 * 1.001 = 100.1, sell at 99.9.
	price, _ = fillPrice(buy, bar, 0.001)
	if price != 100*1.001 {
		t.Errorf("expected slipped buy at 100.1, got: %f", price)
	}
	sell := &Order{Side: core.SideShort, Kind: core.OrderMarket, Size: 1}
	price, _ = fillPrice(sell, bar, 0.001)
	if price != 100*0.999 {
		t.Errorf("expected slipped sell at 99.9, got: %f", price)
	}
}

func TestFillPrice_Limit(t *testing.T) {
	bar := testBar(100, 105, 95, 102)

	// Buy limit inside the range fills at the limit, exactly, even with
	// slippage configured.
	o := &Order{Side: core.SideLong, Kind: core.OrderLimit, Size: 1, Price: 97}
	price, ok := fillPrice(o, bar, 0.01)
	if !ok || price != 97 {
		t.Errorf("expected limit fill at 97, got: %f (ok=%v)", price, ok)
	}

	// Limit below the bar's low never fills.
	o = &Order{Side: core.SideLong, Kind: core.OrderLimit, Size: 1, Price: 90}
	if _, ok := fillPrice(o, bar, 0); ok {
		t.Error("expected no fill for limit below the bar range")
	}

	// A bar opening below a buy limit fills at the better open.
	gap := testBar(94, 98, 93, 96)
	o = &Order{Side: core.SideLong, Kind: core.OrderLimit, Size: 1, Price: 97}
	price, ok = fillPrice(o, gap, 0)
	if !ok || price != 94 {
		t.Errorf("expected gap fill at open 94, got: %f (ok=%v)", price, ok)
	}

	// Sell limit above a gapping open fills at the open.
	gapUp := testBar(110, 112, 108, 111)
	o = &Order{Side: core.SideShort, Kind: core.OrderLimit, Size: 1, Price: 109}
	price, ok = fillPrice(o, gapUp, 0)
	if !ok || price != 110 {
		t.Errorf("expected sell limit gap fill at open 110, got: %f (ok=%v)", price, ok)
	}
}

func TestFillPrice_Stop(t *testing.T) {
	bar := testBar(100, 105, 95, 102)

	// Buy stop inside the range triggers at the stop, with slippage.
	o := &Order{Side: core.SideLong, Kind: core.OrderStop, Size: 1, Price: 103}
	price, ok := fillPrice(o, bar, 0.001)
	if !ok || price != 103*1.001 {
		t.Errorf("expected stop fill at 103.103, got: %f (ok=%v)", price, ok)
	}

	// Bar opening beyond the trigger fills at the open.
	o = &Order{Side: core.SideLong, Kind: core.OrderStop, Size: 1, Price: 99}
	price, ok = fillPrice(o, bar, 0)
	if !ok || price != 100 {
		t.Errorf("expected breached stop to fill at open 100, got: %f (ok=%v)", price, ok)
	}

	// Sell stop below the bar's range never triggers.
	o = &Order{Side: core.SideShort, Kind: core.OrderStop, Size: 1, Price: 90}
	if _, ok := fillPrice(o, bar, 0); ok {
		t.Error("expected no fill for sell stop below the bar range")
	}
}

func TestFillPrice_ReduceTradesOppositeSide(t *testing.T) {
	bar := testBar(100, 105, 95, 102)

	// Closing a long is a sell: slippage moves the price down.
	o := &Order{Side: core.SideLong, Kind: core.OrderMarket, Reduce: true, Fraction: 1}
	price, ok := fillPrice(o, bar, 0.001)
	if !ok || price != 100*0.999 {
		t.Errorf("expected close-long sell at 99.9, got: %f (ok=%v)", price, ok)
	}
}
