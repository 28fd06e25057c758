package eventsink

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"pmmcore/internal/hanging"
	"pmmcore/internal/orders"
	"pmmcore/pkg/types"
)

func noopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHandleFillAdvancesTimersAndCounters(t *testing.T) {
	mgr := orders.New()
	tr := hanging.New(decimal.NewFromFloat(0.05))
	s := New(mgr, tr, nil, 60*time.Second, noopLogger())

	order := types.ActiveOrder{ID: "buy-1", Side: types.SideBuy, Price: decimal.NewFromInt(99)}
	fillTime := time.Unix(5, 0)
	timers := Timers{CancelTimestamp: time.Unix(1000, 0)}

	out := s.HandleFill(order, decimal.NewFromInt(99), decimal.NewFromInt(1), decimal.Zero, fillTime, timers)

	want := fillTime.Add(60 * time.Second)
	if !out.CreateTimestamp.Equal(want) {
		t.Fatalf("got create_timestamp %v want %v", out.CreateTimestamp, want)
	}
	if !out.CancelTimestamp.Equal(want) {
		t.Fatalf("cancel_timestamp should be capped to the new create_timestamp")
	}
	if out.FilledBuysBalance != 1 {
		t.Fatalf("expected filled_buys_balance=1, got %d", out.FilledBuysBalance)
	}
	if !out.LastOwnTradePrice.Equal(decimal.NewFromInt(99)) {
		t.Fatalf("got last_own_trade_price %s", out.LastOwnTradePrice)
	}
}

func TestHandleFillOnHangingOrderSkipsTimers(t *testing.T) {
	mgr := orders.New()
	tr := hanging.New(decimal.NewFromFloat(0.05))
	tr.PromoteDirect(types.ActiveOrder{ID: "hang-1", Side: types.SideSell, Price: decimal.NewFromInt(101)})
	s := New(mgr, tr, nil, 60*time.Second, noopLogger())

	timers := Timers{CreateTimestamp: time.Unix(10, 0)}
	out := s.HandleFill(types.ActiveOrder{ID: "hang-1", Side: types.SideSell}, decimal.NewFromInt(101), decimal.NewFromInt(1), decimal.Zero, time.Unix(20, 0), timers)

	if !out.CreateTimestamp.Equal(time.Unix(10, 0)) {
		t.Fatalf("expected hanging fill to leave create_timestamp untouched, got %v", out.CreateTimestamp)
	}
}

func TestHandleCompletedRemovesFromBothStores(t *testing.T) {
	mgr := orders.New()
	tr := hanging.New(decimal.NewFromFloat(0.05))
	mgr.Add(types.ActiveOrder{ID: "a"})
	tr.PromoteDirect(types.ActiveOrder{ID: "a"})

	s := New(mgr, tr, nil, 0, noopLogger())
	s.HandleCompleted("a")

	if _, ok := mgr.Get("a"); ok {
		t.Fatalf("expected order a removed from manager")
	}
	if tr.IsHanging("a") {
		t.Fatalf("expected order a no longer hanging")
	}
}

type fakeInv struct {
	called bool
}

func (f *fakeInv) GetPrice() (decimal.Decimal, bool) { return decimal.Zero, false }
func (f *fakeInv) ProcessOrderFillEvent(types.InventoryCostOrderFillEvent) {
	f.called = true
}

func TestHandleFillForwardsToInventoryDelegate(t *testing.T) {
	mgr := orders.New()
	tr := hanging.New(decimal.NewFromFloat(0.05))
	inv := &fakeInv{}
	s := New(mgr, tr, inv, 0, noopLogger())

	s.HandleFill(types.ActiveOrder{ID: "a", Side: types.SideBuy}, decimal.NewFromInt(100), decimal.NewFromInt(1), decimal.Zero, time.Unix(1, 0), Timers{})

	if !inv.called {
		t.Fatalf("expected inventory delegate to be notified")
	}
}
