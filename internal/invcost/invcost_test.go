package invcost

import (
	"testing"

	"github.com/shopspring/decimal"

	"pmmcore/pkg/types"
)

func TestGetPriceAbsentBeforeAnyFill(t *testing.T) {
	tr := New()
	if _, ok := tr.GetPrice(); ok {
		t.Fatalf("expected no position before any fill")
	}
}

func TestBuyFillsAverageCost(t *testing.T) {
	tr := New()
	tr.ProcessOrderFillEvent(types.InventoryCostOrderFillEvent{Side: types.SideBuy, Price: decimal.NewFromInt(100), Size: decimal.NewFromInt(1)})
	tr.ProcessOrderFillEvent(types.InventoryCostOrderFillEvent{Side: types.SideBuy, Price: decimal.NewFromInt(110), Size: decimal.NewFromInt(1)})

	price, ok := tr.GetPrice()
	if !ok {
		t.Fatalf("expected a position after two buys")
	}
	if !price.Equal(decimal.NewFromInt(105)) {
		t.Fatalf("expected average cost 105, got %s", price)
	}
}

func TestSellDownToFlatResetsCostBasis(t *testing.T) {
	tr := New()
	tr.ProcessOrderFillEvent(types.InventoryCostOrderFillEvent{Side: types.SideBuy, Price: decimal.NewFromInt(100), Size: decimal.NewFromInt(2)})
	tr.ProcessOrderFillEvent(types.InventoryCostOrderFillEvent{Side: types.SideSell, Price: decimal.NewFromInt(120), Size: decimal.NewFromInt(2)})

	if _, ok := tr.GetPrice(); ok {
		t.Fatalf("expected flat position to clear the cost basis")
	}
	if !tr.Position().IsZero() {
		t.Fatalf("expected zero net position, got %s", tr.Position())
	}
}

func TestPartialSellKeepsAverageCost(t *testing.T) {
	tr := New()
	tr.ProcessOrderFillEvent(types.InventoryCostOrderFillEvent{Side: types.SideBuy, Price: decimal.NewFromInt(100), Size: decimal.NewFromInt(2)})
	tr.ProcessOrderFillEvent(types.InventoryCostOrderFillEvent{Side: types.SideSell, Price: decimal.NewFromInt(150), Size: decimal.NewFromInt(1)})

	price, ok := tr.GetPrice()
	if !ok {
		t.Fatalf("expected remaining position after a partial sell")
	}
	if !price.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("expected average cost to stay at 100, got %s", price)
	}
}
