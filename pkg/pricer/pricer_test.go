package pricer

import (
	"testing"

	"github.com/shopspring/decimal"

	"pmmcore/pkg/types"
)

func bookWith(bid, ask float64) *LocalBook {
	b := NewLocalBook()
	b.Set(decimal.NewFromFloat(bid), decimal.NewFromFloat(ask))
	return b
}

func TestResolveMid(t *testing.T) {
	p, err := Resolve(types.PriceTypeMid, Inputs{Book: bookWith(99, 101)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !p.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("got %s want 100", p)
	}
}

func TestResolveLastOwnTradeAbsentFallsBackToMid(t *testing.T) {
	p, err := Resolve(types.PriceTypeLastOwnTrade, Inputs{Book: bookWith(99, 101)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !p.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("got %s want 100 (fallback to mid)", p)
	}
}

func TestResolveInventoryCostAbsentFallsBackToMid(t *testing.T) {
	p, err := Resolve(types.PriceTypeInventoryCost, Inputs{Book: bookWith(99, 101)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !p.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("got %s want 100 (fallback to mid)", p)
	}
}

func TestResolveInventoryCostPresent(t *testing.T) {
	p, err := Resolve(types.PriceTypeInventoryCost, Inputs{
		Book:               bookWith(99, 101),
		HasInventoryCost:   true,
		InventoryCostPrice: decimal.NewFromFloat(98.5),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !p.Equal(decimal.NewFromFloat(98.5)) {
		t.Fatalf("got %s want 98.5", p)
	}
}

func TestAskBasePriceUsesInventoryCostWhenHigher(t *testing.T) {
	in := Inputs{HasInventoryCost: true, InventoryCostPrice: decimal.NewFromInt(105)}
	got := AskBasePrice(decimal.NewFromInt(100), in)
	if !got.Equal(decimal.NewFromInt(105)) {
		t.Fatalf("got %s want 105", got)
	}
}

func TestAskBasePriceUsesReferenceWhenNoInventoryCost(t *testing.T) {
	got := AskBasePrice(decimal.NewFromInt(100), Inputs{})
	if !got.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("got %s want 100", got)
	}
}

type fakeDelegate struct {
	ready bool
	price decimal.Decimal
}

func (f fakeDelegate) GetPriceByType(types.PriceType) (decimal.Decimal, error) { return f.price, nil }
func (f fakeDelegate) Ready() bool                                            { return f.ready }

func TestResolvePrefersReadyDelegate(t *testing.T) {
	p, err := Resolve(types.PriceTypeMid, Inputs{
		Book:     bookWith(99, 101),
		Delegate: fakeDelegate{ready: true, price: decimal.NewFromInt(200)},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !p.Equal(decimal.NewFromInt(200)) {
		t.Fatalf("got %s want 200 (delegate)", p)
	}
}
