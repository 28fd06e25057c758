package refresh

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"pmmcore/pkg/types"
)

func d(f float64) decimal.Decimal { return decimal.NewFromFloat(f) }

func TestMaxAgeCancels(t *testing.T) {
	now := time.Unix(1000, 0)
	active := []types.ActiveOrder{
		{ID: "old", CreatedAt: now.Add(-2 * time.Hour)},
		{ID: "fresh", CreatedAt: now.Add(-1 * time.Second)},
	}
	out := MaxAgeCancels(active, now, time.Hour)
	if len(out) != 1 || out[0].ID != "old" {
		t.Fatalf("got %v", out)
	}
}

func TestMinSpreadCancels(t *testing.T) {
	active := []types.ActiveOrder{
		{ID: "tight-buy", Side: types.SideBuy, Price: d(99.99)},
		{ID: "wide-buy", Side: types.SideBuy, Price: d(90)},
	}
	out := MinSpreadCancels(active, d(100), d(0.005))
	if len(out) != 1 || out[0].ID != "tight-buy" {
		t.Fatalf("got %v", out)
	}
}

func TestShouldDeferRefreshWithinTolerance(t *testing.T) {
	active := []types.ActiveOrder{{ID: "b", Side: types.SideBuy, Price: d(99.00)}}
	proposed := types.Proposal{Buys: []types.PriceSize{{Price: d(99.02), Size: d(1)}}}

	if !ShouldDeferRefresh(active, proposed, d(0.01)) {
		t.Fatalf("expected defer: deviation ~0.0002 < tolerance 0.01")
	}
}

func TestShouldDeferRefreshOutsideTolerance(t *testing.T) {
	active := []types.ActiveOrder{{ID: "b", Side: types.SideBuy, Price: d(95.00)}}
	proposed := types.Proposal{Buys: []types.PriceSize{{Price: d(99.00), Size: d(1)}}}

	if ShouldDeferRefresh(active, proposed, d(0.01)) {
		t.Fatalf("expected no defer: deviation exceeds tolerance")
	}
}

func TestShouldDeferRefreshLengthMismatch(t *testing.T) {
	active := []types.ActiveOrder{{ID: "b", Side: types.SideBuy, Price: d(99.00)}}
	proposed := types.Proposal{}

	if ShouldDeferRefresh(active, proposed, d(0.01)) {
		t.Fatalf("expected no defer on length mismatch")
	}
}

func TestRefreshCancelAll(t *testing.T) {
	active := []types.ActiveOrder{{ID: "a"}, {ID: "b"}}
	out := RefreshCancelAll(active)
	if len(out) != 2 {
		t.Fatalf("got %v", out)
	}
}
