// Package refresh implements the Refresh/Cancel Controller: three
// independent cancellation concerns evaluated every tick — max order age,
// minimum spread, and proposal-vs-live tolerance (spec §4.6).
package refresh

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"pmmcore/pkg/types"
)

// Reason tags why a cancel was requested, for metrics and event emission.
type Reason string

const (
	ReasonMaxAge        Reason = "max_age"
	ReasonMinSpread     Reason = "min_spread"
	ReasonRefresh       Reason = "refresh"
)

// Cancel pairs an order id with the reason it was selected for cancellation.
type Cancel struct {
	ID     string
	Reason Reason

	// Spread/Threshold are populated for ReasonMinSpread to drive the
	// MinSpreadCancel event payload (spec §6).
	Spread    decimal.Decimal
	Threshold decimal.Decimal
}

// MaxAgeCancels returns the non-hanging active orders older than maxAge
// (spec §4.6 "Max-age cancel").
func MaxAgeCancels(active []types.ActiveOrder, now time.Time, maxAge time.Duration) []Cancel {
	var out []Cancel
	for _, o := range active {
		if now.Sub(o.CreatedAt) > maxAge {
			out = append(out, Cancel{ID: o.ID, Reason: ReasonMaxAge})
		}
	}
	return out
}

// MinSpreadCancels returns the non-hanging active orders whose spread from
// ref has fallen below minimumSpread (spec §4.6 "Min-spread cancel").
func MinSpreadCancels(active []types.ActiveOrder, ref, minimumSpread decimal.Decimal) []Cancel {
	if ref.Sign() <= 0 {
		return nil
	}
	var out []Cancel
	for _, o := range active {
		var s decimal.Decimal
		if o.Side == types.SideBuy {
			s = ref.Sub(o.Price).Div(ref)
		} else {
			s = o.Price.Sub(ref).Div(ref)
		}
		if s.LessThan(minimumSpread) {
			out = append(out, Cancel{ID: o.ID, Reason: ReasonMinSpread, Spread: s, Threshold: minimumSpread})
		}
	}
	return out
}

// ShouldDeferRefresh reports whether the live non-hanging orders are close
// enough to the freshly built proposal that no refresh cancel is needed
// (spec §4.6 "Refresh cancel" / §8 P4). It sorts each side's prices
// (best-first, matching the Proposal convention) and compares them
// pairwise; any length mismatch or any pair exceeding tolerance fails the
// defer and triggers a full non-hanging cancel.
func ShouldDeferRefresh(active []types.ActiveOrder, proposed types.Proposal, tolerancePct decimal.Decimal) bool {
	if tolerancePct.Sign() < 0 {
		return false
	}

	var liveBuys, liveSells []decimal.Decimal
	for _, o := range active {
		if o.Side == types.SideBuy {
			liveBuys = append(liveBuys, o.Price)
		} else {
			liveSells = append(liveSells, o.Price)
		}
	}

	proposedBuys := pricesOf(proposed.Buys)
	proposedSells := pricesOf(proposed.Sells)

	return withinTolerance(liveBuys, proposedBuys, tolerancePct, true) &&
		withinTolerance(liveSells, proposedSells, tolerancePct, false)
}

func pricesOf(levels []types.PriceSize) []decimal.Decimal {
	out := make([]decimal.Decimal, len(levels))
	for i, l := range levels {
		out[i] = l.Price
	}
	return out
}

// withinTolerance sorts both slices best-first (descending for buys,
// ascending for sells) and checks pairwise relative deviation.
func withinTolerance(live, proposed []decimal.Decimal, tolerancePct decimal.Decimal, descending bool) bool {
	if len(live) != len(proposed) {
		return false
	}
	if len(live) == 0 {
		return true
	}

	liveSorted := append([]decimal.Decimal(nil), live...)
	proposedSorted := append([]decimal.Decimal(nil), proposed...)
	sortPrices(liveSorted, descending)
	sortPrices(proposedSorted, descending)

	for i := range liveSorted {
		if liveSorted[i].Sign() <= 0 {
			return false
		}
		dev := proposedSorted[i].Sub(liveSorted[i]).Abs().Div(liveSorted[i])
		if dev.GreaterThan(tolerancePct) {
			return false
		}
	}
	return true
}

func sortPrices(prices []decimal.Decimal, descending bool) {
	sort.Slice(prices, func(i, j int) bool {
		if descending {
			return prices[i].GreaterThan(prices[j])
		}
		return prices[i].LessThan(prices[j])
	})
}

// RefreshCancelAll returns a Cancel entry for every non-hanging active
// order, used when ShouldDeferRefresh reports false and cancel_timestamp
// permits cancellation (spec §4.6: "mark potential hanging candidates and
// cancel all remaining non-hanging active orders").
func RefreshCancelAll(active []types.ActiveOrder) []Cancel {
	out := make([]Cancel, 0, len(active))
	for _, o := range active {
		out = append(out, Cancel{ID: o.ID, Reason: ReasonRefresh})
	}
	return out
}
