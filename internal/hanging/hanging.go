// Package hanging implements the Hanging-Orders Tracker: the classification
// of previously placed orders that are kept resting after their
// level-partner fills (spec §4.5). It holds no back-pointer to the
// strategy or the order manager — callers pass whatever state they need
// into each method (spec §9 "cyclic references").
package hanging

import (
	"sync"

	"github.com/shopspring/decimal"

	"pmmcore/pkg/types"
)

// Tracker classifies order ids as hanging and decides when a hanging order
// should be cancelled for having drifted too far from the reference price.
// Mutex-protected so the tick loop and the event sink (same executor, but
// defensively safe) can both touch it.
type Tracker struct {
	mu sync.RWMutex

	cancelPct decimal.Decimal // hanging_orders_cancel_pct

	hanging   map[string]types.HangingOrderRef
	candidate map[string]types.CreatedOrderPair // keyed by the surviving order id
	pairs     map[string]types.CreatedOrderPair // keyed by either leg's id, for lookup
}

// New creates a Tracker with the configured cancel threshold.
func New(cancelPct decimal.Decimal) *Tracker {
	return &Tracker{
		cancelPct: cancelPct,
		hanging:   make(map[string]types.HangingOrderRef),
		candidate: make(map[string]types.CreatedOrderPair),
		pairs:     make(map[string]types.CreatedOrderPair),
	}
}

// TrackPair records a CreatedOrderPair for promotion tracking (spec §4.7:
// "For level i < min(|buys|, |sells|), when hanging_orders are enabled,
// record a CreatedOrderPair").
func (t *Tracker) TrackPair(pair types.CreatedOrderPair) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if pair.BuyOrderID != "" {
		t.pairs[pair.BuyOrderID] = pair
	}
	if pair.SellOrderID != "" {
		t.pairs[pair.SellOrderID] = pair
	}
}

// NotifyFilled is called by the Event Sink when orderID completes. If
// orderID is one leg of a tracked CreatedOrderPair, the surviving partner
// (if any) becomes a hanging candidate — it is promoted to hanging on the
// following tick via Promote (spec §4.5: "on the tick following a fill on
// one side ... its unfilled partner is promoted to hanging").
func (t *Tracker) NotifyFilled(orderID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	pair, ok := t.pairs[orderID]
	if !ok {
		return
	}
	delete(t.pairs, orderID)

	var partner string
	switch orderID {
	case pair.BuyOrderID:
		partner = pair.SellOrderID
	case pair.SellOrderID:
		partner = pair.BuyOrderID
	}
	if partner == "" {
		return
	}
	t.candidate[partner] = pair
	delete(t.pairs, partner)
}

// Promote converts every pending candidate into a tracked hanging order,
// using lookup (its current price/side/size from the Active-Order Manager) to
// build the HangingOrderRef. Call once per tick, iff hanging_orders_enabled.
func (t *Tracker) Promote(enabled bool, lookup func(orderID string) (types.ActiveOrder, bool)) []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !enabled {
		t.candidate = make(map[string]types.CreatedOrderPair)
		return nil
	}

	promoted := make([]string, 0, len(t.candidate))
	for id := range t.candidate {
		order, ok := lookup(id)
		if !ok {
			continue
		}
		t.hanging[id] = types.HangingOrderRef{
			OrderID: id,
			Price:   order.Price,
			Side:    order.Side,
			Size:    order.Size,
		}
		promoted = append(promoted, id)
	}
	t.candidate = make(map[string]types.CreatedOrderPair)
	return promoted
}

// PromoteDirect marks order as hanging immediately, with no preceding
// CreatedOrderPair/fill sequence. Used only for the restored-orders path
// (spec §6 "Persisted state"), where there is no partner history to derive
// candidacy from.
func (t *Tracker) PromoteDirect(order types.ActiveOrder) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.hanging[order.ID] = types.HangingOrderRef{
		OrderID: order.ID,
		Price:   order.Price,
		Side:    order.Side,
		Size:    order.Size,
	}
}

// IsHanging reports whether id is currently classified as hanging.
func (t *Tracker) IsHanging(id string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.hanging[id]
	return ok
}

// IsCandidate reports whether id is awaiting promotion on the next tick.
func (t *Tracker) IsCandidate(id string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.candidate[id]
	return ok
}

// Remove drops id from the hanging set (full fill or cancel-threshold
// breach; spec §3 "Lifecycle").
func (t *Tracker) Remove(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.hanging, id)
}

// CancelCandidates returns the ids of hanging orders whose price has
// drifted more than cancelPct away from ref (spec §4.5 cancellation rule).
func (t *Tracker) CancelCandidates(ref decimal.Decimal) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if ref.Sign() <= 0 {
		return nil
	}

	var ids []string
	for id, h := range t.hanging {
		dev := h.Price.Sub(ref).Abs().Div(ref)
		if dev.GreaterThan(t.cancelPct) {
			ids = append(ids, id)
		}
	}
	return ids
}

// Snapshot returns a copy of the currently hanging order refs.
func (t *Tracker) Snapshot() []types.HangingOrderRef {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]types.HangingOrderRef, 0, len(t.hanging))
	for _, h := range t.hanging {
		out = append(out, h)
	}
	return out
}
