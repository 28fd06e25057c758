// Package invcost implements an in-process types.InventoryCostDelegate: a
// weighted-average-cost tracker over net base-asset position.
package invcost

import (
	"sync"

	"github.com/shopspring/decimal"

	"pmmcore/pkg/types"
)

// Tracker maintains the weighted-average entry price of a net base-asset
// position. It is a pure price oracle — the core never asks it to place or
// size anything (spec §1).
type Tracker struct {
	mu sync.RWMutex

	qty         decimal.Decimal // signed net base position
	avgCost     decimal.Decimal
	hasPosition bool
}

// New creates an empty Tracker.
func New() *Tracker {
	return &Tracker{}
}

// GetPrice returns the current weighted-average cost basis; ok is false
// while there is no open position, in which case callers fall back to mid
// (spec §4.2 "inventory_cost absent ⇒ fall back to mid").
func (t *Tracker) GetPrice() (decimal.Decimal, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.avgCost, t.hasPosition
}

// ProcessOrderFillEvent folds a fill into the weighted average (spec §4.8:
// forwarded on every non-hanging fill). Buys extend the position and move
// the average cost; sells reduce it without changing the average, except
// that the position resets to flat (no cost basis) once it reaches zero or
// would go below it.
func (t *Tracker) ProcessOrderFillEvent(ev types.InventoryCostOrderFillEvent) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if ev.Side == types.SideBuy {
		totalCost := t.avgCost.Mul(t.qty).Add(ev.Price.Mul(ev.Size))
		t.qty = t.qty.Add(ev.Size)
		if t.qty.Sign() > 0 {
			t.avgCost = totalCost.Div(t.qty)
			t.hasPosition = true
		}
		return
	}

	t.qty = t.qty.Sub(ev.Size)
	if t.qty.Sign() <= 0 {
		t.qty = decimal.Zero
		t.avgCost = decimal.Zero
		t.hasPosition = false
	}
}

// Position returns the current signed net base quantity.
func (t *Tracker) Position() decimal.Decimal {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.qty
}
