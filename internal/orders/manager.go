// Package orders implements the Active-Order Manager: the id-indexed map
// of live orders, classified as hanging or non-hanging by delegating to the
// Hanging-Orders Tracker, with age computed against the time the caller
// passes in (spec §2 C6).
package orders

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"pmmcore/internal/hanging"
	"pmmcore/pkg/types"
)

// Manager owns the id → ActiveOrder map. It never classifies hanging
// status itself — that's always delegated to the Tracker passed in, so
// there is exactly one place an order id is labeled hanging (spec §9
// "cyclic references": no back-pointer, pass the manager by reference
// instead).
type Manager struct {
	mu     sync.RWMutex
	orders map[string]types.ActiveOrder
}

// New creates an empty Active-Order Manager.
func New() *Manager {
	return &Manager{orders: make(map[string]types.ActiveOrder)}
}

// Add records a newly acknowledged order (spec §3 "Lifecycle: ActiveOrder
// created by Executor on ACK").
func (m *Manager) Add(o types.ActiveOrder) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[o.ID] = o
}

// Remove destroys an order on fill or cancel.
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.orders, id)
}

// Get looks up an order by id.
func (m *Manager) Get(id string) (types.ActiveOrder, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.orders[id]
	return o, ok
}

// SetRemaining updates the remaining quantity of a partially filled order.
func (m *Manager) SetRemaining(id string, remaining decimal.Decimal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if o, ok := m.orders[id]; ok {
		o.Size = remaining
		m.orders[id] = o
	}
}

// All returns a snapshot of every active order.
func (m *Manager) All() []types.ActiveOrder {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]types.ActiveOrder, 0, len(m.orders))
	for _, o := range m.orders {
		out = append(out, o)
	}
	return out
}

// NonHanging returns every active order the tracker does not classify as
// hanging.
func (m *Manager) NonHanging(tr *hanging.Tracker) []types.ActiveOrder {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]types.ActiveOrder, 0, len(m.orders))
	for _, o := range m.orders {
		if !tr.IsHanging(o.ID) {
			out = append(out, o)
		}
	}
	return out
}

// NonHangingNonCandidate returns active orders that are neither hanging nor
// awaiting promotion — the set the Executor checks must be empty before
// placing (spec §4.7) and the set whose resting size counts toward
// available budget (spec §4.4(7)).
func (m *Manager) NonHangingNonCandidate(tr *hanging.Tracker) []types.ActiveOrder {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]types.ActiveOrder, 0, len(m.orders))
	for _, o := range m.orders {
		if !tr.IsHanging(o.ID) && !tr.IsCandidate(o.ID) {
			out = append(out, o)
		}
	}
	return out
}

// Hanging returns every active order the tracker classifies as hanging.
func (m *Manager) Hanging(tr *hanging.Tracker) []types.ActiveOrder {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]types.ActiveOrder, 0, len(m.orders))
	for _, o := range m.orders {
		if tr.IsHanging(o.ID) {
			out = append(out, o)
		}
	}
	return out
}

// Age returns how long id has been resting as of now; zero and false if
// the order is unknown.
func (m *Manager) Age(id string, now time.Time) (time.Duration, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.orders[id]
	if !ok {
		return 0, false
	}
	return o.Age(now), true
}

// Restore reloads a set of previously persisted orders at startup. When
// hangingEnabled is true every restored order is reclassified as hanging
// (spec §6 "Persisted state", §9 open question — "adopt only when
// enabled"); otherwise they are restored as ordinary active orders.
func (m *Manager) Restore(restored []types.ActiveOrder, hangingEnabled bool, tr *hanging.Tracker) {
	m.mu.Lock()
	for _, o := range restored {
		m.orders[o.ID] = o
	}
	m.mu.Unlock()

	if !hangingEnabled {
		return
	}
	for _, o := range restored {
		tr.PromoteDirect(o)
	}
}
