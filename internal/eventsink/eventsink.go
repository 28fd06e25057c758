// Package eventsink implements the Event Sink component: it consumes
// fill/complete/cancel notifications from the venue adapter, mutates the
// ping-pong counters, schedules the post-fill requote delay, and forwards
// fills to the inventory-cost delegate (spec §4.8).
package eventsink

import (
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"pmmcore/internal/hanging"
	"pmmcore/internal/orders"
	"pmmcore/pkg/types"
)

// Timers is the subset of StrategyState the sink advances on a fill (spec
// §4.8). The caller owns the actual StrategyState and copies these back.
type Timers struct {
	CreateTimestamp    time.Time
	CancelTimestamp    time.Time
	FilledBuysBalance  int
	FilledSellsBalance int
	LastOwnTradePrice  decimal.Decimal
}

// Sink wires incoming fill/cancel notifications into the Active-Order
// Manager and Hanging-Orders Tracker.
type Sink struct {
	mgr *orders.Manager
	tr  *hanging.Tracker
	inv types.InventoryCostDelegate

	filledOrderDelay time.Duration
	logger           *slog.Logger
}

// New creates an Event Sink. inv may be nil (spec §1: the inventory-cost
// ledger is an optional external collaborator).
func New(mgr *orders.Manager, tr *hanging.Tracker, inv types.InventoryCostDelegate, filledOrderDelay time.Duration, logger *slog.Logger) *Sink {
	return &Sink{
		mgr:              mgr,
		tr:               tr,
		inv:              inv,
		filledOrderDelay: filledOrderDelay,
		logger:           logger.With("component", "eventsink"),
	}
}

// HandleFill processes a fill notification (spec §4.8). fillTime is the
// fill's own timestamp, used unmodified as the base for the delay (spec §8 P7: "no earlier than t +
// filled_order_delay", where t is the fill time).
func (s *Sink) HandleFill(order types.ActiveOrder, fillPrice, fillSize, fee decimal.Decimal, fillTime time.Time, timers Timers) Timers {
	if s.tr.IsHanging(order.ID) {
		s.logger.Info("hanging order filled, no timer/counter update", "id", order.ID)
		return timers
	}

	delayUntil := fillTime.Add(s.filledOrderDelay)
	timers.CreateTimestamp = delayUntil
	if delayUntil.Before(timers.CancelTimestamp) {
		timers.CancelTimestamp = delayUntil
	}

	if order.Side == types.SideBuy {
		timers.FilledBuysBalance++
	} else {
		timers.FilledSellsBalance++
	}
	timers.LastOwnTradePrice = fillPrice

	if s.inv != nil {
		s.inv.ProcessOrderFillEvent(types.InventoryCostOrderFillEvent{
			Side:  order.Side,
			Price: fillPrice,
			Size:  fillSize,
		})
	}

	s.logger.Info("fill processed", "id", order.ID, "side", order.Side, "price", fillPrice, "size", fillSize, "fee", fee)
	return timers
}

// HandleCompleted removes a fully-filled order from both the Active-Order
// Manager and the Hanging-Orders Tracker (spec §3 "Lifecycle": destroyed on
// fill/cancel), and notifies the tracker so a surviving partner can be
// promoted on the next tick.
func (s *Sink) HandleCompleted(orderID string) {
	s.mgr.Remove(orderID)
	s.tr.NotifyFilled(orderID)
	s.tr.Remove(orderID)
}

// HandleCancelled removes a cancelled order from the Active-Order Manager
// and the Hanging-Orders Tracker.
func (s *Sink) HandleCancelled(orderID string) {
	s.mgr.Remove(orderID)
	s.tr.Remove(orderID)
}
