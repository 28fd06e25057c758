// Package executor implements the Executor component: it places the
// surviving proposal as limit orders, captures CreatedOrderPairs for
// hanging-order promotion, and advances the create/cancel timers (spec
// §4.7).
package executor

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"pmmcore/internal/hanging"
	"pmmcore/internal/orders"
	"pmmcore/pkg/types"
)

// Preconditions bundles the gating state the Executor must check before
// placing anything (spec §4.7).
type Preconditions struct {
	Now                  time.Time
	CreateTimestamp      time.Time
	ShouldWaitForCancelAck bool
	CancelsInFlight      int
	NonHangingNonCandidate []types.ActiveOrder
}

// CanPlace reports whether every Executor precondition is satisfied.
func (p Preconditions) CanPlace(proposal types.Proposal) bool {
	if p.Now.Before(p.CreateTimestamp) {
		return false
	}
	if p.ShouldWaitForCancelAck && p.CancelsInFlight > 0 {
		return false
	}
	if proposal.IsEmpty() {
		return false
	}
	if len(p.NonHangingNonCandidate) > 0 {
		return false
	}
	return true
}

// Executor places proposals through a venue adapter and emits outbound
// events through a sink.
type Executor struct {
	venue  types.VenueAdapter
	sink   types.EventSink
	logger *slog.Logger

	hangingEnabled bool
	orderRefreshTime time.Duration
	pair           types.Pair
	makerType      types.OrderType
}

// New creates an Executor for one pair.
func New(pair types.Pair, venue types.VenueAdapter, sink types.EventSink, logger *slog.Logger, hangingEnabled bool, orderRefreshTime time.Duration) *Executor {
	return &Executor{
		venue:            venue,
		sink:             sink,
		logger:           logger.With("component", "executor", "pair", pair),
		hangingEnabled:   hangingEnabled,
		orderRefreshTime: orderRefreshTime,
		pair:             pair,
		makerType:        venue.GetMakerOrderType(),
	}
}

// Result reports the timer values produced by a placement (spec §4.7).
// The caller installs CreateTimestamp on StrategyState and lowers its
// cancel_timestamp to CancelTimestamp when that is earlier
// (cancel_timestamp = min(cancel_timestamp, create_timestamp)).
type Result struct {
	Placed          bool
	CreateTimestamp time.Time
	CancelTimestamp time.Time
}

// Place submits every level of proposal, level 0 first on each side (spec
// §5 "Order placement preserves the proposal's level ordering"), adds each
// newly placed order to mgr, records CreatedOrderPairs when hanging orders
// are enabled, and emits OrderPlaced for each success.
func (e *Executor) Place(ctx context.Context, now time.Time, proposal types.Proposal, mgr *orders.Manager, tr *hanging.Tracker) Result {
	paired := min(len(proposal.Buys), len(proposal.Sells))

	for i := 0; i < paired; i++ {
		buyID := e.place(ctx, now, types.SideBuy, proposal.Buys[i], mgr)
		sellID := e.place(ctx, now, types.SideSell, proposal.Sells[i], mgr)
		if e.hangingEnabled && (buyID != "" || sellID != "") {
			tr.TrackPair(types.CreatedOrderPair{BuyOrderID: buyID, SellOrderID: sellID})
		}
	}
	for i := paired; i < len(proposal.Buys); i++ {
		e.place(ctx, now, types.SideBuy, proposal.Buys[i], mgr)
	}
	for i := paired; i < len(proposal.Sells); i++ {
		e.place(ctx, now, types.SideSell, proposal.Sells[i], mgr)
	}

	createTS := now.Add(e.orderRefreshTime)
	return Result{Placed: true, CreateTimestamp: createTS, CancelTimestamp: createTS}
}

func (e *Executor) place(ctx context.Context, now time.Time, side types.Side, lvl types.PriceSize, mgr *orders.Manager) string {
	clientOrderID := uuid.NewString()
	id, err := e.venue.PlaceLimitOrder(ctx, e.pair, side, lvl.Size, lvl.Price, e.makerType, clientOrderID)
	if err != nil {
		e.logger.Error("placement rejected", "side", side, "price", lvl.Price, "size", lvl.Size, "error", err)
		return ""
	}
	if id == "" {
		// Accepted, id pending — nothing to track yet; a later order event
		// will carry the id.
		return ""
	}

	mgr.Add(types.ActiveOrder{
		ID:        id,
		Side:      side,
		Price:     lvl.Price,
		Size:      lvl.Size,
		CreatedAt: now,
	})

	e.sink.Emit(types.Event{
		Kind:      types.EventOrderPlaced,
		Timestamp: now,
		OrderPlaced: &types.OrderPlacedPayload{
			Side:  side,
			Price: lvl.Price,
			Size:  lvl.Size,
			ID:    id,
		},
	})
	return id
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
