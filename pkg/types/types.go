// Package types defines shared data structures used across all packages.
//
// This package is the common vocabulary for the strategy engine — sides,
// price/size pairs, proposals, venue-adapter contracts, and the outbound
// event union. It has no dependencies on internal packages, so it can be
// imported by any layer.
package types

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// ————————————————————————————————————————————————————————————————————————
// Core enums
// ————————————————————————————————————————————————————————————————————————

// Side represents the direction of an order: buy or sell.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Opposite returns the other side.
func (s Side) Opposite() Side {
	if s == SideBuy {
		return SideSell
	}
	return SideBuy
}

// OrderType enumerates the order types a venue adapter may report.
type OrderType string

const (
	OrderTypeLimit      OrderType = "LIMIT"
	OrderTypeLimitMaker OrderType = "LIMIT_MAKER"
	OrderTypeMarket     OrderType = "MARKET"
)

// PriceType selects the source the Reference Pricer draws from (spec §4.2).
type PriceType string

const (
	PriceTypeMid           PriceType = "mid"
	PriceTypeBestBid       PriceType = "best_bid"
	PriceTypeBestAsk       PriceType = "best_ask"
	PriceTypeLastTrade     PriceType = "last_trade"
	PriceTypeLastOwnTrade  PriceType = "last_own_trade"
	PriceTypeInventoryCost PriceType = "inventory_cost"
	PriceTypeCustom        PriceType = "custom"
)

// FeeType distinguishes maker vs taker fee schedules.
type FeeType string

const (
	FeeTypeMaker FeeType = "maker"
	FeeTypeTaker FeeType = "taker"
)

// Pair identifies a trading pair on the venue, e.g. "BTC-USDT".
type Pair string

// ————————————————————————————————————————————————————————————————————————
// Decimal helpers
// ————————————————————————————————————————————————————————————————————————

// Disabled is the module-level sentinel for an unset/disabled decimal
// threshold (spec §9 "global decimal constants"). price_ceiling,
// price_floor, and similar optional bounds use this to mean "off".
var Disabled = decimal.NewFromInt(-1)

// IsDisabled reports whether a configured threshold is the disabled sentinel.
func IsDisabled(v decimal.Decimal) bool {
	return v.Equal(Disabled)
}

// ————————————————————————————————————————————————————————————————————————
// Price/size vocabulary
// ————————————————————————————————————————————————————————————————————————

// PriceSize is a single quote level: a non-negative price and a
// non-negative, possibly-zero size (spec §3).
type PriceSize struct {
	Price decimal.Decimal
	Size  decimal.Decimal
}

// IsZero reports whether the level carries no size and should be dropped.
func (ps PriceSize) IsZero() bool {
	return ps.Size.Sign() <= 0
}

// Notional returns Price * Size.
func (ps PriceSize) Notional() decimal.Decimal {
	return ps.Price.Mul(ps.Size)
}

// Proposal is the symmetric multi-level quote ladder the pipeline builds
// and mutates (spec §3). Buys are ordered best-first (highest price first);
// sells are ordered best-first (lowest price first).
type Proposal struct {
	Buys  []PriceSize
	Sells []PriceSize
}

// Clone returns a deep copy so modifiers never alias a caller's slices.
func (p Proposal) Clone() Proposal {
	out := Proposal{
		Buys:  make([]PriceSize, len(p.Buys)),
		Sells: make([]PriceSize, len(p.Sells)),
	}
	copy(out.Buys, p.Buys)
	copy(out.Sells, p.Sells)
	return out
}

// IsEmpty reports whether the proposal has no resting levels on either side.
func (p Proposal) IsEmpty() bool {
	return len(p.Buys) == 0 && len(p.Sells) == 0
}

// DropZeroSizes filters out any level whose size has been shrunk to zero or
// below by an upstream modifier (spec §3 invariant: "no entry has size ≤ 0
// at the end of the pipeline").
func (p Proposal) DropZeroSizes() Proposal {
	out := Proposal{
		Buys:  make([]PriceSize, 0, len(p.Buys)),
		Sells: make([]PriceSize, 0, len(p.Sells)),
	}
	for _, b := range p.Buys {
		if !b.IsZero() {
			out.Buys = append(out.Buys, b)
		}
	}
	for _, s := range p.Sells {
		if !s.IsZero() {
			out.Sells = append(out.Sells, s)
		}
	}
	return out
}

// ————————————————————————————————————————————————————————————————————————
// Active order lifecycle
// ————————————————————————————————————————————————————————————————————————

// ActiveOrder is a live order owned by the Active-Order Manager (spec §3).
type ActiveOrder struct {
	ID        string
	Side      Side
	Price     decimal.Decimal
	Size      decimal.Decimal // remaining (unfilled) quantity
	CreatedAt time.Time
}

// Age returns how long the order has been resting as of now.
func (o ActiveOrder) Age(now time.Time) time.Duration {
	return now.Sub(o.CreatedAt)
}

// HangingOrderRef is a hanging order tracked by id only (spec §3).
type HangingOrderRef struct {
	OrderID string
	Price   decimal.Decimal
	Side    Side
	Size    decimal.Decimal
}

// CreatedOrderPair is the ephemeral record captured when a level's two
// sides are placed together, used to decide which side becomes hanging
// when its partner fills (spec §3).
type CreatedOrderPair struct {
	BuyOrderID  string
	SellOrderID string
}

// MovingPriceBand is a trailing price guard that re-anchors to the live
// reference price every refresh interval (spec §3, §4.4(2)).
type MovingPriceBand struct {
	Enabled             bool
	CeilingPct          decimal.Decimal
	FloorPct            decimal.Decimal
	RefreshIntervalSec  int64

	LastAnchorPrice     decimal.Decimal
	LastAnchorTimestamp time.Time

	CurrentCeiling decimal.Decimal
	CurrentFloor   decimal.Decimal
}

// Anchor re-anchors the band to price at now and recomputes the current
// ceiling/floor from the configured percentages.
func (b *MovingPriceBand) Anchor(price decimal.Decimal, now time.Time) {
	b.LastAnchorPrice = price
	b.LastAnchorTimestamp = now
	one := decimal.NewFromInt(1)
	if b.CeilingPct.Sign() >= 0 {
		b.CurrentCeiling = price.Mul(one.Add(b.CeilingPct))
	}
	if b.FloorPct.Sign() >= 0 {
		b.CurrentFloor = price.Mul(one.Sub(b.FloorPct))
	}
}

// DueForRefresh reports whether now is at least RefreshIntervalSec past
// the last anchor.
func (b MovingPriceBand) DueForRefresh(now time.Time) bool {
	if b.LastAnchorTimestamp.IsZero() {
		return true
	}
	return now.Sub(b.LastAnchorTimestamp) >= time.Duration(b.RefreshIntervalSec)*time.Second
}

// ————————————————————————————————————————————————————————————————————————
// Fee
// ————————————————————————————————————————————————————————————————————————

// Fee is additive: a percentage of notional plus any flat components.
type Fee struct {
	Percent         decimal.Decimal
	FlatComponents  decimal.Decimal
}

// Total returns the fee amount owed on the given notional.
func (f Fee) Total(notional decimal.Decimal) decimal.Decimal {
	return notional.Mul(f.Percent).Add(f.FlatComponents)
}

// ————————————————————————————————————————————————————————————————————————
// Outbound events (spec §6)
// ————————————————————————————————————————————————————————————————————————

// EventKind discriminates the outbound event union.
type EventKind string

const (
	EventOrderPlaced    EventKind = "OrderPlaced"
	EventOrderCancelled EventKind = "OrderCancelled"
	EventOrderFilled    EventKind = "OrderFilled"
	EventOrderCompleted EventKind = "OrderCompleted"
	EventMaxAgeCancel   EventKind = "MaxAgeCancel"
	EventMinSpreadCancel EventKind = "MinSpreadCancel"
)

// Event is the structural outbound notification the core emits; transport
// is adapter-defined (spec §6). Exactly one of the typed payload fields is
// populated, selected by Kind.
type Event struct {
	Kind      EventKind
	Timestamp time.Time

	OrderPlaced    *OrderPlacedPayload
	OrderCancelled *OrderCancelledPayload
	OrderFilled    *OrderFilledPayload
	OrderCompleted *OrderCompletedPayload
	MaxAgeCancel   *MaxAgeCancelPayload
	MinSpreadCancel *MinSpreadCancelPayload
}

type OrderPlacedPayload struct {
	Side  Side
	Price decimal.Decimal
	Size  decimal.Decimal
	ID    string
}

type OrderCancelledPayload struct {
	ID string
}

type OrderFilledPayload struct {
	ID    string
	Price decimal.Decimal
	Size  decimal.Decimal
	Fee   decimal.Decimal
	Side  Side
}

type OrderCompletedPayload struct {
	ID       string
	Side     Side
	AvgPrice decimal.Decimal
}

type MaxAgeCancelPayload struct {
	ID string
}

type MinSpreadCancelPayload struct {
	ID        string
	Spread    decimal.Decimal
	Threshold decimal.Decimal
}

// EventSink receives outbound events emitted by the core. The host wires
// this to its transport/notification channel of choice (spec §6, §9 "small
// set of methods on an injected trait").
type EventSink interface {
	Emit(Event)
}

// ————————————————————————————————————————————————————————————————————————
// External collaborators (spec §6) — only their contracts are defined here.
// ————————————————————————————————————————————————————————————————————————

// VenueAdapter is the injected capability set the core needs from the
// exchange connectivity layer. Transport, auth, and order book maintenance
// live entirely on the other side of this interface (spec §1 out-of-scope
// list); the core only ever calls these methods.
type VenueAdapter interface {
	GetPrice(ctx context.Context, pair Pair, isBuy bool) (decimal.Decimal, error)
	GetPriceForVolume(ctx context.Context, pair Pair, isBuy bool, volume decimal.Decimal) (decimal.Decimal, error)
	GetMidPrice(ctx context.Context, pair Pair) (decimal.Decimal, error)

	GetBalance(ctx context.Context, asset string) (decimal.Decimal, error)
	GetAvailableBalance(ctx context.Context, asset string) (decimal.Decimal, error)

	GetMakerOrderType() OrderType

	QuantizeOrderPrice(pair Pair, price decimal.Decimal) decimal.Decimal
	QuantizeOrderAmount(pair Pair, amount decimal.Decimal, price decimal.Decimal) decimal.Decimal

	GetFee(ctx context.Context, base, quote string, typ FeeType, side Side, size, price decimal.Decimal) (Fee, error)

	// PlaceLimitOrder may be asynchronous; the returned id (once non-empty)
	// identifies the order for subsequent cancel/event correlation. An
	// empty id with a nil error means "accepted, id pending" — the core
	// treats the order as live until an id or rejection event arrives.
	PlaceLimitOrder(ctx context.Context, pair Pair, side Side, size, price decimal.Decimal, typ OrderType, clientOrderID string) (string, error)
	CancelOrder(ctx context.Context, pair Pair, id string) error

	// Ready reports whether the adapter currently has a usable price for pair.
	Ready(pair Pair) bool
}

// PriceDelegate is the optional "asset price delegate" that may source a
// reference price from a different book than the venue adapter's own
// (spec §4.2, §6).
type PriceDelegate interface {
	GetPriceByType(typ PriceType) (decimal.Decimal, error)
	Ready() bool
}

// InventoryCostOrderFillEvent is forwarded to the inventory-cost delegate
// on every non-hanging fill (spec §4.8).
type InventoryCostOrderFillEvent struct {
	Side  Side
	Price decimal.Decimal
	Size  decimal.Decimal
}

// InventoryCostDelegate is the optional external ledger that prices
// inventory cost; the core treats it purely as a price oracle (spec §1, §6).
type InventoryCostDelegate interface {
	GetPrice() (decimal.Decimal, bool)
	ProcessOrderFillEvent(event InventoryCostOrderFillEvent)
}
