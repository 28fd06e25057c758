package strategy

import (
	"time"

	"github.com/shopspring/decimal"

	"pmmcore/pkg/types"
)

// State is the core's mutable per-pair state (spec §3 "StrategyState").
// It is read and written exclusively by Engine.Tick and by the inbound
// event drain at the start of each tick — never concurrently (spec §5
// "Shared-resource policy").
type State struct {
	LastTimestamp   time.Time
	CreateTimestamp time.Time // next permitted quote time
	CancelTimestamp time.Time // next permitted mass-cancel

	FilledBuysBalance  int
	FilledSellsBalance int

	LastOwnTradePrice decimal.Decimal
	HasLastOwnTrade   bool

	MarketsReady bool

	Band types.MovingPriceBand
}

// InboundKind discriminates the queue the Event Sink drains at the start
// of every tick (spec §9 "inbound queue drained at the start of each tick").
type InboundKind string

const (
	InboundFill      InboundKind = "fill"
	InboundCompleted InboundKind = "completed"
	InboundCancelled InboundKind = "cancelled"
)

// InboundEvent is a venue-adapter notification queued for processing on
// the next tick.
type InboundEvent struct {
	Kind    InboundKind
	OrderID string

	FillPrice decimal.Decimal
	FillSize  decimal.Decimal
	Fee       decimal.Decimal
	FillTime  time.Time
}
