// Package config defines the strategy's tunable parameters (spec §6) and
// validates them at construction time. There is no file or CLI parsing
// here — loading a StrategyConfig from YAML/env/flags is a host concern
// outside the core's scope (spec §1).
package config

import (
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"pmmcore/pkg/types"
)

// OverrideLevel mirrors one entry of the order_override table (spec §6).
type OverrideLevel struct {
	Side      types.Side
	SpreadPct decimal.Decimal
	Size      decimal.Decimal
}

// MovingPriceBandConfig is the nested moving_price_band block (spec §6).
type MovingPriceBandConfig struct {
	Enabled            bool
	CeilingPct         decimal.Decimal
	FloorPct           decimal.Decimal
	RefreshIntervalSec int64
}

// StrategyConfig enumerates every knob in spec §6's configuration table.
type StrategyConfig struct {
	BidSpread decimal.Decimal
	AskSpread decimal.Decimal

	OrderAmount      decimal.Decimal
	OrderLevels      int
	OrderLevelSpread decimal.Decimal
	OrderLevelAmount decimal.Decimal

	OrderRefreshTime         time.Duration
	MaxOrderAge              time.Duration
	OrderRefreshTolerancePct decimal.Decimal // ≥ 0 enables
	FilledOrderDelay         time.Duration

	InventorySkewEnabled     bool
	InventoryTargetBasePct   decimal.Decimal // ∈ [0, 1]
	InventoryRangeMultiplier decimal.Decimal

	HangingOrdersEnabled   bool
	HangingOrdersCancelPct decimal.Decimal

	OrderOptimizationEnabled  bool
	BidOrderOptimizationDepth decimal.Decimal
	AskOrderOptimizationDepth decimal.Decimal

	AddTransactionCostsToOrders bool

	PriceType types.PriceType

	TakeIfCrossed bool

	PriceCeiling decimal.Decimal // -1 disables
	PriceFloor   decimal.Decimal // -1 disables

	PingPongEnabled bool

	MinimumSpread decimal.Decimal

	OrderOverride map[int]OverrideLevel

	SplitOrderLevelsEnabled bool
	BidOrderLevelSpreads    []decimal.Decimal
	AskOrderLevelSpreads    []decimal.Decimal

	ShouldWaitOrderCancelConfirmation bool

	MovingPriceBand MovingPriceBandConfig
}

// Validate enforces the invariants spec §3/§7 require to be true at
// construction time. Configuration errors are fatal — the host refuses to
// start the strategy (spec §7 "Configuration error").
func (c StrategyConfig) Validate() error {
	if c.OrderLevels <= 0 {
		return errors.New("config: order_levels must be > 0")
	}
	if c.BidSpread.IsNegative() || c.AskSpread.IsNegative() {
		return errors.New("config: bid_spread/ask_spread must be >= 0")
	}
	if c.OrderAmount.Sign() <= 0 {
		return errors.New("config: order_amount must be > 0")
	}
	if c.OrderRefreshTime <= 0 {
		return errors.New("config: order_refresh_time must be > 0")
	}
	if c.MaxOrderAge <= 0 {
		return errors.New("config: max_order_age must be > 0")
	}

	// I4: price_ceiling >= price_floor whenever both are set positive.
	if c.PriceCeiling.Sign() > 0 && c.PriceFloor.Sign() > 0 && c.PriceCeiling.LessThan(c.PriceFloor) {
		return errors.New("config: price_ceiling must be >= price_floor when both are set")
	}

	if c.InventorySkewEnabled {
		if c.InventoryTargetBasePct.IsNegative() || c.InventoryTargetBasePct.GreaterThan(decimal.NewFromInt(1)) {
			return errors.New("config: inventory_target_base_pct must be in [0, 1]")
		}
		if c.InventoryRangeMultiplier.Sign() <= 0 {
			return errors.New("config: inventory_range_multiplier must be > 0 when inventory_skew_enabled")
		}
	}

	if c.HangingOrdersEnabled && c.HangingOrdersCancelPct.Sign() <= 0 {
		return errors.New("config: hanging_orders_cancel_pct must be > 0 when hanging_orders_enabled")
	}

	switch c.PriceType {
	case types.PriceTypeMid, types.PriceTypeBestBid, types.PriceTypeBestAsk,
		types.PriceTypeLastTrade, types.PriceTypeLastOwnTrade,
		types.PriceTypeInventoryCost, types.PriceTypeCustom:
	default:
		return errors.Errorf("config: unknown price_type %q", c.PriceType)
	}

	if c.SplitOrderLevelsEnabled {
		if len(c.BidOrderLevelSpreads) < c.OrderLevels || len(c.AskOrderLevelSpreads) < c.OrderLevels {
			return errors.New("config: bid_/ask_order_level_spreads must cover every order level when split_order_levels_enabled")
		}
	}

	if c.MovingPriceBand.Enabled && c.MovingPriceBand.RefreshIntervalSec <= 0 {
		return errors.New("config: moving_price_band.refresh_interval_sec must be > 0 when enabled")
	}

	return nil
}
