package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"pmmcore/pkg/types"
)

func validConfig() StrategyConfig {
	return StrategyConfig{
		BidSpread:       decimal.NewFromFloat(0.01),
		AskSpread:       decimal.NewFromFloat(0.01),
		OrderAmount:     decimal.NewFromInt(1),
		OrderLevels:     1,
		OrderRefreshTime: 30 * time.Second,
		MaxOrderAge:     time.Hour,
		PriceType:       types.PriceTypeMid,
		PriceCeiling:    decimal.NewFromInt(-1),
		PriceFloor:      decimal.NewFromInt(-1),
	}
}

func TestValidateAcceptsMinimalConfig(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateRejectsCeilingBelowFloor(t *testing.T) {
	c := validConfig()
	c.PriceCeiling = decimal.NewFromInt(100)
	c.PriceFloor = decimal.NewFromInt(105)
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error when ceiling < floor")
	}
}

func TestValidateRejectsZeroOrderLevels(t *testing.T) {
	c := validConfig()
	c.OrderLevels = 0
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for order_levels <= 0")
	}
}

func TestValidateRejectsInventorySkewWithoutRangeMultiplier(t *testing.T) {
	c := validConfig()
	c.InventorySkewEnabled = true
	c.InventoryTargetBasePct = decimal.NewFromFloat(0.5)
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for missing inventory_range_multiplier")
	}
}

func TestValidateRejectsUnknownPriceType(t *testing.T) {
	c := validConfig()
	c.PriceType = "bogus"
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for unknown price_type")
	}
}

func TestValidateRejectsSplitLevelsMissingSpreads(t *testing.T) {
	c := validConfig()
	c.OrderLevels = 2
	c.SplitOrderLevelsEnabled = true
	c.BidOrderLevelSpreads = []decimal.Decimal{decimal.NewFromInt(1)}
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for insufficient split-level spreads")
	}
}
