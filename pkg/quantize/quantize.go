// Package quantize rounds prices and sizes to a venue's tick/lot grid and
// looks up its fee schedule. It mirrors the Quantizer component: all
// conversions are pure functions of a per-pair Spec, no I/O, no errors —
// illegal inputs clamp to zero rather than fail the tick.
package quantize

import (
	"github.com/shopspring/decimal"

	"pmmcore/pkg/types"
)

// Spec describes one pair's venue-imposed quantization grid and fee
// schedule. Hosts construct one per pair from venue metadata; the core
// never mutates it.
type Spec struct {
	PriceTick   decimal.Decimal
	LotStep     decimal.Decimal
	MinOrderSz  decimal.Decimal
	MinNotional decimal.Decimal

	MakerFeePct decimal.Decimal
	TakerFeePct decimal.Decimal
	FlatFee     decimal.Decimal
}

// Quantizer rounds prices/sizes against a fixed set of per-pair specs.
type Quantizer struct {
	specs map[types.Pair]Spec
}

// New builds a Quantizer from a pair→Spec lookup table.
func New(specs map[types.Pair]Spec) *Quantizer {
	if specs == nil {
		specs = make(map[types.Pair]Spec)
	}
	return &Quantizer{specs: specs}
}

func (q *Quantizer) spec(pair types.Pair) (Spec, bool) {
	s, ok := q.specs[pair]
	return s, ok
}

// QuantizePrice rounds price to the pair's price tick using banker's
// rounding (half-even), matching spec §4.1. An unknown pair or a
// non-positive tick clamps the result to zero.
func (q *Quantizer) QuantizePrice(pair types.Pair, price decimal.Decimal) decimal.Decimal {
	spec, ok := q.spec(pair)
	if !ok || spec.PriceTick.Sign() <= 0 || price.Sign() < 0 {
		return decimal.Zero
	}
	steps := price.DivRound(spec.PriceTick, 16).RoundBank(0)
	return steps.Mul(spec.PriceTick)
}

// QuantizeSize floors size to the pair's lot step (spec §4.1: "floors to
// the venue's lot step"). An unknown pair, a non-positive lot, or a
// negative size clamps to zero.
func (q *Quantizer) QuantizeSize(pair types.Pair, size decimal.Decimal) decimal.Decimal {
	spec, ok := q.spec(pair)
	if !ok || spec.LotStep.Sign() <= 0 || size.Sign() < 0 {
		return decimal.Zero
	}
	steps := size.Div(spec.LotStep).Floor()
	return steps.Mul(spec.LotStep)
}

// MinOrderSize looks up the minimum order size for pair; zero if unknown.
func (q *Quantizer) MinOrderSize(pair types.Pair) decimal.Decimal {
	spec, ok := q.spec(pair)
	if !ok {
		return decimal.Zero
	}
	return spec.MinOrderSz
}

// MinNotional looks up the minimum notional for pair; zero if unknown.
func (q *Quantizer) MinNotional(pair types.Pair) decimal.Decimal {
	spec, ok := q.spec(pair)
	if !ok {
		return decimal.Zero
	}
	return spec.MinNotional
}

// PriceTick looks up the price tick for pair; zero if unknown.
func (q *Quantizer) PriceTick(pair types.Pair) decimal.Decimal {
	spec, ok := q.spec(pair)
	if !ok {
		return decimal.Zero
	}
	return spec.PriceTick
}

// Fee returns the additive fee (percentage of notional plus flat
// components) for the given fee type (maker or taker) on pair (spec §4.1);
// the fee does not depend on side, size or price.
func (q *Quantizer) Fee(pair types.Pair, typ types.FeeType, size, price decimal.Decimal) types.Fee {
	spec, ok := q.spec(pair)
	if !ok {
		return types.Fee{}
	}
	pct := spec.MakerFeePct
	if typ == types.FeeTypeTaker {
		pct = spec.TakerFeePct
	}
	return types.Fee{Percent: pct, FlatComponents: spec.FlatFee}
}

// Set installs or replaces the spec for pair.
func (q *Quantizer) Set(pair types.Pair, spec Spec) {
	q.specs[pair] = spec
}
