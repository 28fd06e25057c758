package proposal

import (
	"time"

	"github.com/shopspring/decimal"

	"pmmcore/pkg/quantize"
	"pmmcore/pkg/types"
)

var (
	zero = decimal.Zero
	two  = decimal.NewFromInt(2)
	half = decimal.NewFromFloat(0.5)
)

// ApplyStaticBand is pipeline stage 1 (spec §4.4(1)). Clears buys when the
// reference price has reached the ceiling, sells when it has fallen to the
// floor. A non-positive bound (including the -1 disabled sentinel) is a
// no-op for that side.
func ApplyStaticBand(p types.Proposal, ref, ceiling, floor decimal.Decimal) types.Proposal {
	if ceiling.Sign() > 0 && ref.GreaterThanOrEqual(ceiling) {
		p.Buys = nil
	}
	if floor.Sign() > 0 && ref.LessThanOrEqual(floor) {
		p.Sells = nil
	}
	return p
}

// ApplyMovingBand is pipeline stage 2 (spec §4.4(2)). When due, re-anchors
// the band to ref, then applies the same clear rule as the static band
// against the freshly recomputed ceiling/floor.
func ApplyMovingBand(p types.Proposal, band *types.MovingPriceBand, ref decimal.Decimal, now time.Time) types.Proposal {
	if band == nil || !band.Enabled {
		return p
	}
	if band.DueForRefresh(now) {
		band.Anchor(ref, now)
	}
	return ApplyStaticBand(p, ref, band.CurrentCeiling, band.CurrentFloor)
}

// PingPongResult reports whether the ping-pong balances should reset to
// zero on the next tick (spec §4.4(3): "If b == s, reset both to 0 next
// tick").
type PingPongResult struct {
	Proposal   types.Proposal
	ShouldReset bool
}

// ApplyPingPong is pipeline stage 3. Drops the first min(b, |buys|) entries
// of buys and the first min(s, |sells|) entries of sells, where b/s are the
// filled-buys/filled-sells balances.
func ApplyPingPong(p types.Proposal, filledBuys, filledSells int) PingPongResult {
	dropBuys := filledBuys
	if dropBuys > len(p.Buys) {
		dropBuys = len(p.Buys)
	}
	dropSells := filledSells
	if dropSells > len(p.Sells) {
		dropSells = len(p.Sells)
	}
	out := p
	out.Buys = p.Buys[dropBuys:]
	out.Sells = p.Sells[dropSells:]
	return PingPongResult{Proposal: out, ShouldReset: filledBuys == filledSells}
}

// OptimizeParams configures pipeline stage 4 (spec §4.4(4)). CompetingTopBid
// and CompetingTopAsk are the depth-weighted competing top-of-book prices
// the host has already resolved from the venue adapter (using
// get_price_for_volume with the configured depth plus our own resting size
// on that side) — the modifier itself performs no venue I/O.
type OptimizeParams struct {
	Enabled bool
	Tick    decimal.Decimal

	CompetingTopBid decimal.Decimal
	CompetingTopAsk decimal.Decimal

	LevelSpread decimal.Decimal

	SplitLevelsEnabled bool
	BidLevelSpreads    []decimal.Decimal
	AskLevelSpreads    []decimal.Decimal
}

// OptimizeOrderPrices is pipeline stage 4. It pulls each side's top level to
// one tick inside the competing top-of-book on that same side, but only
// ever tightens — it never moves a level to a worse (further from the
// competing top) price than the symmetric ladder already proposed (spec
// §8 S5).
func OptimizeOrderPrices(p types.Proposal, params OptimizeParams) types.Proposal {
	if !params.Enabled {
		return p
	}

	if len(p.Buys) > 0 {
		candidate := params.CompetingTopBid.Add(params.Tick)
		level0 := decimal.Min(p.Buys[0].Price, candidate)
		p.Buys[0].Price = level0
		propagateBuyLevels(p.Buys, level0, params)
	}
	if len(p.Sells) > 0 {
		candidate := params.CompetingTopAsk.Sub(params.Tick)
		level0 := decimal.Max(p.Sells[0].Price, candidate)
		p.Sells[0].Price = level0
		propagateSellLevels(p.Sells, level0, params)
	}
	return p
}

func propagateBuyLevels(buys []types.PriceSize, level0 decimal.Decimal, params OptimizeParams) {
	one := decimal.NewFromInt(1)
	for i := 1; i < len(buys); i++ {
		if params.SplitLevelsEnabled && len(params.BidLevelSpreads) > i {
			buys[i].Price = level0.Mul(
				one.Sub(pct(params.BidLevelSpreads[i])).Div(one.Sub(pct(params.BidLevelSpreads[0]))),
			)
			continue
		}
		idx := decimal.NewFromInt(int64(i))
		buys[i].Price = level0.Mul(one.Sub(idx.Mul(params.LevelSpread)))
	}
}

func propagateSellLevels(sells []types.PriceSize, level0 decimal.Decimal, params OptimizeParams) {
	one := decimal.NewFromInt(1)
	for i := 1; i < len(sells); i++ {
		if params.SplitLevelsEnabled && len(params.AskLevelSpreads) > i {
			sells[i].Price = level0.Mul(
				one.Add(pct(params.AskLevelSpreads[i])).Div(one.Add(pct(params.AskLevelSpreads[0]))),
			)
			continue
		}
		idx := decimal.NewFromInt(int64(i))
		sells[i].Price = level0.Mul(one.Add(idx.Mul(params.LevelSpread)))
	}
}

// pct converts a spread expressed as a percentage (e.g. 1.5 meaning 1.5%)
// into a fraction (0.015), matching spec §4.4(4)'s "spreads[i]/100".
func pct(spreadPct decimal.Decimal) decimal.Decimal {
	return spreadPct.Div(decimal.NewFromInt(100))
}

// ApplyTransactionCosts is pipeline stage 5 (spec §4.4(5)). Shrinks each
// buy price by (1 - feePct) and inflates each sell price by (1 + feePct),
// then re-quantizes.
func ApplyTransactionCosts(p types.Proposal, q *quantize.Quantizer, pair types.Pair, feePct decimal.Decimal, enabled bool) types.Proposal {
	if !enabled {
		return p
	}
	one := decimal.NewFromInt(1)
	for i := range p.Buys {
		p.Buys[i].Price = q.QuantizePrice(pair, p.Buys[i].Price.Mul(one.Sub(feePct)))
	}
	for i := range p.Sells {
		p.Sells[i].Price = q.QuantizePrice(pair, p.Sells[i].Price.Mul(one.Add(feePct)))
	}
	return p
}

// InventorySkewParams configures pipeline stage 6 (spec §4.4(6)).
type InventorySkewParams struct {
	Enabled bool

	Base  decimal.Decimal // current base holdings B
	Quote decimal.Decimal // current quote holdings Q
	Ref   decimal.Decimal // reference price P

	TargetBaseRatio   decimal.Decimal // t in [0, 1]
	TotalOrderNotional decimal.Decimal // sum of quoted notional across levels, in quote units
	RangeMultiplier   decimal.Decimal
}

// InventorySkewRatios holds the resulting multiplicative size ratios.
type InventorySkewRatios struct {
	BidRatio decimal.Decimal
	AskRatio decimal.Decimal
}

// computeInventorySkew derives bid_ratio/ask_ratio ∈ [0, 2] from the
// current base/quote holdings and the configured target band (spec
// §4.4(6)). At the target ratio both come out to 1 (spec §8 R2); at or
// below the low water mark bid_ratio saturates to 2 and ask_ratio to 0,
// and symmetrically at or above the high water mark.
func computeInventorySkew(params InventorySkewParams) InventorySkewRatios {
	if params.Ref.Sign() <= 0 {
		return InventorySkewRatios{BidRatio: decimal.NewFromInt(1), AskRatio: decimal.NewFromInt(1)}
	}

	v := params.Base.Add(params.Quote.Div(params.Ref)) // total value in base terms
	totalValue := v.Mul(params.Ref)                    // total value in quote terms

	r := params.TotalOrderNotional.Mul(params.RangeMultiplier)
	capAt := totalValue.Mul(half)
	if r.GreaterThan(capAt) {
		r = capAt
	}

	target := params.TargetBaseRatio.Mul(v)
	rInBase := decimal.Zero
	if params.Ref.Sign() > 0 {
		rInBase = r.Div(params.Ref)
	}

	low := decimal.Max(target.Sub(rInBase), zero)
	high := decimal.Min(target.Add(rInBase), v)

	current := params.Base

	if !high.GreaterThan(low) {
		// Degenerate band (R collapsed to zero): step function at the
		// target instead of a division by zero.
		if current.LessThanOrEqual(low) {
			return InventorySkewRatios{BidRatio: two, AskRatio: zero}
		}
		return InventorySkewRatios{BidRatio: zero, AskRatio: two}
	}

	frac := current.Sub(low).Div(high.Sub(low))
	if frac.LessThan(zero) {
		frac = zero
	}
	if frac.GreaterThan(decimal.NewFromInt(1)) {
		frac = decimal.NewFromInt(1)
	}

	bidRatio := two.Sub(two.Mul(frac))
	askRatio := two.Mul(frac)
	return InventorySkewRatios{BidRatio: bidRatio, AskRatio: askRatio}
}

// ApplyInventorySkew is pipeline stage 6. Scales every buy size by the
// derived bid ratio and every sell size by the ask ratio, then re-quantizes.
func ApplyInventorySkew(p types.Proposal, q *quantize.Quantizer, pair types.Pair, params InventorySkewParams) types.Proposal {
	if !params.Enabled {
		return p
	}
	ratios := computeInventorySkew(params)
	for i := range p.Buys {
		p.Buys[i].Size = q.QuantizeSize(pair, p.Buys[i].Size.Mul(ratios.BidRatio))
	}
	for i := range p.Sells {
		p.Sells[i].Size = q.QuantizeSize(pair, p.Sells[i].Size.Mul(ratios.AskRatio))
	}
	return p
}

// BudgetParams configures pipeline stage 7 (spec §4.4(7)).
type BudgetParams struct {
	AvailableQuote decimal.Decimal // venue balance + non-hanging non-candidate resting buy notional
	AvailableBase  decimal.Decimal // venue balance + non-hanging non-candidate resting sell size
	FeePct         decimal.Decimal
}

// ApplyBudget is pipeline stage 7. Walks buys in order, reducing the
// available quote by size*price*(1+feePct); when the remaining quote can't
// cover a level it is shrunk to the affordable amount and every level after
// it is zeroed. Sells are walked analogously against available base. Zero
// size entries are dropped.
func ApplyBudget(p types.Proposal, params BudgetParams) types.Proposal {
	one := decimal.NewFromInt(1)
	remainingQuote := params.AvailableQuote
	for i := range p.Buys {
		needed := p.Buys[i].Size.Mul(p.Buys[i].Price).Mul(one.Add(params.FeePct))
		if needed.LessThanOrEqual(remainingQuote) {
			remainingQuote = remainingQuote.Sub(needed)
			continue
		}
		denom := p.Buys[i].Price.Mul(one.Add(params.FeePct))
		if denom.Sign() <= 0 || remainingQuote.Sign() <= 0 {
			p.Buys[i].Size = zero
		} else {
			p.Buys[i].Size = remainingQuote.Div(denom)
		}
		remainingQuote = zero
		for j := i + 1; j < len(p.Buys); j++ {
			p.Buys[j].Size = zero
		}
		break
	}

	remainingBase := params.AvailableBase
	for i := range p.Sells {
		needed := p.Sells[i].Size
		if needed.LessThanOrEqual(remainingBase) {
			remainingBase = remainingBase.Sub(needed)
			continue
		}
		if remainingBase.Sign() <= 0 {
			p.Sells[i].Size = zero
		} else {
			p.Sells[i].Size = remainingBase
		}
		remainingBase = zero
		for j := i + 1; j < len(p.Sells); j++ {
			p.Sells[j].Size = zero
		}
		break
	}

	return p.DropZeroSizes()
}

// ApplyMinimumThresholds is pipeline stage 8 (spec §3 invariant I5, §4.4(8)).
// Drops any level whose size falls under the venue's minimum order size, or
// whose notional (size*price) falls under the minimum notional. Runs after
// the budget stage so it sees final, possibly budget-shrunk sizes.
func ApplyMinimumThresholds(p types.Proposal, q *quantize.Quantizer, pair types.Pair) types.Proposal {
	minSize := q.MinOrderSize(pair)
	minNotional := q.MinNotional(pair)

	belowThreshold := func(ps types.PriceSize) bool {
		if minSize.Sign() > 0 && ps.Size.LessThan(minSize) {
			return true
		}
		if minNotional.Sign() > 0 && ps.Notional().LessThan(minNotional) {
			return true
		}
		return false
	}

	buys := make([]types.PriceSize, 0, len(p.Buys))
	for _, b := range p.Buys {
		if !belowThreshold(b) {
			buys = append(buys, b)
		}
	}
	sells := make([]types.PriceSize, 0, len(p.Sells))
	for _, s := range p.Sells {
		if !belowThreshold(s) {
			sells = append(sells, s)
		}
	}
	p.Buys, p.Sells = buys, sells
	return p
}

// FilterTakers is pipeline stage 9 (spec §4.4(9)). Unless takeIfCrossed is
// true, drops every buy whose price has reached the current top ask and
// every sell whose price has reached the current top bid.
func FilterTakers(p types.Proposal, topBid, topAsk decimal.Decimal, takeIfCrossed bool) types.Proposal {
	if takeIfCrossed {
		return p
	}
	buys := make([]types.PriceSize, 0, len(p.Buys))
	for _, b := range p.Buys {
		if b.Price.LessThan(topAsk) {
			buys = append(buys, b)
		}
	}
	sells := make([]types.PriceSize, 0, len(p.Sells))
	for _, s := range p.Sells {
		if s.Price.GreaterThan(topBid) {
			sells = append(sells, s)
		}
	}
	p.Buys, p.Sells = buys, sells
	return p
}
