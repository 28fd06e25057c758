// Package proposal builds the symmetric multi-level quote ladder and runs
// the fixed, ordered pipeline of modifiers that turns it into a
// venue-compliant, inventory- and budget-aware Proposal. The ordering of
// the modifiers is load-bearing (spec §4.4): band first so later stages
// don't waste work, budget late so it sees the final sizes, taker-filter
// last because earlier stages may move prices across the book.
package proposal

import (
	"sort"

	"github.com/shopspring/decimal"

	"pmmcore/pkg/quantize"
	"pmmcore/pkg/types"
)

// OverrideLevel replaces the symmetric construction for one level id when
// an override table is supplied (spec §4.3).
type OverrideLevel struct {
	Side     types.Side
	SpreadPct decimal.Decimal
	Size     decimal.Decimal
}

// BuildParams bundles everything needed to emit the initial Proposal.
type BuildParams struct {
	Pair types.Pair
	Q    *quantize.Quantizer

	// PBuy / PSell are the per-side reference prices (normally equal; when
	// inventory cost is active, PSell = max(inventory_cost, P) — computed
	// by the caller via pricer.AskBasePrice before calling Build).
	PBuy, PSell decimal.Decimal

	BidSpread, AskSpread decimal.Decimal
	LevelSpread          decimal.Decimal
	OrderAmount          decimal.Decimal
	LevelAmount          decimal.Decimal
	BuyLevels, SellLevels int

	// Override, when non-nil, fully replaces the symmetric construction
	// (spec §4.3 "Override mode").
	Override map[int]OverrideLevel
}

// Build emits the initial symmetric Proposal for one tick (spec §4.3).
func Build(p BuildParams) types.Proposal {
	if p.Override != nil {
		return buildFromOverride(p)
	}
	return buildSymmetric(p)
}

func buildSymmetric(p BuildParams) types.Proposal {
	out := types.Proposal{
		Buys:  make([]types.PriceSize, 0, p.BuyLevels),
		Sells: make([]types.PriceSize, 0, p.SellLevels),
	}

	one := decimal.NewFromInt(1)
	for i := 0; i < p.BuyLevels; i++ {
		idx := decimal.NewFromInt(int64(i))
		frac := one.Sub(p.BidSpread).Sub(idx.Mul(p.LevelSpread))
		price := p.Q.QuantizePrice(p.Pair, p.PBuy.Mul(frac))
		size := p.Q.QuantizeSize(p.Pair, p.OrderAmount.Add(idx.Mul(p.LevelAmount)))
		out.Buys = append(out.Buys, types.PriceSize{Price: price, Size: size})
	}
	for i := 0; i < p.SellLevels; i++ {
		idx := decimal.NewFromInt(int64(i))
		frac := one.Add(p.AskSpread).Add(idx.Mul(p.LevelSpread))
		price := p.Q.QuantizePrice(p.Pair, p.PSell.Mul(frac))
		size := p.Q.QuantizeSize(p.Pair, p.OrderAmount.Add(idx.Mul(p.LevelAmount)))
		out.Sells = append(out.Sells, types.PriceSize{Price: price, Size: size})
	}
	return out
}

func buildFromOverride(p BuildParams) types.Proposal {
	out := types.Proposal{}
	one := decimal.NewFromInt(1)

	ids := make([]int, 0, len(p.Override))
	for id := range p.Override {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	for _, id := range ids {
		lvl := p.Override[id]
		switch lvl.Side {
		case types.SideBuy:
			frac := one.Sub(lvl.SpreadPct)
			price := p.Q.QuantizePrice(p.Pair, p.PBuy.Mul(frac))
			size := p.Q.QuantizeSize(p.Pair, lvl.Size)
			out.Buys = append(out.Buys, types.PriceSize{Price: price, Size: size})
		case types.SideSell:
			frac := one.Add(lvl.SpreadPct)
			price := p.Q.QuantizePrice(p.Pair, p.PSell.Mul(frac))
			size := p.Q.QuantizeSize(p.Pair, lvl.Size)
			out.Sells = append(out.Sells, types.PriceSize{Price: price, Size: size})
		}
	}
	return out
}
