// Package pricer resolves a single decimal reference price per tick from a
// selectable source (mid, best bid/ask, last trade, last own trade,
// inventory cost, or a custom delegate). It is the Reference Pricer
// component: no placement logic lives here, only price sourcing and the
// documented unset/absent fallbacks to mid.
package pricer

import (
	"fmt"

	"github.com/shopspring/decimal"

	"pmmcore/pkg/types"
)

// Book is the minimal local order-book view the pricer needs from the
// venue adapter layer — best bid/ask and the mid derived from them.
// Concurrency safety and book maintenance belong entirely to the host;
// this is read-only from the pricer's perspective.
type Book interface {
	BestBid() (decimal.Decimal, bool)
	BestAsk() (decimal.Decimal, bool)
	MidPrice() (decimal.Decimal, bool)
}

// Inputs bundles everything Resolve needs beyond the price type itself.
// Each optional price carries a Has* flag; LastOwnTradePrice is only read
// when HasLastOwnTrade is true, i.e. once an own trade has occurred.
type Inputs struct {
	Book Book

	LastTradePrice decimal.Decimal
	HasLastTrade   bool

	LastOwnTradePrice decimal.Decimal
	HasLastOwnTrade   bool

	InventoryCostPrice decimal.Decimal
	HasInventoryCost   bool

	// Delegate, when non-nil and Ready, supersedes Book as the source for
	// every price type except inventory_cost (spec §4.2, §6).
	Delegate types.PriceDelegate

	CustomPrice decimal.Decimal
	HasCustom   bool
}

// Resolve returns the reference price for typ, falling back to mid when
// last_own_trade is absent or inventory_cost has no value (spec §4.2).
func Resolve(typ types.PriceType, in Inputs) (decimal.Decimal, error) {
	if in.Delegate != nil && in.Delegate.Ready() && typ != types.PriceTypeInventoryCost {
		p, err := in.Delegate.GetPriceByType(typ)
		if err == nil {
			return p, nil
		}
		// Delegate couldn't answer this type; fall through to the local book.
	}

	switch typ {
	case types.PriceTypeMid:
		return mid(in.Book)
	case types.PriceTypeBestBid:
		if in.Book == nil {
			return decimal.Zero, fmt.Errorf("pricer: no book for best_bid")
		}
		p, ok := in.Book.BestBid()
		if !ok {
			return decimal.Zero, fmt.Errorf("pricer: best_bid unavailable")
		}
		return p, nil
	case types.PriceTypeBestAsk:
		if in.Book == nil {
			return decimal.Zero, fmt.Errorf("pricer: no book for best_ask")
		}
		p, ok := in.Book.BestAsk()
		if !ok {
			return decimal.Zero, fmt.Errorf("pricer: best_ask unavailable")
		}
		return p, nil
	case types.PriceTypeLastTrade:
		if !in.HasLastTrade {
			return mid(in.Book)
		}
		return in.LastTradePrice, nil
	case types.PriceTypeLastOwnTrade:
		if !in.HasLastOwnTrade {
			return mid(in.Book)
		}
		return in.LastOwnTradePrice, nil
	case types.PriceTypeInventoryCost:
		if !in.HasInventoryCost {
			return mid(in.Book)
		}
		return in.InventoryCostPrice, nil
	case types.PriceTypeCustom:
		if !in.HasCustom {
			return mid(in.Book)
		}
		return in.CustomPrice, nil
	default:
		return decimal.Zero, fmt.Errorf("pricer: unknown price type %q", typ)
	}
}

func mid(book Book) (decimal.Decimal, error) {
	if book == nil {
		return decimal.Zero, fmt.Errorf("pricer: no book for mid")
	}
	p, ok := book.MidPrice()
	if !ok {
		return decimal.Zero, fmt.Errorf("pricer: mid unavailable")
	}
	return p, nil
}

// AskBasePrice derives the ask-side reference price P_s from the mid-style
// reference P: when inventory cost is active it is the larger of
// inventory_cost and P, otherwise it equals P (spec §4.3).
func AskBasePrice(p decimal.Decimal, in Inputs) decimal.Decimal {
	if !in.HasInventoryCost {
		return p
	}
	if in.InventoryCostPrice.GreaterThan(p) {
		return in.InventoryCostPrice
	}
	return p
}

// LocalBook is a local best-bid/ask mirror: a decimal-based,
// venue-agnostic view used for manual smoke testing and as the default
// Book implementation when a host doesn't supply its own. It holds no
// lock; Set and the readers must not run concurrently.
type LocalBook struct {
	bid, ask decimal.Decimal
	hasBid   bool
	hasAsk   bool
}

// NewLocalBook returns an empty book; Set populates it from venue updates.
func NewLocalBook() *LocalBook {
	return &LocalBook{}
}

// Set replaces the current best bid/ask.
func (b *LocalBook) Set(bid, ask decimal.Decimal) {
	b.bid, b.ask = bid, ask
	b.hasBid, b.hasAsk = true, true
}

func (b *LocalBook) BestBid() (decimal.Decimal, bool) { return b.bid, b.hasBid }
func (b *LocalBook) BestAsk() (decimal.Decimal, bool) { return b.ask, b.hasAsk }

func (b *LocalBook) MidPrice() (decimal.Decimal, bool) {
	if !b.hasBid || !b.hasAsk {
		return decimal.Zero, false
	}
	return b.bid.Add(b.ask).Div(decimal.NewFromInt(2)), true
}
