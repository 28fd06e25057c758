// Package simvenue is an in-memory types.VenueAdapter used by cmd/pmmsim
// for manual smoke-testing the strategy core against a synthetic random
// walk instead of a real exchange connection.
package simvenue

import (
	"context"
	"fmt"
	"math/rand"
	"sync"

	"github.com/shopspring/decimal"

	"pmmcore/pkg/quantize"
	"pmmcore/pkg/types"
)

// Venue simulates a single pair's order book and balances. It never blocks
// and never fails — every method is a direct map lookup or arithmetic op.
type Venue struct {
	mu sync.Mutex

	pair types.Pair
	q    *quantize.Quantizer

	bid, ask decimal.Decimal
	ready    bool

	balances map[string]decimal.Decimal

	orders map[string]simOrder
	nextID int

	rng *rand.Rand
}

type simOrder struct {
	side  types.Side
	price decimal.Decimal
	size  decimal.Decimal
}

// New creates a simulated venue seeded with the given mid price and starting
// balances, keyed by asset symbol (e.g. "BASE", "QUOTE").
func New(pair types.Pair, q *quantize.Quantizer, mid decimal.Decimal, balances map[string]decimal.Decimal, seed int64) *Venue {
	half := decimal.NewFromFloat(0.0005)
	v := &Venue{
		pair:     pair,
		q:        q,
		bid:      mid.Mul(decimal.NewFromInt(1).Sub(half)),
		ask:      mid.Mul(decimal.NewFromInt(1).Add(half)),
		ready:    true,
		balances: make(map[string]decimal.Decimal, len(balances)),
		orders:   make(map[string]simOrder),
		rng:      rand.New(rand.NewSource(seed)),
	}
	for k, val := range balances {
		v.balances[k] = val
	}
	return v
}

// Step advances the synthetic mid by a small random walk, for the host's
// ticker loop to call once per tick before Engine.Tick.
func (v *Venue) Step() {
	v.mu.Lock()
	defer v.mu.Unlock()

	mid := v.bid.Add(v.ask).Div(decimal.NewFromInt(2))
	driftBps := decimal.NewFromFloat((v.rng.Float64() - 0.5) * 10) // ±5bps
	mid = mid.Mul(decimal.NewFromInt(1).Add(driftBps.Div(decimal.NewFromInt(10000))))

	half := decimal.NewFromFloat(0.0005)
	v.bid = mid.Mul(decimal.NewFromInt(1).Sub(half))
	v.ask = mid.Mul(decimal.NewFromInt(1).Add(half))
}

// BestBidAsk exposes the current synthetic book for the caller to push into
// an Engine's pricer.LocalBook.
func (v *Venue) BestBidAsk() (bid, ask decimal.Decimal) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.bid, v.ask
}

func (v *Venue) GetPrice(ctx context.Context, pair types.Pair, isBuy bool) (decimal.Decimal, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if isBuy {
		return v.bid, nil
	}
	return v.ask, nil
}

func (v *Venue) GetPriceForVolume(ctx context.Context, pair types.Pair, isBuy bool, volume decimal.Decimal) (decimal.Decimal, error) {
	return v.GetPrice(ctx, pair, isBuy)
}

func (v *Venue) GetMidPrice(ctx context.Context, pair types.Pair) (decimal.Decimal, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.bid.Add(v.ask).Div(decimal.NewFromInt(2)), nil
}

func (v *Venue) GetBalance(ctx context.Context, asset string) (decimal.Decimal, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.balances[asset], nil
}

func (v *Venue) GetAvailableBalance(ctx context.Context, asset string) (decimal.Decimal, error) {
	return v.GetBalance(ctx, asset)
}

func (v *Venue) GetMakerOrderType() types.OrderType { return types.OrderTypeLimitMaker }

func (v *Venue) QuantizeOrderPrice(pair types.Pair, price decimal.Decimal) decimal.Decimal {
	return v.q.QuantizePrice(pair, price)
}

func (v *Venue) QuantizeOrderAmount(pair types.Pair, amount, price decimal.Decimal) decimal.Decimal {
	return v.q.QuantizeSize(pair, amount)
}

func (v *Venue) GetFee(ctx context.Context, base, quote string, typ types.FeeType, side types.Side, size, price decimal.Decimal) (types.Fee, error) {
	return v.q.Fee(v.pair, typ, size, price), nil
}

func (v *Venue) PlaceLimitOrder(ctx context.Context, pair types.Pair, side types.Side, size, price decimal.Decimal, typ types.OrderType, clientOrderID string) (string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.nextID++
	id := fmt.Sprintf("sim-%d", v.nextID)
	v.orders[id] = simOrder{side: side, price: price, size: size}
	return id, nil
}

func (v *Venue) CancelOrder(ctx context.Context, pair types.Pair, id string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.orders, id)
	return nil
}

func (v *Venue) Ready(pair types.Pair) bool { return v.ready }
