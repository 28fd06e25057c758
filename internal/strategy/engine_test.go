package strategy

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"pmmcore/internal/config"
	"pmmcore/pkg/pricer"
	"pmmcore/pkg/quantize"
	"pmmcore/pkg/types"
)

type fakeVenue struct {
	nextID int
}

func (f *fakeVenue) GetPrice(context.Context, types.Pair, bool) (decimal.Decimal, error) {
	return decimal.Zero, nil
}
func (f *fakeVenue) GetPriceForVolume(context.Context, types.Pair, bool, decimal.Decimal) (decimal.Decimal, error) {
	return decimal.Zero, nil
}
func (f *fakeVenue) GetMidPrice(context.Context, types.Pair) (decimal.Decimal, error) {
	return decimal.Zero, nil
}
func (f *fakeVenue) GetBalance(context.Context, string) (decimal.Decimal, error) {
	return decimal.NewFromInt(100000), nil
}
func (f *fakeVenue) GetAvailableBalance(context.Context, string) (decimal.Decimal, error) {
	return decimal.NewFromInt(100000), nil
}
func (f *fakeVenue) GetMakerOrderType() types.OrderType { return types.OrderTypeLimitMaker }
func (f *fakeVenue) QuantizeOrderPrice(types.Pair, decimal.Decimal) decimal.Decimal {
	return decimal.Zero
}
func (f *fakeVenue) QuantizeOrderAmount(types.Pair, decimal.Decimal, decimal.Decimal) decimal.Decimal {
	return decimal.Zero
}
func (f *fakeVenue) GetFee(context.Context, string, string, types.FeeType, types.Side, decimal.Decimal, decimal.Decimal) (types.Fee, error) {
	return types.Fee{}, nil
}
func (f *fakeVenue) PlaceLimitOrder(context.Context, types.Pair, types.Side, decimal.Decimal, decimal.Decimal, types.OrderType, string) (string, error) {
	f.nextID++
	return "order-" + string(rune('a'+f.nextID)), nil
}
func (f *fakeVenue) CancelOrder(context.Context, types.Pair, string) error { return nil }
func (f *fakeVenue) Ready(types.Pair) bool                                { return true }

type fakeSink struct {
	events []types.Event
}

func (s *fakeSink) Emit(e types.Event) { s.events = append(s.events, e) }

func noopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEngine(t *testing.T, venue *fakeVenue, sink *fakeSink) *Engine {
	t.Helper()
	q := quantize.New(map[types.Pair]quantize.Spec{
		"PAIR": {PriceTick: decimal.NewFromFloat(0.01), LotStep: decimal.NewFromFloat(0.01)},
	})
	book := pricer.NewLocalBook()
	book.Set(decimal.NewFromInt(100), decimal.NewFromInt(100))

	cfg := config.StrategyConfig{
		BidSpread:        decimal.NewFromFloat(0.01),
		AskSpread:        decimal.NewFromFloat(0.01),
		OrderAmount:      decimal.NewFromInt(1),
		OrderLevels:      1,
		OrderRefreshTime: 30 * time.Second,
		MaxOrderAge:      time.Hour,
		PriceType:        types.PriceTypeMid,
		PriceCeiling:     types.Disabled,
		PriceFloor:       types.Disabled,
	}

	e, err := New(Config{
		Pair:     "PAIR",
		Base:     "BASE",
		Quote:    "QUOTE",
		Strategy: cfg,
		Q:        q,
		Venue:    venue,
		Sink:     sink,
		Book:     book,
		Logger:   noopLogger(),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}

// TestTickPlacesSymmetricLadder covers spec §8 S1: mid=100, bid_spread =
// ask_spread = 1% ⇒ bid at 99.00, ask at 101.00, size 1.
func TestTickPlacesSymmetricLadder(t *testing.T) {
	venue := &fakeVenue{}
	sink := &fakeSink{}
	e := newTestEngine(t, venue, sink)

	now := time.Unix(1000, 0)
	e.Tick(context.Background(), now)

	orders := e.mgr.All()
	if len(orders) != 2 {
		t.Fatalf("expected 2 active orders after first tick, got %d", len(orders))
	}

	var buy, sell types.ActiveOrder
	for _, o := range orders {
		if o.Side == types.SideBuy {
			buy = o
		} else {
			sell = o
		}
	}
	if !buy.Price.Equal(decimal.NewFromInt(99)) {
		t.Fatalf("expected buy price 99, got %s", buy.Price)
	}
	if !sell.Price.Equal(decimal.NewFromInt(101)) {
		t.Fatalf("expected sell price 101, got %s", sell.Price)
	}
}

// TestTickSecondRefreshDefersWhenUnchanged covers spec §8 S1's second tick:
// same reference price, refresh_time elapsed ⇒ tolerance check keeps the
// resting orders, no cancel, no new placement.
func TestTickSecondRefreshDefersWhenUnchanged(t *testing.T) {
	venue := &fakeVenue{}
	sink := &fakeSink{}
	e := newTestEngine(t, venue, sink)

	now := time.Unix(1000, 0)
	e.Tick(context.Background(), now)
	firstCount := venue.nextID

	e.Tick(context.Background(), now.Add(30*time.Second))

	if venue.nextID != firstCount {
		t.Fatalf("expected no new placements on the second tick, placement count went from %d to %d", firstCount, venue.nextID)
	}
	if len(e.mgr.All()) != 2 {
		t.Fatalf("expected the original 2 orders to remain resting, got %d", len(e.mgr.All()))
	}
}

// TestTickSkipsWhenVenueNotReady covers the venue-not-ready recoverable
// error path (spec §7): the tick is skipped entirely.
func TestTickSkipsWhenVenueNotReady(t *testing.T) {
	venue := &fakeVenue{}
	sink := &fakeSink{}
	e := newTestEngine(t, venue, sink)
	e.venue = notReadyVenue{venue}

	e.Tick(context.Background(), time.Unix(1, 0))

	if len(e.mgr.All()) != 0 {
		t.Fatalf("expected no orders placed while venue is not ready")
	}
	if e.state.MarketsReady {
		t.Fatalf("expected MarketsReady to be false")
	}
}

type notReadyVenue struct {
	*fakeVenue
}

func (notReadyVenue) Ready(types.Pair) bool { return false }

// TestPushInboundFillAdvancesState exercises the inbound-queue drain at the
// start of a tick (spec §9).
func TestPushInboundFillAdvancesState(t *testing.T) {
	venue := &fakeVenue{}
	sink := &fakeSink{}
	e := newTestEngine(t, venue, sink)

	e.Tick(context.Background(), time.Unix(1000, 0))
	var filledID string
	for _, o := range e.mgr.All() {
		if o.Side == types.SideBuy {
			filledID = o.ID
		}
	}

	e.PushInbound(InboundEvent{
		Kind:      InboundFill,
		OrderID:   filledID,
		FillPrice: decimal.NewFromInt(99),
		FillSize:  decimal.NewFromInt(1),
		FillTime:  time.Unix(1005, 0),
	})

	e.Tick(context.Background(), time.Unix(1006, 0))

	if e.state.FilledBuysBalance != 1 {
		t.Fatalf("expected filled_buys_balance=1 after draining the fill, got %d", e.state.FilledBuysBalance)
	}
	if !e.state.HasLastOwnTrade || !e.state.LastOwnTradePrice.Equal(decimal.NewFromInt(99)) {
		t.Fatalf("expected last_own_trade_price=99, got %s (has=%v)", e.state.LastOwnTradePrice, e.state.HasLastOwnTrade)
	}
}
