// Package strategy is the top-level orchestrator: it wires the Reference
// Pricer, Proposal Builder, the ordered Proposal Modifiers pipeline, the
// Hanging-Orders Tracker, the Active-Order Manager, the Refresh/Cancel
// Controller, and the Executor into one per-pair Engine whose Tick method
// the host calls at a fixed cadence (spec §5 "single-threaded cooperative,
// advanced by an external clock that calls tick(now)").
package strategy

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"pmmcore/internal/config"
	"pmmcore/internal/eventsink"
	"pmmcore/internal/executor"
	"pmmcore/internal/hanging"
	"pmmcore/internal/metrics"
	"pmmcore/internal/orders"
	"pmmcore/internal/proposal"
	"pmmcore/internal/refresh"
	"pmmcore/pkg/pricer"
	"pmmcore/pkg/quantize"
	"pmmcore/pkg/types"
)

// Engine runs one trading pair's strategy loop.
type Engine struct {
	pair  types.Pair
	base  string
	quote string

	cfg config.StrategyConfig
	q   *quantize.Quantizer

	venue    types.VenueAdapter
	sink     types.EventSink
	delegate types.PriceDelegate
	invDeleg types.InventoryCostDelegate

	book *pricer.LocalBook

	mgr *orders.Manager
	tr  *hanging.Tracker
	ex  *executor.Executor
	es  *eventsink.Sink

	state State

	inbox chan InboundEvent

	notReadyLimiter *rate.Limiter
	logger          *slog.Logger
}

// Config bundles the collaborators New needs beyond the StrategyConfig
// itself — every one of them is an external capability the core only ever
// calls through an interface (spec §1 out-of-scope list).
type Config struct {
	Pair  types.Pair
	Base  string
	Quote string

	Strategy config.StrategyConfig
	Q        *quantize.Quantizer

	Venue    types.VenueAdapter
	Sink     types.EventSink
	Delegate types.PriceDelegate // optional, may be nil
	InvDeleg types.InventoryCostDelegate // optional, may be nil

	Book *pricer.LocalBook // optional; a fresh one is created if nil

	// StatusInterval bounds how often the venue-not-ready warning may fire
	// (spec §7 "at most once per status interval").
	StatusInterval time.Duration

	Logger *slog.Logger
}

// New builds an Engine ready to Tick. It does not place or cancel anything.
// Configuration errors are returned rather than panicking (spec §9
// "Configuration errors are returned from the constructor").
func New(c Config) (*Engine, error) {
	if err := c.Strategy.Validate(); err != nil {
		return nil, err
	}

	logger := c.Logger.With("component", "strategy", "pair", c.Pair)

	mgr := orders.New()
	tr := hanging.New(c.Strategy.HangingOrdersCancelPct)
	es := eventsink.New(mgr, tr, c.InvDeleg, c.Strategy.FilledOrderDelay, logger)
	ex := executor.New(c.Pair, c.Venue, c.Sink, logger, c.Strategy.HangingOrdersEnabled, c.Strategy.OrderRefreshTime)

	book := c.Book
	if book == nil {
		book = pricer.NewLocalBook()
	}

	statusInterval := c.StatusInterval
	if statusInterval <= 0 {
		statusInterval = time.Minute
	}

	return &Engine{
		pair:     c.Pair,
		base:     c.Base,
		quote:    c.Quote,
		cfg:      c.Strategy,
		q:        c.Q,
		venue:    c.Venue,
		sink:     c.Sink,
		delegate: c.Delegate,
		invDeleg: c.InvDeleg,
		book:     book,
		mgr:      mgr,
		tr:       tr,
		ex:       ex,
		es:       es,
		state:    State{MarketsReady: true, Band: bandFromConfig(c.Strategy)},
		inbox:    make(chan InboundEvent, 256),
		notReadyLimiter: rate.NewLimiter(rate.Every(statusInterval), 1),
		logger:          logger,
	}, nil
}

func bandFromConfig(cfg config.StrategyConfig) types.MovingPriceBand {
	return types.MovingPriceBand{
		Enabled:            cfg.MovingPriceBand.Enabled,
		CeilingPct:         cfg.MovingPriceBand.CeilingPct,
		FloorPct:           cfg.MovingPriceBand.FloorPct,
		RefreshIntervalSec: cfg.MovingPriceBand.RefreshIntervalSec,
	}
}

// Book returns the engine's local best-bid/ask mirror, for hosts that want
// to feed it venue book updates directly.
func (e *Engine) Book() *pricer.LocalBook { return e.book }

// PushInbound enqueues a fill/complete/cancel notification for processing
// at the start of the next tick (spec §9: "drop events into an inbound
// queue drained at the start of each tick"). Non-blocking: if the queue is
// full the event is dropped and logged rather than blocking the caller.
func (e *Engine) PushInbound(ev InboundEvent) {
	select {
	case e.inbox <- ev:
	default:
		e.logger.Warn("inbound event queue full, dropping", "kind", ev.Kind, "order_id", ev.OrderID)
	}
}

// Run drives Tick at a fixed cadence until ctx is cancelled, mirroring the
// teacher's ticker-driven select loop.
func (e *Engine) Run(ctx context.Context, cadence time.Duration) {
	ticker := time.NewTicker(cadence)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			e.Tick(ctx, now)
		}
	}
}

// Tick runs one full cooperative step: drain inbound events, resolve price,
// build and filter the proposal, evaluate cancels, then place (spec §5).
// The tick is the unit of atomicity — Tick never yields mid-way.
func (e *Engine) Tick(ctx context.Context, now time.Time) {
	start := time.Now()
	defer func() {
		metrics.ObserveTickDuration(string(e.pair), time.Since(start).Seconds())
	}()

	e.drainInbound(now)
	e.state.LastTimestamp = now

	if !e.venue.Ready(e.pair) {
		e.state.MarketsReady = false
		if e.notReadyLimiter.Allow() {
			e.logger.Warn("venue not ready, skipping tick")
		}
		return
	}
	e.state.MarketsReady = true

	ref, askRef, err := e.resolvePrices(ctx)
	if err != nil {
		if e.notReadyLimiter.Allow() {
			e.logger.Warn("reference price unavailable, skipping tick", "error", err)
		}
		return
	}

	proposed := e.buildProposal(ref, askRef)
	proposed = e.runModifiers(ctx, proposed, ref, now)

	e.recordLevelMetrics(proposed)
	e.evaluateCancels(ctx, proposed, ref, now)
	e.maybePlace(ctx, now, proposed)
}

func (e *Engine) drainInbound(now time.Time) {
	for {
		select {
		case ev := <-e.inbox:
			e.handleInbound(ev, now)
		default:
			return
		}
	}
}

func (e *Engine) handleInbound(ev InboundEvent, now time.Time) {
	switch ev.Kind {
	case InboundFill:
		order, ok := e.mgr.Get(ev.OrderID)
		if !ok {
			order = types.ActiveOrder{ID: ev.OrderID}
		}
		fillTime := ev.FillTime
		if fillTime.IsZero() {
			fillTime = now
		}
		timers := eventsink.Timers{
			CreateTimestamp:    e.state.CreateTimestamp,
			CancelTimestamp:    e.state.CancelTimestamp,
			FilledBuysBalance:  e.state.FilledBuysBalance,
			FilledSellsBalance: e.state.FilledSellsBalance,
			LastOwnTradePrice:  e.state.LastOwnTradePrice,
		}
		out := e.es.HandleFill(order, ev.FillPrice, ev.FillSize, ev.Fee, fillTime, timers)
		e.state.CreateTimestamp = out.CreateTimestamp
		e.state.CancelTimestamp = out.CancelTimestamp
		e.state.FilledBuysBalance = out.FilledBuysBalance
		e.state.FilledSellsBalance = out.FilledSellsBalance
		if !out.LastOwnTradePrice.IsZero() {
			e.state.LastOwnTradePrice = out.LastOwnTradePrice
			e.state.HasLastOwnTrade = true
		}
		metrics.IncFills(string(e.pair), string(order.Side))
	case InboundCompleted:
		e.es.HandleCompleted(ev.OrderID)
	case InboundCancelled:
		e.es.HandleCancelled(ev.OrderID)
	}

	promoted := e.tr.Promote(e.cfg.HangingOrdersEnabled, e.mgr.Get)
	if len(promoted) > 0 {
		e.logger.Info("promoted to hanging", "ids", promoted)
	}
}

func (e *Engine) resolvePrices(ctx context.Context) (ref, askRef decimal.Decimal, err error) {
	var invPrice decimal.Decimal
	hasInv := false
	if e.invDeleg != nil {
		if p, ok := e.invDeleg.GetPrice(); ok {
			invPrice, hasInv = p, true
		}
	}

	in := pricer.Inputs{
		Book:               e.book,
		LastOwnTradePrice:  e.state.LastOwnTradePrice,
		HasLastOwnTrade:    e.state.HasLastOwnTrade,
		InventoryCostPrice: invPrice,
		HasInventoryCost:   hasInv,
		Delegate:           e.delegate,
	}

	ref, err = pricer.Resolve(e.cfg.PriceType, in)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	askRef = pricer.AskBasePrice(ref, in)
	return ref, askRef, nil
}

func (e *Engine) buildProposal(ref, askRef decimal.Decimal) types.Proposal {
	var override map[int]proposal.OverrideLevel
	if len(e.cfg.OrderOverride) > 0 {
		override = make(map[int]proposal.OverrideLevel, len(e.cfg.OrderOverride))
		for i, lvl := range e.cfg.OrderOverride {
			override[i] = proposal.OverrideLevel{Side: lvl.Side, SpreadPct: lvl.SpreadPct, Size: lvl.Size}
		}
	}

	return proposal.Build(proposal.BuildParams{
		Pair:        e.pair,
		Q:           e.q,
		PBuy:        ref,
		PSell:       askRef,
		BidSpread:   e.cfg.BidSpread,
		AskSpread:   e.cfg.AskSpread,
		LevelSpread: e.cfg.OrderLevelSpread,
		OrderAmount: e.cfg.OrderAmount,
		LevelAmount: e.cfg.OrderLevelAmount,
		BuyLevels:   e.cfg.OrderLevels,
		SellLevels:  e.cfg.OrderLevels,
		Override:    override,
	})
}

func (e *Engine) runModifiers(ctx context.Context, p types.Proposal, ref decimal.Decimal, now time.Time) types.Proposal {
	p = proposal.ApplyStaticBand(p, ref, e.cfg.PriceCeiling, e.cfg.PriceFloor)
	p = proposal.ApplyMovingBand(p, &e.state.Band, ref, now)

	if e.cfg.PingPongEnabled {
		pong := proposal.ApplyPingPong(p, e.state.FilledBuysBalance, e.state.FilledSellsBalance)
		p = pong.Proposal
		if pong.ShouldReset {
			e.state.FilledBuysBalance = 0
			e.state.FilledSellsBalance = 0
		}
	}

	if e.cfg.OrderOptimizationEnabled {
		topBid, topAsk := e.competingTop(ctx)
		p = proposal.OptimizeOrderPrices(p, proposal.OptimizeParams{
			Enabled:            true,
			Tick:               e.q.PriceTick(e.pair),
			CompetingTopBid:     topBid,
			CompetingTopAsk:     topAsk,
			LevelSpread:         e.cfg.OrderLevelSpread,
			SplitLevelsEnabled:  e.cfg.SplitOrderLevelsEnabled,
			BidLevelSpreads:     e.cfg.BidOrderLevelSpreads,
			AskLevelSpreads:     e.cfg.AskOrderLevelSpreads,
		})
	}

	if e.cfg.AddTransactionCostsToOrders {
		fee := e.q.Fee(e.pair, types.FeeTypeMaker, decimal.Zero, ref)
		p = proposal.ApplyTransactionCosts(p, e.q, e.pair, fee.Percent, true)
	}

	if e.cfg.InventorySkewEnabled {
		base, quote := e.balances(ctx)
		notional := e.cfg.OrderAmount.Mul(ref).Mul(decimal.NewFromInt(int64(e.cfg.OrderLevels)))
		p = proposal.ApplyInventorySkew(p, e.q, e.pair, proposal.InventorySkewParams{
			Enabled:            true,
			Base:               base,
			Quote:              quote,
			Ref:                ref,
			TargetBaseRatio:    e.cfg.InventoryTargetBasePct,
			TotalOrderNotional: notional,
			RangeMultiplier:    e.cfg.InventoryRangeMultiplier,
		})
	}

	availQuote, availBase := e.availableBudget(ctx)
	feePct := e.q.Fee(e.pair, types.FeeTypeMaker, decimal.Zero, ref).Percent
	p = proposal.ApplyBudget(p, proposal.BudgetParams{
		AvailableQuote: availQuote,
		AvailableBase:  availBase,
		FeePct:         feePct,
	})

	p = proposal.ApplyMinimumThresholds(p, e.q, e.pair)

	topBid, _ := e.book.BestBid()
	topAsk, _ := e.book.BestAsk()
	p = proposal.FilterTakers(p, topBid, topAsk, e.cfg.TakeIfCrossed)

	return p
}

// competingTop resolves the depth-weighted competing top-of-book on each
// side using the configured optimization depth plus our own resting size
// on that side (spec §4.4(4)).
func (e *Engine) competingTop(ctx context.Context) (bid, ask decimal.Decimal) {
	ownBuySize := decimal.Zero
	ownSellSize := decimal.Zero
	for _, o := range e.mgr.NonHanging(e.tr) {
		if o.Side == types.SideBuy {
			ownBuySize = ownBuySize.Add(o.Size)
		} else {
			ownSellSize = ownSellSize.Add(o.Size)
		}
	}

	bidVol := e.cfg.BidOrderOptimizationDepth.Add(ownBuySize)
	askVol := e.cfg.AskOrderOptimizationDepth.Add(ownSellSize)

	b, err := e.venue.GetPriceForVolume(ctx, e.pair, true, bidVol)
	if err != nil {
		b, _ = e.book.BestBid()
	}
	a, err := e.venue.GetPriceForVolume(ctx, e.pair, false, askVol)
	if err != nil {
		a, _ = e.book.BestAsk()
	}
	return b, a
}

func (e *Engine) balances(ctx context.Context) (base, quote decimal.Decimal) {
	base, err := e.venue.GetBalance(ctx, e.base)
	if err != nil {
		base = decimal.Zero
	}
	quote, err = e.venue.GetBalance(ctx, e.quote)
	if err != nil {
		quote = decimal.Zero
	}
	return base, quote
}

// availableBudget adds the venue's available balance to the notional/size
// already resting in non-hanging, non-candidate orders on that side (spec
// §4.4(7): those orders are about to be superseded, so their budget is
// still ours to requote).
func (e *Engine) availableBudget(ctx context.Context) (quote, base decimal.Decimal) {
	quote, err := e.venue.GetAvailableBalance(ctx, e.quote)
	if err != nil {
		quote = decimal.Zero
	}
	base, err = e.venue.GetAvailableBalance(ctx, e.base)
	if err != nil {
		base = decimal.Zero
	}

	for _, o := range e.mgr.NonHangingNonCandidate(e.tr) {
		if o.Side == types.SideBuy {
			quote = quote.Add(o.Price.Mul(o.Size))
		} else {
			base = base.Add(o.Size)
		}
	}
	return quote, base
}

func (e *Engine) recordLevelMetrics(p types.Proposal) {
	metrics.SetProposalLevelCount(string(e.pair), "buy", len(p.Buys))
	metrics.SetProposalLevelCount(string(e.pair), "sell", len(p.Sells))
	buys, sells := 0, 0
	for _, o := range e.mgr.NonHanging(e.tr) {
		if o.Side == types.SideBuy {
			buys++
		} else {
			sells++
		}
	}
	metrics.SetActiveOrderCount(string(e.pair), "buy", buys)
	metrics.SetActiveOrderCount(string(e.pair), "sell", sells)
	metrics.SetActiveOrderCount(string(e.pair), "hanging", len(e.mgr.Hanging(e.tr)))
}

// evaluateCancels runs the Refresh/Cancel Controller (spec §4.6) and the
// hanging-order drift check (spec §4.5), issuing cancels through the venue
// adapter.
func (e *Engine) evaluateCancels(ctx context.Context, proposed types.Proposal, ref decimal.Decimal, now time.Time) {
	nonHanging := e.mgr.NonHanging(e.tr)

	for _, c := range refresh.MaxAgeCancels(nonHanging, now, e.cfg.MaxOrderAge) {
		e.cancel(ctx, now, c.ID)
		e.sink.Emit(types.Event{Kind: types.EventMaxAgeCancel, Timestamp: now, MaxAgeCancel: &types.MaxAgeCancelPayload{ID: c.ID}})
		metrics.IncCancels(string(e.pair), string(c.Reason))
	}

	if e.cfg.MinimumSpread.Sign() > 0 {
		for _, c := range refresh.MinSpreadCancels(nonHanging, ref, e.cfg.MinimumSpread) {
			e.cancel(ctx, now, c.ID)
			e.sink.Emit(types.Event{Kind: types.EventMinSpreadCancel, Timestamp: now, MinSpreadCancel: &types.MinSpreadCancelPayload{ID: c.ID, Spread: c.Spread, Threshold: c.Threshold}})
			metrics.IncCancels(string(e.pair), string(c.Reason))
		}
	}

	if e.cfg.HangingOrdersEnabled {
		for _, id := range e.tr.CancelCandidates(ref) {
			e.cancel(ctx, now, id)
			metrics.IncCancels(string(e.pair), "hanging_drift")
		}
	}

	if now.Before(e.state.CancelTimestamp) {
		return
	}
	if refresh.ShouldDeferRefresh(nonHanging, proposed, e.cfg.OrderRefreshTolerancePct) {
		return
	}
	for _, c := range refresh.RefreshCancelAll(nonHanging) {
		e.cancel(ctx, now, c.ID)
		metrics.IncCancels(string(e.pair), string(c.Reason))
	}
}

func (e *Engine) cancel(ctx context.Context, now time.Time, id string) {
	if err := e.venue.CancelOrder(ctx, e.pair, id); err != nil {
		e.logger.Error("cancel rejected", "id", id, "error", err)
		return
	}
	e.mgr.Remove(id)
	e.tr.Remove(id)
	e.sink.Emit(types.Event{Kind: types.EventOrderCancelled, Timestamp: now, OrderCancelled: &types.OrderCancelledPayload{ID: id}})
}

func (e *Engine) maybePlace(ctx context.Context, now time.Time, proposed types.Proposal) {
	pre := executor.Preconditions{
		Now:                    now,
		CreateTimestamp:        e.state.CreateTimestamp,
		ShouldWaitForCancelAck: e.cfg.ShouldWaitOrderCancelConfirmation,
		NonHangingNonCandidate: e.mgr.NonHangingNonCandidate(e.tr),
	}
	if !pre.CanPlace(proposed) {
		return
	}

	result := e.ex.Place(ctx, now, proposed, e.mgr, e.tr)
	if result.Placed {
		e.state.CreateTimestamp = result.CreateTimestamp
		if result.CancelTimestamp.Before(e.state.CancelTimestamp) {
			e.state.CancelTimestamp = result.CancelTimestamp
		}
	}
}
