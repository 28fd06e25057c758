// pmmsim runs the market-making core against an in-memory simulated venue —
// a synthetic random-walk order book instead of a real exchange connection.
// It exists for manual smoke-testing of the strategy engine end to end.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"

	"pmmcore/internal/config"
	"pmmcore/internal/invcost"
	"pmmcore/internal/simvenue"
	"pmmcore/internal/strategy"
	"pmmcore/pkg/quantize"
	"pmmcore/pkg/types"
)

const pair types.Pair = "BTC-USDT"

type stdoutSink struct {
	logger *slog.Logger
}

func (s stdoutSink) Emit(e types.Event) {
	s.logger.Info("event", "kind", e.Kind, "ts", e.Timestamp)
}

func main() {
	var handler slog.Handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	logger := slog.New(handler)

	cfg := config.StrategyConfig{
		BidSpread:                decimal.NewFromFloat(0.01),
		AskSpread:                decimal.NewFromFloat(0.01),
		OrderAmount:              decimal.NewFromInt(1),
		OrderLevels:              3,
		OrderLevelSpread:         decimal.NewFromFloat(0.005),
		OrderLevelAmount:         decimal.NewFromFloat(0.5),
		OrderRefreshTime:         5 * time.Second,
		MaxOrderAge:              2 * time.Minute,
		OrderRefreshTolerancePct: decimal.NewFromFloat(0.001),
		FilledOrderDelay:         3 * time.Second,
		InventorySkewEnabled:     true,
		InventoryTargetBasePct:   decimal.NewFromFloat(0.5),
		InventoryRangeMultiplier: decimal.NewFromInt(2),
		HangingOrdersEnabled:     true,
		HangingOrdersCancelPct:   decimal.NewFromFloat(0.05),
		PriceType:                types.PriceTypeMid,
		PriceCeiling:             types.Disabled,
		PriceFloor:               types.Disabled,
		PingPongEnabled:          true,
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid strategy config", "error", err)
		os.Exit(1)
	}

	q := quantize.New(map[types.Pair]quantize.Spec{
		pair: {
			PriceTick:   decimal.NewFromFloat(0.01),
			LotStep:     decimal.NewFromFloat(0.0001),
			MinOrderSz:  decimal.NewFromFloat(0.0001),
			MinNotional: decimal.NewFromInt(1),
			MakerFeePct: decimal.NewFromFloat(0.0002),
			TakerFeePct: decimal.NewFromFloat(0.0005),
		},
	})

	venue := simvenue.New(pair, q, decimal.NewFromInt(30000), map[string]decimal.Decimal{
		"BASE":  decimal.NewFromInt(1),
		"QUOTE": decimal.NewFromInt(30000),
	}, 42)

	inv := invcost.New()

	eng, err := strategy.New(strategy.Config{
		Pair:           pair,
		Base:           "BASE",
		Quote:          "QUOTE",
		Strategy:       cfg,
		Q:              q,
		InvDeleg:       inv,
		Venue:          venue,
		Sink:           stdoutSink{logger: logger},
		StatusInterval: 30 * time.Second,
		Logger:         logger,
	})
	if err != nil {
		logger.Error("failed to build strategy engine", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig.String())
		cancel()
	}()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	logger.Info("pmmsim started", "pair", pair)
	for {
		select {
		case <-ctx.Done():
			logger.Info("pmmsim stopped")
			return
		case now := <-ticker.C:
			venue.Step()
			bid, ask := venue.BestBidAsk()
			eng.Book().Set(bid, ask)
			eng.Tick(ctx, now)
		}
	}
}
