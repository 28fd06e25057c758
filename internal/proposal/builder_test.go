package proposal

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"pmmcore/pkg/quantize"
	"pmmcore/pkg/types"
)

func testQuantizer() *quantize.Quantizer {
	return quantize.New(map[types.Pair]quantize.Spec{
		"PAIR": {
			PriceTick:  d(0.01),
			LotStep:    d(0.0001),
			MakerFeePct: d(0),
			TakerFeePct: d(0),
		},
	})
}

func TestBuildSymmetricLadder(t *testing.T) {
	q := testQuantizer()
	p := Build(BuildParams{
		Pair:        "PAIR",
		Q:           q,
		PBuy:        d(100),
		PSell:       d(100),
		BidSpread:   d(0.01),
		AskSpread:   d(0.01),
		LevelSpread: d(0.005),
		OrderAmount: d(1),
		LevelAmount: d(0.5),
		BuyLevels:   2,
		SellLevels:  2,
	})

	assert.Len(t, p.Buys, 2)
	assert.Len(t, p.Sells, 2)
	assert.True(t, p.Buys[0].Price.Equal(d(99)))
	assert.True(t, p.Buys[0].Size.Equal(d(1)))
	assert.True(t, p.Buys[1].Price.Equal(d(98.5)))
	assert.True(t, p.Buys[1].Size.Equal(d(1.5)))
	assert.True(t, p.Sells[0].Price.Equal(d(101)))
	assert.True(t, p.Sells[1].Price.Equal(d(101.5)))
}

func TestBuildOverrideIsOrderedByLevelID(t *testing.T) {
	q := testQuantizer()
	override := map[int]OverrideLevel{
		2: {Side: types.SideBuy, SpreadPct: d(0.03), Size: d(1)},
		0: {Side: types.SideBuy, SpreadPct: d(0.01), Size: d(1)},
		1: {Side: types.SideBuy, SpreadPct: d(0.02), Size: d(1)},
	}

	for i := 0; i < 20; i++ {
		p := Build(BuildParams{
			Pair:     "PAIR",
			Q:        q,
			PBuy:     d(100),
			PSell:    d(100),
			Override: override,
		})
		if !assert.Len(t, p.Buys, 3) {
			t.FailNow()
		}
		assert.Truef(t, p.Buys[0].Price.Equal(d(99)), "run %d: level 0 should sort first, got %s", i, p.Buys[0].Price)
		assert.Truef(t, p.Buys[1].Price.Equal(d(98)), "run %d: level 1 should sort second, got %s", i, p.Buys[1].Price)
		assert.Truef(t, p.Buys[2].Price.Equal(d(97)), "run %d: level 2 should sort third, got %s", i, p.Buys[2].Price)
	}
}

func TestBuildOverrideSplitsBuySellSides(t *testing.T) {
	q := testQuantizer()
	override := map[int]OverrideLevel{
		0: {Side: types.SideBuy, SpreadPct: d(0.01), Size: d(1)},
		1: {Side: types.SideSell, SpreadPct: d(0.01), Size: d(2)},
	}
	p := Build(BuildParams{
		Pair:     "PAIR",
		Q:        q,
		PBuy:     d(100),
		PSell:    d(100),
		Override: override,
	})
	assert.Len(t, p.Buys, 1)
	assert.Len(t, p.Sells, 1)
	assert.True(t, p.Sells[0].Size.Equal(d(2)))
}
