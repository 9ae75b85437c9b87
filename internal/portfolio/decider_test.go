package portfolio

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwkjng/ai-hedge-fund-opt/pkg/types"
)

func bullishSignal(source string, confidence float64) types.Signal {
	return types.Signal{SourceID: source, Ticker: "AAPL", Direction: types.DirectionBullish, Confidence: confidence}
}

func bearishSignal(source string, confidence float64) types.Signal {
	return types.Signal{SourceID: source, Ticker: "AAPL", Direction: types.DirectionBearish, Confidence: confidence}
}

func flatSnapshot(cash float64) types.PortfolioSnapshot {
	return types.PortfolioSnapshot{Cash: cash, Positions: map[string]int64{}, CostBasis: map[string]float64{}}
}

func riskBound(maxPosition float64) *types.RiskAssessment {
	return &types.RiskAssessment{
		Ticker:           "AAPL",
		Volatility:       0.18,
		MaxPositionValue: maxPosition,
		Tier:             types.RiskTierLow,
	}
}

func TestDecideBuySizing(t *testing.T) {
	// Three unanimous bullish votes at 0.9 net +0.9; with a $50k bound the
	// desired value is $45k, which floors to 450 shares at $100.
	d := NewDecider(nil, 0.5, false)
	signals := []types.Signal{
		bullishSignal("fundamentals", 0.9),
		bullishSignal("momentum", 0.9),
		bullishSignal("valuation", 0.9),
	}

	decision := d.Decide("AAPL", signals, riskBound(50_000), flatSnapshot(100_000), 100)

	assert.Equal(t, types.ActionBuy, decision.Action)
	assert.Equal(t, int64(450), decision.Quantity)
	assert.InDelta(t, 0.9, decision.NetScore, 1e-9)
	assert.Equal(t, 3, decision.Bullish)
}

func TestDecideHoldWithoutRiskBound(t *testing.T) {
	d := NewDecider(nil, 0.5, false)
	signals := []types.Signal{bullishSignal("fundamentals", 1.0)}

	decision := d.Decide("AAPL", signals, nil, flatSnapshot(100_000), 100)

	assert.Equal(t, types.ActionHold, decision.Action)
	assert.Zero(t, decision.Quantity)
	assert.Contains(t, decision.Rationale, "risk bound")
}

func TestDecideHoldWithinThreshold(t *testing.T) {
	d := NewDecider(nil, 0.5, false)
	// Two bullish, one bearish at 0.9: net = (0.9+0.9-0.9)/3 = 0.3.
	signals := []types.Signal{
		bullishSignal("fundamentals", 0.9),
		bullishSignal("momentum", 0.9),
		bearishSignal("valuation", 0.9),
	}

	decision := d.Decide("AAPL", signals, riskBound(50_000), flatSnapshot(100_000), 100)

	assert.Equal(t, types.ActionHold, decision.Action)
	assert.InDelta(t, 0.3, decision.NetScore, 1e-9)
}

func TestDecideThresholdIsExclusive(t *testing.T) {
	// net == threshold exactly must not trade.
	d := NewDecider(nil, 0.5, false)
	signals := []types.Signal{bullishSignal("fundamentals", 0.5)}

	decision := d.Decide("AAPL", signals, riskBound(50_000), flatSnapshot(100_000), 100)

	assert.Equal(t, types.ActionHold, decision.Action)
}

func TestDecideWeightsShiftConsensus(t *testing.T) {
	weights := map[string]float64{"fundamentals": 3.0, "momentum": 1.0}
	d := NewDecider(weights, 0.5, false)
	signals := []types.Signal{
		bullishSignal("fundamentals", 0.9),
		bearishSignal("momentum", 0.9),
	}

	// (3*0.9 - 1*0.9) / 4 = 0.45: still a hold at T=0.5.
	decision := d.Decide("AAPL", signals, riskBound(50_000), flatSnapshot(100_000), 100)
	assert.Equal(t, types.ActionHold, decision.Action)

	// Raising the dominant weight tips it past the threshold.
	d = NewDecider(map[string]float64{"fundamentals": 9.0, "momentum": 1.0}, 0.5, false)
	decision = d.Decide("AAPL", signals, riskBound(50_000), flatSnapshot(100_000), 100)
	assert.Equal(t, types.ActionBuy, decision.Action)
}

func TestDecideSellLimitedToHeldShares(t *testing.T) {
	d := NewDecider(nil, 0.5, false)
	snapshot := flatSnapshot(10_000)
	snapshot.Positions["AAPL"] = 30

	signals := []types.Signal{
		bearishSignal("fundamentals", 1.0),
		bearishSignal("momentum", 1.0),
	}

	decision := d.Decide("AAPL", signals, riskBound(50_000), snapshot, 100)

	assert.Equal(t, types.ActionSell, decision.Action)
	assert.Equal(t, int64(30), decision.Quantity)
}

func TestDecideSellFlatWithoutShortingHolds(t *testing.T) {
	d := NewDecider(nil, 0.5, false)
	signals := []types.Signal{bearishSignal("fundamentals", 1.0)}

	decision := d.Decide("AAPL", signals, riskBound(50_000), flatSnapshot(100_000), 100)

	assert.Equal(t, types.ActionHold, decision.Action)
	assert.Contains(t, decision.Rationale, "shorting disabled")
}

func TestDecideShortWhenEnabled(t *testing.T) {
	d := NewDecider(nil, 0.5, true)
	signals := []types.Signal{
		bearishSignal("fundamentals", 0.9),
		bearishSignal("momentum", 0.9),
	}

	decision := d.Decide("AAPL", signals, riskBound(50_000), flatSnapshot(100_000), 100)

	assert.Equal(t, types.ActionShort, decision.Action)
	assert.Equal(t, int64(450), decision.Quantity)
}

func TestDecideBuyAgainstShortCovers(t *testing.T) {
	d := NewDecider(nil, 0.5, true)
	snapshot := flatSnapshot(100_000)
	snapshot.Positions["AAPL"] = -200

	signals := []types.Signal{
		bullishSignal("fundamentals", 1.0),
		bullishSignal("momentum", 1.0),
	}

	decision := d.Decide("AAPL", signals, riskBound(50_000), snapshot, 100)

	assert.Equal(t, types.ActionCover, decision.Action)
	assert.Equal(t, int64(200), decision.Quantity)
}

func TestDecideBuyCappedByCash(t *testing.T) {
	d := NewDecider(nil, 0.5, false)
	signals := []types.Signal{
		bullishSignal("fundamentals", 1.0),
		bullishSignal("momentum", 1.0),
	}

	decision := d.Decide("AAPL", signals, riskBound(50_000), flatSnapshot(2_500), 100)

	assert.Equal(t, types.ActionBuy, decision.Action)
	assert.Equal(t, int64(25), decision.Quantity)
}

func TestDecideBuyCappedByRiskHeadroom(t *testing.T) {
	d := NewDecider(nil, 0.5, false)
	snapshot := flatSnapshot(100_000)
	snapshot.Positions["AAPL"] = 400 // $40k of a $50k bound already used

	signals := []types.Signal{
		bullishSignal("fundamentals", 1.0),
		bullishSignal("momentum", 1.0),
	}

	decision := d.Decide("AAPL", signals, riskBound(50_000), snapshot, 100)

	assert.Equal(t, types.ActionBuy, decision.Action)
	assert.Equal(t, int64(100), decision.Quantity)
}

func TestDecideNoTradablePriceHolds(t *testing.T) {
	d := NewDecider(nil, 0.5, false)
	signals := []types.Signal{bullishSignal("fundamentals", 1.0)}

	decision := d.Decide("AAPL", signals, riskBound(50_000), flatSnapshot(100_000), 0)

	assert.Equal(t, types.ActionHold, decision.Action)
}

func TestDecideQuantityMonotonicInNetScore(t *testing.T) {
	d := NewDecider(nil, 0.5, false)
	snapshot := flatSnapshot(1_000_000)

	prevQty := int64(0)
	for _, confidence := range []float64{0.55, 0.65, 0.75, 0.85, 0.95} {
		signals := []types.Signal{
			bullishSignal("fundamentals", confidence),
			bullishSignal("momentum", confidence),
		}
		decision := d.Decide("AAPL", signals, riskBound(50_000), snapshot, 100)
		require.Equal(t, types.ActionBuy, decision.Action, fmt.Sprintf("confidence %.2f", confidence))
		assert.GreaterOrEqual(t, decision.Quantity, prevQty)
		prevQty = decision.Quantity
	}
}

func TestNetScoreEmptySignals(t *testing.T) {
	d := NewDecider(nil, 0.5, false)
	assert.Zero(t, d.netScore(nil))
}
