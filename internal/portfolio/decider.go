package portfolio

import (
	"fmt"
	"math"

	"github.com/jwkjng/ai-hedge-fund-opt/pkg/types"
)

// DefaultThreshold is the symmetric decision threshold on the net score.
// Unanimous agreement at 0.9 confidence nets 0.9 and crosses it; one
// opposing vote at the same confidence among four producers nets 0.45 and
// does not.
const DefaultThreshold = 0.5

// Decider resolves heterogeneous producer signals plus a risk bound into one
// discrete trade per ticker. It is stateless; all portfolio context arrives
// through the snapshot.
type Decider struct {
	weights       map[string]float64 // per-source weights; missing = 1.0
	threshold     float64
	allowShorting bool
}

func NewDecider(weights map[string]float64, threshold float64, allowShorting bool) *Decider {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Decider{
		weights:       weights,
		threshold:     threshold,
		allowShorting: allowShorting,
	}
}

// Decide turns the day's signals for one ticker into a trade decision.
// A nil risk bound (insufficient history upstream) always yields hold: the
// decider never trades without a computed bound.
func (d *Decider) Decide(ticker string, signals []types.Signal, risk *types.RiskAssessment, snapshot types.PortfolioSnapshot, latestPrice float64) types.TradeDecision {
	bullish, bearish, neutral := tally(signals)
	hold := func(reason string) types.TradeDecision {
		return types.TradeDecision{
			Ticker:    ticker,
			Action:    types.ActionHold,
			Quantity:  0,
			NetScore:  d.netScore(signals),
			Bullish:   bullish,
			Bearish:   bearish,
			Neutral:   neutral,
			Rationale: reason,
		}
	}

	if risk == nil {
		return hold("no risk bound computed")
	}
	if latestPrice <= 0 {
		return hold("no tradable price")
	}
	if len(signals) == 0 {
		return hold("no signals produced")
	}

	net := d.netScore(signals)
	position := snapshot.Positions[ticker]

	var intent types.TradeAction
	switch {
	case net > d.threshold:
		intent = types.ActionBuy
	case net < -d.threshold:
		intent = types.ActionSell
	default:
		return hold(fmt.Sprintf("net score %.2f within threshold ±%.2f", net, d.threshold))
	}

	desiredValue := math.Abs(net) * risk.MaxPositionValue
	if desiredValue > risk.MaxPositionValue {
		desiredValue = risk.MaxPositionValue
	}
	desiredQty := int64(math.Floor(desiredValue / latestPrice))

	action, qty, reason := d.resolve(intent, desiredQty, position, risk, snapshot, latestPrice)
	if qty <= 0 {
		return hold(reason)
	}
	return types.TradeDecision{
		Ticker:    ticker,
		Action:    action,
		Quantity:  qty,
		NetScore:  net,
		Bullish:   bullish,
		Bearish:   bearish,
		Neutral:   neutral,
		Rationale: reason,
	}
}

// resolve maps intent to a concrete action against the current position and
// applies every sizing cap: risk bound headroom, cash for buys and covers,
// held shares for sells, open short size for covers.
func (d *Decider) resolve(intent types.TradeAction, desiredQty, position int64, risk *types.RiskAssessment, snapshot types.PortfolioSnapshot, price float64) (types.TradeAction, int64, string) {
	cashQty := int64(math.Floor(snapshot.Cash / price))

	if intent == types.ActionBuy {
		if position < 0 {
			// Buy intent against an open short reduces the short first.
			qty := min64(desiredQty, -position, cashQty)
			return types.ActionCover, qty, fmt.Sprintf("covering %d of %d short shares", qty, -position)
		}
		headroom := int64(math.Floor((risk.MaxPositionValue - float64(position)*price) / price))
		qty := min64(desiredQty, headroom, cashQty)
		return types.ActionBuy, qty, fmt.Sprintf("buy consensus, sized to %d shares", qty)
	}

	// Sell intent.
	if position > 0 {
		qty := min64(desiredQty, position)
		return types.ActionSell, qty, fmt.Sprintf("selling %d of %d held shares", qty, position)
	}
	if !d.allowShorting {
		return types.ActionHold, 0, "sell consensus with no long position and shorting disabled"
	}
	headroom := int64(math.Floor((risk.MaxPositionValue - float64(-position)*price) / price))
	qty := min64(desiredQty, headroom)
	return types.ActionShort, qty, fmt.Sprintf("short consensus, sized to %d shares", qty)
}

// netScore is the weighted vote sum normalized by total weight, in [-1,1].
func (d *Decider) netScore(signals []types.Signal) float64 {
	sum, totalWeight := 0.0, 0.0
	for _, s := range signals {
		w := 1.0
		if d.weights != nil {
			if configured, ok := d.weights[s.SourceID]; ok {
				w = configured
			}
		}
		sum += w * s.Vote()
		totalWeight += w
	}
	if totalWeight == 0 {
		return 0
	}
	return sum / totalWeight
}

// tally counts directions for reporting; it never drives the decision.
func tally(signals []types.Signal) (bullish, bearish, neutral int) {
	for _, s := range signals {
		switch s.Direction {
		case types.DirectionBullish:
			bullish++
		case types.DirectionBearish:
			bearish++
		default:
			neutral++
		}
	}
	return bullish, bearish, neutral
}

func min64(values ...int64) int64 {
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	if m < 0 {
		return 0
	}
	return m
}
