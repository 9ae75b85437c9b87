package agents

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/jwkjng/ai-hedge-fund-opt/pkg/data"
	"github.com/jwkjng/ai-hedge-fund-opt/pkg/types"
)

const (
	momentumFastWindow = 20
	momentumSlowWindow = 50
	momentumLookback   = 63 // one quarter of sessions
)

// MomentumProducer reads trend from moving-average separation and the
// trailing quarterly return.
type MomentumProducer struct {
	prices data.PriceProvider
}

func NewMomentumProducer(prices data.PriceProvider) *MomentumProducer {
	return &MomentumProducer{prices: prices}
}

func (p *MomentumProducer) ID() string { return "momentum" }

func (p *MomentumProducer) Produce(ctx context.Context, ticker string, asOf time.Time, _ types.PortfolioSnapshot) (types.Signal, error) {
	if err := ctx.Err(); err != nil {
		return types.Signal{}, err
	}
	history, err := p.prices.History(ticker, asOf, momentumLookback+1)
	if err != nil {
		return neutralSignal(p.ID(), ticker, fmt.Sprintf("no price history: %v", err)), nil
	}
	if len(history) < momentumSlowWindow {
		return neutralSignal(p.ID(), ticker,
			fmt.Sprintf("only %d closes, need %d", len(history), momentumSlowWindow)), nil
	}

	fast := trailingSMA(history, momentumFastWindow)
	slow := trailingSMA(history, momentumSlowWindow)
	gap := (fast - slow) / slow

	lookback := momentumLookback
	if lookback >= len(history) {
		lookback = len(history) - 1
	}
	first := history[len(history)-1-lookback].Close
	last := history[len(history)-1].Close
	trailingReturn := (last - first) / first

	// Positive MA separation and positive trailing return reinforce each
	// other; disagreement washes the score toward neutral.
	score := clamp(gap*10, -1, 1)*0.6 + clamp(trailingReturn*4, -1, 1)*0.4

	direction := types.DirectionNeutral
	if score > 0.2 {
		direction = types.DirectionBullish
	} else if score < -0.2 {
		direction = types.DirectionBearish
	}

	return types.Signal{
		SourceID:   p.ID(),
		Ticker:     ticker,
		Direction:  direction,
		Confidence: clamp(math.Abs(score), 0, 1),
		Rationale: fmt.Sprintf("SMA%d/SMA%d gap %.2f%%, %d-session return %.1f%%",
			momentumFastWindow, momentumSlowWindow, gap*100, lookback, trailingReturn*100),
		Metrics: map[string]float64{
			"ma_gap":          gap,
			"trailing_return": trailingReturn,
			"score":           score,
		},
	}, nil
}

func trailingSMA(history []types.Candle, period int) float64 {
	if period > len(history) {
		period = len(history)
	}
	sum := 0.0
	for i := len(history) - period; i < len(history); i++ {
		sum += history[i].Close
	}
	return sum / float64(period)
}
