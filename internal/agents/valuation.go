package agents

import (
	"context"
	"fmt"
	"time"

	"github.com/jwkjng/ai-hedge-fund-opt/pkg/data"
	"github.com/jwkjng/ai-hedge-fund-opt/pkg/types"
)

const valuationWindow = 252

// ValuationProducer hunts for prices near the trailing yearly low with an
// earnings yield to back the discount, and fades prices near the high: a
// margin-of-safety style contrarian read.
type ValuationProducer struct {
	prices       data.PriceProvider
	fundamentals data.FundamentalsSource
}

func NewValuationProducer(prices data.PriceProvider, fundamentals data.FundamentalsSource) *ValuationProducer {
	return &ValuationProducer{prices: prices, fundamentals: fundamentals}
}

func (p *ValuationProducer) ID() string { return "valuation" }

func (p *ValuationProducer) Produce(ctx context.Context, ticker string, asOf time.Time, _ types.PortfolioSnapshot) (types.Signal, error) {
	if err := ctx.Err(); err != nil {
		return types.Signal{}, err
	}
	history, err := p.prices.History(ticker, asOf, valuationWindow)
	if err != nil {
		return neutralSignal(p.ID(), ticker, fmt.Sprintf("no price history: %v", err)), nil
	}
	if len(history) < 40 {
		return neutralSignal(p.ID(), ticker,
			fmt.Sprintf("only %d closes, need 40 for a price band", len(history))), nil
	}

	low, high := history[0].Close, history[0].Close
	for _, c := range history[1:] {
		if c.Close < low {
			low = c.Close
		}
		if c.Close > high {
			high = c.Close
		}
	}
	last := history[len(history)-1].Close

	// Position of the current price inside the trailing band, 0 = at the
	// low, 1 = at the high.
	band := 0.5
	if high > low {
		band = (last - low) / (high - low)
	}

	earningsYield := 0.0
	if m, err := p.fundamentals.MetricsAsOf(ticker, asOf); err == nil {
		earningsYield = m.EarningsYield
	}

	score := 0.0
	var rationale string
	switch {
	case band < 0.25 && earningsYield > 0.06:
		score = 0.5 + clamp(earningsYield*2, 0, 0.4)
		rationale = fmt.Sprintf("price in bottom quartile of trailing band (%.0f%%) with %.1f%% earnings yield", band*100, earningsYield*100)
	case band < 0.25:
		score = 0.3
		rationale = fmt.Sprintf("price in bottom quartile of trailing band (%.0f%%), no earnings support", band*100)
	case band > 0.85 && earningsYield < 0.04:
		score = -0.6
		rationale = fmt.Sprintf("price near trailing high (%.0f%% of band) with thin %.1f%% earnings yield", band*100, earningsYield*100)
	case band > 0.85:
		score = -0.3
		rationale = fmt.Sprintf("price near trailing high (%.0f%% of band)", band*100)
	default:
		rationale = fmt.Sprintf("price mid-band (%.0f%%), no valuation edge", band*100)
	}

	direction := types.DirectionNeutral
	if score > 0.25 {
		direction = types.DirectionBullish
	} else if score < -0.25 {
		direction = types.DirectionBearish
	}

	confidence := clamp(score, -1, 1)
	if confidence < 0 {
		confidence = -confidence
	}

	return types.Signal{
		SourceID:   p.ID(),
		Ticker:     ticker,
		Direction:  direction,
		Confidence: confidence,
		Rationale:  rationale,
		Metrics: map[string]float64{
			"band_position":  band,
			"trailing_low":   low,
			"trailing_high":  high,
			"earnings_yield": earningsYield,
			"score":          score,
		},
	}, nil
}
