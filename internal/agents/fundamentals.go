package agents

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jwkjng/ai-hedge-fund-opt/pkg/data"
	"github.com/jwkjng/ai-hedge-fund-opt/pkg/types"
)

// FundamentalsProducer scores profitability, growth, valuation and balance
// sheet health from the latest financial report visible as of the
// simulation date.
type FundamentalsProducer struct {
	source data.FundamentalsSource
}

func NewFundamentalsProducer(source data.FundamentalsSource) *FundamentalsProducer {
	return &FundamentalsProducer{source: source}
}

func (p *FundamentalsProducer) ID() string { return "fundamentals" }

func (p *FundamentalsProducer) Produce(ctx context.Context, ticker string, asOf time.Time, _ types.PortfolioSnapshot) (types.Signal, error) {
	if err := ctx.Err(); err != nil {
		return types.Signal{}, err
	}
	m, err := p.source.MetricsAsOf(ticker, asOf)
	if err != nil {
		return neutralSignal(p.ID(), ticker, fmt.Sprintf("no financial metrics: %v", err)), nil
	}

	score := 0.0
	var reasons []string

	// Profitability
	switch {
	case m.NetMargin > 0.20:
		score += 0.3
		reasons = append(reasons, fmt.Sprintf("strong net margin %.1f%%", m.NetMargin*100))
	case m.NetMargin > 0.10:
		score += 0.1
		reasons = append(reasons, fmt.Sprintf("decent net margin %.1f%%", m.NetMargin*100))
	case m.NetMargin < 0:
		score -= 0.3
		reasons = append(reasons, fmt.Sprintf("negative net margin %.1f%%", m.NetMargin*100))
	}

	// Growth
	switch {
	case m.RevenueGrowth > 0.20:
		score += 0.3
		reasons = append(reasons, fmt.Sprintf("strong revenue growth %.1f%%", m.RevenueGrowth*100))
	case m.RevenueGrowth > 0.10:
		score += 0.1
		reasons = append(reasons, fmt.Sprintf("decent revenue growth %.1f%%", m.RevenueGrowth*100))
	case m.RevenueGrowth < 0:
		score -= 0.2
		reasons = append(reasons, fmt.Sprintf("negative revenue growth %.1f%%", m.RevenueGrowth*100))
	}

	// Valuation
	if m.PERatio > 0 {
		if m.PERatio < 15 {
			score += 0.2
			reasons = append(reasons, fmt.Sprintf("attractive P/E %.1f", m.PERatio))
		} else if m.PERatio > 30 {
			score -= 0.2
			reasons = append(reasons, fmt.Sprintf("high P/E %.1f", m.PERatio))
		}
	}

	// Balance sheet
	if m.CurrentRatio > 0 {
		if m.CurrentRatio > 2 {
			score += 0.2
			reasons = append(reasons, fmt.Sprintf("strong current ratio %.1f", m.CurrentRatio))
		} else if m.CurrentRatio < 1 {
			score -= 0.3
			reasons = append(reasons, fmt.Sprintf("weak current ratio %.1f", m.CurrentRatio))
		}
	}

	direction := types.DirectionNeutral
	if score > 0.3 {
		direction = types.DirectionBullish
	} else if score < -0.3 {
		direction = types.DirectionBearish
	}

	rationale := strings.Join(reasons, "; ")
	if rationale == "" {
		rationale = "insufficient data for detailed analysis"
	}

	return types.Signal{
		SourceID:   p.ID(),
		Ticker:     ticker,
		Direction:  direction,
		Confidence: 0.7,
		Rationale:  rationale,
		Metrics: map[string]float64{
			"score":          score,
			"net_margin":     m.NetMargin,
			"revenue_growth": m.RevenueGrowth,
			"pe_ratio":       m.PERatio,
			"current_ratio":  m.CurrentRatio,
		},
	}, nil
}
