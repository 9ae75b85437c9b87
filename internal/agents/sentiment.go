package agents

import (
	"context"
	"fmt"
	"time"

	"github.com/jwkjng/ai-hedge-fund-opt/pkg/data"
	"github.com/jwkjng/ai-hedge-fund-opt/pkg/types"
)

// sentimentBaseline is the weekly article count treated as neutral flow.
const sentimentBaseline = 5

// SentimentProducer reads market attention from news volume: the trailing
// week's article count normalized around the baseline into [-1, 1].
type SentimentProducer struct {
	news data.NewsSource
}

func NewSentimentProducer(news data.NewsSource) *SentimentProducer {
	return &SentimentProducer{news: news}
}

func (p *SentimentProducer) ID() string { return "sentiment" }

func (p *SentimentProducer) Produce(ctx context.Context, ticker string, asOf time.Time, _ types.PortfolioSnapshot) (types.Signal, error) {
	if err := ctx.Err(); err != nil {
		return types.Signal{}, err
	}
	weekStart := asOf.AddDate(0, 0, -7)
	items, err := p.news.News(ticker, weekStart, asOf)
	if err != nil {
		return neutralSignal(p.ID(), ticker, fmt.Sprintf("news lookup failed: %v", err)), nil
	}

	score := clamp((float64(len(items))-sentimentBaseline)/10, -1, 1)

	direction := types.DirectionNeutral
	if score > 0.3 {
		direction = types.DirectionBullish
	} else if score < -0.3 {
		direction = types.DirectionBearish
	}

	return types.Signal{
		SourceID:   p.ID(),
		Ticker:     ticker,
		Direction:  direction,
		Confidence: 0.7,
		Rationale:  fmt.Sprintf("%d articles in trailing week, sentiment score %.2f", len(items), score),
		Metrics: map[string]float64{
			"article_count":   float64(len(items)),
			"sentiment_score": score,
		},
	}, nil
}
