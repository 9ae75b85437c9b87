package data

import (
	"fmt"
	"math/rand"
	"sort"
	"time"

	enginerrors "github.com/jwkjng/ai-hedge-fund-opt/internal/errors"
	"github.com/jwkjng/ai-hedge-fund-opt/pkg/types"
)

// StaticProvider serves prices from in-memory series. It backs tests and the
// synthetic-data demo path; semantics (truncation, trading days) match the
// CSV store exactly.
type StaticProvider struct {
	series map[string][]types.Candle
}

// NewStaticProvider builds a provider over pre-sorted ascending series.
func NewStaticProvider(series map[string][]types.Candle) *StaticProvider {
	return &StaticProvider{series: series}
}

// History implements PriceProvider.
func (p *StaticProvider) History(ticker string, end time.Time, window int) ([]types.Candle, error) {
	series, ok := p.series[ticker]
	if !ok {
		return nil, fmt.Errorf("%s: %w", ticker, enginerrors.ErrDataGap)
	}
	trimmed := Window(TruncateAt(series, end), window)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%s: %w", ticker, enginerrors.ErrDataGap)
	}
	return trimmed, nil
}

// TradingDays implements PriceProvider.
func (p *StaticProvider) TradingDays(tickers []string, start, end time.Time) ([]time.Time, error) {
	seen := make(map[time.Time]bool)
	for _, ticker := range tickers {
		for _, c := range FilterByDateRange(p.series[ticker], start, end) {
			seen[Day(c.Timestamp)] = true
		}
	}
	days := make([]time.Time, 0, len(seen))
	for d := range seen {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return days, nil
}

// GenerateSampleSeries builds a deterministic synthetic daily series: a
// seeded random walk with a mild upward drift, weekends skipped.
func GenerateSampleSeries(start time.Time, days int, basePrice float64, seed int64) []types.Candle {
	rng := rand.New(rand.NewSource(seed))
	series := make([]types.Candle, 0, days)
	price := basePrice
	day := Day(start)
	for len(series) < days {
		if wd := day.Weekday(); wd == time.Saturday || wd == time.Sunday {
			day = day.AddDate(0, 0, 1)
			continue
		}
		drift := price * 0.0002
		shock := (rng.Float64() - 0.5) * price * 0.02
		next := price + drift + shock
		if next < basePrice*0.2 {
			next = basePrice * 0.2
		}
		high := next * (1 + rng.Float64()*0.01)
		low := next * (1 - rng.Float64()*0.01)
		series = append(series, types.Candle{
			Timestamp: day,
			Open:      price,
			High:      maxf(high, maxf(price, next)),
			Low:       minf(low, minf(price, next)),
			Close:     next,
			Volume:    1e6 * (0.5 + rng.Float64()),
		})
		price = next
		day = day.AddDate(0, 0, 1)
	}
	return series
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
