package data

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwkjng/ai-hedge-fund-opt/pkg/types"
)

func TestGenerateSampleSeriesIsValidAndDeterministic(t *testing.T) {
	start := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)

	first := GenerateSampleSeries(start, 100, 100, 42)
	second := GenerateSampleSeries(start, 100, 100, 42)

	require.Len(t, first, 100)
	assert.NoError(t, ValidateSeries(first))
	assert.Equal(t, first, second)

	for _, c := range first {
		wd := c.Timestamp.Weekday()
		assert.NotEqual(t, time.Saturday, wd)
		assert.NotEqual(t, time.Sunday, wd)
	}
}

func TestStaticProviderHistoryTruncates(t *testing.T) {
	start := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	series := GenerateSampleSeries(start, 30, 100, 7)
	provider := NewStaticProvider(map[string][]types.Candle{"A": series})

	cut := series[9].Timestamp
	history, err := provider.History("A", cut, 252)
	require.NoError(t, err)

	assert.Len(t, history, 10)
	assert.Equal(t, cut, history[len(history)-1].Timestamp)
}

func TestStaticProviderUnknownTickerIsGap(t *testing.T) {
	provider := NewStaticProvider(map[string][]types.Candle{})

	_, err := provider.History("GHOST", time.Now(), 10)
	assert.Error(t, err)
}

func TestStaticProviderTradingDaysUnion(t *testing.T) {
	start := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	a := GenerateSampleSeries(start, 10, 100, 1)
	// B starts a week later: the union still covers A's early days.
	b := GenerateSampleSeries(start.AddDate(0, 0, 7), 10, 200, 2)
	provider := NewStaticProvider(map[string][]types.Candle{"A": a, "B": b})

	days, err := provider.TradingDays([]string{"A", "B"}, start, start.AddDate(0, 1, 0))
	require.NoError(t, err)
	require.NotEmpty(t, days)
	assert.Equal(t, Day(a[0].Timestamp), days[0])
	for i := 1; i < len(days); i++ {
		assert.True(t, days[i].After(days[i-1]))
	}
}
