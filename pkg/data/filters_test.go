package data

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwkjng/ai-hedge-fund-opt/pkg/types"
)

func dailySeries(start time.Time, closes ...float64) []types.Candle {
	out := make([]types.Candle, len(closes))
	for i, c := range closes {
		out[i] = types.Candle{
			Timestamp: start.AddDate(0, 0, i),
			Open:      c, High: c * 1.02, Low: c * 0.98, Close: c, Volume: 1e6,
		}
	}
	return out
}

func TestTruncateAtHidesTheFuture(t *testing.T) {
	start := time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC)
	series := dailySeries(start, 100, 101, 102, 103, 104)

	trimmed := TruncateAt(series, start.AddDate(0, 0, 2))

	require.Len(t, trimmed, 3)
	assert.InDelta(t, 102, trimmed[len(trimmed)-1].Close, 1e-9)
}

func TestTruncateAtIsEndInclusive(t *testing.T) {
	start := time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC)
	series := dailySeries(start, 100, 101)

	// Intraday timestamps on the cutoff date still count.
	series[1].Timestamp = series[1].Timestamp.Add(16 * time.Hour)
	trimmed := TruncateAt(series, start.AddDate(0, 0, 1))

	assert.Len(t, trimmed, 2)
}

func TestTruncateAtBeforeSeriesIsEmpty(t *testing.T) {
	start := time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC)
	series := dailySeries(start, 100, 101)

	assert.Empty(t, TruncateAt(series, start.AddDate(0, 0, -1)))
}

func TestWindowKeepsTrailingEntries(t *testing.T) {
	start := time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC)
	series := dailySeries(start, 100, 101, 102, 103)

	assert.Len(t, Window(series, 2), 2)
	assert.InDelta(t, 102, Window(series, 2)[0].Close, 1e-9)
	assert.Len(t, Window(series, 0), 4)
	assert.Len(t, Window(series, 10), 4)
}

func TestFilterByDateRangeInclusive(t *testing.T) {
	start := time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC)
	series := dailySeries(start, 100, 101, 102, 103, 104)

	got := FilterByDateRange(series, start.AddDate(0, 0, 1), start.AddDate(0, 0, 3))

	require.Len(t, got, 3)
	assert.InDelta(t, 101, got[0].Close, 1e-9)
	assert.InDelta(t, 103, got[2].Close, 1e-9)
}

func TestValidateSeries(t *testing.T) {
	start := time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC)

	t.Run("accepts a clean series", func(t *testing.T) {
		assert.NoError(t, ValidateSeries(dailySeries(start, 100, 101, 102)))
	})
	t.Run("rejects empty", func(t *testing.T) {
		assert.Error(t, ValidateSeries(nil))
	})
	t.Run("rejects non-positive close", func(t *testing.T) {
		series := dailySeries(start, 100, 101)
		series[1].Close = 0
		assert.Error(t, ValidateSeries(series))
	})
	t.Run("rejects inverted high and low", func(t *testing.T) {
		series := dailySeries(start, 100)
		series[0].High, series[0].Low = series[0].Low, series[0].High
		assert.Error(t, ValidateSeries(series))
	})
	t.Run("rejects out-of-order timestamps", func(t *testing.T) {
		series := dailySeries(start, 100, 101)
		series[1].Timestamp = series[0].Timestamp
		assert.Error(t, ValidateSeries(series))
	})
}

func TestSameDayIgnoresTimeOfDay(t *testing.T) {
	a := time.Date(2023, 3, 1, 9, 30, 0, 0, time.UTC)
	b := time.Date(2023, 3, 1, 16, 0, 0, 0, time.UTC)
	c := time.Date(2023, 3, 2, 0, 0, 0, 0, time.UTC)

	assert.True(t, SameDay(a, b))
	assert.False(t, SameDay(a, c))
}

func TestDayNormalizesToMidnightUTC(t *testing.T) {
	ts := time.Date(2023, 3, 1, 16, 45, 12, 999, time.UTC)
	assert.Equal(t, time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC), Day(ts))
}
