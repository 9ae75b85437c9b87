package data

import (
	"fmt"
	"sort"
	"time"

	"github.com/jwkjng/ai-hedge-fund-opt/pkg/types"
)

// TruncateAt returns the prefix of candles dated at or before end.
// Candles must be in ascending order.
func TruncateAt(candles []types.Candle, end time.Time) []types.Candle {
	cutoff := endOfDay(end)
	i := sort.Search(len(candles), func(i int) bool {
		return candles[i].Timestamp.After(cutoff)
	})
	return candles[:i]
}

// Window keeps the trailing n candles (n <= 0 keeps all).
func Window(candles []types.Candle, n int) []types.Candle {
	if n <= 0 || len(candles) <= n {
		return candles
	}
	return candles[len(candles)-n:]
}

// FilterByDateRange keeps candles within [start, end] inclusive.
func FilterByDateRange(candles []types.Candle, start, end time.Time) []types.Candle {
	out := make([]types.Candle, 0, len(candles))
	cutoff := endOfDay(end)
	for _, c := range candles {
		if c.Timestamp.Before(start) || c.Timestamp.After(cutoff) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// ValidateSeries checks candle integrity and chronological order.
func ValidateSeries(candles []types.Candle) error {
	if len(candles) == 0 {
		return fmt.Errorf("empty price series")
	}
	for i, c := range candles {
		if c.Open <= 0 || c.High <= 0 || c.Low <= 0 || c.Close <= 0 {
			return fmt.Errorf("non-positive price at index %d", i)
		}
		if c.High < c.Low {
			return fmt.Errorf("high %.4f below low %.4f at index %d", c.High, c.Low, i)
		}
		if c.High < c.Open || c.High < c.Close {
			return fmt.Errorf("high %.4f below open/close at index %d", c.High, i)
		}
		if c.Low > c.Open || c.Low > c.Close {
			return fmt.Errorf("low %.4f above open/close at index %d", c.Low, i)
		}
		if i > 0 && !candles[i].Timestamp.After(candles[i-1].Timestamp) {
			return fmt.Errorf("timestamps out of order at index %d", i)
		}
	}
	return nil
}

// SameDay reports whether two timestamps fall on the same UTC calendar day.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

// Day normalizes a timestamp to midnight UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func endOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 23, 59, 59, 999999999, time.UTC)
}
