package data

import (
	"time"

	"github.com/jwkjng/ai-hedge-fund-opt/pkg/types"
)

// PriceProvider serves historical end-of-day prices. Truncation at the
// requested end date is enforced here, at the provider boundary: callers can
// never observe a close dated after the simulated "current" day.
type PriceProvider interface {
	// History returns ascending candles for the ticker, truncated at end
	// inclusive, keeping at most window entries (window <= 0 means all).
	// Returns ErrDataGap when no observation at or before end exists.
	History(ticker string, end time.Time, window int) ([]types.Candle, error)

	// TradingDays returns the ascending union of observation dates across
	// the tickers within [start, end]. A trading day is any date with at
	// least one price observation.
	TradingDays(tickers []string, start, end time.Time) ([]time.Time, error)
}

// FundamentalsSource serves trailing financial metrics. Implementations must
// only return reports dated at or before asOf.
type FundamentalsSource interface {
	MetricsAsOf(ticker string, asOf time.Time) (types.FinancialMetrics, error)
}

// NewsSource serves dated company news within a range, end inclusive.
type NewsSource interface {
	News(ticker string, start, end time.Time) ([]types.NewsItem, error)
}

// CSVColumnMapping defines column positions for daily price CSV files.
type CSVColumnMapping struct {
	DateCol    int
	OpenCol    int
	HighCol    int
	LowCol     int
	CloseCol   int
	VolumeCol  int
	MinColumns int
	DateFormat string
}

// DefaultCSVFormat matches date,open,high,low,close,volume daily files.
var DefaultCSVFormat = CSVColumnMapping{
	DateCol:    0,
	OpenCol:    1,
	HighCol:    2,
	LowCol:     3,
	CloseCol:   4,
	VolumeCol:  5,
	MinColumns: 6,
	DateFormat: "2006-01-02",
}
