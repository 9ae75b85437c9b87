package types

import "time"

// Candle is one end-of-day price observation for a ticker.
type Candle struct {
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
	Timestamp time.Time
}

// FinancialMetrics is a trailing-twelve-month fundamentals snapshot.
// Zero values mean "not reported" and are skipped by scoring.
type FinancialMetrics struct {
	Ticker        string
	ReportDate    time.Time
	NetMargin     float64
	RevenueGrowth float64
	PERatio       float64
	CurrentRatio  float64
	EarningsYield float64
}

// NewsItem is one dated news article reference for a ticker.
type NewsItem struct {
	Ticker string
	Date   time.Time
	Title  string
	Source string
}
