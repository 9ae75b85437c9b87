package types

import "time"

// TradeAction is the discrete action resolved for a ticker on a date.
type TradeAction int

const (
	ActionHold TradeAction = iota
	ActionBuy
	ActionSell
	ActionShort
	ActionCover
)

func (a TradeAction) String() string {
	switch a {
	case ActionHold:
		return "HOLD"
	case ActionBuy:
		return "BUY"
	case ActionSell:
		return "SELL"
	case ActionShort:
		return "SHORT"
	case ActionCover:
		return "COVER"
	default:
		return "UNKNOWN"
	}
}

// TradeDecision is one resolved trade per ticker per day.
// Quantity is zero if and only if Action is hold.
type TradeDecision struct {
	Ticker   string
	Action   TradeAction
	Quantity int64

	// Reporting fields; not inputs to state application.
	NetScore  float64
	Bullish   int
	Bearish   int
	Neutral   int
	Rationale string
}

// PortfolioSnapshot is a read-only view of portfolio state handed to
// signal producers and reports.
type PortfolioSnapshot struct {
	Cash      float64
	Positions map[string]int64 // positive = long shares, negative = short
	CostBasis map[string]float64
}

// PerformanceRecord is one appended entry per simulated trading day.
type PerformanceRecord struct {
	Date           time.Time
	PortfolioValue float64
	Cash           float64
	Positions      map[string]int64
	DailyReturn    float64
	Exclusions     map[string]string // ticker -> reason it was forced to hold
}
