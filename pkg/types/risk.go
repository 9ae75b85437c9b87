package types

// RiskTier is a coarse volatility bucket controlling maximum position size.
type RiskTier int

const (
	RiskTierLow RiskTier = iota
	RiskTierMedium
	RiskTierHigh
)

func (t RiskTier) String() string {
	switch t {
	case RiskTierLow:
		return "LOW"
	case RiskTierMedium:
		return "MEDIUM"
	case RiskTierHigh:
		return "HIGH"
	default:
		return "UNKNOWN"
	}
}

// RiskAssessment bounds position sizing for one ticker on one date.
// StopLossPct equals annualized volatility directly; it is informational
// only and never auto-executed by the engine.
type RiskAssessment struct {
	Ticker           string
	Volatility       float64 // annualized stdev of daily returns
	MaxPositionValue float64 // dollar cap for total exposure in this ticker
	Tier             RiskTier
	StopLossPct      float64
}
