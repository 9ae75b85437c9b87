package risk

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	enginerrors "github.com/jwkjng/ai-hedge-fund-opt/internal/errors"
	"github.com/jwkjng/ai-hedge-fund-opt/pkg/types"
)

const (
	// TradingDaysPerYear annualizes daily return volatility.
	TradingDaysPerYear = 252

	// DefaultMinHistory is the minimum number of closes needed to compute
	// a volatility estimate (one trailing month of sessions plus the
	// anchor close the first return is taken against).
	DefaultMinHistory = 22
)

// Volatility breakpoints separating the tiers.
const (
	lowTierCeiling    = 0.20
	mediumTierCeiling = 0.40
)

// TierFractions maps each risk tier to the fraction of total portfolio
// value a single position may occupy. Fractions must strictly decrease
// with tier.
type TierFractions struct {
	Low    float64
	Medium float64
	High   float64
}

// DefaultTierFractions caps positions at 25% / 15% / 10% of portfolio value.
var DefaultTierFractions = TierFractions{Low: 0.25, Medium: 0.15, High: 0.10}

// Validate enforces the monotonicity invariant: higher tier, strictly
// smaller fraction, all within (0, 1].
func (f TierFractions) Validate() error {
	for _, v := range []float64{f.Low, f.Medium, f.High} {
		if v <= 0 || v > 1 {
			return fmt.Errorf("tier fraction %.4f outside (0, 1]", v)
		}
	}
	if !(f.Low > f.Medium && f.Medium > f.High) {
		return fmt.Errorf("tier fractions must strictly decrease: low=%.4f medium=%.4f high=%.4f",
			f.Low, f.Medium, f.High)
	}
	return nil
}

func (f TierFractions) forTier(tier types.RiskTier) float64 {
	switch tier {
	case types.RiskTierLow:
		return f.Low
	case types.RiskTierMedium:
		return f.Medium
	default:
		return f.High
	}
}

// Assessor derives per-ticker risk bounds from trailing price history.
// It is a pure function of its inputs: no state, no side effects, so a
// given history always reproduces the same assessment.
type Assessor struct {
	minHistory int
	fractions  TierFractions
}

// NewAssessor builds an assessor. minHistory <= 0 selects DefaultMinHistory.
func NewAssessor(minHistory int, fractions TierFractions) (*Assessor, error) {
	if minHistory <= 0 {
		minHistory = DefaultMinHistory
	}
	if err := fractions.Validate(); err != nil {
		return nil, err
	}
	return &Assessor{minHistory: minHistory, fractions: fractions}, nil
}

// MinHistory returns the minimum number of closes Assess requires.
func (a *Assessor) MinHistory() int {
	return a.minHistory
}

// Assess computes the risk bound for one ticker on one date from its
// trailing closes (chronologically ordered) and the current total
// portfolio value. Returns ErrInsufficientHistory when the window is too
// short; the caller must treat the ticker as hold-only for that day.
func (a *Assessor) Assess(ticker string, history []types.Candle, portfolioValue float64) (types.RiskAssessment, error) {
	if len(history) < a.minHistory {
		return types.RiskAssessment{}, fmt.Errorf("%s: %d of %d closes: %w",
			ticker, len(history), a.minHistory, enginerrors.ErrInsufficientHistory)
	}

	returns := dailyReturns(history)
	vol := stat.StdDev(returns, nil) * math.Sqrt(TradingDaysPerYear)
	if math.IsNaN(vol) {
		vol = 0
	}

	tier := tierFor(vol)
	maxValue := a.fractions.forTier(tier) * portfolioValue
	if maxValue < 0 {
		maxValue = 0
	}

	return types.RiskAssessment{
		Ticker:           ticker,
		Volatility:       vol,
		MaxPositionValue: maxValue,
		Tier:             tier,
		// No asymmetric loss modeling: the stop distance is the
		// annualized volatility itself.
		StopLossPct: vol,
	}, nil
}

func tierFor(vol float64) types.RiskTier {
	switch {
	case vol < lowTierCeiling:
		return types.RiskTierLow
	case vol < mediumTierCeiling:
		return types.RiskTierMedium
	default:
		return types.RiskTierHigh
	}
}

func dailyReturns(history []types.Candle) []float64 {
	returns := make([]float64, 0, len(history)-1)
	for i := 1; i < len(history); i++ {
		prev := history[i-1].Close
		if prev == 0 {
			continue
		}
		returns = append(returns, (history[i].Close-prev)/prev)
	}
	return returns
}
