package backtest

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/jwkjng/ai-hedge-fund-opt/internal/risk"
	"github.com/jwkjng/ai-hedge-fund-opt/pkg/types"
)

// Summary holds the run statistics computed once when a run finishes.
// Queries read these fields; nothing is re-derived afterwards.
type Summary struct {
	TradingDays      int
	StartingValue    float64
	FinalValue       float64
	CumulativeReturn float64
	MaxDrawdown      float64
	SharpeRatio      float64 // daily, risk-free rate 0
	AnnualizedSharpe float64
	SortinoRatio     float64
	RealizedPnL      float64

	TotalTrades int
	Buys        int
	Sells       int
	Shorts      int
	Covers      int
	Holds       int
	Exclusions  int
}

func summarize(startingCash, realizedPnL float64, records []types.PerformanceRecord, decisions []DayDecision) Summary {
	s := Summary{
		StartingValue: startingCash,
		FinalValue:    startingCash,
		TradingDays:   len(records),
		RealizedPnL:   realizedPnL,
	}

	for _, d := range decisions {
		switch d.Decision.Action {
		case types.ActionBuy:
			s.Buys++
		case types.ActionSell:
			s.Sells++
		case types.ActionShort:
			s.Shorts++
		case types.ActionCover:
			s.Covers++
		default:
			s.Holds++
		}
		if d.Excluded != "" {
			s.Exclusions++
		}
	}
	s.TotalTrades = s.Buys + s.Sells + s.Shorts + s.Covers

	if len(records) == 0 {
		return s
	}
	s.FinalValue = records[len(records)-1].PortfolioValue
	if startingCash > 0 {
		s.CumulativeReturn = (s.FinalValue - startingCash) / startingCash
	}
	s.MaxDrawdown = maxDrawdown(startingCash, records)

	returns := make([]float64, len(records))
	for i, r := range records {
		returns[i] = r.DailyReturn
	}
	s.SharpeRatio = sharpe(returns)
	s.AnnualizedSharpe = s.SharpeRatio * math.Sqrt(risk.TradingDaysPerYear)
	s.SortinoRatio = sortino(returns)
	return s
}

// maxDrawdown is the largest peak-to-trough decline of the value series,
// seeded with the starting cash so a decline from day one counts.
func maxDrawdown(startingCash float64, records []types.PerformanceRecord) float64 {
	peak := startingCash
	worst := 0.0
	for _, r := range records {
		if r.PortfolioValue > peak {
			peak = r.PortfolioValue
		}
		if peak <= 0 {
			continue
		}
		if dd := (peak - r.PortfolioValue) / peak; dd > worst {
			worst = dd
		}
	}
	return worst
}

func sharpe(returns []float64) float64 {
	if len(returns) < 2 {
		return 0
	}
	mean := stat.Mean(returns, nil)
	sd := stat.StdDev(returns, nil)
	if sd == 0 || math.IsNaN(sd) {
		return 0
	}
	return mean / sd
}

// sortino replaces total deviation with downside deviation. All-positive
// return series report +Inf, matching the convention of returning the
// least surprising extreme rather than NaN.
func sortino(returns []float64) float64 {
	if len(returns) < 2 {
		return 0
	}
	mean := stat.Mean(returns, nil)
	downside := 0.0
	n := 0
	for _, r := range returns {
		if r < 0 {
			downside += r * r
			n++
		}
	}
	if n == 0 || downside == 0 {
		if mean > 0 {
			return math.Inf(1)
		}
		return 0
	}
	return mean / math.Sqrt(downside/float64(n))
}
