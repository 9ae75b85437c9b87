package backtest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwkjng/ai-hedge-fund-opt/internal/agents"
	"github.com/jwkjng/ai-hedge-fund-opt/internal/portfolio"
	"github.com/jwkjng/ai-hedge-fund-opt/internal/risk"
	"github.com/jwkjng/ai-hedge-fund-opt/pkg/data"
	"github.com/jwkjng/ai-hedge-fund-opt/pkg/types"
)

// fixedProducer emits the same direction and confidence every day.
type fixedProducer struct {
	id         string
	direction  types.Direction
	confidence float64
}

func (p fixedProducer) ID() string { return p.id }

func (p fixedProducer) Produce(_ context.Context, ticker string, _ time.Time, _ types.PortfolioSnapshot) (types.Signal, error) {
	return types.Signal{
		SourceID:   p.id,
		Ticker:     ticker,
		Direction:  p.direction,
		Confidence: p.confidence,
		Rationale:  "fixed",
	}, nil
}

var testStart = time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)

func testEngine(t *testing.T, provider data.PriceProvider, producers ...agents.SignalProducer) *Engine {
	t.Helper()
	assessor, err := risk.NewAssessor(22, risk.DefaultTierFractions)
	require.NoError(t, err)
	decider := portfolio.NewDecider(nil, 0.5, false)
	return NewEngine(provider, agents.NewRegistry(producers...), assessor, decider)
}

func sampleProvider(tickers ...string) *data.StaticProvider {
	series := make(map[string][]types.Candle)
	for i, ticker := range tickers {
		series[ticker] = data.GenerateSampleSeries(testStart, 120, 100, int64(i+1))
	}
	return data.NewStaticProvider(series)
}

func runConfig(tickers ...string) Config {
	return Config{
		Tickers:       tickers,
		Start:         testStart,
		End:           testStart.AddDate(0, 6, 0),
		StartingCash:  100_000,
		HistoryWindow: 252,
	}
}

func TestRunProducesContiguousRecords(t *testing.T) {
	engine := testEngine(t, sampleProvider("AAPL"),
		fixedProducer{"alpha", types.DirectionNeutral, 0.5})

	results, err := engine.Run(context.Background(), runConfig("AAPL"))
	require.NoError(t, err)

	assert.Equal(t, 120, len(results.Records))
	prev := 100_000.0
	for i, r := range results.Records {
		if i > 0 {
			assert.True(t, r.Date.After(results.Records[i-1].Date), "dates must ascend")
		}
		assert.InDelta(t, (r.PortfolioValue-prev)/prev, r.DailyReturn, 1e-9)
		prev = r.PortfolioValue
	}
}

func TestRunAllNeutralNeverTrades(t *testing.T) {
	engine := testEngine(t, sampleProvider("AAPL"),
		fixedProducer{"alpha", types.DirectionNeutral, 1.0},
		fixedProducer{"beta", types.DirectionNeutral, 1.0})

	results, err := engine.Run(context.Background(), runConfig("AAPL"))
	require.NoError(t, err)

	assert.Zero(t, results.Summary.TotalTrades)
	assert.InDelta(t, 100_000, results.Final.Cash, 1e-9)
	assert.Empty(t, results.Final.Positions)
}

func TestRunUnanimousBullishBuysAfterWarmup(t *testing.T) {
	engine := testEngine(t, sampleProvider("AAPL"),
		fixedProducer{"alpha", types.DirectionBullish, 0.9},
		fixedProducer{"beta", types.DirectionBullish, 0.9})

	results, err := engine.Run(context.Background(), runConfig("AAPL"))
	require.NoError(t, err)

	assert.Greater(t, results.Summary.Buys, 0)
	assert.Positive(t, results.Final.Positions["AAPL"])

	// The first sessions lack the 22-close volatility window, so they are
	// exclusions, not trades.
	first := results.Records[0]
	assert.Contains(t, first.Exclusions["AAPL"], "insufficient history")
}

func TestRunIsDeterministic(t *testing.T) {
	cfg := runConfig("AAPL", "MSFT", "NVDA")
	build := func() *Engine {
		return testEngine(t, sampleProvider("AAPL", "MSFT", "NVDA"),
			fixedProducer{"alpha", types.DirectionBullish, 0.9},
			fixedProducer{"beta", types.DirectionBullish, 0.7})
	}

	first, err := build().Run(context.Background(), cfg)
	require.NoError(t, err)
	second, err := build().Run(context.Background(), cfg)
	require.NoError(t, err)

	require.Equal(t, len(first.Records), len(second.Records))
	for i := range first.Records {
		assert.Equal(t, first.Records[i], second.Records[i])
	}
	require.Equal(t, len(first.Decisions), len(second.Decisions))
	for i := range first.Decisions {
		assert.Equal(t, first.Decisions[i].Ticker, second.Decisions[i].Ticker)
		assert.Equal(t, first.Decisions[i].Decision, second.Decisions[i].Decision)
	}
	assert.Equal(t, first.Summary, second.Summary)
}

func TestRunMissingTickerIsExcludedNotFatal(t *testing.T) {
	// GHOST has no data at all; AAPL trades normally around it.
	engine := testEngine(t, sampleProvider("AAPL"),
		fixedProducer{"alpha", types.DirectionBullish, 0.9},
		fixedProducer{"beta", types.DirectionBullish, 0.9})

	results, err := engine.Run(context.Background(), runConfig("AAPL", "GHOST"))
	require.NoError(t, err)

	require.NotEmpty(t, results.Records)
	for _, r := range results.Records {
		assert.Contains(t, r.Exclusions["GHOST"], "data gap")
	}
	for _, d := range results.Decisions {
		if d.Ticker == "GHOST" {
			assert.Equal(t, types.ActionHold, d.Decision.Action)
		}
	}
	assert.Greater(t, results.Summary.Buys, 0)
}

func TestRunStaleTickerHoldsOnGapDays(t *testing.T) {
	aapl := data.GenerateSampleSeries(testStart, 120, 100, 1)
	msft := data.GenerateSampleSeries(testStart, 120, 250, 2)
	// Carve a two-week hole out of MSFT only.
	holeStart := aapl[60].Timestamp
	holeEnd := aapl[70].Timestamp
	trimmed := make([]types.Candle, 0, len(msft))
	for _, c := range msft {
		if !c.Timestamp.Before(holeStart) && !c.Timestamp.After(holeEnd) {
			continue
		}
		trimmed = append(trimmed, c)
	}
	provider := data.NewStaticProvider(map[string][]types.Candle{"AAPL": aapl, "MSFT": trimmed})

	engine := testEngine(t, provider, fixedProducer{"alpha", types.DirectionNeutral, 0.5})
	results, err := engine.Run(context.Background(), runConfig("AAPL", "MSFT"))
	require.NoError(t, err)

	gapDays := 0
	for _, r := range results.Records {
		if reason, ok := r.Exclusions["MSFT"]; ok {
			gapDays++
			assert.Contains(t, reason, "no price on")
		}
	}
	assert.Equal(t, 11, gapDays)
	// Every trading day still produced a record: AAPL kept the day alive.
	assert.Equal(t, 120, len(results.Records))
}

func TestRunDelistedTickerReadsAsMissingPrice(t *testing.T) {
	aapl := data.GenerateSampleSeries(testStart, 120, 100, 1)
	msft := data.GenerateSampleSeries(testStart, 120, 250, 2)
	// MSFT stops trading after session 60 but keeps a deep history, so the
	// exclusion must classify as a missing price, never as thin history.
	cutoff := msft[60].Timestamp
	provider := data.NewStaticProvider(map[string][]types.Candle{
		"AAPL": aapl,
		"MSFT": msft[:61],
	})

	engine := testEngine(t, provider, fixedProducer{"alpha", types.DirectionNeutral, 0.5})
	results, err := engine.Run(context.Background(), runConfig("AAPL", "MSFT"))
	require.NoError(t, err)

	for _, r := range results.Records {
		if !r.Date.After(cutoff) {
			continue
		}
		reason := r.Exclusions["MSFT"]
		assert.Contains(t, reason, "no price on")
		assert.NotContains(t, reason, "insufficient history")
	}
	for _, d := range results.Decisions {
		if d.Ticker == "MSFT" && d.Date.After(cutoff) {
			assert.Equal(t, types.ActionHold, d.Decision.Action)
		}
	}
}

func TestRunCancelledContextStopsBetweenDays(t *testing.T) {
	engine := testEngine(t, sampleProvider("AAPL"),
		fixedProducer{"alpha", types.DirectionNeutral, 0.5})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := engine.Run(ctx, runConfig("AAPL"))
	require.NoError(t, err)
	assert.Empty(t, results.Records)
	assert.InDelta(t, 100_000, results.Final.Cash, 1e-9)
}

func TestRunValidatesConfig(t *testing.T) {
	engine := testEngine(t, sampleProvider("AAPL"),
		fixedProducer{"alpha", types.DirectionNeutral, 0.5})

	cases := []struct {
		name string
		mod  func(*Config)
	}{
		{"no tickers", func(c *Config) { c.Tickers = nil }},
		{"inverted range", func(c *Config) { c.Start, c.End = c.End, c.Start }},
		{"negative cash", func(c *Config) { c.StartingCash = -1 }},
		{"duplicate ticker", func(c *Config) { c.Tickers = []string{"AAPL", "AAPL"} }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := runConfig("AAPL")
			tc.mod(&cfg)
			_, err := engine.Run(context.Background(), cfg)
			assert.Error(t, err)
		})
	}
}

func TestRunCashNeverNegative(t *testing.T) {
	engine := testEngine(t, sampleProvider("AAPL", "MSFT", "NVDA"),
		fixedProducer{"alpha", types.DirectionBullish, 1.0},
		fixedProducer{"beta", types.DirectionBullish, 1.0})

	results, err := engine.Run(context.Background(), runConfig("AAPL", "MSFT", "NVDA"))
	require.NoError(t, err)

	for _, r := range results.Records {
		assert.GreaterOrEqual(t, r.Cash, 0.0, "cash went negative on %s", r.Date)
	}
}

// countingRecorder tallies events with plain ints, relying on the Recorder
// contract that the engine never calls it from concurrent goroutines.
type countingRecorder struct {
	decisions  int
	signals    int
	exclusions int
	lastValue  float64
}

func (r *countingRecorder) RecordDecision(types.TradeAction)    { r.decisions++ }
func (r *countingRecorder) RecordSignal(types.Direction)        { r.signals++ }
func (r *countingRecorder) RecordExclusion(string)              { r.exclusions++ }
func (r *countingRecorder) ObservePortfolioValue(value float64) { r.lastValue = value }

func TestRunRecorderCalledSequentially(t *testing.T) {
	recorder := &countingRecorder{}
	assessor, err := risk.NewAssessor(22, risk.DefaultTierFractions)
	require.NoError(t, err)
	engine := NewEngine(sampleProvider("AAPL", "MSFT", "NVDA"),
		agents.NewRegistry(
			fixedProducer{"alpha", types.DirectionBullish, 0.9},
			fixedProducer{"beta", types.DirectionBearish, 0.4}),
		assessor, portfolio.NewDecider(nil, 0.5, false),
		WithRecorder(recorder))

	results, err := engine.Run(context.Background(), runConfig("AAPL", "MSFT", "NVDA"))
	require.NoError(t, err)

	// The unsynchronized counters line up with the decision log exactly,
	// which only holds when every recorder call happens on the run loop
	// after the per-day fan-out has joined.
	wantSignals := 0
	wantExclusions := 0
	for _, d := range results.Decisions {
		wantSignals += len(d.Signals)
		if d.Excluded != "" {
			wantExclusions++
		}
	}
	assert.Equal(t, len(results.Decisions), recorder.decisions)
	assert.Equal(t, wantSignals, recorder.signals)
	assert.Equal(t, wantExclusions, recorder.exclusions)
	last := results.Records[len(results.Records)-1]
	assert.InDelta(t, last.PortfolioValue, recorder.lastValue, 1e-9)
}

func TestSortDecisionsByDate(t *testing.T) {
	d1 := testStart
	d2 := testStart.AddDate(0, 0, 1)
	log := []DayDecision{
		{Date: d2, Ticker: "MSFT"},
		{Date: d1, Ticker: "MSFT"},
		{Date: d2, Ticker: "AAPL"},
		{Date: d1, Ticker: "AAPL"},
	}

	sorted := SortDecisionsByDate(log)

	assert.Equal(t, "AAPL", sorted[0].Ticker)
	assert.Equal(t, d1, sorted[0].Date)
	assert.Equal(t, "MSFT", sorted[1].Ticker)
	assert.Equal(t, d2, sorted[3].Date)
	// Input untouched.
	assert.Equal(t, d2, log[0].Date)
}
