package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/jwkjng/ai-hedge-fund-opt/internal/agents"
	"github.com/jwkjng/ai-hedge-fund-opt/internal/backtest"
	"github.com/jwkjng/ai-hedge-fund-opt/internal/portfolio"
	"github.com/jwkjng/ai-hedge-fund-opt/internal/risk"
	"github.com/jwkjng/ai-hedge-fund-opt/pkg/data"
	"github.com/jwkjng/ai-hedge-fund-opt/pkg/reporting"
	"github.com/jwkjng/ai-hedge-fund-opt/pkg/types"
)

// demo runs the whole pipeline on synthetic price data, no CSV files
// needed. Useful for a first look at the engine and for profiling.
func main() {
	days := flag.Int("days", 252, "Synthetic sessions per ticker")
	cash := flag.Float64("cash", 100_000, "Starting cash")
	seed := flag.Int64("seed", 42, "Random walk seed")
	shorting := flag.Bool("shorting", false, "Allow short selling")
	flag.Parse()

	fmt.Println("🧪 Synthetic data demo")

	start := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	series := map[string][]types.Candle{
		"ALPHA": data.GenerateSampleSeries(start, *days, 100, *seed),
		"BETA":  data.GenerateSampleSeries(start, *days, 40, *seed+1),
		"GAMMA": data.GenerateSampleSeries(start, *days, 250, *seed+2),
	}
	provider := data.NewStaticProvider(series)

	// Fundamentals and news have no synthetic source here, so only the
	// price-driven producers run.
	registry := agents.NewRegistry(
		agents.NewMomentumProducer(provider),
	)

	assessor, err := risk.NewAssessor(risk.DefaultMinHistory, risk.DefaultTierFractions)
	if err != nil {
		log.Fatalf("❌ Risk configuration error: %v", err)
	}
	// Single producer: a lower threshold lets its conviction act alone.
	decider := portfolio.NewDecider(nil, 0.3, *shorting)
	engine := backtest.NewEngine(provider, registry, assessor, decider)

	end := series["ALPHA"][len(series["ALPHA"])-1].Timestamp
	results, err := engine.Run(context.Background(), backtest.Config{
		Tickers:       []string{"ALPHA", "BETA", "GAMMA"},
		Start:         start,
		End:           end,
		StartingCash:  *cash,
		HistoryWindow: 252,
	})
	if err != nil {
		log.Fatalf("❌ Backtest failed: %v", err)
	}

	console := reporting.NewConsoleReporter()
	console.PrintSummary(results)
	console.PrintDecisionLog(results)
	console.PrintFinalPositions(results)
}
