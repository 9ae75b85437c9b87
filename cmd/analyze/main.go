package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/jwkjng/ai-hedge-fund-opt/internal/agents"
	"github.com/jwkjng/ai-hedge-fund-opt/internal/portfolio"
	"github.com/jwkjng/ai-hedge-fund-opt/internal/risk"
	"github.com/jwkjng/ai-hedge-fund-opt/pkg/data"
	"github.com/jwkjng/ai-hedge-fund-opt/pkg/reporting"
	"github.com/jwkjng/ai-hedge-fund-opt/pkg/types"
)

// analyze runs the signal producers for one date and prints what the
// portfolio manager would do, without committing anything.
func main() {
	tickers := flag.String("tickers", "", "Comma-separated tickers")
	date := flag.String("date", "", "Analysis date (YYYY-MM-DD), default: today")
	dataRoot := flag.String("data-root", "data", "Root directory of CSV market data")
	cash := flag.Float64("cash", 100_000, "Hypothetical cash balance")
	threshold := flag.Float64("threshold", portfolio.DefaultThreshold, "Net score threshold")
	window := flag.Int("window", 252, "Price history window in sessions")
	shorting := flag.Bool("shorting", false, "Allow short selling")
	flag.Parse()

	_ = godotenv.Load()

	if *tickers == "" {
		log.Fatal("❌ -tickers is required")
	}
	asOf := time.Now()
	if *date != "" {
		parsed, err := time.Parse("2006-01-02", *date)
		if err != nil {
			log.Fatalf("❌ Invalid date %q: %v", *date, err)
		}
		asOf = parsed
	}

	store := data.NewCSVStore(*dataRoot)
	registry := agents.NewRegistry(
		agents.NewFundamentalsProducer(store),
		agents.NewMomentumProducer(store),
		agents.NewValuationProducer(store, store),
		agents.NewSentimentProducer(store),
	)
	assessor, err := risk.NewAssessor(risk.DefaultMinHistory, risk.DefaultTierFractions)
	if err != nil {
		log.Fatalf("❌ Risk configuration error: %v", err)
	}
	decider := portfolio.NewDecider(nil, *threshold, *shorting)
	console := reporting.NewConsoleReporter()

	snapshot := types.PortfolioSnapshot{Cash: *cash, Positions: map[string]int64{}}
	ctx := context.Background()

	fmt.Printf("🔍 Analyzing as of %s\n", asOf.Format("2006-01-02"))
	for _, raw := range strings.Split(*tickers, ",") {
		ticker := strings.ToUpper(strings.TrimSpace(raw))
		if ticker == "" {
			continue
		}
		analyzeTicker(ctx, ticker, asOf, *window, store, registry, assessor, decider, snapshot, console)
	}
}

func analyzeTicker(
	ctx context.Context,
	ticker string,
	asOf time.Time,
	window int,
	store *data.CSVStore,
	registry *agents.Registry,
	assessor *risk.Assessor,
	decider *portfolio.Decider,
	snapshot types.PortfolioSnapshot,
	console *reporting.ConsoleReporter,
) {
	history, err := store.History(ticker, asOf, window)
	if err != nil || len(history) == 0 {
		fmt.Printf("⚠️  %s: no price data as of %s\n", ticker, asOf.Format("2006-01-02"))
		return
	}
	latest := history[len(history)-1]

	assessment, err := assessor.Assess(ticker, history, snapshot.Cash)
	var riskPtr *types.RiskAssessment
	if err != nil {
		fmt.Printf("⚠️  %s: risk assessment unavailable: %v\n", ticker, err)
	} else {
		riskPtr = &assessment
		fmt.Printf("🛡  %s risk: vol %.1f%% | tier %s | max position $%.0f\n",
			ticker, assessment.Volatility*100, assessment.Tier, assessment.MaxPositionValue)
	}

	signals := make([]types.Signal, 0, registry.Len())
	for _, producer := range registry.Producers() {
		signal, err := producer.Produce(ctx, ticker, asOf, snapshot)
		if err != nil {
			fmt.Printf("⚠️  %s/%s: %v\n", ticker, producer.ID(), err)
			continue
		}
		signals = append(signals, signal)
	}

	decision := decider.Decide(ticker, signals, riskPtr, snapshot, latest.Close)
	console.PrintSignals(ticker, signals, decision)
}
