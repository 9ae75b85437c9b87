package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/jwkjng/ai-hedge-fund-opt/internal/agents"
	"github.com/jwkjng/ai-hedge-fund-opt/internal/backtest"
	"github.com/jwkjng/ai-hedge-fund-opt/internal/logger"
	"github.com/jwkjng/ai-hedge-fund-opt/internal/monitoring"
	"github.com/jwkjng/ai-hedge-fund-opt/internal/portfolio"
	"github.com/jwkjng/ai-hedge-fund-opt/internal/risk"
	"github.com/jwkjng/ai-hedge-fund-opt/pkg/config"
	"github.com/jwkjng/ai-hedge-fund-opt/pkg/data"
	"github.com/jwkjng/ai-hedge-fund-opt/pkg/reporting"
)

const (
	AppName    = "Hedge Backtest"
	AppVersion = "1.2.0"
)

func main() {
	flags := NewRunFlags()
	flag.Parse()

	if err := ValidateRunFlags(flags); err != nil {
		log.Fatalf("❌ Flag validation error: %v", err)
	}

	if *flags.ShowVersion {
		fmt.Printf("%s v%s\n", AppName, AppVersion)
		return
	}
	if *flags.ShowHelp {
		printUsageHelp()
		return
	}

	printHeader()
	loadEnvironment(*flags.EnvFile)

	cfg, err := loadConfiguration(flags)
	if err != nil {
		log.Fatalf("❌ Configuration error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var health *monitoring.HealthChecker
	if *flags.MetricsAddr != "" {
		health = monitoring.NewHealthChecker()
		go serveMetrics(*flags.MetricsAddr, health)
	}

	results, err := runBacktest(ctx, cfg, flags, health)
	if err != nil {
		log.Fatalf("❌ Backtest failed: %v", err)
	}

	console := reporting.NewConsoleReporter()
	console.PrintSummary(results)
	console.PrintDecisionLog(results)
	console.PrintFinalPositions(results)

	if !*flags.ConsoleOnly {
		writeFileReports(results, flags)
	}
}

func printHeader() {
	fmt.Println(strings.Repeat("=", 50))
	fmt.Printf("🚀 %s v%s\n", AppName, AppVersion)
	fmt.Println(strings.Repeat("=", 50))
}

func loadEnvironment(envFile string) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			log.Fatalf("❌ Failed to load env file %s: %v", envFile, err)
		}
		return
	}
	// Optional default .env; absence is fine
	_ = godotenv.Load()
}

// loadConfiguration merges the JSON config file (or defaults) with any
// flag overrides, then validates the result.
func loadConfiguration(flags *RunFlags) (config.RunConfig, error) {
	cfg := config.Default()
	if *flags.ConfigFile != "" {
		loaded, err := config.Load(*flags.ConfigFile)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}

	if *flags.Tickers != "" {
		cfg.Tickers = splitTickers(*flags.Tickers)
	}
	if *flags.StartDate != "" {
		cfg.StartDate = *flags.StartDate
	}
	if *flags.EndDate != "" {
		cfg.EndDate = *flags.EndDate
	}
	if *flags.StartingCash > 0 {
		cfg.StartingCash = *flags.StartingCash
	}
	if *flags.Threshold > 0 {
		cfg.Threshold = *flags.Threshold
	}
	if *flags.AllowShorting {
		cfg.AllowShorting = true
	}
	if *flags.MinHistory > 0 {
		cfg.MinHistory = *flags.MinHistory
	}
	if *flags.HistoryWindow > 0 {
		cfg.HistoryWindow = *flags.HistoryWindow
	}
	if *flags.DataRoot != "" {
		cfg.DataRoot = *flags.DataRoot
	}
	if *flags.Weights != "" {
		weights, err := parseWeights(*flags.Weights)
		if err != nil {
			return cfg, err
		}
		cfg.Weights = weights
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// healthRecorder forwards engine events to the metrics registry and mirrors
// the portfolio value onto the health endpoint.
type healthRecorder struct {
	monitoring.PrometheusRecorder
	health *monitoring.HealthChecker
}

func (r healthRecorder) ObservePortfolioValue(value float64) {
	r.PrometheusRecorder.ObservePortfolioValue(value)
	r.health.ObserveValue(value)
}

func runBacktest(ctx context.Context, cfg config.RunConfig, flags *RunFlags, health *monitoring.HealthChecker) (*backtest.Results, error) {
	store := data.NewCSVStore(cfg.DataRoot)

	registry := agents.NewRegistry(
		agents.NewFundamentalsProducer(store),
		agents.NewMomentumProducer(store),
		agents.NewValuationProducer(store, store),
		agents.NewSentimentProducer(store),
	)

	assessor, err := risk.NewAssessor(cfg.MinHistory, risk.TierFractions{
		Low:    cfg.TierFractions.Low,
		Medium: cfg.TierFractions.Medium,
		High:   cfg.TierFractions.High,
	})
	if err != nil {
		return nil, err
	}

	decider := portfolio.NewDecider(cfg.Weights, cfg.Threshold, cfg.AllowShorting)

	opts := []backtest.Option{}
	if health != nil {
		opts = append(opts, backtest.WithRecorder(healthRecorder{health: health}))
	}
	var runLog *logger.RunLogger
	if *flags.LogDir != "" {
		runLog, err = logger.NewRunLogger(*flags.LogDir, cfg.Tickers, cfg.Start(), cfg.End())
		if err != nil {
			return nil, err
		}
		defer runLog.Close()
		opts = append(opts, backtest.WithAuditLog(runLog))
	}

	engine := backtest.NewEngine(store, registry, assessor, decider, opts...)

	fmt.Printf("📂 Data root: %s\n", cfg.DataRoot)
	fmt.Printf("🎯 Tickers: %s | %s .. %s | threshold %.2f\n",
		strings.Join(cfg.Tickers, ","), cfg.StartDate, cfg.EndDate, cfg.Threshold)

	if health != nil {
		health.MarkRunning()
	}
	results, err := engine.Run(ctx, backtest.Config{
		Tickers:       cfg.Tickers,
		Start:         cfg.Start(),
		End:           cfg.End(),
		StartingCash:  cfg.StartingCash,
		HistoryWindow: cfg.HistoryWindow,
	})
	if health != nil {
		health.MarkFinished(err)
	}
	if err != nil {
		return nil, err
	}
	if runLog != nil {
		runLog.LogSummary(results.Summary)
	}
	return results, nil
}

func writeFileReports(results *backtest.Results, flags *RunFlags) {
	paths := reporting.NewOutputPaths(*flags.ResultsDir)

	reporters := []reporting.Reporter{
		reporting.NewCSVReporter(paths),
		reporting.NewJSONReporter(paths),
	}
	if !*flags.NoExcel {
		reporters = append(reporters, reporting.NewExcelReporter(paths))
	}
	for _, r := range reporters {
		path, err := r.Write(results)
		if err != nil {
			log.Printf("⚠️  Report write failed: %v", err)
			continue
		}
		fmt.Printf("💾 Wrote %s\n", path)
	}
}

func serveMetrics(addr string, health *monitoring.HealthChecker) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", monitoring.Handler())
	mux.Handle("/healthz", health)
	fmt.Printf("📡 Serving %s/metrics and %s/healthz\n", addr, addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Printf("⚠️  Metrics server stopped: %v", err)
	}
}

func splitTickers(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToUpper(strings.TrimSpace(p))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseWeights(s string) (map[string]float64, error) {
	weights := make(map[string]float64)
	for _, pair := range strings.Split(s, ",") {
		parts := strings.SplitN(strings.TrimSpace(pair), ":", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("malformed weight %q (want source:weight)", pair)
		}
		w, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return nil, fmt.Errorf("parsing weight for %s: %w", parts[0], err)
		}
		weights[parts[0]] = w
	}
	return weights, nil
}
