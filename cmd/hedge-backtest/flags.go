package main

import (
	"flag"
	"fmt"
	"strings"
)

// RunFlags holds all command line flags for the backtest command
type RunFlags struct {
	// Configuration
	ConfigFile *string
	EnvFile    *string
	DataRoot   *string

	// Run window
	Tickers   *string
	StartDate *string
	EndDate   *string

	// Account settings
	StartingCash *float64

	// Decision parameters
	Threshold     *float64
	AllowShorting *bool
	Weights       *string // comma-separated source:weight pairs

	// Risk parameters
	MinHistory    *int
	HistoryWindow *int

	// Output options
	ResultsDir  *string
	ConsoleOnly *bool
	NoExcel     *bool
	MetricsAddr *string
	LogDir      *string

	ShowVersion *bool
	ShowHelp    *bool
}

func NewRunFlags() *RunFlags {
	return &RunFlags{
		ConfigFile: flag.String("config", "", "JSON run configuration file"),
		EnvFile:    flag.String("env", "", "Path to .env file (optional)"),
		DataRoot:   flag.String("data-root", "", "Root directory of CSV market data"),

		Tickers:   flag.String("tickers", "", "Comma-separated tickers (e.g. AAPL,MSFT,NVDA)"),
		StartDate: flag.String("start", "", "Backtest start date (YYYY-MM-DD)"),
		EndDate:   flag.String("end", "", "Backtest end date (YYYY-MM-DD)"),

		StartingCash: flag.Float64("cash", 0, "Starting cash (overrides config)"),

		Threshold:     flag.Float64("threshold", 0, "Net score threshold for acting (overrides config)"),
		AllowShorting: flag.Bool("shorting", false, "Allow short selling"),
		Weights:       flag.String("weights", "", "Source weights, e.g. fundamentals:1.5,momentum:1.0"),

		MinHistory:    flag.Int("min-history", 0, "Minimum sessions required for risk assessment"),
		HistoryWindow: flag.Int("window", 0, "Price history window in sessions"),

		ResultsDir:  flag.String("results", "results", "Directory for report files"),
		ConsoleOnly: flag.Bool("console-only", false, "Skip file reports, console output only"),
		NoExcel:     flag.Bool("no-excel", false, "Skip the XLSX report"),
		MetricsAddr: flag.String("metrics-addr", "", "Expose Prometheus metrics on this address (e.g. :9090)"),
		LogDir:      flag.String("log-dir", "logs", "Directory for run audit logs"),

		ShowVersion: flag.Bool("version", false, "Show version and exit"),
		ShowHelp:    flag.Bool("h", false, "Show help"),
	}
}

// ValidateRunFlags catches contradictory flag combinations before any
// work starts.
func ValidateRunFlags(flags *RunFlags) error {
	if *flags.StartingCash < 0 {
		return fmt.Errorf("cash must be non-negative, got %.2f", *flags.StartingCash)
	}
	if *flags.Threshold < 0 || *flags.Threshold > 1 {
		return fmt.Errorf("threshold must be in [0,1], got %.2f", *flags.Threshold)
	}
	if *flags.MinHistory < 0 {
		return fmt.Errorf("min-history must be non-negative, got %d", *flags.MinHistory)
	}
	if *flags.Weights != "" {
		for _, pair := range strings.Split(*flags.Weights, ",") {
			if !strings.Contains(pair, ":") {
				return fmt.Errorf("malformed weight %q (want source:weight)", pair)
			}
		}
	}
	return nil
}

func printUsageHelp() {
	fmt.Println("Usage: hedge-backtest [options]")
	fmt.Println()
	fmt.Println("Runs a multi-signal backtest over CSV market data.")
	fmt.Println()
	fmt.Println("Common invocations:")
	fmt.Println("  hedge-backtest -config configs/run.json")
	fmt.Println("  hedge-backtest -tickers AAPL,MSFT -start 2023-01-02 -end 2023-12-29 -data-root data")
	fmt.Println("  hedge-backtest -config configs/run.json -shorting -threshold 0.4")
	fmt.Println()
	flag.PrintDefaults()
}
