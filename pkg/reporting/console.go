package reporting

import (
	"fmt"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/jwkjng/ai-hedge-fund-opt/internal/backtest"
	"github.com/jwkjng/ai-hedge-fund-opt/pkg/types"
)

// ConsoleReporter renders run output to stdout.
type ConsoleReporter struct {
	// MaxDecisionRows limits the decision-log table; 0 keeps trades only.
	MaxDecisionRows int
}

func NewConsoleReporter() *ConsoleReporter {
	return &ConsoleReporter{}
}

// PrintSummary renders the headline statistics of a finished run.
func (r *ConsoleReporter) PrintSummary(results *backtest.Results) {
	s := results.Summary

	fmt.Println("\n" + strings.Repeat("=", 50))
	fmt.Println("📊 BACKTEST RESULTS")
	fmt.Println(strings.Repeat("=", 50))
	fmt.Printf("💰 Starting Value:   $%.2f\n", s.StartingValue)
	fmt.Printf("💰 Final Value:      $%.2f\n", s.FinalValue)
	fmt.Printf("📈 Cumulative Return: %.2f%%\n", s.CumulativeReturn*100)
	fmt.Printf("📉 Max Drawdown:      %.2f%%\n", s.MaxDrawdown*100)
	fmt.Printf("📊 Sharpe Ratio:      %.2f (Ann: %.2f)\n", s.SharpeRatio, s.AnnualizedSharpe)
	fmt.Printf("📊 Sortino Ratio:     %.2f\n", s.SortinoRatio)
	fmt.Printf("💵 Realized PnL:      $%.2f\n", s.RealizedPnL)
	fmt.Printf("🗓  Trading Days:      %d\n", s.TradingDays)
	fmt.Printf("🔄 Trades:            %d (buy %d / sell %d / short %d / cover %d)\n",
		s.TotalTrades, s.Buys, s.Sells, s.Shorts, s.Covers)
	if s.Exclusions > 0 {
		fmt.Printf("⚠️  Exclusions:        %d ticker-days forced to hold\n", s.Exclusions)
	}
}

// PrintDecisionLog renders the per-day per-ticker decisions as a table.
// By default holds are filtered out to keep the table readable.
func (r *ConsoleReporter) PrintDecisionLog(results *backtest.Results) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("TRADE DECISIONS")
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Date", "Ticker", "Action", "Qty", "Price", "Net", "Votes B/N/S", "Rationale"})

	rows := 0
	for _, d := range backtest.SortDecisionsByDate(results.Decisions) {
		if d.Decision.Action == types.ActionHold && r.MaxDecisionRows == 0 {
			continue
		}
		if r.MaxDecisionRows > 0 && rows >= r.MaxDecisionRows {
			break
		}
		t.AppendRow(table.Row{
			d.Date.Format("2006-01-02"),
			d.Ticker,
			d.Decision.Action.String(),
			d.Decision.Quantity,
			fmt.Sprintf("%.2f", d.Price),
			fmt.Sprintf("%+.2f", d.Decision.NetScore),
			fmt.Sprintf("%d/%d/%d", d.Decision.Bullish, d.Decision.Neutral, d.Decision.Bearish),
			truncate(d.Decision.Rationale, 48),
		})
		rows++
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
	})
	if rows == 0 {
		fmt.Println("\n(no trades; every decision resolved to hold)")
		return
	}
	t.Render()
}

// PrintFinalPositions renders the terminal portfolio snapshot.
func (r *ConsoleReporter) PrintFinalPositions(results *backtest.Results) {
	if len(results.Final.Positions) == 0 {
		fmt.Printf("\n💼 Final portfolio: flat, $%.2f cash\n", results.Final.Cash)
		return
	}
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("FINAL POSITIONS")
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Ticker", "Shares", "Cost Basis"})
	for _, ticker := range sortedTickers(results.Final.Positions) {
		t.AppendRow(table.Row{
			ticker,
			results.Final.Positions[ticker],
			fmt.Sprintf("%.2f", results.Final.CostBasis[ticker]),
		})
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
	})
	t.Render()
	fmt.Printf("💼 Cash: $%.2f\n", results.Final.Cash)
}

// PrintSignals renders one day's producer signals, used by the one-shot
// analyze command.
func (r *ConsoleReporter) PrintSignals(ticker string, signals []types.Signal, decision types.TradeDecision) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle(fmt.Sprintf("SIGNALS: %s", ticker))
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Source", "Direction", "Confidence", "Rationale"})
	for _, s := range signals {
		t.AppendRow(table.Row{s.SourceID, s.Direction.String(), fmt.Sprintf("%.2f", s.Confidence), truncate(s.Rationale, 60)})
	}
	t.Render()
	fmt.Printf("➡️  Decision: %s qty=%d (net %+.2f): %s\n",
		decision.Action, decision.Quantity, decision.NetScore, decision.Rationale)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
