package reporting

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/jwkjng/ai-hedge-fund-opt/internal/backtest"
)

// CSVReporter writes the daily performance series and the decision log
// as two CSV files.
type CSVReporter struct {
	Paths OutputPaths
}

func NewCSVReporter(paths OutputPaths) *CSVReporter {
	return &CSVReporter{Paths: paths}
}

func (r *CSVReporter) Write(results *backtest.Results) (string, error) {
	if err := r.Paths.ensure(); err != nil {
		return "", err
	}
	perfPath := r.Paths.file("performance", "csv")
	if err := r.writePerformance(perfPath, results); err != nil {
		return "", err
	}
	decPath := r.Paths.file("decisions", "csv")
	if err := r.writeDecisions(decPath, results); err != nil {
		return "", err
	}
	return perfPath, nil
}

func (r *CSVReporter) writePerformance(path string, results *backtest.Results) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating performance csv: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"date", "portfolio_value", "cash", "daily_return", "positions", "exclusions"}); err != nil {
		return err
	}
	for _, rec := range results.Records {
		positions := make([]string, 0, len(rec.Positions))
		for _, t := range sortedTickers(rec.Positions) {
			positions = append(positions, fmt.Sprintf("%s:%d", t, rec.Positions[t]))
		}
		exclusions := make([]string, 0, len(rec.Exclusions))
		for _, t := range sortedTickers(rec.Exclusions) {
			exclusions = append(exclusions, fmt.Sprintf("%s=%s", t, rec.Exclusions[t]))
		}
		row := []string{
			rec.Date.Format("2006-01-02"),
			strconv.FormatFloat(rec.PortfolioValue, 'f', 2, 64),
			strconv.FormatFloat(rec.Cash, 'f', 2, 64),
			strconv.FormatFloat(rec.DailyReturn, 'f', 6, 64),
			strings.Join(positions, ";"),
			strings.Join(exclusions, ";"),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return w.Error()
}

func (r *CSVReporter) writeDecisions(path string, results *backtest.Results) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating decisions csv: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"date", "ticker", "action", "quantity", "price", "net_score", "bullish", "neutral", "bearish", "rationale"}); err != nil {
		return err
	}
	for _, d := range backtest.SortDecisionsByDate(results.Decisions) {
		row := []string{
			d.Date.Format("2006-01-02"),
			d.Ticker,
			d.Decision.Action.String(),
			strconv.FormatInt(d.Decision.Quantity, 10),
			strconv.FormatFloat(d.Price, 'f', 2, 64),
			strconv.FormatFloat(d.Decision.NetScore, 'f', 4, 64),
			strconv.Itoa(d.Decision.Bullish),
			strconv.Itoa(d.Decision.Neutral),
			strconv.Itoa(d.Decision.Bearish),
			d.Decision.Rationale,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return w.Error()
}
