package reporting

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"github.com/jwkjng/ai-hedge-fund-opt/internal/backtest"
)

// JSONReporter serializes the summary and the full config for
// machine consumption.
type JSONReporter struct {
	Paths OutputPaths
}

func NewJSONReporter(paths OutputPaths) *JSONReporter {
	return &JSONReporter{Paths: paths}
}

type jsonReport struct {
	Config   backtest.Config `json:"config"`
	Summary  jsonSummary     `json:"summary"`
	Final    finalState      `json:"final"`
	Warnings []string        `json:"warnings,omitempty"`
}

// jsonSummary shadows the ratio fields with pointers so non-finite values
// (an all-positive return series makes Sortino +Inf) encode as null instead
// of failing the whole report; encoding/json rejects Inf and NaN outright.
type jsonSummary struct {
	backtest.Summary
	SharpeRatio      *float64 `json:"SharpeRatio"`
	AnnualizedSharpe *float64 `json:"AnnualizedSharpe"`
	SortinoRatio     *float64 `json:"SortinoRatio"`
}

func newJSONSummary(s backtest.Summary) jsonSummary {
	return jsonSummary{
		Summary:          s,
		SharpeRatio:      finiteOrNil(s.SharpeRatio),
		AnnualizedSharpe: finiteOrNil(s.AnnualizedSharpe),
		SortinoRatio:     finiteOrNil(s.SortinoRatio),
	}
}

func finiteOrNil(v float64) *float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return nil
	}
	return &v
}

type finalState struct {
	Cash      float64          `json:"cash"`
	Positions map[string]int64 `json:"positions"`
}

func (r *JSONReporter) Write(results *backtest.Results) (string, error) {
	if err := r.Paths.ensure(); err != nil {
		return "", err
	}
	path := r.Paths.file("summary", "json")

	report := jsonReport{
		Config:  results.Config,
		Summary: newJSONSummary(results.Summary),
		Final: finalState{
			Cash:      results.Final.Cash,
			Positions: results.Final.Positions,
		},
	}
	for _, rec := range results.Records {
		for _, t := range sortedTickers(rec.Exclusions) {
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("%s %s: %s", rec.Date.Format("2006-01-02"), t, rec.Exclusions[t]))
		}
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling summary: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing summary json: %w", err)
	}
	return path, nil
}
