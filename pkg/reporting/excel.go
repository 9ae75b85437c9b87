package reporting

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/jwkjng/ai-hedge-fund-opt/internal/backtest"
	"github.com/jwkjng/ai-hedge-fund-opt/pkg/types"
)

// ExcelReporter writes a multi-sheet XLSX workbook: summary, the daily
// equity curve, and the decision log.
type ExcelReporter struct {
	Paths OutputPaths
}

func NewExcelReporter(paths OutputPaths) *ExcelReporter {
	return &ExcelReporter{Paths: paths}
}

func (r *ExcelReporter) Write(results *backtest.Results) (string, error) {
	if err := r.Paths.ensure(); err != nil {
		return "", err
	}
	path := r.Paths.file("report", "xlsx")

	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
	})
	if err != nil {
		return "", fmt.Errorf("creating header style: %w", err)
	}

	if err := r.writeSummarySheet(f, results, headerStyle); err != nil {
		return "", err
	}
	if err := r.writePerformanceSheet(f, results, headerStyle); err != nil {
		return "", err
	}
	if err := r.writeDecisionsSheet(f, results, headerStyle); err != nil {
		return "", err
	}
	f.DeleteSheet("Sheet1")

	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("saving workbook: %w", err)
	}
	return path, nil
}

func (r *ExcelReporter) writeSummarySheet(f *excelize.File, results *backtest.Results, headerStyle int) error {
	const sheet = "Summary"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	s := results.Summary
	rows := [][]interface{}{
		{"Metric", "Value"},
		{"Starting Value", s.StartingValue},
		{"Final Value", s.FinalValue},
		{"Cumulative Return", s.CumulativeReturn},
		{"Max Drawdown", s.MaxDrawdown},
		{"Sharpe Ratio", s.SharpeRatio},
		{"Annualized Sharpe", s.AnnualizedSharpe},
		{"Sortino Ratio", s.SortinoRatio},
		{"Realized PnL", s.RealizedPnL},
		{"Trading Days", s.TradingDays},
		{"Total Trades", s.TotalTrades},
		{"Buys", s.Buys},
		{"Sells", s.Sells},
		{"Shorts", s.Shorts},
		{"Covers", s.Covers},
		{"Forced Holds", s.Exclusions},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return f.SetCellStyle(sheet, "A1", "B1", headerStyle)
}

func (r *ExcelReporter) writePerformanceSheet(f *excelize.File, results *backtest.Results, headerStyle int) error {
	const sheet = "Performance"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	header := []interface{}{"Date", "Portfolio Value", "Cash", "Daily Return"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	for i, rec := range results.Records {
		row := []interface{}{
			rec.Date.Format("2006-01-02"),
			rec.PortfolioValue,
			rec.Cash,
			rec.DailyReturn,
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return f.SetCellStyle(sheet, "A1", "D1", headerStyle)
}

func (r *ExcelReporter) writeDecisionsSheet(f *excelize.File, results *backtest.Results, headerStyle int) error {
	const sheet = "Decisions"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	header := []interface{}{"Date", "Ticker", "Action", "Quantity", "Price", "Net Score", "Rationale"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	row := 2
	for _, d := range backtest.SortDecisionsByDate(results.Decisions) {
		if d.Decision.Action == types.ActionHold {
			continue
		}
		values := []interface{}{
			d.Date.Format("2006-01-02"),
			d.Ticker,
			d.Decision.Action.String(),
			d.Decision.Quantity,
			d.Price,
			d.Decision.NetScore,
			d.Decision.Rationale,
		}
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return err
		}
		row++
	}
	return f.SetCellStyle(sheet, "A1", "G1", headerStyle)
}
