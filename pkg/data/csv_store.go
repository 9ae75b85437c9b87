package data

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	enginerrors "github.com/jwkjng/ai-hedge-fund-opt/internal/errors"
	"github.com/jwkjng/ai-hedge-fund-opt/pkg/types"
)

// CSVStore serves prices, fundamentals and news from a directory tree:
//
//	<root>/prices/<TICKER>.csv        date,open,high,low,close,volume
//	<root>/fundamentals/<TICKER>.csv  report_date,net_margin,revenue_growth,pe_ratio,current_ratio,earnings_yield
//	<root>/news/<TICKER>.csv          date,title,source
//
// Price files are loaded lazily and kept in memory; all lookups after load
// are pure slices of the cached series.
type CSVStore struct {
	root   string
	format CSVColumnMapping

	prices       map[string][]types.Candle
	fundamentals map[string][]types.FinancialMetrics
	news         map[string][]types.NewsItem
}

// NewCSVStore creates a store rooted at dir using the default CSV format.
func NewCSVStore(dir string) *CSVStore {
	return &CSVStore{
		root:         dir,
		format:       DefaultCSVFormat,
		prices:       make(map[string][]types.Candle),
		fundamentals: make(map[string][]types.FinancialMetrics),
		news:         make(map[string][]types.NewsItem),
	}
}

// History implements PriceProvider. The returned slice shares backing storage
// with the cached series; callers must not mutate it.
func (s *CSVStore) History(ticker string, end time.Time, window int) ([]types.Candle, error) {
	series, err := s.loadPrices(ticker)
	if err != nil {
		return nil, err
	}
	trimmed := Window(TruncateAt(series, end), window)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%s: %w", ticker, enginerrors.ErrDataGap)
	}
	return trimmed, nil
}

// TradingDays implements PriceProvider.
func (s *CSVStore) TradingDays(tickers []string, start, end time.Time) ([]time.Time, error) {
	seen := make(map[time.Time]bool)
	for _, ticker := range tickers {
		series, err := s.loadPrices(ticker)
		if err != nil {
			// A ticker with no data file contributes no trading days.
			continue
		}
		for _, c := range FilterByDateRange(series, start, end) {
			seen[Day(c.Timestamp)] = true
		}
	}
	days := make([]time.Time, 0, len(seen))
	for d := range seen {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return days, nil
}

// MetricsAsOf implements FundamentalsSource: the latest report dated at or
// before asOf.
func (s *CSVStore) MetricsAsOf(ticker string, asOf time.Time) (types.FinancialMetrics, error) {
	reports, err := s.loadFundamentals(ticker)
	if err != nil {
		return types.FinancialMetrics{}, err
	}
	cutoff := endOfDay(asOf)
	for i := len(reports) - 1; i >= 0; i-- {
		if !reports[i].ReportDate.After(cutoff) {
			return reports[i], nil
		}
	}
	return types.FinancialMetrics{}, fmt.Errorf("%s: no fundamentals at or before %s: %w",
		ticker, asOf.Format("2006-01-02"), enginerrors.ErrDataGap)
}

// News implements NewsSource.
func (s *CSVStore) News(ticker string, start, end time.Time) ([]types.NewsItem, error) {
	items, err := s.loadNews(ticker)
	if err != nil {
		return nil, err
	}
	cutoff := endOfDay(end)
	out := make([]types.NewsItem, 0)
	for _, n := range items {
		if n.Date.Before(start) || n.Date.After(cutoff) {
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

func (s *CSVStore) loadPrices(ticker string) ([]types.Candle, error) {
	if series, ok := s.prices[ticker]; ok {
		return series, nil
	}
	path := filepath.Join(s.root, "prices", ticker+".csv")
	rows, err := readCSV(path)
	if err != nil {
		return nil, err
	}

	series := make([]types.Candle, 0, len(rows))
	for i, rec := range rows {
		if len(rec) < s.format.MinColumns {
			return nil, fmt.Errorf("%s line %d: expected %d columns, got %d", path, i+2, s.format.MinColumns, len(rec))
		}
		ts, err := time.Parse(s.format.DateFormat, rec[s.format.DateCol])
		if err != nil {
			return nil, fmt.Errorf("%s line %d: bad date %q: %w", path, i+2, rec[s.format.DateCol], err)
		}
		open, err1 := strconv.ParseFloat(rec[s.format.OpenCol], 64)
		high, err2 := strconv.ParseFloat(rec[s.format.HighCol], 64)
		low, err3 := strconv.ParseFloat(rec[s.format.LowCol], 64)
		clos, err4 := strconv.ParseFloat(rec[s.format.CloseCol], 64)
		volume, err5 := strconv.ParseFloat(rec[s.format.VolumeCol], 64)
		for _, e := range []error{err1, err2, err3, err4, err5} {
			if e != nil {
				return nil, fmt.Errorf("%s line %d: bad number: %w", path, i+2, e)
			}
		}
		series = append(series, types.Candle{
			Timestamp: ts.UTC(),
			Open:      open,
			High:      high,
			Low:       low,
			Close:     clos,
			Volume:    volume,
		})
	}
	if err := ValidateSeries(series); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	s.prices[ticker] = series
	return series, nil
}

func (s *CSVStore) loadFundamentals(ticker string) ([]types.FinancialMetrics, error) {
	if reports, ok := s.fundamentals[ticker]; ok {
		return reports, nil
	}
	path := filepath.Join(s.root, "fundamentals", ticker+".csv")
	rows, err := readCSV(path)
	if err != nil {
		return nil, err
	}

	reports := make([]types.FinancialMetrics, 0, len(rows))
	for i, rec := range rows {
		if len(rec) < 6 {
			return nil, fmt.Errorf("%s line %d: expected 6 columns, got %d", path, i+2, len(rec))
		}
		date, err := time.Parse("2006-01-02", rec[0])
		if err != nil {
			return nil, fmt.Errorf("%s line %d: bad report date %q: %w", path, i+2, rec[0], err)
		}
		vals := make([]float64, 5)
		for j := 0; j < 5; j++ {
			// Empty cells mean "not reported".
			if strings.TrimSpace(rec[j+1]) == "" {
				continue
			}
			v, err := strconv.ParseFloat(rec[j+1], 64)
			if err != nil {
				return nil, fmt.Errorf("%s line %d: bad number: %w", path, i+2, err)
			}
			vals[j] = v
		}
		reports = append(reports, types.FinancialMetrics{
			Ticker:        ticker,
			ReportDate:    date.UTC(),
			NetMargin:     vals[0],
			RevenueGrowth: vals[1],
			PERatio:       vals[2],
			CurrentRatio:  vals[3],
			EarningsYield: vals[4],
		})
	}
	sort.Slice(reports, func(i, j int) bool { return reports[i].ReportDate.Before(reports[j].ReportDate) })
	s.fundamentals[ticker] = reports
	return reports, nil
}

func (s *CSVStore) loadNews(ticker string) ([]types.NewsItem, error) {
	if items, ok := s.news[ticker]; ok {
		return items, nil
	}
	path := filepath.Join(s.root, "news", ticker+".csv")
	rows, err := readCSV(path)
	if err != nil {
		if os.IsNotExist(err) {
			// News is optional; absence means no articles, not a data gap.
			s.news[ticker] = nil
			return nil, nil
		}
		return nil, err
	}

	items := make([]types.NewsItem, 0, len(rows))
	for i, rec := range rows {
		if len(rec) < 3 {
			return nil, fmt.Errorf("%s line %d: expected 3 columns, got %d", path, i+2, len(rec))
		}
		date, err := time.Parse("2006-01-02", rec[0])
		if err != nil {
			return nil, fmt.Errorf("%s line %d: bad date %q: %w", path, i+2, rec[0], err)
		}
		items = append(items, types.NewsItem{
			Ticker: ticker,
			Date:   date.UTC(),
			Title:  rec[1],
			Source: rec[2],
		})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Date.Before(items[j].Date) })
	s.news[ticker] = items
	return items, nil
}

func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	if _, err := reader.Read(); err != nil { // header
		return nil, fmt.Errorf("%s: reading header: %w", path, err)
	}

	var rows [][]string
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		rows = append(rows, rec)
	}
	return rows, nil
}
