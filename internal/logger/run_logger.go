package logger

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/jwkjng/ai-hedge-fund-opt/internal/backtest"
	"github.com/jwkjng/ai-hedge-fund-opt/pkg/types"
)

// RunLogger writes the day-by-day audit trail of a backtest run to a file
// under logs/. It satisfies the engine's AuditLog interface.
type RunLogger struct {
	runID   string
	logFile *os.File
	logger  *log.Logger
	mu      sync.Mutex
}

// NewRunLogger creates <dir>/run_<timestamp>.log and writes a session header.
func NewRunLogger(dir string, tickers []string, start, end time.Time) (*RunLogger, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	runID := fmt.Sprintf("run_%s", time.Now().Format("20060102_150405"))
	filename := fmt.Sprintf("%s.log", runID)
	file, err := os.OpenFile(filepath.Join(dir, filename), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	l := &RunLogger{
		runID:   runID,
		logFile: file,
		logger:  log.New(file, "", 0),
	}
	l.logger.Print(strings.Repeat("=", 80))
	l.logger.Printf("BACKTEST RUN %s", runID)
	l.logger.Printf("Tickers: %s | Range: %s .. %s", strings.Join(tickers, ","),
		start.Format("2006-01-02"), end.Format("2006-01-02"))
	l.logger.Printf("Started: %s", time.Now().Format(time.RFC3339))
	l.logger.Print(strings.Repeat("=", 80))
	return l, nil
}

// LogDecision records one ticker's resolved decision for a day.
func (l *RunLogger) LogDecision(date time.Time, d backtest.DayDecision) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if d.Excluded != "" {
		l.logger.Printf("[%s] %-6s EXCLUDED  %s", date.Format("2006-01-02"), d.Ticker, d.Excluded)
		return
	}
	stop := 0.0
	if d.Risk != nil {
		stop = d.Risk.StopLossPct
	}
	l.logger.Printf("[%s] %-6s %-5s qty=%-6d price=%.2f net=%+.2f votes=%d/%d/%d stop=%.1f%% | %s",
		date.Format("2006-01-02"), d.Ticker, d.Decision.Action, d.Decision.Quantity, d.Price,
		d.Decision.NetScore, d.Decision.Bullish, d.Decision.Neutral, d.Decision.Bearish,
		stop*100, d.Decision.Rationale)
}

// LogDay records the marked portfolio value after a completed day.
func (l *RunLogger) LogDay(date time.Time, value, cash float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.logger.Printf("[%s] DAY CLOSE value=$%.2f cash=$%.2f", date.Format("2006-01-02"), value, cash)
}

// LogSummary appends the run summary at completion.
func (l *RunLogger) LogSummary(s backtest.Summary) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.logger.Print(strings.Repeat("-", 80))
	l.logger.Printf("FINISHED days=%d trades=%d return=%.2f%% maxDD=%.2f%% sharpe(ann)=%.2f realizedPnL=$%.2f",
		s.TradingDays, s.TotalTrades, s.CumulativeReturn*100, s.MaxDrawdown*100,
		s.AnnualizedSharpe, s.RealizedPnL)
}

// Close flushes and closes the underlying file.
func (l *RunLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.logger.Printf("Closed: %s", time.Now().Format(time.RFC3339))
	return l.logFile.Close()
}

// Interface guard: RunLogger must satisfy the engine's audit contract.
var _ backtest.AuditLog = (*RunLogger)(nil)

// describePositions renders a position map compactly for log lines.
func describePositions(positions map[string]int64) string {
	if len(positions) == 0 {
		return "flat"
	}
	parts := make([]string, 0, len(positions))
	for ticker, qty := range positions {
		parts = append(parts, fmt.Sprintf("%s:%d", ticker, qty))
	}
	return strings.Join(parts, " ")
}

// LogRecord writes one performance record, used when replaying finished
// results into the audit log.
func (l *RunLogger) LogRecord(r types.PerformanceRecord) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.logger.Printf("[%s] RECORD value=$%.2f cash=$%.2f ret=%+.4f%% positions=%s",
		r.Date.Format("2006-01-02"), r.PortfolioValue, r.Cash, r.DailyReturn*100,
		describePositions(r.Positions))
}
