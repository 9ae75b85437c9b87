package backtest

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jwkjng/ai-hedge-fund-opt/internal/agents"
	enginerrors "github.com/jwkjng/ai-hedge-fund-opt/internal/errors"
	"github.com/jwkjng/ai-hedge-fund-opt/internal/portfolio"
	"github.com/jwkjng/ai-hedge-fund-opt/internal/risk"
	"github.com/jwkjng/ai-hedge-fund-opt/pkg/data"
	"github.com/jwkjng/ai-hedge-fund-opt/pkg/types"
)

// Config drives one backtest run.
type Config struct {
	Tickers       []string
	Start         time.Time
	End           time.Time
	StartingCash  float64
	HistoryWindow int // trailing sessions fetched per day; <=0 selects 252
}

// DayDecision is one entry of the per-day per-ticker decision log.
type DayDecision struct {
	Date     time.Time
	Ticker   string
	Price    float64
	Decision types.TradeDecision
	Risk     *types.RiskAssessment
	Signals  []types.Signal
	Excluded string // non-empty when the ticker was forced to hold
}

// Results is the terminal output of a finished run: the append-only
// performance series, the full decision log, and summary statistics
// computed once at completion.
type Results struct {
	Config    Config
	Records   []types.PerformanceRecord
	Decisions []DayDecision
	Final     types.PortfolioSnapshot
	Summary   Summary
}

// Recorder receives engine events for operational metrics. Implementations
// must be safe for sequential use; the engine never calls it concurrently.
type Recorder interface {
	RecordDecision(action types.TradeAction)
	RecordSignal(direction types.Direction)
	RecordExclusion(reason string)
	ObservePortfolioValue(value float64)
}

// NopRecorder discards all events.
type NopRecorder struct{}

func (NopRecorder) RecordDecision(types.TradeAction) {}
func (NopRecorder) RecordSignal(types.Direction)     {}
func (NopRecorder) RecordExclusion(string)           {}
func (NopRecorder) ObservePortfolioValue(float64)    {}

// AuditLog receives a line-oriented trail of the run. Satisfied by
// logger.RunLogger.
type AuditLog interface {
	LogDay(date time.Time, value, cash float64)
	LogDecision(date time.Time, d DayDecision)
}

// Engine replays the decision pipeline day by day over a date range.
// It is re-entrant: a single Engine value may run many configs in parallel
// via Run, because every run owns its state locally.
type Engine struct {
	provider data.PriceProvider
	registry *agents.Registry
	assessor *risk.Assessor
	decider  *portfolio.Decider
	recorder Recorder
	audit    AuditLog
}

// Option configures optional engine collaborators.
type Option func(*Engine)

// WithRecorder attaches an operational metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(e *Engine) { e.recorder = r }
}

// WithAuditLog attaches a run audit log.
func WithAuditLog(a AuditLog) Option {
	return func(e *Engine) { e.audit = a }
}

func NewEngine(provider data.PriceProvider, registry *agents.Registry, assessor *risk.Assessor, decider *portfolio.Decider, opts ...Option) *Engine {
	e := &Engine{
		provider: provider,
		registry: registry,
		assessor: assessor,
		decider:  decider,
		recorder: NopRecorder{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// tickerDay is the fan-out result for one ticker on one day: risk bound,
// producer signals, and the day's close (or the exclusion reason).
type tickerDay struct {
	ticker   string
	close    float64
	hasPrice bool
	risk     *types.RiskAssessment
	signals  []types.Signal
	excluded string
}

// Run executes the simulation. Days run strictly sequentially; within a
// day, per-ticker assessment fans out concurrently and joins before any
// decision is made. Cancellation is honored only between day transitions,
// leaving the records up to the last completed day valid.
func (e *Engine) Run(ctx context.Context, cfg Config) (*Results, error) {
	if err := validate(cfg); err != nil {
		return nil, err
	}
	window := cfg.HistoryWindow
	if window <= 0 {
		window = 252
	}

	days, err := e.provider.TradingDays(cfg.Tickers, cfg.Start, cfg.End)
	if err != nil {
		return nil, enginerrors.Wrap(err, enginerrors.CategoryData, "engine", "trading-days")
	}

	state := portfolio.NewState(cfg.StartingCash)
	results := &Results{Config: cfg}
	prevValue := cfg.StartingCash

	for _, day := range days {
		if err := ctx.Err(); err != nil {
			break // abort between day transitions; completed records stand
		}

		assessed := e.assessDay(ctx, cfg.Tickers, day, window, state.Snapshot())

		closes := make(map[string]float64, len(assessed))
		tradable := 0
		for _, td := range assessed {
			if td.hasPrice {
				closes[td.ticker] = td.close
				tradable++
			}
		}
		if tradable == 0 {
			// A gap across every ticker skips the day: no record, the
			// date sequence simply advances.
			continue
		}

		exclusions := make(map[string]string)
		for _, td := range assessed {
			// Signals were gathered in the fan-out; the recorder only sees
			// them here, after the join, so it keeps its sequential contract.
			for _, signal := range td.signals {
				e.recorder.RecordSignal(signal.Direction)
			}
			e.decideAndCommit(state, day, td, results)
			if td.excluded != "" {
				exclusions[td.ticker] = td.excluded
				e.recorder.RecordExclusion(td.excluded)
			}
		}

		value := state.Value(closes)
		record := types.PerformanceRecord{
			Date:           day,
			PortfolioValue: value,
			Cash:           state.Cash(),
			Positions:      state.Snapshot().Positions,
			DailyReturn:    dailyReturn(prevValue, value),
		}
		if len(exclusions) > 0 {
			record.Exclusions = exclusions
		}
		results.Records = append(results.Records, record)
		prevValue = value

		e.recorder.ObservePortfolioValue(value)
		if e.audit != nil {
			e.audit.LogDay(day, value, state.Cash())
		}
	}

	results.Final = state.Snapshot()
	results.Summary = summarize(cfg.StartingCash, state.RealizedPnL(), results.Records, results.Decisions)
	return results, nil
}

// assessDay fans the per-ticker work (history fetch, risk assessment,
// every producer) out across goroutines and joins before returning. The
// result order matches cfg ticker order so downstream commits are
// deterministic.
func (e *Engine) assessDay(ctx context.Context, tickers []string, day time.Time, window int, snapshot types.PortfolioSnapshot) []tickerDay {
	out := make([]tickerDay, len(tickers))
	var wg sync.WaitGroup
	for i, ticker := range tickers {
		wg.Add(1)
		go func(i int, ticker string) {
			defer wg.Done()
			out[i] = e.assessTicker(ctx, ticker, day, window, snapshot)
		}(i, ticker)
	}
	wg.Wait()
	return out
}

func (e *Engine) assessTicker(ctx context.Context, ticker string, day time.Time, window int, snapshot types.PortfolioSnapshot) tickerDay {
	td := tickerDay{ticker: ticker}

	history, err := e.provider.History(ticker, day, window)
	if err != nil {
		td.excluded = fmt.Sprintf("data gap: %v", err)
		return td
	}
	last := history[len(history)-1]
	if !data.SameDay(last.Timestamp, day) {
		// The freshest observation predates the simulated day, so the
		// ticker cannot trade today. Stale-history tickers are excluded,
		// not priced at yesterday's close. Freshness is checked before
		// history depth, so a series that is long enough but ends early
		// reports as a missing price, not as insufficient history.
		td.excluded = fmt.Sprintf("no price on %s (latest %s)",
			day.Format("2006-01-02"), last.Timestamp.Format("2006-01-02"))
		return td
	}
	td.hasPrice = true
	td.close = last.Close

	// Portfolio value for the risk bound marks holdings at the freshest
	// visible close for this ticker and cost basis elsewhere.
	portfolioValue := snapshotValue(snapshot, ticker, last.Close)
	assessment, err := e.assessor.Assess(ticker, history, portfolioValue)
	if err != nil {
		if errors.Is(err, enginerrors.ErrInsufficientHistory) {
			td.excluded = fmt.Sprintf("insufficient history: %v", err)
			return td
		}
		td.excluded = fmt.Sprintf("risk assessment failed: %v", err)
		return td
	}
	td.risk = &assessment

	for _, producer := range e.registry.Producers() {
		signal, err := producer.Produce(ctx, ticker, day, snapshot)
		if err != nil {
			// Producer errors degrade to a neutral zero-confidence
			// signal; they never halt the run.
			signal = types.Signal{
				SourceID:   producer.ID(),
				Ticker:     ticker,
				Direction:  types.DirectionNeutral,
				Confidence: 0,
				Rationale:  fmt.Sprintf("producer error: %v", err),
			}
		}
		td.signals = append(td.signals, signal)
	}
	return td
}

// decideAndCommit resolves and applies one ticker's decision against the
// live portfolio state. Tickers are processed in configured order, so a
// later ticker sees cash already debited by earlier ones; the final
// affordability clamp recomputes the largest affordable quantity rather
// than dropping the trade.
func (e *Engine) decideAndCommit(state *portfolio.State, day time.Time, td tickerDay, results *Results) types.TradeDecision {
	var decision types.TradeDecision
	if td.excluded != "" || !td.hasPrice {
		decision = types.TradeDecision{Ticker: td.ticker, Action: types.ActionHold, Rationale: td.excluded}
	} else {
		decision = e.decider.Decide(td.ticker, td.signals, td.risk, state.Snapshot(), td.close)
		if affordable := state.MaxAffordableQty(decision.Action, td.close); decision.Quantity > affordable {
			decision.Quantity = affordable
			decision.Rationale += fmt.Sprintf(" (clamped to %d affordable shares)", affordable)
			if decision.Quantity == 0 {
				decision.Action = types.ActionHold
			}
		}
		if err := state.Apply(decision, td.close); err != nil {
			// Only reachable through an engine defect; fail loudly so
			// tests catch it instead of corrupting the run.
			panic(fmt.Sprintf("applying %s %s on %s: %v", decision.Action, td.ticker, day.Format("2006-01-02"), err))
		}
	}

	entry := DayDecision{
		Date:     day,
		Ticker:   td.ticker,
		Price:    td.close,
		Decision: decision,
		Risk:     td.risk,
		Signals:  td.signals,
		Excluded: td.excluded,
	}
	results.Decisions = append(results.Decisions, entry)
	e.recorder.RecordDecision(decision.Action)
	if e.audit != nil {
		e.audit.LogDecision(day, entry)
	}
	return decision
}

func snapshotValue(snapshot types.PortfolioSnapshot, ticker string, close float64) float64 {
	value := snapshot.Cash
	for t, qty := range snapshot.Positions {
		price := snapshot.CostBasis[t]
		if t == ticker {
			price = close
		}
		value += float64(qty) * price
	}
	return value
}

func dailyReturn(prev, current float64) float64 {
	if prev == 0 {
		return 0
	}
	return (current - prev) / prev
}

func validate(cfg Config) error {
	if len(cfg.Tickers) == 0 {
		return enginerrors.NewConfigError("engine", "empty ticker set")
	}
	if cfg.End.Before(cfg.Start) {
		return enginerrors.NewConfigError("engine",
			fmt.Sprintf("start date %s after end date %s",
				cfg.Start.Format("2006-01-02"), cfg.End.Format("2006-01-02")))
	}
	if cfg.StartingCash < 0 {
		return enginerrors.NewConfigError("engine", fmt.Sprintf("negative starting cash %.2f", cfg.StartingCash))
	}
	seen := make(map[string]bool, len(cfg.Tickers))
	for _, t := range cfg.Tickers {
		if seen[t] {
			return enginerrors.NewConfigError("engine", fmt.Sprintf("duplicate ticker %s", t))
		}
		seen[t] = true
	}
	return nil
}

// SortDecisionsByDate orders a decision log copy by (date, ticker) for
// deterministic rendering regardless of map iteration in callers.
func SortDecisionsByDate(decisions []DayDecision) []DayDecision {
	out := make([]DayDecision, len(decisions))
	copy(out, decisions)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].Ticker < out[j].Ticker
	})
	return out
}
