package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	enginerrors "github.com/jwkjng/ai-hedge-fund-opt/internal/errors"
)

const dateLayout = "2006-01-02"

// RunConfig is the externally loaded configuration for one backtest run.
// Validation failures are fatal at startup, before any simulation state
// exists.
type RunConfig struct {
	Tickers      []string `json:"tickers"`
	StartDate    string   `json:"start_date"`
	EndDate      string   `json:"end_date"`
	StartingCash float64  `json:"starting_cash"`

	// Decision aggregation
	Weights   map[string]float64 `json:"weights,omitempty"` // per-source; missing = 1.0
	Threshold float64            `json:"threshold"`          // symmetric decision threshold on net score

	AllowShorting bool `json:"allow_shorting"`

	// Risk bounds
	TierFractions TierFractionsConfig `json:"tier_fractions"`
	MinHistory    int                 `json:"min_history"`    // closes required before a risk bound exists
	HistoryWindow int                 `json:"history_window"` // trailing sessions fetched per day

	DataRoot string `json:"data_root"`
}

// TierFractionsConfig caps position size as a fraction of portfolio value
// per risk tier. Must strictly decrease with tier.
type TierFractionsConfig struct {
	Low    float64 `json:"low"`
	Medium float64 `json:"medium"`
	High   float64 `json:"high"`
}

// Default returns the baseline configuration before file/flag overrides.
func Default() RunConfig {
	return RunConfig{
		StartingCash:  100_000,
		Threshold:     0.5,
		TierFractions: TierFractionsConfig{Low: 0.25, Medium: 0.15, High: 0.10},
		MinHistory:    22,
		HistoryWindow: 252,
		DataRoot:      "data",
	}
}

// Load reads a JSON config file over the defaults.
func Load(path string) (RunConfig, error) {
	cfg := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

// Start parses the configured start date. Call Validate first.
func (c RunConfig) Start() time.Time {
	t, _ := time.Parse(dateLayout, c.StartDate)
	return t.UTC()
}

// End parses the configured end date. Call Validate first.
func (c RunConfig) End() time.Time {
	t, _ := time.Parse(dateLayout, c.EndDate)
	return t.UTC()
}

// Validate enforces the fatal-at-startup configuration invariants.
func (c RunConfig) Validate() error {
	if len(c.Tickers) == 0 {
		return enginerrors.NewConfigError("config", "empty ticker set")
	}
	seen := make(map[string]bool, len(c.Tickers))
	for _, t := range c.Tickers {
		if t == "" {
			return enginerrors.NewConfigError("config", "blank ticker")
		}
		if seen[t] {
			return enginerrors.NewConfigError("config", fmt.Sprintf("duplicate ticker %s", t))
		}
		seen[t] = true
	}

	start, err := time.Parse(dateLayout, c.StartDate)
	if err != nil {
		return enginerrors.NewConfigError("config", fmt.Sprintf("bad start_date %q (want YYYY-MM-DD)", c.StartDate))
	}
	end, err := time.Parse(dateLayout, c.EndDate)
	if err != nil {
		return enginerrors.NewConfigError("config", fmt.Sprintf("bad end_date %q (want YYYY-MM-DD)", c.EndDate))
	}
	if end.Before(start) {
		return enginerrors.NewConfigError("config", fmt.Sprintf("start_date %s after end_date %s", c.StartDate, c.EndDate))
	}

	if c.StartingCash < 0 {
		return enginerrors.NewConfigError("config", fmt.Sprintf("negative starting cash %.2f", c.StartingCash))
	}
	if c.Threshold <= 0 || c.Threshold >= 1 {
		return enginerrors.NewConfigError("config", fmt.Sprintf("threshold %.2f outside (0, 1)", c.Threshold))
	}
	for source, w := range c.Weights {
		if w < 0 {
			return enginerrors.NewConfigError("config", fmt.Sprintf("negative weight %.2f for source %s", w, source))
		}
	}

	f := c.TierFractions
	for _, v := range []float64{f.Low, f.Medium, f.High} {
		if v <= 0 || v > 1 {
			return enginerrors.NewConfigError("config", fmt.Sprintf("tier fraction %.4f outside (0, 1]", v))
		}
	}
	if !(f.Low > f.Medium && f.Medium > f.High) {
		return enginerrors.NewConfigError("config", "tier fractions must strictly decrease low > medium > high")
	}

	if c.MinHistory < 2 {
		return enginerrors.NewConfigError("config", fmt.Sprintf("min_history %d below 2", c.MinHistory))
	}
	if c.HistoryWindow < c.MinHistory {
		return enginerrors.NewConfigError("config", fmt.Sprintf("history_window %d below min_history %d", c.HistoryWindow, c.MinHistory))
	}
	return nil
}
