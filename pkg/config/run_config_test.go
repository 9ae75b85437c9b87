package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	enginerrors "github.com/jwkjng/ai-hedge-fund-opt/internal/errors"
)

func validConfig() RunConfig {
	cfg := Default()
	cfg.Tickers = []string{"AAPL", "MSFT"}
	cfg.StartDate = "2023-01-02"
	cfg.EndDate = "2023-12-29"
	return cfg
}

func TestValidateAcceptsDefaults(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidateRejectsBadConfigs(t *testing.T) {
	cases := []struct {
		name string
		mod  func(*RunConfig)
	}{
		{"empty ticker set", func(c *RunConfig) { c.Tickers = nil }},
		{"blank ticker", func(c *RunConfig) { c.Tickers = []string{"AAPL", ""} }},
		{"duplicate ticker", func(c *RunConfig) { c.Tickers = []string{"AAPL", "AAPL"} }},
		{"bad start date", func(c *RunConfig) { c.StartDate = "02/01/2023" }},
		{"bad end date", func(c *RunConfig) { c.EndDate = "tomorrow" }},
		{"inverted range", func(c *RunConfig) { c.StartDate, c.EndDate = c.EndDate, c.StartDate }},
		{"negative cash", func(c *RunConfig) { c.StartingCash = -100 }},
		{"zero threshold", func(c *RunConfig) { c.Threshold = 0 }},
		{"threshold at one", func(c *RunConfig) { c.Threshold = 1 }},
		{"negative weight", func(c *RunConfig) { c.Weights = map[string]float64{"momentum": -1} }},
		{"tier fraction above one", func(c *RunConfig) { c.TierFractions.Low = 1.5 }},
		{"non-decreasing tiers", func(c *RunConfig) { c.TierFractions = TierFractionsConfig{Low: 0.1, Medium: 0.2, High: 0.3} }},
		{"min history too small", func(c *RunConfig) { c.MinHistory = 1 }},
		{"window below min history", func(c *RunConfig) { c.HistoryWindow = 10 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mod(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, enginerrors.ErrInvalidConfig)
		})
	}
}

func TestLoadMergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"tickers": ["AAPL"],
		"start_date": "2023-01-02",
		"end_date": "2023-06-30",
		"threshold": 0.4,
		"weights": {"fundamentals": 1.5}
	}`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"AAPL"}, cfg.Tickers)
	assert.InDelta(t, 0.4, cfg.Threshold, 1e-9)
	assert.InDelta(t, 1.5, cfg.Weights["fundamentals"], 1e-9)
	// Untouched fields keep defaults.
	assert.InDelta(t, 100_000, cfg.StartingCash, 1e-9)
	assert.Equal(t, 22, cfg.MinHistory)
	assert.Equal(t, "data", cfg.DataRoot)
	assert.NoError(t, cfg.Validate())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}

func TestLoadMalformedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestStartEndParseValidatedDates(t *testing.T) {
	cfg := validConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC), cfg.Start())
	assert.Equal(t, time.Date(2023, 12, 29, 0, 0, 0, 0, time.UTC), cfg.End())
}
