package backtest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwkjng/ai-hedge-fund-opt/pkg/types"
)

func TestRunAllExecutesEveryConfig(t *testing.T) {
	engine := testEngine(t, sampleProvider("AAPL", "MSFT"),
		fixedProducer{"alpha", types.DirectionBullish, 0.9},
		fixedProducer{"beta", types.DirectionBullish, 0.9})

	configs := []Config{
		runConfig("AAPL"),
		runConfig("MSFT"),
		runConfig("AAPL", "MSFT"),
	}

	results := RunAll(engine, configs, 2)

	require.Len(t, results, 3)
	seen := make(map[string]bool)
	for _, r := range results {
		require.NoError(t, r.Err)
		require.NotNil(t, r.Results)
		assert.NotEmpty(t, r.ID)
		assert.Equal(t, 120, len(r.Results.Records))
		seen[r.ID] = true
	}
	assert.Len(t, seen, 3, "job IDs must be unique")
}

func TestRunAllSurfacesConfigErrors(t *testing.T) {
	engine := testEngine(t, sampleProvider("AAPL"),
		fixedProducer{"alpha", types.DirectionNeutral, 0.5})

	bad := runConfig("AAPL")
	bad.StartingCash = -1

	results := RunAll(engine, []Config{bad}, 1)

	require.Len(t, results, 1)
	assert.Error(t, results[0].Err)
	assert.Nil(t, results[0].Results)
}

func TestPoolSubmitAfterManualStartStop(t *testing.T) {
	engine := testEngine(t, sampleProvider("AAPL"),
		fixedProducer{"alpha", types.DirectionNeutral, 0.5})

	pool := NewPool(2, 4)
	pool.Start()

	require.NoError(t, pool.Submit(Job{ID: "run-1", Config: runConfig("AAPL"), Engine: engine}))
	require.NoError(t, pool.Submit(Job{Config: runConfig("AAPL"), Engine: engine}))

	first := <-pool.Results()
	second := <-pool.Results()
	pool.Stop()

	ids := map[string]bool{first.ID: true, second.ID: true}
	assert.True(t, ids["run-1"])
	assert.NoError(t, first.Err)
	assert.NoError(t, second.Err)
	assert.Positive(t, first.Duration)
}
