package reporting

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/jwkjng/ai-hedge-fund-opt/internal/backtest"
)

// Reporter writes a finished run to some destination.
type Reporter interface {
	Write(results *backtest.Results) (string, error)
}

// OutputPaths builds timestamped file names under a results directory.
type OutputPaths struct {
	Dir   string
	RunID string
}

func NewOutputPaths(dir string) OutputPaths {
	return OutputPaths{
		Dir:   dir,
		RunID: time.Now().Format("20060102_150405"),
	}
}

func (p OutputPaths) ensure() error {
	if err := os.MkdirAll(p.Dir, 0o755); err != nil {
		return fmt.Errorf("creating results directory: %w", err)
	}
	return nil
}

func (p OutputPaths) file(suffix, ext string) string {
	return filepath.Join(p.Dir, fmt.Sprintf("backtest_%s_%s.%s", p.RunID, suffix, ext))
}

func sortedTickers[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
