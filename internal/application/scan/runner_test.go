package scan

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/altpilot/altpilot/internal/application"
	"github.com/altpilot/altpilot/internal/models"
)

// universe builds n confirmed-breakout symbols with distinct surge volumes
// so scores differ across symbols.
func universe(n int) []SeriesSet {
	sets := make([]SeriesSet, n)
	for i := range sets {
		symbol := fmt.Sprintf("SYM%02d-USDT", i)
		sets[i] = breakoutSet(symbol, true, 180+20*float64(i))
	}
	return sets
}

func TestRun_OutcomeIndependentOfScheduling(t *testing.T) {
	cfg := application.DefaultConfig()
	sets := universe(8)
	baseline := baselineSeries()

	cfg.Scan.Workers = 4
	first := NewRunner(cfg).Run(context.Background(), sets, baseline, nil)
	second := NewRunner(cfg).Run(context.Background(), sets, baseline, nil)

	serial := application.DefaultConfig()
	serial.Scan.Workers = 1
	third := NewRunner(serial).Run(context.Background(), sets, baseline, nil)

	require.Equal(t, first, second)
	require.Equal(t, first, third)
}

func TestRun_RankedBySurgeStrength(t *testing.T) {
	cfg := application.DefaultConfig()
	out := NewRunner(cfg).Run(context.Background(), universe(4), baselineSeries(), nil)

	require.Len(t, out.Signals, 4)
	// higher surge volume earns a bigger breakout bonus
	assert.Equal(t, "SYM03-USDT", out.Signals[0].Symbol)
	assert.Equal(t, "SYM00-USDT", out.Signals[3].Symbol)
	for i := 1; i < len(out.Signals); i++ {
		assert.GreaterOrEqual(t, out.Signals[i-1].Score.Total, out.Signals[i].Score.Total)
	}
}

func TestRun_FailingSymbolDoesNotAbortRun(t *testing.T) {
	cfg := application.DefaultConfig()
	sets := universe(3)
	sets[1].Daily.Bars = sets[1].Daily.Bars[:30]

	out := NewRunner(cfg).Run(context.Background(), sets, baselineSeries(), nil)

	assert.Equal(t, 2, out.Diagnostics.Scanned)
	assert.Equal(t, 1, out.Diagnostics.Failures["insufficient_history"])
	assert.Len(t, out.Signals, 2)
}

func TestRun_FetchFailuresLandInDiagnostics(t *testing.T) {
	cfg := application.DefaultConfig()
	fetchErrs := []error{
		&models.UpstreamDataError{Symbol: "DOWN-USDT", Timeframe: "1h", Reason: "exchange timeout"},
	}

	out := NewRunner(cfg).Run(context.Background(), universe(2), baselineSeries(), fetchErrs)

	assert.Equal(t, 3, out.Diagnostics.SymbolsTotal)
	assert.Equal(t, 2, out.Diagnostics.Scanned)
	assert.Equal(t, 1, out.Diagnostics.Failures["upstream_data"])
}

func TestRun_EmptyUniverse(t *testing.T) {
	cfg := application.DefaultConfig()
	out := NewRunner(cfg).Run(context.Background(), nil, baselineSeries(), nil)

	assert.Zero(t, out.Diagnostics.Scanned)
	assert.Empty(t, out.Signals)
	assert.Empty(t, out.Watch)
}
