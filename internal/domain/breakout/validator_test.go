package breakout

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/altpilot/altpilot/internal/models"
)

const prh = 50.0

func window(closesAndVols ...[2]float64) []models.OHLCVBar {
	bars := make([]models.OHLCVBar, len(closesAndVols))
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	for i, cv := range closesAndVols {
		c, v := cv[0], cv[1]
		bars[i] = models.OHLCVBar{
			Timestamp: base.Add(time.Duration(i) * 15 * time.Minute),
			Open:      c, High: c + 0.2, Low: c - 0.2, Close: c, Volume: v,
		}
	}
	return bars
}

func newTestValidator() *Validator {
	return NewValidator(1.6, 3, 20, 2)
}

func TestEvaluate_TwoCloseConfirmation(t *testing.T) {
	v := newTestValidator()
	bars := window(
		[2]float64{48, 100}, [2]float64{49, 100}, [2]float64{48.5, 100},
		[2]float64{49.5, 100},
		[2]float64{50.05, 180}, // first close above PRH -> pending
		[2]float64{50.08, 190}, // second consecutive close, surge 1.9/1.0
	)

	ev, err := v.Evaluate(bars, prh)
	require.NoError(t, err)
	assert.True(t, ev.Confirmed)
	assert.Equal(t, MethodTwoClose, ev.Method)
	assert.Equal(t, StateConfirmed, ev.State)
	assert.GreaterOrEqual(t, ev.VolumeSurgeRatio, 1.6)
}

func TestEvaluate_CleanRetestThroughThreshold(t *testing.T) {
	v := newTestValidator()
	// single close 30 bps through PRH with surge; no second close needed
	bars := window(
		[2]float64{48, 100}, [2]float64{49, 100}, [2]float64{48.5, 100},
		[2]float64{49.5, 100},
		[2]float64{50.15, 200},
	)

	ev, err := v.Evaluate(bars, prh)
	require.NoError(t, err)
	assert.True(t, ev.Confirmed)
	assert.Equal(t, MethodRetest, ev.Method)
}

// Scenario: close only 5 bps above PRH on a single bar with surge 1.3.
// Neither confirmation path is satisfied.
func TestEvaluate_WeakPokeStaysPending(t *testing.T) {
	v := newTestValidator()
	bars := window(
		[2]float64{48, 100}, [2]float64{49, 100}, [2]float64{48.5, 100},
		[2]float64{49.5, 100},
		[2]float64{50.025, 130}, // 5 bps through, surge 1.3
	)

	ev, err := v.Evaluate(bars, prh)
	require.NoError(t, err)
	assert.False(t, ev.Confirmed)
	assert.Equal(t, MethodNone, ev.Method)
	assert.Equal(t, StatePending, ev.State)
}

func TestEvaluate_FalseBreakoutReverts(t *testing.T) {
	v := newTestValidator()
	bars := window(
		[2]float64{48, 100}, [2]float64{49, 100}, [2]float64{48.5, 100},
		[2]float64{50.05, 300}, // pokes above with surge but single close
		[2]float64{49.2, 100},  // falls back below before confirmation
		[2]float64{49.0, 100},
	)

	ev, err := v.Evaluate(bars, prh)
	require.NoError(t, err)
	assert.False(t, ev.Confirmed)
	assert.Equal(t, StateNoBreakout, ev.State)
}

func TestEvaluate_SurgeBelowThresholdBlocksTwoClose(t *testing.T) {
	v := newTestValidator()
	bars := window(
		[2]float64{48, 100}, [2]float64{49, 100}, [2]float64{48.5, 100},
		[2]float64{50.05, 110},
		[2]float64{50.08, 120}, // two closes above, but no volume surge
	)

	ev, err := v.Evaluate(bars, prh)
	require.NoError(t, err)
	assert.False(t, ev.Confirmed)
	assert.Equal(t, StatePending, ev.State)
}

func TestEvaluate_SurgeUsesTrailingMedian(t *testing.T) {
	v := newTestValidator()
	// trailing window {100, 1000, 100}: the outlier spike must not drag
	// the baseline up the way a mean would
	bars := window(
		[2]float64{48, 100}, [2]float64{49, 100}, [2]float64{48.5, 1000},
		[2]float64{50.05, 100},
		[2]float64{50.08, 180},
	)

	ev, err := v.Evaluate(bars, prh)
	require.NoError(t, err)
	assert.True(t, ev.Confirmed, "median baseline of 100 keeps the 1.8 surge valid")
}

func TestEvaluate_InsufficientWindow(t *testing.T) {
	v := newTestValidator()
	_, err := v.Evaluate(window([2]float64{48, 100}, [2]float64{49, 100}), prh)
	require.Error(t, err)
	assert.True(t, models.IsInsufficientHistory(err))
}
