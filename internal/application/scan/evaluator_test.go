package scan

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/altpilot/altpilot/internal/application"
	"github.com/altpilot/altpilot/internal/domain/breakout"
	"github.com/altpilot/altpilot/internal/domain/regime"
	"github.com/altpilot/altpilot/internal/models"
)

var t0 = time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

// trendingDaily is a steady daily uptrend: EMA20 above EMA50 with a
// positive slope.
func trendingDaily(symbol string) models.TimeframeSeries {
	bars := make([]models.OHLCVBar, 80)
	for i := range bars {
		c := 100 + 0.5*float64(i)
		bars[i] = models.OHLCVBar{
			Timestamp: t0.Add(time.Duration(i) * 24 * time.Hour),
			Open:      c - 0.3, High: c + 1, Low: c - 1, Close: c, Volume: 1000,
		}
	}
	return models.TimeframeSeries{Symbol: symbol, Timeframe: models.TFDaily, Bars: bars}
}

// trendingFourH outruns the baseline, giving positive relative strength.
func trendingFourH(symbol string) models.TimeframeSeries {
	bars := make([]models.OHLCVBar, 80)
	for i := range bars {
		c := 100 + float64(i)
		bars[i] = models.OHLCVBar{
			Timestamp: t0.Add(time.Duration(i) * 4 * time.Hour),
			Open:      c - 0.5, High: c + 1, Low: c - 1, Close: c, Volume: 1000 + 5*float64(i),
		}
	}
	return models.TimeframeSeries{Symbol: symbol, Timeframe: models.TF4H, Bars: bars}
}

// flatOneH pins the prior range high at 101 and yields a constant ATR of 2.
func flatOneH(symbol string) models.TimeframeSeries {
	bars := make([]models.OHLCVBar, 80)
	for i := range bars {
		bars[i] = models.OHLCVBar{
			Timestamp: t0.Add(time.Duration(i) * time.Hour),
			Open:      100, High: 101, Low: 99, Close: 100, Volume: 500,
		}
	}
	return models.TimeframeSeries{Symbol: symbol, Timeframe: models.TF1H, Bars: bars}
}

// breakoutM15 consolidates below the 101 range high, then prints two
// consecutive closes above it with the surge landing on the confirming bar.
// surgeVolume controls the confirming bar's volume against a flat median
// of 100.
func breakoutM15(symbol string, confirm bool, surgeVolume float64) models.TimeframeSeries {
	bars := make([]models.OHLCVBar, 60)
	for i := range bars {
		bars[i] = models.OHLCVBar{
			Timestamp: t0.Add(time.Duration(i) * 15 * time.Minute),
			Open:      95, High: 96, Low: 94, Close: 95, Volume: 100,
		}
	}
	if confirm {
		bars[58] = models.OHLCVBar{
			Timestamp: bars[58].Timestamp,
			Open:      101, High: 102, Low: 100.4, Close: 101.5, Volume: 100,
		}
		bars[59] = models.OHLCVBar{
			Timestamp: bars[59].Timestamp,
			Open:      101.5, High: 102.2, Low: 101, Close: 101.6, Volume: surgeVolume,
		}
	}
	return models.TimeframeSeries{Symbol: symbol, Timeframe: models.TF15M, Bars: bars}
}

func breakoutSet(symbol string, confirm bool, surgeVolume float64) SeriesSet {
	return SeriesSet{
		Symbol: symbol,
		Daily:  trendingDaily(symbol),
		FourH:  trendingFourH(symbol),
		OneH:   flatOneH(symbol),
		M15:    breakoutM15(symbol, confirm, surgeVolume),
	}
}

// baselineCloses is a drifting BTC 4H reference that every test symbol
// outperforms.
func baselineCloses() []float64 {
	out := make([]float64, 80)
	for i := range out {
		out[i] = 40000 + 20*float64(i)
	}
	return out
}

func baselineSeries() models.TimeframeSeries {
	bars := make([]models.OHLCVBar, 80)
	for i, c := range baselineCloses() {
		bars[i] = models.OHLCVBar{
			Timestamp: t0.Add(time.Duration(i) * 4 * time.Hour),
			Open:      c - 10, High: c + 15, Low: c - 15, Close: c, Volume: 9000,
		}
	}
	return models.TimeframeSeries{Symbol: "BTC-USDT", Timeframe: models.TF4H, Bars: bars}
}

func TestEvaluate_ConfirmedBreakoutRoutesToSignal(t *testing.T) {
	ev := NewEvaluator(application.DefaultConfig())

	rec, err := ev.Evaluate(breakoutSet("SOL-USDT", true, 200), baselineCloses())
	require.NoError(t, err)

	assert.Equal(t, regime.Trending, rec.Regime.State)
	assert.True(t, rec.Breakout.Confirmed)
	assert.Equal(t, breakout.MethodTwoClose, rec.Breakout.Method)
	assert.InDelta(t, 101.0, rec.Breakout.PriorRangeHigh, 1e-9)
	assert.InDelta(t, 2.0, rec.Breakout.VolumeSurgeRatio, 1e-9)

	// regime 35 + breakout 32 + rel strength 20
	assert.Equal(t, 87, rec.Score.Total)
	assert.Equal(t, RouteSignal, rec.Routing)

	assert.Less(t, rec.Risk.StopLoss, rec.Risk.EntryPrice)
	assert.InDelta(t, 101.6, rec.Risk.EntryPrice, 1e-9)
	assert.InDelta(t, 94.0, rec.Risk.StopLoss, 1e-9)
}

func TestEvaluate_NoBreakoutNeverReachesSignal(t *testing.T) {
	ev := NewEvaluator(application.DefaultConfig())

	rec, err := ev.Evaluate(breakoutSet("SOL-USDT", false, 0), baselineCloses())
	require.NoError(t, err)

	assert.False(t, rec.Breakout.Confirmed)
	// best case without a confirmed breakout: 35 + 0 + 20
	assert.Equal(t, 55, rec.Score.Total)
	assert.Equal(t, RouteRejected, rec.Routing)
}

func TestEvaluate_ShortHistoryFails(t *testing.T) {
	ev := NewEvaluator(application.DefaultConfig())

	set := breakoutSet("SOL-USDT", true, 200)
	set.Daily.Bars = set.Daily.Bars[:40]

	_, err := ev.Evaluate(set, baselineCloses())
	require.Error(t, err)
	assert.True(t, models.IsInsufficientHistory(err))
}

func TestEvaluate_MalformedBarsSurfaceUpstreamError(t *testing.T) {
	ev := NewEvaluator(application.DefaultConfig())

	set := breakoutSet("SOL-USDT", true, 200)
	set.M15.Bars[10].High = set.M15.Bars[10].Low - 1

	_, err := ev.Evaluate(set, baselineCloses())
	require.Error(t, err)
	assert.True(t, models.IsUpstreamData(err))
}

func TestRouteByScore_Thresholds(t *testing.T) {
	assert.Equal(t, RouteSignal, routeByScore(70))
	assert.Equal(t, RouteWatch, routeByScore(69))
	assert.Equal(t, RouteWatch, routeByScore(60))
	assert.Equal(t, RouteRejected, routeByScore(59))
}
