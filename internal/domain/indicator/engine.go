// Package indicator computes windowed technical statistics over ordered
// OHLCV series. Every transform walks the series left to right; a value at
// index i depends only on bars at or before i.
package indicator

import (
	"math"
	"sort"

	"github.com/altpilot/altpilot/internal/models"
)

// EMA computes an exponential moving average with span n
// (alpha = 2/(n+1)), seeded from the first close.
func EMA(values []float64, n int) ([]float64, error) {
	if len(values) < n {
		return nil, &models.InsufficientHistoryError{Indicator: "ema", Need: n, Have: len(values)}
	}
	alpha := 2.0 / (float64(n) + 1.0)
	out := make([]float64, len(values))
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = alpha*values[i] + (1-alpha)*out[i-1]
	}
	return out, nil
}

// ATR computes the average true range as a simple rolling mean of the true
// range over n bars. Indices before n-1 hold NaN.
func ATR(bars []models.OHLCVBar, n int) ([]float64, error) {
	if len(bars) < n+1 {
		return nil, &models.InsufficientHistoryError{Indicator: "atr", Need: n + 1, Have: len(bars)}
	}
	tr := make([]float64, len(bars))
	tr[0] = bars[0].High - bars[0].Low
	for i := 1; i < len(bars); i++ {
		pc := bars[i-1].Close
		tr[i] = math.Max(bars[i].High-bars[i].Low,
			math.Max(math.Abs(bars[i].High-pc), math.Abs(bars[i].Low-pc)))
	}
	out := make([]float64, len(bars))
	var sum float64
	for i := range tr {
		sum += tr[i]
		if i >= n {
			sum -= tr[i-n]
		}
		if i >= n-1 {
			out[i] = sum / float64(n)
		} else {
			out[i] = math.NaN()
		}
	}
	return out, nil
}

// RSI computes the relative strength index with Wilder smoothing.
// Indices before n hold NaN.
func RSI(closes []float64, n int) ([]float64, error) {
	if len(closes) < n+1 {
		return nil, &models.InsufficientHistoryError{Indicator: "rsi", Need: n + 1, Have: len(closes)}
	}
	out := make([]float64, len(closes))
	for i := 0; i < n && i < len(out); i++ {
		out[i] = math.NaN()
	}
	var avgGain, avgLoss float64
	for i := 1; i <= n; i++ {
		d := closes[i] - closes[i-1]
		if d > 0 {
			avgGain += d
		} else {
			avgLoss -= d
		}
	}
	avgGain /= float64(n)
	avgLoss /= float64(n)
	out[n] = rsiValue(avgGain, avgLoss)
	for i := n + 1; i < len(closes); i++ {
		d := closes[i] - closes[i-1]
		gain, loss := 0.0, 0.0
		if d > 0 {
			gain = d
		} else {
			loss = -d
		}
		avgGain = (avgGain*float64(n-1) + gain) / float64(n)
		avgLoss = (avgLoss*float64(n-1) + loss) / float64(n)
		out[i] = rsiValue(avgGain, avgLoss)
	}
	return out, nil
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// DonchianHigh returns, per index, the max high of the n bars strictly
// before that index. The current bar is excluded so a close can actually
// cross the channel. Indices before n hold NaN.
func DonchianHigh(bars []models.OHLCVBar, n int) ([]float64, error) {
	if len(bars) < n+1 {
		return nil, &models.InsufficientHistoryError{Indicator: "donchian", Need: n + 1, Have: len(bars)}
	}
	out := make([]float64, len(bars))
	for i := range out {
		if i < n {
			out[i] = math.NaN()
			continue
		}
		high := bars[i-n].High
		for j := i - n + 1; j < i; j++ {
			if bars[j].High > high {
				high = bars[j].High
			}
		}
		out[i] = high
	}
	return out, nil
}

// DonchianLow mirrors DonchianHigh for lows.
func DonchianLow(bars []models.OHLCVBar, n int) ([]float64, error) {
	if len(bars) < n+1 {
		return nil, &models.InsufficientHistoryError{Indicator: "donchian", Need: n + 1, Have: len(bars)}
	}
	out := make([]float64, len(bars))
	for i := range out {
		if i < n {
			out[i] = math.NaN()
			continue
		}
		low := bars[i-n].Low
		for j := i - n + 1; j < i; j++ {
			if bars[j].Low < low {
				low = bars[j].Low
			}
		}
		out[i] = low
	}
	return out, nil
}

// MedianVolume returns the median volume of the m bars strictly before
// index i in the series.
func MedianVolume(bars []models.OHLCVBar, i, m int) (float64, error) {
	if i < m {
		return 0, &models.InsufficientHistoryError{Indicator: "median_volume", Need: m + 1, Have: i + 1}
	}
	window := make([]float64, m)
	for j := 0; j < m; j++ {
		window[j] = bars[i-m+j].Volume
	}
	sort.Float64s(window)
	mid := m / 2
	if m%2 == 1 {
		return window[mid], nil
	}
	return (window[mid-1] + window[mid]) / 2, nil
}

// OBVProxy accumulates sign(close delta) times volume.
func OBVProxy(bars []models.OHLCVBar) []float64 {
	out := make([]float64, len(bars))
	var acc float64
	for i, b := range bars {
		if i > 0 {
			switch {
			case b.Close > bars[i-1].Close:
				acc += b.Volume
			case b.Close < bars[i-1].Close:
				acc -= b.Volume
			}
		}
		out[i] = acc
	}
	return out
}

// PctReturn is the fractional return over the trailing look bars, zero when
// history is too short.
func PctReturn(values []float64, look int) float64 {
	if len(values) <= look || values[len(values)-1-look] == 0 {
		return 0
	}
	return values[len(values)-1]/values[len(values)-1-look] - 1.0
}

// Slope is the fractional rate of change of a series over the trailing
// look bars, i.e. PctReturn applied to an indicator series rather than
// closes.
func Slope(values []float64, look int) float64 {
	return PctReturn(values, look)
}

// PriorRangeHigh is the max high over a trailing [minLook, maxLook] window
// of bars, excluding the latest bar. The breakout reference level.
func PriorRangeHigh(bars []models.OHLCVBar, minLook, maxLook int) (float64, error) {
	if len(bars) < minLook+2 {
		return 0, &models.InsufficientHistoryError{Indicator: "prior_range_high", Need: minLook + 2, Have: len(bars)}
	}
	look := len(bars) - 2
	if look > maxLook {
		look = maxLook
	}
	end := len(bars) - 1 // latest bar excluded
	high := bars[end-look].High
	for i := end - look + 1; i < end; i++ {
		if bars[i].High > high {
			high = bars[i].High
		}
	}
	return high, nil
}

// SwingLow is the minimum low of the trailing look bars.
func SwingLow(bars []models.OHLCVBar, look int) (float64, error) {
	if len(bars) < look {
		return 0, &models.InsufficientHistoryError{Indicator: "swing_low", Need: look, Have: len(bars)}
	}
	low := bars[len(bars)-look].Low
	for _, b := range bars[len(bars)-look:] {
		if b.Low < low {
			low = b.Low
		}
	}
	return low, nil
}
