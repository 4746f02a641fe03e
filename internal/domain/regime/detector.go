// Package regime classifies the daily/4H market state that gates signal
// eligibility.
package regime

import (
	"math"

	"github.com/altpilot/altpilot/internal/domain/indicator"
)

// State enumerates market regimes.
type State string

const (
	Trending   State = "trending"
	Reclaiming State = "reclaiming"
	Weak       State = "weak"
)

// Result holds the regime classification for one symbol.
type Result struct {
	State State `json:"state"`
	// TrendStrength is the daily EMA20 slope normalized to [0,1] against
	// twice the minimum-trend threshold.
	TrendStrength float64 `json:"trend_strength"`
	// RelativeStrength is the symbol's recent return minus the baseline
	// asset's return over the same lookback.
	RelativeStrength float64 `json:"relative_strength"`
}

// Eligible reports whether the regime permits full evaluation. Weak symbols
// are capped at Watch routing by the aggregator.
func (r Result) Eligible() bool { return r.State != Weak }

// Detector applies the regime rules.
type Detector struct {
	SlopeWindow      int     // bars for the daily EMA20 slope
	MinTrendStrength float64 // minimum fractional slope for Trending
	RSLookback       int     // 4H bars for the relative-strength return
}

// NewDetector builds a detector with explicit thresholds.
func NewDetector(slopeWindow int, minTrendStrength float64, rsLookback int) *Detector {
	return &Detector{
		SlopeWindow:      slopeWindow,
		MinTrendStrength: minTrendStrength,
		RSLookback:       rsLookback,
	}
}

// Detect classifies one symbol from its daily and 4H snapshots plus the
// shared baseline 4H closes.
func (d *Detector) Detect(daily, fourH *indicator.Set, baseline4HCloses []float64) Result {
	slope := indicator.Slope(daily.EMAShort, d.SlopeWindow)

	symRet := indicator.PctReturn(fourH.Closes, d.RSLookback)
	baseRet := indicator.PctReturn(baseline4HCloses, d.RSLookback)

	res := Result{
		TrendStrength:    d.normalizeStrength(slope),
		RelativeStrength: symRet - baseRet,
	}

	emaUp := daily.EMAShort[len(daily.EMAShort)-1] >= daily.EMALong[len(daily.EMALong)-1]
	if emaUp && slope >= d.MinTrendStrength {
		res.State = Trending
		return res
	}

	if reclaimed(daily) {
		res.State = Reclaiming
		return res
	}

	res.State = Weak
	return res
}

// reclaimed checks a daily close crossing back above the prior Donchian
// high after the previous close sat at or below its own channel.
func reclaimed(daily *indicator.Set) bool {
	n := len(daily.Closes)
	if n < 2 {
		return false
	}
	channel := daily.DonchianHigh[n-1]
	prevChannel := daily.DonchianHigh[n-2]
	if math.IsNaN(channel) || math.IsNaN(prevChannel) {
		return false
	}
	return daily.Closes[n-1] > channel && daily.Closes[n-2] <= prevChannel
}

func (d *Detector) normalizeStrength(slope float64) float64 {
	if d.MinTrendStrength <= 0 {
		return 0
	}
	s := slope / (2 * d.MinTrendStrength)
	if s < 0 {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}
