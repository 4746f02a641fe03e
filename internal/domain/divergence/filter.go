// Package divergence flags bearish RSI divergence: price printing a higher
// high while RSI prints a lower high over the same window.
package divergence

import (
	"math"

	"github.com/altpilot/altpilot/internal/domain/indicator"
)

// Finding reports the divergence check for one symbol.
type Finding struct {
	Bearish bool `json:"bearish"`
	// PriceDelta is the fractional gap between the later and earlier
	// price highs; positive means a higher high.
	PriceDelta float64 `json:"price_delta"`
	// RSIDelta is the RSI gap at those same highs; negative means the
	// oscillator failed to follow.
	RSIDelta float64 `json:"rsi_delta"`
}

// Filter holds the detection window.
type Filter struct {
	Lookback int     // bars examined, split into an earlier and later half
	MinDelta float64 // minimum RSI drop between the two highs
}

// NewFilter builds a divergence filter.
func NewFilter(lookback int, minDelta float64) *Filter {
	return &Filter{Lookback: lookback, MinDelta: minDelta}
}

// Detect splits the trailing lookback window in half, locates the highest
// high in each half, and flags divergence when the later high exceeds the
// earlier one while RSI at the later high sits at least MinDelta lower.
func (f *Filter) Detect(set *indicator.Set) Finding {
	n := len(set.Bars)
	if n < f.Lookback || f.Lookback < 4 {
		return Finding{}
	}

	start := n - f.Lookback
	mid := n - f.Lookback/2

	earlierIdx := highestHigh(set, start, mid)
	laterIdx := highestHigh(set, mid, n)
	if earlierIdx < 0 || laterIdx < 0 {
		return Finding{}
	}

	earlierHigh := set.Bars[earlierIdx].High
	laterHigh := set.Bars[laterIdx].High
	if earlierHigh == 0 {
		return Finding{}
	}

	finding := Finding{
		PriceDelta: laterHigh/earlierHigh - 1,
		RSIDelta:   set.RSI[laterIdx] - set.RSI[earlierIdx],
	}
	finding.Bearish = laterHigh > earlierHigh && finding.RSIDelta <= -f.MinDelta
	return finding
}

// highestHigh returns the index of the max high in [from, to), skipping
// bars where RSI has not warmed up.
func highestHigh(set *indicator.Set, from, to int) int {
	best := -1
	for i := from; i < to; i++ {
		if math.IsNaN(set.RSI[i]) {
			continue
		}
		if best < 0 || set.Bars[i].High > set.Bars[best].High {
			best = i
		}
	}
	return best
}
