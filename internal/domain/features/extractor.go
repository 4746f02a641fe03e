// Package features normalizes raw indicator values into bounded [0,1]
// features for downstream ML consumption. Every feature is asset-relative:
// the current value is ranked against the symbol's own trailing
// distribution, never against a fixed global cutoff.
package features

import (
	"math"

	"github.com/altpilot/altpilot/internal/domain/indicator"
	"github.com/altpilot/altpilot/internal/models"
)

// VolatilityRegime buckets current volatility against the symbol's own
// ATR% history.
type VolatilityRegime string

const (
	VolLow    VolatilityRegime = "low"
	VolMedium VolatilityRegime = "medium"
	VolHigh   VolatilityRegime = "high"
)

// TechnicalFeatures is the normalized feature vector.
type TechnicalFeatures struct {
	PriceMomentum      float64          `json:"price_momentum"`
	VolumeTrend        float64          `json:"volume_trend"`
	TrendQuality       float64          `json:"trend_quality"`
	CorrelationWithBTC float64          `json:"correlation_with_btc"`
	MarketStrength     float64          `json:"market_strength"`
	VolatilityRegime   VolatilityRegime `json:"volatility_regime"`
}

// Extractor computes the feature vector from 4H and 1H snapshots plus the
// shared baseline closes.
type Extractor struct {
	MomentumLookback    int     // bars per return sample
	VolumeShortWindow   int     // short volume MA
	VolumeLongWindow    int     // long volume MA
	CorrelationLookback int     // return pairs for the correlation
	VolLowPercentile    float64 // ATR% percentile below which vol is low
	VolHighPercentile   float64 // ATR% percentile above which vol is high
}

// NewExtractor builds an extractor with explicit lookbacks.
func NewExtractor(momentumLookback, volShort, volLong, corrLookback int, volLowPct, volHighPct float64) *Extractor {
	return &Extractor{
		MomentumLookback:    momentumLookback,
		VolumeShortWindow:   volShort,
		VolumeLongWindow:    volLong,
		CorrelationLookback: corrLookback,
		VolLowPercentile:    volLowPct,
		VolHighPercentile:   volHighPct,
	}
}

// Extract builds the feature vector for one symbol.
func (e *Extractor) Extract(fourH, oneH *indicator.Set, baseline4HCloses []float64) (TechnicalFeatures, error) {
	momentum, err := e.priceMomentum(fourH.Closes)
	if err != nil {
		return TechnicalFeatures{}, err
	}
	volTrend, err := e.volumeTrend(fourH.Volumes)
	if err != nil {
		return TechnicalFeatures{}, err
	}
	quality := e.trendQuality(fourH)
	corr := e.correlation(fourH.Closes, baseline4HCloses)
	volRegime, err := e.volatilityRegime(oneH)
	if err != nil {
		return TechnicalFeatures{}, err
	}

	return TechnicalFeatures{
		PriceMomentum:      momentum,
		VolumeTrend:        volTrend,
		TrendQuality:       quality,
		CorrelationWithBTC: corr,
		MarketStrength:     (momentum + volTrend + quality) / 3,
		VolatilityRegime:   volRegime,
	}, nil
}

// priceMomentum ranks the current lookback return against the trailing
// distribution of same-length returns.
func (e *Extractor) priceMomentum(closes []float64) (float64, error) {
	k := e.MomentumLookback
	if len(closes) < 2*k {
		return 0, &models.InsufficientHistoryError{Indicator: "price_momentum", Need: 2 * k, Have: len(closes)}
	}
	returns := make([]float64, 0, len(closes)-k)
	for i := k; i < len(closes); i++ {
		if closes[i-k] == 0 {
			continue
		}
		returns = append(returns, closes[i]/closes[i-k]-1)
	}
	if len(returns) < 2 {
		return 0, &models.InsufficientHistoryError{Indicator: "price_momentum", Need: 2 * k, Have: len(closes)}
	}
	return percentileRank(returns[:len(returns)-1], returns[len(returns)-1]), nil
}

// volumeTrend ranks the current short/long volume MA ratio against its own
// history.
func (e *Extractor) volumeTrend(volumes []float64) (float64, error) {
	long := e.VolumeLongWindow
	if len(volumes) < 2*long {
		return 0, &models.InsufficientHistoryError{Indicator: "volume_trend", Need: 2 * long, Have: len(volumes)}
	}
	ratios := make([]float64, 0, len(volumes)-long)
	for i := long; i <= len(volumes); i++ {
		shortMA := mean(volumes[i-e.VolumeShortWindow : i])
		longMA := mean(volumes[i-long : i])
		if longMA == 0 {
			continue
		}
		ratios = append(ratios, shortMA/longMA)
	}
	if len(ratios) < 2 {
		return 0, &models.InsufficientHistoryError{Indicator: "volume_trend", Need: 2 * long, Have: len(volumes)}
	}
	return percentileRank(ratios[:len(ratios)-1], ratios[len(ratios)-1]), nil
}

// trendQuality is the fraction of the momentum lookback where the short
// EMA held above the long EMA. Already bounded [0,1].
func (e *Extractor) trendQuality(set *indicator.Set) float64 {
	n := len(set.EMAShort)
	look := e.MomentumLookback
	if look > n {
		look = n
	}
	if look == 0 {
		return 0
	}
	up := 0
	for i := n - look; i < n; i++ {
		if set.EMAShort[i] >= set.EMALong[i] {
			up++
		}
	}
	return float64(up) / float64(look)
}

// correlation is the absolute Pearson correlation of one-bar returns
// against the baseline. Direction is not informative here: 0 means
// independent, 1 means perfectly correlated either way.
func (e *Extractor) correlation(closes, baseline []float64) float64 {
	n := e.CorrelationLookback
	a := barReturns(closes, n)
	b := barReturns(baseline, n)
	if len(a) != len(b) || len(a) < 2 {
		m := len(a)
		if len(b) < m {
			m = len(b)
		}
		if m < 2 {
			return 0
		}
		a = a[len(a)-m:]
		b = b[len(b)-m:]
	}
	r := pearson(a, b)
	if math.IsNaN(r) {
		return 0
	}
	return math.Abs(r)
}

// volatilityRegime buckets the current ATR% by its percentile within the
// symbol's own ATR% history.
func (e *Extractor) volatilityRegime(oneH *indicator.Set) (VolatilityRegime, error) {
	history := make([]float64, 0, len(oneH.ATR))
	for i := range oneH.ATR {
		if v := oneH.ATRPercentAt(i); !math.IsNaN(v) {
			history = append(history, v)
		}
	}
	if len(history) < 2 {
		return "", &models.InsufficientHistoryError{Indicator: "volatility_regime", Need: 2, Have: len(history)}
	}
	current := history[len(history)-1]
	pct := percentileRank(history[:len(history)-1], current)
	switch {
	case pct < e.VolLowPercentile:
		return VolLow, nil
	case pct < e.VolHighPercentile:
		return VolMedium, nil
	default:
		return VolHigh, nil
	}
}

// percentileRank is the fraction of history at or below value.
func percentileRank(history []float64, value float64) float64 {
	if len(history) == 0 {
		return 0
	}
	count := 0
	for _, h := range history {
		if h <= value {
			count++
		}
	}
	return float64(count) / float64(len(history))
}

func barReturns(values []float64, lookback int) []float64 {
	if len(values) < 2 {
		return nil
	}
	start := len(values) - lookback - 1
	if start < 0 {
		start = 0
	}
	out := make([]float64, 0, lookback)
	for i := start + 1; i < len(values); i++ {
		if values[i-1] == 0 {
			continue
		}
		out = append(out, values[i]/values[i-1]-1)
	}
	return out
}

func pearson(a, b []float64) float64 {
	ma, mb := mean(a), mean(b)
	var cov, va, vb float64
	for i := range a {
		da, db := a[i]-ma, b[i]-mb
		cov += da * db
		va += da * da
		vb += db * db
	}
	if va == 0 || vb == 0 {
		return math.NaN()
	}
	return cov / math.Sqrt(va*vb)
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
