package indicator

import (
	"math"

	"github.com/altpilot/altpilot/internal/models"
)

// Windows configures the lookbacks used when building a Set.
type Windows struct {
	EMAShort         int
	EMALong          int
	ATRWindow        int
	RSIWindow        int
	DonchianLookback int
	VolumeMedianLook int
}

// DefaultWindows mirrors the production lookbacks.
func DefaultWindows() Windows {
	return Windows{
		EMAShort:         20,
		EMALong:          50,
		ATRWindow:        14,
		RSIWindow:        14,
		DonchianLookback: 20,
		VolumeMedianLook: 20,
	}
}

// Set is an immutable per-symbol, per-timeframe snapshot of derived values.
// Recomputed fresh each pipeline run; a new run produces a new Set.
type Set struct {
	Symbol    string
	Timeframe models.Timeframe

	EMAShort     []float64
	EMALong      []float64
	ATR          []float64
	RSI          []float64
	DonchianHigh []float64
	DonchianLow  []float64
	OBV          []float64

	Bars    []models.OHLCVBar
	Closes  []float64
	Volumes []float64

	MedianVolume  float64
	CurrentVolume float64
}

// Compute builds the full indicator snapshot for one series. It fails with
// InsufficientHistoryError when the series is shorter than the largest
// requested window, so callers can skip the symbol instead of reading a
// silently neutral value.
func Compute(series models.TimeframeSeries, w Windows) (*Set, error) {
	if err := series.Validate(); err != nil {
		return nil, err
	}
	closes := series.Closes()

	emaShort, err := EMA(closes, w.EMAShort)
	if err != nil {
		return nil, err
	}
	emaLong, err := EMA(closes, w.EMALong)
	if err != nil {
		return nil, err
	}
	atr, err := ATR(series.Bars, w.ATRWindow)
	if err != nil {
		return nil, err
	}
	rsi, err := RSI(closes, w.RSIWindow)
	if err != nil {
		return nil, err
	}
	donHigh, err := DonchianHigh(series.Bars, w.DonchianLookback)
	if err != nil {
		return nil, err
	}
	donLow, err := DonchianLow(series.Bars, w.DonchianLookback)
	if err != nil {
		return nil, err
	}
	median, err := MedianVolume(series.Bars, series.Len()-1, w.VolumeMedianLook)
	if err != nil {
		return nil, err
	}

	return &Set{
		Symbol:        series.Symbol,
		Timeframe:     series.Timeframe,
		EMAShort:      emaShort,
		EMALong:       emaLong,
		ATR:           atr,
		RSI:           rsi,
		DonchianHigh:  donHigh,
		DonchianLow:   donLow,
		OBV:           OBVProxy(series.Bars),
		Bars:          series.Bars,
		Closes:        closes,
		Volumes:       series.Volumes(),
		MedianVolume:  median,
		CurrentVolume: series.Last().Volume,
	}, nil
}

// LastClose is the latest close in the snapshot.
func (s *Set) LastClose() float64 { return s.Closes[len(s.Closes)-1] }

// LastATR is the latest ATR value.
func (s *Set) LastATR() float64 { return s.ATR[len(s.ATR)-1] }

// ATRPercent is the latest ATR as a percentage of the close.
func (s *Set) ATRPercent() float64 {
	c := s.LastClose()
	if c == 0 {
		return math.NaN()
	}
	return s.LastATR() / c * 100
}

// ATRPercentAt returns ATR as a percentage of close at index i, NaN while
// the ATR window is still warming up.
func (s *Set) ATRPercentAt(i int) float64 {
	if s.Closes[i] == 0 || math.IsNaN(s.ATR[i]) {
		return math.NaN()
	}
	return s.ATR[i] / s.Closes[i] * 100
}
