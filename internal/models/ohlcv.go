package models

import (
	"fmt"
	"time"
)

// Timeframe identifies a candle resolution.
type Timeframe string

const (
	TFDaily Timeframe = "1d"
	TF4H    Timeframe = "4h"
	TF1H    Timeframe = "1h"
	TF15M   Timeframe = "15m"
)

// OHLCVBar is a single candle. Immutable once fetched.
type OHLCVBar struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
}

// TimeframeSeries is an ordered candle sequence for one symbol at one
// resolution. Timestamps are strictly increasing.
type TimeframeSeries struct {
	Symbol    string
	Timeframe Timeframe
	Bars      []OHLCVBar
}

// Len returns the number of bars in the series.
func (s TimeframeSeries) Len() int { return len(s.Bars) }

// Last returns the most recent bar. Callers must check Len first.
func (s TimeframeSeries) Last() OHLCVBar { return s.Bars[len(s.Bars)-1] }

// Closes returns the close column.
func (s TimeframeSeries) Closes() []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.Close
	}
	return out
}

// Volumes returns the volume column.
func (s TimeframeSeries) Volumes() []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.Volume
	}
	return out
}

// Validate checks ordering and basic bar sanity. A violation means the
// upstream fetch handed us malformed data, so it surfaces as
// UpstreamDataError for that symbol only.
func (s TimeframeSeries) Validate() error {
	for i, b := range s.Bars {
		if b.High < b.Low {
			return &UpstreamDataError{
				Symbol:    s.Symbol,
				Timeframe: string(s.Timeframe),
				Reason:    fmt.Sprintf("bar %d has high %.8f below low %.8f", i, b.High, b.Low),
			}
		}
		if b.Volume < 0 {
			return &UpstreamDataError{
				Symbol:    s.Symbol,
				Timeframe: string(s.Timeframe),
				Reason:    fmt.Sprintf("bar %d has negative volume", i),
			}
		}
		if i > 0 && !b.Timestamp.After(s.Bars[i-1].Timestamp) {
			return &UpstreamDataError{
				Symbol:    s.Symbol,
				Timeframe: string(s.Timeframe),
				Reason:    fmt.Sprintf("bar %d timestamp not increasing", i),
			}
		}
	}
	return nil
}
