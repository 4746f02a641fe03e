package models

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestErrorClassification(t *testing.T) {
	history := &InsufficientHistoryError{Indicator: "ema", Need: 50, Have: 30}
	risk := &InvalidRiskError{Entry: 100, Stop: 101}
	upstream := &UpstreamDataError{Symbol: "SOL-USDT", Timeframe: "1h", Reason: "gap"}

	assert.True(t, IsInsufficientHistory(history))
	assert.True(t, IsInvalidRisk(risk))
	assert.True(t, IsUpstreamData(upstream))

	assert.False(t, IsInsufficientHistory(risk))
	assert.False(t, IsInvalidRisk(upstream))
	assert.False(t, IsUpstreamData(history))
	assert.False(t, IsInsufficientHistory(errors.New("plain")))
}

func TestErrorClassification_SurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("evaluate SOL-USDT: %w", &InsufficientHistoryError{Indicator: "rsi", Need: 15, Have: 9})
	assert.True(t, IsInsufficientHistory(err))
}

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, "ema needs 50 bars, have 30",
		(&InsufficientHistoryError{Indicator: "ema", Need: 50, Have: 30}).Error())
	assert.Contains(t, (&InvalidRiskError{Entry: 100, Stop: 101}).Error(), "not below entry")
	assert.Contains(t, (&UpstreamDataError{Symbol: "SOL-USDT", Timeframe: "1h", Reason: "gap"}).Error(), "SOL-USDT")
}

func TestSeriesValidate(t *testing.T) {
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	good := TimeframeSeries{Symbol: "SOL-USDT", Timeframe: TF1H, Bars: []OHLCVBar{
		{Timestamp: base, Open: 100, High: 101, Low: 99, Close: 100, Volume: 10},
		{Timestamp: base.Add(time.Hour), Open: 100, High: 102, Low: 100, Close: 101, Volume: 12},
	}}
	assert.NoError(t, good.Validate())

	inverted := good
	inverted.Bars = []OHLCVBar{{Timestamp: base, Open: 100, High: 99, Low: 101, Close: 100, Volume: 10}}
	assert.True(t, IsUpstreamData(inverted.Validate()))

	negVol := good
	negVol.Bars = []OHLCVBar{{Timestamp: base, Open: 100, High: 101, Low: 99, Close: 100, Volume: -1}}
	assert.True(t, IsUpstreamData(negVol.Validate()))

	stalled := good
	stalled.Bars = []OHLCVBar{
		{Timestamp: base, Open: 100, High: 101, Low: 99, Close: 100, Volume: 10},
		{Timestamp: base, Open: 100, High: 101, Low: 99, Close: 100, Volume: 10},
	}
	assert.True(t, IsUpstreamData(stalled.Validate()))
}
