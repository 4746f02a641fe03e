// Package breakout confirms or rejects a breakout over the prior range
// high using an explicit state machine driven by 15-minute closes.
package breakout

import (
	"github.com/altpilot/altpilot/internal/domain/indicator"
	"github.com/altpilot/altpilot/internal/models"
)

// StateName labels the machine states.
type StateName string

const (
	StateNoBreakout StateName = "no_breakout"
	StatePending    StateName = "pending_confirmation"
	StateConfirmed  StateName = "confirmed"
)

// Method labels how a breakout was confirmed.
type Method string

const (
	MethodNone     Method = "none"
	MethodTwoClose Method = "two_close_confirmation"
	MethodRetest   Method = "clean_retest"
)

// Event is the validator's output for one symbol and run.
type Event struct {
	Confirmed        bool      `json:"confirmed"`
	Method           Method    `json:"method"`
	State            StateName `json:"state"`
	PriorRangeHigh   float64   `json:"prior_range_high"`
	VolumeSurgeRatio float64   `json:"volume_surge_ratio"`
}

// Validator holds the confirmation thresholds.
type Validator struct {
	SurgeThreshold   float64 // min current/median volume ratio
	SurgeLookback    int     // trailing bars for the volume median
	RetestBps        float64 // basis points through PRH for a clean retest
	ConfirmationBars int     // consecutive closes above PRH for two-close
}

// NewValidator builds a validator with explicit thresholds.
func NewValidator(surgeThreshold float64, surgeLookback int, retestBps float64, confirmationBars int) *Validator {
	return &Validator{
		SurgeThreshold:   surgeThreshold,
		SurgeLookback:    surgeLookback,
		RetestBps:        retestBps,
		ConfirmationBars: confirmationBars,
	}
}

// Evaluate re-derives the machine state from the most recent window of 15M
// bars. Nothing is carried across runs; the walk starts at NoBreakout and
// replays every bar after the volume-median warmup.
//
// Transitions:
//
//	NoBreakout -> Pending    first close above PRH
//	Pending    -> Confirmed  ConfirmationBars consecutive closes above PRH
//	                         with volume surge, or a single close through
//	                         PRH by RetestBps with volume surge
//	Pending    -> NoBreakout close falls back below PRH
func (v *Validator) Evaluate(bars15m []models.OHLCVBar, priorRangeHigh float64) (Event, error) {
	need := v.SurgeLookback + 2
	if len(bars15m) < need {
		return Event{}, &models.InsufficientHistoryError{Indicator: "breakout_window", Need: need, Have: len(bars15m)}
	}

	ev := Event{
		Method:         MethodNone,
		State:          StateNoBreakout,
		PriorRangeHigh: priorRangeHigh,
	}
	retestLevel := priorRangeHigh * (1 + v.RetestBps/10000)

	state := StateNoBreakout
	consecutive := 0
	for i := v.SurgeLookback; i < len(bars15m); i++ {
		close := bars15m[i].Close

		if close <= priorRangeHigh {
			state = StateNoBreakout
			consecutive = 0
			continue
		}
		consecutive++
		if state == StateNoBreakout {
			state = StatePending
		}

		surge, err := v.surgeRatio(bars15m, i)
		if err != nil {
			return Event{}, err
		}
		ev.VolumeSurgeRatio = surge
		if surge < v.SurgeThreshold {
			continue
		}

		// Two independent satisfying conditions; either promotes Pending.
		if consecutive >= v.ConfirmationBars {
			state = StateConfirmed
			ev.Confirmed = true
			ev.Method = MethodTwoClose
			break
		}
		if close >= retestLevel {
			state = StateConfirmed
			ev.Confirmed = true
			ev.Method = MethodRetest
			break
		}
	}

	ev.State = state
	if !ev.Confirmed {
		// Report the surge on the latest bar so diagnostics show what the
		// market actually did, confirmed or not.
		surge, err := v.surgeRatio(bars15m, len(bars15m)-1)
		if err != nil {
			return Event{}, err
		}
		ev.VolumeSurgeRatio = surge
	}
	return ev, nil
}

// surgeRatio is bar i's volume over the median volume of the trailing
// window. Median, not mean, to resist outlier spikes.
func (v *Validator) surgeRatio(bars []models.OHLCVBar, i int) (float64, error) {
	median, err := indicator.MedianVolume(bars, i, v.SurgeLookback)
	if err != nil {
		return 0, err
	}
	if median == 0 {
		return 0, nil
	}
	return bars[i].Volume / median, nil
}
