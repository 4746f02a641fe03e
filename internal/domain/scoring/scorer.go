// Package scoring folds regime, breakout, divergence, and relative
// strength into a single 0-100 confidence score with an auditable
// per-component breakdown.
package scoring

import (
	"math"

	"github.com/altpilot/altpilot/internal/domain/breakout"
	"github.com/altpilot/altpilot/internal/domain/divergence"
	"github.com/altpilot/altpilot/internal/domain/regime"
)

// Routing thresholds. Fixed contract values, not tunable per call.
const (
	SignalThreshold = 70
	WatchThreshold  = 60
)

// Score is the scorer output: an integer 0-100 plus the contribution of
// each factor.
type Score struct {
	Total     int                `json:"total"`
	Breakdown map[string]float64 `json:"breakdown"`
}

// Scorer holds fixed component weights.
type Scorer struct {
	SurgeThreshold    float64 // the validator's surge floor, for the bonus
	DivergencePenalty float64 // deduction when bearish divergence is found
	OverrideStrength  float64 // trend strength that halves the penalty
}

// NewScorer builds a scorer.
func NewScorer(surgeThreshold, divergencePenalty, overrideStrength float64) *Scorer {
	return &Scorer{
		SurgeThreshold:    surgeThreshold,
		DivergencePenalty: divergencePenalty,
		OverrideStrength:  overrideStrength,
	}
}

// Combine produces the confidence score for one symbol.
func (s *Scorer) Combine(reg regime.Result, brk breakout.Event, div divergence.Finding) Score {
	breakdown := map[string]float64{
		"regime":       s.regimePoints(reg),
		"breakout":     s.breakoutPoints(brk),
		"rel_strength": s.relStrengthPoints(reg.RelativeStrength),
	}

	if div.Bearish {
		penalty := s.DivergencePenalty
		// A strong established trend keeps part of its score: thin
		// divergence against heavy momentum is often just consolidation.
		if reg.TrendStrength >= s.OverrideStrength {
			penalty /= 2
		}
		breakdown["divergence_penalty"] = -penalty
	}

	var total float64
	for _, v := range breakdown {
		total += v
	}
	return Score{Total: clampScore(total), Breakdown: breakdown}
}

func (s *Scorer) regimePoints(reg regime.Result) float64 {
	switch reg.State {
	case regime.Trending:
		return 30 + 5*reg.TrendStrength
	case regime.Reclaiming:
		return 22 + 3*reg.TrendStrength
	default:
		return 8
	}
}

func (s *Scorer) breakoutPoints(brk breakout.Event) float64 {
	if !brk.Confirmed {
		return 0
	}
	base := 27.0
	if brk.Method == breakout.MethodTwoClose {
		base = 30.0
	}
	bonus := (brk.VolumeSurgeRatio - s.SurgeThreshold) * 5
	if bonus < 0 {
		bonus = 0
	}
	if bonus > 5 {
		bonus = 5
	}
	return base + bonus
}

func (s *Scorer) relStrengthPoints(rs float64) float64 {
	pts := 15 + rs*200
	if pts < 0 {
		return 0
	}
	if pts > 20 {
		return 20
	}
	return pts
}

func clampScore(v float64) int {
	n := int(math.Round(v))
	if n < 0 {
		return 0
	}
	if n > 100 {
		return 100
	}
	return n
}
