// Package risk derives a structural stop-loss from swing structure and
// volatility, adapted to the prevailing regime.
package risk

import (
	"math"

	"github.com/altpilot/altpilot/internal/domain/indicator"
	"github.com/altpilot/altpilot/internal/domain/regime"
	"github.com/altpilot/altpilot/internal/models"
)

// Parameters is the risk output for a long signal.
type Parameters struct {
	EntryPrice  float64 `json:"entry_price"`
	StopLoss    float64 `json:"stop_loss"`
	RiskPerUnit float64 `json:"risk_per_unit"`
}

// Multipliers sets the ATR stop distance per regime. Looser in confirmed
// trends to survive normal pullbacks, tighter in weak conditions to cap
// the damage when the setup is wrong.
type Multipliers struct {
	Trending   float64 `yaml:"trending" json:"trending"`
	Reclaiming float64 `yaml:"reclaiming" json:"reclaiming"`
	Weak       float64 `yaml:"weak" json:"weak"`
}

// Model computes stops.
type Model struct {
	SwingLookback int
	ATRMult       Multipliers
}

// NewModel builds a risk model with explicit parameters.
func NewModel(swingLookback int, mult Multipliers) *Model {
	return &Model{SwingLookback: swingLookback, ATRMult: mult}
}

// Compute derives the stop as min(swing low, entry - ATR*multiplier).
// Fails with InvalidRiskError when the stop does not land strictly below
// the entry, e.g. zero ATR with a degenerate swing low.
func (m *Model) Compute(bars15m []models.OHLCVBar, entry, atr float64, state regime.State) (Parameters, error) {
	swingLow, err := indicator.SwingLow(bars15m, m.SwingLookback)
	if err != nil {
		return Parameters{}, err
	}

	stop := math.Min(swingLow, entry-atr*m.multiplier(state))
	if !(stop < entry) || math.IsNaN(stop) {
		return Parameters{}, &models.InvalidRiskError{Entry: entry, Stop: stop}
	}

	return Parameters{
		EntryPrice:  entry,
		StopLoss:    stop,
		RiskPerUnit: entry - stop,
	}, nil
}

func (m *Model) multiplier(state regime.State) float64 {
	switch state {
	case regime.Trending:
		return m.ATRMult.Trending
	case regime.Reclaiming:
		return m.ATRMult.Reclaiming
	default:
		return m.ATRMult.Weak
	}
}
