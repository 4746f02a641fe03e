// Package scan runs the per-symbol evaluation pipeline across the
// universe and aggregates ranked, risk-annotated signal records.
package scan

import (
	"github.com/altpilot/altpilot/internal/domain/breakout"
	"github.com/altpilot/altpilot/internal/domain/features"
	"github.com/altpilot/altpilot/internal/domain/regime"
	"github.com/altpilot/altpilot/internal/domain/risk"
	"github.com/altpilot/altpilot/internal/domain/scoring"
	"github.com/altpilot/altpilot/internal/models"
)

// Routing buckets a signal record.
type Routing string

const (
	RouteSignal   Routing = "signal"
	RouteWatch    Routing = "watch"
	RouteRejected Routing = "rejected"
)

// priority orders routing buckets for the deterministic output sort.
func (r Routing) priority() int {
	switch r {
	case RouteSignal:
		return 0
	case RouteWatch:
		return 1
	default:
		return 2
	}
}

// SeriesSet bundles one symbol's input series across all timeframes,
// already time-aligned and gap-checked by the fetch collaborator.
type SeriesSet struct {
	Symbol string
	Daily  models.TimeframeSeries
	FourH  models.TimeframeSeries
	OneH   models.TimeframeSeries
	M15    models.TimeframeSeries
}

// SignalRecord is the aggregate per-symbol output. Constructed fresh each
// run, never mutated after construction.
type SignalRecord struct {
	Symbol   string                     `json:"symbol"`
	Regime   regime.Result              `json:"regime"`
	Breakout breakout.Event             `json:"breakout"`
	Risk     risk.Parameters            `json:"risk"`
	Score    scoring.Score              `json:"confidence"`
	Features features.TechnicalFeatures `json:"technical_features"`
	Routing  Routing                    `json:"routing"`
}

// Diagnostics accumulates the per-run counters emitted with the status
// artifact.
type Diagnostics struct {
	SymbolsTotal int            `json:"symbols_total"`
	Scanned      int            `json:"scanned"`
	Failures     map[string]int `json:"failures"`
	Regimes      map[string]int `json:"regimes"`
	Routing      map[string]int `json:"routing"`
	NearTrigger  int            `json:"near_trigger"`
}

func newDiagnostics(total int) *Diagnostics {
	return &Diagnostics{
		SymbolsTotal: total,
		Failures:     make(map[string]int),
		Regimes:      make(map[string]int),
		Routing:      make(map[string]int),
	}
}

// recordFailure classifies an evaluation error into the taxonomy buckets.
func (d *Diagnostics) recordFailure(err error) {
	switch {
	case models.IsInsufficientHistory(err):
		d.Failures["insufficient_history"]++
	case models.IsInvalidRisk(err):
		d.Failures["invalid_risk"]++
	case models.IsUpstreamData(err):
		d.Failures["upstream_data"]++
	default:
		d.Failures["internal"]++
	}
}
