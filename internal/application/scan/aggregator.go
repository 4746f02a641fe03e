package scan

import (
	"math"
	"sort"
)

// Aggregator collects per-symbol records, applies the regime routing cap,
// ranks deterministically, and accumulates diagnostics.
type Aggregator struct {
	weakRSDecile float64
	nearPRHPct   float64
	maxSignals   int
	maxWatch     int
}

// NewAggregator builds an aggregator from the routing limits.
func NewAggregator(weakRSDecile, nearPRHPct float64, maxSignals, maxWatch int) *Aggregator {
	return &Aggregator{
		weakRSDecile: weakRSDecile,
		nearPRHPct:   nearPRHPct,
		maxSignals:   maxSignals,
		maxWatch:     maxWatch,
	}
}

// Outcome is the ranked result of one run.
type Outcome struct {
	Signals     []SignalRecord `json:"signals"`
	Watch       []SignalRecord `json:"watch"`
	Rejected    []SignalRecord `json:"rejected"`
	Diagnostics *Diagnostics   `json:"diagnostics"`
}

// Aggregate finalizes routing and produces the deterministic ranked
// outcome. Records arrive in completion order; the explicit sort key makes
// the output independent of scheduling.
func (a *Aggregator) Aggregate(records []SignalRecord, diags *Diagnostics) *Outcome {
	rsCut := a.relStrengthCut(records)

	finalized := make([]SignalRecord, len(records))
	for i, rec := range records {
		if !rec.Regime.Eligible() {
			// Weak regime can never reach Signal. Top relative-strength
			// performers stay visible on the watch list; the rest drop.
			if rec.Regime.RelativeStrength >= rsCut {
				rec.Routing = RouteWatch
			} else {
				rec.Routing = RouteRejected
			}
		}
		finalized[i] = rec
	}

	sort.Slice(finalized, func(i, j int) bool {
		ri, rj := finalized[i], finalized[j]
		if ri.Routing.priority() != rj.Routing.priority() {
			return ri.Routing.priority() < rj.Routing.priority()
		}
		if ri.Score.Total != rj.Score.Total {
			return ri.Score.Total > rj.Score.Total
		}
		return ri.Symbol < rj.Symbol
	})

	out := &Outcome{Diagnostics: diags}
	for _, rec := range finalized {
		diags.Regimes[string(rec.Regime.State)]++
		diags.Routing[string(rec.Routing)]++
		switch rec.Routing {
		case RouteSignal:
			if len(out.Signals) < a.maxSignals {
				out.Signals = append(out.Signals, rec)
			}
		case RouteWatch:
			if len(out.Watch) < a.maxWatch {
				out.Watch = append(out.Watch, rec)
			}
		default:
			out.Rejected = append(out.Rejected, rec)
			if a.nearTrigger(rec) {
				diags.NearTrigger++
			}
		}
	}
	return out
}

// relStrengthCut is the relative-strength value at the configured decile
// across every evaluated symbol. Weak symbols at or above it keep Watch.
func (a *Aggregator) relStrengthCut(records []SignalRecord) float64 {
	if len(records) == 0 {
		return math.Inf(1)
	}
	values := make([]float64, len(records))
	for i, rec := range records {
		values[i] = rec.Regime.RelativeStrength
	}
	sort.Float64s(values)
	idx := int(math.Ceil(a.weakRSDecile*float64(len(values)))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(values) {
		idx = len(values) - 1
	}
	return values[idx]
}

// nearTrigger flags a rejected symbol whose entry sits within the
// configured band of the prior range high, for the status artifact.
func (a *Aggregator) nearTrigger(rec SignalRecord) bool {
	prh := rec.Breakout.PriorRangeHigh
	if prh <= 0 {
		return false
	}
	return math.Abs(rec.Risk.EntryPrice-prh)/prh <= a.nearPRHPct
}
