// Package artifacts serializes ranked scan outcomes into the JSON
// documents consumed downstream: signals.json, watch.json, status.json.
package artifacts

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/altpilot/altpilot/internal/application/scan"
	"github.com/altpilot/altpilot/internal/domain/features"
)

// Record is the wire shape of one ranked entry.
type Record struct {
	Symbol            string                    `json:"symbol"`
	ConfidenceScore   int                       `json:"confidence_score"`
	Regime            string                    `json:"regime"`
	EntryPrice        float64                   `json:"entry_price"`
	StopLoss          float64                   `json:"stop_loss"`
	RiskPerUnit       float64                   `json:"risk_per_unit"`
	BreakoutConfirmed bool                      `json:"breakout_confirmed"`
	BreakoutMethod    string                    `json:"breakout_method"`
	PriorRangeHigh    float64                   `json:"prior_range_high"`
	VolumeSurgeRatio  float64                   `json:"volume_surge_ratio"`
	ScoreBreakdown    map[string]float64        `json:"score_breakdown"`
	TechnicalFeatures featurePayload            `json:"technical_features"`
	VolatilityRegime  features.VolatilityRegime `json:"volatility_regime"`
}

type featurePayload struct {
	PriceMomentum      float64 `json:"price_momentum"`
	VolumeTrend        float64 `json:"volume_trend"`
	TrendQuality       float64 `json:"trend_quality"`
	CorrelationWithBTC float64 `json:"correlation_with_btc"`
	MarketStrength     float64 `json:"market_strength"`
}

// Feed is a ranked list document.
type Feed struct {
	RunID     string   `json:"run_id"`
	UpdatedAt string   `json:"updated_at"`
	Count     int      `json:"count"`
	Records   []Record `json:"records"`
}

// Status is the diagnostics document.
type Status struct {
	RunID     string            `json:"run_id"`
	UpdatedAt string            `json:"updated_at"`
	Config    map[string]any    `json:"config"`
	Stats     *scan.Diagnostics `json:"stats"`
}

// Writer persists run artifacts under one output directory.
type Writer struct {
	dir   string
	runID string
}

// NewWriter creates a writer; each writer carries a unique run ID stamped
// into every document it emits.
func NewWriter(dir string) *Writer {
	return &Writer{dir: dir, runID: uuid.NewString()}
}

// RunID returns the writer's run identifier.
func (w *Writer) RunID() string { return w.runID }

// WriteOutcome emits signals.json, watch.json, and status.json for one run.
func (w *Writer) WriteOutcome(outcome *scan.Outcome, configEcho map[string]any) error {
	now := time.Now().UTC().Format(time.RFC3339)

	if err := w.writeJSON("signals.json", Feed{
		RunID:     w.runID,
		UpdatedAt: now,
		Count:     len(outcome.Signals),
		Records:   toRecords(outcome.Signals),
	}); err != nil {
		return err
	}

	if err := w.writeJSON("watch.json", Feed{
		RunID:     w.runID,
		UpdatedAt: now,
		Count:     len(outcome.Watch),
		Records:   toRecords(outcome.Watch),
	}); err != nil {
		return err
	}

	return w.writeJSON("status.json", Status{
		RunID:     w.runID,
		UpdatedAt: now,
		Config:    configEcho,
		Stats:     outcome.Diagnostics,
	})
}

func (w *Writer) writeJSON(name string, payload any) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("ensure dir %s: %w", w.dir, err)
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}
	path := filepath.Join(w.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// toRecords flattens internal signal records into the wire shape.
func toRecords(records []scan.SignalRecord) []Record {
	out := make([]Record, len(records))
	for i, rec := range records {
		out[i] = Record{
			Symbol:            rec.Symbol,
			ConfidenceScore:   rec.Score.Total,
			Regime:            string(rec.Regime.State),
			EntryPrice:        rec.Risk.EntryPrice,
			StopLoss:          rec.Risk.StopLoss,
			RiskPerUnit:       rec.Risk.RiskPerUnit,
			BreakoutConfirmed: rec.Breakout.Confirmed,
			BreakoutMethod:    string(rec.Breakout.Method),
			PriorRangeHigh:    rec.Breakout.PriorRangeHigh,
			VolumeSurgeRatio:  rec.Breakout.VolumeSurgeRatio,
			ScoreBreakdown:    rec.Score.Breakdown,
			TechnicalFeatures: featurePayload{
				PriceMomentum:      rec.Features.PriceMomentum,
				VolumeTrend:        rec.Features.VolumeTrend,
				TrendQuality:       rec.Features.TrendQuality,
				CorrelationWithBTC: rec.Features.CorrelationWithBTC,
				MarketStrength:     rec.Features.MarketStrength,
			},
			VolatilityRegime: rec.Features.VolatilityRegime,
		}
	}
	return out
}
