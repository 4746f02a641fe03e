package scan

import (
	"github.com/altpilot/altpilot/internal/application"
	"github.com/altpilot/altpilot/internal/domain/breakout"
	"github.com/altpilot/altpilot/internal/domain/divergence"
	"github.com/altpilot/altpilot/internal/domain/features"
	"github.com/altpilot/altpilot/internal/domain/indicator"
	"github.com/altpilot/altpilot/internal/domain/regime"
	"github.com/altpilot/altpilot/internal/domain/risk"
	"github.com/altpilot/altpilot/internal/domain/scoring"
	"github.com/altpilot/altpilot/internal/models"
)

// Evaluator runs the full single-symbol pipeline: indicators, regime,
// breakout, risk, divergence, score, features. It reads only the symbol's
// own series plus the shared read-only baseline, so evaluations are safe
// to run concurrently.
type Evaluator struct {
	cfg       *application.Config
	windows   indicator.Windows
	regime    *regime.Detector
	breakout  *breakout.Validator
	risk      *risk.Model
	diverge   *divergence.Filter
	scorer    *scoring.Scorer
	extractor *features.Extractor
}

// NewEvaluator wires the domain components from one immutable config.
func NewEvaluator(cfg *application.Config) *Evaluator {
	windows := indicator.DefaultWindows()
	windows.DonchianLookback = cfg.Regime.DonchianLookback
	windows.VolumeMedianLook = cfg.Features.VolumeLongWindow

	return &Evaluator{
		cfg:      cfg,
		windows:  windows,
		regime:   regime.NewDetector(cfg.Regime.SlopeWindow, cfg.Regime.MinTrendStrength, cfg.Regime.RSLookback),
		breakout: breakout.NewValidator(cfg.Breakout.SurgeThreshold, cfg.Breakout.SurgeLookback, cfg.Breakout.RetestBps, cfg.Breakout.ConfirmationBars),
		risk:     risk.NewModel(cfg.Risk.SwingLookback, cfg.Risk.ATRMultipliers),
		diverge:  divergence.NewFilter(cfg.Diverge.Lookback, cfg.Diverge.MinRSIDelta),
		scorer:   scoring.NewScorer(cfg.Breakout.SurgeThreshold, cfg.Diverge.Penalty, cfg.Diverge.OverrideStrength),
		extractor: features.NewExtractor(
			cfg.Features.MomentumLookback,
			cfg.Features.VolumeShortWindow,
			cfg.Features.VolumeLongWindow,
			cfg.Features.CorrelationLookback,
			cfg.Features.VolLowPercentile,
			cfg.Features.VolHighPercentile,
		),
	}
}

// Evaluate produces one SignalRecord. Routing is provisional: the weak
// regime cap needs cross-symbol relative-strength ranks, so the aggregator
// finalizes it.
func (e *Evaluator) Evaluate(set SeriesSet, baseline4HCloses []float64) (*SignalRecord, error) {
	if err := e.checkHistory(set); err != nil {
		return nil, err
	}

	daily, err := indicator.Compute(set.Daily, e.windows)
	if err != nil {
		return nil, err
	}
	fourH, err := indicator.Compute(set.FourH, e.windows)
	if err != nil {
		return nil, err
	}
	oneH, err := indicator.Compute(set.OneH, e.windows)
	if err != nil {
		return nil, err
	}
	if err := set.M15.Validate(); err != nil {
		return nil, err
	}

	prh, err := indicator.PriorRangeHigh(set.OneH.Bars, e.cfg.Breakout.PRHMinLookback, e.cfg.Breakout.PRHMaxLookback)
	if err != nil {
		return nil, err
	}

	reg := e.regime.Detect(daily, fourH, baseline4HCloses)

	brk, err := e.breakout.Evaluate(set.M15.Bars, prh)
	if err != nil {
		return nil, err
	}

	riskParams, err := e.risk.Compute(set.M15.Bars, set.M15.Last().Close, oneH.LastATR(), reg.State)
	if err != nil {
		return nil, err
	}

	div := e.diverge.Detect(oneH)
	score := e.scorer.Combine(reg, brk, div)

	feats, err := e.extractor.Extract(fourH, oneH, baseline4HCloses)
	if err != nil {
		return nil, err
	}

	return &SignalRecord{
		Symbol:   set.Symbol,
		Regime:   reg,
		Breakout: brk,
		Risk:     riskParams,
		Score:    score,
		Features: feats,
		Routing:  routeByScore(score.Total),
	}, nil
}

func (e *Evaluator) checkHistory(set SeriesSet) error {
	min := e.cfg.Candles.MinHistory
	for _, s := range []models.TimeframeSeries{set.Daily, set.FourH, set.OneH, set.M15} {
		if s.Len() < min {
			return &models.InsufficientHistoryError{
				Indicator: "series_" + string(s.Timeframe),
				Need:      min,
				Have:      s.Len(),
			}
		}
	}
	return nil
}

// routeByScore applies the fixed routing thresholds. The weak-regime cap
// is applied afterwards by the aggregator.
func routeByScore(score int) Routing {
	switch {
	case score >= scoring.SignalThreshold:
		return RouteSignal
	case score >= scoring.WatchThreshold:
		return RouteWatch
	default:
		return RouteRejected
	}
}
