package main

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/altpilot/altpilot/internal/application"
	"github.com/altpilot/altpilot/internal/application/scan"
	"github.com/altpilot/altpilot/internal/artifacts"
	"github.com/altpilot/altpilot/internal/data/cache"
	"github.com/altpilot/altpilot/internal/datasources/kucoin"
	"github.com/altpilot/altpilot/internal/metrics"
	"github.com/altpilot/altpilot/internal/persistence"
	"github.com/altpilot/altpilot/internal/persistence/postgres"
	"github.com/altpilot/altpilot/internal/universe"
)

func runScan(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := application.LoadConfig(configPath)
	if err != nil {
		return err
	}
	if out, _ := cmd.Flags().GetString("output"); out != "" {
		cfg.Artifacts.OutputDir = out
	}
	if maxSymbols, _ := cmd.Flags().GetInt("max-symbols"); maxSymbols > 0 {
		cfg.Universe.TopNByVolume = maxSymbols
	}

	registry := metrics.NewRegistry()
	client := kucoin.NewClient()
	feeder := scan.NewFeeder(client, cache.New(cfg.Cache.RedisAddr), cfg, registry)
	selector := universe.NewSelector(client, cfg.Universe.Quote, cfg.Universe.TopNByVolume, cfg.Universe.FallbackSymbols)

	start := time.Now()

	symbols, err := selector.Select(ctx)
	if err != nil {
		return err
	}
	log.Info().Int("universe", len(symbols)).Str("quote", cfg.Universe.Quote).Msg("universe selected")

	baseline, err := feeder.LoadBaseline(ctx)
	if err != nil {
		return err
	}

	sets, fetchErrs := loadUniverse(ctx, feeder, symbols)

	outcome := scan.NewRunner(cfg).Run(ctx, sets, baseline, fetchErrs)

	registry.ScansTotal.Inc()
	registry.SymbolsScanned.Add(float64(outcome.Diagnostics.Scanned))
	registry.ScanDuration.Observe(time.Since(start).Seconds())
	for reason, n := range outcome.Diagnostics.Failures {
		registry.Rejections.WithLabelValues(reason).Add(float64(n))
	}

	writer := artifacts.NewWriter(cfg.Artifacts.OutputDir)
	if err := writer.WriteOutcome(outcome, configEcho(cfg)); err != nil {
		return err
	}
	log.Info().
		Str("run_id", writer.RunID()).
		Str("dir", cfg.Artifacts.OutputDir).
		Int("signals", len(outcome.Signals)).
		Int("watch", len(outcome.Watch)).
		Msg("artifacts written")

	if cfg.Database.DSN != "" {
		if err := persistRun(ctx, cfg.Database.DSN, writer.RunID(), outcome); err != nil {
			// History is best effort; the artifacts are the contract.
			log.Warn().Err(err).Msg("signal history not recorded")
		}
	}
	return nil
}

// loadUniverse fetches every symbol's series sets, collecting per-symbol
// failures instead of aborting.
func loadUniverse(ctx context.Context, feeder *scan.Feeder, symbols []string) ([]scan.SeriesSet, []error) {
	var sets []scan.SeriesSet
	var failures []error
	for _, symbol := range symbols {
		if ctx.Err() != nil {
			break
		}
		set, err := feeder.Load(ctx, symbol)
		if err != nil {
			log.Debug().Err(err).Str("symbol", symbol).Msg("fetch failed")
			failures = append(failures, err)
			continue
		}
		sets = append(sets, set)
	}
	return sets, failures
}

func persistRun(ctx context.Context, dsn, runID string, outcome *scan.Outcome) error {
	repo, err := postgres.NewHistoryRepo(dsn)
	if err != nil {
		return err
	}
	defer repo.Close()

	var rows []persistence.SignalRow
	for _, bucket := range [][]scan.SignalRecord{outcome.Signals, outcome.Watch} {
		for _, rec := range bucket {
			rows = append(rows, persistence.SignalRow{
				RunID:            runID,
				Symbol:           rec.Symbol,
				Routing:          string(rec.Routing),
				Regime:           string(rec.Regime.State),
				ConfidenceScore:  rec.Score.Total,
				EntryPrice:       rec.Risk.EntryPrice,
				StopLoss:         rec.Risk.StopLoss,
				VolatilityRegime: string(rec.Features.VolatilityRegime),
			})
		}
	}
	return repo.InsertRun(ctx, rows)
}

// configEcho mirrors the knobs that matter into the status artifact.
func configEcho(cfg *application.Config) map[string]any {
	return map[string]any{
		"top_n_by_volume":        cfg.Universe.TopNByVolume,
		"baseline_symbol":        cfg.Universe.BaselineSymbol,
		"donchian_lookback":      cfg.Regime.DonchianLookback,
		"min_trend_strength":     cfg.Regime.MinTrendStrength,
		"rs_lookback_4h":         cfg.Regime.RSLookback,
		"confirmation_bars":      cfg.Breakout.ConfirmationBars,
		"retest_bps":             cfg.Breakout.RetestBps,
		"volume_surge_threshold": cfg.Breakout.SurgeThreshold,
		"atr_multipliers":        cfg.Risk.ATRMultipliers,
		"max_signals":            cfg.Limits.MaxSignals,
		"max_watch":              cfg.Limits.MaxWatch,
	}
}
