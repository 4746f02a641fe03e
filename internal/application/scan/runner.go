package scan

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/altpilot/altpilot/internal/application"
	"github.com/altpilot/altpilot/internal/models"
)

// Runner fans the universe out over a worker pool, gathers every result or
// recorded failure, and hands the barrier output to the aggregator. No
// symbol's evaluation touches another symbol's state; the baseline closes
// are shared read-only.
type Runner struct {
	cfg        *application.Config
	evaluator  *Evaluator
	aggregator *Aggregator
}

// NewRunner wires the evaluation pipeline from one immutable config.
func NewRunner(cfg *application.Config) *Runner {
	return &Runner{
		cfg:       cfg,
		evaluator: NewEvaluator(cfg),
		aggregator: NewAggregator(
			cfg.Limits.WeakRSDecile,
			cfg.Limits.NearPRHPct,
			cfg.Limits.MaxSignals,
			cfg.Limits.MaxWatch,
		),
	}
}

// Run evaluates every symbol and returns the ranked outcome. A failing
// symbol is recorded in the diagnostics and never aborts the run.
// fetchErrs carries per-symbol failures from the feed stage so the status
// artifact reflects everything that was skipped and why.
func (r *Runner) Run(ctx context.Context, sets []SeriesSet, baseline models.TimeframeSeries, fetchErrs []error) *Outcome {
	start := time.Now()
	diags := newDiagnostics(len(sets) + len(fetchErrs))
	for _, err := range fetchErrs {
		diags.recordFailure(err)
	}
	baselineCloses := baseline.Closes()

	type evalResult struct {
		record *SignalRecord
		err    error
		symbol string
	}

	jobs := make(chan SeriesSet)
	results := make(chan evalResult, len(sets))

	workers := r.cfg.Scan.Workers
	if workers > len(sets) && len(sets) > 0 {
		workers = len(sets)
	}

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for set := range jobs {
				rec, err := r.evaluator.Evaluate(set, baselineCloses)
				results <- evalResult{record: rec, err: err, symbol: set.Symbol}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, set := range sets {
			select {
			case jobs <- set:
			case <-ctx.Done():
				return
			}
		}
	}()

	// Barrier: every evaluation lands, success or recorded failure,
	// before ranking begins.
	go func() {
		wg.Wait()
		close(results)
	}()

	var records []SignalRecord
	for res := range results {
		if res.err != nil {
			diags.recordFailure(res.err)
			log.Debug().Err(res.err).Str("symbol", res.symbol).Msg("symbol skipped")
			continue
		}
		diags.Scanned++
		records = append(records, *res.record)
	}

	outcome := r.aggregator.Aggregate(records, diags)

	log.Info().
		Int("symbols", len(sets)).
		Int("scanned", diags.Scanned).
		Int("signals", len(outcome.Signals)).
		Int("watch", len(outcome.Watch)).
		Dur("elapsed", time.Since(start)).
		Msg("scan complete")

	return outcome
}
