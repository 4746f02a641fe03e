// Package persistence defines the optional signal-history store. The core
// pipeline carries no cross-run state; history exists purely for later
// inspection of what each run emitted.
package persistence

import (
	"context"
	"time"
)

// SignalRow is one emitted record as stored.
type SignalRow struct {
	RunID            string    `db:"run_id"`
	CreatedAt        time.Time `db:"created_at"`
	Symbol           string    `db:"symbol"`
	Routing          string    `db:"routing"`
	Regime           string    `db:"regime"`
	ConfidenceScore  int       `db:"confidence_score"`
	EntryPrice       float64   `db:"entry_price"`
	StopLoss         float64   `db:"stop_loss"`
	VolatilityRegime string    `db:"volatility_regime"`
}

// HistoryRepo appends run results.
type HistoryRepo interface {
	InsertRun(ctx context.Context, rows []SignalRow) error
	Close() error
}
