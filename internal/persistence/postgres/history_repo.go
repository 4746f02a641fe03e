// Package postgres implements the signal-history store on PostgreSQL.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/altpilot/altpilot/internal/persistence"
)

const schema = `
CREATE TABLE IF NOT EXISTS signal_history (
	run_id            TEXT        NOT NULL,
	created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
	symbol            TEXT        NOT NULL,
	routing           TEXT        NOT NULL,
	regime            TEXT        NOT NULL,
	confidence_score  INTEGER     NOT NULL,
	entry_price       DOUBLE PRECISION NOT NULL,
	stop_loss         DOUBLE PRECISION NOT NULL,
	volatility_regime TEXT        NOT NULL,
	PRIMARY KEY (run_id, symbol)
)`

type historyRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewHistoryRepo connects and ensures the schema exists.
func NewHistoryRepo(dsn string) (persistence.HistoryRepo, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return &historyRepo{db: db, timeout: 10 * time.Second}, nil
}

// InsertRun appends one run's emitted records.
func (r *historyRepo) InsertRun(ctx context.Context, rows []persistence.SignalRow) error {
	if len(rows) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		INSERT INTO signal_history
		(run_id, symbol, routing, regime, confidence_score, entry_price, stop_loss, volatility_regime)
		VALUES (:run_id, :symbol, :routing, :regime, :confidence_score, :entry_price, :stop_loss, :volatility_regime)
		ON CONFLICT (run_id, symbol) DO NOTHING`

	if _, err := r.db.NamedExecContext(ctx, query, rows); err != nil {
		return fmt.Errorf("insert signal history: %w", err)
	}
	return nil
}

func (r *historyRepo) Close() error { return r.db.Close() }
