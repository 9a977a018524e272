// Package persistence stores run artifacts (ranked scores and composed
// allocations) in Postgres. It is optional plumbing: the engine runs
// fully in memory and only persists when a DSN is configured.
package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/coinpilot/coinpilot/internal/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id      TEXT PRIMARY KEY,
	tolerance   TEXT NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS coin_scores (
	run_id            TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
	coin_id           TEXT NOT NULL,
	symbol            TEXT NOT NULL,
	technical_score   DOUBLE PRECISION NOT NULL,
	momentum_score    DOUBLE PRECISION NOT NULL,
	volume_score      DOUBLE PRECISION NOT NULL,
	volatility_score  DOUBLE PRECISION NOT NULL,
	fundamental_score DOUBLE PRECISION NOT NULL,
	total_score       DOUBLE PRECISION NOT NULL,
	trend             TEXT NOT NULL,
	confidence        DOUBLE PRECISION NOT NULL,
	PRIMARY KEY (run_id, coin_id)
);

CREATE TABLE IF NOT EXISTS allocations (
	run_id         TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
	coin_id        TEXT NOT NULL,
	symbol         TEXT NOT NULL,
	name           TEXT NOT NULL,
	role           TEXT NOT NULL,
	bucket         TEXT NOT NULL,
	allocation_pct DOUBLE PRECISION NOT NULL,
	PRIMARY KEY (run_id, coin_id)
);
`

// Store persists run artifacts.
type Store struct {
	db *sqlx.DB
}

// Open connects to Postgres and ensures the schema exists.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveRun writes one run with its scores and allocation in a single
// transaction.
func (s *Store) SaveRun(ctx context.Context, runID string, tolerance string, scores []models.CoinScore, allocation []models.AllocationItem) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (run_id, tolerance, created_at) VALUES ($1, $2, $3)`,
		runID, tolerance, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	for _, sc := range scores {
		if _, err := tx.NamedExecContext(ctx, `
			INSERT INTO coin_scores (
				run_id, coin_id, symbol,
				technical_score, momentum_score, volume_score,
				volatility_score, fundamental_score, total_score,
				trend, confidence
			) VALUES (
				:run_id, :coin_id, :symbol,
				:technical_score, :momentum_score, :volume_score,
				:volatility_score, :fundamental_score, :total_score,
				:trend, :confidence
			)`, scoreRow{RunID: runID, CoinScore: sc}); err != nil {
			return fmt.Errorf("failed to insert score for %s: %w", sc.CoinID, err)
		}
	}

	for _, item := range allocation {
		if _, err := tx.NamedExecContext(ctx, `
			INSERT INTO allocations (
				run_id, coin_id, symbol, name, role, bucket, allocation_pct
			) VALUES (
				:run_id, :coin_id, :symbol, :name, :role, :bucket, :allocation_pct
			)`, allocationRow{RunID: runID, AllocationItem: item}); err != nil {
			return fmt.Errorf("failed to insert allocation for %s: %w", item.CoinID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}

	log.Info().
		Str("run_id", runID).
		Int("scores", len(scores)).
		Int("allocations", len(allocation)).
		Msg("Run persisted")

	return nil
}

// TopScores returns the highest-scoring rows of one run.
func (s *Store) TopScores(ctx context.Context, runID string, limit int) ([]models.CoinScore, error) {
	var rows []models.CoinScore
	err := s.db.SelectContext(ctx, &rows, `
		SELECT coin_id, symbol,
		       technical_score, momentum_score, volume_score,
		       volatility_score, fundamental_score, total_score,
		       trend, confidence
		FROM coin_scores
		WHERE run_id = $1
		ORDER BY total_score DESC
		LIMIT $2`, runID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query scores: %w", err)
	}
	return rows, nil
}

type scoreRow struct {
	RunID string `db:"run_id"`
	models.CoinScore
}

type allocationRow struct {
	RunID string `db:"run_id"`
	models.AllocationItem
}
