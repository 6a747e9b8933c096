package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sellpoint/sellpoint/internal/persistence"
)

// runRepo implements RunRepo for PostgreSQL.
type runRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewRunRepo creates a PostgreSQL run-history repository.
func NewRunRepo(db *sqlx.DB, timeout time.Duration) persistence.RunRepo {
	return &runRepo{db: db, timeout: timeout}
}

// Insert appends one run's summary row.
func (r *runRepo) Insert(ctx context.Context, record persistence.RunRecord) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		INSERT INTO calibration_runs
		(run_id, version, seed, within_1_rate, within_2_rate, stability, gates_passed, started_at)
		VALUES (:run_id, :version, :seed, :within_1_rate, :within_2_rate, :stability, :gates_passed, :started_at)`

	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("insert run %s: %w", record.RunID, err)
	}
	return nil
}

// Recent lists the latest runs, newest first.
func (r *runRepo) Recent(ctx context.Context, limit int) ([]persistence.RunRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT run_id, version, seed, within_1_rate, within_2_rate, stability, gates_passed, started_at, created_at
		FROM calibration_runs
		ORDER BY started_at DESC
		LIMIT $1`

	var records []persistence.RunRecord
	if err := r.db.SelectContext(ctx, &records, query, limit); err != nil {
		return nil, fmt.Errorf("list recent runs: %w", err)
	}
	return records, nil
}
