package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sellpoint/sellpoint/internal/calibration"
	"github.com/sellpoint/sellpoint/internal/persistence"
)

// baselineRepo implements BaselineRepo for PostgreSQL.
type baselineRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewBaselineRepo creates a PostgreSQL baseline repository.
func NewBaselineRepo(db *sqlx.DB, timeout time.Duration) persistence.BaselineRepo {
	return &baselineRepo{db: db, timeout: timeout}
}

// Save upserts the baseline for its version. Predictions travel as
// JSONB so schema churn never follows a dataset resize.
func (r *baselineRepo) Save(ctx context.Context, baseline calibration.Baseline) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	predictions, err := json.Marshal(baseline.Predictions)
	if err != nil {
		return fmt.Errorf("marshal predictions: %w", err)
	}

	query := `
		INSERT INTO calibration_baselines (version, dataset_seed, predictions, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (version) DO UPDATE SET
			dataset_seed = EXCLUDED.dataset_seed,
			predictions = EXCLUDED.predictions,
			updated_at = NOW()`

	if _, err := r.db.ExecContext(ctx, query, baseline.Version, baseline.DatasetSeed, predictions); err != nil {
		return fmt.Errorf("upsert baseline %s: %w", baseline.Version, err)
	}
	return nil
}

// Load returns the stored baseline for a version, or nil when none has
// been accepted yet.
func (r *baselineRepo) Load(ctx context.Context, version string) (*calibration.Baseline, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT version, dataset_seed, predictions
		FROM calibration_baselines
		WHERE version = $1`

	var row struct {
		Version     string `db:"version"`
		DatasetSeed int64  `db:"dataset_seed"`
		Predictions []byte `db:"predictions"`
	}
	if err := r.db.GetContext(ctx, &row, query, version); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("load baseline %s: %w", version, err)
	}

	baseline := calibration.Baseline{Version: row.Version, DatasetSeed: row.DatasetSeed}
	if err := json.Unmarshal(row.Predictions, &baseline.Predictions); err != nil {
		return nil, fmt.Errorf("decode baseline %s predictions: %w", version, err)
	}
	return &baseline, nil
}
