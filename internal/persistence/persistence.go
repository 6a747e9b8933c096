package persistence

import (
	"context"
	"time"

	"github.com/sellpoint/sellpoint/internal/calibration"
)

// RunRecord summarizes one calibration run for history queries.
type RunRecord struct {
	RunID       string    `json:"run_id" db:"run_id"`
	Version     string    `json:"version" db:"version"`
	Seed        int64     `json:"seed" db:"seed"`
	Within1Rate float64   `json:"within_1_rate" db:"within_1_rate"`
	Within2Rate float64   `json:"within_2_rate" db:"within_2_rate"`
	Stability   float64   `json:"stability" db:"stability"`
	GatesPassed bool      `json:"gates_passed" db:"gates_passed"`
	StartedAt   time.Time `json:"started_at" db:"started_at"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// RunRepo persists calibration run history.
type RunRepo interface {
	Insert(ctx context.Context, record RunRecord) error
	Recent(ctx context.Context, limit int) ([]RunRecord, error)
}

// BaselineRepo persists accepted baselines. It satisfies
// calibration.BaselineStore.
type BaselineRepo interface {
	Load(ctx context.Context, version string) (*calibration.Baseline, error)
	Save(ctx context.Context, baseline calibration.Baseline) error
}

// Repository bundles the store implementations behind one handle.
type Repository struct {
	Runs      RunRepo
	Baselines BaselineRepo
}

// RecordFromReport flattens a run report into its history row.
func RecordFromReport(report calibration.RunReport) RunRecord {
	return RunRecord{
		RunID:       report.RunID,
		Version:     report.Version,
		Seed:        report.Seed,
		Within1Rate: report.Golden.Within1Rate(),
		Within2Rate: report.Golden.Within2Rate(),
		Stability:   report.MonteCarlo.StabilityRate(),
		GatesPassed: report.Gates.AllPassed(),
		StartedAt:   report.StartedAt,
	}
}
