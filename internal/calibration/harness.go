package calibration

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	applog "github.com/sellpoint/sellpoint/internal/log"
)

// BaselineStore persists accepted baselines between runs.
type BaselineStore interface {
	Load(ctx context.Context, version string) (*Baseline, error)
	Save(ctx context.Context, baseline Baseline) error
}

// RunReport is the complete output of one calibration run.
type RunReport struct {
	RunID       string            `json:"run_id"`
	Version     string            `json:"version"`
	Seed        int64             `json:"seed"`
	StartedAt   time.Time         `json:"started_at"`
	DurationSec float64           `json:"duration_sec"`
	Golden      GoldenResult      `json:"golden"`
	MonteCarlo  MonteCarloResult  `json:"monte_carlo"`
	Regression  *RegressionResult `json:"regression,omitempty"`
	Gates       GateReport        `json:"gates"`
}

// HarnessConfig wires one calibration run.
type HarnessConfig struct {
	Version      string
	Seed         int64
	Dataset      DatasetSpec
	MonteCarlo   MonteCarloSpec
	Gates        GateThresholds
	ScenarioPath string // optional authored battery
	Quiet        bool   // suppress console progress
	SaveBaseline bool   // persist this run's predictions on completion
}

// Harness orchestrates dataset generation, golden evaluation, the
// Monte Carlo sweep, baseline regression and gate grading.
type Harness struct {
	engine    Engine
	truth     *GroundTruth
	baselines BaselineStore // nil disables regression
	metrics   *Metrics      // nil disables publication
}

// NewHarness assembles a harness. baselines and metrics are optional.
func NewHarness(engine Engine, truth *GroundTruth, baselines BaselineStore, metrics *Metrics) *Harness {
	return &Harness{engine: engine, truth: truth, baselines: baselines, metrics: metrics}
}

// Run executes a full calibration pass. Gate failures are reported in
// the result, never as an error; errors cover only infrastructure
// faults such as an unreadable scenario file.
func (h *Harness) Run(ctx context.Context, runID string, cfg HarnessConfig) (RunReport, error) {
	started := time.Now()
	report := RunReport{RunID: runID, Version: cfg.Version, Seed: cfg.Seed, StartedAt: started}

	log.Info().
		Str("run_id", runID).
		Str("version", cfg.Version).
		Int64("seed", cfg.Seed).
		Int("cases", cfg.Dataset.Total()).
		Msg("calibration run starting")

	generator := NewDatasetGenerator(cfg.Seed, h.truth)
	dataset := generator.Generate(cfg.Version, cfg.Dataset)

	if cfg.ScenarioPath != "" {
		authored, err := LoadScenarios(cfg.ScenarioPath, h.truth)
		if err != nil {
			return report, err
		}
		dataset.Cases = append(dataset.Cases, authored...)
		log.Info().Int("authored", len(authored)).Msg("scenario battery loaded")
	}

	evaluator := NewEvaluator(h.engine, h.truth)
	report.Golden = evaluator.EvaluateGolden(dataset)

	progress := applog.NewProgressIndicator("monte carlo", cfg.MonteCarlo.Runs, cfg.Quiet)
	mc := NewMonteCarlo(evaluator, cfg.MonteCarlo, func(done, total int) { progress.Update(done) })
	mcResult, err := mc.Run(ctx, cfg.Seed, monteCarloBases(dataset))
	if err != nil {
		progress.Fail(err.Error())
		return report, err
	}
	progress.Finish()
	report.MonteCarlo = mcResult

	if h.baselines != nil {
		baseline, err := h.baselines.Load(ctx, cfg.Version)
		if err != nil {
			log.Warn().Err(err).Msg("baseline unavailable, skipping regression")
		} else if baseline != nil {
			regression := CompareBaseline(*baseline, report.Golden)
			report.Regression = &regression
		}
	}

	report.Gates = EvaluateGates(cfg.Gates, report.Golden, report.MonteCarlo, report.Regression)
	report.DurationSec = time.Since(started).Seconds()

	if h.metrics != nil {
		h.metrics.RecordRun(report.Golden, report.MonteCarlo, report.Regression, report.Gates)
	}

	if h.baselines != nil && cfg.SaveBaseline && report.Gates.AllPassed() {
		next := BaselineFromGolden(cfg.Version, cfg.Seed, report.Golden)
		if err := h.baselines.Save(ctx, next); err != nil {
			log.Warn().Err(err).Msg("baseline save failed")
		}
	}

	log.Info().
		Str("run_id", runID).
		Bool("gates_passed", report.Gates.AllPassed()).
		Strs("failed", report.Gates.Failed()).
		Float64("duration_sec", report.DurationSec).
		Msg("calibration run complete")

	return report, nil
}

// monteCarloBases picks the non-edge populations as perturbation bases.
// Edge cases already encode extreme conditions; jittering them grades
// noise on noise.
func monteCarloBases(dataset Dataset) []Case {
	var bases []Case
	for _, c := range dataset.Cases {
		if c.Kind != KindEdge {
			bases = append(bases, c)
		}
	}
	if len(bases) == 0 {
		return dataset.Cases
	}
	return bases
}
