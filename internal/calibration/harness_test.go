package calibration_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sellpoint/sellpoint/internal/calibration"
	"github.com/sellpoint/sellpoint/internal/engine"
	"github.com/sellpoint/sellpoint/internal/settlement"
	"github.com/sellpoint/sellpoint/internal/valuation"
)

func testTruth() *calibration.GroundTruth {
	return calibration.NewGroundTruth(
		valuation.NewModel(valuation.DefaultPolicy()),
		settlement.NewModel(settlement.DefaultRebatePolicy()),
	)
}

type memoryBaselines struct {
	stored map[string]calibration.Baseline
}

func (m *memoryBaselines) Load(_ context.Context, version string) (*calibration.Baseline, error) {
	b, ok := m.stored[version]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

func (m *memoryBaselines) Save(_ context.Context, b calibration.Baseline) error {
	if m.stored == nil {
		m.stored = map[string]calibration.Baseline{}
	}
	m.stored[b.Version] = b
	return nil
}

func smallConfig() calibration.HarnessConfig {
	return calibration.HarnessConfig{
		Version: "test",
		Seed:    42,
		Dataset: calibration.DatasetSpec{Normal: 8, Balloon: 4, EV: 2, Edge: 6},
		MonteCarlo: calibration.MonteCarloSpec{
			Runs:          50,
			Workers:       4,
			MileageJitter: 0.2,
			ShockJitter:   0.1,
			APRJitterPct:  1,
			DepositMaxPct: 0.1,
		},
		Gates: calibration.DefaultGateThresholds(),
		Quiet: true,
	}
}

func TestEvaluator_GradesEveryCase(t *testing.T) {
	truth := testTruth()
	dataset := calibration.NewDatasetGenerator(5, truth).Generate("v1", calibration.DatasetSpec{Normal: 10})

	result := calibration.NewEvaluator(engine.Default(), truth).EvaluateGolden(dataset)

	require.Equal(t, 10, result.Total)
	require.Len(t, result.Outcomes, 10)
	for _, o := range result.Outcomes {
		assert.GreaterOrEqual(t, o.AbsError, 0)
		assert.NotEmpty(t, o.CaseID)
	}
	assert.Equal(t, result.Within1 <= result.Within2, true, "within-1 cases are a subset of within-2")
}

func TestMonteCarlo_SameSeedSameAggregate(t *testing.T) {
	truth := testTruth()
	dataset := calibration.NewDatasetGenerator(9, truth).Generate("v1", calibration.DatasetSpec{Normal: 5})
	evaluator := calibration.NewEvaluator(engine.Default(), truth)
	spec := smallConfig().MonteCarlo

	first, err := calibration.NewMonteCarlo(evaluator, spec, nil).Run(context.Background(), 123, dataset.Cases)
	require.NoError(t, err)
	second, err := calibration.NewMonteCarlo(evaluator, spec, nil).Run(context.Background(), 123, dataset.Cases)
	require.NoError(t, err)

	assert.Equal(t, first, second, "sweep must be reproducible from its seed")
	assert.Equal(t, spec.Runs, first.Runs)
}

func TestMonteCarlo_CancelStopsEarly(t *testing.T) {
	truth := testTruth()
	dataset := calibration.NewDatasetGenerator(9, truth).Generate("v1", calibration.DatasetSpec{Normal: 2})
	evaluator := calibration.NewEvaluator(engine.Default(), truth)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	spec := smallConfig().MonteCarlo
	spec.Runs = 10000
	result, err := calibration.NewMonteCarlo(evaluator, spec, nil).Run(ctx, 1, dataset.Cases)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, result.Runs, spec.Runs)
}

func TestHarness_RunProducesFullReport(t *testing.T) {
	truth := testTruth()
	harness := calibration.NewHarness(engine.Default(), truth, nil, nil)

	report, err := harness.Run(context.Background(), "run-1", smallConfig())
	require.NoError(t, err)

	assert.Equal(t, "run-1", report.RunID)
	assert.Equal(t, 20, report.Golden.Total)
	assert.Equal(t, 50, report.MonteCarlo.Runs)
	assert.Nil(t, report.Regression, "no baseline store, no regression")
	assert.NotEmpty(t, report.Gates.Gates)
	assert.Greater(t, report.DurationSec, 0.0)
}

func TestHarness_BaselineRoundTrip(t *testing.T) {
	truth := testTruth()
	store := &memoryBaselines{}
	harness := calibration.NewHarness(engine.Default(), truth, store, nil)

	cfg := smallConfig()

	first, err := harness.Run(context.Background(), "run-1", cfg)
	require.NoError(t, err)
	require.Nil(t, first.Regression)

	require.NoError(t, store.Save(context.Background(),
		calibration.BaselineFromGolden(cfg.Version, cfg.Seed, first.Golden)))

	second, err := harness.Run(context.Background(), "run-2", cfg)
	require.NoError(t, err)
	require.NotNil(t, second.Regression)

	// Identical config and seed: a deterministic engine cannot drift
	// against its own predictions.
	assert.Zero(t, second.Regression.MeanAbsDrift)
	assert.Zero(t, second.Regression.WorstDrift)
}

// The shipping criteria must hold on the default population: the golden
// accuracy bands, zero premature calls, Monte Carlo stability and the
// false-positive ceiling, all at their default thresholds.
func TestHarness_DefaultDatasetPassesShippingGates(t *testing.T) {
	if testing.Short() {
		t.Skip("full-population calibration run")
	}

	truth := testTruth()
	store := &memoryBaselines{}
	harness := calibration.NewHarness(engine.Default(), truth, store, nil)

	mc := calibration.DefaultMonteCarloSpec()
	mc.Runs = 2000

	cfg := calibration.HarnessConfig{
		Version:      "v1",
		Seed:         1,
		Dataset:      calibration.DefaultDatasetSpec(),
		MonteCarlo:   mc,
		Gates:        calibration.DefaultGateThresholds(),
		Quiet:        true,
		SaveBaseline: true,
	}

	report, err := harness.Run(context.Background(), "run-gates", cfg)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, report.Golden.Within1Rate(), 0.88, "within-1 accuracy")
	assert.GreaterOrEqual(t, report.Golden.Within2Rate(), 0.95, "within-2 accuracy")
	assert.Zero(t, report.Golden.PrematureCalls, "premature optimal_now calls")
	assert.GreaterOrEqual(t, report.MonteCarlo.StabilityRate(), 0.88, "perturbation stability")
	assert.LessOrEqual(t, report.MonteCarlo.FalsePositiveRate(), 0.01, "false-positive rate")
	assert.True(t, report.Gates.AllPassed(), "failed gates: %v", report.Gates.Failed())

	// A green run persists its predictions as the next baseline.
	saved, err := store.Load(context.Background(), cfg.Version)
	require.NoError(t, err)
	assert.NotNil(t, saved)
}

func TestHarness_LoadsScenarioBattery(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scenarios.yaml")
	yaml := `version: v1
scenarios:
  - name: shock-recovery
    kind: edge
    edge_category: market_shock
    seed: 77
    value_shock: 0.85
    profile:
      purchase_price: 30000
      category: economy
      finance_kind: installment
      principal: 27000
      monthly_payment: 521.99
      annual_rate_pct: 6
      term_months: 60
      months_elapsed: 12
      current_mileage: 10000
      expected_annual_miles: 10000
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	truth := testTruth()
	cases, err := calibration.LoadScenarios(path, truth)
	require.NoError(t, err)
	require.Len(t, cases, 1)

	assert.Equal(t, "scenario-shock-recovery", cases[0].ID)
	assert.Equal(t, calibration.EdgeMarketShock, cases[0].EdgeCategory)
	assert.Greater(t, cases[0].GroundTruthMonth, 0, "truth derived when omitted")

	cfg := smallConfig()
	cfg.ScenarioPath = path
	report, err := calibration.NewHarness(engine.Default(), truth, nil, nil).Run(context.Background(), "run-s", cfg)
	require.NoError(t, err)
	assert.Equal(t, 21, report.Golden.Total, "authored battery joins the generated cases")
}

func TestLoadScenarios_RejectsAnonymous(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("scenarios:\n  - kind: edge\n"), 0o644))

	_, err := calibration.LoadScenarios(path, testTruth())
	assert.ErrorContains(t, err, "missing name")
}

func TestMetrics_RecordAndReadBack(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := calibration.NewMetrics(registry)

	golden := calibration.GoldenResult{Total: 100, Within1: 90, Within2: 96}
	mc := calibration.MonteCarloResult{Runs: 1000, Within3: 920, FalsePositives: 3}
	report := calibration.EvaluateGates(calibration.DefaultGateThresholds(), golden, mc, nil)

	metrics.RecordRun(golden, mc, nil, report)

	within1, err := calibration.GaugeValue(registry, "sellpoint_calibration_accuracy", "band", "within_1")
	require.NoError(t, err)
	assert.InDelta(t, 0.90, within1, 1e-9)

	stability, err := calibration.GaugeValue(registry, "sellpoint_calibration_mc_stability", "", "")
	require.NoError(t, err)
	assert.InDelta(t, 0.92, stability, 1e-9)

	_, err = calibration.GaugeValue(registry, "sellpoint_no_such_metric", "", "")
	assert.Error(t, err)
}
