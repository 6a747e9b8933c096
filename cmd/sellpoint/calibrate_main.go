package main

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sellpoint/sellpoint/internal/artifacts"
	"github.com/sellpoint/sellpoint/internal/calibration"
	"github.com/sellpoint/sellpoint/internal/engine"
	"github.com/sellpoint/sellpoint/internal/persistence"
	"github.com/sellpoint/sellpoint/internal/persistence/postgres"
	"github.com/sellpoint/sellpoint/internal/settlement"
	"github.com/sellpoint/sellpoint/internal/valuation"
)

func runCalibrate(cmd *cobra.Command, _ []string) error {
	seed, _ := cmd.Flags().GetInt64("seed")
	datasetVersion, _ := cmd.Flags().GetString("dataset-version")
	mcRuns, _ := cmd.Flags().GetInt("mc-runs")
	scenarioPath, _ := cmd.Flags().GetString("scenarios")
	artifactDir, _ := cmd.Flags().GetString("artifacts")
	saveBaseline, _ := cmd.Flags().GetBool("save-baseline")
	dsn, _ := cmd.Flags().GetString("pg-dsn")

	policies, err := policiesFromCmd(cmd)
	if err != nil {
		return err
	}

	truth := calibration.NewGroundTruth(
		valuation.NewModel(policies.Valuation),
		settlement.NewModel(policies.Rebate),
	)

	store, err := artifacts.NewStore(artifactDir)
	if err != nil {
		return err
	}

	var baselines calibration.BaselineStore
	var repos *persistence.Repository
	if dsn != "" {
		db, err := postgres.Connect(cmd.Context(), postgres.Config{DSN: dsn, Enabled: true})
		if err != nil {
			return err
		}
		defer db.Close()
		repos = postgres.NewRepository(db, 0)
		baselines = repos.Baselines
	}

	registry := prometheus.NewRegistry()
	metrics := calibration.NewMetrics(registry)

	mcSpec := calibration.DefaultMonteCarloSpec()
	mcSpec.Runs = mcRuns

	cfg := calibration.HarnessConfig{
		Version:      datasetVersion,
		Seed:         seed,
		Dataset:      calibration.DefaultDatasetSpec(),
		MonteCarlo:   mcSpec,
		Gates:        calibration.DefaultGateThresholds(),
		ScenarioPath: scenarioPath,
		SaveBaseline: saveBaseline,
	}

	harness := calibration.NewHarness(engine.New(policies), truth, baselines, metrics)

	runID := artifacts.NewRunID()
	report, err := harness.Run(cmd.Context(), runID, cfg)
	if err != nil {
		return err
	}

	if _, err := store.Write(runID, "report", datasetVersion, report); err != nil {
		return err
	}
	if repos != nil {
		if err := repos.Runs.Insert(cmd.Context(), persistence.RecordFromReport(report)); err != nil {
			log.Warn().Err(err).Msg("run history insert failed")
		}
	}

	printGateReport(report)
	return nil
}

func printGateReport(report calibration.RunReport) {
	fmt.Printf("Run %s (%s, seed %d)\n", report.RunID, report.Version, report.Seed)
	fmt.Printf("  golden: %d cases, within-1 %.1f%%, within-2 %.1f%%, MAE %.2f\n",
		report.Golden.Total,
		report.Golden.Within1Rate()*100,
		report.Golden.Within2Rate()*100,
		report.Golden.MeanAbsError)
	fmt.Printf("  monte carlo: %d runs, stability %.1f%%, false positives %.2f%%\n",
		report.MonteCarlo.Runs,
		report.MonteCarlo.StabilityRate()*100,
		report.MonteCarlo.FalsePositiveRate()*100)
	if report.Regression != nil {
		fmt.Printf("  regression: %d compared, MAE %.2f, worst %d\n",
			report.Regression.Compared,
			report.Regression.MeanAbsDrift,
			report.Regression.WorstDrift)
	}
	for _, g := range report.Gates.Gates {
		mark := "PASS"
		if !g.Passed {
			mark = "FAIL"
		}
		fmt.Printf("  [%s] %-20s %.4f (threshold %.4f)\n", mark, g.Name, g.Value, g.Threshold)
	}
}
