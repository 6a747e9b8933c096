package main

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"
)

const (
	appName = "sellpoint"
	version = "v1.2.0"
)

func main() {
	// .env is optional; real deployments configure via flags or the
	// environment directly.
	_ = godotenv.Load()

	zerolog.TimeFieldFormat = time.RFC3339
	if term.IsTerminal(int(os.Stderr.Fd())) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}

	rootCmd := &cobra.Command{
		Use:     appName,
		Version: version,
		Short:   "Vehicle resale timing engine",
		Long: `sellpoint projects vehicle equity month by month and answers one
question: when is the best time to sell this car?

It combines a depreciation model, a loan settlement model and an
optimal-month scorer, optionally anchored to live market valuations.`,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			if debug, _ := cmd.Flags().GetBool("debug"); debug {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			} else {
				zerolog.SetGlobalLevel(zerolog.InfoLevel)
			}
		},
	}
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().String("config", "", "Policy overrides file (YAML)")

	// Accept snake_case flag spellings from older wrappers.
	rootCmd.SetGlobalNormalizationFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	analyzeCmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze one vehicle and print its sell recommendation",
		Long:  "Loads a vehicle finance profile, projects the equity curve and prints the recommended sell window",
		RunE:  runAnalyze,
	}
	analyzeCmd.Flags().String("profile", "", "Vehicle finance profile file (YAML, required)")
	analyzeCmd.Flags().String("registration", "", "Registration plate for a market valuation lookup")
	analyzeCmd.Flags().String("provider-url", os.Getenv("SELLPOINT_PROVIDER_URL"), "Market valuation provider base URL")
	analyzeCmd.Flags().String("redis-addr", os.Getenv("SELLPOINT_REDIS_ADDR"), "Redis address for valuation caching")
	analyzeCmd.Flags().Bool("json", false, "Emit the full projection as JSON instead of a summary")
	_ = analyzeCmd.MarkFlagRequired("profile")

	calibrateCmd := &cobra.Command{
		Use:   "calibrate",
		Short: "Run the calibration harness against synthetic populations",
		Long:  "Generates seeded datasets, grades the engine against simulated ground truth, sweeps perturbations and reports release gates",
		RunE:  runCalibrate,
	}
	calibrateCmd.Flags().Int64("seed", 1, "Dataset and sweep seed")
	calibrateCmd.Flags().String("dataset-version", "v1", "Dataset version label")
	calibrateCmd.Flags().Int("mc-runs", 10000, "Monte Carlo perturbation count")
	calibrateCmd.Flags().String("scenarios", "", "Authored scenario battery (YAML)")
	calibrateCmd.Flags().String("artifacts", "artifacts", "Artifact output directory")
	calibrateCmd.Flags().Bool("save-baseline", false, "Persist predictions as the regression baseline on a green run")
	calibrateCmd.Flags().String("pg-dsn", os.Getenv("SELLPOINT_PG_DSN"), "PostgreSQL DSN for run history and baselines")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the analysis API",
		Long:  "Starts the HTTP server with /v1/analyze, /v1/projection, /health and /metrics endpoints",
		RunE:  runServe,
	}
	serveCmd.Flags().String("host", "127.0.0.1", "Bind host")
	serveCmd.Flags().Int("port", 8080, "Bind port")
	serveCmd.Flags().String("provider-url", os.Getenv("SELLPOINT_PROVIDER_URL"), "Market valuation provider base URL")
	serveCmd.Flags().String("redis-addr", os.Getenv("SELLPOINT_REDIS_ADDR"), "Redis address for valuation caching")

	rootCmd.AddCommand(analyzeCmd, calibrateCmd, serveCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}
