package main

import (
	"fmt"
	"os"
	"time"

	json "github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"

	"github.com/sellpoint/sellpoint/internal/config"
	"github.com/sellpoint/sellpoint/internal/domain"
	"github.com/sellpoint/sellpoint/internal/engine"
	"github.com/sellpoint/sellpoint/internal/snapshot"
)

// profileFile is the on-disk analyze input: the profile plus an
// optional inline market snapshot.
type profileFile struct {
	Profile  domain.VehicleFinanceProfile    `yaml:"profile"`
	Snapshot *domain.MarketValuationSnapshot `yaml:"snapshot"`
}

func runAnalyze(cmd *cobra.Command, _ []string) error {
	profilePath, _ := cmd.Flags().GetString("profile")
	registration, _ := cmd.Flags().GetString("registration")
	asJSON, _ := cmd.Flags().GetBool("json")

	policies, err := policiesFromCmd(cmd)
	if err != nil {
		return err
	}

	input, err := loadProfileFile(profilePath)
	if err != nil {
		return err
	}

	snap := input.Snapshot
	if snap == nil && registration != "" {
		if source := snapshotSourceFromCmd(cmd); source != nil {
			snap, err = source.Fetch(cmd.Context(), registration, input.Profile.CurrentMileage)
			if err != nil {
				log.Warn().Err(err).Str("registration", registration).Msg("valuation lookup failed, using formula only")
				snap = nil
			}
		}
	}

	pipeline := engine.New(policies)
	series, rec := pipeline.Analyze(input.Profile, snap)

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{"recommendation": rec, "projection": series})
	}

	printRecommendation(rec, series)
	return nil
}

func printRecommendation(rec domain.SellRecommendation, series []domain.MonthlyProjection) {
	fmt.Printf("Status:          %s\n", rec.Status)
	fmt.Printf("Optimal month:   %d (window %d..%d)\n", rec.Window.PeakMonth, rec.Window.StartMonth, rec.Window.EndMonth)
	fmt.Printf("Expected equity: %.2f (%.2f .. %.2f)\n", rec.Equity.Expected, rec.Equity.Low, rec.Equity.High)
	fmt.Printf("True profit:     %.2f (%.2f .. %.2f)\n", rec.TrueProfit.Expected, rec.TrueProfit.Low, rec.TrueProfit.High)
	fmt.Printf("Volatility:      %s\n", rec.Volatility)

	if idx := domain.OptimalMonth(series); idx >= 0 {
		p := series[idx]
		fmt.Printf("At month %d:      trade-in %.2f, settlement %.2f\n", p.Month, p.TradeInValue, p.Settlement)
	}

	for _, w := range rec.Warnings {
		fmt.Printf("  [%s] %s: %s\n", w.Severity, w.Category, w.Summary)
	}
}

// loadProfileFile reads the analyze input file.
func loadProfileFile(path string) (profileFile, error) {
	var input profileFile
	raw, err := os.ReadFile(path)
	if err != nil {
		return input, fmt.Errorf("read profile: %w", err)
	}
	if err := yaml.Unmarshal(raw, &input); err != nil {
		return input, fmt.Errorf("parse profile %s: %w", path, err)
	}
	if input.Profile.PurchasePrice <= 0 {
		return input, fmt.Errorf("profile %s: purchase_price must be positive", path)
	}
	return input, nil
}

// policiesFromCmd loads policy overrides named by the --config flag,
// falling back to defaults.
func policiesFromCmd(cmd *cobra.Command) (config.Policies, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		return config.DefaultPolicies(), nil
	}
	return config.LoadPolicies(path)
}

// snapshotSourceFromCmd builds the provider client, wrapped in the
// redis cache when an address is configured. Returns nil when no
// provider is configured.
func snapshotSourceFromCmd(cmd *cobra.Command) snapshot.Source {
	providerURL, _ := cmd.Flags().GetString("provider-url")
	if providerURL == "" {
		return nil
	}

	var source snapshot.Source = snapshot.NewHTTPSource(snapshot.HTTPSourceConfig{BaseURL: providerURL})

	if redisAddr, _ := cmd.Flags().GetString("redis-addr"); redisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: redisAddr})
		source = snapshot.NewCachedSource(source, client, 24*time.Hour)
		log.Debug().Str("addr", redisAddr).Msg("valuation cache enabled")
	}
	return source
}
