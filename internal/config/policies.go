package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/sellpoint/sellpoint/internal/projection"
	"github.com/sellpoint/sellpoint/internal/recommend"
	"github.com/sellpoint/sellpoint/internal/settlement"
	"github.com/sellpoint/sellpoint/internal/valuation"
)

// Policies bundles every tunable constant of the engine. A single YAML
// file can override any subset; everything else keeps its calibrated
// default.
type Policies struct {
	Valuation valuation.Policy         `yaml:"valuation"`
	Rebate    settlement.RebatePolicy  `yaml:"rebate"`
	Scoring   projection.ScoringPolicy `yaml:"scoring"`
	Recommend recommend.Policy         `yaml:"recommend"`
}

// DefaultPolicies returns the calibrated defaults for every layer.
func DefaultPolicies() Policies {
	return Policies{
		Valuation: valuation.DefaultPolicy(),
		Rebate:    settlement.DefaultRebatePolicy(),
		Scoring:   projection.DefaultScoringPolicy(),
		Recommend: recommend.DefaultPolicy(),
	}
}

// LoadPolicies reads a YAML policy file over the defaults. An empty
// path returns the defaults untouched.
func LoadPolicies(path string) (Policies, error) {
	policies := DefaultPolicies()
	if path == "" {
		return policies, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return policies, fmt.Errorf("failed to read policy config: %w", err)
	}

	if err := yaml.Unmarshal(data, &policies); err != nil {
		return policies, fmt.Errorf("failed to parse policy YAML: %w", err)
	}

	if err := policies.Validate(); err != nil {
		return policies, fmt.Errorf("invalid policy config: %w", err)
	}
	return policies, nil
}

// Validate rejects configurations the engine cannot run with. It checks
// structural sanity only; numeric tuning is the harness's job.
func (p Policies) Validate() error {
	if p.Valuation.ValueFloorPct < 0 || p.Valuation.ValueFloorPct >= 1 {
		return fmt.Errorf("value_floor_pct %.2f outside [0, 1)", p.Valuation.ValueFloorPct)
	}
	if p.Valuation.PrivatePremium < 1 {
		return fmt.Errorf("private_premium %.2f below 1.0", p.Valuation.PrivatePremium)
	}
	if p.Rebate.RebateRate < 0 || p.Rebate.RebateRate > 1 {
		return fmt.Errorf("rebate_rate %.2f outside [0, 1]", p.Rebate.RebateRate)
	}
	if p.Scoring.SweetSpotLowPct >= p.Scoring.SweetSpotHighPct {
		return fmt.Errorf("sweet spot window [%.2f, %.2f] is empty",
			p.Scoring.SweetSpotLowPct, p.Scoring.SweetSpotHighPct)
	}
	if p.Scoring.SmoothingWindow < 1 {
		return fmt.Errorf("smoothing_window must be at least 1")
	}
	if p.Recommend.VolatilityMonths < 1 {
		return fmt.Errorf("volatility_months must be at least 1")
	}
	return nil
}
