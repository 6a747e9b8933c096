package recommend

// Policy names the recommendation layer's thresholds so the calibration
// harness can sweep them independently of the decision ladder.
type Policy struct {
	// TooEarlyMonths: ownership younger than this is always too_early.
	TooEarlyMonths int `yaml:"too_early_months"`

	// Volatility tiers by mean absolute month-over-month equity delta
	// across the first VolatilityMonths months.
	VolatilityMonths int     `yaml:"volatility_months"`
	LowVolatility    float64 `yaml:"low_volatility"`
	HighVolatility   float64 `yaml:"high_volatility"`

	// Confidence-interval widths (fraction of peak equity) and
	// in-window radii (months) per volatility tier.
	ConfidenceLow    float64 `yaml:"confidence_low"`
	ConfidenceMedium float64 `yaml:"confidence_medium"`
	ConfidenceHigh   float64 `yaml:"confidence_high"`
	WindowLow        int     `yaml:"window_low"`
	WindowMedium     int     `yaml:"window_medium"`
	WindowHigh       int     `yaml:"window_high"`

	// Equity framing thresholds.
	DeepUnderwaterEquity float64 `yaml:"deep_underwater_equity"`
	NearBreakEvenEquity  float64 `yaml:"near_break_even_equity"`

	// Lookahead horizons for good_to_sell / approaching_optimal.
	GoodToSellMonths  int `yaml:"good_to_sell_months"`
	ApproachingMonths int `yaml:"approaching_months"`

	// Divergence between scorer-optimal and peak-equity months worth
	// explaining to the user.
	PeakDivergenceMonths int `yaml:"peak_divergence_months"`

	// Warning thresholds.
	HighAnnualMileage    float64 `yaml:"high_annual_mileage"`
	ExtremeAnnualMileage float64 `yaml:"extreme_annual_mileage"`
	BalloonWarnMonths    int     `yaml:"balloon_warn_months"`
	BalloonUrgentMonths  int     `yaml:"balloon_urgent_months"`
	WarrantyWarnMonths   int     `yaml:"warranty_warn_months"`
	WarrantyExpiryMonth  int     `yaml:"warranty_expiry_month"`
	ContractEndMonths    int     `yaml:"contract_end_months"`

	// CliffThresholds mirrors the valuation model's mileage cliffs.
	CliffThresholds []float64 `yaml:"cliff_thresholds"`
}

// DefaultPolicy returns the calibrated recommendation constants.
func DefaultPolicy() Policy {
	return Policy{
		TooEarlyMonths:       6,
		VolatilityMonths:     24,
		LowVolatility:        200,
		HighVolatility:       500,
		ConfidenceLow:        0.05,
		ConfidenceMedium:     0.10,
		ConfidenceHigh:       0.15,
		WindowLow:            2,
		WindowMedium:         3,
		WindowHigh:           4,
		DeepUnderwaterEquity: -5000,
		NearBreakEvenEquity:  -2000,
		GoodToSellMonths:     3,
		ApproachingMonths:    6,
		PeakDivergenceMonths: 2,
		HighAnnualMileage:    20000,
		ExtremeAnnualMileage: 30000,
		BalloonWarnMonths:    12,
		BalloonUrgentMonths:  6,
		WarrantyWarnMonths:   3,
		WarrantyExpiryMonth:  36,
		ContractEndMonths:    3,
		CliffThresholds:      []float64{60000, 100000, 150000},
	}
}
