package projection

// ScoringPolicy names every heuristic constant the optimal-month scorer
// uses. The constants started life inlined in a hand-tuned loop; keeping
// them here lets the calibration harness sweep each one independently.
type ScoringPolicy struct {
	// EfficiencyWeight scales the equity-per-month term of the
	// composite score, rewarding earlier months for the same equity.
	EfficiencyWeight float64 `yaml:"efficiency_weight"`

	// Sweet spot: the fraction-of-term window where selling balances
	// accumulated equity against remaining hold-time risk.
	SweetSpotLowPct  float64 `yaml:"sweet_spot_low_pct"`
	SweetSpotHighPct float64 `yaml:"sweet_spot_high_pct"`
	SweetSpotBoost   float64 `yaml:"sweet_spot_boost"`

	// Diminishing returns: growth below this fraction of the smoothed
	// peak marks the curve as flattening; months shortly after get a
	// boost.
	DiminishingFraction float64 `yaml:"diminishing_fraction"`
	DiminishingWindow   int     `yaml:"diminishing_window"`
	DiminishingBoost    float64 `yaml:"diminishing_boost"`

	// Pre-warranty-expiry months get a flat equity bonus.
	PreWarrantyStart int     `yaml:"pre_warranty_start"`
	PreWarrantyEnd   int     `yaml:"pre_warranty_end"`
	PreWarrantyBonus float64 `yaml:"pre_warranty_bonus"`

	// Selling just before a mileage cliff is worth more the closer the
	// cliff is, within CliffHorizon months.
	CliffHorizon int     `yaml:"cliff_horizon"`
	CliffBonus   float64 `yaml:"cliff_bonus"`

	// Late months fade linearly from LateFadeStartPct of term down to
	// zero at contract end; early months are discounted flat. The fade
	// opens before the sweet spot closes: otherwise the last boosted
	// month always wins on any curve whose equity rises into the term's
	// final year, and the recommendation drifts to the contract's edge.
	LateFadeStartPct float64 `yaml:"late_fade_start_pct"`
	EarlyTermPct     float64 `yaml:"early_term_pct"`
	EarlyTermFactor  float64 `yaml:"early_term_factor"`

	// Candidate window bounds and the fallback search for curves that
	// never score.
	MinCandidateMonth  int     `yaml:"min_candidate_month"`
	CandidateEndOffset int     `yaml:"candidate_end_offset"`
	FallbackStart      int     `yaml:"fallback_start"`
	FallbackEnd        int     `yaml:"fallback_end"`
	MeaningfulEquity   float64 `yaml:"meaningful_equity"`

	// SmoothingWindow is the trailing moving-average width applied to
	// month-over-month equity growth before peak detection.
	SmoothingWindow int `yaml:"smoothing_window"`

	// HorizonPadMonths extends the projection past contract end.
	HorizonPadMonths int `yaml:"horizon_pad_months"`
}

// DefaultScoringPolicy returns the calibrated scorer constants.
func DefaultScoringPolicy() ScoringPolicy {
	return ScoringPolicy{
		EfficiencyWeight:    50,
		SweetSpotLowPct:     0.60,
		SweetSpotHighPct:    0.85,
		SweetSpotBoost:      1.3,
		DiminishingFraction: 0.5,
		DiminishingWindow:   6,
		DiminishingBoost:    1.2,
		PreWarrantyStart:    33,
		PreWarrantyEnd:      35,
		PreWarrantyBonus:    0.15,
		CliffHorizon:        6,
		CliffBonus:          0.10,
		LateFadeStartPct:    0.80,
		EarlyTermPct:        0.30,
		EarlyTermFactor:     0.7,
		MinCandidateMonth:   12,
		CandidateEndOffset:  6,
		FallbackStart:       18,
		FallbackEnd:         48,
		MeaningfulEquity:    500,
		SmoothingWindow:     3,
		HorizonPadMonths:    6,
	}
}
