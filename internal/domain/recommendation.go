package domain

// SellStatus is the single actionable verdict produced for a vehicle.
type SellStatus string

const (
	StatusTooEarly           SellStatus = "too_early"
	StatusWait               SellStatus = "wait"
	StatusApproachingOptimal SellStatus = "approaching_optimal"
	StatusGoodToSell         SellStatus = "good_to_sell"
	StatusOptimalNow         SellStatus = "optimal_now"
	StatusOptimalPassed      SellStatus = "optimal_passed"
)

// VolatilityTier classifies how bumpy the equity curve is.
type VolatilityTier string

const (
	VolatilityLow    VolatilityTier = "low"
	VolatilityMedium VolatilityTier = "medium"
	VolatilityHigh   VolatilityTier = "high"
)

// WarningSeverity grades an EdgeWarning.
type WarningSeverity string

const (
	SeverityInfo     WarningSeverity = "info"
	SeverityWarning  WarningSeverity = "warning"
	SeverityCritical WarningSeverity = "critical"
)

// WarningCategory tags the risk class of an EdgeWarning.
type WarningCategory string

const (
	WarnOptimalPeakDivergence WarningCategory = "optimal_peak_divergence"
	WarnExtremeMileage        WarningCategory = "extreme_mileage"
	WarnMileageCliff          WarningCategory = "mileage_cliff"
	WarnBalloonDue            WarningCategory = "balloon_due"
	WarnWarrantyExpiry        WarningCategory = "warranty_expiry"
	WarnDeepNegativeEquity    WarningCategory = "deep_negative_equity"
	WarnContractEnd           WarningCategory = "contract_end"
)

// EdgeWarning flags a known risk near the recommendation. Warnings are
// produced per invocation and never persisted.
type EdgeWarning struct {
	Category WarningCategory `json:"category"`
	Severity WarningSeverity `json:"severity"`
	Summary  string          `json:"summary"`
}

// OptimalWindow brackets the recommended sell window around the peak.
type OptimalWindow struct {
	StartMonth int `json:"start_month"`
	PeakMonth  int `json:"peak_month"`
	EndMonth   int `json:"end_month"`
}

// EquityRange is a low/expected/high confidence band.
type EquityRange struct {
	Low      float64 `json:"low"`
	Expected float64 `json:"expected"`
	High     float64 `json:"high"`
}

// SellRecommendation is derived entirely from a projection series plus
// the profile's deposit; stateless and recomputed on demand.
type SellRecommendation struct {
	Status     SellStatus     `json:"status"`
	Window     OptimalWindow  `json:"window"`
	Volatility VolatilityTier `json:"volatility"`

	Equity     EquityRange `json:"equity"`
	TrueProfit EquityRange `json:"true_profit"` // deposit-adjusted

	Warnings []EdgeWarning `json:"warnings"`
}
