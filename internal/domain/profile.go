package domain

import "time"

// VehicleCategory partitions vehicles by depreciation behavior.
type VehicleCategory string

const (
	CategoryEconomy VehicleCategory = "economy"
	CategoryPremium VehicleCategory = "premium"
	CategoryEV      VehicleCategory = "ev"
	CategoryExotic  VehicleCategory = "exotic"
)

// Categories lists every supported vehicle category.
func Categories() []VehicleCategory {
	return []VehicleCategory{CategoryEconomy, CategoryPremium, CategoryEV, CategoryExotic}
}

// FinanceKind identifies the finance structure attached to a vehicle.
type FinanceKind string

const (
	FinanceCash        FinanceKind = "cash"
	FinanceInstallment FinanceKind = "installment"
	FinanceBalloon     FinanceKind = "balloon"
)

// VehicleFinanceProfile is the complete input describing one vehicle and
// its outstanding finance obligation. Invariants: TermMonths > 0 unless
// FinanceCash; BalloonAmount <= Principal. Violations are an upstream
// validation concern; the engine clamps rather than rejects.
type VehicleFinanceProfile struct {
	PurchasePrice float64         `json:"purchase_price" yaml:"purchase_price"`
	Category      VehicleCategory `json:"category" yaml:"category"`
	FinanceKind   FinanceKind     `json:"finance_kind" yaml:"finance_kind"`

	Principal      float64 `json:"principal" yaml:"principal"`
	MonthlyPayment float64 `json:"monthly_payment" yaml:"monthly_payment"`
	AnnualRatePct  float64 `json:"annual_rate_pct" yaml:"annual_rate_pct"`
	TermMonths     int     `json:"term_months" yaml:"term_months"`
	BalloonAmount  float64 `json:"balloon_amount" yaml:"balloon_amount"`
	DepositAmount  float64 `json:"deposit_amount" yaml:"deposit_amount"`

	MonthsElapsed        int     `json:"months_elapsed" yaml:"months_elapsed"`
	CurrentMileage       float64 `json:"current_mileage" yaml:"current_mileage"`
	ExpectedAnnualMiles  float64 `json:"expected_annual_miles" yaml:"expected_annual_miles"`
}

// MonthlyMileageRate returns the expected miles accrued per month,
// defaulting to 10,000 miles/year when unset.
func (p VehicleFinanceProfile) MonthlyMileageRate() float64 {
	annual := p.ExpectedAnnualMiles
	if annual <= 0 {
		annual = 10000
	}
	return annual / 12.0
}

// EstimatedStartingMileage back-derives the odometer reading at purchase
// from the current reading and the months elapsed since purchase.
func (p VehicleFinanceProfile) EstimatedStartingMileage() float64 {
	start := p.CurrentMileage - float64(p.MonthsElapsed)*p.MonthlyMileageRate()
	if start < 0 {
		return 0
	}
	return start
}

// SnapshotConfidence grades the trustworthiness of an external valuation.
type SnapshotConfidence string

const (
	ConfidenceHigh     SnapshotConfidence = "high"
	ConfidenceMedium   SnapshotConfidence = "medium"
	ConfidenceLow      SnapshotConfidence = "low"
	ConfidenceEstimate SnapshotConfidence = "estimate"
)

// MarketValuationSnapshot is an optional externally supplied valuation
// anchor. All values are >= 0; confidence degradation with age is
// computed by the supplying collaborator, not here.
type MarketValuationSnapshot struct {
	Value        float64            `json:"value" yaml:"value"`
	TradeInValue float64            `json:"trade_in_value" yaml:"trade_in_value"`
	PrivateValue float64            `json:"private_value" yaml:"private_value"`
	Confidence   SnapshotConfidence `json:"confidence" yaml:"confidence"`
	CapturedAt   time.Time          `json:"captured_at" yaml:"captured_at"`
}

// Usable reports whether the snapshot carries any value worth anchoring
// a projection to.
func (s *MarketValuationSnapshot) Usable() bool {
	if s == nil {
		return false
	}
	return s.TradeInValue > 0 || s.Value > 0
}

// AnchorTradeIn returns the trade-in value to pin the anchor month to,
// falling back to the blended value when the trade-in channel is empty.
func (s *MarketValuationSnapshot) AnchorTradeIn() float64 {
	if s.TradeInValue > 0 {
		return s.TradeInValue
	}
	return s.Value
}

// AnchorPrivate returns the private-party value to pin the anchor month
// to, falling back to the blended value.
func (s *MarketValuationSnapshot) AnchorPrivate() float64 {
	if s.PrivateValue > 0 {
		return s.PrivateValue
	}
	return s.Value
}
