package valuation

import (
	"math"

	"github.com/sellpoint/sellpoint/internal/domain"
)

// Model estimates resale value from price, category, ownership age and
// mileage. It is a pure function over its inputs: no side effects, no
// clock, and it never fails — out-of-range inputs are clamped.
type Model struct {
	policy Policy
}

// NewModel creates a valuation model with the given policy.
func NewModel(policy Policy) *Model {
	return &Model{policy: policy}
}

// Value is the trade-in and private-party valuation pair for one month.
type Value struct {
	TradeIn float64
	Private float64
}

// Estimate returns the resale value of a vehicle that cost price, is
// monthsOwned months old and has mileage miles on the odometer.
// expectedAnnualMiles drives the deviation correction; zero or negative
// defaults to 10,000.
func (m *Model) Estimate(price float64, category domain.VehicleCategory, monthsOwned int, mileage, expectedAnnualMiles float64) Value {
	if price <= 0 {
		return Value{}
	}
	if monthsOwned < 0 {
		monthsOwned = 0
	}
	if mileage < 0 {
		mileage = 0
	}
	if expectedAnnualMiles <= 0 {
		expectedAnnualMiles = 10000
	}

	tradeIn := price * m.policy.driveOff(category)

	// Decelerating yearly depreciation, compounded monthly. The year
	// rate is looked up per elapsed month so the curve flattens as the
	// vehicle ages.
	for month := 1; month <= monthsOwned; month++ {
		year := (month-1)/12 + 1
		tradeIn *= 1 - m.policy.yearRate(category, year)/12
	}

	if monthsOwned >= m.policy.WarrantyPenaltyMonth {
		tradeIn *= m.policy.WarrantyPenalty
	}

	for _, cliff := range m.policy.Cliffs {
		if mileage >= cliff.Threshold {
			tradeIn *= cliff.Penalty
		}
	}

	tradeIn *= m.deviationFactor(mileage, expectedAnnualMiles, monthsOwned)

	floor := price * m.policy.ValueFloorPct
	if tradeIn < floor {
		tradeIn = floor
	}

	return Value{TradeIn: tradeIn, Private: tradeIn * m.policy.PrivatePremium}
}

// deviationFactor corrects for mileage above or below the expected
// accumulation to date: below-expected mileage lifts the value, above
// depresses it, clamped to the policy's bounds.
func (m *Model) deviationFactor(mileage, expectedAnnualMiles float64, monthsOwned int) float64 {
	expectedToDate := expectedAnnualMiles / 12 * float64(monthsOwned)
	deviation := mileage - expectedToDate
	factor := 1 - deviation/m.policy.DeviationStep*m.policy.DeviationPctPer
	return math.Max(m.policy.DeviationFloor, math.Min(m.policy.DeviationCeil, factor))
}

// MonthlyRate returns the depreciation rate per month for the given
// category at the given ownership month. The hybrid blender uses this
// to extrapolate away from a market anchor.
func (m *Model) MonthlyRate(category domain.VehicleCategory, month int) float64 {
	year := month/12 + 1
	return m.policy.yearRate(category, year) / 12
}

// FloorFor returns the absolute valuation floor for a purchase price.
func (m *Model) FloorFor(price float64) float64 {
	return price * m.policy.ValueFloorPct
}

// PrivatePremium exposes the trade-in to private-party conversion factor.
func (m *Model) PrivatePremium() float64 {
	return m.policy.PrivatePremium
}

// Cliffs exposes the configured mileage cliffs, ordered by threshold.
func (m *Model) Cliffs() []MileageCliff {
	return m.policy.Cliffs
}

// WarrantyPenaltyMonth exposes the month the warranty penalty lands.
func (m *Model) WarrantyPenaltyMonth() int {
	return m.policy.WarrantyPenaltyMonth
}
