package valuation

import "github.com/sellpoint/sellpoint/internal/domain"

// MileageCliff is a one-time multiplicative value penalty applied once
// the odometer crosses Threshold miles.
type MileageCliff struct {
	Threshold float64 `yaml:"threshold"`
	Penalty   float64 `yaml:"penalty"`
}

// Policy holds every valuation constant by name so each can be
// recalibrated and unit-tested without touching the model's control
// flow.
type Policy struct {
	// DriveOff is the immediate post-purchase retention multiplier per
	// category. Exotic holds value best; premium loses most up front.
	DriveOff map[domain.VehicleCategory]float64 `yaml:"drive_off"`

	// YearRates is the annual depreciation rate per ownership year
	// (index 0 = year 1), per category. Rates decelerate with age and
	// are capped at the final entry (year 6).
	YearRates map[domain.VehicleCategory][]float64 `yaml:"year_rates"`

	// WarrantyPenaltyMonth is the ownership month at which the
	// warranty-expiry penalty applies, once.
	WarrantyPenaltyMonth int     `yaml:"warranty_penalty_month"`
	WarrantyPenalty      float64 `yaml:"warranty_penalty"`

	Cliffs []MileageCliff `yaml:"cliffs"`

	// Mileage-deviation correction: DeviationPctPer applied per
	// DeviationStep miles of deviation from expected-to-date, with the
	// combined factor clamped to [DeviationFloor, DeviationCeil].
	DeviationStep   float64 `yaml:"deviation_step"`
	DeviationPctPer float64 `yaml:"deviation_pct_per"`
	DeviationFloor  float64 `yaml:"deviation_floor"`
	DeviationCeil   float64 `yaml:"deviation_ceil"`

	// ValueFloorPct floors any valuation at this fraction of the
	// original price. Vehicles never depreciate to zero.
	ValueFloorPct float64 `yaml:"value_floor_pct"`

	// PrivatePremium converts trade-in value to private-party value.
	PrivatePremium float64 `yaml:"private_premium"`
}

// DefaultPolicy returns the calibrated valuation constants.
func DefaultPolicy() Policy {
	return Policy{
		DriveOff: map[domain.VehicleCategory]float64{
			domain.CategoryEconomy: 0.84,
			domain.CategoryPremium: 0.79,
			domain.CategoryEV:      0.82,
			domain.CategoryExotic:  0.90,
		},
		YearRates: map[domain.VehicleCategory][]float64{
			domain.CategoryEconomy: {0.150, 0.120, 0.100, 0.085, 0.070, 0.060},
			domain.CategoryPremium: {0.180, 0.145, 0.115, 0.095, 0.080, 0.065},
			domain.CategoryEV:      {0.200, 0.150, 0.115, 0.090, 0.075, 0.060},
			domain.CategoryExotic:  {0.080, 0.065, 0.055, 0.050, 0.045, 0.040},
		},
		WarrantyPenaltyMonth: 36,
		WarrantyPenalty:      0.965,
		Cliffs: []MileageCliff{
			{Threshold: 60000, Penalty: 0.95},
			{Threshold: 100000, Penalty: 0.93},
			{Threshold: 150000, Penalty: 0.90},
		},
		DeviationStep:   5000,
		DeviationPctPer: 0.02,
		DeviationFloor:  0.70,
		DeviationCeil:   1.30,
		ValueFloorPct:   0.15,
		PrivatePremium:  1.12,
	}
}

// yearRate returns the annual depreciation rate for the given 1-based
// ownership year, capped at the last configured year. Unknown
// categories fall back to economy.
func (p Policy) yearRate(category domain.VehicleCategory, year int) float64 {
	rates, ok := p.YearRates[category]
	if !ok || len(rates) == 0 {
		rates = p.YearRates[domain.CategoryEconomy]
		if len(rates) == 0 {
			return 0
		}
	}
	if year < 1 {
		year = 1
	}
	if year > len(rates) {
		year = len(rates)
	}
	return rates[year-1]
}

// driveOff returns the drive-off retention multiplier for a category,
// falling back to economy for unknown categories.
func (p Policy) driveOff(category domain.VehicleCategory) float64 {
	if m, ok := p.DriveOff[category]; ok {
		return m
	}
	if m, ok := p.DriveOff[domain.CategoryEconomy]; ok {
		return m
	}
	return 1
}
