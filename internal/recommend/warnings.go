package recommend

import (
	"fmt"

	"github.com/sellpoint/sellpoint/internal/domain"
)

// warnings collects the independent risk flags for a recommendation.
// They are not mutually exclusive with the status or each other.
func (e *Engine) warnings(profile domain.VehicleFinanceProfile, series []domain.MonthlyProjection, optimalMonth, peakMonth int) []domain.EdgeWarning {
	var out []domain.EdgeWarning

	out = appendIfSome(out, e.divergenceWarning(optimalMonth, peakMonth))
	out = appendIfSome(out, e.mileageWarning(profile))
	out = appendIfSome(out, e.cliffWarning(profile, optimalMonth))
	out = appendIfSome(out, e.balloonWarning(profile))
	out = appendIfSome(out, e.warrantyWarning(profile))
	out = appendIfSome(out, e.negativeEquityWarning(profile, series))
	out = appendIfSome(out, e.contractEndWarning(profile))

	return out
}

// divergenceWarning explains when the recommended month is not the peak
// equity month. The gap is intentional risk-adjusted timing, so the
// warning is informational, never a defect report.
func (e *Engine) divergenceWarning(optimalMonth, peakMonth int) *domain.EdgeWarning {
	diff := optimalMonth - peakMonth
	if diff < 0 {
		diff = -diff
	}
	if diff <= e.policy.PeakDivergenceMonths {
		return nil
	}
	return &domain.EdgeWarning{
		Category: domain.WarnOptimalPeakDivergence,
		Severity: domain.SeverityInfo,
		Summary: fmt.Sprintf("recommended month %d trades a little equity for less hold-time risk; peak equity lands at month %d",
			optimalMonth, peakMonth),
	}
}

func (e *Engine) mileageWarning(profile domain.VehicleFinanceProfile) *domain.EdgeWarning {
	switch {
	case profile.ExpectedAnnualMiles >= e.policy.ExtremeAnnualMileage:
		return &domain.EdgeWarning{
			Category: domain.WarnExtremeMileage,
			Severity: domain.SeverityCritical,
			Summary:  fmt.Sprintf("%.0f miles/year erodes value far faster than the market average", profile.ExpectedAnnualMiles),
		}
	case profile.ExpectedAnnualMiles >= e.policy.HighAnnualMileage:
		return &domain.EdgeWarning{
			Category: domain.WarnExtremeMileage,
			Severity: domain.SeverityWarning,
			Summary:  fmt.Sprintf("%.0f miles/year is above average and accelerates depreciation", profile.ExpectedAnnualMiles),
		}
	}
	return nil
}

// cliffWarning fires when the odometer will cross a value cliff before
// the recommended month.
func (e *Engine) cliffWarning(profile domain.VehicleFinanceProfile, optimalMonth int) *domain.EdgeWarning {
	milesAtOptimal := profile.EstimatedStartingMileage() + float64(optimalMonth)*profile.MonthlyMileageRate()
	for _, threshold := range e.policy.CliffThresholds {
		if profile.CurrentMileage < threshold && milesAtOptimal >= threshold {
			return &domain.EdgeWarning{
				Category: domain.WarnMileageCliff,
				Severity: domain.SeverityWarning,
				Summary:  fmt.Sprintf("the odometer crosses %.0f miles before the recommended month; selling sooner avoids the step-down", threshold),
			}
		}
	}
	return nil
}

func (e *Engine) balloonWarning(profile domain.VehicleFinanceProfile) *domain.EdgeWarning {
	if profile.FinanceKind != domain.FinanceBalloon || profile.BalloonAmount <= 0 {
		return nil
	}
	remaining := profile.TermMonths - profile.MonthsElapsed
	switch {
	case remaining >= 0 && remaining <= e.policy.BalloonUrgentMonths:
		return &domain.EdgeWarning{
			Category: domain.WarnBalloonDue,
			Severity: domain.SeverityCritical,
			Summary:  fmt.Sprintf("balloon payment of %.0f due within %d months", profile.BalloonAmount, remaining),
		}
	case remaining > 0 && remaining <= e.policy.BalloonWarnMonths:
		return &domain.EdgeWarning{
			Category: domain.WarnBalloonDue,
			Severity: domain.SeverityWarning,
			Summary:  fmt.Sprintf("balloon payment of %.0f due within %d months", profile.BalloonAmount, remaining),
		}
	}
	return nil
}

func (e *Engine) warrantyWarning(profile domain.VehicleFinanceProfile) *domain.EdgeWarning {
	untilExpiry := e.policy.WarrantyExpiryMonth - profile.MonthsElapsed
	if untilExpiry <= 0 || untilExpiry > e.policy.WarrantyWarnMonths {
		return nil
	}
	return &domain.EdgeWarning{
		Category: domain.WarnWarrantyExpiry,
		Severity: domain.SeverityWarning,
		Summary:  fmt.Sprintf("manufacturer warranty expires in %d months; values step down once it lapses", untilExpiry),
	}
}

func (e *Engine) negativeEquityWarning(profile domain.VehicleFinanceProfile, series []domain.MonthlyProjection) *domain.EdgeWarning {
	current := clampIndex(profile.MonthsElapsed, len(series))
	equity := series[current].TradeInEquity
	if equity >= e.policy.DeepUnderwaterEquity {
		return nil
	}
	return &domain.EdgeWarning{
		Category: domain.WarnDeepNegativeEquity,
		Severity: domain.SeverityCritical,
		Summary:  fmt.Sprintf("selling today crystallizes a %.0f shortfall against the settlement figure", -equity),
	}
}

func (e *Engine) contractEndWarning(profile domain.VehicleFinanceProfile) *domain.EdgeWarning {
	if profile.FinanceKind == domain.FinanceCash || profile.TermMonths <= 0 {
		return nil
	}
	remaining := profile.TermMonths - profile.MonthsElapsed
	if remaining < 0 || remaining > e.policy.ContractEndMonths {
		return nil
	}
	return &domain.EdgeWarning{
		Category: domain.WarnContractEnd,
		Severity: domain.SeverityInfo,
		Summary:  fmt.Sprintf("finance contract ends in %d months", remaining),
	}
}

func appendIfSome(warnings []domain.EdgeWarning, w *domain.EdgeWarning) []domain.EdgeWarning {
	if w == nil {
		return warnings
	}
	return append(warnings, *w)
}
