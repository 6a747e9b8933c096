package settlement

import (
	"math"

	"github.com/sellpoint/sellpoint/internal/domain"
)

// RebatePolicy approximates UK consumer-credit early-settlement rules.
// The figures are calibratable policy, not law: the harness sweeps them.
type RebatePolicy struct {
	// RebateRate is the fraction of unaccrued interest returned on
	// early settlement.
	RebateRate float64 `yaml:"rebate_rate"`
	// FeeMonths charges this many months' interest on the remaining
	// principal as an early-settlement fee.
	FeeMonths float64 `yaml:"fee_months"`
}

// DefaultRebatePolicy returns the calibrated rebate constants.
func DefaultRebatePolicy() RebatePolicy {
	return RebatePolicy{RebateRate: 0.90, FeeMonths: 1.5}
}

// Quote is the cost of discharging outstanding finance today.
type Quote struct {
	PrincipalRemaining float64 `json:"principal_remaining"`
	RebatePenalty      float64 `json:"rebate_penalty"` // rebate minus fee; positive reduces the settlement
	TotalSettlement    float64 `json:"total_settlement"`
	MonthsRemaining    int     `json:"months_remaining"`
}

// Model computes settlement figures for simple installment loans and
// balloon/residual loans. Pure and clock-free; degenerate inputs are
// special-cased, never left to divide by zero.
type Model struct {
	policy RebatePolicy
}

// NewModel creates a settlement model with the given rebate policy.
func NewModel(policy RebatePolicy) *Model {
	return &Model{policy: policy}
}

// Settle returns the quote to close the finance in the profile after
// monthsElapsed months.
func (m *Model) Settle(profile domain.VehicleFinanceProfile, monthsElapsed int) Quote {
	if profile.FinanceKind == domain.FinanceCash || profile.Principal <= 0 || profile.TermMonths <= 0 {
		return Quote{}
	}

	term := profile.TermMonths
	if monthsElapsed < 0 {
		monthsElapsed = 0
	}
	if monthsElapsed > term {
		monthsElapsed = term
	}

	monthlyRate := math.Max(0, profile.AnnualRatePct) / 100 / 12
	balloon := math.Min(math.Max(0, profile.BalloonAmount), profile.Principal)

	var remaining float64
	switch profile.FinanceKind {
	case domain.FinanceBalloon:
		remaining = balloonRemaining(profile.Principal, balloon, term, monthsElapsed)
	default:
		remaining = installmentRemaining(profile.Principal, profile.MonthlyPayment, monthlyRate, term, monthsElapsed)
	}

	rebate, fee := m.earlySettlementAdjustment(profile, remaining, monthlyRate, balloon, monthsElapsed)

	total := remaining - rebate + fee
	if total < 0 {
		total = 0
	}

	return Quote{
		PrincipalRemaining: remaining,
		RebatePenalty:      rebate - fee,
		TotalSettlement:    total,
		MonthsRemaining:    term - monthsElapsed,
	}
}

// installmentRemaining is the closed-form remaining balance of a simple
// amortizing loan after n payments: B = P(1+i)^n − M((1+i)^n − 1)/i.
// Zero-rate loans fall back to the straight-line remaining fraction.
func installmentRemaining(principal, payment, monthlyRate float64, term, elapsed int) float64 {
	if elapsed >= term {
		return 0
	}
	if monthlyRate == 0 {
		return principal * (1 - float64(elapsed)/float64(term))
	}
	growth := math.Pow(1+monthlyRate, float64(elapsed))
	remaining := principal*growth - payment*(growth-1)/monthlyRate
	if remaining < 0 {
		return 0
	}
	return remaining
}

// balloonRemaining amortizes principal−balloon linearly over the term;
// the balloon itself is owed in full until settlement.
func balloonRemaining(principal, balloon float64, term, elapsed int) float64 {
	amortizing := principal - balloon
	if amortizing < 0 {
		amortizing = 0
	}
	return amortizing*(1-float64(elapsed)/float64(term)) + balloon
}

// earlySettlementAdjustment returns the interest rebate for settling
// early and the fee charged for doing so. The rebate is what lets
// mid-term equity beat a naive principal-only estimate.
func (m *Model) earlySettlementAdjustment(profile domain.VehicleFinanceProfile, remaining, monthlyRate, balloon float64, elapsed int) (rebate, fee float64) {
	if monthlyRate == 0 || elapsed >= profile.TermMonths {
		return 0, 0
	}

	totalPayments := profile.MonthlyPayment * float64(profile.TermMonths)
	if profile.FinanceKind == domain.FinanceBalloon {
		totalPayments += balloon
	}
	totalInterest := totalPayments - profile.Principal
	if totalInterest <= 0 {
		return 0, 0
	}

	// Interest accrued so far = amount paid minus principal reduced.
	principalReduced := profile.Principal - remainingPrincipalOnly(profile, balloon, monthlyRate, elapsed)
	accrued := profile.MonthlyPayment*float64(elapsed) - principalReduced
	if accrued < 0 {
		accrued = 0
	}
	if accrued > totalInterest {
		accrued = totalInterest
	}

	rebate = m.policy.RebateRate * (totalInterest - accrued)
	fee = m.policy.FeeMonths * remaining * monthlyRate
	return rebate, fee
}

// remainingPrincipalOnly mirrors the per-kind remaining-balance math so
// the accrued-interest split stays consistent with the quote.
func remainingPrincipalOnly(profile domain.VehicleFinanceProfile, balloon, monthlyRate float64, elapsed int) float64 {
	if profile.FinanceKind == domain.FinanceBalloon {
		return balloonRemaining(profile.Principal, balloon, profile.TermMonths, elapsed)
	}
	return installmentRemaining(profile.Principal, profile.MonthlyPayment, monthlyRate, profile.TermMonths, elapsed)
}
