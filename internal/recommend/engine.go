package recommend

import (
	"math"

	"github.com/sellpoint/sellpoint/internal/domain"
)

// Engine turns a projection series plus a finance profile into a single
// actionable verdict with a confidence band and risk warnings. Stateless:
// every call recomputes from its inputs.
type Engine struct {
	policy Policy
}

// NewEngine creates a recommendation engine with the given policy.
func NewEngine(policy Policy) *Engine {
	return &Engine{policy: policy}
}

// Recommend derives the sell recommendation for the profile's current
// month. The series must be the one produced for this profile.
func (e *Engine) Recommend(profile domain.VehicleFinanceProfile, series []domain.MonthlyProjection) domain.SellRecommendation {
	if len(series) == 0 {
		return domain.SellRecommendation{Status: domain.StatusWait}
	}

	optimal := domain.OptimalMonth(series)
	if optimal < 0 {
		optimal = 0
	}
	optimalMonth := series[optimal].Month
	peakMonth := domain.PeakEquityMonth(series)

	tier := e.volatility(series)
	radius := e.windowRadius(tier)
	window := domain.OptimalWindow{
		StartMonth: maxInt(0, optimalMonth-radius),
		PeakMonth:  optimalMonth,
		EndMonth:   optimalMonth + radius,
	}

	current := clampIndex(profile.MonthsElapsed, len(series))
	currentEquity := series[current].TradeInEquity

	peakEquity := 0.0
	if idx := indexOfMonth(series, peakMonth); idx >= 0 {
		peakEquity = series[idx].TradeInEquity
	}
	halfBand := e.confidenceWidth(tier) * math.Abs(peakEquity)

	equityRange := domain.EquityRange{
		Low:      currentEquity - halfBand,
		Expected: currentEquity,
		High:     currentEquity + halfBand,
	}
	profitRange := domain.EquityRange{
		Low:      equityRange.Low - profile.DepositAmount,
		Expected: equityRange.Expected - profile.DepositAmount,
		High:     equityRange.High - profile.DepositAmount,
	}

	return domain.SellRecommendation{
		Status:     e.status(profile, window, current, currentEquity, optimalMonth),
		Window:     window,
		Volatility: tier,
		Equity:     equityRange,
		TrueProfit: profitRange,
		Warnings:   e.warnings(profile, series, optimalMonth, peakMonth),
	}
}

// status walks the decision ladder; the first matching rule wins.
func (e *Engine) status(profile domain.VehicleFinanceProfile, window domain.OptimalWindow, current int, equity float64, optimalMonth int) domain.SellStatus {
	pastWindow := current > window.EndMonth
	inWindow := current >= window.StartMonth && current <= window.EndMonth

	switch {
	case profile.MonthsElapsed < e.policy.TooEarlyMonths:
		return domain.StatusTooEarly
	case pastWindow:
		// Positive or negative framing is a presentation concern; the
		// verdict is the same either way.
		return domain.StatusOptimalPassed
	case equity < e.policy.DeepUnderwaterEquity:
		return domain.StatusWait
	case inWindow && equity >= 0:
		return domain.StatusOptimalNow
	case inWindow && equity >= e.policy.NearBreakEvenEquity:
		return domain.StatusGoodToSell
	case equity >= 0 && optimalMonth-current <= e.policy.GoodToSellMonths:
		return domain.StatusGoodToSell
	case optimalMonth-current <= e.policy.ApproachingMonths:
		return domain.StatusApproachingOptimal
	default:
		return domain.StatusWait
	}
}

// volatility classifies the curve from the mean absolute month-to-month
// equity delta over the opening stretch.
func (e *Engine) volatility(series []domain.MonthlyProjection) domain.VolatilityTier {
	limit := e.policy.VolatilityMonths
	if limit > len(series)-1 {
		limit = len(series) - 1
	}
	if limit < 1 {
		return domain.VolatilityLow
	}

	total := 0.0
	for m := 1; m <= limit; m++ {
		total += math.Abs(series[m].TradeInEquity - series[m-1].TradeInEquity)
	}
	mean := total / float64(limit)

	switch {
	case mean < e.policy.LowVolatility:
		return domain.VolatilityLow
	case mean >= e.policy.HighVolatility:
		return domain.VolatilityHigh
	default:
		return domain.VolatilityMedium
	}
}

func (e *Engine) confidenceWidth(tier domain.VolatilityTier) float64 {
	switch tier {
	case domain.VolatilityLow:
		return e.policy.ConfidenceLow
	case domain.VolatilityHigh:
		return e.policy.ConfidenceHigh
	default:
		return e.policy.ConfidenceMedium
	}
}

func (e *Engine) windowRadius(tier domain.VolatilityTier) int {
	switch tier {
	case domain.VolatilityLow:
		return e.policy.WindowLow
	case domain.VolatilityHigh:
		return e.policy.WindowHigh
	default:
		return e.policy.WindowMedium
	}
}

func clampIndex(i, length int) int {
	if i < 0 {
		return 0
	}
	if i > length-1 {
		return length - 1
	}
	return i
}

func indexOfMonth(series []domain.MonthlyProjection, month int) int {
	for i := range series {
		if series[i].Month == month {
			return i
		}
	}
	return -1
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
