package projection

import (
	"github.com/sellpoint/sellpoint/internal/domain"
	"github.com/sellpoint/sellpoint/internal/valuation"
)

// Scorer locates the risk-adjusted optimal sell month on an equity
// curve. It deliberately does not chase peak equity: a slightly smaller
// equity realized sooner, inside the sweet-spot window and clear of
// value cliffs, beats a speculative later peak.
type Scorer struct {
	policy    ScoringPolicy
	valuation *valuation.Model
}

// NewScorer creates a scorer over the given policy. The valuation model
// supplies mileage-cliff positions for the cliff-approach bonus.
func NewScorer(policy ScoringPolicy, v *valuation.Model) *Scorer {
	return &Scorer{policy: policy, valuation: v}
}

// OptimalMonth is the second pass: score every candidate month on the
// curve and return the winner. Ties resolve to the earlier month. The
// curve is indexed by month (curve[i].Month == i).
func (s *Scorer) OptimalMonth(curve []domain.MonthlyProjection, profile domain.VehicleFinanceProfile) int {
	if len(curve) == 0 {
		return 0
	}

	equity := make([]float64, len(curve))
	for i := range curve {
		equity[i] = curve[i].TradeInEquity
	}
	return s.OptimalOnEquity(equity, profile)
}

// OptimalOnEquity scores a bare equity curve indexed by month. The
// calibration harness grades simulated curves through the same risk
// preferences the projection pipeline applies.
func (s *Scorer) OptimalOnEquity(equity []float64, profile domain.VehicleFinanceProfile) int {
	if best, ok := s.ScoredOptimal(equity, profile); ok {
		return best
	}
	return s.fallbackMonth(equity)
}

// ScoredOptimal runs the candidate-window pass only, reporting whether
// any month scored at all. ok=false means the curve routed to the
// threshold fallback.
func (s *Scorer) ScoredOptimal(equity []float64, profile domain.VehicleFinanceProfile) (int, bool) {
	if len(equity) == 0 {
		return 0, false
	}

	smoothed := smoothedGrowth(equity, s.policy.SmoothingWindow)
	_, diminishing := s.growthLandmarks(smoothed)

	term := profile.TermMonths
	first, last := s.candidateWindow(term, len(equity))

	best, bestScore := -1, 0.0
	for m := first; m <= last; m++ {
		if equity[m] < 0 {
			continue
		}
		score := s.scoreMonth(m, equity[m], term, diminishing, profile)
		if best == -1 || score > bestScore {
			best, bestScore = m, score
		}
	}
	return best, best >= 0
}

// MonthScore exposes the composite score of a single month on a curve,
// landmarks included. Months outside the curve score zero.
func (s *Scorer) MonthScore(month int, equity []float64, profile domain.VehicleFinanceProfile) float64 {
	if month < 1 || month >= len(equity) {
		return 0
	}
	smoothed := smoothedGrowth(equity, s.policy.SmoothingWindow)
	_, diminishing := s.growthLandmarks(smoothed)
	return s.scoreMonth(month, equity[month], profile.TermMonths, diminishing, profile)
}

// candidateWindow is [MinCandidateMonth, term−CandidateEndOffset],
// clipped to the curve. Short terms (≤18 months) produce an empty
// window, which routes straight to the threshold fallback.
func (s *Scorer) candidateWindow(term, curveLen int) (int, int) {
	first := s.policy.MinCandidateMonth
	last := term - s.policy.CandidateEndOffset
	if last > curveLen-1 {
		last = curveLen - 1
	}
	return first, last
}

// scoreMonth computes the composite score for one candidate month.
func (s *Scorer) scoreMonth(month int, equity float64, term, diminishing int, profile domain.VehicleFinanceProfile) float64 {
	score := equity + s.policy.EfficiencyWeight*(equity/float64(month))

	sweetLo := int(float64(term) * s.policy.SweetSpotLowPct)
	sweetHi := int(float64(term) * s.policy.SweetSpotHighPct)
	if month >= sweetLo && month <= sweetHi {
		score *= s.policy.SweetSpotBoost
	}

	if diminishing >= 0 && month > diminishing && month <= diminishing+s.policy.DiminishingWindow {
		score *= s.policy.DiminishingBoost
	}

	if month >= s.policy.PreWarrantyStart && month <= s.policy.PreWarrantyEnd {
		score += s.policy.PreWarrantyBonus * equity
	}

	score += s.cliffApproachBonus(month, equity, profile)

	// Linear fade from the late-fade point to contract end, then a
	// flat discount for anything before 30% of term.
	fadeStart := int(float64(term) * s.policy.LateFadeStartPct)
	if term > fadeStart && month > fadeStart {
		fade := 1 - float64(month-fadeStart)/float64(term-fadeStart)
		if fade < 0 {
			fade = 0
		}
		score *= fade
	}
	if month < int(float64(term)*s.policy.EarlyTermPct) {
		score *= s.policy.EarlyTermFactor
	}

	return score
}

// cliffApproachBonus rewards selling just before the odometer crosses a
// value cliff: the closer the cliff (within CliffHorizon months), the
// larger the bonus.
func (s *Scorer) cliffApproachBonus(month int, equity float64, profile domain.VehicleFinanceProfile) float64 {
	monthlyMiles := profile.MonthlyMileageRate()
	if monthlyMiles <= 0 {
		return 0
	}
	miles := profile.EstimatedStartingMileage() + float64(month)*monthlyMiles

	for _, cliff := range s.valuation.Cliffs() {
		if miles >= cliff.Threshold {
			continue
		}
		monthsToCliff := (cliff.Threshold - miles) / monthlyMiles
		if monthsToCliff <= float64(s.policy.CliffHorizon) {
			return s.policy.CliffBonus * equity * (1 - monthsToCliff/float64(s.policy.CliffHorizon))
		}
		break // cliffs are ordered; the next one is even further away
	}
	return 0
}

// fallbackMonth is used when no candidate month ever scores: the first
// month in the fallback window with meaningfully positive equity, else
// the peak-equity month so that exactly one month is always flagged.
func (s *Scorer) fallbackMonth(equity []float64) int {
	end := s.policy.FallbackEnd
	if end > len(equity)-1 {
		end = len(equity) - 1
	}
	for m := s.policy.FallbackStart; m <= end; m++ {
		if equity[m] > s.policy.MeaningfulEquity {
			return m
		}
	}

	best := 0
	for m := range equity {
		if equity[m] > equity[best] {
			best = m
		}
	}
	return best
}

// smoothedGrowth returns the trailing moving average of month-over-month
// equity deltas.
func smoothedGrowth(equity []float64, window int) []float64 {
	if window < 1 {
		window = 1
	}
	deltas := make([]float64, len(equity))
	for m := 1; m < len(equity); m++ {
		deltas[m] = equity[m] - equity[m-1]
	}

	smoothed := make([]float64, len(deltas))
	for m := range deltas {
		lo := m - window + 1
		if lo < 0 {
			lo = 0
		}
		sum := 0.0
		for i := lo; i <= m; i++ {
			sum += deltas[i]
		}
		smoothed[m] = sum / float64(m-lo+1)
	}
	return smoothed
}

// growthLandmarks finds the month of peak smoothed growth and the first
// later month where growth drops below the diminishing fraction of that
// peak. Returns -1 for the diminishing month when growth never peaks
// above zero or never falls off.
func (s *Scorer) growthLandmarks(smoothed []float64) (peak, diminishing int) {
	peak = 0
	for m := range smoothed {
		if smoothed[m] > smoothed[peak] {
			peak = m
		}
	}

	diminishing = -1
	if smoothed[peak] <= 0 {
		return peak, diminishing
	}
	threshold := smoothed[peak] * s.policy.DiminishingFraction
	for m := peak + 1; m < len(smoothed); m++ {
		if smoothed[m] < threshold {
			diminishing = m
			break
		}
	}
	return peak, diminishing
}
