package projection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sellpoint/sellpoint/internal/domain"
	"github.com/sellpoint/sellpoint/internal/valuation"
)

func newTestScorer() *Scorer {
	return NewScorer(DefaultScoringPolicy(), valuation.NewModel(valuation.DefaultPolicy()))
}

// syntheticCurve builds a flag-free curve from trade-in equity values,
// with value/settlement split arbitrarily (the scorer only reads equity).
func syntheticCurve(equity []float64) []domain.MonthlyProjection {
	curve := make([]domain.MonthlyProjection, len(equity))
	for i, eq := range equity {
		curve[i] = monthPoint(i, eq+5000, (eq+5000)*1.12, 5000, domain.ProvenanceFormula)
	}
	return curve
}

func flatTermProfile(term int) domain.VehicleFinanceProfile {
	return domain.VehicleFinanceProfile{
		PurchasePrice:       30000,
		Category:            domain.CategoryEconomy,
		FinanceKind:         domain.FinanceInstallment,
		Principal:           27000,
		MonthlyPayment:      500,
		AnnualRatePct:       6,
		TermMonths:          term,
		ExpectedAnnualMiles: 10000,
	}
}

func TestOptimalMonth_FlatCurveBiasesEarly(t *testing.T) {
	scorer := newTestScorer()

	// A perfectly flat positive plateau: identical equity everywhere.
	// The efficiency term orders equal-equity months earlier-first, so
	// the first month clear of the early-term discount wins.
	equity := make([]float64, 67)
	for i := range equity {
		equity[i] = 4000
	}
	got := scorer.OptimalMonth(syntheticCurve(equity), flatTermProfile(60))
	assert.Equal(t, 18, got)
}

func TestOptimalMonth_NegativeMonthsSkipped(t *testing.T) {
	scorer := newTestScorer()

	equity := make([]float64, 67)
	for i := range equity {
		if i < 30 {
			equity[i] = -2000
		} else {
			equity[i] = 3000
		}
	}
	got := scorer.OptimalMonth(syntheticCurve(equity), flatTermProfile(60))
	assert.GreaterOrEqual(t, got, 30)
}

func TestOptimalMonth_AllNegativeFallsBackToPeak(t *testing.T) {
	scorer := newTestScorer()

	// Underwater the whole way: no candidate scores and no month clears
	// the meaningful-equity threshold, so the peak-equity month wins.
	equity := make([]float64, 67)
	for i := range equity {
		equity[i] = -10000 + float64(i)*50 // peak (least negative) at the end
	}
	got := scorer.OptimalMonth(syntheticCurve(equity), flatTermProfile(60))
	assert.Equal(t, 66, got)
}

func TestOptimalMonth_ThresholdFallbackFindsFirstMeaningfulMonth(t *testing.T) {
	policy := DefaultScoringPolicy()
	scorer := NewScorer(policy, valuation.NewModel(valuation.DefaultPolicy()))

	// Short term: the candidate window [12, term−6] is empty.
	term := 18
	equity := make([]float64, term+7)
	for i := range equity {
		equity[i] = -1000
	}
	equity[20] = 800 // first month over the 500 threshold
	equity[21] = 9000

	got := scorer.OptimalMonth(syntheticCurve(equity), flatTermProfile(term))
	assert.Equal(t, 20, got)
}

func TestOptimalMonth_SweetSpotBeatsEarlierEqualEquity(t *testing.T) {
	scorer := newTestScorer()

	// Two equal-equity bumps; the one inside the sweet spot [36, 51]
	// collects the 1.3 boost and must win despite being later.
	equity := make([]float64, 67)
	for i := range equity {
		equity[i] = 100
	}
	equity[30] = 6000
	equity[40] = 6000

	got := scorer.OptimalMonth(syntheticCurve(equity), flatTermProfile(60))
	assert.Equal(t, 40, got)
}

func TestOptimalMonth_LateFadePullsAwayFromContractEnd(t *testing.T) {
	scorer := newTestScorer()

	// Equity keeps rising into the final year; the late fade must keep
	// the pick at or before 80% of term rather than the sweet spot top.
	equity := make([]float64, 67)
	for i := range equity {
		equity[i] = float64(i) * 200
	}
	got := scorer.OptimalMonth(syntheticCurve(equity), flatTermProfile(60))
	assert.LessOrEqual(t, got, 48)
	assert.GreaterOrEqual(t, got, 36)
}

func TestOptimalOnEquity_MatchesCurveScoring(t *testing.T) {
	scorer := newTestScorer()

	equity := make([]float64, 67)
	for i := range equity {
		fi := float64(i)
		equity[i] = -4000 + 700*fi - 9*fi*fi
	}
	profile := flatTermProfile(60)

	fromCurve := scorer.OptimalMonth(syntheticCurve(equity), profile)
	fromEquity := scorer.OptimalOnEquity(equity, profile)
	assert.Equal(t, fromCurve, fromEquity)
}

func TestScoredOptimal_ReportsFallbackRouting(t *testing.T) {
	scorer := newTestScorer()
	profile := flatTermProfile(60)

	underwater := make([]float64, 67)
	for i := range underwater {
		underwater[i] = -2000
	}
	_, ok := scorer.ScoredOptimal(underwater, profile)
	assert.False(t, ok, "all-negative curve cannot score")

	healthy := make([]float64, 67)
	for i := range healthy {
		healthy[i] = 3000
	}
	best, ok := scorer.ScoredOptimal(healthy, profile)
	require.True(t, ok)
	assert.Equal(t, scorer.OptimalOnEquity(healthy, profile), best)
}

func TestMonthScore_WinnerOutscoresEveryOtherCandidate(t *testing.T) {
	scorer := newTestScorer()
	profile := flatTermProfile(60)

	equity := make([]float64, 67)
	for i := range equity {
		fi := float64(i)
		equity[i] = -4000 + 700*fi - 9*fi*fi
	}

	best, ok := scorer.ScoredOptimal(equity, profile)
	require.True(t, ok)
	bestScore := scorer.MonthScore(best, equity, profile)
	for m := 12; m <= 54; m++ {
		if m == best || equity[m] < 0 {
			continue
		}
		assert.GreaterOrEqual(t, bestScore, scorer.MonthScore(m, equity, profile), "month %d outscores the winner", m)
	}
}

func TestCliffApproachBonus_GrowsAsCliffNears(t *testing.T) {
	scorer := newTestScorer()

	profile := flatTermProfile(60)
	profile.ExpectedAnnualMiles = 12000 // 1,000 mi/month, 60k cliff at month 60
	profile.CurrentMileage = 0
	profile.MonthsElapsed = 0

	// Months 55..59 approach the 60,000-mile cliff.
	far := scorer.cliffApproachBonus(40, 1000, profile)
	near := scorer.cliffApproachBonus(57, 1000, profile)
	nearer := scorer.cliffApproachBonus(59, 1000, profile)

	assert.Zero(t, far)
	require.Greater(t, near, 0.0)
	assert.Greater(t, nearer, near)
}

func TestSmoothedGrowth_TrailingWindow(t *testing.T) {
	equity := []float64{0, 10, 30, 60, 60, 60}
	smoothed := smoothedGrowth(equity, 3)

	require.Len(t, smoothed, 6)
	assert.InDelta(t, 0.0, smoothed[0], 1e-9)
	assert.InDelta(t, 5.0, smoothed[1], 1e-9)   // (0+10)/2
	assert.InDelta(t, 10.0, smoothed[2], 1e-9)  // (0+10+20)/3
	assert.InDelta(t, 20.0, smoothed[3], 1e-9)  // (10+20+30)/3
	assert.InDelta(t, 16.67, smoothed[4], 0.01) // (20+30+0)/3
	assert.InDelta(t, 10.0, smoothed[5], 1e-9)  // (30+0+0)/3
}

func TestGrowthLandmarks_DiminishingAfterPeak(t *testing.T) {
	scorer := newTestScorer()

	// Growth ramps to a peak then collapses below half of it.
	smoothed := []float64{0, 2, 6, 10, 8, 7, 4, 3, 2}
	peak, diminishing := scorer.growthLandmarks(smoothed)
	assert.Equal(t, 3, peak)
	assert.Equal(t, 6, diminishing) // first month under 5.0

	// Flat negative growth never yields a diminishing month.
	_, dim := scorer.growthLandmarks([]float64{0, -1, -2, -3})
	assert.Equal(t, -1, dim)
}
