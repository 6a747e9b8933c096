package calibration

import (
	"math/rand"

	"github.com/sellpoint/sellpoint/internal/domain"
	"github.com/sellpoint/sellpoint/internal/projection"
	"github.com/sellpoint/sellpoint/internal/settlement"
	"github.com/sellpoint/sellpoint/internal/valuation"
)

// GroundTruth derives the "true" optimal sell month for a synthetic
// case: it simulates the value and settlement history directly (with
// the case's value shock and seeded listing noise), averages an
// ensemble of simulations to strip the noise back out, and brute-forces
// the product's risk-adjusted objective over the resulting curve. The
// engine is then graded against this answer. Its independence lives in
// the curve, not the preference ordering: the truth sees the shocked,
// simulated world while the engine sees only its formula.
type GroundTruth struct {
	valuation  *valuation.Model
	settlement *settlement.Model
	scorer     *projection.Scorer

	// NoiseStdPct perturbs each simulated month's value, mimicking real
	// listing scatter. Zero disables noise.
	NoiseStdPct float64

	// Ensemble is the number of independently seeded simulations
	// averaged into the expected curve. Residual noise shrinks with
	// the square root of this count.
	Ensemble int
}

// NewGroundTruth builds the ground-truth deriver over its own model
// instances so engine-side policy sweeps cannot contaminate the answer.
func NewGroundTruth(v *valuation.Model, s *settlement.Model) *GroundTruth {
	return &GroundTruth{
		valuation:   v,
		settlement:  s,
		scorer:      projection.NewScorer(projection.DefaultScoringPolicy(), v),
		NoiseStdPct: 0.003,
		Ensemble:    15,
	}
}

// OptimalMonth derives the case's expected equity curve and returns the
// brute-force optimal month under the product's risk preferences.
func (gt *GroundTruth) OptimalMonth(c Case) int {
	return gt.BestMonth(gt.ExpectedEquity(c), c.Profile)
}

// SimulateEquity builds one shocked, noise-injected trade-in equity
// curve for a case. Reproducible: noise comes from the given seed.
func (gt *GroundTruth) SimulateEquity(c Case, seed int64) []float64 {
	profile := c.Profile
	horizon := profile.TermMonths + 6
	if profile.TermMonths <= 0 {
		horizon = 66
	}

	rng := rand.New(rand.NewSource(seed))
	shock := c.ValueShock
	if shock == 0 {
		shock = 1
	}

	startMiles := profile.EstimatedStartingMileage()
	monthlyMiles := profile.MonthlyMileageRate()

	equity := make([]float64, horizon)
	for m := 0; m < horizon; m++ {
		miles := startMiles + float64(m)*monthlyMiles
		value := gt.valuation.Estimate(profile.PurchasePrice, profile.Category, m, miles, profile.ExpectedAnnualMiles).TradeIn
		value *= shock
		if gt.NoiseStdPct > 0 {
			value *= 1 + rng.NormFloat64()*gt.NoiseStdPct
		}
		quote := gt.settlement.Settle(profile, m)
		equity[m] = value - quote.TotalSettlement
	}
	return equity
}

// ExpectedEquity is the ensemble mean of independently seeded noisy
// simulations: the curve a seller would see on average, scatter
// stripped out, shock left in.
func (gt *GroundTruth) ExpectedEquity(c Case) []float64 {
	runs := gt.Ensemble
	if runs < 1 {
		runs = 1
	}

	mean := gt.SimulateEquity(c, c.Seed)
	for k := 1; k < runs; k++ {
		draw := gt.SimulateEquity(c, c.Seed+int64(k))
		for m := range mean {
			mean[m] += draw[m]
		}
	}
	for m := range mean {
		mean[m] /= float64(runs)
	}
	return mean
}

// BestMonth brute-forces the product's risk-adjusted objective over
// every candidate month of an equity curve: equity realized sooner
// beats the same equity later, the sweet-spot and pre-warranty windows
// are preferred, and the contract's final stretch fades out. Curves
// that never score route to the threshold fallback.
func (gt *GroundTruth) BestMonth(equity []float64, profile domain.VehicleFinanceProfile) int {
	return gt.scorer.OptimalOnEquity(equity, profile)
}

// ScoredBest is the candidate-window pass without the fallback;
// ok=false marks curves where no month ever scored. The premature-call
// grader uses it to compare today against the truth's best month on a
// like-for-like scale.
func (gt *GroundTruth) ScoredBest(equity []float64, profile domain.VehicleFinanceProfile) (int, bool) {
	return gt.scorer.ScoredOptimal(equity, profile)
}

// MonthScore grades a single month of a curve under the same objective.
func (gt *GroundTruth) MonthScore(month int, equity []float64, profile domain.VehicleFinanceProfile) float64 {
	return gt.scorer.MonthScore(month, equity, profile)
}
