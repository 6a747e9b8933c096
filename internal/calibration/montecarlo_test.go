package calibration

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sellpoint/sellpoint/internal/domain"
)

// perturbOnly builds a sweep runner for exercising perturbation alone;
// the evaluator never touches its engine here.
func perturbOnly(spec MonteCarloSpec) *MonteCarlo {
	return NewMonteCarlo(NewEvaluator(nil, newTruth()), spec, nil)
}

func TestPerturb_JittersContractTermWithinBounds(t *testing.T) {
	spec := MonteCarloSpec{TermJitterMonths: 6}
	mc := perturbOnly(spec)

	base := Case{Seed: 1, ValueShock: 1, Profile: truthProfile()}
	base.Profile.TermMonths = 48

	seen := map[int]bool{}
	for seed := int64(0); seed < 200; seed++ {
		p := mc.perturb(base, seed)
		require.GreaterOrEqual(t, p.Profile.TermMonths, 42)
		require.LessOrEqual(t, p.Profile.TermMonths, 54)
		seen[p.Profile.TermMonths] = true

		// The contractual payment follows the perturbed term.
		want := annuityPayment(p.Profile.Principal, p.Profile.AnnualRatePct, p.Profile.TermMonths)
		assert.InDelta(t, want, p.Profile.MonthlyPayment, 1e-9)
	}
	assert.Greater(t, len(seen), 1, "term never moved across 200 draws")
}

func TestPerturb_TermJitterClampsShortContracts(t *testing.T) {
	spec := MonteCarloSpec{TermJitterMonths: 6}
	mc := perturbOnly(spec)

	base := Case{Seed: 1, ValueShock: 1, Profile: truthProfile()}
	base.Profile.TermMonths = 13

	for seed := int64(0); seed < 100; seed++ {
		p := mc.perturb(base, seed)
		require.GreaterOrEqual(t, p.Profile.TermMonths, 12)
	}
}

func TestPerturb_RecomputesBalloonPaymentAfterTermMove(t *testing.T) {
	spec := MonteCarloSpec{TermJitterMonths: 12, ResidualJitter: 0.05}
	mc := perturbOnly(spec)

	profile := truthProfile()
	profile.FinanceKind = domain.FinanceBalloon
	profile.TermMonths = 48
	profile.BalloonAmount = 9000
	profile.MonthlyPayment = balloonPayment(profile.Principal, profile.BalloonAmount, profile.AnnualRatePct, profile.TermMonths)
	base := Case{Seed: 2, ValueShock: 1, Profile: profile}

	for seed := int64(0); seed < 100; seed++ {
		p := mc.perturb(base, seed)
		want := balloonPayment(p.Profile.Principal, p.Profile.BalloonAmount, p.Profile.AnnualRatePct, p.Profile.TermMonths)
		assert.InDelta(t, want, p.Profile.MonthlyPayment, 1e-9)
	}
}
