package calibration

import (
	"context"
	"math/rand"
	"runtime"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/sellpoint/sellpoint/internal/domain"
)

// MonteCarloSpec controls the perturbation sweep.
type MonteCarloSpec struct {
	Runs    int
	Workers int

	// Perturbation bounds applied around each base case.
	MileageJitter    float64 // multiplier drawn from [1-j, 1+j]
	ShockJitter      float64 // market value shock drawn from [1-j, 1+j]
	APRJitterPct     float64 // APR delta in percentage points, [-j, +j]
	DepositMaxPct    float64 // deposit drawn from [0, pct*price]
	ResidualJitter   float64 // balloon residual pct delta, [-j, +j]
	TermJitterMonths int     // contract term delta in whole months, [-j, +j]
}

// DefaultMonteCarloSpec matches the stability sweep the gates expect.
func DefaultMonteCarloSpec() MonteCarloSpec {
	return MonteCarloSpec{
		Runs:             10000,
		Workers:          runtime.NumCPU(),
		MileageJitter:    0.20,
		ShockJitter:      0.10,
		APRJitterPct:     1.0,
		DepositMaxPct:    0.10,
		ResidualJitter:   0.05,
		TermJitterMonths: 6,
	}
}

// MonteCarloResult aggregates a perturbation sweep.
type MonteCarloResult struct {
	Runs           int     `json:"runs"`
	Within3        int     `json:"within_3"`
	FalsePositives int     `json:"false_positives"`
	OptimalNow     int     `json:"optimal_now_calls"`
	MeanAbsError   float64 `json:"mean_abs_error"`
}

// StabilityRate is the fraction of runs whose prediction stayed within
// ±3 months of the recomputed ground truth.
func (r MonteCarloResult) StabilityRate() float64 { return ratio(r.Within3, r.Runs) }

// FalsePositiveRate is the fraction of runs that called optimal_now
// while the truth curve still had meaningful upside.
func (r MonteCarloResult) FalsePositiveRate() float64 { return ratio(r.FalsePositives, r.Runs) }

// MonteCarlo drives seeded perturbation sweeps over base cases.
type MonteCarlo struct {
	evaluator *Evaluator
	spec      MonteCarloSpec
	progress  func(done, total int)
}

// NewMonteCarlo creates a sweep runner. progress may be nil.
func NewMonteCarlo(evaluator *Evaluator, spec MonteCarloSpec, progress func(done, total int)) *MonteCarlo {
	if spec.Runs <= 0 {
		spec.Runs = DefaultMonteCarloSpec().Runs
	}
	if spec.Workers <= 0 {
		spec.Workers = runtime.NumCPU()
	}
	return &MonteCarlo{evaluator: evaluator, spec: spec, progress: progress}
}

// Run executes spec.Runs perturbations of the base cases across a worker
// pool. Run i is fully determined by seed+i, so a sweep is reproducible
// regardless of worker count or scheduling.
func (mc *MonteCarlo) Run(ctx context.Context, seed int64, bases []Case) (MonteCarloResult, error) {
	if len(bases) == 0 {
		return MonteCarloResult{}, nil
	}

	jobs := make(chan int)
	outcomes := make(chan CaseOutcome, mc.spec.Workers)

	var wg sync.WaitGroup
	for w := 0; w < mc.spec.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				perturbed := mc.perturb(bases[i%len(bases)], seed+int64(i))
				outcomes <- mc.evaluator.EvaluateCase(perturbed)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i := 0; i < mc.spec.Runs; i++ {
			select {
			case jobs <- i:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(outcomes)
	}()

	result := MonteCarloResult{}
	totalErr := 0
	for outcome := range outcomes {
		result.Runs++
		totalErr += outcome.AbsError
		if outcome.AbsError <= 3 {
			result.Within3++
		}
		if outcome.PrematureCall {
			result.FalsePositives++
			result.OptimalNow++
		}
		if mc.progress != nil {
			mc.progress(result.Runs, mc.spec.Runs)
		}
	}
	if result.Runs > 0 {
		result.MeanAbsError = float64(totalErr) / float64(result.Runs)
	}

	if err := ctx.Err(); err != nil {
		return result, err
	}

	log.Info().
		Int("runs", result.Runs).
		Float64("stability", result.StabilityRate()).
		Float64("false_positive_rate", result.FalsePositiveRate()).
		Msg("monte carlo sweep complete")

	return result, nil
}

// perturb derives a new case from base using only the run seed, then
// recomputes its ground truth so the grade reflects the perturbed world.
func (mc *MonteCarlo) perturb(base Case, seed int64) Case {
	rng := rand.New(rand.NewSource(seed))

	c := base
	c.Seed = seed
	c.Profile = base.Profile

	jitter := func(j float64) float64 { return 1 + (rng.Float64()*2-1)*j }

	c.Profile.ExpectedAnnualMiles = base.Profile.ExpectedAnnualMiles * jitter(mc.spec.MileageJitter)
	c.Profile.CurrentMileage = base.Profile.CurrentMileage * jitter(mc.spec.MileageJitter)
	shock := base.ValueShock
	if shock == 0 {
		shock = 1
	}
	c.ValueShock = shock * jitter(mc.spec.ShockJitter)
	c.Profile.DepositAmount = round2(rng.Float64() * mc.spec.DepositMaxPct * base.Profile.PurchasePrice)

	if base.Profile.FinanceKind != domain.FinanceCash {
		apr := base.Profile.AnnualRatePct + (rng.Float64()*2-1)*mc.spec.APRJitterPct
		if apr < 0 {
			apr = 0
		}
		c.Profile.AnnualRatePct = apr
		c.Profile.Principal = base.Profile.PurchasePrice - c.Profile.DepositAmount
		if c.Profile.Principal < 0 {
			c.Profile.Principal = 0
		}
	}
	if mc.spec.TermJitterMonths > 0 && base.Profile.TermMonths > 0 {
		term := base.Profile.TermMonths + rng.Intn(2*mc.spec.TermJitterMonths+1) - mc.spec.TermJitterMonths
		if term < 12 {
			term = 12
		}
		c.Profile.TermMonths = term
	}
	if base.Profile.FinanceKind == domain.FinanceBalloon && base.Profile.PurchasePrice > 0 {
		pct := base.Profile.BalloonAmount/base.Profile.PurchasePrice + (rng.Float64()*2-1)*mc.spec.ResidualJitter
		if pct < 0.10 {
			pct = 0.10
		}
		if pct > 0.60 {
			pct = 0.60
		}
		c.Profile.BalloonAmount = round2(pct * base.Profile.PurchasePrice)
	}

	// Payment and truth both follow from the perturbed terms.
	c.Profile.MonthlyPayment = paymentFor(c.Profile)
	c.GroundTruthMonth = mc.evaluator.truth.OptimalMonth(c)
	return c
}

// paymentFor recomputes the contractual payment after terms move.
func paymentFor(p domain.VehicleFinanceProfile) float64 {
	switch p.FinanceKind {
	case domain.FinanceCash:
		return 0
	case domain.FinanceBalloon:
		return balloonPayment(p.Principal, p.BalloonAmount, p.AnnualRatePct, p.TermMonths)
	default:
		return annuityPayment(p.Principal, p.AnnualRatePct, p.TermMonths)
	}
}
