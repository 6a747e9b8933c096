package calibration

import (
	"math"
	"math/rand"
)

// pick returns one of the options uniformly at random.
func pick[T any](rng *rand.Rand, options ...T) T {
	return options[rng.Intn(len(options))]
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// annuityPayment is the standard fully amortizing monthly payment.
func annuityPayment(principal, annualRatePct float64, term int) float64 {
	if term <= 0 {
		return 0
	}
	i := annualRatePct / 100 / 12
	if i == 0 {
		return principal / float64(term)
	}
	return principal * i / (1 - math.Pow(1+i, -float64(term)))
}

// balloonPayment approximates the monthly payment on a residual-value
// loan: interest on the full balance plus linear amortization of the
// non-residual part.
func balloonPayment(principal, balloon, annualRatePct float64, term int) float64 {
	if term <= 0 {
		return 0
	}
	i := annualRatePct / 100 / 12
	return (principal-balloon)/float64(term) + principal*i
}

// percentile returns the p-th percentile (0..1) of sorted samples.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(math.Ceil(p*float64(len(sorted)))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
