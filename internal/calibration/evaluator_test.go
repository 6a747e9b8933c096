package calibration

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sellpoint/sellpoint/internal/domain"
)

// The premature grader must separate "a materially better sale is still
// ahead" from the ordinary upward drift of financed equity: on a curve
// whose risk-adjusted best month is 48, claiming optimal_now at month
// 18 is premature, while a window that already covers the best month is
// not.
func TestPrematureCall_FlagsMateriallyBetterFuture(t *testing.T) {
	evaluator := NewEvaluator(nil, newTruth())
	c := Case{Seed: 9001, ValueShock: 1, Profile: truthProfile()} // MonthsElapsed 18

	optimalNow := func(windowEnd int) domain.SellRecommendation {
		return domain.SellRecommendation{
			Status: domain.StatusOptimalNow,
			Window: domain.OptimalWindow{StartMonth: windowEnd - 4, PeakMonth: windowEnd - 2, EndMonth: windowEnd},
		}
	}

	assert.True(t, evaluator.prematureCall(c, optimalNow(20)),
		"optimal_now at month 18 with the scored best at 48 is premature")

	assert.False(t, evaluator.prematureCall(c, optimalNow(48)),
		"a window covering the scored best month is not premature")

	wait := domain.SellRecommendation{Status: domain.StatusWait}
	assert.False(t, evaluator.prematureCall(c, wait),
		"only optimal_now claims can be premature")
}
