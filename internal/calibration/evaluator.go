package calibration

import (
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sellpoint/sellpoint/internal/domain"
)

// Engine is the pipeline under calibration, driven as a black box.
type Engine interface {
	Project(profile domain.VehicleFinanceProfile, snapshot *domain.MarketValuationSnapshot) []domain.MonthlyProjection
	Recommend(profile domain.VehicleFinanceProfile, series []domain.MonthlyProjection) domain.SellRecommendation
}

// CaseOutcome grades one case against its ground truth.
type CaseOutcome struct {
	CaseID         string  `json:"case_id"`
	PredictedMonth int     `json:"predicted_month"`
	TruthMonth     int     `json:"truth_month"`
	AbsError       int     `json:"abs_error"`
	PrematureCall  bool    `json:"premature_call"`
	DurationMillis float64 `json:"duration_millis"`
}

// GoldenResult aggregates a golden-dataset evaluation.
type GoldenResult struct {
	Total          int           `json:"total"`
	Within1        int           `json:"within_1"`
	Within2        int           `json:"within_2"`
	PrematureCalls int           `json:"premature_calls"`
	MeanAbsError   float64       `json:"mean_abs_error"`
	P99Millis      float64       `json:"p99_millis"`
	Outcomes       []CaseOutcome `json:"outcomes"`
}

// Within1Rate is the fraction of cases within ±1 month of truth.
func (r GoldenResult) Within1Rate() float64 { return ratio(r.Within1, r.Total) }

// Within2Rate is the fraction of cases within ±2 months of truth.
func (r GoldenResult) Within2Rate() float64 { return ratio(r.Within2, r.Total) }

// Evaluator runs the engine over a dataset and grades each case.
type Evaluator struct {
	engine Engine
	truth  *GroundTruth
}

// NewEvaluator creates an evaluator for an engine and a ground truth.
func NewEvaluator(engine Engine, truth *GroundTruth) *Evaluator {
	return &Evaluator{engine: engine, truth: truth}
}

// EvaluateGolden grades every case in the dataset.
func (e *Evaluator) EvaluateGolden(dataset Dataset) GoldenResult {
	result := GoldenResult{Total: len(dataset.Cases)}
	durations := make([]float64, 0, len(dataset.Cases))
	totalErr := 0

	for _, c := range dataset.Cases {
		outcome := e.EvaluateCase(c)
		result.Outcomes = append(result.Outcomes, outcome)
		durations = append(durations, outcome.DurationMillis)
		totalErr += outcome.AbsError

		if outcome.AbsError <= 1 {
			result.Within1++
		}
		if outcome.AbsError <= 2 {
			result.Within2++
		}
		if outcome.PrematureCall {
			result.PrematureCalls++
		}
	}

	if result.Total > 0 {
		result.MeanAbsError = float64(totalErr) / float64(result.Total)
	}
	sort.Float64s(durations)
	result.P99Millis = percentile(durations, 0.99)

	log.Info().
		Int("cases", result.Total).
		Float64("within_1", result.Within1Rate()).
		Float64("within_2", result.Within2Rate()).
		Int("premature", result.PrematureCalls).
		Msg("golden evaluation complete")

	return result
}

// EvaluateCase runs the engine on one case and grades the prediction.
func (e *Evaluator) EvaluateCase(c Case) CaseOutcome {
	start := time.Now()
	series := e.engine.Project(c.Profile, c.Snapshot)
	rec := e.engine.Recommend(c.Profile, series)
	elapsed := time.Since(start)

	predicted := domain.OptimalMonth(series)
	if predicted >= 0 {
		predicted = series[predicted].Month
	}

	absErr := predicted - c.GroundTruthMonth
	if absErr < 0 {
		absErr = -absErr
	}

	return CaseOutcome{
		CaseID:         c.ID,
		PredictedMonth: predicted,
		TruthMonth:     c.GroundTruthMonth,
		AbsError:       absErr,
		PrematureCall:  e.prematureCall(c, rec),
		DurationMillis: float64(elapsed.Microseconds()) / 1000,
	}
}

// prematureCall reports whether the engine claims optimal_now while the
// ground-truth curve says a materially better sale is still ahead. Raw
// equity alone cannot decide this: equity often keeps drifting up right
// until settlement clears, so "any higher month exists" would condemn
// every optimal_now. A call is premature only when the truth's own
// risk-adjusted best month falls beyond the recommended window, with
// at least 10% more equity and a decisively higher score than today —
// not a near-tie between neighboring local optima.
func (e *Evaluator) prematureCall(c Case, rec domain.SellRecommendation) bool {
	if rec.Status != domain.StatusOptimalNow {
		return false
	}
	equity := e.truth.ExpectedEquity(c)
	current := c.Profile.MonthsElapsed
	if current < 0 || current >= len(equity) || equity[current] <= 0 {
		return false
	}

	best, scored := e.truth.ScoredBest(equity, c.Profile)
	if !scored || best <= rec.Window.EndMonth {
		return false
	}
	if equity[best] <= equity[current]*1.10 {
		return false
	}

	scoreBest := e.truth.MonthScore(best, equity, c.Profile)
	scoreNow := e.truth.MonthScore(max(current, 1), equity, c.Profile)
	return scoreBest > scoreNow*1.5
}

func ratio(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total)
}
