package projection

import (
	"github.com/sellpoint/sellpoint/internal/domain"
	"github.com/sellpoint/sellpoint/internal/settlement"
	"github.com/sellpoint/sellpoint/internal/valuation"
)

// Generator composes the valuation and settlement models into a monthly
// equity curve and runs the optimal-month scorer over it. Three pure
// passes: value curve, scoring, flag assembly. Each pass takes and
// returns immutable data so it can be tested in isolation.
type Generator struct {
	valuation  *valuation.Model
	settlement *settlement.Model
	scorer     *Scorer
}

// NewGenerator wires a generator from its two models and a scoring
// policy.
func NewGenerator(v *valuation.Model, s *settlement.Model, policy ScoringPolicy) *Generator {
	return &Generator{valuation: v, settlement: s, scorer: NewScorer(policy, v)}
}

// Generate builds the full projection series for a profile, spanning
// [0, termMonths+6], with exactly one month flagged optimal.
func (g *Generator) Generate(profile domain.VehicleFinanceProfile) []domain.MonthlyProjection {
	curve := g.ValueCurve(profile)
	optimal := g.scorer.OptimalMonth(curve, profile)
	return Assemble(curve, profile, optimal)
}

// Horizon returns the number of months projected for a profile; the
// series covers month indices 0..Horizon-1.
func (g *Generator) Horizon(profile domain.VehicleFinanceProfile) int {
	term := profile.TermMonths
	if term <= 0 {
		// Cash vehicles have no contract; project a conventional
		// five-year ownership window instead.
		term = 60
	}
	return term + g.scorer.policy.HorizonPadMonths
}

// ValueCurve is the first pass: trade-in/private value and settlement
// for every month, with mileage tracked forward from the estimated
// starting odometer. Flags are left unset.
func (g *Generator) ValueCurve(profile domain.VehicleFinanceProfile) []domain.MonthlyProjection {
	horizon := g.Horizon(profile)
	startMiles := profile.EstimatedStartingMileage()
	monthlyMiles := profile.MonthlyMileageRate()

	curve := make([]domain.MonthlyProjection, 0, horizon)
	for month := 0; month < horizon; month++ {
		miles := startMiles + float64(month)*monthlyMiles
		value := g.valuation.Estimate(profile.PurchasePrice, profile.Category, month, miles, profile.ExpectedAnnualMiles)
		quote := g.settlement.Settle(profile, month)

		curve = append(curve, monthPoint(month, value.TradeIn, value.Private, quote.TotalSettlement, domain.ProvenanceFormula))
	}
	return curve
}

// monthPoint builds one unflagged projection entry, keeping the equity
// identity equity == value − settlement exact for both channels.
func monthPoint(month int, tradeIn, private, settle float64, provenance domain.ValueProvenance) domain.MonthlyProjection {
	tradeEquity := tradeIn - settle
	return domain.MonthlyProjection{
		Month:         month,
		TradeInValue:  tradeIn,
		PrivateValue:  private,
		Settlement:    settle,
		TradeInEquity: tradeEquity,
		PrivateEquity: private - settle,
		Status:        domain.StatusForEquity(tradeEquity),
		Provenance:    provenance,
	}
}

// Assemble is the third pass: rebuild the series with the optimal,
// break-even, balloon and contract-end flags set. The input curve is
// not mutated.
func Assemble(curve []domain.MonthlyProjection, profile domain.VehicleFinanceProfile, optimalMonth int) []domain.MonthlyProjection {
	out := make([]domain.MonthlyProjection, len(curve))
	copy(out, curve)

	breakEvenSet := false
	for i := range out {
		p := &out[i]
		p.IsOptimalMonth = p.Month == optimalMonth
		if !breakEvenSet && p.TradeInEquity >= 0 {
			p.IsBreakEvenMonth = true
			breakEvenSet = true
		}
		if profile.TermMonths > 0 && p.Month == profile.TermMonths {
			p.IsContractEnd = true
			if profile.FinanceKind == domain.FinanceBalloon && profile.BalloonAmount > 0 {
				p.IsBalloonMonth = true
			}
		}
	}
	return out
}
