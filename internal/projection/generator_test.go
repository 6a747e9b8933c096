package projection

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sellpoint/sellpoint/internal/domain"
	"github.com/sellpoint/sellpoint/internal/settlement"
	"github.com/sellpoint/sellpoint/internal/valuation"
)

func newTestGenerator() *Generator {
	return NewGenerator(
		valuation.NewModel(valuation.DefaultPolicy()),
		settlement.NewModel(settlement.DefaultRebatePolicy()),
		DefaultScoringPolicy(),
	)
}

// annuityPayment builds self-consistent installment profiles.
func annuityPayment(principal, annualRatePct float64, term int) float64 {
	i := annualRatePct / 100 / 12
	if i == 0 {
		return principal / float64(term)
	}
	return principal * i / (1 - math.Pow(1+i, -float64(term)))
}

func economyProfile() domain.VehicleFinanceProfile {
	return domain.VehicleFinanceProfile{
		PurchasePrice:       30000,
		Category:            domain.CategoryEconomy,
		FinanceKind:         domain.FinanceInstallment,
		Principal:           27000,
		MonthlyPayment:      annuityPayment(27000, 6.0, 60),
		AnnualRatePct:       6.0,
		TermMonths:          60,
		MonthsElapsed:       12,
		CurrentMileage:      10000,
		ExpectedAnnualMiles: 10000,
	}
}

func TestGenerate_ExampleScenario(t *testing.T) {
	// Economy vehicle, 30k price, 27k principal at 6% over 60 months,
	// mileage on track, no snapshot.
	series := newTestGenerator().Generate(economyProfile())

	// 66 entries covering months 0..65.
	require.Len(t, series, 66)
	for i, p := range series {
		assert.Equal(t, i, p.Month)
		assert.Equal(t, domain.ProvenanceFormula, p.Provenance)
		// Equity identity holds to the cent at every index.
		assert.InDelta(t, p.TradeInValue-p.Settlement, p.TradeInEquity, 0.005, "month %d", i)
		assert.InDelta(t, p.PrivateValue-p.Settlement, p.PrivateEquity, 0.005, "month %d", i)
	}

	optimal := domain.OptimalMonth(series)
	require.GreaterOrEqual(t, optimal, 0)
	assert.GreaterOrEqual(t, series[optimal].Month, 18)
	assert.LessOrEqual(t, series[optimal].Month, 48)
}

func TestGenerate_ExactlyOneOptimalFlag(t *testing.T) {
	gen := newTestGenerator()

	profiles := []domain.VehicleFinanceProfile{
		economyProfile(),
		{ // deep negative equity throughout
			PurchasePrice:       20000,
			Category:            domain.CategoryEV,
			FinanceKind:         domain.FinanceInstallment,
			Principal:           26000,
			MonthlyPayment:      annuityPayment(26000, 14.0, 72),
			AnnualRatePct:       14.0,
			TermMonths:          72,
			CurrentMileage:      30000,
			ExpectedAnnualMiles: 25000,
		},
		{ // short term routes to the fallback search
			PurchasePrice:       15000,
			Category:            domain.CategoryEconomy,
			FinanceKind:         domain.FinanceInstallment,
			Principal:           10000,
			MonthlyPayment:      annuityPayment(10000, 5.0, 18),
			AnnualRatePct:       5.0,
			TermMonths:          18,
			ExpectedAnnualMiles: 8000,
		},
		{ // cash, no finance at all
			PurchasePrice:       40000,
			Category:            domain.CategoryExotic,
			FinanceKind:         domain.FinanceCash,
			ExpectedAnnualMiles: 5000,
		},
	}

	for _, profile := range profiles {
		series := gen.Generate(profile)
		count := 0
		for _, p := range series {
			if p.IsOptimalMonth {
				count++
			}
		}
		assert.Equal(t, 1, count, "kind=%s term=%d", profile.FinanceKind, profile.TermMonths)
	}
}

func TestGenerate_BreakEvenAndContractFlags(t *testing.T) {
	profile := economyProfile()
	series := newTestGenerator().Generate(profile)

	breakEven := -1
	for _, p := range series {
		if p.IsBreakEvenMonth {
			require.Equal(t, -1, breakEven, "break-even flagged twice")
			breakEven = p.Month
			assert.GreaterOrEqual(t, p.TradeInEquity, 0.0)
		}
		if p.Month == 60 {
			assert.True(t, p.IsContractEnd)
			assert.False(t, p.IsBalloonMonth, "installment loans have no balloon month")
		} else {
			assert.False(t, p.IsContractEnd)
		}
	}
	require.NotEqual(t, -1, breakEven)

	// Every month before break-even is underwater.
	for _, p := range series[:breakEven] {
		assert.Less(t, p.TradeInEquity, 0.0, "month %d", p.Month)
	}
}

func TestGenerate_BalloonMonthFlag(t *testing.T) {
	profile := domain.VehicleFinanceProfile{
		PurchasePrice:       35000,
		Category:            domain.CategoryPremium,
		FinanceKind:         domain.FinanceBalloon,
		Principal:           30000,
		MonthlyPayment:      400,
		AnnualRatePct:       7.0,
		TermMonths:          48,
		BalloonAmount:       12000,
		ExpectedAnnualMiles: 10000,
	}

	series := newTestGenerator().Generate(profile)
	require.Len(t, series, 54)

	assert.True(t, series[48].IsBalloonMonth)
	assert.True(t, series[48].IsContractEnd)
	// The balloon stays owed: settlement at term is the balloon, not 0.
	assert.InDelta(t, 12000, series[48].Settlement, 1.0)
}

func TestValueCurve_MileageTracksForward(t *testing.T) {
	gen := newTestGenerator()
	profile := economyProfile()
	profile.CurrentMileage = 25000
	profile.MonthsElapsed = 12 // 833/mo expected → starting mileage ≈ 15k

	curve := gen.ValueCurve(profile)
	// Higher accumulated mileage should not value above the on-track
	// baseline at any future month.
	baseline := gen.ValueCurve(economyProfile())
	for m := 12; m < len(curve); m++ {
		assert.LessOrEqual(t, curve[m].TradeInValue, baseline[m].TradeInValue+0.01, "month %d", m)
	}
}

func TestAssemble_DoesNotMutateInput(t *testing.T) {
	gen := newTestGenerator()
	profile := economyProfile()
	curve := gen.ValueCurve(profile)

	before := make([]domain.MonthlyProjection, len(curve))
	copy(before, curve)

	_ = Assemble(curve, profile, 24)
	assert.Equal(t, before, curve)
}

func TestGenerate_StatusMatchesEquitySign(t *testing.T) {
	series := newTestGenerator().Generate(economyProfile())
	for _, p := range series {
		switch {
		case p.TradeInEquity > 1:
			assert.Equal(t, domain.StatusWinning, p.Status, "month %d", p.Month)
		case p.TradeInEquity < -1:
			assert.Equal(t, domain.StatusLosing, p.Status, "month %d", p.Month)
		default:
			assert.Equal(t, domain.StatusBreakeven, p.Status, "month %d", p.Month)
		}
	}
}
