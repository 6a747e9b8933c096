package hybrid

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sellpoint/sellpoint/internal/domain"
	"github.com/sellpoint/sellpoint/internal/projection"
	"github.com/sellpoint/sellpoint/internal/settlement"
	"github.com/sellpoint/sellpoint/internal/valuation"
)

func newTestBlender() *Blender {
	v := valuation.NewModel(valuation.DefaultPolicy())
	s := settlement.NewModel(settlement.DefaultRebatePolicy())
	policy := projection.DefaultScoringPolicy()
	return NewBlender(projection.NewGenerator(v, s, policy), v, policy)
}

func annuityPayment(principal, annualRatePct float64, term int) float64 {
	i := annualRatePct / 100 / 12
	return principal * i / (1 - math.Pow(1+i, -float64(term)))
}

func testProfile() domain.VehicleFinanceProfile {
	return domain.VehicleFinanceProfile{
		PurchasePrice:       30000,
		Category:            domain.CategoryEconomy,
		FinanceKind:         domain.FinanceInstallment,
		Principal:           27000,
		MonthlyPayment:      annuityPayment(27000, 6.0, 60),
		AnnualRatePct:       6.0,
		TermMonths:          60,
		MonthsElapsed:       18,
		CurrentMileage:      15000,
		ExpectedAnnualMiles: 10000,
	}
}

func highSnapshot(trade float64) *domain.MarketValuationSnapshot {
	return &domain.MarketValuationSnapshot{
		Value:        trade * 1.05,
		TradeInValue: trade,
		PrivateValue: trade * 1.12,
		Confidence:   domain.ConfidenceHigh,
		CapturedAt:   time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestGenerate_AnchorExactness(t *testing.T) {
	blender := newTestBlender()
	profile := testProfile()
	snapshot := highSnapshot(19500)

	series := blender.Generate(profile, snapshot)
	require.Len(t, series, 66)

	anchor := series[18]
	assert.Equal(t, domain.ProvenanceMarket, anchor.Provenance)
	assert.Equal(t, 19500.0, anchor.TradeInValue)
	assert.Equal(t, snapshot.PrivateValue, anchor.PrivateValue)
	// Equity identity still exact at the anchor.
	assert.InDelta(t, anchor.TradeInValue-anchor.Settlement, anchor.TradeInEquity, 1e-9)
}

func TestGenerate_NoSnapshotDegradesToFormula(t *testing.T) {
	blender := newTestBlender()
	profile := testProfile()

	v := valuation.NewModel(valuation.DefaultPolicy())
	s := settlement.NewModel(settlement.DefaultRebatePolicy())
	pure := projection.NewGenerator(v, s, projection.DefaultScoringPolicy()).Generate(profile)

	assert.Equal(t, pure, blender.Generate(profile, nil))

	empty := &domain.MarketValuationSnapshot{Confidence: domain.ConfidenceEstimate}
	assert.Equal(t, pure, blender.Generate(profile, empty))
}

func TestGenerate_ProvenanceSplitsAroundAnchor(t *testing.T) {
	blender := newTestBlender()
	series := blender.Generate(testProfile(), highSnapshot(19500))

	for _, p := range series {
		if p.Month == 18 {
			assert.Equal(t, domain.ProvenanceMarket, p.Provenance)
		} else {
			assert.Equal(t, domain.ProvenanceProjected, p.Provenance, "month %d", p.Month)
		}
	}
}

func TestGenerate_BackExtrapolationRisesTowardPurchase(t *testing.T) {
	blender := newTestBlender()
	series := blender.Generate(testProfile(), highSnapshot(19500))

	// Undoing depreciation month by month: values strictly rise walking
	// back from the anchor.
	for m := 17; m >= 0; m-- {
		assert.Greater(t, series[m].TradeInValue, series[m+1].TradeInValue, "month %d", m)
	}
}

func TestGenerate_ForwardExtrapolationDecaysAndFloors(t *testing.T) {
	blender := newTestBlender()
	profile := testProfile()
	profile.ExpectedAnnualMiles = 40000 // force mileage cliffs into the horizon
	snapshot := highSnapshot(19500)

	series := blender.Generate(profile, snapshot)
	floor := 19500 * 0.15

	prev := series[18].TradeInValue
	for m := 19; m < len(series); m++ {
		assert.LessOrEqual(t, series[m].TradeInValue, prev+1e-9, "month %d", m)
		assert.GreaterOrEqual(t, series[m].TradeInValue, floor-1e-9, "month %d", m)
		prev = series[m].TradeInValue
	}
}

func TestGenerate_SingleOptimalFlagOnBlendedCurve(t *testing.T) {
	blender := newTestBlender()
	series := blender.Generate(testProfile(), highSnapshot(19500))

	count := 0
	for _, p := range series {
		if p.IsOptimalMonth {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestGenerate_TradeOnlySnapshotDerivesPrivateChannel(t *testing.T) {
	blender := newTestBlender()
	snapshot := &domain.MarketValuationSnapshot{
		TradeInValue: 18000,
		Confidence:   domain.ConfidenceMedium,
	}

	series := blender.Generate(testProfile(), snapshot)
	anchor := series[18]
	assert.Equal(t, 18000.0, anchor.TradeInValue)
	assert.InDelta(t, 18000*1.12, anchor.PrivateValue, 0.01)
}
