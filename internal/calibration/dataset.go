package calibration

import (
	"fmt"
	"math/rand"

	"github.com/sellpoint/sellpoint/internal/domain"
)

// CaseKind labels which synthetic population a case belongs to.
type CaseKind string

const (
	KindNormal  CaseKind = "normal"
	KindBalloon CaseKind = "balloon"
	KindEV      CaseKind = "ev"
	KindEdge    CaseKind = "edge"
)

// EdgeCategory names the stress scenario an edge case encodes.
type EdgeCategory string

const (
	EdgeMarketShock    EdgeCategory = "market_shock"
	EdgeRecall         EdgeCategory = "recall"
	EdgeBuyback        EdgeCategory = "buyback"
	EdgeNegativeRoll   EdgeCategory = "negative_equity_rollover"
	EdgeExtremeMileage EdgeCategory = "extreme_mileage"
	EdgeExtremeTerms   EdgeCategory = "extreme_finance_terms"
)

// edgeCategories in generation order; the battery cycles through them.
var edgeCategories = []EdgeCategory{
	EdgeMarketShock, EdgeRecall, EdgeBuyback,
	EdgeNegativeRoll, EdgeExtremeMileage, EdgeExtremeTerms,
}

// Case is one synthetic vehicle with an independently derived
// ground-truth optimal month.
type Case struct {
	ID           string                          `json:"id"`
	Kind         CaseKind                        `json:"kind"`
	EdgeCategory EdgeCategory                    `json:"edge_category,omitempty"`
	Seed         int64                           `json:"seed"`
	Profile      domain.VehicleFinanceProfile    `json:"profile"`
	Snapshot     *domain.MarketValuationSnapshot `json:"snapshot,omitempty"`

	// ValueShock scales the whole value curve in the ground-truth
	// simulation: market shocks, recalls and buybacks move real curves
	// in ways the formula cannot see.
	ValueShock float64 `json:"value_shock"`

	GroundTruthMonth int `json:"ground_truth_month"`
}

// Dataset is a reproducible population: the same seed always produces
// byte-identical cases.
type Dataset struct {
	Version string `json:"version"`
	Seed    int64  `json:"seed"`
	Cases   []Case `json:"cases"`
}

// DatasetSpec sizes the synthetic populations.
type DatasetSpec struct {
	Normal  int `yaml:"normal"`
	Balloon int `yaml:"balloon"`
	EV      int `yaml:"ev"`
	Edge    int `yaml:"edge"`
}

// DefaultDatasetSpec matches the golden suite: 100 normal, 50 balloon,
// 30 EV and 200 categorized edge cases.
func DefaultDatasetSpec() DatasetSpec {
	return DatasetSpec{Normal: 100, Balloon: 50, EV: 30, Edge: 200}
}

// Total returns the combined case count across all populations.
func (s DatasetSpec) Total() int {
	return s.Normal + s.Balloon + s.EV + s.Edge
}

// DatasetGenerator builds deterministic synthetic populations from a
// fixed seed.
type DatasetGenerator struct {
	seed   int64
	truth  *GroundTruth
	rng    *rand.Rand
	nextID int
}

// NewDatasetGenerator creates a generator; truth derives each case's
// ground-truth optimal month at generation time.
func NewDatasetGenerator(seed int64, truth *GroundTruth) *DatasetGenerator {
	return &DatasetGenerator{
		seed:  seed,
		truth: truth,
		rng:   rand.New(rand.NewSource(seed)),
	}
}

// Generate builds the full dataset for a spec.
func (g *DatasetGenerator) Generate(version string, spec DatasetSpec) Dataset {
	cases := make([]Case, 0, spec.Total())
	for i := 0; i < spec.Normal; i++ {
		cases = append(cases, g.normalCase())
	}
	for i := 0; i < spec.Balloon; i++ {
		cases = append(cases, g.balloonCase())
	}
	for i := 0; i < spec.EV; i++ {
		cases = append(cases, g.evCase())
	}
	for i := 0; i < spec.Edge; i++ {
		cases = append(cases, g.edgeCase(edgeCategories[i%len(edgeCategories)]))
	}
	return Dataset{Version: version, Seed: g.seed, Cases: cases}
}

func (g *DatasetGenerator) normalCase() Case {
	price := 15000 + g.rng.Float64()*30000
	term := pick(g.rng, 36, 48, 60)
	apr := 3 + g.rng.Float64()*7
	principal := price * (0.75 + g.rng.Float64()*0.2)
	category := pick(g.rng, domain.CategoryEconomy, domain.CategoryEconomy, domain.CategoryPremium)

	return g.finish(Case{
		Kind:       KindNormal,
		ValueShock: 1,
		Profile: domain.VehicleFinanceProfile{
			PurchasePrice:       round2(price),
			Category:            category,
			FinanceKind:         domain.FinanceInstallment,
			Principal:           round2(principal),
			MonthlyPayment:      round2(annuityPayment(principal, apr, term)),
			AnnualRatePct:       round2(apr),
			TermMonths:          term,
			DepositAmount:       round2(price - principal),
			MonthsElapsed:       g.rng.Intn(36),
			ExpectedAnnualMiles: float64(8000 + g.rng.Intn(6)*1000),
		},
	})
}

func (g *DatasetGenerator) balloonCase() Case {
	price := 20000 + g.rng.Float64()*40000
	term := pick(g.rng, 36, 48)
	apr := 4 + g.rng.Float64()*6
	principal := price * (0.8 + g.rng.Float64()*0.15)
	residualPct := 0.30 + g.rng.Float64()*0.20

	return g.finish(Case{
		Kind:       KindBalloon,
		ValueShock: 1,
		Profile: domain.VehicleFinanceProfile{
			PurchasePrice:       round2(price),
			Category:            pick(g.rng, domain.CategoryPremium, domain.CategoryEconomy),
			FinanceKind:         domain.FinanceBalloon,
			Principal:           round2(principal),
			MonthlyPayment:      round2(balloonPayment(principal, principal*residualPct, apr, term)),
			AnnualRatePct:       round2(apr),
			TermMonths:          term,
			BalloonAmount:       round2(principal * residualPct),
			DepositAmount:       round2(price - principal),
			MonthsElapsed:       g.rng.Intn(30),
			ExpectedAnnualMiles: float64(8000 + g.rng.Intn(8)*1000),
		},
	})
}

func (g *DatasetGenerator) evCase() Case {
	price := 25000 + g.rng.Float64()*35000
	term := pick(g.rng, 48, 60)
	apr := 2 + g.rng.Float64()*6
	principal := price * (0.8 + g.rng.Float64()*0.15)

	return g.finish(Case{
		Kind:       KindEV,
		ValueShock: 1,
		Profile: domain.VehicleFinanceProfile{
			PurchasePrice:       round2(price),
			Category:            domain.CategoryEV,
			FinanceKind:         domain.FinanceInstallment,
			Principal:           round2(principal),
			MonthlyPayment:      round2(annuityPayment(principal, apr, term)),
			AnnualRatePct:       round2(apr),
			TermMonths:          term,
			DepositAmount:       round2(price - principal),
			MonthsElapsed:       g.rng.Intn(24),
			ExpectedAnnualMiles: float64(6000 + g.rng.Intn(8)*1000),
		},
	})
}

// edgeCase stresses one scenario category. The profiles stay valid
// per the engine's preconditions; the stress lives in the extremes.
func (g *DatasetGenerator) edgeCase(category EdgeCategory) Case {
	c := g.normalCase()
	c.Kind = KindEdge
	c.EdgeCategory = category

	switch category {
	case EdgeMarketShock:
		// A sudden market-wide repricing of this segment.
		c.ValueShock = 0.90 + g.rng.Float64()*0.07
	case EdgeRecall:
		// A safety recall dents the value curve harder.
		c.ValueShock = 0.87 + g.rng.Float64()*0.07
	case EdgeBuyback:
		// Manufacturer buyback programs prop values up.
		c.ValueShock = 1.03 + g.rng.Float64()*0.05
	case EdgeNegativeRoll:
		// Negative equity rolled into the new loan: financed well above
		// the purchase price.
		c.Profile.Principal = round2(c.Profile.PurchasePrice * (1.05 + g.rng.Float64()*0.25))
		c.Profile.MonthlyPayment = round2(annuityPayment(c.Profile.Principal, c.Profile.AnnualRatePct, c.Profile.TermMonths))
		c.Profile.DepositAmount = 0
	case EdgeExtremeMileage:
		c.Profile.ExpectedAnnualMiles = float64(25000 + g.rng.Intn(20)*1000)
		c.Profile.CurrentMileage = c.Profile.ExpectedAnnualMiles / 12 * float64(c.Profile.MonthsElapsed)
	case EdgeExtremeTerms:
		c.Profile.TermMonths = pick(g.rng, 12, 84, 96)
		c.Profile.AnnualRatePct = round2(15 + g.rng.Float64()*15)
		c.Profile.MonthlyPayment = round2(annuityPayment(c.Profile.Principal, c.Profile.AnnualRatePct, c.Profile.TermMonths))
	}

	return g.refresh(c)
}

// finish assigns identity, mileage consistency and the ground truth.
func (g *DatasetGenerator) finish(c Case) Case {
	g.nextID++
	c.ID = fmt.Sprintf("case-%04d", g.nextID)
	c.Seed = g.rng.Int63()
	if c.Profile.CurrentMileage == 0 {
		c.Profile.CurrentMileage = c.Profile.ExpectedAnnualMiles / 12 * float64(c.Profile.MonthsElapsed)
	}
	c.GroundTruthMonth = g.truth.OptimalMonth(c)
	return c
}

// refresh recomputes the ground truth after an edge mutation.
func (g *DatasetGenerator) refresh(c Case) Case {
	c.GroundTruthMonth = g.truth.OptimalMonth(c)
	return c
}
