package engine

import (
	"github.com/sellpoint/sellpoint/internal/config"
	"github.com/sellpoint/sellpoint/internal/domain"
	"github.com/sellpoint/sellpoint/internal/hybrid"
	"github.com/sellpoint/sellpoint/internal/projection"
	"github.com/sellpoint/sellpoint/internal/recommend"
	"github.com/sellpoint/sellpoint/internal/settlement"
	"github.com/sellpoint/sellpoint/internal/valuation"
)

// Pipeline is the assembled resale-timing engine: valuation and
// settlement models feed the projection generator, the hybrid blender
// pins projections to market snapshots when one is available, and the
// recommendation engine interprets the result.
type Pipeline struct {
	Valuation  *valuation.Model
	Settlement *settlement.Model
	Generator  *projection.Generator
	Blender    *hybrid.Blender
	Advisor    *recommend.Engine
}

// New assembles a pipeline from a policy set.
func New(policies config.Policies) *Pipeline {
	v := valuation.NewModel(policies.Valuation)
	s := settlement.NewModel(policies.Rebate)
	gen := projection.NewGenerator(v, s, policies.Scoring)
	return &Pipeline{
		Valuation:  v,
		Settlement: s,
		Generator:  gen,
		Blender:    hybrid.NewBlender(gen, v, policies.Scoring),
		Advisor:    recommend.NewEngine(policies.Recommend),
	}
}

// Default assembles a pipeline over the default policy set.
func Default() *Pipeline {
	return New(config.DefaultPolicies())
}

// Project produces the monthly projection series for a profile,
// anchored to the snapshot when one is usable.
func (p *Pipeline) Project(profile domain.VehicleFinanceProfile, snapshot *domain.MarketValuationSnapshot) []domain.MonthlyProjection {
	return p.Blender.Generate(profile, snapshot)
}

// Recommend interprets a projection series into sell guidance.
func (p *Pipeline) Recommend(profile domain.VehicleFinanceProfile, series []domain.MonthlyProjection) domain.SellRecommendation {
	return p.Advisor.Recommend(profile, series)
}

// Analyze is the one-call convenience: project then recommend.
func (p *Pipeline) Analyze(profile domain.VehicleFinanceProfile, snapshot *domain.MarketValuationSnapshot) ([]domain.MonthlyProjection, domain.SellRecommendation) {
	series := p.Project(profile, snapshot)
	return series, p.Recommend(profile, series)
}
