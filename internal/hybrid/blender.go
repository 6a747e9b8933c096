package hybrid

import (
	"github.com/rs/zerolog/log"

	"github.com/sellpoint/sellpoint/internal/domain"
	"github.com/sellpoint/sellpoint/internal/projection"
	"github.com/sellpoint/sellpoint/internal/valuation"
)

// Blender anchors the formula-driven projection to a fresher external
// valuation snapshot when one exists. The anchor month is pinned exactly
// to the snapshot; earlier months are back-extrapolated and later months
// forward-extrapolated from it. Without a usable snapshot it degrades to
// the pure formula projection: callers always get the same output shape.
type Blender struct {
	generator *projection.Generator
	valuation *valuation.Model
	scorer    *projection.Scorer
}

// NewBlender wires a blender over the same models the pure generator
// uses. Settlement figures come through the generator's value curve;
// market data never touches them.
func NewBlender(gen *projection.Generator, v *valuation.Model, policy projection.ScoringPolicy) *Blender {
	return &Blender{
		generator: gen,
		valuation: v,
		scorer:    projection.NewScorer(policy, v),
	}
}

// Generate produces a projection series, blended around the snapshot if
// it is usable.
func (b *Blender) Generate(profile domain.VehicleFinanceProfile, snapshot *domain.MarketValuationSnapshot) []domain.MonthlyProjection {
	if !snapshot.Usable() {
		return b.generator.Generate(profile)
	}

	curve := b.blendedCurve(profile, snapshot)
	optimal := b.scorer.OptimalMonth(curve, profile)

	log.Debug().
		Int("anchor_month", anchorMonth(profile, len(curve))).
		Str("confidence", string(snapshot.Confidence)).
		Int("optimal_month", optimal).
		Msg("blended projection anchored to market snapshot")

	return projection.Assemble(curve, profile, optimal)
}

// anchorMonth clamps the profile's elapsed months onto the curve.
func anchorMonth(profile domain.VehicleFinanceProfile, curveLen int) int {
	anchor := profile.MonthsElapsed
	if anchor < 0 {
		anchor = 0
	}
	if anchor > curveLen-1 {
		anchor = curveLen - 1
	}
	return anchor
}

// blendedCurve replaces the formula value channel with one derived from
// the snapshot: exact at the anchor, compounded in reverse before it and
// forward (with an incremental mileage penalty) after it. Settlement is
// untouched; it never depends on market data.
func (b *Blender) blendedCurve(profile domain.VehicleFinanceProfile, snapshot *domain.MarketValuationSnapshot) []domain.MonthlyProjection {
	base := b.generator.ValueCurve(profile)
	anchor := anchorMonth(profile, len(base))

	anchorTrade := snapshot.AnchorTradeIn()
	anchorPrivate := snapshot.AnchorPrivate()
	if anchorPrivate <= 0 {
		anchorPrivate = anchorTrade * b.valuation.PrivatePremium()
	}

	out := make([]domain.MonthlyProjection, len(base))

	// Anchor month: pinned exactly, market provenance.
	out[anchor] = blendPoint(base[anchor], anchorTrade, anchorPrivate, domain.ProvenanceMarket)

	// Back-extrapolation: undo one month of depreciation at a time.
	trade, private := anchorTrade, anchorPrivate
	for m := anchor - 1; m >= 0; m-- {
		rate := b.valuation.MonthlyRate(profile.Category, m)
		if rate < 1 {
			trade /= 1 - rate
			private /= 1 - rate
		}
		out[m] = blendPoint(base[m], trade, private, domain.ProvenanceProjected)
	}

	// Forward extrapolation: compound the same rate and shave an
	// incremental mileage penalty, floored at 15% of the anchor value.
	trade, private = anchorTrade, anchorPrivate
	floor := b.valuation.FloorFor(anchorTrade)
	monthlyMiles := profile.MonthlyMileageRate()
	for m := anchor + 1; m < len(base); m++ {
		rate := b.valuation.MonthlyRate(profile.Category, m)
		trade *= 1 - rate
		private *= 1 - rate

		penalty := b.mileagePenalty(profile, monthlyMiles, m)
		trade *= penalty
		private *= penalty

		if trade < floor {
			trade = floor
		}
		if private < floor {
			private = floor
		}
		out[m] = blendPoint(base[m], trade, private, domain.ProvenanceProjected)
	}

	return out
}

// mileagePenalty applies the cliff multiplier only in the month the
// odometer first crosses a threshold, so forward extrapolation shaves
// each cliff once.
func (b *Blender) mileagePenalty(profile domain.VehicleFinanceProfile, monthlyMiles float64, month int) float64 {
	if monthlyMiles <= 0 {
		return 1
	}
	start := profile.EstimatedStartingMileage()
	prev := start + float64(month-1)*monthlyMiles
	curr := start + float64(month)*monthlyMiles

	penalty := 1.0
	for _, cliff := range b.valuation.Cliffs() {
		if prev < cliff.Threshold && curr >= cliff.Threshold {
			penalty *= cliff.Penalty
		}
	}
	return penalty
}

// blendPoint rebuilds one curve entry with market-derived values while
// keeping the settlement (and the equity identity) intact.
func blendPoint(base domain.MonthlyProjection, trade, private float64, provenance domain.ValueProvenance) domain.MonthlyProjection {
	p := base
	p.TradeInValue = trade
	p.PrivateValue = private
	p.TradeInEquity = trade - base.Settlement
	p.PrivateEquity = private - base.Settlement
	p.Status = domain.StatusForEquity(p.TradeInEquity)
	p.Provenance = provenance
	return p
}
