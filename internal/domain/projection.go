package domain

// ValueProvenance records where a month's valuation came from.
type ValueProvenance string

const (
	ProvenanceMarket    ValueProvenance = "market"    // pinned to an external snapshot
	ProvenanceProjected ValueProvenance = "projected" // extrapolated from a snapshot anchor
	ProvenanceFormula   ValueProvenance = "formula"   // pure depreciation model
)

// MonthStatus classifies the equity sign of a projection month.
type MonthStatus string

const (
	StatusWinning   MonthStatus = "winning"
	StatusLosing    MonthStatus = "losing"
	StatusBreakeven MonthStatus = "breakeven"
)

// MonthlyProjection is one point on the equity curve. Projections are
// produced in a batch per invocation and never mutated afterwards; the
// whole series is recomputed when inputs change.
type MonthlyProjection struct {
	Month int `json:"month"` // 0-based from purchase

	TradeInValue float64 `json:"trade_in_value"`
	PrivateValue float64 `json:"private_value"`
	Settlement   float64 `json:"settlement"`

	TradeInEquity float64 `json:"trade_in_equity"`
	PrivateEquity float64 `json:"private_equity"`

	Status     MonthStatus     `json:"status"`
	Provenance ValueProvenance `json:"provenance"`

	IsOptimalMonth   bool `json:"is_optimal_month"`
	IsBreakEvenMonth bool `json:"is_break_even_month"`
	IsBalloonMonth   bool `json:"is_balloon_month"`
	IsContractEnd    bool `json:"is_contract_end"`
}

// StatusForEquity maps a trade-in equity figure to a month status.
// Anything within one currency unit of zero counts as break-even.
func StatusForEquity(equity float64) MonthStatus {
	switch {
	case equity > 1:
		return StatusWinning
	case equity < -1:
		return StatusLosing
	default:
		return StatusBreakeven
	}
}

// OptimalMonth returns the index into series of the month flagged
// optimal, or -1 if the series is empty or unflagged.
func OptimalMonth(series []MonthlyProjection) int {
	for i := range series {
		if series[i].IsOptimalMonth {
			return i
		}
	}
	return -1
}

// PeakEquityMonth returns the month with the highest trade-in equity,
// resolving ties to the earlier month. Returns -1 for an empty series.
func PeakEquityMonth(series []MonthlyProjection) int {
	best := -1
	for i := range series {
		if best == -1 || series[i].TradeInEquity > series[best].TradeInEquity {
			best = i
		}
	}
	if best == -1 {
		return -1
	}
	return series[best].Month
}
