package calibration

import "fmt"

// GateThresholds are the release criteria for a calibration run. A
// failed gate is a finding, never an error: the harness always reports
// every gate.
type GateThresholds struct {
	Within1Min       float64 `yaml:"within_1_min"`
	Within2Min       float64 `yaml:"within_2_min"`
	PrematureMax     int     `yaml:"premature_max"`
	StabilityMin     float64 `yaml:"stability_min"`
	FalsePositiveMax float64 `yaml:"false_positive_max"`
	RegressionMAEMax float64 `yaml:"regression_mae_max"`
	RegressionWorst  int     `yaml:"regression_worst_max"`
	P99MillisMax     float64 `yaml:"p99_millis_max"`
}

// DefaultGateThresholds are the shipping criteria.
func DefaultGateThresholds() GateThresholds {
	return GateThresholds{
		Within1Min:       0.88,
		Within2Min:       0.95,
		PrematureMax:     0,
		StabilityMin:     0.88,
		FalsePositiveMax: 0.01,
		RegressionMAEMax: 0.6,
		RegressionWorst:  6,
		P99MillisMax:     50,
	}
}

// GateResult is one gate's verdict with the value it was judged on.
type GateResult struct {
	Name      string  `json:"name"`
	Value     float64 `json:"value"`
	Threshold float64 `json:"threshold"`
	Passed    bool    `json:"passed"`
}

// GateReport collects every gate verdict for a run.
type GateReport struct {
	Gates []GateResult `json:"gates"`
}

// AllPassed reports whether every evaluated gate passed.
func (r GateReport) AllPassed() bool {
	for _, g := range r.Gates {
		if !g.Passed {
			return false
		}
	}
	return true
}

// Failed lists the names of failed gates.
func (r GateReport) Failed() []string {
	var names []string
	for _, g := range r.Gates {
		if !g.Passed {
			names = append(names, g.Name)
		}
	}
	return names
}

func (r GateReport) String() string {
	return fmt.Sprintf("gates: %d total, failed: %v", len(r.Gates), r.Failed())
}

// EvaluateGates grades a full run against the thresholds. regression
// may be nil when no baseline exists; its gates are then skipped.
func EvaluateGates(t GateThresholds, golden GoldenResult, mc MonteCarloResult, regression *RegressionResult) GateReport {
	report := GateReport{}
	add := func(name string, value, threshold float64, passed bool) {
		report.Gates = append(report.Gates, GateResult{Name: name, Value: value, Threshold: threshold, Passed: passed})
	}

	add("golden_within_1", golden.Within1Rate(), t.Within1Min, golden.Within1Rate() >= t.Within1Min)
	add("golden_within_2", golden.Within2Rate(), t.Within2Min, golden.Within2Rate() >= t.Within2Min)
	add("premature_calls", float64(golden.PrematureCalls), float64(t.PrematureMax), golden.PrematureCalls <= t.PrematureMax)
	add("mc_stability", mc.StabilityRate(), t.StabilityMin, mc.StabilityRate() >= t.StabilityMin)
	add("mc_false_positive", mc.FalsePositiveRate(), t.FalsePositiveMax, mc.FalsePositiveRate() <= t.FalsePositiveMax)
	add("p99_latency_ms", golden.P99Millis, t.P99MillisMax, golden.P99Millis <= t.P99MillisMax)

	if regression != nil {
		add("regression_mae", regression.MeanAbsDrift, t.RegressionMAEMax, regression.MeanAbsDrift <= t.RegressionMAEMax)
		add("regression_worst", float64(regression.WorstDrift), float64(t.RegressionWorst), regression.WorstDrift <= t.RegressionWorst)
	}

	return report
}
