package calibration

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// Metrics publishes calibration run results for scraping. Gates are
// reported, never enforced here; dashboards and alerts own the policy.
type Metrics struct {
	runsTotal      prometheus.Counter
	casesEvaluated prometheus.Counter
	accuracy       *prometheus.GaugeVec
	stability      prometheus.Gauge
	falsePositive  prometheus.Gauge
	regressionMAE  prometheus.Gauge
	gatePassed     *prometheus.GaugeVec
	caseDuration   prometheus.Histogram
}

// NewMetrics creates and registers the calibration metric set.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		runsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sellpoint_calibration_runs_total",
			Help: "Completed calibration runs",
		}),
		casesEvaluated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sellpoint_calibration_cases_total",
			Help: "Golden cases evaluated across all runs",
		}),
		accuracy: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "sellpoint_calibration_accuracy",
			Help: "Golden accuracy by tolerance band",
		}, []string{"band"}),
		stability: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sellpoint_calibration_mc_stability",
			Help: "Monte Carlo within-3-months stability rate",
		}),
		falsePositive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sellpoint_calibration_mc_false_positive_rate",
			Help: "Monte Carlo premature optimal_now rate",
		}),
		regressionMAE: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sellpoint_calibration_regression_mae",
			Help: "Mean absolute drift against the stored baseline",
		}),
		gatePassed: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "sellpoint_calibration_gate_passed",
			Help: "Per-gate verdict for the latest run (1 pass, 0 fail)",
		}, []string{"gate"}),
		caseDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sellpoint_calibration_case_duration_ms",
			Help:    "Per-case engine latency in milliseconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100},
		}),
	}

	reg.MustRegister(
		m.runsTotal, m.casesEvaluated, m.accuracy, m.stability,
		m.falsePositive, m.regressionMAE, m.gatePassed, m.caseDuration,
	)
	return m
}

// RecordRun publishes one finished run. regression may be nil.
func (m *Metrics) RecordRun(golden GoldenResult, mc MonteCarloResult, regression *RegressionResult, report GateReport) {
	m.runsTotal.Inc()
	m.casesEvaluated.Add(float64(golden.Total))
	m.accuracy.WithLabelValues("within_1").Set(golden.Within1Rate())
	m.accuracy.WithLabelValues("within_2").Set(golden.Within2Rate())
	m.stability.Set(mc.StabilityRate())
	m.falsePositive.Set(mc.FalsePositiveRate())
	if regression != nil {
		m.regressionMAE.Set(regression.MeanAbsDrift)
	}
	for _, o := range golden.Outcomes {
		m.caseDuration.Observe(o.DurationMillis)
	}
	for _, g := range report.Gates {
		v := 0.0
		if g.Passed {
			v = 1
		}
		m.gatePassed.WithLabelValues(g.Name).Set(v)
	}
}

// GaugeValue reads a gauge back out of a gatherer, matching on name and
// an optional single label pair. Used by operational checks that want
// the last published value without holding a reference to the metric.
func GaugeValue(g prometheus.Gatherer, name, labelName, labelValue string) (float64, error) {
	families, err := g.Gather()
	if err != nil {
		return 0, err
	}
	for _, fam := range families {
		if fam.GetName() != name {
			continue
		}
		for _, metric := range fam.GetMetric() {
			if labelName != "" && !hasLabel(metric, labelName, labelValue) {
				continue
			}
			if gauge := metric.GetGauge(); gauge != nil {
				return gauge.GetValue(), nil
			}
		}
	}
	return 0, fmt.Errorf("gauge %q not found", name)
}

func hasLabel(m *dto.Metric, name, value string) bool {
	for _, lp := range m.GetLabel() {
		if lp.GetName() == name && lp.GetValue() == value {
			return true
		}
	}
	return false
}
