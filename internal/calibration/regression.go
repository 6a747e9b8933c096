package calibration

// Baseline is the per-case prediction record persisted after an
// accepted run, keyed by case ID.
type Baseline struct {
	Version     string         `json:"version"`
	DatasetSeed int64          `json:"dataset_seed"`
	Predictions map[string]int `json:"predictions"`
}

// BaselineFromGolden captures the current run's predictions as a new
// baseline.
func BaselineFromGolden(version string, seed int64, golden GoldenResult) Baseline {
	predictions := make(map[string]int, len(golden.Outcomes))
	for _, o := range golden.Outcomes {
		predictions[o.CaseID] = o.PredictedMonth
	}
	return Baseline{Version: version, DatasetSeed: seed, Predictions: predictions}
}

// CaseDrift is one case's movement against the baseline.
type CaseDrift struct {
	CaseID   string `json:"case_id"`
	Baseline int    `json:"baseline"`
	Current  int    `json:"current"`
	Drift    int    `json:"drift"`
}

// RegressionResult compares a run against the stored baseline.
type RegressionResult struct {
	BaselineVersion string      `json:"baseline_version"`
	Compared        int         `json:"compared"`
	MeanAbsDrift    float64     `json:"mean_abs_drift"`
	WorstDrift      int         `json:"worst_drift"`
	Drifted         []CaseDrift `json:"drifted,omitempty"`
}

// CompareBaseline grades the current run's predictions against a prior
// baseline. Cases absent from either side are skipped; only shared IDs
// count toward drift.
func CompareBaseline(baseline Baseline, golden GoldenResult) RegressionResult {
	result := RegressionResult{BaselineVersion: baseline.Version}
	totalDrift := 0

	for _, o := range golden.Outcomes {
		prior, ok := baseline.Predictions[o.CaseID]
		if !ok {
			continue
		}
		result.Compared++
		drift := o.PredictedMonth - prior
		if drift < 0 {
			drift = -drift
		}
		totalDrift += drift
		if drift > result.WorstDrift {
			result.WorstDrift = drift
		}
		if drift > 0 {
			result.Drifted = append(result.Drifted, CaseDrift{
				CaseID:   o.CaseID,
				Baseline: prior,
				Current:  o.PredictedMonth,
				Drift:    drift,
			})
		}
	}

	if result.Compared > 0 {
		result.MeanAbsDrift = float64(totalDrift) / float64(result.Compared)
	}
	return result
}
