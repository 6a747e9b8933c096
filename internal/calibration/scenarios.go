package calibration

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sellpoint/sellpoint/internal/domain"
)

// ScenarioFile is a hand-authored battery of named cases, layered on
// top of the generated populations. Analysts add regressions observed
// in production here without touching the generator.
type ScenarioFile struct {
	Version   string     `yaml:"version"`
	Scenarios []Scenario `yaml:"scenarios"`
}

// Scenario is one authored case. GroundTruthMonth may be given
// explicitly; when omitted (zero) it is derived by simulation.
type Scenario struct {
	Name             string                          `yaml:"name"`
	Kind             CaseKind                        `yaml:"kind"`
	EdgeCategory     EdgeCategory                    `yaml:"edge_category"`
	Seed             int64                           `yaml:"seed"`
	ValueShock       float64                         `yaml:"value_shock"`
	Profile          domain.VehicleFinanceProfile    `yaml:"profile"`
	Snapshot         *domain.MarketValuationSnapshot `yaml:"snapshot"`
	GroundTruthMonth int                             `yaml:"ground_truth_month"`
}

// LoadScenarios parses an authored scenario file and converts it to
// graded cases. Missing ground truths are derived with truth.
func LoadScenarios(path string, truth *GroundTruth) ([]Case, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario file: %w", err)
	}

	var file ScenarioFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse scenario file %s: %w", path, err)
	}

	cases := make([]Case, 0, len(file.Scenarios))
	for i, s := range file.Scenarios {
		if s.Name == "" {
			return nil, fmt.Errorf("scenario %d: missing name", i)
		}
		c := Case{
			ID:               "scenario-" + s.Name,
			Kind:             s.Kind,
			EdgeCategory:     s.EdgeCategory,
			Seed:             s.Seed,
			Profile:          s.Profile,
			Snapshot:         s.Snapshot,
			ValueShock:       s.ValueShock,
			GroundTruthMonth: s.GroundTruthMonth,
		}
		if c.Kind == "" {
			c.Kind = KindEdge
		}
		if c.ValueShock == 0 {
			c.ValueShock = 1
		}
		if c.GroundTruthMonth == 0 {
			c.GroundTruthMonth = truth.OptimalMonth(c)
		}
		cases = append(cases, c)
	}
	return cases, nil
}
