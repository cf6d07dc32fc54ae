package harness

import (
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// snapshot is the canonical JSON shape compared against golden files.
// encoding/json sorts map keys, so record serialization is deterministic.
type snapshot struct {
	ScenarioName string `json:"scenario_name"`
	Entity       string `json:"entity"`
	Count        int    `json:"count"`
	Records      []any  `json:"records"`
}

// RunWithGolden executes a scenario and compares its result against the
// golden file testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}

	records := make([]any, len(result.Records))
	for i, rec := range result.Records {
		records[i] = rec
	}
	data, err := json.MarshalIndent(snapshot{
		ScenarioName: scenario.Name,
		Entity:       scenario.Query.Entity,
		Count:        result.Count,
		Records:      records,
	}, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, data)

	return nil
}
