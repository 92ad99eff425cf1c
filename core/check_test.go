package core

import (
	"bytes"
	"testing"

	"github.com/huangsam/streamscore/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheck(t *testing.T) {
	cat, sc := loadFixtures(t)
	a, err := Assess(cat, sc, AssessOptions{})
	require.NoError(t, err)

	tests := []struct {
		name     string
		minIndex float64
		minSubs  map[schema.Outcome]float64
		passed   bool
		failures int
	}{
		{name: "no minimums", passed: true},
		{name: "ecosystem below minimum", minIndex: 0.6, passed: false, failures: 1},
		{name: "ecosystem above minimum", minIndex: 0.5, passed: true},
		{name: "biological below minimum", minSubs: map[schema.Outcome]float64{schema.BiologicalOutcome: 0.5}, passed: false, failures: 1},
		{
			name:     "both fail",
			minIndex: 0.9,
			minSubs:  map[schema.Outcome]float64{schema.PhysicalOutcome: 0.9, schema.ChemicalOutcome: 0.1},
			passed:   false,
			failures: 2,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Check(a, tt.minIndex, tt.minSubs)
			assert.Equal(t, tt.passed, res.Passed)
			assert.Len(t, res.Failures, tt.failures)
			assert.Equal(t, sc.ID, res.ScenarioID)
			assert.Len(t, res.SubIndices, 3)
		})
	}
}

func TestPrintCheckResult(t *testing.T) {
	res := schema.CheckResult{
		ScenarioID:     "s1",
		EcosystemIndex: 0.3,
		MinIndex:       0.5,
		SubIndices:     map[schema.Outcome]float64{schema.PhysicalOutcome: 0.2},
		Failures:       []string{"ecosystem index 0.300 < minimum 0.500"},
	}
	var buf bytes.Buffer
	PrintCheckResult(&buf, res, map[schema.Outcome]float64{schema.PhysicalOutcome: 0.4})
	out := buf.String()
	assert.Contains(t, out, "Condition Check Results:")
	assert.Contains(t, out, "0.200 (minimum 0.400)")
	assert.Contains(t, out, "1 violation(s)")

	buf.Reset()
	res.Passed = true
	PrintCheckResult(&buf, res, nil)
	assert.Contains(t, buf.String(), "passed")
}
