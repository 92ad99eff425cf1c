package core

import (
	"testing"

	"github.com/huangsam/streamscore/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDiffObservationChange lists only what moved.
func TestDiffObservationChange(t *testing.T) {
	cat, sc := loadFixtures(t)
	before, err := Assess(cat, sc, AssessOptions{})
	require.NoError(t, err)

	next := sc.Clone()
	next.Observations["dissolved_oxygen"] = schema.NumberObservation(8)
	after, err := Assess(cat, next, AssessOptions{})
	require.NoError(t, err)

	cs := Diff(before, after)
	require.Len(t, cs.Metrics, 1)
	assert.Equal(t, "dissolved_oxygen", cs.Metrics[0].MetricID)
	assert.InDelta(t, 0.5, *cs.Metrics[0].Before, 1e-12)
	assert.InDelta(t, 1.0, *cs.Metrics[0].After, 1e-12)

	assert.Equal(t, []string{"water_quality"}, ChangedFunctionIDs(cs))
	assert.InDelta(t, 7.5, cs.Functions[0].Before, 1e-9)
	assert.InDelta(t, 15, cs.Functions[0].After, 1e-9)

	// water_quality is direct for chemical and indirect for biological only.
	require.Len(t, cs.Outcomes, 2)
	assert.Equal(t, schema.ChemicalOutcome, cs.Outcomes[0].Outcome)
	assert.Equal(t, schema.BiologicalOutcome, cs.Outcomes[1].Outcome)
	assert.Greater(t, cs.EcosystemAfter, cs.EcosystemBefore)
	assert.Empty(t, cs.Unscored)
	assert.False(t, cs.Empty())
}

// TestDiffIdentical is empty for the same assessment.
func TestDiffIdentical(t *testing.T) {
	cat, sc := loadFixtures(t)
	a, err := Assess(cat, sc, AssessOptions{})
	require.NoError(t, err)
	assert.True(t, Diff(a, a).Empty())
}

// TestDiffRemovedMetric reports a metric that disappeared with a nil after score.
func TestDiffRemovedMetric(t *testing.T) {
	cat, sc := loadFixtures(t)
	before, err := Assess(cat, sc, AssessOptions{})
	require.NoError(t, err)

	next := sc.Clone()
	next.Metrics = []string{"flow_alteration", "bank_erosion", "dissolved_oxygen"}
	after, err := Assess(cat, next, AssessOptions{})
	require.NoError(t, err)

	cs := Diff(before, after)
	require.Len(t, cs.Metrics, 1)
	assert.Equal(t, "ept_ratio", cs.Metrics[0].MetricID)
	assert.NotNil(t, cs.Metrics[0].Before)
	assert.Nil(t, cs.Metrics[0].After)

	require.Len(t, cs.Functions, 1)
	assert.True(t, cs.Functions[0].BeforeScored)
	assert.False(t, cs.Functions[0].AfterScored)
	assert.Equal(t, []string{"biota"}, cs.Unscored)
}

// TestCompare diffs two scenarios through the shared machinery.
func TestCompare(t *testing.T) {
	cat, base := loadFixtures(t)
	target := base.Clone()
	target.Observations["flow_alteration"] = schema.NumberObservation(5)

	ba, ta, cs, err := Compare(cat, base, target, AssessOptions{})
	require.NoError(t, err)
	assert.InDelta(t, 0.5, *ba.Metrics[0].Score, 1e-12)
	assert.InDelta(t, 1.0, *ta.Metrics[0].Score, 1e-12)
	assert.Equal(t, []string{"hydrology"}, ChangedFunctionIDs(cs))
	assert.Len(t, cs.Outcomes, 3)

	target.Metrics = append(target.Metrics, "unknown")
	_, _, _, err = Compare(cat, base, target, AssessOptions{})
	assert.Error(t, err)
}
