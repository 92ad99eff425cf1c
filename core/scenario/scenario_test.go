package scenario

import (
	"fmt"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/huangsam/streamscore/core"
	"github.com/huangsam/streamscore/internal/catalog"
	"github.com/huangsam/streamscore/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	cat, err := catalog.LoadCatalog("../../testdata/catalog.yaml")
	require.NoError(t, err)
	e := NewEngine(cat, core.AssessOptions{})
	e.now = func() time.Time { return fixedNow }
	n := 0
	e.newID = func() string {
		n++
		return fmt.Sprintf("scenario-%d", n)
	}
	return e
}

func loadScenario(t *testing.T) *schema.Scenario {
	t.Helper()
	sc, err := catalog.LoadScenario("../../testdata/scenario.yaml")
	require.NoError(t, err)
	return sc
}

func metricScore(t *testing.T, a schema.Assessment, id string) float64 {
	t.Helper()
	for _, m := range a.Metrics {
		if m.MetricID == id {
			require.NotNil(t, m.Score, id)
			return *m.Score
		}
	}
	t.Fatalf("metric %s not assessed", id)
	return 0
}

func TestNew(t *testing.T) {
	e := newTestEngine(t)

	sc, cs, err := e.New("Lower reach", "", "bank_erosion", "ept_ratio")
	require.NoError(t, err)
	assert.Equal(t, "scenario-1", sc.ID)
	assert.Equal(t, schema.DetailedTier, sc.Tier)
	assert.Equal(t, fixedNow, sc.CreatedAt)
	assert.Equal(t, []string{"bank_erosion", "ept_ratio"}, sc.Metrics)
	assert.Equal(t, schema.LabelObservation("Stable"), sc.Observations["bank_erosion"])
	assert.Equal(t, schema.VarsObservation(map[string]float64{"ept": 30, "total": 40}), sc.Observations["ept_ratio"])

	// Seeded defaults score at the top of each rubric.
	require.Len(t, cs.Metrics, 2)
	for _, m := range cs.Metrics {
		assert.Nil(t, m.Before)
		require.NotNil(t, m.After, m.MetricID)
		assert.InDelta(t, 1.0, *m.After, 1e-12, m.MetricID)
	}
	assert.ElementsMatch(t, []string{"hydrology", "water_quality"}, cs.Unscored)

	_, _, err = e.New("bad", "exhaustive")
	assert.ErrorContains(t, err, "unknown tier")

	_, _, err = e.New("bad", schema.DetailedTier, "turbidity")
	assert.ErrorIs(t, err, ErrUnknownMetric)

	_, _, err = e.New("bad", schema.ScreeningTier, "flow_alteration")
	assert.ErrorIs(t, err, ErrNoProfile)
}

func TestAddAndRemoveMetric(t *testing.T) {
	e := newTestEngine(t)
	sc := loadScenario(t)
	original := sc.Clone()

	added, cs, err := e.AddMetric(sc, "temperature")
	require.NoError(t, err)
	assert.Equal(t, original, sc, "input must not change")
	assert.True(t, added.HasMetric("temperature"))
	assert.Equal(t, fixedNow, added.UpdatedAt)
	// temp_curve peaks at 1 between 0 and 18.
	require.Len(t, cs.Metrics, 1)
	assert.InDelta(t, 1.0, *cs.Metrics[0].After, 1e-12)
	assert.Equal(t, []string{"water_quality"}, core.ChangedFunctionIDs(cs))

	again, cs, err := e.AddMetric(added, "temperature")
	require.NoError(t, err)
	assert.Equal(t, added.Metrics, again.Metrics)
	assert.True(t, cs.Empty())

	removed, cs, err := e.RemoveMetric(added, "ept_ratio")
	require.NoError(t, err)
	assert.False(t, removed.HasMetric("ept_ratio"))
	assert.NotContains(t, removed.Observations, "ept_ratio")
	assert.Equal(t, []string{"biota"}, cs.Unscored)
	assert.True(t, added.HasMetric("ept_ratio"))

	_, _, err = e.RemoveMetric(removed, "ept_ratio")
	assert.ErrorIs(t, err, ErrNotSelected)

	_, _, err = e.AddMetric(sc, "turbidity")
	assert.ErrorIs(t, err, ErrUnknownMetric)
}

func TestSetObservation(t *testing.T) {
	e := newTestEngine(t)
	sc := loadScenario(t)

	next, cs, err := e.SetObservation(sc, "bank_erosion", schema.LabelObservation("Severe"))
	require.NoError(t, err)
	assert.Equal(t, schema.LabelObservation("Minor"), sc.Observations["bank_erosion"])
	assert.Equal(t, schema.LabelObservation("Severe"), next.Observations["bank_erosion"])

	require.Len(t, cs.Metrics, 1)
	assert.InDelta(t, 2.0/3, *cs.Metrics[0].Before, 1e-12)
	assert.InDelta(t, 0.0, *cs.Metrics[0].After, 1e-12)
	assert.Equal(t, []string{"sediment"}, core.ChangedFunctionIDs(cs))
	// sediment is direct for physical and indirect for biological.
	require.Len(t, cs.Outcomes, 2)
	assert.Less(t, cs.EcosystemAfter, cs.EcosystemBefore)

	vars := map[string]float64{"ept": 0, "total": 40}
	next, _, err = e.SetObservation(sc, "ept_ratio", schema.VarsObservation(vars))
	require.NoError(t, err)
	vars["ept"] = 99
	assert.Equal(t, 0.0, next.Observations["ept_ratio"].Vars["ept"])

	_, _, err = e.SetObservation(sc, "temperature", schema.NumberObservation(10))
	assert.ErrorIs(t, err, ErrNotSelected)
}

func TestCurveOverride(t *testing.T) {
	e := newTestEngine(t)
	sc := loadScenario(t)
	override := &schema.Curve{
		ID:     "site",
		Domain: schema.QuantitativeDomain,
		Layers: []schema.Layer{{ID: "default", Points: []schema.Point{{X: 0, Y: 0}, {X: 20, Y: 1}}}},
	}

	next, cs, err := e.SetCurveOverride(sc, "dissolved_oxygen", override)
	require.NoError(t, err)
	require.Len(t, cs.Metrics, 1)
	assert.InDelta(t, 0.25, *cs.Metrics[0].After, 1e-12)
	assert.Empty(t, sc.CurveOverrides)

	override.Layers[0].Points[1].Y = 0.5
	assert.Equal(t, 1.0, next.CurveOverrides["dissolved_oxygen"].Layers[0].Points[1].Y)

	cleared, cs, err := e.ClearCurveOverride(next, "dissolved_oxygen")
	require.NoError(t, err)
	assert.Empty(t, cleared.CurveOverrides)
	assert.InDelta(t, 0.5, *cs.Metrics[0].After, 1e-12)

	bad := &schema.Curve{ID: "bad", Layers: []schema.Layer{{ID: "default", Points: []schema.Point{{X: 1, Y: 2}}}}}
	_, _, err = e.SetCurveOverride(sc, "dissolved_oxygen", bad)
	assert.Error(t, err)

	_, _, err = e.SetCurveOverride(sc, "dissolved_oxygen", nil)
	assert.Error(t, err)

	_, _, err = e.SetCurveOverride(sc, "flow_alteration", override)
	assert.ErrorIs(t, err, ErrNoCurve)
}

// TestCurveOverrideFormulaOutput tests that a formula mapped through a curve is scored with the override.
func TestCurveOverrideFormulaOutput(t *testing.T) {
	e := newTestEngine(t)
	cat := e.Catalog()
	cat.Curves = append(cat.Curves, schema.Curve{
		ID:     "ratio_curve",
		Domain: schema.QuantitativeDomain,
		Layers: []schema.Layer{{ID: "default", Points: []schema.Point{{X: 0, Y: 0}, {X: 1, Y: 1}}}},
	})
	m, ok := cat.Metric("ept_ratio")
	require.True(t, ok)
	p, ok := m.ProfileFor(schema.DetailedTier)
	require.True(t, ok)
	p.Scoring.Formula.Output = &schema.OutputMapping{Type: schema.CurveMapping, CurveID: "ratio_curve"}

	sc := loadScenario(t)
	a, err := e.Assess(sc)
	require.NoError(t, err)
	assert.InDelta(t, 0.3, metricScore(t, a, "ept_ratio"), 1e-12)

	inverted := &schema.Curve{
		ID:     "inverted",
		Domain: schema.QuantitativeDomain,
		Layers: []schema.Layer{{ID: "default", Points: []schema.Point{{X: 0, Y: 1}, {X: 1, Y: 0}}}},
	}
	_, cs, err := e.SetCurveOverride(sc, "ept_ratio", inverted)
	require.NoError(t, err)
	require.Len(t, cs.Metrics, 1)
	assert.Equal(t, "ept_ratio", cs.Metrics[0].MetricID)
	assert.InDelta(t, 0.7, *cs.Metrics[0].After, 1e-12)
}

// TestSetActiveLayer tests layer selection, its validation and its cleanup.
func TestSetActiveLayer(t *testing.T) {
	e := newTestEngine(t)
	sc := loadScenario(t)

	cold, cs, err := e.SetActiveLayer(sc, "dissolved_oxygen", "coldwater")
	require.NoError(t, err)
	assert.Equal(t, "coldwater", cold.ActiveLayers["dissolved_oxygen"])
	assert.Empty(t, sc.ActiveLayers)
	require.Len(t, cs.Metrics, 1)
	assert.InDelta(t, 1.0/6, *cs.Metrics[0].After, 1e-12)

	dup, _, err := e.Duplicate(cold, "")
	require.NoError(t, err)
	assert.Equal(t, "coldwater", dup.ActiveLayers["dissolved_oxygen"])

	_, _, err = e.SetActiveLayer(sc, "dissolved_oxygen", "warmwater")
	assert.ErrorIs(t, err, ErrUnknownLayer)

	_, _, err = e.SetActiveLayer(sc, "flow_alteration", "default")
	assert.ErrorIs(t, err, ErrNoCurve)

	_, _, err = e.SetActiveLayer(sc, "temperature", "default")
	assert.ErrorIs(t, err, ErrNotSelected)

	// do_regional has no coldwater layer, so the choice is dropped.
	regional, cs, err := e.SetActiveCurveSet(cold, "dissolved_oxygen", "do_regional")
	require.NoError(t, err)
	assert.Empty(t, regional.ActiveLayers)
	assert.InDelta(t, 0.8, *cs.Metrics[0].After, 1e-12)

	reverted, cs, err := e.SetActiveLayer(cold, "dissolved_oxygen", "")
	require.NoError(t, err)
	assert.Empty(t, reverted.ActiveLayers)
	assert.InDelta(t, 0.5, *cs.Metrics[0].After, 1e-12)

	removed, _, err := e.RemoveMetric(cold, "dissolved_oxygen")
	require.NoError(t, err)
	assert.Empty(t, removed.ActiveLayers)
}

func TestSetActiveCurveSet(t *testing.T) {
	e := newTestEngine(t)
	sc := loadScenario(t)

	next, cs, err := e.SetActiveCurveSet(sc, "dissolved_oxygen", "do_regional")
	require.NoError(t, err)
	assert.Equal(t, "do_regional", next.ActiveCurveSets["dissolved_oxygen"])
	assert.InDelta(t, 0.8, *cs.Metrics[0].After, 1e-12)

	reverted, cs, err := e.SetActiveCurveSet(next, "dissolved_oxygen", "")
	require.NoError(t, err)
	assert.Empty(t, reverted.ActiveCurveSets)
	assert.InDelta(t, 0.5, *cs.Metrics[0].After, 1e-12)

	_, _, err = e.SetActiveCurveSet(sc, "dissolved_oxygen", "temp_curve")
	assert.ErrorIs(t, err, ErrUnknownSet)

	_, _, err = e.SetActiveCurveSet(sc, "temperature", "temp_curve")
	assert.ErrorIs(t, err, ErrNotSelected)
}

func TestDuplicate(t *testing.T) {
	e := newTestEngine(t)
	sc := loadScenario(t)

	dup, cs, err := e.Duplicate(sc, "")
	require.NoError(t, err)
	assert.Equal(t, "scenario-1", dup.ID)
	assert.Equal(t, "Upper reach baseline (copy)", dup.Name)
	assert.Equal(t, sc.Metrics, dup.Metrics)
	assert.Len(t, cs.Metrics, 4)

	dup.Observations["flow_alteration"] = schema.NumberObservation(99)
	assert.Equal(t, schema.NumberObservation(15), sc.Observations["flow_alteration"])

	named, _, err := e.Duplicate(sc, "Restored")
	require.NoError(t, err)
	assert.Equal(t, "Restored", named.Name)
	assert.Equal(t, "scenario-2", named.ID)

	_, _, err = e.Duplicate(nil, "x")
	assert.Error(t, err)
}

func TestCurveSetIDs(t *testing.T) {
	e := newTestEngine(t)

	p, err := e.profileFor(schema.DetailedTier, "dissolved_oxygen")
	require.NoError(t, err)
	assert.Equal(t, []string{"do_regional", "do_statewide"}, CurveSetIDs(p))

	p, err = e.profileFor(schema.DetailedTier, "embeddedness")
	require.NoError(t, err)
	assert.Equal(t, []string{"embeddedness_curve"}, CurveSetIDs(p))

	p, err = e.profileFor(schema.DetailedTier, "flow_alteration")
	require.NoError(t, err)
	assert.Empty(t, CurveSetIDs(p))
}
