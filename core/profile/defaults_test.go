package profile

import (
	"testing"

	"github.com/huangsam/streamscore/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDefaultObservation tests the seed chosen for each scoring type.
func TestDefaultObservation(t *testing.T) {
	curveProfile := &schema.ScoringProfile{Scoring: schema.Scoring{
		Type:  schema.CurveScoring,
		Curve: &schema.CurveRubric{CurveSetIDs: []string{"fine"}},
	}}
	gradeProfile := &schema.ScoringProfile{Scoring: schema.Scoring{
		Type:  schema.CurveScoring,
		Curve: &schema.CurveRubric{CurveSetIDs: []string{"grade"}},
	}}
	formula := formulaProfile("a * b", nil, nil)
	formula.Scoring.Formula.Defaults = map[string]float64{"a": 1, "b": 0.5}

	tests := []struct {
		name     string
		profile  *schema.ScoringProfile
		expected schema.Observation
	}{
		{name: "categorical optimal", profile: categoricalProfile(), expected: schema.LabelObservation("Optimal")},
		{name: "thresholds increasing", profile: thresholdsProfile(schema.Increasing), expected: schema.NumberObservation(20)},
		{name: "thresholds decreasing", profile: thresholdsProfile(schema.Decreasing), expected: schema.NumberObservation(9)},
		{name: "quantitative curve midpoint", profile: curveProfile, expected: schema.NumberObservation(50)},
		{name: "categorical curve best", profile: gradeProfile, expected: schema.LabelObservation("Optimal")},
		{name: "formula defaults", profile: formula, expected: schema.VarsObservation(map[string]float64{"a": 1, "b": 0.5})},
		{name: "binary", profile: &schema.ScoringProfile{Scoring: schema.Scoring{Type: schema.BinaryScoring}}, expected: schema.FlagObservation(true)},
		{name: "nil", profile: nil, expected: schema.Observation{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DefaultObservation(tt.profile, curveEnv()))
		})
	}
}

// TestDefaultObservationScores ensures a seeded metric scores at the top of its rubric.
func TestDefaultObservationScores(t *testing.T) {
	for _, p := range []*schema.ScoringProfile{categoricalProfile(), thresholdsProfile(""), thresholdsProfile(schema.Decreasing)} {
		res, err := Evaluate(p, DefaultObservation(p, Env{}), Env{})
		require.NoError(t, err)
		assert.InDelta(t, 1.0, mustScore(t, res), 1e-12)
	}
}

// TestDefaultObservationCategoricalFallback uses the first level when none is optimal.
func TestDefaultObservationCategoricalFallback(t *testing.T) {
	p := &schema.ScoringProfile{Scoring: schema.Scoring{
		Type: schema.CategoricalScoring,
		Categorical: &schema.CategoricalRubric{Levels: []schema.CategoricalLevel{
			{Label: "Neutral"}, {Label: "Degraded"},
		}},
	}}
	assert.Equal(t, schema.LabelObservation("Neutral"), DefaultObservation(p, Env{}))
}

// TestDefaultObservationFormulaWithoutDefaults seeds every variable so a new metric still scores.
func TestDefaultObservationFormulaWithoutDefaults(t *testing.T) {
	tests := []struct {
		name     string
		profile  *schema.ScoringProfile
		expected schema.Observation
	}{
		{
			name:     "ratio seeds ones",
			profile:  formulaProfile("a / b", nil, nil),
			expected: schema.VarsObservation(map[string]float64{"a": 1, "b": 1}),
		},
		{
			name:     "declared variables",
			profile:  formulaProfile("1 - x / 100", []string{"x"}, nil),
			expected: schema.VarsObservation(map[string]float64{"x": 1}),
		},
		{
			name:     "zero when one divides by zero",
			profile:  formulaProfile("a / (b - 1)", nil, nil),
			expected: schema.VarsObservation(map[string]float64{"a": 0, "b": 0}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obs := DefaultObservation(tt.profile, Env{})
			assert.Equal(t, tt.expected, obs)
			res, err := Evaluate(tt.profile, obs, Env{})
			require.NoError(t, err)
			assert.True(t, res.Scored())
		})
	}
}

// TestDefaultObservationCurveFallback seeds from another referenced set when the default is missing.
func TestDefaultObservationCurveFallback(t *testing.T) {
	p := &schema.ScoringProfile{Scoring: schema.Scoring{
		Type:  schema.CurveScoring,
		Curve: &schema.CurveRubric{CurveSetIDs: []string{"missing", "coarse"}, DefaultSet: "missing"},
	}}
	assert.Equal(t, schema.NumberObservation(5), DefaultObservation(p, curveEnv()))
}
