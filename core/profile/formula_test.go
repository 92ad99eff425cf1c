package profile

import (
	"errors"
	"testing"

	"github.com/huangsam/streamscore/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestParseFormula tests the accepted grammar.
func TestParseFormula(t *testing.T) {
	tests := []struct {
		src     string
		vars    []string
		wantErr bool
	}{
		{src: "a + b * 2", vars: []string{"a", "b"}},
		{src: "-(width / depth)", vars: []string{"depth", "width"}},
		{src: "min(a, b, 3) + max(a, 1)", vars: []string{"a", "b"}},
		{src: "pow(x, 2) + sqrt(y) + ln(x) + log10(y) + exp(0) + abs(x)", vars: []string{"x", "y"}},
		{src: "1.5e2"},
		{src: "a % b", wantErr: true},
		{src: "a && b", wantErr: true},
		{src: "os.Exit(1)", wantErr: true},
		{src: "sin(x)", wantErr: true},
		{src: "pow(x)", wantErr: true},
		{src: "min()", wantErr: true},
		{src: "\"text\"", wantErr: true},
		{src: "a[0]", wantErr: true},
		{src: "a +", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			f, err := ParseFormula(tt.src)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, schema.ErrEvaluation))
				return
			}
			require.NoError(t, err)
			if tt.vars == nil {
				assert.Empty(t, f.Vars())
			} else {
				assert.Equal(t, tt.vars, f.Vars())
			}
		})
	}
}

// TestFormulaEval tests arithmetic and function results.
func TestFormulaEval(t *testing.T) {
	tests := []struct {
		src      string
		expected float64
	}{
		{"a + b * 2", 7},
		{"(a + b) * 2", 10},
		{"-a + +b", 1},
		{"b / a", 1.5},
		{"min(a, b) + max(a, b)", 5},
		{"pow(a, 3)", 8},
		{"sqrt(16) - abs(-b)", 1},
	}
	vars := map[string]float64{"a": 2, "b": 3}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			f, err := ParseFormula(tt.src)
			require.NoError(t, err)
			got, err := f.Eval(vars)
			require.NoError(t, err)
			assert.InDelta(t, tt.expected, got, 1e-12)
		})
	}
}

// TestFormulaUndefinedVariable ensures a missing variable never coerces to zero.
func TestFormulaUndefinedVariable(t *testing.T) {
	f, err := ParseFormula("a + c")
	require.NoError(t, err)
	_, err = f.Eval(map[string]float64{"a": 1})
	require.Error(t, err)
	assert.True(t, errors.Is(err, schema.ErrEvaluation))
	assert.ErrorContains(t, err, `undefined variable "c"`)
}

func formulaProfile(expr string, vars []string, out *schema.OutputMapping) *schema.ScoringProfile {
	return &schema.ScoringProfile{Tier: schema.DetailedTier, Scoring: schema.Scoring{
		Type:    schema.FormulaScoring,
		Formula: &schema.FormulaRubric{Expression: expr, Variables: vars, Output: out},
	}}
}

// TestEvaluateFormula tests profile-level formula scoring and output mappings.
func TestEvaluateFormula(t *testing.T) {
	obs := schema.VarsObservation(map[string]float64{"width": 12, "depth": 3})

	res, err := Evaluate(formulaProfile("width / depth", []string{"width", "depth"},
		&schema.OutputMapping{Type: schema.LinearMapping, Min: 0, Max: 8}), obs, Env{})
	require.NoError(t, err)
	assert.InDelta(t, 0.5, mustScore(t, res), 1e-12)

	res, err = Evaluate(formulaProfile("width / depth", nil,
		&schema.OutputMapping{Type: schema.CurveMapping, CurveID: "coarse"}), obs, curveEnv())
	require.NoError(t, err)
	assert.InDelta(t, 0.4, mustScore(t, res), 1e-12)
	require.NotNil(t, res.Matched.Curve)

	res, err = Evaluate(formulaProfile("width / depth", nil,
		&schema.OutputMapping{Type: schema.BandsMapping, Bands: []schema.ThresholdBand{
			{Max: ptr(2)}, {Min: ptr(2), Max: ptr(5)}, {Min: ptr(5)},
		}}), obs, Env{})
	require.NoError(t, err)
	assert.InDelta(t, 0.5, mustScore(t, res), 1e-12)

	res, err = Evaluate(formulaProfile("depth / 10", nil, nil), obs, Env{})
	require.NoError(t, err)
	assert.InDelta(t, 0.3, mustScore(t, res), 1e-12)
}

// TestEvaluateFormulaCurveSelection tests that a curve-mapped output follows the scenario's curve choices.
func TestEvaluateFormulaCurveSelection(t *testing.T) {
	p := formulaProfile("width / depth", nil, &schema.OutputMapping{Type: schema.CurveMapping, CurveID: "coarse"})
	obs := schema.VarsObservation(map[string]float64{"width": 12, "depth": 3})

	env := curveEnv()
	env.ActiveSet = "fine"
	res, err := Evaluate(p, obs, env)
	require.NoError(t, err)
	assert.InDelta(t, 0.04, mustScore(t, res), 1e-12)

	env.Override = &schema.Curve{ID: "inverted", Layers: []schema.Layer{{ID: "a", Points: []schema.Point{{X: 0, Y: 1}, {X: 10, Y: 0}}}}}
	res, err = Evaluate(p, obs, env)
	require.NoError(t, err)
	assert.InDelta(t, 0.6, mustScore(t, res), 1e-12)
	assert.Equal(t, "inverted", res.Matched.Curve.CurveID)

	env = curveEnv()
	env.Curves["coarse"] = &schema.Curve{ID: "coarse", Layers: []schema.Layer{
		{ID: "a", Points: []schema.Point{{X: 0, Y: 0}, {X: 10, Y: 1}}},
		{ID: "b", Points: []schema.Point{{X: 0, Y: 0}, {X: 5, Y: 1}}},
	}}
	env.LayerID = "b"
	res, err = Evaluate(p, obs, env)
	require.NoError(t, err)
	assert.InDelta(t, 0.8, mustScore(t, res), 1e-12)
}

// TestEvaluateFormulaSingleVariable binds a bare number to the only declared variable.
func TestEvaluateFormulaSingleVariable(t *testing.T) {
	res, err := Evaluate(formulaProfile("1 - x / 100", []string{"x"}, nil), schema.NumberObservation(25), Env{})
	require.NoError(t, err)
	assert.InDelta(t, 0.75, mustScore(t, res), 1e-12)
}

// TestEvaluateFormulaFailures tests soft and hard formula failures.
func TestEvaluateFormulaFailures(t *testing.T) {
	obs := schema.VarsObservation(map[string]float64{"a": 1, "b": 0})

	_, err := Evaluate(formulaProfile("a + z", []string{"a", "b"}, nil), obs, Env{})
	assert.True(t, errors.Is(err, schema.ErrEvaluation))

	_, err = Evaluate(formulaProfile("a + z", nil, nil), obs, Env{})
	assert.True(t, errors.Is(err, schema.ErrEvaluation))

	res, err := Evaluate(formulaProfile("a / b", nil, nil), obs, Env{})
	require.NoError(t, err)
	assert.False(t, res.Scored())
	assert.Contains(t, res.Matched.Detail, "not finite")

	res, err = Evaluate(formulaProfile("a + b", nil, nil), schema.LabelObservation("n/a"), Env{})
	require.NoError(t, err)
	assert.False(t, res.Scored())

	_, err = Evaluate(formulaProfile("a", nil, &schema.OutputMapping{Type: schema.LinearMapping, Min: 1, Max: 1}), obs, Env{})
	assert.True(t, errors.Is(err, schema.ErrEvaluation))
}

// FuzzParseFormula ensures arbitrary input never panics the parser or evaluator.
func FuzzParseFormula(f *testing.F) {
	f.Add("a + b * 2")
	f.Add("min(a, pow(b, 2)) / -c")
	f.Add("((((1))))")
	f.Add("x(")

	f.Fuzz(func(_ *testing.T, src string) {
		formula, err := ParseFormula(src)
		if err != nil {
			return
		}
		vars := make(map[string]float64)
		for i, v := range formula.Vars() {
			vars[v] = float64(i + 1)
		}
		_, _ = formula.Eval(vars)
	})
}
