// Package profile evaluates a metric's tier-scoped scoring profile against a raw observation.
// Each rubric variant has its own evaluation function, dispatched by the profile's scoring type.
package profile

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/huangsam/streamscore/core/curve"
	"github.com/huangsam/streamscore/schema"
)

// Env carries the reference data and scenario choices a profile may consult.
// ActiveSet is the scenario-selected curve set and wins over the rubric default.
type Env struct {
	Curves    map[string]*schema.Curve      // curve sets by id
	Scales    map[string]schema.RatingScale // rating scales by id
	Override  *schema.Curve                 // scenario-local curve for this metric
	ActiveSet string
	LayerID   string
}

// DefaultScale is used when a rubric names no rating scale.
var DefaultScale = schema.RatingScale{
	ID: "default",
	Levels: []schema.RatingLevel{
		{Label: "Optimal"},
		{Label: "Suboptimal"},
		{Label: "Marginal"},
		{Label: "Poor"},
	},
}

// Evaluate scores obs under p. Only hard failures are returned as errors; an observation
// that cannot be decided yields a result with a nil Score and an explanation of why.
func Evaluate(p *schema.ScoringProfile, obs schema.Observation, env Env) (schema.ProfileResult, error) {
	if p == nil {
		return schema.ProfileResult{}, &schema.EvaluationError{Subject: "profile", Reason: "no scoring profile"}
	}
	typ := p.Scoring.Type
	if _, ok := schema.ValidScoringTypes[typ]; !ok {
		return schema.ProfileResult{}, &schema.EvaluationError{Subject: "profile", Reason: fmt.Sprintf("unknown scoring type %q", typ)}
	}
	if obs.Absent() {
		return schema.ProfileResult{Matched: schema.Explanation{Type: typ, Detail: "no observation"}}, nil
	}

	var (
		score float64
		expl  schema.Explanation
		err   error
	)
	switch typ {
	case schema.CategoricalScoring:
		score, expl, err = evalCategorical(p, obs, env)
	case schema.ThresholdsScoring:
		score, expl, err = evalThresholds(p.Scoring.Thresholds, obs, env)
	case schema.CurveScoring:
		score, expl, err = evalCurve(p.Scoring.Curve, obs, env)
	case schema.FormulaScoring:
		score, expl, err = evalFormula(p.Scoring.Formula, obs, env)
	case schema.BinaryScoring:
		score, expl, err = evalBinary(p.Scoring.Binary, obs)
	case schema.LookupScoring:
		score, expl, err = evalLookup(p.Scoring.Lookup, obs)
	}
	expl.Type = typ
	if err != nil {
		if schema.IsInsufficient(err) {
			expl.Detail = err.Error()
			return schema.ProfileResult{Matched: expl}, nil
		}
		return schema.ProfileResult{}, err
	}
	score = curve.Clamp(score)
	return schema.ProfileResult{Score: &score, Matched: expl}, nil
}

func missingRubric(typ schema.ScoringType) error {
	return &schema.EvaluationError{Subject: "profile", Reason: fmt.Sprintf("%s scoring has no rubric", typ)}
}

func evalCategorical(p *schema.ScoringProfile, obs schema.Observation, env Env) (float64, schema.Explanation, error) {
	r := p.Scoring.Categorical
	if r == nil {
		return 0, schema.Explanation{}, missingRubric(schema.CategoricalScoring)
	}
	level, ok := matchLevel(r.Levels, obs)
	if !ok {
		return 0, schema.Explanation{}, schema.Insufficient("categorical rubric", "no level matches %q", obs.String())
	}
	expl := schema.Explanation{Rule: level.Label}

	if p.CurveIntegration.Enabled {
		c, err := resolveCurve(env, p.CurveIntegration.CurveSetIDs, "")
		if err != nil {
			return 0, expl, err
		}
		token := level.CurveX
		if token == "" {
			token = level.Label
		}
		m, err := curve.Explain(c, env.LayerID, schema.LabelObservation(token))
		if err != nil {
			return 0, expl, err
		}
		expl.Curve = &m
		expl.Detail = "curve " + m.CurveID
		return m.Score, expl, nil
	}

	scale, err := scaleFor(r.RatingScale, env)
	if err != nil {
		return 0, expl, err
	}
	rating := level.Rating
	if rating == "" {
		rating = level.Label
	}
	idx, ok := RatingIndex(scale, rating)
	if !ok {
		return 0, expl, schema.Insufficient("categorical rubric", "rating %q is not on scale %q", rating, scale.ID)
	}
	expl.Detail = "rating " + rating
	return idx, expl, nil
}

func matchLevel(levels []schema.CategoricalLevel, obs schema.Observation) (schema.CategoricalLevel, bool) {
	text, ok := obs.Text()
	if !ok {
		return schema.CategoricalLevel{}, false
	}
	text = strings.TrimSpace(text)
	for _, l := range levels {
		if strings.EqualFold(l.ID, text) || strings.EqualFold(l.Label, text) {
			return l, true
		}
	}
	return schema.CategoricalLevel{}, false
}

func scaleFor(id string, env Env) (schema.RatingScale, error) {
	if id == "" {
		return DefaultScale, nil
	}
	s, ok := env.Scales[id]
	if !ok {
		return schema.RatingScale{}, &schema.EvaluationError{Subject: "rating scale " + id, Reason: "not defined"}
	}
	return s, nil
}

// RatingIndex normalizes a label's ordinal position on a best-first scale to [0,1].
// An explicit level index takes precedence.
func RatingIndex(scale schema.RatingScale, label string) (float64, bool) {
	n := len(scale.Levels)
	for i, l := range scale.Levels {
		if !strings.EqualFold(strings.TrimSpace(l.Label), strings.TrimSpace(label)) {
			continue
		}
		if l.Index != nil {
			return curve.Clamp(*l.Index), true
		}
		if n == 1 {
			return 1, true
		}
		return float64(n-1-i) / float64(n-1), true
	}
	return 0, false
}

func evalThresholds(r *schema.ThresholdsRubric, obs schema.Observation, env Env) (float64, schema.Explanation, error) {
	if r == nil {
		return 0, schema.Explanation{}, missingRubric(schema.ThresholdsScoring)
	}
	v, ok := obs.Number()
	if !ok {
		return 0, schema.Explanation{}, schema.Insufficient("thresholds rubric", "observation %q is not numeric", obs.String())
	}
	i, ok := findBand(r.Bands, v)
	if !ok {
		return 0, schema.Explanation{}, schema.Insufficient("thresholds rubric", "%g is outside every band", v)
	}
	band := r.Bands[i]
	expl := schema.Explanation{Rule: bandName(band, i)}
	score, err := bandScore(r.Bands, i, r.Direction, r.RatingScale, env)
	if err != nil {
		return 0, expl, err
	}
	return score, expl, nil
}

// findBand returns the first band in declaration order containing v.
func findBand(bands []schema.ThresholdBand, v float64) (int, bool) {
	for i, b := range bands {
		if b.Contains(v) {
			return i, true
		}
	}
	return -1, false
}

func bandScore(bands []schema.ThresholdBand, i int, dir schema.ThresholdDirection, scaleID string, env Env) (float64, error) {
	b := bands[i]
	switch {
	case b.Index != nil:
		return *b.Index, nil
	case b.Rating != "":
		scale, err := scaleFor(scaleID, env)
		if err != nil {
			return 0, err
		}
		idx, ok := RatingIndex(scale, b.Rating)
		if !ok {
			return 0, schema.Insufficient("thresholds rubric", "rating %q is not on scale %q", b.Rating, scale.ID)
		}
		return idx, nil
	}
	n := len(bands)
	if n == 1 {
		return 1, nil
	}
	pos := float64(i) / float64(n-1)
	if dir == schema.Decreasing {
		pos = 1 - pos
	}
	return pos, nil
}

func bandName(b schema.ThresholdBand, i int) string {
	if b.Label != "" {
		return b.Label
	}
	lo, hi := "-inf", "+inf"
	if b.Min != nil {
		lo = strconv.FormatFloat(*b.Min, 'g', -1, 64)
	}
	if b.Max != nil {
		hi = strconv.FormatFloat(*b.Max, 'g', -1, 64)
	}
	return fmt.Sprintf("band %d [%s,%s)", i+1, lo, hi)
}

func evalCurve(r *schema.CurveRubric, obs schema.Observation, env Env) (float64, schema.Explanation, error) {
	if r == nil {
		return 0, schema.Explanation{}, missingRubric(schema.CurveScoring)
	}
	c, err := resolveCurve(env, r.CurveSetIDs, r.DefaultSet)
	if err != nil {
		return 0, schema.Explanation{}, err
	}
	layer := env.LayerID
	if layer == "" {
		layer = r.LayerID
	}
	m, err := curve.Explain(c, layer, obs)
	if err != nil {
		return 0, schema.Explanation{Rule: c.ID}, err
	}
	return m.Score, schema.Explanation{Rule: m.CurveID, Detail: "layer " + m.LayerID, Curve: &m}, nil
}

// ScoringCurve returns the curve p consults under env, or false when the profile
// never scores through a curve or the curve is not available.
func ScoringCurve(p *schema.ScoringProfile, env Env) (*schema.Curve, bool) {
	if p == nil {
		return nil, false
	}
	var (
		c   *schema.Curve
		err error
	)
	s := p.Scoring
	switch {
	case s.Type == schema.CurveScoring && s.Curve != nil:
		c, err = resolveCurve(env, s.Curve.CurveSetIDs, s.Curve.DefaultSet)
	case s.Type == schema.FormulaScoring && s.Formula != nil && s.Formula.Output != nil && s.Formula.Output.Type == schema.CurveMapping:
		c, err = resolveCurve(env, []string{s.Formula.Output.CurveID}, s.Formula.Output.CurveID)
	case s.Type == schema.CategoricalScoring && p.CurveIntegration.Enabled:
		c, err = resolveCurve(env, p.CurveIntegration.CurveSetIDs, "")
	default:
		return nil, false
	}
	return c, err == nil
}

// resolveCurve picks the curve a profile consults: the scenario override, then the
// scenario-selected set, then the rubric default, then the first referenced set.
func resolveCurve(env Env, ids []string, defaultSet string) (*schema.Curve, error) {
	if env.Override != nil {
		return env.Override, nil
	}
	id := env.ActiveSet
	if id == "" {
		id = defaultSet
	}
	if id == "" && len(ids) > 0 {
		id = ids[0]
	}
	if id == "" {
		return nil, schema.Insufficient("curve", "no curve set referenced")
	}
	c, ok := env.Curves[id]
	if !ok || c == nil {
		return nil, schema.Insufficient("curve "+id, "curve set not loaded")
	}
	return c, nil
}

var (
	truthy = map[string]bool{"true": true, "yes": true, "y": true, "present": true, "1": true}
	falsy  = map[string]bool{"false": true, "no": true, "n": true, "absent": true, "0": true}
)

func evalBinary(r *schema.BinaryRubric, obs schema.Observation) (float64, schema.Explanation, error) {
	if r == nil {
		return 0, schema.Explanation{}, missingRubric(schema.BinaryScoring)
	}
	flag, ok := truth(r, obs)
	if !ok {
		return 0, schema.Explanation{}, schema.Insufficient("binary rubric", "%q is neither true nor false", obs.String())
	}
	if flag {
		return valueOr(r.TrueIndex, 1), schema.Explanation{Rule: labelOr(r.TrueLabel, "true")}, nil
	}
	return valueOr(r.FalseIndex, 0), schema.Explanation{Rule: labelOr(r.FalseLabel, "false")}, nil
}

func truth(r *schema.BinaryRubric, obs schema.Observation) (bool, bool) {
	switch {
	case obs.Flag != nil:
		return *obs.Flag, true
	case obs.Value != nil:
		return *obs.Value != 0, true
	}
	word := strings.ToLower(strings.TrimSpace(obs.Label))
	switch {
	case r.TrueLabel != "" && strings.EqualFold(word, r.TrueLabel):
		return true, true
	case r.FalseLabel != "" && strings.EqualFold(word, r.FalseLabel):
		return false, true
	case truthy[word]:
		return true, true
	case falsy[word]:
		return false, true
	}
	if v, ok := obs.Number(); ok {
		return v != 0, true
	}
	return false, false
}

func valueOr(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}

func labelOr(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func evalLookup(r *schema.LookupRubric, obs schema.Observation) (float64, schema.Explanation, error) {
	if r == nil {
		return 0, schema.Explanation{}, missingRubric(schema.LookupScoring)
	}
	text, _ := obs.Text()
	for _, e := range r.Table {
		if e.Input == text {
			return e.Output, schema.Explanation{Rule: e.Input, Detail: e.Label}, nil
		}
	}
	return 0, schema.Explanation{}, schema.Insufficient("lookup rubric", "no entry for %q", text)
}
