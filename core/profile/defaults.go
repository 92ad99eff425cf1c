package profile

import (
	"strings"

	"github.com/huangsam/streamscore/schema"
)

// DefaultObservation returns the seed value a newly selected metric starts with,
// so that it scores before the observer has entered anything. An empty observation
// is returned only when the profile offers nothing to seed from.
func DefaultObservation(p *schema.ScoringProfile, env Env) schema.Observation {
	if p == nil {
		return schema.Observation{}
	}
	s := p.Scoring
	switch s.Type {
	case schema.CategoricalScoring:
		if s.Categorical != nil {
			return defaultLevel(s.Categorical.Levels)
		}
	case schema.ThresholdsScoring:
		if s.Thresholds != nil {
			return defaultBand(s.Thresholds, env)
		}
	case schema.CurveScoring:
		if s.Curve != nil {
			c, err := resolveCurve(env, s.Curve.CurveSetIDs, s.Curve.DefaultSet)
			if err != nil {
				c = firstLoaded(env, s.Curve.CurveSetIDs)
			}
			if c != nil {
				layer := env.LayerID
				if layer == "" {
					layer = s.Curve.LayerID
				}
				return defaultOnCurve(c, layer)
			}
		}
	case schema.FormulaScoring:
		if s.Formula != nil {
			return defaultFormula(s.Formula, env)
		}
	case schema.BinaryScoring:
		return schema.FlagObservation(true)
	case schema.LookupScoring:
		if s.Lookup != nil && len(s.Lookup.Table) > 0 {
			return schema.LabelObservation(s.Lookup.Table[0].Input)
		}
	}
	return schema.Observation{}
}

// firstLoaded returns the first referenced curve set present in env.
func firstLoaded(env Env, ids []string) *schema.Curve {
	for _, id := range ids {
		if c, ok := env.Curves[id]; ok && c != nil {
			return c
		}
	}
	return nil
}

// defaultFormula uses the declared defaults, or else binds every variable to the
// first of 1 and 0 that gives the formula a finite score.
func defaultFormula(r *schema.FormulaRubric, env Env) schema.Observation {
	if len(r.Defaults) > 0 {
		return schema.VarsObservation(r.Defaults)
	}
	names := r.Variables
	if len(names) == 0 {
		f, err := ParseFormula(r.Expression)
		if err != nil {
			return schema.Observation{}
		}
		names = f.Vars()
	}
	if len(names) == 0 {
		return schema.NumberObservation(0)
	}
	var first schema.Observation
	for i, seed := range []float64{1, 0} {
		vars := make(map[string]float64, len(names))
		for _, n := range names {
			vars[n] = seed
		}
		obs := schema.VarsObservation(vars)
		if i == 0 {
			first = obs
		}
		if _, _, err := evalFormula(r, obs, env); err == nil {
			return obs
		}
	}
	return first
}

func defaultLevel(levels []schema.CategoricalLevel) schema.Observation {
	for _, l := range levels {
		if strings.EqualFold(l.Label, "Optimal") || strings.EqualFold(l.Rating, "Optimal") {
			return schema.LabelObservation(l.Label)
		}
	}
	if len(levels) > 0 {
		return schema.LabelObservation(levels[0].Label)
	}
	return schema.Observation{}
}

// defaultBand seeds a value inside the highest-scoring band.
func defaultBand(r *schema.ThresholdsRubric, env Env) schema.Observation {
	best, bestScore := -1, -1.0
	for i := range r.Bands {
		score, err := bandScore(r.Bands, i, r.Direction, r.RatingScale, env)
		if err == nil && score > bestScore {
			best, bestScore = i, score
		}
	}
	if best < 0 {
		return schema.Observation{}
	}
	b := r.Bands[best]
	switch {
	case b.Min != nil && b.Max != nil:
		return schema.NumberObservation((*b.Min + *b.Max) / 2)
	case b.Min != nil:
		return schema.NumberObservation(*b.Min)
	case b.Max != nil:
		return schema.NumberObservation(*b.Max - 1)
	default:
		return schema.NumberObservation(0)
	}
}

// defaultOnCurve seeds the midpoint of a quantitative layer or the best category of a categorical one.
func defaultOnCurve(c *schema.Curve, layerID string) schema.Observation {
	layer, ok := c.ResolveLayer(layerID)
	if !ok || len(layer.Points) == 0 {
		return schema.Observation{}
	}
	if c.Domain == schema.CategoricalDomain {
		best := layer.Points[0]
		for _, p := range layer.Points[1:] {
			if p.Y > best.Y {
				best = p
			}
		}
		return schema.LabelObservation(best.Label)
	}
	lo, hi := layer.Points[0].X, layer.Points[0].X
	for _, p := range layer.Points[1:] {
		lo = min(lo, p.X)
		hi = max(hi, p.X)
	}
	return schema.NumberObservation((lo + hi) / 2)
}
