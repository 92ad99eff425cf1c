// Package curve converts a raw metric observation into a 0-1 index score by
// interpolating (quantitative) or banding (categorical) a curve layer.
package curve

import (
	"math"
	"sort"
	"strings"

	"github.com/huangsam/streamscore/schema"
)

// Evaluate returns the index score of obs on the given layer of c.
// An empty layerID selects the curve's active layer. Undecidable inputs yield
// an *schema.InsufficientDataError, which callers treat as unscored.
func Evaluate(c *schema.Curve, layerID string, obs schema.Observation) (float64, error) {
	m, err := Explain(c, layerID, obs)
	if err != nil {
		return 0, err
	}
	return m.Score, nil
}

// Explain is Evaluate plus the points, fraction and band that produced the score.
func Explain(c *schema.Curve, layerID string, obs schema.Observation) (schema.CurveMatch, error) {
	if c == nil {
		return schema.CurveMatch{}, schema.Insufficient("curve", "no curve supplied")
	}
	layer, ok := c.ResolveLayer(layerID)
	if !ok {
		return schema.CurveMatch{}, schema.Insufficient("curve "+c.ID, "layer %q not found", layerID)
	}
	if obs.Absent() {
		return schema.CurveMatch{}, schema.Insufficient("curve "+c.ID, "no observation")
	}

	var (
		m   schema.CurveMatch
		err error
	)
	if c.Domain == schema.CategoricalDomain {
		m, err = explainCategorical(c.ID, layer, obs)
	} else {
		m, err = explainQuantitative(c.ID, layer, obs)
	}
	if err != nil {
		return schema.CurveMatch{}, err
	}
	m.CurveID = c.ID
	m.LayerID = layer.ID
	return m, nil
}

func explainQuantitative(curveID string, layer *schema.Layer, obs schema.Observation) (schema.CurveMatch, error) {
	value, ok := obs.Number()
	if !ok || math.IsNaN(value) {
		return schema.CurveMatch{}, schema.Insufficient("curve "+curveID, "observation %q is not numeric", obs.String())
	}
	m, ok := Interpolate(layer.Points, value)
	if !ok {
		return schema.CurveMatch{}, schema.Insufficient("curve "+curveID, "layer %q has fewer than 2 numeric points", layer.ID)
	}
	return m, nil
}

// Interpolate linearly interpolates value over the points sorted by X, holding the
// end values flat outside the point range. It reports false with fewer than 2 finite points.
func Interpolate(points []schema.Point, value float64) (schema.CurveMatch, bool) {
	valid := make([]schema.Point, 0, len(points))
	for _, p := range points {
		if isFinite(p.X) && isFinite(p.Y) {
			valid = append(valid, p)
		}
	}
	if len(valid) < 2 || math.IsNaN(value) {
		return schema.CurveMatch{}, false
	}
	sort.SliceStable(valid, func(i, j int) bool { return valid[i].X < valid[j].X })

	first, last := valid[0], valid[len(valid)-1]
	if value <= first.X {
		return schema.CurveMatch{Score: Clamp(first.Y), Left: &first, Clamped: value < first.X}, true
	}
	if value >= last.X {
		return schema.CurveMatch{Score: Clamp(last.Y), Right: &last, Clamped: value > last.X}, true
	}

	for i := 1; i < len(valid); i++ {
		right := valid[i]
		if value > right.X {
			continue
		}
		left := valid[i-1]
		span := right.X - left.X
		if span == 0 {
			return schema.CurveMatch{Score: Clamp(right.Y), Left: &left, Right: &right}, true
		}
		t := (value - left.X) / span
		return schema.CurveMatch{
			Score:    Clamp(left.Y + t*(right.Y-left.Y)),
			Left:     &left,
			Right:    &right,
			Fraction: t,
		}, true
	}
	// unreachable: value < last.X guarantees a bracketing pair
	return schema.CurveMatch{Score: Clamp(last.Y), Right: &last}, true
}

func explainCategorical(curveID string, layer *schema.Layer, obs schema.Observation) (schema.CurveMatch, error) {
	idx := matchCategory(layer.Points, obs)
	if idx < 0 {
		return schema.CurveMatch{}, schema.Insufficient("curve "+curveID, "no category matches %q", obs.String())
	}
	p := layer.Points[idx]
	if !p.HasBand() {
		p = DeriveBands(layer.Points)[idx]
	}
	band := [2]float64{*p.YMin, *p.YMax}
	return schema.CurveMatch{Score: Clamp(p.Y), Left: &p, Band: &band}, nil
}

// matchCategory finds the point selected by label, falling back to numeric identity on X.
func matchCategory(points []schema.Point, obs schema.Observation) int {
	if text, ok := obs.Text(); ok {
		needle := strings.TrimSpace(text)
		for i, p := range points {
			if p.Label != "" && strings.EqualFold(strings.TrimSpace(p.Label), needle) {
				return i
			}
		}
	}
	if v, ok := obs.Number(); ok {
		for i, p := range points {
			if p.X == v {
				return i
			}
		}
	}
	return -1
}

// Clamp limits v to [0,1]. NaN clamps to 0.
func Clamp(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
