// Package rollup aggregates metric index scores into function scores, outcome
// sub-indices and the ecosystem condition index. The arithmetic is shared by every tier.
package rollup

import (
	"math"
	"slices"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/huangsam/streamscore/schema"
)

// Weights are the multipliers applied to direct and indirect outcome codes.
type Weights struct {
	Direct   float64
	Indirect float64
}

// DefaultWeights returns the standard 1.0 / 0.1 weighting.
func DefaultWeights() Weights {
	return Weights{Direct: schema.DirectWeight, Indirect: schema.IndirectWeight}
}

// Weight returns the weight for an outcome code: D is direct, i is indirect,
// anything else carries no weight. Codes are case-sensitive.
func (w Weights) Weight(code schema.OutcomeCode) float64 {
	switch code {
	case schema.DirectCode:
		return w.Direct
	case schema.IndirectCode:
		return w.Indirect
	default:
		return 0
	}
}

// FunctionScore averages the non-null index scores of a function's metrics onto [0,15].
// Null scores are excluded, not zero-filled. With nothing to average the score is 0 and
// the result is flagged unscored.
func FunctionScore(functionID string, scores []schema.MetricScore) schema.FunctionResult {
	res := schema.FunctionResult{FunctionID: functionID}

	sorted := slices.Clone(scores)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].MetricID < sorted[j].MetricID })

	values := make([]float64, 0, len(sorted))
	for _, s := range sorted {
		if s.Score == nil {
			res.Excluded++
			continue
		}
		values = append(values, clamp01(*s.Score))
	}
	res.Contributing = len(values)
	if len(values) == 0 {
		return res
	}
	res.Scored = true
	res.Score = schema.MaxFunctionScore * stat.Mean(values, nil)
	return res
}

// Compute rolls function scores up into the three outcomes with the default weights.
func Compute(functionScores map[string]float64, mapping map[string]schema.OutcomeMapping) schema.RollupResult {
	return ComputeWithWeights(functionScores, mapping, DefaultWeights())
}

// ComputeWithWeights is Compute with configurable direct and indirect weights.
// Functions are visited in id order so the floating-point sums do not depend on map iteration.
func ComputeWithWeights(functionScores map[string]float64, mapping map[string]schema.OutcomeMapping, w Weights) schema.RollupResult {
	ids := make([]string, 0, len(functionScores))
	for id := range functionScores {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	var res schema.RollupResult
	for _, o := range schema.AllOutcomes {
		t := res.Outcome(o)
		for _, id := range ids {
			m, ok := mapping[id]
			if !ok {
				continue
			}
			code := m.Code(o)
			weight := w.Weight(code)
			if weight == 0 {
				continue
			}
			if isDirect(code) {
				t.Direct++
			} else {
				t.Indirect++
			}
			t.Weighted += functionScores[id] * weight
			t.MaxWeighted += schema.MaxFunctionScore * weight
		}
		if t.MaxWeighted > 0 {
			t.SubIndex = clamp01(t.Weighted / t.MaxWeighted)
		}
	}
	res.EcosystemIndex = EcosystemIndex(res)
	return res
}

// EcosystemIndex is the unweighted mean of the three outcome sub-indices.
func EcosystemIndex(r schema.RollupResult) float64 {
	return stat.Mean([]float64{r.Physical.SubIndex, r.Chemical.SubIndex, r.Biological.SubIndex}, nil)
}

func isDirect(code schema.OutcomeCode) bool {
	return code == schema.DirectCode
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
