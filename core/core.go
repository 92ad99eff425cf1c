// Package core has the assessment pipeline shared by every tier: metric scoring,
// function aggregation and the outcome rollup, plus diffing and catalog checks.
package core

import (
	"fmt"

	"github.com/huangsam/streamscore/core/profile"
	"github.com/huangsam/streamscore/core/rollup"
	"github.com/huangsam/streamscore/schema"
)

// AssessOptions tunes the rollup. The zero value uses the default weights.
type AssessOptions struct {
	Weights rollup.Weights
}

func (o AssessOptions) weights() rollup.Weights {
	if o.Weights == (rollup.Weights{}) {
		return rollup.DefaultWeights()
	}
	return o.Weights
}

// BuildEnv assembles the evaluation environment of one selected metric.
func BuildEnv(cat *schema.Catalog, sc *schema.Scenario, metricID string) profile.Env {
	return metricEnv(cat.CurveMap(), cat.ScaleMap(), sc, metricID)
}

func metricEnv(curves map[string]*schema.Curve, scales map[string]schema.RatingScale, sc *schema.Scenario, metricID string) profile.Env {
	env := profile.Env{Curves: curves, Scales: scales}
	if sc != nil {
		env.Override = sc.CurveOverrides[metricID]
		env.ActiveSet = sc.ActiveCurveSets[metricID]
		env.LayerID = sc.ActiveLayers[metricID]
	}
	return env
}

// Assess scores every selected metric of the scenario and rolls the scores up.
// Every catalog function appears in the result, scored or not, so unscored functions
// still count toward the outcome denominators.
func Assess(cat *schema.Catalog, sc *schema.Scenario, opts AssessOptions) (schema.Assessment, error) {
	if cat == nil || sc == nil {
		return schema.Assessment{}, fmt.Errorf("assess: catalog and scenario are required")
	}
	tier := sc.Tier
	if tier == "" {
		tier = schema.DetailedTier
	}
	out := schema.Assessment{ScenarioID: sc.ID, Name: sc.Name, Tier: tier}

	curves := cat.CurveMap()
	scales := cat.ScaleMap()
	byFunction := make(map[string][]schema.MetricScore)
	seen := make(map[string]bool, len(sc.Metrics))

	for _, id := range sc.Metrics {
		if seen[id] {
			continue
		}
		seen[id] = true

		m, ok := cat.Metric(id)
		if !ok {
			return schema.Assessment{}, &schema.EvaluationError{Subject: "metric " + id, Reason: "not in catalog"}
		}
		ms := schema.MetricScore{MetricID: id, FunctionID: m.FunctionID, Observation: sc.Observations[id]}

		p, ok := m.ProfileFor(tier)
		if !ok {
			ms.Matched = schema.Explanation{Detail: fmt.Sprintf("no %s profile", tier)}
		} else {
			res, err := profile.Evaluate(p, ms.Observation, metricEnv(curves, scales, sc, id))
			if err != nil {
				return schema.Assessment{}, fmt.Errorf("metric %s: %w", id, err)
			}
			ms.Score = res.Score
			ms.Matched = res.Matched
		}
		out.Metrics = append(out.Metrics, ms)
		byFunction[m.FunctionID] = append(byFunction[m.FunctionID], ms)
	}

	functionScores := make(map[string]float64, len(cat.Functions))
	for _, f := range cat.Functions {
		fr := rollup.FunctionScore(f.ID, byFunction[f.ID])
		fr.Name = f.Name
		fr.Category = f.Category
		out.Functions = append(out.Functions, fr)
		functionScores[f.ID] = fr.Score
		delete(byFunction, f.ID)
	}
	// Metrics pointing at functions the catalog does not list still get a row.
	for _, ms := range out.Metrics {
		if group, ok := byFunction[ms.FunctionID]; ok {
			fr := rollup.FunctionScore(ms.FunctionID, group)
			out.Functions = append(out.Functions, fr)
			functionScores[ms.FunctionID] = fr.Score
			delete(byFunction, ms.FunctionID)
		}
	}

	out.Rollup = rollup.ComputeWithWeights(functionScores, cat.MappingMap(), opts.weights())
	return out, nil
}

// ScoredMetrics counts metrics carrying a score.
func ScoredMetrics(a schema.Assessment) int {
	n := 0
	for _, m := range a.Metrics {
		if m.Score != nil {
			n++
		}
	}
	return n
}
