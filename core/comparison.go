package core

import (
	"slices"

	"github.com/huangsam/streamscore/schema"
)

// Diff compares two assessments of the same catalog and lists what moved.
// Metrics are reported in the after order followed by metrics that disappeared;
// functions follow the same rule. Outcomes are always in reporting order.
func Diff(before, after schema.Assessment) schema.ChangeSummary {
	cs := schema.ChangeSummary{
		EcosystemBefore: before.Rollup.EcosystemIndex,
		EcosystemAfter:  after.Rollup.EcosystemIndex,
		Unscored:        after.Unscored(),
	}

	beforeMetrics := make(map[string]schema.MetricScore, len(before.Metrics))
	for _, m := range before.Metrics {
		beforeMetrics[m.MetricID] = m
	}
	afterMetrics := make(map[string]bool, len(after.Metrics))
	for _, m := range after.Metrics {
		afterMetrics[m.MetricID] = true
		prev, existed := beforeMetrics[m.MetricID]
		if existed && sameScore(prev.Score, m.Score) {
			continue
		}
		cs.Metrics = append(cs.Metrics, schema.MetricChange{MetricID: m.MetricID, Before: prev.Score, After: m.Score})
	}
	for _, m := range before.Metrics {
		if !afterMetrics[m.MetricID] {
			cs.Metrics = append(cs.Metrics, schema.MetricChange{MetricID: m.MetricID, Before: m.Score})
		}
	}

	beforeFunctions := make(map[string]schema.FunctionResult, len(before.Functions))
	for _, f := range before.Functions {
		beforeFunctions[f.FunctionID] = f
	}
	afterFunctions := make(map[string]bool, len(after.Functions))
	for _, f := range after.Functions {
		afterFunctions[f.FunctionID] = true
		prev, existed := beforeFunctions[f.FunctionID]
		if existed && prev.Score == f.Score && prev.Scored == f.Scored {
			continue
		}
		cs.Functions = append(cs.Functions, schema.FunctionChange{
			FunctionID:   f.FunctionID,
			Before:       prev.Score,
			After:        f.Score,
			BeforeScored: prev.Scored,
			AfterScored:  f.Scored,
		})
	}
	for _, f := range before.Functions {
		if !afterFunctions[f.FunctionID] {
			cs.Functions = append(cs.Functions, schema.FunctionChange{
				FunctionID:   f.FunctionID,
				Before:       f.Score,
				BeforeScored: f.Scored,
			})
		}
	}

	for _, o := range schema.AllOutcomes {
		b := before.Rollup.Outcome(o).SubIndex
		a := after.Rollup.Outcome(o).SubIndex
		if a != b {
			cs.Outcomes = append(cs.Outcomes, schema.OutcomeChange{Outcome: o, Before: b, After: a})
		}
	}
	return cs
}

// Compare assesses two scenarios against one catalog and diffs the results.
func Compare(cat *schema.Catalog, base, target *schema.Scenario, opts AssessOptions) (schema.Assessment, schema.Assessment, schema.ChangeSummary, error) {
	baseAssessment, err := Assess(cat, base, opts)
	if err != nil {
		return schema.Assessment{}, schema.Assessment{}, schema.ChangeSummary{}, err
	}
	targetAssessment, err := Assess(cat, target, opts)
	if err != nil {
		return schema.Assessment{}, schema.Assessment{}, schema.ChangeSummary{}, err
	}
	return baseAssessment, targetAssessment, Diff(baseAssessment, targetAssessment), nil
}

// ChangedFunctionIDs lists the ids of functions present in a change summary.
func ChangedFunctionIDs(cs schema.ChangeSummary) []string {
	ids := make([]string, 0, len(cs.Functions))
	for _, f := range cs.Functions {
		ids = append(ids, f.FunctionID)
	}
	slices.Sort(ids)
	return ids
}

func sameScore(a, b *float64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
