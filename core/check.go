package core

import (
	"fmt"
	"io"

	"github.com/huangsam/streamscore/schema"
)

// Check gates an assessment against a minimum ecosystem index and optional
// per-outcome minimums. A zero minimum never fails.
func Check(a schema.Assessment, minIndex float64, minSubIndices map[schema.Outcome]float64) schema.CheckResult {
	res := schema.CheckResult{
		ScenarioID:     a.ScenarioID,
		Passed:         true,
		EcosystemIndex: a.Rollup.EcosystemIndex,
		MinIndex:       minIndex,
		SubIndices:     make(map[schema.Outcome]float64, len(schema.AllOutcomes)),
	}
	for _, o := range schema.AllOutcomes {
		res.SubIndices[o] = a.Rollup.Outcome(o).SubIndex
	}

	if a.Rollup.EcosystemIndex < minIndex {
		res.Passed = false
		res.Failures = append(res.Failures,
			fmt.Sprintf("ecosystem index %.3f < minimum %.3f", a.Rollup.EcosystemIndex, minIndex))
	}
	for _, o := range schema.AllOutcomes {
		limit, ok := minSubIndices[o]
		if !ok {
			continue
		}
		if sub := res.SubIndices[o]; sub < limit {
			res.Passed = false
			res.Failures = append(res.Failures, fmt.Sprintf("%s sub-index %.3f < minimum %.3f", o, sub, limit))
		}
	}
	return res
}

// PrintCheckResult prints the check result in a concise format suitable for CI/CD.
func PrintCheckResult(w io.Writer, result schema.CheckResult, minSubIndices map[schema.Outcome]float64) {
	printCheckHeader(w, result, minSubIndices)

	if result.Passed {
		_, _ = fmt.Fprintf(w, "✅ Scenario passed condition checks\n")
		return
	}
	_, _ = fmt.Fprintf(w, "❌ Condition check failed: %d violation(s) found\n\n", len(result.Failures))
	for _, f := range result.Failures {
		_, _ = fmt.Fprintf(w, "  - %s\n", f)
	}
}

// printCheckHeader prints the common header information for check results.
func printCheckHeader(w io.Writer, result schema.CheckResult, minSubIndices map[schema.Outcome]float64) {
	_, _ = fmt.Fprintln(w, "Condition Check Results:")

	labels := []string{"Scenario:", "Ecosystem:"}
	values := []any{
		result.ScenarioID,
		fmt.Sprintf("%.3f (minimum %.3f)", result.EcosystemIndex, result.MinIndex),
	}
	for _, o := range schema.AllOutcomes {
		labels = append(labels, string(o)+":")
		if limit, ok := minSubIndices[o]; ok {
			values = append(values, fmt.Sprintf("%.3f (minimum %.3f)", result.SubIndices[o], limit))
		} else {
			values = append(values, fmt.Sprintf("%.3f", result.SubIndices[o]))
		}
	}

	// Find the longest label for consistent padding
	maxLabelLen := 0
	for _, label := range labels {
		if len(label) > maxLabelLen {
			maxLabelLen = len(label)
		}
	}
	for i, label := range labels {
		_, _ = fmt.Fprintf(w, "  %-*s %v\n", maxLabelLen+1, label, values[i])
	}
	_, _ = fmt.Fprintln(w)
}
