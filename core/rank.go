package core

import (
	"slices"

	"github.com/huangsam/streamscore/schema"
)

// RankFunctions orders function results from weakest to strongest and returns
// the first limit entries. Unscored functions sort last; ties break on id.
// A limit of zero or less returns every function.
func RankFunctions(functions []schema.FunctionResult, limit int) []schema.FunctionResult {
	ranked := slices.Clone(functions)
	slices.SortStableFunc(ranked, func(a, b schema.FunctionResult) int {
		switch {
		case a.Scored != b.Scored:
			if a.Scored {
				return -1
			}
			return 1
		case a.Score < b.Score:
			return -1
		case a.Score > b.Score:
			return 1
		case a.FunctionID < b.FunctionID:
			return -1
		case a.FunctionID > b.FunctionID:
			return 1
		default:
			return 0
		}
	})
	if limit > 0 && len(ranked) > limit {
		return ranked[:limit]
	}
	return ranked
}
