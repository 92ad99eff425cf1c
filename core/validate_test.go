package core

import (
	"errors"
	"testing"

	"github.com/huangsam/streamscore/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateCatalogFixture(t *testing.T) {
	cat, _ := loadFixtures(t)
	assert.NoError(t, ValidateCatalog(cat))
}

func TestValidateCatalogViolations(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(cat *schema.Catalog)
		contains string
	}{
		{
			name:     "metric references unknown function",
			mutate:   func(cat *schema.Catalog) { cat.Metrics[0].FunctionID = "geology" },
			contains: `function "geology" is not defined`,
		},
		{
			name: "duplicate curve id",
			mutate: func(cat *schema.Catalog) {
				cat.Curves = append(cat.Curves, *cat.Curves[1].Clone())
			},
			contains: "duplicate curve id",
		},
		{
			name:     "unknown outcome code",
			mutate:   func(cat *schema.Catalog) { cat.OutcomeMappings[0].Chemical = "X" },
			contains: `unknown chemical code "X"`,
		},
		{
			name:     "outcome code in the wrong case",
			mutate:   func(cat *schema.Catalog) { cat.OutcomeMappings[0].Physical = "d" },
			contains: `unknown physical code "d"`,
		},
		{
			name: "mapping for undefined function",
			mutate: func(cat *schema.Catalog) {
				cat.OutcomeMappings = append(cat.OutcomeMappings, schema.OutcomeMapping{FunctionID: "ghost", Physical: "D"})
			},
			contains: "function is not defined",
		},
		{
			name: "two profiles for one tier",
			mutate: func(cat *schema.Catalog) {
				m := &cat.Metrics[0]
				m.Profiles = append(m.Profiles, m.Profiles[0])
			},
			contains: "more than one detailed profile",
		},
		{
			name:     "rating scale repeats a label",
			mutate:   func(cat *schema.Catalog) { cat.RatingScales[0].Levels[1].Label = "optimal" },
			contains: "repeats label",
		},
		{
			name: "curve rubric references missing set",
			mutate: func(cat *schema.Catalog) {
				m, _ := cat.Metric("temperature")
				m.Profiles[0].Scoring.Curve.CurveSetIDs = []string{"nowhere"}
			},
			contains: `curve set "nowhere" is not defined`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cat, _ := loadFixtures(t)
			tt.mutate(cat)
			err := ValidateCatalog(cat)
			require.Error(t, err)
			assert.ErrorContains(t, err, tt.contains)
			assert.True(t, errors.Is(err, schema.ErrInvariant))
		})
	}
}

func TestValidateCatalogJoinsViolations(t *testing.T) {
	cat, _ := loadFixtures(t)
	cat.Metrics[0].FunctionID = "geology"
	cat.OutcomeMappings[0].Physical = "Z"

	err := ValidateCatalog(cat)
	require.Error(t, err)
	assert.ErrorContains(t, err, "geology")
	assert.ErrorContains(t, err, `"Z"`)

	assert.Error(t, ValidateCatalog(nil))
}
