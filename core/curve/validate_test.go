package curve

import (
	"errors"
	"math"
	"testing"

	"github.com/huangsam/streamscore/schema"
	"github.com/stretchr/testify/assert"
)

// TestValidate tests structural curve checks.
func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		curve   *schema.Curve
		wantErr string
	}{
		{name: "valid quantitative", curve: linearCurve()},
		{name: "valid categorical", curve: ratingCurve()},
		{name: "nil", curve: nil, wantErr: "missing"},
		{name: "no layers", curve: &schema.Curve{ID: "x"}, wantErr: "no layers"},
		{
			name:    "one point",
			curve:   &schema.Curve{ID: "x", Layers: []schema.Layer{{ID: "a", Points: []schema.Point{{X: 1, Y: 1}}}}},
			wantErr: "at least 2 points",
		},
		{
			name:    "repeated x",
			curve:   &schema.Curve{ID: "x", Layers: []schema.Layer{{ID: "a", Points: []schema.Point{{X: 1, Y: 1}, {X: 1, Y: 0}}}}},
			wantErr: "repeats x=1",
		},
		{
			name:    "nan point",
			curve:   &schema.Curve{ID: "x", Layers: []schema.Layer{{ID: "a", Points: []schema.Point{{X: 1, Y: 1}, {X: math.Inf(1), Y: 0}}}}},
			wantErr: "non-finite",
		},
		{
			name: "duplicate layers",
			curve: &schema.Curve{ID: "x", Layers: []schema.Layer{
				{ID: "a", Points: []schema.Point{{X: 0, Y: 0}, {X: 1, Y: 1}}},
				{ID: "a", Points: []schema.Point{{X: 0, Y: 0}, {X: 1, Y: 1}}},
			}},
			wantErr: "duplicate layer",
		},
		{
			name: "missing active layer",
			curve: &schema.Curve{ID: "x", ActiveLayerID: "b", Layers: []schema.Layer{
				{ID: "a", Points: []schema.Point{{X: 0, Y: 0}, {X: 1, Y: 1}}},
			}},
			wantErr: "active layer",
		},
		{
			name: "repeated category",
			curve: &schema.Curve{ID: "x", Domain: schema.CategoricalDomain, Layers: []schema.Layer{
				{ID: "a", Points: []schema.Point{{Label: "Good", Y: 1}, {Label: "good", Y: 0}}},
			}},
			wantErr: "repeats category",
		},
		{
			name:    "unknown domain",
			curve:   &schema.Curve{ID: "x", Domain: "ordinal", Layers: []schema.Layer{{ID: "a", Points: []schema.Point{{X: 0, Y: 0}, {X: 1, Y: 1}}}}},
			wantErr: "unknown domain",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.curve)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
			assert.True(t, errors.Is(err, schema.ErrInvariant))
		})
	}
}

// TestValidateInvertedBand rejects a band whose bounds are swapped.
func TestValidateInvertedBand(t *testing.T) {
	lo, hi := 0.9, 0.1
	c := &schema.Curve{ID: "x", Domain: schema.CategoricalDomain, Layers: []schema.Layer{
		{ID: "a", Points: []schema.Point{{Label: "Good", Y: 0.5, YMin: &lo, YMax: &hi}}},
	}}
	assert.ErrorContains(t, Validate(c), "inverted band")
}
