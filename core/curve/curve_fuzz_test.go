package curve

import (
	"math"
	"testing"

	"github.com/huangsam/streamscore/schema"
)

// FuzzEvaluate fuzzes quantitative evaluation with random points and values.
func FuzzEvaluate(f *testing.F) {
	f.Add(0.0, 0.0, 10.0, 1.0, 5.0)
	f.Add(0.0, -3.0, 1.0, 7.0, 0.5)
	f.Add(5.0, 1.0, 5.0, 0.0, 5.0)
	f.Add(-1e300, 0.2, 1e300, 0.8, 0.0)
	f.Add(1.0, math.NaN(), 2.0, 0.5, 1.5)

	f.Fuzz(func(t *testing.T, x1, y1, x2, y2, value float64) {
		c := &schema.Curve{ID: "fuzz", Layers: []schema.Layer{{
			ID:     "a",
			Points: []schema.Point{{X: x1, Y: y1}, {X: x2, Y: y2}},
		}}}
		score, err := Evaluate(c, "", schema.NumberObservation(value))
		if err != nil {
			if !schema.IsInsufficient(err) {
				t.Fatalf("unexpected hard error: %v", err)
			}
			return
		}
		if math.IsNaN(score) || score < 0 || score > 1 {
			t.Fatalf("score %v out of [0,1] for points (%v,%v) (%v,%v) at %v", score, x1, y1, x2, y2, value)
		}
	})
}

// FuzzDeriveBands fuzzes band derivation for partition and idempotence.
func FuzzDeriveBands(f *testing.F) {
	f.Add(1.0, 0.7, 0.4, 0.1)
	f.Add(0.5, 0.5, 0.5, 0.5)
	f.Add(-2.0, 3.0, 0.0, 1.0)

	f.Fuzz(func(t *testing.T, a, b, c, d float64) {
		points := []schema.Point{{Label: "a", Y: a}, {Label: "b", Y: b}, {Label: "c", Y: c}, {Label: "d", Y: d}}
		first := DeriveBands(points)
		second := DeriveBands(first)
		for i := range first {
			lo, hi := *first[i].YMin, *first[i].YMax
			if lo < 0 || hi > 1 || lo > hi {
				t.Fatalf("band [%v,%v] is not inside [0,1]", lo, hi)
			}
			if *second[i].YMin != lo || *second[i].YMax != hi {
				t.Fatalf("derivation is not idempotent at %d", i)
			}
		}
	})
}
