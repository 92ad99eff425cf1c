package curve

import (
	"math"
	"sort"

	"github.com/huangsam/streamscore/schema"
)

// DeriveBands partitions [0,1] among categorical points by rank of Y.
// Points are ranked by Y descending; each boundary is the mean of adjacent Y values,
// the top band ends at 1 and the bottom band starts at 0, rounded to 2 decimals.
// The result keeps the input order and never depends on it.
func DeriveBands(points []schema.Point) []schema.Point {
	out := schema.ClonePoints(points)
	n := len(out)
	if n == 0 {
		return out
	}

	rank := make([]int, n)
	for i := range rank {
		rank[i] = i
	}
	sort.SliceStable(rank, func(a, b int) bool {
		pa, pb := out[rank[a]], out[rank[b]]
		ya, yb := Clamp(pa.Y), Clamp(pb.Y)
		if ya != yb {
			return ya > yb
		}
		if pa.Label != pb.Label {
			return pa.Label < pb.Label
		}
		return pa.X < pb.X
	})

	for r, idx := range rank {
		y := Clamp(out[idx].Y)
		hi, lo := 1.0, 0.0
		if r > 0 {
			hi = round2((Clamp(out[rank[r-1]].Y) + y) / 2)
		}
		if r < n-1 {
			lo = round2((y + Clamp(out[rank[r+1]].Y)) / 2)
		}
		out[idx].YMin = &lo
		out[idx].YMax = &hi
	}
	return out
}

// LayerBands derives bands for one layer of a categorical curve.
func LayerBands(c *schema.Curve, layerID string) ([]schema.Point, error) {
	layer, ok := c.ResolveLayer(layerID)
	if !ok {
		return nil, schema.Insufficient("curve "+c.ID, "layer %q not found", layerID)
	}
	return DeriveBands(layer.Points), nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
