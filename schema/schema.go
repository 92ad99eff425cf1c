// Package schema has the records, enums and errors shared by all parts of streamscore.
package schema

// Point is one vertex of a curve layer. Quantitative layers key points by X,
// categorical layers key them by Label. YMin/YMax hold a derived band when present.
type Point struct {
	X           float64  `json:"x" yaml:"x"`
	Label       string   `json:"label,omitempty" yaml:"label,omitempty"`
	Y           float64  `json:"y" yaml:"y"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	YMin        *float64 `json:"yMin,omitempty" yaml:"yMin,omitempty"`
	YMax        *float64 `json:"yMax,omitempty" yaml:"yMax,omitempty"`
}

// HasBand reports whether the point carries a derived [YMin, YMax] band.
func (p Point) HasBand() bool {
	return p.YMin != nil && p.YMax != nil
}

// Key returns the identity used to match a categorical observation.
func (p Point) Key() string {
	return p.Label
}

// Layer is a named stratification of a curve, e.g. a regional variant.
type Layer struct {
	ID     string  `json:"id" yaml:"id"`
	Name   string  `json:"name,omitempty" yaml:"name,omitempty"`
	Points []Point `json:"points" yaml:"points"`
}

// Curve maps a metric value onto an index score.
// ActiveLayerID is a plain identifier into Layers.
type Curve struct {
	ID            string     `json:"id" yaml:"id"`
	Name          string     `json:"name,omitempty" yaml:"name,omitempty"`
	MetricID      string     `json:"metricId,omitempty" yaml:"metricId,omitempty"`
	Tier          Tier       `json:"tier,omitempty" yaml:"tier,omitempty"`
	Domain        DomainType `json:"domain" yaml:"domain"`
	Units         string     `json:"units,omitempty" yaml:"units,omitempty"`
	Layers        []Layer    `json:"layers" yaml:"layers"`
	ActiveLayerID string     `json:"activeLayerId,omitempty" yaml:"activeLayerId,omitempty"`
}

// Layer returns the layer with the given id.
func (c *Curve) Layer(id string) (*Layer, bool) {
	for i := range c.Layers {
		if c.Layers[i].ID == id {
			return &c.Layers[i], true
		}
	}
	return nil, false
}

// ResolveLayer picks the layer to evaluate: the requested id, then the curve's
// active layer, then the first layer.
func (c *Curve) ResolveLayer(id string) (*Layer, bool) {
	if id != "" {
		return c.Layer(id)
	}
	if c.ActiveLayerID != "" {
		return c.Layer(c.ActiveLayerID)
	}
	if len(c.Layers) == 0 {
		return nil, false
	}
	return &c.Layers[0], true
}

// Clone returns a deep copy of the curve.
func (c *Curve) Clone() *Curve {
	if c == nil {
		return nil
	}
	out := *c
	out.Layers = make([]Layer, len(c.Layers))
	for i, l := range c.Layers {
		out.Layers[i] = Layer{ID: l.ID, Name: l.Name, Points: ClonePoints(l.Points)}
	}
	return &out
}

// ClonePoints deep copies a point slice including band pointers.
func ClonePoints(points []Point) []Point {
	out := make([]Point, len(points))
	for i, p := range points {
		out[i] = p
		if p.YMin != nil {
			v := *p.YMin
			out[i].YMin = &v
		}
		if p.YMax != nil {
			v := *p.YMax
			out[i].YMax = &v
		}
	}
	return out
}

// CurveMatch explains how the curve model arrived at a score.
type CurveMatch struct {
	CurveID  string      `json:"curveId"`
	LayerID  string      `json:"layerId"`
	Score    float64     `json:"score"`
	Left     *Point      `json:"left,omitempty"`
	Right    *Point      `json:"right,omitempty"`
	Fraction float64     `json:"fraction,omitempty"`
	Clamped  bool        `json:"clamped,omitempty"` // value fell outside the point range
	Band     *[2]float64 `json:"band,omitempty"`
}
