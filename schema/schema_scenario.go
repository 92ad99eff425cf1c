package schema

import (
	"maps"
	"slices"
	"time"
)

// Scenario is the mutable session state of one assessment.
type Scenario struct {
	ID              string                 `json:"id" yaml:"id"`
	Name            string                 `json:"name,omitempty" yaml:"name,omitempty"`
	Tier            Tier                   `json:"tier" yaml:"tier"`
	Metrics         []string               `json:"metrics" yaml:"metrics"` // selection, in display order
	Observations    map[string]Observation `json:"observations,omitempty" yaml:"observations,omitempty"`
	CurveOverrides  map[string]*Curve      `json:"curveOverrides,omitempty" yaml:"curveOverrides,omitempty"`
	ActiveCurveSets map[string]string      `json:"activeCurveSets,omitempty" yaml:"activeCurveSets,omitempty"`
	ActiveLayers    map[string]string      `json:"activeLayers,omitempty" yaml:"activeLayers,omitempty"` // layer of the scored curve, by metric
	CreatedAt       time.Time              `json:"createdAt" yaml:"createdAt"`
	UpdatedAt       time.Time              `json:"updatedAt" yaml:"updatedAt"`
}

// HasMetric reports whether the metric is selected.
func (s *Scenario) HasMetric(id string) bool {
	return slices.Contains(s.Metrics, id)
}

// Clone returns a deep copy sharing no mutable state with s.
func (s *Scenario) Clone() *Scenario {
	out := *s
	out.Metrics = slices.Clone(s.Metrics)
	if s.Observations != nil {
		out.Observations = make(map[string]Observation, len(s.Observations))
		for k, v := range s.Observations {
			out.Observations[k] = v.Clone()
		}
	}
	if s.CurveOverrides != nil {
		out.CurveOverrides = make(map[string]*Curve, len(s.CurveOverrides))
		for k, v := range s.CurveOverrides {
			out.CurveOverrides[k] = v.Clone()
		}
	}
	if s.ActiveCurveSets != nil {
		out.ActiveCurveSets = maps.Clone(s.ActiveCurveSets)
	}
	if s.ActiveLayers != nil {
		out.ActiveLayers = maps.Clone(s.ActiveLayers)
	}
	return &out
}
