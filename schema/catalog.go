package schema

import "fmt"

// Metric is an observable quantity tied to exactly one function.
type Metric struct {
	ID         string           `json:"metricId" yaml:"metricId"`
	Name       string           `json:"name,omitempty" yaml:"name,omitempty"`
	Discipline string           `json:"discipline,omitempty" yaml:"discipline,omitempty"`
	FunctionID string           `json:"function" yaml:"function"`
	Domain     DomainType       `json:"domain,omitempty" yaml:"domain,omitempty"`
	Units      string           `json:"units,omitempty" yaml:"units,omitempty"`
	Profiles   []ScoringProfile `json:"scoringProfiles" yaml:"scoringProfiles"`
}

// ProfileFor returns the scoring profile for the given tier.
func (m *Metric) ProfileFor(tier Tier) (*ScoringProfile, bool) {
	for i := range m.Profiles {
		if m.Profiles[i].Tier == tier {
			return &m.Profiles[i], true
		}
	}
	return nil, false
}

// Function is an ecological process owning many metrics.
type Function struct {
	ID       string `json:"functionId" yaml:"functionId"`
	Category string `json:"category,omitempty" yaml:"category,omitempty"`
	Name     string `json:"name,omitempty" yaml:"name,omitempty"`
}

// OutcomeMapping records per function how it affects each outcome.
type OutcomeMapping struct {
	FunctionID string      `json:"functionId" yaml:"functionId"`
	Physical   OutcomeCode `json:"physical,omitempty" yaml:"physical,omitempty"`
	Chemical   OutcomeCode `json:"chemical,omitempty" yaml:"chemical,omitempty"`
	Biological OutcomeCode `json:"biological,omitempty" yaml:"biological,omitempty"`
}

// Code returns the mapping code for an outcome.
func (m OutcomeMapping) Code(o Outcome) OutcomeCode {
	switch o {
	case PhysicalOutcome:
		return m.Physical
	case ChemicalOutcome:
		return m.Chemical
	case BiologicalOutcome:
		return m.Biological
	default:
		return NoCode
	}
}

// RatingLevel is one ordinal label of a rating scale. Index overrides the ordinal position.
type RatingLevel struct {
	Label string   `json:"label" yaml:"label"`
	Index *float64 `json:"index,omitempty" yaml:"index,omitempty"`
}

// RatingScale is an ordered label list, best condition first.
type RatingScale struct {
	ID     string        `json:"id" yaml:"id"`
	Levels []RatingLevel `json:"levels" yaml:"levels"`
}

// Catalog bundles every externally-owned reference record the core consumes.
type Catalog struct {
	Name            string           `json:"name,omitempty" yaml:"name,omitempty"`
	Metrics         []Metric         `json:"metrics" yaml:"metrics"`
	Functions       []Function       `json:"functions" yaml:"functions"`
	OutcomeMappings []OutcomeMapping `json:"outcomeMappings" yaml:"outcomeMappings"`
	RatingScales    []RatingScale    `json:"ratingScales,omitempty" yaml:"ratingScales,omitempty"`
	Curves          []Curve          `json:"curves,omitempty" yaml:"curves,omitempty"`

	metricIdx   map[string]int
	functionIdx map[string]int
}

// Index builds the lookup tables. It must be called after the catalog is loaded and before scoring.
func (c *Catalog) Index() error {
	c.metricIdx = make(map[string]int, len(c.Metrics))
	for i, m := range c.Metrics {
		if _, dup := c.metricIdx[m.ID]; dup {
			return &InvariantViolation{Subject: "metric " + m.ID, Rule: "duplicate metric id"}
		}
		c.metricIdx[m.ID] = i
	}
	c.functionIdx = make(map[string]int, len(c.Functions))
	for i, f := range c.Functions {
		if _, dup := c.functionIdx[f.ID]; dup {
			return &InvariantViolation{Subject: "function " + f.ID, Rule: "duplicate function id"}
		}
		c.functionIdx[f.ID] = i
	}
	return nil
}

// Metric looks up a metric by id.
func (c *Catalog) Metric(id string) (*Metric, bool) {
	if c.metricIdx == nil {
		for i := range c.Metrics {
			if c.Metrics[i].ID == id {
				return &c.Metrics[i], true
			}
		}
		return nil, false
	}
	i, ok := c.metricIdx[id]
	if !ok {
		return nil, false
	}
	return &c.Metrics[i], true
}

// Function looks up a function by id.
func (c *Catalog) Function(id string) (*Function, bool) {
	if c.functionIdx == nil {
		for i := range c.Functions {
			if c.Functions[i].ID == id {
				return &c.Functions[i], true
			}
		}
		return nil, false
	}
	i, ok := c.functionIdx[id]
	if !ok {
		return nil, false
	}
	return &c.Functions[i], true
}

// CurveMap returns curve sets keyed by id.
func (c *Catalog) CurveMap() map[string]*Curve {
	out := make(map[string]*Curve, len(c.Curves))
	for i := range c.Curves {
		out[c.Curves[i].ID] = &c.Curves[i]
	}
	return out
}

// ScaleMap returns rating scales keyed by id.
func (c *Catalog) ScaleMap() map[string]RatingScale {
	out := make(map[string]RatingScale, len(c.RatingScales))
	for _, s := range c.RatingScales {
		out[s.ID] = s
	}
	return out
}

// MappingMap returns outcome mappings keyed by function id.
func (c *Catalog) MappingMap() map[string]OutcomeMapping {
	out := make(map[string]OutcomeMapping, len(c.OutcomeMappings))
	for _, m := range c.OutcomeMappings {
		out[m.FunctionID] = m
	}
	return out
}

// MetricsForTier lists metrics that carry a profile for the tier.
func (c *Catalog) MetricsForTier(tier Tier) []Metric {
	var out []Metric
	for i := range c.Metrics {
		if _, ok := c.Metrics[i].ProfileFor(tier); ok {
			out = append(out, c.Metrics[i])
		}
	}
	return out
}

// String is a short summary used in log lines.
func (c *Catalog) String() string {
	return fmt.Sprintf("%d metrics, %d functions, %d curves", len(c.Metrics), len(c.Functions), len(c.Curves))
}
