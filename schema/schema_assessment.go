package schema

// MetricScore is the index score of one selected metric. A nil Score means unscored.
type MetricScore struct {
	MetricID    string      `json:"metricId"`
	FunctionID  string      `json:"functionId"`
	Observation Observation `json:"observation"`
	Score       *float64    `json:"score"`
	Matched     Explanation `json:"matched"`
}

// FunctionResult is the aggregated condition of one function.
// Scored is false when no selected metric contributed, which renders distinctly from a true zero.
type FunctionResult struct {
	FunctionID   string  `json:"functionId"`
	Name         string  `json:"name,omitempty"`
	Category     string  `json:"category,omitempty"`
	Score        float64 `json:"score"`
	Scored       bool    `json:"scored"`
	Contributing int     `json:"contributing"`
	Excluded     int     `json:"excluded"`
}

// OutcomeTotals holds the auditable intermediate values of one outcome sub-index.
type OutcomeTotals struct {
	Direct      int     `json:"direct"`
	Indirect    int     `json:"indirect"`
	Weighted    float64 `json:"weighted"`
	MaxWeighted float64 `json:"maxWeighted"`
	SubIndex    float64 `json:"subIndex"`
}

// RollupResult is the outcome rollup plus the ecosystem condition index.
type RollupResult struct {
	Physical       OutcomeTotals `json:"physical"`
	Chemical       OutcomeTotals `json:"chemical"`
	Biological     OutcomeTotals `json:"biological"`
	EcosystemIndex float64       `json:"ecosystemIndex"`
}

// Outcome returns the totals for an outcome.
func (r *RollupResult) Outcome(o Outcome) *OutcomeTotals {
	switch o {
	case PhysicalOutcome:
		return &r.Physical
	case ChemicalOutcome:
		return &r.Chemical
	case BiologicalOutcome:
		return &r.Biological
	default:
		return nil
	}
}

// Assessment is the full computed state of a scenario.
type Assessment struct {
	ScenarioID string           `json:"scenarioId"`
	Name       string           `json:"name,omitempty"`
	Tier       Tier             `json:"tier"`
	Metrics    []MetricScore    `json:"metrics"`
	Functions  []FunctionResult `json:"functions"`
	Rollup     RollupResult     `json:"rollup"`
}

// FunctionByID returns the function result with the given id.
func (a *Assessment) FunctionByID(id string) (*FunctionResult, bool) {
	for i := range a.Functions {
		if a.Functions[i].FunctionID == id {
			return &a.Functions[i], true
		}
	}
	return nil, false
}

// Unscored lists functions with no contributing metric.
func (a *Assessment) Unscored() []string {
	var out []string
	for _, f := range a.Functions {
		if !f.Scored {
			out = append(out, f.FunctionID)
		}
	}
	return out
}

// MetricChange records a metric index score before and after a mutation.
type MetricChange struct {
	MetricID string   `json:"metricId"`
	Before   *float64 `json:"before"`
	After    *float64 `json:"after"`
}

// FunctionChange records a function score before and after a mutation.
type FunctionChange struct {
	FunctionID   string  `json:"functionId"`
	Before       float64 `json:"before"`
	After        float64 `json:"after"`
	BeforeScored bool    `json:"beforeScored"`
	AfterScored  bool    `json:"afterScored"`
}

// OutcomeChange records an outcome sub-index before and after a mutation.
type OutcomeChange struct {
	Outcome Outcome `json:"outcome"`
	Before  float64 `json:"before"`
	After   float64 `json:"after"`
}

// ChangeSummary lists what a scenario mutation changed so callers can re-render incrementally.
type ChangeSummary struct {
	Metrics         []MetricChange   `json:"metrics,omitempty"`
	Functions       []FunctionChange `json:"functions,omitempty"`
	Outcomes        []OutcomeChange  `json:"outcomes,omitempty"`
	EcosystemBefore float64          `json:"ecosystemBefore"`
	EcosystemAfter  float64          `json:"ecosystemAfter"`
	Unscored        []string         `json:"unscored,omitempty"` // functions unscored after the change
}

// Empty reports whether nothing changed.
func (c ChangeSummary) Empty() bool {
	return len(c.Metrics) == 0 && len(c.Functions) == 0 && len(c.Outcomes) == 0 &&
		c.EcosystemBefore == c.EcosystemAfter
}

// CheckResult is the outcome of gating a scenario against minimum indices.
type CheckResult struct {
	ScenarioID     string              `json:"scenarioId"`
	Passed         bool                `json:"passed"`
	EcosystemIndex float64             `json:"ecosystemIndex"`
	MinIndex       float64             `json:"minIndex"`
	SubIndices     map[Outcome]float64 `json:"subIndices"`
	Failures       []string            `json:"failures,omitempty"`
}
