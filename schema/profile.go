package schema

// ScoringProfile is the tier-scoped scoring definition of a metric.
// Scoring is a tagged variant: Scoring.Type selects which rubric field is populated.
type ScoringProfile struct {
	Tier             Tier             `json:"tier" yaml:"tier"`
	Scoring          Scoring          `json:"scoring" yaml:"scoring"`
	CurveIntegration CurveIntegration `json:"curveIntegration,omitempty" yaml:"curveIntegration,omitempty"`
}

// Scoring holds exactly one rubric, selected by Type.
type Scoring struct {
	Type        ScoringType        `json:"type" yaml:"type"`
	Categorical *CategoricalRubric `json:"categorical,omitempty" yaml:"categorical,omitempty"`
	Thresholds  *ThresholdsRubric  `json:"thresholds,omitempty" yaml:"thresholds,omitempty"`
	Curve       *CurveRubric       `json:"curve,omitempty" yaml:"curve,omitempty"`
	Formula     *FormulaRubric     `json:"formula,omitempty" yaml:"formula,omitempty"`
	Binary      *BinaryRubric      `json:"binary,omitempty" yaml:"binary,omitempty"`
	Lookup      *LookupRubric      `json:"lookup,omitempty" yaml:"lookup,omitempty"`
}

// CurveIntegration records whether, and through which curve sets, a profile consults the curve model.
type CurveIntegration struct {
	Enabled     bool     `json:"enabled" yaml:"enabled"`
	CurveSetIDs []string `json:"curveSetIds,omitempty" yaml:"curveSetIds,omitempty"`
}

// CategoricalLevel is one selectable level of a categorical rubric.
type CategoricalLevel struct {
	ID     string `json:"id" yaml:"id"`
	Label  string `json:"label" yaml:"label"`
	Rating string `json:"rating,omitempty" yaml:"rating,omitempty"` // label on the rating scale
	CurveX string `json:"curveX,omitempty" yaml:"curveX,omitempty"` // token passed to a categorical curve
}

// CategoricalRubric scores an observation by the level it selects.
type CategoricalRubric struct {
	RatingScale string             `json:"ratingScale,omitempty" yaml:"ratingScale,omitempty"`
	Levels      []CategoricalLevel `json:"levels" yaml:"levels"`
}

// ThresholdBand covers the half-open range [Min, Max). Nil bounds are unbounded.
type ThresholdBand struct {
	Label  string   `json:"label,omitempty" yaml:"label,omitempty"`
	Min    *float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max    *float64 `json:"max,omitempty" yaml:"max,omitempty"`
	Rating string   `json:"rating,omitempty" yaml:"rating,omitempty"`
	Index  *float64 `json:"index,omitempty" yaml:"index,omitempty"`
}

// Contains reports whether v falls in [Min, Max).
func (b ThresholdBand) Contains(v float64) bool {
	if b.Min != nil && v < *b.Min {
		return false
	}
	if b.Max != nil && v >= *b.Max {
		return false
	}
	return true
}

// ThresholdsRubric scores a numeric observation by the band containing it.
type ThresholdsRubric struct {
	RatingScale string             `json:"ratingScale,omitempty" yaml:"ratingScale,omitempty"`
	Direction   ThresholdDirection `json:"direction,omitempty" yaml:"direction,omitempty"`
	Bands       []ThresholdBand    `json:"bands" yaml:"bands"`
}

// CurveRubric passes an observation straight to the curve model.
// With several curve sets referenced, DefaultSet is used unless the scenario picks another.
type CurveRubric struct {
	CurveSetIDs []string `json:"curveSetIds" yaml:"curveSetIds"`
	DefaultSet  string   `json:"defaultSet,omitempty" yaml:"defaultSet,omitempty"`
	LayerID     string   `json:"layerId,omitempty" yaml:"layerId,omitempty"`
}

// OutputMapping maps a raw formula result onto [0,1].
type OutputMapping struct {
	Type    OutputMappingType `json:"type" yaml:"type"`
	Min     float64           `json:"min,omitempty" yaml:"min,omitempty"`
	Max     float64           `json:"max,omitempty" yaml:"max,omitempty"`
	CurveID string            `json:"curveId,omitempty" yaml:"curveId,omitempty"`
	Bands   []ThresholdBand   `json:"bands,omitempty" yaml:"bands,omitempty"`
}

// FormulaRubric evaluates an arithmetic expression over observed variables.
type FormulaRubric struct {
	Expression string             `json:"expression" yaml:"expression"`
	Variables  []string           `json:"variables,omitempty" yaml:"variables,omitempty"`
	Defaults   map[string]float64 `json:"defaults,omitempty" yaml:"defaults,omitempty"`
	Output     *OutputMapping     `json:"output,omitempty" yaml:"output,omitempty"`
}

// BinaryRubric maps a truthy observation to one of two fixed outputs.
type BinaryRubric struct {
	TrueLabel  string   `json:"trueLabel,omitempty" yaml:"trueLabel,omitempty"`
	FalseLabel string   `json:"falseLabel,omitempty" yaml:"falseLabel,omitempty"`
	TrueIndex  *float64 `json:"trueIndex,omitempty" yaml:"trueIndex,omitempty"`
	FalseIndex *float64 `json:"falseIndex,omitempty" yaml:"falseIndex,omitempty"`
}

// LookupEntry is one row of a lookup table.
type LookupEntry struct {
	Input  string  `json:"input" yaml:"input"`
	Output float64 `json:"output" yaml:"output"`
	Label  string  `json:"label,omitempty" yaml:"label,omitempty"`
}

// LookupRubric matches observations by exact string equality.
type LookupRubric struct {
	Table []LookupEntry `json:"table" yaml:"table"`
}

// Explanation records which rule, band or point produced a profile score.
type Explanation struct {
	Type   ScoringType `json:"type"`
	Rule   string      `json:"rule,omitempty"`
	Detail string      `json:"detail,omitempty"`
	Curve  *CurveMatch `json:"curve,omitempty"`
}

// ProfileResult is the outcome of evaluating a scoring profile. A nil Score means unscored.
type ProfileResult struct {
	Score   *float64    `json:"score"`
	Matched Explanation `json:"matched"`
}

// Scored reports whether the result carries a score.
func (r ProfileResult) Scored() bool {
	return r.Score != nil
}
