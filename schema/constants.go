package schema

// Custom string types for type safety.
type (
	// Tier represents the assessment effort tier a scoring profile belongs to.
	Tier string

	// ScoringType represents the rubric variant held by a scoring profile.
	ScoringType string

	// DomainType represents whether a metric or curve is numeric or categorical.
	DomainType string

	// Outcome represents one of the regulatory outcome categories.
	Outcome string

	// OutcomeCode represents how strongly a function affects an outcome.
	OutcomeCode string

	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend for persistence.
	DatabaseBackend string

	// ThresholdDirection represents which end of a thresholds rubric is the better condition.
	ThresholdDirection string

	// OutputMappingType represents how a formula result is mapped onto an index score.
	OutputMappingType string
)

// All assessment tiers supported.
const (
	ScreeningTier Tier = "screening"
	RapidTier     Tier = "rapid"
	DetailedTier  Tier = "detailed" // default
)

// All scoring types supported.
const (
	CategoricalScoring ScoringType = "categorical"
	ThresholdsScoring  ScoringType = "thresholds"
	CurveScoring       ScoringType = "curve"
	FormulaScoring     ScoringType = "formula"
	BinaryScoring      ScoringType = "binary"
	LookupScoring      ScoringType = "lookup"
)

// All domain types supported.
const (
	QuantitativeDomain DomainType = "quantitative"
	CategoricalDomain  DomainType = "categorical"
)

// All outcomes, in reporting order.
const (
	PhysicalOutcome   Outcome = "physical"
	ChemicalOutcome   Outcome = "chemical"
	BiologicalOutcome Outcome = "biological"
)

// Outcome mapping codes.
const (
	DirectCode   OutcomeCode = "D"
	IndirectCode OutcomeCode = "i"
	NoCode       OutcomeCode = ""
)

// Default outcome weights and the ceiling of a function score.
const (
	DirectWeight     = 1.0
	IndirectWeight   = 0.1
	MaxFunctionScore = 15.0
)

// All output modes supported.
const (
	CSVOut      OutputMode = "csv"
	TextOut     OutputMode = "text" // default
	JSONOut     OutputMode = "json"
	MarkdownOut OutputMode = "markdown"
	HTMLOut     OutputMode = "html"
)

// All persistence backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// Threshold directions.
const (
	Increasing ThresholdDirection = "increasing" // default: later bands score higher
	Decreasing ThresholdDirection = "decreasing"
)

// Formula output mappings.
const (
	LinearMapping OutputMappingType = "linear"
	CurveMapping  OutputMappingType = "curve"
	BandsMapping  OutputMappingType = "bands"
)

// UnscoredMarker is rendered in place of a score that could not be computed.
const UnscoredMarker = "-"

// AllOutcomes returns the outcomes in reporting order.
var AllOutcomes = []Outcome{PhysicalOutcome, ChemicalOutcome, BiologicalOutcome}

// AllTiers lists the tiers from least to most effort.
var AllTiers = []Tier{ScreeningTier, RapidTier, DetailedTier}

// ValidTiers lists all valid tiers.
var ValidTiers = map[Tier]struct{}{
	ScreeningTier: {},
	RapidTier:     {},
	DetailedTier:  {},
}

// ValidScoringTypes lists all valid scoring types.
var ValidScoringTypes = map[ScoringType]struct{}{
	CategoricalScoring: {},
	ThresholdsScoring:  {},
	CurveScoring:       {},
	FormulaScoring:     {},
	BinaryScoring:      {},
	LookupScoring:      {},
}

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	CSVOut:      {},
	TextOut:     {},
	JSONOut:     {},
	MarkdownOut: {},
	HTMLOut:     {},
}

// ValidDatabaseBackends lists all valid persistence backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// ConsultsCurve reports whether a scoring type may delegate to the curve model.
func (t ScoringType) ConsultsCurve() bool {
	switch t {
	case CategoricalScoring, CurveScoring, FormulaScoring:
		return true
	default:
		return false
	}
}
