package contract

import (
	"fmt"
	"maps"
	"math"
	"strconv"
	"strings"

	"github.com/huangsam/streamscore/schema"
)

// Default values for configuration.
const (
	DefaultPrecision        = 2
	MaxPrecision            = 4
	DefaultFunctioningIndex = 0.70
	DefaultAtRiskIndex      = 0.40
	DefaultListenAddr       = "127.0.0.1:8080"
)

// WeightsRawInput holds the outcome weights from the YAML config file.
type WeightsRawInput struct {
	Direct   *float64 `mapstructure:"direct"`
	Indirect *float64 `mapstructure:"indirect"`
}

// LabelsRawInput holds condition label cut points from the YAML config file.
type LabelsRawInput struct {
	Functioning *float64 `mapstructure:"functioning"`
	AtRisk      *float64 `mapstructure:"at_risk"`
}

// Config holds the runtime configuration.
// This struct is the "final, validated" config.
type Config struct {
	CatalogPath  string
	ScenarioPath string // positional argument, when the command takes one
	ScenarioID   string
	Tier         schema.Tier
	Detail       bool
	Explain      bool
	Precision    int
	Output       schema.OutputMode
	OutputFile   string
	Width        int // Terminal width override (0 = auto-detect)
	Record       bool

	DirectWeight   float64
	IndirectWeight float64

	Labels ConditionThresholds

	// MinIndex gates the ecosystem index in the check command.
	MinIndex float64

	// MinSubIndices gates individual outcomes in the check command.
	MinSubIndices map[schema.Outcome]float64

	StoreBackend   schema.DatabaseBackend
	StoreDBConnect string // Please use env var as this is plaintext

	HistoryBackend   schema.DatabaseBackend
	HistoryDBConnect string // Please use env var as this is plaintext

	Listen string

	UseColors bool // Enable colored labels in table output
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// This is set manually from positional args, so no tag
	ScenarioPathStr string

	// --- Fields from rootCmd.PersistentFlags() ---
	Catalog          string `mapstructure:"catalog"`
	Tier             string `mapstructure:"tier"`
	OutputFile       string `mapstructure:"output-file"`
	Precision        int    `mapstructure:"precision"`
	Output           string `mapstructure:"output"`
	Detail           bool   `mapstructure:"detail"`
	Explain          bool   `mapstructure:"explain"`
	Width            int    `mapstructure:"width"`
	StoreBackend     string `mapstructure:"store-backend"`
	StoreDBConnect   string `mapstructure:"store-db-connect"`
	HistoryBackend   string `mapstructure:"history-backend"`
	HistoryDBConnect string `mapstructure:"history-db-connect"`
	Color            string `mapstructure:"color"`
	ScenarioID       string `mapstructure:"scenario-id"`

	// --- Fields from assessCmd.Flags() ---
	Record bool `mapstructure:"record"`

	// --- Fields from checkCmd.Flags() ---
	MinIndex       float64 `mapstructure:"min-index"`
	MinSubIndexStr string  `mapstructure:"min-sub-index"`

	// --- Fields from serveCmd.Flags() ---
	Listen string `mapstructure:"listen"`

	// --- Custom weights from config file ---
	Weights WeightsRawInput `mapstructure:"weights"`

	// --- Condition labels from config file ---
	Labels LabelsRawInput `mapstructure:"labels"`
}

// Clone returns a deep copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	if c.MinSubIndices != nil {
		clone.MinSubIndices = make(map[schema.Outcome]float64, len(c.MinSubIndices))
		maps.Copy(clone.MinSubIndices, c.MinSubIndices)
	}
	return &clone
}

// ConfigParams returns the settings recorded alongside an assessment run.
func (c *Config) ConfigParams() map[string]any {
	return map[string]any{
		"catalog":         c.CatalogPath,
		"tier":            string(c.Tier),
		"weight_direct":   c.DirectWeight,
		"weight_indirect": c.IndirectWeight,
	}
}

// ProcessAndValidate performs all parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := validateBackendConfigs(cfg, input); err != nil {
		return err
	}
	if err := processWeights(cfg, input); err != nil {
		return err
	}
	if err := processLabels(cfg, input); err != nil {
		return err
	}
	if err := processCheckThresholds(cfg, input); err != nil {
		return err
	}
	return nil
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// validateBackendConfigs validates scenario store and history backend configurations.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	// --- Scenario Store Validation ---
	cfg.StoreBackend = schema.DatabaseBackend(strings.ToLower(input.StoreBackend))
	if cfg.StoreBackend == "" {
		cfg.StoreBackend = schema.SQLiteBackend
	}
	if _, ok := schema.ValidDatabaseBackends[cfg.StoreBackend]; !ok {
		return fmt.Errorf("invalid store backend '%s'. must be sqlite, mysql, postgresql, none", input.StoreBackend)
	}
	cfg.StoreDBConnect = input.StoreDBConnect
	if err := ValidateDatabaseConnectionString(cfg.StoreBackend, cfg.StoreDBConnect); err != nil {
		return fmt.Errorf("store-db-connect: %w", err)
	}

	// --- History Backend Validation ---
	cfg.HistoryBackend = schema.DatabaseBackend(strings.ToLower(input.HistoryBackend))
	if cfg.HistoryBackend == "" {
		return nil
	}
	if _, ok := schema.ValidDatabaseBackends[cfg.HistoryBackend]; !ok {
		return fmt.Errorf("invalid history backend '%s'. must be sqlite, mysql, postgresql, none", input.HistoryBackend)
	}
	cfg.HistoryDBConnect = input.HistoryDBConnect
	if err := ValidateDatabaseConnectionString(cfg.HistoryBackend, cfg.HistoryDBConnect); err != nil {
		return fmt.Errorf("history-db-connect: %w", err)
	}

	// Scenario store and history must not share one SQLite file
	if cfg.StoreBackend == schema.SQLiteBackend && cfg.HistoryBackend == schema.SQLiteBackend {
		storePath := cfg.StoreDBConnect
		if storePath == "" {
			storePath = GetStoreDBFilePath()
		}
		historyPath := cfg.HistoryDBConnect
		if historyPath == "" {
			historyPath = GetHistoryDBFilePath()
		}
		if storePath == historyPath {
			return fmt.Errorf("scenario store and history must use different SQLite database files. Both resolve to %q", storePath)
		}
	}
	return nil
}

// validateSimpleInputs processes and validates all non-backend fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	// --- 0. Transfer simple non-validated fields from input -> cfg ---
	cfg.CatalogPath = strings.TrimSpace(input.Catalog)
	cfg.ScenarioPath = strings.TrimSpace(input.ScenarioPathStr)
	cfg.ScenarioID = strings.TrimSpace(input.ScenarioID)
	cfg.OutputFile = input.OutputFile
	cfg.Detail = input.Detail
	cfg.Explain = input.Explain
	cfg.Width = input.Width
	cfg.Record = input.Record

	cfg.Listen = input.Listen
	if cfg.Listen == "" {
		cfg.Listen = DefaultListenAddr
	}

	// Parse color flag
	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	// --- 1. Tier Validation ---
	cfg.Tier = schema.Tier(strings.ToLower(input.Tier))
	if cfg.Tier == "" {
		cfg.Tier = schema.DetailedTier
	}
	if _, ok := schema.ValidTiers[cfg.Tier]; !ok {
		return fmt.Errorf("invalid tier '%s'. must be screening, rapid, detailed", input.Tier)
	}

	// --- 2. Precision and Output Validation ---
	if input.Precision < 1 || input.Precision > MaxPrecision {
		return fmt.Errorf("precision must be between 1 and %d (received %d)", MaxPrecision, input.Precision)
	}
	cfg.Precision = input.Precision

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json, markdown, html", input.Output)
	}

	if input.Width < 0 {
		return fmt.Errorf("width cannot be negative (received %d)", input.Width)
	}
	return nil
}

// processWeights applies custom outcome weights over the 1.0 / 0.1 defaults.
func processWeights(cfg *Config, input *ConfigRawInput) error {
	cfg.DirectWeight = schema.DirectWeight
	cfg.IndirectWeight = schema.IndirectWeight
	if input.Weights.Direct != nil {
		cfg.DirectWeight = *input.Weights.Direct
	}
	if input.Weights.Indirect != nil {
		cfg.IndirectWeight = *input.Weights.Indirect
	}
	if cfg.DirectWeight <= 0 {
		return fmt.Errorf("weights.direct must be greater than 0 (received %.3f)", cfg.DirectWeight)
	}
	if cfg.IndirectWeight < 0 || cfg.IndirectWeight > cfg.DirectWeight {
		return fmt.Errorf("weights.indirect must be between 0 and weights.direct (received %.3f)", cfg.IndirectWeight)
	}
	return nil
}

// processLabels applies custom condition label cut points.
func processLabels(cfg *Config, input *ConfigRawInput) error {
	cfg.Labels = DefaultConditionThresholds()
	if input.Labels.Functioning != nil {
		cfg.Labels.Functioning = *input.Labels.Functioning
	}
	if input.Labels.AtRisk != nil {
		cfg.Labels.AtRisk = *input.Labels.AtRisk
	}
	if cfg.Labels.AtRisk < 0 || cfg.Labels.Functioning > 1 || cfg.Labels.AtRisk >= cfg.Labels.Functioning {
		return fmt.Errorf("labels must satisfy 0 <= at_risk < functioning <= 1 (received %.2f, %.2f)",
			cfg.Labels.AtRisk, cfg.Labels.Functioning)
	}
	return nil
}

// processCheckThresholds validates the minimum ecosystem index and parses per-outcome minimums.
func processCheckThresholds(cfg *Config, input *ConfigRawInput) error {
	if input.MinIndex < 0 || input.MinIndex > 1 {
		return fmt.Errorf("min-index must be between 0.0 and 1.0 (received %.2f)", input.MinIndex)
	}
	cfg.MinIndex = input.MinIndex

	subs, err := ParseSubIndexThresholds(input.MinSubIndexStr)
	if err != nil {
		return fmt.Errorf("invalid --min-sub-index format: %w", err)
	}
	cfg.MinSubIndices = subs
	return nil
}

// ParseSubIndexThresholds parses a string like "physical:0.5,biological:0.4"
// into a map of Outcome to minimum sub-index.
func ParseSubIndexThresholds(s string) (map[schema.Outcome]float64, error) {
	thresholds := make(map[schema.Outcome]float64)

	if s == "" {
		return thresholds, nil
	}

	for part := range strings.SplitSeq(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		keyValue := strings.Split(part, ":")
		if len(keyValue) != 2 {
			return nil, fmt.Errorf("invalid threshold format '%s', expected 'outcome:value'", part)
		}

		outcomeStr := strings.TrimSpace(keyValue[0])
		valueStr := strings.TrimSpace(keyValue[1])

		var outcome schema.Outcome
		switch strings.ToLower(outcomeStr) {
		case "physical":
			outcome = schema.PhysicalOutcome
		case "chemical":
			outcome = schema.ChemicalOutcome
		case "biological":
			outcome = schema.BiologicalOutcome
		default:
			return nil, fmt.Errorf("invalid outcome '%s', must be physical, chemical, or biological", outcomeStr)
		}

		value, err := strconv.ParseFloat(valueStr, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid threshold value '%s' for outcome %s: %w", valueStr, outcome, err)
		}
		if math.IsNaN(value) || value < 0 || value > 1 {
			return nil, fmt.Errorf("threshold for outcome %s must be between 0.0 and 1.0 (received %.2f)", outcome, value)
		}

		thresholds[outcome] = value
	}

	return thresholds, nil
}
