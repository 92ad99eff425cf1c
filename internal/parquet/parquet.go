// Package parquet provides data structures and functions for exporting streamscore
// assessment history to Parquet files using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"os"
	"time"

	"github.com/huangsam/streamscore/schema"
	"github.com/parquet-go/parquet-go"
)

// AssessmentRun is one recorded assessment of a scenario.
// This struct maps to the streamscore_assessment_runs database table.
type AssessmentRun struct {
	// RunID is the unique identifier for this run
	RunID int64 `parquet:"run_id,snappy"`

	// ScenarioID identifies the assessed scenario
	ScenarioID string `parquet:"scenario_id,snappy"`

	// Tier is the assessment tier the scenario was scored at
	Tier string `parquet:"tier,snappy"`

	// RunTime is when the assessment ran (stored as TIMESTAMP with nanosecond precision)
	RunTime time.Time `parquet:"run_time,snappy"`

	// MetricCount is the number of selected metrics
	MetricCount int32 `parquet:"metric_count,snappy"`

	// ScoredMetrics is the number of metrics that produced a score
	ScoredMetrics int32 `parquet:"scored_metrics,snappy"`

	// EcosystemIndex is the mean of the three outcome sub-indices
	EcosystemIndex float64 `parquet:"ecosystem_index,snappy"`

	// ConfigParams contains the JSON-encoded configuration parameters (nullable)
	ConfigParams *string `parquet:"config_params,optional,snappy"`
}

// FunctionScore is the condition of one function in a run.
// This struct maps to the streamscore_function_scores database table.
type FunctionScore struct {
	RunID        int64   `parquet:"run_id,snappy"`
	FunctionID   string  `parquet:"function_id,snappy"`
	Score        float64 `parquet:"score,snappy"`
	Scored       bool    `parquet:"scored,snappy"`
	Contributing int32   `parquet:"contributing,snappy"`
}

// OutcomeScore holds the rollup totals of one outcome in a run.
// This struct maps to the streamscore_outcome_scores database table.
type OutcomeScore struct {
	RunID       int64   `parquet:"run_id,snappy"`
	Outcome     string  `parquet:"outcome,snappy"`
	Direct      int32   `parquet:"direct,snappy"`
	Indirect    int32   `parquet:"indirect,snappy"`
	Weighted    float64 `parquet:"weighted,snappy"`
	MaxWeighted float64 `parquet:"max_weighted,snappy"`
	SubIndex    float64 `parquet:"sub_index,snappy"`
}

// WriteAssessmentRunsParquet writes assessment runs to a Parquet file.
func WriteAssessmentRunsParquet(data []AssessmentRun, outputPath string) error {
	return writeParquet(data, outputPath)
}

// WriteFunctionScoresParquet writes function scores to a Parquet file.
func WriteFunctionScoresParquet(data []FunctionScore, outputPath string) error {
	return writeParquet(data, outputPath)
}

// WriteOutcomeScoresParquet writes outcome scores to a Parquet file.
func WriteOutcomeScoresParquet(data []OutcomeScore, outputPath string) error {
	return writeParquet(data, outputPath)
}

// writeParquet writes rows with a schema inferred from the struct tags of T.
func writeParquet[T any](data []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := parquet.NewGenericWriter[T](file)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}

// ConvertAssessmentRunRecords converts store records for Parquet export.
func ConvertAssessmentRunRecords(records []schema.AssessmentRunRecord) []AssessmentRun {
	result := make([]AssessmentRun, len(records))
	for i, record := range records {
		result[i] = AssessmentRun{
			RunID:          record.RunID,
			ScenarioID:     record.ScenarioID,
			Tier:           record.Tier,
			RunTime:        record.RunTime,
			MetricCount:    record.MetricCount,
			ScoredMetrics:  record.ScoredMetrics,
			EcosystemIndex: record.EcosystemIndex,
			ConfigParams:   record.ConfigParams,
		}
	}
	return result
}

// ConvertFunctionScoreRecords converts store records for Parquet export.
func ConvertFunctionScoreRecords(records []schema.FunctionScoreRecord) []FunctionScore {
	result := make([]FunctionScore, len(records))
	for i, record := range records {
		result[i] = FunctionScore(record)
	}
	return result
}

// ConvertOutcomeScoreRecords converts store records for Parquet export.
func ConvertOutcomeScoreRecords(records []schema.OutcomeScoreRecord) []OutcomeScore {
	result := make([]OutcomeScore, len(records))
	for i, record := range records {
		result[i] = OutcomeScore(record)
	}
	return result
}
