package iocache

import (
	"errors"
	"fmt"
	"io"

	"github.com/huangsam/streamscore/internal/contract"
	"github.com/huangsam/streamscore/internal/parquet"
)

// ExportHistory writes every recorded run to three Parquet files named after outputFile.
func ExportHistory(w io.Writer, store contract.HistoryStore, outputFile string) error {
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}
	if store == nil {
		return errors.New("history is disabled (set --history-backend)")
	}

	status, err := store.GetStatus()
	if err != nil {
		return fmt.Errorf("failed to get history status: %w", err)
	}
	if status.TotalRuns == 0 {
		return errors.New("no assessment history found to export")
	}

	_, _ = fmt.Fprintf(w, "Exporting data from %s backend...\n", status.Backend)
	_, _ = fmt.Fprintf(w, "Total assessment runs: %d\n", status.TotalRuns)

	runs, err := store.GetAllAssessmentRuns()
	if err != nil {
		return fmt.Errorf("failed to retrieve assessment runs: %w", err)
	}
	functions, err := store.GetAllFunctionScores()
	if err != nil {
		return fmt.Errorf("failed to retrieve function scores: %w", err)
	}
	outcomes, err := store.GetAllOutcomeScores()
	if err != nil {
		return fmt.Errorf("failed to retrieve outcome scores: %w", err)
	}

	runsFile := outputFile + ".assessment_runs.parquet"
	if err := parquet.WriteAssessmentRunsParquet(parquet.ConvertAssessmentRunRecords(runs), runsFile); err != nil {
		return fmt.Errorf("failed to write assessment runs: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d assessment runs to: %s\n", len(runs), runsFile)

	functionsFile := outputFile + ".function_scores.parquet"
	if err := parquet.WriteFunctionScoresParquet(parquet.ConvertFunctionScoreRecords(functions), functionsFile); err != nil {
		return fmt.Errorf("failed to write function scores: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d function score records to: %s\n", len(functions), functionsFile)

	outcomesFile := outputFile + ".outcome_scores.parquet"
	if err := parquet.WriteOutcomeScoresParquet(parquet.ConvertOutcomeScoreRecords(outcomes), outcomesFile); err != nil {
		return fmt.Errorf("failed to write outcome scores: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d outcome score records to: %s\n", len(outcomes), outcomesFile)
	return nil
}
