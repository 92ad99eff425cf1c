// Package outwriter renders assessments, comparisons and catalog listings as text tables, CSV, JSON, Markdown or HTML.
package outwriter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/huangsam/streamscore/internal/contract"
	"github.com/huangsam/streamscore/schema"
)

// writeWithFile handles the common pattern of opening a file, writing to it, and cleaning up.
// It accepts a writer function that takes an io.Writer and returns an error.
func writeWithFile(outputFile string, writer func(io.Writer) error, successMsg string) error {
	file, err := contract.SelectOutputFile(outputFile)
	if err != nil {
		return err
	}
	// Only close if it's not stdout
	if file != os.Stdout {
		defer func() { _ = file.Close() }()
	}

	if err := writer(file); err != nil {
		return err
	}

	if file != os.Stdout {
		_, _ = fmt.Fprintf(os.Stderr, "💾 %s to %s\n", successMsg, outputFile)
	}
	return nil
}

// writeJSON is a generic JSON encoder that handles indentation consistently.
func writeJSON(w io.Writer, data any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// writeCSVWithHeader handles the common pattern of creating a CSV writer,
// writing a header, and writing data rows.
func writeCSVWithHeader(w io.Writer, header []string, writeRows func(*csv.Writer) error) error {
	csvWriter := csv.NewWriter(w)
	defer csvWriter.Flush()

	if err := csvWriter.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	if err := writeRows(csvWriter); err != nil {
		return err
	}

	csvWriter.Flush()
	return csvWriter.Error()
}

// createFormatters creates the common formatter closures used across multiple output types.
// fmtScore renders a nil score with the unscored marker.
func createFormatters(precision int) (fmtFloat func(float64) string, fmtScore func(*float64) string) {
	fmtFloat = func(v float64) string {
		return fmt.Sprintf("%.*f", precision, v)
	}
	fmtScore = func(v *float64) string {
		if v == nil {
			return schema.UnscoredMarker
		}
		return fmtFloat(*v)
	}
	return fmtFloat, fmtScore
}

// indexLabel labels an optional index score.
func indexLabel(score *float64, t contract.ConditionThresholds, useColor bool) string {
	if score == nil {
		if useColor {
			return contract.UnscoredColor.Sprint(contract.UnscoredValue)
		}
		return contract.UnscoredValue
	}
	if useColor {
		return contract.GetColorLabel(*score, t)
	}
	return contract.GetPlainLabel(*score, t)
}

// successMessage names what was written for the stderr confirmation.
func successMessage(mode schema.OutputMode) string {
	switch mode {
	case schema.JSONOut:
		return "Wrote JSON"
	case schema.CSVOut:
		return "Wrote CSV"
	case schema.MarkdownOut:
		return "Wrote Markdown"
	case schema.HTMLOut:
		return "Wrote HTML"
	default:
		return "Wrote table"
	}
}
