package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/huangsam/streamscore/internal/contract"
	"github.com/huangsam/streamscore/schema"
)

// WriteAssessment outputs an assessment, dispatching based on the output format configured.
func WriteAssessment(w io.Writer, a schema.Assessment, cfg *contract.Config, duration time.Duration) error {
	switch cfg.Output {
	case schema.JSONOut:
		if err := writeJSONAssessment(w, a, cfg); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeCSVAssessment(w, a, cfg); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.MarkdownOut, schema.HTMLOut:
		return writeDocument(w, assessmentDocument(a, cfg, false, duration), cfg.Output == schema.HTMLOut)
	default:
		return writeTextDocument(w, assessmentDocument(a, cfg, cfg.UseColors, duration))
	}
	return nil
}

// PrintAssessment writes an assessment to stdout or the configured output file.
func PrintAssessment(a schema.Assessment, cfg *contract.Config, duration time.Duration) error {
	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		return WriteAssessment(w, a, cfg, duration)
	}, successMessage(cfg.Output))
}

// assessmentDocument lays out metrics, functions and outcomes.
func assessmentDocument(a schema.Assessment, cfg *contract.Config, useColor bool, duration time.Duration) document {
	fmtFloat, fmtScore := createFormatters(cfg.Precision)
	textWidth := getMaxTableTextWidth(cfg)

	title := "Assessment " + a.ScenarioID
	if a.Name != "" {
		title = "Assessment: " + a.Name
	}
	doc := document{
		title: title,
		preamble: []string{
			fmt.Sprintf("Scenario: %s", a.ScenarioID),
			fmt.Sprintf("Tier: %s", a.Tier),
		},
	}

	// Metrics
	metrics := section{title: "Metrics", headers: []string{"Metric", "Function", "Observation", "Index", "Label"}}
	if cfg.Explain {
		metrics.headers = append(metrics.headers, "Matched")
	}
	for _, m := range a.Metrics {
		row := []string{
			m.MetricID,
			m.FunctionID,
			contract.TruncateText(m.Observation.String(), textWidth),
			fmtScore(m.Score),
			indexLabel(m.Score, cfg.Labels, useColor),
		}
		if cfg.Explain {
			row = append(row, contract.TruncateText(formatExplanation(m.Matched, fmtFloat), textWidth))
		}
		metrics.rows = append(metrics.rows, row)
	}

	// Functions
	functions := section{title: "Functions", headers: []string{"Function", "Name", "Score", "Label"}}
	if cfg.Detail {
		functions.headers = append(functions.headers, "Metrics", "Excluded")
	}
	for _, f := range a.Functions {
		score := schema.UnscoredMarker
		if f.Scored {
			score = fmtFloat(f.Score)
		}
		row := []string{f.FunctionID, f.Name, score, contract.FunctionLabel(f, cfg.Labels, useColor)}
		if cfg.Detail {
			row = append(row, strconv.Itoa(f.Contributing), strconv.Itoa(f.Excluded))
		}
		functions.rows = append(functions.rows, row)
	}

	// Outcomes
	outcomes := section{title: "Outcomes", headers: []string{"Outcome", "Direct", "Indirect", "Sub-index", "Label"}}
	if cfg.Detail {
		outcomes.headers = append(outcomes.headers, "Weighted", "Max Weighted")
	}
	for _, o := range schema.AllOutcomes {
		t := a.Rollup.Outcome(o)
		row := []string{
			string(o),
			strconv.Itoa(t.Direct),
			strconv.Itoa(t.Indirect),
			fmtFloat(t.SubIndex),
			indexLabel(&t.SubIndex, cfg.Labels, useColor),
		}
		if cfg.Detail {
			row = append(row, fmtFloat(t.Weighted), fmtFloat(t.MaxWeighted))
		}
		outcomes.rows = append(outcomes.rows, row)
	}

	doc.sections = []section{metrics, functions, outcomes}

	index := a.Rollup.EcosystemIndex
	doc.footer = append(doc.footer, fmt.Sprintf("Ecosystem Condition Index: %s (%s)", fmtFloat(index), indexLabel(&index, cfg.Labels, useColor)))
	if unscored := a.Unscored(); len(unscored) > 0 {
		doc.footer = append(doc.footer, fmt.Sprintf("Unscored functions: %v", unscored))
	}
	if duration > 0 {
		doc.footer = append(doc.footer, fmt.Sprintf("Assessment completed in %v. Scenario store: %s", duration, cfg.StoreBackend))
	}
	return doc
}

// formatExplanation summarizes which rule produced a score.
func formatExplanation(e schema.Explanation, fmtFloat func(float64) string) string {
	out := string(e.Type)
	if e.Rule != "" {
		out += ": " + e.Rule
	}
	if e.Curve != nil {
		out += fmt.Sprintf(" [curve %s/%s", e.Curve.CurveID, e.Curve.LayerID)
		if e.Curve.Clamped {
			out += " clamped"
		}
		out += " -> " + fmtFloat(e.Curve.Score) + "]"
	}
	if e.Detail != "" {
		out += " (" + e.Detail + ")"
	}
	return out
}

// writeJSONAssessment writes the assessment with plain condition labels added.
func writeJSONAssessment(w io.Writer, a schema.Assessment, cfg *contract.Config) error {
	type JSONAssessment struct {
		schema.Assessment
		Condition      string            `json:"condition"`
		FunctionLabels map[string]string `json:"functionLabels"`
		ScoredMetrics  int               `json:"scoredMetrics"`
	}

	labels := make(map[string]string, len(a.Functions))
	scored := 0
	for _, f := range a.Functions {
		labels[f.FunctionID] = contract.FunctionLabel(f, cfg.Labels, false)
	}
	for _, m := range a.Metrics {
		if m.Score != nil {
			scored++
		}
	}
	return writeJSON(w, JSONAssessment{
		Assessment:     a,
		Condition:      contract.GetPlainLabel(a.Rollup.EcosystemIndex, cfg.Labels),
		FunctionLabels: labels,
		ScoredMetrics:  scored,
	})
}

// writeCSVAssessment writes one row per metric, function, outcome and the ecosystem index.
func writeCSVAssessment(w io.Writer, a schema.Assessment, cfg *contract.Config) error {
	fmtFloat, fmtScore := createFormatters(cfg.Precision)
	header := []string{"level", "id", "parent", "observation", "score", "scored", "label"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, m := range a.Metrics {
			rec := []string{
				"metric",
				m.MetricID,
				m.FunctionID,
				m.Observation.String(),
				fmtScore(m.Score),
				strconv.FormatBool(m.Score != nil),
				indexLabel(m.Score, cfg.Labels, false),
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		for _, f := range a.Functions {
			rec := []string{
				"function",
				f.FunctionID,
				f.Category,
				"",
				fmtFloat(f.Score),
				strconv.FormatBool(f.Scored),
				contract.FunctionLabel(f, cfg.Labels, false),
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		for _, o := range schema.AllOutcomes {
			t := a.Rollup.Outcome(o)
			rec := []string{"outcome", string(o), "", "", fmtFloat(t.SubIndex), "true", contract.GetPlainLabel(t.SubIndex, cfg.Labels)}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		index := a.Rollup.EcosystemIndex
		return cw.Write([]string{"ecosystem", a.ScenarioID, "", "", fmtFloat(index), "true", contract.GetPlainLabel(index, cfg.Labels)})
	})
}
