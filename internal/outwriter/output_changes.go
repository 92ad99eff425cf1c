package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/huangsam/streamscore/internal/contract"
	"github.com/huangsam/streamscore/schema"
)

// WriteChanges outputs a change summary, dispatching based on the output format configured.
// title names what was compared or mutated.
func WriteChanges(w io.Writer, title string, cs schema.ChangeSummary, cfg *contract.Config, duration time.Duration) error {
	switch cfg.Output {
	case schema.JSONOut:
		if err := writeJSON(w, cs); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeCSVChanges(w, cs, cfg); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.MarkdownOut, schema.HTMLOut:
		return writeDocument(w, changesDocument(title, cs, cfg, false, duration), cfg.Output == schema.HTMLOut)
	default:
		return writeTextDocument(w, changesDocument(title, cs, cfg, cfg.UseColors, duration))
	}
	return nil
}

// PrintChanges writes a change summary to stdout or the configured output file.
func PrintChanges(title string, cs schema.ChangeSummary, cfg *contract.Config, duration time.Duration) error {
	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		return WriteChanges(w, title, cs, cfg, duration)
	}, successMessage(cfg.Output))
}

// changesDocument lays out what moved between two assessments.
func changesDocument(title string, cs schema.ChangeSummary, cfg *contract.Config, useColor bool, duration time.Duration) document {
	fmtFloat, fmtScore := createFormatters(cfg.Precision)
	delta := deltaFormatter(cfg.Precision, useColor)

	doc := document{title: title}
	if cs.Empty() {
		doc.preamble = append(doc.preamble, "No changes.")
	}

	metrics := section{title: "Metric changes", headers: []string{"Metric", "Before", "After", "Delta"}}
	for _, m := range cs.Metrics {
		d := schema.UnscoredMarker
		if m.Before != nil && m.After != nil {
			d = delta(*m.After - *m.Before)
		}
		metrics.rows = append(metrics.rows, []string{m.MetricID, fmtScore(m.Before), fmtScore(m.After), d})
	}

	functions := section{title: "Function changes", headers: []string{"Function", "Before", "After", "Delta"}}
	for _, f := range cs.Functions {
		before, after := schema.UnscoredMarker, schema.UnscoredMarker
		if f.BeforeScored {
			before = fmtFloat(f.Before)
		}
		if f.AfterScored {
			after = fmtFloat(f.After)
		}
		functions.rows = append(functions.rows, []string{f.FunctionID, before, after, delta(f.After - f.Before)})
	}

	outcomes := section{title: "Outcome changes", headers: []string{"Outcome", "Before", "After", "Delta"}}
	for _, o := range cs.Outcomes {
		outcomes.rows = append(outcomes.rows, []string{string(o.Outcome), fmtFloat(o.Before), fmtFloat(o.After), delta(o.After - o.Before)})
	}

	if !cs.Empty() {
		doc.sections = []section{metrics, functions, outcomes}
	}

	doc.footer = append(doc.footer, fmt.Sprintf("Ecosystem Condition Index: %s -> %s (%s)",
		fmtFloat(cs.EcosystemBefore), fmtFloat(cs.EcosystemAfter), delta(cs.EcosystemAfter-cs.EcosystemBefore)))
	if len(cs.Unscored) > 0 {
		doc.footer = append(doc.footer, "Unscored functions: "+strings.Join(cs.Unscored, ", "))
	}
	if duration > 0 {
		doc.footer = append(doc.footer, fmt.Sprintf("Comparison completed in %v", duration))
	}
	return doc
}

// deltaFormatter renders signed deltas. Improvements are green and declines red.
func deltaFormatter(precision int, useColor bool) func(float64) string {
	red, green, yellow := fmt.Sprint, fmt.Sprint, fmt.Sprint
	if useColor {
		red = color.New(color.FgRed).SprintFunc()
		green = color.New(color.FgGreen).SprintFunc()
		yellow = color.New(color.FgYellow).SprintFunc()
	}
	return func(d float64) string {
		switch {
		case d > 0:
			return green(fmt.Sprintf("+%.*f ▲", precision, d))
		case d < 0:
			return red(fmt.Sprintf("%.*f ▼", precision, d))
		default:
			return yellow(fmt.Sprintf("%.*f", precision, 0.0))
		}
	}
}

// writeCSVChanges writes one row per changed value.
func writeCSVChanges(w io.Writer, cs schema.ChangeSummary, cfg *contract.Config) error {
	fmtFloat, fmtScore := createFormatters(cfg.Precision)
	header := []string{"level", "id", "before", "after", "delta"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, m := range cs.Metrics {
			d := ""
			if m.Before != nil && m.After != nil {
				d = fmtFloat(*m.After - *m.Before)
			}
			if err := cw.Write([]string{"metric", m.MetricID, fmtScore(m.Before), fmtScore(m.After), d}); err != nil {
				return err
			}
		}
		for _, f := range cs.Functions {
			before, after := schema.UnscoredMarker, schema.UnscoredMarker
			if f.BeforeScored {
				before = fmtFloat(f.Before)
			}
			if f.AfterScored {
				after = fmtFloat(f.After)
			}
			if err := cw.Write([]string{"function", f.FunctionID, before, after, fmtFloat(f.After - f.Before)}); err != nil {
				return err
			}
		}
		for _, o := range cs.Outcomes {
			if err := cw.Write([]string{"outcome", string(o.Outcome), fmtFloat(o.Before), fmtFloat(o.After), fmtFloat(o.After - o.Before)}); err != nil {
				return err
			}
		}
		return cw.Write([]string{"ecosystem", "", fmtFloat(cs.EcosystemBefore), fmtFloat(cs.EcosystemAfter), fmtFloat(cs.EcosystemAfter - cs.EcosystemBefore)})
	})
}
