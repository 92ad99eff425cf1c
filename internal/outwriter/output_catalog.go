package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/huangsam/streamscore/internal/contract"
	"github.com/huangsam/streamscore/schema"
)

// WriteCatalogMetrics lists catalog metrics with the rubric each tier uses.
func WriteCatalogMetrics(w io.Writer, metrics []schema.Metric, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		if metrics == nil {
			metrics = []schema.Metric{}
		}
		return writeJSON(w, metrics)
	case schema.CSVOut:
		header := []string{"metric", "name", "function", "discipline", "profiles"}
		return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
			for i := range metrics {
				m := &metrics[i]
				if err := cw.Write([]string{m.ID, m.Name, m.FunctionID, m.Discipline, formatProfiles(m, "|")}); err != nil {
					return err
				}
			}
			return nil
		})
	}

	list := section{title: "Metrics", headers: []string{"Metric", "Name", "Function", "Discipline", "Profiles"}}
	for i := range metrics {
		m := &metrics[i]
		list.rows = append(list.rows, []string{m.ID, m.Name, m.FunctionID, m.Discipline, formatProfiles(m, ", ")})
	}
	doc := document{
		title:    "Catalog metrics",
		sections: []section{list},
		footer:   []string{fmt.Sprintf("%d metric(s)", len(metrics))},
	}
	if cfg.Output == schema.MarkdownOut || cfg.Output == schema.HTMLOut {
		return writeDocument(w, doc, cfg.Output == schema.HTMLOut)
	}
	return writeTextDocument(w, doc)
}

// PrintCatalogMetrics writes a metric listing to stdout or the configured output file.
func PrintCatalogMetrics(metrics []schema.Metric, cfg *contract.Config) error {
	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		return WriteCatalogMetrics(w, metrics, cfg)
	}, successMessage(cfg.Output))
}

// formatProfiles renders "tier:type" for each scoring profile.
func formatProfiles(m *schema.Metric, sep string) string {
	parts := make([]string, len(m.Profiles))
	for i, p := range m.Profiles {
		parts[i] = fmt.Sprintf("%s:%s", p.Tier, p.Scoring.Type)
	}
	return strings.Join(parts, sep)
}
