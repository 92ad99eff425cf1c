package outwriter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/huangsam/streamscore/internal/contract"
	"github.com/huangsam/streamscore/schema"
)

const scenarioTimeLayout = "2006-01-02 15:04:05"

// WriteScenarioList outputs stored scenario summaries.
func WriteScenarioList(w io.Writer, entries []schema.ScenarioEntry, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		if entries == nil {
			entries = []schema.ScenarioEntry{}
		}
		return writeJSON(w, entries)
	case schema.CSVOut:
		header := []string{"id", "name", "tier", "metrics", "updated_at"}
		return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
			for _, e := range entries {
				if err := cw.Write([]string{e.ID, e.Name, string(e.Tier), strconv.Itoa(e.Metrics), e.UpdatedAt.UTC().Format(scenarioTimeLayout)}); err != nil {
					return err
				}
			}
			return nil
		})
	}

	list := section{title: "Scenarios", headers: []string{"ID", "Name", "Tier", "Metrics", "Updated"}}
	for _, e := range entries {
		list.rows = append(list.rows, []string{e.ID, e.Name, string(e.Tier), strconv.Itoa(e.Metrics), e.UpdatedAt.Local().Format(scenarioTimeLayout)})
	}
	doc := document{
		title:    "Stored scenarios",
		sections: []section{list},
		footer:   []string{fmt.Sprintf("%d scenario(s). Scenario store: %s", len(entries), cfg.StoreBackend)},
	}
	if cfg.Output == schema.MarkdownOut || cfg.Output == schema.HTMLOut {
		return writeDocument(w, doc, cfg.Output == schema.HTMLOut)
	}
	return writeTextDocument(w, doc)
}

// WriteScenario outputs the full scenario document. Text output is YAML.
func WriteScenario(w io.Writer, sc *schema.Scenario, cfg *contract.Config) error {
	if cfg.Output == schema.JSONOut {
		return writeJSON(w, sc)
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(sc); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// PrintScenarioList writes stored scenario summaries to stdout or the configured output file.
func PrintScenarioList(entries []schema.ScenarioEntry, cfg *contract.Config) error {
	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		return WriteScenarioList(w, entries, cfg)
	}, successMessage(cfg.Output))
}

// PrintScenario writes a scenario document to stdout or the configured output file.
func PrintScenario(sc *schema.Scenario, cfg *contract.Config) error {
	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		return WriteScenario(w, sc, cfg)
	}, "Wrote scenario")
}
