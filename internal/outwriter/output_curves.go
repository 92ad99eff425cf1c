package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/huangsam/streamscore/internal/contract"
	"github.com/huangsam/streamscore/schema"
)

// WriteCurveMatch outputs a single curve evaluation.
func WriteCurveMatch(w io.Writer, obs schema.Observation, m schema.CurveMatch, cfg *contract.Config) error {
	fmtFloat, _ := createFormatters(cfg.Precision)
	switch cfg.Output {
	case schema.JSONOut:
		type JSONCurveMatch struct {
			Observation schema.Observation `json:"observation"`
			Label       string             `json:"label"`
			schema.CurveMatch
		}
		return writeJSON(w, JSONCurveMatch{Observation: obs, Label: contract.GetPlainLabel(m.Score, cfg.Labels), CurveMatch: m})
	case schema.CSVOut:
		header := []string{"curve", "layer", "observation", "score", "left", "right", "fraction", "clamped"}
		return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
			return cw.Write([]string{
				m.CurveID, m.LayerID, obs.String(), fmtFloat(m.Score),
				formatPoint(m.Left, fmtFloat), formatPoint(m.Right, fmtFloat),
				fmtFloat(m.Fraction), strconv.FormatBool(m.Clamped),
			})
		})
	}

	doc := document{
		title: fmt.Sprintf("Curve %s", m.CurveID),
		preamble: []string{
			fmt.Sprintf("Layer: %s", m.LayerID),
			fmt.Sprintf("Observation: %s", obs.String()),
		},
	}
	points := section{title: "Matched points", headers: []string{"Side", "Point", "Index"}}
	if m.Left != nil {
		points.rows = append(points.rows, []string{"left", formatPoint(m.Left, fmtFloat), fmtFloat(m.Left.Y)})
	}
	if m.Right != nil && m.Right != m.Left {
		points.rows = append(points.rows, []string{"right", formatPoint(m.Right, fmtFloat), fmtFloat(m.Right.Y)})
	}
	doc.sections = []section{points}

	score := m.Score
	doc.footer = append(doc.footer, fmt.Sprintf("Index: %s (%s)", fmtFloat(score), indexLabel(&score, cfg.Labels, cfg.UseColors && cfg.Output == schema.TextOut)))
	if m.Clamped {
		doc.footer = append(doc.footer, "Value is outside the curve range and was clamped.")
	}
	if m.Band != nil {
		doc.footer = append(doc.footer, fmt.Sprintf("Band: %s to %s", fmtFloat(m.Band[0]), fmtFloat(m.Band[1])))
	}
	if cfg.Output == schema.MarkdownOut || cfg.Output == schema.HTMLOut {
		return writeDocument(w, doc, cfg.Output == schema.HTMLOut)
	}
	return writeTextDocument(w, doc)
}

// WriteBands outputs the categorical bands derived for a curve layer.
func WriteBands(w io.Writer, curveID, layerID string, points []schema.Point, cfg *contract.Config) error {
	fmtFloat, fmtScore := createFormatters(cfg.Precision)
	switch cfg.Output {
	case schema.JSONOut:
		return writeJSON(w, map[string]any{"curveId": curveID, "layerId": layerID, "points": points})
	case schema.CSVOut:
		header := []string{"point", "index", "band_min", "band_max"}
		return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
			for i := range points {
				p := points[i]
				if err := cw.Write([]string{formatPoint(&p, fmtFloat), fmtFloat(p.Y), fmtScore(p.YMin), fmtScore(p.YMax)}); err != nil {
					return err
				}
			}
			return nil
		})
	}

	bands := section{title: "Bands", headers: []string{"Point", "Index", "Band Min", "Band Max"}}
	for i := range points {
		p := points[i]
		bands.rows = append(bands.rows, []string{formatPoint(&p, fmtFloat), fmtFloat(p.Y), fmtScore(p.YMin), fmtScore(p.YMax)})
	}
	doc := document{
		title:    fmt.Sprintf("Curve %s", curveID),
		preamble: []string{fmt.Sprintf("Layer: %s", layerID)},
		sections: []section{bands},
	}
	if cfg.Output == schema.MarkdownOut || cfg.Output == schema.HTMLOut {
		return writeDocument(w, doc, cfg.Output == schema.HTMLOut)
	}
	return writeTextDocument(w, doc)
}

// PrintCurveMatch writes a curve evaluation to stdout or the configured output file.
func PrintCurveMatch(obs schema.Observation, m schema.CurveMatch, cfg *contract.Config) error {
	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		return WriteCurveMatch(w, obs, m, cfg)
	}, successMessage(cfg.Output))
}

// PrintBands writes derived bands to stdout or the configured output file.
func PrintBands(curveID, layerID string, points []schema.Point, cfg *contract.Config) error {
	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		return WriteBands(w, curveID, layerID, points, cfg)
	}, successMessage(cfg.Output))
}

// formatPoint names a point by its label, falling back to its x value.
func formatPoint(p *schema.Point, fmtFloat func(float64) string) string {
	if p == nil {
		return ""
	}
	if p.Label != "" {
		return p.Label
	}
	return "x=" + fmtFloat(p.X)
}
