package outwriter

import (
	"fmt"
	"io"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// section is one titled table of a report.
type section struct {
	title   string
	headers []string
	rows    [][]string
}

// document is a report rendered as terminal tables, Markdown or HTML.
type document struct {
	title    string
	preamble []string // "key: value" lines printed before the tables
	sections []section
	footer   []string
}

// writeTextDocument renders the document as tables for the terminal.
func writeTextDocument(w io.Writer, doc document) error {
	if doc.title != "" {
		if _, err := fmt.Fprintf(w, "🌊 %s\n", doc.title); err != nil {
			return err
		}
	}
	for _, line := range doc.preamble {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	for _, s := range doc.sections {
		if _, err := fmt.Fprintf(w, "\n%s\n", s.title); err != nil {
			return err
		}
		if len(s.rows) == 0 {
			if _, err := fmt.Fprintln(w, "(none)"); err != nil {
				return err
			}
			continue
		}
		if err := writeTable(w, s.headers, s.rows); err != nil {
			return err
		}
	}
	if len(doc.footer) > 0 {
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	for _, line := range doc.footer {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// writeTable renders one right-aligned table.
func writeTable(w io.Writer, headers []string, rows [][]string) error {
	table := tablewriter.NewWriter(w)
	table.Header(headers)
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})
	if err := table.Bulk(rows); err != nil {
		return err
	}
	return table.Render()
}

// markdownDocument renders the document as GitHub-flavored Markdown.
func markdownDocument(doc document) string {
	var b strings.Builder
	if doc.title != "" {
		fmt.Fprintf(&b, "# %s\n\n", doc.title)
	}
	for _, line := range doc.preamble {
		fmt.Fprintf(&b, "- %s\n", line)
	}
	for _, s := range doc.sections {
		fmt.Fprintf(&b, "\n## %s\n\n", s.title)
		if len(s.rows) == 0 {
			b.WriteString("_none_\n")
			continue
		}
		b.WriteString(markdownTable(s.headers, s.rows))
	}
	if len(doc.footer) > 0 {
		b.WriteString("\n")
		for _, line := range doc.footer {
			fmt.Fprintf(&b, "%s\n\n", line)
		}
	}
	return b.String()
}

// markdownTable renders a pipe table.
func markdownTable(headers []string, rows [][]string) string {
	var b strings.Builder
	b.WriteString("| " + strings.Join(escapeCells(headers), " | ") + " |\n")
	b.WriteString("|" + strings.Repeat(" --- |", len(headers)) + "\n")
	for _, row := range rows {
		b.WriteString("| " + strings.Join(escapeCells(row), " | ") + " |\n")
	}
	return b.String()
}

func escapeCells(cells []string) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = strings.ReplaceAll(c, "|", `\|`)
	}
	return out
}

// renderHTML converts Markdown into a standalone HTML page.
func renderHTML(md, title string) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	renderer := html.NewRenderer(html.RendererOptions{
		Flags: html.CommonFlags | html.CompletePage,
		Title: title,
	})
	return markdown.ToHTML([]byte(md), p, renderer)
}

// writeDocument dispatches the document-shaped formats.
func writeDocument(w io.Writer, doc document, asHTML bool) error {
	md := markdownDocument(doc)
	if asHTML {
		_, err := w.Write(renderHTML(md, doc.title))
		return err
	}
	_, err := io.WriteString(w, md)
	return err
}
