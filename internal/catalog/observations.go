package catalog

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/huangsam/streamscore/schema"
)

// Column headers recognized in a field sheet.
var (
	metricColumns = []string{"metric_id", "metricid", "metric"}
	valueColumns  = []string{"value", "observation", "rating"}
)

// SheetReader reads field sheets from Excel or CSV files.
type SheetReader struct {
	filePath string
	fileType string // "xlsx" or "csv"
	sheet    string
}

// NewSheetReader creates a reader for the file. An empty sheet means the first sheet of a workbook.
func NewSheetReader(filePath, sheet string) *SheetReader {
	fileType := "xlsx"
	if strings.ToLower(filepath.Ext(filePath)) == ".csv" {
		fileType = "csv"
	}
	return &SheetReader{filePath: filePath, fileType: fileType, sheet: sheet}
}

// ReadObservations reads one observation per metric row.
// A value cell holding name=value pairs becomes a named-variable observation.
func (r *SheetReader) ReadObservations() (map[string]schema.Observation, error) {
	rows, err := r.rows()
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("%s must have at least a header row and one data row", r.filePath)
	}

	metricCol := findColumn(rows[0], metricColumns)
	valueCol := findColumn(rows[0], valueColumns)
	if metricCol < 0 || valueCol < 0 {
		return nil, fmt.Errorf("%s needs %q and %q columns", r.filePath, metricColumns[0], valueColumns[0])
	}

	out := make(map[string]schema.Observation, len(rows)-1)
	for i, row := range rows[1:] {
		id := cell(row, metricCol)
		if id == "" {
			continue
		}
		if _, dup := out[id]; dup {
			return nil, fmt.Errorf("row %d: metric %s appears more than once", i+2, id)
		}
		obs, err := ParseCell(cell(row, valueCol))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		out[id] = obs
	}
	return out, nil
}

func (r *SheetReader) rows() ([][]string, error) {
	if _, err := os.Stat(r.filePath); err != nil {
		return nil, fmt.Errorf("%s file not found: %s", strings.ToUpper(r.fileType), r.filePath)
	}
	if r.fileType == "csv" {
		file, err := os.Open(r.filePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open CSV file: %w", err)
		}
		defer func() { _ = file.Close() }()
		reader := csv.NewReader(file)
		reader.FieldsPerRecord = -1
		rows, err := reader.ReadAll()
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV file: %w", err)
		}
		return rows, nil
	}

	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheet := r.sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("workbook %s has no sheets", r.filePath)
		}
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}
	return rows, nil
}

// ParseCell reads a field sheet cell. "ept=12 total=40" yields variables,
// anything else is read by schema.ParseObservation.
func ParseCell(s string) (schema.Observation, error) {
	s = strings.TrimSpace(s)
	if !strings.Contains(s, "=") {
		return schema.ParseObservation(s), nil
	}
	vars := make(map[string]float64)
	for _, field := range strings.FieldsFunc(s, func(r rune) bool { return r == ' ' || r == ',' || r == ';' }) {
		name, raw, ok := strings.Cut(field, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return schema.Observation{}, fmt.Errorf("malformed variable %q", field)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return schema.Observation{}, fmt.Errorf("variable %s: %w", name, err)
		}
		vars[name] = v
	}
	return schema.VarsObservation(vars), nil
}

func findColumn(header []string, names []string) int {
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(h))
		for _, n := range names {
			if h == n {
				return i
			}
		}
	}
	return -1
}

func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
