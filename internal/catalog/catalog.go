// Package catalog reads the externally-owned reference data and scenario files from disk.
package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/huangsam/streamscore/schema"
)

// Format is a document encoding understood by the loaders.
type Format string

// Supported document formats.
const (
	YAMLFormat Format = "yaml"
	JSONFormat Format = "json"
)

// FormatOf picks the format from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAMLFormat, nil
	case ".json":
		return JSONFormat, nil
	default:
		return "", fmt.Errorf("unsupported file type %q (expected .yaml, .yml or .json)", filepath.Ext(path))
	}
}

// LoadCatalog reads and indexes a catalog file.
func LoadCatalog(path string) (*schema.Catalog, error) {
	if path == "" {
		return nil, fmt.Errorf("no catalog given (use --catalog)")
	}
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	cat := &schema.Catalog{}
	if err := decode(data, format, cat); err != nil {
		return nil, fmt.Errorf("failed to parse catalog %s: %w", path, err)
	}
	if err := cat.Index(); err != nil {
		return nil, err
	}
	return cat, nil
}

// LoadScenario reads a scenario file.
func LoadScenario(path string) (*schema.Scenario, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario: %w", err)
	}
	sc := &schema.Scenario{}
	if err := decode(data, format, sc); err != nil {
		return nil, fmt.Errorf("failed to parse scenario %s: %w", path, err)
	}
	if sc.Tier == "" {
		sc.Tier = schema.DetailedTier
	}
	return sc, nil
}

// SaveScenario writes a scenario file in the format implied by its extension.
func SaveScenario(path string, sc *schema.Scenario) error {
	format, err := FormatOf(path)
	if err != nil {
		return err
	}
	data, err := Encode(sc, format)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// LoadCurve reads a single curve, used for scenario curve overrides.
func LoadCurve(path string) (*schema.Curve, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read curve: %w", err)
	}
	c := &schema.Curve{}
	if err := decode(data, format, c); err != nil {
		return nil, fmt.Errorf("failed to parse curve %s: %w", path, err)
	}
	return c, nil
}

// Encode marshals v in the given format.
func Encode(v any, format Format) ([]byte, error) {
	switch format {
	case JSONFormat:
		return json.MarshalIndent(v, "", "  ")
	case YAMLFormat:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
}

func decode(data []byte, format Format, v any) error {
	switch format {
	case JSONFormat:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		return dec.Decode(v)
	case YAMLFormat:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		return dec.Decode(v)
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
}
