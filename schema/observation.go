package schema

import (
	"bytes"
	"encoding/json"
	"maps"
	"slices"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Observation is a raw field value or rating supplied for one metric.
// At most one of Value, Label, Flag or Vars is expected to be set.
// Scalars are accepted as shorthand when decoding JSON or YAML.
type Observation struct {
	Value *float64           `json:"value,omitempty" yaml:"value,omitempty"`
	Label string             `json:"label,omitempty" yaml:"label,omitempty"`
	Flag  *bool              `json:"flag,omitempty" yaml:"flag,omitempty"`
	Vars  map[string]float64 `json:"vars,omitempty" yaml:"vars,omitempty"`
}

// NumberObservation returns a numeric observation.
func NumberObservation(v float64) Observation {
	return Observation{Value: &v}
}

// LabelObservation returns a label observation.
func LabelObservation(s string) Observation {
	return Observation{Label: s}
}

// FlagObservation returns a boolean observation.
func FlagObservation(b bool) Observation {
	return Observation{Flag: &b}
}

// VarsObservation returns a named-variable observation.
func VarsObservation(vars map[string]float64) Observation {
	return Observation{Vars: maps.Clone(vars)}
}

// ParseObservation interprets free text the way a field sheet cell is read:
// booleans first, then numbers, then labels.
func ParseObservation(s string) Observation {
	s = strings.TrimSpace(s)
	if s == "" {
		return Observation{}
	}
	switch strings.ToLower(s) {
	case "true":
		return FlagObservation(true)
	case "false":
		return FlagObservation(false)
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return NumberObservation(v)
	}
	return LabelObservation(s)
}

// Absent reports whether nothing was observed.
func (o Observation) Absent() bool {
	return o.Value == nil && o.Label == "" && o.Flag == nil && len(o.Vars) == 0
}

// Number returns the observation as a number, parsing labels when possible.
func (o Observation) Number() (float64, bool) {
	if o.Value != nil {
		return *o.Value, true
	}
	if o.Label != "" {
		if v, err := strconv.ParseFloat(strings.TrimSpace(o.Label), 64); err == nil {
			return v, true
		}
	}
	return 0, false
}

// Text returns the observation as the string used for exact matching.
func (o Observation) Text() (string, bool) {
	switch {
	case o.Label != "":
		return o.Label, true
	case o.Value != nil:
		return strconv.FormatFloat(*o.Value, 'f', -1, 64), true
	case o.Flag != nil:
		return strconv.FormatBool(*o.Flag), true
	default:
		return "", false
	}
}

// Clone returns a deep copy.
func (o Observation) Clone() Observation {
	out := Observation{Label: o.Label}
	if o.Value != nil {
		v := *o.Value
		out.Value = &v
	}
	if o.Flag != nil {
		b := *o.Flag
		out.Flag = &b
	}
	if o.Vars != nil {
		out.Vars = maps.Clone(o.Vars)
	}
	return out
}

// String renders the observation for tables.
func (o Observation) String() string {
	if len(o.Vars) > 0 {
		keys := make([]string, 0, len(o.Vars))
		for k := range o.Vars {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + "=" + strconv.FormatFloat(o.Vars[k], 'f', -1, 64)
		}
		return strings.Join(parts, " ")
	}
	if s, ok := o.Text(); ok {
		return s
	}
	return UnscoredMarker
}

// UnmarshalJSON accepts either the object form or a bare scalar.
func (o *Observation) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		type plain Observation
		var p plain
		if err := json.Unmarshal(data, &p); err != nil {
			return err
		}
		*o = Observation(p)
		return nil
	}
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*o = fromScalar(raw)
	return nil
}

// UnmarshalYAML accepts either the mapping form or a bare scalar.
func (o *Observation) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.MappingNode {
		type plain Observation
		var p plain
		if err := node.Decode(&p); err != nil {
			return err
		}
		*o = Observation(p)
		return nil
	}
	var raw any
	if err := node.Decode(&raw); err != nil {
		return err
	}
	*o = fromScalar(raw)
	return nil
}

func fromScalar(raw any) Observation {
	switch v := raw.(type) {
	case nil:
		return Observation{}
	case bool:
		return FlagObservation(v)
	case float64:
		return NumberObservation(v)
	case int:
		return NumberObservation(float64(v))
	case string:
		return LabelObservation(v)
	default:
		return Observation{}
	}
}
