package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"

	"github.com/huangsam/streamscore/schema"
)

// Condition label constants.
const (
	FunctioningValue    = "Functioning"
	AtRiskValue         = "Functioning At Risk"
	NotFunctioningValue = "Not Functioning"
	UnscoredValue       = "Unscored"
)

// Color variables for console output.
var (
	FunctioningColor    = color.New(color.FgGreen, color.Bold)
	AtRiskColor         = color.New(color.FgYellow)
	NotFunctioningColor = color.New(color.FgRed, color.Bold)
	UnscoredColor       = color.New(color.FgHiBlack)
)

// ConditionThresholds are the lower bounds of the condition labels on the [0,1] index scale.
type ConditionThresholds struct {
	Functioning float64
	AtRisk      float64
}

// DefaultConditionThresholds returns the standard 0.70 / 0.40 cut points.
func DefaultConditionThresholds() ConditionThresholds {
	return ConditionThresholds{Functioning: DefaultFunctioningIndex, AtRisk: DefaultAtRiskIndex}
}

// GetPlainLabel returns a plain text condition label for an index in [0,1].
// This is the core logic used for CSV, JSON, and table printing.
func GetPlainLabel(index float64, t ConditionThresholds) string {
	switch {
	case index >= t.Functioning:
		return FunctioningValue
	case index >= t.AtRisk:
		return AtRiskValue
	default:
		return NotFunctioningValue
	}
}

// GetColorLabel returns a colored condition label for console output (table).
func GetColorLabel(index float64, t ConditionThresholds) string {
	text := GetPlainLabel(index, t)

	switch text {
	case FunctioningValue:
		return FunctioningColor.Sprint(text)
	case AtRiskValue:
		return AtRiskColor.Sprint(text)
	default:
		return NotFunctioningColor.Sprint(text)
	}
}

// FunctionLabel labels a function result, which lives on the [0,15] scale.
func FunctionLabel(f schema.FunctionResult, t ConditionThresholds, useColor bool) string {
	if !f.Scored {
		if useColor {
			return UnscoredColor.Sprint(UnscoredValue)
		}
		return UnscoredValue
	}
	index := f.Score / schema.MaxFunctionScore
	if useColor {
		return GetColorLabel(index, t)
	}
	return GetPlainLabel(index, t)
}

// SelectOutputFile returns the appropriate file handle for output, based on the provided
// file path. An empty path means os.Stdout.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Fatal %s: %v\n", msg, err)
	os.Exit(1)
}

// LogWarn logs a warning message to stderr.
func LogWarn(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Warn %s: %v\n", msg, err)
}

// LogInfo writes a progress line to stderr so stdout stays machine-readable.
func LogInfo(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, "🌊 "+format+"\n", args...)
}

// GetStoreDBFilePath returns the path to the SQLite DB file for scenario storage.
func GetStoreDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".streamscore_scenarios.db"
	}
	return filepath.Join(homeDir, ".streamscore_scenarios.db")
}

// GetHistoryDBFilePath returns the path to the SQLite DB file for assessment history.
func GetHistoryDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".streamscore_history.db"
	}
	return filepath.Join(homeDir, ".streamscore_history.db")
}

// TruncateText truncates a string to a maximum width with an ellipsis suffix.
// Requires maxWidth > 3 so there is room for the ellipsis and at least one character.
func TruncateText(s string, maxWidth int) string {
	runes := []rune(s)
	if len(runes) > maxWidth && maxWidth > 3 {
		return string(runes[:maxWidth-3]) + "..."
	}
	return s
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
// Returns an error for invalid values.
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}
