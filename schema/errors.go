package schema

import (
	"errors"
	"fmt"
)

// Sentinels for errors.Is checks against the typed errors below.
var (
	ErrInsufficientData = errors.New("insufficient data")
	ErrEvaluation       = errors.New("evaluation error")
	ErrInvariant        = errors.New("invariant violation")
)

// InsufficientDataError is the soft failure of a scoring step: not enough points or
// levels to decide a score. It surfaces as an unscored value, never as a fault.
type InsufficientDataError struct {
	Subject string
	Reason  string
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data for %s: %s", e.Subject, e.Reason)
}

// Is matches ErrInsufficientData.
func (e *InsufficientDataError) Is(target error) bool {
	return target == ErrInsufficientData
}

// EvaluationError is a hard failure caused by a catalog authoring defect,
// e.g. a formula referencing an undefined variable or an unknown scoring type.
type EvaluationError struct {
	Subject string
	Reason  string
	Err     error
}

func (e *EvaluationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("cannot evaluate %s: %s: %v", e.Subject, e.Reason, e.Err)
	}
	return fmt.Sprintf("cannot evaluate %s: %s", e.Subject, e.Reason)
}

// Unwrap returns the underlying cause.
func (e *EvaluationError) Unwrap() error {
	return e.Err
}

// Is matches ErrEvaluation.
func (e *EvaluationError) Is(target error) bool {
	return target == ErrEvaluation
}

// InvariantViolation is raised by catalog validation when reference data breaks a structural rule.
type InvariantViolation struct {
	Subject string
	Rule    string
}

func (e *InvariantViolation) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Subject, e.Rule)
}

// Is matches ErrInvariant.
func (e *InvariantViolation) Is(target error) bool {
	return target == ErrInvariant
}

// Insufficient builds an InsufficientDataError.
func Insufficient(subject, format string, args ...any) error {
	return &InsufficientDataError{Subject: subject, Reason: fmt.Sprintf(format, args...)}
}

// Violation builds an InvariantViolation.
func Violation(subject, format string, args ...any) error {
	return &InvariantViolation{Subject: subject, Rule: fmt.Sprintf(format, args...)}
}

// IsInsufficient reports whether err is a soft scoring failure.
func IsInsufficient(err error) bool {
	return errors.Is(err, ErrInsufficientData)
}
