package core

import (
	"errors"
	"fmt"
	"strings"

	"github.com/huangsam/streamscore/core/curve"
	"github.com/huangsam/streamscore/core/profile"
	"github.com/huangsam/streamscore/schema"
)

// ValidateCatalog checks the reference data before any scoring runs.
// All violations are joined into one error.
func ValidateCatalog(cat *schema.Catalog) error {
	if cat == nil {
		return schema.Violation("catalog", "missing")
	}
	var errs []error
	if err := cat.Index(); err != nil {
		errs = append(errs, err)
	}

	curveIDs := make(map[string]bool, len(cat.Curves))
	for i := range cat.Curves {
		c := &cat.Curves[i]
		if curveIDs[c.ID] {
			errs = append(errs, schema.Violation("curve "+c.ID, "duplicate curve id"))
		}
		curveIDs[c.ID] = true
		if err := curve.Validate(c); err != nil {
			errs = append(errs, err)
		}
	}

	scaleIDs := make(map[string]bool, len(cat.RatingScales))
	for _, s := range cat.RatingScales {
		subject := "rating scale " + s.ID
		if s.ID == "" {
			errs = append(errs, schema.Violation("rating scale", "missing id"))
		}
		if scaleIDs[s.ID] {
			errs = append(errs, schema.Violation(subject, "duplicate scale id"))
		}
		scaleIDs[s.ID] = true
		if len(s.Levels) == 0 {
			errs = append(errs, schema.Violation(subject, "no levels"))
		}
		labels := make(map[string]bool, len(s.Levels))
		for _, l := range s.Levels {
			key := strings.ToLower(l.Label)
			if labels[key] {
				errs = append(errs, schema.Violation(subject, "repeats label %q", l.Label))
			}
			labels[key] = true
			if l.Index != nil && (*l.Index < 0 || *l.Index > 1) {
				errs = append(errs, schema.Violation(subject, "index of %q outside [0,1]", l.Label))
			}
		}
	}

	functionIDs := make(map[string]bool, len(cat.Functions))
	for _, f := range cat.Functions {
		if f.ID == "" {
			errs = append(errs, schema.Violation("function", "missing id"))
		}
		functionIDs[f.ID] = true
	}

	env := profile.Env{Curves: cat.CurveMap(), Scales: cat.ScaleMap()}
	for i := range cat.Metrics {
		m := &cat.Metrics[i]
		subject := "metric " + m.ID
		if m.ID == "" {
			errs = append(errs, schema.Violation("metric", "missing id"))
		}
		if !functionIDs[m.FunctionID] {
			errs = append(errs, schema.Violation(subject, "function %q is not defined", m.FunctionID))
		}
		tiers := make(map[schema.Tier]bool, len(m.Profiles))
		for j := range m.Profiles {
			p := &m.Profiles[j]
			if tiers[p.Tier] {
				errs = append(errs, schema.Violation(subject, "more than one %s profile", p.Tier))
			}
			tiers[p.Tier] = true
			if err := profile.Validate(p, env); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", subject, err))
			}
		}
	}

	mapped := make(map[string]bool, len(cat.OutcomeMappings))
	for _, om := range cat.OutcomeMappings {
		subject := "outcome mapping " + om.FunctionID
		if !functionIDs[om.FunctionID] {
			errs = append(errs, schema.Violation(subject, "function is not defined"))
		}
		if mapped[om.FunctionID] {
			errs = append(errs, schema.Violation(subject, "duplicate mapping"))
		}
		mapped[om.FunctionID] = true
		for _, o := range schema.AllOutcomes {
			if !validCode(om.Code(o)) {
				errs = append(errs, schema.Violation(subject, "unknown %s code %q", o, om.Code(o)))
			}
		}
	}
	return errors.Join(errs...)
}

func validCode(code schema.OutcomeCode) bool {
	switch code {
	case schema.NoCode, schema.DirectCode, schema.IndirectCode:
		return true
	default:
		return false
	}
}
