package curve

import (
	"errors"
	"strings"

	"github.com/huangsam/streamscore/schema"
)

// Validate checks the structural invariants of a curve and returns every
// violation found, joined. It belongs on the catalog-loading path, not the scoring path.
func Validate(c *schema.Curve) error {
	if c == nil {
		return schema.Violation("curve", "missing")
	}
	subject := "curve " + c.ID
	var errs []error

	if c.ID == "" {
		errs = append(errs, schema.Violation("curve", "empty id"))
	}
	switch c.Domain {
	case "", schema.QuantitativeDomain, schema.CategoricalDomain:
	default:
		errs = append(errs, schema.Violation(subject, "unknown domain %q", c.Domain))
	}
	if len(c.Layers) == 0 {
		errs = append(errs, schema.Violation(subject, "no layers"))
	}

	seen := make(map[string]struct{}, len(c.Layers))
	for _, l := range c.Layers {
		if l.ID == "" {
			errs = append(errs, schema.Violation(subject, "layer with empty id"))
		}
		if _, dup := seen[l.ID]; dup {
			errs = append(errs, schema.Violation(subject, "duplicate layer %q", l.ID))
		}
		seen[l.ID] = struct{}{}

		if c.Domain == schema.CategoricalDomain {
			errs = append(errs, validateCategorical(subject, l)...)
		} else {
			errs = append(errs, validateQuantitative(subject, l)...)
		}
	}

	if c.ActiveLayerID != "" {
		if _, ok := c.Layer(c.ActiveLayerID); !ok {
			errs = append(errs, schema.Violation(subject, "active layer %q does not exist", c.ActiveLayerID))
		}
	}
	return errors.Join(errs...)
}

func validateQuantitative(subject string, l schema.Layer) []error {
	var errs []error
	if len(l.Points) < 2 {
		errs = append(errs, schema.Violation(subject, "layer %q needs at least 2 points, has %d", l.ID, len(l.Points)))
	}
	xs := make(map[float64]struct{}, len(l.Points))
	for _, p := range l.Points {
		if !isFinite(p.X) || !isFinite(p.Y) {
			errs = append(errs, schema.Violation(subject, "layer %q has a non-finite point", l.ID))
			continue
		}
		if _, dup := xs[p.X]; dup {
			errs = append(errs, schema.Violation(subject, "layer %q repeats x=%g", l.ID, p.X))
		}
		xs[p.X] = struct{}{}
	}
	return errs
}

func validateCategorical(subject string, l schema.Layer) []error {
	var errs []error
	if len(l.Points) == 0 {
		errs = append(errs, schema.Violation(subject, "layer %q has no categories", l.ID))
	}
	labels := make(map[string]struct{}, len(l.Points))
	for _, p := range l.Points {
		key := strings.ToLower(strings.TrimSpace(p.Label))
		if key == "" {
			errs = append(errs, schema.Violation(subject, "layer %q has an unlabeled category", l.ID))
			continue
		}
		if _, dup := labels[key]; dup {
			errs = append(errs, schema.Violation(subject, "layer %q repeats category %q", l.ID, p.Label))
		}
		labels[key] = struct{}{}
		if !isFinite(p.Y) {
			errs = append(errs, schema.Violation(subject, "layer %q category %q has a non-finite y", l.ID, p.Label))
		}
		if p.HasBand() && *p.YMin > *p.YMax {
			errs = append(errs, schema.Violation(subject, "layer %q category %q has an inverted band", l.ID, p.Label))
		}
	}
	return errs
}
