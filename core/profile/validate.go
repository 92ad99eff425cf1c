package profile

import (
	"errors"
	"math"
	"slices"
	"sort"
	"strings"

	"github.com/huangsam/streamscore/schema"
)

// Validate checks a scoring profile against its own rubric and the reference data in env.
// Curve and scale references are only checked when env carries the corresponding map.
func Validate(p *schema.ScoringProfile, env Env) error {
	if p == nil {
		return schema.Violation("profile", "missing")
	}
	subject := "profile " + string(p.Tier)
	var errs []error

	if _, ok := schema.ValidTiers[p.Tier]; !ok {
		errs = append(errs, schema.Violation(subject, "unknown tier %q", p.Tier))
	}
	typ := p.Scoring.Type
	if _, ok := schema.ValidScoringTypes[typ]; !ok {
		return errors.Join(append(errs, schema.Violation(subject, "unknown scoring type %q", typ))...)
	}
	if p.CurveIntegration.Enabled && !typ.ConsultsCurve() {
		errs = append(errs, schema.Violation(subject, "curve integration enabled for %s scoring", typ))
	}
	for _, other := range presentRubrics(p.Scoring) {
		if other != typ {
			errs = append(errs, schema.Violation(subject, "carries a %s rubric but scoring type is %s", other, typ))
		}
	}

	s := p.Scoring
	switch typ {
	case schema.CategoricalScoring:
		errs = append(errs, validateCategorical(subject, s.Categorical, p.CurveIntegration, env)...)
	case schema.ThresholdsScoring:
		errs = append(errs, validateThresholds(subject, s.Thresholds, env)...)
	case schema.CurveScoring:
		errs = append(errs, validateCurveRubric(subject, s.Curve, env)...)
	case schema.FormulaScoring:
		errs = append(errs, validateFormula(subject, s.Formula, env)...)
	case schema.BinaryScoring:
		if s.Binary == nil {
			errs = append(errs, schema.Violation(subject, "binary rubric missing"))
		}
	case schema.LookupScoring:
		errs = append(errs, validateLookup(subject, s.Lookup)...)
	}
	return errors.Join(errs...)
}

func presentRubrics(s schema.Scoring) []schema.ScoringType {
	var out []schema.ScoringType
	if s.Categorical != nil {
		out = append(out, schema.CategoricalScoring)
	}
	if s.Thresholds != nil {
		out = append(out, schema.ThresholdsScoring)
	}
	if s.Curve != nil {
		out = append(out, schema.CurveScoring)
	}
	if s.Formula != nil {
		out = append(out, schema.FormulaScoring)
	}
	if s.Binary != nil {
		out = append(out, schema.BinaryScoring)
	}
	if s.Lookup != nil {
		out = append(out, schema.LookupScoring)
	}
	return out
}

func validateCategorical(subject string, r *schema.CategoricalRubric, ci schema.CurveIntegration, env Env) []error {
	if r == nil {
		return []error{schema.Violation(subject, "categorical rubric missing")}
	}
	var errs []error
	if len(r.Levels) == 0 {
		errs = append(errs, schema.Violation(subject, "categorical rubric has no levels"))
	}
	if ci.Enabled {
		errs = append(errs, checkCurveRefs(subject, ci.CurveSetIDs, env)...)
	}
	scale, scaleErr := scaleFor(r.RatingScale, env)
	if scaleErr != nil && env.Scales != nil {
		errs = append(errs, schema.Violation(subject, "rating scale %q is not defined", r.RatingScale))
	}
	seen := make(map[string]struct{}, len(r.Levels))
	for _, l := range r.Levels {
		key := strings.ToLower(l.Label)
		if l.Label == "" {
			errs = append(errs, schema.Violation(subject, "level %q has no label", l.ID))
		}
		if _, dup := seen[key]; dup {
			errs = append(errs, schema.Violation(subject, "repeats level %q", l.Label))
		}
		seen[key] = struct{}{}
		if ci.Enabled || scaleErr != nil {
			continue
		}
		rating := l.Rating
		if rating == "" {
			rating = l.Label
		}
		if _, ok := RatingIndex(scale, rating); !ok {
			errs = append(errs, schema.Violation(subject, "level %q rating %q is not on scale %q", l.Label, rating, scale.ID))
		}
	}
	return errs
}

func validateThresholds(subject string, r *schema.ThresholdsRubric, env Env) []error {
	if r == nil {
		return []error{schema.Violation(subject, "thresholds rubric missing")}
	}
	var errs []error
	switch r.Direction {
	case "", schema.Increasing, schema.Decreasing:
	default:
		errs = append(errs, schema.Violation(subject, "unknown direction %q", r.Direction))
	}
	if _, err := scaleFor(r.RatingScale, env); err != nil && env.Scales != nil {
		errs = append(errs, schema.Violation(subject, "rating scale %q is not defined", r.RatingScale))
	}
	errs = append(errs, validateBands(subject, r.Bands)...)
	return errs
}

// validateBands rejects empty or inverted bands and requires neighbours to meet exactly.
func validateBands(subject string, bands []schema.ThresholdBand) []error {
	if len(bands) == 0 {
		return []error{schema.Violation(subject, "no threshold bands")}
	}
	var errs []error
	lo := func(b schema.ThresholdBand) float64 {
		if b.Min == nil {
			return math.Inf(-1)
		}
		return *b.Min
	}
	hi := func(b schema.ThresholdBand) float64 {
		if b.Max == nil {
			return math.Inf(1)
		}
		return *b.Max
	}
	for i, b := range bands {
		if lo(b) >= hi(b) {
			errs = append(errs, schema.Violation(subject, "%s is empty", bandName(b, i)))
		}
	}
	order := make([]int, len(bands))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return lo(bands[order[a]]) < lo(bands[order[b]]) })
	for k := 1; k < len(order); k++ {
		prev, cur := bands[order[k-1]], bands[order[k]]
		switch {
		case hi(prev) > lo(cur):
			errs = append(errs, schema.Violation(subject, "%s overlaps %s",
				bandName(prev, order[k-1]), bandName(cur, order[k])))
		case hi(prev) < lo(cur):
			errs = append(errs, schema.Violation(subject, "gap between %s and %s",
				bandName(prev, order[k-1]), bandName(cur, order[k])))
		}
	}
	return errs
}

func validateCurveRubric(subject string, r *schema.CurveRubric, env Env) []error {
	if r == nil {
		return []error{schema.Violation(subject, "curve rubric missing")}
	}
	var errs []error
	if len(r.CurveSetIDs) == 0 {
		errs = append(errs, schema.Violation(subject, "curve rubric references no curve set"))
	}
	if r.DefaultSet != "" && !slices.Contains(r.CurveSetIDs, r.DefaultSet) {
		errs = append(errs, schema.Violation(subject, "default curve set %q is not referenced", r.DefaultSet))
	}
	errs = append(errs, checkCurveRefs(subject, r.CurveSetIDs, env)...)
	return errs
}

func checkCurveRefs(subject string, ids []string, env Env) []error {
	if env.Curves == nil {
		return nil
	}
	var errs []error
	for _, id := range ids {
		if _, ok := env.Curves[id]; !ok {
			errs = append(errs, schema.Violation(subject, "curve set %q is not defined", id))
		}
	}
	return errs
}

func validateFormula(subject string, r *schema.FormulaRubric, env Env) []error {
	if r == nil {
		return []error{schema.Violation(subject, "formula rubric missing")}
	}
	var errs []error
	f, err := ParseFormula(r.Expression)
	if err != nil {
		errs = append(errs, schema.Violation(subject, "%v", err))
	} else if len(r.Variables) > 0 {
		for _, v := range f.Vars() {
			if !slices.Contains(r.Variables, v) {
				errs = append(errs, schema.Violation(subject, "formula uses undeclared variable %q", v))
			}
		}
	}
	if m := r.Output; m != nil {
		switch m.Type {
		case schema.LinearMapping:
			if m.Max <= m.Min {
				errs = append(errs, schema.Violation(subject, "linear output mapping needs max > min"))
			}
		case schema.CurveMapping:
			errs = append(errs, checkCurveRefs(subject, []string{m.CurveID}, env)...)
		case schema.BandsMapping:
			errs = append(errs, validateBands(subject, m.Bands)...)
		default:
			errs = append(errs, schema.Violation(subject, "unknown output mapping %q", m.Type))
		}
	}
	return errs
}

func validateLookup(subject string, r *schema.LookupRubric) []error {
	if r == nil {
		return []error{schema.Violation(subject, "lookup rubric missing")}
	}
	var errs []error
	if len(r.Table) == 0 {
		errs = append(errs, schema.Violation(subject, "lookup table is empty"))
	}
	seen := make(map[string]struct{}, len(r.Table))
	for _, e := range r.Table {
		if _, dup := seen[e.Input]; dup {
			errs = append(errs, schema.Violation(subject, "lookup repeats input %q", e.Input))
		}
		seen[e.Input] = struct{}{}
	}
	return errs
}
