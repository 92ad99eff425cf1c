// Package scenario holds the mutable session state of an assessment.
// Every mutation works on a copy: the caller's scenario is never modified, and the
// returned ChangeSummary lists which metric, function and outcome scores moved.
// The engine keeps no per-scenario state, so callers that share one scenario across
// goroutines must serialize mutations themselves.
package scenario

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/huangsam/streamscore/core"
	"github.com/huangsam/streamscore/core/curve"
	"github.com/huangsam/streamscore/core/profile"
	"github.com/huangsam/streamscore/schema"
)

// Errors returned by scenario mutations.
var (
	ErrUnknownMetric = errors.New("metric not in catalog")
	ErrNotSelected   = errors.New("metric not selected")
	ErrNoProfile     = errors.New("metric has no profile for tier")
	ErrUnknownSet    = errors.New("curve set not referenced by metric")
	ErrNoCurve       = errors.New("metric is not scored through a curve")
	ErrUnknownLayer  = errors.New("layer not on the metric's curve")
)

// Engine applies mutations to scenarios against one catalog.
type Engine struct {
	catalog *schema.Catalog
	opts    core.AssessOptions
	now     func() time.Time
	newID   func() string
}

// NewEngine returns an engine over the catalog.
func NewEngine(cat *schema.Catalog, opts core.AssessOptions) *Engine {
	return &Engine{
		catalog: cat,
		opts:    opts,
		now:     func() time.Time { return time.Now().UTC() },
		newID:   uuid.NewString,
	}
}

// Catalog returns the catalog the engine scores against.
func (e *Engine) Catalog() *schema.Catalog {
	return e.catalog
}

// Assess scores the scenario.
func (e *Engine) Assess(sc *schema.Scenario) (schema.Assessment, error) {
	return core.Assess(e.catalog, sc, e.opts)
}

// New creates a scenario at the tier and seeds each listed metric with its default observation.
func (e *Engine) New(name string, tier schema.Tier, metricIDs ...string) (*schema.Scenario, schema.ChangeSummary, error) {
	if tier == "" {
		tier = schema.DetailedTier
	}
	if _, ok := schema.ValidTiers[tier]; !ok {
		return nil, schema.ChangeSummary{}, fmt.Errorf("unknown tier %q", tier)
	}
	now := e.now()
	sc := &schema.Scenario{
		ID:        e.newID(),
		Name:      name,
		Tier:      tier,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, id := range metricIDs {
		if err := e.addMetric(sc, id); err != nil {
			return nil, schema.ChangeSummary{}, err
		}
	}
	after, err := e.Assess(sc)
	if err != nil {
		return nil, schema.ChangeSummary{}, err
	}
	return sc, core.Diff(schema.Assessment{}, after), nil
}

// AddMetric selects a metric and seeds it with the tier-appropriate default observation.
// Adding an already selected metric changes nothing.
func (e *Engine) AddMetric(sc *schema.Scenario, metricID string) (*schema.Scenario, schema.ChangeSummary, error) {
	return e.mutate(sc, func(next *schema.Scenario) error {
		if next.HasMetric(metricID) {
			return nil
		}
		return e.addMetric(next, metricID)
	})
}

// RemoveMetric deselects a metric and drops its observation and curve choices.
func (e *Engine) RemoveMetric(sc *schema.Scenario, metricID string) (*schema.Scenario, schema.ChangeSummary, error) {
	return e.mutate(sc, func(next *schema.Scenario) error {
		if !next.HasMetric(metricID) {
			return fmt.Errorf("%w: %s", ErrNotSelected, metricID)
		}
		next.Metrics = slices.DeleteFunc(next.Metrics, func(id string) bool { return id == metricID })
		delete(next.Observations, metricID)
		delete(next.CurveOverrides, metricID)
		delete(next.ActiveCurveSets, metricID)
		delete(next.ActiveLayers, metricID)
		return nil
	})
}

// SetObservation records a new observation for a selected metric.
func (e *Engine) SetObservation(sc *schema.Scenario, metricID string, obs schema.Observation) (*schema.Scenario, schema.ChangeSummary, error) {
	return e.mutate(sc, func(next *schema.Scenario) error {
		if !next.HasMetric(metricID) {
			return fmt.Errorf("%w: %s", ErrNotSelected, metricID)
		}
		if next.Observations == nil {
			next.Observations = make(map[string]schema.Observation)
		}
		next.Observations[metricID] = obs.Clone()
		return nil
	})
}

// SetCurveOverride replaces the curve a selected metric is scored with.
// The override is validated before it is stored.
func (e *Engine) SetCurveOverride(sc *schema.Scenario, metricID string, c *schema.Curve) (*schema.Scenario, schema.ChangeSummary, error) {
	return e.mutate(sc, func(next *schema.Scenario) error {
		if !next.HasMetric(metricID) {
			return fmt.Errorf("%w: %s", ErrNotSelected, metricID)
		}
		if c == nil {
			return fmt.Errorf("curve override for %s is nil", metricID)
		}
		p, err := e.profileFor(next.Tier, metricID)
		if err != nil {
			return err
		}
		if len(CurveSetIDs(p)) == 0 {
			return fmt.Errorf("%w: %s scores by %s", ErrNoCurve, metricID, p.Scoring.Type)
		}
		if err := curve.Validate(c); err != nil {
			return err
		}
		if next.CurveOverrides == nil {
			next.CurveOverrides = make(map[string]*schema.Curve)
		}
		next.CurveOverrides[metricID] = c.Clone()
		e.dropStaleLayer(next, metricID)
		return nil
	})
}

// ClearCurveOverride reverts a metric to its catalog curve.
func (e *Engine) ClearCurveOverride(sc *schema.Scenario, metricID string) (*schema.Scenario, schema.ChangeSummary, error) {
	return e.mutate(sc, func(next *schema.Scenario) error {
		delete(next.CurveOverrides, metricID)
		e.dropStaleLayer(next, metricID)
		return nil
	})
}

// SetActiveLayer picks the layer of the metric's current curve that scoring uses.
// An empty layer id reverts to the curve's own active layer.
func (e *Engine) SetActiveLayer(sc *schema.Scenario, metricID, layerID string) (*schema.Scenario, schema.ChangeSummary, error) {
	return e.mutate(sc, func(next *schema.Scenario) error {
		if !next.HasMetric(metricID) {
			return fmt.Errorf("%w: %s", ErrNotSelected, metricID)
		}
		if layerID == "" {
			delete(next.ActiveLayers, metricID)
			return nil
		}
		c, err := e.scoringCurve(next, metricID)
		if err != nil {
			return err
		}
		if _, ok := c.ResolveLayer(layerID); !ok {
			return fmt.Errorf("%w: %s has no layer %q", ErrUnknownLayer, c.ID, layerID)
		}
		if next.ActiveLayers == nil {
			next.ActiveLayers = make(map[string]string)
		}
		next.ActiveLayers[metricID] = layerID
		return nil
	})
}

// SetActiveCurveSet picks which of a metric's referenced curve sets is used.
// An empty set id reverts to the profile default.
func (e *Engine) SetActiveCurveSet(sc *schema.Scenario, metricID, setID string) (*schema.Scenario, schema.ChangeSummary, error) {
	return e.mutate(sc, func(next *schema.Scenario) error {
		if !next.HasMetric(metricID) {
			return fmt.Errorf("%w: %s", ErrNotSelected, metricID)
		}
		if setID == "" {
			delete(next.ActiveCurveSets, metricID)
			e.dropStaleLayer(next, metricID)
			return nil
		}
		p, err := e.profileFor(next.Tier, metricID)
		if err != nil {
			return err
		}
		if !slices.Contains(CurveSetIDs(p), setID) {
			return fmt.Errorf("%w: %s does not use %q", ErrUnknownSet, metricID, setID)
		}
		if next.ActiveCurveSets == nil {
			next.ActiveCurveSets = make(map[string]string)
		}
		next.ActiveCurveSets[metricID] = setID
		e.dropStaleLayer(next, metricID)
		return nil
	})
}

// Duplicate copies a scenario under a new id. The copy shares no state with the original.
func (e *Engine) Duplicate(sc *schema.Scenario, name string) (*schema.Scenario, schema.ChangeSummary, error) {
	if sc == nil {
		return nil, schema.ChangeSummary{}, fmt.Errorf("nil scenario")
	}
	next := sc.Clone()
	next.ID = e.newID()
	if name == "" {
		name = strings.TrimSpace(sc.Name + " (copy)")
	}
	next.Name = name
	now := e.now()
	next.CreatedAt = now
	next.UpdatedAt = now

	after, err := e.Assess(next)
	if err != nil {
		return nil, schema.ChangeSummary{}, err
	}
	return next, core.Diff(schema.Assessment{}, after), nil
}

// CurveSetIDs lists the curve sets a profile may score through.
func CurveSetIDs(p *schema.ScoringProfile) []string {
	var ids []string
	if p.Scoring.Curve != nil {
		ids = append(ids, p.Scoring.Curve.CurveSetIDs...)
	}
	if p.Scoring.Formula != nil && p.Scoring.Formula.Output != nil && p.Scoring.Formula.Output.CurveID != "" {
		ids = append(ids, p.Scoring.Formula.Output.CurveID)
	}
	ids = append(ids, p.CurveIntegration.CurveSetIDs...)
	slices.Sort(ids)
	return slices.Compact(ids)
}

// mutate clones sc, applies fn to the clone and diffs the assessments around it.
func (e *Engine) mutate(sc *schema.Scenario, fn func(next *schema.Scenario) error) (*schema.Scenario, schema.ChangeSummary, error) {
	if sc == nil {
		return nil, schema.ChangeSummary{}, fmt.Errorf("nil scenario")
	}
	before, err := e.Assess(sc)
	if err != nil {
		return nil, schema.ChangeSummary{}, err
	}
	next := sc.Clone()
	if err := fn(next); err != nil {
		return nil, schema.ChangeSummary{}, err
	}
	after, err := e.Assess(next)
	if err != nil {
		return nil, schema.ChangeSummary{}, err
	}
	next.UpdatedAt = e.now()
	return next, core.Diff(before, after), nil
}

func (e *Engine) addMetric(sc *schema.Scenario, metricID string) error {
	p, err := e.profileFor(sc.Tier, metricID)
	if err != nil {
		return err
	}
	if sc.HasMetric(metricID) {
		return nil
	}
	sc.Metrics = append(sc.Metrics, metricID)
	if sc.Observations == nil {
		sc.Observations = make(map[string]schema.Observation)
	}
	sc.Observations[metricID] = profile.DefaultObservation(p, core.BuildEnv(e.catalog, sc, metricID))
	return nil
}

// scoringCurve is the curve the metric is scored through under the scenario's choices.
func (e *Engine) scoringCurve(sc *schema.Scenario, metricID string) (*schema.Curve, error) {
	p, err := e.profileFor(sc.Tier, metricID)
	if err != nil {
		return nil, err
	}
	c, ok := profile.ScoringCurve(p, core.BuildEnv(e.catalog, sc, metricID))
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoCurve, metricID)
	}
	return c, nil
}

// dropStaleLayer forgets a layer choice the metric's current curve no longer has.
func (e *Engine) dropStaleLayer(sc *schema.Scenario, metricID string) {
	layerID, ok := sc.ActiveLayers[metricID]
	if !ok {
		return
	}
	if c, err := e.scoringCurve(sc, metricID); err == nil {
		if _, found := c.Layer(layerID); found {
			return
		}
	}
	delete(sc.ActiveLayers, metricID)
}

func (e *Engine) profileFor(tier schema.Tier, metricID string) (*schema.ScoringProfile, error) {
	m, ok := e.catalog.Metric(metricID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMetric, metricID)
	}
	if tier == "" {
		tier = schema.DetailedTier
	}
	p, ok := m.ProfileFor(tier)
	if !ok {
		return nil, fmt.Errorf("%w: %s at %s", ErrNoProfile, metricID, tier)
	}
	return p, nil
}
