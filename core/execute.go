package core

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/huangsam/streamscore/core/curve"
	"github.com/huangsam/streamscore/core/rollup"
	"github.com/huangsam/streamscore/internal/catalog"
	"github.com/huangsam/streamscore/internal/contract"
	"github.com/huangsam/streamscore/internal/outwriter"
	"github.com/huangsam/streamscore/schema"
)

// ErrCheckFailed is returned by ExecuteCheck when a condition gate is not met.
var ErrCheckFailed = errors.New("condition check failed")

// OptionsFromConfig builds assessment options from the configured weights.
func OptionsFromConfig(cfg *contract.Config) AssessOptions {
	return AssessOptions{Weights: rollup.Weights{Direct: cfg.DirectWeight, Indirect: cfg.IndirectWeight}}
}

// ResolveScenario loads the scenario named by the config: the positional
// scenario file when given, otherwise --scenario-id from the scenario store.
func ResolveScenario(cfg *contract.Config, mgr contract.StoreManager) (*schema.Scenario, error) {
	if cfg.ScenarioPath != "" {
		return catalog.LoadScenario(cfg.ScenarioPath)
	}
	if cfg.ScenarioID != "" {
		return LoadStoredScenario(mgr, cfg.ScenarioID)
	}
	return nil, errors.New("no scenario given (pass a scenario file or --scenario-id)")
}

// ResolveScenarioRef loads a scenario from a file when ref names one, or from the store by id.
func ResolveScenarioRef(ref string, mgr contract.StoreManager) (*schema.Scenario, error) {
	if _, err := os.Stat(ref); err == nil {
		return catalog.LoadScenario(ref)
	}
	return LoadStoredScenario(mgr, ref)
}

// LoadStoredScenario fetches a scenario by id from the scenario store.
func LoadStoredScenario(mgr contract.StoreManager, id string) (*schema.Scenario, error) {
	if mgr == nil || mgr.GetScenarioStore() == nil {
		return nil, fmt.Errorf("scenario %s: scenario store is disabled", id)
	}
	sc, err := mgr.GetScenarioStore().Get(id)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", id, err)
	}
	return sc, nil
}

// GetAssessment loads the catalog and the configured scenario and assesses it.
func GetAssessment(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) (schema.Assessment, error) {
	if err := ctx.Err(); err != nil {
		return schema.Assessment{}, err
	}
	cat, err := catalog.LoadCatalog(cfg.CatalogPath)
	if err != nil {
		return schema.Assessment{}, err
	}
	sc, err := ResolveScenario(cfg, mgr)
	if err != nil {
		return schema.Assessment{}, err
	}
	return Assess(cat, sc, OptionsFromConfig(cfg))
}

// ExecuteAssess assesses the configured scenario and prints the result.
// With --record the run is also written to the history store.
func ExecuteAssess(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	start := time.Now()
	a, err := GetAssessment(ctx, cfg, mgr)
	if err != nil {
		return err
	}
	if cfg.Record {
		recordAssessment(cfg, mgr, a, start)
	}
	return outwriter.PrintAssessment(a, cfg, time.Since(start))
}

// recordAssessment stores the run in history. Failures only warn so the assessment still prints.
func recordAssessment(cfg *contract.Config, mgr contract.StoreManager, a schema.Assessment, runTime time.Time) {
	if mgr == nil || mgr.GetHistoryStore() == nil {
		contract.LogWarn("Skipping --record", errors.New("history is disabled (set --history-backend)"))
		return
	}
	runID, err := mgr.GetHistoryStore().RecordAssessment(a, runTime, cfg.ConfigParams())
	if err != nil {
		contract.LogWarn("Failed to record assessment", err)
		return
	}
	contract.LogInfo("Recorded assessment run %d", runID)
}

// GetComparison assesses two scenarios (files or stored ids) and diffs base against target.
func GetComparison(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager, baseRef, targetRef string) (string, schema.ChangeSummary, error) {
	if err := ctx.Err(); err != nil {
		return "", schema.ChangeSummary{}, err
	}
	cat, err := catalog.LoadCatalog(cfg.CatalogPath)
	if err != nil {
		return "", schema.ChangeSummary{}, err
	}
	base, err := ResolveScenarioRef(baseRef, mgr)
	if err != nil {
		return "", schema.ChangeSummary{}, fmt.Errorf("base: %w", err)
	}
	target, err := ResolveScenarioRef(targetRef, mgr)
	if err != nil {
		return "", schema.ChangeSummary{}, fmt.Errorf("target: %w", err)
	}
	_, _, cs, err := Compare(cat, base, target, OptionsFromConfig(cfg))
	if err != nil {
		return "", schema.ChangeSummary{}, err
	}
	title := fmt.Sprintf("Comparison: %s -> %s", scenarioTitle(base), scenarioTitle(target))
	return title, cs, nil
}

// ExecuteCompare prints what changed from the base scenario to the target scenario.
func ExecuteCompare(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager, baseRef, targetRef string) error {
	start := time.Now()
	title, cs, err := GetComparison(ctx, cfg, mgr, baseRef, targetRef)
	if err != nil {
		return err
	}
	return outwriter.PrintChanges(title, cs, cfg, time.Since(start))
}

func scenarioTitle(sc *schema.Scenario) string {
	if sc.Name != "" {
		return sc.Name
	}
	return sc.ID
}

// ExecuteCheck assesses the configured scenario and gates it against --min-index and --min-sub-index.
// It returns ErrCheckFailed when any gate fails, after printing the report.
func ExecuteCheck(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	start := time.Now()
	a, err := GetAssessment(ctx, cfg, mgr)
	if err != nil {
		return err
	}
	result := Check(a, cfg.MinIndex, cfg.MinSubIndices)

	out, err := contract.SelectOutputFile(cfg.OutputFile)
	if err != nil {
		return err
	}
	if out != os.Stdout {
		defer func() { _ = out.Close() }()
	}
	PrintCheckResult(out, result, cfg.MinSubIndices)
	if !result.Passed {
		weakest := RankFunctions(a.Functions, 3)
		_, _ = fmt.Fprintln(out, "\nWeakest functions:")
		for _, f := range weakest {
			score := schema.UnscoredMarker
			if f.Scored {
				score = fmt.Sprintf("%.*f", cfg.Precision, f.Score)
			}
			_, _ = fmt.Fprintf(out, "  - %s: %s (%s)\n", f.FunctionID, score, contract.FunctionLabel(f, cfg.Labels, false))
		}
	}
	_, _ = fmt.Fprintf(out, "\nCheck completed in %v\n", time.Since(start))

	if !result.Passed {
		return ErrCheckFailed
	}
	return nil
}

// ExecuteCatalogValidate loads the catalog and runs every structural check on it.
func ExecuteCatalogValidate(ctx context.Context, cfg *contract.Config) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cat, err := catalog.LoadCatalog(cfg.CatalogPath)
	if err != nil {
		return err
	}
	if err := ValidateCatalog(cat); err != nil {
		return fmt.Errorf("catalog %s is invalid:\n%w", cfg.CatalogPath, err)
	}
	contract.LogInfo("✅ Catalog is valid: %s", cat)
	return nil
}

// ExecuteCatalogMetrics lists the catalog metrics that carry a profile at the configured tier.
func ExecuteCatalogMetrics(ctx context.Context, cfg *contract.Config) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cat, err := catalog.LoadCatalog(cfg.CatalogPath)
	if err != nil {
		return err
	}
	return outwriter.PrintCatalogMetrics(cat.MetricsForTier(cfg.Tier), cfg)
}

// findCurve looks a curve up in the configured catalog.
func findCurve(cfg *contract.Config, curveID string) (*schema.Curve, error) {
	cat, err := catalog.LoadCatalog(cfg.CatalogPath)
	if err != nil {
		return nil, err
	}
	c, ok := cat.CurveMap()[curveID]
	if !ok {
		return nil, fmt.Errorf("curve %q not in catalog", curveID)
	}
	return c, nil
}

// GetCurveMatch evaluates one raw value against a catalog curve.
func GetCurveMatch(ctx context.Context, cfg *contract.Config, curveID, layerID, raw string) (schema.Observation, schema.CurveMatch, error) {
	if err := ctx.Err(); err != nil {
		return schema.Observation{}, schema.CurveMatch{}, err
	}
	c, err := findCurve(cfg, curveID)
	if err != nil {
		return schema.Observation{}, schema.CurveMatch{}, err
	}
	obs, err := catalog.ParseCell(raw)
	if err != nil {
		return schema.Observation{}, schema.CurveMatch{}, err
	}
	if obs.Absent() {
		return schema.Observation{}, schema.CurveMatch{}, errors.New("no value given (use --value)")
	}
	m, err := curve.Explain(c, layerID, obs)
	if err != nil {
		return schema.Observation{}, schema.CurveMatch{}, err
	}
	return obs, m, nil
}

// ExecuteCurveEval evaluates one raw value against a catalog curve and prints the matched points.
func ExecuteCurveEval(ctx context.Context, cfg *contract.Config, curveID, layerID, raw string) error {
	obs, m, err := GetCurveMatch(ctx, cfg, curveID, layerID, raw)
	if err != nil {
		return err
	}
	return outwriter.PrintCurveMatch(obs, m, cfg)
}

// GetBands derives the index bands of a categorical curve layer and reports which layer was used.
func GetBands(ctx context.Context, cfg *contract.Config, curveID, layerID string) (string, []schema.Point, error) {
	if err := ctx.Err(); err != nil {
		return "", nil, err
	}
	c, err := findCurve(cfg, curveID)
	if err != nil {
		return "", nil, err
	}
	points, err := curve.LayerBands(c, layerID)
	if err != nil {
		return "", nil, err
	}
	if l, ok := c.ResolveLayer(layerID); ok {
		layerID = l.ID
	}
	return layerID, points, nil
}

// ExecuteCurveBands prints the derived index bands of a categorical curve layer.
func ExecuteCurveBands(ctx context.Context, cfg *contract.Config, curveID, layerID string) error {
	layerID, points, err := GetBands(ctx, cfg, curveID, layerID)
	if err != nil {
		return err
	}
	return outwriter.PrintBands(curveID, layerID, points, cfg)
}
