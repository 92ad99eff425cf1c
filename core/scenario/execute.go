package scenario

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/huangsam/streamscore/core"
	"github.com/huangsam/streamscore/internal/catalog"
	"github.com/huangsam/streamscore/internal/contract"
	"github.com/huangsam/streamscore/internal/outwriter"
	"github.com/huangsam/streamscore/schema"
)

// OverrideRequest describes one curve change for ExecuteOverride. Exactly one field is used.
type OverrideRequest struct {
	CurveFile string // replace the metric's curve with the curve in this file
	CurveSet  string // pick one of the metric's referenced curve sets
	Layer     string // pick a layer of the metric's current curve
	Clear     bool   // drop the override and the curve set and layer choices
}

// mutation applies one engine operation to a stored scenario.
type mutation func(e *Engine, sc *schema.Scenario) (*schema.Scenario, schema.ChangeSummary, error)

func scenarioStore(mgr contract.StoreManager) (contract.ScenarioStore, error) {
	if mgr == nil || mgr.GetScenarioStore() == nil {
		return nil, fmt.Errorf("scenario store is disabled (set --store-backend)")
	}
	return mgr.GetScenarioStore(), nil
}

func openEngine(ctx context.Context, cfg *contract.Config) (*Engine, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cat, err := catalog.LoadCatalog(cfg.CatalogPath)
	if err != nil {
		return nil, err
	}
	return NewEngine(cat, core.OptionsFromConfig(cfg)), nil
}

// executeMutation loads a stored scenario, applies fn, saves the result and prints what changed.
func executeMutation(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager, id, verb string, fn mutation) error {
	start := time.Now()
	store, err := scenarioStore(mgr)
	if err != nil {
		return err
	}
	e, err := openEngine(ctx, cfg)
	if err != nil {
		return err
	}
	sc, err := store.Get(id)
	if err != nil {
		return fmt.Errorf("scenario %s: %w", id, err)
	}
	next, cs, err := fn(e, sc)
	if err != nil {
		return err
	}
	if err := store.Put(next); err != nil {
		return fmt.Errorf("failed to save scenario %s: %w", next.ID, err)
	}
	return outwriter.PrintChanges(fmt.Sprintf("Scenario %s: %s", next.ID, verb), cs, cfg, time.Since(start))
}

// ExecuteNew creates a scenario at the configured tier, stores it and prints the seeded scores.
func ExecuteNew(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager, name string, metricIDs []string) error {
	start := time.Now()
	store, err := scenarioStore(mgr)
	if err != nil {
		return err
	}
	e, err := openEngine(ctx, cfg)
	if err != nil {
		return err
	}
	sc, cs, err := e.New(name, cfg.Tier, metricIDs...)
	if err != nil {
		return err
	}
	if err := store.Put(sc); err != nil {
		return fmt.Errorf("failed to save scenario %s: %w", sc.ID, err)
	}
	contract.LogInfo("Created scenario %s", sc.ID)
	return outwriter.PrintChanges(fmt.Sprintf("Scenario %s: created", sc.ID), cs, cfg, time.Since(start))
}

// ExecuteShow prints a stored scenario.
func ExecuteShow(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	sc, err := core.LoadStoredScenario(mgr, id)
	if err != nil {
		return err
	}
	return outwriter.PrintScenario(sc, cfg)
}

// ExecuteList prints the stored scenarios, most recently updated first.
func ExecuteList(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	store, err := scenarioStore(mgr)
	if err != nil {
		return err
	}
	entries, err := store.List()
	if err != nil {
		return fmt.Errorf("failed to list scenarios: %w", err)
	}
	return outwriter.PrintScenarioList(entries, cfg)
}

// ExecuteDelete removes a stored scenario.
func ExecuteDelete(ctx context.Context, mgr contract.StoreManager, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	store, err := scenarioStore(mgr)
	if err != nil {
		return err
	}
	if err := store.Delete(id); err != nil {
		return fmt.Errorf("failed to delete scenario %s: %w", id, err)
	}
	contract.LogInfo("Deleted scenario %s", id)
	return nil
}

// ExecuteAdd selects metrics on a stored scenario, seeding each with its default observation.
func ExecuteAdd(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager, id string, metricIDs []string) error {
	return executeMutation(ctx, cfg, mgr, id, "added "+strings.Join(metricIDs, ", "),
		func(e *Engine, sc *schema.Scenario) (*schema.Scenario, schema.ChangeSummary, error) {
			before, err := e.Assess(sc)
			if err != nil {
				return nil, schema.ChangeSummary{}, err
			}
			next := sc
			for _, metricID := range metricIDs {
				if next, _, err = e.AddMetric(next, metricID); err != nil {
					return nil, schema.ChangeSummary{}, err
				}
			}
			return diffFrom(e, before, next)
		})
}

// ExecuteRemove deselects a metric from a stored scenario.
func ExecuteRemove(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager, id, metricID string) error {
	return executeMutation(ctx, cfg, mgr, id, "removed "+metricID,
		func(e *Engine, sc *schema.Scenario) (*schema.Scenario, schema.ChangeSummary, error) {
			return e.RemoveMetric(sc, metricID)
		})
}

// ExecuteSet records an observation, read the way a field sheet cell is read.
func ExecuteSet(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager, id, metricID, raw string) error {
	obs, err := catalog.ParseCell(raw)
	if err != nil {
		return fmt.Errorf("metric %s: %w", metricID, err)
	}
	return executeMutation(ctx, cfg, mgr, id, fmt.Sprintf("set %s = %s", metricID, obs),
		func(e *Engine, sc *schema.Scenario) (*schema.Scenario, schema.ChangeSummary, error) {
			return e.SetObservation(sc, metricID, obs)
		})
}

// ExecuteOverride changes which curve a metric of a stored scenario is scored with.
func ExecuteOverride(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager, id, metricID string, req OverrideRequest) error {
	set := 0
	for _, used := range []bool{req.CurveFile != "", req.CurveSet != "", req.Layer != "", req.Clear} {
		if used {
			set++
		}
	}
	if set != 1 {
		return fmt.Errorf("exactly one of --curve-file, --curve-set, --layer or --clear is required")
	}

	switch {
	case req.Clear:
		return executeMutation(ctx, cfg, mgr, id, "cleared curve choice for "+metricID,
			func(e *Engine, sc *schema.Scenario) (*schema.Scenario, schema.ChangeSummary, error) {
				before, err := e.Assess(sc)
				if err != nil {
					return nil, schema.ChangeSummary{}, err
				}
				next, _, err := e.ClearCurveOverride(sc, metricID)
				if err != nil {
					return nil, schema.ChangeSummary{}, err
				}
				if next.HasMetric(metricID) {
					if next, _, err = e.SetActiveCurveSet(next, metricID, ""); err != nil {
						return nil, schema.ChangeSummary{}, err
					}
					if next, _, err = e.SetActiveLayer(next, metricID, ""); err != nil {
						return nil, schema.ChangeSummary{}, err
					}
				}
				return diffFrom(e, before, next)
			})
	case req.CurveSet != "":
		return executeMutation(ctx, cfg, mgr, id, fmt.Sprintf("%s uses curve set %s", metricID, req.CurveSet),
			func(e *Engine, sc *schema.Scenario) (*schema.Scenario, schema.ChangeSummary, error) {
				return e.SetActiveCurveSet(sc, metricID, req.CurveSet)
			})
	case req.Layer != "":
		return executeMutation(ctx, cfg, mgr, id, fmt.Sprintf("%s uses layer %s", metricID, req.Layer),
			func(e *Engine, sc *schema.Scenario) (*schema.Scenario, schema.ChangeSummary, error) {
				return e.SetActiveLayer(sc, metricID, req.Layer)
			})
	default:
		c, err := catalog.LoadCurve(req.CurveFile)
		if err != nil {
			return err
		}
		return executeMutation(ctx, cfg, mgr, id, fmt.Sprintf("%s overridden with curve %s", metricID, c.ID),
			func(e *Engine, sc *schema.Scenario) (*schema.Scenario, schema.ChangeSummary, error) {
				return e.SetCurveOverride(sc, metricID, c)
			})
	}
}

// ExecuteDuplicate stores a copy of a scenario under a new id.
func ExecuteDuplicate(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager, id, name string) error {
	start := time.Now()
	store, err := scenarioStore(mgr)
	if err != nil {
		return err
	}
	e, err := openEngine(ctx, cfg)
	if err != nil {
		return err
	}
	sc, err := store.Get(id)
	if err != nil {
		return fmt.Errorf("scenario %s: %w", id, err)
	}
	dup, cs, err := e.Duplicate(sc, name)
	if err != nil {
		return err
	}
	if err := store.Put(dup); err != nil {
		return fmt.Errorf("failed to save scenario %s: %w", dup.ID, err)
	}
	contract.LogInfo("Duplicated scenario %s as %s", id, dup.ID)
	return outwriter.PrintChanges(fmt.Sprintf("Scenario %s: duplicated from %s", dup.ID, id), cs, cfg, time.Since(start))
}

// ExecuteImport brings outside data into the store. A field sheet (xlsx or csv)
// applies its observations to the scenario named by --scenario-id, selecting
// metrics it does not have yet; a scenario file (yaml or json) is stored whole.
func ExecuteImport(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager, path, sheet string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm", ".csv":
		if cfg.ScenarioID == "" {
			return fmt.Errorf("importing a field sheet needs --scenario-id")
		}
		observations, err := catalog.NewSheetReader(path, sheet).ReadObservations()
		if err != nil {
			return err
		}
		return executeMutation(ctx, cfg, mgr, cfg.ScenarioID, fmt.Sprintf("imported %d observation(s)", len(observations)),
			func(e *Engine, sc *schema.Scenario) (*schema.Scenario, schema.ChangeSummary, error) {
				return e.applyObservations(sc, observations)
			})
	}
	return importScenarioFile(ctx, cfg, mgr, path)
}

func importScenarioFile(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager, path string) error {
	start := time.Now()
	store, err := scenarioStore(mgr)
	if err != nil {
		return err
	}
	e, err := openEngine(ctx, cfg)
	if err != nil {
		return err
	}
	sc, err := catalog.LoadScenario(path)
	if err != nil {
		return err
	}
	if sc.ID == "" {
		sc.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if sc.CreatedAt.IsZero() {
		sc.CreatedAt = now
	}
	sc.UpdatedAt = now

	after, err := e.Assess(sc)
	if err != nil {
		return fmt.Errorf("scenario %s does not fit the catalog: %w", path, err)
	}
	if err := store.Put(sc); err != nil {
		return fmt.Errorf("failed to save scenario %s: %w", sc.ID, err)
	}
	contract.LogInfo("Imported scenario %s", sc.ID)
	return outwriter.PrintChanges(fmt.Sprintf("Scenario %s: imported", sc.ID), core.Diff(schema.Assessment{}, after), cfg, time.Since(start))
}

// ExecuteExport writes a stored scenario to a yaml or json file.
func ExecuteExport(ctx context.Context, mgr contract.StoreManager, id, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	sc, err := core.LoadStoredScenario(mgr, id)
	if err != nil {
		return err
	}
	if err := catalog.SaveScenario(path, sc); err != nil {
		return fmt.Errorf("failed to export scenario %s: %w", id, err)
	}
	contract.LogInfo("Exported scenario %s to %s", id, path)
	return nil
}

// applyObservations selects every metric in observations and records its value.
// Metrics are applied in id order so the result does not depend on map iteration.
func (e *Engine) applyObservations(sc *schema.Scenario, observations map[string]schema.Observation) (*schema.Scenario, schema.ChangeSummary, error) {
	before, err := e.Assess(sc)
	if err != nil {
		return nil, schema.ChangeSummary{}, err
	}
	ids := make([]string, 0, len(observations))
	for id := range observations {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	next := sc
	for _, id := range ids {
		if !next.HasMetric(id) {
			if next, _, err = e.AddMetric(next, id); err != nil {
				return nil, schema.ChangeSummary{}, err
			}
		}
		if next, _, err = e.SetObservation(next, id, observations[id]); err != nil {
			return nil, schema.ChangeSummary{}, err
		}
	}
	return diffFrom(e, before, next)
}

// diffFrom summarizes a chain of mutations against the assessment taken before the first one.
func diffFrom(e *Engine, before schema.Assessment, next *schema.Scenario) (*schema.Scenario, schema.ChangeSummary, error) {
	after, err := e.Assess(next)
	if err != nil {
		return nil, schema.ChangeSummary{}, err
	}
	return next, core.Diff(before, after), nil
}
