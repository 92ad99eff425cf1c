package scenario

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/huangsam/streamscore/internal/catalog"
	"github.com/huangsam/streamscore/internal/contract"
	"github.com/huangsam/streamscore/internal/iocache"
	"github.com/huangsam/streamscore/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func executeConfig(t *testing.T, mode schema.OutputMode) *contract.Config {
	t.Helper()
	return &contract.Config{
		CatalogPath:    "../../testdata/catalog.yaml",
		Tier:           schema.DetailedTier,
		Precision:      2,
		Output:         mode,
		OutputFile:     filepath.Join(t.TempDir(), "out"),
		DirectWeight:   schema.DirectWeight,
		IndirectWeight: schema.IndirectWeight,
		Labels:         contract.DefaultConditionThresholds(),
		StoreBackend:   schema.SQLiteBackend,
	}
}

func readOutput(t *testing.T, cfg *contract.Config) string {
	t.Helper()
	data, err := os.ReadFile(cfg.OutputFile)
	require.NoError(t, err)
	return string(data)
}

// storeWith returns a manager whose scenario store holds the fixture scenario
// and remembers the last scenario saved.
func storeWith(t *testing.T) (*iocache.MockStoreManager, *iocache.MockScenarioStore, **schema.Scenario) {
	t.Helper()
	sc := loadScenario(t)
	var saved *schema.Scenario
	ss := &iocache.MockScenarioStore{}
	ss.On("Get", sc.ID).Return(sc, nil)
	ss.On("Get", mock.Anything).Return(nil, contract.ErrScenarioNotFound)
	ss.On("Put", mock.Anything).Run(func(args mock.Arguments) {
		saved = args.Get(0).(*schema.Scenario)
	}).Return(nil)
	mgr := &iocache.MockStoreManager{}
	mgr.On("GetScenarioStore").Return(ss)
	return mgr, ss, &saved
}

const fixtureID = "0b6c3a56-7f39-4f5e-9f0e-0d2f5d1a7c11"

func TestExecuteNew(t *testing.T) {
	mgr, ss, saved := storeWith(t)
	cfg := executeConfig(t, schema.CSVOut)

	require.NoError(t, ExecuteNew(context.Background(), cfg, mgr, "Lower reach", []string{"bank_erosion", "dissolved_oxygen"}))
	ss.AssertCalled(t, "Put", mock.Anything)
	require.NotNil(t, *saved)
	assert.NotEmpty(t, (*saved).ID)
	assert.Equal(t, "Lower reach", (*saved).Name)
	assert.Equal(t, []string{"bank_erosion", "dissolved_oxygen"}, (*saved).Metrics)

	out := readOutput(t, cfg)
	assert.Contains(t, out, "metric,bank_erosion,-,")
	assert.Contains(t, out, "metric,dissolved_oxygen,-,")
}

func TestExecuteNewUnknownMetric(t *testing.T) {
	mgr, ss, _ := storeWith(t)
	err := ExecuteNew(context.Background(), executeConfig(t, schema.CSVOut), mgr, "x", []string{"nope"})
	assert.ErrorIs(t, err, ErrUnknownMetric)
	ss.AssertNotCalled(t, "Put", mock.Anything)
}

func TestExecuteSet(t *testing.T) {
	mgr, _, saved := storeWith(t)
	cfg := executeConfig(t, schema.CSVOut)

	require.NoError(t, ExecuteSet(context.Background(), cfg, mgr, fixtureID, "dissolved_oxygen", "8"))
	assert.Equal(t, schema.NumberObservation(8), (*saved).Observations["dissolved_oxygen"])
	assert.Contains(t, readOutput(t, cfg), "metric,dissolved_oxygen,0.50,1.00,0.50")
}

func TestExecuteSetVariables(t *testing.T) {
	mgr, _, saved := storeWith(t)
	cfg := executeConfig(t, schema.CSVOut)

	require.NoError(t, ExecuteSet(context.Background(), cfg, mgr, fixtureID, "ept_ratio", "ept=30 total=40"))
	assert.Equal(t, schema.VarsObservation(map[string]float64{"ept": 30, "total": 40}), (*saved).Observations["ept_ratio"])
	assert.Contains(t, readOutput(t, cfg), "metric,ept_ratio,0.40,1.00,0.60")
}

func TestExecuteMutationErrors(t *testing.T) {
	t.Run("unknown scenario", func(t *testing.T) {
		mgr, _, _ := storeWith(t)
		err := ExecuteSet(context.Background(), executeConfig(t, schema.CSVOut), mgr, "missing", "dissolved_oxygen", "8")
		assert.ErrorIs(t, err, contract.ErrScenarioNotFound)
	})

	t.Run("metric not selected", func(t *testing.T) {
		mgr, ss, _ := storeWith(t)
		err := ExecuteRemove(context.Background(), executeConfig(t, schema.CSVOut), mgr, fixtureID, "temperature")
		assert.ErrorIs(t, err, ErrNotSelected)
		ss.AssertNotCalled(t, "Put", mock.Anything)
	})

	t.Run("store disabled", func(t *testing.T) {
		mgr := &iocache.MockStoreManager{}
		mgr.On("GetScenarioStore").Return(nil)
		err := ExecuteAdd(context.Background(), executeConfig(t, schema.CSVOut), mgr, fixtureID, []string{"temperature"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "scenario store is disabled")
	})

	t.Run("save failure", func(t *testing.T) {
		sc := loadScenario(t)
		ss := &iocache.MockScenarioStore{}
		ss.On("Get", sc.ID).Return(sc, nil)
		ss.On("Put", mock.Anything).Return(assert.AnError)
		mgr := &iocache.MockStoreManager{}
		mgr.On("GetScenarioStore").Return(ss)
		err := ExecuteSet(context.Background(), executeConfig(t, schema.CSVOut), mgr, sc.ID, "dissolved_oxygen", "8")
		assert.ErrorIs(t, err, assert.AnError)
	})
}

func TestExecuteAddRemove(t *testing.T) {
	mgr, _, saved := storeWith(t)
	cfg := executeConfig(t, schema.CSVOut)

	require.NoError(t, ExecuteAdd(context.Background(), cfg, mgr, fixtureID, []string{"temperature", "fish_passage"}))
	assert.Equal(t, []string{"flow_alteration", "bank_erosion", "dissolved_oxygen", "ept_ratio", "temperature", "fish_passage"}, (*saved).Metrics)
	out := readOutput(t, cfg)
	assert.Contains(t, out, "metric,temperature,-,")
	assert.Contains(t, out, "metric,fish_passage,-,")

	cfg = executeConfig(t, schema.CSVOut)
	require.NoError(t, ExecuteRemove(context.Background(), cfg, mgr, fixtureID, "bank_erosion"))
	assert.NotContains(t, (*saved).Metrics, "bank_erosion")
	assert.Contains(t, readOutput(t, cfg), "metric,bank_erosion,")
}

func TestExecuteOverride(t *testing.T) {
	t.Run("needs exactly one change", func(t *testing.T) {
		mgr, _, _ := storeWith(t)
		cfg := executeConfig(t, schema.CSVOut)
		assert.Error(t, ExecuteOverride(context.Background(), cfg, mgr, fixtureID, "dissolved_oxygen", OverrideRequest{}))
		assert.Error(t, ExecuteOverride(context.Background(), cfg, mgr, fixtureID, "dissolved_oxygen",
			OverrideRequest{CurveSet: "do_regional", Clear: true}))
	})

	t.Run("curve set", func(t *testing.T) {
		mgr, _, saved := storeWith(t)
		cfg := executeConfig(t, schema.CSVOut)
		require.NoError(t, ExecuteOverride(context.Background(), cfg, mgr, fixtureID, "dissolved_oxygen",
			OverrideRequest{CurveSet: "do_regional"}))
		assert.Equal(t, "do_regional", (*saved).ActiveCurveSets["dissolved_oxygen"])
		assert.Contains(t, readOutput(t, cfg), "metric,dissolved_oxygen,0.50,0.80,0.30")
	})

	t.Run("unknown curve set", func(t *testing.T) {
		mgr, _, _ := storeWith(t)
		err := ExecuteOverride(context.Background(), executeConfig(t, schema.CSVOut), mgr, fixtureID, "dissolved_oxygen",
			OverrideRequest{CurveSet: "temp_curve"})
		assert.ErrorIs(t, err, ErrUnknownSet)
	})

	t.Run("layer", func(t *testing.T) {
		mgr, _, saved := storeWith(t)
		cfg := executeConfig(t, schema.CSVOut)
		require.NoError(t, ExecuteOverride(context.Background(), cfg, mgr, fixtureID, "dissolved_oxygen",
			OverrideRequest{Layer: "coldwater"}))
		assert.Equal(t, "coldwater", (*saved).ActiveLayers["dissolved_oxygen"])
		assert.Contains(t, readOutput(t, cfg), "metric,dissolved_oxygen,0.50,0.17,-0.33")

		err := ExecuteOverride(context.Background(), executeConfig(t, schema.CSVOut), mgr, fixtureID, "flow_alteration",
			OverrideRequest{Layer: "default"})
		assert.ErrorIs(t, err, ErrNoCurve)
	})

	t.Run("curve file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "steep.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`id: steep
domain: quantitative
layers:
  - id: default
    points:
      - {x: 0, y: 0}
      - {x: 5, y: 1}
`), 0o644))

		mgr, _, saved := storeWith(t)
		cfg := executeConfig(t, schema.CSVOut)
		require.NoError(t, ExecuteOverride(context.Background(), cfg, mgr, fixtureID, "dissolved_oxygen",
			OverrideRequest{CurveFile: path}))
		require.Contains(t, (*saved).CurveOverrides, "dissolved_oxygen")
		assert.Equal(t, "steep", (*saved).CurveOverrides["dissolved_oxygen"].ID)
		assert.Contains(t, readOutput(t, cfg), "metric,dissolved_oxygen,0.50,1.00,0.50")
	})

	t.Run("clear", func(t *testing.T) {
		sc := loadScenario(t)
		sc.ActiveCurveSets = map[string]string{"dissolved_oxygen": "do_regional"}
		sc.ActiveLayers = map[string]string{"dissolved_oxygen": "default"}
		var saved *schema.Scenario
		ss := &iocache.MockScenarioStore{}
		ss.On("Get", sc.ID).Return(sc, nil)
		ss.On("Put", mock.Anything).Run(func(args mock.Arguments) {
			saved = args.Get(0).(*schema.Scenario)
		}).Return(nil)
		mgr := &iocache.MockStoreManager{}
		mgr.On("GetScenarioStore").Return(ss)

		cfg := executeConfig(t, schema.CSVOut)
		require.NoError(t, ExecuteOverride(context.Background(), cfg, mgr, sc.ID, "dissolved_oxygen", OverrideRequest{Clear: true}))
		assert.Empty(t, saved.ActiveCurveSets)
		assert.Empty(t, saved.ActiveLayers)
		assert.Contains(t, readOutput(t, cfg), "metric,dissolved_oxygen,0.80,0.50,-0.30")
		assert.Equal(t, "do_regional", sc.ActiveCurveSets["dissolved_oxygen"])
	})
}

func TestExecuteDuplicate(t *testing.T) {
	mgr, _, saved := storeWith(t)
	cfg := executeConfig(t, schema.CSVOut)

	require.NoError(t, ExecuteDuplicate(context.Background(), cfg, mgr, fixtureID, ""))
	require.NotNil(t, *saved)
	assert.NotEqual(t, fixtureID, (*saved).ID)
	assert.Equal(t, "Upper reach baseline (copy)", (*saved).Name)
	assert.Equal(t, loadScenario(t).Metrics, (*saved).Metrics)
}

func TestExecuteImportSheet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "field.csv")
	require.NoError(t, os.WriteFile(path, []byte("metric_id,value\ndissolved_oxygen,8\ntemperature,20\n"), 0o644))

	t.Run("needs scenario id", func(t *testing.T) {
		mgr, _, _ := storeWith(t)
		err := ExecuteImport(context.Background(), executeConfig(t, schema.CSVOut), mgr, path, "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "--scenario-id")
	})

	t.Run("applies observations", func(t *testing.T) {
		mgr, _, saved := storeWith(t)
		cfg := executeConfig(t, schema.CSVOut)
		cfg.ScenarioID = fixtureID

		require.NoError(t, ExecuteImport(context.Background(), cfg, mgr, path, ""))
		assert.Contains(t, (*saved).Metrics, "temperature")
		assert.Equal(t, schema.NumberObservation(20), (*saved).Observations["temperature"])

		out := readOutput(t, cfg)
		assert.Contains(t, out, "metric,dissolved_oxygen,0.50,1.00,0.50")
		assert.Contains(t, out, "metric,temperature,-,0.80,")
	})
}

func TestExecuteImportScenarioFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "new.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: Imported\nmetrics: [dissolved_oxygen]\nobservations:\n  dissolved_oxygen: 5\n"), 0o644))

	mgr, _, saved := storeWith(t)
	cfg := executeConfig(t, schema.CSVOut)
	require.NoError(t, ExecuteImport(context.Background(), cfg, mgr, path, ""))
	require.NotNil(t, *saved)
	assert.NotEmpty(t, (*saved).ID)
	assert.Equal(t, schema.DetailedTier, (*saved).Tier)
	assert.False(t, (*saved).CreatedAt.IsZero())
	assert.Contains(t, readOutput(t, cfg), "metric,dissolved_oxygen,-,0.50,")

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"metrics":["nope"]}`), 0o644))
	err := ExecuteImport(context.Background(), cfg, mgr, bad, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not fit the catalog")
}

func TestExecuteShowListDelete(t *testing.T) {
	mgr, ss, _ := storeWith(t)
	ss.On("List").Return([]schema.ScenarioEntry{{ID: fixtureID, Name: "Upper reach baseline", Tier: schema.DetailedTier, Metrics: 4}}, nil)
	ss.On("Delete", fixtureID).Return(nil)

	cfg := executeConfig(t, schema.TextOut)
	require.NoError(t, ExecuteShow(context.Background(), cfg, mgr, fixtureID))
	assert.Contains(t, readOutput(t, cfg), "name: Upper reach baseline")

	cfg = executeConfig(t, schema.CSVOut)
	require.NoError(t, ExecuteList(context.Background(), cfg, mgr))
	assert.Contains(t, readOutput(t, cfg), fixtureID+",Upper reach baseline,detailed,4,")

	require.NoError(t, ExecuteDelete(context.Background(), mgr, fixtureID))
	ss.AssertCalled(t, "Delete", fixtureID)
}

func TestExecuteExport(t *testing.T) {
	mgr, _, _ := storeWith(t)
	path := filepath.Join(t.TempDir(), "export.json")

	require.NoError(t, ExecuteExport(context.Background(), mgr, fixtureID, path))
	sc, err := catalog.LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, fixtureID, sc.ID)
	assert.Equal(t, loadScenario(t).Metrics, sc.Metrics)

	assert.Error(t, ExecuteExport(context.Background(), mgr, fixtureID, filepath.Join(t.TempDir(), "export.txt")))
}
