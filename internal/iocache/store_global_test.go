package iocache

import (
	"bytes"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/huangsam/streamscore/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func resetGlobals() {
	initOnce = sync.Once{}
	closeOnce = sync.Once{}
	Manager = &StoreManagerImpl{}
}

func TestInitStores(t *testing.T) {
	t.Run("sqlite stores", func(t *testing.T) {
		resetGlobals()
		dir := t.TempDir()
		storePath := filepath.Join(dir, "scenarios.db")
		historyPath := filepath.Join(dir, "history.db")

		require.NoError(t, InitStores(schema.SQLiteBackend, storePath, schema.SQLiteBackend, historyPath))
		require.NotNil(t, Manager.GetScenarioStore())
		require.NotNil(t, Manager.GetHistoryStore())

		// Later calls are no-ops.
		require.NoError(t, InitStores(schema.NoneBackend, "", "", ""))
		status, err := Manager.GetScenarioStore().GetStatus()
		require.NoError(t, err)
		assert.Equal(t, "sqlite", status.Backend)

		CloseStores()
		CloseStores()

		_, err = os.Stat(storePath)
		assert.NoError(t, err)
		_, err = os.Stat(historyPath)
		assert.NoError(t, err)
	})

	t.Run("history disabled", func(t *testing.T) {
		resetGlobals()
		require.NoError(t, InitStores(schema.NoneBackend, "", "", ""))
		assert.NotNil(t, Manager.GetScenarioStore())
		assert.Nil(t, Manager.GetHistoryStore())
		CloseStores()
	})

	t.Run("bad backend", func(t *testing.T) {
		resetGlobals()
		err := InitStores("oracle", "", "", "")
		assert.ErrorContains(t, err, "scenario store")

		resetGlobals()
		err = InitStores(schema.NoneBackend, "", "oracle", "")
		assert.ErrorContains(t, err, "history store")
	})
	resetGlobals()
}

func TestStoreManagerConcurrency(t *testing.T) {
	mgr := &StoreManagerImpl{}
	store, err := NewScenarioStore(scenariosTable, schema.NoneBackend, "")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if i%2 == 0 {
				mgr.Lock()
				mgr.scenarios = store
				mgr.Unlock()
				return
			}
			_ = mgr.GetScenarioStore()
			_ = mgr.GetHistoryStore()
		}()
	}
	wg.Wait()
	assert.Equal(t, store, mgr.GetScenarioStore())
}

func TestClearBackends(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "history.db")
	store, err := NewHistoryStore(schema.SQLiteBackend, path)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	require.NoError(t, ClearHistory(schema.SQLiteBackend, path, ""))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	// Clearing twice is fine.
	assert.NoError(t, ClearHistory(schema.SQLiteBackend, path, ""))
	assert.NoError(t, ClearScenarios(schema.NoneBackend, "", ""))
	assert.Error(t, ClearScenarios(schema.SQLiteBackend, "", ""))
	assert.Error(t, ClearScenarios("oracle", "", ""))
}

func TestPrintStatus(t *testing.T) {
	var buf bytes.Buffer
	PrintStoreStatus(&buf, schema.StoreStatus{Backend: "none"})
	assert.Equal(t, "Scenario Backend: none\nConnected: false\n", buf.String())

	buf.Reset()
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	PrintHistoryStatus(&buf, schema.HistoryStatus{
		Backend: "sqlite", Connected: true, TotalRuns: 2, LastRunID: 9, LastRunTime: ts, OldestRunTime: ts,
		TableSizes: map[string]int64{outcomeScoresTable: 6, assessmentRunsTable: 2},
	})
	out := buf.String()
	assert.Contains(t, out, "Last Run ID: 9")
	assert.Contains(t, out, "Last Run: 2024-01-02 03:04:05")
	assert.Less(t, bytes.Index(buf.Bytes(), []byte(assessmentRunsTable)), bytes.Index(buf.Bytes(), []byte(outcomeScoresTable)))
}

func TestExportHistory(t *testing.T) {
	var out bytes.Buffer
	assert.ErrorContains(t, ExportHistory(&out, &MockHistoryStore{}, ""), "--output-file")
	assert.ErrorContains(t, ExportHistory(&out, nil, "x"), "history is disabled")

	empty := &MockHistoryStore{}
	empty.On("GetStatus").Return(schema.HistoryStatus{Backend: "sqlite", Connected: true}, nil)
	assert.ErrorContains(t, ExportHistory(&out, empty, "x"), "no assessment history")
	empty.AssertExpectations(t)

	store := newSQLiteHistoryStore(t)
	_, err := store.RecordAssessment(testAssessment("upper", 0.3), time.Now(), nil)
	require.NoError(t, err)

	prefix := filepath.Join(t.TempDir(), "history")
	require.NoError(t, ExportHistory(&out, store, prefix))
	for _, suffix := range []string{".assessment_runs.parquet", ".function_scores.parquet", ".outcome_scores.parquet"} {
		info, err := os.Stat(prefix + suffix)
		require.NoError(t, err)
		assert.Positive(t, info.Size())
	}
	assert.Contains(t, out.String(), "Exported 3 outcome score records")
}

func TestExportHistoryStoreError(t *testing.T) {
	store := &MockHistoryStore{}
	store.On("GetStatus").Return(schema.HistoryStatus{TotalRuns: 1}, nil)
	store.On("GetAllAssessmentRuns").Return(nil, assert.AnError)

	err := ExportHistory(&bytes.Buffer{}, store, filepath.Join(t.TempDir(), "h"))
	assert.ErrorIs(t, err, assert.AnError)
	store.AssertNotCalled(t, "GetAllFunctionScores", mock.Anything)
}
