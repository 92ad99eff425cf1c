package parquet

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/streamscore/schema"
	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRuns() []AssessmentRun {
	params := `{"tier":"detailed","precision":2}`
	now := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
	return []AssessmentRun{
		{RunID: 1, ScenarioID: "upper", Tier: "detailed", RunTime: now, MetricCount: 4, ScoredMetrics: 4, EcosystemIndex: 0.506, ConfigParams: &params},
		{RunID: 2, ScenarioID: "lower", Tier: "rapid", RunTime: now.Add(time.Hour), MetricCount: 2, ScoredMetrics: 1, EcosystemIndex: 0.21},
	}
}

func readAll[T any](t *testing.T, path string) []T {
	t.Helper()
	file, err := os.Open(path)
	require.NoError(t, err)
	defer func() { _ = file.Close() }()

	reader := parquet.NewGenericReader[T](file)
	defer func() { _ = reader.Close() }()

	rows := make([]T, reader.NumRows())
	n, err := reader.Read(rows)
	if err != nil && err != io.EOF {
		require.NoError(t, err)
	}
	return rows[:n]
}

func TestStructTags(t *testing.T) {
	tests := []struct {
		name    string
		model   any
		columns []string
	}{
		{"runs", new(AssessmentRun), []string{"run_id", "scenario_id", "tier", "run_time", "metric_count", "scored_metrics", "ecosystem_index", "config_params"}},
		{"functions", new(FunctionScore), []string{"run_id", "function_id", "score", "scored", "contributing"}},
		{"outcomes", new(OutcomeScore), []string{"run_id", "outcome", "direct", "indirect", "weighted", "max_weighted", "sub_index"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := parquet.SchemaOf(tt.model)
			for _, col := range tt.columns {
				_, ok := s.Lookup(col)
				assert.True(t, ok, "column %s should exist", col)
			}
		})
	}
}

func TestWriteAssessmentRunsParquet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.parquet")
	data := sampleRuns()
	require.NoError(t, WriteAssessmentRunsParquet(data, path))

	got := readAll[AssessmentRun](t, path)
	require.Len(t, got, len(data))
	for i := range data {
		assert.Equal(t, data[i].RunID, got[i].RunID)
		assert.Equal(t, data[i].ScenarioID, got[i].ScenarioID)
		assert.InDelta(t, data[i].EcosystemIndex, got[i].EcosystemIndex, 1e-12)
		assert.WithinDuration(t, data[i].RunTime, got[i].RunTime, time.Microsecond)
	}
	require.NotNil(t, got[0].ConfigParams)
	assert.Equal(t, *data[0].ConfigParams, *got[0].ConfigParams)
	assert.Nil(t, got[1].ConfigParams)
}

func TestWriteScoresParquet(t *testing.T) {
	dir := t.TempDir()

	functions := ConvertFunctionScoreRecords([]schema.FunctionScoreRecord{
		{RunID: 1, FunctionID: "hydrology", Score: 7.5, Scored: true, Contributing: 1},
		{RunID: 1, FunctionID: "biota"},
	})
	fPath := filepath.Join(dir, "functions.parquet")
	require.NoError(t, WriteFunctionScoresParquet(functions, fPath))
	gotF := readAll[FunctionScore](t, fPath)
	assert.Equal(t, functions, gotF)

	outcomes := ConvertOutcomeScoreRecords([]schema.OutcomeScoreRecord{
		{RunID: 1, Outcome: "physical", Direct: 2, Indirect: 0, Weighted: 17.5, MaxWeighted: 30, SubIndex: 17.5 / 30},
	})
	oPath := filepath.Join(dir, "outcomes.parquet")
	require.NoError(t, WriteOutcomeScoresParquet(outcomes, oPath))
	assert.Equal(t, outcomes, readAll[OutcomeScore](t, oPath))
}

func TestWriteParquetEmptyAndBadPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.parquet")
	require.NoError(t, WriteAssessmentRunsParquet(nil, path))
	assert.Empty(t, readAll[AssessmentRun](t, path))

	err := WriteAssessmentRunsParquet(sampleRuns(), filepath.Join(t.TempDir(), "missing", "runs.parquet"))
	assert.ErrorContains(t, err, "failed to create output file")
}

func TestConvertAssessmentRunRecords(t *testing.T) {
	params := "{}"
	records := []schema.AssessmentRunRecord{{RunID: 7, ScenarioID: "s", Tier: "detailed", MetricCount: 3, ScoredMetrics: 2, EcosystemIndex: 0.4, ConfigParams: &params}}
	got := ConvertAssessmentRunRecords(records)
	require.Len(t, got, 1)
	assert.Equal(t, int64(7), got[0].RunID)
	assert.Equal(t, int32(2), got[0].ScoredMetrics)
	assert.Same(t, &params, got[0].ConfigParams)
}
