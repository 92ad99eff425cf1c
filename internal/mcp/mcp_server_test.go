package mcp_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/huangsam/streamscore/internal/contract"
	"github.com/huangsam/streamscore/internal/iocache"
	mcp_internal "github.com/huangsam/streamscore/internal/mcp"
	"github.com/huangsam/streamscore/schema"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	catalogFixture  = "../../testdata/catalog.yaml"
	scenarioFixture = "../../testdata/scenario.yaml"
)

func baseConfig() *contract.Config {
	return &contract.Config{
		CatalogPath:    catalogFixture,
		Tier:           schema.DetailedTier,
		Precision:      2,
		Output:         schema.JSONOut,
		DirectWeight:   schema.DirectWeight,
		IndirectWeight: schema.IndirectWeight,
		Labels:         contract.DefaultConditionThresholds(),
	}
}

func callTool(t *testing.T, mgr contract.StoreManager, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	s := mcp_internal.NewMCPServer(baseConfig(), mgr)
	tool := s.GetTool(name)
	require.NotNil(t, tool, "Tool %s should exist", name)

	req := mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
	res, err := tool.Handler(context.Background(), req)
	require.NoError(t, err, "The MCP handler should not return a raw error for tool logic failures")
	require.NotEmpty(t, res.Content)
	return res
}

func resultText(res *mcp.CallToolResult) string {
	return res.Content[0].(mcp.TextContent).Text
}

func TestMCPServerHandlers(t *testing.T) {
	t.Run("assess_scenario from file", func(t *testing.T) {
		res := callTool(t, nil, "assess_scenario", map[string]any{"scenario_path": scenarioFixture})
		require.False(t, res.IsError, resultText(res))

		var got map[string]any
		require.NoError(t, json.Unmarshal([]byte(resultText(res)), &got))
		assert.Equal(t, "Functioning At Risk", got["condition"])
		assert.Contains(t, got, "rollup")
		assert.Len(t, got["functions"], 4)
	})

	t.Run("assess_scenario from store", func(t *testing.T) {
		sc := &schema.Scenario{ID: "s1", Tier: schema.DetailedTier, Metrics: []string{"dissolved_oxygen"},
			Observations: map[string]schema.Observation{"dissolved_oxygen": schema.NumberObservation(8)}}
		ss := &iocache.MockScenarioStore{}
		ss.On("Get", "s1").Return(sc, nil)
		mgr := &iocache.MockStoreManager{}
		mgr.On("GetScenarioStore").Return(ss)

		res := callTool(t, mgr, "assess_scenario", map[string]any{"scenario_id": "s1"})
		require.False(t, res.IsError, resultText(res))
		assert.Contains(t, resultText(res), `"scenarioId": "s1"`)
		assert.Contains(t, resultText(res), `"biota"`)
	})

	t.Run("evaluate_curve", func(t *testing.T) {
		res := callTool(t, nil, "evaluate_curve", map[string]any{"curve_id": "do_statewide", "value": "5"})
		require.False(t, res.IsError, resultText(res))

		var got map[string]any
		require.NoError(t, json.Unmarshal([]byte(resultText(res)), &got))
		assert.InDelta(t, 0.5, got["score"], 1e-9)
		assert.Equal(t, "default", got["layerId"])
		assert.Equal(t, "Functioning At Risk", got["label"])
	})

	t.Run("derive_bands", func(t *testing.T) {
		res := callTool(t, nil, "derive_bands", map[string]any{"curve_id": "embeddedness_curve"})
		require.False(t, res.IsError, resultText(res))

		var got struct {
			LayerID string         `json:"layerId"`
			Points  []schema.Point `json:"points"`
		}
		require.NoError(t, json.Unmarshal([]byte(resultText(res)), &got))
		assert.Equal(t, "default", got.LayerID)
		assert.Len(t, got.Points, 4)
	})

	t.Run("compare_scenarios", func(t *testing.T) {
		res := callTool(t, nil, "compare_scenarios", map[string]any{"base": scenarioFixture, "target": scenarioFixture})
		require.False(t, res.IsError, resultText(res))
		assert.Contains(t, resultText(res), `"title": "Comparison: Upper reach baseline -> Upper reach baseline"`)
		assert.NotContains(t, resultText(res), `"metrics"`)
	})

	t.Run("check_scenario", func(t *testing.T) {
		res := callTool(t, nil, "check_scenario", map[string]any{"scenario_path": scenarioFixture, "min_index": 0.9})
		require.False(t, res.IsError, resultText(res))

		var got schema.CheckResult
		require.NoError(t, json.Unmarshal([]byte(resultText(res)), &got))
		assert.False(t, got.Passed)
		assert.Len(t, got.Failures, 1)
	})

	t.Run("list_metrics", func(t *testing.T) {
		res := callTool(t, nil, "list_metrics", map[string]any{"tier": "rapid"})
		require.False(t, res.IsError, resultText(res))
		assert.Contains(t, resultText(res), `"ept_ratio"`)
		assert.NotContains(t, resultText(res), `"fish_passage"`)
	})

	t.Run("validate_catalog", func(t *testing.T) {
		res := callTool(t, nil, "validate_catalog", map[string]any{})
		require.False(t, res.IsError, resultText(res))
		assert.Contains(t, resultText(res), "catalog is valid")
	})
}

func TestMCPServerHandlers_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		tool string
		args map[string]any
		want string
	}{
		{"assess without scenario", "assess_scenario", map[string]any{}, "no scenario given"},
		{"assess with store disabled", "assess_scenario", map[string]any{"scenario_id": "x"}, "scenario store is disabled"},
		{"evaluate_curve missing curve", "evaluate_curve", map[string]any{"value": "5"}, "curve_id is required"},
		{"evaluate_curve unknown curve", "evaluate_curve", map[string]any{"curve_id": "nope", "value": "5"}, "not in catalog"},
		{"evaluate_curve empty value", "evaluate_curve", map[string]any{"curve_id": "do_statewide", "value": ""}, "no value given"},
		{"derive_bands unknown layer", "derive_bands", map[string]any{"curve_id": "embeddedness_curve", "layer_id": "x"}, "band derivation failed"},
		{"compare missing target", "compare_scenarios", map[string]any{"base": scenarioFixture}, "both base and target are required"},
		{"check invalid min_index", "check_scenario", map[string]any{"scenario_path": scenarioFixture, "min_index": 1.5}, "min_index must be between"},
		{"list_metrics invalid tier", "list_metrics", map[string]any{"tier": "bogus"}, "invalid tier"},
		{"validate missing catalog", "validate_catalog", map[string]any{"catalog_path": "missing.yaml"}, "failed to load catalog"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := callTool(t, nil, tt.tool, tt.args)
			assert.True(t, res.IsError, "The response should indicate an error state")
			assert.Contains(t, resultText(res), tt.want)
		})
	}
}
