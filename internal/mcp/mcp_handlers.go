package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/huangsam/streamscore/core"
	"github.com/huangsam/streamscore/internal/catalog"
	"github.com/huangsam/streamscore/internal/contract"
	"github.com/huangsam/streamscore/schema"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	mgr     contract.StoreManager
}

// requestConfig clones the base config and applies the arguments every tool shares.
func (h *toolHandler) requestConfig(request mcp.CallToolRequest) *contract.Config {
	cfg := h.baseCfg.Clone()
	if p := request.GetString("catalog_path", ""); p != "" {
		cfg.CatalogPath = p
	}
	if p := request.GetString("scenario_path", ""); p != "" {
		cfg.ScenarioPath = p
		cfg.ScenarioID = ""
	} else if id := request.GetString("scenario_id", ""); id != "" {
		cfg.ScenarioPath = ""
		cfg.ScenarioID = id
	}
	return cfg
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleAssessScenario(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.requestConfig(request)

	a, err := core.GetAssessment(ctx, cfg, h.mgr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("assessment failed: %v", err)), nil
	}

	labels := make(map[string]string, len(a.Functions))
	for _, f := range a.Functions {
		labels[f.FunctionID] = contract.FunctionLabel(f, cfg.Labels, false)
	}
	return jsonResult(struct {
		schema.Assessment
		Condition      string            `json:"condition"`
		FunctionLabels map[string]string `json:"functionLabels"`
		Unscored       []string          `json:"unscored,omitempty"`
	}{
		Assessment:     a,
		Condition:      contract.GetPlainLabel(a.Rollup.EcosystemIndex, cfg.Labels),
		FunctionLabels: labels,
		Unscored:       a.Unscored(),
	})
}

func (h *toolHandler) handleEvaluateCurve(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.requestConfig(request)
	curveID := request.GetString("curve_id", "")
	if curveID == "" {
		return mcp.NewToolResultError("curve_id is required"), nil
	}

	obs, m, err := core.GetCurveMatch(ctx, cfg, curveID, request.GetString("layer_id", ""), request.GetString("value", ""))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("curve evaluation failed: %v", err)), nil
	}
	return jsonResult(struct {
		Observation schema.Observation `json:"observation"`
		Label       string             `json:"label"`
		schema.CurveMatch
	}{Observation: obs, Label: contract.GetPlainLabel(m.Score, cfg.Labels), CurveMatch: m})
}

func (h *toolHandler) handleDeriveBands(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.requestConfig(request)
	curveID := request.GetString("curve_id", "")
	if curveID == "" {
		return mcp.NewToolResultError("curve_id is required"), nil
	}

	layerID, points, err := core.GetBands(ctx, cfg, curveID, request.GetString("layer_id", ""))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("band derivation failed: %v", err)), nil
	}
	return jsonResult(map[string]any{"curveId": curveID, "layerId": layerID, "points": points})
}

func (h *toolHandler) handleCompareScenarios(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.requestConfig(request)
	base := request.GetString("base", "")
	target := request.GetString("target", "")
	if base == "" || target == "" {
		return mcp.NewToolResultError("both base and target are required"), nil
	}

	title, cs, err := core.GetComparison(ctx, cfg, h.mgr, base, target)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("comparison failed: %v", err)), nil
	}
	return jsonResult(struct {
		Title string `json:"title"`
		schema.ChangeSummary
	}{Title: title, ChangeSummary: cs})
}

func (h *toolHandler) handleCheckScenario(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.requestConfig(request)
	minIndex := request.GetFloat("min_index", cfg.MinIndex)
	if minIndex < 0 || minIndex > 1 {
		return mcp.NewToolResultError(fmt.Sprintf("min_index must be between 0.0 and 1.0 (received %.2f)", minIndex)), nil
	}

	a, err := core.GetAssessment(ctx, cfg, h.mgr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("assessment failed: %v", err)), nil
	}
	return jsonResult(core.Check(a, minIndex, cfg.MinSubIndices))
}

func (h *toolHandler) handleListMetrics(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.requestConfig(request)
	tier := schema.Tier(request.GetString("tier", string(cfg.Tier)))
	if _, ok := schema.ValidTiers[tier]; !ok {
		return mcp.NewToolResultError(fmt.Sprintf("invalid tier '%s'. must be screening, rapid, detailed", tier)), nil
	}

	cat, err := catalog.LoadCatalog(cfg.CatalogPath)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load catalog: %v", err)), nil
	}
	metrics := cat.MetricsForTier(tier)
	if metrics == nil {
		metrics = []schema.Metric{}
	}
	return jsonResult(metrics)
}

func (h *toolHandler) handleValidateCatalog(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.requestConfig(request)
	cat, err := catalog.LoadCatalog(cfg.CatalogPath)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load catalog: %v", err)), nil
	}
	if err := core.ValidateCatalog(cat); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("catalog is invalid:\n%v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("catalog is valid: %s", cat)), nil
}
