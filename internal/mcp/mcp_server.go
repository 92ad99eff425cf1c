// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/huangsam/streamscore/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer initializes and configures the Streamscore MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, mgr contract.StoreManager) *server.MCPServer {
	s := server.NewMCPServer(
		"Streamscore Assessment Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		mgr:     mgr,
	}

	// --- 1. Tool: assess_scenario ---
	s.AddTool(mcp.NewTool("assess_scenario",
		mcp.WithDescription("Score a stream assessment scenario and roll metric scores up to functions, outcomes and the ecosystem condition index."),
		mcp.WithString("scenario_path", mcp.Description("Path to a scenario file (YAML or JSON).")),
		mcp.WithString("scenario_id", mcp.Description("Id of a scenario in the scenario store. Used when scenario_path is empty.")),
		mcp.WithString("catalog_path", mcp.Description("Path to the metric catalog (defaults to the configured catalog).")),
	), h.handleAssessScenario)

	// --- 2. Tool: evaluate_curve ---
	s.AddTool(mcp.NewTool("evaluate_curve",
		mcp.WithDescription("Evaluate a raw field value against a reference curve and return the index score with the matched points."),
		mcp.WithString("curve_id", mcp.Description("Curve id from the catalog."), mcp.Required()),
		mcp.WithString("value", mcp.Description("Raw value: a number, a category label, or name=value pairs."), mcp.Required()),
		mcp.WithString("layer_id", mcp.Description("Curve layer (defaults to the curve's active layer).")),
		mcp.WithString("catalog_path", mcp.Description("Path to the metric catalog.")),
	), h.handleEvaluateCurve)

	// --- 3. Tool: derive_bands ---
	s.AddTool(mcp.NewTool("derive_bands",
		mcp.WithDescription("Derive the index band of every point of a categorical curve layer."),
		mcp.WithString("curve_id", mcp.Description("Curve id from the catalog."), mcp.Required()),
		mcp.WithString("layer_id", mcp.Description("Curve layer (defaults to the curve's active layer).")),
		mcp.WithString("catalog_path", mcp.Description("Path to the metric catalog.")),
	), h.handleDeriveBands)

	// --- 4. Tool: compare_scenarios ---
	s.AddTool(mcp.NewTool("compare_scenarios",
		mcp.WithDescription("Compare two scenarios and list which metric, function and outcome scores changed."),
		mcp.WithString("base", mcp.Description("Base scenario: a file path or a stored scenario id."), mcp.Required()),
		mcp.WithString("target", mcp.Description("Target scenario: a file path or a stored scenario id."), mcp.Required()),
		mcp.WithString("catalog_path", mcp.Description("Path to the metric catalog.")),
	), h.handleCompareScenarios)

	// --- 5. Tool: check_scenario ---
	s.AddTool(mcp.NewTool("check_scenario",
		mcp.WithDescription("Gate a scenario against a minimum ecosystem condition index."),
		mcp.WithString("scenario_path", mcp.Description("Path to a scenario file (YAML or JSON).")),
		mcp.WithString("scenario_id", mcp.Description("Id of a scenario in the scenario store.")),
		mcp.WithNumber("min_index", mcp.Description("Minimum ecosystem index between 0 and 1 (defaults to the configured minimum).")),
		mcp.WithString("catalog_path", mcp.Description("Path to the metric catalog.")),
	), h.handleCheckScenario)

	// --- 6. Tool: list_metrics ---
	s.AddTool(mcp.NewTool("list_metrics",
		mcp.WithDescription("List catalog metrics that can be scored at an assessment tier."),
		mcp.WithString("tier", mcp.Description("Assessment tier. Defaults to the configured tier."), mcp.Enum("screening", "rapid", "detailed")),
		mcp.WithString("catalog_path", mcp.Description("Path to the metric catalog.")),
	), h.handleListMetrics)

	// --- 7. Tool: validate_catalog ---
	s.AddTool(mcp.NewTool("validate_catalog",
		mcp.WithDescription("Check a metric catalog for structural problems such as unsorted curves or missing references."),
		mcp.WithString("catalog_path", mcp.Description("Path to the metric catalog.")),
	), h.handleValidateCatalog)

	return s
}

// StartMCPServer starts the Streamscore MCP server.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, mgr contract.StoreManager) error {
	s := NewMCPServer(baseCfg, mgr)
	return server.ServeStdio(s)
}
