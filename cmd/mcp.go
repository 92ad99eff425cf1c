package cmd

import (
	"github.com/spf13/cobra"

	"github.com/huangsam/streamscore/internal/httpapi"
	"github.com/huangsam/streamscore/internal/mcp"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the Streamscore MCP server",
	Long:  `Launch an MCP server over stdio that lets AI agents assess scenarios and evaluate curves via standard tools.`,
	PreRunE: func(_ *cobra.Command, _ []string) error {
		// Progress lines go to stderr, so stdout stays clean for the protocol.
		return sharedSetup("")
	},
	RunE: func(_ *cobra.Command, _ []string) error {
		return mcp.StartMCPServer(rootCtx, cfg, storeManager)
	},
}

// serveCmd runs the HTTP API.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve assessments and scenario editing over HTTP",
	Long: `Start a JSON HTTP API over the catalog and the scenario store.
Prometheus metrics are exposed at /metrics.

Examples:
  streamscore serve --listen 0.0.0.0:8080 --catalog catalog.yaml
  curl -s localhost:8080/api/curves/do_statewide/evaluate?value=5`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		s, err := httpapi.NewServer(cfg, storeManager)
		if err != nil {
			return err
		}
		return s.Start(rootCtx)
	},
}
