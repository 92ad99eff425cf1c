package cmd

import (
	"github.com/spf13/cobra"

	"github.com/huangsam/streamscore/core"
	"github.com/huangsam/streamscore/internal/contract"
)

// catalogCmd groups reference data operations.
var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect and validate the metric catalog",
	Long: `Work with the catalog of metrics, functions, outcome mappings, rating
scales and curves that every assessment is scored against.

Subcommands:
  validate - Check structural rules and report every violation
  metrics  - List metrics with a profile at --tier`,
}

var catalogValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the catalog for structural problems",
	Long: `Report every broken rule in the catalog: curves with too few points,
thresholds out of order, unknown functions or rating scales, and formula
variables that are never defined.

Examples:
  streamscore catalog validate --catalog catalogs/statewide.yaml`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteCatalogValidate(rootCtx, cfg); err != nil {
			contract.LogFatal("Validation failed", err)
		}
	},
}

var catalogMetricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "List metrics available at a tier",
	Long: `List the catalog metrics that have a scoring profile at --tier.

Examples:
  streamscore catalog metrics --tier rapid
  streamscore catalog metrics --output markdown`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteCatalogMetrics(rootCtx, cfg); err != nil {
			contract.LogFatal("Failed to list metrics", err)
		}
	},
}
