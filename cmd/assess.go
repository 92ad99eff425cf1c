package cmd

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/huangsam/streamscore/core"
	"github.com/huangsam/streamscore/internal/contract"
)

// assessCmd scores one scenario.
var assessCmd = &cobra.Command{
	Use:   "assess [scenario-file]",
	Short: "Score a scenario and report function, outcome and ecosystem condition",
	Long: `Score every selected metric of a scenario, average the metric scores into
function scores on the 0-15 scale, and roll the functions up into physical,
chemical and biological sub-indices and the ecosystem condition index.

The scenario comes from a YAML/JSON file or, with --scenario-id, from the
scenario store.

Examples:
  # Assess a scenario file against the default catalog
  streamscore assess reach.yaml

  # Per-metric detail with matched curve points
  streamscore assess reach.yaml --detail --explain

  # Assess a stored scenario and record it in history
  streamscore assess --scenario-id 0b6c3a56 --record --history-backend sqlite

  # Export as an HTML report
  streamscore assess reach.yaml --output html --output-file report.html`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: scenarioSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteAssess(rootCtx, cfg, storeManager); err != nil {
			contract.LogFatal("Assessment failed", err)
		}
	},
}

// compareCmd diffs two scenarios.
var compareCmd = &cobra.Command{
	Use:   "compare <base> <target>",
	Short: "Compare two scenarios metric by metric",
	Long: `Assess two scenarios and report how each metric, function and outcome changed.

Each argument is a scenario file path or a stored scenario id.

Examples:
  # Baseline against proposed restoration
  streamscore compare baseline.yaml restored.yaml

  # Two stored scenarios, as CSV
  streamscore compare 0b6c3a56 7e21d4f0 --output csv`,
	Args:    cobra.ExactArgs(2),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, args []string) {
		if err := core.ExecuteCompare(rootCtx, cfg, storeManager, args[0], args[1]); err != nil {
			contract.LogFatal("Comparison failed", err)
		}
	},
}

// checkCmd focused on CI/CD policy enforcement.
var checkCmd = &cobra.Command{
	Use:   "check [scenario-file]",
	Short: "Fail when a scenario falls below condition thresholds",
	Long: `Assess a scenario and exit non-zero when the ecosystem index or any outcome
sub-index is below its minimum. When the check fails, the weakest functions are
listed.

Examples:
  # Require a functioning ecosystem index
  streamscore check reach.yaml --min-index 0.7

  # Gate outcomes individually
  streamscore check reach.yaml --min-sub-index "physical:0.5,biological:0.6"`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: scenarioSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		err := core.ExecuteCheck(rootCtx, cfg, storeManager)
		if errors.Is(err, core.ErrCheckFailed) {
			_ = stopProfiling()
			os.Exit(1)
		}
		if err != nil {
			contract.LogFatal("Check failed", err)
		}
	},
}
