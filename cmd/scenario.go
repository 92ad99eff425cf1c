package cmd

import (
	"github.com/spf13/cobra"

	"github.com/huangsam/streamscore/core/scenario"
	"github.com/huangsam/streamscore/internal/contract"
)

// scenarioCmd groups stored scenario editing.
//
// Every mutating subcommand prints what changed: per-metric score before and
// after, plus the function, outcome and ecosystem deltas.
var scenarioCmd = &cobra.Command{
	Use:   "scenario",
	Short: "Create and edit scenarios in the scenario store",
	Long: `Manage assessment scenarios kept in the scenario store.

Supported backends: SQLite (default), MySQL, PostgreSQL

Subcommands:
  new       - Create a scenario with selected metrics
  show      - Print a stored scenario
  list      - List stored scenarios
  delete    - Remove a scenario
  add       - Select more metrics
  remove    - Deselect a metric
  set       - Record an observation
  override  - Change the curve a metric is scored with
  duplicate - Copy a scenario under a new id
  import    - Load a scenario file or apply a field sheet
  export    - Write a stored scenario to a file

Examples:
  streamscore scenario new --name "Upper reach" --metrics dissolved_oxygen,bank_erosion
  streamscore scenario set 0b6c3a56 dissolved_oxygen 6.5
  streamscore scenario set 0b6c3a56 ept_ratio "ept=12 total=40"
  streamscore scenario override 0b6c3a56 dissolved_oxygen --curve-set do_regional
  streamscore scenario override 0b6c3a56 dissolved_oxygen --layer coldwater
  streamscore scenario import fieldsheet.xlsx --scenario-id 0b6c3a56 --sheet "Day 1"`,
}

var scenarioNewCmd = &cobra.Command{
	Use:     "new",
	Short:   "Create a scenario at --tier with the given metrics",
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	Run: func(cmd *cobra.Command, _ []string) {
		name, _ := cmd.Flags().GetString("name")
		metrics, _ := cmd.Flags().GetStringSlice("metrics")
		if err := scenario.ExecuteNew(rootCtx, cfg, storeManager, name, metrics); err != nil {
			contract.LogFatal("Failed to create scenario", err)
		}
	},
}

var scenarioShowCmd = &cobra.Command{
	Use:     "show <id>",
	Short:   "Print a stored scenario",
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, args []string) {
		if err := scenario.ExecuteShow(rootCtx, cfg, storeManager, args[0]); err != nil {
			contract.LogFatal("Failed to show scenario", err)
		}
	},
}

var scenarioListCmd = &cobra.Command{
	Use:     "list",
	Short:   "List stored scenarios",
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := scenario.ExecuteList(rootCtx, cfg, storeManager); err != nil {
			contract.LogFatal("Failed to list scenarios", err)
		}
	},
}

var scenarioDeleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Short:   "Remove a stored scenario",
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, args []string) {
		if err := scenario.ExecuteDelete(rootCtx, storeManager, args[0]); err != nil {
			contract.LogFatal("Failed to delete scenario", err)
		}
	},
}

var scenarioAddCmd = &cobra.Command{
	Use:     "add <id> <metric-id>...",
	Short:   "Select metrics, seeding their default observations",
	Args:    cobra.MinimumNArgs(2),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, args []string) {
		if err := scenario.ExecuteAdd(rootCtx, cfg, storeManager, args[0], args[1:]); err != nil {
			contract.LogFatal("Failed to add metrics", err)
		}
	},
}

var scenarioRemoveCmd = &cobra.Command{
	Use:     "remove <id> <metric-id>",
	Short:   "Deselect a metric",
	Args:    cobra.ExactArgs(2),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, args []string) {
		if err := scenario.ExecuteRemove(rootCtx, cfg, storeManager, args[0], args[1]); err != nil {
			contract.LogFatal("Failed to remove metric", err)
		}
	},
}

var scenarioSetCmd = &cobra.Command{
	Use:   "set <id> <metric-id> <value>",
	Short: "Record an observation for a selected metric",
	Long: `Record an observation. Values are read like field sheet cells: true/false
become flags, numbers become values, "name=value" pairs become formula
variables, and anything else is a label.`,
	Args:    cobra.ExactArgs(3),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, args []string) {
		if err := scenario.ExecuteSet(rootCtx, cfg, storeManager, args[0], args[1], args[2]); err != nil {
			contract.LogFatal("Failed to set observation", err)
		}
	},
}

var scenarioOverrideCmd = &cobra.Command{
	Use:     "override <id> <metric-id>",
	Short:   "Score a metric with a different curve",
	Args:    cobra.ExactArgs(2),
	PreRunE: sharedSetupWrapper,
	Run: func(cmd *cobra.Command, args []string) {
		var req scenario.OverrideRequest
		req.CurveFile, _ = cmd.Flags().GetString("curve-file")
		req.CurveSet, _ = cmd.Flags().GetString("curve-set")
		req.Layer, _ = cmd.Flags().GetString("layer")
		req.Clear, _ = cmd.Flags().GetBool("clear")
		if err := scenario.ExecuteOverride(rootCtx, cfg, storeManager, args[0], args[1], req); err != nil {
			contract.LogFatal("Failed to override curve", err)
		}
	},
}

var scenarioDuplicateCmd = &cobra.Command{
	Use:     "duplicate <id>",
	Short:   "Copy a scenario under a new id",
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(cmd *cobra.Command, args []string) {
		name, _ := cmd.Flags().GetString("name")
		if err := scenario.ExecuteDuplicate(rootCtx, cfg, storeManager, args[0], name); err != nil {
			contract.LogFatal("Failed to duplicate scenario", err)
		}
	},
}

var scenarioImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Store a scenario file or apply a field sheet",
	Long: `Import outside data into the scenario store.

A .yaml/.json scenario file is stored whole. A .xlsx or .csv field sheet with
metricId and value columns updates the scenario named by --scenario-id,
selecting metrics it does not have yet.`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(cmd *cobra.Command, args []string) {
		sheet, _ := cmd.Flags().GetString("sheet")
		if err := scenario.ExecuteImport(rootCtx, cfg, storeManager, args[0], sheet); err != nil {
			contract.LogFatal("Import failed", err)
		}
	},
}

var scenarioExportCmd = &cobra.Command{
	Use:     "export <id> <file>",
	Short:   "Write a stored scenario to a .yaml or .json file",
	Args:    cobra.ExactArgs(2),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, args []string) {
		if err := scenario.ExecuteExport(rootCtx, storeManager, args[0], args[1]); err != nil {
			contract.LogFatal("Export failed", err)
		}
	},
}
