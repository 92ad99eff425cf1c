// Package cmd defines the command-line interface for streamscore.
package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/huangsam/streamscore/internal/contract"
	"github.com/huangsam/streamscore/schema"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(assessCmd)
	rootCmd.AddCommand(compareCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(curveCmd)
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(scenarioCmd)
	rootCmd.AddCommand(storeCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(versionCmd)

	curveCmd.AddCommand(curveEvalCmd)
	curveCmd.AddCommand(curveBandsCmd)

	catalogCmd.AddCommand(catalogValidateCmd)
	catalogCmd.AddCommand(catalogMetricsCmd)

	scenarioCmd.AddCommand(scenarioNewCmd)
	scenarioCmd.AddCommand(scenarioShowCmd)
	scenarioCmd.AddCommand(scenarioListCmd)
	scenarioCmd.AddCommand(scenarioDeleteCmd)
	scenarioCmd.AddCommand(scenarioAddCmd)
	scenarioCmd.AddCommand(scenarioRemoveCmd)
	scenarioCmd.AddCommand(scenarioSetCmd)
	scenarioCmd.AddCommand(scenarioOverrideCmd)
	scenarioCmd.AddCommand(scenarioDuplicateCmd)
	scenarioCmd.AddCommand(scenarioImportCmd)
	scenarioCmd.AddCommand(scenarioExportCmd)

	storeCmd.AddCommand(storeStatusCmd)
	storeCmd.AddCommand(storeClearCmd)

	historyCmd.AddCommand(historyStatusCmd)
	historyCmd.AddCommand(historyClearCmd)
	historyCmd.AddCommand(historyExportCmd)
	historyCmd.AddCommand(historyMigrateCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().String("catalog", "catalog.yaml", "Path to the metric catalog (YAML or JSON)")
	rootCmd.PersistentFlags().String("tier", string(schema.DetailedTier), "Assessment tier: screening or rapid or detailed")
	rootCmd.PersistentFlags().String("scenario-id", "", "Scenario id in the scenario store")
	rootCmd.PersistentFlags().Bool("detail", false, "Print per-metric scores and observations")
	rootCmd.PersistentFlags().Bool("explain", false, "Print which curve points or rubric entries matched")
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Output format: text or csv or json or markdown or html")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().Int("precision", contract.DefaultPrecision, "Decimal precision for numeric columns")
	rootCmd.PersistentFlags().String("profile", "", "Enable profiling and write profiles to files with this prefix")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().String("store-backend", string(schema.SQLiteBackend), "Scenario store backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("store-db-connect", "", "Database connection string for the scenario store (e.g., user:pass@tcp(host:port)/dbname)")
	rootCmd.PersistentFlags().String("history-backend", "", "Assessment history backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("history-db-connect", "", "Database connection string for assessment history (must differ from store-db-connect)")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	assessCmd.Flags().Bool("record", false, "Record the assessment in the history store")
	if err := viper.BindPFlags(assessCmd.Flags()); err != nil {
		contract.LogFatal("Error binding assess flags", err)
	}

	checkCmd.Flags().Float64("min-index", 0, "Minimum ecosystem condition index (0.0 to 1.0)")
	checkCmd.Flags().String("min-sub-index", "", "Minimum outcome sub-indices (format: 'physical:0.5,chemical:0.4,biological:0.6')")
	if err := viper.BindPFlags(checkCmd.Flags()); err != nil {
		contract.LogFatal("Error binding check flags", err)
	}

	serveCmd.Flags().String("listen", contract.DefaultListenAddr, "Address for the HTTP API to listen on")
	if err := viper.BindPFlags(serveCmd.Flags()); err != nil {
		contract.LogFatal("Error binding serve flags", err)
	}

	historyMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(historyMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding history migrate flags", err)
	}

	// Command-local arguments are read from the command's own flag set
	curveCmd.PersistentFlags().String("curve", "", "Curve id in the catalog")
	curveCmd.PersistentFlags().String("layer", "", "Curve layer id (defaults to the active layer)")
	curveEvalCmd.Flags().String("value", "", "Observed value, label or 'name=value' variables")

	scenarioNewCmd.Flags().String("name", "", "Scenario name")
	scenarioNewCmd.Flags().StringSlice("metrics", nil, "Comma-separated metric ids to select")
	scenarioDuplicateCmd.Flags().String("name", "", "Name for the copy")
	scenarioOverrideCmd.Flags().String("curve-file", "", "YAML or JSON file holding a replacement curve")
	scenarioOverrideCmd.Flags().String("curve-set", "", "Alternate curve set referenced by the scoring profile")
	scenarioOverrideCmd.Flags().String("layer", "", "Layer of the metric's current curve, e.g. a regional variant")
	scenarioOverrideCmd.Flags().Bool("clear", false, "Revert to the catalog curve")
	scenarioImportCmd.Flags().String("sheet", "", "Worksheet name for XLSX field sheets")
}
