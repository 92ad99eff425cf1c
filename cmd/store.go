package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/huangsam/streamscore/internal/contract"
	"github.com/huangsam/streamscore/internal/iocache"
	"github.com/huangsam/streamscore/schema"
)

// storeSetup loads minimal configuration needed for scenario store operations.
// This is used by commands that need store access without full shared setup.
func storeSetup() error {
	if err := loadConfigFile(); err != nil {
		return err
	}

	backend := schema.DatabaseBackend(viper.GetString("store-backend"))
	connStr := viper.GetString("store-db-connect")
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return err
	}
	if backend != schema.NoneBackend {
		if err := iocache.InitStores(backend, connStr, "", ""); err != nil {
			return fmt.Errorf("failed to initialize scenario store: %w", err)
		}
	}

	cfg.StoreBackend = backend
	cfg.StoreDBConnect = connStr
	return nil
}

// storeSetupWrapper wraps storeSetup to provide PreRunE for store commands.
func storeSetupWrapper(_ *cobra.Command, _ []string) error {
	return storeSetup()
}

// sqliteFile picks the SQLite database file, honouring an explicit connection string.
func sqliteFile(connStr, fallback string) string {
	if connStr != "" {
		return connStr
	}
	return fallback
}

// storeCmd focused on scenario store management.
var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Manage the scenario store",
	Long: `Inspect or reset the database that holds scenarios.

Supported backends: SQLite (default), MySQL, PostgreSQL, or None (disabled)

Subcommands:
  status - Show store statistics and connection info
  clear  - Remove all stored scenarios

Examples:
  streamscore store status
  STREAMSCORE_STORE_BACKEND=mysql STREAMSCORE_STORE_DB_CONNECT="..." streamscore store status`,
}

var storeStatusCmd = &cobra.Command{
	Use:     "status",
	Short:   "Display scenario store statistics and connection details",
	PreRunE: storeSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		store := iocache.Manager.GetScenarioStore()
		if store == nil {
			iocache.PrintStoreStatus(os.Stdout, schema.StoreStatus{Backend: string(schema.NoneBackend)})
			return
		}
		status, err := store.GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get store status", err)
		}
		iocache.PrintStoreStatus(os.Stdout, status)
	},
}

var storeClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all stored scenarios",
	Long: `Delete every stored scenario from the configured backend.

For SQLite: Deletes the database file
For MySQL/PostgreSQL: Drops the scenarios table

WARNING: This action cannot be undone. Export scenarios you want to keep first.`,
	PreRunE: storeSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		iocache.CloseStores()
		path := sqliteFile(cfg.StoreDBConnect, contract.GetStoreDBFilePath())
		if err := iocache.ClearScenarios(cfg.StoreBackend, path, cfg.StoreDBConnect); err != nil {
			contract.LogFatal("Failed to clear scenario store", err)
		}
		fmt.Println("Scenario store cleared successfully.")
	},
}
