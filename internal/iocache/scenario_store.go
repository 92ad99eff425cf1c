package iocache

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/huangsam/streamscore/internal/contract"
	"github.com/huangsam/streamscore/schema"
)

// scenariosTable is the name of the table for scenario storage.
const scenariosTable = "streamscore_scenarios"

// ScenarioStoreImpl keeps scenarios as JSON documents keyed by id.
type ScenarioStoreImpl struct {
	db        *sql.DB
	tableName string
	backend   schema.DatabaseBackend
}

var _ contract.ScenarioStore = &ScenarioStoreImpl{} // Compile-time check

// NewScenarioStore initializes and returns a new ScenarioStore based on the backend type.
func NewScenarioStore(tableName string, backend schema.DatabaseBackend, connStr string) (contract.ScenarioStore, error) {
	// Validate table name to prevent SQL injection
	if err := validateTableName(tableName); err != nil {
		return nil, err
	}
	if backend == schema.NoneBackend {
		return &ScenarioStoreImpl{tableName: tableName, backend: backend}, nil
	}

	db, err := openDB(backend, connStr, contract.GetStoreDBFilePath())
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(getCreateScenariosQuery(tableName, backend)); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create table %s: %w", tableName, err)
	}
	return &ScenarioStoreImpl{db: db, tableName: tableName, backend: backend}, nil
}

// getCreateScenariosQuery returns the CREATE TABLE query for the given backend.
func getCreateScenariosQuery(tableName string, backend schema.DatabaseBackend) string {
	quotedTableName := quoteTableName(tableName, backend)
	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				scenario_id VARCHAR(64) PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				tier VARCHAR(16) NOT NULL,
				metric_count INT NOT NULL,
				body LONGTEXT NOT NULL,
				updated_at BIGINT NOT NULL
			);
		`, quotedTableName)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				scenario_id TEXT PRIMARY KEY,
				name TEXT NOT NULL,
				tier TEXT NOT NULL,
				metric_count INTEGER NOT NULL,
				body TEXT NOT NULL,
				updated_at BIGINT NOT NULL
			);
		`, quotedTableName)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				scenario_id TEXT PRIMARY KEY,
				name TEXT NOT NULL,
				tier TEXT NOT NULL,
				metric_count INTEGER NOT NULL,
				body TEXT NOT NULL,
				updated_at INTEGER NOT NULL
			);
		`, quotedTableName)
	}
}

// getUpsertQuery returns the UPSERT query for the backend.
func (ss *ScenarioStoreImpl) getUpsertQuery() string {
	quotedTableName := quoteTableName(ss.tableName, ss.backend)
	switch ss.backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`INSERT INTO %s (scenario_id, name, tier, metric_count, body, updated_at) VALUES (?, ?, ?, ?, ?, ?) AS new
			ON DUPLICATE KEY UPDATE name = new.name, tier = new.tier, metric_count = new.metric_count, body = new.body, updated_at = new.updated_at`, quotedTableName)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`INSERT INTO %s (scenario_id, name, tier, metric_count, body, updated_at) VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (scenario_id) DO UPDATE SET name = EXCLUDED.name, tier = EXCLUDED.tier, metric_count = EXCLUDED.metric_count, body = EXCLUDED.body, updated_at = EXCLUDED.updated_at`, quotedTableName)

	default: // SQLite
		return fmt.Sprintf(`INSERT OR REPLACE INTO %s (scenario_id, name, tier, metric_count, body, updated_at) VALUES (?, ?, ?, ?, ?, ?)`, quotedTableName)
	}
}

// Get returns the scenario or contract.ErrScenarioNotFound.
func (ss *ScenarioStoreImpl) Get(id string) (*schema.Scenario, error) {
	if ss.backend == schema.NoneBackend || ss.db == nil {
		return nil, fmt.Errorf("%w: %s", contract.ErrScenarioNotFound, id)
	}

	query := rebind(fmt.Sprintf(`SELECT body FROM %s WHERE scenario_id = ?`, quoteTableName(ss.tableName, ss.backend)), ss.backend)
	var body string
	if err := ss.db.QueryRow(query, id).Scan(&body); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", contract.ErrScenarioNotFound, id)
		}
		return nil, fmt.Errorf("failed to read scenario %s: %w", id, err)
	}

	sc := &schema.Scenario{}
	if err := json.Unmarshal([]byte(body), sc); err != nil {
		return nil, fmt.Errorf("failed to decode scenario %s: %w", id, err)
	}
	return sc, nil
}

// Put inserts or replaces a scenario.
func (ss *ScenarioStoreImpl) Put(sc *schema.Scenario) error {
	if sc == nil || sc.ID == "" {
		return fmt.Errorf("scenario must have an id")
	}
	if ss.backend == schema.NoneBackend || ss.db == nil {
		return nil
	}

	body, err := json.Marshal(sc)
	if err != nil {
		return fmt.Errorf("failed to encode scenario %s: %w", sc.ID, err)
	}
	updated := sc.UpdatedAt
	if updated.IsZero() {
		updated = time.Now()
	}
	_, err = ss.db.Exec(ss.getUpsertQuery(), sc.ID, sc.Name, string(sc.Tier), len(sc.Metrics), string(body), updated.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to store scenario %s: %w", sc.ID, err)
	}
	return nil
}

// Delete removes a scenario. Deleting a missing id is not an error.
func (ss *ScenarioStoreImpl) Delete(id string) error {
	if ss.backend == schema.NoneBackend || ss.db == nil {
		return nil
	}
	query := rebind(fmt.Sprintf(`DELETE FROM %s WHERE scenario_id = ?`, quoteTableName(ss.tableName, ss.backend)), ss.backend)
	if _, err := ss.db.Exec(query, id); err != nil {
		return fmt.Errorf("failed to delete scenario %s: %w", id, err)
	}
	return nil
}

// List returns scenario summaries, most recently updated first.
func (ss *ScenarioStoreImpl) List() ([]schema.ScenarioEntry, error) {
	if ss.backend == schema.NoneBackend || ss.db == nil {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT scenario_id, name, tier, metric_count, updated_at FROM %s ORDER BY updated_at DESC, scenario_id`,
		quoteTableName(ss.tableName, ss.backend))
	rows, err := ss.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query scenarios: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []schema.ScenarioEntry
	for rows.Next() {
		var e schema.ScenarioEntry
		var tier string
		var updated int64
		if err := rows.Scan(&e.ID, &e.Name, &tier, &e.Metrics, &updated); err != nil {
			return nil, fmt.Errorf("failed to scan scenario: %w", err)
		}
		e.Tier = schema.Tier(tier)
		e.UpdatedAt = time.Unix(0, updated).UTC()
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating scenarios: %w", err)
	}
	return entries, nil
}

// Close closes the underlying DB connection.
func (ss *ScenarioStoreImpl) Close() error {
	if ss.db != nil {
		return ss.db.Close()
	}
	return nil
}

// GetStatus returns status information about the scenario store.
func (ss *ScenarioStoreImpl) GetStatus() (schema.StoreStatus, error) {
	status := schema.StoreStatus{
		Backend:   string(ss.backend),
		Connected: ss.db != nil,
	}
	if ss.backend == schema.NoneBackend || ss.db == nil {
		return status, nil
	}

	quotedTableName := quoteTableName(ss.tableName, ss.backend)
	row := ss.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", quotedTableName))
	if err := row.Scan(&status.TotalScenarios); err != nil {
		return status, fmt.Errorf("failed to get total scenarios: %w", err)
	}
	if status.TotalScenarios == 0 {
		return status, nil
	}

	var newest, oldest int64
	row = ss.db.QueryRow(fmt.Sprintf("SELECT MAX(updated_at), MIN(updated_at) FROM %s", quotedTableName))
	if err := row.Scan(&newest, &oldest); err != nil {
		return status, fmt.Errorf("failed to get update times: %w", err)
	}
	status.LastUpdateTime = time.Unix(0, newest).UTC()
	status.OldestEntryTime = time.Unix(0, oldest).UTC()
	return status, nil
}
