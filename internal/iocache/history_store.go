package iocache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/huangsam/streamscore/internal/contract"
	"github.com/huangsam/streamscore/schema"
)

// Table names for assessment history.
const (
	assessmentRunsTable = "streamscore_assessment_runs"
	functionScoresTable = "streamscore_function_scores"
	outcomeScoresTable  = "streamscore_outcome_scores"
)

// historyTables lists the history tables in creation order.
var historyTables = []string{assessmentRunsTable, functionScoresTable, outcomeScoresTable}

// HistoryStoreImpl implements the HistoryStore interface.
type HistoryStoreImpl struct {
	db      *sql.DB
	backend schema.DatabaseBackend
}

var _ contract.HistoryStore = &HistoryStoreImpl{} // Compile-time check

// NewHistoryStore creates a new HistoryStore with the specified backend.
func NewHistoryStore(backend schema.DatabaseBackend, connStr string) (contract.HistoryStore, error) {
	if backend == schema.NoneBackend {
		// Return a no-op store for disabled tracking
		return &HistoryStoreImpl{backend: backend}, nil
	}

	db, err := openDB(backend, connStr, contract.GetHistoryDBFilePath())
	if err != nil {
		return nil, err
	}
	if err := createHistoryTables(db, backend); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create history tables: %w", err)
	}
	return &HistoryStoreImpl{db: db, backend: backend}, nil
}

// createHistoryTables creates the assessment history tables.
func createHistoryTables(db *sql.DB, backend schema.DatabaseBackend) error {
	for _, table := range historyTables {
		if _, err := db.Exec(getCreateHistoryQuery(table, backend)); err != nil {
			return fmt.Errorf("failed to create table %s: %w", table, err)
		}
	}
	return nil
}

// getCreateHistoryQuery returns the CREATE TABLE query for one history table.
// The migration files under migrations/ carry the same definitions.
func getCreateHistoryQuery(table string, backend schema.DatabaseBackend) string {
	quoted := quoteTableName(table, backend)
	switch table {
	case assessmentRunsTable:
		switch backend {
		case schema.MySQLBackend:
			return fmt.Sprintf(`
				CREATE TABLE IF NOT EXISTS %s (
					run_id BIGINT AUTO_INCREMENT PRIMARY KEY,
					scenario_id VARCHAR(64) NOT NULL,
					tier VARCHAR(16) NOT NULL,
					run_time DATETIME(6) NOT NULL,
					metric_count INT NOT NULL,
					scored_metrics INT NOT NULL,
					ecosystem_index DOUBLE NOT NULL,
					config_params TEXT
				);
			`, quoted)
		case schema.PostgreSQLBackend:
			return fmt.Sprintf(`
				CREATE TABLE IF NOT EXISTS %s (
					run_id BIGSERIAL PRIMARY KEY,
					scenario_id TEXT NOT NULL,
					tier TEXT NOT NULL,
					run_time TIMESTAMPTZ NOT NULL,
					metric_count INT NOT NULL,
					scored_metrics INT NOT NULL,
					ecosystem_index DOUBLE PRECISION NOT NULL,
					config_params TEXT
				);
			`, quoted)
		default: // SQLite
			return fmt.Sprintf(`
				CREATE TABLE IF NOT EXISTS %s (
					run_id INTEGER PRIMARY KEY AUTOINCREMENT,
					scenario_id TEXT NOT NULL,
					tier TEXT NOT NULL,
					run_time TEXT NOT NULL,
					metric_count INTEGER NOT NULL,
					scored_metrics INTEGER NOT NULL,
					ecosystem_index REAL NOT NULL,
					config_params TEXT
				);
			`, quoted)
		}

	case functionScoresTable:
		switch backend {
		case schema.MySQLBackend:
			return fmt.Sprintf(`
				CREATE TABLE IF NOT EXISTS %s (
					run_id BIGINT NOT NULL,
					function_id VARCHAR(128) NOT NULL,
					score DOUBLE NOT NULL,
					scored BOOLEAN NOT NULL,
					contributing INT NOT NULL,
					PRIMARY KEY (run_id, function_id)
				);
			`, quoted)
		case schema.PostgreSQLBackend:
			return fmt.Sprintf(`
				CREATE TABLE IF NOT EXISTS %s (
					run_id BIGINT NOT NULL,
					function_id TEXT NOT NULL,
					score DOUBLE PRECISION NOT NULL,
					scored BOOLEAN NOT NULL,
					contributing INT NOT NULL,
					PRIMARY KEY (run_id, function_id)
				);
			`, quoted)
		default: // SQLite
			return fmt.Sprintf(`
				CREATE TABLE IF NOT EXISTS %s (
					run_id INTEGER NOT NULL,
					function_id TEXT NOT NULL,
					score REAL NOT NULL,
					scored BOOLEAN NOT NULL,
					contributing INTEGER NOT NULL,
					PRIMARY KEY (run_id, function_id)
				);
			`, quoted)
		}

	default: // outcomeScoresTable
		switch backend {
		case schema.MySQLBackend:
			return fmt.Sprintf(`
				CREATE TABLE IF NOT EXISTS %s (
					run_id BIGINT NOT NULL,
					outcome VARCHAR(16) NOT NULL,
					direct_count INT NOT NULL,
					indirect_count INT NOT NULL,
					weighted DOUBLE NOT NULL,
					max_weighted DOUBLE NOT NULL,
					sub_index DOUBLE NOT NULL,
					PRIMARY KEY (run_id, outcome)
				);
			`, quoted)
		case schema.PostgreSQLBackend:
			return fmt.Sprintf(`
				CREATE TABLE IF NOT EXISTS %s (
					run_id BIGINT NOT NULL,
					outcome TEXT NOT NULL,
					direct_count INT NOT NULL,
					indirect_count INT NOT NULL,
					weighted DOUBLE PRECISION NOT NULL,
					max_weighted DOUBLE PRECISION NOT NULL,
					sub_index DOUBLE PRECISION NOT NULL,
					PRIMARY KEY (run_id, outcome)
				);
			`, quoted)
		default: // SQLite
			return fmt.Sprintf(`
				CREATE TABLE IF NOT EXISTS %s (
					run_id INTEGER NOT NULL,
					outcome TEXT NOT NULL,
					direct_count INTEGER NOT NULL,
					indirect_count INTEGER NOT NULL,
					weighted REAL NOT NULL,
					max_weighted REAL NOT NULL,
					sub_index REAL NOT NULL,
					PRIMARY KEY (run_id, outcome)
				);
			`, quoted)
		}
	}
}

// RecordAssessment stores a run with its function and outcome rows in one transaction.
func (hs *HistoryStoreImpl) RecordAssessment(a schema.Assessment, runTime time.Time, configParams map[string]any) (int64, error) {
	// Skip for NoneBackend
	if hs.backend == schema.NoneBackend || hs.db == nil {
		return 0, nil
	}

	configJSON, err := json.Marshal(configParams)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal config params: %w", err)
	}
	scored := 0
	for _, m := range a.Metrics {
		if m.Score != nil {
			scored++
		}
	}

	tx, err := hs.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	runArgs := []any{a.ScenarioID, string(a.Tier), formatTime(runTime, hs.backend), len(a.Metrics), scored, a.Rollup.EcosystemIndex, string(configJSON)}
	insertRun := fmt.Sprintf(`INSERT INTO %s (scenario_id, tier, run_time, metric_count, scored_metrics, ecosystem_index, config_params)
		VALUES (?, ?, ?, ?, ?, ?, ?)`, quoteTableName(assessmentRunsTable, hs.backend))

	var runID int64
	switch hs.backend {
	case schema.PostgreSQLBackend:
		err = tx.QueryRow(rebind(insertRun+" RETURNING run_id", hs.backend), runArgs...).Scan(&runID)
	default: // SQLite and MySQL
		var result sql.Result
		result, err = tx.Exec(insertRun, runArgs...)
		if err == nil {
			runID, err = result.LastInsertId()
		}
	}
	if err != nil {
		return 0, fmt.Errorf("failed to insert assessment run: %w", err)
	}

	insertFunction := rebind(fmt.Sprintf(`INSERT INTO %s (run_id, function_id, score, scored, contributing) VALUES (?, ?, ?, ?, ?)`,
		quoteTableName(functionScoresTable, hs.backend)), hs.backend)
	for _, f := range a.Functions {
		if _, err := tx.Exec(insertFunction, runID, f.FunctionID, f.Score, f.Scored, f.Contributing); err != nil {
			return 0, fmt.Errorf("failed to insert function score %s: %w", f.FunctionID, err)
		}
	}

	insertOutcome := rebind(fmt.Sprintf(`INSERT INTO %s (run_id, outcome, direct_count, indirect_count, weighted, max_weighted, sub_index)
		VALUES (?, ?, ?, ?, ?, ?, ?)`, quoteTableName(outcomeScoresTable, hs.backend)), hs.backend)
	for _, o := range schema.AllOutcomes {
		t := a.Rollup.Outcome(o)
		if _, err := tx.Exec(insertOutcome, runID, string(o), t.Direct, t.Indirect, t.Weighted, t.MaxWeighted, t.SubIndex); err != nil {
			return 0, fmt.Errorf("failed to insert outcome score %s: %w", o, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit assessment run: %w", err)
	}
	return runID, nil
}

// Close closes the underlying connection.
func (hs *HistoryStoreImpl) Close() error {
	if hs.db != nil {
		return hs.db.Close()
	}
	return nil
}

// GetStatus returns status information about the history store.
func (hs *HistoryStoreImpl) GetStatus() (schema.HistoryStatus, error) {
	status := schema.HistoryStatus{
		Backend:    string(hs.backend),
		Connected:  hs.db != nil,
		TableSizes: make(map[string]int64),
	}
	if hs.backend == schema.NoneBackend || hs.db == nil {
		return status, nil
	}

	runs := quoteTableName(assessmentRunsTable, hs.backend)
	if err := hs.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", runs)).Scan(&status.TotalRuns); err != nil {
		return status, fmt.Errorf("failed to get total runs: %w", err)
	}

	if status.TotalRuns > 0 {
		var lastRaw, oldestRaw any
		row := hs.db.QueryRow(fmt.Sprintf("SELECT run_id, run_time FROM %s ORDER BY run_id DESC LIMIT 1", runs))
		if err := row.Scan(&status.LastRunID, &lastRaw); err != nil {
			return status, fmt.Errorf("failed to get last run info: %w", err)
		}
		lastRunTime, err := parseTime(lastRaw)
		if err != nil {
			return status, fmt.Errorf("failed to parse last run time: %w", err)
		}
		status.LastRunTime = lastRunTime

		row = hs.db.QueryRow(fmt.Sprintf("SELECT run_time FROM %s ORDER BY run_id ASC LIMIT 1", runs))
		if err := row.Scan(&oldestRaw); err != nil {
			return status, fmt.Errorf("failed to get oldest run time: %w", err)
		}
		oldestRunTime, err := parseTime(oldestRaw)
		if err != nil {
			return status, fmt.Errorf("failed to parse oldest run time: %w", err)
		}
		status.OldestRunTime = oldestRunTime
	}

	for _, table := range historyTables {
		var count int64
		row := hs.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteTableName(table, hs.backend)))
		if err := row.Scan(&count); err != nil {
			return status, fmt.Errorf("failed to get count for table %s: %w", table, err)
		}
		status.TableSizes[table] = count
	}
	return status, nil
}

// GetAllAssessmentRuns retrieves all assessment runs from the store.
func (hs *HistoryStoreImpl) GetAllAssessmentRuns() ([]schema.AssessmentRunRecord, error) {
	if hs.backend == schema.NoneBackend || hs.db == nil {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT run_id, scenario_id, tier, run_time, metric_count, scored_metrics, ecosystem_index, config_params
		FROM %s ORDER BY run_id`, quoteTableName(assessmentRunsTable, hs.backend))
	rows, err := hs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query assessment runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.AssessmentRunRecord
	for rows.Next() {
		var record schema.AssessmentRunRecord
		var runTime any
		var params sql.NullString
		if err := rows.Scan(&record.RunID, &record.ScenarioID, &record.Tier, &runTime,
			&record.MetricCount, &record.ScoredMetrics, &record.EcosystemIndex, &params); err != nil {
			return nil, fmt.Errorf("failed to scan assessment run: %w", err)
		}
		if record.RunTime, err = parseTime(runTime); err != nil {
			return nil, fmt.Errorf("failed to parse run_time: %w", err)
		}
		if params.Valid {
			record.ConfigParams = &params.String
		}
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating assessment runs: %w", err)
	}
	return results, nil
}

// GetAllFunctionScores retrieves all function score rows from the store.
func (hs *HistoryStoreImpl) GetAllFunctionScores() ([]schema.FunctionScoreRecord, error) {
	if hs.backend == schema.NoneBackend || hs.db == nil {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT run_id, function_id, score, scored, contributing FROM %s ORDER BY run_id, function_id`,
		quoteTableName(functionScoresTable, hs.backend))
	rows, err := hs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query function scores: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.FunctionScoreRecord
	for rows.Next() {
		var record schema.FunctionScoreRecord
		if err := rows.Scan(&record.RunID, &record.FunctionID, &record.Score, &record.Scored, &record.Contributing); err != nil {
			return nil, fmt.Errorf("failed to scan function score: %w", err)
		}
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating function scores: %w", err)
	}
	return results, nil
}

// GetAllOutcomeScores retrieves all outcome score rows from the store.
func (hs *HistoryStoreImpl) GetAllOutcomeScores() ([]schema.OutcomeScoreRecord, error) {
	if hs.backend == schema.NoneBackend || hs.db == nil {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT run_id, outcome, direct_count, indirect_count, weighted, max_weighted, sub_index FROM %s ORDER BY run_id, outcome`,
		quoteTableName(outcomeScoresTable, hs.backend))
	rows, err := hs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query outcome scores: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.OutcomeScoreRecord
	for rows.Next() {
		var record schema.OutcomeScoreRecord
		if err := rows.Scan(&record.RunID, &record.Outcome, &record.Direct, &record.Indirect,
			&record.Weighted, &record.MaxWeighted, &record.SubIndex); err != nil {
			return nil, fmt.Errorf("failed to scan outcome score: %w", err)
		}
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating outcome scores: %w", err)
	}
	return results, nil
}
