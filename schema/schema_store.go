package schema

import "time"

// StoreStatus represents the status of the scenario store.
type StoreStatus struct {
	Backend         string    `json:"backend"`
	Connected       bool      `json:"connected"`
	TotalScenarios  int       `json:"total_scenarios"`
	LastUpdateTime  time.Time `json:"last_update_time"`
	OldestEntryTime time.Time `json:"oldest_entry_time"`
}

// ScenarioEntry is one row of a scenario store listing.
type ScenarioEntry struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Tier      Tier      `json:"tier"`
	Metrics   int       `json:"metrics"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HistoryStatus represents the status of the assessment history store.
type HistoryStatus struct {
	Backend       string           `json:"backend"`
	Connected     bool             `json:"connected"`
	TotalRuns     int              `json:"total_runs"`
	LastRunID     int64            `json:"last_run_id"`
	LastRunTime   time.Time        `json:"last_run_time"`
	OldestRunTime time.Time        `json:"oldest_run_time"`
	TableSizes    map[string]int64 `json:"table_sizes"`
}

// AssessmentRunRecord represents a row from the assessment runs table.
type AssessmentRunRecord struct {
	RunID          int64
	ScenarioID     string
	Tier           string
	RunTime        time.Time
	MetricCount    int32
	ScoredMetrics  int32
	EcosystemIndex float64
	ConfigParams   *string
}

// FunctionScoreRecord represents a row from the function scores table.
type FunctionScoreRecord struct {
	RunID        int64
	FunctionID   string
	Score        float64
	Scored       bool
	Contributing int32
}

// OutcomeScoreRecord represents a row from the outcome scores table.
type OutcomeScoreRecord struct {
	RunID       int64
	Outcome     string
	Direct      int32
	Indirect    int32
	Weighted    float64
	MaxWeighted float64
	SubIndex    float64
}
