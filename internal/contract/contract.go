// Package contract provides interfaces and shared utilities for streamscore's internal architecture.
package contract

import (
	"errors"
	"time"

	"github.com/huangsam/streamscore/schema"
)

// ErrScenarioNotFound is returned by a ScenarioStore when no scenario has the id.
var ErrScenarioNotFound = errors.New("scenario not found")

// StoreManager defines the interface for managing persistence stores.
// This allows the persistence layer to be mocked for testing.
type StoreManager interface {
	GetScenarioStore() ScenarioStore
	GetHistoryStore() HistoryStore
}

// ScenarioStore keeps scenarios by id so CLI mutations survive restarts.
type ScenarioStore interface {
	// Get returns the scenario or ErrScenarioNotFound.
	Get(id string) (*schema.Scenario, error)

	// Put inserts or replaces the scenario.
	Put(sc *schema.Scenario) error

	// Delete removes the scenario. Deleting a missing id is not an error.
	Delete(id string) error

	// List returns summaries ordered by most recent update first.
	List() ([]schema.ScenarioEntry, error)

	// GetStatus returns status information about the scenario store
	GetStatus() (schema.StoreStatus, error)

	// Close closes the underlying connection
	Close() error
}

// HistoryStore records assessment runs for later export.
type HistoryStore interface {
	// RecordAssessment stores a run with its function and outcome rows and returns the run id
	RecordAssessment(a schema.Assessment, runTime time.Time, configParams map[string]any) (int64, error)

	// GetStatus returns status information about the history store
	GetStatus() (schema.HistoryStatus, error)

	// GetAllAssessmentRuns retrieves every recorded run ordered by run id
	GetAllAssessmentRuns() ([]schema.AssessmentRunRecord, error)

	// GetAllFunctionScores retrieves every function score row
	GetAllFunctionScores() ([]schema.FunctionScoreRecord, error)

	// GetAllOutcomeScores retrieves every outcome score row
	GetAllOutcomeScores() ([]schema.OutcomeScoreRecord, error)

	// Close closes the underlying connection
	Close() error
}
