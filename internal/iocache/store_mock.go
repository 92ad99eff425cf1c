package iocache

import (
	"time"

	"github.com/huangsam/streamscore/internal/contract"
	"github.com/huangsam/streamscore/schema"
	"github.com/stretchr/testify/mock"
)

// MockStoreManager is a mock implementation of StoreManager for testing.
type MockStoreManager struct {
	mock.Mock
}

var _ contract.StoreManager = &MockStoreManager{} // Compile-time check

// GetScenarioStore implements the StoreManager interface.
func (m *MockStoreManager) GetScenarioStore() contract.ScenarioStore {
	ret := m.Called()
	store, _ := ret.Get(0).(contract.ScenarioStore)
	return store
}

// GetHistoryStore implements the StoreManager interface.
func (m *MockStoreManager) GetHistoryStore() contract.HistoryStore {
	ret := m.Called()
	store, _ := ret.Get(0).(contract.HistoryStore)
	return store
}

// MockScenarioStore is a mock implementation of ScenarioStore for testing.
type MockScenarioStore struct {
	mock.Mock
}

var _ contract.ScenarioStore = &MockScenarioStore{} // Compile-time check

// Get implements the ScenarioStore interface.
func (m *MockScenarioStore) Get(id string) (*schema.Scenario, error) {
	args := m.Called(id)
	sc, _ := args.Get(0).(*schema.Scenario)
	return sc, args.Error(1)
}

// Put implements the ScenarioStore interface.
func (m *MockScenarioStore) Put(sc *schema.Scenario) error {
	args := m.Called(sc)
	return args.Error(0)
}

// Delete implements the ScenarioStore interface.
func (m *MockScenarioStore) Delete(id string) error {
	args := m.Called(id)
	return args.Error(0)
}

// List implements the ScenarioStore interface.
func (m *MockScenarioStore) List() ([]schema.ScenarioEntry, error) {
	args := m.Called()
	entries, _ := args.Get(0).([]schema.ScenarioEntry)
	return entries, args.Error(1)
}

// GetStatus implements the ScenarioStore interface.
func (m *MockScenarioStore) GetStatus() (schema.StoreStatus, error) {
	args := m.Called()
	return args.Get(0).(schema.StoreStatus), args.Error(1)
}

// Close implements the ScenarioStore interface.
func (m *MockScenarioStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockHistoryStore is a mock implementation of HistoryStore for testing.
type MockHistoryStore struct {
	mock.Mock
}

var _ contract.HistoryStore = &MockHistoryStore{} // Compile-time check

// RecordAssessment implements the HistoryStore interface.
func (m *MockHistoryStore) RecordAssessment(a schema.Assessment, runTime time.Time, configParams map[string]any) (int64, error) {
	args := m.Called(a, runTime, configParams)
	return args.Get(0).(int64), args.Error(1)
}

// GetStatus implements the HistoryStore interface.
func (m *MockHistoryStore) GetStatus() (schema.HistoryStatus, error) {
	args := m.Called()
	return args.Get(0).(schema.HistoryStatus), args.Error(1)
}

// GetAllAssessmentRuns implements the HistoryStore interface.
func (m *MockHistoryStore) GetAllAssessmentRuns() ([]schema.AssessmentRunRecord, error) {
	args := m.Called()
	records, _ := args.Get(0).([]schema.AssessmentRunRecord)
	return records, args.Error(1)
}

// GetAllFunctionScores implements the HistoryStore interface.
func (m *MockHistoryStore) GetAllFunctionScores() ([]schema.FunctionScoreRecord, error) {
	args := m.Called()
	records, _ := args.Get(0).([]schema.FunctionScoreRecord)
	return records, args.Error(1)
}

// GetAllOutcomeScores implements the HistoryStore interface.
func (m *MockHistoryStore) GetAllOutcomeScores() ([]schema.OutcomeScoreRecord, error) {
	args := m.Called()
	records, _ := args.Get(0).([]schema.OutcomeScoreRecord)
	return records, args.Error(1)
}

// Close implements the HistoryStore interface.
func (m *MockHistoryStore) Close() error {
	args := m.Called()
	return args.Error(0)
}
