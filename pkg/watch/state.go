package watch

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Sriram-PR/md-dataset/pkg/models"
)

const stateFileName = "watch_state.json"

// BuildState contains the last build information for one output file
type BuildState struct {
	LastRunTime  time.Time          `json:"last_run_time"`
	RunID        string             `json:"run_id,omitempty"`
	Status       models.BuildStatus `json:"status"`
	Documents    int                `json:"documents"`
	Records      int                `json:"records"`
	ErrorMessage string             `json:"error_message,omitempty"`
}

// WatchState contains the persistent state for watch mode, keyed by output path
type WatchState struct {
	Builds    map[string]BuildState `json:"builds"`
	UpdatedAt time.Time             `json:"updated_at"`
}

// StateManager handles persisting and loading watch state
type StateManager struct {
	stateDir  string
	statePath string
	state     WatchState
	mu        sync.RWMutex
}

// NewStateManager creates a new state manager
func NewStateManager(stateDir string) *StateManager {
	return &StateManager{
		stateDir:  stateDir,
		statePath: filepath.Join(stateDir, stateFileName),
		state: WatchState{
			Builds: make(map[string]BuildState),
		},
	}
}

// Path returns the state file location
func (m *StateManager) Path() string {
	return m.statePath
}

// Load loads the state from disk
func (m *StateManager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := os.ReadFile(m.statePath)
	if err != nil {
		if os.IsNotExist(err) {
			// No state file yet, start fresh
			m.state = WatchState{
				Builds: make(map[string]BuildState),
			}
			return nil
		}
		return fmt.Errorf("failed to read state file: %w", err)
	}

	if err := json.Unmarshal(data, &m.state); err != nil {
		return fmt.Errorf("failed to parse state file: %w", err)
	}

	if m.state.Builds == nil {
		m.state.Builds = make(map[string]BuildState)
	}

	return nil
}

// Save saves the state to disk
func (m *StateManager) Save() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state.UpdatedAt = time.Now()

	if err := os.MkdirAll(m.stateDir, 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	data, err := json.MarshalIndent(m.state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	if err := os.WriteFile(m.statePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}

	return nil
}

// GetBuildState returns the state for a specific output
func (m *StateManager) GetBuildState(outputPath string) (BuildState, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	state, ok := m.state.Builds[outputPath]
	return state, ok
}

// RecordSuccess stores the outcome of a successful build
func (m *StateManager) RecordSuccess(outputPath, runID string, documents, records int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state.Builds[outputPath] = BuildState{
		LastRunTime: time.Now(),
		RunID:       runID,
		Status:      models.BuildStatusSuccess,
		Documents:   documents,
		Records:     records,
	}
}

// RecordFailure stores the outcome of a failed build
func (m *StateManager) RecordFailure(outputPath string, buildErr error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	msg := ""
	if buildErr != nil {
		msg = buildErr.Error()
	}
	m.state.Builds[outputPath] = BuildState{
		LastRunTime:  time.Now(),
		Status:       models.BuildStatusFailure,
		ErrorMessage: msg,
	}
}
