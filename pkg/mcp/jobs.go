package mcp

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// JobStatus represents the current state of a build job
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

// IsTerminal reports whether the job has finished
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed || s == JobStatusCancelled
}

// Job represents a background dataset build
type Job struct {
	ID           string    `json:"id"`
	InputPath    string    `json:"input_path"`
	OutputPath   string    `json:"output_path"`
	Status       JobStatus `json:"status"`
	StartedAt    time.Time `json:"started_at"`
	CompletedAt  time.Time `json:"completed_at,omitempty"`
	RunID        string    `json:"run_id,omitempty"`
	Documents    int       `json:"documents"`
	Records      int       `json:"records"`
	ErrorMessage string    `json:"error_message,omitempty"`

	// Internal fields
	outputKey string
	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}
}

// JobManager manages background build jobs. At most one job runs per output path.
type JobManager struct {
	jobs     map[string]*Job
	mu       sync.RWMutex
	byOutput map[string]string // outputKey -> jobID for running jobs
}

// outputKey resolves an output path so that different spellings of the same
// file ("out.jsonl", "./out.jsonl", an absolute path) share one key.
func outputKey(outputPath string) string {
	if abs, err := filepath.Abs(outputPath); err == nil {
		return abs
	}
	return filepath.Clean(outputPath)
}

// NewJobManager creates a new job manager
func NewJobManager() *JobManager {
	return &JobManager{
		jobs:     make(map[string]*Job),
		byOutput: make(map[string]string),
	}
}

// CreateJob creates a new job for an output path. If a job for the same
// output is still pending or running, that job is returned with created=false.
func (m *JobManager) CreateJob(inputPath, outputPath string) (job *Job, created bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := outputKey(outputPath)
	if existingJobID, exists := m.byOutput[key]; exists {
		existingJob := m.jobs[existingJobID]
		if existingJob != nil && !existingJob.Status.IsTerminal() {
			return existingJob, false
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	job = &Job{
		ID:         uuid.New().String(),
		InputPath:  inputPath,
		OutputPath: outputPath,
		Status:     JobStatusPending,
		StartedAt:  time.Now(),
		outputKey:  key,
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
	}

	m.jobs[job.ID] = job
	m.byOutput[key] = job.ID

	return job, true
}

// GetJob returns a snapshot of a job by ID, or nil
func (m *JobManager) GetJob(jobID string) *Job {
	m.mu.RLock()
	defer m.mu.RUnlock()
	job, ok := m.jobs[jobID]
	if !ok {
		return nil
	}
	snapshot := *job
	return &snapshot
}

// IsRunning checks if a job is currently running for an output path
func (m *JobManager) IsRunning(outputPath string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if jobID, exists := m.byOutput[outputKey(outputPath)]; exists {
		job := m.jobs[jobID]
		return job != nil && !job.Status.IsTerminal()
	}
	return false
}

// UpdateStatus updates the status of a job
func (m *JobManager) UpdateStatus(jobID string, status JobStatus, errorMsg string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, exists := m.jobs[jobID]
	if !exists || job.Status.IsTerminal() {
		return
	}
	job.Status = status
	if errorMsg != "" {
		job.ErrorMessage = errorMsg
	}
	if status.IsTerminal() {
		m.finishLocked(job)
	}
}

// Complete marks a job completed with its totals
func (m *JobManager) Complete(jobID, runID string, documents, records int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, exists := m.jobs[jobID]
	if !exists || job.Status.IsTerminal() {
		return
	}
	job.Status = JobStatusCompleted
	job.RunID = runID
	job.Documents = documents
	job.Records = records
	m.finishLocked(job)
}

// finishLocked records completion. Caller holds m.mu.
func (m *JobManager) finishLocked(job *Job) {
	job.CompletedAt = time.Now()
	if m.byOutput[job.outputKey] == job.ID {
		delete(m.byOutput, job.outputKey)
	}
	job.cancel()
	close(job.done)
}

// Wait blocks until the job finishes or ctx is done, then returns a snapshot.
func (m *JobManager) Wait(ctx context.Context, jobID string) (*Job, error) {
	m.mu.RLock()
	job, exists := m.jobs[jobID]
	m.mu.RUnlock()
	if !exists {
		return nil, nil
	}

	select {
	case <-job.done:
		return m.GetJob(jobID), nil
	case <-ctx.Done():
		return m.GetJob(jobID), ctx.Err()
	}
}

// CancelJob cancels a running job
func (m *JobManager) CancelJob(jobID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if job, exists := m.jobs[jobID]; exists && !job.Status.IsTerminal() {
		job.Status = JobStatusCancelled
		m.finishLocked(job)
		return true
	}
	return false
}

// CancelAll cancels all running jobs
func (m *JobManager) CancelAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, job := range m.jobs {
		if !job.Status.IsTerminal() {
			job.Status = JobStatusCancelled
			m.finishLocked(job)
		}
	}
}

// ListJobs returns snapshots of all jobs
func (m *JobManager) ListJobs() []*Job {
	m.mu.RLock()
	defer m.mu.RUnlock()

	jobs := make([]*Job, 0, len(m.jobs))
	for _, job := range m.jobs {
		snapshot := *job
		jobs = append(jobs, &snapshot)
	}
	return jobs
}

// GetContext returns the context for a job (for running the build)
func (m *JobManager) GetContext(jobID string) context.Context {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if job, exists := m.jobs[jobID]; exists {
		return job.ctx
	}
	return context.Background()
}
