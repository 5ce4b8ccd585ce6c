package jobs

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/google/uuid"
)

// jobRecord is the default implementation's view of a saved job.
type jobRecord struct {
	job       Job
	status    JobStatus
	errorMsg  string
	updatedAt time.Time
}

// MockJobStore implements JobStore for testing
type MockJobStore struct {
	mu sync.Mutex

	// Function fields for customizable behavior
	SaveJobFn           func(ctx context.Context, job Job) error
	UpdateJobStatusFn   func(ctx context.Context, jobID uuid.UUID, status JobStatus, errorMsg string) error
	GetPendingJobsFn    func(ctx context.Context) ([]Job, error)
	GetProcessingJobsFn func(ctx context.Context, olderThan time.Duration) ([]Job, error)

	// Data for default implementation
	records map[uuid.UUID]*jobRecord
}

// NewMockJobStore creates a new mock store with initialized defaults
func NewMockJobStore() *MockJobStore {
	return &MockJobStore{
		records: make(map[uuid.UUID]*jobRecord),
	}
}

// SaveJob implements the JobStore interface
func (m *MockJobStore) SaveJob(ctx context.Context, job Job) error {
	if m.SaveJobFn != nil {
		return m.SaveJobFn(ctx, job)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.records[job.ID()] = &jobRecord{
		job:       job,
		status:    job.Status(),
		updatedAt: time.Now(),
	}
	return nil
}

// UpdateJobStatus implements the JobStore interface
func (m *MockJobStore) UpdateJobStatus(ctx context.Context, jobID uuid.UUID, status JobStatus, errorMsg string) error {
	if m.UpdateJobStatusFn != nil {
		return m.UpdateJobStatusFn(ctx, jobID, status, errorMsg)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if rec, ok := m.records[jobID]; ok {
		rec.status = status
		rec.errorMsg = errorMsg
		rec.updatedAt = time.Now()
	}
	return nil
}

// GetPendingJobs implements the JobStore interface
func (m *MockJobStore) GetPendingJobs(ctx context.Context) ([]Job, error) {
	if m.GetPendingJobsFn != nil {
		return m.GetPendingJobsFn(ctx)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Job
	for _, rec := range m.records {
		if rec.status == JobStatusPending {
			out = append(out, rec.job)
		}
	}
	return out, nil
}

// GetProcessingJobs implements the JobStore interface
func (m *MockJobStore) GetProcessingJobs(ctx context.Context, olderThan time.Duration) ([]Job, error) {
	if m.GetProcessingJobsFn != nil {
		return m.GetProcessingJobsFn(ctx, olderThan)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-olderThan)
	var out []Job
	for _, rec := range m.records {
		if rec.status != JobStatusProcessing {
			continue
		}
		if olderThan > 0 && rec.updatedAt.After(cutoff) {
			continue
		}
		out = append(out, rec.job)
	}
	return out, nil
}

// JobStatus returns the recorded status for a job, for test assertions.
func (m *MockJobStore) JobStatus(jobID uuid.UUID) (JobStatus, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[jobID]
	if !ok {
		return "", false
	}
	return rec.status, true
}

// WithTx implements the JobStore interface; the mock has no transaction
// state, so it returns itself.
func (m *MockJobStore) WithTx(tx *sql.Tx) JobStore {
	return m
}
