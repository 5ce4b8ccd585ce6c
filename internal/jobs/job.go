package jobs

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// JobStatus represents the current state of a background job.
type JobStatus string

// Possible job status values.
const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Job type constants.
const (
	// JobTypeNotification represents the job type for delivering a
	// notification event to its recipient.
	JobTypeNotification = "notification"
)

// Job represents a unit of background work to be processed.
type Job interface {
	// ID returns the job's unique identifier.
	ID() uuid.UUID

	// Type returns the job type identifier.
	Type() string

	// Payload returns the job data as a byte slice.
	Payload() []byte

	// Status returns the current job status.
	Status() JobStatus

	// Execute runs the job logic.
	Execute(ctx context.Context) error
}

// JobStore defines the interface for persisting jobs. Persisting
// before queuing is what makes the pipeline at-least-once: a job that
// was accepted survives a crash and is requeued on startup.
type JobStore interface {
	// SaveJob persists a job to the database.
	SaveJob(ctx context.Context, job Job) error

	// UpdateJobStatus updates the status of a job.
	UpdateJobStatus(ctx context.Context, jobID uuid.UUID, status JobStatus, errorMsg string) error

	// GetPendingJobs retrieves all jobs with "pending" status.
	GetPendingJobs(ctx context.Context) ([]Job, error)

	// GetProcessingJobs retrieves jobs with "processing" status.
	// If olderThan is non-zero, only returns jobs that have been in
	// this state longer than the specified duration.
	GetProcessingJobs(ctx context.Context, olderThan time.Duration) ([]Job, error)

	// WithTx returns a new JobStore instance that uses the provided
	// transaction.
	WithTx(tx *sql.Tx) JobStore
}
