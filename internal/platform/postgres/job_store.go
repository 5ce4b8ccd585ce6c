package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/taskdeck/taskdeck-api/internal/jobs"
	"github.com/taskdeck/taskdeck-api/internal/platform/logger"
	"github.com/taskdeck/taskdeck-api/internal/store"
)

// PostgresJobStore implements the jobs.JobStore interface using
// PostgreSQL. Jobs persisted here survive restarts; the runner's
// recovery pass reloads them through GetPendingJobs/GetProcessingJobs.
type PostgresJobStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresJobStore creates a new PostgresJobStore.
func NewPostgresJobStore(db store.DBTX, logger *slog.Logger) *PostgresJobStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresJobStore{
		db:     db,
		logger: logger.With(slog.String("component", "job_store")),
	}
}

// Ensure PostgresJobStore implements jobs.JobStore interface
var _ jobs.JobStore = (*PostgresJobStore)(nil)

// SaveJob persists a job to the database.
func (s *PostgresJobStore) SaveJob(ctx context.Context, job jobs.Job) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		INSERT INTO jobs (id, type, payload, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx, query,
		job.ID(),
		job.Type(),
		job.Payload(),
		job.Status(),
		now,
		now,
	)

	if err != nil {
		log.Error("failed to save job",
			"job_id", job.ID(),
			"job_type", job.Type(),
			"error", err)
		return fmt.Errorf("failed to save job to database: %w", err)
	}

	return nil
}

// UpdateJobStatus updates the status of a job in the database.
func (s *PostgresJobStore) UpdateJobStatus(ctx context.Context, jobID uuid.UUID, status jobs.JobStatus, errorMsg string) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE jobs
		SET status = $1, error_message = $2, updated_at = $3
		WHERE id = $4
	`

	result, err := s.db.ExecContext(ctx, query,
		status,
		errorMsg,
		time.Now().UTC(),
		jobID,
	)

	if err != nil {
		log.Error("failed to update job status",
			"job_id", jobID,
			"status", status,
			"error", err)
		return fmt.Errorf("failed to update job status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		log.Warn("no job found with ID to update status", "job_id", jobID)
		return nil // Job not found, treat as no-op
	}

	return nil
}

// GetPendingJobs retrieves all jobs with "pending" status.
func (s *PostgresJobStore) GetPendingJobs(ctx context.Context) ([]jobs.Job, error) {
	return s.getJobsByStatus(ctx, jobs.JobStatusPending, 0)
}

// GetProcessingJobs retrieves jobs with "processing" status.
func (s *PostgresJobStore) GetProcessingJobs(ctx context.Context, olderThan time.Duration) ([]jobs.Job, error) {
	return s.getJobsByStatus(ctx, jobs.JobStatusProcessing, olderThan)
}

// getJobsByStatus is a helper to get jobs by status with an optional
// age filter.
func (s *PostgresJobStore) getJobsByStatus(ctx context.Context, status jobs.JobStatus, olderThan time.Duration) ([]jobs.Job, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var query string
	var args []any

	if olderThan > 0 {
		query = `
			SELECT id, type, payload, status, created_at, updated_at
			FROM jobs
			WHERE status = $1 AND updated_at < $2
			ORDER BY created_at ASC
		`
		args = []any{status, time.Now().UTC().Add(-olderThan)}
	} else {
		query = `
			SELECT id, type, payload, status, created_at, updated_at
			FROM jobs
			WHERE status = $1
			ORDER BY created_at ASC
		`
		args = []any{status}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query jobs by status",
			"status", status,
			"error", err)
		return nil, fmt.Errorf("failed to query jobs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var result []jobs.Job
	for rows.Next() {
		var row databaseJob
		err := rows.Scan(
			&row.id,
			&row.jobType,
			&row.payload,
			&row.status,
			&row.createdAt,
			&row.updatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job row: %w", err)
		}
		result = append(result, &row)
	}

	if err := rows.Err(); err != nil {
		log.Error("error iterating job rows",
			"status", status,
			"error", err)
		return nil, fmt.Errorf("error iterating job rows: %w", err)
	}

	return result, nil
}

// WithTx implements jobs.JobStore.WithTx.
func (s *PostgresJobStore) WithTx(tx *sql.Tx) jobs.JobStore {
	return &PostgresJobStore{
		db:     tx,
		logger: s.logger,
	}
}

// databaseJob implements the jobs.Job interface for rows loaded from
// the database. Rows are inert: they carry identity, type, and
// payload, and are rehydrated into executable jobs by the runner's
// registered RehydrateFunc before execution.
type databaseJob struct {
	id        uuid.UUID
	jobType   string
	payload   []byte
	status    jobs.JobStatus
	createdAt time.Time
	updatedAt time.Time
}

// ID returns the job's unique identifier.
func (j *databaseJob) ID() uuid.UUID {
	return j.id
}

// Type returns the job type identifier.
func (j *databaseJob) Type() string {
	return j.jobType
}

// Payload returns the job data as a byte slice.
func (j *databaseJob) Payload() []byte {
	return j.payload
}

// Status returns the current job status.
func (j *databaseJob) Status() jobs.JobStatus {
	return j.status
}

// Execute fails: persisted rows must be rehydrated first.
func (j *databaseJob) Execute(ctx context.Context) error {
	return fmt.Errorf("job %s was not rehydrated before execution", j.id)
}
